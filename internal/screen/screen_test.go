package screen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTracker_TopScreen(t *testing.T) {
	tr := NewTracker()

	_, ok := tr.TopScreen()
	assert.False(t, ok)

	tr.Resumed("Splash")
	tr.Resumed("Main")
	top, ok := tr.TopScreen()
	assert.True(t, ok)
	assert.Equal(t, "Main", top)

	tr.Paused("Main")
	top, _ = tr.TopScreen()
	assert.Equal(t, "Splash", top)

	// resuming again moves it back on top
	tr.Resumed("Main")
	tr.Resumed("Splash")
	top, _ = tr.TopScreen()
	assert.Equal(t, "Splash", top)

	tr.Paused("Splash")
	tr.Paused("Main")
	tr.Paused("Unknown")
	_, ok = tr.TopScreen()
	assert.False(t, ok)
}

func TestTracker_IgnoresEmptyScreen(t *testing.T) {
	tr := NewTracker()
	tr.Resumed("")
	_, ok := tr.TopScreen()
	assert.False(t, ok)
}
