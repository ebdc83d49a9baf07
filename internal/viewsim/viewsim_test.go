package viewsim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSurface_VisibilityFiresOnEachTransition(t *testing.T) {
	s := NewSurface()
	id := s.NewView()

	calls := 0
	s.Visibility().Watch(id, func() { calls++ })
	assert.Equal(t, 0, calls)

	require.NoError(t, s.SetVisible(id, true))
	require.NoError(t, s.SetVisible(id, true))
	assert.Equal(t, 1, calls)

	require.NoError(t, s.SetVisible(id, false))
	require.NoError(t, s.SetVisible(id, true))
	assert.Equal(t, 2, calls)
	assert.True(t, s.Visible(id))
}

func TestSurface_WatchOnVisibleViewFiresImmediately(t *testing.T) {
	s := NewSurface()
	id := s.NewView()
	require.NoError(t, s.SetVisible(id, true))

	calls := 0
	s.Visibility().Watch(id, func() { calls++ })
	assert.Equal(t, 1, calls)
}

func TestSurface_TapNotifiesEveryClickWatcher(t *testing.T) {
	s := NewSurface()
	id := s.NewView()

	a, b := 0, 0
	s.Clicks().Watch(id, func() { a++ })
	s.Clicks().Watch(id, func() { b++ })

	assert.ErrorIs(t, s.Tap(id), ErrViewHidden)

	require.NoError(t, s.SetVisible(id, true))
	require.NoError(t, s.Tap(id))
	require.NoError(t, s.Tap(id))
	assert.Equal(t, 2, a)
	assert.Equal(t, 2, b)
}

func TestSurface_UnknownView(t *testing.T) {
	s := NewSurface()
	assert.ErrorIs(t, s.SetVisible("nope", true), ErrUnknownView)
	assert.ErrorIs(t, s.Tap("nope"), ErrUnknownView)
	assert.False(t, s.Visible("nope"))
}

func TestSurface_WatchCreatesViewForForeignHandle(t *testing.T) {
	s := NewSurface()
	calls := 0
	s.Visibility().Watch("host-view-1", func() { calls++ })

	require.NoError(t, s.SetVisible("host-view-1", true))
	assert.Equal(t, 1, calls)
}

type hostView struct{ Name string }

func TestSurface_DistinctHandlesWithSamePrintedFormStayApart(t *testing.T) {
	s := NewSurface()
	a, b := &hostView{Name: "banner"}, &hostView{Name: "banner"}

	aCalls, bCalls := 0, 0
	s.Visibility().Watch(a, func() { aCalls++ })
	s.Visibility().Watch(b, func() { bCalls++ })

	assert.ErrorIs(t, s.SetVisible("&{banner}", true), ErrUnknownView)
	require.NoError(t, s.SetViewVisible(a, true))
	assert.Equal(t, 1, aCalls)
	assert.Equal(t, 0, bCalls)

	intCalls, strCalls := 0, 0
	s.Clicks().Watch(1, func() { intCalls++ })
	s.Clicks().Watch("1", func() { strCalls++ })
	require.NoError(t, s.SetViewVisible(1, true))
	require.NoError(t, s.TapView(1))
	assert.Equal(t, 1, intCalls)
	assert.Equal(t, 0, strCalls)
	assert.ErrorIs(t, s.Tap("1"), ErrViewHidden)
}

func TestSurface_RejectsUnsupportedHandles(t *testing.T) {
	s := NewSurface()

	calls := 0
	assert.NotPanics(t, func() {
		s.Visibility().Watch([]string{"not", "comparable"}, func() { calls++ })
		s.Clicks().Watch(nil, func() { calls++ })
	})
	assert.ErrorIs(t, s.SetViewVisible([]int{1}, true), ErrUnsupportedHandle)
	assert.ErrorIs(t, s.TapView(nil), ErrUnsupportedHandle)
	assert.Equal(t, 0, calls)
}
