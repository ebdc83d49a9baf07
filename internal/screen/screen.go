// Package screen tracks which host screen is in the foreground.
package screen

import "sync"

// Tracker follows screen lifecycle callbacks. The most recently resumed
// screen that has not been paused since is the top screen.
type Tracker struct {
	mu      sync.RWMutex
	resumed []string
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// Resumed marks screen as in the foreground.
func (t *Tracker) Resumed(screen string) {
	if screen == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resumed = append(remove(t.resumed, screen), screen)
}

// Paused marks screen as no longer in the foreground.
func (t *Tracker) Paused(screen string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resumed = remove(t.resumed, screen)
}

// TopScreen returns the foreground screen, if any.
func (t *Tracker) TopScreen() (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.resumed) == 0 {
		return "", false
	}
	return t.resumed[len(t.resumed)-1], true
}

func remove(screens []string, screen string) []string {
	out := screens[:0]
	for _, s := range screens {
		if s != screen {
			out = append(out, s)
		}
	}
	return out
}
