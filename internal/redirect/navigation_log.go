package redirect

import (
	"context"
	"net/url"
	"sync"
	"time"
)

// Navigation is one completed redirect.
type Navigation struct {
	Destination string    `json:"destination"`
	Screen      string    `json:"screen"`
	At          time.Time `json:"at"`
}

// NavigationLog is an Opener for headless hosts: instead of launching
// anything it keeps the most recent navigations in memory.
type NavigationLog struct {
	mu      sync.Mutex
	limit   int
	entries []Navigation
}

// NewNavigationLog keeps at most limit entries; older ones are discarded.
func NewNavigationLog(limit int) *NavigationLog {
	if limit <= 0 {
		limit = 100
	}
	return &NavigationLog{limit: limit}
}

func (l *NavigationLog) Open(ctx context.Context, destination *url.URL, screen string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, Navigation{
		Destination: destination.String(),
		Screen:      screen,
		At:          time.Now(),
	})
	if over := len(l.entries) - l.limit; over > 0 {
		l.entries = append([]Navigation(nil), l.entries[over:]...)
	}
	return nil
}

// Entries returns the retained navigations, oldest first.
func (l *NavigationLog) Entries() []Navigation {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Navigation(nil), l.entries...)
}
