// Package viewsim is an in-memory view surface for hosts without a native UI
// toolkit, such as server-side previews and integration tests. Views are
// identified by string ids or by comparable host handles, and their
// visibility and taps are driven by the caller.
package viewsim

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/google/uuid"
	"github.com/patrickwarner/nativeads/internal/nativead"
)

var (
	ErrUnknownView       = errors.New("viewsim: unknown view")
	ErrViewHidden        = errors.New("viewsim: view is not visible")
	ErrUnsupportedHandle = errors.New("viewsim: view handle is nil or not comparable")
)

type view struct {
	visible   bool
	onVisible []func()
	onClick   []func()
}

// Surface holds the simulated views. Views created with NewView are keyed by
// their string id; any other comparable handle passed to a watcher is keyed
// by the handle value itself, so distinct pointers are distinct views.
// Signals are delivered synchronously on the goroutine that calls SetVisible
// or Tap.
type Surface struct {
	mu    sync.Mutex
	views map[nativead.View]*view
}

func NewSurface() *Surface {
	return &Surface{views: make(map[nativead.View]*view)}
}

// NewView creates a hidden view and returns its id.
func (s *Surface) NewView() string {
	id := uuid.NewString()
	s.mu.Lock()
	s.views[id] = &view{}
	s.mu.Unlock()
	return id
}

// SetVisible changes the on-screen state of the view with the given id.
// Visibility watchers run on every hidden to visible transition.
func (s *Surface) SetVisible(id string, visible bool) error {
	return s.SetViewVisible(id, visible)
}

// SetViewVisible is SetVisible for an arbitrary host handle.
func (s *Surface) SetViewVisible(handle nativead.View, visible bool) error {
	if !supported(handle) {
		return ErrUnsupportedHandle
	}
	s.mu.Lock()
	v, ok := s.views[handle]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %v", ErrUnknownView, handle)
	}
	becameVisible := visible && !v.visible
	v.visible = visible
	callbacks := append([]func(){}, v.onVisible...)
	s.mu.Unlock()

	if becameVisible {
		for _, cb := range callbacks {
			cb()
		}
	}
	return nil
}

// Tap delivers one click to every click watcher of a visible view.
func (s *Surface) Tap(id string) error {
	return s.TapView(id)
}

// TapView is Tap for an arbitrary host handle.
func (s *Surface) TapView(handle nativead.View) error {
	if !supported(handle) {
		return ErrUnsupportedHandle
	}
	s.mu.Lock()
	v, ok := s.views[handle]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %v", ErrUnknownView, handle)
	}
	if !v.visible {
		s.mu.Unlock()
		return fmt.Errorf("%w: %v", ErrViewHidden, handle)
	}
	callbacks := append([]func(){}, v.onClick...)
	s.mu.Unlock()

	for _, cb := range callbacks {
		cb()
	}
	return nil
}

// Visible reports whether the view exists and is visible.
func (s *Surface) Visible(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.views[id]
	return ok && v.visible
}

// Has reports whether the surface knows the view.
func (s *Surface) Has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.views[id]
	return ok
}

// Visibility returns the surface as a nativead.VisibilityTracker.
func (s *Surface) Visibility() nativead.VisibilityTracker {
	return visibilityTracker{s}
}

// Clicks returns the surface as a nativead.ClickDetector.
func (s *Surface) Clicks() nativead.ClickDetector {
	return clickDetector{s}
}

// supported reports whether handle can key a view. Map keys must be
// comparable all the way down or the lookup panics.
func supported(handle nativead.View) bool {
	return handle != nil && reflect.ValueOf(handle).Comparable()
}

// lookup returns the view for a handle, creating it when a host passes a
// handle the surface has not seen yet. Callers hold s.mu.
func (s *Surface) lookup(handle nativead.View) *view {
	v, ok := s.views[handle]
	if !ok {
		v = &view{}
		s.views[handle] = v
	}
	return v
}

type visibilityTracker struct{ s *Surface }

// Watch fires onVisible straight away when the view is already on screen.
// Unsupported handles are never watched.
func (t visibilityTracker) Watch(handle nativead.View, onVisible func()) {
	if !supported(handle) {
		return
	}
	t.s.mu.Lock()
	v := t.s.lookup(handle)
	v.onVisible = append(v.onVisible, onVisible)
	visible := v.visible
	t.s.mu.Unlock()

	if visible {
		onVisible()
	}
}

type clickDetector struct{ s *Surface }

func (d clickDetector) Watch(handle nativead.View, onClick func()) {
	if !supported(handle) {
		return
	}
	d.s.mu.Lock()
	v := d.s.lookup(handle)
	v.onClick = append(v.onClick, onClick)
	d.s.mu.Unlock()
}
