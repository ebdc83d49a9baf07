// Package nativead turns native ad assets into a live, view-bound ad.
//
// A NativeAd watches any number of host views for visibility and clicks.
// The impression (listener notification plus tracking pixels) fires at most
// once per ad no matter how many views report visibility or how often they
// do so. Every click redirects the user and, for product views, notifies the
// listener; clicks are never deduplicated.
//
// The package owns no UI and performs no I/O itself. Visibility detection,
// click detection, navigation, pixel delivery and dispatch onto the host UI
// context are collaborators injected through Dependencies.
package nativead

// View is an opaque handle to a host-owned view. The package never inspects
// it; it is only handed back to the VisibilityTracker and ClickDetector.
type View interface{}

// VisibilityTracker observes the on-screen state of views.
//
// Watch must invoke onVisible each time view becomes visible. It may do so
// zero, one or many times over the view's life, and never while the view is
// hidden. onVisible may be called from any goroutine.
type VisibilityTracker interface {
	Watch(view View, onVisible func())
}

// ClickDetector observes user taps on views. Watch must invoke onClick once
// per discrete tap on view, from any goroutine.
type ClickDetector interface {
	Watch(view View, onClick func())
}

// Redirector navigates the user to a click destination.
//
// Redirect returns immediately; onResult is called once navigation completed
// (nil) or failed. A failure is never fatal to the caller.
type Redirector interface {
	Redirect(destination string, screen string, onResult func(error))
}

// PixelFirer issues a fire-and-forget GET to a tracking URL. Failures are
// handled by the implementation and never surfaced to the caller.
type PixelFirer interface {
	Fire(pixelURL string)
}

// TopScreenFinder resolves the host screen currently in the foreground.
// ok is false when no screen is in the foreground.
type TopScreenFinder interface {
	TopScreen() (screen string, ok bool)
}

// UIExecutor runs host callbacks on the host UI context. Implementations may
// run fn synchronously or later; tasks run in submission order.
type UIExecutor interface {
	Execute(fn func())
}
