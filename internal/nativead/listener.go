package nativead

import "weak"

// Listener receives interaction callbacks for a native ad. Callbacks run on
// the host UI executor.
type Listener interface {
	OnAdImpression()
	OnAdClicked()
}

// ListenerRef is a non-owning reference to a Listener. Holding a ListenerRef
// does not keep the listener, or whatever owns it, alive.
//
// The zero value refers to no listener.
type ListenerRef struct {
	resolve func() Listener
}

// WeakListener returns a weak reference to l. A nil l yields the zero
// ListenerRef.
func WeakListener[T any, P interface {
	*T
	Listener
}](l P) ListenerRef {
	if (*T)(l) == nil {
		return ListenerRef{}
	}
	wp := weak.Make((*T)(l))
	return ListenerRef{resolve: func() Listener {
		if p := wp.Value(); p != nil {
			return P(p)
		}
		return nil
	}}
}

// Get resolves the reference. It returns nil when no listener was given or
// the listener has been garbage collected.
func (r ListenerRef) Get() Listener {
	if r.resolve == nil {
		return nil
	}
	return r.resolve()
}
