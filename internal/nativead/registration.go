package nativead

import "sync"

// ViewRole is the purpose a view was registered for.
type ViewRole int

const (
	RoleImpression ViewRole = iota
	RoleProductClick
	RolePrivacyClick
)

func (r ViewRole) String() string {
	switch r {
	case RoleImpression:
		return "impression"
	case RoleProductClick:
		return "product_click"
	case RolePrivacyClick:
		return "privacy_click"
	default:
		return "unknown"
	}
}

// ViewRegistration records that a view was handed to the ad for a role.
type ViewRegistration struct {
	View View
	Role ViewRole
}

// registrations is append-only; views are never removed.
type registrations struct {
	mu    sync.RWMutex
	items []ViewRegistration
}

func (r *registrations) add(view View, role ViewRole) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, ViewRegistration{View: view, Role: role})
}

func (r *registrations) snapshot() []ViewRegistration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ViewRegistration, len(r.items))
	copy(out, r.items)
	return out
}
