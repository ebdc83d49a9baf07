package nativead

import (
	"github.com/patrickwarner/nativeads/internal/observability"
	"go.uber.org/zap"
)

// ClickRole decides where a click goes and whether the listener hears about it.
type ClickRole int

const (
	// ClickProduct redirects to the product click URL and notifies the listener.
	ClickProduct ClickRole = iota
	// ClickPrivacyOptOut redirects to the privacy opt-out URL only.
	ClickPrivacyOptOut
)

func (r ClickRole) String() string {
	switch r {
	case ClickProduct:
		return "product"
	case ClickPrivacyOptOut:
		return "privacy_opt_out"
	default:
		return "unknown"
	}
}

// clickHandler is bound to one role of one ad and holds no per-tap state.
type clickHandler struct {
	adID        string
	role        ClickRole
	destination string
	listener    ListenerRef
	redirector  Redirector
	screens     TopScreenFinder
	ui          UIExecutor
	logger      *zap.Logger
	metrics     observability.MetricsRegistry
}

func (h *clickHandler) onClick() {
	h.metrics.IncrementClicks(h.role.String())

	h.ui.Execute(func() {
		// an empty screen is passed through; the redirector reports it
		screen, _ := h.screens.TopScreen()
		h.redirector.Redirect(h.destination, screen, h.onRedirected)

		if h.role != ClickProduct {
			return
		}
		if l := h.listener.Get(); l != nil {
			l.OnAdClicked()
		}
	})
}

func (h *clickHandler) onRedirected(err error) {
	if err != nil {
		h.metrics.IncrementRedirects("failure")
		h.logger.Warn("redirect failed",
			zap.String("ad_id", h.adID),
			zap.String("role", h.role.String()),
			zap.String("destination", h.destination),
			zap.Error(err))
		return
	}
	h.metrics.IncrementRedirects("success")
}
