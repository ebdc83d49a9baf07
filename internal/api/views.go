package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/patrickwarner/nativeads/internal/middleware"
	"github.com/patrickwarner/nativeads/internal/viewsim"
)

// ViewVisibleHandler handles POST /views/{view}/visible.
func (s *Server) ViewVisibleHandler(w http.ResponseWriter, r *http.Request) {
	s.setVisible(w, r, true)
}

// ViewHiddenHandler handles POST /views/{view}/hidden.
func (s *Server) ViewHiddenHandler(w http.ResponseWriter, r *http.Request) {
	s.setVisible(w, r, false)
}

func (s *Server) setVisible(w http.ResponseWriter, r *http.Request, visible bool) {
	start := time.Now()
	const endpoint = "view_visibility"
	const method = "POST"

	viewID := mux.Vars(r)["view"]
	if err := s.Surface.SetVisible(viewID, visible); err != nil {
		s.viewError(w, r, endpoint, method, start, err)
		return
	}
	s.respond(w, endpoint, method, start, http.StatusOK, map[string]any{"view": viewID, "visible": visible})
}

// ViewTapHandler handles POST /views/{view}/tap.
func (s *Server) ViewTapHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "view_tap"
	const method = "POST"

	viewID := mux.Vars(r)["view"]
	if err := s.Surface.Tap(viewID); err != nil {
		s.viewError(w, r, endpoint, method, start, err)
		return
	}
	s.respond(w, endpoint, method, start, http.StatusOK, map[string]any{"view": viewID, "tapped": true})
}

func (s *Server) viewError(w http.ResponseWriter, r *http.Request, endpoint, method string, start time.Time, err error) {
	middleware.LoggerFromRequest(r, s.Logger).Debug("view signal rejected", zap.Error(err))
	switch {
	case errors.Is(err, viewsim.ErrUnknownView):
		s.fail(w, endpoint, method, start, http.StatusNotFound, "unknown view")
	case errors.Is(err, viewsim.ErrViewHidden):
		s.fail(w, endpoint, method, start, http.StatusConflict, "view is not visible")
	default:
		s.fail(w, endpoint, method, start, http.StatusInternalServerError, "internal error")
	}
}
