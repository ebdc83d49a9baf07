package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/patrickwarner/nativeads/internal/redirect"
)

// ScreenResumeHandler handles POST /screens/{screen}/resume.
func (s *Server) ScreenResumeHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	s.Screens.Resumed(mux.Vars(r)["screen"])
	s.respondTopScreen(w, "screen_resume", start)
}

// ScreenPauseHandler handles POST /screens/{screen}/pause.
func (s *Server) ScreenPauseHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	s.Screens.Paused(mux.Vars(r)["screen"])
	s.respondTopScreen(w, "screen_pause", start)
}

func (s *Server) respondTopScreen(w http.ResponseWriter, endpoint string, start time.Time) {
	top, ok := s.Screens.TopScreen()
	s.respond(w, endpoint, "POST", start, http.StatusOK, map[string]any{"topScreen": top, "foreground": ok})
}

// NavigationsHandler handles GET /navigations, listing the destinations the
// redirector opened.
func (s *Server) NavigationsHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	entries := []redirect.Navigation{}
	if s.Navigations != nil {
		entries = append(entries, s.Navigations.Entries()...)
	}
	s.respond(w, "navigations", "GET", start, http.StatusOK, entries)
}
