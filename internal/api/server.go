package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/patrickwarner/nativeads/internal/db"
	"github.com/patrickwarner/nativeads/internal/middleware"
	"github.com/patrickwarner/nativeads/internal/nativead"
	"github.com/patrickwarner/nativeads/internal/observability"
	"github.com/patrickwarner/nativeads/internal/ratelimit"
	"github.com/patrickwarner/nativeads/internal/redirect"
	"github.com/patrickwarner/nativeads/internal/remoteconfig"
	"github.com/patrickwarner/nativeads/internal/screen"
	"github.com/patrickwarner/nativeads/internal/viewsim"
)

var tracer = otel.Tracer("nativeads")

// Server groups dependencies for HTTP handlers.
type Server struct {
	Logger       *zap.Logger
	Mapper       *nativead.Mapper
	Surface      *viewsim.Surface
	Screens      *screen.Tracker
	Store        *db.RedisStore
	RemoteConfig *remoteconfig.Client
	Navigations  *redirect.NavigationLog
	Metrics      observability.MetricsRegistry
	// Limiter throttles harness clients when set.
	Limiter *ratelimit.ClientLimiter

	events *eventRecorder

	mu  sync.RWMutex
	ads map[string]*servedAd
}

// servedAd keeps the only strong reference to an ad's listener. Dropping
// the entry lets the listener be collected while the ad keeps running.
type servedAd struct {
	ad       *nativead.NativeAd
	listener *adEventListener
}

// NewServer constructs a Server. store, remote and navigations may be nil.
func NewServer(logger *zap.Logger, mapper *nativead.Mapper, surface *viewsim.Surface, screens *screen.Tracker, store *db.RedisStore, remote *remoteconfig.Client, navigations *redirect.NavigationLog, metrics observability.MetricsRegistry) *Server {
	if metrics == nil {
		metrics = observability.NewNoOpRegistry()
	}
	s := &Server{
		Logger:       logger,
		Mapper:       mapper,
		Surface:      surface,
		Screens:      screens,
		Store:        store,
		RemoteConfig: remote,
		Navigations:  navigations,
		Metrics:      metrics,
		ads:          make(map[string]*servedAd),
	}
	if store != nil {
		s.events = newEventRecorder(store, eventQueueSize, eventWriteTimeout, logger.Named("ad_events"))
	}
	return s
}

// Close writes pending ad events. Call it after the UI executor has drained.
func (s *Server) Close() {
	if s.events != nil {
		s.events.close()
	}
}

// Router returns the harness routes wrapped with tracing and request
// logging.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(s.rateLimit)
	r.HandleFunc("/ads", s.CreateAdHandler).Methods("POST")
	r.HandleFunc("/ads/{id}", s.GetAdHandler).Methods("GET")
	r.HandleFunc("/ads/{id}", s.ReleaseAdHandler).Methods("DELETE")
	r.HandleFunc("/ads/{id}/views", s.RegisterViewHandler).Methods("POST")
	r.HandleFunc("/views/{view}/visible", s.ViewVisibleHandler).Methods("POST")
	r.HandleFunc("/views/{view}/hidden", s.ViewHiddenHandler).Methods("POST")
	r.HandleFunc("/views/{view}/tap", s.ViewTapHandler).Methods("POST")
	r.HandleFunc("/screens/{screen}/resume", s.ScreenResumeHandler).Methods("POST")
	r.HandleFunc("/screens/{screen}/pause", s.ScreenPauseHandler).Methods("POST")
	r.HandleFunc("/navigations", s.NavigationsHandler).Methods("GET")
	r.HandleFunc("/health", s.HealthHandler).Methods("GET")
	r.Handle("/metrics", promhttp.Handler())

	return otelhttp.NewHandler(middleware.WithRequestLogger(s.Logger)(r), "nativeads")
}

func (s *Server) lookupAd(id string) (*servedAd, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.ads[id]
	return entry, ok
}

// respond writes body as JSON and records the request metrics.
func (s *Server) respond(w http.ResponseWriter, endpoint, method string, start time.Time, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		if err := json.NewEncoder(w).Encode(body); err != nil {
			s.Logger.Warn("encode response", zap.Error(err))
		}
	}
	s.record(endpoint, method, start, status)
}

// fail writes a plain text error and records the request metrics.
func (s *Server) fail(w http.ResponseWriter, endpoint, method string, start time.Time, status int, msg string) {
	http.Error(w, msg, status)
	s.record(endpoint, method, start, status)
}

func (s *Server) record(endpoint, method string, start time.Time, status int) {
	s.Metrics.IncrementRequests(endpoint, method, strconv.Itoa(status))
	s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
}
