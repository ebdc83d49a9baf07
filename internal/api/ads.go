package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/patrickwarner/nativeads/internal/middleware"
	"github.com/patrickwarner/nativeads/internal/nativead"
)

// Roles accepted by POST /ads/{id}/views.
const (
	viewRoleImpression = "impression"
	viewRoleProduct    = "product"
	viewRolePrivacy    = "privacy"
)

type adResponse struct {
	ID                     string             `json:"id"`
	Title                  string             `json:"title"`
	Description            string             `json:"description"`
	Price                  string             `json:"price"`
	CallToAction           string             `json:"callToAction"`
	ProductImageURL        string             `json:"productImageUrl"`
	AdvertiserDomain       string             `json:"advertiserDomain"`
	AdvertiserDescription  string             `json:"advertiserDescription"`
	AdvertiserLogoImageURL string             `json:"advertiserLogoImageUrl"`
	ImpressionState        string             `json:"impressionState"`
	Impressions            int64              `json:"impressions"`
	Clicks                 int64              `json:"clicks"`
	Views                  []registrationView `json:"views"`
}

type registrationView struct {
	View string `json:"view"`
	Role string `json:"role"`
}

type registerViewRequest struct {
	Role string `json:"role"`
	View string `json:"view,omitempty"`
}

func newAdResponse(ad *nativead.NativeAd) adResponse {
	resp := adResponse{
		ID:                     ad.ID(),
		Title:                  ad.Title(),
		Description:            ad.Description(),
		Price:                  ad.Price(),
		CallToAction:           ad.CallToAction(),
		ProductImageURL:        ad.ProductImageURL(),
		AdvertiserDomain:       ad.AdvertiserDomain(),
		AdvertiserDescription:  ad.AdvertiserDescription(),
		AdvertiserLogoImageURL: ad.AdvertiserLogoImageURL(),
		ImpressionState:        ad.ImpressionState().String(),
		Views:                  []registrationView{},
	}
	for _, reg := range ad.Registrations() {
		resp.Views = append(resp.Views, registrationView{View: fmt.Sprint(reg.View), Role: reg.Role.String()})
	}
	return resp
}

func decodeAssets(r *http.Request) (nativead.Assets, error) {
	defer func() {
		_ = r.Body.Close()
	}()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nativead.Assets{}, fmt.Errorf("read body: %w", err)
	}
	var assets nativead.Assets
	if err := json.Unmarshal(body, &assets); err != nil {
		return nativead.Assets{}, fmt.Errorf("parse json: %w", err)
	}
	return assets, nil
}

// CreateAdHandler handles POST /ads by mapping the posted assets into a
// tracked native ad.
func (s *Server) CreateAdHandler(w http.ResponseWriter, r *http.Request) {
	_, span := tracer.Start(r.Context(), "CreateAdHandler",
		trace.WithAttributes(
			attribute.String("http.method", "POST"),
			attribute.String("http.route", "/ads"),
		))
	defer span.End()

	logger := middleware.LoggerFromRequest(r, s.Logger)

	start := time.Now()
	const endpoint = "ads"
	const method = "POST"

	if s.RemoteConfig != nil && s.RemoteConfig.KillSwitchEngaged() {
		span.SetStatus(codes.Error, "kill switch engaged")
		logger.Warn("kill switch engaged, refusing to map ad")
		s.fail(w, endpoint, method, start, http.StatusServiceUnavailable, "kill switch engaged")
		return
	}

	assets, err := decodeAssets(r)
	if err != nil {
		span.RecordError(err)
		logger.Warn("decode assets", zap.Error(err))
		s.fail(w, endpoint, method, start, http.StatusBadRequest, "invalid assets")
		return
	}

	listener := &adEventListener{events: s.events, logger: s.Logger}
	ad := s.Mapper.Map(assets, nativead.WeakListener(listener))
	listener.adID = ad.ID()

	s.mu.Lock()
	s.ads[ad.ID()] = &servedAd{ad: ad, listener: listener}
	s.mu.Unlock()

	span.SetAttributes(attribute.String("ad_id", ad.ID()))
	logger.Info("native ad mapped",
		zap.String("ad_id", ad.ID()),
		zap.Int("impression_pixels", len(assets.ImpressionPixels)))

	s.respond(w, endpoint, method, start, http.StatusCreated, newAdResponse(ad))
}

// GetAdHandler handles GET /ads/{id}.
func (s *Server) GetAdHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "ad"
	const method = "GET"

	id := mux.Vars(r)["id"]
	entry, ok := s.lookupAd(id)
	if !ok {
		s.fail(w, endpoint, method, start, http.StatusNotFound, "unknown ad")
		return
	}

	resp := newAdResponse(entry.ad)
	if s.Store != nil {
		imps, clicks, err := s.Store.GetAdEventCounts(r.Context(), id)
		if err != nil {
			middleware.LoggerFromRequest(r, s.Logger).Error("failed to read ad event counts",
				zap.String("ad_id", id), zap.Error(err))
			s.fail(w, endpoint, method, start, http.StatusServiceUnavailable, "event counts unavailable")
			return
		}
		resp.Impressions, resp.Clicks = imps, clicks
	}
	s.respond(w, endpoint, method, start, http.StatusOK, resp)
}

// ReleaseAdHandler handles DELETE /ads/{id}. The harness forgets the ad and
// drops its listener; views already registered keep signalling the engine.
func (s *Server) ReleaseAdHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "ad"
	const method = "DELETE"

	id := mux.Vars(r)["id"]
	s.mu.Lock()
	_, ok := s.ads[id]
	delete(s.ads, id)
	s.mu.Unlock()

	if !ok {
		s.fail(w, endpoint, method, start, http.StatusNotFound, "unknown ad")
		return
	}
	middleware.LoggerFromRequest(r, s.Logger).Info("native ad released", zap.String("ad_id", id))
	s.respond(w, endpoint, method, start, http.StatusNoContent, nil)
}

// RegisterViewHandler handles POST /ads/{id}/views. Without a view id in the
// body a new hidden view is created on the surface.
func (s *Server) RegisterViewHandler(w http.ResponseWriter, r *http.Request) {
	_, span := tracer.Start(r.Context(), "RegisterViewHandler",
		trace.WithAttributes(
			attribute.String("http.method", "POST"),
			attribute.String("http.route", "/ads/{id}/views"),
		))
	defer span.End()

	logger := middleware.LoggerFromRequest(r, s.Logger)

	start := time.Now()
	const endpoint = "ad_views"
	const method = "POST"

	id := mux.Vars(r)["id"]
	entry, ok := s.lookupAd(id)
	if !ok {
		s.fail(w, endpoint, method, start, http.StatusNotFound, "unknown ad")
		return
	}

	var req registerViewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		span.RecordError(err)
		s.fail(w, endpoint, method, start, http.StatusBadRequest, "invalid request")
		return
	}

	var register func(nativead.View)
	switch req.Role {
	case viewRoleImpression:
		register = entry.ad.WatchForImpression
	case viewRoleProduct:
		register = entry.ad.SetProductClickableView
	case viewRolePrivacy:
		register = entry.ad.SetAdChoiceClickableView
	default:
		s.fail(w, endpoint, method, start, http.StatusBadRequest, "role must be impression, product or privacy")
		return
	}

	viewID := req.View
	if viewID == "" {
		viewID = s.Surface.NewView()
	} else if !s.Surface.Has(viewID) {
		s.fail(w, endpoint, method, start, http.StatusNotFound, "unknown view")
		return
	}
	register(viewID)

	span.SetAttributes(attribute.String("ad_id", id), attribute.String("view_id", viewID))
	logger.Debug("view registered",
		zap.String("ad_id", id),
		zap.String("view_id", viewID),
		zap.String("role", req.Role))

	s.respond(w, endpoint, method, start, http.StatusCreated, registrationView{View: viewID, Role: req.Role})
}
