package nativead

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/patrickwarner/nativeads/internal/observability"
	"go.uber.org/zap"
)

// ErrMissingDependency is returned by NewMapper when a collaborator is nil.
var ErrMissingDependency = errors.New("nativead: missing dependency")

// Dependencies groups the collaborators every NativeAd is wired to.
type Dependencies struct {
	Visibility VisibilityTracker
	Clicks     ClickDetector
	Redirector Redirector
	Screens    TopScreenFinder
	Pixels     PixelFirer
	UI         UIExecutor
}

func (d Dependencies) validate() error {
	missing := func(name string) error {
		return fmt.Errorf("%w: %s", ErrMissingDependency, name)
	}
	switch {
	case d.Visibility == nil:
		return missing("visibility tracker")
	case d.Clicks == nil:
		return missing("click detector")
	case d.Redirector == nil:
		return missing("redirector")
	case d.Screens == nil:
		return missing("top screen finder")
	case d.Pixels == nil:
		return missing("pixel firer")
	case d.UI == nil:
		return missing("ui executor")
	}
	return nil
}

// Mapper converts native assets into NativeAds.
type Mapper struct {
	deps    Dependencies
	logger  *zap.Logger
	metrics observability.MetricsRegistry
}

// NewMapper creates a Mapper. A nil logger or metrics registry falls back to a
// no-op implementation.
func NewMapper(deps Dependencies, logger *zap.Logger, metrics observability.MetricsRegistry) (*Mapper, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = observability.NewNoOpRegistry()
	}
	return &Mapper{
		deps:    deps,
		logger:  logger.Named("native_ad"),
		metrics: metrics,
	}, nil
}

// Map builds a NativeAd from assets. It performs no I/O; the display fields
// and pixel list are copied so later changes to assets have no effect.
func (m *Mapper) Map(assets Assets, listener ListenerRef) *NativeAd {
	id := uuid.NewString()
	logger := m.logger.With(zap.String("ad_id", id))

	pixels := make([]string, len(assets.ImpressionPixels))
	copy(pixels, assets.ImpressionPixels)

	ad := &NativeAd{
		id:                    id,
		title:                 assets.Product.Title,
		description:           assets.Product.Description,
		price:                 assets.Product.Price,
		callToAction:          assets.Product.CallToAction,
		productImageURL:       assets.Product.ImageURL,
		advertiserDomain:      assets.AdvertiserDomain,
		advertiserDescription: assets.AdvertiserDescription,
		advertiserLogoURL:     assets.AdvertiserLogoURL,
		visibility:            m.deps.Visibility,
		clicks:                m.deps.Clicks,
	}

	ad.impression = &impressionTask{
		adID:     id,
		pixels:   pixels,
		listener: listener,
		firer:    m.deps.Pixels,
		ui:       m.deps.UI,
		logger:   logger,
		metrics:  m.metrics,
	}
	ad.productClick = m.newClickHandler(id, ClickProduct, assets.Product.ClickURL, listener, logger)
	ad.privacyClick = m.newClickHandler(id, ClickPrivacyOptOut, assets.PrivacyOptOutClickURL, listener, logger)

	logger.Debug("native ad mapped", zap.Int("impression_pixels", len(pixels)))
	return ad
}

func (m *Mapper) newClickHandler(adID string, role ClickRole, destination string, listener ListenerRef, logger *zap.Logger) *clickHandler {
	return &clickHandler{
		adID:        adID,
		role:        role,
		destination: destination,
		listener:    listener,
		redirector:  m.deps.Redirector,
		screens:     m.deps.Screens,
		ui:          m.deps.UI,
		logger:      logger,
		metrics:     m.metrics,
	}
}
