package nativead

// NativeAd is the renderable handle returned by Mapper.Map. Display fields
// are a snapshot of the assets at map time. All methods are safe for
// concurrent use.
type NativeAd struct {
	id string

	title                 string
	description           string
	price                 string
	callToAction          string
	productImageURL       string
	advertiserDomain      string
	advertiserDescription string
	advertiserLogoURL     string

	visibility   VisibilityTracker
	clicks       ClickDetector
	impression   *impressionTask
	productClick *clickHandler
	privacyClick *clickHandler
	views        registrations
}

// ID is unique per Map call. The remaining getters return the display
// fields copied from the assets.
func (a *NativeAd) ID() string                     { return a.id }
func (a *NativeAd) Title() string                  { return a.title }
func (a *NativeAd) Description() string            { return a.description }
func (a *NativeAd) Price() string                  { return a.price }
func (a *NativeAd) CallToAction() string           { return a.callToAction }
func (a *NativeAd) ProductImageURL() string        { return a.productImageURL }
func (a *NativeAd) AdvertiserDomain() string       { return a.advertiserDomain }
func (a *NativeAd) AdvertiserDescription() string  { return a.advertiserDescription }
func (a *NativeAd) AdvertiserLogoImageURL() string { return a.advertiserLogoURL }

// ImpressionState reports whether the impression has fired.
func (a *NativeAd) ImpressionState() ImpressionState {
	return a.impression.State()
}

// WatchForImpression starts watching view for visibility. The first time any
// watched view becomes visible the impression fires; views registered after
// that are still watched but never fire again.
func (a *NativeAd) WatchForImpression(view View) {
	a.views.add(view, RoleImpression)
	a.visibility.Watch(view, a.impression.onVisible)
}

// SetProductClickableView makes view redirect to the product and notify the
// listener on every tap.
func (a *NativeAd) SetProductClickableView(view View) {
	a.views.add(view, RoleProductClick)
	a.clicks.Watch(view, a.productClick.onClick)
}

// SetAdChoiceClickableView makes view redirect to the privacy opt-out page on
// every tap. The listener is not notified of these clicks.
func (a *NativeAd) SetAdChoiceClickableView(view View) {
	a.views.add(view, RolePrivacyClick)
	a.clicks.Watch(view, a.privacyClick.onClick)
}

// Registrations returns a copy of every view registered so far, in
// registration order.
func (a *NativeAd) Registrations() []ViewRegistration {
	return a.views.snapshot()
}
