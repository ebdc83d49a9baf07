package nativead

// Product holds the product-level assets of a native ad.
type Product struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Price        string `json:"price"`
	CallToAction string `json:"callToAction"`
	ImageURL     string `json:"imageUrl"`
	ClickURL     string `json:"clickUrl"`
}

// Assets is the decoded native ad payload the mapper consumes. It is read,
// never modified.
type Assets struct {
	Product               Product  `json:"product"`
	AdvertiserDomain      string   `json:"advertiserDomain"`
	AdvertiserDescription string   `json:"advertiserDescription"`
	AdvertiserLogoURL     string   `json:"advertiserLogoUrl"`
	ImpressionPixels      []string `json:"impressionPixels"`
	PrivacyOptOutClickURL string   `json:"privacyOptOutClickUrl"`
}
