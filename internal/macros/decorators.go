package macros

import (
	"time"

	"github.com/patrickwarner/nativeads/internal/nativead"
)

// PixelFirer expands macros in every pixel URL before handing it to next.
type PixelFirer struct {
	next     nativead.PixelFirer
	expander *Expander
	base     Context
	now      func() time.Time
}

// NewPixelFirer wraps next. base supplies the publisher level values.
func NewPixelFirer(next nativead.PixelFirer, expander *Expander, base Context) *PixelFirer {
	return &PixelFirer{next: next, expander: expander, base: base, now: time.Now}
}

// Fire falls back to the raw URL when expansion fails.
func (p *PixelFirer) Fire(pixelURL string) {
	ctx := p.base
	ctx.Timestamp = p.now()
	expanded, err := p.expander.Expand(pixelURL, &ctx)
	if err != nil {
		expanded = pixelURL
	}
	p.next.Fire(expanded)
}

// Redirector expands macros in click destinations, including {SCREEN}, before
// handing them to next.
type Redirector struct {
	next     nativead.Redirector
	expander *Expander
	base     Context
	now      func() time.Time
}

func NewRedirector(next nativead.Redirector, expander *Expander, base Context) *Redirector {
	return &Redirector{next: next, expander: expander, base: base, now: time.Now}
}

func (r *Redirector) Redirect(destination, screen string, onResult func(error)) {
	ctx := r.base
	ctx.Timestamp = r.now()
	ctx.Screen = screen
	expanded, err := r.expander.Expand(destination, &ctx)
	if err != nil {
		expanded = destination
	}
	r.next.Redirect(expanded, screen, onResult)
}
