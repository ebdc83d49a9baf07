// Package redirect navigates users to click destinations.
package redirect

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrMalformedDestination is reported when the click URI is empty or not absolute.
	ErrMalformedDestination = errors.New("redirect: malformed destination")
	// ErrNoScreen is reported when no foreground screen can host the navigation.
	ErrNoScreen = errors.New("redirect: no foreground screen")
)

// Opener performs the platform navigation, e.g. launching a browser or deep
// link from the given screen.
type Opener interface {
	Open(ctx context.Context, destination *url.URL, screen string) error
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(ctx context.Context, destination *url.URL, screen string) error

func (f OpenerFunc) Open(ctx context.Context, destination *url.URL, screen string) error {
	return f(ctx, destination, screen)
}

// Redirector validates click destinations and hands them to an Opener on a
// separate goroutine. The outcome is always reported through the callback.
type Redirector struct {
	opener  Opener
	timeout time.Duration
	logger  *zap.Logger
}

// New creates a Redirector. timeout bounds each Open call; zero means no
// bound.
func New(opener Opener, timeout time.Duration, logger *zap.Logger) *Redirector {
	return &Redirector{
		opener:  opener,
		timeout: timeout,
		logger:  logger.Named("redirect"),
	}
}

// Redirect returns immediately. onResult may be nil.
func (r *Redirector) Redirect(destination string, screen string, onResult func(error)) {
	if onResult == nil {
		onResult = func(error) {}
	}

	go func() {
		onResult(r.redirect(destination, screen))
	}()
}

func (r *Redirector) redirect(destination, screen string) error {
	u, err := ParseDestination(destination)
	if err != nil {
		return err
	}
	if screen == "" {
		return ErrNoScreen
	}

	ctx := context.Background()
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	if err := r.opener.Open(ctx, u, screen); err != nil {
		return fmt.Errorf("open %s: %w", u.Redacted(), err)
	}
	r.logger.Debug("user redirected", zap.String("destination", u.Redacted()), zap.String("screen", screen))
	return nil
}

// ParseDestination accepts absolute URIs. Custom schemes (deep links) are
// allowed; http and https destinations must name a host.
func ParseDestination(destination string) (*url.URL, error) {
	destination = strings.TrimSpace(destination)
	if destination == "" {
		return nil, fmt.Errorf("%w: empty", ErrMalformedDestination)
	}
	u, err := url.Parse(destination)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDestination, err)
	}
	if u.Scheme == "" {
		return nil, fmt.Errorf("%w: %q is not absolute", ErrMalformedDestination, destination)
	}
	if (u.Scheme == "http" || u.Scheme == "https") && u.Host == "" {
		return nil, fmt.Errorf("%w: %q has no host", ErrMalformedDestination, destination)
	}
	return u, nil
}
