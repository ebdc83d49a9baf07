package redirect

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func redirectAndWait(t *testing.T, r *Redirector, destination, screen string) error {
	t.Helper()
	done := make(chan error, 1)
	r.Redirect(destination, screen, func(err error) { done <- err })
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("redirect callback not invoked")
		return nil
	}
}

func TestRedirect_OpensDestinationOnScreen(t *testing.T) {
	log := NewNavigationLog(10)
	r := New(log, time.Second, zap.NewNop())

	require.NoError(t, redirectAndWait(t, r, "click://uri.com", "MainActivity"))
	require.NoError(t, redirectAndWait(t, r, "https://shop.example/p/1", "MainActivity"))

	entries := log.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "click://uri.com", entries[0].Destination)
	assert.Equal(t, "MainActivity", entries[0].Screen)
	assert.Equal(t, "https://shop.example/p/1", entries[1].Destination)
}

func TestRedirect_ReportsFailures(t *testing.T) {
	log := NewNavigationLog(10)
	r := New(log, time.Second, zap.NewNop())

	tests := []struct {
		name        string
		destination string
		screen      string
		want        error
	}{
		{name: "empty destination", destination: "", screen: "Main", want: ErrMalformedDestination},
		{name: "relative destination", destination: "/just/a/path", screen: "Main", want: ErrMalformedDestination},
		{name: "http without host", destination: "http:///nohost", screen: "Main", want: ErrMalformedDestination},
		{name: "unparseable", destination: "http://[::1", screen: "Main", want: ErrMalformedDestination},
		{name: "no screen", destination: "privacy://criteo", screen: "", want: ErrNoScreen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := redirectAndWait(t, r, tt.destination, tt.screen)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Empty(t, log.Entries())
}

func TestRedirect_WrapsOpenerError(t *testing.T) {
	boom := errors.New("no browser")
	r := New(OpenerFunc(func(ctx context.Context, u *url.URL, screen string) error {
		return boom
	}), 0, zap.NewNop())

	err := redirectAndWait(t, r, "https://shop.example", "Main")
	assert.ErrorIs(t, err, boom)
}

func TestRedirect_NilCallback(t *testing.T) {
	opened := make(chan struct{})
	r := New(OpenerFunc(func(ctx context.Context, u *url.URL, screen string) error {
		close(opened)
		return nil
	}), time.Second, zap.NewNop())

	r.Redirect("https://shop.example", "Main", nil)
	select {
	case <-opened:
	case <-time.After(2 * time.Second):
		t.Fatal("opener not invoked")
	}
}

func TestNavigationLog_KeepsMostRecent(t *testing.T) {
	log := NewNavigationLog(2)
	for _, d := range []string{"a://1", "a://2", "a://3"} {
		u, err := url.Parse(d)
		require.NoError(t, err)
		require.NoError(t, log.Open(context.Background(), u, "s"))
	}

	entries := log.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "a://2", entries[0].Destination)
	assert.Equal(t, "a://3", entries[1].Destination)
}
