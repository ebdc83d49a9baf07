package nativead

import (
	"sync"
	"sync/atomic"
)

type directExecutor struct{}

func (directExecutor) Execute(fn func()) { fn() }

// fakeWatcher stands in for both VisibilityTracker and ClickDetector.
type fakeWatcher struct {
	mu        sync.Mutex
	callbacks map[View][]func()
	watched   []View
}

func newFakeWatcher() *fakeWatcher {
	return &fakeWatcher{callbacks: make(map[View][]func())}
}

func (w *fakeWatcher) Watch(view View, cb func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks[view] = append(w.callbacks[view], cb)
	w.watched = append(w.watched, view)
}

// signal delivers one visibility signal or tap to every callback on view.
func (w *fakeWatcher) signal(view View) {
	w.mu.Lock()
	cbs := append([]func(){}, w.callbacks[view]...)
	w.mu.Unlock()
	for _, cb := range cbs {
		cb()
	}
}

func (w *fakeWatcher) watchCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.watched)
}

type redirectCall struct {
	destination string
	screen      string
}

type fakeRedirector struct {
	mu    sync.Mutex
	calls []redirectCall
	err   error
}

func (r *fakeRedirector) Redirect(destination, screen string, onResult func(error)) {
	r.mu.Lock()
	r.calls = append(r.calls, redirectCall{destination: destination, screen: screen})
	err := r.err
	r.mu.Unlock()
	onResult(err)
}

func (r *fakeRedirector) Calls() []redirectCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]redirectCall(nil), r.calls...)
}

type fakePixels struct {
	mu    sync.Mutex
	fired map[string]int
}

func newFakePixels() *fakePixels {
	return &fakePixels{fired: make(map[string]int)}
}

func (p *fakePixels) Fire(pixelURL string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fired[pixelURL]++
}

func (p *fakePixels) Count(pixelURL string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fired[pixelURL]
}

type fakeScreens struct {
	screen string
}

func (s fakeScreens) TopScreen() (string, bool) {
	return s.screen, s.screen != ""
}

type countingListener struct {
	impressions *atomic.Int32
	clicks      *atomic.Int32
}

func newCountingListener() *countingListener {
	return &countingListener{impressions: new(atomic.Int32), clicks: new(atomic.Int32)}
}

func (l *countingListener) OnAdImpression() { l.impressions.Add(1) }
func (l *countingListener) OnAdClicked()    { l.clicks.Add(1) }

type testEnv struct {
	visibility *fakeWatcher
	clicks     *fakeWatcher
	redirector *fakeRedirector
	pixels     *fakePixels
	screens    fakeScreens
	deps       Dependencies
}

func newTestEnv() *testEnv {
	env := &testEnv{
		visibility: newFakeWatcher(),
		clicks:     newFakeWatcher(),
		redirector: &fakeRedirector{},
		pixels:     newFakePixels(),
		screens:    fakeScreens{screen: "MainActivity"},
	}
	env.deps = Dependencies{
		Visibility: env.visibility,
		Clicks:     env.clicks,
		Redirector: env.redirector,
		Screens:    env.screens,
		Pixels:     env.pixels,
		UI:         directExecutor{},
	}
	return env
}
