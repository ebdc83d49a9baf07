// Package macros expands placeholders such as {TIMESTAMP} or {SCREEN} in
// tracking URLs right before they are requested.
package macros

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// ExpansionFunc produces the value of one macro.
type ExpansionFunc func(ctx *Context) (string, error)

// Context holds the values available to macros at expansion time.
type Context struct {
	Timestamp   time.Time
	Screen      string
	PublisherID int
	AppID       string
	SDKVersion  string
	Custom      map[string]string
}

// Expander replaces {NAME} placeholders in URLs. Values are query escaped.
// In lenient mode a failing macro is left in place; in strict mode it fails
// the whole expansion.
type Expander struct {
	logger       *zap.Logger
	expansions   map[string]ExpansionFunc
	expansionsMu sync.RWMutex
	strictMode   bool

	expansionCounter *prometheus.CounterVec
	failureCounter   *prometheus.CounterVec
}

// NewExpander creates a lenient expander with the default macros, reporting
// to the global Prometheus registry.
func NewExpander(logger *zap.Logger) *Expander {
	return newExpander(logger, false, promauto.With(prometheus.DefaultRegisterer))
}

// NewExpanderForTesting uses a private registry so tests can build many
// expanders.
func NewExpanderForTesting(logger *zap.Logger, strictMode bool) *Expander {
	return newExpander(logger, strictMode, promauto.With(prometheus.NewRegistry()))
}

func newExpander(logger *zap.Logger, strictMode bool, factory promauto.Factory) *Expander {
	e := &Expander{
		logger:     logger.Named("macros"),
		expansions: make(map[string]ExpansionFunc),
		strictMode: strictMode,
		expansionCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nativeads_macro_expansions_total",
				Help: "Total number of macro expansions performed",
			},
			[]string{"macro", "success"},
		),
		failureCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nativeads_macro_expansion_failures_total",
				Help: "Total number of macro expansion failures",
			},
			[]string{"macro"},
		),
	}
	e.registerDefaultMacros()
	return e
}

// Expand replaces every known macro in rawURL. A URL without placeholders
// is returned untouched.
func (e *Expander) Expand(rawURL string, ctx *Context) (string, error) {
	if !strings.Contains(rawURL, "{") {
		return rawURL, nil
	}
	if _, err := url.Parse(rawURL); err != nil {
		return rawURL, fmt.Errorf("parse url: %w", err)
	}

	expanded := expandCustom(rawURL, ctx)

	e.expansionsMu.RLock()
	defer e.expansionsMu.RUnlock()

	var replacements []string
	for name, fn := range e.expansions {
		placeholder := "{" + name + "}"
		if !strings.Contains(expanded, placeholder) {
			continue
		}
		value, err := fn(ctx)
		if err != nil {
			e.expansionCounter.WithLabelValues(name, "false").Inc()
			e.failureCounter.WithLabelValues(name).Inc()
			if e.strictMode {
				return "", fmt.Errorf("expand macro %s: %w", name, err)
			}
			e.logger.Warn("macro expansion failed, leaving placeholder",
				zap.String("macro", name),
				zap.Error(err))
			continue
		}
		replacements = append(replacements, placeholder, url.QueryEscape(value))
		e.expansionCounter.WithLabelValues(name, "true").Inc()
	}

	if len(replacements) == 0 {
		return expanded, nil
	}
	return strings.NewReplacer(replacements...).Replace(expanded), nil
}

// RegisterMacro adds or replaces a macro.
func (e *Expander) RegisterMacro(name string, fn ExpansionFunc) error {
	if name == "" {
		return fmt.Errorf("macro name cannot be empty")
	}
	if fn == nil {
		return fmt.Errorf("expansion function cannot be nil")
	}

	e.expansionsMu.Lock()
	defer e.expansionsMu.Unlock()
	e.expansions[name] = fn
	return nil
}

// Macros returns the registered macro names, sorted.
func (e *Expander) Macros() []string {
	e.expansionsMu.RLock()
	defer e.expansionsMu.RUnlock()

	names := make([]string, 0, len(e.expansions))
	for name := range e.expansions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Unsupported lists the placeholders in rawURL that no macro handles.
// {CUSTOM.key} placeholders are always accepted.
func (e *Expander) Unsupported(rawURL string) []string {
	e.expansionsMu.RLock()
	defer e.expansionsMu.RUnlock()

	var unsupported []string
	rest := rawURL
	for {
		start := strings.IndexByte(rest, '{')
		if start == -1 {
			break
		}
		end := strings.IndexByte(rest[start:], '}')
		if end == -1 {
			break
		}
		name := rest[start+1 : start+end]
		if _, ok := e.expansions[name]; !ok && !strings.HasPrefix(name, "CUSTOM.") {
			unsupported = append(unsupported, name)
		}
		rest = rest[start+end+1:]
	}
	return unsupported
}

func (e *Expander) registerDefaultMacros() {
	e.expansions["TIMESTAMP"] = func(ctx *Context) (string, error) {
		return strconv.FormatInt(ctx.Timestamp.Unix(), 10), nil
	}
	e.expansions["TIMESTAMP_MS"] = func(ctx *Context) (string, error) {
		return strconv.FormatInt(ctx.Timestamp.UnixMilli(), 10), nil
	}
	e.expansions["ISO_TIMESTAMP"] = func(ctx *Context) (string, error) {
		return ctx.Timestamp.UTC().Format(time.RFC3339), nil
	}

	// cache busters
	e.expansions["RANDOM"] = func(ctx *Context) (string, error) {
		return strconv.FormatInt(time.Now().UnixNano(), 10), nil
	}
	e.expansions["CACHEBUSTER"] = e.expansions["RANDOM"]
	e.expansions["UUID"] = func(ctx *Context) (string, error) {
		return uuid.NewString(), nil
	}

	e.expansions["SCREEN"] = func(ctx *Context) (string, error) {
		if ctx.Screen == "" {
			return "", fmt.Errorf("no screen in context")
		}
		return ctx.Screen, nil
	}
	e.expansions["PUBLISHER_ID"] = func(ctx *Context) (string, error) {
		return strconv.Itoa(ctx.PublisherID), nil
	}
	e.expansions["APP_ID"] = func(ctx *Context) (string, error) {
		return ctx.AppID, nil
	}
	e.expansions["SDK_VERSION"] = func(ctx *Context) (string, error) {
		return ctx.SDKVersion, nil
	}
}

func expandCustom(rawURL string, ctx *Context) string {
	expanded := rawURL
	for key, value := range ctx.Custom {
		expanded = strings.ReplaceAll(expanded, "{CUSTOM."+key+"}", url.QueryEscape(value))
	}
	return expanded
}
