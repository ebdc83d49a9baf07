package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration derived from environment variables.
type Config struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	RedisAddr    string
	ServiceName  string
	// Impression pixel delivery
	PixelTimeout   time.Duration
	PixelWorkers   int
	PixelQueueSize int
	// Host UI dispatch queue
	UIQueueSize int
	// Click redirection
	RedirectTimeout   time.Duration
	NavigationLogSize int
	// Remote configuration
	RemoteConfigURL      string
	RemoteConfigTimeout  time.Duration
	RemoteConfigCacheTTL time.Duration
	RemoteConfigRefresh  time.Duration
	PublisherID          int
	AppID                string
	SDKVersion           string
	// Client rate limiting
	RateLimitEnabled    bool
	RateLimitCapacity   int
	RateLimitRefillRate int
	// Tracing configuration
	TracingEnabled    bool
	TempoEndpoint     string
	TracingSampleRate float64
}

// Load parses environment variables and returns a Config populated with
// defaults when variables are absent.
func Load() Config {
	cfg := Config{}

	cfg.Port = getenv("PORT", "8787")
	cfg.ReadTimeout = envDuration("READ_TIMEOUT", 5*time.Second)
	cfg.WriteTimeout = envDuration("WRITE_TIMEOUT", 10*time.Second)
	cfg.RedisAddr = getenv("REDIS_ADDR", "localhost:6379")
	cfg.ServiceName = getenv("SERVICE_NAME", "nativeads")

	cfg.PixelTimeout = envDuration("PIXEL_TIMEOUT", 10*time.Second)
	cfg.PixelWorkers = envInt("PIXEL_WORKERS", 4)
	cfg.PixelQueueSize = envInt("PIXEL_QUEUE_SIZE", 256)

	cfg.UIQueueSize = envInt("UI_QUEUE_SIZE", 128)

	cfg.RedirectTimeout = envDuration("REDIRECT_TIMEOUT", 5*time.Second)
	cfg.NavigationLogSize = envInt("NAVIGATION_LOG_SIZE", 100)

	// remote config is optional; an empty URL disables fetching
	cfg.RemoteConfigURL = getenv("REMOTE_CONFIG_URL", "")
	cfg.RemoteConfigTimeout = envDuration("REMOTE_CONFIG_TIMEOUT", 2*time.Second)
	cfg.RemoteConfigCacheTTL = envDuration("REMOTE_CONFIG_CACHE_TTL", 24*time.Hour)
	cfg.RemoteConfigRefresh = envDuration("REMOTE_CONFIG_REFRESH", 5*time.Minute)
	cfg.PublisherID = envInt("PUBLISHER_ID", 0)
	cfg.AppID = getenv("APP_ID", "")
	cfg.SDKVersion = getenv("SDK_VERSION", "1.0.0")

	cfg.RateLimitEnabled = envBool("RATE_LIMIT_ENABLED", false)
	cfg.RateLimitCapacity = envInt("RATE_LIMIT_CAPACITY", 100)
	cfg.RateLimitRefillRate = envInt("RATE_LIMIT_REFILL_RATE", 10)

	// Tracing configuration
	cfg.TracingEnabled = envBool("TRACING_ENABLED", false)
	cfg.TempoEndpoint = getenv("TEMPO_ENDPOINT", "tempo:4317")
	cfg.TracingSampleRate = envFloat("TRACING_SAMPLE_RATE", 1.0) // Default to 100% sampling for dev

	return cfg
}

// getenv returns the value of the environment variable if set, otherwise def.
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envDuration parses an environment variable into a time.Duration.
// The value can be a duration string (e.g. "5s") or a number of seconds.
// If the variable is unset or invalid, def is returned.
func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}

// envBool parses a boolean environment variable. Accepted values are those
// supported by strconv.ParseBool. When unset or invalid, def is returned.
func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return def
}

// envInt parses an integer environment variable. When unset or invalid, def is returned.
func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if i, err := strconv.Atoi(v); err == nil {
		return i
	}
	return def
}

// envFloat parses a float64 environment variable. When unset or invalid, def is returned.
func envFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	return def
}
