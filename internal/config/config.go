package config

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. INSIGHT_BASE_URL.
const EnvPrefix = "INSIGHT"

// Config holds all client configuration values.
type Config struct {
	// Backend
	BaseURL        string        // INSIGHT_BASE_URL, includes the /api or /api/v1 prefix
	APIToken       string        // INSIGHT_API_TOKEN, sent as a bearer token when set
	RequestTimeout time.Duration // INSIGHT_REQUEST_TIMEOUT, default: 30s
	MaxRetries     int           // INSIGHT_MAX_RETRIES, default: 0 (idempotent requests only)
	RateLimit      float64       // INSIGHT_RATE_LIMIT, requests per second, 0 disables
	RateBurst      int           // INSIGHT_RATE_BURST, default: 5

	// Stores and views
	RefreshInterval   time.Duration // INSIGHT_REFRESH_INTERVAL, console refresh-all period
	TrendRange        string        // INSIGHT_TREND_RANGE, one of 1h, 6h, 24h, 7d
	FetchConcurrency  int           // INSIGHT_FETCH_CONCURRENCY, fan-out limit for per-cluster calls
	ProblemPageSize   int           // INSIGHT_PROBLEM_PAGE_SIZE
	ActivityLimit     int           // INSIGHT_ACTIVITY_LIMIT
	ToastDuration     time.Duration // INSIGHT_TOAST_DURATION, default: 3s
	NotifyDuration    time.Duration // INSIGHT_NOTIFY_DURATION, default: 5s
	ExportCompression bool          // INSIGHT_EXPORT_COMPRESSION, zstd-compress CSV exports
	AssumeYes         bool          // INSIGHT_ASSUME_YES, skips the delete confirmation prompt

	// Console process
	HealthPort     int  // INSIGHT_HEALTH_PORT, default: 8080
	DebugEndpoints bool // INSIGHT_DEBUG_ENDPOINTS, default: false, enables pprof/debug on health port

	// Logging
	LogLevel  string // INSIGHT_LOG_LEVEL: debug, info, warn, error
	LogFormat string // INSIGHT_LOG_FORMAT: json, text
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("base_url", "http://localhost:9999/api/v1")
	v.SetDefault("api_token", "")
	v.SetDefault("request_timeout", "30s")
	v.SetDefault("max_retries", 0)
	v.SetDefault("rate_limit", 0)
	v.SetDefault("rate_burst", 5)
	v.SetDefault("refresh_interval", "30s")
	v.SetDefault("trend_range", "24h")
	v.SetDefault("fetch_concurrency", 4)
	v.SetDefault("problem_page_size", 10)
	v.SetDefault("activity_limit", 10)
	v.SetDefault("toast_duration", "3s")
	v.SetDefault("notify_duration", "5s")
	v.SetDefault("export_compression", false)
	v.SetDefault("assume_yes", false)
	v.SetDefault("health_port", 8080)
	v.SetDefault("debug_endpoints", false)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
}

// New returns a viper instance reading INSIGHT_* environment variables and,
// when path is non-empty, the given config file.
func New(path string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, err
			}
		}
	}
	return v, nil
}

// Load reads configuration from the environment with defaults applied for
// any unset values.
func Load() Config {
	v, _ := New("")
	return LoadFrom(v)
}

// LoadFrom builds a Config from v. Flags bound to v take precedence over the
// environment, which takes precedence over the config file.
func LoadFrom(v *viper.Viper) Config {
	return Config{
		BaseURL:           strings.TrimRight(v.GetString("base_url"), "/"),
		APIToken:          v.GetString("api_token"),
		RequestTimeout:    parseDuration(v, "request_timeout", 30*time.Second),
		MaxRetries:        parseInt(v, "max_retries", 0),
		RateLimit:         v.GetFloat64("rate_limit"),
		RateBurst:         parseInt(v, "rate_burst", 5),
		RefreshInterval:   parseDuration(v, "refresh_interval", 30*time.Second),
		TrendRange:        v.GetString("trend_range"),
		FetchConcurrency:  parseInt(v, "fetch_concurrency", 4),
		ProblemPageSize:   parseInt(v, "problem_page_size", 10),
		ActivityLimit:     parseInt(v, "activity_limit", 10),
		ToastDuration:     parseDuration(v, "toast_duration", 3*time.Second),
		NotifyDuration:    parseDuration(v, "notify_duration", 5*time.Second),
		ExportCompression: v.GetBool("export_compression"),
		AssumeYes:         v.GetBool("assume_yes"),
		HealthPort:        parseInt(v, "health_port", 8080),
		DebugEndpoints:    v.GetBool("debug_endpoints"),
		LogLevel:          strings.ToLower(v.GetString("log_level")),
		LogFormat:         strings.ToLower(v.GetString("log_format")),
	}
}

// parseDuration tries time.ParseDuration first, then falls back to treating
// the value as integer seconds.
func parseDuration(v *viper.Viper, key string, defaultVal time.Duration) time.Duration {
	s := strings.TrimSpace(v.GetString(key))
	if s == "" {
		return defaultVal
	}

	d, err := time.ParseDuration(s)
	if err == nil {
		return d
	}

	// Fallback: treat as integer seconds
	secs, err := strconv.Atoi(s)
	if err == nil {
		return time.Duration(secs) * time.Second
	}

	return defaultVal
}

func parseInt(v *viper.Viper, key string, defaultVal int) int {
	s := strings.TrimSpace(v.GetString(key))
	if s == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return n
}
