package config

import (
	"fmt"
	"net/url"
	"time"
)

// TrendRanges are the ranges the trend chart accepts.
var TrendRanges = []string{"1h", "6h", "24h", "7d"}

// Validate checks that the Config contains valid values.
// Returns an error describing the first invalid field found.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("config: INSIGHT_BASE_URL is required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("config: INSIGHT_BASE_URL must be an absolute http(s) URL, got %q", c.BaseURL)
	}

	if c.RequestTimeout < time.Second {
		return fmt.Errorf("config: RequestTimeout must be >= 1s, got %v", c.RequestTimeout)
	}

	if c.MaxRetries < 0 {
		return fmt.Errorf("config: MaxRetries must be >= 0, got %d", c.MaxRetries)
	}

	if c.RateLimit < 0 {
		return fmt.Errorf("config: RateLimit must be >= 0, got %v", c.RateLimit)
	}
	if c.RateLimit > 0 && c.RateBurst < 1 {
		return fmt.Errorf("config: RateBurst must be >= 1 when RateLimit is set, got %d", c.RateBurst)
	}

	if c.RefreshInterval < 5*time.Second {
		return fmt.Errorf("config: RefreshInterval must be >= 5s, got %v", c.RefreshInterval)
	}

	if !validTrendRange(c.TrendRange) {
		return fmt.Errorf("config: TrendRange must be one of %v, got %q", TrendRanges, c.TrendRange)
	}

	if c.FetchConcurrency < 1 {
		return fmt.Errorf("config: FetchConcurrency must be >= 1, got %d", c.FetchConcurrency)
	}

	if c.ProblemPageSize < 1 || c.ProblemPageSize > 100 {
		return fmt.Errorf("config: ProblemPageSize must be 1-100, got %d", c.ProblemPageSize)
	}

	if c.HealthPort < 1 || c.HealthPort > 65535 {
		return fmt.Errorf("config: HealthPort must be 1-65535, got %d", c.HealthPort)
	}

	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("config: LogFormat must be json or text, got %q", c.LogFormat)
	}

	return nil
}

func validTrendRange(r string) bool {
	for _, v := range TrendRanges {
		if v == r {
			return true
		}
	}
	return false
}
