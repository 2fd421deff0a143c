package config

import (
	"os"
	"strconv"
	"time"

	"github.com/rohanthewiz/logger"
)

const (
	// Default local proxy the round trip is run against
	defaultBaseURL   = "http://127.0.0.1:19080"
	defaultModel     = "gpt-5.2"
	defaultTimeout   = 60 * time.Second
	defaultMaxTokens = 512
)

// Config holds the checker configuration
type Config struct {
	BaseURL   string
	Model     string
	Timeout   time.Duration
	MaxTokens int
	Verbose   bool
}

// Load builds a Config from defaults overridden by environment variables
func Load() *Config {
	return &Config{
		BaseURL:   getBaseURL(),
		Model:     getEnv("TOOLCHECK_MODEL", defaultModel),
		Timeout:   getTimeout(),
		MaxTokens: defaultMaxTokens,
	}
}

// getBaseURL returns the base URL from MSG_PROXY or the default
func getBaseURL() string {
	if proxyURL := os.Getenv("MSG_PROXY"); proxyURL != "" {
		return proxyURL
	}
	return defaultBaseURL
}

// getTimeout reads TOOLCHECK_TIMEOUT as seconds
func getTimeout() time.Duration {
	raw := os.Getenv("TOOLCHECK_TIMEOUT")
	if raw == "" {
		return defaultTimeout
	}

	secs, err := strconv.ParseFloat(raw, 64)
	if err != nil || secs <= 0 {
		logger.Warn("Ignoring invalid TOOLCHECK_TIMEOUT", "value", raw)
		return defaultTimeout
	}
	return SecondsToDuration(secs)
}

// SecondsToDuration converts fractional seconds to a Duration
func SecondsToDuration(secs float64) time.Duration {
	return time.Duration(secs * float64(time.Second))
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
