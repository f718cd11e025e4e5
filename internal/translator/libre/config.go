package libre

import (
	"time"
)

// Config holds the configuration for a LibreTranslate-compatible endpoint.
type Config struct {
	// URL is the full translate endpoint, e.g. http://localhost:5000/translate.
	URL string
	// APIKey is sent as "api_key" when non-empty.
	APIKey string
	// Timeout bounds one request end to end.
	Timeout time.Duration
	// MaxResponseBytes caps how much of the response body is read.
	MaxResponseBytes int64
}

// DefaultConfig points at a local LibreTranslate instance.
func DefaultConfig() Config {
	return Config{
		URL:              "http://localhost:5000/translate",
		Timeout:          8 * time.Second,
		MaxResponseBytes: 1 << 20,
	}
}
