package httputil

import (
	"net/http"
	"time"
)

const DefaultTimeout = 30 * time.Second

// Browser-ish UA; both JRA and netkeiba serve degraded markup to unknown agents.
const UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// NewClient returns an HTTP client with standard timeout configuration.
func NewClient() *http.Client {
	return &http.Client{
		Timeout: DefaultTimeout,
	}
}
