// Package source holds the provider adapters. Each adapter authenticates
// against one third-party API, fetches the raw response and normalizes it
// into a small summary record ready for publishing.
package source

import (
	"context"
	"net/http"
	"time"
)

// Source fetches one provider's data and normalizes it.
type Source interface {
	// Name is the provider key used on the command line and in logs.
	Name() string
	// FileName is the snapshot file written under the public directory.
	FileName() string
	// Collect runs authenticate → fetch → normalize and returns the summary record.
	Collect(ctx context.Context) (any, error)
}

// FileName returns the conventional snapshot name for a provider.
func FileName(provider string) string {
	return provider + "-data.json"
}

// NewHTTPClient returns the client shared by all adapters. A zero timeout
// leaves requests bounded only by their context.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}
