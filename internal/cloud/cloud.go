// package cloud issues time-limited signed URLs against the configured
// object-storage provider.
//
// Callers depend only on the [Gateway] contract, never on which vendor is
// behind it. Provider failures propagate as ErrUpstream and are never
// retried here; retries belong to the caller.
package cloud

import (
	"context"
	"time"

	"github.com/desertthunder/playsync/internal/shared"
)

// SignedURL is a provider-issued URL granting temporary read access.
type SignedURL struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Gateway signs cloud object keys into temporary URLs.
type Gateway interface {
	// Sign issues a time-limited URL for the object at cloudKey.
	Sign(ctx context.Context, cloudKey string) (*SignedURL, error)
}

// FromConfig builds a Gateway from the provider descriptor in config.
//
// Returns shared.ErrNoProvider when the cloud tier is not configured.
func FromConfig(cfg shared.CloudConfig) (Gateway, error) {
	switch cfg.Provider {
	case "":
		return nil, shared.ErrNoProvider
	case "hmac":
		return NewHMACProvider(cfg)
	case "remote":
		return NewRemoteProvider(cfg), nil
	default:
		return nil, shared.ErrInvalidConfig
	}
}
