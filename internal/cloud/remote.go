package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/desertthunder/playsync/internal/shared"
	"golang.org/x/oauth2/clientcredentials"
)

// RemoteProvider delegates signing to an external signer service.
//
// When the descriptor carries OAuth2 client credentials, requests go out
// through a token-refreshing client; otherwise the default client is used.
type RemoteProvider struct {
	endpoint   string
	bucket     string
	ttl        time.Duration
	httpClient *http.Client
}

// NewRemoteProvider builds a signer-service gateway from the descriptor.
func NewRemoteProvider(cfg shared.CloudConfig) *RemoteProvider {
	client := http.DefaultClient
	if cfg.TokenURL != "" && cfg.ClientID != "" {
		cc := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
		}
		client = cc.Client(context.Background())
	}

	return &RemoteProvider{
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		bucket:     cfg.Bucket,
		ttl:        cfg.SignTTL(),
		httpClient: client,
	}
}

type signRequest struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
	TTLSec int    `json:"ttl_sec"`
}

type signResponse struct {
	URL       string `json:"url"`
	ExpiresAt int64  `json:"expires_at"`
}

// Sign requests a signed URL from the remote signer.
func (p *RemoteProvider) Sign(ctx context.Context, cloudKey string) (*SignedURL, error) {
	if cloudKey == "" {
		return nil, fmt.Errorf("%w: empty cloud key", shared.ErrInvalidInput)
	}

	body, err := json.Marshal(signRequest{
		Bucket: p.bucket,
		Key:    cloudKey,
		TTLSec: int(p.ttl.Seconds()),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sign request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+"/sign", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrUpstream, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read signer response: %v", shared.ErrUpstream, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: signer returned status %d", shared.ErrUpstream, resp.StatusCode)
	}

	var signed signResponse
	if err := json.Unmarshal(respBody, &signed); err != nil {
		return nil, fmt.Errorf("%w: malformed signer response: %v", shared.ErrUpstream, err)
	}
	if signed.URL == "" {
		return nil, fmt.Errorf("%w: signer returned empty URL", shared.ErrUpstream)
	}

	return &SignedURL{
		URL:       signed.URL,
		ExpiresAt: time.Unix(signed.ExpiresAt, 0),
	}, nil
}
