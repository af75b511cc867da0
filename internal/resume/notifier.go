package resume

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/desertthunder/playsync/internal/shared"
)

// HTTPNotifier delivers notify-stop to the playback state service.
type HTTPNotifier struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPNotifier creates a notifier against the given service base URL.
func NewHTTPNotifier(baseURL string, client *http.Client) *HTTPNotifier {
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &HTTPNotifier{baseURL: baseURL, httpClient: client}
}

// NotifyStop posts the claimed device's id. No response body is expected.
func (n *HTTPNotifier) NotifyStop(ctx context.Context, deviceID string) error {
	body, err := json.Marshal(map[string]string{"device_id": deviceID})
	if err != nil {
		return fmt.Errorf("failed to marshal notify-stop body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+"/api/playback/notify-stop", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: notify-stop returned status %d", shared.ErrUpstream, resp.StatusCode)
	}

	return nil
}
