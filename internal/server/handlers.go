package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playsync/internal/library"
	"github.com/desertthunder/playsync/internal/models"
	"github.com/desertthunder/playsync/internal/notify"
	"github.com/desertthunder/playsync/internal/shared"
)

// PlaybackStates is the slice of the state store the HTTP surface needs.
type PlaybackStates interface {
	Get(excludeDeviceID string) (*models.PlaybackState, error)
	Set(deviceID, deviceName, trackID string, positionSec float64, isPlaying bool) error
	Clear() error
}

// PlaybackHandler serves the shared playback record and remote-stop
// notifications. Implements the [Handler] interface.
type PlaybackHandler struct {
	states PlaybackStates
	bus    *notify.Bus
	logger *log.Logger
}

// NewPlaybackHandler creates a playback API handler.
func NewPlaybackHandler(states PlaybackStates, bus *notify.Bus, logger *log.Logger) *PlaybackHandler {
	return &PlaybackHandler{states: states, bus: bus, logger: logger}
}

// Routes returns the HTTP routes this handler serves.
func (h *PlaybackHandler) Routes() []string {
	return []string{"/api/playback/state", "/api/playback/notify-stop"}
}

// ServeHTTP dispatches playback API requests by path and method.
func (h *PlaybackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/api/playback/state" && r.Method == http.MethodGet:
		h.getState(w, r)
	case r.URL.Path == "/api/playback/state" && r.Method == http.MethodPut:
		h.putState(w, r)
	case r.URL.Path == "/api/playback/state" && r.Method == http.MethodDelete:
		h.clearState(w, r)
	case r.URL.Path == "/api/playback/notify-stop" && r.Method == http.MethodPost:
		h.notifyStop(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// getState returns the freshest playback record, or 204 when there is
// nothing to resume. Callers pass exclude_device so their own writes do
// not come back as resume candidates.
func (h *PlaybackHandler) getState(w http.ResponseWriter, r *http.Request) {
	exclude := r.URL.Query().Get("exclude_device")

	record, err := h.states.Get(exclude)
	if err != nil {
		h.logger.Errorf("playback state read failed: %v", err)
		http.Error(w, "State read failed", http.StatusInternalServerError)
		return
	}
	if record == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, http.StatusOK, record)
}

func (h *PlaybackHandler) putState(w http.ResponseWriter, r *http.Request) {
	var record models.PlaybackState
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if record.DeviceID == "" || record.TrackID == "" {
		http.Error(w, "device_id and track_id are required", http.StatusBadRequest)
		return
	}

	err := h.states.Set(record.DeviceID, record.DeviceName, record.TrackID, record.PositionSec, record.IsPlaying)
	if err != nil {
		h.logger.Errorf("playback state write failed: %v", err)
		http.Error(w, "State write failed", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *PlaybackHandler) clearState(w http.ResponseWriter, r *http.Request) {
	if err := h.states.Clear(); err != nil {
		h.logger.Errorf("playback state clear failed: %v", err)
		http.Error(w, "State clear failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// notifyStop fans a stop request out on the bus. The playing device, if
// subscribed, pauses itself; delivery is best effort and the endpoint
// acknowledges regardless.
func (h *PlaybackHandler) notifyStop(w http.ResponseWriter, r *http.Request) {
	var body struct {
		DeviceID string `json:"device_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if body.DeviceID == "" {
		http.Error(w, "device_id is required", http.StatusBadRequest)
		return
	}

	if h.bus != nil {
		h.bus.Publish(notify.TopicRemoteStop, body.DeviceID)
	}

	w.WriteHeader(http.StatusAccepted)
}

// TrackResolver is the slice of the resolver the HTTP surface needs.
type TrackResolver interface {
	ResolveID(ctx context.Context, trackID string) (*library.Resolution, error)
}

// ResolveHandler exposes tiered track resolution over HTTP.
type ResolveHandler struct {
	resolver TrackResolver
	logger   *log.Logger
}

// NewResolveHandler creates a track resolution handler.
func NewResolveHandler(resolver TrackResolver, logger *log.Logger) *ResolveHandler {
	return &ResolveHandler{resolver: resolver, logger: logger}
}

// Routes returns the HTTP routes this handler serves.
func (h *ResolveHandler) Routes() []string {
	return []string{"/api/tracks/"}
}

// ServeHTTP handles GET /api/tracks/{id}/resolve.
func (h *ResolveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rest, ok := strings.CutPrefix(r.URL.Path, "/api/tracks/")
	if !ok {
		http.NotFound(w, r)
		return
	}
	trackID, ok := strings.CutSuffix(rest, "/resolve")
	if !ok || trackID == "" || strings.Contains(trackID, "/") {
		http.NotFound(w, r)
		return
	}

	resolution, err := h.resolver.ResolveID(r.Context(), trackID)
	switch {
	case err == nil:
	case errors.Is(err, shared.ErrTrackNotFound):
		http.Error(w, "Track not found", http.StatusNotFound)
		return
	case errors.Is(err, shared.ErrTrackUnavailable):
		http.Error(w, "Track unavailable", http.StatusConflict)
		return
	case errors.Is(err, shared.ErrUpstream):
		h.logger.Errorf("resolve %s: upstream failure: %v", trackID, err)
		http.Error(w, "Upstream signing failed", http.StatusBadGateway)
		return
	default:
		h.logger.Errorf("resolve %s failed: %v", trackID, err)
		http.Error(w, "Resolution failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, resolution)
}

// HealthHandler answers liveness probes.
type HealthHandler struct{}

// Routes returns the HTTP routes this handler serves.
func (h *HealthHandler) Routes() []string {
	return []string{"/health"}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
