package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")
	ErrNoProvider    = fmt.Errorf("no cloud provider configured")

	// Resolution errors
	ErrTrackNotFound    = fmt.Errorf("track not found in any tier")
	ErrTrackUnavailable = fmt.Errorf("track unavailable")
	ErrUpstream         = fmt.Errorf("upstream provider failure")

	// Playback state errors
	ErrNoState = fmt.Errorf("no playback state")

	// Resume coordinator errors (internal, never surfaced to the user)
	ErrSyncTimeout   = fmt.Errorf("resume sync timed out")
	ErrSyncCancelled = fmt.Errorf("resume sync cancelled")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
)
