// Package server provides HTTP routing, middleware, and the playback state
// API surface.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Playback API
//
// [PlaybackHandler] serves the shared playback record: devices read the
// latest record (excluding their own writes) before offering to resume,
// and deliver remote-stop notifications that fan out on the notification
// bus so a playing device can pause itself.
//
// [ResolveHandler] exposes the tiered track resolver, returning the chosen
// tier and a playable URL for a track id.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
