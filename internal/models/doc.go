// Package models defines domain entities for the playsync resolution and
// cross-device resume engine.
//
// The package contains two categories of types:
//
// 1. Library entities: identity and location of audio content
//   - [Track] : immutable id + content hash with optional local/cloud locations
//   - [CacheEntry] : content-addressed cache bookkeeping record
//
// 2. Playback sync entities: what is playing, where, since when
//   - [PlaybackState] : the single library-wide "current" record, last writer wins
//   - [SuppressionWindow] : client-local prompt cooldown with new-event override
package models
