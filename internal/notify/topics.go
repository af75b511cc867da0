package notify

// Well-known topics.
const (
	// TopicLibrarySynced fires when library and queue sync complete and
	// track ids are resolvable. The resume coordinator waits for this
	// before its first check.
	TopicLibrarySynced = "library.synced"

	// TopicCacheWarmed fires when a background cloud fetch lands in the
	// cache store. Payload is the content hash.
	TopicCacheWarmed = "cache.warmed"

	// TopicDownloadProgress carries download progress updates for UI layers.
	TopicDownloadProgress = "download.progress"

	// TopicQueueResync asks the library/queue layer to re-sync after a
	// cross-device resume completes.
	TopicQueueResync = "queue.resync"

	// TopicRemoteStop fires when another device claims this device's
	// playback position (POST /api/playback/notify-stop).
	TopicRemoteStop = "playback.remote_stop"
)
