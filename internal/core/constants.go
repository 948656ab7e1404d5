package core

import "time"

// Placeholders in index.html replaced by the rendered fragments.
const (
	HeadMarker = "<!--app-head-->"
	HTMLMarker = "<!--app-html-->"
)

// Live-reload endpoints, relative to the base path (development only).
const (
	LiveReloadClientPath = "@livereload/client.js"
	LiveReloadEventsPath = "@livereload/events"
)

// HTTP server timeouts
const (
	DefaultReadHeaderTimeout = 10 * time.Second
	DefaultShutdownTimeout   = 5 * time.Second
)

// DefaultReloadDebounce coalesces bursts of file events from a single save.
const DefaultReloadDebounce = 100 * time.Millisecond
