// Package metrics exposes liveserve process counters at /__status in the
// Prometheus text exposition format.
//
// Counters cover change events published, reload frames sent, sessions
// opened and active, and HTTP requests served (split out 404s). Session and
// event figures are read live from the hub and broadcaster; request figures
// come from Handler.Middleware, which also emits a debug log line per
// request.
package metrics
