// Package config loads the liveserve configuration from a YAML file.
//
// Config fields:
//   - Server.Host             — interface to bind (default 0.0.0.0)
//   - Server.Port             — HTTP listen port (default 8080)
//   - Server.Root             — site directory holding pages/ and static/
//   - LiveReload.Enabled      — watcher + reload endpoint on/off (default on)
//   - LiveReload.DebounceMS   — optional event coalescing window, in ms
//
// Load(path) applies defaults before unmarshalling, then validates.
// Default() returns the defaults directly for running without a file.
package config
