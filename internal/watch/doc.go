// Package watch bridges fsnotify filesystem events into the reload
// broadcaster.
//
// New(root, broadcaster, debounce) registers root and all of its
// subdirectories; Bridge.Run(ctx) then publishes one ChangeEvent per
// create/write/remove/rename event until ctx is cancelled. Directories
// created while running are added to the watch set on the fly.
//
// Events are not deduplicated: a single editor save can produce several
// ChangeEvents. Setting a debounce window collapses each burst to one
// publish; with debounce zero (the default) every event is forwarded as-is.
package watch
