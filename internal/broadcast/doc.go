// Package broadcast implements the reload fan-out for liveserve.
//
// A single Broadcaster carries zero-payload ChangeEvents from the filesystem
// watcher to every connected reload session. Publish is non-blocking by
// construction: each Subscription has a small private buffer, and when it
// overflows the oldest buffered event is dropped and counted as lag. A slow
// or dead subscriber therefore never stalls the producer or its peers.
//
// New() creates the process-wide Broadcaster.
// Broadcaster.Subscribe() returns a Subscription seeing only later events.
// Subscription.Close() unsubscribes; the producer is not notified.
package broadcast
