// Package ws implements the live-reload WebSocket endpoint for liveserve.
//
// Hub upgrades requests at /__live_reload per RFC 6455 (gorilla/websocket
// computes the Sec-WebSocket-Accept value and flushes the 101 response
// before any frame I/O) and runs one session per connection. Each session
// holds its own broadcast subscription; a published ChangeEvent becomes one
// text frame with the literal payload "reload" per connected session.
//
// Inbound frames carry no application protocol: Ping is answered with a Pong
// echoing the payload, Close or any read error ends the session, everything
// else is discarded. A session has no idle timeout; it lives as long as its
// TCP connection. Hub.Run(ctx) blocks until ctx is cancelled, then closes
// every live session.
package ws
