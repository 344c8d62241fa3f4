package ws

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/liveserve/liveserve/internal/broadcast"
)

// Path is the HTTP path reload clients connect to.
const Path = "/__live_reload"

// reloadPayload is the literal text frame sent to clients on every change.
var reloadPayload = []byte("reload")

// writeTimeout is the deadline for a single write to a client.
const writeTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Local development server: accept every origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub upgrades reload requests into WebSocket sessions and tracks the live
// session set. Every session subscribes to the shared Broadcaster and sends
// one "reload" text frame per observed ChangeEvent.
type Hub struct {
	bc *broadcast.Broadcaster

	mu       sync.RWMutex
	sessions map[*session]struct{}

	opened  atomic.Uint64
	reloads atomic.Uint64
}

// New creates a Hub fanning out events from bc.
func New(bc *broadcast.Broadcaster) *Hub {
	return &Hub{
		bc:       bc,
		sessions: make(map[*session]struct{}),
	}
}

// Run blocks until ctx is cancelled, then closes every live session.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	h.closeAll()
}

// ServeHTTP performs the RFC 6455 handshake and serves the session until the
// connection dies. Non-upgrade requests get a 400 from the upgrader. Blocks
// for the lifetime of the connection.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already written the error response.
		slog.Debug("ws: upgrade rejected", "remote", r.RemoteAddr, "err", err)
		return
	}

	s := &session{
		conn: conn,
		sub:  h.bc.Subscribe(),
		done: make(chan struct{}),
	}
	h.register(s)
	defer h.unregister(s)

	slog.Debug("ws: session opened", "remote", conn.RemoteAddr())

	go h.writeLoop(s)
	s.readLoop() // blocks until the connection closes
	s.close()

	slog.Debug("ws: session closed", "remote", conn.RemoteAddr())
}

// Count returns the number of live sessions.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Opened returns the total number of sessions ever upgraded.
func (h *Hub) Opened() uint64 {
	return h.opened.Load()
}

// ReloadsSent returns the total number of reload frames written to clients.
func (h *Hub) ReloadsSent() uint64 {
	return h.reloads.Load()
}

// --- internal ---------------------------------------------------------------

func (h *Hub) register(s *session) {
	h.mu.Lock()
	h.sessions[s] = struct{}{}
	h.mu.Unlock()
	h.opened.Add(1)
}

func (h *Hub) unregister(s *session) {
	h.mu.Lock()
	delete(h.sessions, s)
	h.mu.Unlock()
}

func (h *Hub) closeAll() {
	h.mu.RLock()
	targets := make([]*session, 0, len(h.sessions))
	for s := range h.sessions {
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	for _, s := range targets {
		s.close()
	}
}

// writeLoop forwards broadcast events to the client as "reload" text frames.
// Any write failure ends the session. Runs in its own goroutine per session;
// it is the only writer of data frames, so writes never interleave.
func (h *Hub) writeLoop(s *session) {
	defer s.close()

	for {
		select {
		case <-s.done:
			return
		case <-s.sub.C():
			s.conn.SetWriteDeadline(time.Now().Add(writeTimeout)) //nolint:errcheck
			if err := s.conn.WriteMessage(websocket.TextMessage, reloadPayload); err != nil {
				return
			}
			h.reloads.Add(1)
		}
	}
}

// session is one upgraded reload connection. It owns its conn and its
// subscription; both are released exactly once via close.
type session struct {
	conn *websocket.Conn
	sub  *broadcast.Subscription
	done chan struct{}
	once sync.Once
}

// readLoop consumes inbound frames until the connection closes. Data frames
// carry no meaning and are discarded. Ping frames are answered with a Pong
// echoing the payload by the connection's default ping handler, concurrently
// safe with the write loop's data frames. A Close frame or read error ends
// the loop.
func (s *session) readLoop() {
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// close releases the transport and the subscription. Safe to call from any
// goroutine, any number of times; only the first call has an effect.
func (s *session) close() {
	s.once.Do(func() {
		close(s.done)
		s.sub.Close()
		// Best-effort close frame so well-behaved clients see a clean
		// shutdown instead of a dropped TCP connection.
		s.conn.WriteControl(websocket.CloseMessage, //nolint:errcheck
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		s.conn.Close()
	})
}
