package metrics

import (
	"bufio"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"

	"github.com/liveserve/liveserve/internal/broadcast"
	"github.com/liveserve/liveserve/internal/ws"
)

// Handler exposes liveserve process counters in the Prometheus text
// exposition format. Change-event and session figures are read live from the
// broadcaster and hub; HTTP request figures are collected by Middleware.
type Handler struct {
	bc  *broadcast.Broadcaster
	hub *ws.Hub

	requests atomic.Uint64
	notFound atomic.Uint64
}

// New creates a Handler reading from bc and hub.
func New(bc *broadcast.Broadcaster, hub *ws.Hub) *Handler {
	return &Handler{bc: bc, hub: hub}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	format := expfmt.NewFormat(expfmt.TypeTextPlain)
	w.Header().Set("Content-Type", string(format))

	enc := expfmt.NewEncoder(w, format)
	for _, mf := range h.families() {
		if err := enc.Encode(mf); err != nil {
			slog.Debug("metrics: encode failed", "family", mf.GetName(), "err", err)
			return
		}
	}
}

// Middleware counts every request and its status, and logs it at debug level.
func (h *Handler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		h.requests.Add(1)
		if rw.status == http.StatusNotFound {
			h.notFound.Add(1)
		}
		slog.Debug("http: request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// statusRecorder captures the response status code for counting.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// Hijack passes through to the underlying writer so the reload WebSocket
// upgrade keeps working behind the middleware.
func (rw *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("metrics: underlying writer does not support hijacking")
	}
	return hj.Hijack()
}

func (h *Handler) families() []*dto.MetricFamily {
	return []*dto.MetricFamily{
		counter("liveserve_change_events_total",
			"Filesystem change events published to the reload broadcaster.",
			float64(h.bc.Published())),
		counter("liveserve_reload_frames_sent_total",
			"Reload text frames written to WebSocket clients.",
			float64(h.hub.ReloadsSent())),
		counter("liveserve_sessions_opened_total",
			"WebSocket reload sessions ever upgraded.",
			float64(h.hub.Opened())),
		gauge("liveserve_sessions_active",
			"Currently connected WebSocket reload sessions.",
			float64(h.hub.Count())),
		counter("liveserve_http_requests_total",
			"HTTP requests served, including 404s.",
			float64(h.requests.Load())),
		counter("liveserve_http_not_found_total",
			"HTTP requests answered with 404.",
			float64(h.notFound.Load())),
	}
}

func counter(name, help string, v float64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name:   proto.String(name),
		Help:   proto.String(help),
		Type:   dto.MetricType_COUNTER.Enum(),
		Metric: []*dto.Metric{{Counter: &dto.Counter{Value: proto.Float64(v)}}},
	}
}

func gauge(name, help string, v float64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name:   proto.String(name),
		Help:   proto.String(help),
		Type:   dto.MetricType_GAUGE.Enum(),
		Metric: []*dto.Metric{{Gauge: &dto.Gauge{Value: proto.Float64(v)}}},
	}
}
