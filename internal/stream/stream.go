// Package stream pushes scene frames to browsers over Server-Sent Events
// (GET /api/v1/stream/frames) and WebSocket (GET /api/v1/ws/frames).
//
// Both transports carry the same JSON payloads. The first message on every
// connection is metadata:
//
//	{"type":"metadata","server_time":"...","interval_seconds":1,"satellite_id":"terra","mission_id":"demo"}
//
// followed by one frame per tick:
//
//	{"type":"frame","time":"...","camera":{...},"satellites":[...],"debris":[...],"debris_source":"backend"}
//
// Reconnecting clients receive a fresh metadata message.
package stream

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/star/orbitview/internal/frame"
	"github.com/star/orbitview/internal/httputil"
	"github.com/star/orbitview/internal/metrics"
)

const (
	transportSSE       = "sse"
	transportWebSocket = "websocket"

	minInterval = 1
	maxInterval = 60
)

// Source produces the frame for a tick.
type Source interface {
	Frame(now time.Time) frame.Frame
}

// Config holds streaming configuration loaded from environment variables.
type Config struct {
	MaxConcurrentPerIP int           // default: 10
	MaxConcurrent      int           // global cap (default: 1000)
	FrameInterval      time.Duration // default tick when no interval query (default: 1s)
	KeepaliveInterval  time.Duration // default: 30s
	TrustProxy         bool
}

// Handler serves frame streams.
type Handler struct {
	src      Source
	cfg      Config
	limiter  *streamLimiter
	upgrader websocket.Upgrader
	logger   *slog.Logger
	now      func() time.Time
}

// NewHandler creates a streaming handler.
func NewHandler(src Source, cfg Config, logger *slog.Logger) *Handler {
	if cfg.MaxConcurrentPerIP <= 0 {
		cfg.MaxConcurrentPerIP = 10
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 1000
	}
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = time.Second
	}
	if cfg.KeepaliveInterval <= 0 {
		cfg.KeepaliveInterval = 30 * time.Second
	}
	return &Handler{
		src:     src,
		cfg:     cfg,
		limiter: newStreamLimiter(cfg.MaxConcurrentPerIP, cfg.MaxConcurrent),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// The viewer is served from a different origin in development.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger.With("component", "stream"),
		now:    time.Now,
	}
}

type metadataMessage struct {
	Type            string    `json:"type"`
	ServerTime      time.Time `json:"server_time"`
	IntervalSeconds int       `json:"interval_seconds"`
	SatelliteID     string    `json:"satellite_id,omitempty"`
	MissionID       string    `json:"mission_id,omitempty"`
}

type frameMessage struct {
	Type string `json:"type"`
	frame.Frame
}

func newMetadata(f frame.Frame, interval time.Duration) metadataMessage {
	return metadataMessage{
		Type:            "metadata",
		ServerTime:      f.Time.UTC(),
		IntervalSeconds: int(interval / time.Second),
		SatelliteID:     f.SatelliteID,
		MissionID:       f.MissionID,
	}
}

func newFrameMessage(f frame.Frame) frameMessage {
	return frameMessage{Type: "frame", Frame: f}
}

// interval parses the interval query parameter in whole seconds.
func (h *Handler) interval(r *http.Request) (time.Duration, error) {
	v := r.URL.Query().Get("interval")
	if v == "" {
		return h.cfg.FrameInterval, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < minInterval || n > maxInterval {
		return 0, fmt.Errorf("invalid interval parameter, must be %d-%d", minInterval, maxInterval)
	}
	return time.Duration(n) * time.Second, nil
}

// admit takes a stream slot for the request's client. On rejection it writes
// the 429 response and returns ok=false.
func (h *Handler) admit(w http.ResponseWriter, r *http.Request, transport string) (ip string, ok bool) {
	ip = httputil.ClientIP(r, h.cfg.TrustProxy)
	if h.limiter.acquire(ip) {
		return ip, true
	}

	metrics.StreamRejected(transport)
	h.logger.Warn("stream limit exceeded",
		"transport", transport,
		"remote_ip", ip,
		"current_count", h.limiter.count(ip),
	)
	w.Header().Set("Retry-After", "30")
	writeError(w, http.StatusTooManyRequests, "too many concurrent streams")
	return ip, false
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
