package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orbitview_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "orbitview_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	backendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orbitview_backend_requests_total",
			Help: "Requests made to the mission backend, by operation and outcome (ok, error, abort).",
		},
		[]string{"operation", "outcome"},
	)

	backendDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "orbitview_backend_duration_seconds",
			Help:    "Mission backend request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	debrisFallbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orbitview_debris_fallback_total",
			Help: "Times backend debris data was replaced with mock debris, by reason.",
		},
		[]string{"reason"},
	)

	pollErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orbitview_poll_errors_total",
			Help: "Failed telemetry polls, by kind (orbit, status, coverage, debris).",
		},
		[]string{"kind"},
	)

	streamsActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "orbitview_streams_active",
			Help: "Open frame streams, by transport (sse, websocket).",
		},
		[]string{"transport"},
	)

	streamsRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orbitview_streams_rejected_total",
			Help: "Frame stream connections rejected by the per-IP limit.",
		},
		[]string{"transport"},
	)

	framesSentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orbitview_frames_sent_total",
			Help: "Scene frames written to stream clients.",
		},
		[]string{"transport"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpDurationSeconds)
	prometheus.MustRegister(backendRequestsTotal)
	prometheus.MustRegister(backendDurationSeconds)
	prometheus.MustRegister(debrisFallbackTotal)
	prometheus.MustRegister(pollErrorsTotal)
	prometheus.MustRegister(streamsActive)
	prometheus.MustRegister(streamsRejectedTotal)
	prometheus.MustRegister(framesSentTotal)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveBackend records one backend call.
func ObserveBackend(operation, outcome string, d time.Duration) {
	backendRequestsTotal.WithLabelValues(operation, outcome).Inc()
	backendDurationSeconds.WithLabelValues(operation).Observe(d.Seconds())
}

// DebrisFallback counts a substitution of mock debris.
func DebrisFallback(reason string) {
	debrisFallbackTotal.WithLabelValues(reason).Inc()
}

// PollError counts a failed telemetry poll.
func PollError(kind string) {
	pollErrorsTotal.WithLabelValues(kind).Inc()
}

// StreamOpened and StreamClosed track open frame streams.
func StreamOpened(transport string) { streamsActive.WithLabelValues(transport).Inc() }
func StreamClosed(transport string) { streamsActive.WithLabelValues(transport).Dec() }

// StreamRejected counts a stream turned away by the concurrency limit.
func StreamRejected(transport string) {
	streamsRejectedTotal.WithLabelValues(transport).Inc()
}

// FrameSent counts a frame written to a stream client.
func FrameSent(transport string) {
	framesSentTotal.WithLabelValues(transport).Inc()
}

var exactRoutes = map[string]bool{
	"/":                                true,
	"/healthz":                         true,
	"/readyz":                          true,
	"/metrics":                         true,
	"/api/v1/scene/frame":              true,
	"/api/v1/scene/camera":             true,
	"/api/v1/scene/debris":             true,
	"/api/v1/scene/orbits":             true,
	"/api/v1/state":                    true,
	"/api/v1/state/select":             true,
	"/api/v1/state/assign":             true,
	"/api/v1/state/reset":               true,
	"/api/v1/stream/frames":            true,
	"/api/v1/ws/frames":                true,
	"/api/v1/satellite/available":      true,
	"/api/v1/satellite/video/realtime": true,
	"/api/v1/missions":                 true,
}

// normalizeRoute maps a request path to a bounded label set so that
// satellite and mission IDs do not explode metric cardinality.
func normalizeRoute(path string) string {
	if exactRoutes[path] {
		return path
	}

	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	switch {
	case len(parts) == 5 && parts[0] == "api" && parts[1] == "v1" && parts[2] == "scene" && parts[3] == "orbit" && parts[4] != "":
		return "/api/v1/scene/orbit/{satellite_id}"
	case len(parts) == 5 && parts[0] == "api" && parts[1] == "v1" && parts[2] == "satellite" && parts[4] == "maneuver" && parts[3] != "":
		return "/api/v1/satellite/{id}/maneuver"
	case len(parts) == 4 && parts[0] == "api" && parts[1] == "v1" && parts[2] == "missions" && parts[3] != "":
		return "/api/v1/missions/{id}"
	case len(parts) == 5 && parts[0] == "api" && parts[1] == "v1" && parts[2] == "missions" && parts[4] == "message" && parts[3] != "":
		return "/api/v1/missions/{id}/message"
	case len(parts) == 6 && parts[0] == "api" && parts[1] == "v1" && parts[2] == "state" && parts[3] == "missions" && parts[5] == "complete" && parts[4] != "":
		return "/api/v1/state/missions/{mission_id}/complete"
	}
	return "other"
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush lets SSE handlers flush through the wrapper.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack lets the WebSocket upgrade take over the connection.
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return h.Hijack()
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		code := strconv.Itoa(rw.statusCode)
		route := normalizeRoute(r.URL.Path)

		httpRequestsTotal.WithLabelValues(route, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(route, r.Method).Observe(duration)
	})
}
