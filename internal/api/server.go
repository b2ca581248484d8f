// Package api wires the viewer's HTTP routes: scene reads, application
// state actions, frame streams and the mission backend proxy.
package api

import (
	"bufio"
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/star/orbitview/internal/auth"
	"github.com/star/orbitview/internal/backend"
	"github.com/star/orbitview/internal/frame"
	"github.com/star/orbitview/internal/health"
	"github.com/star/orbitview/internal/httputil"
	"github.com/star/orbitview/internal/metrics"
	"github.com/star/orbitview/internal/model"
	"github.com/star/orbitview/internal/orbit"
	"github.com/star/orbitview/internal/state"
	"github.com/star/orbitview/internal/stream"
	"github.com/star/orbitview/internal/telemetry"
)

// Telemetry is the part of the poller the handlers use.
type Telemetry interface {
	Snapshot() *telemetry.Snapshot
	Ready() bool
	Select(satelliteID, missionID string) bool
	RefreshDebris()
	FetchOrbits(ctx context.Context, ids []string) (map[string]*model.OrbitSample, map[string]error)
}

// FrameSource composes the scene frame at a given time.
type FrameSource interface {
	Frame(now time.Time) frame.Frame
}

// Deps are the server's collaborators.
type Deps struct {
	Logger    *slog.Logger
	Auth      auth.Config
	Store     *state.Store
	Telemetry Telemetry
	Frames    FrameSource
	Estimator *orbit.Estimator
	Backend   *backend.Client
	Streams   *stream.Handler

	// WriteLimiter throttles proxied writes per client IP. Nil disables it.
	WriteLimiter *httputil.IPRateLimiter
	TrustProxy   bool
}

// Server holds the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	deps       Deps
	logger     *slog.Logger
	now        func() time.Time
}

// NewServer creates a configured HTTP server.
func NewServer(addr string, deps Deps) *Server {
	s := &Server{
		deps:   deps,
		logger: deps.Logger.With("component", "api"),
		now:    time.Now,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.HandleFunc("GET /readyz", health.Readyz(deps.Telemetry.Ready))
	mux.Handle("GET /metrics", metrics.Handler())

	mux.HandleFunc("GET /api/v1/scene/frame", s.handleFrame)
	mux.HandleFunc("GET /api/v1/scene/orbit/{satellite_id}", s.handleOrbit)
	mux.HandleFunc("GET /api/v1/scene/camera", s.handleCamera)
	mux.HandleFunc("GET /api/v1/scene/debris", s.handleDebris)
	mux.HandleFunc("GET /api/v1/scene/orbits", s.handleOrbits)

	mux.HandleFunc("GET /api/v1/state", s.handleState)
	mux.HandleFunc("PUT /api/v1/state", s.handleHydrate)
	mux.HandleFunc("POST /api/v1/state/reset", s.handleReset)
	mux.HandleFunc("POST /api/v1/state/select", s.handleSelect)
	mux.HandleFunc("POST /api/v1/state/assign", s.handleAssign)
	mux.HandleFunc("POST /api/v1/state/missions/{mission_id}/complete", s.handleCompleteMission)

	if deps.Streams != nil {
		mux.HandleFunc("GET /api/v1/stream/frames", deps.Streams.HandleSSE)
		mux.HandleFunc("GET /api/v1/ws/frames", deps.Streams.HandleWebSocket)
	}

	mux.HandleFunc("GET /api/v1/satellite/available", s.handleAvailableSatellites)
	mux.Handle("POST /api/v1/satellite/{id}/maneuver", s.limitWrites(s.handleManeuver))
	mux.HandleFunc("GET /api/v1/satellite/video/realtime", s.handleRealtimeVideo)
	mux.HandleFunc("GET /api/v1/missions", s.handleMissions)
	mux.Handle("POST /api/v1/missions", s.limitWrites(s.handleCreateMission))
	mux.HandleFunc("GET /api/v1/missions/{id}", s.handleMission)
	mux.Handle("POST /api/v1/missions/{id}/message", s.limitWrites(s.handleSendMessage))

	// Build middleware chain: metrics -> logging -> auth -> mux.
	var handler http.Handler = mux
	handler = auth.Middleware(deps.Auth)(handler)
	handler = loggingMiddleware(deps.Logger)(handler)
	handler = metrics.Middleware(handler)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Handler returns the root handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// HTTPServer returns the underlying *http.Server for external control (e.g. shutdown).
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) limitWrites(h http.HandlerFunc) http.Handler {
	if s.deps.WriteLimiter == nil {
		return h
	}
	return s.deps.WriteLimiter.Limit(s.deps.TrustProxy, h)
}

// probePath returns true for health/readiness probe paths that should not log at INFO.
func probePath(path string) bool {
	return path == "/healthz" || path == "/readyz"
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

// Flush and Hijack keep SSE and WebSocket working behind the recorder.
func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (sr *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := sr.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	sr.statusCode = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (sr *statusRecorder) Unwrap() http.ResponseWriter {
	return sr.ResponseWriter
}

func loggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(sr, r)

			duration := time.Since(start)
			level := slog.LevelInfo
			if probePath(r.URL.Path) {
				level = slog.LevelDebug
			}

			logger.Log(r.Context(), level, "request",
				"component", "api",
				"method", r.Method,
				"path", r.URL.Path,
				"status", strconv.Itoa(sr.statusCode),
				"duration_ms", duration.Milliseconds(),
				"remote_ip", r.RemoteAddr,
			)
		})
	}
}
