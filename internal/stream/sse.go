package stream

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"time"

	"github.com/star/orbitview/internal/metrics"
)

// sseWriteTimeout bounds each write on a long-lived SSE connection.
const sseWriteTimeout = 30 * time.Second

// HandleSSE serves the SSE frame stream.
// GET /api/v1/stream/frames?interval=1
func (h *Handler) HandleSSE(w http.ResponseWriter, r *http.Request) {
	interval, err := h.interval(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	ip, ok := h.admit(w, r, transportSSE)
	if !ok {
		return
	}

	metrics.StreamOpened(transportSSE)
	start := time.Now()
	h.logger.Info("stream connected",
		"transport", transportSSE,
		"remote_ip", ip,
		"user_agent", r.Header.Get("User-Agent"),
		"interval_seconds", int(interval/time.Second),
	)
	defer func() {
		h.limiter.release(ip)
		metrics.StreamClosed(transportSSE)
		h.logger.Info("stream disconnected",
			"transport", transportSSE,
			"remote_ip", ip,
			"duration_seconds", int(time.Since(start).Seconds()),
		)
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	// Clear the server's WriteTimeout for this connection; each write sets
	// its own deadline.
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		h.logger.Debug("could not clear write deadline", "error", err)
	}

	c := &sseClient{w: w, flusher: flusher, rc: rc, logger: h.logger}

	// Jittered reconnect delay (3-7s) spreads clients out after a restart.
	fmt.Fprintf(w, "retry: %d\n\n", 3000+rand.Intn(4000))
	flusher.Flush()

	f := h.src.Frame(h.now())
	if err := c.sendJSON(newMetadata(f, interval)); err != nil {
		h.logger.Warn("stream send error (metadata)", "remote_ip", ip, "error", err)
		return
	}
	if err := c.sendJSON(newFrameMessage(f)); err != nil {
		h.logger.Warn("stream send error", "remote_ip", ip, "error", err)
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	keepalive := time.NewTicker(h.cfg.KeepaliveInterval)
	defer keepalive.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return

		case t := <-ticker.C:
			if err := c.sendJSON(newFrameMessage(h.src.Frame(t))); err != nil {
				h.logger.Warn("stream send error", "remote_ip", ip, "error", err)
				return
			}
			keepalive.Reset(h.cfg.KeepaliveInterval)

		case <-keepalive.C:
			if err := c.sendKeepalive(); err != nil {
				h.logger.Warn("stream keepalive error", "remote_ip", ip, "error", err)
				return
			}
		}
	}
}

// sseClient writes to one SSE connection.
type sseClient struct {
	w       http.ResponseWriter
	flusher http.Flusher
	rc      *http.ResponseController
	logger  *slog.Logger
}

// sendJSON writes v as a "data:" event.
func (c *sseClient) sendJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	c.extendDeadline()

	if _, err := fmt.Fprintf(c.w, "data: %s\n\n", data); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	c.flusher.Flush()
	metrics.FrameSent(transportSSE)
	return nil
}

// sendKeepalive writes an SSE comment line.
func (c *sseClient) sendKeepalive() error {
	c.extendDeadline()
	if _, err := fmt.Fprint(c.w, ":\n\n"); err != nil {
		return fmt.Errorf("keepalive write: %w", err)
	}
	c.flusher.Flush()
	return nil
}

func (c *sseClient) extendDeadline() {
	if err := c.rc.SetWriteDeadline(time.Now().Add(sseWriteTimeout)); err != nil {
		c.logger.Debug("could not set write deadline", "error", err)
	}
}
