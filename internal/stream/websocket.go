package stream

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/star/orbitview/internal/metrics"
)

const (
	wsWriteWait      = 10 * time.Second
	wsPongWait       = 60 * time.Second
	wsPingPeriod     = wsPongWait * 9 / 10
	wsMaxMessageSize = 4096
)

// HandleWebSocket serves the WebSocket frame stream. Messages from the
// client are read and discarded; the read pump only detects closes and
// answers pings.
// GET /api/v1/ws/frames?interval=1
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	interval, err := h.interval(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ip, ok := h.admit(w, r, transportWebSocket)
	if !ok {
		return
	}
	defer h.limiter.release(ip)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		h.logger.Debug("websocket upgrade failed", "remote_ip", ip, "error", err)
		return
	}
	defer conn.Close()

	metrics.StreamOpened(transportWebSocket)
	start := time.Now()
	h.logger.Info("stream connected",
		"transport", transportWebSocket,
		"remote_ip", ip,
		"user_agent", r.Header.Get("User-Agent"),
		"interval_seconds", int(interval/time.Second),
	)
	defer func() {
		metrics.StreamClosed(transportWebSocket)
		h.logger.Info("stream disconnected",
			"transport", transportWebSocket,
			"remote_ip", ip,
			"duration_seconds", int(time.Since(start).Seconds()),
		)
	}()

	closed := make(chan struct{})
	go readPump(conn, closed)

	f := h.src.Frame(h.now())
	if err := writeJSON(conn, newMetadata(f, interval)); err != nil {
		h.logger.Warn("stream send error (metadata)", "remote_ip", ip, "error", err)
		return
	}
	if err := writeJSON(conn, newFrameMessage(f)); err != nil {
		h.logger.Warn("stream send error", "remote_ip", ip, "error", err)
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(wsWriteWait))
			return

		case <-closed:
			return

		case t := <-ticker.C:
			if err := writeJSON(conn, newFrameMessage(h.src.Frame(t))); err != nil {
				h.logger.Warn("stream send error", "remote_ip", ip, "error", err)
				return
			}

		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.logger.Debug("websocket ping failed", "remote_ip", ip, "error", err)
				return
			}
		}
	}
}

// readPump consumes client messages until the connection fails, then closes
// done.
func readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(wsMaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func writeJSON(conn *websocket.Conn, v any) error {
	conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	if err := conn.WriteJSON(v); err != nil {
		return err
	}
	metrics.FrameSent(transportWebSocket)
	return nil
}
