package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"panelsound/internal/models"
)

const (
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
	maxMsgSize       = 1 << 12 // 4 KB
	defaultInterval  = 1 * time.Second
	maxInterval      = 10 * time.Second
	maxIntervalMilli = 10_000 // 10s in ms
)

// wsEnvelope is the frame sent to state stream clients.
type wsEnvelope struct {
	Type  string      `json:"type"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

// The panel API is served on the show LAN; any origin may watch.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// @Summary      Panel state stream
// @Description  WebSocket. Sends {type:"state"} on connect and whenever the panel processed new events. Poll period via ?interval=500ms or ?interval_ms=500.
// @Tags         panel
// @Param        interval     query  string  false  "Poll period (Go duration, max 10s)"
// @Param        interval_ms  query  int     false  "Poll period in ms (max 10000)"
// @Router       /ws [get]
func (h *Handler) wsConnect(c *gin.Context) {
	interval := h.parseInterval(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Errorw("ws_upgrade_failed", "err", err)
		return
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	go h.startReader(conn, done)

	ticker := time.NewTicker(interval)
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ping.Stop()
	}()

	last, err := h.sendState(c.Request.Context(), conn, nil)
	if err != nil {
		h.log.Infow("ws_write_failed_initial", "err", err)
		return
	}

	for {
		select {
		case <-done:
			return
		case <-c.Request.Context().Done():
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.log.Infow("ws_ping_failed", "err", err)
				return
			}
		case <-ticker.C:
			sent, err := h.sendState(c.Request.Context(), conn, &last)
			if err != nil {
				h.log.Infow("ws_write_failed", "err", err)
				return
			}
			last = sent
		}
	}
}

// parseInterval reads ?interval=2s or ?interval_ms=2000 with bounds.
func (h *Handler) parseInterval(c *gin.Context) time.Duration {
	interval := defaultInterval

	if s := c.Query("interval"); s != "" {
		if d, err := time.ParseDuration(s); err == nil && d > 0 && d <= maxInterval {
			return d
		}
	}

	if ms := c.Query("interval_ms"); ms != "" {
		if v, err := strconv.Atoi(ms); err == nil && v > 0 && v <= maxIntervalMilli {
			return time.Duration(v) * time.Millisecond
		}
	}

	return interval
}

// startReader drains client frames so pongs are handled and disconnects noticed.
func (h *Handler) startReader(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.log.Debugw("ws_read_closed", "err", err)
			return
		}
	}
}

// sendState writes the current snapshot unless it is the same panel state
// as prev. It returns the snapshot now known to the client.
func (h *Handler) sendState(ctx context.Context, conn *websocket.Conn, prev *models.PanelSnapshot) (models.PanelSnapshot, error) {
	st, err := h.services.Monitoring.GetState(ctx)
	if err != nil {
		h.log.Errorw("ws_get_state_failed", "err", err)
		return models.PanelSnapshot{}, err
	}
	if prev != nil && unchanged(*prev, st) {
		return *prev, nil
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return st, conn.WriteJSON(wsEnvelope{Type: "state", Data: st})
}

func unchanged(a, b models.PanelSnapshot) bool {
	return a.EventsProcessed == b.EventsProcessed && a.UpdatedAt.Equal(b.UpdatedAt)
}
