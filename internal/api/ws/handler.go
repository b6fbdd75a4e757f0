// Package ws streams state-change events to the rendering layer and accepts
// its input over one WebSocket connection.
package ws

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/hovershell/core/internal/events"
	"github.com/hovershell/core/internal/infrastructure/logging"
	"github.com/hovershell/core/internal/infrastructure/monitoring"
	"github.com/hovershell/core/internal/router"
	"github.com/hovershell/core/internal/session"
	"github.com/hovershell/core/internal/shared/types"
	"github.com/hovershell/core/internal/trigger"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// The daemon binds to loopback; the rendering layer is local.
		return true
	},
}

// Handler manages rendering-layer WebSocket connections.
type Handler struct {
	log         *logging.Logger
	metrics     *monitoring.Metrics
	bus         *events.Bus
	sessions    *session.Registry
	coordinator *trigger.Coordinator
	router      *router.Router
}

// NewHandler creates a WebSocket handler.
func NewHandler(bus *events.Bus, sessions *session.Registry, coordinator *trigger.Coordinator, rt *router.Router, metrics *monitoring.Metrics, log *logging.Logger) *Handler {
	return &Handler{
		log:         log,
		metrics:     metrics,
		bus:         bus,
		sessions:    sessions,
		coordinator: coordinator,
		router:      rt,
	}
}

// inbound is one message from the rendering layer.
type inbound struct {
	Type      string  `json:"type"`
	SessionID string  `json:"session_id,omitempty"`
	Text      string  `json:"text,omitempty"`
	Count     int     `json:"count,omitempty"`
	Delta     int     `json:"delta,omitempty"`
	Pos       int     `json:"pos,omitempty"`
	Data      string  `json:"data,omitempty"`
	Chord     string  `json:"chord,omitempty"`
	X         int     `json:"x"`
	Y         int     `json:"y"`
	Scroll    float64 `json:"scroll,omitempty"`
	Action    string  `json:"action,omitempty"`
}

// conn wraps a websocket connection with a write lock, since the event pump
// and the inbound handler both write.
type conn struct {
	mu sync.Mutex
	ws *websocket.Conn
}

func (c *conn) send(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteJSON(v)
}

// HandleConnection upgrades the request and serves it until either side
// closes.
func (h *Handler) HandleConnection(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer ws.Close()

	connID := uuid.New().String()
	cn := &conn{ws: ws}

	h.metrics.WSConnections.Inc()
	defer h.metrics.WSConnections.Dec()
	h.log.Info("rendering layer connected", zap.String("conn_id", connID))

	subID, eventCh := h.bus.Subscribe()
	defer h.bus.Unsubscribe(subID)

	done := make(chan struct{})
	defer close(done)
	go h.pumpEvents(cn, eventCh, done)

	cn.send(map[string]interface{}{
		"type":       "hello",
		"conn_id":    connID,
		"visibility": h.coordinator.State(),
		"active_id":  h.sessions.ActiveID(),
		"sessions":   h.sessions.List(),
	})

	for {
		var msg inbound
		if err := ws.ReadJSON(&msg); err != nil {
			h.log.Debug("websocket closed", zap.String("conn_id", connID), zap.Error(err))
			return
		}
		h.dispatch(c, cn, msg)
	}
}

// pumpEvents forwards bus events until the connection ends.
func (h *Handler) pumpEvents(cn *conn, eventCh <-chan types.Event, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case ev, ok := <-eventCh:
			if !ok {
				return
			}
			if err := cn.send(ev); err != nil {
				return
			}
		}
	}
}

func (h *Handler) dispatch(c *gin.Context, cn *conn, msg inbound) {
	var err error
	switch msg.Type {
	case "insert":
		err = h.sessions.InsertText(msg.SessionID, msg.Text)
	case "delete_backward":
		err = h.sessions.DeleteBackward(msg.SessionID, countOrOne(msg.Count))
	case "delete_forward":
		err = h.sessions.DeleteForward(msg.SessionID, countOrOne(msg.Count))
	case "move_cursor":
		err = h.sessions.MoveCursor(msg.SessionID, msg.Delta)
	case "set_cursor":
		err = h.sessions.SetCursor(msg.SessionID, msg.Pos)
	case "history_prev":
		err = h.sessions.HistoryPrev(msg.SessionID)
	case "history_next":
		err = h.sessions.HistoryNext(msg.SessionID)
	case "submit":
		err = h.sessions.Submit(c.Request.Context(), msg.SessionID)
	case "raw":
		err = h.sessions.WriteRaw(msg.SessionID, []byte(msg.Data))
	case "cancel_ai":
		h.router.Cancel(msg.SessionID)
	case "hotkey":
		h.coordinator.OnHotkey(msg.Chord)
	case "pointer":
		h.coordinator.OnPointerSample(types.PointerSample{X: msg.X, Y: msg.Y})
	case "scroll_edge":
		h.coordinator.OnScrollAtEdge(msg.Scroll)
	case "menu":
		h.coordinator.OnMenuAction(types.MenuAction(msg.Action))
	case "settled":
		h.coordinator.Settled()
	case "ping":
		cn.send(map[string]interface{}{"type": "pong"})
	default:
		cn.send(map[string]interface{}{"type": "error", "message": "unknown message type"})
	}

	if err != nil {
		cn.send(map[string]interface{}{
			"type":       "error",
			"session_id": msg.SessionID,
			"message":    err.Error(),
		})
	}
}

func countOrOne(n int) int {
	if n <= 0 {
		return 1
	}
	return n
}
