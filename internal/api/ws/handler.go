package ws

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/cradlehq/cradle/backend/internal/domain/blueprint"
	"github.com/cradlehq/cradle/backend/internal/domain/session"
	"github.com/cradlehq/cradle/backend/internal/infrastructure/logging"
	"github.com/cradlehq/cradle/backend/internal/infrastructure/monitoring"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	bufferSize     = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// origin is enforced by the CORS layer
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Message is a frame exchanged with the client.
type Message struct {
	Type      string           `json:"type"`
	State     *blueprint.State `json:"state,omitempty"`
	Message   string           `json:"message,omitempty"`
	Timestamp int64            `json:"timestamp"`
}

// Handler streams session snapshots over WebSocket.
type Handler struct {
	sessions *session.Manager
	metrics  *monitoring.Metrics
	logger   *logging.Logger
}

// NewHandler creates a new WebSocket handler. metrics and logger may be nil.
func NewHandler(sessions *session.Manager, metrics *monitoring.Metrics, logger *logging.Logger) *Handler {
	if metrics == nil {
		metrics = monitoring.NewMetrics()
	}
	return &Handler{
		sessions: sessions,
		metrics:  metrics,
		logger:   logging.OrNop(logger).Named("ws"),
	}
}

// HandleStream sends the current state of session :id, then every state
// change until the client disconnects or the session ends. A slow client
// skips intermediate states rather than holding up editors.
func (h *Handler) HandleStream(c *gin.Context) {
	s, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	h.metrics.IncWSConnections()
	defer h.metrics.DecWSConnections()

	updates, cancel := s.Store.Subscribe(bufferSize)
	defer cancel()

	replies := make(chan Message, bufferSize)
	done := make(chan struct{})
	go h.readLoop(conn, s, replies, done)

	snapshot := s.Store.Snapshot()
	if err := h.send(conn, Message{Type: "snapshot", State: &snapshot}); err != nil {
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case state, ok := <-updates:
			if !ok {
				_ = h.send(conn, Message{Type: "closed", Message: "session ended"})
				return
			}
			if err := h.send(conn, Message{Type: "snapshot", State: &state}); err != nil {
				return
			}
		case msg := <-replies:
			if err := h.send(conn, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Handler) readLoop(conn *websocket.Conn, s *session.Session, replies chan<- Message, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("WebSocket read error", zap.Error(err))
			}
			return
		}
		h.metrics.RecordWSMessage("in", msg.Type)

		var reply Message
		switch msg.Type {
		case "ping":
			reply = Message{Type: "pong"}
		case "snapshot":
			state := s.Store.Snapshot()
			reply = Message{Type: "snapshot", State: &state}
		default:
			reply = Message{Type: "error", Message: "unknown message type"}
		}

		select {
		case replies <- reply:
		default:
		}
	}
}

func (h *Handler) send(conn *websocket.Conn, msg Message) error {
	msg.Timestamp = time.Now().Unix()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(msg); err != nil {
		return err
	}
	h.metrics.RecordWSMessage("out", msg.Type)
	return nil
}
