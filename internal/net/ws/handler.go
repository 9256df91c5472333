package ws

import (
	"encoding/json"
	"errors"
	nethttp "net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"pixel-beach/server/internal/auth"
	"pixel-beach/server/internal/room"
	"pixel-beach/server/internal/telemetry"
)

type clientMessage struct {
	Type      string `json:"type"`
	Name      string `json:"name,omitempty"`
	AvatarID  string `json:"avatarId,omitempty"`
	Direction string `json:"direction,omitempty"`
	Text      string `json:"text,omitempty"`
}

// HandlerConfig wires the session provider into the websocket layer. With a
// nil Sessions store the handler trusts the join payload (dev mode).
type HandlerConfig struct {
	Sessions *auth.SessionStore
	Logger   telemetry.Logger
}

// Handler upgrades connections and pumps their events into the engine.
type Handler struct {
	engine   *room.Engine
	sessions *auth.SessionStore
	logger   telemetry.Logger
	upgrader websocket.Upgrader
}

func NewHandler(engine *room.Engine, cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = telemetry.LoggerFunc(func(string, ...any) {})
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *nethttp.Request) bool {
			return true
		},
	}

	return &Handler{
		engine:   engine,
		sessions: cfg.Sessions,
		logger:   logger,
		upgrader: upgrader,
	}
}

// Handle runs one websocket session: subscribe, pump events, disconnect.
// Every engine error is absorbed here; a malformed event from one connection
// never tears down another.
func (h *Handler) Handle(w nethttp.ResponseWriter, r *nethttp.Request) {
	var verified *auth.Session
	if h.sessions != nil {
		cookie, err := r.Cookie(auth.CookieName)
		if err != nil {
			nethttp.Error(w, "not logged in", nethttp.StatusUnauthorized)
			return
		}
		session, ok := h.sessions.Resolve(cookie.Value)
		if !ok {
			nethttp.Error(w, "session expired", nethttp.StatusUnauthorized)
			return
		}
		verified = &session
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("upgrade failed: %v", err)
		return
	}

	connID := uuid.NewString()
	h.engine.Subscribe(connID, newSubscriber(conn))

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			h.engine.Disconnect(connID)
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			h.logger.Printf("discarding malformed message from %s: %v", connID, err)
			continue
		}

		switch msg.Type {
		case "join":
			name, avatarID := msg.Name, msg.AvatarID
			if verified != nil {
				name, avatarID = verified.Username, verified.AvatarID
			}
			if err := h.engine.Join(connID, name, avatarID); err != nil {
				h.logger.Printf("join rejected for %s: %v", connID, err)
			}
		case "move":
			if err := h.engine.Move(connID, msg.Direction); err != nil {
				if errors.Is(err, room.ErrInvalidDirection) {
					h.logger.Printf("unknown direction %q from %s", msg.Direction, connID)
				}
			}
		case "talk":
			if err := h.engine.Talk(connID, msg.Text); err != nil {
				h.logger.Printf("talk ignored for %s: %v", connID, err)
			}
		default:
			h.logger.Printf("unknown message type %q from %s", msg.Type, connID)
		}
	}
}
