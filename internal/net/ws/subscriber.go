package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// subscriber serializes writes to one websocket connection so broadcasts and
// timer-driven sends never interleave frames.
type subscriber struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func newSubscriber(conn *websocket.Conn) *subscriber {
	return &subscriber{conn: conn}
}

// Send implements room.Sender.
func (s *subscriber) Send(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// Close implements room.Sender.
func (s *subscriber) Close() error {
	return s.conn.Close()
}
