package notification

import (
	"encoding/json"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"
)

// Hub fans notifications out to connected websocket clients, keyed by
// username. Delivery is best-effort; a slow or gone client is dropped.
type Hub struct {
	mu    sync.RWMutex
	conns map[string][]*websocket.Conn
	log   *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		conns: make(map[string][]*websocket.Conn),
		log:   log,
	}
}

func (h *Hub) Register(username string, conn *websocket.Conn) {
	h.mu.Lock()
	h.conns[username] = append(h.conns[username], conn)
	h.mu.Unlock()
}

func (h *Hub) Unregister(username string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	peers := h.conns[username]
	for i, c := range peers {
		if c == conn {
			h.conns[username] = append(peers[:i], peers[i+1:]...)
			break
		}
	}
	if len(h.conns[username]) == 0 {
		delete(h.conns, username)
	}
}

// Push sends a notification to every live connection of the user
func (h *Hub) Push(username string, n *Notification) {
	payload, err := json.Marshal(n)
	if err != nil {
		return
	}

	h.mu.RLock()
	peers := append([]*websocket.Conn(nil), h.conns[username]...)
	h.mu.RUnlock()

	for _, conn := range peers {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.log.Debug("dropping dead websocket client",
				zap.String("username", username),
				zap.Error(err))
			h.Unregister(username, conn)
		}
	}
}
