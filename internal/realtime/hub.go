package realtime

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait are in seconds and drive the heartbeat.
	PingInterval = 30
	PongWait     = 60
)

// Event names pushed to kiosk UIs.
const (
	EventCheckinState = "checkin_state"
	EventCodePopup    = "code_popup"
)

// JoinHandler is called after a client joins so it can be sent the current state.
type JoinHandler func(c *Client)

// Hub maintains event_id -> set of UI connections and broadcasts state to them.
type Hub struct {
	rooms  map[int64]map[string]*Client
	mu     sync.RWMutex
	logger *zap.Logger
	onJoin JoinHandler
}

// NewHub creates a new WebSocket hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{rooms: make(map[int64]map[string]*Client), logger: logger}
}

// SetJoinHandler sets the callback run for every new client.
func (h *Hub) SetJoinHandler(fn JoinHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onJoin = fn
}

// Register adds a client to its event room.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if h.rooms[c.EventID] == nil {
		h.rooms[c.EventID] = make(map[string]*Client)
	}
	h.rooms[c.EventID][c.ID] = c
	h.mu.Unlock()
	h.resync(c)
	h.logger.Debug("ui client joined", zap.String("client_id", c.ID), zap.Int64("event_id", c.EventID))
}

// resync runs the join handler for c again.
func (h *Hub) resync(c *Client) {
	h.mu.RLock()
	onJoin := h.onJoin
	h.mu.RUnlock()
	if onJoin != nil {
		onJoin(c)
	}
}

// Unregister removes a client and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if m, ok := h.rooms[c.EventID]; ok {
		if _, ok := m[c.ID]; ok {
			delete(m, c.ID)
			close(c.send)
		}
		if len(m) == 0 {
			delete(h.rooms, c.EventID)
		}
	}
	h.mu.Unlock()
	h.logger.Debug("ui client left", zap.String("client_id", c.ID), zap.Int64("event_id", c.EventID))
}

// BroadcastToEvent sends a message to every client watching eventID.
// Slow clients whose buffer is full miss the message.
func (h *Hub) BroadcastToEvent(eventID int64, event string, payload interface{}) {
	msg, err := newMessage(event, payload)
	if err != nil {
		h.logger.Warn("broadcast marshal failed", zap.String("event", event), zap.Error(err))
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.rooms[eventID] {
		select {
		case c.send <- msg:
		default:
		}
	}
}

// Send delivers a message to one client.
func (h *Hub) Send(c *Client, event string, payload interface{}) {
	msg, err := newMessage(event, payload)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.rooms[c.EventID][c.ID]; !ok {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}

// ClientCount returns the number of clients watching eventID.
func (h *Hub) ClientCount(eventID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[eventID])
}

func newMessage(event string, payload interface{}) (WSMessage, error) {
	var data []byte
	switch v := payload.(type) {
	case nil:
	case json.RawMessage:
		data = v
	default:
		var err error
		if data, err = json.Marshal(payload); err != nil {
			return WSMessage{}, err
		}
	}
	return WSMessage{Event: event, Data: data}, nil
}
