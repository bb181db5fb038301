package sandbox

import (
	"sync"

	"github.com/gorilla/websocket"
)

// StatusMessage is what merchants receive on the status socket.
type StatusMessage struct {
	Status     string `json:"status"`
	FiatAmount string `json:"fiat_amount"`
	Fiat       string `json:"fiat"`
}

// Hub fans status messages out to the merchant sockets of an order.
type Hub struct {
	mu    sync.Mutex
	conns map[string]map[*websocket.Conn]struct{}
}

func NewHub() *Hub {
	return &Hub{conns: make(map[string]map[*websocket.Conn]struct{})}
}

// Attach registers conn for the order and, under the same lock, sends the
// message returned by pending when it reports one. Push cannot interleave,
// so a completion is never lost between the check and the registration.
func (h *Hub) Attach(id string, conn *websocket.Conn, pending func() (StatusMessage, bool)) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.conns[id]
	if !ok {
		set = make(map[*websocket.Conn]struct{})
		h.conns[id] = set
	}
	set[conn] = struct{}{}

	if msg, ok := pending(); ok {
		return conn.WriteJSON(msg)
	}
	return nil
}

func (h *Hub) Unregister(id string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.conns[id], conn)
	if len(h.conns[id]) == 0 {
		delete(h.conns, id)
	}
}

// Push writes msg to every socket of the order and returns how many got it.
// Writes happen under the hub lock, so a connection never sees two writers.
func (h *Hub) Push(id string, msg StatusMessage) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	sent := 0
	for conn := range h.conns[id] {
		if err := conn.WriteJSON(msg); err != nil {
			continue
		}
		sent++
	}
	return sent
}

// Listeners reports how many sockets are open for an order.
func (h *Hub) Listeners(id string) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.conns[id])
}
