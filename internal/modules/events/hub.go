package events

import (
	"sync"
	"time"

	"bookingpay/internal/domain"

	"github.com/gorilla/websocket"
)

// PaymentEvent is pushed to connected operators whenever a payment
// transitions.
type PaymentEvent struct {
	PaymentID string                 `json:"payment_id"`
	BookingID string                 `json:"booking_id"`
	Provider  domain.PaymentProvider `json:"provider"`
	Status    domain.PaymentStatus   `json:"status"`
	At        time.Time              `json:"at"`
}

// Hub fans payment transitions out to websocket subscribers. Delivery is
// best effort; a failed write drops the connection. The websocket library
// allows only one writer per connection, so each connection carries its
// own write mutex and broadcasts from concurrent settlers serialize on it.
type Hub struct {
	mu    sync.RWMutex
	conns map[*websocket.Conn]*sync.Mutex
}

func NewHub() *Hub {
	return &Hub{conns: make(map[*websocket.Conn]*sync.Mutex)}
}

func (h *Hub) Register(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn] = &sync.Mutex{}
}

func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.conns[conn]; exists {
		_ = conn.Close()
		delete(h.conns, conn)
	}
}

// PaymentUpdated implements the payment module's Notifier.
func (h *Hub) PaymentUpdated(p *domain.Payment) {
	h.broadcast(PaymentEvent{
		PaymentID: p.ID,
		BookingID: p.BookingID,
		Provider:  p.Provider,
		Status:    p.Status,
		At:        time.Now().UTC(),
	})
}

func (h *Hub) broadcast(ev PaymentEvent) {
	h.mu.RLock()
	targets := make(map[*websocket.Conn]*sync.Mutex, len(h.conns))
	for c, wmu := range h.conns {
		targets[c] = wmu
	}
	h.mu.RUnlock()

	for c, wmu := range targets {
		wmu.Lock()
		err := c.WriteJSON(ev)
		wmu.Unlock()
		if err != nil {
			h.Unregister(c)
		}
	}
}

func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.conns {
		_ = c.Close()
	}
	h.conns = make(map[*websocket.Conn]*sync.Mutex)
}
