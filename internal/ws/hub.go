package ws

import (
	"context"
	"encoding/json"
	"sync"

	"taskora/internal/domain"
	"taskora/internal/logger"

	"github.com/prometheus/client_golang/prometheus"
)

var clientsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
	Name: "task_feed_clients",
	Help: "WebSocket clients currently subscribed to task events",
})

func init() {
	prometheus.MustRegister(clientsGauge)
}

// Hub fans task events out to every connected client of this process.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	closed  bool
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*Client]struct{})}
}

func (h *Hub) Register(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	clientsGauge.Inc()
	return true
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.Send)
	clientsGauge.Dec()
}

// Publish encodes ev and broadcasts it locally.
func (h *Hub) Publish(ctx context.Context, ev domain.TaskEvent) {
	msg, err := json.Marshal(ev)
	if err != nil {
		logger.WithContext(ctx).Error("encode task event", "error", err)
		return
	}
	h.Broadcast(msg)
}

// Broadcast queues msg for every client. A client whose buffer is full is
// dropped; it will reconnect and re-fetch.
func (h *Hub) Broadcast(msg []byte) {
	h.mu.RLock()
	var slow []*Client
	for c := range h.clients {
		select {
		case c.Send <- msg:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		logger.Warn("dropping slow task feed client", "remote", c.remote)
		h.Unregister(c)
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.Send)
		clientsGauge.Dec()
	}
}
