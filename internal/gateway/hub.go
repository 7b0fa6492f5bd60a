// Package gateway serves the browser-facing surface: REST chart
// snapshots and a WebSocket stream of refreshed analysis results.
package gateway

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"chartlens/internal/metrics"
	"chartlens/internal/model"

	"github.com/gorilla/websocket"
)

// Hub manages WebSocket clients and fans applied analysis results out
// to them. It keeps the latest envelope per symbol so a newly connected
// client gets the current state without waiting for the next refresh.
type Hub struct {
	met *metrics.Metrics

	mu      sync.RWMutex
	clients map[*Client]bool
	latest  map[string]latestEntry
}

type latestEntry struct {
	Data json.RawMessage
	TS   time.Time
}

// NewHub creates a new Hub. met may be nil.
func NewHub(met *metrics.Metrics) *Hub {
	return &Hub{
		met:     met,
		clients: make(map[*Client]bool),
		latest:  make(map[string]latestEntry),
	}
}

// Publish builds the wire envelope for an applied result, caches it as
// the symbol's latest state, and fans it out to connected clients.
// Slow clients with a full send buffer are skipped, never blocked on.
func (h *Hub) Publish(res *model.AnalysisResult) {
	envelope, err := json.Marshal(map[string]interface{}{
		"type":  "chart",
		"chart": ToChartOut(res),
		"ts":    time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		log.Printf("[gateway] envelope marshal error for %s: %v", res.Symbol, err)
		return
	}

	h.mu.Lock()
	h.latest[res.Symbol] = latestEntry{Data: envelope, TS: time.Now()}
	for client := range h.clients {
		select {
		case client.send <- envelope:
		default:
		}
	}
	h.mu.Unlock()
}

// HandleWSRequest registers an upgraded connection and starts its pumps.
func (h *Hub) HandleWSRequest(conn *websocket.Conn) {
	client := &Client{
		conn: conn,
		send: make(chan []byte, 256),
		hub:  h,
	}

	h.mu.Lock()
	h.clients[client] = true
	count := len(h.clients)
	h.mu.Unlock()

	if h.met != nil {
		h.met.WSClients.Set(float64(count))
	}
	log.Printf("[gateway] ws client connected (%d total)", count)

	go client.sendInitialState()
	go client.writePump()
	go client.readPump()
}

// RemoveClient removes a client from the hub.
func (h *Hub) RemoveClient(c *Client) {
	h.mu.Lock()
	delete(h.clients, c)
	count := len(h.clients)
	h.mu.Unlock()
	close(c.send)

	if h.met != nil {
		h.met.WSClients.Set(float64(count))
	}
}

// ClientCount returns the number of connected WS clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
