package realtime

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Event is a single dashboard change event
type Event struct {
	Table string `json:"table"`
	Op    string `json:"op"`
	ID    string `json:"id"`
}

type client struct {
	ch   chan string
	done chan struct{}
}

// Hub fans change events out to connected SSE clients
type Hub struct {
	mu       sync.RWMutex
	clients  map[int]*client
	nextID   int
	interval time.Duration
	retryMs  int
}

// NewHub creates a hub; interval controls the keepalive ping cadence
func NewHub(interval time.Duration) *Hub {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Hub{
		clients:  make(map[int]*client),
		interval: interval,
		retryMs:  5000,
	}
}

// Broadcast sends an event to every connected client. Slow clients are
// skipped rather than blocking the feed.
func (h *Hub) Broadcast(ev Event) {
	b, _ := json.Marshal(ev)
	msg := fmt.Sprintf("data: %s\n\n", b)

	h.mu.RLock()
	for _, c := range h.clients {
		select {
		case c.ch <- msg:
		default:
		}
	}
	h.mu.RUnlock()
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) addClient() (int, *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	c := &client{ch: make(chan string, 64), done: make(chan struct{})}
	h.clients[id] = c
	return id, c
}

func (h *Hub) removeClient(id int) {
	h.mu.Lock()
	if c, ok := h.clients[id]; ok {
		close(c.done)
		delete(h.clients, id)
	}
	h.mu.Unlock()
}

// ServeHTTP streams events to a dashboard client until it disconnects
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	fmt.Fprintf(w, "retry: %d\n\n", h.retryMs)
	flusher.Flush()

	id, c := h.addClient()
	defer h.removeClient(id)

	ping := time.NewTicker(h.interval)
	defer ping.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-r.Context().Done():
			return
		case <-ping.C:
			fmt.Fprint(w, "event: ping\ndata: {}\n\n")
			flusher.Flush()
		case msg := <-c.ch:
			fmt.Fprint(w, msg)
			flusher.Flush()
		}
	}
}
