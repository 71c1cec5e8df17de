package realtime

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// waitFor polls until the condition holds or the deadline passes
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func (h *Hub) firstClient() *client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		return c
	}
	return nil
}

func TestHub_BroadcastReachesConnectedClient(t *testing.T) {
	hub := NewHub(time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest("GET", "/events", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		hub.ServeHTTP(rec, req)
		close(done)
	}()

	waitFor(t, func() bool { return hub.ClientCount() == 1 })
	c := hub.firstClient()

	hub.Broadcast(Event{Table: "patients", Op: "INSERT", ID: "pat-1"})

	// The stream loop drains the channel before writing the event out
	waitFor(t, func() bool { return len(c.ch) == 0 })
	time.Sleep(20 * time.Millisecond)

	cancel()
	<-done

	body := rec.Body.String()
	assert.Contains(t, body, "retry: 5000")
	assert.Contains(t, body, `data: {"table":"patients","op":"INSERT","id":"pat-1"}`)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHub_BroadcastWithNoClientsDoesNotBlock(t *testing.T) {
	hub := NewHub(time.Minute)

	finished := make(chan struct{})
	go func() {
		hub.Broadcast(Event{Table: "doctors", Op: "UPDATE", ID: "doc-1"})
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked with no clients")
	}
}

func TestHub_SlowClientIsSkipped(t *testing.T) {
	hub := NewHub(time.Minute)

	// Register a client directly and never drain its channel
	id, c := hub.addClient()
	defer hub.removeClient(id)

	for i := 0; i < cap(c.ch)+10; i++ {
		hub.Broadcast(Event{Table: "patients", Op: "UPDATE", ID: "pat-1"})
	}

	assert.Equal(t, cap(c.ch), len(c.ch))
}

func TestHub_RemoveClientIsIdempotent(t *testing.T) {
	hub := NewHub(time.Minute)

	id, _ := hub.addClient()
	hub.removeClient(id)
	hub.removeClient(id)

	assert.Equal(t, 0, hub.ClientCount())
}
