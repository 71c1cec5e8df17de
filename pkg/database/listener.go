package database

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/lib/pq"
	"github.com/medisync/frontdesk/pkg/config"
	"github.com/medisync/frontdesk/pkg/logger"
)

const changeChannel = "frontdesk_changes"

// changeEvent is the payload published by the frontdesk_notify_change trigger
type changeEvent struct {
	Table string `json:"table"`
	Op    string `json:"op"`
	ID    string `json:"id"`
}

// Listener consumes Postgres NOTIFY events and fans them out to
// per-table subscribers. It implements interfaces.ChangeFeed.
type Listener struct {
	pq     *pq.Listener
	logger *logger.Logger

	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]func(op, id string) // table -> subscriber set

	done chan struct{}
}

// NewListener opens a LISTEN connection on the change channel and starts
// dispatching notifications. Call Close to stop.
func NewListener(cfg *config.DatabaseConfig, log *logger.Logger) (*Listener, error) {
	connStr := BuildConnectionString(cfg)

	reportErr := func(ev pq.ListenerEventType, err error) {
		if err != nil {
			log.WithError(err).Warn("Change feed listener connection event")
		}
	}

	pqListener := pq.NewListener(connStr, 10*time.Second, time.Minute, reportErr)
	if err := pqListener.Listen(changeChannel); err != nil {
		pqListener.Close()
		return nil, err
	}

	l := &Listener{
		pq:     pqListener,
		logger: log,
		subs:   make(map[string]map[int]func(op, id string)),
		done:   make(chan struct{}),
	}

	go l.dispatch()

	log.Infof("Listening for changes on channel %s", changeChannel)
	return l, nil
}

// Subscribe registers a callback for changes on a table. The returned
// function removes the subscription.
func (l *Listener) Subscribe(table string, callback func(op, id string)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := l.nextID
	l.nextID++

	if l.subs[table] == nil {
		l.subs[table] = make(map[int]func(op, id string))
	}
	l.subs[table][id] = callback

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.subs[table], id)
	}
}

// Close stops dispatching and closes the LISTEN connection
func (l *Listener) Close() error {
	close(l.done)
	return l.pq.Close()
}

// dispatch routes notifications to subscribers until Close is called.
// A periodic Ping keeps the connection alive through idle stretches.
func (l *Listener) dispatch() {
	keepalive := time.NewTicker(90 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case <-l.done:
			return
		case n := <-l.pq.Notify:
			if n == nil {
				// nil notification signals a reconnect; subscribers
				// are expected to re-read on the next event
				continue
			}
			l.deliver(n.Extra)
		case <-keepalive.C:
			if err := l.pq.Ping(); err != nil {
				l.logger.WithError(err).Warn("Change feed keepalive ping failed")
			}
		}
	}
}

func (l *Listener) deliver(payload string) {
	var ev changeEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		l.logger.WithError(err).Warn("Ignoring malformed change notification")
		return
	}

	l.mu.RLock()
	callbacks := make([]func(op, id string), 0, len(l.subs[ev.Table]))
	for _, cb := range l.subs[ev.Table] {
		callbacks = append(callbacks, cb)
	}
	l.mu.RUnlock()

	for _, cb := range callbacks {
		cb(ev.Op, ev.ID)
	}
}
