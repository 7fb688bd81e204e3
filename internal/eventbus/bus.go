// Package eventbus provides an in-memory, asynchronous event bus that carries
// notifications from the publishing service to the delivery handlers.
// Events are dispatched through a buffered channel and processed by a worker pool.
package eventbus

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/fileops/notifyd/internal/notification"
)

const (
	defaultWorkers    = 3
	defaultBufferSize = 100
)

var (
	// ErrBufferFull is returned by Publish when the queue is full.
	ErrBufferFull = errors.New("event buffer full")
	// ErrClosed is returned by Publish after Close.
	ErrClosed = errors.New("event bus closed")
)

// EventBus is the interface for publishing events and managing subscribers.
type EventBus interface {
	// Publish enqueues a notification. It never blocks: if the buffer is
	// full the event is rejected with ErrBufferFull.
	Publish(n *notification.Notification) error

	// Subscribe registers a listener that will be called for every published event.
	// All listeners are invoked for each event (broadcast). Subscribe must be called
	// before the first Publish.
	Subscribe(listener Listener)

	// Close stops accepting new events and waits for all pending events to be processed.
	Close()
}

// inMemoryBus is the default EventBus implementation.
type inMemoryBus struct {
	ch        chan Event
	listeners []Listener
	mu        sync.RWMutex
	closed    bool
	wg        sync.WaitGroup
	workers   int
	logger    *slog.Logger
}

// New creates a new in-memory EventBus with the specified number of worker
// goroutines and queue size. Non-positive values fall back to 3 workers and
// a buffer of 100.
func New(workers, bufferSize int, logger *slog.Logger) EventBus {
	if workers <= 0 {
		workers = defaultWorkers
	}
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	b := &inMemoryBus{
		ch:      make(chan Event, bufferSize),
		workers: workers,
		logger:  logger,
	}
	b.startWorkers()
	return b
}

// startWorkers launches the worker goroutines that process events from the channel.
func (b *inMemoryBus) startWorkers() {
	for i := 0; i < b.workers; i++ {
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			for e := range b.ch {
				b.dispatch(e)
			}
		}()
	}
}

// dispatch calls all registered listeners for the given event.
// Each listener is invoked with panic recovery to prevent one bad listener
// from affecting others.
func (b *inMemoryBus) dispatch(e Event) {
	b.mu.RLock()
	listeners := make([]Listener, len(b.listeners))
	copy(listeners, b.listeners)
	b.mu.RUnlock()

	for _, l := range listeners {
		func() {
			defer func() {
				if r := recover(); r != nil {
					b.logger.Error("eventbus listener panicked",
						"notification_id", e.Notification.ID, "panic", r)
				}
			}()
			l(e)
		}()
	}
}

// Publish enqueues a notification. If the buffer is full the event is rejected.
func (b *inMemoryBus) Publish(n *notification.Notification) error {
	e := Event{
		Timestamp:    time.Now(),
		Notification: n,
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}

	select {
	case b.ch <- e:
		return nil
	default:
		b.logger.Warn("eventbus buffer full, rejecting notification",
			"notification_id", n.ID, "type", n.Type)
		return ErrBufferFull
	}
}

// Subscribe adds a listener to receive all future events.
func (b *inMemoryBus) Subscribe(listener Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, listener)
}

// Close drains and closes the event channel, then waits for all workers to finish.
// It is safe to call more than once.
func (b *inMemoryBus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	close(b.ch)
	b.mu.Unlock()

	b.wg.Wait()
}
