package eventbus_test

import (
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fileops/notifyd/internal/eventbus"
	"github.com/fileops/notifyd/internal/notification"
)

func newBus(workers, buffer int) eventbus.EventBus {
	return eventbus.New(workers, buffer, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func note(id string) *notification.Notification {
	return &notification.Notification{ID: id, UserID: "u1", Type: notification.TypeFileUploaded}
}

func TestPublishAndReceive(t *testing.T) {
	bus := newBus(2, 0)
	defer bus.Close()

	var received []eventbus.Event
	var mu sync.Mutex

	bus.Subscribe(func(e eventbus.Event) {
		mu.Lock()
		received = append(received, e)
		mu.Unlock()
	})

	require.NoError(t, bus.Publish(note("n-1")))

	// Give workers time to process
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 1)
	assert.Equal(t, "n-1", received[0].Notification.ID)
	assert.False(t, received[0].Timestamp.IsZero())
}

func TestMultipleListeners(t *testing.T) {
	bus := newBus(2, 0)
	defer bus.Close()

	var count int32

	for i := 0; i < 3; i++ {
		bus.Subscribe(func(_ eventbus.Event) {
			atomic.AddInt32(&count, 1)
		})
	}

	require.NoError(t, bus.Publish(note("multi")))
	time.Sleep(50 * time.Millisecond)

	assert.EqualValues(t, 3, atomic.LoadInt32(&count))
}

func TestListenerPanicDoesNotCrash(t *testing.T) {
	bus := newBus(1, 0)
	defer bus.Close()

	var goodCalled int32

	bus.Subscribe(func(_ eventbus.Event) {
		panic("intentional panic in listener")
	})
	bus.Subscribe(func(_ eventbus.Event) {
		atomic.AddInt32(&goodCalled, 1)
	})

	require.NoError(t, bus.Publish(note("panic")))
	time.Sleep(50 * time.Millisecond)

	// The second listener should still have been called.
	assert.EqualValues(t, 1, atomic.LoadInt32(&goodCalled))
}

func TestClose(t *testing.T) {
	bus := newBus(2, 0)

	var count int32
	bus.Subscribe(func(_ eventbus.Event) {
		atomic.AddInt32(&count, 1)
	})

	for i := 0; i < 5; i++ {
		require.NoError(t, bus.Publish(note("evt")))
	}

	// Close waits for all workers to finish processing.
	bus.Close()

	assert.EqualValues(t, 5, atomic.LoadInt32(&count))
}

func TestPublishAfterClose(t *testing.T) {
	bus := newBus(1, 0)
	bus.Close()
	bus.Close()

	assert.ErrorIs(t, bus.Publish(note("late")), eventbus.ErrClosed)
}

func TestPublishBufferFull(t *testing.T) {
	bus := newBus(1, 1)
	block := make(chan struct{})
	started := make(chan struct{}, 1)
	bus.Subscribe(func(_ eventbus.Event) {
		started <- struct{}{}
		<-block
	})

	require.NoError(t, bus.Publish(note("a")))
	<-started
	require.NoError(t, bus.Publish(note("b")))

	assert.ErrorIs(t, bus.Publish(note("c")), eventbus.ErrBufferFull)

	close(block)
	bus.Close()
}

func TestDefaultWorkers(t *testing.T) {
	// workers <= 0 should use default without panicking.
	bus := eventbus.New(0, 0, nil)
	require.NotNil(t, bus)
	bus.Close()
}
