package eventbus

import (
	"time"

	"github.com/fileops/notifyd/internal/notification"
)

// Event is a notification published to the bus.
type Event struct {
	Timestamp    time.Time                  `json:"timestamp"`
	Notification *notification.Notification `json:"notification"`
}

// Listener is a function that handles an event.
type Listener func(Event)
