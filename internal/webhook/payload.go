// Package webhook builds signed webhook payloads and delivers them to
// subscribed endpoints.
package webhook

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fileops/notifyd/internal/notification"
)

// Keys every payload carries in Data. Extra notification data never
// overrides them.
const (
	KeyNotificationID = "notificationId"
	KeyTitle          = "title"
	KeyMessage        = "message"
	KeyPriority       = "priority"
)

// Payload is the JSON body POSTed to a webhook. A fresh ID and Timestamp are
// generated for every attempt, so receivers dedupe on data.notificationId.
type Payload struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Timestamp string         `json:"timestamp"`
	Data      map[string]any `json:"data"`
}

// BuildPayload assembles the payload for n with the given payload id and
// creation time.
func BuildPayload(id string, n *notification.Notification, at time.Time) Payload {
	data := make(map[string]any, len(n.Data)+4)
	for k, v := range n.Data {
		data[k] = v
	}
	data[KeyNotificationID] = n.ID
	data[KeyTitle] = n.Title
	data[KeyMessage] = n.Message
	data[KeyPriority] = string(n.Priority)

	return Payload{
		ID:        id,
		Type:      string(n.Type),
		Timestamp: at.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Data:      data,
	}
}

// Encode serializes p canonically: fields in declaration order and map keys
// sorted. The returned bytes are both signed and sent.
func (p Payload) Encode() ([]byte, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encoding payload %s: %w", p.ID, err)
	}
	return b, nil
}
