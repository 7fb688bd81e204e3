package storage

import (
	"context"
	"time"
)

// Audit outcomes.
const (
	AuditOutcomeSuccess = "success"
	AuditOutcomeFailure = "failure"
)

// AuditLogEntry is an append-only record of an action taken by a user or by
// the system.
type AuditLogEntry struct {
	ID        string    `json:"id"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	SubjectID string    `json:"subjectId"`
	Outcome   string    `json:"outcome"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// AuditStore appends and lists audit entries. Entries are never updated or deleted.
type AuditStore interface {
	// Log appends an entry.
	Log(ctx context.Context, entry AuditLogEntry) error
	// List returns the most recent entries, newest first, up to limit.
	List(ctx context.Context, limit int) ([]AuditLogEntry, error)
}
