package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// SQLiteAuditStore implements AuditStore backed by SQLite.
type SQLiteAuditStore struct {
	db *sql.DB
}

// NewSQLiteAuditStore returns a new SQLiteAuditStore.
func NewSQLiteAuditStore(db *sql.DB) *SQLiteAuditStore {
	return &SQLiteAuditStore{db: db}
}

// Log appends an audit entry.
func (s *SQLiteAuditStore) Log(ctx context.Context, entry AuditLogEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_log (id, actor, action, subject_id, outcome, details, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Actor, entry.Action, entry.SubjectID,
		entry.Outcome, entry.Details, entry.Timestamp.UTC(),
	)
	if err != nil {
		return fmt.Errorf("inserting audit entry: %w", err)
	}
	return nil
}

// List returns the most recent entries ordered by timestamp descending.
func (s *SQLiteAuditStore) List(ctx context.Context, limit int) ([]AuditLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, actor, action, subject_id, outcome, details, timestamp
		FROM audit_log
		ORDER BY timestamp DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying audit log: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	entries := make([]AuditLogEntry, 0)
	for rows.Next() {
		var e AuditLogEntry
		if err := rows.Scan(&e.ID, &e.Actor, &e.Action, &e.SubjectID,
			&e.Outcome, &e.Details, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning audit row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating audit rows: %w", err)
	}
	return entries, nil
}
