package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const webhookColumns = `id, user_id, url, secret, events, active, failure_count, created_at, updated_at`

// SQLiteWebhookStore implements WebhookStore backed by SQLite.
type SQLiteWebhookStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteWebhookStore returns a new SQLiteWebhookStore.
func NewSQLiteWebhookStore(db *sql.DB) *SQLiteWebhookStore {
	return &SQLiteWebhookStore{db: db, now: time.Now}
}

// Create inserts a new webhook. CreatedAt/UpdatedAt default to now.
func (s *SQLiteWebhookStore) Create(ctx context.Context, w *Webhook) error {
	events, err := json.Marshal(nonNil(w.Events))
	if err != nil {
		return fmt.Errorf("encoding webhook events: %w", err)
	}
	now := s.now().UTC()
	if w.CreatedAt.IsZero() {
		w.CreatedAt = now
	}
	w.UpdatedAt = now

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO webhooks (`+webhookColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		w.ID, w.UserID, w.URL, w.Secret, string(events),
		w.Active, w.FailureCount, w.CreatedAt.UTC(), w.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting webhook %q: %w", w.ID, err)
	}
	return nil
}

// Get returns the webhook with the given id.
func (s *SQLiteWebhookStore) Get(ctx context.Context, id string) (*Webhook, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+webhookColumns+` FROM webhooks WHERE id = ?`, id)
	w, err := scanWebhook(row)
	if err != nil {
		return nil, fmt.Errorf("getting webhook %q: %w", id, err)
	}
	return w, nil
}

// ListByUser returns the webhooks owned by userID ordered by creation time.
func (s *SQLiteWebhookStore) ListByUser(ctx context.Context, userID string) ([]*Webhook, error) {
	return s.query(ctx, `
		SELECT `+webhookColumns+` FROM webhooks
		WHERE user_id = ?
		ORDER BY created_at ASC, id ASC`, userID)
}

// FindActiveByEvent returns the active webhooks whose events list contains eventType.
func (s *SQLiteWebhookStore) FindActiveByEvent(ctx context.Context, eventType string) ([]*Webhook, error) {
	return s.query(ctx, `
		SELECT `+webhookColumns+` FROM webhooks w
		WHERE w.active = 1
		  AND EXISTS (SELECT 1 FROM json_each(w.events) e WHERE e.value = ?)
		ORDER BY w.created_at ASC, w.id ASC`, eventType)
}

// SetActive updates the active flag. Activation also clears failure_count so
// the webhook gets a full threshold of failures again.
func (s *SQLiteWebhookStore) SetActive(ctx context.Context, id string, active bool) (*Webhook, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE webhooks
		SET active = ?,
		    failure_count = CASE WHEN ? THEN 0 ELSE failure_count END,
		    updated_at = ?
		WHERE id = ?
		RETURNING `+webhookColumns, active, active, s.now().UTC(), id)
	w, err := scanWebhook(row)
	if err != nil {
		return nil, fmt.Errorf("updating webhook %q: %w", id, err)
	}
	return w, nil
}

// RecordFailure increments the failure counter in a single statement. The
// SET expressions see the pre-update row, so failure_count + 1 is the new count.
func (s *SQLiteWebhookStore) RecordFailure(ctx context.Context, id string, threshold int) (*Webhook, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE webhooks
		SET failure_count = failure_count + 1,
		    active = CASE WHEN ? > 0 AND failure_count + 1 >= ? THEN 0 ELSE active END,
		    updated_at = ?
		WHERE id = ?
		RETURNING `+webhookColumns, threshold, threshold, s.now().UTC(), id)
	w, err := scanWebhook(row)
	if err != nil {
		return nil, fmt.Errorf("recording failure for webhook %q: %w", id, err)
	}
	return w, nil
}

// ResetFailures zeroes the failure counter if it is not already zero.
func (s *SQLiteWebhookStore) ResetFailures(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE webhooks SET failure_count = 0, updated_at = ?
		WHERE id = ? AND failure_count <> 0`, s.now().UTC(), id)
	if err != nil {
		return fmt.Errorf("resetting failures for webhook %q: %w", id, err)
	}
	return nil
}

func (s *SQLiteWebhookStore) query(ctx context.Context, query string, args ...any) ([]*Webhook, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying webhooks: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	webhooks := make([]*Webhook, 0)
	for rows.Next() {
		w, err := scanWebhook(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning webhook row: %w", err)
		}
		webhooks = append(webhooks, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating webhook rows: %w", err)
	}
	return webhooks, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanWebhook(row rowScanner) (*Webhook, error) {
	var (
		w      Webhook
		events string
	)
	err := row.Scan(&w.ID, &w.UserID, &w.URL, &w.Secret, &events,
		&w.Active, &w.FailureCount, &w.CreatedAt, &w.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(events), &w.Events); err != nil {
		return nil, fmt.Errorf("decoding webhook events: %w", err)
	}
	return &w, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
