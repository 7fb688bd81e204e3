package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const deliveryColumns = `id, notification_id, webhook_id, channel, status, attempts,
	status_code, error, delivered_at, created_at, updated_at`

// SQLiteDeliveryStore implements DeliveryStore backed by SQLite.
type SQLiteDeliveryStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteDeliveryStore returns a new SQLiteDeliveryStore.
func NewSQLiteDeliveryStore(db *sql.DB) *SQLiteDeliveryStore {
	return &SQLiteDeliveryStore{db: db, now: time.Now}
}

// Create inserts a delivery. Status defaults to pending.
func (s *SQLiteDeliveryStore) Create(ctx context.Context, d *Delivery) error {
	now := s.now().UTC()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now
	if d.Status == "" {
		d.Status = DeliveryPending
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO deliveries (`+deliveryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.NotificationID, d.WebhookID, d.Channel, string(d.Status), d.Attempts,
		d.StatusCode, d.Error, utcPtr(d.DeliveredAt), d.CreatedAt.UTC(), d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting delivery %q: %w", d.ID, err)
	}
	return nil
}

// Update applies the non-nil fields of u.
func (s *SQLiteDeliveryStore) Update(ctx context.Context, id string, u DeliveryUpdate) (*Delivery, error) {
	var status *string
	if u.Status != nil {
		v := string(*u.Status)
		status = &v
	}
	row := s.db.QueryRowContext(ctx, `
		UPDATE deliveries
		SET status       = COALESCE(?, status),
		    attempts     = COALESCE(?, attempts),
		    status_code  = COALESCE(?, status_code),
		    error        = COALESCE(?, error),
		    delivered_at = COALESCE(?, delivered_at),
		    updated_at   = ?
		WHERE id = ?
		RETURNING `+deliveryColumns,
		status, u.Attempts, u.StatusCode, u.Error, utcPtr(u.DeliveredAt), s.now().UTC(), id)
	d, err := scanDelivery(row)
	if err != nil {
		return nil, fmt.Errorf("updating delivery %q: %w", id, err)
	}
	return d, nil
}

// Get returns the delivery with the given id.
func (s *SQLiteDeliveryStore) Get(ctx context.Context, id string) (*Delivery, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+deliveryColumns+` FROM deliveries WHERE id = ?`, id)
	d, err := scanDelivery(row)
	if err != nil {
		return nil, fmt.Errorf("getting delivery %q: %w", id, err)
	}
	return d, nil
}

// ListByNotification returns the deliveries for a notification, oldest first.
func (s *SQLiteDeliveryStore) ListByNotification(ctx context.Context, notificationID string) ([]*Delivery, error) {
	return s.query(ctx, `
		SELECT `+deliveryColumns+` FROM deliveries
		WHERE notification_id = ?
		ORDER BY created_at ASC, id ASC`, notificationID)
}

// ListStalePending returns pending deliveries created before cutoff.
func (s *SQLiteDeliveryStore) ListStalePending(ctx context.Context, cutoff time.Time) ([]*Delivery, error) {
	return s.query(ctx, `
		SELECT `+deliveryColumns+` FROM deliveries
		WHERE status = ? AND created_at < ?
		ORDER BY created_at ASC`, string(DeliveryPending), cutoff.UTC())
}

func (s *SQLiteDeliveryStore) query(ctx context.Context, query string, args ...any) ([]*Delivery, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying deliveries: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	deliveries := make([]*Delivery, 0)
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning delivery row: %w", err)
		}
		deliveries = append(deliveries, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating delivery rows: %w", err)
	}
	return deliveries, nil
}

func scanDelivery(row rowScanner) (*Delivery, error) {
	var (
		d           Delivery
		status      string
		deliveredAt sql.NullTime
	)
	err := row.Scan(&d.ID, &d.NotificationID, &d.WebhookID, &d.Channel, &status, &d.Attempts,
		&d.StatusCode, &d.Error, &deliveredAt, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	d.Status = DeliveryStatus(status)
	if deliveredAt.Valid {
		t := deliveredAt.Time
		d.DeliveredAt = &t
	}
	return &d, nil
}

func utcPtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
