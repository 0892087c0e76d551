package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/motbook/motbook-api/internal/models"
)

// ScheduledActionRepository is the durable queue of time-triggered
// follow-ups. Every state change is persisted per row, so an interrupted
// dispatch pass resumes with only the rows that were not yet handled.
type ScheduledActionRepository struct {
	db *sqlx.DB
}

// NewScheduledActionRepository constructs the repository.
func NewScheduledActionRepository(db *sqlx.DB) *ScheduledActionRepository {
	return &ScheduledActionRepository{db: db}
}

// UpsertPending schedules one reminder keyed (booking_id, kind). Repeat
// confirmations re-arm an existing row instead of duplicating it; a row
// that already went out stays SENT.
func (r *ScheduledActionRepository) UpsertPending(ctx context.Context, action *models.ScheduledAction) error {
	if action.ID == "" {
		action.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if action.CreatedAt.IsZero() {
		action.CreatedAt = now
	}
	action.UpdatedAt = now
	action.Status = models.ActionPending
	query := `INSERT INTO scheduled_actions (id, booking_id, kind, scheduled_for, status, retry_count, last_error, sent_at, created_at, updated_at)
VALUES (:id, :booking_id, :kind, :scheduled_for, :status, 0, NULL, NULL, :created_at, :updated_at)
ON CONFLICT (booking_id, kind) DO UPDATE SET
scheduled_for = EXCLUDED.scheduled_for, status = 'PENDING', retry_count = 0, last_error = NULL, updated_at = EXCLUDED.updated_at
WHERE scheduled_actions.status <> 'SENT'`
	if _, err := r.db.NamedExecContext(ctx, query, action); err != nil {
		return fmt.Errorf("upsert scheduled action: %w", err)
	}
	return nil
}

// CancelPendingForBooking voids every not-yet-dispatched reminder for a
// booking. SENT and FAILED rows keep their history.
func (r *ScheduledActionRepository) CancelPendingForBooking(ctx context.Context, bookingID string) error {
	const query = `UPDATE scheduled_actions SET status = 'CANCELLED', updated_at = $1
WHERE booking_id = $2 AND status = 'PENDING'`
	if _, err := r.db.ExecContext(ctx, query, time.Now().UTC(), bookingID); err != nil {
		return fmt.Errorf("cancel scheduled actions: %w", err)
	}
	return nil
}

// Cancel voids a single pending action, used when the dispatcher finds the
// owning booking no longer CONFIRMED.
func (r *ScheduledActionRepository) Cancel(ctx context.Context, id string) error {
	const query = `UPDATE scheduled_actions SET status = 'CANCELLED', updated_at = $1
WHERE id = $2 AND status = 'PENDING'`
	if _, err := r.db.ExecContext(ctx, query, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("cancel scheduled action: %w", err)
	}
	return nil
}

// ListDue returns pending actions scheduled up to the horizon, joined with
// the booking and customer details the dispatcher needs for delivery.
func (r *ScheduledActionRepository) ListDue(ctx context.Context, horizon time.Time, limit int) ([]models.DueAction, error) {
	if limit <= 0 {
		limit = 200
	}
	query := fmt.Sprintf(`SELECT sa.id, sa.booking_id, sa.kind, sa.scheduled_for, sa.status, sa.retry_count, sa.last_error, sa.sent_at, sa.created_at, sa.updated_at,
b.status AS booking_status, b.date AS booking_date, b.time_slot AS booking_time_slot,
u.email AS customer_email, u.full_name AS customer_name,
g.name AS garage_name, v.registration AS vehicle_reg
FROM scheduled_actions sa
JOIN bookings b ON b.id = sa.booking_id
JOIN users u ON u.id = b.customer_id
JOIN garages g ON g.id = b.garage_id
JOIN vehicles v ON v.id = b.vehicle_id
WHERE sa.status = 'PENDING' AND sa.scheduled_for <= $1
ORDER BY sa.scheduled_for ASC LIMIT %d`, limit)
	var due []models.DueAction
	if err := r.db.SelectContext(ctx, &due, query, horizon); err != nil {
		return nil, fmt.Errorf("list due actions: %w", err)
	}
	return due, nil
}

// MarkSent flips a pending action to SENT. The status guard means a row
// already handled by a previous interrupted pass is never re-sent; the
// return value reports whether this caller won.
func (r *ScheduledActionRepository) MarkSent(ctx context.Context, id string, sentAt time.Time) (bool, error) {
	const query = `UPDATE scheduled_actions SET status = 'SENT', sent_at = $1, updated_at = $1
WHERE id = $2 AND status = 'PENDING'`
	result, err := r.db.ExecContext(ctx, query, sentAt.UTC(), id)
	if err != nil {
		return false, fmt.Errorf("mark action sent: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark action sent: %w", err)
	}
	return affected > 0, nil
}

// MarkFailure records a delivery failure. The row stays PENDING until the
// retry ceiling is reached, then becomes FAILED permanently.
func (r *ScheduledActionRepository) MarkFailure(ctx context.Context, id string, lastError string, maxRetries int) error {
	const query = `UPDATE scheduled_actions SET
retry_count = retry_count + 1,
last_error = $1,
status = CASE WHEN retry_count + 1 >= $2 THEN 'FAILED' ELSE 'PENDING' END,
updated_at = $3
WHERE id = $4 AND status = 'PENDING'`
	if _, err := r.db.ExecContext(ctx, query, lastError, maxRetries, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("mark action failure: %w", err)
	}
	return nil
}

// ListByBooking returns all actions for a booking, oldest trigger first.
func (r *ScheduledActionRepository) ListByBooking(ctx context.Context, bookingID string) ([]models.ScheduledAction, error) {
	const query = `SELECT id, booking_id, kind, scheduled_for, status, retry_count, last_error, sent_at, created_at, updated_at
FROM scheduled_actions WHERE booking_id = $1 ORDER BY scheduled_for ASC`
	var actions []models.ScheduledAction
	if err := r.db.SelectContext(ctx, &actions, query, bookingID); err != nil {
		return nil, fmt.Errorf("list actions by booking: %w", err)
	}
	return actions, nil
}
