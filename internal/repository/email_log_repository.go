package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/motbook/motbook-api/internal/models"
)

// EmailLogRepository records every outbound delivery attempt. It is the
// durable record; in-memory queues layer on top of it, never replace it.
type EmailLogRepository struct {
	db *sqlx.DB
}

// NewEmailLogRepository constructs an email log repository.
func NewEmailLogRepository(db *sqlx.DB) *EmailLogRepository {
	return &EmailLogRepository{db: db}
}

// Record appends one delivery attempt.
func (r *EmailLogRepository) Record(ctx context.Context, entry *models.EmailLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO email_log (id, recipient, kind, subject, booking_id, success, error, created_at)
VALUES (:id, :recipient, :kind, :subject, :booking_id, :success, :error, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("record email log: %w", err)
	}
	return nil
}

// List returns delivery attempts matching the filter, newest first.
func (r *EmailLogRepository) List(ctx context.Context, filter models.EmailLogFilter) ([]models.EmailLog, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.Recipient != "" {
		where = append(where, fmt.Sprintf("recipient = $%d", len(args)+1))
		args = append(args, filter.Recipient)
	}
	if filter.BookingID != "" {
		where = append(where, fmt.Sprintf("booking_id = $%d", len(args)+1))
		args = append(args, filter.BookingID)
	}
	if filter.Kind != nil {
		where = append(where, fmt.Sprintf("kind = $%d", len(args)+1))
		args = append(args, *filter.Kind)
	}
	if filter.Success != nil {
		where = append(where, fmt.Sprintf("success = $%d", len(args)+1))
		args = append(args, *filter.Success)
	}
	whereClause := strings.Join(where, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT id, recipient, kind, subject, booking_id, success, error, created_at
FROM email_log WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`, whereClause, size, offset)
	var entries []models.EmailLog
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list email log: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM email_log WHERE %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count email log: %w", err)
	}
	return entries, total, nil
}
