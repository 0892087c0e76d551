package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/motbook/motbook-api/internal/models"
)

// uniqueViolation is the Postgres error code raised when an insert loses
// the race on the live-booking partial unique index.
const uniqueViolation = "23505"

// ErrSlotConflict is returned by Reserve when the slot is already held by
// a live booking. Callers map it to the public conflict error.
var ErrSlotConflict = errors.New("slot already reserved")

// BookingRepository is the ledger of bookings. It is the single source of
// truth for slot occupancy; occupancy reads are never served from cache.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository constructs a booking repository.
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// Reserve inserts the booking. The partial unique index on
// (garage_id, date, time_slot) over live statuses is the final authority:
// a duplicate key error means another writer won and ErrSlotConflict is
// returned. The statement is atomic, so a timed-out request never leaves
// a partial row.
func (r *BookingRepository) Reserve(ctx context.Context, booking *models.Booking) error {
	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	booking.CreatedAt = now
	booking.UpdatedAt = now
	query := `INSERT INTO bookings (id, garage_id, customer_id, vehicle_id, date, time_slot, status, total_price, payment_status, notes, created_at, updated_at)
VALUES (:id, :garage_id, :customer_id, :vehicle_id, :date, :time_slot, :status, :total_price, :payment_status, :notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, booking); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrSlotConflict
		}
		return fmt.Errorf("reserve booking: %w", err)
	}
	return nil
}

// GetByID fetches a booking.
func (r *BookingRepository) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	const query = `SELECT id, garage_id, customer_id, vehicle_id, date, time_slot, status, total_price, payment_status, notes, created_at, updated_at
FROM bookings WHERE id = $1`
	var booking models.Booking
	if err := r.db.GetContext(ctx, &booking, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get booking: %w", err)
	}
	return &booking, nil
}

// OccupiedSlots returns the slots held by live bookings on one date.
func (r *BookingRepository) OccupiedSlots(ctx context.Context, garageID string, date time.Time) ([]string, error) {
	const query = `SELECT time_slot FROM bookings
WHERE garage_id = $1 AND date = $2 AND status = ANY($3) ORDER BY time_slot ASC`
	var slots []string
	if err := r.db.SelectContext(ctx, &slots, query, garageID, date, pq.Array(models.LiveStatuses())); err != nil {
		return nil, fmt.Errorf("occupied slots: %w", err)
	}
	return slots, nil
}

// OccupiedSlotsRange maps date (formatted YYYY-MM-DD) to the live-held
// slots across a window, one query for the ranged availability endpoint.
func (r *BookingRepository) OccupiedSlotsRange(ctx context.Context, garageID string, from, to time.Time) (map[string][]string, error) {
	const query = `SELECT date, time_slot FROM bookings
WHERE garage_id = $1 AND date >= $2 AND date <= $3 AND status = ANY($4)
ORDER BY date ASC, time_slot ASC`
	rows, err := r.db.QueryxContext(ctx, query, garageID, from, to, pq.Array(models.LiveStatuses()))
	if err != nil {
		return nil, fmt.Errorf("occupied slots range: %w", err)
	}
	defer rows.Close()

	occupied := make(map[string][]string)
	for rows.Next() {
		var date time.Time
		var slot string
		if err := rows.Scan(&date, &slot); err != nil {
			return nil, fmt.Errorf("scan occupied slot: %w", err)
		}
		key := date.Format("2006-01-02")
		occupied[key] = append(occupied[key], slot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("occupied slots range: %w", err)
	}
	return occupied, nil
}

// UpdateStatus transitions a booking from an expected status to the next
// one. The WHERE guard makes concurrent transitions race-safe: the row is
// only touched when it is still in the expected state, and the stored row
// is returned so callers act on what actually happened.
func (r *BookingRepository) UpdateStatus(ctx context.Context, id string, from, to models.BookingStatus) (*models.Booking, error) {
	const query = `UPDATE bookings SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4
RETURNING id, garage_id, customer_id, vehicle_id, date, time_slot, status, total_price, payment_status, notes, created_at, updated_at`
	var booking models.Booking
	if err := r.db.GetContext(ctx, &booking, query, to, time.Now().UTC(), id, from); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("update booking status: %w", err)
	}
	return &booking, nil
}

// UpdatePaymentStatus records how the booking was paid.
func (r *BookingRepository) UpdatePaymentStatus(ctx context.Context, id string, status models.PaymentStatus) error {
	result, err := r.db.ExecContext(ctx, "UPDATE bookings SET payment_status = $1, updated_at = $2 WHERE id = $3", status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete hard-deletes a booking. Admin only; scheduled actions cascade.
func (r *BookingRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM bookings WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// List returns bookings matching the filter, newest first.
func (r *BookingRepository) List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.GarageID != "" {
		where = append(where, fmt.Sprintf("garage_id = $%d", len(args)+1))
		args = append(args, filter.GarageID)
	}
	if filter.CustomerID != "" {
		where = append(where, fmt.Sprintf("customer_id = $%d", len(args)+1))
		args = append(args, filter.CustomerID)
	}
	if filter.VehicleID != "" {
		where = append(where, fmt.Sprintf("vehicle_id = $%d", len(args)+1))
		args = append(args, filter.VehicleID)
	}
	if filter.Status != nil {
		where = append(where, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.DateFrom != nil {
		where = append(where, fmt.Sprintf("date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		where = append(where, fmt.Sprintf("date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
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

	query := fmt.Sprintf(`SELECT id, garage_id, customer_id, vehicle_id, date, time_slot, status, total_price, payment_status, notes, created_at, updated_at
FROM bookings WHERE %s ORDER BY date DESC, time_slot DESC LIMIT %d OFFSET %d`, whereClause, size, offset)
	var bookings []models.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list bookings: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM bookings WHERE %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count bookings: %w", err)
	}
	return bookings, total, nil
}
