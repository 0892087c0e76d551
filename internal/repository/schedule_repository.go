package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/motbook/motbook-api/internal/models"
)

// ScheduleRepository persists a garage's recurring weekly hours plus its
// date-specific exceptions, per-slot blocks and holiday overrides.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository constructs a schedule repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// UpsertWeekly writes one weekday row keyed (garage_id, day_of_week).
// Calling it twice with the same arguments leaves one row.
func (r *ScheduleRepository) UpsertWeekly(ctx context.Context, schedule *models.WeeklySchedule) error {
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if schedule.CreatedAt.IsZero() {
		schedule.CreatedAt = now
	}
	schedule.UpdatedAt = now
	query := `INSERT INTO weekly_schedules (id, garage_id, day_of_week, is_open, open_time, close_time, slot_duration_minutes, created_at, updated_at)
VALUES (:id, :garage_id, :day_of_week, :is_open, :open_time, :close_time, :slot_duration_minutes, :created_at, :updated_at)
ON CONFLICT (garage_id, day_of_week) DO UPDATE SET
is_open = EXCLUDED.is_open, open_time = EXCLUDED.open_time, close_time = EXCLUDED.close_time,
slot_duration_minutes = EXCLUDED.slot_duration_minutes, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, schedule); err != nil {
		return fmt.Errorf("upsert weekly schedule: %w", err)
	}
	return nil
}

// GetWeekly returns the schedule row for one weekday, or nil when the
// garage has never configured that day.
func (r *ScheduleRepository) GetWeekly(ctx context.Context, garageID string, dayOfWeek int) (*models.WeeklySchedule, error) {
	const query = `SELECT id, garage_id, day_of_week, is_open, open_time, close_time, slot_duration_minutes, created_at, updated_at
FROM weekly_schedules WHERE garage_id = $1 AND day_of_week = $2`
	var schedule models.WeeklySchedule
	if err := r.db.GetContext(ctx, &schedule, query, garageID, dayOfWeek); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get weekly schedule: %w", err)
	}
	return &schedule, nil
}

// ListWeekly returns all configured weekday rows for a garage.
func (r *ScheduleRepository) ListWeekly(ctx context.Context, garageID string) ([]models.WeeklySchedule, error) {
	const query = `SELECT id, garage_id, day_of_week, is_open, open_time, close_time, slot_duration_minutes, created_at, updated_at
FROM weekly_schedules WHERE garage_id = $1 ORDER BY day_of_week ASC`
	var schedules []models.WeeklySchedule
	if err := r.db.SelectContext(ctx, &schedules, query, garageID); err != nil {
		return nil, fmt.Errorf("list weekly schedules: %w", err)
	}
	return schedules, nil
}

// UpsertException writes a date override keyed (garage_id, date).
func (r *ScheduleRepository) UpsertException(ctx context.Context, exc *models.ScheduleException) error {
	if exc.ID == "" {
		exc.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if exc.CreatedAt.IsZero() {
		exc.CreatedAt = now
	}
	exc.UpdatedAt = now
	query := `INSERT INTO schedule_exceptions (id, garage_id, date, is_closed, reason, created_at, updated_at)
VALUES (:id, :garage_id, :date, :is_closed, :reason, :created_at, :updated_at)
ON CONFLICT (garage_id, date) DO UPDATE SET
is_closed = EXCLUDED.is_closed, reason = EXCLUDED.reason, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, exc); err != nil {
		return fmt.Errorf("upsert schedule exception: %w", err)
	}
	return nil
}

// GetException returns the override for a specific date, or nil.
func (r *ScheduleRepository) GetException(ctx context.Context, garageID string, date time.Time) (*models.ScheduleException, error) {
	const query = `SELECT id, garage_id, date, is_closed, reason, created_at, updated_at
FROM schedule_exceptions WHERE garage_id = $1 AND date = $2`
	var exc models.ScheduleException
	if err := r.db.GetContext(ctx, &exc, query, garageID, date); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get schedule exception: %w", err)
	}
	return &exc, nil
}

// ListExceptions returns overrides within a date range.
func (r *ScheduleRepository) ListExceptions(ctx context.Context, garageID string, from, to time.Time) ([]models.ScheduleException, error) {
	const query = `SELECT id, garage_id, date, is_closed, reason, created_at, updated_at
FROM schedule_exceptions WHERE garage_id = $1 AND date >= $2 AND date <= $3 ORDER BY date ASC`
	var excs []models.ScheduleException
	if err := r.db.SelectContext(ctx, &excs, query, garageID, from, to); err != nil {
		return nil, fmt.Errorf("list schedule exceptions: %w", err)
	}
	return excs, nil
}

// DeleteException removes the override for a date. Missing rows are not an
// error: unblocking an unblocked date is a no-op.
func (r *ScheduleRepository) DeleteException(ctx context.Context, garageID string, date time.Time) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM schedule_exceptions WHERE garage_id = $1 AND date = $2", garageID, date); err != nil {
		return fmt.Errorf("delete schedule exception: %w", err)
	}
	return nil
}

// AddBlock disables a single slot on a date. Re-blocking an already
// blocked slot is a no-op.
func (r *ScheduleRepository) AddBlock(ctx context.Context, block *models.TimeSlotBlock) error {
	if block.ID == "" {
		block.ID = uuid.NewString()
	}
	if block.CreatedAt.IsZero() {
		block.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO time_slot_blocks (id, garage_id, date, time_slot, created_at)
VALUES (:id, :garage_id, :date, :time_slot, :created_at)
ON CONFLICT (garage_id, date, time_slot) DO NOTHING`
	if _, err := r.db.NamedExecContext(ctx, query, block); err != nil {
		return fmt.Errorf("add time slot block: %w", err)
	}
	return nil
}

// RemoveBlock re-enables a blocked slot.
func (r *ScheduleRepository) RemoveBlock(ctx context.Context, garageID string, date time.Time, timeSlot string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM time_slot_blocks WHERE garage_id = $1 AND date = $2 AND time_slot = $3", garageID, date, timeSlot); err != nil {
		return fmt.Errorf("remove time slot block: %w", err)
	}
	return nil
}

// ListBlocks returns the blocked slots for a single date.
func (r *ScheduleRepository) ListBlocks(ctx context.Context, garageID string, date time.Time) ([]string, error) {
	const query = `SELECT time_slot FROM time_slot_blocks WHERE garage_id = $1 AND date = $2 ORDER BY time_slot ASC`
	var slots []string
	if err := r.db.SelectContext(ctx, &slots, query, garageID, date); err != nil {
		return nil, fmt.Errorf("list time slot blocks: %w", err)
	}
	return slots, nil
}

// ListBlocksRange maps date (YYYY-MM-DD) to blocked slots across a
// window, one query for the ranged availability endpoint.
func (r *ScheduleRepository) ListBlocksRange(ctx context.Context, garageID string, from, to time.Time) (map[string][]string, error) {
	const query = `SELECT date, time_slot FROM time_slot_blocks
WHERE garage_id = $1 AND date >= $2 AND date <= $3 ORDER BY date ASC, time_slot ASC`
	rows, err := r.db.QueryxContext(ctx, query, garageID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list blocks range: %w", err)
	}
	defer rows.Close()

	blocks := make(map[string][]string)
	for rows.Next() {
		var date time.Time
		var slot string
		if err := rows.Scan(&date, &slot); err != nil {
			return nil, fmt.Errorf("scan block: %w", err)
		}
		key := date.Format("2006-01-02")
		blocks[key] = append(blocks[key], slot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list blocks range: %w", err)
	}
	return blocks, nil
}

// ListHolidayOverridesRange returns overrides within a window keyed by
// date (YYYY-MM-DD).
func (r *ScheduleRepository) ListHolidayOverridesRange(ctx context.Context, garageID string, from, to time.Time) (map[string]models.HolidayOverride, error) {
	const query = `SELECT id, garage_id, date, is_available, created_at, updated_at
FROM holiday_overrides WHERE garage_id = $1 AND date >= $2 AND date <= $3`
	var overrides []models.HolidayOverride
	if err := r.db.SelectContext(ctx, &overrides, query, garageID, from, to); err != nil {
		return nil, fmt.Errorf("list holiday overrides range: %w", err)
	}
	byDate := make(map[string]models.HolidayOverride, len(overrides))
	for _, o := range overrides {
		byDate[o.Date.Format("2006-01-02")] = o
	}
	return byDate, nil
}

// UpsertHolidayOverride records the garage's explicit open/closed choice
// for a public holiday.
func (r *ScheduleRepository) UpsertHolidayOverride(ctx context.Context, override *models.HolidayOverride) error {
	if override.ID == "" {
		override.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if override.CreatedAt.IsZero() {
		override.CreatedAt = now
	}
	override.UpdatedAt = now
	query := `INSERT INTO holiday_overrides (id, garage_id, date, is_available, created_at, updated_at)
VALUES (:id, :garage_id, :date, :is_available, :created_at, :updated_at)
ON CONFLICT (garage_id, date) DO UPDATE SET
is_available = EXCLUDED.is_available, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, override); err != nil {
		return fmt.Errorf("upsert holiday override: %w", err)
	}
	return nil
}

// GetHolidayOverride returns the override for a date, or nil.
func (r *ScheduleRepository) GetHolidayOverride(ctx context.Context, garageID string, date time.Time) (*models.HolidayOverride, error) {
	const query = `SELECT id, garage_id, date, is_available, created_at, updated_at
FROM holiday_overrides WHERE garage_id = $1 AND date = $2`
	var override models.HolidayOverride
	if err := r.db.GetContext(ctx, &override, query, garageID, date); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get holiday override: %w", err)
	}
	return &override, nil
}
