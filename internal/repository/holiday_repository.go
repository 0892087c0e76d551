package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/motbook/motbook-api/internal/models"
)

// HolidayRepository reads the externally supplied public-holiday calendar,
// keyed by region and year. The table is seeded out of band and treated as
// read-only by the application, apart from the admin seeding endpoint.
type HolidayRepository struct {
	db *sqlx.DB
}

// NewHolidayRepository constructs a holiday repository.
func NewHolidayRepository(db *sqlx.DB) *HolidayRepository {
	return &HolidayRepository{db: db}
}

// ListYear returns every holiday for a region and calendar year.
func (r *HolidayRepository) ListYear(ctx context.Context, region string, year int) ([]models.PublicHoliday, error) {
	const query = `SELECT id, region, date, name FROM public_holidays
WHERE region = $1 AND date >= $2 AND date < $3 ORDER BY date ASC`
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)
	var holidays []models.PublicHoliday
	if err := r.db.SelectContext(ctx, &holidays, query, region, from, to); err != nil {
		return nil, fmt.Errorf("list public holidays: %w", err)
	}
	return holidays, nil
}

// Upsert seeds or corrects a single holiday entry.
func (r *HolidayRepository) Upsert(ctx context.Context, holiday *models.PublicHoliday) error {
	if holiday.ID == "" {
		holiday.ID = uuid.NewString()
	}
	query := `INSERT INTO public_holidays (id, region, date, name)
VALUES (:id, :region, :date, :name)
ON CONFLICT (region, date) DO UPDATE SET name = EXCLUDED.name`
	if _, err := r.db.NamedExecContext(ctx, query, holiday); err != nil {
		return fmt.Errorf("upsert public holiday: %w", err)
	}
	return nil
}
