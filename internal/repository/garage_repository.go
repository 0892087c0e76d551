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

	"github.com/motbook/motbook-api/internal/models"
)

// GarageRepository persists garages.
type GarageRepository struct {
	db *sqlx.DB
}

// NewGarageRepository constructs a garage repository.
func NewGarageRepository(db *sqlx.DB) *GarageRepository {
	return &GarageRepository{db: db}
}

// Create inserts a garage.
func (r *GarageRepository) Create(ctx context.Context, garage *models.Garage) error {
	if garage.ID == "" {
		garage.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	garage.CreatedAt = now
	garage.UpdatedAt = now
	query := `INSERT INTO garages (id, owner_id, name, address, city, postcode, phone, mot_price, saturday_cutoff, active, created_at, updated_at)
VALUES (:id, :owner_id, :name, :address, :city, :postcode, :phone, :mot_price, :saturday_cutoff, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, garage); err != nil {
		return fmt.Errorf("create garage: %w", err)
	}
	return nil
}

// GetByID fetches a garage, nil when unknown.
func (r *GarageRepository) GetByID(ctx context.Context, id string) (*models.Garage, error) {
	const query = `SELECT id, owner_id, name, address, city, postcode, phone, mot_price, saturday_cutoff, active, created_at, updated_at
FROM garages WHERE id = $1`
	var garage models.Garage
	if err := r.db.GetContext(ctx, &garage, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get garage: %w", err)
	}
	return &garage, nil
}

// Update modifies a garage's profile and policy fields.
func (r *GarageRepository) Update(ctx context.Context, garage *models.Garage) error {
	garage.UpdatedAt = time.Now().UTC()
	query := `UPDATE garages SET name = :name, address = :address, city = :city, postcode = :postcode,
phone = :phone, mot_price = :mot_price, saturday_cutoff = :saturday_cutoff, active = :active, updated_at = :updated_at
WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, garage)
	if err != nil {
		return fmt.Errorf("update garage: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update garage: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// List returns garages matching the filter.
func (r *GarageRepository) List(ctx context.Context, filter models.GarageFilter) ([]models.Garage, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.OwnerID != "" {
		where = append(where, fmt.Sprintf("owner_id = $%d", len(args)+1))
		args = append(args, filter.OwnerID)
	}
	if filter.City != "" {
		where = append(where, fmt.Sprintf("LOWER(city) = LOWER($%d)", len(args)+1))
		args = append(args, filter.City)
	}
	if filter.Postcode != "" {
		where = append(where, fmt.Sprintf("postcode ILIKE $%d", len(args)+1))
		args = append(args, filter.Postcode+"%")
	}
	if filter.Search != "" {
		where = append(where, fmt.Sprintf("name ILIKE $%d", len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.Active != nil {
		where = append(where, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	whereClause := strings.Join(where, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT id, owner_id, name, address, city, postcode, phone, mot_price, saturday_cutoff, active, created_at, updated_at
FROM garages WHERE %s ORDER BY name ASC LIMIT %d OFFSET %d`, whereClause, size, offset)
	var garages []models.Garage
	if err := r.db.SelectContext(ctx, &garages, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list garages: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM garages WHERE %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count garages: %w", err)
	}
	return garages, total, nil
}
