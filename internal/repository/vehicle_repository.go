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

// ErrDuplicateRegistration is returned when a customer registers the same
// registration plate twice.
var ErrDuplicateRegistration = errors.New("registration already exists for customer")

// VehicleRepository persists customer vehicles.
type VehicleRepository struct {
	db *sqlx.DB
}

// NewVehicleRepository constructs a vehicle repository.
func NewVehicleRepository(db *sqlx.DB) *VehicleRepository {
	return &VehicleRepository{db: db}
}

// Create inserts a vehicle. Registrations are stored upper-cased without
// spaces so "AB12 CDE" and "ab12cde" are the same plate.
func (r *VehicleRepository) Create(ctx context.Context, vehicle *models.Vehicle) error {
	if vehicle.ID == "" {
		vehicle.ID = uuid.NewString()
	}
	vehicle.Registration = NormaliseRegistration(vehicle.Registration)
	now := time.Now().UTC()
	vehicle.CreatedAt = now
	vehicle.UpdatedAt = now
	query := `INSERT INTO vehicles (id, customer_id, registration, make, model, year, fuel_type, colour, created_at, updated_at)
VALUES (:id, :customer_id, :registration, :make, :model, :year, :fuel_type, :colour, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, vehicle); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicateRegistration
		}
		return fmt.Errorf("create vehicle: %w", err)
	}
	return nil
}

// GetByID fetches a vehicle, nil when unknown.
func (r *VehicleRepository) GetByID(ctx context.Context, id string) (*models.Vehicle, error) {
	const query = `SELECT id, customer_id, registration, make, model, year, fuel_type, colour, created_at, updated_at
FROM vehicles WHERE id = $1`
	var vehicle models.Vehicle
	if err := r.db.GetContext(ctx, &vehicle, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get vehicle: %w", err)
	}
	return &vehicle, nil
}

// ListByCustomer returns a customer's vehicles.
func (r *VehicleRepository) ListByCustomer(ctx context.Context, customerID string) ([]models.Vehicle, error) {
	const query = `SELECT id, customer_id, registration, make, model, year, fuel_type, colour, created_at, updated_at
FROM vehicles WHERE customer_id = $1 ORDER BY registration ASC`
	var vehicles []models.Vehicle
	if err := r.db.SelectContext(ctx, &vehicles, query, customerID); err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	return vehicles, nil
}

// Delete removes a vehicle.
func (r *VehicleRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM vehicles WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete vehicle: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete vehicle: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// NormaliseRegistration upper-cases a plate and strips internal spaces.
func NormaliseRegistration(reg string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(reg), " ", ""))
}
