package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/motbook/motbook-api/internal/models"
	"github.com/motbook/motbook-api/internal/repository"
	appErrors "github.com/motbook/motbook-api/pkg/errors"
)

// VehicleStore is the persistence surface for customer vehicles.
type VehicleStore interface {
	Create(ctx context.Context, vehicle *models.Vehicle) error
	GetByID(ctx context.Context, id string) (*models.Vehicle, error)
	ListByCustomer(ctx context.Context, customerID string) ([]models.Vehicle, error)
	Delete(ctx context.Context, id string) error
}

// VehicleService manages customers' registered vehicles.
type VehicleService struct {
	repo     VehicleStore
	validate *validator.Validate
	logger   *zap.Logger
}

func NewVehicleService(repo VehicleStore, validate *validator.Validate, logger *zap.Logger) *VehicleService {
	return &VehicleService{repo: repo, validate: validate, logger: logger}
}

// RegisterVehicle adds a vehicle to the acting customer's account.
func (s *VehicleService) RegisterVehicle(ctx context.Context, actor models.BookingActor, req *models.CreateVehicleRequest) (*models.Vehicle, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.ErrValidation.WithError(err)
	}

	vehicle := &models.Vehicle{
		CustomerID:   actor.UserID,
		Registration: req.Registration,
		Make:         req.Make,
		Model:        req.Model,
	}
	if req.Year != 0 {
		year := req.Year
		vehicle.Year = &year
	}
	if req.FuelType != "" {
		fuel := req.FuelType
		vehicle.FuelType = &fuel
	}

	if err := s.repo.Create(ctx, vehicle); err != nil {
		if errors.Is(err, repository.ErrDuplicateRegistration) {
			return nil, appErrors.ErrConflict.WithError(err)
		}
		return nil, appErrors.ErrDatabase.WithError(err)
	}
	s.logger.Info("vehicle registered",
		zap.String("vehicle_id", vehicle.ID),
		zap.String("customer_id", actor.UserID),
		zap.String("registration", vehicle.Registration))
	return vehicle, nil
}

// ListVehicles returns the acting customer's vehicles.
func (s *VehicleService) ListVehicles(ctx context.Context, actor models.BookingActor) ([]models.Vehicle, error) {
	vehicles, err := s.repo.ListByCustomer(ctx, actor.UserID)
	if err != nil {
		return nil, appErrors.ErrDatabase.WithError(err)
	}
	return vehicles, nil
}

// RemoveVehicle deletes a vehicle owned by the acting customer. Admins
// may remove any vehicle.
func (s *VehicleService) RemoveVehicle(ctx context.Context, id string, actor models.BookingActor) error {
	vehicle, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return appErrors.ErrDatabase.WithError(err)
	}
	if vehicle == nil {
		return appErrors.ErrNotFound.WithError(fmt.Errorf("vehicle %s not found", id))
	}
	if actor.Role != models.RoleAdmin && vehicle.CustomerID != actor.UserID {
		return appErrors.ErrForbidden
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.ErrDatabase.WithError(err)
	}
	return nil
}
