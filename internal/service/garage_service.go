package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/motbook/motbook-api/internal/models"
	appErrors "github.com/motbook/motbook-api/pkg/errors"
)

// GarageStore is the persistence surface for garage management.
type GarageStore interface {
	Create(ctx context.Context, garage *models.Garage) error
	GetByID(ctx context.Context, id string) (*models.Garage, error)
	Update(ctx context.Context, garage *models.Garage) error
	List(ctx context.Context, filter models.GarageFilter) ([]models.Garage, int, error)
}

// GarageService manages garage profiles and policy fields.
type GarageService struct {
	repo     GarageStore
	validate *validator.Validate
	logger   *zap.Logger
}

func NewGarageService(repo GarageStore, validate *validator.Validate, logger *zap.Logger) *GarageService {
	return &GarageService{repo: repo, validate: validate, logger: logger}
}

// CreateGarage registers a garage owned by the acting user. Admins can
// create garages too; they own them until reassigned in the database.
func (s *GarageService) CreateGarage(ctx context.Context, actor models.BookingActor, req *models.CreateGarageRequest) (*models.Garage, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.ErrValidation.WithError(err)
	}
	if actor.Role != models.RoleGarageOwner && actor.Role != models.RoleAdmin {
		return nil, appErrors.ErrForbidden
	}

	garage := &models.Garage{
		OwnerID:        actor.UserID,
		Name:           req.Name,
		Address:        req.Address,
		City:           req.City,
		Postcode:       req.Postcode,
		MOTPrice:       req.MOTPrice,
		SaturdayCutoff: req.SaturdayCutoff,
		Active:         true,
	}
	if req.Phone != "" {
		phone := req.Phone
		garage.Phone = &phone
	}
	if err := s.repo.Create(ctx, garage); err != nil {
		return nil, appErrors.ErrDatabase.WithError(err)
	}
	s.logger.Info("garage created", zap.String("garage_id", garage.ID), zap.String("owner_id", garage.OwnerID))
	return garage, nil
}

// GetGarage returns one garage by id.
func (s *GarageService) GetGarage(ctx context.Context, id string) (*models.Garage, error) {
	garage, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, appErrors.ErrDatabase.WithError(err)
	}
	if garage == nil {
		return nil, appErrors.ErrNotFound.WithError(fmt.Errorf("garage %s not found", id))
	}
	return garage, nil
}

// ListGarages returns garages matching the filter. Public listings only
// surface active garages; owners and admins may see everything.
func (s *GarageService) ListGarages(ctx context.Context, filter models.GarageFilter, actor models.BookingActor) ([]models.Garage, int, error) {
	if actor.Role != models.RoleAdmin {
		if filter.OwnerID == "" || filter.OwnerID != actor.UserID {
			active := true
			filter.Active = &active
		}
	}
	garages, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.ErrDatabase.WithError(err)
	}
	return garages, total, nil
}

// UpdateGarage applies a partial update to a garage the actor manages.
func (s *GarageService) UpdateGarage(ctx context.Context, id string, actor models.BookingActor, req *models.UpdateGarageRequest) (*models.Garage, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.ErrValidation.WithError(err)
	}

	garage, err := s.GetGarage(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleAdmin && garage.OwnerID != actor.UserID {
		return nil, appErrors.ErrForbidden.WithError(fmt.Errorf("user %s does not own garage %s", actor.UserID, id))
	}

	if req.Name != nil {
		garage.Name = *req.Name
	}
	if req.Address != nil {
		garage.Address = *req.Address
	}
	if req.City != nil {
		garage.City = *req.City
	}
	if req.Postcode != nil {
		garage.Postcode = *req.Postcode
	}
	if req.Phone != nil {
		garage.Phone = req.Phone
	}
	if req.MOTPrice != nil {
		garage.MOTPrice = *req.MOTPrice
	}
	if req.SaturdayCutoff != nil {
		garage.SaturdayCutoff = req.SaturdayCutoff
	}
	if req.Active != nil {
		garage.Active = *req.Active
	}

	if err := s.repo.Update(ctx, garage); err != nil {
		return nil, appErrors.ErrDatabase.WithError(err)
	}
	s.logger.Info("garage updated", zap.String("garage_id", id))
	return garage, nil
}
