package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/motbook/motbook-api/internal/models"
	appErrors "github.com/motbook/motbook-api/pkg/errors"
)

// ScheduleWriter is the persistence surface for owner-facing schedule
// management.
type ScheduleWriter interface {
	UpsertWeekly(ctx context.Context, schedule *models.WeeklySchedule) error
	ListWeekly(ctx context.Context, garageID string) ([]models.WeeklySchedule, error)
	UpsertException(ctx context.Context, exc *models.ScheduleException) error
	ListExceptions(ctx context.Context, garageID string, from, to time.Time) ([]models.ScheduleException, error)
	DeleteException(ctx context.Context, garageID string, date time.Time) error
	AddBlock(ctx context.Context, block *models.TimeSlotBlock) error
	RemoveBlock(ctx context.Context, garageID string, date time.Time, timeSlot string) error
	ListBlocks(ctx context.Context, garageID string, date time.Time) ([]string, error)
	UpsertHolidayOverride(ctx context.Context, override *models.HolidayOverride) error
}

// ScheduleService handles garage-owner edits to weekly schedules,
// exceptions, slot blocks and holiday overrides. Every write invalidates
// the garage's cached schedule data so availability reads stay fresh.
type ScheduleService struct {
	repo     ScheduleWriter
	garages  GarageReader
	cache    *CacheService
	validate *validator.Validate
	logger   *zap.Logger
}

func NewScheduleService(repo ScheduleWriter, garages GarageReader, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	return &ScheduleService{
		repo:     repo,
		garages:  garages,
		cache:    cache,
		validate: validate,
		logger:   logger,
	}
}

// authorize loads the garage and checks the actor may manage it. Admins
// manage any garage, owners only their own.
func (s *ScheduleService) authorize(ctx context.Context, garageID string, actor models.BookingActor) (*models.Garage, error) {
	garage, err := s.garages.GetByID(ctx, garageID)
	if err != nil {
		return nil, appErrors.ErrDatabase.WithError(err)
	}
	if garage == nil {
		return nil, appErrors.ErrNotFound.WithError(fmt.Errorf("garage %s not found", garageID))
	}
	if actor.Role != models.RoleAdmin && garage.OwnerID != actor.UserID {
		return nil, appErrors.ErrForbidden.WithError(fmt.Errorf("user %s does not own garage %s", actor.UserID, garageID))
	}
	return garage, nil
}

func (s *ScheduleService) invalidate(ctx context.Context, garageID string) {
	s.cache.Invalidate(ctx, fmt.Sprintf("sched:%s:*", garageID))
}

// SetWeeklySchedule upserts one weekday's recurring hours.
func (s *ScheduleService) SetWeeklySchedule(ctx context.Context, garageID string, actor models.BookingActor, req *models.SetWeeklyScheduleRequest) (*models.WeeklySchedule, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.ErrValidation.WithError(err)
	}
	if _, err := s.authorize(ctx, garageID, actor); err != nil {
		return nil, err
	}

	schedule := &models.WeeklySchedule{
		GarageID:     garageID,
		DayOfWeek:    req.DayOfWeek,
		IsOpen:       req.IsOpen,
		OpenTime:     req.OpenTime,
		CloseTime:    req.CloseTime,
		SlotDuration: req.SlotDuration,
	}
	if schedule.SlotDuration == 0 {
		schedule.SlotDuration = 60
	}
	if req.IsOpen {
		open, err := parseClock(req.OpenTime)
		if err != nil {
			return nil, appErrors.ErrValidation.WithError(err)
		}
		closed, err := parseClock(req.CloseTime)
		if err != nil {
			return nil, appErrors.ErrValidation.WithError(err)
		}
		if closed <= open {
			return nil, appErrors.ErrValidation.WithError(fmt.Errorf("close time %s not after open time %s", req.CloseTime, req.OpenTime))
		}
	}

	if err := s.repo.UpsertWeekly(ctx, schedule); err != nil {
		return nil, appErrors.ErrDatabase.WithError(err)
	}
	s.invalidate(ctx, garageID)
	s.logger.Info("weekly schedule updated",
		zap.String("garage_id", garageID),
		zap.Int("day_of_week", req.DayOfWeek),
		zap.Bool("is_open", req.IsOpen))
	return schedule, nil
}

// GetWeeklySchedule lists the garage's recurring hours for every weekday
// that has one configured.
func (s *ScheduleService) GetWeeklySchedule(ctx context.Context, garageID string) ([]models.WeeklySchedule, error) {
	garage, err := s.garages.GetByID(ctx, garageID)
	if err != nil {
		return nil, appErrors.ErrDatabase.WithError(err)
	}
	if garage == nil {
		return nil, appErrors.ErrNotFound.WithError(fmt.Errorf("garage %s not found", garageID))
	}
	schedules, err := s.repo.ListWeekly(ctx, garageID)
	if err != nil {
		return nil, appErrors.ErrDatabase.WithError(err)
	}
	return schedules, nil
}

// SetException closes (or re-opens) one calendar date.
func (s *ScheduleService) SetException(ctx context.Context, garageID string, actor models.BookingActor, req *models.SetExceptionRequest) (*models.ScheduleException, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.ErrValidation.WithError(err)
	}
	if _, err := s.authorize(ctx, garageID, actor); err != nil {
		return nil, err
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return nil, appErrors.ErrValidation.WithError(err)
	}

	exc := &models.ScheduleException{
		GarageID: garageID,
		Date:     date,
		IsClosed: req.IsClosed,
		Reason:   req.Reason,
	}
	if err := s.repo.UpsertException(ctx, exc); err != nil {
		return nil, appErrors.ErrDatabase.WithError(err)
	}
	s.invalidate(ctx, garageID)
	s.logger.Info("schedule exception set",
		zap.String("garage_id", garageID),
		zap.String("date", req.Date),
		zap.Bool("is_closed", req.IsClosed))
	return exc, nil
}

// ListExceptions returns the garage's date overrides inside the window.
func (s *ScheduleService) ListExceptions(ctx context.Context, garageID string, from, to time.Time) ([]models.ScheduleException, error) {
	exceptions, err := s.repo.ListExceptions(ctx, garageID, from, to)
	if err != nil {
		return nil, appErrors.ErrDatabase.WithError(err)
	}
	return exceptions, nil
}

// DeleteException removes a date override, restoring the weekly schedule.
func (s *ScheduleService) DeleteException(ctx context.Context, garageID string, actor models.BookingActor, date time.Time) error {
	if _, err := s.authorize(ctx, garageID, actor); err != nil {
		return err
	}
	if err := s.repo.DeleteException(ctx, garageID, date); err != nil {
		return appErrors.ErrDatabase.WithError(err)
	}
	s.invalidate(ctx, garageID)
	return nil
}

// BlockSlot disables a single slot on a date. Blocking an already blocked
// slot is a no-op.
func (s *ScheduleService) BlockSlot(ctx context.Context, garageID string, actor models.BookingActor, req *models.BlockSlotRequest) (*models.TimeSlotBlock, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.ErrValidation.WithError(err)
	}
	if _, err := s.authorize(ctx, garageID, actor); err != nil {
		return nil, err
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return nil, appErrors.ErrValidation.WithError(err)
	}

	block := &models.TimeSlotBlock{
		GarageID: garageID,
		Date:     date,
		TimeSlot: req.TimeSlot,
	}
	if err := s.repo.AddBlock(ctx, block); err != nil {
		return nil, appErrors.ErrDatabase.WithError(err)
	}
	s.invalidate(ctx, garageID)
	s.logger.Info("time slot blocked",
		zap.String("garage_id", garageID),
		zap.String("date", req.Date),
		zap.String("time_slot", req.TimeSlot))
	return block, nil
}

// UnblockSlot removes a block. Existing bookings on the slot are untouched.
func (s *ScheduleService) UnblockSlot(ctx context.Context, garageID string, actor models.BookingActor, date time.Time, timeSlot string) error {
	if _, err := s.authorize(ctx, garageID, actor); err != nil {
		return err
	}
	if err := s.repo.RemoveBlock(ctx, garageID, date, timeSlot); err != nil {
		return appErrors.ErrDatabase.WithError(err)
	}
	s.invalidate(ctx, garageID)
	return nil
}

// SetHolidayOverride records whether the garage works a public holiday.
func (s *ScheduleService) SetHolidayOverride(ctx context.Context, garageID string, actor models.BookingActor, req *models.SetHolidayOverrideRequest) (*models.HolidayOverride, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.ErrValidation.WithError(err)
	}
	if _, err := s.authorize(ctx, garageID, actor); err != nil {
		return nil, err
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return nil, appErrors.ErrValidation.WithError(err)
	}

	override := &models.HolidayOverride{
		GarageID:    garageID,
		Date:        date,
		IsAvailable: req.IsAvailable,
	}
	if err := s.repo.UpsertHolidayOverride(ctx, override); err != nil {
		return nil, appErrors.ErrDatabase.WithError(err)
	}
	s.invalidate(ctx, garageID)
	s.logger.Info("holiday override set",
		zap.String("garage_id", garageID),
		zap.String("date", req.Date),
		zap.Bool("is_available", req.IsAvailable))
	return override, nil
}
