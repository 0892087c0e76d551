package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/motbook/motbook-api/internal/models"
	"github.com/motbook/motbook-api/internal/repository"
	appErrors "github.com/motbook/motbook-api/pkg/errors"
	"github.com/motbook/motbook-api/pkg/jobs"
)

// BookingStore is the booking persistence surface.
type BookingStore interface {
	Reserve(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	UpdateStatus(ctx context.Context, id string, from, to models.BookingStatus) (*models.Booking, error)
	UpdatePaymentStatus(ctx context.Context, id string, status models.PaymentStatus) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, int, error)
}

// ActionScheduler manages the durable reminder rows tied to a booking.
type ActionScheduler interface {
	UpsertPending(ctx context.Context, action *models.ScheduledAction) error
	CancelPendingForBooking(ctx context.Context, bookingID string) error
	ListByBooking(ctx context.Context, bookingID string) ([]models.ScheduledAction, error)
}

// SlotChecker is the advisory availability pre-check run before a reserve.
type SlotChecker interface {
	CheckSlot(ctx context.Context, garageID string, date time.Time, timeSlot string) error
}

// VehicleReader resolves vehicles for reservation checks.
type VehicleReader interface {
	GetByID(ctx context.Context, id string) (*models.Vehicle, error)
}

// UserReader resolves users for notification addressing.
type UserReader interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// NotificationEnqueuer hands notification sends to the background queue.
type NotificationEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// JobTypeNotification labels queued notification jobs; the payload is a
// Notification.
const JobTypeNotification = "notification"

// BookingService owns reservations and the booking lifecycle. Reservation
// is a single guarded insert: the partial unique index on live bookings is
// the final authority, so two racing customers can never both win a slot.
type BookingService struct {
	bookings     BookingStore
	actions      ActionScheduler
	availability SlotChecker
	garages      GarageReader
	vehicles     VehicleReader
	users        UserReader
	queue        NotificationEnqueuer
	metrics      *MetricsService
	validate     *validator.Validate
	logger       *zap.Logger

	now func() time.Time
}

func NewBookingService(
	bookings BookingStore,
	actions ActionScheduler,
	availability SlotChecker,
	garages GarageReader,
	vehicles VehicleReader,
	users UserReader,
	queue NotificationEnqueuer,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		bookings:     bookings,
		actions:      actions,
		availability: availability,
		garages:      garages,
		vehicles:     vehicles,
		users:        users,
		queue:        queue,
		metrics:      metrics,
		validate:     validate,
		logger:       logger,
		now:          time.Now,
	}
}

// ReserveSlot books one slot for a customer's vehicle. The availability
// check beforehand is advisory; a lost race surfaces as ErrSlotTaken from
// the insert itself.
func (s *BookingService) ReserveSlot(ctx context.Context, actor models.BookingActor, req *models.CreateBookingRequest) (*models.Booking, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.ErrValidation.WithError(err)
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return nil, appErrors.ErrValidation.WithError(err)
	}
	if date.Format(dateLayout) < s.now().Format(dateLayout) {
		return nil, appErrors.ErrValidation.WithError(fmt.Errorf("date %s is in the past", req.Date))
	}

	garage, err := s.garages.GetByID(ctx, req.GarageID)
	if err != nil {
		return nil, appErrors.ErrDatabase.WithError(err)
	}
	if garage == nil || !garage.Active {
		return nil, appErrors.ErrNotFound.WithError(fmt.Errorf("garage %s not found", req.GarageID))
	}

	vehicle, err := s.vehicles.GetByID(ctx, req.VehicleID)
	if err != nil {
		return nil, appErrors.ErrDatabase.WithError(err)
	}
	if vehicle == nil {
		return nil, appErrors.ErrNotFound.WithError(fmt.Errorf("vehicle %s not found", req.VehicleID))
	}
	if vehicle.CustomerID != actor.UserID {
		return nil, appErrors.ErrForbidden.WithError(fmt.Errorf("vehicle %s does not belong to user %s", req.VehicleID, actor.UserID))
	}

	if err := s.availability.CheckSlot(ctx, req.GarageID, date, req.TimeSlot); err != nil {
		return nil, err
	}

	booking := &models.Booking{
		GarageID:      req.GarageID,
		CustomerID:    actor.UserID,
		VehicleID:     req.VehicleID,
		Date:          date,
		TimeSlot:      req.TimeSlot,
		Status:        models.BookingPending,
		TotalPrice:    garage.MOTPrice,
		PaymentStatus: models.PaymentUnpaid,
	}
	if req.Notes != "" {
		notes := req.Notes
		booking.Notes = &notes
	}

	if err := s.bookings.Reserve(ctx, booking); err != nil {
		if errors.Is(err, repository.ErrSlotConflict) {
			s.metrics.RecordConflict()
			return nil, appErrors.ErrSlotTaken.WithError(err)
		}
		return nil, appErrors.ErrDatabase.WithError(err)
	}
	s.metrics.RecordReservation()

	s.logger.Info("slot reserved",
		zap.String("booking_id", booking.ID),
		zap.String("garage_id", booking.GarageID),
		zap.String("date", req.Date),
		zap.String("time_slot", req.TimeSlot))
	return booking, nil
}

// GetBooking fetches one booking, enforcing visibility: customers see
// their own, owners see their garages', admins see everything.
func (s *BookingService) GetBooking(ctx context.Context, id string, actor models.BookingActor) (*models.Booking, error) {
	booking, err := s.loadBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeView(ctx, booking, actor); err != nil {
		return nil, err
	}
	return booking, nil
}

// ListBookings returns bookings visible to the actor, scoped by role.
func (s *BookingService) ListBookings(ctx context.Context, filter models.BookingFilter, actor models.BookingActor) ([]models.Booking, int, error) {
	switch actor.Role {
	case models.RoleAdmin:
	case models.RoleCustomer:
		filter.CustomerID = actor.UserID
	case models.RoleGarageOwner:
		if filter.GarageID == "" {
			return nil, 0, appErrors.ErrValidation.WithError(errors.New("garage_id is required for owner listings"))
		}
		garage, err := s.garages.GetByID(ctx, filter.GarageID)
		if err != nil {
			return nil, 0, appErrors.ErrDatabase.WithError(err)
		}
		if garage == nil || garage.OwnerID != actor.UserID {
			return nil, 0, appErrors.ErrForbidden.WithError(fmt.Errorf("user %s does not own garage %s", actor.UserID, filter.GarageID))
		}
	default:
		return nil, 0, appErrors.ErrForbidden
	}

	bookings, total, err := s.bookings.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.ErrDatabase.WithError(err)
	}
	return bookings, total, nil
}

// TransitionStatus moves a booking through the lifecycle state machine.
// Customers may only cancel their own bookings; owners and admins drive
// the rest. Reminder rows follow the CONFIRMED lifespan: entering
// CONFIRMED schedules them, leaving it cancels whatever is still pending.
func (s *BookingService) TransitionStatus(ctx context.Context, id string, actor models.BookingActor, to models.BookingStatus) (*models.Booking, error) {
	if !to.Valid() {
		return nil, appErrors.ErrValidation.WithError(fmt.Errorf("unknown status %q", to))
	}

	booking, err := s.loadBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeTransition(ctx, booking, actor, to); err != nil {
		return nil, err
	}
	if !booking.Status.CanTransitionTo(to) {
		return nil, appErrors.ErrInvalidTransition.WithError(fmt.Errorf("%s -> %s", booking.Status, to))
	}

	from := booking.Status
	updated, err := s.bookings.UpdateStatus(ctx, id, from, to)
	if err != nil {
		return nil, appErrors.ErrDatabase.WithError(err)
	}
	if updated == nil {
		// Lost a race with another transition; the stored status moved on.
		return nil, appErrors.ErrConflict.WithError(fmt.Errorf("booking %s changed concurrently", id))
	}
	s.metrics.RecordTransition(string(to))

	s.applyTransitionEffects(ctx, updated, to)

	s.logger.Info("booking status changed",
		zap.String("booking_id", id),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.String("actor_role", string(actor.Role)))
	return updated, nil
}

// applyTransitionEffects runs the side effects of a committed transition.
// Failures here are logged, never propagated: the status change already
// happened and the durable reminder rows are self-correcting on the next
// relevant transition.
func (s *BookingService) applyTransitionEffects(ctx context.Context, booking *models.Booking, to models.BookingStatus) {
	switch to {
	case models.BookingConfirmed:
		s.scheduleReminders(ctx, booking)
		s.enqueueNotification(ctx, booking, models.NotifyBookingConfirmed)
	case models.BookingCancelled:
		if err := s.actions.CancelPendingForBooking(ctx, booking.ID); err != nil {
			s.logger.Error("cancel pending reminders failed", zap.String("booking_id", booking.ID), zap.Error(err))
		}
		s.enqueueNotification(ctx, booking, models.NotifyBookingCancelled)
	case models.BookingCompleted, models.BookingNoShow:
		if err := s.actions.CancelPendingForBooking(ctx, booking.ID); err != nil {
			s.logger.Error("cancel pending reminders failed", zap.String("booking_id", booking.ID), zap.Error(err))
		}
		if to == models.BookingCompleted {
			s.enqueueNotification(ctx, booking, models.NotifyReviewRequest)
		}
	}
}

// scheduleReminders upserts one pending action per reminder kind whose
// trigger time is still in the future. Upsert keeps re-confirmation
// idempotent: an existing row per (booking, kind) is reset, never doubled.
func (s *BookingService) scheduleReminders(ctx context.Context, booking *models.Booking) {
	now := s.now()
	for _, kind := range models.ReminderKinds() {
		due := kind.Offset(booking.Date)
		if !due.After(now) {
			continue
		}
		action := &models.ScheduledAction{
			BookingID:    booking.ID,
			Kind:         kind,
			ScheduledFor: due,
			Status:       models.ActionPending,
		}
		if err := s.actions.UpsertPending(ctx, action); err != nil {
			s.logger.Error("schedule reminder failed",
				zap.String("booking_id", booking.ID),
				zap.String("kind", string(kind)),
				zap.Error(err))
		}
	}
}

func (s *BookingService) enqueueNotification(ctx context.Context, booking *models.Booking, kind models.NotificationKind) {
	if s.queue == nil {
		return
	}
	n, err := s.buildNotification(ctx, booking, kind)
	if err != nil {
		s.logger.Error("build notification failed",
			zap.String("booking_id", booking.ID),
			zap.String("kind", string(kind)),
			zap.Error(err))
		return
	}
	if err := s.queue.Enqueue(jobs.Job{Type: JobTypeNotification, Payload: n}); err != nil {
		s.logger.Warn("enqueue notification failed",
			zap.String("booking_id", booking.ID),
			zap.String("kind", string(kind)),
			zap.Error(err))
	}
}

func (s *BookingService) buildNotification(ctx context.Context, booking *models.Booking, kind models.NotificationKind) (Notification, error) {
	customer, err := s.users.GetByID(ctx, booking.CustomerID)
	if err != nil {
		return Notification{}, err
	}
	if customer == nil {
		return Notification{}, fmt.Errorf("customer %s not found", booking.CustomerID)
	}
	garage, err := s.garages.GetByID(ctx, booking.GarageID)
	if err != nil {
		return Notification{}, err
	}
	if garage == nil {
		return Notification{}, fmt.Errorf("garage %s not found", booking.GarageID)
	}
	vehicle, err := s.vehicles.GetByID(ctx, booking.VehicleID)
	if err != nil {
		return Notification{}, err
	}
	if vehicle == nil {
		return Notification{}, fmt.Errorf("vehicle %s not found", booking.VehicleID)
	}

	return Notification{
		Kind:         kind,
		Recipient:    customer.Email,
		CustomerName: customer.FullName,
		GarageName:   garage.Name,
		VehicleReg:   vehicle.Registration,
		BookingID:    booking.ID,
		Date:         booking.Date,
		TimeSlot:     booking.TimeSlot,
	}, nil
}

// UpdatePayment records a payment status change on the booking.
func (s *BookingService) UpdatePayment(ctx context.Context, id string, actor models.BookingActor, req *models.UpdatePaymentStatusRequest) error {
	switch req.PaymentStatus {
	case models.PaymentUnpaid, models.PaymentPaid, models.PaymentRefunded:
	default:
		return appErrors.ErrValidation.WithError(fmt.Errorf("unknown payment status %q", req.PaymentStatus))
	}

	booking, err := s.loadBooking(ctx, id)
	if err != nil {
		return err
	}
	if actor.Role == models.RoleCustomer {
		return appErrors.ErrForbidden
	}
	if actor.Role == models.RoleGarageOwner {
		if err := s.requireGarageOwner(ctx, booking.GarageID, actor.UserID); err != nil {
			return err
		}
	}

	if err := s.bookings.UpdatePaymentStatus(ctx, id, req.PaymentStatus); err != nil {
		return appErrors.ErrDatabase.WithError(err)
	}
	return nil
}

// DeleteBooking removes a booking outright. Admin only; pending reminders
// are cancelled first so the dispatcher never chases a deleted booking.
func (s *BookingService) DeleteBooking(ctx context.Context, id string, actor models.BookingActor) error {
	if actor.Role != models.RoleAdmin {
		return appErrors.ErrForbidden
	}
	if _, err := s.loadBooking(ctx, id); err != nil {
		return err
	}
	if err := s.actions.CancelPendingForBooking(ctx, id); err != nil {
		return appErrors.ErrDatabase.WithError(err)
	}
	if err := s.bookings.Delete(ctx, id); err != nil {
		return appErrors.ErrDatabase.WithError(err)
	}
	s.logger.Info("booking deleted", zap.String("booking_id", id))
	return nil
}

// ListReminders returns the scheduled actions for one booking.
func (s *BookingService) ListReminders(ctx context.Context, bookingID string, actor models.BookingActor) ([]models.ScheduledAction, error) {
	booking, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeView(ctx, booking, actor); err != nil {
		return nil, err
	}
	actions, err := s.actions.ListByBooking(ctx, bookingID)
	if err != nil {
		return nil, appErrors.ErrDatabase.WithError(err)
	}
	return actions, nil
}

func (s *BookingService) loadBooking(ctx context.Context, id string) (*models.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, appErrors.ErrDatabase.WithError(err)
	}
	if booking == nil {
		return nil, appErrors.ErrNotFound.WithError(fmt.Errorf("booking %s not found", id))
	}
	return booking, nil
}

func (s *BookingService) authorizeView(ctx context.Context, booking *models.Booking, actor models.BookingActor) error {
	switch actor.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleCustomer:
		if booking.CustomerID == actor.UserID {
			return nil
		}
	case models.RoleGarageOwner:
		return s.requireGarageOwner(ctx, booking.GarageID, actor.UserID)
	}
	return appErrors.ErrForbidden
}

func (s *BookingService) authorizeTransition(ctx context.Context, booking *models.Booking, actor models.BookingActor, to models.BookingStatus) error {
	switch actor.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleCustomer:
		if booking.CustomerID != actor.UserID {
			return appErrors.ErrForbidden
		}
		if to != models.BookingCancelled {
			return appErrors.ErrForbidden.WithError(errors.New("customers may only cancel bookings"))
		}
		return nil
	case models.RoleGarageOwner:
		return s.requireGarageOwner(ctx, booking.GarageID, actor.UserID)
	}
	return appErrors.ErrForbidden
}

func (s *BookingService) requireGarageOwner(ctx context.Context, garageID, userID string) error {
	garage, err := s.garages.GetByID(ctx, garageID)
	if err != nil {
		return appErrors.ErrDatabase.WithError(err)
	}
	if garage == nil || garage.OwnerID != userID {
		return appErrors.ErrForbidden.WithError(fmt.Errorf("user %s does not own garage %s", userID, garageID))
	}
	return nil
}
