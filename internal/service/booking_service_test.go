package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/motbook/motbook-api/internal/models"
	"github.com/motbook/motbook-api/internal/repository"
	appErrors "github.com/motbook/motbook-api/pkg/errors"
	"github.com/motbook/motbook-api/pkg/jobs"
)

type fakeBookingStore struct {
	bookings   map[string]*models.Booking
	reserveErr error
}

func (f *fakeBookingStore) Reserve(_ context.Context, booking *models.Booking) error {
	if f.reserveErr != nil {
		return f.reserveErr
	}
	booking.ID = "b1"
	f.bookings[booking.ID] = booking
	return nil
}

func (f *fakeBookingStore) GetByID(_ context.Context, id string) (*models.Booking, error) {
	return f.bookings[id], nil
}

func (f *fakeBookingStore) UpdateStatus(_ context.Context, id string, from, to models.BookingStatus) (*models.Booking, error) {
	booking, ok := f.bookings[id]
	if !ok || booking.Status != from {
		return nil, nil
	}
	booking.Status = to
	return booking, nil
}

func (f *fakeBookingStore) UpdatePaymentStatus(_ context.Context, id string, status models.PaymentStatus) error {
	f.bookings[id].PaymentStatus = status
	return nil
}

func (f *fakeBookingStore) Delete(_ context.Context, id string) error {
	delete(f.bookings, id)
	return nil
}

func (f *fakeBookingStore) List(context.Context, models.BookingFilter) ([]models.Booking, int, error) {
	var out []models.Booking
	for _, b := range f.bookings {
		out = append(out, *b)
	}
	return out, len(out), nil
}

type fakeActions struct {
	upserted  []models.ScheduledAction
	cancelled []string
}

func (f *fakeActions) UpsertPending(_ context.Context, action *models.ScheduledAction) error {
	f.upserted = append(f.upserted, *action)
	return nil
}

func (f *fakeActions) CancelPendingForBooking(_ context.Context, bookingID string) error {
	f.cancelled = append(f.cancelled, bookingID)
	return nil
}

func (f *fakeActions) ListByBooking(context.Context, string) ([]models.ScheduledAction, error) {
	return f.upserted, nil
}

type fakeChecker struct {
	err error
}

func (f *fakeChecker) CheckSlot(context.Context, string, time.Time, string) error {
	return f.err
}

type fakeVehicles struct {
	vehicles map[string]*models.Vehicle
}

func (f *fakeVehicles) GetByID(_ context.Context, id string) (*models.Vehicle, error) {
	return f.vehicles[id], nil
}

type fakeUsers struct {
	users map[string]*models.User
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	return f.users[id], nil
}

type fakeQueue struct {
	jobs []jobs.Job
}

func (f *fakeQueue) Enqueue(job jobs.Job) error {
	f.jobs = append(f.jobs, job)
	return nil
}

type bookingFixture struct {
	svc      *BookingService
	store    *fakeBookingStore
	actions  *fakeActions
	checker  *fakeChecker
	queue    *fakeQueue
	now      time.Time
	customer models.BookingActor
	owner    models.BookingActor
	admin    models.BookingActor
}

func newBookingFixture() *bookingFixture {
	store := &fakeBookingStore{bookings: map[string]*models.Booking{}}
	actions := &fakeActions{}
	checker := &fakeChecker{}
	queue := &fakeQueue{}
	garages := &fakeGarages{garages: map[string]*models.Garage{
		"g1": {ID: "g1", OwnerID: "owner-1", Name: "Test Garage", MOTPrice: 54.85, Active: true},
	}}
	vehicles := &fakeVehicles{vehicles: map[string]*models.Vehicle{
		"v1": {ID: "v1", CustomerID: "cust-1", Registration: "AB12CDE"},
	}}
	users := &fakeUsers{users: map[string]*models.User{
		"cust-1": {ID: "cust-1", Email: "c@example.com", FullName: "Casey Customer", Role: models.RoleCustomer},
	}}

	svc := NewBookingService(store, actions, checker, garages, vehicles, users, queue,
		NewMetricsService(), validator.New(), zap.NewNop())
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	return &bookingFixture{
		svc:      svc,
		store:    store,
		actions:  actions,
		checker:  checker,
		queue:    queue,
		now:      now,
		customer: models.BookingActor{UserID: "cust-1", Role: models.RoleCustomer},
		owner:    models.BookingActor{UserID: "owner-1", Role: models.RoleGarageOwner},
		admin:    models.BookingActor{UserID: "admin-1", Role: models.RoleAdmin},
	}
}

func (fx *bookingFixture) seedBooking(status models.BookingStatus, date time.Time) *models.Booking {
	booking := &models.Booking{
		ID:         "b1",
		GarageID:   "g1",
		CustomerID: "cust-1",
		VehicleID:  "v1",
		Date:       date,
		TimeSlot:   "10:00",
		Status:     status,
	}
	fx.store.bookings["b1"] = booking
	return booking
}

func validReservation() *models.CreateBookingRequest {
	return &models.CreateBookingRequest{
		GarageID:  "b3a7c8de-1111-4222-8333-444455556666",
		VehicleID: "b3a7c8de-7777-4888-8999-000011112222",
		Date:      "2026-10-05",
		TimeSlot:  "10:00",
	}
}

func TestReserveSlotSuccess(t *testing.T) {
	fx := newBookingFixture()
	req := validReservation()
	fx.svc.garages.(*fakeGarages).garages[req.GarageID] = &models.Garage{ID: req.GarageID, OwnerID: "owner-1", MOTPrice: 54.85, Active: true}
	fx.svc.vehicles.(*fakeVehicles).vehicles[req.VehicleID] = &models.Vehicle{ID: req.VehicleID, CustomerID: "cust-1"}

	booking, err := fx.svc.ReserveSlot(context.Background(), fx.customer, req)
	require.NoError(t, err)
	assert.Equal(t, models.BookingPending, booking.Status)
	assert.Equal(t, models.PaymentUnpaid, booking.PaymentStatus)
	assert.Equal(t, 54.85, booking.TotalPrice)
	// Reservation alone never schedules reminders.
	assert.Empty(t, fx.actions.upserted)
}

func TestReserveSlotConflictMapsToSlotTaken(t *testing.T) {
	fx := newBookingFixture()
	req := validReservation()
	fx.svc.garages.(*fakeGarages).garages[req.GarageID] = &models.Garage{ID: req.GarageID, Active: true}
	fx.svc.vehicles.(*fakeVehicles).vehicles[req.VehicleID] = &models.Vehicle{ID: req.VehicleID, CustomerID: "cust-1"}
	fx.store.reserveErr = repository.ErrSlotConflict

	_, err := fx.svc.ReserveSlot(context.Background(), fx.customer, req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrSlotTaken.Code, appErrors.FromError(err).Code)
}

func TestReserveSlotForeignVehicleForbidden(t *testing.T) {
	fx := newBookingFixture()
	req := validReservation()
	fx.svc.garages.(*fakeGarages).garages[req.GarageID] = &models.Garage{ID: req.GarageID, Active: true}
	fx.svc.vehicles.(*fakeVehicles).vehicles[req.VehicleID] = &models.Vehicle{ID: req.VehicleID, CustomerID: "someone-else"}

	_, err := fx.svc.ReserveSlot(context.Background(), fx.customer, req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestReserveSlotPastDateRejected(t *testing.T) {
	fx := newBookingFixture()
	req := validReservation()
	req.Date = "2026-08-31"

	_, err := fx.svc.ReserveSlot(context.Background(), fx.customer, req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestConfirmSchedulesAllFutureReminders(t *testing.T) {
	fx := newBookingFixture()
	// 40 days out: every reminder trigger is still ahead.
	date := fx.now.AddDate(0, 0, 40)
	fx.seedBooking(models.BookingPending, date)

	booking, err := fx.svc.TransitionStatus(context.Background(), "b1", fx.owner, models.BookingConfirmed)
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, booking.Status)

	require.Len(t, fx.actions.upserted, 3)
	kinds := map[models.ActionKind]time.Time{}
	for _, action := range fx.actions.upserted {
		assert.Equal(t, models.ActionPending, action.Status)
		kinds[action.Kind] = action.ScheduledFor
	}
	assert.Equal(t, date.AddDate(0, -1, 0), kinds[models.Reminder1Month])
	assert.Equal(t, date.AddDate(0, 0, -7), kinds[models.Reminder1Week])
	assert.Equal(t, date.AddDate(0, 0, -1), kinds[models.Reminder1Day])
}

func TestConfirmSkipsElapsedReminders(t *testing.T) {
	fx := newBookingFixture()
	// 5 days out: only the 1-day reminder is still in the future.
	fx.seedBooking(models.BookingPending, fx.now.AddDate(0, 0, 5))

	_, err := fx.svc.TransitionStatus(context.Background(), "b1", fx.owner, models.BookingConfirmed)
	require.NoError(t, err)

	require.Len(t, fx.actions.upserted, 1)
	assert.Equal(t, models.Reminder1Day, fx.actions.upserted[0].Kind)
}

func TestCancelAfterConfirmCancelsReminders(t *testing.T) {
	fx := newBookingFixture()
	fx.seedBooking(models.BookingPending, fx.now.AddDate(0, 0, 40))

	_, err := fx.svc.TransitionStatus(context.Background(), "b1", fx.owner, models.BookingConfirmed)
	require.NoError(t, err)
	require.Len(t, fx.actions.upserted, 3)

	_, err = fx.svc.TransitionStatus(context.Background(), "b1", fx.customer, models.BookingCancelled)
	require.NoError(t, err)
	assert.Equal(t, []string{"b1"}, fx.actions.cancelled)
}

func TestIllegalTransitionRejected(t *testing.T) {
	fx := newBookingFixture()
	fx.seedBooking(models.BookingPending, fx.now.AddDate(0, 0, 10))

	_, err := fx.svc.TransitionStatus(context.Background(), "b1", fx.owner, models.BookingCompleted)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
}

func TestTerminalStateIsFinal(t *testing.T) {
	fx := newBookingFixture()
	fx.seedBooking(models.BookingCancelled, fx.now.AddDate(0, 0, 10))

	for _, to := range []models.BookingStatus{models.BookingPending, models.BookingConfirmed, models.BookingCompleted} {
		_, err := fx.svc.TransitionStatus(context.Background(), "b1", fx.admin, to)
		require.Error(t, err, "CANCELLED -> %s should fail", to)
	}
}

func TestCustomerMayOnlyCancel(t *testing.T) {
	fx := newBookingFixture()
	fx.seedBooking(models.BookingPending, fx.now.AddDate(0, 0, 10))

	_, err := fx.svc.TransitionStatus(context.Background(), "b1", fx.customer, models.BookingConfirmed)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = fx.svc.TransitionStatus(context.Background(), "b1", fx.customer, models.BookingCancelled)
	require.NoError(t, err)
}

func TestCompleteEnqueuesReviewRequest(t *testing.T) {
	fx := newBookingFixture()
	fx.seedBooking(models.BookingConfirmed, fx.now.AddDate(0, 0, 1))

	_, err := fx.svc.TransitionStatus(context.Background(), "b1", fx.owner, models.BookingCompleted)
	require.NoError(t, err)

	require.Len(t, fx.queue.jobs, 1)
	n, ok := fx.queue.jobs[0].Payload.(Notification)
	require.True(t, ok)
	assert.Equal(t, models.NotifyReviewRequest, n.Kind)
	assert.Equal(t, "c@example.com", n.Recipient)
	// Completion also retires any remaining reminders.
	assert.Equal(t, []string{"b1"}, fx.actions.cancelled)
}

func TestDeleteBookingAdminOnly(t *testing.T) {
	fx := newBookingFixture()
	fx.seedBooking(models.BookingPending, fx.now.AddDate(0, 0, 10))

	err := fx.svc.DeleteBooking(context.Background(), "b1", fx.customer)
	require.Error(t, err)

	require.NoError(t, fx.svc.DeleteBooking(context.Background(), "b1", fx.admin))
	assert.Equal(t, []string{"b1"}, fx.actions.cancelled)
	assert.Empty(t, fx.store.bookings)
}
