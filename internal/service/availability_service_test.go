package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/motbook/motbook-api/internal/models"
	appErrors "github.com/motbook/motbook-api/pkg/errors"
)

type fakeGarages struct {
	garages map[string]*models.Garage
}

func (f *fakeGarages) GetByID(_ context.Context, id string) (*models.Garage, error) {
	return f.garages[id], nil
}

type fakeSchedule struct {
	weekly    []models.WeeklySchedule
	exc       map[string]*models.ScheduleException
	blocks    map[string][]string
	overrides map[string]*models.HolidayOverride
}

func (f *fakeSchedule) ListWeekly(context.Context, string) ([]models.WeeklySchedule, error) {
	return f.weekly, nil
}

func (f *fakeSchedule) GetException(_ context.Context, _ string, date time.Time) (*models.ScheduleException, error) {
	return f.exc[date.Format(dateLayout)], nil
}

func (f *fakeSchedule) ListExceptions(_ context.Context, _ string, from, to time.Time) ([]models.ScheduleException, error) {
	var out []models.ScheduleException
	for _, exc := range f.exc {
		if !exc.Date.Before(from) && !exc.Date.After(to) {
			out = append(out, *exc)
		}
	}
	return out, nil
}

func (f *fakeSchedule) ListBlocks(_ context.Context, _ string, date time.Time) ([]string, error) {
	return f.blocks[date.Format(dateLayout)], nil
}

func (f *fakeSchedule) ListBlocksRange(context.Context, string, time.Time, time.Time) (map[string][]string, error) {
	return f.blocks, nil
}

func (f *fakeSchedule) GetHolidayOverride(_ context.Context, _ string, date time.Time) (*models.HolidayOverride, error) {
	return f.overrides[date.Format(dateLayout)], nil
}

func (f *fakeSchedule) ListHolidayOverridesRange(context.Context, string, time.Time, time.Time) (map[string]models.HolidayOverride, error) {
	out := make(map[string]models.HolidayOverride)
	for k, v := range f.overrides {
		out[k] = *v
	}
	return out, nil
}

type fakeOccupancy struct {
	occupied map[string][]string
}

func (f *fakeOccupancy) OccupiedSlots(_ context.Context, _ string, date time.Time) ([]string, error) {
	return f.occupied[date.Format(dateLayout)], nil
}

func (f *fakeOccupancy) OccupiedSlotsRange(context.Context, string, time.Time, time.Time) (map[string][]string, error) {
	return f.occupied, nil
}

type fakeHolidays struct {
	dates map[string]bool
}

func (f *fakeHolidays) IsHoliday(_ context.Context, date time.Time) (bool, error) {
	return f.dates[date.Format(dateLayout)], nil
}

type availabilityFixture struct {
	svc      *AvailabilityService
	schedule *fakeSchedule
	bookings *fakeOccupancy
	holidays *fakeHolidays
	garages  *fakeGarages
}

// Monday 2026-10-05 through Saturday 2026-10-10.
var (
	testMonday   = time.Date(2026, 10, 5, 0, 0, 0, 0, time.UTC)
	testSaturday = time.Date(2026, 10, 10, 0, 0, 0, 0, time.UTC)
)

func newAvailabilityFixture() *availabilityFixture {
	schedule := &fakeSchedule{
		exc:       map[string]*models.ScheduleException{},
		blocks:    map[string][]string{},
		overrides: map[string]*models.HolidayOverride{},
	}
	for dow := 0; dow <= 6; dow++ {
		schedule.weekly = append(schedule.weekly, models.WeeklySchedule{
			GarageID:     "g1",
			DayOfWeek:    dow,
			IsOpen:       dow != 0,
			OpenTime:     "09:00",
			CloseTime:    "17:00",
			SlotDuration: 60,
		})
	}
	bookings := &fakeOccupancy{occupied: map[string][]string{}}
	holidays := &fakeHolidays{dates: map[string]bool{}}
	garages := &fakeGarages{garages: map[string]*models.Garage{
		"g1": {ID: "g1", OwnerID: "owner-1", Name: "Test Garage", Active: true},
	}}
	cacheSvc := NewCacheService(nil, nil, 0, zap.NewNop(), false)

	svc := NewAvailabilityService(garages, schedule, bookings, holidays, cacheSvc, "13:00", zap.NewNop())
	svc.now = func() time.Time { return time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC) }
	return &availabilityFixture{svc: svc, schedule: schedule, bookings: bookings, holidays: holidays, garages: garages}
}

func TestDayAvailabilityFullOpenDay(t *testing.T) {
	fx := newAvailabilityFixture()

	day, err := fx.svc.GetDayAvailability(context.Background(), "g1", testMonday)
	require.NoError(t, err)
	assert.Equal(t, "2026-10-05", day.Date)
	assert.Equal(t, []string{"09:00", "10:00", "11:00", "12:00", "13:00", "14:00", "15:00", "16:00"}, day.Slots)
}

func TestDayAvailabilityExcludesLiveBooking(t *testing.T) {
	fx := newAvailabilityFixture()
	fx.bookings.occupied["2026-10-05"] = []string{"11:00"}

	day, err := fx.svc.GetDayAvailability(context.Background(), "g1", testMonday)
	require.NoError(t, err)
	assert.Len(t, day.Slots, 7)
	assert.NotContains(t, day.Slots, "11:00")
}

func TestDayAvailabilityClosedByException(t *testing.T) {
	fx := newAvailabilityFixture()
	fx.schedule.exc["2026-10-05"] = &models.ScheduleException{
		GarageID: "g1", Date: testMonday, IsClosed: true, Reason: "staff training",
	}

	day, err := fx.svc.GetDayAvailability(context.Background(), "g1", testMonday)
	require.NoError(t, err)
	assert.Empty(t, day.Slots)
}

func TestDayAvailabilitySameDayStartsNextFullHour(t *testing.T) {
	fx := newAvailabilityFixture()
	fx.svc.now = func() time.Time { return time.Date(2026, 10, 5, 10, 7, 0, 0, time.UTC) }

	day, err := fx.svc.GetDayAvailability(context.Background(), "g1", testMonday)
	require.NoError(t, err)
	require.NotEmpty(t, day.Slots)
	assert.Equal(t, "11:00", day.Slots[0])
	assert.NotContains(t, day.Slots, "09:00")
	assert.NotContains(t, day.Slots, "10:00")
}

func TestDayAvailabilityPastDateEmpty(t *testing.T) {
	fx := newAvailabilityFixture()
	fx.svc.now = func() time.Time { return time.Date(2026, 10, 6, 8, 0, 0, 0, time.UTC) }

	day, err := fx.svc.GetDayAvailability(context.Background(), "g1", testMonday)
	require.NoError(t, err)
	assert.Empty(t, day.Slots)
}

func TestDayAvailabilitySaturdayDefaultCutoff(t *testing.T) {
	fx := newAvailabilityFixture()

	day, err := fx.svc.GetDayAvailability(context.Background(), "g1", testSaturday)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "10:00", "11:00", "12:00"}, day.Slots)
}

func TestDayAvailabilitySaturdayGarageCutoffWins(t *testing.T) {
	fx := newAvailabilityFixture()
	cutoff := "11:00"
	fx.svc.garages = &fakeGarages{garages: map[string]*models.Garage{
		"g1": {ID: "g1", Active: true, SaturdayCutoff: &cutoff},
	}}

	day, err := fx.svc.GetDayAvailability(context.Background(), "g1", testSaturday)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "10:00"}, day.Slots)
}

func TestDayAvailabilityHolidayClosesWithoutOverride(t *testing.T) {
	fx := newAvailabilityFixture()
	fx.holidays.dates["2026-10-05"] = true

	day, err := fx.svc.GetDayAvailability(context.Background(), "g1", testMonday)
	require.NoError(t, err)
	assert.Empty(t, day.Slots)
}

func TestDayAvailabilityHolidayOpenWithPositiveOverride(t *testing.T) {
	fx := newAvailabilityFixture()
	fx.holidays.dates["2026-10-05"] = true
	fx.schedule.overrides["2026-10-05"] = &models.HolidayOverride{
		GarageID: "g1", Date: testMonday, IsAvailable: true,
	}

	day, err := fx.svc.GetDayAvailability(context.Background(), "g1", testMonday)
	require.NoError(t, err)
	assert.Len(t, day.Slots, 8)
}

func TestDayAvailabilityBlockedSlotRemoved(t *testing.T) {
	fx := newAvailabilityFixture()
	fx.schedule.blocks["2026-10-05"] = []string{"14:00", "15:00"}

	day, err := fx.svc.GetDayAvailability(context.Background(), "g1", testMonday)
	require.NoError(t, err)
	assert.Len(t, day.Slots, 6)
	assert.NotContains(t, day.Slots, "14:00")
	assert.NotContains(t, day.Slots, "15:00")
}

func TestDayAvailabilityClosedWeekday(t *testing.T) {
	fx := newAvailabilityFixture()
	sunday := time.Date(2026, 10, 4, 0, 0, 0, 0, time.UTC)

	day, err := fx.svc.GetDayAvailability(context.Background(), "g1", sunday)
	require.NoError(t, err)
	assert.Empty(t, day.Slots)
}

func TestDayAvailabilityUnknownGarage(t *testing.T) {
	fx := newAvailabilityFixture()

	_, err := fx.svc.GetDayAvailability(context.Background(), "missing", testMonday)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestDayAvailabilityInactiveGarage(t *testing.T) {
	fx := newAvailabilityFixture()
	fx.garages.garages["g1"].Active = false

	_, err := fx.svc.GetDayAvailability(context.Background(), "g1", testMonday)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestRangeAvailabilityChronological(t *testing.T) {
	fx := newAvailabilityFixture()
	fx.bookings.occupied["2026-10-06"] = []string{"09:00"}

	days, err := fx.svc.GetRangeAvailability(context.Background(), "g1", testMonday, testSaturday)
	require.NoError(t, err)
	require.Len(t, days, 6)
	assert.Equal(t, "2026-10-05", days[0].Date)
	assert.Equal(t, "2026-10-10", days[5].Date)
	assert.Len(t, days[0].Slots, 8)
	assert.Len(t, days[1].Slots, 7)
	// Saturday trimmed by the deployment cutoff.
	assert.Len(t, days[5].Slots, 4)
}

func TestRangeAvailabilityValidation(t *testing.T) {
	fx := newAvailabilityFixture()

	_, err := fx.svc.GetRangeAvailability(context.Background(), "g1", testSaturday, testMonday)
	require.Error(t, err)

	_, err = fx.svc.GetRangeAvailability(context.Background(), "g1", testMonday, testMonday.AddDate(0, 0, 200))
	require.Error(t, err)
}

func TestCheckSlot(t *testing.T) {
	fx := newAvailabilityFixture()
	fx.bookings.occupied["2026-10-05"] = []string{"11:00"}

	require.NoError(t, fx.svc.CheckSlot(context.Background(), "g1", testMonday, "10:00"))

	err := fx.svc.CheckSlot(context.Background(), "g1", testMonday, "11:00")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrSlotTaken.Code, appErrors.FromError(err).Code)
}
