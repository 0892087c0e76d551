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
	appErrors "github.com/motbook/motbook-api/pkg/errors"
)

type fakeScheduleWriter struct {
	weekly    []*models.WeeklySchedule
	excs      []*models.ScheduleException
	blocks    []*models.TimeSlotBlock
	overrides []*models.HolidayOverride
	deleted   []string
	unblocked []string
}

func (f *fakeScheduleWriter) UpsertWeekly(_ context.Context, s *models.WeeklySchedule) error {
	f.weekly = append(f.weekly, s)
	return nil
}

func (f *fakeScheduleWriter) ListWeekly(context.Context, string) ([]models.WeeklySchedule, error) {
	out := make([]models.WeeklySchedule, 0, len(f.weekly))
	for _, s := range f.weekly {
		out = append(out, *s)
	}
	return out, nil
}

func (f *fakeScheduleWriter) UpsertException(_ context.Context, exc *models.ScheduleException) error {
	f.excs = append(f.excs, exc)
	return nil
}

func (f *fakeScheduleWriter) ListExceptions(context.Context, string, time.Time, time.Time) ([]models.ScheduleException, error) {
	out := make([]models.ScheduleException, 0, len(f.excs))
	for _, exc := range f.excs {
		out = append(out, *exc)
	}
	return out, nil
}

func (f *fakeScheduleWriter) DeleteException(_ context.Context, _ string, date time.Time) error {
	f.deleted = append(f.deleted, date.Format(dateLayout))
	return nil
}

func (f *fakeScheduleWriter) AddBlock(_ context.Context, block *models.TimeSlotBlock) error {
	f.blocks = append(f.blocks, block)
	return nil
}

func (f *fakeScheduleWriter) RemoveBlock(_ context.Context, _ string, date time.Time, slot string) error {
	f.unblocked = append(f.unblocked, date.Format(dateLayout)+" "+slot)
	return nil
}

func (f *fakeScheduleWriter) ListBlocks(context.Context, string, time.Time) ([]string, error) {
	return nil, nil
}

func (f *fakeScheduleWriter) UpsertHolidayOverride(_ context.Context, o *models.HolidayOverride) error {
	f.overrides = append(f.overrides, o)
	return nil
}

type fakeCacheRepo struct {
	invalidated []string
}

func (f *fakeCacheRepo) Get(context.Context, string, interface{}) error {
	return appErrors.ErrCacheMiss
}

func (f *fakeCacheRepo) Set(context.Context, string, interface{}, time.Duration) error {
	return nil
}

func (f *fakeCacheRepo) DeleteByPattern(_ context.Context, pattern string) error {
	f.invalidated = append(f.invalidated, pattern)
	return nil
}

func newScheduleFixture() (*ScheduleService, *fakeScheduleWriter, *fakeCacheRepo) {
	repo := &fakeScheduleWriter{}
	cacheRepo := &fakeCacheRepo{}
	garages := &fakeGarages{garages: map[string]*models.Garage{
		"g1": {ID: "g1", OwnerID: "owner-1", Name: "Speedy MOT", Active: true},
	}}
	cacheSvc := NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), true)
	svc := NewScheduleService(repo, garages, cacheSvc, validator.New(), zap.NewNop())
	return svc, repo, cacheRepo
}

func TestSetWeeklyScheduleUpserts(t *testing.T) {
	svc, repo, cacheRepo := newScheduleFixture()
	owner := models.BookingActor{UserID: "owner-1", Role: models.RoleGarageOwner}

	schedule, err := svc.SetWeeklySchedule(context.Background(), "g1", owner, &models.SetWeeklyScheduleRequest{
		DayOfWeek: 1,
		IsOpen:    true,
		OpenTime:  "09:00",
		CloseTime: "17:00",
	})
	require.NoError(t, err)
	require.Len(t, repo.weekly, 1)
	assert.Equal(t, 60, schedule.SlotDuration)
	assert.Equal(t, []string{"sched:g1:*"}, cacheRepo.invalidated)
}

func TestSetWeeklyScheduleRejectsInvertedHours(t *testing.T) {
	svc, repo, _ := newScheduleFixture()
	owner := models.BookingActor{UserID: "owner-1", Role: models.RoleGarageOwner}

	_, err := svc.SetWeeklySchedule(context.Background(), "g1", owner, &models.SetWeeklyScheduleRequest{
		DayOfWeek: 2,
		IsOpen:    true,
		OpenTime:  "17:00",
		CloseTime: "09:00",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.weekly)
}

func TestSetWeeklyScheduleForeignOwnerForbidden(t *testing.T) {
	svc, repo, _ := newScheduleFixture()
	other := models.BookingActor{UserID: "owner-2", Role: models.RoleGarageOwner}

	_, err := svc.SetWeeklySchedule(context.Background(), "g1", other, &models.SetWeeklyScheduleRequest{
		DayOfWeek: 1,
		IsOpen:    true,
		OpenTime:  "09:00",
		CloseTime: "17:00",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.weekly)
}

func TestSetWeeklyScheduleAdminAllowed(t *testing.T) {
	svc, repo, _ := newScheduleFixture()
	admin := models.BookingActor{UserID: "admin-1", Role: models.RoleAdmin}

	_, err := svc.SetWeeklySchedule(context.Background(), "g1", admin, &models.SetWeeklyScheduleRequest{
		DayOfWeek: 6,
		IsOpen:    false,
	})
	require.NoError(t, err)
	require.Len(t, repo.weekly, 1)
}

func TestSetExceptionAndDelete(t *testing.T) {
	svc, repo, cacheRepo := newScheduleFixture()
	owner := models.BookingActor{UserID: "owner-1", Role: models.RoleGarageOwner}

	exc, err := svc.SetException(context.Background(), "g1", owner, &models.SetExceptionRequest{
		Date:     "2026-12-24",
		IsClosed: true,
		Reason:   "stocktake",
	})
	require.NoError(t, err)
	assert.True(t, exc.IsClosed)

	require.NoError(t, svc.DeleteException(context.Background(), "g1", owner,
		time.Date(2026, 12, 24, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, []string{"2026-12-24"}, repo.deleted)
	// Both writes invalidate the garage's schedule keys.
	assert.Equal(t, []string{"sched:g1:*", "sched:g1:*"}, cacheRepo.invalidated)
}

func TestBlockAndUnblockSlot(t *testing.T) {
	svc, repo, _ := newScheduleFixture()
	owner := models.BookingActor{UserID: "owner-1", Role: models.RoleGarageOwner}

	block, err := svc.BlockSlot(context.Background(), "g1", owner, &models.BlockSlotRequest{
		Date:     "2026-10-05",
		TimeSlot: "10:00",
	})
	require.NoError(t, err)
	assert.Equal(t, "10:00", block.TimeSlot)

	require.NoError(t, svc.UnblockSlot(context.Background(), "g1", owner,
		time.Date(2026, 10, 5, 0, 0, 0, 0, time.UTC), "10:00"))
	assert.Equal(t, []string{"2026-10-05 10:00"}, repo.unblocked)
}

func TestSetHolidayOverride(t *testing.T) {
	svc, repo, _ := newScheduleFixture()
	owner := models.BookingActor{UserID: "owner-1", Role: models.RoleGarageOwner}

	override, err := svc.SetHolidayOverride(context.Background(), "g1", owner, &models.SetHolidayOverrideRequest{
		Date:        "2026-12-28",
		IsAvailable: true,
	})
	require.NoError(t, err)
	assert.True(t, override.IsAvailable)
	require.Len(t, repo.overrides, 1)
}

func TestScheduleWritesUnknownGarage(t *testing.T) {
	svc, _, _ := newScheduleFixture()
	owner := models.BookingActor{UserID: "owner-1", Role: models.RoleGarageOwner}

	_, err := svc.BlockSlot(context.Background(), "ghost", owner, &models.BlockSlotRequest{
		Date:     "2026-10-05",
		TimeSlot: "10:00",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
