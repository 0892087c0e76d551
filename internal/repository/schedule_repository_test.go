package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/motbook/motbook-api/internal/models"
)

func TestScheduleRepositoryUpsertWeekly(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewScheduleRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO weekly_schedules")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	schedule := &models.WeeklySchedule{
		GarageID:     "g1",
		DayOfWeek:    1,
		IsOpen:       true,
		OpenTime:     "09:00",
		CloseTime:    "17:00",
		SlotDuration: 60,
	}
	require.NoError(t, repo.UpsertWeekly(context.Background(), schedule))
	require.NotEmpty(t, schedule.ID)
	require.False(t, schedule.UpdatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryGetWeeklyNotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewScheduleRepository(db)
	mock.ExpectQuery("SELECT .+ FROM weekly_schedules").
		WithArgs("g1", 0).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	schedule, err := repo.GetWeekly(context.Background(), "g1", 0)
	require.NoError(t, err)
	require.Nil(t, schedule)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryListWeekly(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewScheduleRepository(db)
	now := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "garage_id", "day_of_week", "is_open", "open_time", "close_time", "slot_duration_minutes", "created_at", "updated_at"}).
		AddRow("ws1", "g1", 1, true, "09:00", "17:00", 60, now, now).
		AddRow("ws2", "g1", 6, true, "09:00", "13:00", 60, now, now)
	mock.ExpectQuery("SELECT .+ FROM weekly_schedules").
		WithArgs("g1").
		WillReturnRows(rows)

	schedules, err := repo.ListWeekly(context.Background(), "g1")
	require.NoError(t, err)
	require.Len(t, schedules, 2)
	require.Equal(t, 1, schedules[0].DayOfWeek)
	require.Equal(t, "13:00", schedules[1].CloseTime)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryAddBlockDuplicate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewScheduleRepository(db)
	// ON CONFLICT DO NOTHING: the duplicate insert affects zero rows but
	// is still not an error.
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO time_slot_blocks")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	block := &models.TimeSlotBlock{
		GarageID: "g1",
		Date:     time.Date(2026, 10, 5, 0, 0, 0, 0, time.UTC),
		TimeSlot: "10:00",
	}
	require.NoError(t, repo.AddBlock(context.Background(), block))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryListBlocksRange(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewScheduleRepository(db)
	from := time.Date(2026, 10, 5, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 10, 7, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"date", "time_slot"}).
		AddRow(from, "10:00").
		AddRow(from, "11:00").
		AddRow(to, "09:00")
	mock.ExpectQuery("SELECT date, time_slot FROM time_slot_blocks").
		WithArgs("g1", from, to).
		WillReturnRows(rows)

	blocks, err := repo.ListBlocksRange(context.Background(), "g1", from, to)
	require.NoError(t, err)
	require.Equal(t, []string{"10:00", "11:00"}, blocks["2026-10-05"])
	require.Equal(t, []string{"09:00"}, blocks["2026-10-07"])
	require.NotContains(t, blocks, "2026-10-06")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryDeleteExceptionMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewScheduleRepository(db)
	date := time.Date(2026, 10, 5, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM schedule_exceptions")).
		WithArgs("g1", date).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.DeleteException(context.Background(), "g1", date))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryUpsertHolidayOverride(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewScheduleRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO holiday_overrides")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	override := &models.HolidayOverride{
		GarageID:    "g1",
		Date:        time.Date(2026, 12, 25, 0, 0, 0, 0, time.UTC),
		IsAvailable: true,
	}
	require.NoError(t, repo.UpsertHolidayOverride(context.Background(), override))
	require.NotEmpty(t, override.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
