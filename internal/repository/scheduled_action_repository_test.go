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

func TestScheduledActionRepositoryUpsertPending(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewScheduledActionRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO scheduled_actions")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	action := &models.ScheduledAction{
		BookingID:    "b1",
		Kind:         models.Reminder1Day,
		ScheduledFor: time.Date(2026, 10, 4, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.UpsertPending(context.Background(), action))
	require.NotEmpty(t, action.ID)
	require.Equal(t, models.ActionPending, action.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduledActionRepositoryUpsertPendingKeepsSentRow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewScheduledActionRepository(db)
	// The conflict branch is guarded by status <> 'SENT', so re-arming a
	// reminder that already went out touches zero rows.
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO scheduled_actions")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	action := &models.ScheduledAction{
		BookingID:    "b1",
		Kind:         models.Reminder1Week,
		ScheduledFor: time.Date(2026, 9, 28, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.UpsertPending(context.Background(), action))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduledActionRepositoryCancelPendingForBooking(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewScheduledActionRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE scheduled_actions SET status = 'CANCELLED'")).
		WithArgs(sqlmock.AnyArg(), "b1").
		WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, repo.CancelPendingForBooking(context.Background(), "b1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduledActionRepositoryListDue(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewScheduledActionRepository(db)
	horizon := time.Date(2026, 9, 1, 9, 1, 0, 0, time.UTC)
	scheduledFor := horizon.Add(-30 * time.Minute)
	now := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "booking_id", "kind", "scheduled_for", "status", "retry_count", "last_error", "sent_at", "created_at", "updated_at",
		"booking_status", "booking_date", "booking_time_slot",
		"customer_email", "customer_name", "garage_name", "vehicle_reg",
	}).AddRow(
		"a1", "b1", string(models.Reminder1Day), scheduledFor, string(models.ActionPending), 0, nil, nil, now, now,
		string(models.BookingConfirmed), time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC), "10:00",
		"c@example.com", "Casey Customer", "Speedy MOT", "AB12 CDE",
	)
	mock.ExpectQuery("SELECT sa.id, .+ FROM scheduled_actions sa").
		WithArgs(horizon).
		WillReturnRows(rows)

	due, err := repo.ListDue(context.Background(), horizon, 50)
	require.NoError(t, err)
	require.Len(t, due, 1)
	require.Equal(t, "a1", due[0].ID)
	require.Equal(t, models.BookingConfirmed, due[0].BookingStatus)
	require.Equal(t, "c@example.com", due[0].CustomerEmail)
	require.Equal(t, "AB12 CDE", due[0].VehicleReg)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduledActionRepositoryMarkSentWon(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewScheduledActionRepository(db)
	sentAt := time.Date(2026, 9, 1, 9, 0, 45, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE scheduled_actions SET status = 'SENT'")).
		WithArgs(sentAt, "a1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	won, err := repo.MarkSent(context.Background(), "a1", sentAt)
	require.NoError(t, err)
	require.True(t, won)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduledActionRepositoryMarkSentAlreadyHandled(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewScheduledActionRepository(db)
	sentAt := time.Date(2026, 9, 1, 9, 0, 45, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE scheduled_actions SET status = 'SENT'")).
		WithArgs(sentAt, "a1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	won, err := repo.MarkSent(context.Background(), "a1", sentAt)
	require.NoError(t, err)
	require.False(t, won)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduledActionRepositoryMarkFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewScheduledActionRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("retry_count = retry_count + 1")).
		WithArgs("connection refused", 3, sqlmock.AnyArg(), "a1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkFailure(context.Background(), "a1", "connection refused", 3))
	require.NoError(t, mock.ExpectationsWereMet())
}
