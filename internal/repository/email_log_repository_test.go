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

func TestEmailLogRepositoryRecordStampsCreatedAt(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewEmailLogRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO email_log")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	entry := &models.EmailLog{
		Recipient: "c@example.com",
		Kind:      models.NotifyReminder1Day,
		Subject:   "Your MOT at Speedy MOT is tomorrow",
		Success:   true,
	}
	require.NoError(t, repo.Record(context.Background(), entry))
	require.NotEmpty(t, entry.ID)
	require.False(t, entry.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEmailLogRepositoryRecordKeepsExplicitCreatedAt(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewEmailLogRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO email_log")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	at := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	entry := &models.EmailLog{
		Recipient: "c@example.com",
		Kind:      models.NotifyReviewRequest,
		Subject:   "How was your MOT at Speedy MOT?",
		Success:   false,
		CreatedAt: at,
	}
	require.NoError(t, repo.Record(context.Background(), entry))
	require.Equal(t, at, entry.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}
