package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/motbook/motbook-api/internal/models"
	appErrors "github.com/motbook/motbook-api/pkg/errors"
)

type fakeNotifier struct {
	err  error
	sent []Notification
}

func (f *fakeNotifier) Send(_ context.Context, n Notification) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, n)
	return nil
}

type fakeAudit struct {
	entries []*models.EmailLog
}

func (f *fakeAudit) Record(_ context.Context, entry *models.EmailLog) error {
	f.entries = append(f.entries, entry)
	return nil
}

func testNotification() Notification {
	return Notification{
		Kind:         models.NotifyReminder1Day,
		Recipient:    "c@example.com",
		CustomerName: "Casey Customer",
		GarageName:   "Speedy MOT",
		VehicleReg:   "AB12 CDE",
		BookingID:    "b1",
		Date:         time.Date(2026, 10, 5, 0, 0, 0, 0, time.UTC),
		TimeSlot:     "10:00",
	}
}

func TestNotificationSendRecordsAuditRow(t *testing.T) {
	notifier := &fakeNotifier{}
	audit := &fakeAudit{}
	svc := NewNotificationService(notifier, audit, NewMetricsService(), zap.NewNop())

	require.NoError(t, svc.Send(context.Background(), testNotification()))

	require.Len(t, notifier.sent, 1)
	require.Len(t, audit.entries, 1)
	entry := audit.entries[0]
	assert.True(t, entry.Success)
	assert.Equal(t, "c@example.com", entry.Recipient)
	assert.Equal(t, models.NotifyReminder1Day, entry.Kind)
	require.NotNil(t, entry.BookingID)
	assert.Equal(t, "b1", *entry.BookingID)
	assert.Nil(t, entry.Error)
}

func TestNotificationSendFailureStillAudited(t *testing.T) {
	notifier := &fakeNotifier{err: errors.New("connection refused")}
	audit := &fakeAudit{}
	svc := NewNotificationService(notifier, audit, NewMetricsService(), zap.NewNop())

	err := svc.Send(context.Background(), testNotification())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotificationFailed.Code, appErrors.FromError(err).Code)

	// The failed attempt is still one audit row, marked unsuccessful.
	require.Len(t, audit.entries, 1)
	entry := audit.entries[0]
	assert.False(t, entry.Success)
	require.NotNil(t, entry.Error)
	assert.Contains(t, *entry.Error, "connection refused")
}

func TestRenderNotificationSubjects(t *testing.T) {
	n := testNotification()

	cases := map[models.NotificationKind]string{
		models.NotifyBookingConfirmed: "MOT booking confirmed at Speedy MOT",
		models.NotifyBookingCancelled: "MOT booking cancelled at Speedy MOT",
		models.NotifyReminder1Month:   "One month until your MOT at Speedy MOT",
		models.NotifyReminder1Week:    "One week until your MOT at Speedy MOT",
		models.NotifyReminder1Day:     "Your MOT at Speedy MOT is tomorrow",
		models.NotifyReviewRequest:    "How was your MOT at Speedy MOT?",
	}
	for kind, want := range cases {
		n.Kind = kind
		subject, body := renderNotification(n)
		assert.Equal(t, want, subject)
		assert.Contains(t, body, "Casey Customer")
		assert.Contains(t, body, "AB12 CDE")
	}
}
