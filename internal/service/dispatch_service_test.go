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
	"github.com/motbook/motbook-api/pkg/config"
)

type fakeDueStore struct {
	due        []models.DueAction
	horizon    time.Time
	sent       []string
	sentResult bool
	failures   map[string]string
	cancelled  []string
}

func (f *fakeDueStore) ListDue(_ context.Context, horizon time.Time, _ int) ([]models.DueAction, error) {
	f.horizon = horizon
	return f.due, nil
}

func (f *fakeDueStore) MarkSent(_ context.Context, id string, _ time.Time) (bool, error) {
	f.sent = append(f.sent, id)
	return f.sentResult, nil
}

func (f *fakeDueStore) MarkFailure(_ context.Context, id string, lastError string, _ int) error {
	if f.failures == nil {
		f.failures = map[string]string{}
	}
	f.failures[id] = lastError
	return nil
}

func (f *fakeDueStore) Cancel(_ context.Context, id string) error {
	f.cancelled = append(f.cancelled, id)
	return nil
}

type fakeSender struct {
	sent []Notification
	err  error
}

func (f *fakeSender) Send(_ context.Context, n Notification) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, n)
	return nil
}

func dueAction(id string, status models.BookingStatus, kind models.ActionKind) models.DueAction {
	return models.DueAction{
		ScheduledAction: models.ScheduledAction{
			ID:           id,
			BookingID:    "b-" + id,
			Kind:         kind,
			ScheduledFor: time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC),
			Status:       models.ActionPending,
		},
		BookingStatus: status,
		BookingDate:   time.Date(2026, 9, 8, 0, 0, 0, 0, time.UTC),
		TimeSlot:      "10:00",
		CustomerEmail: "c@example.com",
		CustomerName:  "Casey Customer",
		GarageName:    "Test Garage",
		VehicleReg:    "AB12CDE",
	}
}

func newDispatchFixture(store *fakeDueStore, sender *fakeSender) *DispatchService {
	svc := NewDispatchService(store, sender, NewMetricsService(), config.RemindersConfig{
		Enabled:    true,
		Lookahead:  time.Minute,
		MaxRetries: 3,
		BatchSize:  50,
	}, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2026, 9, 1, 9, 0, 30, 0, time.UTC) }
	return svc
}

func TestDispatchSendsConfirmedReminders(t *testing.T) {
	store := &fakeDueStore{
		due:        []models.DueAction{dueAction("a1", models.BookingConfirmed, models.Reminder1Week)},
		sentResult: true,
	}
	sender := &fakeSender{}
	svc := newDispatchFixture(store, sender)

	sent, err := svc.DispatchDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, []string{"a1"}, store.sent)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, models.NotifyReminder1Week, sender.sent[0].Kind)
	assert.Equal(t, "c@example.com", sender.sent[0].Recipient)
	// Lookahead widens the horizon past the tick time.
	assert.Equal(t, time.Date(2026, 9, 1, 9, 1, 30, 0, time.UTC), store.horizon)
}

func TestDispatchCancelsStaleActions(t *testing.T) {
	store := &fakeDueStore{
		due: []models.DueAction{
			dueAction("a1", models.BookingCancelled, models.Reminder1Day),
			dueAction("a2", models.BookingPending, models.Reminder1Month),
		},
		sentResult: true,
	}
	sender := &fakeSender{}
	svc := newDispatchFixture(store, sender)

	sent, err := svc.DispatchDue(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Empty(t, sender.sent)
	assert.Equal(t, []string{"a1", "a2"}, store.cancelled)
}

func TestDispatchRecordsDeliveryFailure(t *testing.T) {
	store := &fakeDueStore{
		due:        []models.DueAction{dueAction("a1", models.BookingConfirmed, models.Reminder1Day)},
		sentResult: true,
	}
	sender := &fakeSender{err: errors.New("smtp: connection refused")}
	svc := newDispatchFixture(store, sender)

	sent, err := svc.DispatchDue(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Empty(t, store.sent)
	assert.Contains(t, store.failures["a1"], "connection refused")
}

func TestDispatchSkipsAlreadyHandledAction(t *testing.T) {
	store := &fakeDueStore{
		due:        []models.DueAction{dueAction("a1", models.BookingConfirmed, models.Reminder1Day)},
		sentResult: false,
	}
	sender := &fakeSender{}
	svc := newDispatchFixture(store, sender)

	sent, err := svc.DispatchDue(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
}

func TestDispatchSingleFlight(t *testing.T) {
	store := &fakeDueStore{
		due:        []models.DueAction{dueAction("a1", models.BookingConfirmed, models.Reminder1Day)},
		sentResult: true,
	}
	svc := newDispatchFixture(store, &fakeSender{})
	svc.running.Store(true)

	sent, err := svc.DispatchDue(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Empty(t, store.sent)
}
