package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/motbook/motbook-api/internal/models"
	"github.com/motbook/motbook-api/pkg/config"
)

// DueActionStore is the dispatcher's view of the scheduled action queue.
type DueActionStore interface {
	ListDue(ctx context.Context, horizon time.Time, limit int) ([]models.DueAction, error)
	MarkSent(ctx context.Context, id string, sentAt time.Time) (bool, error)
	MarkFailure(ctx context.Context, id string, lastError string, maxRetries int) error
	Cancel(ctx context.Context, id string) error
}

// NotificationSender delivers one notification synchronously.
type NotificationSender interface {
	Send(ctx context.Context, n Notification) error
}

// DispatchService drains due scheduled actions on a cron tick. Passes are
// single-flight: a tick that fires while the previous pass is still
// running returns immediately instead of stacking up.
type DispatchService struct {
	actions DueActionStore
	sender  NotificationSender
	metrics *MetricsService
	logger  *zap.Logger
	cfg     config.RemindersConfig

	cron    *cron.Cron
	running atomic.Bool
	now     func() time.Time
}

func NewDispatchService(actions DueActionStore, sender NotificationSender, metrics *MetricsService, cfg config.RemindersConfig, logger *zap.Logger) *DispatchService {
	return &DispatchService{
		actions: actions,
		sender:  sender,
		metrics: metrics,
		logger:  logger,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Start schedules the dispatch loop. No-op when reminders are disabled.
func (s *DispatchService) Start(ctx context.Context) error {
	if !s.cfg.Enabled {
		s.logger.Info("reminder dispatch disabled")
		return nil
	}
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.cfg.CronSpec, func() {
		if _, err := s.DispatchDue(ctx); err != nil {
			s.logger.Error("dispatch pass failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("schedule dispatch: %w", err)
	}
	s.cron.Start()
	s.logger.Info("reminder dispatch started", zap.String("cron", s.cfg.CronSpec))
	return nil
}

// Stop halts the cron loop and waits for an in-flight pass to finish.
func (s *DispatchService) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}

// DispatchDue runs one dispatch pass and reports how many actions were
// delivered. Actions whose booking is no longer CONFIRMED are cancelled
// rather than sent; delivery failures bump the retry counter and leave
// the row PENDING until the ceiling turns it FAILED.
func (s *DispatchService) DispatchDue(ctx context.Context) (int, error) {
	if !s.running.CompareAndSwap(false, true) {
		return 0, nil
	}
	defer s.running.Store(false)

	start := s.now()
	horizon := start.Add(s.cfg.Lookahead)
	due, err := s.actions.ListDue(ctx, horizon, s.cfg.BatchSize)
	if err != nil {
		return 0, err
	}
	if len(due) == 0 {
		return 0, nil
	}

	sent := 0
	for _, action := range due {
		if action.BookingStatus != models.BookingConfirmed {
			// The booking moved on since this reminder was scheduled.
			if err := s.actions.Cancel(ctx, action.ID); err != nil {
				s.logger.Error("cancel stale action failed", zap.String("action_id", action.ID), zap.Error(err))
			}
			continue
		}

		n := Notification{
			Kind:         reminderNotificationKind(action.Kind),
			Recipient:    action.CustomerEmail,
			CustomerName: action.CustomerName,
			GarageName:   action.GarageName,
			VehicleReg:   action.VehicleReg,
			BookingID:    action.BookingID,
			Date:         action.BookingDate,
			TimeSlot:     action.TimeSlot,
		}
		if err := s.sender.Send(ctx, n); err != nil {
			s.metrics.RecordReminder(false)
			if err := s.actions.MarkFailure(ctx, action.ID, err.Error(), s.cfg.MaxRetries); err != nil {
				s.logger.Error("mark action failure failed", zap.String("action_id", action.ID), zap.Error(err))
			}
			continue
		}

		won, err := s.actions.MarkSent(ctx, action.ID, s.now())
		if err != nil {
			s.logger.Error("mark action sent failed", zap.String("action_id", action.ID), zap.Error(err))
			continue
		}
		if !won {
			s.logger.Warn("action already handled elsewhere", zap.String("action_id", action.ID))
			continue
		}
		s.metrics.RecordReminder(true)
		sent++
	}

	s.metrics.ObserveDispatchPass(len(due), s.now().Sub(start))
	s.logger.Info("dispatch pass finished",
		zap.Int("due", len(due)),
		zap.Int("sent", sent),
		zap.Duration("took", s.now().Sub(start)))
	return sent, nil
}

func reminderNotificationKind(kind models.ActionKind) models.NotificationKind {
	switch kind {
	case models.Reminder1Month:
		return models.NotifyReminder1Month
	case models.Reminder1Week:
		return models.NotifyReminder1Week
	case models.Reminder1Day:
		return models.NotifyReminder1Day
	default:
		return models.NotificationKind(kind)
	}
}
