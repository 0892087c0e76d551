package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	gomail "gopkg.in/gomail.v2"

	"github.com/motbook/motbook-api/internal/models"
	"github.com/motbook/motbook-api/pkg/config"
	appErrors "github.com/motbook/motbook-api/pkg/errors"
)

// Notification carries everything needed to render and deliver one email.
type Notification struct {
	Kind         models.NotificationKind
	Recipient    string
	CustomerName string
	GarageName   string
	VehicleReg   string
	BookingID    string
	Date         time.Time
	TimeSlot     string
}

// Notifier delivers a rendered notification over some transport.
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}

// SMTPNotifier delivers notifications over SMTP.
type SMTPNotifier struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPNotifier(cfg config.MailConfig) *SMTPNotifier {
	return &SMTPNotifier{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (n *SMTPNotifier) Send(_ context.Context, note Notification) error {
	subject, body := renderNotification(note)

	msg := gomail.NewMessage()
	msg.SetHeader("From", n.from)
	msg.SetHeader("To", note.Recipient)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := n.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", note.Recipient, err)
	}
	return nil
}

func renderNotification(n Notification) (subject, body string) {
	when := fmt.Sprintf("%s at %s", n.Date.Format("Monday 2 January 2006"), n.TimeSlot)
	switch n.Kind {
	case models.NotifyBookingConfirmed:
		subject = fmt.Sprintf("MOT booking confirmed at %s", n.GarageName)
		body = fmt.Sprintf("Hi %s,\n\nYour MOT test for %s is confirmed at %s on %s.\n\nSee you there.",
			n.CustomerName, n.VehicleReg, n.GarageName, when)
	case models.NotifyBookingCancelled:
		subject = fmt.Sprintf("MOT booking cancelled at %s", n.GarageName)
		body = fmt.Sprintf("Hi %s,\n\nYour MOT booking for %s at %s on %s has been cancelled.\n\nYou can book a new slot any time.",
			n.CustomerName, n.VehicleReg, n.GarageName, when)
	case models.NotifyReminder1Month:
		subject = fmt.Sprintf("One month until your MOT at %s", n.GarageName)
		body = fmt.Sprintf("Hi %s,\n\nA reminder that the MOT test for %s is booked at %s on %s.",
			n.CustomerName, n.VehicleReg, n.GarageName, when)
	case models.NotifyReminder1Week:
		subject = fmt.Sprintf("One week until your MOT at %s", n.GarageName)
		body = fmt.Sprintf("Hi %s,\n\nYour MOT test for %s at %s is one week away: %s.",
			n.CustomerName, n.VehicleReg, n.GarageName, when)
	case models.NotifyReminder1Day:
		subject = fmt.Sprintf("Your MOT at %s is tomorrow", n.GarageName)
		body = fmt.Sprintf("Hi %s,\n\nYour MOT test for %s at %s is tomorrow, %s.\n\nPlease arrive ten minutes early.",
			n.CustomerName, n.VehicleReg, n.GarageName, when)
	case models.NotifyReviewRequest:
		subject = fmt.Sprintf("How was your MOT at %s?", n.GarageName)
		body = fmt.Sprintf("Hi %s,\n\nThanks for bringing %s to %s. We'd love to hear how it went.",
			n.CustomerName, n.VehicleReg, n.GarageName)
	default:
		subject = "MOT booking update"
		body = fmt.Sprintf("Hi %s,\n\nThere is an update on your MOT booking at %s (%s).",
			n.CustomerName, n.GarageName, when)
	}
	return subject, body
}

// EmailLogRecorder persists the delivery audit trail.
type EmailLogRecorder interface {
	Record(ctx context.Context, entry *models.EmailLog) error
}

// NotificationService fronts a Notifier with audit logging and metrics.
// Every attempt, successful or not, lands one row in email_log.
type NotificationService struct {
	notifier Notifier
	audit    EmailLogRecorder
	metrics  *MetricsService
	logger   *zap.Logger
}

func NewNotificationService(notifier Notifier, audit EmailLogRecorder, metrics *MetricsService, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		notifier: notifier,
		audit:    audit,
		metrics:  metrics,
		logger:   logger,
	}
}

// Send delivers the notification and records the outcome. A failed
// delivery returns ErrNotificationFailed so callers can decide whether to
// retry; the audit row is written either way.
func (s *NotificationService) Send(ctx context.Context, n Notification) error {
	subject, _ := renderNotification(n)
	sendErr := s.notifier.Send(ctx, n)

	entry := &models.EmailLog{
		Recipient: n.Recipient,
		Kind:      n.Kind,
		Subject:   subject,
		Success:   sendErr == nil,
	}
	if n.BookingID != "" {
		bookingID := n.BookingID
		entry.BookingID = &bookingID
	}
	if sendErr != nil {
		msg := sendErr.Error()
		entry.Error = &msg
	}
	s.metrics.RecordEmail(string(n.Kind), sendErr == nil)

	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Error("record email log failed",
			zap.String("recipient", n.Recipient),
			zap.String("kind", string(n.Kind)),
			zap.Error(err))
	}

	if sendErr != nil {
		s.logger.Warn("notification delivery failed",
			zap.String("recipient", n.Recipient),
			zap.String("kind", string(n.Kind)),
			zap.Error(sendErr))
		return appErrors.ErrNotificationFailed.WithError(sendErr)
	}
	return nil
}
