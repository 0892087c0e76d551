package models

import "time"

// NotificationKind labels the template used for an outbound email.
type NotificationKind string

const (
	NotifyBookingConfirmed NotificationKind = "BOOKING_CONFIRMED"
	NotifyBookingCancelled NotificationKind = "BOOKING_CANCELLED"
	NotifyReminder1Month   NotificationKind = "REMINDER_1_MONTH"
	NotifyReminder1Week    NotificationKind = "REMINDER_1_WEEK"
	NotifyReminder1Day     NotificationKind = "REMINDER_1_DAY"
	NotifyReviewRequest    NotificationKind = "REVIEW_REQUEST"
)

// EmailLog is the durable audit record of every delivery attempt. The
// in-memory queue is an optimisation only; this table is the record.
type EmailLog struct {
	ID        string           `db:"id" json:"id"`
	Recipient string           `db:"recipient" json:"recipient"`
	Kind      NotificationKind `db:"kind" json:"kind"`
	Subject   string           `db:"subject" json:"subject"`
	BookingID *string          `db:"booking_id" json:"booking_id,omitempty"`
	Success   bool             `db:"success" json:"success"`
	Error     *string          `db:"error" json:"error,omitempty"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
}

// EmailLogFilter narrows the delivery audit trail.
type EmailLogFilter struct {
	Recipient string
	BookingID string
	Kind      *NotificationKind
	Success   *bool
	Page      int
	PageSize  int
}
