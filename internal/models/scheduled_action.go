package models

import "time"

// ActionKind identifies which reminder a scheduled action delivers.
type ActionKind string

const (
	Reminder1Month ActionKind = "REMINDER_1_MONTH"
	Reminder1Week  ActionKind = "REMINDER_1_WEEK"
	Reminder1Day   ActionKind = "REMINDER_1_DAY"
)

// ReminderKinds returns all reminder kinds in trigger order.
func ReminderKinds() []ActionKind {
	return []ActionKind{Reminder1Month, Reminder1Week, Reminder1Day}
}

// Offset returns when this reminder fires relative to the booking date.
func (k ActionKind) Offset(bookingDate time.Time) time.Time {
	switch k {
	case Reminder1Month:
		return bookingDate.AddDate(0, -1, 0)
	case Reminder1Week:
		return bookingDate.AddDate(0, 0, -7)
	case Reminder1Day:
		return bookingDate.AddDate(0, 0, -1)
	default:
		return bookingDate
	}
}

// ActionStatus is the dispatch state of a scheduled action.
type ActionStatus string

const (
	ActionPending   ActionStatus = "PENDING"
	ActionSent      ActionStatus = "SENT"
	ActionCancelled ActionStatus = "CANCELLED"
	ActionFailed    ActionStatus = "FAILED"
)

// ScheduledAction is a durable, time-triggered follow-up tied to a
// booking's CONFIRMED lifespan. One row per (booking_id, kind), upserted.
type ScheduledAction struct {
	ID           string       `db:"id" json:"id"`
	BookingID    string       `db:"booking_id" json:"booking_id"`
	Kind         ActionKind   `db:"kind" json:"kind"`
	ScheduledFor time.Time    `db:"scheduled_for" json:"scheduled_for"`
	Status       ActionStatus `db:"status" json:"status"`
	RetryCount   int          `db:"retry_count" json:"retry_count"`
	LastError    *string      `db:"last_error" json:"last_error,omitempty"`
	SentAt       *time.Time   `db:"sent_at" json:"sent_at,omitempty"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updated_at"`
}

// DueAction joins a pending action with the delivery details the
// dispatcher needs, avoiding per-row lookups during a pass.
type DueAction struct {
	ScheduledAction
	BookingStatus  BookingStatus `db:"booking_status" json:"booking_status"`
	BookingDate    time.Time     `db:"booking_date" json:"booking_date"`
	TimeSlot       string        `db:"booking_time_slot" json:"booking_time_slot"`
	CustomerEmail  string        `db:"customer_email" json:"customer_email"`
	CustomerName   string        `db:"customer_name" json:"customer_name"`
	GarageName     string        `db:"garage_name" json:"garage_name"`
	VehicleReg     string        `db:"vehicle_reg" json:"vehicle_reg"`
}
