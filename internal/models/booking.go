package models

import "time"

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCompleted BookingStatus = "COMPLETED"
	BookingCancelled BookingStatus = "CANCELLED"
	BookingNoShow    BookingStatus = "NO_SHOW"
)

// Valid reports whether the status is a known one.
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCompleted, BookingCancelled, BookingNoShow:
		return true
	default:
		return false
	}
}

// Live reports whether a booking in this status occupies its slot.
// Cancelled and no-show bookings free the slot for rebooking.
func (s BookingStatus) Live() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCompleted:
		return true
	default:
		return false
	}
}

// Terminal reports whether the status admits no further transitions.
func (s BookingStatus) Terminal() bool {
	switch s {
	case BookingCompleted, BookingCancelled, BookingNoShow:
		return true
	default:
		return false
	}
}

// CanTransitionTo encodes the lifecycle state machine:
// PENDING -> CONFIRMED | CANCELLED
// CONFIRMED -> COMPLETED | CANCELLED | NO_SHOW
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	switch s {
	case BookingPending:
		return next == BookingConfirmed || next == BookingCancelled
	case BookingConfirmed:
		return next == BookingCompleted || next == BookingCancelled || next == BookingNoShow
	default:
		return false
	}
}

// LiveStatuses lists the statuses that occupy a slot, in the order used by
// the partial unique index.
func LiveStatuses() []string {
	return []string{string(BookingPending), string(BookingConfirmed), string(BookingCompleted)}
}

// PaymentStatus records how a booking was paid. Payment processing itself
// happens elsewhere; this is bookkeeping only.
type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "UNPAID"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

// Booking binds a customer's vehicle to exactly one (garage, date, slot)
// tuple. At most one live booking may exist per tuple.
type Booking struct {
	ID            string        `db:"id" json:"id"`
	GarageID      string        `db:"garage_id" json:"garage_id"`
	CustomerID    string        `db:"customer_id" json:"customer_id"`
	VehicleID     string        `db:"vehicle_id" json:"vehicle_id"`
	Date          time.Time     `db:"date" json:"date"`
	TimeSlot      string        `db:"time_slot" json:"time_slot"`
	Status        BookingStatus `db:"status" json:"status"`
	TotalPrice    float64       `db:"total_price" json:"total_price"`
	PaymentStatus PaymentStatus `db:"payment_status" json:"payment_status"`
	Notes         *string       `db:"notes" json:"notes,omitempty"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}

// BookingFilter narrows down booking listings.
type BookingFilter struct {
	GarageID   string
	CustomerID string
	VehicleID  string
	Status     *BookingStatus
	DateFrom   *time.Time
	DateTo     *time.Time
	Page       int
	PageSize   int
}

// BookingActor identifies who requested a lifecycle transition so the
// service can enforce role rules (customers may only cancel).
type BookingActor struct {
	UserID string
	Role   UserRole
}
