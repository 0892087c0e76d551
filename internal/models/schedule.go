package models

import "time"

// WeeklySchedule holds one garage's recurring opening hours for a single
// weekday (0 = Sunday .. 6 = Saturday). When IsOpen is false the stored
// times are informational only and never generate slots.
type WeeklySchedule struct {
	ID           string    `db:"id" json:"id"`
	GarageID     string    `db:"garage_id" json:"garage_id"`
	DayOfWeek    int       `db:"day_of_week" json:"day_of_week"`
	IsOpen       bool      `db:"is_open" json:"is_open"`
	OpenTime     string    `db:"open_time" json:"open_time"`
	CloseTime    string    `db:"close_time" json:"close_time"`
	SlotDuration int       `db:"slot_duration_minutes" json:"slot_duration_minutes"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// ScheduleException overrides the weekly schedule for one calendar date.
// IsClosed=true fully closes the day unless a holiday override re-opens it.
type ScheduleException struct {
	ID        string    `db:"id" json:"id"`
	GarageID  string    `db:"garage_id" json:"garage_id"`
	Date      time.Time `db:"date" json:"date"`
	IsClosed  bool      `db:"is_closed" json:"is_closed"`
	Reason    string    `db:"reason" json:"reason"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// TimeSlotBlock disables a single slot on a date, independent of the day's
// open/closed status. Never implied by bookings.
type TimeSlotBlock struct {
	ID        string    `db:"id" json:"id"`
	GarageID  string    `db:"garage_id" json:"garage_id"`
	Date      time.Time `db:"date" json:"date"`
	TimeSlot  string    `db:"time_slot" json:"time_slot"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// HolidayOverride records a garage's explicit choice to stay open (or not)
// on a public holiday. It layers on top of the externally supplied holiday
// calendar rather than replacing it.
type HolidayOverride struct {
	ID          string    `db:"id" json:"id"`
	GarageID    string    `db:"garage_id" json:"garage_id"`
	Date        time.Time `db:"date" json:"date"`
	IsAvailable bool      `db:"is_available" json:"is_available"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// PublicHoliday is one entry of the read-only holiday calendar, keyed by
// region and year.
type PublicHoliday struct {
	ID     string    `db:"id" json:"id"`
	Region string    `db:"region" json:"region"`
	Date   time.Time `db:"date" json:"date"`
	Name   string    `db:"name" json:"name"`
}

// DayAvailability is one day's worth of bookable slots in a ranged
// availability response.
type DayAvailability struct {
	Date  string   `json:"date"`
	Slots []string `json:"slots"`
}
