package models

// Request payloads for the scheduling and booking endpoints. Validation
// tags are enforced in the service layer before anything touches Postgres.

type SetWeeklyScheduleRequest struct {
	DayOfWeek    int    `json:"day_of_week" validate:"min=0,max=6"`
	IsOpen       bool   `json:"is_open"`
	OpenTime     string `json:"open_time" validate:"required_if=IsOpen true,omitempty,datetime=15:04"`
	CloseTime    string `json:"close_time" validate:"required_if=IsOpen true,omitempty,datetime=15:04"`
	SlotDuration int    `json:"slot_duration_minutes" validate:"omitempty,min=5,max=480"`
}

type SetExceptionRequest struct {
	Date     string `json:"date" validate:"required,datetime=2006-01-02"`
	IsClosed bool   `json:"is_closed"`
	Reason   string `json:"reason" validate:"max=255"`
}

type BlockSlotRequest struct {
	Date     string `json:"date" validate:"required,datetime=2006-01-02"`
	TimeSlot string `json:"time_slot" validate:"required,datetime=15:04"`
}

type SetHolidayOverrideRequest struct {
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	IsAvailable bool   `json:"is_available"`
}

type SeedHolidayRequest struct {
	Region string `json:"region" validate:"omitempty,max=32"`
	Date   string `json:"date" validate:"required,datetime=2006-01-02"`
	Name   string `json:"name" validate:"required,max=255"`
}

type CreateBookingRequest struct {
	GarageID  string `json:"garage_id" validate:"required,uuid"`
	VehicleID string `json:"vehicle_id" validate:"required,uuid"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	TimeSlot  string `json:"time_slot" validate:"required,datetime=15:04"`
	Notes     string `json:"notes" validate:"max=1000"`
}

type TransitionBookingRequest struct {
	Status BookingStatus `json:"status" validate:"required"`
}

type UpdatePaymentStatusRequest struct {
	PaymentStatus PaymentStatus `json:"payment_status" validate:"required"`
}

type CreateGarageRequest struct {
	Name           string  `json:"name" validate:"required,max=255"`
	Address        string  `json:"address" validate:"required,max=500"`
	City           string  `json:"city" validate:"required,max=100"`
	Postcode       string  `json:"postcode" validate:"required,max=16"`
	Phone          string  `json:"phone" validate:"omitempty,max=32"`
	MOTPrice       float64 `json:"mot_price" validate:"min=0"`
	SaturdayCutoff *string `json:"saturday_cutoff" validate:"omitempty,datetime=15:04"`
}

type UpdateGarageRequest struct {
	Name           *string  `json:"name" validate:"omitempty,max=255"`
	Address        *string  `json:"address" validate:"omitempty,max=500"`
	City           *string  `json:"city" validate:"omitempty,max=100"`
	Postcode       *string  `json:"postcode" validate:"omitempty,max=16"`
	Phone          *string  `json:"phone" validate:"omitempty,max=32"`
	MOTPrice       *float64 `json:"mot_price" validate:"omitempty,min=0"`
	Active         *bool    `json:"active"`
	SaturdayCutoff *string  `json:"saturday_cutoff" validate:"omitempty,datetime=15:04"`
}

type CreateVehicleRequest struct {
	Registration string `json:"registration" validate:"required,min=2,max=10"`
	Make         string `json:"make" validate:"omitempty,max=64"`
	Model        string `json:"model" validate:"omitempty,max=64"`
	Year         int    `json:"year" validate:"omitempty,min=1900,max=2100"`
	FuelType     string `json:"fuel_type" validate:"omitempty,max=32"`
}
