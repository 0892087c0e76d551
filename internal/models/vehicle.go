package models

import "time"

// Vehicle is a customer's vehicle. Reservations require an existing row:
// callers are responsible for registering the vehicle first, there is no
// implicit fallback object.
type Vehicle struct {
	ID           string    `db:"id" json:"id"`
	CustomerID   string    `db:"customer_id" json:"customer_id"`
	Registration string    `db:"registration" json:"registration"`
	Make         string    `db:"make" json:"make"`
	Model        string    `db:"model" json:"model"`
	Year         *int      `db:"year" json:"year,omitempty"`
	FuelType     *string   `db:"fuel_type" json:"fuel_type,omitempty"`
	Colour       *string   `db:"colour" json:"colour,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
