package models

import "time"

// Garage represents a test centre offering bookable MOT slots.
type Garage struct {
	ID       string  `db:"id" json:"id"`
	OwnerID  string  `db:"owner_id" json:"owner_id"`
	Name     string  `db:"name" json:"name"`
	Address  string  `db:"address" json:"address"`
	City     string  `db:"city" json:"city"`
	Postcode string  `db:"postcode" json:"postcode"`
	Phone    *string `db:"phone" json:"phone,omitempty"`
	MOTPrice float64 `db:"mot_price" json:"mot_price"`
	// SaturdayCutoff, when set ("HH:MM"), caps Saturday availability to
	// slots strictly before the cutoff regardless of the stored close
	// time. Nil falls back to the deployment-wide default cutoff.
	SaturdayCutoff *string   `db:"saturday_cutoff" json:"saturday_cutoff,omitempty"`
	Active         bool      `db:"active" json:"active"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// GarageFilter narrows down garage listings.
type GarageFilter struct {
	OwnerID  string
	City     string
	Postcode string
	Search   string
	Active   *bool
	Page     int
	PageSize int
}
