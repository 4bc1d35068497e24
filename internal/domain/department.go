package domain

import "time"

// Department is a rentable unit. Occupancy is owned by the unit aggregate and
// only flipped alongside a tenancy transition.
type Department struct {
	ID          string
	Number      string
	Floor       int
	Rooms       int
	Bathrooms   int
	AreaM2      float64
	MonthlyRent float64
	Description string
	IsAvailable bool
	TenantID    *string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
