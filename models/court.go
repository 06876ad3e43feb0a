package models

// Court is a read-only catalog entity. Court/time allocation is an external
// process that picks up matches once they reach PENDING_COURT.
type Court struct {
	ID       int    `json:"id" db:"id"`
	VenueID  int    `json:"venue_id" db:"venue_id"`
	Name     string `json:"name" db:"name"`
	IsActive bool   `json:"is_active" db:"is_active"`
}
