package domain

import "time"

// VacationStatus enumerates the publishing lifecycle of a vacation package.
type VacationStatus string

const (
	VacationDraft     VacationStatus = "draft"
	VacationPublished VacationStatus = "published"
	VacationArchived  VacationStatus = "archived"
)

// Vacation is an accommodation or holiday package offered through the
// enterprise portal. Prices are in rand; StarGrading runs 0 (ungraded) to 5.
type Vacation struct {
	ID            string         `json:"id" db:"id"`
	Title         string         `json:"title" db:"title"`
	Description   string         `json:"description" db:"description"`
	Destination   string         `json:"destination" db:"destination"`
	Accommodation string         `json:"accommodation" db:"accommodation"`
	StarGrading   int            `json:"star_grading" db:"star_grading"`
	PricePerNight float64        `json:"price_per_night" db:"price_per_night"`
	PackagePrice  float64        `json:"package_price" db:"package_price"`
	AvailableFrom time.Time      `json:"available_from" db:"available_from"`
	AvailableTo   time.Time      `json:"available_to" db:"available_to"`
	Capacity      int            `json:"capacity" db:"capacity"`
	Status        VacationStatus `json:"status" db:"status"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at" db:"updated_at"`
}

// OverlapsWindow reports whether the package is available at any point in
// the [from, to] window.
func (v *Vacation) OverlapsWindow(from, to time.Time) bool {
	return !v.AvailableFrom.After(to) && !v.AvailableTo.Before(from)
}
