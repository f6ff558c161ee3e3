package domain

import "time"

// AgeGroup is a school-scoped age bracket ("U13", "Seniors") used to group
// learners and constrain activity group enrollment. Ranges may overlap.
type AgeGroup struct {
	ID        string    `json:"id" db:"id"`
	SchoolID  string    `json:"school_id" db:"school_id"`
	Name      string    `json:"name" db:"name"`
	MinAge    int       `json:"min_age" db:"min_age"`
	MaxAge    int       `json:"max_age" db:"max_age"`
	Active    bool      `json:"active" db:"active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Contains reports whether the given age falls inside the bracket.
func (g *AgeGroup) Contains(age int) bool {
	return age >= g.MinAge && age <= g.MaxAge
}
