package domain

import (
	"time"
)

// School is the tenant boundary for the platform. Learners, teachers,
// age groups, activity groups, events and messages all hang off a school;
// directory listings, vacations and adverts are enterprise-wide.
type School struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Motto        string    `json:"motto" db:"motto"`
	EmailAddress string    `json:"email_address" db:"email_address"`
	PhoneNumber  string    `json:"phone_number" db:"phone_number"`
	Website      string    `json:"website" db:"website"`
	AddressLine1 string    `json:"address_line1" db:"address_line1"`
	AddressLine2 string    `json:"address_line2" db:"address_line2"`
	City         string    `json:"city" db:"city"`
	Province     string    `json:"province" db:"province"`
	PostalCode   string    `json:"postal_code" db:"postal_code"`
	CrestURL     string    `json:"crest_url" db:"crest_url"`
	LearnerCount int       `json:"learner_count" db:"learner_count"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// LearnerStatus enumerates the lifecycle states of a learner record.
type LearnerStatus string

const (
	LearnerEnrolled LearnerStatus = "enrolled"
	LearnerArchived LearnerStatus = "archived"
)

// Learner is a pupil enrolled at a school.
type Learner struct {
	ID          string        `json:"id" db:"id"`
	SchoolID    string        `json:"school_id" db:"school_id"`
	AgeGroupID  *string       `json:"age_group_id" db:"age_group_id"`
	FirstName   string        `json:"first_name" db:"first_name"`
	LastName    string        `json:"last_name" db:"last_name"`
	Email       *string       `json:"email" db:"email"`
	DateOfBirth time.Time     `json:"date_of_birth" db:"date_of_birth"`
	Grade       string        `json:"grade" db:"grade"`
	Status      LearnerStatus `json:"status" db:"status"`
	PhotoURL    string        `json:"photo_url" db:"photo_url"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at" db:"updated_at"`
}

// AgeAt returns the learner's age in whole years at the given time.
func (l *Learner) AgeAt(t time.Time) int {
	years := t.Year() - l.DateOfBirth.Year()
	anniversary := l.DateOfBirth.AddDate(years, 0, 0)
	if anniversary.After(t) {
		years--
	}
	return years
}

// Teacher is a staff member at a school.
type Teacher struct {
	ID          string    `json:"id" db:"id"`
	SchoolID    string    `json:"school_id" db:"school_id"`
	FirstName   string    `json:"first_name" db:"first_name"`
	LastName    string    `json:"last_name" db:"last_name"`
	Email       string    `json:"email" db:"email"`
	PhoneNumber string    `json:"phone_number" db:"phone_number"`
	Subject     string    `json:"subject" db:"subject"`
	PhotoURL    string    `json:"photo_url" db:"photo_url"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Parent is a guardian. Parents are enterprise-level records linked to
// learners through guardianships, so one parent can have children at
// several schools.
type Parent struct {
	ID          string    `json:"id" db:"id"`
	FirstName   string    `json:"first_name" db:"first_name"`
	LastName    string    `json:"last_name" db:"last_name"`
	Email       string    `json:"email" db:"email"`
	PhoneNumber string    `json:"phone_number" db:"phone_number"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Guardianship links a parent to a learner with a relationship label
// ("mother", "father", "guardian", ...).
type Guardianship struct {
	ParentID     string    `json:"parent_id" db:"parent_id"`
	LearnerID    string    `json:"learner_id" db:"learner_id"`
	Relationship string    `json:"relationship" db:"relationship"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
