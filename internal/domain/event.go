package domain

import "time"

// EventStatus enumerates the lifecycle states of a school event.
type EventStatus string

const (
	EventDraft     EventStatus = "draft"
	EventPublished EventStatus = "published"
	EventCancelled EventStatus = "cancelled"
	EventCompleted EventStatus = "completed"
)

// SchoolEvent is a dated occasion hosted by a school (sports day, gala,
// parents' evening). Capacity of zero means unlimited; once capacity is
// reached, new RSVPs are waitlisted.
type SchoolEvent struct {
	ID            string      `json:"id" db:"id"`
	SchoolID      string      `json:"school_id" db:"school_id"`
	Title         string      `json:"title" db:"title"`
	Description   string      `json:"description" db:"description"`
	Venue         string      `json:"venue" db:"venue"`
	StartsAt      time.Time   `json:"starts_at" db:"starts_at"`
	EndsAt        time.Time   `json:"ends_at" db:"ends_at"`
	Capacity      int         `json:"capacity" db:"capacity"`
	CoverImageURL string      `json:"cover_image_url" db:"cover_image_url"`
	Status        EventStatus `json:"status" db:"status"`
	GoingCount    int         `json:"going_count" db:"going_count"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at" db:"updated_at"`
}

// IsEditable reports whether the event still accepts content changes.
func (e *SchoolEvent) IsEditable() bool {
	return e.Status == EventDraft || e.Status == EventPublished
}

// RSVPStatus enumerates attendance responses for an event.
type RSVPStatus string

const (
	RSVPGoing      RSVPStatus = "going"
	RSVPNotGoing   RSVPStatus = "not_going"
	RSVPWaitlisted RSVPStatus = "waitlisted"
)

// EventRSVP records one attendee's response to an event. LearnerID is set
// when the attendee responds on behalf of a pupil.
type EventRSVP struct {
	ID        string     `json:"id" db:"id"`
	EventID   string     `json:"event_id" db:"event_id"`
	LearnerID *string    `json:"learner_id" db:"learner_id"`
	Name      string     `json:"name" db:"name"`
	Email     string     `json:"email" db:"email"`
	Status    RSVPStatus `json:"status" db:"status"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}
