package events

import (
	"context"
	"time"

	"github.com/IQTechSolutions/ConectOne-sub011/internal/domain"
)

// Repository defines the data access contract for school events and RSVPs.
type Repository interface {
	// Get returns an event with its going count populated.
	Get(ctx context.Context, schoolID, id string) (*domain.SchoolEvent, error)
	List(ctx context.Context, schoolID string, f ListFilter) ([]domain.SchoolEvent, int, error)
	Create(ctx context.Context, e *domain.SchoolEvent) (string, error)
	Update(ctx context.Context, schoolID, id string, u UpdateFields) error
	Delete(ctx context.Context, schoolID, id string) error
	UpdateStatus(ctx context.Context, schoolID, id string, status domain.EventStatus) error

	// UpsertRSVP records a response keyed by (event, email). A repeat
	// submission refreshes the name and learner reference; an attendee who
	// previously declined is re-admitted with the new status, but going and
	// waitlisted spots are never downgraded by a duplicate submit.
	UpsertRSVP(ctx context.Context, r *domain.EventRSVP) error

	// DeleteRSVP withdraws a response. Returns ErrRSVPNotFound when none
	// exists for the email.
	DeleteRSVP(ctx context.Context, eventID, email string) error

	ListRSVPs(ctx context.Context, eventID string, f RSVPFilter) ([]domain.EventRSVP, int, error)

	// EnqueueCancelNotices queues a cancellation email to every attendee
	// who hasn't declined. Returns the number queued.
	EnqueueCancelNotices(ctx context.Context, eventID string) (int, error)
}

// ListFilter controls pagination and filtering for event lists.
type ListFilter struct {
	Status       string
	UpcomingOnly bool
	Limit        int
	Offset       int
}

// RSVPFilter controls pagination and filtering for RSVP lists.
type RSVPFilter struct {
	Status string
	Limit  int
	Offset int
}

// UpdateFields holds the mutable fields for an event update.
// Nil fields are not applied.
type UpdateFields struct {
	Title         *string
	Description   *string
	Venue         *string
	StartsAt      *time.Time
	EndsAt        *time.Time
	Capacity      *int
	CoverImageURL *string
}
