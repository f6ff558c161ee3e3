package events

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/IQTechSolutions/ConectOne-sub011/internal/domain"
)

// Service implements school event business logic.
type Service struct {
	repo Repository
}

// NewService creates an events service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns a single event.
func (s *Service) Get(ctx context.Context, schoolID, id string) (*domain.SchoolEvent, error) {
	return s.repo.Get(ctx, schoolID, id)
}

// List returns a school's events matching the filter.
func (s *Service) List(ctx context.Context, schoolID string, f ListFilter) ([]domain.SchoolEvent, int, error) {
	return s.repo.List(ctx, schoolID, f)
}

// Create validates and persists a new event in draft status.
func (s *Service) Create(ctx context.Context, schoolID string, input CreateInput) (*domain.SchoolEvent, error) {
	if input.Title == "" {
		return nil, fmt.Errorf("title is required")
	}
	if input.StartsAt.IsZero() {
		return nil, fmt.Errorf("starts_at is required")
	}
	if !input.EndsAt.IsZero() && !input.EndsAt.After(input.StartsAt) {
		return nil, fmt.Errorf("ends_at must be after starts_at")
	}
	if input.Capacity < 0 {
		return nil, fmt.Errorf("capacity must not be negative")
	}

	endsAt := input.EndsAt
	if endsAt.IsZero() {
		endsAt = input.StartsAt.Add(2 * time.Hour)
	}

	e := &domain.SchoolEvent{
		ID:            uuid.New().String(),
		SchoolID:      schoolID,
		Title:         input.Title,
		Description:   input.Description,
		Venue:         input.Venue,
		StartsAt:      input.StartsAt,
		EndsAt:        endsAt,
		Capacity:      input.Capacity,
		CoverImageURL: input.CoverImageURL,
		Status:        domain.EventDraft,
	}

	id, err := s.repo.Create(ctx, e)
	if err != nil {
		return nil, err
	}
	e.ID = id
	return e, nil
}

// Update modifies mutable event fields while the event is still editable.
func (s *Service) Update(ctx context.Context, schoolID, id string, u UpdateFields) error {
	e, err := s.repo.Get(ctx, schoolID, id)
	if err != nil {
		return err
	}
	if !e.IsEditable() {
		return ErrNotEditable
	}

	startsAt, endsAt := e.StartsAt, e.EndsAt
	if u.StartsAt != nil {
		startsAt = *u.StartsAt
	}
	if u.EndsAt != nil {
		endsAt = *u.EndsAt
	}
	if !endsAt.After(startsAt) {
		return fmt.Errorf("ends_at must be after starts_at")
	}
	if u.Capacity != nil && *u.Capacity < 0 {
		return fmt.Errorf("capacity must not be negative")
	}

	return s.repo.Update(ctx, schoolID, id, u)
}

// Delete removes a draft event. Published events are cancelled, not deleted,
// so attendees keep their notice trail.
func (s *Service) Delete(ctx context.Context, schoolID, id string) error {
	e, err := s.repo.Get(ctx, schoolID, id)
	if err != nil {
		return err
	}
	if e.Status != domain.EventDraft {
		return ErrNotDraft
	}
	return s.repo.Delete(ctx, schoolID, id)
}

// Publish transitions a draft event to published.
func (s *Service) Publish(ctx context.Context, schoolID, id string) error {
	e, err := s.repo.Get(ctx, schoolID, id)
	if err != nil {
		return err
	}
	if e.Status != domain.EventDraft {
		return ErrInvalidTransition
	}
	return s.repo.UpdateStatus(ctx, schoolID, id, domain.EventPublished)
}

// Cancel transitions an event to cancelled and queues a notice to every
// attendee who hasn't declined. Returns the number of notices queued.
func (s *Service) Cancel(ctx context.Context, schoolID, id string) (int, error) {
	e, err := s.repo.Get(ctx, schoolID, id)
	if err != nil {
		return 0, err
	}
	if e.Status != domain.EventDraft && e.Status != domain.EventPublished {
		return 0, ErrInvalidTransition
	}

	if err := s.repo.UpdateStatus(ctx, schoolID, id, domain.EventCancelled); err != nil {
		return 0, fmt.Errorf("transition to cancelled: %w", err)
	}

	n, err := s.repo.EnqueueCancelNotices(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("enqueue cancel notices: %w", err)
	}
	if n > 0 {
		log.Printf("[events.Service] Event %s cancelled: queued %d notices", id, n)
	}
	return n, nil
}

// RSVP records an attendee's response. Going responses past capacity are
// waitlisted instead of rejected.
func (s *Service) RSVP(ctx context.Context, schoolID, eventID string, input RSVPInput) (*domain.EventRSVP, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if input.Email == "" {
		return nil, fmt.Errorf("email is required")
	}

	e, err := s.repo.Get(ctx, schoolID, eventID)
	if err != nil {
		return nil, err
	}
	if e.Status != domain.EventPublished {
		return nil, ErrNotOpen
	}

	status := domain.RSVPNotGoing
	if input.Attending {
		status = domain.RSVPGoing
		if e.Capacity > 0 && e.GoingCount >= e.Capacity {
			status = domain.RSVPWaitlisted
		}
	}

	r := &domain.EventRSVP{
		ID:      uuid.New().String(),
		EventID: eventID,
		Name:    input.Name,
		Email:   input.Email,
		Status:  status,
	}
	if input.LearnerID != "" {
		r.LearnerID = &input.LearnerID
	}

	if err := s.repo.UpsertRSVP(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// CancelRSVP withdraws an attendee's response.
func (s *Service) CancelRSVP(ctx context.Context, schoolID, eventID, email string) error {
	if _, err := s.repo.Get(ctx, schoolID, eventID); err != nil {
		return err
	}
	return s.repo.DeleteRSVP(ctx, eventID, email)
}

// ListRSVPs returns an event's responses, paged.
func (s *Service) ListRSVPs(ctx context.Context, schoolID, eventID string, f RSVPFilter) ([]domain.EventRSVP, int, error) {
	if _, err := s.repo.Get(ctx, schoolID, eventID); err != nil {
		return nil, 0, err
	}
	return s.repo.ListRSVPs(ctx, eventID, f)
}

// CreateInput holds the fields for creating a new event.
type CreateInput struct {
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Venue         string    `json:"venue"`
	StartsAt      time.Time `json:"starts_at"`
	EndsAt        time.Time `json:"ends_at"`
	Capacity      int       `json:"capacity"`
	CoverImageURL string    `json:"cover_image_url"`
}

// RSVPInput holds the fields for recording an attendance response.
type RSVPInput struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	LearnerID string `json:"learner_id"`
	Attending bool   `json:"attending"`
}
