package activities

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/IQTechSolutions/ConectOne-sub011/internal/domain"
)

// Service implements activity group business logic.
type Service struct {
	repo Repository
}

// NewService creates an activities service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns a single group with its member count.
func (s *Service) Get(ctx context.Context, schoolID, id string) (*domain.ActivityGroup, error) {
	return s.repo.Get(ctx, schoolID, id)
}

// List returns a school's groups matching the filter.
func (s *Service) List(ctx context.Context, schoolID string, f ListFilter) ([]domain.ActivityGroup, int, error) {
	return s.repo.List(ctx, schoolID, f)
}

// Create validates and persists a new activity group.
func (s *Service) Create(ctx context.Context, schoolID string, input CreateInput) (*domain.ActivityGroup, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if input.Capacity < 0 {
		return nil, fmt.Errorf("capacity must not be negative")
	}

	g := &domain.ActivityGroup{
		ID:          uuid.New().String(),
		SchoolID:    schoolID,
		Name:        input.Name,
		Description: input.Description,
		Category:    input.Category,
		Schedule:    input.Schedule,
		Capacity:    input.Capacity,
		Active:      true,
	}
	if input.AgeGroupID != "" {
		g.AgeGroupID = &input.AgeGroupID
	}

	id, err := s.repo.Create(ctx, g)
	if err != nil {
		return nil, err
	}
	g.ID = id
	return g, nil
}

// Update modifies mutable group fields.
func (s *Service) Update(ctx context.Context, schoolID, id string, u UpdateFields) error {
	if u.Capacity != nil && *u.Capacity < 0 {
		return fmt.Errorf("capacity must not be negative")
	}
	return s.repo.Update(ctx, schoolID, id, u)
}

// Delete removes a group. Fails while members remain so admins withdraw
// learners deliberately instead of orphaning memberships.
func (s *Service) Delete(ctx context.Context, schoolID, id string) error {
	return s.repo.Delete(ctx, schoolID, id)
}

// Enroll adds a learner to a group after capacity and age checks. Enrolling
// an existing member is a no-op.
func (s *Service) Enroll(ctx context.Context, schoolID, groupID, learnerID string) error {
	g, err := s.repo.Get(ctx, schoolID, groupID)
	if err != nil {
		return err
	}

	l, err := s.repo.Learner(ctx, schoolID, learnerID)
	if err != nil {
		return err
	}
	if l.Status != domain.LearnerEnrolled {
		return fmt.Errorf("learner %s %s is archived", l.FirstName, l.LastName)
	}

	if g.AgeGroupID != nil {
		bracket, err := s.repo.AgeBracket(ctx, *g.AgeGroupID)
		if err != nil {
			return fmt.Errorf("resolve age group: %w", err)
		}
		age := l.AgeAt(time.Now())
		if !bracket.Contains(age) {
			return fmt.Errorf("learner is %d, %s accepts ages %d to %d",
				age, bracket.Name, bracket.MinAge, bracket.MaxAge)
		}
	}

	if !g.HasSpace() {
		return ErrFull
	}

	_, err = s.repo.Enroll(ctx, groupID, learnerID)
	return err
}

// Withdraw removes a learner from a group.
func (s *Service) Withdraw(ctx context.Context, schoolID, groupID, learnerID string) error {
	if _, err := s.repo.Get(ctx, schoolID, groupID); err != nil {
		return err
	}
	return s.repo.Withdraw(ctx, groupID, learnerID)
}

// ListMembers returns a group's members, paged.
func (s *Service) ListMembers(ctx context.Context, schoolID, groupID string, f MemberFilter) ([]Member, int, error) {
	if _, err := s.repo.Get(ctx, schoolID, groupID); err != nil {
		return nil, 0, err
	}
	return s.repo.ListMembers(ctx, groupID, f)
}

// CreateInput holds the fields for creating a new activity group.
type CreateInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Schedule    string `json:"schedule"`
	Capacity    int    `json:"capacity"`
	AgeGroupID  string `json:"age_group_id"`
}
