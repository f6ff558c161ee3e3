package agegroups

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/IQTechSolutions/ConectOne-sub011/internal/domain"
)

// Service implements age group business logic.
type Service struct {
	repo Repository
}

// NewService creates an age group service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns a single age group.
func (s *Service) Get(ctx context.Context, schoolID, id string) (*domain.AgeGroup, error) {
	return s.repo.Get(ctx, schoolID, id)
}

// List returns a school's age groups matching the filter.
func (s *Service) List(ctx context.Context, schoolID string, f ListFilter) ([]domain.AgeGroup, int, error) {
	return s.repo.List(ctx, schoolID, f)
}

// Create validates and persists a new age group.
func (s *Service) Create(ctx context.Context, schoolID string, input CreateInput) (*domain.AgeGroup, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if err := validateRange(input.MinAge, input.MaxAge); err != nil {
		return nil, err
	}

	g := &domain.AgeGroup{
		ID:       uuid.New().String(),
		SchoolID: schoolID,
		Name:     input.Name,
		MinAge:   input.MinAge,
		MaxAge:   input.MaxAge,
		Active:   true,
	}

	id, err := s.repo.Create(ctx, g)
	if err != nil {
		return nil, err
	}
	g.ID = id
	return g, nil
}

// Update modifies mutable age group fields. When only one bound changes the
// other is read back first so the range check always sees the full bracket.
func (s *Service) Update(ctx context.Context, schoolID, id string, u UpdateFields) error {
	if u.MinAge != nil || u.MaxAge != nil {
		cur, err := s.repo.Get(ctx, schoolID, id)
		if err != nil {
			return err
		}
		minAge, maxAge := cur.MinAge, cur.MaxAge
		if u.MinAge != nil {
			minAge = *u.MinAge
		}
		if u.MaxAge != nil {
			maxAge = *u.MaxAge
		}
		if err := validateRange(minAge, maxAge); err != nil {
			return err
		}
	}
	return s.repo.Update(ctx, schoolID, id, u)
}

// Delete removes an age group. Fails while activity groups reference it.
func (s *Service) Delete(ctx context.Context, schoolID, id string) error {
	return s.repo.Delete(ctx, schoolID, id)
}

func validateRange(minAge, maxAge int) error {
	if minAge < 0 || maxAge > 100 {
		return fmt.Errorf("ages must be between 0 and 100")
	}
	if minAge > maxAge {
		return fmt.Errorf("min_age must not exceed max_age")
	}
	return nil
}

// CreateInput holds the fields for creating a new age group.
type CreateInput struct {
	Name   string `json:"name"`
	MinAge int    `json:"min_age"`
	MaxAge int    `json:"max_age"`
}
