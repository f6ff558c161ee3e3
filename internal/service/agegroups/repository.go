package agegroups

import (
	"context"

	"github.com/IQTechSolutions/ConectOne-sub011/internal/domain"
)

// Repository defines the data access contract for age groups.
type Repository interface {
	Get(ctx context.Context, schoolID, id string) (*domain.AgeGroup, error)
	List(ctx context.Context, schoolID string, f ListFilter) ([]domain.AgeGroup, int, error)

	// Create inserts an age group. Returns ErrDuplicateName when the school
	// already has a group with the same name.
	Create(ctx context.Context, g *domain.AgeGroup) (string, error)
	Update(ctx context.Context, schoolID, id string, u UpdateFields) error

	// Delete removes an age group. Returns ErrInUse while an activity group
	// references it.
	Delete(ctx context.Context, schoolID, id string) error
}

// ListFilter controls pagination and filtering for age group lists.
type ListFilter struct {
	ActiveOnly bool
	Limit      int
	Offset     int
}

// UpdateFields holds the mutable fields for an age group update.
// Nil fields are not applied.
type UpdateFields struct {
	Name   *string
	MinAge *int
	MaxAge *int
	Active *bool
}
