package activities

import (
	"context"
	"time"

	"github.com/IQTechSolutions/ConectOne-sub011/internal/domain"
)

// Repository defines the data access contract for activity groups and
// memberships.
type Repository interface {
	// Get returns a group with its member count populated.
	Get(ctx context.Context, schoolID, id string) (*domain.ActivityGroup, error)
	List(ctx context.Context, schoolID string, f ListFilter) ([]domain.ActivityGroup, int, error)
	Create(ctx context.Context, g *domain.ActivityGroup) (string, error)
	Update(ctx context.Context, schoolID, id string, u UpdateFields) error

	// Delete removes a group. Returns ErrNotEmpty while members remain.
	Delete(ctx context.Context, schoolID, id string) error

	// Learner returns a school's learner for enrollment checks.
	Learner(ctx context.Context, schoolID, learnerID string) (*domain.Learner, error)

	// AgeBracket returns the age group a group is restricted to.
	AgeBracket(ctx context.Context, ageGroupID string) (*domain.AgeGroup, error)

	// Enroll upserts a membership. The boolean reports whether a new row
	// was added (false means the learner was already a member).
	Enroll(ctx context.Context, groupID, learnerID string) (bool, error)

	// Withdraw removes a membership. Returns ErrNotMember when none exists.
	Withdraw(ctx context.Context, groupID, learnerID string) error

	ListMembers(ctx context.Context, groupID string, f MemberFilter) ([]Member, int, error)
}

// Member is a learner together with when they joined the group.
type Member struct {
	Learner  domain.Learner `json:"learner"`
	JoinedAt time.Time      `json:"joined_at"`
}

// ListFilter controls pagination and filtering for group lists.
type ListFilter struct {
	Category   string
	AgeGroupID string
	ActiveOnly bool
	Limit      int
	Offset     int
}

// MemberFilter controls pagination for member lists.
type MemberFilter struct {
	Limit  int
	Offset int
}

// UpdateFields holds the mutable fields for a group update.
// Nil fields are not applied.
type UpdateFields struct {
	Name        *string
	Description *string
	Category    *string
	Schedule    *string
	Capacity    *int
	AgeGroupID  *string
	Active      *bool
}
