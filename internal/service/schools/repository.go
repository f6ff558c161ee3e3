package schools

import (
	"context"

	"github.com/IQTechSolutions/ConectOne-sub011/internal/domain"
)

// Repository defines the data access contract for schools and their people.
// Implementations must be safe for concurrent use.
type Repository interface {
	// GetSchool returns a single school. Returns ErrSchoolNotFound if it
	// doesn't exist.
	GetSchool(ctx context.Context, id string) (*domain.School, error)

	// ListSchools returns schools matching the filter, ordered by name.
	ListSchools(ctx context.Context, f SchoolFilter) ([]domain.School, int, error)

	// CreateSchool inserts a new school and returns its ID.
	CreateSchool(ctx context.Context, s *domain.School) (string, error)

	// UpdateSchool modifies a school. Only non-nil fields are applied.
	UpdateSchool(ctx context.Context, id string, u SchoolUpdate) error

	// DeleteSchool removes a school. Returns ErrSchoolHasLearners while any
	// learner row references it.
	DeleteSchool(ctx context.Context, id string) error

	// GetLearner returns a learner scoped to a school.
	GetLearner(ctx context.Context, schoolID, id string) (*domain.Learner, error)

	// ListLearners returns a school's learners matching the filter.
	ListLearners(ctx context.Context, schoolID string, f LearnerFilter) ([]domain.Learner, int, error)

	// CreateLearner inserts a learner. Returns ErrDuplicateEmail when the
	// email is already used by another learner at the school.
	CreateLearner(ctx context.Context, l *domain.Learner) (string, error)

	// UpdateLearner modifies a learner. Only non-nil fields are applied.
	UpdateLearner(ctx context.Context, schoolID, id string, u LearnerUpdate) error

	// ArchiveLearner sets the learner's status to archived. Returns
	// ErrLearnerEnrolled while the learner belongs to an activity group.
	ArchiveLearner(ctx context.Context, schoolID, id string) error

	GetTeacher(ctx context.Context, schoolID, id string) (*domain.Teacher, error)
	ListTeachers(ctx context.Context, schoolID string, f TeacherFilter) ([]domain.Teacher, int, error)
	CreateTeacher(ctx context.Context, t *domain.Teacher) (string, error)
	UpdateTeacher(ctx context.Context, schoolID, id string, u TeacherUpdate) error
	DeleteTeacher(ctx context.Context, schoolID, id string) error

	GetParent(ctx context.Context, id string) (*domain.Parent, error)
	ListParents(ctx context.Context, f ParentFilter) ([]domain.Parent, int, error)
	CreateParent(ctx context.Context, p *domain.Parent) (string, error)
	UpdateParent(ctx context.Context, id string, u ParentUpdate) error
	DeleteParent(ctx context.Context, id string) error

	// LinkLearner records a guardianship; linking the same pair twice
	// updates the relationship label instead of erroring.
	LinkLearner(ctx context.Context, parentID, learnerID, relationship string) error

	// UnlinkLearner removes a guardianship. Returns ErrNotLinked when no
	// link exists.
	UnlinkLearner(ctx context.Context, parentID, learnerID string) error

	// LearnersOfParent returns the learners a parent is guardian of.
	LearnersOfParent(ctx context.Context, parentID string) ([]domain.Learner, error)

	// GuardiansOfLearner returns the parents linked to a learner.
	GuardiansOfLearner(ctx context.Context, learnerID string) ([]domain.Guardianship, []domain.Parent, error)
}

// SchoolFilter controls pagination and filtering for school lists.
type SchoolFilter struct {
	Search string
	Limit  int
	Offset int
}

// LearnerFilter controls pagination and filtering for learner lists.
type LearnerFilter struct {
	Status     string
	AgeGroupID string
	Search     string
	Limit      int
	Offset     int
}

// TeacherFilter controls pagination and filtering for teacher lists.
type TeacherFilter struct {
	Search string
	Limit  int
	Offset int
}

// ParentFilter controls pagination and filtering for parent lists.
type ParentFilter struct {
	Search string
	Limit  int
	Offset int
}

// SchoolUpdate holds the mutable fields for a school update.
// Nil fields are not applied.
type SchoolUpdate struct {
	Name         *string
	Motto        *string
	EmailAddress *string
	PhoneNumber  *string
	Website      *string
	AddressLine1 *string
	AddressLine2 *string
	City         *string
	Province     *string
	PostalCode   *string
	CrestURL     *string
}

// LearnerUpdate holds the mutable fields for a learner update.
type LearnerUpdate struct {
	FirstName  *string
	LastName   *string
	Email      *string
	Grade      *string
	AgeGroupID *string
	PhotoURL   *string
}

// TeacherUpdate holds the mutable fields for a teacher update.
type TeacherUpdate struct {
	FirstName   *string
	LastName    *string
	Email       *string
	PhoneNumber *string
	Subject     *string
	PhotoURL    *string
}

// ParentUpdate holds the mutable fields for a parent update.
type ParentUpdate struct {
	FirstName   *string
	LastName    *string
	Email       *string
	PhoneNumber *string
}
