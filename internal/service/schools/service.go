package schools

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/IQTechSolutions/ConectOne-sub011/internal/domain"
)

// Service implements school and people business logic. All public methods
// are safe for concurrent use if the underlying repository is
// concurrency-safe.
type Service struct {
	repo Repository
}

// NewService creates a schools service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetSchool returns a single school.
func (s *Service) GetSchool(ctx context.Context, id string) (*domain.School, error) {
	return s.repo.GetSchool(ctx, id)
}

// ListSchools returns schools matching the filter.
func (s *Service) ListSchools(ctx context.Context, f SchoolFilter) ([]domain.School, int, error) {
	return s.repo.ListSchools(ctx, f)
}

// CreateSchool validates and persists a new school.
func (s *Service) CreateSchool(ctx context.Context, input CreateSchoolInput) (*domain.School, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("name is required")
	}

	sc := &domain.School{
		ID:           uuid.New().String(),
		Name:         input.Name,
		Motto:        input.Motto,
		EmailAddress: input.EmailAddress,
		PhoneNumber:  input.PhoneNumber,
		Website:      input.Website,
		AddressLine1: input.AddressLine1,
		AddressLine2: input.AddressLine2,
		City:         input.City,
		Province:     input.Province,
		PostalCode:   input.PostalCode,
	}

	id, err := s.repo.CreateSchool(ctx, sc)
	if err != nil {
		return nil, err
	}
	sc.ID = id
	return sc, nil
}

// UpdateSchool modifies mutable school fields.
func (s *Service) UpdateSchool(ctx context.Context, id string, u SchoolUpdate) error {
	return s.repo.UpdateSchool(ctx, id, u)
}

// DeleteSchool removes a school. Fails while enrolled learners remain so a
// school cannot vanish from under its people.
func (s *Service) DeleteSchool(ctx context.Context, id string) error {
	return s.repo.DeleteSchool(ctx, id)
}

// GetLearner returns a learner scoped to a school.
func (s *Service) GetLearner(ctx context.Context, schoolID, id string) (*domain.Learner, error) {
	return s.repo.GetLearner(ctx, schoolID, id)
}

// ListLearners returns a school's learners matching the filter.
func (s *Service) ListLearners(ctx context.Context, schoolID string, f LearnerFilter) ([]domain.Learner, int, error) {
	return s.repo.ListLearners(ctx, schoolID, f)
}

// CreateLearner validates and persists a new learner in enrolled status.
func (s *Service) CreateLearner(ctx context.Context, schoolID string, input CreateLearnerInput) (*domain.Learner, error) {
	if input.FirstName == "" {
		return nil, fmt.Errorf("first_name is required")
	}
	if input.LastName == "" {
		return nil, fmt.Errorf("last_name is required")
	}
	if input.DateOfBirth.IsZero() {
		return nil, fmt.Errorf("date_of_birth is required")
	}
	if !input.DateOfBirth.Before(time.Now()) {
		return nil, fmt.Errorf("date_of_birth must be in the past")
	}

	l := &domain.Learner{
		ID:          uuid.New().String(),
		SchoolID:    schoolID,
		FirstName:   input.FirstName,
		LastName:    input.LastName,
		DateOfBirth: input.DateOfBirth,
		Grade:       input.Grade,
		Status:      domain.LearnerEnrolled,
	}
	if input.Email != "" {
		l.Email = &input.Email
	}
	if input.AgeGroupID != "" {
		l.AgeGroupID = &input.AgeGroupID
	}

	id, err := s.repo.CreateLearner(ctx, l)
	if err != nil {
		return nil, err
	}
	l.ID = id
	return l, nil
}

// UpdateLearner modifies mutable learner fields.
func (s *Service) UpdateLearner(ctx context.Context, schoolID, id string, u LearnerUpdate) error {
	return s.repo.UpdateLearner(ctx, schoolID, id, u)
}

// ArchiveLearner retires a learner record. Learner rows are never
// hard-deleted; attendance history and guardianships stay intact.
func (s *Service) ArchiveLearner(ctx context.Context, schoolID, id string) error {
	return s.repo.ArchiveLearner(ctx, schoolID, id)
}

// GetTeacher returns a teacher scoped to a school.
func (s *Service) GetTeacher(ctx context.Context, schoolID, id string) (*domain.Teacher, error) {
	return s.repo.GetTeacher(ctx, schoolID, id)
}

// ListTeachers returns a school's teachers matching the filter.
func (s *Service) ListTeachers(ctx context.Context, schoolID string, f TeacherFilter) ([]domain.Teacher, int, error) {
	return s.repo.ListTeachers(ctx, schoolID, f)
}

// CreateTeacher validates and persists a new teacher.
func (s *Service) CreateTeacher(ctx context.Context, schoolID string, input CreateTeacherInput) (*domain.Teacher, error) {
	if input.FirstName == "" {
		return nil, fmt.Errorf("first_name is required")
	}
	if input.LastName == "" {
		return nil, fmt.Errorf("last_name is required")
	}
	if input.Email == "" {
		return nil, fmt.Errorf("email is required")
	}

	t := &domain.Teacher{
		ID:          uuid.New().String(),
		SchoolID:    schoolID,
		FirstName:   input.FirstName,
		LastName:    input.LastName,
		Email:       input.Email,
		PhoneNumber: input.PhoneNumber,
		Subject:     input.Subject,
	}

	id, err := s.repo.CreateTeacher(ctx, t)
	if err != nil {
		return nil, err
	}
	t.ID = id
	return t, nil
}

// UpdateTeacher modifies mutable teacher fields.
func (s *Service) UpdateTeacher(ctx context.Context, schoolID, id string, u TeacherUpdate) error {
	return s.repo.UpdateTeacher(ctx, schoolID, id, u)
}

// DeleteTeacher removes a teacher.
func (s *Service) DeleteTeacher(ctx context.Context, schoolID, id string) error {
	return s.repo.DeleteTeacher(ctx, schoolID, id)
}

// GetParent returns a parent.
func (s *Service) GetParent(ctx context.Context, id string) (*domain.Parent, error) {
	return s.repo.GetParent(ctx, id)
}

// ListParents returns parents matching the filter.
func (s *Service) ListParents(ctx context.Context, f ParentFilter) ([]domain.Parent, int, error) {
	return s.repo.ListParents(ctx, f)
}

// CreateParent validates and persists a new parent. Parents are
// enterprise-level, so the email must be unique across the whole platform.
func (s *Service) CreateParent(ctx context.Context, input CreateParentInput) (*domain.Parent, error) {
	if input.FirstName == "" {
		return nil, fmt.Errorf("first_name is required")
	}
	if input.LastName == "" {
		return nil, fmt.Errorf("last_name is required")
	}
	if input.Email == "" {
		return nil, fmt.Errorf("email is required")
	}

	p := &domain.Parent{
		ID:          uuid.New().String(),
		FirstName:   input.FirstName,
		LastName:    input.LastName,
		Email:       input.Email,
		PhoneNumber: input.PhoneNumber,
	}

	id, err := s.repo.CreateParent(ctx, p)
	if err != nil {
		return nil, err
	}
	p.ID = id
	return p, nil
}

// UpdateParent modifies mutable parent fields.
func (s *Service) UpdateParent(ctx context.Context, id string, u ParentUpdate) error {
	return s.repo.UpdateParent(ctx, id, u)
}

// DeleteParent removes a parent and any guardianships pointing at it.
func (s *Service) DeleteParent(ctx context.Context, id string) error {
	return s.repo.DeleteParent(ctx, id)
}

// LinkLearner records a guardianship between a parent and a learner.
// Linking an already linked pair updates the relationship label. An empty
// relationship defaults to "guardian".
func (s *Service) LinkLearner(ctx context.Context, parentID, learnerID, relationship string) error {
	if relationship == "" {
		relationship = "guardian"
	}
	return s.repo.LinkLearner(ctx, parentID, learnerID, relationship)
}

// UnlinkLearner removes a guardianship.
func (s *Service) UnlinkLearner(ctx context.Context, parentID, learnerID string) error {
	return s.repo.UnlinkLearner(ctx, parentID, learnerID)
}

// LearnersOfParent returns the learners a parent is guardian of, across
// all schools.
func (s *Service) LearnersOfParent(ctx context.Context, parentID string) ([]domain.Learner, error) {
	if _, err := s.repo.GetParent(ctx, parentID); err != nil {
		return nil, err
	}
	return s.repo.LearnersOfParent(ctx, parentID)
}

// GuardiansOfLearner returns the parents linked to a learner together with
// their relationship labels.
func (s *Service) GuardiansOfLearner(ctx context.Context, learnerID string) ([]domain.Guardianship, []domain.Parent, error) {
	return s.repo.GuardiansOfLearner(ctx, learnerID)
}

// CreateSchoolInput holds the fields for creating a new school.
type CreateSchoolInput struct {
	Name         string `json:"name"`
	Motto        string `json:"motto"`
	EmailAddress string `json:"email_address"`
	PhoneNumber  string `json:"phone_number"`
	Website      string `json:"website"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2"`
	City         string `json:"city"`
	Province     string `json:"province"`
	PostalCode   string `json:"postal_code"`
}

// CreateLearnerInput holds the fields for creating a new learner.
type CreateLearnerInput struct {
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Email       string    `json:"email"`
	DateOfBirth time.Time `json:"date_of_birth"`
	Grade       string    `json:"grade"`
	AgeGroupID  string    `json:"age_group_id"`
}

// CreateTeacherInput holds the fields for creating a new teacher.
type CreateTeacherInput struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	Subject     string `json:"subject"`
}

// CreateParentInput holds the fields for creating a new parent.
type CreateParentInput struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
}
