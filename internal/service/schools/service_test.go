package schools_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/IQTechSolutions/ConectOne-sub011/internal/domain"
	"github.com/IQTechSolutions/ConectOne-sub011/internal/service/schools"
)

// memRepo is an in-memory schools repository for unit testing.
type memRepo struct {
	mu        sync.Mutex
	schools   map[string]*domain.School
	learners  map[string]*domain.Learner
	teachers  map[string]*domain.Teacher
	parents   map[string]*domain.Parent
	links     map[string]string // parentID|learnerID -> relationship
	inGroup   map[string]bool   // learnerID -> belongs to an activity group
}

func newMemRepo() *memRepo {
	return &memRepo{
		schools:  make(map[string]*domain.School),
		learners: make(map[string]*domain.Learner),
		teachers: make(map[string]*domain.Teacher),
		parents:  make(map[string]*domain.Parent),
		links:    make(map[string]string),
		inGroup:  make(map[string]bool),
	}
}

func (m *memRepo) GetSchool(_ context.Context, id string) (*domain.School, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sc, ok := m.schools[id]
	if !ok {
		return nil, schools.ErrSchoolNotFound
	}
	cp := *sc
	return &cp, nil
}

func (m *memRepo) ListSchools(_ context.Context, f schools.SchoolFilter) ([]domain.School, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.School
	for _, sc := range m.schools {
		if f.Search != "" && !strings.Contains(strings.ToLower(sc.Name), strings.ToLower(f.Search)) {
			continue
		}
		out = append(out, *sc)
	}
	total := len(out)
	if f.Offset >= len(out) {
		return nil, total, nil
	}
	end := f.Offset + f.Limit
	if end > len(out) || f.Limit <= 0 {
		end = len(out)
	}
	return out[f.Offset:end], total, nil
}

func (m *memRepo) CreateSchool(_ context.Context, sc *domain.School) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sc.ID == "" {
		return "", fmt.Errorf("id required")
	}
	cp := *sc
	m.schools[cp.ID] = &cp
	return cp.ID, nil
}

func (m *memRepo) UpdateSchool(_ context.Context, id string, u schools.SchoolUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sc, ok := m.schools[id]
	if !ok {
		return schools.ErrSchoolNotFound
	}
	if u.Name != nil {
		sc.Name = *u.Name
	}
	if u.Motto != nil {
		sc.Motto = *u.Motto
	}
	return nil
}

func (m *memRepo) DeleteSchool(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.schools[id]; !ok {
		return schools.ErrSchoolNotFound
	}
	for _, l := range m.learners {
		if l.SchoolID == id {
			return schools.ErrSchoolHasLearners
		}
	}
	delete(m.schools, id)
	return nil
}

func (m *memRepo) GetLearner(_ context.Context, schoolID, id string) (*domain.Learner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.learners[id]
	if !ok || l.SchoolID != schoolID {
		return nil, schools.ErrLearnerNotFound
	}
	cp := *l
	return &cp, nil
}

func (m *memRepo) ListLearners(_ context.Context, schoolID string, f schools.LearnerFilter) ([]domain.Learner, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Learner
	for _, l := range m.learners {
		if l.SchoolID != schoolID {
			continue
		}
		if f.Status != "" && string(l.Status) != f.Status {
			continue
		}
		if f.AgeGroupID != "" && (l.AgeGroupID == nil || *l.AgeGroupID != f.AgeGroupID) {
			continue
		}
		out = append(out, *l)
	}
	total := len(out)
	if f.Offset >= len(out) {
		return nil, total, nil
	}
	end := f.Offset + f.Limit
	if end > len(out) || f.Limit <= 0 {
		end = len(out)
	}
	return out[f.Offset:end], total, nil
}

func (m *memRepo) CreateLearner(_ context.Context, l *domain.Learner) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l.Email != nil {
		for _, other := range m.learners {
			if other.SchoolID == l.SchoolID && other.Email != nil && *other.Email == *l.Email {
				return "", schools.ErrDuplicateEmail
			}
		}
	}
	cp := *l
	m.learners[cp.ID] = &cp
	return cp.ID, nil
}

func (m *memRepo) UpdateLearner(_ context.Context, schoolID, id string, u schools.LearnerUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.learners[id]
	if !ok || l.SchoolID != schoolID {
		return schools.ErrLearnerNotFound
	}
	if u.FirstName != nil {
		l.FirstName = *u.FirstName
	}
	if u.Grade != nil {
		l.Grade = *u.Grade
	}
	return nil
}

func (m *memRepo) ArchiveLearner(_ context.Context, schoolID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.learners[id]
	if !ok || l.SchoolID != schoolID {
		return schools.ErrLearnerNotFound
	}
	if m.inGroup[id] {
		return schools.ErrLearnerEnrolled
	}
	l.Status = domain.LearnerArchived
	return nil
}

func (m *memRepo) GetTeacher(_ context.Context, schoolID, id string) (*domain.Teacher, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.teachers[id]
	if !ok || t.SchoolID != schoolID {
		return nil, schools.ErrTeacherNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memRepo) ListTeachers(_ context.Context, schoolID string, f schools.TeacherFilter) ([]domain.Teacher, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Teacher
	for _, t := range m.teachers {
		if t.SchoolID == schoolID {
			out = append(out, *t)
		}
	}
	total := len(out)
	if f.Offset >= len(out) {
		return nil, total, nil
	}
	end := f.Offset + f.Limit
	if end > len(out) || f.Limit <= 0 {
		end = len(out)
	}
	return out[f.Offset:end], total, nil
}

func (m *memRepo) CreateTeacher(_ context.Context, t *domain.Teacher) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.teachers[cp.ID] = &cp
	return cp.ID, nil
}

func (m *memRepo) UpdateTeacher(_ context.Context, schoolID, id string, u schools.TeacherUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.teachers[id]
	if !ok || t.SchoolID != schoolID {
		return schools.ErrTeacherNotFound
	}
	if u.Subject != nil {
		t.Subject = *u.Subject
	}
	return nil
}

func (m *memRepo) DeleteTeacher(_ context.Context, schoolID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.teachers[id]
	if !ok || t.SchoolID != schoolID {
		return schools.ErrTeacherNotFound
	}
	delete(m.teachers, id)
	return nil
}

func (m *memRepo) GetParent(_ context.Context, id string) (*domain.Parent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.parents[id]
	if !ok {
		return nil, schools.ErrParentNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memRepo) ListParents(_ context.Context, f schools.ParentFilter) ([]domain.Parent, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Parent
	for _, p := range m.parents {
		if f.Search != "" && !strings.Contains(strings.ToLower(p.Email), strings.ToLower(f.Search)) {
			continue
		}
		out = append(out, *p)
	}
	total := len(out)
	if f.Offset >= len(out) {
		return nil, total, nil
	}
	end := f.Offset + f.Limit
	if end > len(out) || f.Limit <= 0 {
		end = len(out)
	}
	return out[f.Offset:end], total, nil
}

func (m *memRepo) CreateParent(_ context.Context, p *domain.Parent) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.parents {
		if other.Email == p.Email {
			return "", schools.ErrDuplicateEmail
		}
	}
	cp := *p
	m.parents[cp.ID] = &cp
	return cp.ID, nil
}

func (m *memRepo) UpdateParent(_ context.Context, id string, u schools.ParentUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.parents[id]
	if !ok {
		return schools.ErrParentNotFound
	}
	if u.PhoneNumber != nil {
		p.PhoneNumber = *u.PhoneNumber
	}
	return nil
}

func (m *memRepo) DeleteParent(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.parents[id]; !ok {
		return schools.ErrParentNotFound
	}
	delete(m.parents, id)
	for key := range m.links {
		if strings.HasPrefix(key, id+"|") {
			delete(m.links, key)
		}
	}
	return nil
}

func (m *memRepo) LinkLearner(_ context.Context, parentID, learnerID, relationship string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.parents[parentID]; !ok {
		return schools.ErrParentNotFound
	}
	if _, ok := m.learners[learnerID]; !ok {
		return schools.ErrLearnerNotFound
	}
	m.links[parentID+"|"+learnerID] = relationship
	return nil
}

func (m *memRepo) UnlinkLearner(_ context.Context, parentID, learnerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := parentID + "|" + learnerID
	if _, ok := m.links[key]; !ok {
		return schools.ErrNotLinked
	}
	delete(m.links, key)
	return nil
}

func (m *memRepo) LearnersOfParent(_ context.Context, parentID string) ([]domain.Learner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Learner
	for key := range m.links {
		if strings.HasPrefix(key, parentID+"|") {
			if l, ok := m.learners[strings.TrimPrefix(key, parentID+"|")]; ok {
				out = append(out, *l)
			}
		}
	}
	return out, nil
}

func (m *memRepo) GuardiansOfLearner(_ context.Context, learnerID string) ([]domain.Guardianship, []domain.Parent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var gs []domain.Guardianship
	var ps []domain.Parent
	for key, rel := range m.links {
		if strings.HasSuffix(key, "|"+learnerID) {
			parentID := strings.TrimSuffix(key, "|"+learnerID)
			gs = append(gs, domain.Guardianship{ParentID: parentID, LearnerID: learnerID, Relationship: rel})
			if p, ok := m.parents[parentID]; ok {
				ps = append(ps, *p)
			}
		}
	}
	return gs, ps, nil
}

func seedSchool(t *testing.T, svc *schools.Service) *domain.School {
	t.Helper()
	sc, err := svc.CreateSchool(context.Background(), schools.CreateSchoolInput{
		Name: "Rondebosch Prep", City: "Cape Town", Province: "Western Cape",
	})
	if err != nil {
		t.Fatalf("create school: %v", err)
	}
	return sc
}

func seedLearner(t *testing.T, svc *schools.Service, schoolID, email string) *domain.Learner {
	t.Helper()
	in := schools.CreateLearnerInput{
		FirstName:   "Thabo",
		LastName:    "Nkosi",
		Email:       email,
		DateOfBirth: time.Date(2014, 3, 12, 0, 0, 0, 0, time.UTC),
		Grade:       "5",
	}
	l, err := svc.CreateLearner(context.Background(), schoolID, in)
	if err != nil {
		t.Fatalf("create learner: %v", err)
	}
	return l
}

func TestCreateSchool(t *testing.T) {
	svc := schools.NewService(newMemRepo())
	sc := seedSchool(t, svc)
	if sc.ID == "" {
		t.Fatal("expected generated id")
	}

	got, err := svc.GetSchool(context.Background(), sc.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Rondebosch Prep" {
		t.Fatalf("expected name round-trip, got %q", got.Name)
	}
}

func TestCreateSchoolValidation(t *testing.T) {
	svc := schools.NewService(newMemRepo())
	_, err := svc.CreateSchool(context.Background(), schools.CreateSchoolInput{})
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestDeleteSchoolWithLearners(t *testing.T) {
	svc := schools.NewService(newMemRepo())
	sc := seedSchool(t, svc)
	seedLearner(t, svc, sc.ID, "")

	err := svc.DeleteSchool(context.Background(), sc.ID)
	if err != schools.ErrSchoolHasLearners {
		t.Fatalf("expected ErrSchoolHasLearners, got %v", err)
	}

	if _, err := svc.GetSchool(context.Background(), sc.ID); err != nil {
		t.Fatalf("school should survive a blocked delete: %v", err)
	}
}

func TestCreateLearnerFutureDOB(t *testing.T) {
	svc := schools.NewService(newMemRepo())
	sc := seedSchool(t, svc)

	_, err := svc.CreateLearner(context.Background(), sc.ID, schools.CreateLearnerInput{
		FirstName:   "Lerato",
		LastName:    "Dlamini",
		DateOfBirth: time.Now().AddDate(1, 0, 0),
	})
	if err == nil {
		t.Fatal("expected error for future date of birth")
	}
}

func TestCreateLearnerDuplicateEmail(t *testing.T) {
	svc := schools.NewService(newMemRepo())
	sc := seedSchool(t, svc)
	seedLearner(t, svc, sc.ID, "thabo@example.com")

	_, err := svc.CreateLearner(context.Background(), sc.ID, schools.CreateLearnerInput{
		FirstName:   "Sipho",
		LastName:    "Nkosi",
		Email:       "thabo@example.com",
		DateOfBirth: time.Date(2013, 6, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != schools.ErrDuplicateEmail {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestArchiveLearner(t *testing.T) {
	repo := newMemRepo()
	svc := schools.NewService(repo)
	sc := seedSchool(t, svc)
	l := seedLearner(t, svc, sc.ID, "")

	if err := svc.ArchiveLearner(context.Background(), sc.ID, l.ID); err != nil {
		t.Fatalf("archive: %v", err)
	}

	got, err := svc.GetLearner(context.Background(), sc.ID, l.ID)
	if err != nil {
		t.Fatalf("archived learner must stay readable: %v", err)
	}
	if got.Status != domain.LearnerArchived {
		t.Fatalf("expected archived, got %s", got.Status)
	}
}

func TestArchiveLearnerInActivityGroup(t *testing.T) {
	repo := newMemRepo()
	svc := schools.NewService(repo)
	sc := seedSchool(t, svc)
	l := seedLearner(t, svc, sc.ID, "")
	repo.inGroup[l.ID] = true

	err := svc.ArchiveLearner(context.Background(), sc.ID, l.ID)
	if err != schools.ErrLearnerEnrolled {
		t.Fatalf("expected ErrLearnerEnrolled, got %v", err)
	}
}

func TestListLearnersStatusFilter(t *testing.T) {
	svc := schools.NewService(newMemRepo())
	sc := seedSchool(t, svc)
	l := seedLearner(t, svc, sc.ID, "a@example.com")
	seedLearner(t, svc, sc.ID, "b@example.com")
	svc.ArchiveLearner(context.Background(), sc.ID, l.ID)

	list, total, err := svc.ListLearners(context.Background(), sc.ID, schools.LearnerFilter{
		Status: string(domain.LearnerEnrolled), Limit: 10,
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 || len(list) != 1 {
		t.Fatalf("expected 1 enrolled learner, got %d (total %d)", len(list), total)
	}
}

func TestCreateTeacherValidation(t *testing.T) {
	svc := schools.NewService(newMemRepo())
	sc := seedSchool(t, svc)

	_, err := svc.CreateTeacher(context.Background(), sc.ID, schools.CreateTeacherInput{
		FirstName: "Anele", LastName: "Mbeki",
	})
	if err == nil {
		t.Fatal("expected email validation error")
	}
}

func TestParentDuplicateEmail(t *testing.T) {
	svc := schools.NewService(newMemRepo())

	_, err := svc.CreateParent(context.Background(), schools.CreateParentInput{
		FirstName: "Naledi", LastName: "Nkosi", Email: "naledi@example.com",
	})
	if err != nil {
		t.Fatalf("create parent: %v", err)
	}

	_, err = svc.CreateParent(context.Background(), schools.CreateParentInput{
		FirstName: "N", LastName: "K", Email: "naledi@example.com",
	})
	if err != schools.ErrDuplicateEmail {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestLinkAndUnlink(t *testing.T) {
	svc := schools.NewService(newMemRepo())
	sc := seedSchool(t, svc)
	l := seedLearner(t, svc, sc.ID, "")
	p, err := svc.CreateParent(context.Background(), schools.CreateParentInput{
		FirstName: "Naledi", LastName: "Nkosi", Email: "naledi@example.com",
	})
	if err != nil {
		t.Fatalf("create parent: %v", err)
	}

	if err := svc.LinkLearner(context.Background(), p.ID, l.ID, "mother"); err != nil {
		t.Fatalf("link: %v", err)
	}

	children, err := svc.LearnersOfParent(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("learners of parent: %v", err)
	}
	if len(children) != 1 || children[0].ID != l.ID {
		t.Fatalf("expected the linked learner, got %+v", children)
	}

	gs, ps, err := svc.GuardiansOfLearner(context.Background(), l.ID)
	if err != nil {
		t.Fatalf("guardians: %v", err)
	}
	if len(gs) != 1 || gs[0].Relationship != "mother" {
		t.Fatalf("expected one mother guardianship, got %+v", gs)
	}
	if len(ps) != 1 || ps[0].ID != p.ID {
		t.Fatalf("expected the parent record back, got %+v", ps)
	}

	if err := svc.UnlinkLearner(context.Background(), p.ID, l.ID); err != nil {
		t.Fatalf("unlink: %v", err)
	}
	if err := svc.UnlinkLearner(context.Background(), p.ID, l.ID); err != schools.ErrNotLinked {
		t.Fatalf("expected ErrNotLinked on second unlink, got %v", err)
	}
}

func TestLinkDefaultsRelationship(t *testing.T) {
	svc := schools.NewService(newMemRepo())
	sc := seedSchool(t, svc)
	l := seedLearner(t, svc, sc.ID, "")
	p, _ := svc.CreateParent(context.Background(), schools.CreateParentInput{
		FirstName: "Sam", LastName: "Botha", Email: "sam@example.com",
	})

	if err := svc.LinkLearner(context.Background(), p.ID, l.ID, ""); err != nil {
		t.Fatalf("link: %v", err)
	}

	gs, _, _ := svc.GuardiansOfLearner(context.Background(), l.ID)
	if len(gs) != 1 || gs[0].Relationship != "guardian" {
		t.Fatalf("expected default guardian label, got %+v", gs)
	}
}

func TestLearnersOfParentUnknownParent(t *testing.T) {
	svc := schools.NewService(newMemRepo())
	_, err := svc.LearnersOfParent(context.Background(), "nonexistent")
	if err != schools.ErrParentNotFound {
		t.Fatalf("expected ErrParentNotFound, got %v", err)
	}
}
