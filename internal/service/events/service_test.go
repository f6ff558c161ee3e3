package events_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/IQTechSolutions/ConectOne-sub011/internal/domain"
	"github.com/IQTechSolutions/ConectOne-sub011/internal/service/events"
)

// memRepo is an in-memory events repository for unit testing.
type memRepo struct {
	mu     sync.Mutex
	events map[string]*domain.SchoolEvent
	rsvps  map[string]*domain.EventRSVP // eventID|email
}

func newMemRepo() *memRepo {
	return &memRepo{
		events: make(map[string]*domain.SchoolEvent),
		rsvps:  make(map[string]*domain.EventRSVP),
	}
}

func (m *memRepo) goingCount(eventID string) int {
	n := 0
	for _, r := range m.rsvps {
		if r.EventID == eventID && r.Status == domain.RSVPGoing {
			n++
		}
	}
	return n
}

func (m *memRepo) Get(_ context.Context, schoolID, id string) (*domain.SchoolEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok || e.SchoolID != schoolID {
		return nil, events.ErrNotFound
	}
	cp := *e
	cp.GoingCount = m.goingCount(id)
	return &cp, nil
}

func (m *memRepo) List(_ context.Context, schoolID string, f events.ListFilter) ([]domain.SchoolEvent, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.SchoolEvent
	for _, e := range m.events {
		if e.SchoolID != schoolID {
			continue
		}
		if f.Status != "" && string(e.Status) != f.Status {
			continue
		}
		if f.UpcomingOnly && e.StartsAt.Before(time.Now()) {
			continue
		}
		out = append(out, *e)
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

func (m *memRepo) Create(_ context.Context, e *domain.SchoolEvent) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.ID == "" {
		return "", fmt.Errorf("id required")
	}
	cp := *e
	m.events[cp.ID] = &cp
	return cp.ID, nil
}

func (m *memRepo) Update(_ context.Context, schoolID, id string, u events.UpdateFields) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok || e.SchoolID != schoolID {
		return events.ErrNotFound
	}
	if u.Title != nil {
		e.Title = *u.Title
	}
	if u.Capacity != nil {
		e.Capacity = *u.Capacity
	}
	if u.StartsAt != nil {
		e.StartsAt = *u.StartsAt
	}
	if u.EndsAt != nil {
		e.EndsAt = *u.EndsAt
	}
	return nil
}

func (m *memRepo) Delete(_ context.Context, schoolID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok || e.SchoolID != schoolID {
		return events.ErrNotFound
	}
	delete(m.events, id)
	return nil
}

func (m *memRepo) UpdateStatus(_ context.Context, schoolID, id string, status domain.EventStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok || e.SchoolID != schoolID {
		return events.ErrNotFound
	}
	e.Status = status
	return nil
}

func (m *memRepo) UpsertRSVP(_ context.Context, r *domain.EventRSVP) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := r.EventID + "|" + r.Email
	if prev, ok := m.rsvps[key]; ok {
		prev.Name = r.Name
		prev.LearnerID = r.LearnerID
		if prev.Status == domain.RSVPNotGoing {
			prev.Status = r.Status
		}
		return nil
	}
	cp := *r
	m.rsvps[key] = &cp
	return nil
}

func (m *memRepo) DeleteRSVP(_ context.Context, eventID, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := eventID + "|" + email
	if _, ok := m.rsvps[key]; !ok {
		return events.ErrRSVPNotFound
	}
	delete(m.rsvps, key)
	return nil
}

func (m *memRepo) ListRSVPs(_ context.Context, eventID string, f events.RSVPFilter) ([]domain.EventRSVP, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.EventRSVP
	for _, r := range m.rsvps {
		if r.EventID != eventID {
			continue
		}
		if f.Status != "" && string(r.Status) != f.Status {
			continue
		}
		out = append(out, *r)
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

func (m *memRepo) EnqueueCancelNotices(_ context.Context, eventID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.rsvps {
		if r.EventID == eventID && r.Status != domain.RSVPNotGoing {
			n++
		}
	}
	return n, nil
}

const testSchool = "school-1"

func seedPublished(t *testing.T, svc *events.Service, capacity int) *domain.SchoolEvent {
	t.Helper()
	e, err := svc.Create(context.Background(), testSchool, events.CreateInput{
		Title:    "Sports Day",
		Venue:    "Main Field",
		StartsAt: time.Now().Add(48 * time.Hour),
		Capacity: capacity,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Publish(context.Background(), testSchool, e.ID); err != nil {
		t.Fatalf("publish: %v", err)
	}
	return e
}

func TestCreateStartsDraft(t *testing.T) {
	svc := events.NewService(newMemRepo())
	e, err := svc.Create(context.Background(), testSchool, events.CreateInput{
		Title:    "Gala",
		StartsAt: time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if e.Status != domain.EventDraft {
		t.Fatalf("expected draft, got %s", e.Status)
	}
	if !e.EndsAt.After(e.StartsAt) {
		t.Fatal("expected a default end time after the start")
	}
}

func TestCreateValidation(t *testing.T) {
	svc := events.NewService(newMemRepo())
	start := time.Now().Add(time.Hour)

	if _, err := svc.Create(context.Background(), testSchool, events.CreateInput{StartsAt: start}); err == nil {
		t.Fatal("expected title error")
	}
	if _, err := svc.Create(context.Background(), testSchool, events.CreateInput{Title: "X"}); err == nil {
		t.Fatal("expected starts_at error")
	}
	if _, err := svc.Create(context.Background(), testSchool, events.CreateInput{
		Title: "X", StartsAt: start, EndsAt: start.Add(-time.Hour),
	}); err == nil {
		t.Fatal("expected window error")
	}
}

func TestRSVPWaitlistOverflow(t *testing.T) {
	svc := events.NewService(newMemRepo())
	e := seedPublished(t, svc, 2)

	for i := 0; i < 2; i++ {
		r, err := svc.RSVP(context.Background(), testSchool, e.ID, events.RSVPInput{
			Name: fmt.Sprintf("Guest %d", i), Email: fmt.Sprintf("g%d@example.com", i), Attending: true,
		})
		if err != nil {
			t.Fatalf("rsvp %d: %v", i, err)
		}
		if r.Status != domain.RSVPGoing {
			t.Fatalf("rsvp %d: expected going, got %s", i, r.Status)
		}
	}

	r, err := svc.RSVP(context.Background(), testSchool, e.ID, events.RSVPInput{
		Name: "Late Guest", Email: "late@example.com", Attending: true,
	})
	if err != nil {
		t.Fatalf("overflow rsvp: %v", err)
	}
	if r.Status != domain.RSVPWaitlisted {
		t.Fatalf("expected waitlisted, got %s", r.Status)
	}
}

func TestRSVPOnDraft(t *testing.T) {
	svc := events.NewService(newMemRepo())
	e, _ := svc.Create(context.Background(), testSchool, events.CreateInput{
		Title: "Gala", StartsAt: time.Now().Add(time.Hour),
	})

	_, err := svc.RSVP(context.Background(), testSchool, e.ID, events.RSVPInput{
		Name: "Guest", Email: "g@example.com", Attending: true,
	})
	if err != events.ErrNotOpen {
		t.Fatalf("expected ErrNotOpen, got %v", err)
	}
}

func TestCancelQueuesNotices(t *testing.T) {
	repo := newMemRepo()
	svc := events.NewService(repo)
	e := seedPublished(t, svc, 0)

	svc.RSVP(context.Background(), testSchool, e.ID, events.RSVPInput{
		Name: "Going", Email: "going@example.com", Attending: true,
	})
	svc.RSVP(context.Background(), testSchool, e.ID, events.RSVPInput{
		Name: "Declined", Email: "declined@example.com", Attending: false,
	})

	n, err := svc.Cancel(context.Background(), testSchool, e.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 notice (decliners are skipped), got %d", n)
	}

	got, _ := svc.Get(context.Background(), testSchool, e.ID)
	if got.Status != domain.EventCancelled {
		t.Fatalf("expected cancelled, got %s", got.Status)
	}

	if _, err := svc.Cancel(context.Background(), testSchool, e.ID); err != events.ErrInvalidTransition {
		t.Fatalf("expected ErrInvalidTransition on second cancel, got %v", err)
	}
}

func TestDeletePublished(t *testing.T) {
	svc := events.NewService(newMemRepo())
	e := seedPublished(t, svc, 0)

	if err := svc.Delete(context.Background(), testSchool, e.ID); err != events.ErrNotDraft {
		t.Fatalf("expected ErrNotDraft, got %v", err)
	}
}

func TestUpdateCancelledEvent(t *testing.T) {
	svc := events.NewService(newMemRepo())
	e := seedPublished(t, svc, 0)
	svc.Cancel(context.Background(), testSchool, e.ID)

	title := "New Title"
	err := svc.Update(context.Background(), testSchool, e.ID, events.UpdateFields{Title: &title})
	if err != events.ErrNotEditable {
		t.Fatalf("expected ErrNotEditable, got %v", err)
	}
}

func TestDuplicateRSVPKeepsSpot(t *testing.T) {
	svc := events.NewService(newMemRepo())
	e := seedPublished(t, svc, 1)

	first, _ := svc.RSVP(context.Background(), testSchool, e.ID, events.RSVPInput{
		Name: "Guest", Email: "g@example.com", Attending: true,
	})
	if first.Status != domain.RSVPGoing {
		t.Fatalf("expected going, got %s", first.Status)
	}

	// Second submit sees the event as full; the stored row must keep its
	// going status rather than demote to waitlisted.
	svc.RSVP(context.Background(), testSchool, e.ID, events.RSVPInput{
		Name: "Guest Renamed", Email: "g@example.com", Attending: true,
	})

	list, _, err := svc.ListRSVPs(context.Background(), testSchool, e.ID, events.RSVPFilter{Limit: 10})
	if err != nil {
		t.Fatalf("list rsvps: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected one rsvp row, got %d", len(list))
	}
	if list[0].Status != domain.RSVPGoing {
		t.Fatalf("expected going after duplicate submit, got %s", list[0].Status)
	}
	if list[0].Name != "Guest Renamed" {
		t.Fatalf("expected refreshed name, got %q", list[0].Name)
	}
}
