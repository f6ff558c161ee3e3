package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/IQTechSolutions/ConectOne-sub011/internal/domain"
	"github.com/IQTechSolutions/ConectOne-sub011/internal/service/events"
)

// EventsRepo implements events.Repository against PostgreSQL.
type EventsRepo struct{ db *sql.DB }

// NewEventsRepo creates a Postgres-backed events repository.
func NewEventsRepo(db *sql.DB) *EventsRepo { return &EventsRepo{db: db} }

func (r *EventsRepo) Get(ctx context.Context, schoolID, id string) (*domain.SchoolEvent, error) {
	e := &domain.SchoolEvent{}
	err := r.db.QueryRowContext(ctx, `
		SELECT e.id, e.school_id, e.title, e.description, e.venue,
		       e.starts_at, e.ends_at, e.capacity, e.cover_image_url, e.status,
		       (SELECT COUNT(*) FROM event_rsvps v WHERE v.event_id = e.id AND v.status = 'going'),
		       e.created_at, e.updated_at
		FROM school_events e
		WHERE e.id = $1 AND e.school_id = $2
	`, id, schoolID).Scan(
		&e.ID, &e.SchoolID, &e.Title, &e.Description, &e.Venue,
		&e.StartsAt, &e.EndsAt, &e.Capacity, &e.CoverImageURL, &e.Status,
		&e.GoingCount, &e.CreatedAt, &e.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, events.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

func (r *EventsRepo) List(ctx context.Context, schoolID string, f events.ListFilter) ([]domain.SchoolEvent, int, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	where := "school_id = $1"
	args := []interface{}{schoolID}
	idx := 2
	if f.Status != "" {
		where += fmt.Sprintf(" AND status = $%d", idx)
		args = append(args, f.Status)
		idx++
	}
	if f.UpcomingOnly {
		where += " AND starts_at >= NOW()"
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM school_events WHERE "+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}

	q := fmt.Sprintf(`
		SELECT e.id, e.school_id, e.title, e.description, e.venue,
		       e.starts_at, e.ends_at, e.capacity, e.cover_image_url, e.status,
		       (SELECT COUNT(*) FROM event_rsvps v WHERE v.event_id = e.id AND v.status = 'going'),
		       e.created_at, e.updated_at
		FROM school_events e
		WHERE %s
		ORDER BY e.starts_at
		LIMIT $%d OFFSET $%d`, where, idx, idx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []domain.SchoolEvent
	for rows.Next() {
		var e domain.SchoolEvent
		if err := rows.Scan(
			&e.ID, &e.SchoolID, &e.Title, &e.Description, &e.Venue,
			&e.StartsAt, &e.EndsAt, &e.Capacity, &e.CoverImageURL, &e.Status,
			&e.GoingCount, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, e)
	}
	return out, total, nil
}

func (r *EventsRepo) Create(ctx context.Context, e *domain.SchoolEvent) (string, error) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO school_events
			(id, school_id, title, description, venue, starts_at, ends_at,
			 capacity, cover_image_url, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
	`, e.ID, e.SchoolID, e.Title, e.Description, e.Venue, e.StartsAt, e.EndsAt,
		e.Capacity, e.CoverImageURL, e.Status)
	if err != nil {
		return "", fmt.Errorf("create event: %w", err)
	}
	return e.ID, nil
}

func (r *EventsRepo) Update(ctx context.Context, schoolID, id string, u events.UpdateFields) error {
	sets := []string{}
	args := []interface{}{}
	idx := 1
	add := func(col string, val interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, idx))
		args = append(args, val)
		idx++
	}

	if u.Title != nil {
		add("title", *u.Title)
	}
	if u.Description != nil {
		add("description", *u.Description)
	}
	if u.Venue != nil {
		add("venue", *u.Venue)
	}
	if u.StartsAt != nil {
		add("starts_at", *u.StartsAt)
	}
	if u.EndsAt != nil {
		add("ends_at", *u.EndsAt)
	}
	if u.Capacity != nil {
		add("capacity", *u.Capacity)
	}
	if u.CoverImageURL != nil {
		add("cover_image_url", *u.CoverImageURL)
	}

	if len(sets) == 0 {
		return nil
	}

	sets = append(sets, "updated_at = NOW()")
	q := fmt.Sprintf("UPDATE school_events SET %s WHERE id = $%d AND school_id = $%d",
		joinComma(sets), idx, idx+1)
	args = append(args, id, schoolID)

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return events.ErrNotFound
	}
	return nil
}

func (r *EventsRepo) Delete(ctx context.Context, schoolID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM school_events WHERE id = $1 AND school_id = $2`, id, schoolID)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return events.ErrNotFound
	}
	return nil
}

func (r *EventsRepo) UpdateStatus(ctx context.Context, schoolID, id string, status domain.EventStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE school_events SET status = $1, updated_at = NOW()
		WHERE id = $2 AND school_id = $3
	`, status, id, schoolID)
	if err != nil {
		return fmt.Errorf("update event status: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return events.ErrNotFound
	}
	return nil
}

func (r *EventsRepo) UpsertRSVP(ctx context.Context, v *domain.EventRSVP) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO event_rsvps (id, event_id, learner_id, name, email, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (event_id, email) DO UPDATE SET
			name = EXCLUDED.name,
			learner_id = EXCLUDED.learner_id,
			status = CASE WHEN event_rsvps.status = 'not_going'
			              THEN EXCLUDED.status ELSE event_rsvps.status END
	`, v.ID, v.EventID, v.LearnerID, v.Name, v.Email, v.Status)
	if err != nil {
		return fmt.Errorf("upsert rsvp: %w", err)
	}
	return nil
}

func (r *EventsRepo) DeleteRSVP(ctx context.Context, eventID, email string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM event_rsvps WHERE event_id = $1 AND email = $2`, eventID, email)
	if err != nil {
		return fmt.Errorf("delete rsvp: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return events.ErrRSVPNotFound
	}
	return nil
}

func (r *EventsRepo) ListRSVPs(ctx context.Context, eventID string, f events.RSVPFilter) ([]domain.EventRSVP, int, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	where := "event_id = $1"
	args := []interface{}{eventID}
	idx := 2
	if f.Status != "" {
		where += fmt.Sprintf(" AND status = $%d", idx)
		args = append(args, f.Status)
		idx++
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM event_rsvps WHERE "+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count rsvps: %w", err)
	}

	q := fmt.Sprintf(`
		SELECT id, event_id, learner_id, name, email, status, created_at
		FROM event_rsvps
		WHERE %s
		ORDER BY created_at
		LIMIT $%d OFFSET $%d`, where, idx, idx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list rsvps: %w", err)
	}
	defer rows.Close()

	var out []domain.EventRSVP
	for rows.Next() {
		var v domain.EventRSVP
		if err := rows.Scan(&v.ID, &v.EventID, &v.LearnerID, &v.Name, &v.Email, &v.Status, &v.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan rsvp: %w", err)
		}
		out = append(out, v)
	}
	return out, total, nil
}

func (r *EventsRepo) EnqueueCancelNotices(ctx context.Context, eventID string) (int, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO notification_outbox
			(id, channel, recipient, recipient_name, subject, body, status, attempts, created_at, updated_at)
		SELECT gen_random_uuid(), 'email', v.email, v.name,
		       'Cancelled: ' || e.title,
		       'Hi ' || v.name || ', the event "' || e.title || '" at ' || e.venue ||
		       ' has been cancelled. We apologise for the inconvenience.',
		       'queued', 0, NOW(), NOW()
		FROM event_rsvps v
		JOIN school_events e ON e.id = v.event_id
		WHERE v.event_id = $1 AND v.status <> 'not_going'
	`, eventID)
	if err != nil {
		return 0, fmt.Errorf("enqueue cancel notices: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
