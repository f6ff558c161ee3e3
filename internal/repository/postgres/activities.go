package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/IQTechSolutions/ConectOne-sub011/internal/domain"
	"github.com/IQTechSolutions/ConectOne-sub011/internal/service/activities"
)

// ActivitiesRepo implements activities.Repository against PostgreSQL.
type ActivitiesRepo struct{ db *sql.DB }

// NewActivitiesRepo creates a Postgres-backed activities repository.
func NewActivitiesRepo(db *sql.DB) *ActivitiesRepo { return &ActivitiesRepo{db: db} }

func (r *ActivitiesRepo) Get(ctx context.Context, schoolID, id string) (*domain.ActivityGroup, error) {
	g := &domain.ActivityGroup{}
	err := r.db.QueryRowContext(ctx, `
		SELECT a.id, a.school_id, a.age_group_id, a.name, a.description, a.category,
		       a.schedule, a.capacity, a.active,
		       (SELECT COUNT(*) FROM activity_memberships m WHERE m.activity_group_id = a.id),
		       a.created_at, a.updated_at
		FROM activity_groups a
		WHERE a.id = $1 AND a.school_id = $2
	`, id, schoolID).Scan(
		&g.ID, &g.SchoolID, &g.AgeGroupID, &g.Name, &g.Description, &g.Category,
		&g.Schedule, &g.Capacity, &g.Active, &g.MemberCount,
		&g.CreatedAt, &g.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, activities.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get activity group: %w", err)
	}
	return g, nil
}

func (r *ActivitiesRepo) List(ctx context.Context, schoolID string, f activities.ListFilter) ([]domain.ActivityGroup, int, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	where := "school_id = $1"
	args := []interface{}{schoolID}
	idx := 2
	if f.Category != "" {
		where += fmt.Sprintf(" AND category = $%d", idx)
		args = append(args, f.Category)
		idx++
	}
	if f.AgeGroupID != "" {
		where += fmt.Sprintf(" AND age_group_id = $%d", idx)
		args = append(args, f.AgeGroupID)
		idx++
	}
	if f.ActiveOnly {
		where += " AND active = true"
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM activity_groups WHERE "+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count activity groups: %w", err)
	}

	q := fmt.Sprintf(`
		SELECT a.id, a.school_id, a.age_group_id, a.name, a.description, a.category,
		       a.schedule, a.capacity, a.active,
		       (SELECT COUNT(*) FROM activity_memberships m WHERE m.activity_group_id = a.id),
		       a.created_at, a.updated_at
		FROM activity_groups a
		WHERE %s
		ORDER BY a.name
		LIMIT $%d OFFSET $%d`, where, idx, idx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list activity groups: %w", err)
	}
	defer rows.Close()

	var out []domain.ActivityGroup
	for rows.Next() {
		var g domain.ActivityGroup
		if err := rows.Scan(
			&g.ID, &g.SchoolID, &g.AgeGroupID, &g.Name, &g.Description, &g.Category,
			&g.Schedule, &g.Capacity, &g.Active, &g.MemberCount,
			&g.CreatedAt, &g.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan activity group: %w", err)
		}
		out = append(out, g)
	}
	return out, total, nil
}

func (r *ActivitiesRepo) Create(ctx context.Context, g *domain.ActivityGroup) (string, error) {
	if g.ID == "" {
		g.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO activity_groups
			(id, school_id, age_group_id, name, description, category,
			 schedule, capacity, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
	`, g.ID, g.SchoolID, g.AgeGroupID, g.Name, g.Description, g.Category,
		g.Schedule, g.Capacity, g.Active)
	if err != nil {
		return "", fmt.Errorf("create activity group: %w", err)
	}
	return g.ID, nil
}

func (r *ActivitiesRepo) Update(ctx context.Context, schoolID, id string, u activities.UpdateFields) error {
	sets := []string{}
	args := []interface{}{}
	idx := 1
	add := func(col string, val interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, idx))
		args = append(args, val)
		idx++
	}

	if u.Name != nil {
		add("name", *u.Name)
	}
	if u.Description != nil {
		add("description", *u.Description)
	}
	if u.Category != nil {
		add("category", *u.Category)
	}
	if u.Schedule != nil {
		add("schedule", *u.Schedule)
	}
	if u.Capacity != nil {
		add("capacity", *u.Capacity)
	}
	if u.AgeGroupID != nil {
		if *u.AgeGroupID == "" {
			sets = append(sets, "age_group_id = NULL")
		} else {
			add("age_group_id", *u.AgeGroupID)
		}
	}
	if u.Active != nil {
		add("active", *u.Active)
	}

	if len(sets) == 0 {
		return nil
	}

	sets = append(sets, "updated_at = NOW()")
	q := fmt.Sprintf("UPDATE activity_groups SET %s WHERE id = $%d AND school_id = $%d",
		joinComma(sets), idx, idx+1)
	args = append(args, id, schoolID)

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("update activity group: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return activities.ErrNotFound
	}
	return nil
}

func (r *ActivitiesRepo) Delete(ctx context.Context, schoolID, id string) error {
	var hasMembers bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM activity_memberships WHERE activity_group_id = $1)`, id,
	).Scan(&hasMembers)
	if err != nil {
		return fmt.Errorf("check members: %w", err)
	}
	if hasMembers {
		return activities.ErrNotEmpty
	}

	res, err := r.db.ExecContext(ctx,
		`DELETE FROM activity_groups WHERE id = $1 AND school_id = $2`, id, schoolID)
	if err != nil {
		return fmt.Errorf("delete activity group: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return activities.ErrNotFound
	}
	return nil
}

func (r *ActivitiesRepo) Learner(ctx context.Context, schoolID, learnerID string) (*domain.Learner, error) {
	l := &domain.Learner{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, school_id, age_group_id, first_name, last_name, email,
		       date_of_birth, grade, status, photo_url, created_at, updated_at
		FROM learners
		WHERE id = $1 AND school_id = $2
	`, learnerID, schoolID).Scan(
		&l.ID, &l.SchoolID, &l.AgeGroupID, &l.FirstName, &l.LastName, &l.Email,
		&l.DateOfBirth, &l.Grade, &l.Status, &l.PhotoURL, &l.CreatedAt, &l.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, activities.ErrLearnerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get learner: %w", err)
	}
	return l, nil
}

func (r *ActivitiesRepo) AgeBracket(ctx context.Context, ageGroupID string) (*domain.AgeGroup, error) {
	g := &domain.AgeGroup{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, school_id, name, min_age, max_age, active, created_at, updated_at
		FROM age_groups
		WHERE id = $1
	`, ageGroupID).Scan(
		&g.ID, &g.SchoolID, &g.Name, &g.MinAge, &g.MaxAge, &g.Active,
		&g.CreatedAt, &g.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("age group %s not found", ageGroupID)
	}
	if err != nil {
		return nil, fmt.Errorf("get age bracket: %w", err)
	}
	return g, nil
}

func (r *ActivitiesRepo) Enroll(ctx context.Context, groupID, learnerID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO activity_memberships (activity_group_id, learner_id, joined_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (activity_group_id, learner_id) DO NOTHING
	`, groupID, learnerID)
	if err != nil {
		return false, fmt.Errorf("enroll: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *ActivitiesRepo) Withdraw(ctx context.Context, groupID, learnerID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM activity_memberships WHERE activity_group_id = $1 AND learner_id = $2`,
		groupID, learnerID)
	if err != nil {
		return fmt.Errorf("withdraw: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return activities.ErrNotMember
	}
	return nil
}

func (r *ActivitiesRepo) ListMembers(ctx context.Context, groupID string, f activities.MemberFilter) ([]activities.Member, int, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM activity_memberships WHERE activity_group_id = $1`, groupID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count members: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT l.id, l.school_id, l.age_group_id, l.first_name, l.last_name, l.email,
		       l.date_of_birth, l.grade, l.status, l.photo_url, l.created_at, l.updated_at,
		       m.joined_at
		FROM activity_memberships m
		JOIN learners l ON l.id = m.learner_id
		WHERE m.activity_group_id = $1
		ORDER BY l.last_name, l.first_name
		LIMIT $2 OFFSET $3
	`, groupID, limit, f.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var out []activities.Member
	for rows.Next() {
		var m activities.Member
		if err := rows.Scan(
			&m.Learner.ID, &m.Learner.SchoolID, &m.Learner.AgeGroupID,
			&m.Learner.FirstName, &m.Learner.LastName, &m.Learner.Email,
			&m.Learner.DateOfBirth, &m.Learner.Grade, &m.Learner.Status,
			&m.Learner.PhotoURL, &m.Learner.CreatedAt, &m.Learner.UpdatedAt,
			&m.JoinedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan member: %w", err)
		}
		out = append(out, m)
	}
	return out, total, nil
}
