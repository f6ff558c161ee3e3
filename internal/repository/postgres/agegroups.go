package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/IQTechSolutions/ConectOne-sub011/internal/domain"
	"github.com/IQTechSolutions/ConectOne-sub011/internal/service/agegroups"
)

// AgeGroupsRepo implements agegroups.Repository against PostgreSQL.
type AgeGroupsRepo struct{ db *sql.DB }

// NewAgeGroupsRepo creates a Postgres-backed age group repository.
func NewAgeGroupsRepo(db *sql.DB) *AgeGroupsRepo { return &AgeGroupsRepo{db: db} }

func (r *AgeGroupsRepo) Get(ctx context.Context, schoolID, id string) (*domain.AgeGroup, error) {
	g := &domain.AgeGroup{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, school_id, name, min_age, max_age, active, created_at, updated_at
		FROM age_groups
		WHERE id = $1 AND school_id = $2
	`, id, schoolID).Scan(
		&g.ID, &g.SchoolID, &g.Name, &g.MinAge, &g.MaxAge, &g.Active,
		&g.CreatedAt, &g.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, agegroups.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get age group: %w", err)
	}
	return g, nil
}

func (r *AgeGroupsRepo) List(ctx context.Context, schoolID string, f agegroups.ListFilter) ([]domain.AgeGroup, int, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}

	where := "school_id = $1"
	args := []interface{}{schoolID}
	if f.ActiveOnly {
		where += " AND active = true"
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM age_groups WHERE "+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count age groups: %w", err)
	}

	q := fmt.Sprintf(`
		SELECT id, school_id, name, min_age, max_age, active, created_at, updated_at
		FROM age_groups
		WHERE %s
		ORDER BY min_age, name
		LIMIT $2 OFFSET $3`, where)
	args = append(args, limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list age groups: %w", err)
	}
	defer rows.Close()

	var out []domain.AgeGroup
	for rows.Next() {
		var g domain.AgeGroup
		if err := rows.Scan(
			&g.ID, &g.SchoolID, &g.Name, &g.MinAge, &g.MaxAge, &g.Active,
			&g.CreatedAt, &g.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan age group: %w", err)
		}
		out = append(out, g)
	}
	return out, total, nil
}

func (r *AgeGroupsRepo) Create(ctx context.Context, g *domain.AgeGroup) (string, error) {
	if g.ID == "" {
		g.ID = uuid.New().String()
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO age_groups (id, school_id, name, min_age, max_age, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		ON CONFLICT (school_id, name) DO NOTHING
	`, g.ID, g.SchoolID, g.Name, g.MinAge, g.MaxAge, g.Active)
	if err != nil {
		return "", fmt.Errorf("create age group: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return "", agegroups.ErrDuplicateName
	}
	return g.ID, nil
}

func (r *AgeGroupsRepo) Update(ctx context.Context, schoolID, id string, u agegroups.UpdateFields) error {
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
	if u.MinAge != nil {
		add("min_age", *u.MinAge)
	}
	if u.MaxAge != nil {
		add("max_age", *u.MaxAge)
	}
	if u.Active != nil {
		add("active", *u.Active)
	}

	if len(sets) == 0 {
		return nil
	}

	sets = append(sets, "updated_at = NOW()")
	q := fmt.Sprintf("UPDATE age_groups SET %s WHERE id = $%d AND school_id = $%d",
		joinComma(sets), idx, idx+1)
	args = append(args, id, schoolID)

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("update age group: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return agegroups.ErrNotFound
	}
	return nil
}

func (r *AgeGroupsRepo) Delete(ctx context.Context, schoolID, id string) error {
	var inUse bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM activity_groups WHERE age_group_id = $1)
		    OR EXISTS(SELECT 1 FROM learners WHERE age_group_id = $1)
	`, id).Scan(&inUse)
	if err != nil {
		return fmt.Errorf("check references: %w", err)
	}
	if inUse {
		return agegroups.ErrInUse
	}

	res, err := r.db.ExecContext(ctx,
		`DELETE FROM age_groups WHERE id = $1 AND school_id = $2`, id, schoolID)
	if err != nil {
		return fmt.Errorf("delete age group: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return agegroups.ErrNotFound
	}
	return nil
}
