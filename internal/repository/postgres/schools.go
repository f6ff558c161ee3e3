package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/IQTechSolutions/ConectOne-sub011/internal/domain"
	"github.com/IQTechSolutions/ConectOne-sub011/internal/service/schools"
)

// SchoolsRepo implements schools.Repository against PostgreSQL.
type SchoolsRepo struct{ db *sql.DB }

// NewSchoolsRepo creates a Postgres-backed schools repository.
func NewSchoolsRepo(db *sql.DB) *SchoolsRepo { return &SchoolsRepo{db: db} }

func (r *SchoolsRepo) GetSchool(ctx context.Context, id string) (*domain.School, error) {
	s := &domain.School{}
	err := r.db.QueryRowContext(ctx, `
		SELECT s.id, s.name, s.motto, s.email_address, s.phone_number, s.website,
		       s.address_line1, s.address_line2, s.city, s.province, s.postal_code,
		       s.crest_url,
		       (SELECT COUNT(*) FROM learners l WHERE l.school_id = s.id AND l.status = 'enrolled'),
		       s.created_at, s.updated_at
		FROM schools s
		WHERE s.id = $1
	`, id).Scan(
		&s.ID, &s.Name, &s.Motto, &s.EmailAddress, &s.PhoneNumber, &s.Website,
		&s.AddressLine1, &s.AddressLine2, &s.City, &s.Province, &s.PostalCode,
		&s.CrestURL, &s.LearnerCount, &s.CreatedAt, &s.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, schools.ErrSchoolNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get school: %w", err)
	}
	return s, nil
}

func (r *SchoolsRepo) ListSchools(ctx context.Context, f schools.SchoolFilter) ([]domain.School, int, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	countQ := `SELECT COUNT(*) FROM schools`
	args := []interface{}{}
	idx := 1
	if f.Search != "" {
		countQ += fmt.Sprintf(" WHERE name ILIKE '%%' || $%d || '%%'", idx)
		args = append(args, f.Search)
		idx++
	}

	var total int
	if err := r.db.QueryRowContext(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count schools: %w", err)
	}

	q := `
		SELECT s.id, s.name, s.motto, s.email_address, s.phone_number, s.website,
		       s.address_line1, s.address_line2, s.city, s.province, s.postal_code,
		       s.crest_url,
		       (SELECT COUNT(*) FROM learners l WHERE l.school_id = s.id AND l.status = 'enrolled'),
		       s.created_at, s.updated_at
		FROM schools s`
	qArgs := []interface{}{}
	qIdx := 1
	if f.Search != "" {
		q += fmt.Sprintf(" WHERE s.name ILIKE '%%' || $%d || '%%'", qIdx)
		qArgs = append(qArgs, f.Search)
		qIdx++
	}
	q += fmt.Sprintf(" ORDER BY s.name LIMIT $%d OFFSET $%d", qIdx, qIdx+1)
	qArgs = append(qArgs, limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, q, qArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list schools: %w", err)
	}
	defer rows.Close()

	var out []domain.School
	for rows.Next() {
		var s domain.School
		if err := rows.Scan(
			&s.ID, &s.Name, &s.Motto, &s.EmailAddress, &s.PhoneNumber, &s.Website,
			&s.AddressLine1, &s.AddressLine2, &s.City, &s.Province, &s.PostalCode,
			&s.CrestURL, &s.LearnerCount, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan school: %w", err)
		}
		out = append(out, s)
	}
	return out, total, nil
}

func (r *SchoolsRepo) CreateSchool(ctx context.Context, s *domain.School) (string, error) {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO schools
			(id, name, motto, email_address, phone_number, website,
			 address_line1, address_line2, city, province, postal_code, crest_url,
			 created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
	`, s.ID, s.Name, s.Motto, s.EmailAddress, s.PhoneNumber, s.Website,
		s.AddressLine1, s.AddressLine2, s.City, s.Province, s.PostalCode, s.CrestURL)
	if err != nil {
		return "", fmt.Errorf("create school: %w", err)
	}
	return s.ID, nil
}

func (r *SchoolsRepo) UpdateSchool(ctx context.Context, id string, u schools.SchoolUpdate) error {
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
	if u.Motto != nil {
		add("motto", *u.Motto)
	}
	if u.EmailAddress != nil {
		add("email_address", *u.EmailAddress)
	}
	if u.PhoneNumber != nil {
		add("phone_number", *u.PhoneNumber)
	}
	if u.Website != nil {
		add("website", *u.Website)
	}
	if u.AddressLine1 != nil {
		add("address_line1", *u.AddressLine1)
	}
	if u.AddressLine2 != nil {
		add("address_line2", *u.AddressLine2)
	}
	if u.City != nil {
		add("city", *u.City)
	}
	if u.Province != nil {
		add("province", *u.Province)
	}
	if u.PostalCode != nil {
		add("postal_code", *u.PostalCode)
	}
	if u.CrestURL != nil {
		add("crest_url", *u.CrestURL)
	}

	if len(sets) == 0 {
		return nil
	}

	sets = append(sets, "updated_at = NOW()")
	q := fmt.Sprintf("UPDATE schools SET %s WHERE id = $%d", joinComma(sets), idx)
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("update school: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return schools.ErrSchoolNotFound
	}
	return nil
}

func (r *SchoolsRepo) DeleteSchool(ctx context.Context, id string) error {
	var hasLearners bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM learners WHERE school_id = $1)`, id,
	).Scan(&hasLearners)
	if err != nil {
		return fmt.Errorf("check learners: %w", err)
	}
	if hasLearners {
		return schools.ErrSchoolHasLearners
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM schools WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete school: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return schools.ErrSchoolNotFound
	}
	return nil
}

func (r *SchoolsRepo) GetLearner(ctx context.Context, schoolID, id string) (*domain.Learner, error) {
	l := &domain.Learner{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, school_id, age_group_id, first_name, last_name, email,
		       date_of_birth, grade, status, photo_url, created_at, updated_at
		FROM learners
		WHERE id = $1 AND school_id = $2
	`, id, schoolID).Scan(
		&l.ID, &l.SchoolID, &l.AgeGroupID, &l.FirstName, &l.LastName, &l.Email,
		&l.DateOfBirth, &l.Grade, &l.Status, &l.PhotoURL, &l.CreatedAt, &l.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, schools.ErrLearnerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get learner: %w", err)
	}
	return l, nil
}

func (r *SchoolsRepo) ListLearners(ctx context.Context, schoolID string, f schools.LearnerFilter) ([]domain.Learner, int, error) {
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
	if f.AgeGroupID != "" {
		where += fmt.Sprintf(" AND age_group_id = $%d", idx)
		args = append(args, f.AgeGroupID)
		idx++
	}
	if f.Search != "" {
		where += fmt.Sprintf(" AND (first_name || ' ' || last_name) ILIKE '%%' || $%d || '%%'", idx)
		args = append(args, f.Search)
		idx++
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM learners WHERE "+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count learners: %w", err)
	}

	q := fmt.Sprintf(`
		SELECT id, school_id, age_group_id, first_name, last_name, email,
		       date_of_birth, grade, status, photo_url, created_at, updated_at
		FROM learners
		WHERE %s
		ORDER BY last_name, first_name
		LIMIT $%d OFFSET $%d`, where, idx, idx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list learners: %w", err)
	}
	defer rows.Close()

	var out []domain.Learner
	for rows.Next() {
		var l domain.Learner
		if err := rows.Scan(
			&l.ID, &l.SchoolID, &l.AgeGroupID, &l.FirstName, &l.LastName, &l.Email,
			&l.DateOfBirth, &l.Grade, &l.Status, &l.PhotoURL, &l.CreatedAt, &l.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan learner: %w", err)
		}
		out = append(out, l)
	}
	return out, total, nil
}

func (r *SchoolsRepo) CreateLearner(ctx context.Context, l *domain.Learner) (string, error) {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	// UNIQUE(school_id, email) ignores NULL emails, so learners without an
	// email address never conflict.
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO learners
			(id, school_id, age_group_id, first_name, last_name, email,
			 date_of_birth, grade, status, photo_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		ON CONFLICT (school_id, email) DO NOTHING
	`, l.ID, l.SchoolID, l.AgeGroupID, l.FirstName, l.LastName, l.Email,
		l.DateOfBirth, l.Grade, l.Status, l.PhotoURL)
	if err != nil {
		return "", fmt.Errorf("create learner: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return "", schools.ErrDuplicateEmail
	}
	return l.ID, nil
}

func (r *SchoolsRepo) UpdateLearner(ctx context.Context, schoolID, id string, u schools.LearnerUpdate) error {
	sets := []string{}
	args := []interface{}{}
	idx := 1
	add := func(col string, val interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, idx))
		args = append(args, val)
		idx++
	}

	if u.FirstName != nil {
		add("first_name", *u.FirstName)
	}
	if u.LastName != nil {
		add("last_name", *u.LastName)
	}
	if u.Email != nil {
		add("email", *u.Email)
	}
	if u.Grade != nil {
		add("grade", *u.Grade)
	}
	if u.AgeGroupID != nil {
		if *u.AgeGroupID == "" {
			sets = append(sets, "age_group_id = NULL")
		} else {
			add("age_group_id", *u.AgeGroupID)
		}
	}
	if u.PhotoURL != nil {
		add("photo_url", *u.PhotoURL)
	}

	if len(sets) == 0 {
		return nil
	}

	sets = append(sets, "updated_at = NOW()")
	q := fmt.Sprintf("UPDATE learners SET %s WHERE id = $%d AND school_id = $%d",
		joinComma(sets), idx, idx+1)
	args = append(args, id, schoolID)

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("update learner: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return schools.ErrLearnerNotFound
	}
	return nil
}

func (r *SchoolsRepo) ArchiveLearner(ctx context.Context, schoolID, id string) error {
	var enrolled bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM activity_memberships WHERE learner_id = $1)`, id,
	).Scan(&enrolled)
	if err != nil {
		return fmt.Errorf("check memberships: %w", err)
	}
	if enrolled {
		return schools.ErrLearnerEnrolled
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE learners SET status = 'archived', updated_at = NOW()
		WHERE id = $1 AND school_id = $2
	`, id, schoolID)
	if err != nil {
		return fmt.Errorf("archive learner: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return schools.ErrLearnerNotFound
	}
	return nil
}

func (r *SchoolsRepo) GetTeacher(ctx context.Context, schoolID, id string) (*domain.Teacher, error) {
	t := &domain.Teacher{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, school_id, first_name, last_name, email, phone_number,
		       subject, photo_url, created_at, updated_at
		FROM teachers
		WHERE id = $1 AND school_id = $2
	`, id, schoolID).Scan(
		&t.ID, &t.SchoolID, &t.FirstName, &t.LastName, &t.Email, &t.PhoneNumber,
		&t.Subject, &t.PhotoURL, &t.CreatedAt, &t.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, schools.ErrTeacherNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get teacher: %w", err)
	}
	return t, nil
}

func (r *SchoolsRepo) ListTeachers(ctx context.Context, schoolID string, f schools.TeacherFilter) ([]domain.Teacher, int, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	where := "school_id = $1"
	args := []interface{}{schoolID}
	idx := 2
	if f.Search != "" {
		where += fmt.Sprintf(" AND (first_name || ' ' || last_name) ILIKE '%%' || $%d || '%%'", idx)
		args = append(args, f.Search)
		idx++
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM teachers WHERE "+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count teachers: %w", err)
	}

	q := fmt.Sprintf(`
		SELECT id, school_id, first_name, last_name, email, phone_number,
		       subject, photo_url, created_at, updated_at
		FROM teachers
		WHERE %s
		ORDER BY last_name, first_name
		LIMIT $%d OFFSET $%d`, where, idx, idx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list teachers: %w", err)
	}
	defer rows.Close()

	var out []domain.Teacher
	for rows.Next() {
		var t domain.Teacher
		if err := rows.Scan(
			&t.ID, &t.SchoolID, &t.FirstName, &t.LastName, &t.Email, &t.PhoneNumber,
			&t.Subject, &t.PhotoURL, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan teacher: %w", err)
		}
		out = append(out, t)
	}
	return out, total, nil
}

func (r *SchoolsRepo) CreateTeacher(ctx context.Context, t *domain.Teacher) (string, error) {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO teachers
			(id, school_id, first_name, last_name, email, phone_number,
			 subject, photo_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
	`, t.ID, t.SchoolID, t.FirstName, t.LastName, t.Email, t.PhoneNumber,
		t.Subject, t.PhotoURL)
	if err != nil {
		return "", fmt.Errorf("create teacher: %w", err)
	}
	return t.ID, nil
}

func (r *SchoolsRepo) UpdateTeacher(ctx context.Context, schoolID, id string, u schools.TeacherUpdate) error {
	sets := []string{}
	args := []interface{}{}
	idx := 1
	add := func(col string, val interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, idx))
		args = append(args, val)
		idx++
	}

	if u.FirstName != nil {
		add("first_name", *u.FirstName)
	}
	if u.LastName != nil {
		add("last_name", *u.LastName)
	}
	if u.Email != nil {
		add("email", *u.Email)
	}
	if u.PhoneNumber != nil {
		add("phone_number", *u.PhoneNumber)
	}
	if u.Subject != nil {
		add("subject", *u.Subject)
	}
	if u.PhotoURL != nil {
		add("photo_url", *u.PhotoURL)
	}

	if len(sets) == 0 {
		return nil
	}

	sets = append(sets, "updated_at = NOW()")
	q := fmt.Sprintf("UPDATE teachers SET %s WHERE id = $%d AND school_id = $%d",
		joinComma(sets), idx, idx+1)
	args = append(args, id, schoolID)

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("update teacher: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return schools.ErrTeacherNotFound
	}
	return nil
}

func (r *SchoolsRepo) DeleteTeacher(ctx context.Context, schoolID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM teachers WHERE id = $1 AND school_id = $2`, id, schoolID)
	if err != nil {
		return fmt.Errorf("delete teacher: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return schools.ErrTeacherNotFound
	}
	return nil
}

func (r *SchoolsRepo) GetParent(ctx context.Context, id string) (*domain.Parent, error) {
	p := &domain.Parent{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, first_name, last_name, email, phone_number, created_at, updated_at
		FROM parents
		WHERE id = $1
	`, id).Scan(
		&p.ID, &p.FirstName, &p.LastName, &p.Email, &p.PhoneNumber,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, schools.ErrParentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get parent: %w", err)
	}
	return p, nil
}

func (r *SchoolsRepo) ListParents(ctx context.Context, f schools.ParentFilter) ([]domain.Parent, int, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	where := "TRUE"
	args := []interface{}{}
	idx := 1
	if f.Search != "" {
		where = fmt.Sprintf("(first_name || ' ' || last_name || ' ' || email) ILIKE '%%' || $%d || '%%'", idx)
		args = append(args, f.Search)
		idx++
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM parents WHERE "+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count parents: %w", err)
	}

	q := fmt.Sprintf(`
		SELECT id, first_name, last_name, email, phone_number, created_at, updated_at
		FROM parents
		WHERE %s
		ORDER BY last_name, first_name
		LIMIT $%d OFFSET $%d`, where, idx, idx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list parents: %w", err)
	}
	defer rows.Close()

	var out []domain.Parent
	for rows.Next() {
		var p domain.Parent
		if err := rows.Scan(
			&p.ID, &p.FirstName, &p.LastName, &p.Email, &p.PhoneNumber,
			&p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan parent: %w", err)
		}
		out = append(out, p)
	}
	return out, total, nil
}

func (r *SchoolsRepo) CreateParent(ctx context.Context, p *domain.Parent) (string, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO parents (id, first_name, last_name, email, phone_number, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (email) DO NOTHING
	`, p.ID, p.FirstName, p.LastName, p.Email, p.PhoneNumber)
	if err != nil {
		return "", fmt.Errorf("create parent: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return "", schools.ErrDuplicateEmail
	}
	return p.ID, nil
}

func (r *SchoolsRepo) UpdateParent(ctx context.Context, id string, u schools.ParentUpdate) error {
	sets := []string{}
	args := []interface{}{}
	idx := 1
	add := func(col string, val interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, idx))
		args = append(args, val)
		idx++
	}

	if u.FirstName != nil {
		add("first_name", *u.FirstName)
	}
	if u.LastName != nil {
		add("last_name", *u.LastName)
	}
	if u.Email != nil {
		add("email", *u.Email)
	}
	if u.PhoneNumber != nil {
		add("phone_number", *u.PhoneNumber)
	}

	if len(sets) == 0 {
		return nil
	}

	sets = append(sets, "updated_at = NOW()")
	q := fmt.Sprintf("UPDATE parents SET %s WHERE id = $%d", joinComma(sets), idx)
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("update parent: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return schools.ErrParentNotFound
	}
	return nil
}

func (r *SchoolsRepo) DeleteParent(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM parents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete parent: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return schools.ErrParentNotFound
	}
	return nil
}

func (r *SchoolsRepo) LinkLearner(ctx context.Context, parentID, learnerID, relationship string) error {
	var parentExists, learnerExists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM parents WHERE id = $1),
		       EXISTS(SELECT 1 FROM learners WHERE id = $2)
	`, parentID, learnerID).Scan(&parentExists, &learnerExists)
	if err != nil {
		return fmt.Errorf("check link targets: %w", err)
	}
	if !parentExists {
		return schools.ErrParentNotFound
	}
	if !learnerExists {
		return schools.ErrLearnerNotFound
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO guardianships (parent_id, learner_id, relationship, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (parent_id, learner_id) DO UPDATE SET relationship = $3
	`, parentID, learnerID, relationship)
	if err != nil {
		return fmt.Errorf("link learner: %w", err)
	}
	return nil
}

func (r *SchoolsRepo) UnlinkLearner(ctx context.Context, parentID, learnerID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM guardianships WHERE parent_id = $1 AND learner_id = $2`,
		parentID, learnerID)
	if err != nil {
		return fmt.Errorf("unlink learner: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return schools.ErrNotLinked
	}
	return nil
}

func (r *SchoolsRepo) LearnersOfParent(ctx context.Context, parentID string) ([]domain.Learner, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT l.id, l.school_id, l.age_group_id, l.first_name, l.last_name, l.email,
		       l.date_of_birth, l.grade, l.status, l.photo_url, l.created_at, l.updated_at
		FROM learners l
		JOIN guardianships g ON g.learner_id = l.id
		WHERE g.parent_id = $1
		ORDER BY l.last_name, l.first_name
	`, parentID)
	if err != nil {
		return nil, fmt.Errorf("learners of parent: %w", err)
	}
	defer rows.Close()

	var out []domain.Learner
	for rows.Next() {
		var l domain.Learner
		if err := rows.Scan(
			&l.ID, &l.SchoolID, &l.AgeGroupID, &l.FirstName, &l.LastName, &l.Email,
			&l.DateOfBirth, &l.Grade, &l.Status, &l.PhotoURL, &l.CreatedAt, &l.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan learner: %w", err)
		}
		out = append(out, l)
	}
	return out, nil
}

func (r *SchoolsRepo) GuardiansOfLearner(ctx context.Context, learnerID string) ([]domain.Guardianship, []domain.Parent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT g.parent_id, g.learner_id, g.relationship, g.created_at,
		       p.id, p.first_name, p.last_name, p.email, p.phone_number, p.created_at, p.updated_at
		FROM guardianships g
		JOIN parents p ON p.id = g.parent_id
		WHERE g.learner_id = $1
		ORDER BY p.last_name, p.first_name
	`, learnerID)
	if err != nil {
		return nil, nil, fmt.Errorf("guardians of learner: %w", err)
	}
	defer rows.Close()

	var gs []domain.Guardianship
	var ps []domain.Parent
	for rows.Next() {
		var g domain.Guardianship
		var p domain.Parent
		if err := rows.Scan(
			&g.ParentID, &g.LearnerID, &g.Relationship, &g.CreatedAt,
			&p.ID, &p.FirstName, &p.LastName, &p.Email, &p.PhoneNumber,
			&p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, nil, fmt.Errorf("scan guardianship: %w", err)
		}
		gs = append(gs, g)
		ps = append(ps, p)
	}
	return gs, ps, nil
}

func joinComma(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}
