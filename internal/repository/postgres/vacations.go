package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/IQTechSolutions/ConectOne-sub011/internal/domain"
	"github.com/IQTechSolutions/ConectOne-sub011/internal/service/vacations"
)

// VacationsRepo implements vacations.Repository against PostgreSQL.
type VacationsRepo struct{ db *sql.DB }

// NewVacationsRepo creates a Postgres-backed vacations repository.
func NewVacationsRepo(db *sql.DB) *VacationsRepo { return &VacationsRepo{db: db} }

func (r *VacationsRepo) Get(ctx context.Context, id string) (*domain.Vacation, error) {
	v := &domain.Vacation{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, title, description, destination, accommodation, star_grading,
		       price_per_night, package_price, available_from, available_to,
		       capacity, status, created_at, updated_at
		FROM vacations
		WHERE id = $1
	`, id).Scan(
		&v.ID, &v.Title, &v.Description, &v.Destination, &v.Accommodation,
		&v.StarGrading, &v.PricePerNight, &v.PackagePrice,
		&v.AvailableFrom, &v.AvailableTo, &v.Capacity, &v.Status,
		&v.CreatedAt, &v.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, vacations.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get vacation: %w", err)
	}
	return v, nil
}

func (r *VacationsRepo) List(ctx context.Context, f vacations.ListFilter) ([]domain.Vacation, int, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	where := "TRUE"
	args := []interface{}{}
	idx := 1
	if f.Destination != "" {
		where += fmt.Sprintf(" AND destination ILIKE $%d", idx)
		args = append(args, f.Destination)
		idx++
	}
	if f.Status != "" {
		where += fmt.Sprintf(" AND status = $%d", idx)
		args = append(args, f.Status)
		idx++
	}
	if !f.From.IsZero() && !f.To.IsZero() {
		where += fmt.Sprintf(" AND available_from <= $%d AND available_to >= $%d", idx, idx+1)
		args = append(args, f.To, f.From)
		idx += 2
	}
	if f.MaxPrice > 0 {
		where += fmt.Sprintf(" AND (price_per_night <= $%d OR package_price <= $%d)", idx, idx)
		args = append(args, f.MaxPrice)
		idx++
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM vacations WHERE "+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count vacations: %w", err)
	}

	q := fmt.Sprintf(`
		SELECT id, title, description, destination, accommodation, star_grading,
		       price_per_night, package_price, available_from, available_to,
		       capacity, status, created_at, updated_at
		FROM vacations
		WHERE %s
		ORDER BY available_from, title
		LIMIT $%d OFFSET $%d`, where, idx, idx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list vacations: %w", err)
	}
	defer rows.Close()

	var out []domain.Vacation
	for rows.Next() {
		var v domain.Vacation
		if err := rows.Scan(
			&v.ID, &v.Title, &v.Description, &v.Destination, &v.Accommodation,
			&v.StarGrading, &v.PricePerNight, &v.PackagePrice,
			&v.AvailableFrom, &v.AvailableTo, &v.Capacity, &v.Status,
			&v.CreatedAt, &v.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan vacation: %w", err)
		}
		out = append(out, v)
	}
	return out, total, nil
}

func (r *VacationsRepo) Create(ctx context.Context, v *domain.Vacation) (string, error) {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO vacations
			(id, title, description, destination, accommodation, star_grading,
			 price_per_night, package_price, available_from, available_to,
			 capacity, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
	`, v.ID, v.Title, v.Description, v.Destination, v.Accommodation, v.StarGrading,
		v.PricePerNight, v.PackagePrice, v.AvailableFrom, v.AvailableTo,
		v.Capacity, v.Status)
	if err != nil {
		return "", fmt.Errorf("create vacation: %w", err)
	}
	return v.ID, nil
}

func (r *VacationsRepo) Update(ctx context.Context, id string, u vacations.UpdateFields) error {
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
	if u.Destination != nil {
		add("destination", *u.Destination)
	}
	if u.Accommodation != nil {
		add("accommodation", *u.Accommodation)
	}
	if u.StarGrading != nil {
		add("star_grading", *u.StarGrading)
	}
	if u.PricePerNight != nil {
		add("price_per_night", *u.PricePerNight)
	}
	if u.PackagePrice != nil {
		add("package_price", *u.PackagePrice)
	}
	if u.AvailableFrom != nil {
		add("available_from", *u.AvailableFrom)
	}
	if u.AvailableTo != nil {
		add("available_to", *u.AvailableTo)
	}
	if u.Capacity != nil {
		add("capacity", *u.Capacity)
	}

	if len(sets) == 0 {
		return nil
	}

	sets = append(sets, "updated_at = NOW()")
	q := fmt.Sprintf("UPDATE vacations SET %s WHERE id = $%d", joinComma(sets), idx)
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("update vacation: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return vacations.ErrNotFound
	}
	return nil
}

func (r *VacationsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM vacations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete vacation: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return vacations.ErrNotFound
	}
	return nil
}

func (r *VacationsRepo) UpdateStatus(ctx context.Context, id string, status domain.VacationStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE vacations SET status = $1, updated_at = NOW() WHERE id = $2
	`, status, id)
	if err != nil {
		return fmt.Errorf("update vacation status: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return vacations.ErrNotFound
	}
	return nil
}

func (r *VacationsRepo) AttachImage(ctx context.Context, vacationID, assetID string, position int) error {
	var assetExists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM media_assets WHERE id = $1)`, assetID,
	).Scan(&assetExists)
	if err != nil {
		return fmt.Errorf("check asset: %w", err)
	}
	if !assetExists {
		return vacations.ErrAssetNotFound
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO vacation_images (vacation_id, asset_id, position, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (vacation_id, asset_id) DO UPDATE SET position = $3
	`, vacationID, assetID, position)
	if err != nil {
		return fmt.Errorf("attach image: %w", err)
	}
	return nil
}

func (r *VacationsRepo) RemoveImage(ctx context.Context, vacationID, assetID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM vacation_images WHERE vacation_id = $1 AND asset_id = $2`,
		vacationID, assetID)
	if err != nil {
		return fmt.Errorf("remove image: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return vacations.ErrImageNotFound
	}
	return nil
}

func (r *VacationsRepo) ListImages(ctx context.Context, vacationID string) ([]domain.MediaAsset, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.id, a.owner_ref, a.kind, a.filename, a.original_filename,
		       a.content_type, a.size, a.width, a.height, a.storage_key, a.url,
		       COALESCE(a.large_url,''), COALESCE(a.medium_url,''), COALESCE(a.thumbnail_url,''),
		       a.checksum, a.created_at
		FROM vacation_images vi
		JOIN media_assets a ON a.id = vi.asset_id
		WHERE vi.vacation_id = $1
		ORDER BY vi.position
	`, vacationID)
	if err != nil {
		return nil, fmt.Errorf("list vacation images: %w", err)
	}
	defer rows.Close()

	var out []domain.MediaAsset
	for rows.Next() {
		var a domain.MediaAsset
		if err := rows.Scan(
			&a.ID, &a.OwnerRef, &a.Kind, &a.Filename, &a.OriginalFilename,
			&a.ContentType, &a.Size, &a.Width, &a.Height, &a.StorageKey, &a.URL,
			&a.LargeURL, &a.MediumURL, &a.ThumbnailURL, &a.Checksum, &a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		out = append(out, a)
	}
	return out, nil
}

func (r *VacationsRepo) CountImages(ctx context.Context, vacationID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM vacation_images WHERE vacation_id = $1`, vacationID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count vacation images: %w", err)
	}
	return n, nil
}
