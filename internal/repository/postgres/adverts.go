package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/IQTechSolutions/ConectOne-sub011/internal/domain"
	"github.com/IQTechSolutions/ConectOne-sub011/internal/service/adverts"
)

// AdvertsRepo implements adverts.Repository against PostgreSQL.
type AdvertsRepo struct{ db *sql.DB }

// NewAdvertsRepo creates a Postgres-backed adverts repository.
func NewAdvertsRepo(db *sql.DB) *AdvertsRepo { return &AdvertsRepo{db: db} }

const advertColumns = `id, title, advertiser_name, advertiser_email, placement,
	banner_url, target_url, starts_at, ends_at, status, impressions, clicks,
	created_at, updated_at`

func scanAdvert(row interface{ Scan(...interface{}) error }) (*domain.Advertisement, error) {
	a := &domain.Advertisement{}
	err := row.Scan(
		&a.ID, &a.Title, &a.AdvertiserName, &a.AdvertiserEmail, &a.Placement,
		&a.BannerURL, &a.TargetURL, &a.StartsAt, &a.EndsAt, &a.Status,
		&a.Impressions, &a.Clicks, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *AdvertsRepo) Get(ctx context.Context, id string) (*domain.Advertisement, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+advertColumns+" FROM adverts WHERE id = $1", id)
	a, err := scanAdvert(row)
	if err == sql.ErrNoRows {
		return nil, adverts.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get advert: %w", err)
	}
	return a, nil
}

func (r *AdvertsRepo) List(ctx context.Context, f adverts.ListFilter) ([]domain.Advertisement, int, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	where := "TRUE"
	args := []interface{}{}
	idx := 1
	if f.Placement != "" {
		where += fmt.Sprintf(" AND placement = $%d", idx)
		args = append(args, f.Placement)
		idx++
	}
	if f.Status != "" {
		where += fmt.Sprintf(" AND status = $%d", idx)
		args = append(args, f.Status)
		idx++
	}
	if f.LiveOnly {
		where += " AND status = 'active' AND starts_at <= NOW() AND ends_at > NOW()"
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM adverts WHERE "+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count adverts: %w", err)
	}

	q := fmt.Sprintf("SELECT %s FROM adverts WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		advertColumns, where, idx, idx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list adverts: %w", err)
	}
	defer rows.Close()

	var out []domain.Advertisement
	for rows.Next() {
		a, err := scanAdvert(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan advert: %w", err)
		}
		out = append(out, *a)
	}
	return out, total, nil
}

func (r *AdvertsRepo) Create(ctx context.Context, a *domain.Advertisement) (string, error) {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO adverts
			(id, title, advertiser_name, advertiser_email, placement, banner_url,
			 target_url, starts_at, ends_at, status, impressions, clicks,
			 created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 0, 0, NOW(), NOW())
	`, a.ID, a.Title, a.AdvertiserName, a.AdvertiserEmail, a.Placement,
		a.BannerURL, a.TargetURL, a.StartsAt, a.EndsAt, a.Status)
	if err != nil {
		return "", fmt.Errorf("create advert: %w", err)
	}
	return a.ID, nil
}

func (r *AdvertsRepo) Update(ctx context.Context, id string, u adverts.UpdateFields) error {
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
	if u.AdvertiserName != nil {
		add("advertiser_name", *u.AdvertiserName)
	}
	if u.AdvertiserEmail != nil {
		add("advertiser_email", *u.AdvertiserEmail)
	}
	if u.Placement != nil {
		add("placement", *u.Placement)
	}
	if u.BannerURL != nil {
		add("banner_url", *u.BannerURL)
	}
	if u.TargetURL != nil {
		add("target_url", *u.TargetURL)
	}
	if u.StartsAt != nil {
		add("starts_at", *u.StartsAt)
	}
	if u.EndsAt != nil {
		add("ends_at", *u.EndsAt)
	}

	if len(sets) == 0 {
		return nil
	}

	sets = append(sets, "updated_at = NOW()")
	q := fmt.Sprintf("UPDATE adverts SET %s WHERE id = $%d", joinComma(sets), idx)
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("update advert: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return adverts.ErrNotFound
	}
	return nil
}

func (r *AdvertsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM adverts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete advert: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return adverts.ErrNotFound
	}
	return nil
}

func (r *AdvertsRepo) UpdateStatus(ctx context.Context, id string, status domain.AdStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE adverts SET status = $1, updated_at = NOW() WHERE id = $2
	`, status, id)
	if err != nil {
		return fmt.Errorf("update advert status: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return adverts.ErrNotFound
	}
	return nil
}

// ListActive expires any advert whose window has closed, then returns the
// live adverts for the placement. The clamp keeps reporting honest without
// needing a background sweeper.
func (r *AdvertsRepo) ListActive(ctx context.Context, placement domain.AdPlacement) ([]domain.Advertisement, error) {
	_, err := r.db.ExecContext(ctx, `
		UPDATE adverts SET status = 'expired', updated_at = NOW()
		WHERE status IN ('active', 'paused') AND ends_at <= NOW()
	`)
	if err != nil {
		return nil, fmt.Errorf("expire adverts: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+advertColumns+`
		FROM adverts
		WHERE placement = $1 AND status = 'active'
		  AND starts_at <= NOW() AND ends_at > NOW()
		ORDER BY created_at
	`, placement)
	if err != nil {
		return nil, fmt.Errorf("list active adverts: %w", err)
	}
	defer rows.Close()

	var out []domain.Advertisement
	for rows.Next() {
		a, err := scanAdvert(rows)
		if err != nil {
			return nil, fmt.Errorf("scan advert: %w", err)
		}
		out = append(out, *a)
	}
	return out, nil
}

func (r *AdvertsRepo) RecordImpression(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE adverts SET impressions = impressions + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("record impression: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return adverts.ErrNotFound
	}
	return nil
}

func (r *AdvertsRepo) RecordClick(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE adverts SET clicks = clicks + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("record click: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return adverts.ErrNotFound
	}
	return nil
}
