package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/IQTechSolutions/ConectOne-sub011/internal/domain"
	"github.com/IQTechSolutions/ConectOne-sub011/internal/media"
)

// MediaRepo implements media.Repository against PostgreSQL.
type MediaRepo struct{ db *sql.DB }

// NewMediaRepo creates a Postgres-backed media asset repository.
func NewMediaRepo(db *sql.DB) *MediaRepo { return &MediaRepo{db: db} }

const mediaAssetColumns = `
	id, owner_ref, kind, filename, original_filename, content_type, size,
	width, height, storage_key, url,
	COALESCE(large_url, ''), COALESCE(medium_url, ''), COALESCE(thumbnail_url, ''),
	checksum, created_at`

func (r *MediaRepo) Create(ctx context.Context, a *domain.MediaAsset) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO media_assets (
			id, owner_ref, kind, filename, original_filename, content_type,
			size, width, height, storage_key, url,
			large_url, medium_url, thumbnail_url, checksum, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`,
		a.ID, a.OwnerRef, a.Kind, a.Filename, a.OriginalFilename, a.ContentType,
		a.Size, a.Width, a.Height, a.StorageKey, a.URL,
		nullIfEmpty(a.LargeURL), nullIfEmpty(a.MediumURL), nullIfEmpty(a.ThumbnailURL),
		a.Checksum, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert media asset: %w", err)
	}
	return nil
}

func (r *MediaRepo) Get(ctx context.Context, id string) (*domain.MediaAsset, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+mediaAssetColumns+` FROM media_assets WHERE id = $1`, id)

	a, err := scanMediaAsset(row)
	if err == sql.ErrNoRows {
		return nil, media.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get media asset: %w", err)
	}
	return a, nil
}

func (r *MediaRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM media_assets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete media asset: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return media.ErrNotFound
	}
	return nil
}

func (r *MediaRepo) ListByOwner(ctx context.Context, ownerRef string) ([]domain.MediaAsset, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+mediaAssetColumns+` FROM media_assets
		 WHERE owner_ref = $1 ORDER BY created_at`, ownerRef)
	if err != nil {
		return nil, fmt.Errorf("list media assets: %w", err)
	}
	defer rows.Close()

	var out []domain.MediaAsset
	for rows.Next() {
		a, err := scanMediaAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("scan media asset: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (r *MediaRepo) FindByChecksum(ctx context.Context, ownerRef, checksum string) (*domain.MediaAsset, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+mediaAssetColumns+` FROM media_assets
		 WHERE owner_ref = $1 AND checksum = $2 LIMIT 1`, ownerRef, checksum)

	a, err := scanMediaAsset(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find media asset by checksum: %w", err)
	}
	return a, nil
}

// scanMediaAsset reads one media_assets row from a row or rows scanner.
func scanMediaAsset(row interface{ Scan(...interface{}) error }) (*domain.MediaAsset, error) {
	a := &domain.MediaAsset{}
	err := row.Scan(
		&a.ID, &a.OwnerRef, &a.Kind, &a.Filename, &a.OriginalFilename,
		&a.ContentType, &a.Size, &a.Width, &a.Height, &a.StorageKey, &a.URL,
		&a.LargeURL, &a.MediumURL, &a.ThumbnailURL, &a.Checksum, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// nullIfEmpty converts empty strings to NULL for nullable columns.
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
