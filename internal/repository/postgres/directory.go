package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/IQTechSolutions/ConectOne-sub011/internal/domain"
	"github.com/IQTechSolutions/ConectOne-sub011/internal/service/directory"
)

// DirectoryRepo implements directory.Repository against PostgreSQL.
// Listing categories are stored as a text[] column.
type DirectoryRepo struct{ db *sql.DB }

// NewDirectoryRepo creates a Postgres-backed directory repository.
func NewDirectoryRepo(db *sql.DB) *DirectoryRepo { return &DirectoryRepo{db: db} }

func (r *DirectoryRepo) GetTier(ctx context.Context, id string) (*domain.ListingTier, error) {
	t := &domain.ListingTier{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, monthly_price, max_images, max_videos, featured, sort_rank,
		       created_at, updated_at
		FROM listing_tiers
		WHERE id = $1
	`, id).Scan(
		&t.ID, &t.Name, &t.MonthlyPrice, &t.MaxImages, &t.MaxVideos,
		&t.Featured, &t.SortRank, &t.CreatedAt, &t.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, directory.ErrTierNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get tier: %w", err)
	}
	return t, nil
}

func (r *DirectoryRepo) ListTiers(ctx context.Context) ([]domain.ListingTier, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, monthly_price, max_images, max_videos, featured, sort_rank,
		       created_at, updated_at
		FROM listing_tiers
		ORDER BY sort_rank, name
	`)
	if err != nil {
		return nil, fmt.Errorf("list tiers: %w", err)
	}
	defer rows.Close()

	var out []domain.ListingTier
	for rows.Next() {
		var t domain.ListingTier
		if err := rows.Scan(
			&t.ID, &t.Name, &t.MonthlyPrice, &t.MaxImages, &t.MaxVideos,
			&t.Featured, &t.SortRank, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan tier: %w", err)
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *DirectoryRepo) CreateTier(ctx context.Context, t *domain.ListingTier) (string, error) {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO listing_tiers
			(id, name, monthly_price, max_images, max_videos, featured, sort_rank,
			 created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
	`, t.ID, t.Name, t.MonthlyPrice, t.MaxImages, t.MaxVideos, t.Featured, t.SortRank)
	if err != nil {
		return "", fmt.Errorf("create tier: %w", err)
	}
	return t.ID, nil
}

func (r *DirectoryRepo) UpdateTier(ctx context.Context, id string, u directory.TierUpdate) error {
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
	if u.MonthlyPrice != nil {
		add("monthly_price", *u.MonthlyPrice)
	}
	if u.MaxImages != nil {
		add("max_images", *u.MaxImages)
	}
	if u.MaxVideos != nil {
		add("max_videos", *u.MaxVideos)
	}
	if u.Featured != nil {
		add("featured", *u.Featured)
	}
	if u.SortRank != nil {
		add("sort_rank", *u.SortRank)
	}

	if len(sets) == 0 {
		return nil
	}

	sets = append(sets, "updated_at = NOW()")
	q := fmt.Sprintf("UPDATE listing_tiers SET %s WHERE id = $%d", joinComma(sets), idx)
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("update tier: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return directory.ErrTierNotFound
	}
	return nil
}

func (r *DirectoryRepo) DeleteTier(ctx context.Context, id string) error {
	var inUse bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM business_listings WHERE tier_id = $1)`, id,
	).Scan(&inUse)
	if err != nil {
		return fmt.Errorf("check tier usage: %w", err)
	}
	if inUse {
		return directory.ErrTierInUse
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM listing_tiers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete tier: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return directory.ErrTierNotFound
	}
	return nil
}

const listingColumns = `
	l.id, l.tier_id, l.name, l.description, l.categories,
	l.owner_name, l.owner_email, l.phone_number, l.website,
	l.address_line1, l.city, l.province, l.postal_code,
	l.status, COALESCE(l.rejection_reason, ''),
	(SELECT COUNT(*) FROM listing_media m WHERE m.listing_id = l.id AND m.kind = 'image'),
	(SELECT COUNT(*) FROM listing_media m WHERE m.listing_id = l.id AND m.kind = 'video'),
	l.created_at, l.updated_at`

func scanListing(row interface{ Scan(...interface{}) error }) (*domain.BusinessListing, error) {
	l := &domain.BusinessListing{}
	err := row.Scan(
		&l.ID, &l.TierID, &l.Name, &l.Description, pq.Array(&l.Categories),
		&l.OwnerName, &l.OwnerEmail, &l.PhoneNumber, &l.Website,
		&l.AddressLine1, &l.City, &l.Province, &l.PostalCode,
		&l.Status, &l.RejectionReason,
		&l.ImageCount, &l.VideoCount,
		&l.CreatedAt, &l.UpdatedAt,
	)
	return l, err
}

func (r *DirectoryRepo) Get(ctx context.Context, id string) (*domain.BusinessListing, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+listingColumns+` FROM business_listings l WHERE l.id = $1`, id)
	l, err := scanListing(row)
	if err == sql.ErrNoRows {
		return nil, directory.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get listing: %w", err)
	}
	return l, nil
}

func (r *DirectoryRepo) List(ctx context.Context, f directory.ListFilter) ([]domain.BusinessListing, int, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	where := "TRUE"
	args := []interface{}{}
	idx := 1
	if f.TierID != "" {
		where += fmt.Sprintf(" AND l.tier_id = $%d", idx)
		args = append(args, f.TierID)
		idx++
	}
	if f.Status != "" {
		where += fmt.Sprintf(" AND l.status = $%d", idx)
		args = append(args, f.Status)
		idx++
	}
	if f.Category != "" {
		where += fmt.Sprintf(" AND $%d = ANY(l.categories)", idx)
		args = append(args, f.Category)
		idx++
	}
	if f.Search != "" {
		where += fmt.Sprintf(" AND (l.name || ' ' || l.description) ILIKE '%%' || $%d || '%%'", idx)
		args = append(args, f.Search)
		idx++
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM business_listings l WHERE "+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count listings: %w", err)
	}

	q := fmt.Sprintf(`
		SELECT %s
		FROM business_listings l
		JOIN listing_tiers t ON t.id = l.tier_id
		WHERE %s
		ORDER BY t.sort_rank, l.name
		LIMIT $%d OFFSET $%d`, listingColumns, where, idx, idx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list listings: %w", err)
	}
	defer rows.Close()

	var out []domain.BusinessListing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan listing: %w", err)
		}
		out = append(out, *l)
	}
	return out, total, nil
}

func (r *DirectoryRepo) Create(ctx context.Context, l *domain.BusinessListing) (string, error) {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO business_listings
			(id, tier_id, name, description, categories, owner_name, owner_email,
			 phone_number, website, address_line1, city, province, postal_code,
			 status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW())
	`, l.ID, l.TierID, l.Name, l.Description, pq.Array(l.Categories),
		l.OwnerName, l.OwnerEmail, l.PhoneNumber, l.Website,
		l.AddressLine1, l.City, l.Province, l.PostalCode, l.Status)
	if err != nil {
		return "", fmt.Errorf("create listing: %w", err)
	}
	return l.ID, nil
}

func (r *DirectoryRepo) Update(ctx context.Context, id string, u directory.UpdateFields) error {
	sets := []string{}
	args := []interface{}{}
	idx := 1
	add := func(col string, val interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, idx))
		args = append(args, val)
		idx++
	}

	if u.TierID != nil {
		add("tier_id", *u.TierID)
	}
	if u.Name != nil {
		add("name", *u.Name)
	}
	if u.Description != nil {
		add("description", *u.Description)
	}
	if u.Categories != nil {
		add("categories", pq.Array(*u.Categories))
	}
	if u.OwnerName != nil {
		add("owner_name", *u.OwnerName)
	}
	if u.OwnerEmail != nil {
		add("owner_email", *u.OwnerEmail)
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
	if u.City != nil {
		add("city", *u.City)
	}
	if u.Province != nil {
		add("province", *u.Province)
	}
	if u.PostalCode != nil {
		add("postal_code", *u.PostalCode)
	}

	if len(sets) == 0 {
		return nil
	}

	sets = append(sets, "updated_at = NOW()")
	q := fmt.Sprintf("UPDATE business_listings SET %s WHERE id = $%d", joinComma(sets), idx)
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("update listing: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return directory.ErrNotFound
	}
	return nil
}

func (r *DirectoryRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM business_listings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return directory.ErrNotFound
	}
	return nil
}

func (r *DirectoryRepo) UpdateStatus(ctx context.Context, id string, status domain.ListingStatus, reason string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE business_listings
		SET status = $1, rejection_reason = NULLIF($2, ''), updated_at = NOW()
		WHERE id = $3
	`, status, reason, id)
	if err != nil {
		return fmt.Errorf("update listing status: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return directory.ErrNotFound
	}
	return nil
}

func (r *DirectoryRepo) AttachMedia(ctx context.Context, m *domain.ListingMedia) error {
	var assetExists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM media_assets WHERE id = $1)`, m.AssetID,
	).Scan(&assetExists)
	if err != nil {
		return fmt.Errorf("check asset: %w", err)
	}
	if !assetExists {
		return directory.ErrAssetNotFound
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO listing_media (listing_id, asset_id, kind, position, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (listing_id, asset_id) DO UPDATE SET position = $4
	`, m.ListingID, m.AssetID, m.Kind, m.Position)
	if err != nil {
		return fmt.Errorf("attach media: %w", err)
	}
	return nil
}

func (r *DirectoryRepo) RemoveMedia(ctx context.Context, listingID, assetID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM listing_media WHERE listing_id = $1 AND asset_id = $2`,
		listingID, assetID)
	if err != nil {
		return fmt.Errorf("remove media: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return directory.ErrMediaNotFound
	}
	return nil
}

func (r *DirectoryRepo) ListMedia(ctx context.Context, listingID string) ([]domain.ListingMedia, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT listing_id, asset_id, kind, position, created_at
		FROM listing_media
		WHERE listing_id = $1
		ORDER BY position
	`, listingID)
	if err != nil {
		return nil, fmt.Errorf("list media: %w", err)
	}
	defer rows.Close()

	var out []domain.ListingMedia
	for rows.Next() {
		var m domain.ListingMedia
		if err := rows.Scan(&m.ListingID, &m.AssetID, &m.Kind, &m.Position, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan media: %w", err)
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *DirectoryRepo) CountMedia(ctx context.Context, listingID string, kind domain.ListingMediaKind) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM listing_media WHERE listing_id = $1 AND kind = $2`,
		listingID, kind,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count media: %w", err)
	}
	return n, nil
}

func (r *DirectoryRepo) EnqueueEnquiry(ctx context.Context, n *domain.Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO notification_outbox
			(id, channel, recipient, recipient_name, subject, body, status, attempts,
			 created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0, NOW(), NOW())
	`, n.ID, n.Channel, n.Recipient, n.RecipientName, n.Subject, n.Body, n.Status)
	if err != nil {
		return fmt.Errorf("enqueue enquiry: %w", err)
	}
	return nil
}
