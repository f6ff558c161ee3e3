package directory

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/IQTechSolutions/ConectOne-sub011/internal/domain"
)

// Service implements directory business logic.
type Service struct {
	repo Repository
}

// NewService creates a directory service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetTier returns a single tier.
func (s *Service) GetTier(ctx context.Context, id string) (*domain.ListingTier, error) {
	return s.repo.GetTier(ctx, id)
}

// ListTiers returns all tiers in rank order.
func (s *Service) ListTiers(ctx context.Context) ([]domain.ListingTier, error) {
	return s.repo.ListTiers(ctx)
}

// CreateTier validates and persists a new tier.
func (s *Service) CreateTier(ctx context.Context, input TierInput) (*domain.ListingTier, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if input.MonthlyPrice < 0 {
		return nil, fmt.Errorf("monthly_price must not be negative")
	}
	if input.MaxImages < 0 || input.MaxVideos < 0 {
		return nil, fmt.Errorf("media limits must not be negative")
	}

	t := &domain.ListingTier{
		ID:           uuid.New().String(),
		Name:         input.Name,
		MonthlyPrice: input.MonthlyPrice,
		MaxImages:    input.MaxImages,
		MaxVideos:    input.MaxVideos,
		Featured:     input.Featured,
		SortRank:     input.SortRank,
	}

	id, err := s.repo.CreateTier(ctx, t)
	if err != nil {
		return nil, err
	}
	t.ID = id
	return t, nil
}

// UpdateTier modifies mutable tier fields.
func (s *Service) UpdateTier(ctx context.Context, id string, u TierUpdate) error {
	if u.MonthlyPrice != nil && *u.MonthlyPrice < 0 {
		return fmt.Errorf("monthly_price must not be negative")
	}
	if (u.MaxImages != nil && *u.MaxImages < 0) || (u.MaxVideos != nil && *u.MaxVideos < 0) {
		return fmt.Errorf("media limits must not be negative")
	}
	return s.repo.UpdateTier(ctx, id, u)
}

// DeleteTier removes a tier. Fails while listings reference it.
func (s *Service) DeleteTier(ctx context.Context, id string) error {
	return s.repo.DeleteTier(ctx, id)
}

// Get returns a single listing.
func (s *Service) Get(ctx context.Context, id string) (*domain.BusinessListing, error) {
	return s.repo.Get(ctx, id)
}

// List returns listings matching the filter.
func (s *Service) List(ctx context.Context, f ListFilter) ([]domain.BusinessListing, int, error) {
	return s.repo.List(ctx, f)
}

// Create validates and persists a new listing in pending status.
func (s *Service) Create(ctx context.Context, input CreateInput) (*domain.BusinessListing, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if input.OwnerEmail == "" {
		return nil, fmt.Errorf("owner_email is required")
	}
	if input.TierID == "" {
		return nil, fmt.Errorf("tier_id is required")
	}
	if _, err := s.repo.GetTier(ctx, input.TierID); err != nil {
		return nil, err
	}

	l := &domain.BusinessListing{
		ID:           uuid.New().String(),
		TierID:       input.TierID,
		Name:         input.Name,
		Description:  input.Description,
		Categories:   input.Categories,
		OwnerName:    input.OwnerName,
		OwnerEmail:   input.OwnerEmail,
		PhoneNumber:  input.PhoneNumber,
		Website:      input.Website,
		AddressLine1: input.AddressLine1,
		City:         input.City,
		Province:     input.Province,
		PostalCode:   input.PostalCode,
		Status:       domain.ListingPending,
	}

	id, err := s.repo.Create(ctx, l)
	if err != nil {
		return nil, err
	}
	l.ID = id
	return l, nil
}

// Update modifies mutable listing fields. Changing the tier re-checks that
// the new tier exists but doesn't retroactively trim attached media; the
// caps only gate new attachments.
func (s *Service) Update(ctx context.Context, id string, u UpdateFields) error {
	if u.TierID != nil {
		if _, err := s.repo.GetTier(ctx, *u.TierID); err != nil {
			return err
		}
	}
	return s.repo.Update(ctx, id, u)
}

// Delete removes a listing along with its media attachments.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// Approve transitions a listing to approved and clears any rejection reason.
func (s *Service) Approve(ctx context.Context, id string) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.UpdateStatus(ctx, id, domain.ListingApproved, "")
}

// Reject transitions a listing to rejected with an explanatory reason.
func (s *Service) Reject(ctx context.Context, id, reason string) error {
	if reason == "" {
		return fmt.Errorf("reason is required")
	}
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.UpdateStatus(ctx, id, domain.ListingRejected, reason)
}

// Disable takes an approved listing out of the public directory without
// losing its content.
func (s *Service) Disable(ctx context.Context, id string) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.UpdateStatus(ctx, id, domain.ListingDisabled, "")
}

// AttachMedia links an uploaded asset to a listing, bounded by the tier's
// image and video limits.
func (s *Service) AttachMedia(ctx context.Context, listingID string, input AttachInput) error {
	kind := domain.ListingMediaKind(input.Kind)
	if kind != domain.ListingImage && kind != domain.ListingVideo {
		return fmt.Errorf("kind must be image or video")
	}
	if input.AssetID == "" {
		return fmt.Errorf("asset_id is required")
	}

	l, err := s.repo.Get(ctx, listingID)
	if err != nil {
		return err
	}
	tier, err := s.repo.GetTier(ctx, l.TierID)
	if err != nil {
		return fmt.Errorf("resolve tier: %w", err)
	}

	count, err := s.repo.CountMedia(ctx, listingID, kind)
	if err != nil {
		return err
	}
	if kind == domain.ListingImage && count >= tier.MaxImages {
		return fmt.Errorf("tier %s allows at most %d images", tier.Name, tier.MaxImages)
	}
	if kind == domain.ListingVideo && count >= tier.MaxVideos {
		return fmt.Errorf("tier %s allows at most %d videos", tier.Name, tier.MaxVideos)
	}

	return s.repo.AttachMedia(ctx, &domain.ListingMedia{
		ListingID: listingID,
		AssetID:   input.AssetID,
		Kind:      kind,
		Position:  count,
	})
}

// RemoveMedia detaches an asset from a listing.
func (s *Service) RemoveMedia(ctx context.Context, listingID, assetID string) error {
	if _, err := s.repo.Get(ctx, listingID); err != nil {
		return err
	}
	return s.repo.RemoveMedia(ctx, listingID, assetID)
}

// ListMedia returns a listing's attached media in position order.
func (s *Service) ListMedia(ctx context.Context, listingID string) ([]domain.ListingMedia, error) {
	if _, err := s.repo.Get(ctx, listingID); err != nil {
		return nil, err
	}
	return s.repo.ListMedia(ctx, listingID)
}

// ContactOwner relays a visitor enquiry to the listing owner by email.
// The returned warnings surface delivery problems without failing the
// request; the enquiry itself never errors once the listing checks pass.
func (s *Service) ContactOwner(ctx context.Context, listingID string, input EnquiryInput) ([]string, error) {
	if input.SenderName == "" {
		return nil, fmt.Errorf("sender_name is required")
	}
	if input.SenderEmail == "" {
		return nil, fmt.Errorf("sender_email is required")
	}
	if input.Body == "" {
		return nil, fmt.Errorf("body is required")
	}

	l, err := s.repo.Get(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if !l.IsVisible() {
		return nil, ErrNotApproved
	}

	var warnings []string
	n := &domain.Notification{
		ID:            uuid.New().String(),
		Channel:       domain.ChannelEmail,
		Recipient:     l.OwnerEmail,
		RecipientName: l.OwnerName,
		Subject:       fmt.Sprintf("New enquiry for %s", l.Name),
		Body: fmt.Sprintf("You have a new enquiry for %s.\n\nFrom: %s <%s>\n\n%s",
			l.Name, input.SenderName, input.SenderEmail, input.Body),
		Status: domain.OutboxQueued,
	}
	if err := s.repo.EnqueueEnquiry(ctx, n); err != nil {
		log.Printf("[directory.Service] enquiry enqueue failed for listing %s: %v", listingID, err)
		warnings = append(warnings, fmt.Sprintf("could not queue enquiry email to %s", l.OwnerEmail))
	}
	return warnings, nil
}

// TierInput holds the fields for creating a new tier.
type TierInput struct {
	Name         string  `json:"name"`
	MonthlyPrice float64 `json:"monthly_price"`
	MaxImages    int     `json:"max_images"`
	MaxVideos    int     `json:"max_videos"`
	Featured     bool    `json:"featured"`
	SortRank     int     `json:"sort_rank"`
}

// CreateInput holds the fields for creating a new listing.
type CreateInput struct {
	TierID       string   `json:"tier_id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Categories   []string `json:"categories"`
	OwnerName    string   `json:"owner_name"`
	OwnerEmail   string   `json:"owner_email"`
	PhoneNumber  string   `json:"phone_number"`
	Website      string   `json:"website"`
	AddressLine1 string   `json:"address_line1"`
	City         string   `json:"city"`
	Province     string   `json:"province"`
	PostalCode   string   `json:"postal_code"`
}

// AttachInput holds the fields for attaching media to a listing.
type AttachInput struct {
	AssetID string `json:"asset_id"`
	Kind    string `json:"kind"`
}

// EnquiryInput holds the fields of a visitor enquiry.
type EnquiryInput struct {
	SenderName  string `json:"sender_name"`
	SenderEmail string `json:"sender_email"`
	Body        string `json:"body"`
}
