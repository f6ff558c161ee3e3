package directory

import (
	"context"

	"github.com/IQTechSolutions/ConectOne-sub011/internal/domain"
)

// Repository defines the data access contract for listing tiers, listings
// and their attached media.
type Repository interface {
	GetTier(ctx context.Context, id string) (*domain.ListingTier, error)

	// ListTiers returns all tiers ordered by sort rank.
	ListTiers(ctx context.Context) ([]domain.ListingTier, error)
	CreateTier(ctx context.Context, t *domain.ListingTier) (string, error)
	UpdateTier(ctx context.Context, id string, u TierUpdate) error

	// DeleteTier removes a tier. Returns ErrTierInUse while listings
	// reference it.
	DeleteTier(ctx context.Context, id string) error

	Get(ctx context.Context, id string) (*domain.BusinessListing, error)
	List(ctx context.Context, f ListFilter) ([]domain.BusinessListing, int, error)
	Create(ctx context.Context, l *domain.BusinessListing) (string, error)
	Update(ctx context.Context, id string, u UpdateFields) error
	Delete(ctx context.Context, id string) error

	// UpdateStatus transitions the moderation status. The reason is stored
	// for rejections and cleared otherwise.
	UpdateStatus(ctx context.Context, id string, status domain.ListingStatus, reason string) error

	// AttachMedia links a stored asset to a listing. Returns
	// ErrAssetNotFound when the asset doesn't exist.
	AttachMedia(ctx context.Context, m *domain.ListingMedia) error

	// RemoveMedia detaches an asset. Returns ErrMediaNotFound when the
	// asset isn't attached.
	RemoveMedia(ctx context.Context, listingID, assetID string) error

	ListMedia(ctx context.Context, listingID string) ([]domain.ListingMedia, error)
	CountMedia(ctx context.Context, listingID string, kind domain.ListingMediaKind) (int, error)

	// EnqueueEnquiry queues a visitor enquiry email in the notification
	// outbox.
	EnqueueEnquiry(ctx context.Context, n *domain.Notification) error
}

// ListFilter controls pagination and filtering for listing queries.
type ListFilter struct {
	TierID   string
	Category string
	Status   string
	Search   string
	Limit    int
	Offset   int
}

// TierUpdate holds the mutable fields for a tier update.
// Nil fields are not applied.
type TierUpdate struct {
	Name         *string
	MonthlyPrice *float64
	MaxImages    *int
	MaxVideos    *int
	Featured     *bool
	SortRank     *int
}

// UpdateFields holds the mutable fields for a listing update.
type UpdateFields struct {
	TierID       *string
	Name         *string
	Description  *string
	Categories   *[]string
	OwnerName    *string
	OwnerEmail   *string
	PhoneNumber  *string
	Website      *string
	AddressLine1 *string
	City         *string
	Province     *string
	PostalCode   *string
}
