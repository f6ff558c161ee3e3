package domain

import "time"

// ListingStatus enumerates the moderation lifecycle of a directory listing.
// New listings start as pending and become visible once approved.
type ListingStatus string

const (
	ListingPending  ListingStatus = "pending"
	ListingApproved ListingStatus = "approved"
	ListingRejected ListingStatus = "rejected"
	ListingDisabled ListingStatus = "disabled"
)

// ListingTier is a paid plan for directory listings. The tier caps how much
// media a listing may attach and controls featured placement and sort order.
type ListingTier struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	MonthlyPrice float64   `json:"monthly_price" db:"monthly_price"`
	MaxImages    int       `json:"max_images" db:"max_images"`
	MaxVideos    int       `json:"max_videos" db:"max_videos"`
	Featured     bool      `json:"featured" db:"featured"`
	SortRank     int       `json:"sort_rank" db:"sort_rank"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// BusinessListing is an enterprise-wide business directory entry.
type BusinessListing struct {
	ID              string        `json:"id" db:"id"`
	TierID          string        `json:"tier_id" db:"tier_id"`
	Name            string        `json:"name" db:"name"`
	Description     string        `json:"description" db:"description"`
	Categories      []string      `json:"categories" db:"categories"`
	OwnerName       string        `json:"owner_name" db:"owner_name"`
	OwnerEmail      string        `json:"owner_email" db:"owner_email"`
	PhoneNumber     string        `json:"phone_number" db:"phone_number"`
	Website         string        `json:"website" db:"website"`
	AddressLine1    string        `json:"address_line1" db:"address_line1"`
	City            string        `json:"city" db:"city"`
	Province        string        `json:"province" db:"province"`
	PostalCode      string        `json:"postal_code" db:"postal_code"`
	Status          ListingStatus `json:"status" db:"status"`
	RejectionReason string        `json:"rejection_reason,omitempty" db:"rejection_reason"`
	ImageCount      int           `json:"image_count" db:"image_count"`
	VideoCount      int           `json:"video_count" db:"video_count"`
	CreatedAt       time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at" db:"updated_at"`
}

// IsVisible reports whether the listing shows in public directory queries.
func (l *BusinessListing) IsVisible() bool {
	return l.Status == ListingApproved
}

// ListingMediaKind distinguishes listing images from listing videos for
// tier-limit accounting.
type ListingMediaKind string

const (
	ListingImage ListingMediaKind = "image"
	ListingVideo ListingMediaKind = "video"
)

// ListingMedia attaches a stored media asset to a listing.
type ListingMedia struct {
	ListingID string           `json:"listing_id" db:"listing_id"`
	AssetID   string           `json:"asset_id" db:"asset_id"`
	Kind      ListingMediaKind `json:"kind" db:"kind"`
	Position  int              `json:"position" db:"position"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
}
