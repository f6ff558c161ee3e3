package vacations

import (
	"context"
	"time"

	"github.com/IQTechSolutions/ConectOne-sub011/internal/domain"
)

// Repository defines the data access contract for vacation packages.
type Repository interface {
	Get(ctx context.Context, id string) (*domain.Vacation, error)
	List(ctx context.Context, f ListFilter) ([]domain.Vacation, int, error)
	Create(ctx context.Context, v *domain.Vacation) (string, error)
	Update(ctx context.Context, id string, u UpdateFields) error
	Delete(ctx context.Context, id string) error
	UpdateStatus(ctx context.Context, id string, status domain.VacationStatus) error

	// AttachImage links a stored asset to a package. Returns
	// ErrAssetNotFound when the asset doesn't exist.
	AttachImage(ctx context.Context, vacationID, assetID string, position int) error

	// RemoveImage detaches an asset. Returns ErrImageNotFound when the
	// asset isn't attached.
	RemoveImage(ctx context.Context, vacationID, assetID string) error

	// ListImages returns the package's images in position order.
	ListImages(ctx context.Context, vacationID string) ([]domain.MediaAsset, error)
	CountImages(ctx context.Context, vacationID string) (int, error)
}

// ListFilter controls pagination and filtering for package queries. From and
// To, when both set, keep only packages whose availability overlaps the
// window. MaxPrice keeps packages priced at or under the ceiling.
type ListFilter struct {
	Destination string
	Status      string
	From        time.Time
	To          time.Time
	MaxPrice    float64
	Limit       int
	Offset      int
}

// UpdateFields holds the mutable fields for a package update.
// Nil fields are not applied.
type UpdateFields struct {
	Title         *string
	Description   *string
	Destination   *string
	Accommodation *string
	StarGrading   *int
	PricePerNight *float64
	PackagePrice  *float64
	AvailableFrom *time.Time
	AvailableTo   *time.Time
	Capacity      *int
}
