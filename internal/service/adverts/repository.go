package adverts

import (
	"context"
	"time"

	"github.com/IQTechSolutions/ConectOne-sub011/internal/domain"
)

// Repository is the persistence contract for advertisements.
type Repository interface {
	Get(ctx context.Context, id string) (*domain.Advertisement, error)
	List(ctx context.Context, f ListFilter) ([]domain.Advertisement, int, error)
	Create(ctx context.Context, a *domain.Advertisement) (string, error)
	Update(ctx context.Context, id string, u UpdateFields) error
	Delete(ctx context.Context, id string) error
	UpdateStatus(ctx context.Context, id string, status domain.AdStatus) error

	// ListActive returns adverts for a placement whose window covers now.
	// Rows whose window has already closed are moved to expired as a side
	// effect, so stale actives never reach the page.
	ListActive(ctx context.Context, placement domain.AdPlacement) ([]domain.Advertisement, error)

	RecordImpression(ctx context.Context, id string) error
	RecordClick(ctx context.Context, id string) error
}

// ListFilter narrows and pages advert listings.
type ListFilter struct {
	Placement domain.AdPlacement
	Status    domain.AdStatus
	LiveOnly  bool
	Limit     int
	Offset    int
}

// UpdateFields carries the mutable advert fields. Nil means leave unchanged.
type UpdateFields struct {
	Title           *string
	AdvertiserName  *string
	AdvertiserEmail *string
	Placement       *domain.AdPlacement
	BannerURL       *string
	TargetURL       *string
	StartsAt        *time.Time
	EndsAt          *time.Time
}
