package vacations

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/IQTechSolutions/ConectOne-sub011/internal/domain"
)

// Service implements vacation package business logic.
type Service struct {
	repo Repository
}

// NewService creates a vacations service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns a single package.
func (s *Service) Get(ctx context.Context, id string) (*domain.Vacation, error) {
	return s.repo.Get(ctx, id)
}

// List returns packages matching the filter.
func (s *Service) List(ctx context.Context, f ListFilter) ([]domain.Vacation, int, error) {
	return s.repo.List(ctx, f)
}

// Create validates and persists a new package in draft status.
func (s *Service) Create(ctx context.Context, input CreateInput) (*domain.Vacation, error) {
	if input.Title == "" {
		return nil, fmt.Errorf("title is required")
	}
	if input.Destination == "" {
		return nil, fmt.Errorf("destination is required")
	}
	if input.StarGrading < 0 || input.StarGrading > 5 {
		return nil, fmt.Errorf("star_grading must be between 0 and 5")
	}
	if input.PricePerNight < 0 || input.PackagePrice < 0 {
		return nil, fmt.Errorf("prices must not be negative")
	}
	if input.AvailableFrom.IsZero() || input.AvailableTo.IsZero() {
		return nil, fmt.Errorf("availability window is required")
	}
	if !input.AvailableFrom.Before(input.AvailableTo) {
		return nil, fmt.Errorf("available_from must be before available_to")
	}

	v := &domain.Vacation{
		ID:            uuid.New().String(),
		Title:         input.Title,
		Description:   input.Description,
		Destination:   input.Destination,
		Accommodation: input.Accommodation,
		StarGrading:   input.StarGrading,
		PricePerNight: input.PricePerNight,
		PackagePrice:  input.PackagePrice,
		AvailableFrom: input.AvailableFrom,
		AvailableTo:   input.AvailableTo,
		Capacity:      input.Capacity,
		Status:        domain.VacationDraft,
	}

	id, err := s.repo.Create(ctx, v)
	if err != nil {
		return nil, err
	}
	v.ID = id
	return v, nil
}

// Update modifies mutable package fields. Archived packages are frozen.
func (s *Service) Update(ctx context.Context, id string, u UpdateFields) error {
	v, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if v.Status == domain.VacationArchived {
		return ErrArchived
	}

	if u.StarGrading != nil && (*u.StarGrading < 0 || *u.StarGrading > 5) {
		return fmt.Errorf("star_grading must be between 0 and 5")
	}
	from, to := v.AvailableFrom, v.AvailableTo
	if u.AvailableFrom != nil {
		from = *u.AvailableFrom
	}
	if u.AvailableTo != nil {
		to = *u.AvailableTo
	}
	if !from.Before(to) {
		return fmt.Errorf("available_from must be before available_to")
	}

	return s.repo.Update(ctx, id, u)
}

// Delete removes a draft package.
func (s *Service) Delete(ctx context.Context, id string) error {
	v, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if v.Status != domain.VacationDraft {
		return ErrNotDraft
	}
	return s.repo.Delete(ctx, id)
}

// Publish transitions a draft package to published.
func (s *Service) Publish(ctx context.Context, id string) error {
	v, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if v.Status != domain.VacationDraft {
		return ErrInvalidTransition
	}
	return s.repo.UpdateStatus(ctx, id, domain.VacationPublished)
}

// Archive retires a package from the portal. Archiving is allowed from any
// non-archived state so stale drafts can be tidied too.
func (s *Service) Archive(ctx context.Context, id string) error {
	v, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if v.Status == domain.VacationArchived {
		return ErrInvalidTransition
	}
	return s.repo.UpdateStatus(ctx, id, domain.VacationArchived)
}

// AttachImage links an uploaded asset to a package.
func (s *Service) AttachImage(ctx context.Context, vacationID, assetID string) error {
	if assetID == "" {
		return fmt.Errorf("asset_id is required")
	}
	if _, err := s.repo.Get(ctx, vacationID); err != nil {
		return err
	}
	count, err := s.repo.CountImages(ctx, vacationID)
	if err != nil {
		return err
	}
	return s.repo.AttachImage(ctx, vacationID, assetID, count)
}

// RemoveImage detaches an asset from a package.
func (s *Service) RemoveImage(ctx context.Context, vacationID, assetID string) error {
	if _, err := s.repo.Get(ctx, vacationID); err != nil {
		return err
	}
	return s.repo.RemoveImage(ctx, vacationID, assetID)
}

// ListImages returns the package's gallery in position order.
func (s *Service) ListImages(ctx context.Context, vacationID string) ([]domain.MediaAsset, error) {
	if _, err := s.repo.Get(ctx, vacationID); err != nil {
		return nil, err
	}
	return s.repo.ListImages(ctx, vacationID)
}

// CreateInput holds the fields for creating a new package.
type CreateInput struct {
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Destination   string    `json:"destination"`
	Accommodation string    `json:"accommodation"`
	StarGrading   int       `json:"star_grading"`
	PricePerNight float64   `json:"price_per_night"`
	PackagePrice  float64   `json:"package_price"`
	AvailableFrom time.Time `json:"available_from"`
	AvailableTo   time.Time `json:"available_to"`
	Capacity      int       `json:"capacity"`
}
