package adverts

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/IQTechSolutions/ConectOne-sub011/internal/domain"
)

// Service manages advertising placements across the enterprise portal.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Advertisement, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]domain.Advertisement, int, error) {
	return s.repo.List(ctx, f)
}

// Create registers a new advert in draft. It goes live via Activate.
func (s *Service) Create(ctx context.Context, input CreateInput) (*domain.Advertisement, error) {
	if input.Title == "" {
		return nil, fmt.Errorf("title is required")
	}
	if input.AdvertiserName == "" {
		return nil, fmt.Errorf("advertiser_name is required")
	}
	if input.AdvertiserEmail == "" {
		return nil, fmt.Errorf("advertiser_email is required")
	}
	if !validPlacement(input.Placement) {
		return nil, fmt.Errorf("placement must be one of banner, sidebar, footer, newsletter")
	}
	if input.TargetURL == "" {
		return nil, fmt.Errorf("target_url is required")
	}
	if input.StartsAt.IsZero() || input.EndsAt.IsZero() {
		return nil, fmt.Errorf("starts_at and ends_at are required")
	}
	if !input.StartsAt.Before(input.EndsAt) {
		return nil, fmt.Errorf("starts_at must be before ends_at")
	}

	ad := &domain.Advertisement{
		Title:           input.Title,
		AdvertiserName:  input.AdvertiserName,
		AdvertiserEmail: input.AdvertiserEmail,
		Placement:       input.Placement,
		BannerURL:       input.BannerURL,
		TargetURL:       input.TargetURL,
		StartsAt:        input.StartsAt,
		EndsAt:          input.EndsAt,
		Status:          domain.AdDraft,
	}

	id, err := s.repo.Create(ctx, ad)
	if err != nil {
		return nil, err
	}
	ad.ID = id

	log.Printf("[adverts.Service] Created advert %s (%s) for %s", id, ad.Placement, ad.AdvertiserName)
	return ad, nil
}

// Update patches an advert. Expired adverts are frozen.
func (s *Service) Update(ctx context.Context, id string, u UpdateFields) (*domain.Advertisement, error) {
	ad, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if ad.Status == domain.AdExpired {
		return nil, ErrExpired
	}

	if u.Placement != nil && !validPlacement(*u.Placement) {
		return nil, fmt.Errorf("placement must be one of banner, sidebar, footer, newsletter")
	}

	// Recombine the window so a one-sided change still keeps start < end.
	start, end := ad.StartsAt, ad.EndsAt
	if u.StartsAt != nil {
		start = *u.StartsAt
	}
	if u.EndsAt != nil {
		end = *u.EndsAt
	}
	if !start.Before(end) {
		return nil, fmt.Errorf("starts_at must be before ends_at")
	}

	if err := s.repo.Update(ctx, id, u); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// Delete removes an advert. Live adverts must be paused first.
func (s *Service) Delete(ctx context.Context, id string) error {
	ad, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if ad.Status == domain.AdActive {
		return ErrLive
	}
	return s.repo.Delete(ctx, id)
}

// Activate takes a draft advert live. The window must not already be over.
func (s *Service) Activate(ctx context.Context, id string) (*domain.Advertisement, error) {
	ad, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if ad.Status != domain.AdDraft {
		return nil, ErrInvalidTransition
	}
	if !time.Now().Before(ad.EndsAt) {
		return nil, fmt.Errorf("advert window ended %s", ad.EndsAt.Format("2006-01-02"))
	}
	if err := s.repo.UpdateStatus(ctx, id, domain.AdActive); err != nil {
		return nil, err
	}
	log.Printf("[adverts.Service] Activated advert %s (%s)", id, ad.Placement)
	return s.repo.Get(ctx, id)
}

// Pause takes an active advert out of rotation without losing its window.
func (s *Service) Pause(ctx context.Context, id string) (*domain.Advertisement, error) {
	ad, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if ad.Status != domain.AdActive {
		return nil, ErrInvalidTransition
	}
	if err := s.repo.UpdateStatus(ctx, id, domain.AdPaused); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// Resume puts a paused advert back into rotation.
func (s *Service) Resume(ctx context.Context, id string) (*domain.Advertisement, error) {
	ad, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if ad.Status != domain.AdPaused {
		return nil, ErrInvalidTransition
	}
	if err := s.repo.UpdateStatus(ctx, id, domain.AdActive); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// ListActive returns the adverts to serve for a placement right now.
func (s *Service) ListActive(ctx context.Context, placement domain.AdPlacement) ([]domain.Advertisement, error) {
	if !validPlacement(placement) {
		return nil, fmt.Errorf("placement must be one of banner, sidebar, footer, newsletter")
	}
	return s.repo.ListActive(ctx, placement)
}

// RecordImpression bumps the impression counter. Tracking pixels may fire
// from cached pages, so paused adverts still count.
func (s *Service) RecordImpression(ctx context.Context, id string) error {
	return s.repo.RecordImpression(ctx, id)
}

// RecordClick bumps the click counter.
func (s *Service) RecordClick(ctx context.Context, id string) error {
	return s.repo.RecordClick(ctx, id)
}

func validPlacement(p domain.AdPlacement) bool {
	switch p {
	case domain.PlacementBanner, domain.PlacementSidebar, domain.PlacementFooter, domain.PlacementNewsletter:
		return true
	}
	return false
}

// CreateInput carries the fields for a new advertisement.
type CreateInput struct {
	Title           string             `json:"title"`
	AdvertiserName  string             `json:"advertiser_name"`
	AdvertiserEmail string             `json:"advertiser_email"`
	Placement       domain.AdPlacement `json:"placement"`
	BannerURL       string             `json:"banner_url"`
	TargetURL       string             `json:"target_url"`
	StartsAt        time.Time          `json:"starts_at"`
	EndsAt          time.Time          `json:"ends_at"`
}
