package domain

import "time"

// AdPlacement enumerates the page slots an advertisement can occupy.
type AdPlacement string

const (
	PlacementBanner     AdPlacement = "banner"
	PlacementSidebar    AdPlacement = "sidebar"
	PlacementFooter     AdPlacement = "footer"
	PlacementNewsletter AdPlacement = "newsletter"
)

// AdStatus enumerates the lifecycle states of an advertisement.
type AdStatus string

const (
	AdDraft   AdStatus = "draft"
	AdActive  AdStatus = "active"
	AdPaused  AdStatus = "paused"
	AdExpired AdStatus = "expired"
)

// Advertisement is a paid placement shown across the enterprise portal.
// Impressions and clicks are raw counters incremented by the tracking
// endpoints.
type Advertisement struct {
	ID              string      `json:"id" db:"id"`
	Title           string      `json:"title" db:"title"`
	AdvertiserName  string      `json:"advertiser_name" db:"advertiser_name"`
	AdvertiserEmail string      `json:"advertiser_email" db:"advertiser_email"`
	Placement       AdPlacement `json:"placement" db:"placement"`
	BannerURL       string      `json:"banner_url" db:"banner_url"`
	TargetURL       string      `json:"target_url" db:"target_url"`
	StartsAt        time.Time   `json:"starts_at" db:"starts_at"`
	EndsAt          time.Time   `json:"ends_at" db:"ends_at"`
	Status          AdStatus    `json:"status" db:"status"`
	Impressions     int64       `json:"impressions" db:"impressions"`
	Clicks          int64       `json:"clicks" db:"clicks"`
	CreatedAt       time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at" db:"updated_at"`
}

// IsLive reports whether the advert should be served at the given time.
func (a *Advertisement) IsLive(now time.Time) bool {
	return a.Status == AdActive && !now.Before(a.StartsAt) && now.Before(a.EndsAt)
}
