package domain

import "time"

// MediaKind distinguishes stored asset types.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// MediaAsset is a stored upload. Images carry resized variant URLs; videos
// are stored as received. OwnerRef identifies what the asset belongs to
// ("listing:<id>", "event:<id>", "school:<id>", ...) so orphan cleanup and
// tier-limit checks can find assets by owner.
type MediaAsset struct {
	ID               string    `json:"id" db:"id"`
	OwnerRef         string    `json:"owner_ref" db:"owner_ref"`
	Kind             MediaKind `json:"kind" db:"kind"`
	Filename         string    `json:"filename" db:"filename"`
	OriginalFilename string    `json:"original_filename" db:"original_filename"`
	ContentType      string    `json:"content_type" db:"content_type"`
	Size             int64     `json:"size" db:"size"`
	Width            int       `json:"width,omitempty" db:"width"`
	Height           int       `json:"height,omitempty" db:"height"`
	StorageKey       string    `json:"storage_key" db:"storage_key"`
	URL              string    `json:"url" db:"url"`
	LargeURL         string    `json:"large_url,omitempty" db:"large_url"`
	MediumURL        string    `json:"medium_url,omitempty" db:"medium_url"`
	ThumbnailURL     string    `json:"thumbnail_url,omitempty" db:"thumbnail_url"`
	Checksum         string    `json:"checksum" db:"checksum"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}
