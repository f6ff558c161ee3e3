package media

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/IQTechSolutions/ConectOne-sub011/internal/config"
	"github.com/IQTechSolutions/ConectOne-sub011/internal/domain"
	"github.com/IQTechSolutions/ConectOne-sub011/internal/pkg/logger"
)

// ErrNotFound is returned when an asset does not exist.
var ErrNotFound = errors.New("media asset not found")

// Repository defines the data access contract for media assets.
type Repository interface {
	Create(ctx context.Context, a *domain.MediaAsset) error
	Get(ctx context.Context, id string) (*domain.MediaAsset, error)
	Delete(ctx context.Context, id string) error
	ListByOwner(ctx context.Context, ownerRef string) ([]domain.MediaAsset, error)

	// FindByChecksum returns the owner's asset with the given checksum,
	// or (nil, nil) when none exists.
	FindByChecksum(ctx context.Context, ownerRef, checksum string) (*domain.MediaAsset, error)
}

// Service implements media uploads, retrieval, and deletion on top of a
// blob store and the asset repository.
type Service struct {
	repo          Repository
	store         BlobStore
	maxImageBytes int64
	maxVideoBytes int64
	batchWorkers  int
}

// NewService creates a media service. Size caps and batch parallelism come
// from cfg, with defaults applied when unset.
func NewService(repo Repository, store BlobStore, cfg config.MediaConfig) *Service {
	maxImage := cfg.MaxImageSizeMB
	if maxImage <= 0 {
		maxImage = 10
	}
	maxVideo := cfg.MaxVideoSizeMB
	if maxVideo <= 0 {
		maxVideo = 200
	}
	workers := cfg.BatchWorkers
	if workers <= 0 {
		workers = 4
	}
	return &Service{
		repo:          repo,
		store:         store,
		maxImageBytes: int64(maxImage) * 1024 * 1024,
		maxVideoBytes: int64(maxVideo) * 1024 * 1024,
		batchWorkers:  workers,
	}
}

// UploadImage validates, stores, and records an image upload. Variants are
// generated for anything wider than the target widths; a variant that fails
// to encode or store is skipped rather than failing the upload. Re-uploading
// identical bytes for the same owner returns the existing asset.
func (s *Service) UploadImage(ctx context.Context, ownerRef, filename string, file io.Reader) (*domain.MediaAsset, error) {
	if ownerRef == "" {
		return nil, fmt.Errorf("owner_ref is required")
	}

	data, err := readCapped(file, s.maxImageBytes)
	if err != nil {
		return nil, err
	}

	contentType := detectContentType(data)
	if !SupportedImageTypes[contentType] {
		return nil, fmt.Errorf("unsupported image type: %s", contentType)
	}

	hash := sha256.Sum256(data)
	checksum := hex.EncodeToString(hash[:])

	existing, err := s.repo.FindByChecksum(ctx, ownerRef, checksum)
	if err != nil {
		return nil, fmt.Errorf("checking for duplicate: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	assetID := uuid.New().String()
	now := time.Now()
	ext := extensionFor(contentType)
	baseKey := fmt.Sprintf("images/%s/%s/%s", keyPrefix(ownerRef), now.Format("2006/01"), assetID)
	originalKey := fmt.Sprintf("%s_original%s", baseKey, ext)

	if err := s.store.Put(ctx, originalKey, data, contentType); err != nil {
		return nil, fmt.Errorf("storing original: %w", err)
	}

	asset := &domain.MediaAsset{
		ID:               assetID,
		OwnerRef:         ownerRef,
		Kind:             domain.MediaImage,
		Filename:         sanitizeFilename(filename),
		OriginalFilename: filename,
		ContentType:      contentType,
		Size:             int64(len(data)),
		Width:            width,
		Height:           height,
		StorageKey:       originalKey,
		URL:              s.store.URL(originalKey),
		Checksum:         checksum,
		CreatedAt:        now,
	}

	vFormat := variantFormat(format)
	vType := formatContentType(vFormat)
	vExt := variantExt(contentType)

	if width > LargeWidth {
		key := fmt.Sprintf("%s_%dw%s", baseKey, LargeWidth, vExt)
		if resized, err := resizeImage(img, LargeWidth, vFormat); err == nil {
			if err := s.store.Put(ctx, key, resized, vType); err == nil {
				asset.LargeURL = s.store.URL(key)
			}
		}
	}

	if width > MediumWidth {
		key := fmt.Sprintf("%s_%dw%s", baseKey, MediumWidth, vExt)
		if resized, err := resizeImage(img, MediumWidth, vFormat); err == nil {
			if err := s.store.Put(ctx, key, resized, vType); err == nil {
				asset.MediumURL = s.store.URL(key)
			}
		}
	}

	thumbKey := fmt.Sprintf("%s_%dw%s", baseKey, ThumbnailWidth, vExt)
	if resized, err := resizeImage(img, ThumbnailWidth, vFormat); err == nil {
		if err := s.store.Put(ctx, thumbKey, resized, vType); err == nil {
			asset.ThumbnailURL = s.store.URL(thumbKey)
		}
	}

	if err := s.repo.Create(ctx, asset); err != nil {
		return nil, fmt.Errorf("saving asset: %w", err)
	}

	logger.Info("image uploaded",
		"asset_id", assetID, "owner", ownerRef, "size", len(data), "width", width)
	return asset, nil
}

// UploadVideo validates and stores a video upload. Videos are stored as
// received; no variants are generated.
func (s *Service) UploadVideo(ctx context.Context, ownerRef, filename string, file io.Reader) (*domain.MediaAsset, error) {
	if ownerRef == "" {
		return nil, fmt.Errorf("owner_ref is required")
	}

	data, err := readCapped(file, s.maxVideoBytes)
	if err != nil {
		return nil, err
	}

	contentType := detectContentType(data)
	if !SupportedVideoTypes[contentType] {
		return nil, fmt.Errorf("unsupported video type: %s", contentType)
	}

	hash := sha256.Sum256(data)
	checksum := hex.EncodeToString(hash[:])

	existing, err := s.repo.FindByChecksum(ctx, ownerRef, checksum)
	if err != nil {
		return nil, fmt.Errorf("checking for duplicate: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	assetID := uuid.New().String()
	now := time.Now()
	key := fmt.Sprintf("videos/%s/%s/%s%s",
		keyPrefix(ownerRef), now.Format("2006/01"), assetID, extensionFor(contentType))

	if err := s.store.Put(ctx, key, data, contentType); err != nil {
		return nil, fmt.Errorf("storing video: %w", err)
	}

	asset := &domain.MediaAsset{
		ID:               assetID,
		OwnerRef:         ownerRef,
		Kind:             domain.MediaVideo,
		Filename:         sanitizeFilename(filename),
		OriginalFilename: filename,
		ContentType:      contentType,
		Size:             int64(len(data)),
		StorageKey:       key,
		URL:              s.store.URL(key),
		Checksum:         checksum,
		CreatedAt:        now,
	}

	if err := s.repo.Create(ctx, asset); err != nil {
		return nil, fmt.Errorf("saving asset: %w", err)
	}

	logger.Info("video uploaded", "asset_id", assetID, "owner", ownerRef, "size", len(data))
	return asset, nil
}

// BatchFile is one file in a batch upload.
type BatchFile struct {
	Filename string
	Kind     domain.MediaKind
	File     io.Reader
}

// BatchResult reports the outcome for one file in a batch upload.
type BatchResult struct {
	Filename string             `json:"filename"`
	Asset    *domain.MediaAsset `json:"asset,omitempty"`
	Error    string             `json:"error,omitempty"`
}

// UploadBatch uploads several files for one owner with bounded parallelism.
// Results line up with the input order; one file failing does not stop the
// others.
func (s *Service) UploadBatch(ctx context.Context, ownerRef string, files []BatchFile) []BatchResult {
	results := make([]BatchResult, len(files))
	sem := make(chan struct{}, s.batchWorkers)
	var wg sync.WaitGroup

	for i, f := range files {
		wg.Add(1)
		go func(i int, f BatchFile) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			results[i].Filename = f.Filename
			if ctx.Err() != nil {
				results[i].Error = ctx.Err().Error()
				return
			}

			var asset *domain.MediaAsset
			var err error
			switch f.Kind {
			case domain.MediaVideo:
				asset, err = s.UploadVideo(ctx, ownerRef, f.Filename, f.File)
			default:
				asset, err = s.UploadImage(ctx, ownerRef, f.Filename, f.File)
			}
			if err != nil {
				results[i].Error = err.Error()
				return
			}
			results[i].Asset = asset
		}(i, f)
	}

	wg.Wait()
	return results
}

// Get returns a single asset.
func (s *Service) Get(ctx context.Context, id string) (*domain.MediaAsset, error) {
	return s.repo.Get(ctx, id)
}

// ListByOwner returns all assets recorded for an owner ref.
func (s *Service) ListByOwner(ctx context.Context, ownerRef string) ([]domain.MediaAsset, error) {
	return s.repo.ListByOwner(ctx, ownerRef)
}

// Delete removes an asset's database row and its stored blobs, variants
// included. A blob that fails to delete is logged and left behind; the row
// always goes.
func (s *Service) Delete(ctx context.Context, id string) error {
	asset, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	for _, key := range assetKeys(asset) {
		if err := s.store.Delete(ctx, key); err != nil {
			logger.Warn("failed to delete blob", "key", key, "error", err.Error())
		}
	}

	return s.repo.Delete(ctx, id)
}

// assetKeys lists the storage keys behind an asset: the original plus any
// generated variants.
func assetKeys(a *domain.MediaAsset) []string {
	keys := []string{a.StorageKey}
	if a.Kind != domain.MediaImage {
		return keys
	}

	ext := filepath.Ext(a.StorageKey)
	base := strings.TrimSuffix(a.StorageKey, "_original"+ext)
	vExt := variantExt(a.ContentType)

	if a.LargeURL != "" {
		keys = append(keys, fmt.Sprintf("%s_%dw%s", base, LargeWidth, vExt))
	}
	if a.MediumURL != "" {
		keys = append(keys, fmt.Sprintf("%s_%dw%s", base, MediumWidth, vExt))
	}
	if a.ThumbnailURL != "" {
		keys = append(keys, fmt.Sprintf("%s_%dw%s", base, ThumbnailWidth, vExt))
	}
	return keys
}

// keyPrefix turns an owner ref like "listing:123" into a key path segment.
func keyPrefix(ownerRef string) string {
	return strings.ReplaceAll(ownerRef, ":", "/")
}

// readCapped reads at most max bytes from r, failing when the input is
// larger.
func readCapped(r io.Reader, max int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	if int64(len(data)) > max {
		return nil, fmt.Errorf("file size exceeds maximum of %d MB", max/(1024*1024))
	}
	return data, nil
}
