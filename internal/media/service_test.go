package media_test

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/IQTechSolutions/ConectOne-sub011/internal/config"
	"github.com/IQTechSolutions/ConectOne-sub011/internal/domain"
	"github.com/IQTechSolutions/ConectOne-sub011/internal/media"
)

// memRepo is an in-memory media repository for unit testing.
type memRepo struct {
	mu     sync.Mutex
	assets map[string]*domain.MediaAsset
}

func newMemRepo() *memRepo {
	return &memRepo{assets: make(map[string]*domain.MediaAsset)}
}

func (m *memRepo) Create(_ context.Context, a *domain.MediaAsset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.assets[a.ID] = &cp
	return nil
}

func (m *memRepo) Get(_ context.Context, id string) (*domain.MediaAsset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assets[id]
	if !ok {
		return nil, media.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.assets[id]; !ok {
		return media.ErrNotFound
	}
	delete(m.assets, id)
	return nil
}

func (m *memRepo) ListByOwner(_ context.Context, ownerRef string) ([]domain.MediaAsset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.MediaAsset
	for _, a := range m.assets {
		if a.OwnerRef == ownerRef {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memRepo) FindByChecksum(_ context.Context, ownerRef, checksum string) (*domain.MediaAsset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.assets {
		if a.OwnerRef == ownerRef && a.Checksum == checksum {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

// fakeStore is an in-memory blob store for unit testing.
type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string][]byte)}
}

func (f *fakeStore) Put(_ context.Context, key string, data []byte, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	return nil
}

func (f *fakeStore) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[key]
	if !ok {
		return nil, fmt.Errorf("no such key: %s", key)
	}
	return data, nil
}

func (f *fakeStore) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

func (f *fakeStore) URL(key string) string { return "https://cdn.test/" + key }

func (f *fakeStore) Ping(_ context.Context) error { return nil }

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

func newService() (*media.Service, *memRepo, *fakeStore) {
	repo := newMemRepo()
	store := newFakeStore()
	svc := media.NewService(repo, store, config.MediaConfig{
		MaxImageSizeMB: 1,
		MaxVideoSizeMB: 1,
		BatchWorkers:   2,
	})
	return svc, repo, store
}

// pngImage encodes a blank PNG with the given dimensions.
func pngImage(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, width, height))); err != nil {
		t.Fatalf("encoding test image: %v", err)
	}
	return buf.Bytes()
}

// mp4Bytes fakes an MP4 file: an ftyp box header followed by padding.
func mp4Bytes() []byte {
	data := []byte{0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p', 'i', 's', 'o', 'm'}
	return append(data, bytes.Repeat([]byte{0x00}, 64)...)
}

func TestUploadImage(t *testing.T) {
	svc, _, store := newService()

	data := pngImage(t, 1600, 900)
	asset, err := svc.UploadImage(context.Background(), "listing:abc", "photo.png", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("UploadImage: %v", err)
	}

	if asset.Kind != domain.MediaImage {
		t.Errorf("kind = %s, want image", asset.Kind)
	}
	if asset.Width != 1600 || asset.Height != 900 {
		t.Errorf("dimensions = %dx%d, want 1600x900", asset.Width, asset.Height)
	}
	if asset.ContentType != "image/png" {
		t.Errorf("content type = %s, want image/png", asset.ContentType)
	}
	if asset.Checksum == "" {
		t.Error("expected checksum to be set")
	}
	if !strings.HasPrefix(asset.URL, "https://cdn.test/images/listing/abc/") {
		t.Errorf("unexpected URL: %s", asset.URL)
	}
	if asset.LargeURL == "" || asset.MediumURL == "" || asset.ThumbnailURL == "" {
		t.Errorf("expected all variants, got large=%q medium=%q thumb=%q",
			asset.LargeURL, asset.MediumURL, asset.ThumbnailURL)
	}

	// Original plus three variants.
	if got := store.count(); got != 4 {
		t.Errorf("stored objects = %d, want 4", got)
	}
}

func TestUploadImageSmallSkipsVariants(t *testing.T) {
	svc, _, store := newService()

	data := pngImage(t, 120, 80)
	asset, err := svc.UploadImage(context.Background(), "listing:abc", "icon.png", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("UploadImage: %v", err)
	}

	if asset.LargeURL != "" || asset.MediumURL != "" || asset.ThumbnailURL != "" {
		t.Errorf("expected no variants for a 120px image, got large=%q medium=%q thumb=%q",
			asset.LargeURL, asset.MediumURL, asset.ThumbnailURL)
	}
	if got := store.count(); got != 1 {
		t.Errorf("stored objects = %d, want 1", got)
	}
}

func TestUploadImageDuplicate(t *testing.T) {
	svc, _, store := newService()
	ctx := context.Background()

	data := pngImage(t, 800, 600)
	first, err := svc.UploadImage(ctx, "listing:abc", "a.png", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("first upload: %v", err)
	}
	countAfterFirst := store.count()

	second, err := svc.UploadImage(ctx, "listing:abc", "b.png", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("second upload: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("duplicate upload created a new asset: %s vs %s", second.ID, first.ID)
	}
	if got := store.count(); got != countAfterFirst {
		t.Errorf("duplicate upload stored new objects: %d vs %d", got, countAfterFirst)
	}

	// The same bytes for a different owner are a separate asset.
	third, err := svc.UploadImage(ctx, "listing:other", "c.png", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("third upload: %v", err)
	}
	if third.ID == first.ID {
		t.Error("different owners must not share assets")
	}
}

func TestUploadImageTooLarge(t *testing.T) {
	svc, _, _ := newService()

	data := bytes.Repeat([]byte{0xAB}, 1024*1024+1)
	_, err := svc.UploadImage(context.Background(), "listing:abc", "big.png", bytes.NewReader(data))
	if err == nil || !strings.Contains(err.Error(), "exceeds maximum") {
		t.Errorf("expected size error, got %v", err)
	}
}

func TestUploadImageUnsupportedType(t *testing.T) {
	svc, _, _ := newService()

	_, err := svc.UploadImage(context.Background(), "listing:abc", "notes.txt", strings.NewReader("just text"))
	if err == nil || !strings.Contains(err.Error(), "unsupported image type") {
		t.Errorf("expected type error, got %v", err)
	}
}

func TestUploadVideo(t *testing.T) {
	svc, _, store := newService()

	asset, err := svc.UploadVideo(context.Background(), "listing:abc", "clip.mp4", bytes.NewReader(mp4Bytes()))
	if err != nil {
		t.Fatalf("UploadVideo: %v", err)
	}

	if asset.Kind != domain.MediaVideo {
		t.Errorf("kind = %s, want video", asset.Kind)
	}
	if asset.ContentType != "video/mp4" {
		t.Errorf("content type = %s, want video/mp4", asset.ContentType)
	}
	if !strings.HasPrefix(asset.URL, "https://cdn.test/videos/listing/abc/") {
		t.Errorf("unexpected URL: %s", asset.URL)
	}
	if asset.Width != 0 || asset.LargeURL != "" {
		t.Error("videos must not carry image variants")
	}
	if got := store.count(); got != 1 {
		t.Errorf("stored objects = %d, want 1", got)
	}
}

func TestUploadVideoUnsupportedType(t *testing.T) {
	svc, _, _ := newService()

	data := pngImage(t, 10, 10)
	_, err := svc.UploadVideo(context.Background(), "listing:abc", "clip.mp4", bytes.NewReader(data))
	if err == nil || !strings.Contains(err.Error(), "unsupported video type") {
		t.Errorf("expected type error, got %v", err)
	}
}

func TestUploadBatch(t *testing.T) {
	svc, _, store := newService()

	files := []media.BatchFile{
		{Filename: "one.png", Kind: domain.MediaImage, File: bytes.NewReader(pngImage(t, 400, 300))},
		{Filename: "clip.mp4", Kind: domain.MediaVideo, File: bytes.NewReader(mp4Bytes())},
		{Filename: "bad.txt", Kind: domain.MediaImage, File: strings.NewReader("not an image")},
	}

	results := svc.UploadBatch(context.Background(), "listing:abc", files)
	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}

	if results[0].Error != "" || results[0].Asset == nil {
		t.Errorf("first file failed: %s", results[0].Error)
	}
	if results[1].Error != "" || results[1].Asset == nil {
		t.Errorf("second file failed: %s", results[1].Error)
	}
	if results[2].Error == "" || results[2].Asset != nil {
		t.Error("expected the text file to fail")
	}
	if results[2].Filename != "bad.txt" {
		t.Errorf("results out of order: got %s at index 2", results[2].Filename)
	}

	// 400px image stores original plus thumbnail; the video stores one object.
	if got := store.count(); got != 3 {
		t.Errorf("stored objects = %d, want 3", got)
	}
}

func TestDelete(t *testing.T) {
	svc, _, store := newService()
	ctx := context.Background()

	asset, err := svc.UploadImage(ctx, "listing:abc", "a.png", bytes.NewReader(pngImage(t, 800, 600)))
	if err != nil {
		t.Fatalf("UploadImage: %v", err)
	}

	if err := svc.Delete(ctx, asset.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got := store.count(); got != 0 {
		t.Errorf("blobs left after delete: %d", got)
	}
	if _, err := svc.Get(ctx, asset.ID); err != media.ErrNotFound {
		t.Errorf("Get after delete = %v, want ErrNotFound", err)
	}
	if err := svc.Delete(ctx, asset.ID); err != media.ErrNotFound {
		t.Errorf("second delete = %v, want ErrNotFound", err)
	}
}

func TestListByOwner(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()

	for i, dims := range [][2]int{{300, 200}, {320, 200}} {
		name := fmt.Sprintf("img%d.png", i)
		if _, err := svc.UploadImage(ctx, "event:1", name, bytes.NewReader(pngImage(t, dims[0], dims[1]))); err != nil {
			t.Fatalf("uploading %s: %v", name, err)
		}
	}
	if _, err := svc.UploadImage(ctx, "event:2", "other.png", bytes.NewReader(pngImage(t, 340, 200))); err != nil {
		t.Fatalf("uploading other.png: %v", err)
	}

	assets, err := svc.ListByOwner(ctx, "event:1")
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}
	if len(assets) != 2 {
		t.Errorf("assets = %d, want 2", len(assets))
	}
	for _, a := range assets {
		if a.OwnerRef != "event:1" {
			t.Errorf("asset %s has owner %s", a.ID, a.OwnerRef)
		}
	}
}
