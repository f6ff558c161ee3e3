package directory_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/IQTechSolutions/ConectOne-sub011/internal/domain"
	"github.com/IQTechSolutions/ConectOne-sub011/internal/service/directory"
)

// memRepo is an in-memory directory repository for unit testing.
type memRepo struct {
	mu          sync.Mutex
	tiers       map[string]*domain.ListingTier
	listings    map[string]*domain.BusinessListing
	media       map[string]*domain.ListingMedia // listingID|assetID
	assets      map[string]bool                 // known asset ids
	enqueued    []*domain.Notification
	enqueueFail bool
}

func newMemRepo() *memRepo {
	return &memRepo{
		tiers:    make(map[string]*domain.ListingTier),
		listings: make(map[string]*domain.BusinessListing),
		media:    make(map[string]*domain.ListingMedia),
		assets:   make(map[string]bool),
	}
}

func (m *memRepo) GetTier(_ context.Context, id string) (*domain.ListingTier, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tiers[id]
	if !ok {
		return nil, directory.ErrTierNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memRepo) ListTiers(_ context.Context) ([]domain.ListingTier, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.ListingTier
	for _, t := range m.tiers {
		out = append(out, *t)
	}
	return out, nil
}

func (m *memRepo) CreateTier(_ context.Context, t *domain.ListingTier) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.tiers[cp.ID] = &cp
	return cp.ID, nil
}

func (m *memRepo) UpdateTier(_ context.Context, id string, u directory.TierUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tiers[id]
	if !ok {
		return directory.ErrTierNotFound
	}
	if u.Name != nil {
		t.Name = *u.Name
	}
	if u.MaxImages != nil {
		t.MaxImages = *u.MaxImages
	}
	return nil
}

func (m *memRepo) DeleteTier(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tiers[id]; !ok {
		return directory.ErrTierNotFound
	}
	for _, l := range m.listings {
		if l.TierID == id {
			return directory.ErrTierInUse
		}
	}
	delete(m.tiers, id)
	return nil
}

func (m *memRepo) Get(_ context.Context, id string) (*domain.BusinessListing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.listings[id]
	if !ok {
		return nil, directory.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (m *memRepo) List(_ context.Context, f directory.ListFilter) ([]domain.BusinessListing, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.BusinessListing
	for _, l := range m.listings {
		if f.TierID != "" && l.TierID != f.TierID {
			continue
		}
		if f.Status != "" && string(l.Status) != f.Status {
			continue
		}
		if f.Category != "" {
			found := false
			for _, c := range l.Categories {
				if c == f.Category {
					found = true
				}
			}
			if !found {
				continue
			}
		}
		out = append(out, *l)
	}
	total := len(out)
	if f.Offset >= len(out) {
		return nil, total, nil
	}
	end := f.Offset + f.Limit
	if end > len(out) || f.Limit <= 0 {
		end = len(out)
	}
	return out[f.Offset:end], total, nil
}

func (m *memRepo) Create(_ context.Context, l *domain.BusinessListing) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l.ID == "" {
		return "", fmt.Errorf("id required")
	}
	cp := *l
	m.listings[cp.ID] = &cp
	return cp.ID, nil
}

func (m *memRepo) Update(_ context.Context, id string, u directory.UpdateFields) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.listings[id]
	if !ok {
		return directory.ErrNotFound
	}
	if u.Name != nil {
		l.Name = *u.Name
	}
	if u.TierID != nil {
		l.TierID = *u.TierID
	}
	if u.Categories != nil {
		l.Categories = *u.Categories
	}
	return nil
}

func (m *memRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.listings[id]; !ok {
		return directory.ErrNotFound
	}
	delete(m.listings, id)
	return nil
}

func (m *memRepo) UpdateStatus(_ context.Context, id string, status domain.ListingStatus, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.listings[id]
	if !ok {
		return directory.ErrNotFound
	}
	l.Status = status
	l.RejectionReason = reason
	return nil
}

func (m *memRepo) AttachMedia(_ context.Context, lm *domain.ListingMedia) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.assets[lm.AssetID] {
		return directory.ErrAssetNotFound
	}
	cp := *lm
	m.media[lm.ListingID+"|"+lm.AssetID] = &cp
	return nil
}

func (m *memRepo) RemoveMedia(_ context.Context, listingID, assetID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := listingID + "|" + assetID
	if _, ok := m.media[key]; !ok {
		return directory.ErrMediaNotFound
	}
	delete(m.media, key)
	return nil
}

func (m *memRepo) ListMedia(_ context.Context, listingID string) ([]domain.ListingMedia, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.ListingMedia
	for key, lm := range m.media {
		if strings.HasPrefix(key, listingID+"|") {
			out = append(out, *lm)
		}
	}
	return out, nil
}

func (m *memRepo) CountMedia(_ context.Context, listingID string, kind domain.ListingMediaKind) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for key, lm := range m.media {
		if strings.HasPrefix(key, listingID+"|") && lm.Kind == kind {
			n++
		}
	}
	return n, nil
}

func (m *memRepo) EnqueueEnquiry(_ context.Context, n *domain.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.enqueueFail {
		return fmt.Errorf("outbox unavailable")
	}
	m.enqueued = append(m.enqueued, n)
	return nil
}

func seedTier(t *testing.T, svc *directory.Service, maxImages, maxVideos int) *domain.ListingTier {
	t.Helper()
	tier, err := svc.CreateTier(context.Background(), directory.TierInput{
		Name: "Gold", MonthlyPrice: 499, MaxImages: maxImages, MaxVideos: maxVideos,
	})
	if err != nil {
		t.Fatalf("create tier: %v", err)
	}
	return tier
}

func seedListing(t *testing.T, svc *directory.Service, tierID string) *domain.BusinessListing {
	t.Helper()
	l, err := svc.Create(context.Background(), directory.CreateInput{
		TierID:     tierID,
		Name:       "Sunnyvale Tuckshop",
		Categories: []string{"food"},
		OwnerName:  "Pam Jacobs",
		OwnerEmail: "pam@example.com",
	})
	if err != nil {
		t.Fatalf("create listing: %v", err)
	}
	return l
}

func TestCreateStartsPending(t *testing.T) {
	svc := directory.NewService(newMemRepo())
	tier := seedTier(t, svc, 5, 1)
	l := seedListing(t, svc, tier.ID)

	if l.Status != domain.ListingPending {
		t.Fatalf("expected pending, got %s", l.Status)
	}
	if l.IsVisible() {
		t.Fatal("pending listings must not be visible")
	}
}

func TestCreateUnknownTier(t *testing.T) {
	svc := directory.NewService(newMemRepo())
	_, err := svc.Create(context.Background(), directory.CreateInput{
		TierID: "missing", Name: "Shop", OwnerEmail: "x@example.com",
	})
	if err != directory.ErrTierNotFound {
		t.Fatalf("expected ErrTierNotFound, got %v", err)
	}
}

func TestApproveAndReject(t *testing.T) {
	svc := directory.NewService(newMemRepo())
	tier := seedTier(t, svc, 5, 1)
	l := seedListing(t, svc, tier.ID)

	if err := svc.Approve(context.Background(), l.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	got, _ := svc.Get(context.Background(), l.ID)
	if got.Status != domain.ListingApproved || !got.IsVisible() {
		t.Fatalf("expected approved visible listing, got %s", got.Status)
	}

	if err := svc.Reject(context.Background(), l.ID, ""); err == nil {
		t.Fatal("expected reason validation error")
	}
	if err := svc.Reject(context.Background(), l.ID, "stale contact details"); err != nil {
		t.Fatalf("reject: %v", err)
	}
	got, _ = svc.Get(context.Background(), l.ID)
	if got.Status != domain.ListingRejected || got.RejectionReason != "stale contact details" {
		t.Fatalf("expected rejection with reason, got %+v", got)
	}

	// Re-approving clears the reason.
	svc.Approve(context.Background(), l.ID)
	got, _ = svc.Get(context.Background(), l.ID)
	if got.RejectionReason != "" {
		t.Fatalf("expected cleared reason, got %q", got.RejectionReason)
	}
}

func TestDeleteTierInUse(t *testing.T) {
	svc := directory.NewService(newMemRepo())
	tier := seedTier(t, svc, 5, 1)
	seedListing(t, svc, tier.ID)

	if err := svc.DeleteTier(context.Background(), tier.ID); err != directory.ErrTierInUse {
		t.Fatalf("expected ErrTierInUse, got %v", err)
	}
}

func TestAttachMediaTierCap(t *testing.T) {
	repo := newMemRepo()
	svc := directory.NewService(repo)
	tier := seedTier(t, svc, 2, 0)
	l := seedListing(t, svc, tier.ID)

	for i := 0; i < 3; i++ {
		repo.assets[fmt.Sprintf("asset-%d", i)] = true
	}

	for i := 0; i < 2; i++ {
		err := svc.AttachMedia(context.Background(), l.ID, directory.AttachInput{
			AssetID: fmt.Sprintf("asset-%d", i), Kind: "image",
		})
		if err != nil {
			t.Fatalf("attach %d: %v", i, err)
		}
	}

	err := svc.AttachMedia(context.Background(), l.ID, directory.AttachInput{
		AssetID: "asset-2", Kind: "image",
	})
	if err == nil {
		t.Fatal("expected cap error on third image")
	}
	if !strings.Contains(err.Error(), "at most 2 images") {
		t.Fatalf("expected explanatory cap message, got %q", err.Error())
	}

	// Videos are capped independently; this tier allows none.
	err = svc.AttachMedia(context.Background(), l.ID, directory.AttachInput{
		AssetID: "asset-2", Kind: "video",
	})
	if err == nil {
		t.Fatal("expected video cap error")
	}
}

func TestAttachUnknownAsset(t *testing.T) {
	svc := directory.NewService(newMemRepo())
	tier := seedTier(t, svc, 5, 1)
	l := seedListing(t, svc, tier.ID)

	err := svc.AttachMedia(context.Background(), l.ID, directory.AttachInput{
		AssetID: "ghost", Kind: "image",
	})
	if err != directory.ErrAssetNotFound {
		t.Fatalf("expected ErrAssetNotFound, got %v", err)
	}
}

func TestContactOwner(t *testing.T) {
	repo := newMemRepo()
	svc := directory.NewService(repo)
	tier := seedTier(t, svc, 5, 1)
	l := seedListing(t, svc, tier.ID)
	svc.Approve(context.Background(), l.ID)

	warnings, err := svc.ContactOwner(context.Background(), l.ID, directory.EnquiryInput{
		SenderName: "Visitor", SenderEmail: "visitor@example.com", Body: "Do you cater?",
	})
	if err != nil {
		t.Fatalf("contact owner: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", warnings)
	}
	if len(repo.enqueued) != 1 {
		t.Fatalf("expected one queued notification, got %d", len(repo.enqueued))
	}
	n := repo.enqueued[0]
	if n.Recipient != "pam@example.com" {
		t.Fatalf("expected owner email, got %s", n.Recipient)
	}
	if !strings.Contains(n.Body, "visitor@example.com") {
		t.Fatal("enquiry body should carry the sender's address")
	}
}

func TestContactOwnerEnqueueFailureIsWarning(t *testing.T) {
	repo := newMemRepo()
	svc := directory.NewService(repo)
	tier := seedTier(t, svc, 5, 1)
	l := seedListing(t, svc, tier.ID)
	svc.Approve(context.Background(), l.ID)
	repo.enqueueFail = true

	warnings, err := svc.ContactOwner(context.Background(), l.ID, directory.EnquiryInput{
		SenderName: "Visitor", SenderEmail: "visitor@example.com", Body: "Hello",
	})
	if err != nil {
		t.Fatalf("enqueue failure must not surface as an error: %v", err)
	}
	if len(warnings) != 1 {
		t.Fatalf("expected one warning, got %v", warnings)
	}
}

func TestContactOwnerPendingListing(t *testing.T) {
	svc := directory.NewService(newMemRepo())
	tier := seedTier(t, svc, 5, 1)
	l := seedListing(t, svc, tier.ID)

	_, err := svc.ContactOwner(context.Background(), l.ID, directory.EnquiryInput{
		SenderName: "Visitor", SenderEmail: "visitor@example.com", Body: "Hello",
	})
	if err != directory.ErrNotApproved {
		t.Fatalf("expected ErrNotApproved, got %v", err)
	}
}
