package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/IQTechSolutions/ConectOne-sub011/internal/pkg/httputil"
	"github.com/IQTechSolutions/ConectOne-sub011/internal/service/directory"
)

// Tier handlers. Tiers are a small enterprise-wide catalog, so the list is
// unpaged.

// ListTiers returns all listing tiers ordered by sort rank.
//
//	GET /api/v1/directory/tiers
func (h *Handlers) ListTiers(w http.ResponseWriter, r *http.Request) {
	tiers, err := h.directory.ListTiers(r.Context())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]interface{}{"data": tiers})
}

// CreateTier adds a listing tier.
//
//	POST /api/v1/directory/tiers
func (h *Handlers) CreateTier(w http.ResponseWriter, r *http.Request) {
	var input directory.TierInput
	if !httputil.Decode(w, r, &input) {
		return
	}

	tier, err := h.directory.CreateTier(r.Context(), input)
	if err != nil {
		failMutation(w, err)
		return
	}

	httputil.Succeeded(w, http.StatusCreated, tier)
}

// GetTier returns a single listing tier.
//
//	GET /api/v1/directory/tiers/{tierId}
func (h *Handlers) GetTier(w http.ResponseWriter, r *http.Request) {
	tier, err := h.directory.GetTier(r.Context(), chi.URLParam(r, "tierId"))
	if err != nil {
		queryError(w, err, directory.ErrTierNotFound)
		return
	}
	httputil.OK(w, tier)
}

// UpdateTier applies a partial update to a tier. Lowering media quotas does
// not retroactively strip media from listings already over the new cap.
//
//	PUT /api/v1/directory/tiers/{tierId}
func (h *Handlers) UpdateTier(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "tierId")

	var req struct {
		Name         *string  `json:"name"`
		MonthlyPrice *float64 `json:"monthly_price"`
		MaxImages    *int     `json:"max_images"`
		MaxVideos    *int     `json:"max_videos"`
		Featured     *bool    `json:"featured"`
		SortRank     *int     `json:"sort_rank"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}

	err := h.directory.UpdateTier(r.Context(), id, directory.TierUpdate{
		Name:         req.Name,
		MonthlyPrice: req.MonthlyPrice,
		MaxImages:    req.MaxImages,
		MaxVideos:    req.MaxVideos,
		Featured:     req.Featured,
		SortRank:     req.SortRank,
	})
	if err != nil {
		failMutation(w, err, directory.ErrTierNotFound)
		return
	}

	tier, err := h.directory.GetTier(r.Context(), id)
	if err != nil {
		failMutation(w, err, directory.ErrTierNotFound)
		return
	}
	httputil.Succeeded(w, http.StatusOK, tier)
}

// DeleteTier removes a tier with no listings on it.
//
//	DELETE /api/v1/directory/tiers/{tierId}
func (h *Handlers) DeleteTier(w http.ResponseWriter, r *http.Request) {
	err := h.directory.DeleteTier(r.Context(), chi.URLParam(r, "tierId"))
	if err != nil {
		failMutation(w, err, directory.ErrTierNotFound)
		return
	}
	httputil.Succeeded(w, http.StatusOK, nil)
}

// Listing handlers.

// ListListings returns business listings matching the filter.
//
//	GET /api/v1/directory/listings?tier_id=&category=&status=&search=&page=&limit=
func (h *Handlers) ListListings(w http.ResponseWriter, r *http.Request) {
	params := ParsePagination(r, 20, 100)
	q := r.URL.Query()

	list, total, err := h.directory.List(r.Context(), directory.ListFilter{
		TierID:   q.Get("tier_id"),
		Category: q.Get("category"),
		Status:   q.Get("status"),
		Search:   q.Get("search"),
		Limit:    params.Limit,
		Offset:   params.Offset,
	})
	if err != nil {
		httputil.InternalError(w, err)
		return
	}

	httputil.OK(w, NewPaginatedResponse(list, params, int64(total)))
}

// CreateListing registers a business listing in pending status.
//
//	POST /api/v1/directory/listings
func (h *Handlers) CreateListing(w http.ResponseWriter, r *http.Request) {
	var input directory.CreateInput
	if !httputil.Decode(w, r, &input) {
		return
	}

	listing, err := h.directory.Create(r.Context(), input)
	if err != nil {
		failMutation(w, err, directory.ErrTierNotFound)
		return
	}

	httputil.Succeeded(w, http.StatusCreated, listing)
}

// GetListing returns a single listing.
//
//	GET /api/v1/directory/listings/{listingId}
func (h *Handlers) GetListing(w http.ResponseWriter, r *http.Request) {
	listing, err := h.directory.Get(r.Context(), chi.URLParam(r, "listingId"))
	if err != nil {
		queryError(w, err, directory.ErrNotFound)
		return
	}
	httputil.OK(w, listing)
}

// UpdateListing applies a partial update to a listing.
//
//	PUT /api/v1/directory/listings/{listingId}
func (h *Handlers) UpdateListing(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "listingId")

	var req struct {
		TierID       *string   `json:"tier_id"`
		Name         *string   `json:"name"`
		Description  *string   `json:"description"`
		Categories   *[]string `json:"categories"`
		OwnerName    *string   `json:"owner_name"`
		OwnerEmail   *string   `json:"owner_email"`
		PhoneNumber  *string   `json:"phone_number"`
		Website      *string   `json:"website"`
		AddressLine1 *string   `json:"address_line1"`
		City         *string   `json:"city"`
		Province     *string   `json:"province"`
		PostalCode   *string   `json:"postal_code"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}

	err := h.directory.Update(r.Context(), id, directory.UpdateFields{
		TierID:       req.TierID,
		Name:         req.Name,
		Description:  req.Description,
		Categories:   req.Categories,
		OwnerName:    req.OwnerName,
		OwnerEmail:   req.OwnerEmail,
		PhoneNumber:  req.PhoneNumber,
		Website:      req.Website,
		AddressLine1: req.AddressLine1,
		City:         req.City,
		Province:     req.Province,
		PostalCode:   req.PostalCode,
	})
	if err != nil {
		failMutation(w, err, directory.ErrNotFound, directory.ErrTierNotFound)
		return
	}

	listing, err := h.directory.Get(r.Context(), id)
	if err != nil {
		failMutation(w, err, directory.ErrNotFound)
		return
	}
	httputil.Succeeded(w, http.StatusOK, listing)
}

// DeleteListing removes a listing and its media links.
//
//	DELETE /api/v1/directory/listings/{listingId}
func (h *Handlers) DeleteListing(w http.ResponseWriter, r *http.Request) {
	err := h.directory.Delete(r.Context(), chi.URLParam(r, "listingId"))
	if err != nil {
		failMutation(w, err, directory.ErrNotFound)
		return
	}
	httputil.Succeeded(w, http.StatusOK, nil)
}

// ApproveListing moves a pending listing to approved, making it visible in
// the public directory.
//
//	POST /api/v1/directory/listings/{listingId}/approve
func (h *Handlers) ApproveListing(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "listingId")

	if err := h.directory.Approve(r.Context(), id); err != nil {
		failMutation(w, err, directory.ErrNotFound)
		return
	}

	listing, err := h.directory.Get(r.Context(), id)
	if err != nil {
		failMutation(w, err, directory.ErrNotFound)
		return
	}
	httputil.Succeeded(w, http.StatusOK, listing)
}

// RejectListing declines a pending listing with a reason for the owner.
//
//	POST /api/v1/directory/listings/{listingId}/reject
func (h *Handlers) RejectListing(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "listingId")

	var req struct {
		Reason string `json:"reason"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}

	if err := h.directory.Reject(r.Context(), id, req.Reason); err != nil {
		failMutation(w, err, directory.ErrNotFound)
		return
	}

	listing, err := h.directory.Get(r.Context(), id)
	if err != nil {
		failMutation(w, err, directory.ErrNotFound)
		return
	}
	httputil.Succeeded(w, http.StatusOK, listing)
}

// DisableListing takes an approved listing off the public directory without
// deleting it.
//
//	POST /api/v1/directory/listings/{listingId}/disable
func (h *Handlers) DisableListing(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "listingId")

	if err := h.directory.Disable(r.Context(), id); err != nil {
		failMutation(w, err, directory.ErrNotFound)
		return
	}

	listing, err := h.directory.Get(r.Context(), id)
	if err != nil {
		failMutation(w, err, directory.ErrNotFound)
		return
	}
	httputil.Succeeded(w, http.StatusOK, listing)
}

// ListListingMedia returns the media attached to a listing in display order.
//
//	GET /api/v1/directory/listings/{listingId}/media
func (h *Handlers) ListListingMedia(w http.ResponseWriter, r *http.Request) {
	media, err := h.directory.ListMedia(r.Context(), chi.URLParam(r, "listingId"))
	if err != nil {
		queryError(w, err, directory.ErrNotFound)
		return
	}
	httputil.OK(w, map[string]interface{}{"data": media})
}

// AttachListingMedia links an uploaded asset to a listing. The listing's
// tier caps how many images and videos it can carry.
//
//	POST /api/v1/directory/listings/{listingId}/media
func (h *Handlers) AttachListingMedia(w http.ResponseWriter, r *http.Request) {
	var input directory.AttachInput
	if !httputil.Decode(w, r, &input) {
		return
	}

	err := h.directory.AttachMedia(r.Context(), chi.URLParam(r, "listingId"), input)
	if err != nil {
		failMutation(w, err, directory.ErrNotFound, directory.ErrAssetNotFound)
		return
	}
	httputil.Succeeded(w, http.StatusCreated, nil)
}

// RemoveListingMedia detaches an asset from a listing. The asset itself
// stays in the media library.
//
//	DELETE /api/v1/directory/listings/{listingId}/media/{assetId}
func (h *Handlers) RemoveListingMedia(w http.ResponseWriter, r *http.Request) {
	err := h.directory.RemoveMedia(r.Context(), chi.URLParam(r, "listingId"), chi.URLParam(r, "assetId"))
	if err != nil {
		failMutation(w, err, directory.ErrNotFound, directory.ErrMediaNotFound)
		return
	}
	httputil.Succeeded(w, http.StatusOK, nil)
}

// ContactListingOwner relays a visitor enquiry to the listing owner's email.
// Public, no session required. Delivery problems surface as warnings rather
// than failures so the visitor still gets confirmation.
//
//	POST /api/v1/directory/listings/{listingId}/contact
func (h *Handlers) ContactListingOwner(w http.ResponseWriter, r *http.Request) {
	var input directory.EnquiryInput
	if !httputil.Decode(w, r, &input) {
		return
	}

	warnings, err := h.directory.ContactOwner(r.Context(), chi.URLParam(r, "listingId"), input)
	if err != nil {
		failMutation(w, err, directory.ErrNotFound)
		return
	}
	httputil.Succeeded(w, http.StatusOK, nil, warnings...)
}
