package api

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/IQTechSolutions/ConectOne-sub011/internal/domain"
	"github.com/IQTechSolutions/ConectOne-sub011/internal/pkg/httputil"
	"github.com/IQTechSolutions/ConectOne-sub011/internal/service/adverts"
)

// ListAdverts returns advertisements matching the filter.
//
//	GET /api/v1/adverts?placement=&status=&live=true&page=&limit=
func (h *Handlers) ListAdverts(w http.ResponseWriter, r *http.Request) {
	params := ParsePagination(r, 20, 100)
	q := r.URL.Query()

	list, total, err := h.adverts.List(r.Context(), adverts.ListFilter{
		Placement: domain.AdPlacement(q.Get("placement")),
		Status:    domain.AdStatus(q.Get("status")),
		LiveOnly:  q.Get("live") == "true",
		Limit:     params.Limit,
		Offset:    params.Offset,
	})
	if err != nil {
		httputil.InternalError(w, err)
		return
	}

	httputil.OK(w, NewPaginatedResponse(list, params, int64(total)))
}

// CreateAdvert books a new advertisement in draft status.
//
//	POST /api/v1/adverts
func (h *Handlers) CreateAdvert(w http.ResponseWriter, r *http.Request) {
	var input adverts.CreateInput
	if !httputil.Decode(w, r, &input) {
		return
	}

	ad, err := h.adverts.Create(r.Context(), input)
	if err != nil {
		failMutation(w, err)
		return
	}

	httputil.Succeeded(w, http.StatusCreated, ad)
}

// GetAdvert returns a single advertisement.
//
//	GET /api/v1/adverts/{advertId}
func (h *Handlers) GetAdvert(w http.ResponseWriter, r *http.Request) {
	ad, err := h.adverts.Get(r.Context(), chi.URLParam(r, "advertId"))
	if err != nil {
		queryError(w, err, adverts.ErrNotFound)
		return
	}
	httputil.OK(w, ad)
}

// UpdateAdvert applies a partial update to an advertisement.
//
//	PUT /api/v1/adverts/{advertId}
func (h *Handlers) UpdateAdvert(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title           *string             `json:"title"`
		AdvertiserName  *string             `json:"advertiser_name"`
		AdvertiserEmail *string             `json:"advertiser_email"`
		Placement       *domain.AdPlacement `json:"placement"`
		BannerURL       *string             `json:"banner_url"`
		TargetURL       *string             `json:"target_url"`
		StartsAt        *time.Time          `json:"starts_at"`
		EndsAt          *time.Time          `json:"ends_at"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}

	ad, err := h.adverts.Update(r.Context(), chi.URLParam(r, "advertId"), adverts.UpdateFields{
		Title:           req.Title,
		AdvertiserName:  req.AdvertiserName,
		AdvertiserEmail: req.AdvertiserEmail,
		Placement:       req.Placement,
		BannerURL:       req.BannerURL,
		TargetURL:       req.TargetURL,
		StartsAt:        req.StartsAt,
		EndsAt:          req.EndsAt,
	})
	if err != nil {
		failMutation(w, err, adverts.ErrNotFound)
		return
	}
	httputil.Succeeded(w, http.StatusOK, ad)
}

// DeleteAdvert removes an advertisement that is not currently live.
//
//	DELETE /api/v1/adverts/{advertId}
func (h *Handlers) DeleteAdvert(w http.ResponseWriter, r *http.Request) {
	err := h.adverts.Delete(r.Context(), chi.URLParam(r, "advertId"))
	if err != nil {
		failMutation(w, err, adverts.ErrNotFound)
		return
	}
	httputil.Succeeded(w, http.StatusOK, nil)
}

// ActivateAdvert puts a draft advert into rotation for its flight window.
//
//	POST /api/v1/adverts/{advertId}/activate
func (h *Handlers) ActivateAdvert(w http.ResponseWriter, r *http.Request) {
	ad, err := h.adverts.Activate(r.Context(), chi.URLParam(r, "advertId"))
	if err != nil {
		failMutation(w, err, adverts.ErrNotFound)
		return
	}
	httputil.Succeeded(w, http.StatusOK, ad)
}

// PauseAdvert takes an active advert out of rotation without ending its
// flight.
//
//	POST /api/v1/adverts/{advertId}/pause
func (h *Handlers) PauseAdvert(w http.ResponseWriter, r *http.Request) {
	ad, err := h.adverts.Pause(r.Context(), chi.URLParam(r, "advertId"))
	if err != nil {
		failMutation(w, err, adverts.ErrNotFound)
		return
	}
	httputil.Succeeded(w, http.StatusOK, ad)
}

// ResumeAdvert puts a paused advert back into rotation.
//
//	POST /api/v1/adverts/{advertId}/resume
func (h *Handlers) ResumeAdvert(w http.ResponseWriter, r *http.Request) {
	ad, err := h.adverts.Resume(r.Context(), chi.URLParam(r, "advertId"))
	if err != nil {
		failMutation(w, err, adverts.ErrNotFound)
		return
	}
	httputil.Succeeded(w, http.StatusOK, ad)
}

// Public beacon endpoints. These serve the school portals, so there is no
// session and no Result envelope.

// ListActiveAdverts returns the adverts currently in rotation for a
// placement slot.
//
//	GET /api/v1/adverts/active?placement=
func (h *Handlers) ListActiveAdverts(w http.ResponseWriter, r *http.Request) {
	list, err := h.adverts.ListActive(r.Context(), domain.AdPlacement(r.URL.Query().Get("placement")))
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]interface{}{"data": list})
}

// RecordAdvertImpression counts one render of an advert. Always returns 204
// so a broken beacon never disturbs page loads.
//
//	POST /api/v1/adverts/{advertId}/impression
func (h *Handlers) RecordAdvertImpression(w http.ResponseWriter, r *http.Request) {
	if err := h.adverts.RecordImpression(r.Context(), chi.URLParam(r, "advertId")); err != nil && !errors.Is(err, adverts.ErrNotFound) {
		log.Printf("WARN: record impression: %v", err)
	}
	httputil.NoContent(w)
}

// RecordAdvertClick counts one click-through on an advert.
//
//	POST /api/v1/adverts/{advertId}/click
func (h *Handlers) RecordAdvertClick(w http.ResponseWriter, r *http.Request) {
	if err := h.adverts.RecordClick(r.Context(), chi.URLParam(r, "advertId")); err != nil && !errors.Is(err, adverts.ErrNotFound) {
		log.Printf("WARN: record click: %v", err)
	}
	httputil.NoContent(w)
}
