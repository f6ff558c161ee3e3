package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/IQTechSolutions/ConectOne-sub011/internal/pkg/httputil"
	"github.com/IQTechSolutions/ConectOne-sub011/internal/service/vacations"
)

// ListVacations returns vacation packages matching the filter. Date bounds
// use YYYY-MM-DD; unparseable values are ignored rather than rejected.
//
//	GET /api/v1/vacations?destination=&status=&from=&to=&max_price=&page=&limit=
func (h *Handlers) ListVacations(w http.ResponseWriter, r *http.Request) {
	params := ParsePagination(r, 20, 100)
	q := r.URL.Query()

	f := vacations.ListFilter{
		Destination: q.Get("destination"),
		Status:      q.Get("status"),
		Limit:       params.Limit,
		Offset:      params.Offset,
	}
	if v := q.Get("from"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			f.From = t
		}
	}
	if v := q.Get("to"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			f.To = t
		}
	}
	if v := q.Get("max_price"); v != "" {
		if p, err := strconv.ParseFloat(v, 64); err == nil {
			f.MaxPrice = p
		}
	}

	list, total, err := h.vacations.List(r.Context(), f)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}

	httputil.OK(w, NewPaginatedResponse(list, params, int64(total)))
}

// CreateVacation creates a draft vacation package.
//
//	POST /api/v1/vacations
func (h *Handlers) CreateVacation(w http.ResponseWriter, r *http.Request) {
	var input vacations.CreateInput
	if !httputil.Decode(w, r, &input) {
		return
	}

	vacation, err := h.vacations.Create(r.Context(), input)
	if err != nil {
		failMutation(w, err)
		return
	}

	httputil.Succeeded(w, http.StatusCreated, vacation)
}

// GetVacation returns a single vacation package.
//
//	GET /api/v1/vacations/{vacationId}
func (h *Handlers) GetVacation(w http.ResponseWriter, r *http.Request) {
	vacation, err := h.vacations.Get(r.Context(), chi.URLParam(r, "vacationId"))
	if err != nil {
		queryError(w, err, vacations.ErrNotFound)
		return
	}
	httputil.OK(w, vacation)
}

// UpdateVacation applies a partial update to a package. Archived packages
// are read-only.
//
//	PUT /api/v1/vacations/{vacationId}
func (h *Handlers) UpdateVacation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "vacationId")

	var req struct {
		Title         *string    `json:"title"`
		Description   *string    `json:"description"`
		Destination   *string    `json:"destination"`
		Accommodation *string    `json:"accommodation"`
		StarGrading   *int       `json:"star_grading"`
		PricePerNight *float64   `json:"price_per_night"`
		PackagePrice  *float64   `json:"package_price"`
		AvailableFrom *time.Time `json:"available_from"`
		AvailableTo   *time.Time `json:"available_to"`
		Capacity      *int       `json:"capacity"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}

	err := h.vacations.Update(r.Context(), id, vacations.UpdateFields{
		Title:         req.Title,
		Description:   req.Description,
		Destination:   req.Destination,
		Accommodation: req.Accommodation,
		StarGrading:   req.StarGrading,
		PricePerNight: req.PricePerNight,
		PackagePrice:  req.PackagePrice,
		AvailableFrom: req.AvailableFrom,
		AvailableTo:   req.AvailableTo,
		Capacity:      req.Capacity,
	})
	if err != nil {
		failMutation(w, err, vacations.ErrNotFound)
		return
	}

	vacation, err := h.vacations.Get(r.Context(), id)
	if err != nil {
		failMutation(w, err, vacations.ErrNotFound)
		return
	}
	httputil.Succeeded(w, http.StatusOK, vacation)
}

// DeleteVacation removes a draft package. Published packages must be
// archived instead.
//
//	DELETE /api/v1/vacations/{vacationId}
func (h *Handlers) DeleteVacation(w http.ResponseWriter, r *http.Request) {
	err := h.vacations.Delete(r.Context(), chi.URLParam(r, "vacationId"))
	if err != nil {
		failMutation(w, err, vacations.ErrNotFound)
		return
	}
	httputil.Succeeded(w, http.StatusOK, nil)
}

// PublishVacation moves a draft package to published.
//
//	POST /api/v1/vacations/{vacationId}/publish
func (h *Handlers) PublishVacation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "vacationId")

	if err := h.vacations.Publish(r.Context(), id); err != nil {
		failMutation(w, err, vacations.ErrNotFound)
		return
	}

	vacation, err := h.vacations.Get(r.Context(), id)
	if err != nil {
		failMutation(w, err, vacations.ErrNotFound)
		return
	}
	httputil.Succeeded(w, http.StatusOK, vacation)
}

// ArchiveVacation retires a published package from the portal.
//
//	POST /api/v1/vacations/{vacationId}/archive
func (h *Handlers) ArchiveVacation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "vacationId")

	if err := h.vacations.Archive(r.Context(), id); err != nil {
		failMutation(w, err, vacations.ErrNotFound)
		return
	}

	vacation, err := h.vacations.Get(r.Context(), id)
	if err != nil {
		failMutation(w, err, vacations.ErrNotFound)
		return
	}
	httputil.Succeeded(w, http.StatusOK, vacation)
}

// ListVacationImages returns the gallery images attached to a package.
//
//	GET /api/v1/vacations/{vacationId}/images
func (h *Handlers) ListVacationImages(w http.ResponseWriter, r *http.Request) {
	images, err := h.vacations.ListImages(r.Context(), chi.URLParam(r, "vacationId"))
	if err != nil {
		queryError(w, err, vacations.ErrNotFound)
		return
	}
	httputil.OK(w, map[string]interface{}{"data": images})
}

// AttachVacationImage links an uploaded image asset to a package gallery.
//
//	POST /api/v1/vacations/{vacationId}/images
func (h *Handlers) AttachVacationImage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AssetID string `json:"asset_id"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}

	err := h.vacations.AttachImage(r.Context(), chi.URLParam(r, "vacationId"), req.AssetID)
	if err != nil {
		failMutation(w, err, vacations.ErrNotFound, vacations.ErrAssetNotFound)
		return
	}
	httputil.Succeeded(w, http.StatusCreated, nil)
}

// RemoveVacationImage detaches an image from a package gallery.
//
//	DELETE /api/v1/vacations/{vacationId}/images/{assetId}
func (h *Handlers) RemoveVacationImage(w http.ResponseWriter, r *http.Request) {
	err := h.vacations.RemoveImage(r.Context(), chi.URLParam(r, "vacationId"), chi.URLParam(r, "assetId"))
	if err != nil {
		failMutation(w, err, vacations.ErrNotFound, vacations.ErrImageNotFound)
		return
	}
	httputil.Succeeded(w, http.StatusOK, nil)
}
