package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/IQTechSolutions/ConectOne-sub011/internal/pkg/httputil"
	"github.com/IQTechSolutions/ConectOne-sub011/internal/service/schools"
)

// ListSchools returns the school registry, paged and searchable by name.
//
//	GET /api/v1/schools?search=&page=&limit=
func (h *Handlers) ListSchools(w http.ResponseWriter, r *http.Request) {
	params := ParsePagination(r, 20, 100)

	list, total, err := h.schools.ListSchools(r.Context(), schools.SchoolFilter{
		Search: r.URL.Query().Get("search"),
		Limit:  params.Limit,
		Offset: params.Offset,
	})
	if err != nil {
		httputil.InternalError(w, err)
		return
	}

	httputil.OK(w, NewPaginatedResponse(list, params, int64(total)))
}

// CreateSchool registers a new school.
//
//	POST /api/v1/schools
func (h *Handlers) CreateSchool(w http.ResponseWriter, r *http.Request) {
	var input schools.CreateSchoolInput
	if !httputil.Decode(w, r, &input) {
		return
	}

	school, err := h.schools.CreateSchool(r.Context(), input)
	if err != nil {
		failMutation(w, err)
		return
	}

	httputil.Succeeded(w, http.StatusCreated, school)
}

// GetSchool returns a single school.
//
//	GET /api/v1/schools/{schoolId}
func (h *Handlers) GetSchool(w http.ResponseWriter, r *http.Request) {
	school, err := h.schools.GetSchool(r.Context(), chi.URLParam(r, "schoolId"))
	if err != nil {
		queryError(w, err, schools.ErrSchoolNotFound)
		return
	}
	httputil.OK(w, school)
}

// UpdateSchool applies a partial update to a school. Nil fields in the body
// are left unchanged.
//
//	PUT /api/v1/schools/{schoolId}
func (h *Handlers) UpdateSchool(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "schoolId")

	var req struct {
		Name         *string `json:"name"`
		Motto        *string `json:"motto"`
		EmailAddress *string `json:"email_address"`
		PhoneNumber  *string `json:"phone_number"`
		Website      *string `json:"website"`
		AddressLine1 *string `json:"address_line1"`
		AddressLine2 *string `json:"address_line2"`
		City         *string `json:"city"`
		Province     *string `json:"province"`
		PostalCode   *string `json:"postal_code"`
		CrestURL     *string `json:"crest_url"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}

	err := h.schools.UpdateSchool(r.Context(), id, schools.SchoolUpdate{
		Name:         req.Name,
		Motto:        req.Motto,
		EmailAddress: req.EmailAddress,
		PhoneNumber:  req.PhoneNumber,
		Website:      req.Website,
		AddressLine1: req.AddressLine1,
		AddressLine2: req.AddressLine2,
		City:         req.City,
		Province:     req.Province,
		PostalCode:   req.PostalCode,
		CrestURL:     req.CrestURL,
	})
	if err != nil {
		failMutation(w, err, schools.ErrSchoolNotFound)
		return
	}

	if h.schoolCtx != nil {
		h.schoolCtx.Invalidate(id)
	}

	school, err := h.schools.GetSchool(r.Context(), id)
	if err != nil {
		failMutation(w, err, schools.ErrSchoolNotFound)
		return
	}
	httputil.Succeeded(w, http.StatusOK, school)
}

// DeleteSchool removes a school. Fails while learners remain enrolled.
//
//	DELETE /api/v1/schools/{schoolId}
func (h *Handlers) DeleteSchool(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "schoolId")

	if err := h.schools.DeleteSchool(r.Context(), id); err != nil {
		failMutation(w, err, schools.ErrSchoolNotFound)
		return
	}

	if h.schoolCtx != nil {
		h.schoolCtx.Invalidate(id)
	}

	httputil.Succeeded(w, http.StatusOK, nil)
}
