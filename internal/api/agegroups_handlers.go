package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/IQTechSolutions/ConectOne-sub011/internal/pkg/httputil"
	"github.com/IQTechSolutions/ConectOne-sub011/internal/service/agegroups"
)

// ListAgeGroups returns the school's age groups ordered by minimum age.
//
//	GET /api/v1/age-groups?active=true&page=&limit=
func (h *Handlers) ListAgeGroups(w http.ResponseWriter, r *http.Request) {
	params := ParsePagination(r, 20, 100)

	list, total, err := h.ageGroups.List(r.Context(), SchoolIDFromContext(r.Context()), agegroups.ListFilter{
		ActiveOnly: r.URL.Query().Get("active") == "true",
		Limit:      params.Limit,
		Offset:     params.Offset,
	})
	if err != nil {
		httputil.InternalError(w, err)
		return
	}

	httputil.OK(w, NewPaginatedResponse(list, params, int64(total)))
}

// CreateAgeGroup adds an age group to the school.
//
//	POST /api/v1/age-groups
func (h *Handlers) CreateAgeGroup(w http.ResponseWriter, r *http.Request) {
	var input agegroups.CreateInput
	if !httputil.Decode(w, r, &input) {
		return
	}

	group, err := h.ageGroups.Create(r.Context(), SchoolIDFromContext(r.Context()), input)
	if err != nil {
		failMutation(w, err)
		return
	}

	httputil.Succeeded(w, http.StatusCreated, group)
}

// GetAgeGroup returns a single age group.
//
//	GET /api/v1/age-groups/{groupId}
func (h *Handlers) GetAgeGroup(w http.ResponseWriter, r *http.Request) {
	group, err := h.ageGroups.Get(r.Context(), SchoolIDFromContext(r.Context()), chi.URLParam(r, "groupId"))
	if err != nil {
		queryError(w, err, agegroups.ErrNotFound)
		return
	}
	httputil.OK(w, group)
}

// UpdateAgeGroup applies a partial update to an age group.
//
//	PUT /api/v1/age-groups/{groupId}
func (h *Handlers) UpdateAgeGroup(w http.ResponseWriter, r *http.Request) {
	schoolID := SchoolIDFromContext(r.Context())
	id := chi.URLParam(r, "groupId")

	var req struct {
		Name   *string `json:"name"`
		MinAge *int    `json:"min_age"`
		MaxAge *int    `json:"max_age"`
		Active *bool   `json:"active"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}

	err := h.ageGroups.Update(r.Context(), schoolID, id, agegroups.UpdateFields{
		Name:   req.Name,
		MinAge: req.MinAge,
		MaxAge: req.MaxAge,
		Active: req.Active,
	})
	if err != nil {
		failMutation(w, err, agegroups.ErrNotFound)
		return
	}

	group, err := h.ageGroups.Get(r.Context(), schoolID, id)
	if err != nil {
		failMutation(w, err, agegroups.ErrNotFound)
		return
	}
	httputil.Succeeded(w, http.StatusOK, group)
}

// DeleteAgeGroup removes an unused age group. Groups still referenced by
// learners or activity groups are rejected.
//
//	DELETE /api/v1/age-groups/{groupId}
func (h *Handlers) DeleteAgeGroup(w http.ResponseWriter, r *http.Request) {
	err := h.ageGroups.Delete(r.Context(), SchoolIDFromContext(r.Context()), chi.URLParam(r, "groupId"))
	if err != nil {
		failMutation(w, err, agegroups.ErrNotFound)
		return
	}
	httputil.Succeeded(w, http.StatusOK, nil)
}
