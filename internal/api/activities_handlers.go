package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/IQTechSolutions/ConectOne-sub011/internal/pkg/httputil"
	"github.com/IQTechSolutions/ConectOne-sub011/internal/service/activities"
)

// ListActivityGroups returns the school's activity groups.
//
//	GET /api/v1/activity-groups?category=&age_group_id=&active=true&page=&limit=
func (h *Handlers) ListActivityGroups(w http.ResponseWriter, r *http.Request) {
	params := ParsePagination(r, 20, 100)
	q := r.URL.Query()

	list, total, err := h.activities.List(r.Context(), SchoolIDFromContext(r.Context()), activities.ListFilter{
		Category:   q.Get("category"),
		AgeGroupID: q.Get("age_group_id"),
		ActiveOnly: q.Get("active") == "true",
		Limit:      params.Limit,
		Offset:     params.Offset,
	})
	if err != nil {
		httputil.InternalError(w, err)
		return
	}

	httputil.OK(w, NewPaginatedResponse(list, params, int64(total)))
}

// CreateActivityGroup adds an extracurricular group to the school.
//
//	POST /api/v1/activity-groups
func (h *Handlers) CreateActivityGroup(w http.ResponseWriter, r *http.Request) {
	var input activities.CreateInput
	if !httputil.Decode(w, r, &input) {
		return
	}

	group, err := h.activities.Create(r.Context(), SchoolIDFromContext(r.Context()), input)
	if err != nil {
		failMutation(w, err)
		return
	}

	httputil.Succeeded(w, http.StatusCreated, group)
}

// GetActivityGroup returns a single activity group.
//
//	GET /api/v1/activity-groups/{groupId}
func (h *Handlers) GetActivityGroup(w http.ResponseWriter, r *http.Request) {
	group, err := h.activities.Get(r.Context(), SchoolIDFromContext(r.Context()), chi.URLParam(r, "groupId"))
	if err != nil {
		queryError(w, err, activities.ErrNotFound)
		return
	}
	httputil.OK(w, group)
}

// UpdateActivityGroup applies a partial update to an activity group.
// Shrinking capacity below the current member count is rejected.
//
//	PUT /api/v1/activity-groups/{groupId}
func (h *Handlers) UpdateActivityGroup(w http.ResponseWriter, r *http.Request) {
	schoolID := SchoolIDFromContext(r.Context())
	id := chi.URLParam(r, "groupId")

	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		Category    *string `json:"category"`
		Schedule    *string `json:"schedule"`
		Capacity    *int    `json:"capacity"`
		AgeGroupID  *string `json:"age_group_id"`
		Active      *bool   `json:"active"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}

	err := h.activities.Update(r.Context(), schoolID, id, activities.UpdateFields{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Schedule:    req.Schedule,
		Capacity:    req.Capacity,
		AgeGroupID:  req.AgeGroupID,
		Active:      req.Active,
	})
	if err != nil {
		failMutation(w, err, activities.ErrNotFound)
		return
	}

	group, err := h.activities.Get(r.Context(), schoolID, id)
	if err != nil {
		failMutation(w, err, activities.ErrNotFound)
		return
	}
	httputil.Succeeded(w, http.StatusOK, group)
}

// DeleteActivityGroup removes an empty activity group. Groups with members
// still enrolled are rejected.
//
//	DELETE /api/v1/activity-groups/{groupId}
func (h *Handlers) DeleteActivityGroup(w http.ResponseWriter, r *http.Request) {
	err := h.activities.Delete(r.Context(), SchoolIDFromContext(r.Context()), chi.URLParam(r, "groupId"))
	if err != nil {
		failMutation(w, err, activities.ErrNotFound)
		return
	}
	httputil.Succeeded(w, http.StatusOK, nil)
}

// ListGroupMembers returns the learners enrolled in an activity group.
//
//	GET /api/v1/activity-groups/{groupId}/members?page=&limit=
func (h *Handlers) ListGroupMembers(w http.ResponseWriter, r *http.Request) {
	params := ParsePagination(r, 20, 100)

	members, total, err := h.activities.ListMembers(r.Context(), SchoolIDFromContext(r.Context()), chi.URLParam(r, "groupId"), activities.MemberFilter{
		Limit:  params.Limit,
		Offset: params.Offset,
	})
	if err != nil {
		queryError(w, err, activities.ErrNotFound)
		return
	}

	httputil.OK(w, NewPaginatedResponse(members, params, int64(total)))
}

// EnrollMember adds a learner to an activity group. Enrollment checks the
// group's capacity and the learner's age against the group's age band.
//
//	POST /api/v1/activity-groups/{groupId}/members/{learnerId}
func (h *Handlers) EnrollMember(w http.ResponseWriter, r *http.Request) {
	err := h.activities.Enroll(r.Context(), SchoolIDFromContext(r.Context()), chi.URLParam(r, "groupId"), chi.URLParam(r, "learnerId"))
	if err != nil {
		failMutation(w, err, activities.ErrNotFound, activities.ErrLearnerNotFound)
		return
	}
	httputil.Succeeded(w, http.StatusOK, nil)
}

// WithdrawMember removes a learner from an activity group.
//
//	DELETE /api/v1/activity-groups/{groupId}/members/{learnerId}
func (h *Handlers) WithdrawMember(w http.ResponseWriter, r *http.Request) {
	err := h.activities.Withdraw(r.Context(), SchoolIDFromContext(r.Context()), chi.URLParam(r, "groupId"), chi.URLParam(r, "learnerId"))
	if err != nil {
		failMutation(w, err, activities.ErrNotFound, activities.ErrLearnerNotFound)
		return
	}
	httputil.Succeeded(w, http.StatusOK, nil)
}
