package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/IQTechSolutions/ConectOne-sub011/internal/pkg/httputil"
	"github.com/IQTechSolutions/ConectOne-sub011/internal/service/schools"
)

// Learner handlers. All learner routes sit behind RequireSchool, so the
// school comes from the request context rather than the path.

// ListLearners returns the school's learners.
//
//	GET /api/v1/learners?status=&age_group_id=&search=&page=&limit=
func (h *Handlers) ListLearners(w http.ResponseWriter, r *http.Request) {
	params := ParsePagination(r, 20, 100)
	q := r.URL.Query()

	list, total, err := h.schools.ListLearners(r.Context(), SchoolIDFromContext(r.Context()), schools.LearnerFilter{
		Status:     q.Get("status"),
		AgeGroupID: q.Get("age_group_id"),
		Search:     q.Get("search"),
		Limit:      params.Limit,
		Offset:     params.Offset,
	})
	if err != nil {
		httputil.InternalError(w, err)
		return
	}

	httputil.OK(w, NewPaginatedResponse(list, params, int64(total)))
}

// CreateLearner enrols a new learner at the school.
//
//	POST /api/v1/learners
func (h *Handlers) CreateLearner(w http.ResponseWriter, r *http.Request) {
	var input schools.CreateLearnerInput
	if !httputil.Decode(w, r, &input) {
		return
	}

	learner, err := h.schools.CreateLearner(r.Context(), SchoolIDFromContext(r.Context()), input)
	if err != nil {
		failMutation(w, err)
		return
	}

	httputil.Succeeded(w, http.StatusCreated, learner)
}

// GetLearner returns a single learner.
//
//	GET /api/v1/learners/{learnerId}
func (h *Handlers) GetLearner(w http.ResponseWriter, r *http.Request) {
	learner, err := h.schools.GetLearner(r.Context(), SchoolIDFromContext(r.Context()), chi.URLParam(r, "learnerId"))
	if err != nil {
		queryError(w, err, schools.ErrLearnerNotFound)
		return
	}
	httputil.OK(w, learner)
}

// UpdateLearner applies a partial update to a learner.
//
//	PUT /api/v1/learners/{learnerId}
func (h *Handlers) UpdateLearner(w http.ResponseWriter, r *http.Request) {
	schoolID := SchoolIDFromContext(r.Context())
	id := chi.URLParam(r, "learnerId")

	var req struct {
		FirstName  *string `json:"first_name"`
		LastName   *string `json:"last_name"`
		Email      *string `json:"email"`
		Grade      *string `json:"grade"`
		AgeGroupID *string `json:"age_group_id"`
		PhotoURL   *string `json:"photo_url"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}

	err := h.schools.UpdateLearner(r.Context(), schoolID, id, schools.LearnerUpdate{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Email:      req.Email,
		Grade:      req.Grade,
		AgeGroupID: req.AgeGroupID,
		PhotoURL:   req.PhotoURL,
	})
	if err != nil {
		failMutation(w, err, schools.ErrLearnerNotFound)
		return
	}

	learner, err := h.schools.GetLearner(r.Context(), schoolID, id)
	if err != nil {
		failMutation(w, err, schools.ErrLearnerNotFound)
		return
	}
	httputil.Succeeded(w, http.StatusOK, learner)
}

// ArchiveLearner retires a learner record. Learners are never hard-deleted;
// the row moves to archived status and drops out of default lists.
//
//	DELETE /api/v1/learners/{learnerId}
func (h *Handlers) ArchiveLearner(w http.ResponseWriter, r *http.Request) {
	err := h.schools.ArchiveLearner(r.Context(), SchoolIDFromContext(r.Context()), chi.URLParam(r, "learnerId"))
	if err != nil {
		failMutation(w, err, schools.ErrLearnerNotFound)
		return
	}
	httputil.Succeeded(w, http.StatusOK, nil)
}

// ListLearnerGuardians returns the parents linked to a learner together with
// the guardianship rows carrying the relationship labels.
//
//	GET /api/v1/learners/{learnerId}/guardians
func (h *Handlers) ListLearnerGuardians(w http.ResponseWriter, r *http.Request) {
	links, parents, err := h.schools.GuardiansOfLearner(r.Context(), chi.URLParam(r, "learnerId"))
	if err != nil {
		queryError(w, err, schools.ErrLearnerNotFound)
		return
	}

	httputil.OK(w, map[string]interface{}{
		"guardianships": links,
		"parents":       parents,
	})
}

// Teacher handlers.

// ListTeachers returns the school's teachers.
//
//	GET /api/v1/teachers?search=&page=&limit=
func (h *Handlers) ListTeachers(w http.ResponseWriter, r *http.Request) {
	params := ParsePagination(r, 20, 100)

	list, total, err := h.schools.ListTeachers(r.Context(), SchoolIDFromContext(r.Context()), schools.TeacherFilter{
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

// CreateTeacher adds a teacher to the school.
//
//	POST /api/v1/teachers
func (h *Handlers) CreateTeacher(w http.ResponseWriter, r *http.Request) {
	var input schools.CreateTeacherInput
	if !httputil.Decode(w, r, &input) {
		return
	}

	teacher, err := h.schools.CreateTeacher(r.Context(), SchoolIDFromContext(r.Context()), input)
	if err != nil {
		failMutation(w, err)
		return
	}

	httputil.Succeeded(w, http.StatusCreated, teacher)
}

// GetTeacher returns a single teacher.
//
//	GET /api/v1/teachers/{teacherId}
func (h *Handlers) GetTeacher(w http.ResponseWriter, r *http.Request) {
	teacher, err := h.schools.GetTeacher(r.Context(), SchoolIDFromContext(r.Context()), chi.URLParam(r, "teacherId"))
	if err != nil {
		queryError(w, err, schools.ErrTeacherNotFound)
		return
	}
	httputil.OK(w, teacher)
}

// UpdateTeacher applies a partial update to a teacher.
//
//	PUT /api/v1/teachers/{teacherId}
func (h *Handlers) UpdateTeacher(w http.ResponseWriter, r *http.Request) {
	schoolID := SchoolIDFromContext(r.Context())
	id := chi.URLParam(r, "teacherId")

	var req struct {
		FirstName   *string `json:"first_name"`
		LastName    *string `json:"last_name"`
		Email       *string `json:"email"`
		PhoneNumber *string `json:"phone_number"`
		Subject     *string `json:"subject"`
		PhotoURL    *string `json:"photo_url"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}

	err := h.schools.UpdateTeacher(r.Context(), schoolID, id, schools.TeacherUpdate{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Subject:     req.Subject,
		PhotoURL:    req.PhotoURL,
	})
	if err != nil {
		failMutation(w, err, schools.ErrTeacherNotFound)
		return
	}

	teacher, err := h.schools.GetTeacher(r.Context(), schoolID, id)
	if err != nil {
		failMutation(w, err, schools.ErrTeacherNotFound)
		return
	}
	httputil.Succeeded(w, http.StatusOK, teacher)
}

// DeleteTeacher removes a teacher from the school.
//
//	DELETE /api/v1/teachers/{teacherId}
func (h *Handlers) DeleteTeacher(w http.ResponseWriter, r *http.Request) {
	err := h.schools.DeleteTeacher(r.Context(), SchoolIDFromContext(r.Context()), chi.URLParam(r, "teacherId"))
	if err != nil {
		failMutation(w, err, schools.ErrTeacherNotFound)
		return
	}
	httputil.Succeeded(w, http.StatusOK, nil)
}

// Parent handlers. Parents are enterprise-wide; a parent can have learners
// at more than one school, so these routes carry no school context.

// ListParents returns parents matching the search.
//
//	GET /api/v1/parents?search=&page=&limit=
func (h *Handlers) ListParents(w http.ResponseWriter, r *http.Request) {
	params := ParsePagination(r, 20, 100)

	list, total, err := h.schools.ListParents(r.Context(), schools.ParentFilter{
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

// CreateParent registers a new parent.
//
//	POST /api/v1/parents
func (h *Handlers) CreateParent(w http.ResponseWriter, r *http.Request) {
	var input schools.CreateParentInput
	if !httputil.Decode(w, r, &input) {
		return
	}

	parent, err := h.schools.CreateParent(r.Context(), input)
	if err != nil {
		failMutation(w, err)
		return
	}

	httputil.Succeeded(w, http.StatusCreated, parent)
}

// GetParent returns a single parent.
//
//	GET /api/v1/parents/{parentId}
func (h *Handlers) GetParent(w http.ResponseWriter, r *http.Request) {
	parent, err := h.schools.GetParent(r.Context(), chi.URLParam(r, "parentId"))
	if err != nil {
		queryError(w, err, schools.ErrParentNotFound)
		return
	}
	httputil.OK(w, parent)
}

// UpdateParent applies a partial update to a parent.
//
//	PUT /api/v1/parents/{parentId}
func (h *Handlers) UpdateParent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "parentId")

	var req struct {
		FirstName   *string `json:"first_name"`
		LastName    *string `json:"last_name"`
		Email       *string `json:"email"`
		PhoneNumber *string `json:"phone_number"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}

	err := h.schools.UpdateParent(r.Context(), id, schools.ParentUpdate{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		failMutation(w, err, schools.ErrParentNotFound)
		return
	}

	parent, err := h.schools.GetParent(r.Context(), id)
	if err != nil {
		failMutation(w, err, schools.ErrParentNotFound)
		return
	}
	httputil.Succeeded(w, http.StatusOK, parent)
}

// DeleteParent removes a parent and their guardianship links.
//
//	DELETE /api/v1/parents/{parentId}
func (h *Handlers) DeleteParent(w http.ResponseWriter, r *http.Request) {
	err := h.schools.DeleteParent(r.Context(), chi.URLParam(r, "parentId"))
	if err != nil {
		failMutation(w, err, schools.ErrParentNotFound)
		return
	}
	httputil.Succeeded(w, http.StatusOK, nil)
}

// ListParentLearners returns the children linked to a parent.
//
//	GET /api/v1/parents/{parentId}/learners
func (h *Handlers) ListParentLearners(w http.ResponseWriter, r *http.Request) {
	learners, err := h.schools.LearnersOfParent(r.Context(), chi.URLParam(r, "parentId"))
	if err != nil {
		queryError(w, err, schools.ErrParentNotFound)
		return
	}
	httputil.OK(w, map[string]interface{}{"data": learners})
}

// LinkLearner records a guardianship between a parent and a learner.
//
//	POST /api/v1/parents/{parentId}/learners/{learnerId}
func (h *Handlers) LinkLearner(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Relationship string `json:"relationship"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}

	err := h.schools.LinkLearner(r.Context(), chi.URLParam(r, "parentId"), chi.URLParam(r, "learnerId"), req.Relationship)
	if err != nil {
		failMutation(w, err, schools.ErrParentNotFound, schools.ErrLearnerNotFound)
		return
	}
	httputil.Succeeded(w, http.StatusOK, nil)
}

// UnlinkLearner removes a guardianship link.
//
//	DELETE /api/v1/parents/{parentId}/learners/{learnerId}
func (h *Handlers) UnlinkLearner(w http.ResponseWriter, r *http.Request) {
	err := h.schools.UnlinkLearner(r.Context(), chi.URLParam(r, "parentId"), chi.URLParam(r, "learnerId"))
	if err != nil {
		failMutation(w, err, schools.ErrParentNotFound, schools.ErrLearnerNotFound, schools.ErrNotLinked)
		return
	}
	httputil.Succeeded(w, http.StatusOK, nil)
}
