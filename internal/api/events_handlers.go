package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/IQTechSolutions/ConectOne-sub011/internal/pkg/httputil"
	"github.com/IQTechSolutions/ConectOne-sub011/internal/service/events"
)

// ListEvents returns the school's events, newest first.
//
//	GET /api/v1/events?status=&upcoming=true&page=&limit=
func (h *Handlers) ListEvents(w http.ResponseWriter, r *http.Request) {
	params := ParsePagination(r, 20, 100)
	q := r.URL.Query()

	list, total, err := h.events.List(r.Context(), SchoolIDFromContext(r.Context()), events.ListFilter{
		Status:       q.Get("status"),
		UpcomingOnly: q.Get("upcoming") == "true",
		Limit:        params.Limit,
		Offset:       params.Offset,
	})
	if err != nil {
		httputil.InternalError(w, err)
		return
	}

	httputil.OK(w, NewPaginatedResponse(list, params, int64(total)))
}

// CreateEvent creates a draft event.
//
//	POST /api/v1/events
func (h *Handlers) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var input events.CreateInput
	if !httputil.Decode(w, r, &input) {
		return
	}

	event, err := h.events.Create(r.Context(), SchoolIDFromContext(r.Context()), input)
	if err != nil {
		failMutation(w, err)
		return
	}

	httputil.Succeeded(w, http.StatusCreated, event)
}

// GetEvent returns a single event.
//
//	GET /api/v1/events/{eventId}
func (h *Handlers) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.events.Get(r.Context(), SchoolIDFromContext(r.Context()), chi.URLParam(r, "eventId"))
	if err != nil {
		queryError(w, err, events.ErrNotFound)
		return
	}
	httputil.OK(w, event)
}

// UpdateEvent applies a partial update to a draft or published event.
// Cancelled and completed events are no longer editable.
//
//	PUT /api/v1/events/{eventId}
func (h *Handlers) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	schoolID := SchoolIDFromContext(r.Context())
	id := chi.URLParam(r, "eventId")

	var req struct {
		Title         *string    `json:"title"`
		Description   *string    `json:"description"`
		Venue         *string    `json:"venue"`
		StartsAt      *time.Time `json:"starts_at"`
		EndsAt        *time.Time `json:"ends_at"`
		Capacity      *int       `json:"capacity"`
		CoverImageURL *string    `json:"cover_image_url"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}

	err := h.events.Update(r.Context(), schoolID, id, events.UpdateFields{
		Title:         req.Title,
		Description:   req.Description,
		Venue:         req.Venue,
		StartsAt:      req.StartsAt,
		EndsAt:        req.EndsAt,
		Capacity:      req.Capacity,
		CoverImageURL: req.CoverImageURL,
	})
	if err != nil {
		failMutation(w, err, events.ErrNotFound)
		return
	}

	event, err := h.events.Get(r.Context(), schoolID, id)
	if err != nil {
		failMutation(w, err, events.ErrNotFound)
		return
	}
	httputil.Succeeded(w, http.StatusOK, event)
}

// DeleteEvent removes a draft event. Published events must be cancelled
// instead so attendees are notified.
//
//	DELETE /api/v1/events/{eventId}
func (h *Handlers) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	err := h.events.Delete(r.Context(), SchoolIDFromContext(r.Context()), chi.URLParam(r, "eventId"))
	if err != nil {
		failMutation(w, err, events.ErrNotFound)
		return
	}
	httputil.Succeeded(w, http.StatusOK, nil)
}

// PublishEvent moves a draft event to published, opening it for RSVPs.
//
//	POST /api/v1/events/{eventId}/publish
func (h *Handlers) PublishEvent(w http.ResponseWriter, r *http.Request) {
	schoolID := SchoolIDFromContext(r.Context())
	id := chi.URLParam(r, "eventId")

	if err := h.events.Publish(r.Context(), schoolID, id); err != nil {
		failMutation(w, err, events.ErrNotFound)
		return
	}

	event, err := h.events.Get(r.Context(), schoolID, id)
	if err != nil {
		failMutation(w, err, events.ErrNotFound)
		return
	}
	httputil.Succeeded(w, http.StatusOK, event)
}

// CancelEvent cancels a published event and queues a notification for every
// attendee who responded. The count of notified attendees is returned as a
// warning message so the admin UI can surface it.
//
//	POST /api/v1/events/{eventId}/cancel
func (h *Handlers) CancelEvent(w http.ResponseWriter, r *http.Request) {
	notified, err := h.events.Cancel(r.Context(), SchoolIDFromContext(r.Context()), chi.URLParam(r, "eventId"))
	if err != nil {
		failMutation(w, err, events.ErrNotFound)
		return
	}

	httputil.Succeeded(w, http.StatusOK, map[string]int{"notified": notified},
		fmt.Sprintf("%d attendees notified of cancellation", notified))
}

// ListEventRSVPs returns the attendance responses for an event.
//
//	GET /api/v1/events/{eventId}/rsvps?status=&page=&limit=
func (h *Handlers) ListEventRSVPs(w http.ResponseWriter, r *http.Request) {
	params := ParsePagination(r, 20, 100)

	list, total, err := h.events.ListRSVPs(r.Context(), SchoolIDFromContext(r.Context()), chi.URLParam(r, "eventId"), events.RSVPFilter{
		Status: r.URL.Query().Get("status"),
		Limit:  params.Limit,
		Offset: params.Offset,
	})
	if err != nil {
		queryError(w, err, events.ErrNotFound)
		return
	}

	httputil.OK(w, NewPaginatedResponse(list, params, int64(total)))
}

// CreateRSVP records an attendance response for a published event. A repeat
// response from the same email updates the existing row.
//
//	POST /api/v1/events/{eventId}/rsvps
func (h *Handlers) CreateRSVP(w http.ResponseWriter, r *http.Request) {
	var input events.RSVPInput
	if !httputil.Decode(w, r, &input) {
		return
	}

	rsvp, err := h.events.RSVP(r.Context(), SchoolIDFromContext(r.Context()), chi.URLParam(r, "eventId"), input)
	if err != nil {
		failMutation(w, err, events.ErrNotFound)
		return
	}

	httputil.Succeeded(w, http.StatusCreated, rsvp)
}

// CancelRSVP withdraws an attendance response, freeing the seat.
//
//	DELETE /api/v1/events/{eventId}/rsvps?email=
func (h *Handlers) CancelRSVP(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		httputil.Failed(w, http.StatusBadRequest, "email is required")
		return
	}

	err := h.events.CancelRSVP(r.Context(), SchoolIDFromContext(r.Context()), chi.URLParam(r, "eventId"), email)
	if err != nil {
		failMutation(w, err, events.ErrNotFound, events.ErrRSVPNotFound)
		return
	}
	httputil.Succeeded(w, http.StatusOK, nil)
}
