package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/IQTechSolutions/ConectOne-sub011/internal/domain"
	"github.com/IQTechSolutions/ConectOne-sub011/internal/pkg/httputil"
	"github.com/IQTechSolutions/ConectOne-sub011/internal/service/messaging"
)

// ListMessages returns the school's messages, newest first.
//
//	GET /api/v1/messages?status=&search=&page=&limit=
func (h *Handlers) ListMessages(w http.ResponseWriter, r *http.Request) {
	params := ParsePagination(r, 20, 100)
	q := r.URL.Query()

	list, total, err := h.messages.List(r.Context(), SchoolIDFromContext(r.Context()), messaging.ListFilter{
		Status: domain.MessageStatus(q.Get("status")),
		Search: q.Get("search"),
		Limit:  params.Limit,
		Offset: params.Offset,
	})
	if err != nil {
		httputil.InternalError(w, err)
		return
	}

	httputil.OK(w, NewPaginatedResponse(list, params, int64(total)))
}

// ComposeMessage creates a draft message addressed to an audience.
//
//	POST /api/v1/messages
func (h *Handlers) ComposeMessage(w http.ResponseWriter, r *http.Request) {
	var input messaging.ComposeInput
	if !httputil.Decode(w, r, &input) {
		return
	}

	msg, err := h.messages.Compose(r.Context(), SchoolIDFromContext(r.Context()), input)
	if err != nil {
		failMutation(w, err, messaging.ErrGroupNotFound)
		return
	}

	httputil.Succeeded(w, http.StatusCreated, msg)
}

// GetMessage returns a single message.
//
//	GET /api/v1/messages/{messageId}
func (h *Handlers) GetMessage(w http.ResponseWriter, r *http.Request) {
	msg, err := h.messages.Get(r.Context(), SchoolIDFromContext(r.Context()), chi.URLParam(r, "messageId"))
	if err != nil {
		queryError(w, err, messaging.ErrNotFound)
		return
	}
	httputil.OK(w, msg)
}

// UpdateMessage applies a partial update to a draft or scheduled message.
// Messages that have started sending are no longer editable.
//
//	PUT /api/v1/messages/{messageId}
func (h *Handlers) UpdateMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Subject          *string              `json:"subject"`
		Body             *string              `json:"body"`
		SenderName       *string              `json:"sender_name"`
		SenderEmail      *string              `json:"sender_email"`
		Audience         *domain.AudienceKind `json:"audience"`
		AudienceRef      *string              `json:"audience_ref"`
		WithPush         *bool                `json:"with_push"`
		ScheduledAt      *time.Time           `json:"scheduled_at"`
		CustomRecipients []messaging.Contact  `json:"recipients"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}

	msg, err := h.messages.Update(r.Context(), SchoolIDFromContext(r.Context()), chi.URLParam(r, "messageId"), messaging.UpdateFields{
		Subject:          req.Subject,
		Body:             req.Body,
		SenderName:       req.SenderName,
		SenderEmail:      req.SenderEmail,
		Audience:         req.Audience,
		AudienceRef:      req.AudienceRef,
		WithPush:         req.WithPush,
		ScheduledAt:      req.ScheduledAt,
		CustomRecipients: req.CustomRecipients,
	})
	if err != nil {
		failMutation(w, err, messaging.ErrNotFound, messaging.ErrGroupNotFound)
		return
	}
	httputil.Succeeded(w, http.StatusOK, msg)
}

// DeleteMessage removes a draft or scheduled message before it sends.
//
//	DELETE /api/v1/messages/{messageId}
func (h *Handlers) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	err := h.messages.Delete(r.Context(), SchoolIDFromContext(r.Context()), chi.URLParam(r, "messageId"))
	if err != nil {
		failMutation(w, err, messaging.ErrNotFound)
		return
	}
	httputil.Succeeded(w, http.StatusOK, nil)
}

// SendMessage resolves the audience and queues one notification per
// recipient. Recipients that could not be resolved come back as warnings on
// a successful send.
//
//	POST /api/v1/messages/{messageId}/send
func (h *Handlers) SendMessage(w http.ResponseWriter, r *http.Request) {
	report, err := h.messages.Send(r.Context(), SchoolIDFromContext(r.Context()), chi.URLParam(r, "messageId"))
	if err != nil {
		failMutation(w, err, messaging.ErrNotFound, messaging.ErrGroupNotFound)
		return
	}

	httputil.Succeeded(w, http.StatusOK, report, report.Warnings...)
}

// ResendMessage requeues delivery for a completed message. Scope "failed"
// retries only failed recipients; "all" requeues everyone.
//
//	POST /api/v1/messages/{messageId}/resend?scope=failed
func (h *Handlers) ResendMessage(w http.ResponseWriter, r *http.Request) {
	scope := r.URL.Query().Get("scope")
	if scope == "" {
		scope = "failed"
	}

	n, err := h.messages.Resend(r.Context(), SchoolIDFromContext(r.Context()), chi.URLParam(r, "messageId"), scope)
	if err != nil {
		failMutation(w, err, messaging.ErrNotFound)
		return
	}

	httputil.Succeeded(w, http.StatusOK, map[string]int{"requeued": n},
		fmt.Sprintf("%d recipients requeued", n))
}

// PreviewMessage renders the message body against a sample recipient so the
// admin can check personalisation before sending.
//
//	GET /api/v1/messages/{messageId}/preview
func (h *Handlers) PreviewMessage(w http.ResponseWriter, r *http.Request) {
	preview, err := h.messages.Preview(r.Context(), SchoolIDFromContext(r.Context()), chi.URLParam(r, "messageId"))
	if err != nil {
		queryError(w, err, messaging.ErrNotFound)
		return
	}
	httputil.OK(w, preview)
}

// ListMessageRecipients returns the per-recipient delivery state for a
// message.
//
//	GET /api/v1/messages/{messageId}/recipients?status=&page=&limit=
func (h *Handlers) ListMessageRecipients(w http.ResponseWriter, r *http.Request) {
	params := ParsePagination(r, 20, 100)

	list, total, err := h.messages.Recipients(r.Context(), SchoolIDFromContext(r.Context()), chi.URLParam(r, "messageId"), messaging.RecipientFilter{
		Status: domain.RecipientStatus(r.URL.Query().Get("status")),
		Limit:  params.Limit,
		Offset: params.Offset,
	})
	if err != nil {
		queryError(w, err, messaging.ErrNotFound)
		return
	}

	httputil.OK(w, NewPaginatedResponse(list, params, int64(total)))
}
