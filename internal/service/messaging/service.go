package messaging

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/IQTechSolutions/ConectOne-sub011/internal/domain"
)

// Renderer turns a message body template into per-recipient text. The lax
// Render never fails a send over a bad template; ValidateVariables backs
// the strict preview mode.
type Renderer interface {
	Render(template string, ctx map[string]interface{}) (string, error)
	ValidateVariables(template string, ctx map[string]interface{}) []string
}

// Service coordinates message lifecycle and audience fan-out.
type Service struct {
	repo     Repository
	renderer Renderer
}

func NewService(repo Repository, renderer Renderer) *Service {
	return &Service{repo: repo, renderer: renderer}
}

func (s *Service) Get(ctx context.Context, schoolID, id string) (*domain.Message, error) {
	return s.repo.Get(ctx, schoolID, id)
}

func (s *Service) List(ctx context.Context, schoolID string, f ListFilter) ([]domain.Message, int, error) {
	return s.repo.List(ctx, schoolID, f)
}

// Compose creates a message draft. Setting ScheduledAt parks it in the
// scheduled state for the scheduler worker to promote when due.
func (s *Service) Compose(ctx context.Context, schoolID string, input ComposeInput) (*domain.Message, error) {
	if schoolID == "" {
		return nil, fmt.Errorf("school id is required")
	}
	if input.Subject == "" {
		return nil, fmt.Errorf("subject is required")
	}
	if input.Body == "" {
		return nil, fmt.Errorf("body is required")
	}
	if input.SenderName == "" || input.SenderEmail == "" {
		return nil, fmt.Errorf("sender_name and sender_email are required")
	}
	if err := validateAudience(input.Audience, input.AudienceRef, input.Recipients); err != nil {
		return nil, err
	}

	status := domain.MessageDraft
	if input.ScheduledAt != nil {
		if !input.ScheduledAt.After(time.Now()) {
			return nil, fmt.Errorf("scheduled_at must be in the future")
		}
		status = domain.MessageScheduled
	}

	m := &domain.Message{
		SchoolID:    schoolID,
		Subject:     input.Subject,
		Body:        input.Body,
		SenderName:  input.SenderName,
		SenderEmail: input.SenderEmail,
		Audience:    input.Audience,
		Status:      status,
		ScheduledAt: input.ScheduledAt,
		WithPush:    input.WithPush,
	}
	if input.AudienceRef != "" {
		m.AudienceRef = &input.AudienceRef
	}

	id, err := s.repo.Create(ctx, m, input.Recipients)
	if err != nil {
		return nil, err
	}
	m.ID = id

	log.Printf("[messaging.Service] Composed message %s for school %s (audience %s)", id, schoolID, input.Audience)
	return m, nil
}

// Update patches a message that has not been queued yet. Setting
// ScheduledAt to the zero time clears the schedule and returns the message
// to draft.
func (s *Service) Update(ctx context.Context, schoolID, id string, u UpdateFields) (*domain.Message, error) {
	m, err := s.repo.Get(ctx, schoolID, id)
	if err != nil {
		return nil, err
	}
	if m.Status != domain.MessageDraft && m.Status != domain.MessageScheduled {
		return nil, ErrNotEditable
	}

	// Recombine audience and ref so a one-sided change is still validated
	// as a whole.
	aud := m.Audience
	if u.Audience != nil {
		aud = *u.Audience
	}
	ref := ""
	if m.AudienceRef != nil {
		ref = *m.AudienceRef
	}
	if u.AudienceRef != nil {
		ref = *u.AudienceRef
	}
	if aud == domain.AudienceCustom {
		// Nil leaves the stored recipient list alone, so only require one
		// when switching audience kind.
		if m.Audience != domain.AudienceCustom && u.CustomRecipients == nil {
			return nil, fmt.Errorf("recipients are required for a custom audience")
		}
		for _, r := range u.CustomRecipients {
			if r.Email == "" {
				return nil, fmt.Errorf("every custom recipient needs an email")
			}
		}
	} else if err := validateAudience(aud, ref, nil); err != nil {
		return nil, err
	}

	if u.ScheduledAt != nil {
		if u.ScheduledAt.IsZero() {
			st := domain.MessageDraft
			u.Status = &st
		} else {
			if !u.ScheduledAt.After(time.Now()) {
				return nil, fmt.Errorf("scheduled_at must be in the future")
			}
			st := domain.MessageScheduled
			u.Status = &st
		}
	}

	if err := s.repo.Update(ctx, schoolID, id, u); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, schoolID, id)
}

// Delete removes a message that has not been queued yet.
func (s *Service) Delete(ctx context.Context, schoolID, id string) error {
	m, err := s.repo.Get(ctx, schoolID, id)
	if err != nil {
		return err
	}
	if m.Status != domain.MessageDraft && m.Status != domain.MessageScheduled {
		return ErrNotEditable
	}
	return s.repo.Delete(ctx, schoolID, id)
}

// Send resolves the audience, renders the body per recipient and queues
// the fan-out. Per-recipient problems become warnings on the report, never
// a failed send.
func (s *Service) Send(ctx context.Context, schoolID, id string) (*SendReport, error) {
	m, err := s.repo.Get(ctx, schoolID, id)
	if err != nil {
		return nil, err
	}
	if m.Status != domain.MessageDraft && m.Status != domain.MessageScheduled {
		return nil, ErrNotSendable
	}

	contacts, err := s.resolveAudience(ctx, m)
	if err != nil {
		return nil, err
	}
	schoolName, err := s.repo.SchoolName(ctx, schoolID)
	if err != nil {
		return nil, err
	}

	var (
		recipients []domain.MessageRecipient
		notes      []domain.Notification
		warnings   []string
	)
	seen := make(map[string]bool)
	for _, c := range contacts {
		email := strings.ToLower(strings.TrimSpace(c.Email))
		if email == "" {
			warnings = append(warnings, fmt.Sprintf("skipped %s: no email address", c.Name))
			continue
		}
		if seen[email] {
			continue
		}
		seen[email] = true

		body, err := s.renderer.Render(m.Body, recipientContext(c, schoolName))
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("template render failed for %s, sending unrendered body", email))
			body = m.Body
		}

		recipients, notes = appendFanOut(recipients, notes, m, c.Name, email, domain.ChannelEmail, body)
		if m.WithPush {
			recipients, notes = appendFanOut(recipients, notes, m, c.Name, email, domain.ChannelPush, body)
		}
	}

	if len(recipients) == 0 {
		return nil, ErrNoRecipients
	}
	if err := s.repo.FanOut(ctx, m.ID, recipients, notes); err != nil {
		return nil, err
	}

	log.Printf("[messaging.Service] Message %s queued to %d recipients (%d warnings)", m.ID, len(recipients), len(warnings))
	return &SendReport{MessageID: m.ID, Queued: len(recipients), Warnings: warnings}, nil
}

// Resend requeues delivery for a completed message. Scope "failed" retries
// only failed recipients; "all" repeats the whole fan-out.
func (s *Service) Resend(ctx context.Context, schoolID, id, scope string) (int, error) {
	if scope != "failed" && scope != "all" {
		return 0, fmt.Errorf("scope must be failed or all")
	}
	m, err := s.repo.Get(ctx, schoolID, id)
	if err != nil {
		return 0, err
	}
	if !m.IsTerminal() {
		return 0, ErrNotComplete
	}

	var n int
	if scope == "failed" {
		n, err = s.repo.RequeueFailed(ctx, m.ID)
	} else {
		n, err = s.repo.RequeueAll(ctx, m.ID)
	}
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Printf("[messaging.Service] Message %s: requeued %d recipients (scope %s)", m.ID, n, scope)
	}
	return n, nil
}

// Preview renders the body against a sample recipient in strict mode and
// reports variables that may be undefined for real recipients.
func (s *Service) Preview(ctx context.Context, schoolID, id string) (*Preview, error) {
	m, err := s.repo.Get(ctx, schoolID, id)
	if err != nil {
		return nil, err
	}
	schoolName, err := s.repo.SchoolName(ctx, schoolID)
	if err != nil {
		return nil, err
	}

	sample := recipientContext(Contact{Name: "Thandi Mokoena", Email: "thandi@example.com"}, schoolName)
	warnings := s.renderer.ValidateVariables(m.Body, sample)
	body, err := s.renderer.Render(m.Body, sample)
	if err != nil {
		warnings = append(warnings, fmt.Sprintf("template failed to render: %v", err))
		body = m.Body
	}
	return &Preview{Subject: m.Subject, Body: body, Warnings: warnings}, nil
}

// Recipients lists the delivery rows of a message.
func (s *Service) Recipients(ctx context.Context, schoolID, id string, f RecipientFilter) ([]domain.MessageRecipient, int, error) {
	if _, err := s.repo.Get(ctx, schoolID, id); err != nil {
		return nil, 0, err
	}
	return s.repo.Recipients(ctx, id, f)
}

func (s *Service) resolveAudience(ctx context.Context, m *domain.Message) ([]Contact, error) {
	switch m.Audience {
	case domain.AudienceSchool:
		parents, err := s.repo.ResolveParents(ctx, m.SchoolID)
		if err != nil {
			return nil, err
		}
		teachers, err := s.repo.ResolveTeachers(ctx, m.SchoolID)
		if err != nil {
			return nil, err
		}
		return append(parents, teachers...), nil
	case domain.AudienceParents:
		return s.repo.ResolveParents(ctx, m.SchoolID)
	case domain.AudienceTeachers:
		return s.repo.ResolveTeachers(ctx, m.SchoolID)
	case domain.AudienceActivityGroup:
		if m.AudienceRef == nil || *m.AudienceRef == "" {
			return nil, fmt.Errorf("message has no activity group reference")
		}
		return s.repo.ResolveGroupGuardians(ctx, m.SchoolID, *m.AudienceRef)
	case domain.AudienceCustom:
		return s.repo.CustomRecipients(ctx, m.ID)
	}
	return nil, fmt.Errorf("unknown audience %q", m.Audience)
}

func validateAudience(aud domain.AudienceKind, ref string, custom []Contact) error {
	switch aud {
	case domain.AudienceSchool, domain.AudienceParents, domain.AudienceTeachers:
		return nil
	case domain.AudienceActivityGroup:
		if ref == "" {
			return fmt.Errorf("audience_ref is required for an activity_group audience")
		}
		return nil
	case domain.AudienceCustom:
		if len(custom) == 0 {
			return fmt.Errorf("recipients are required for a custom audience")
		}
		for _, r := range custom {
			if r.Email == "" {
				return fmt.Errorf("every custom recipient needs an email")
			}
		}
		return nil
	}
	return fmt.Errorf("audience must be one of school, parents, teachers, activity_group, custom")
}

func recipientContext(c Contact, schoolName string) map[string]interface{} {
	first, last, _ := strings.Cut(c.Name, " ")
	return map[string]interface{}{
		"name":        c.Name,
		"first_name":  first,
		"last_name":   last,
		"email":       c.Email,
		"school_name": schoolName,
	}
}

func appendFanOut(recipients []domain.MessageRecipient, notes []domain.Notification, m *domain.Message, name, email string, ch domain.NotifyChannel, body string) ([]domain.MessageRecipient, []domain.Notification) {
	rid := uuid.New().String()
	recipients = append(recipients, domain.MessageRecipient{
		ID:        rid,
		MessageID: m.ID,
		Name:      name,
		Email:     email,
		Channel:   ch,
		Status:    domain.RecipientPending,
	})
	notes = append(notes, domain.Notification{
		ID:            uuid.New().String(),
		MessageID:     &m.ID,
		RecipientID:   &rid,
		Channel:       ch,
		Recipient:     email,
		RecipientName: name,
		Subject:       m.Subject,
		Body:          body,
		Status:        domain.OutboxQueued,
	})
	return recipients, notes
}

// ComposeInput carries the fields for a new message.
type ComposeInput struct {
	Subject     string              `json:"subject"`
	Body        string              `json:"body"`
	SenderName  string              `json:"sender_name"`
	SenderEmail string              `json:"sender_email"`
	Audience    domain.AudienceKind `json:"audience"`
	AudienceRef string              `json:"audience_ref,omitempty"`
	Recipients  []Contact           `json:"recipients,omitempty"`
	WithPush    bool                `json:"with_push"`
	ScheduledAt *time.Time          `json:"scheduled_at,omitempty"`
}

// SendReport summarises a fan-out.
type SendReport struct {
	MessageID string   `json:"message_id"`
	Queued    int      `json:"queued"`
	Warnings  []string `json:"warnings,omitempty"`
}

// Preview is a strict-mode render of a message against a sample recipient.
type Preview struct {
	Subject  string   `json:"subject"`
	Body     string   `json:"body"`
	Warnings []string `json:"warnings,omitempty"`
}
