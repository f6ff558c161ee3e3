package messaging

import (
	"context"
	"time"

	"github.com/IQTechSolutions/ConectOne-sub011/internal/domain"
)

// Repository is the persistence contract for messages and their fan-out.
type Repository interface {
	Get(ctx context.Context, schoolID, id string) (*domain.Message, error)
	List(ctx context.Context, schoolID string, f ListFilter) ([]domain.Message, int, error)
	Create(ctx context.Context, m *domain.Message, custom []Contact) (string, error)
	Update(ctx context.Context, schoolID, id string, u UpdateFields) error
	Delete(ctx context.Context, schoolID, id string) error

	// Audience resolution. Parents are reached through guardianships of
	// enrolled learners, so a parent with children at two schools only
	// appears in the audience of the school being messaged.
	ResolveParents(ctx context.Context, schoolID string) ([]Contact, error)
	ResolveTeachers(ctx context.Context, schoolID string) ([]Contact, error)
	ResolveGroupGuardians(ctx context.Context, schoolID, groupID string) ([]Contact, error)
	CustomRecipients(ctx context.Context, id string) ([]Contact, error)
	SchoolName(ctx context.Context, schoolID string) (string, error)

	// FanOut writes the resolved recipient rows and their outbox entries,
	// marks the message queued and stamps the totals, all in one
	// transaction.
	FanOut(ctx context.Context, messageID string, recipients []domain.MessageRecipient, notes []domain.Notification) error

	Recipients(ctx context.Context, messageID string, f RecipientFilter) ([]domain.MessageRecipient, int, error)

	// RequeueFailed puts failed recipients and their outbox rows back in
	// the queue; RequeueAll does the same for every recipient. Both return
	// the number of recipients requeued.
	RequeueFailed(ctx context.Context, messageID string) (int, error)
	RequeueAll(ctx context.Context, messageID string) (int, error)
}

// Contact is one resolved audience member.
type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ListFilter narrows and pages message listings.
type ListFilter struct {
	Status domain.MessageStatus
	Search string
	Limit  int
	Offset int
}

// RecipientFilter narrows and pages a message's recipient rows.
type RecipientFilter struct {
	Status domain.RecipientStatus
	Limit  int
	Offset int
}

// UpdateFields carries the mutable message fields. Nil means leave
// unchanged. A ScheduledAt pointing at the zero time clears the schedule.
type UpdateFields struct {
	Subject          *string
	Body             *string
	SenderName       *string
	SenderEmail      *string
	Audience         *domain.AudienceKind
	AudienceRef      *string
	WithPush         *bool
	ScheduledAt      *time.Time
	Status           *domain.MessageStatus
	CustomRecipients []Contact
}
