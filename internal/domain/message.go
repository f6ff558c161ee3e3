package domain

import (
	"time"
)

// MessageStatus enumerates the lifecycle states of a message.
type MessageStatus string

const (
	MessageDraft     MessageStatus = "draft"
	MessageScheduled MessageStatus = "scheduled"
	MessageQueued    MessageStatus = "queued"
	MessageSending   MessageStatus = "sending"
	MessageSent      MessageStatus = "sent"
	MessageFailed    MessageStatus = "failed"
)

// AudienceKind selects who a message fans out to.
type AudienceKind string

const (
	// AudienceSchool reaches every parent and teacher of the school.
	AudienceSchool AudienceKind = "school"
	// AudienceParents reaches all parents with a learner at the school.
	AudienceParents AudienceKind = "parents"
	// AudienceTeachers reaches the school's teachers.
	AudienceTeachers AudienceKind = "teachers"
	// AudienceActivityGroup reaches guardians of an activity group's members.
	AudienceActivityGroup AudienceKind = "activity_group"
	// AudienceCustom uses an explicit recipient list supplied at compose time.
	AudienceCustom AudienceKind = "custom"
)

// Message is a school announcement sent by email (and optionally push) to a
// resolved audience. Body is a Liquid template rendered per recipient with
// {{ first_name }}, {{ last_name }}, {{ school_name }} and friends.
type Message struct {
	ID           string        `json:"id" db:"id"`
	SchoolID     string        `json:"school_id" db:"school_id"`
	Subject      string        `json:"subject" db:"subject"`
	Body         string        `json:"body" db:"body"`
	SenderName   string        `json:"sender_name" db:"sender_name"`
	SenderEmail  string        `json:"sender_email" db:"sender_email"`
	Audience     AudienceKind  `json:"audience" db:"audience"`
	AudienceRef  *string       `json:"audience_ref" db:"audience_ref"`
	Status       MessageStatus `json:"status" db:"status"`
	ScheduledAt  *time.Time    `json:"scheduled_at" db:"scheduled_at"`
	WithPush     bool          `json:"with_push" db:"with_push"`
	TotalCount   int           `json:"total_count" db:"total_count"`
	SentCount    int           `json:"sent_count" db:"sent_count"`
	FailedCount  int           `json:"failed_count" db:"failed_count"`
	SkippedCount int           `json:"skipped_count" db:"skipped_count"`
	QueuedAt     *time.Time    `json:"queued_at" db:"queued_at"`
	CompletedAt  *time.Time    `json:"completed_at" db:"completed_at"`
	CreatedAt    time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at" db:"updated_at"`
}

// IsTerminal returns true if the message is in a final state.
func (m *Message) IsTerminal() bool {
	return m.Status == MessageSent || m.Status == MessageFailed
}

// NotifyChannel is the transport a recipient is reached on.
type NotifyChannel string

const (
	ChannelEmail NotifyChannel = "email"
	ChannelPush  NotifyChannel = "push"
)

// RecipientStatus enumerates delivery states for a single recipient.
type RecipientStatus string

const (
	RecipientPending RecipientStatus = "pending"
	RecipientSent    RecipientStatus = "sent"
	RecipientFailed  RecipientStatus = "failed"
	RecipientSkipped RecipientStatus = "skipped"
)

// MessageRecipient is one resolved destination of a message fan-out.
type MessageRecipient struct {
	ID        string          `json:"id" db:"id"`
	MessageID string          `json:"message_id" db:"message_id"`
	Name      string          `json:"name" db:"name"`
	Email     string          `json:"email" db:"email"`
	Channel   NotifyChannel   `json:"channel" db:"channel"`
	Status    RecipientStatus `json:"status" db:"status"`
	Attempts  int             `json:"attempts" db:"attempts"`
	LastError string          `json:"last_error,omitempty" db:"last_error"`
	SentAt    *time.Time      `json:"sent_at" db:"sent_at"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// OutboxStatus enumerates the lifecycle of a single notification in the
// dispatch outbox.
type OutboxStatus string

const (
	OutboxQueued     OutboxStatus = "queued"
	OutboxClaimed    OutboxStatus = "claimed"
	OutboxSending    OutboxStatus = "sending"
	OutboxSent       OutboxStatus = "sent"
	OutboxFailed     OutboxStatus = "failed"
	OutboxSkipped    OutboxStatus = "skipped"
	OutboxDeadLetter OutboxStatus = "dead_letter"
)

// Notification is one queued delivery in the dispatch outbox. MessageID and
// RecipientID are set when the row came from a message fan-out; one-off
// notices (event cancellations, listing enquiries) leave them nil.
type Notification struct {
	ID            string        `json:"id" db:"id"`
	MessageID     *string       `json:"message_id" db:"message_id"`
	RecipientID   *string       `json:"recipient_id" db:"recipient_id"`
	Channel       NotifyChannel `json:"channel" db:"channel"`
	Recipient     string        `json:"recipient" db:"recipient"`
	RecipientName string        `json:"recipient_name" db:"recipient_name"`
	Subject       string        `json:"subject" db:"subject"`
	Body          string        `json:"body" db:"body"`
	Status        OutboxStatus  `json:"status" db:"status"`
	Attempts      int           `json:"attempts" db:"attempts"`
	LastError     string        `json:"last_error,omitempty" db:"last_error"`
	ClaimedBy     string        `json:"claimed_by,omitempty" db:"claimed_by"`
	ClaimedAt     *time.Time    `json:"claimed_at" db:"claimed_at"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" db:"updated_at"`
}
