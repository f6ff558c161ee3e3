package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/IQTechSolutions/ConectOne-sub011/internal/domain"
	"github.com/IQTechSolutions/ConectOne-sub011/internal/service/messaging"
)

// MessagesRepo implements messaging.Repository against PostgreSQL. Fan-out
// writes the per-recipient rows and the outbox rows in one transaction so a
// message is never half queued.
type MessagesRepo struct{ db *sql.DB }

// NewMessagesRepo creates a Postgres-backed messaging repository.
func NewMessagesRepo(db *sql.DB) *MessagesRepo { return &MessagesRepo{db: db} }

const messageColumns = `id, school_id, subject, body, sender_name, sender_email, audience,
	audience_ref, status, scheduled_at, with_push, total_count, sent_count,
	failed_count, skipped_count, queued_at, completed_at, created_at, updated_at`

func scanMessage(row interface{ Scan(...interface{}) error }) (*domain.Message, error) {
	m := &domain.Message{}
	var audienceRef sql.NullString
	var scheduledAt, queuedAt, completedAt sql.NullTime
	err := row.Scan(
		&m.ID, &m.SchoolID, &m.Subject, &m.Body, &m.SenderName, &m.SenderEmail, &m.Audience,
		&audienceRef, &m.Status, &scheduledAt, &m.WithPush, &m.TotalCount, &m.SentCount,
		&m.FailedCount, &m.SkippedCount, &queuedAt, &completedAt, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if audienceRef.Valid {
		m.AudienceRef = &audienceRef.String
	}
	if scheduledAt.Valid {
		m.ScheduledAt = &scheduledAt.Time
	}
	if queuedAt.Valid {
		m.QueuedAt = &queuedAt.Time
	}
	if completedAt.Valid {
		m.CompletedAt = &completedAt.Time
	}
	return m, nil
}

func (r *MessagesRepo) Get(ctx context.Context, schoolID, id string) (*domain.Message, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+messageColumns+" FROM messages WHERE id = $1 AND school_id = $2", id, schoolID)
	m, err := scanMessage(row)
	if err == sql.ErrNoRows {
		return nil, messaging.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get message: %w", err)
	}
	return m, nil
}

func (r *MessagesRepo) List(ctx context.Context, schoolID string, f messaging.ListFilter) ([]domain.Message, int, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	where := "school_id = $1"
	args := []interface{}{schoolID}
	idx := 2
	if f.Status != "" {
		where += fmt.Sprintf(" AND status = $%d", idx)
		args = append(args, f.Status)
		idx++
	}
	if f.Search != "" {
		where += fmt.Sprintf(" AND subject ILIKE '%%' || $%d || '%%'", idx)
		args = append(args, f.Search)
		idx++
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM messages WHERE "+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count messages: %w", err)
	}

	q := fmt.Sprintf("SELECT "+messageColumns+" FROM messages WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		where, idx, idx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var out []domain.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan message: %w", err)
		}
		out = append(out, *m)
	}
	return out, total, rows.Err()
}

func (r *MessagesRepo) Create(ctx context.Context, m *domain.Message, custom []messaging.Contact) (string, error) {
	id := uuid.New().String()

	var customJSON interface{}
	if len(custom) > 0 {
		b, err := json.Marshal(custom)
		if err != nil {
			return "", fmt.Errorf("encode custom recipients: %w", err)
		}
		customJSON = string(b)
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO messages
			(id, school_id, subject, body, sender_name, sender_email, audience,
			 audience_ref, status, scheduled_at, with_push, custom_recipients,
			 total_count, sent_count, failed_count, skipped_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 0, 0, 0, 0, NOW(), NOW())
	`, id, m.SchoolID, m.Subject, m.Body, m.SenderName, m.SenderEmail, m.Audience,
		m.AudienceRef, m.Status, m.ScheduledAt, m.WithPush, customJSON)
	if err != nil {
		return "", fmt.Errorf("create message: %w", err)
	}
	return id, nil
}

func (r *MessagesRepo) Update(ctx context.Context, schoolID, id string, u messaging.UpdateFields) error {
	sets := []string{}
	args := []interface{}{}
	idx := 1
	add := func(col string, val interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, idx))
		args = append(args, val)
		idx++
	}

	if u.Subject != nil {
		add("subject", *u.Subject)
	}
	if u.Body != nil {
		add("body", *u.Body)
	}
	if u.SenderName != nil {
		add("sender_name", *u.SenderName)
	}
	if u.SenderEmail != nil {
		add("sender_email", *u.SenderEmail)
	}
	if u.Audience != nil {
		add("audience", *u.Audience)
	}
	if u.AudienceRef != nil {
		add("audience_ref", *u.AudienceRef)
	}
	if u.WithPush != nil {
		add("with_push", *u.WithPush)
	}
	if u.ScheduledAt != nil {
		if u.ScheduledAt.IsZero() {
			sets = append(sets, "scheduled_at = NULL")
		} else {
			add("scheduled_at", *u.ScheduledAt)
		}
	}
	if u.Status != nil {
		add("status", *u.Status)
	}
	if u.CustomRecipients != nil {
		b, err := json.Marshal(u.CustomRecipients)
		if err != nil {
			return fmt.Errorf("encode custom recipients: %w", err)
		}
		add("custom_recipients", string(b))
	}
	if len(sets) == 0 {
		return nil
	}
	sets = append(sets, "updated_at = NOW()")

	q := fmt.Sprintf("UPDATE messages SET %s WHERE id = $%d AND school_id = $%d",
		joinComma(sets), idx, idx+1)
	args = append(args, id, schoolID)

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("update message: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return messaging.ErrNotFound
	}
	return nil
}

func (r *MessagesRepo) Delete(ctx context.Context, schoolID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM messages WHERE id = $1 AND school_id = $2`, id, schoolID)
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return messaging.ErrNotFound
	}
	return nil
}

// ResolveParents returns one contact per parent with an enrolled learner at
// the school. A parent with children in several classes still appears once.
func (r *MessagesRepo) ResolveParents(ctx context.Context, schoolID string) ([]messaging.Contact, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT p.first_name || ' ' || p.last_name AS name, p.email
		FROM parents p
		JOIN guardianships g ON g.parent_id = p.id
		JOIN learners l ON l.id = g.learner_id
		WHERE l.school_id = $1 AND l.status = 'enrolled'
		ORDER BY name
	`, schoolID)
	if err != nil {
		return nil, fmt.Errorf("resolve parents: %w", err)
	}
	defer rows.Close()
	return scanContacts(rows)
}

func (r *MessagesRepo) ResolveTeachers(ctx context.Context, schoolID string) ([]messaging.Contact, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT first_name || ' ' || last_name, email
		FROM teachers
		WHERE school_id = $1
		ORDER BY last_name, first_name
	`, schoolID)
	if err != nil {
		return nil, fmt.Errorf("resolve teachers: %w", err)
	}
	defer rows.Close()
	return scanContacts(rows)
}

func (r *MessagesRepo) ResolveGroupGuardians(ctx context.Context, schoolID, groupID string) ([]messaging.Contact, error) {
	var exists bool
	if err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM activity_groups WHERE id = $1 AND school_id = $2)`,
		groupID, schoolID,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check group: %w", err)
	}
	if !exists {
		return nil, messaging.ErrGroupNotFound
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT p.first_name || ' ' || p.last_name AS name, p.email
		FROM activity_memberships m
		JOIN guardianships g ON g.learner_id = m.learner_id
		JOIN parents p ON p.id = g.parent_id
		WHERE m.activity_group_id = $1
		ORDER BY name
	`, groupID)
	if err != nil {
		return nil, fmt.Errorf("resolve group guardians: %w", err)
	}
	defer rows.Close()
	return scanContacts(rows)
}

func scanContacts(rows *sql.Rows) ([]messaging.Contact, error) {
	var out []messaging.Contact
	for rows.Next() {
		var c messaging.Contact
		if err := rows.Scan(&c.Name, &c.Email); err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *MessagesRepo) CustomRecipients(ctx context.Context, id string) ([]messaging.Contact, error) {
	var raw sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT custom_recipients::text FROM messages WHERE id = $1`, id,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, messaging.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load custom recipients: %w", err)
	}

	var out []messaging.Contact
	if raw.Valid && raw.String != "" && raw.String != "[]" && raw.String != "null" {
		if err := json.Unmarshal([]byte(raw.String), &out); err != nil {
			return nil, fmt.Errorf("decode custom recipients: %w", err)
		}
	}
	return out, nil
}

func (r *MessagesRepo) SchoolName(ctx context.Context, schoolID string) (string, error) {
	var name string
	err := r.db.QueryRowContext(ctx,
		`SELECT name FROM schools WHERE id = $1`, schoolID,
	).Scan(&name)
	if err == sql.ErrNoRows {
		return "", messaging.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("school name: %w", err)
	}
	return name, nil
}

func (r *MessagesRepo) FanOut(ctx context.Context, messageID string, recipients []domain.MessageRecipient, notes []domain.Notification) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin fan-out: %w", err)
	}
	defer tx.Rollback()

	for _, rec := range recipients {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO message_recipients
				(id, message_id, name, email, channel, status, attempts, last_error, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, 0, '', NOW())
		`, rec.ID, rec.MessageID, rec.Name, rec.Email, rec.Channel, rec.Status); err != nil {
			return fmt.Errorf("insert recipient: %w", err)
		}
	}
	for _, n := range notes {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO notification_outbox
				(id, message_id, recipient_id, channel, recipient, recipient_name,
				 subject, body, status, attempts, last_error, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 0, '', NOW(), NOW())
		`, n.ID, n.MessageID, n.RecipientID, n.Channel, n.Recipient, n.RecipientName,
			n.Subject, n.Body, n.Status); err != nil {
			return fmt.Errorf("insert outbox row: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE messages
		SET status = 'queued', total_count = $2, queued_at = NOW(), updated_at = NOW()
		WHERE id = $1
	`, messageID, len(recipients))
	if err != nil {
		return fmt.Errorf("mark message queued: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return messaging.ErrNotFound
	}
	return tx.Commit()
}

func (r *MessagesRepo) Recipients(ctx context.Context, messageID string, f messaging.RecipientFilter) ([]domain.MessageRecipient, int, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	where := "message_id = $1"
	args := []interface{}{messageID}
	idx := 2
	if f.Status != "" {
		where += fmt.Sprintf(" AND status = $%d", idx)
		args = append(args, f.Status)
		idx++
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM message_recipients WHERE "+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count recipients: %w", err)
	}

	q := fmt.Sprintf(`
		SELECT id, message_id, name, email, channel, status, attempts, last_error, sent_at, created_at
		FROM message_recipients
		WHERE %s
		ORDER BY name, channel
		LIMIT $%d OFFSET $%d`, where, idx, idx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list recipients: %w", err)
	}
	defer rows.Close()

	var out []domain.MessageRecipient
	for rows.Next() {
		var rec domain.MessageRecipient
		var sentAt sql.NullTime
		if err := rows.Scan(&rec.ID, &rec.MessageID, &rec.Name, &rec.Email, &rec.Channel,
			&rec.Status, &rec.Attempts, &rec.LastError, &sentAt, &rec.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan recipient: %w", err)
		}
		if sentAt.Valid {
			rec.SentAt = &sentAt.Time
		}
		out = append(out, rec)
	}
	return out, total, rows.Err()
}

// RequeueFailed puts failed recipients and their outbox rows back in the
// queue with a fresh attempt budget. The message returns to queued only when
// something was actually requeued.
func (r *MessagesRepo) RequeueFailed(ctx context.Context, messageID string) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin requeue: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE message_recipients
		SET status = 'pending', attempts = 0, last_error = ''
		WHERE message_id = $1 AND status = 'failed'
	`, messageID)
	if err != nil {
		return 0, fmt.Errorf("requeue recipients: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return 0, tx.Commit()
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE notification_outbox
		SET status = 'queued', attempts = 0, last_error = '',
		    claimed_by = '', claimed_at = NULL, updated_at = NOW()
		WHERE message_id = $1 AND status IN ('failed', 'dead_letter')
	`, messageID); err != nil {
		return 0, fmt.Errorf("requeue outbox rows: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE messages
		SET status = 'queued', failed_count = 0, completed_at = NULL, updated_at = NOW()
		WHERE id = $1
	`, messageID); err != nil {
		return 0, fmt.Errorf("mark message queued: %w", err)
	}
	return int(n), tx.Commit()
}

func (r *MessagesRepo) RequeueAll(ctx context.Context, messageID string) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin requeue: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE message_recipients
		SET status = 'pending', attempts = 0, last_error = '', sent_at = NULL
		WHERE message_id = $1
	`, messageID)
	if err != nil {
		return 0, fmt.Errorf("requeue recipients: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return 0, tx.Commit()
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE notification_outbox
		SET status = 'queued', attempts = 0, last_error = '',
		    claimed_by = '', claimed_at = NULL, updated_at = NOW()
		WHERE message_id = $1
	`, messageID); err != nil {
		return 0, fmt.Errorf("requeue outbox rows: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE messages
		SET status = 'queued', sent_count = 0, failed_count = 0, skipped_count = 0,
		    completed_at = NULL, updated_at = NOW()
		WHERE id = $1
	`, messageID); err != nil {
		return 0, fmt.Errorf("mark message queued: %w", err)
	}
	return int(n), tx.Commit()
}
