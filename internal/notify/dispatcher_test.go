package notify

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/IQTechSolutions/ConectOne-sub011/internal/domain"
)

// =============================================================================
// DISPATCHER POOL TESTS
// =============================================================================

func setupTestDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	return db, mock, func() { db.Close() }
}

type fakeSender struct {
	mu     sync.Mutex
	calls  []Delivery
	result *SendResult
	err    error
}

func (f *fakeSender) Send(ctx context.Context, d *Delivery) (*SendResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, *d)
	return f.result, f.err
}

func (f *fakeSender) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func testDelivery(channel domain.NotifyChannel) Delivery {
	return Delivery{
		ID:            uuid.New().String(),
		MessageID:     uuid.New().String(),
		RecipientID:   uuid.New().String(),
		Channel:       channel,
		Recipient:     "thandi@example.com",
		RecipientName: "Thandi Mokoena",
		Subject:       "Sports Day",
		Body:          "<p>Hello</p>",
	}
}

func TestDispatcherPool_Defaults(t *testing.T) {
	db, _, cleanup := setupTestDB(t)
	defer cleanup()

	pool := NewDispatcherPool(db, 0)

	if pool.numWorkers != 4 {
		t.Errorf("numWorkers = %d, want 4", pool.numWorkers)
	}
	if pool.batchSize != 50 {
		t.Errorf("batchSize = %d, want 50", pool.batchSize)
	}
	if !strings.HasPrefix(pool.workerID, "dispatcher-") {
		t.Errorf("workerID = %s, want dispatcher- prefix", pool.workerID)
	}
}

func TestDispatcherPool_StartStop(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	// Worker registration
	mock.ExpectExec("INSERT INTO notify_workers").
		WillReturnResult(sqlmock.NewResult(1, 1))

	pool := NewDispatcherPool(db, 1)
	pool.Start()

	pool.mu.RLock()
	running := pool.running
	pool.mu.RUnlock()
	if !running {
		t.Error("Pool should be running after Start()")
	}

	// Double start is a no-op
	pool.Start()

	// Worker deregistration
	mock.ExpectExec("UPDATE notify_workers").
		WillReturnResult(sqlmock.NewResult(0, 1))

	pool.Stop()

	pool.mu.RLock()
	running = pool.running
	pool.mu.RUnlock()
	if running {
		t.Error("Pool should not be running after Stop()")
	}
}

func TestDispatcherPool_Stats(t *testing.T) {
	db, _, cleanup := setupTestDB(t)
	defer cleanup()

	pool := NewDispatcherPool(db, 2)

	stats := pool.Stats()
	if stats["total_sent"] != 0 {
		t.Errorf("Initial total_sent = %d, want 0", stats["total_sent"])
	}
	if stats["total_failed"] != 0 {
		t.Errorf("Initial total_failed = %d, want 0", stats["total_failed"])
	}
	if stats["total_retried"] != 0 {
		t.Errorf("Initial total_retried = %d, want 0", stats["total_retried"])
	}
}

// =============================================================================
// CLAIM TESTS
// =============================================================================

func TestDispatcherPool_ClaimBatch(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	pool := NewDispatcherPool(db, 1)
	pool.ctx, pool.cancel = pool.newContext()
	defer pool.cancel()

	messageID := uuid.New().String()

	rows := sqlmock.NewRows([]string{
		"id", "message_id", "recipient_id", "channel", "recipient",
		"recipient_name", "subject", "body", "sender_name", "sender_email",
	}).
		AddRow(uuid.New().String(), messageID, uuid.New().String(), "email",
			"thandi@example.com", "Thandi Mokoena", "Sports Day", "<p>Hi</p>",
			"The Office", "office@greenfield.example").
		AddRow(uuid.New().String(), messageID, uuid.New().String(), "push",
			"sipho@example.com", "Sipho Dlamini", "Sports Day", "Hi",
			"The Office", "office@greenfield.example")

	mock.ExpectQuery("WITH claimed AS").
		WithArgs(pool.workerID, pool.batchSize).
		WillReturnRows(rows)

	// Parent message flips to sending
	mock.ExpectExec("UPDATE messages SET status = 'sending'").
		WillReturnResult(sqlmock.NewResult(0, 1))

	deliveries, err := pool.claimBatch()
	if err != nil {
		t.Fatalf("claimBatch() error: %v", err)
	}
	if len(deliveries) != 2 {
		t.Fatalf("claimBatch() = %d deliveries, want 2", len(deliveries))
	}
	if deliveries[0].Channel != domain.ChannelEmail {
		t.Errorf("Channel = %s, want email", deliveries[0].Channel)
	}
	if deliveries[0].SenderEmail != "office@greenfield.example" {
		t.Errorf("SenderEmail = %s, want office@greenfield.example", deliveries[0].SenderEmail)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unfulfilled expectations: %v", err)
	}
}

func TestDispatcherPool_ClaimBatch_Empty(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	pool := NewDispatcherPool(db, 1)
	pool.ctx, pool.cancel = pool.newContext()
	defer pool.cancel()

	mock.ExpectQuery("WITH claimed AS").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "message_id", "recipient_id", "channel", "recipient",
			"recipient_name", "subject", "body", "sender_name", "sender_email",
		}))

	deliveries, err := pool.claimBatch()
	if err != nil {
		t.Fatalf("claimBatch() error: %v", err)
	}
	if len(deliveries) != 0 {
		t.Errorf("claimBatch() = %d deliveries, want 0", len(deliveries))
	}

	// No message update should fire for an empty claim
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unfulfilled expectations: %v", err)
	}
}

// =============================================================================
// DELIVERY PROCESSING TESTS
// =============================================================================

func TestDispatcherPool_ProcessDelivery_Sent(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	pool := NewDispatcherPool(db, 1)
	pool.ctx, pool.cancel = pool.newContext()
	defer pool.cancel()

	email := &fakeSender{result: &SendResult{Success: true, ProviderID: "ses-1", SentAt: time.Now()}}
	pool.SetSenders(email, nil)

	d := testDelivery(domain.ChannelEmail)

	mock.ExpectExec("UPDATE notification_outbox").
		WithArgs(d.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE message_recipients").
		WithArgs(d.RecipientID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE messages SET sent_count").
		WithArgs(d.MessageID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := pool.processDelivery(d); err != nil {
		t.Fatalf("processDelivery() error: %v", err)
	}

	if email.callCount() != 1 {
		t.Errorf("Sender called %d times, want 1", email.callCount())
	}
	if got := pool.Stats()["total_sent"]; got != 1 {
		t.Errorf("total_sent = %d, want 1", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unfulfilled expectations: %v", err)
	}
}

func TestDispatcherPool_ProcessDelivery_FailureRequeues(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	pool := NewDispatcherPool(db, 1)
	pool.ctx, pool.cancel = pool.newContext()
	defer pool.cancel()

	email := &fakeSender{result: &SendResult{Success: false, Error: errors.New("smtp timeout")}}
	pool.SetSenders(email, nil)

	d := testDelivery(domain.ChannelEmail)

	// First failure: attempts 0, budget left, row goes back to queued
	mock.ExpectQuery("SELECT COALESCE").
		WithArgs(d.ID).
		WillReturnRows(sqlmock.NewRows([]string{"attempts"}).AddRow(0))
	mock.ExpectExec("UPDATE notification_outbox").
		WithArgs(d.ID, "smtp timeout").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE message_recipients").
		WithArgs(d.RecipientID, "smtp timeout").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := pool.processDelivery(d); err != nil {
		t.Fatalf("processDelivery() error: %v", err)
	}

	stats := pool.Stats()
	if stats["total_retried"] != 1 {
		t.Errorf("total_retried = %d, want 1", stats["total_retried"])
	}
	if stats["total_failed"] != 0 {
		t.Errorf("total_failed = %d, want 0", stats["total_failed"])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unfulfilled expectations: %v", err)
	}
}

func TestDispatcherPool_ProcessDelivery_TerminalFailure(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	pool := NewDispatcherPool(db, 1)
	pool.ctx, pool.cancel = pool.newContext()
	defer pool.cancel()

	email := &fakeSender{result: &SendResult{Success: false, Error: errors.New("mailbox full")}}
	pool.SetSenders(email, nil)

	d := testDelivery(domain.ChannelEmail)

	// Attempt budget spent: this failure is permanent
	mock.ExpectQuery("SELECT COALESCE").
		WithArgs(d.ID).
		WillReturnRows(sqlmock.NewRows([]string{"attempts"}).AddRow(MaxAttempts - 1))
	mock.ExpectExec("UPDATE notification_outbox").
		WithArgs(d.ID, "mailbox full").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE message_recipients").
		WithArgs(d.RecipientID, "mailbox full").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE messages SET failed_count").
		WithArgs(d.MessageID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := pool.processDelivery(d); err != nil {
		t.Fatalf("processDelivery() error: %v", err)
	}

	stats := pool.Stats()
	if stats["total_failed"] != 1 {
		t.Errorf("total_failed = %d, want 1", stats["total_failed"])
	}
	if stats["total_retried"] != 0 {
		t.Errorf("total_retried = %d, want 0", stats["total_retried"])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unfulfilled expectations: %v", err)
	}
}

func TestDispatcherPool_ProcessDelivery_Skipped(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	pool := NewDispatcherPool(db, 1)
	pool.ctx, pool.cancel = pool.newContext()
	defer pool.cancel()

	push := &fakeSender{result: &SendResult{Skipped: true, SkipReason: "no registered devices"}}
	pool.SetSenders(nil, push)

	d := testDelivery(domain.ChannelPush)

	mock.ExpectExec("UPDATE notification_outbox").
		WithArgs(d.ID, "no registered devices").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE message_recipients").
		WithArgs(d.RecipientID, "no registered devices").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE messages SET skipped_count").
		WithArgs(d.MessageID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := pool.processDelivery(d); err != nil {
		t.Fatalf("processDelivery() error: %v", err)
	}

	if got := pool.Stats()["total_skipped"]; got != 1 {
		t.Errorf("total_skipped = %d, want 1", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unfulfilled expectations: %v", err)
	}
}

func TestDispatcherPool_ProcessDelivery_NoSender(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	pool := NewDispatcherPool(db, 1)
	pool.ctx, pool.cancel = pool.newContext()
	defer pool.cancel()

	// Email configured, push is not
	pool.SetSenders(&fakeSender{result: &SendResult{Success: true}}, nil)

	d := testDelivery(domain.ChannelPush)

	mock.ExpectQuery("SELECT COALESCE").
		WithArgs(d.ID).
		WillReturnRows(sqlmock.NewRows([]string{"attempts"}).AddRow(MaxAttempts - 1))
	mock.ExpectExec("UPDATE notification_outbox").
		WithArgs(d.ID, "no sender configured for push").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE message_recipients").
		WithArgs(d.RecipientID, "no sender configured for push").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE messages SET failed_count").
		WithArgs(d.MessageID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := pool.processDelivery(d); err != nil {
		t.Fatalf("processDelivery() error: %v", err)
	}

	if got := pool.Stats()["total_failed"]; got != 1 {
		t.Errorf("total_failed = %d, want 1", got)
	}
}

// =============================================================================
// RATE LIMIT INTEGRATION TESTS
// =============================================================================

func TestDispatcherPool_ProcessDelivery_DailyBudgetSpent(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	defer mr.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer redisClient.Close()

	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	pool := NewDispatcherPool(db, 1)
	pool.ctx, pool.cancel = pool.newContext()
	defer pool.cancel()

	email := &fakeSender{result: &SendResult{Success: true}}
	pool.SetSenders(email, nil)
	pool.SetRateLimiter(NewRateLimiter(redisClient))

	// Spend the whole daily email budget up front
	dayKey := "ratelimit:email:day:" + time.Now().Format("2006-01-02")
	redisClient.Set(context.Background(), dayKey, ChannelLimits[domain.ChannelEmail].PerDay, 0)

	d := testDelivery(domain.ChannelEmail)

	// Row is released back to the queue without burning an attempt
	mock.ExpectExec("UPDATE notification_outbox").
		WithArgs(d.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = pool.processDelivery(d)
	if err == nil || !strings.Contains(err.Error(), "daily limit") {
		t.Fatalf("processDelivery() = %v, want daily limit error", err)
	}

	if email.callCount() != 0 {
		t.Errorf("Sender called %d times, want 0", email.callCount())
	}
	if got := pool.Stats()["total_failed"]; got != 0 {
		t.Errorf("total_failed = %d, want 0", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unfulfilled expectations: %v", err)
	}
}
