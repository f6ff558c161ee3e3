package notify

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/IQTechSolutions/ConectOne-sub011/internal/service/messaging"
)

// =============================================================================
// MESSAGE SCHEDULER TESTS
// =============================================================================

type fakeMessageSender struct {
	mu     sync.Mutex
	calls  []string
	report *messaging.SendReport
	err    error
}

func (f *fakeMessageSender) Send(ctx context.Context, schoolID, id string) (*messaging.SendReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, id)
	if f.err != nil {
		return nil, f.err
	}
	if f.report != nil {
		return f.report, nil
	}
	return &messaging.SendReport{MessageID: id, Queued: 1}, nil
}

func TestMessageScheduler_New(t *testing.T) {
	db, _, cleanup := setupTestDB(t)
	defer cleanup()

	scheduler := NewMessageScheduler(db, &fakeMessageSender{})

	if scheduler == nil {
		t.Fatal("NewMessageScheduler() returned nil")
	}
	if scheduler.db != db {
		t.Error("Scheduler db not set correctly")
	}
	if scheduler.pollInterval != DefaultSchedulerPollInterval {
		t.Errorf("pollInterval = %v, want %v", scheduler.pollInterval, DefaultSchedulerPollInterval)
	}
	if !strings.HasPrefix(scheduler.workerID, "scheduler-") {
		t.Errorf("workerID = %s, want scheduler- prefix", scheduler.workerID)
	}
}

func TestMessageScheduler_StartStop(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	// Worker registration
	mock.ExpectExec("INSERT INTO notify_workers").
		WillReturnResult(sqlmock.NewResult(1, 1))

	scheduler := NewMessageScheduler(db, &fakeMessageSender{})

	err := scheduler.Start()
	if err != nil {
		t.Errorf("Start() error: %v", err)
	}

	scheduler.mu.RLock()
	running := scheduler.running
	scheduler.mu.RUnlock()
	if !running {
		t.Error("Scheduler should be running after Start()")
	}

	// Double start should error
	err = scheduler.Start()
	if err == nil {
		t.Error("Double Start() should return error")
	}

	// Worker deregistration
	mock.ExpectExec("UPDATE notify_workers").
		WillReturnResult(sqlmock.NewResult(0, 1))

	scheduler.Stop()

	scheduler.mu.RLock()
	running = scheduler.running
	scheduler.mu.RUnlock()
	if running {
		t.Error("Scheduler should not be running after Stop()")
	}
}

// =============================================================================
// PROMOTION TESTS
// =============================================================================

func TestMessageScheduler_PromoteMessage(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	defer mr.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer redisClient.Close()

	db, _, cleanup := setupTestDB(t)
	defer cleanup()

	sender := &fakeMessageSender{report: &messaging.SendReport{Queued: 5}}
	scheduler := NewMessageScheduler(db, sender)
	scheduler.SetRedisClient(redisClient)
	scheduler.ctx, scheduler.cancel = scheduler.newContext()
	defer scheduler.cancel()

	messageID := uuid.New().String()
	scheduler.promoteMessage(scheduler.ctx, messageID, "school-1", "Sports Day")

	if len(sender.calls) != 1 || sender.calls[0] != messageID {
		t.Errorf("Sender calls = %v, want [%s]", sender.calls, messageID)
	}
	if got := atomic.LoadInt64(&scheduler.messagesPromoted); got != 1 {
		t.Errorf("messagesPromoted = %d, want 1", got)
	}
}

func TestMessageScheduler_PromoteNoRecipients(t *testing.T) {
	mr, _ := miniredis.Run()
	defer mr.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer redisClient.Close()

	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	sender := &fakeMessageSender{err: messaging.ErrNoRecipients}
	scheduler := NewMessageScheduler(db, sender)
	scheduler.SetRedisClient(redisClient)
	scheduler.ctx, scheduler.cancel = scheduler.newContext()
	defer scheduler.cancel()

	messageID := uuid.New().String()

	// An empty audience settles the message so it stops coming up
	mock.ExpectExec("UPDATE messages").
		WithArgs(messageID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	scheduler.promoteMessage(scheduler.ctx, messageID, "school-1", "Sports Day")

	if got := atomic.LoadInt64(&scheduler.messagesPromoted); got != 0 {
		t.Errorf("messagesPromoted = %d, want 0", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unfulfilled expectations: %v", err)
	}
}

func TestMessageScheduler_PromoteAlreadySent(t *testing.T) {
	// Another instance can win the race between the poll and the lock.
	// That is routine, not an error.
	mr, _ := miniredis.Run()
	defer mr.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer redisClient.Close()

	db, _, cleanup := setupTestDB(t)
	defer cleanup()

	sender := &fakeMessageSender{err: messaging.ErrNotSendable}
	scheduler := NewMessageScheduler(db, sender)
	scheduler.SetRedisClient(redisClient)
	scheduler.ctx, scheduler.cancel = scheduler.newContext()
	defer scheduler.cancel()

	scheduler.promoteMessage(scheduler.ctx, uuid.New().String(), "school-1", "Sports Day")

	if got := atomic.LoadInt64(&scheduler.errors); got != 0 {
		t.Errorf("errors = %d, want 0", got)
	}
	if got := atomic.LoadInt64(&scheduler.messagesPromoted); got != 0 {
		t.Errorf("messagesPromoted = %d, want 0", got)
	}
}

func TestMessageScheduler_ProcessDueMessages(t *testing.T) {
	mr, _ := miniredis.Run()
	defer mr.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer redisClient.Close()

	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	sender := &fakeMessageSender{}
	scheduler := NewMessageScheduler(db, sender)
	scheduler.SetRedisClient(redisClient)
	scheduler.ctx, scheduler.cancel = scheduler.newContext()
	defer scheduler.cancel()

	first := uuid.New().String()
	second := uuid.New().String()

	mock.ExpectQuery("SELECT id, school_id, subject").
		WithArgs(schedulerBatchLimit).
		WillReturnRows(sqlmock.NewRows([]string{"id", "school_id", "subject"}).
			AddRow(first, "school-1", "Sports Day").
			AddRow(second, "school-1", "Newsletter"))

	scheduler.processDueMessages()

	if len(sender.calls) != 2 {
		t.Fatalf("Sender called %d times, want 2", len(sender.calls))
	}
	if sender.calls[0] != first || sender.calls[1] != second {
		t.Errorf("Sender calls = %v, want [%s %s]", sender.calls, first, second)
	}
	if got := atomic.LoadInt64(&scheduler.messagesPromoted); got != 2 {
		t.Errorf("messagesPromoted = %d, want 2", got)
	}
}

// =============================================================================
// COMPLETION DETECTION TESTS
// =============================================================================

func TestMessageScheduler_SettleCompleted(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	scheduler := NewMessageScheduler(db, &fakeMessageSender{})
	scheduler.ctx, scheduler.cancel = scheduler.newContext()
	defer scheduler.cancel()

	messageID := uuid.New().String()

	// Every recipient accounted for: 3 sent, 1 failed
	mock.ExpectQuery("SELECT m.id").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "sent", "failed", "skipped", "pending", "total",
		}).AddRow(messageID, 3, 1, 0, 0, 4))

	mock.ExpectExec("UPDATE messages").
		WithArgs(messageID, "sent", 3, 1, 0).
		WillReturnResult(sqlmock.NewResult(0, 1))

	scheduler.settleCompletedMessages()

	if got := atomic.LoadInt64(&scheduler.messagesSettled); got != 1 {
		t.Errorf("messagesSettled = %d, want 1", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unfulfilled expectations: %v", err)
	}
}

func TestMessageScheduler_SettleAllFailed(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	scheduler := NewMessageScheduler(db, &fakeMessageSender{})
	scheduler.ctx, scheduler.cancel = scheduler.newContext()
	defer scheduler.cancel()

	messageID := uuid.New().String()

	mock.ExpectQuery("SELECT m.id").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "sent", "failed", "skipped", "pending", "total",
		}).AddRow(messageID, 0, 4, 0, 0, 4))

	mock.ExpectExec("UPDATE messages").
		WithArgs(messageID, "failed", 0, 4, 0).
		WillReturnResult(sqlmock.NewResult(0, 1))

	scheduler.settleCompletedMessages()

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unfulfilled expectations: %v", err)
	}
}
