package notify

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/IQTechSolutions/ConectOne-sub011/internal/pkg/distlock"
	"github.com/IQTechSolutions/ConectOne-sub011/internal/service/messaging"
)

const (
	// DefaultSchedulerPollInterval is how often to check for due messages.
	DefaultSchedulerPollInterval = 30 * time.Second

	// schedulerBatchLimit caps how many due messages one poll picks up.
	schedulerBatchLimit = 10
)

// MessageSender fans out a message. Satisfied by messaging.Service, so a
// scheduled send goes through exactly the same path as a manual one:
// audience resolution, rendering and fan-out all happen when the clock
// fires, not when the message was composed.
type MessageSender interface {
	Send(ctx context.Context, schoolID, id string) (*messaging.SendReport, error)
}

// MessageScheduler polls for scheduled messages whose time has arrived and
// hands them to the sender. It also watches in-flight messages and settles
// their final status once every recipient is accounted for.
type MessageScheduler struct {
	db          *sql.DB
	redisClient *redis.Client
	sender      MessageSender

	workerID     string
	pollInterval time.Duration

	// Stats
	messagesPromoted int64
	messagesSettled  int64
	errors           int64

	// Control
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	mu      sync.RWMutex
}

// NewMessageScheduler creates a message scheduler.
func NewMessageScheduler(db *sql.DB, sender MessageSender) *MessageScheduler {
	return &MessageScheduler{
		db:           db,
		sender:       sender,
		workerID:     fmt.Sprintf("scheduler-%s-%d", hostname(), time.Now().UnixNano()%10000),
		pollInterval: DefaultSchedulerPollInterval,
	}
}

// SetRedisClient sets the Redis client for distributed locking. If set, the
// scheduler uses Redis-based locks; otherwise it falls back to PostgreSQL
// advisory locks.
func (s *MessageScheduler) SetRedisClient(client *redis.Client) {
	s.redisClient = client
}

// Start begins the scheduler polling loop.
func (s *MessageScheduler) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already running")
	}
	s.running = true
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.mu.Unlock()

	log.Printf("[MessageScheduler] Starting with poll interval: %v", s.pollInterval)

	s.registerWorker()

	s.wg.Add(1)
	go s.heartbeatLoop()

	s.wg.Add(1)
	go s.schedulerLoop()

	return nil
}

// Stop gracefully stops the scheduler.
func (s *MessageScheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	log.Printf("[MessageScheduler] Stopping...")
	s.cancel()
	s.wg.Wait()
	s.deregisterWorker()
	log.Printf("[MessageScheduler] Stopped. Promoted: %d messages, settled: %d",
		atomic.LoadInt64(&s.messagesPromoted), atomic.LoadInt64(&s.messagesSettled))
}

func (s *MessageScheduler) schedulerLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.processDueMessages()
			s.settleCompletedMessages()
		}
	}
}

// processDueMessages finds scheduled messages whose time has arrived and
// sends them.
func (s *MessageScheduler) processDueMessages() {
	ctx, cancel := context.WithTimeout(s.ctx, 60*time.Second)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, school_id, subject
		FROM messages
		WHERE status = 'scheduled'
		  AND scheduled_at <= NOW()
		ORDER BY scheduled_at ASC
		LIMIT $1
	`, schedulerBatchLimit)
	if err != nil {
		log.Printf("[MessageScheduler] Error fetching due messages: %v", err)
		atomic.AddInt64(&s.errors, 1)
		return
	}
	defer rows.Close()

	type dueMessage struct {
		id       string
		schoolID string
		subject  string
	}
	var due []dueMessage
	for rows.Next() {
		var m dueMessage
		if err := rows.Scan(&m.id, &m.schoolID, &m.subject); err != nil {
			log.Printf("[MessageScheduler] Error scanning message: %v", err)
			continue
		}
		due = append(due, m)
	}

	for _, m := range due {
		s.promoteMessage(ctx, m.id, m.schoolID, m.subject)
	}
}

// promoteMessage sends one due message under a distributed lock so only one
// scheduler instance fans it out.
func (s *MessageScheduler) promoteMessage(ctx context.Context, id, schoolID, subject string) {
	lock := distlock.NewLock(s.redisClient, s.db, fmt.Sprintf("message:%s", id), 10*time.Minute)
	acquired, err := lock.Acquire(ctx)
	if err != nil {
		log.Printf("[MessageScheduler] Error acquiring lock for message %s: %v", id, err)
		return
	}
	if !acquired {
		log.Printf("[MessageScheduler] Message %s already being processed by another worker", id)
		return
	}
	defer lock.Release(ctx)

	log.Printf("[MessageScheduler] Promoting scheduled message: %s (%s)", subject, id)

	report, err := s.sender.Send(ctx, schoolID, id)
	switch {
	case err == messaging.ErrNotSendable:
		// Another instance got here between the poll and the lock.
		log.Printf("[MessageScheduler] Message %s was already sent", id)
	case err == messaging.ErrNoRecipients:
		// The audience emptied out between scheduling and now. Settle the
		// message so it stops coming up on every poll.
		log.Printf("[MessageScheduler] Message %s has no recipients, marking failed", id)
		s.db.ExecContext(ctx, `
			UPDATE messages
			SET status = 'failed', completed_at = NOW(), updated_at = NOW()
			WHERE id = $1 AND status = 'scheduled'
		`, id)
	case err != nil:
		log.Printf("[MessageScheduler] Error sending message %s: %v", id, err)
		atomic.AddInt64(&s.errors, 1)
	default:
		atomic.AddInt64(&s.messagesPromoted, 1)
		log.Printf("[MessageScheduler] Message %s queued to %d recipients", id, report.Queued)
	}
}

// settleCompletedMessages finds in-flight messages where every recipient has
// reached a final state and writes the message's final status and counts.
func (s *MessageScheduler) settleCompletedMessages() {
	ctx, cancel := context.WithTimeout(s.ctx, 30*time.Second)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT m.id,
			   COALESCE(SUM(CASE WHEN r.status = 'sent' THEN 1 ELSE 0 END), 0) as sent,
			   COALESCE(SUM(CASE WHEN r.status = 'failed' THEN 1 ELSE 0 END), 0) as failed,
			   COALESCE(SUM(CASE WHEN r.status = 'skipped' THEN 1 ELSE 0 END), 0) as skipped,
			   COALESCE(SUM(CASE WHEN r.status = 'pending' THEN 1 ELSE 0 END), 0) as pending,
			   COUNT(r.id) as total
		FROM messages m
		LEFT JOIN message_recipients r ON r.message_id = m.id
		WHERE m.status IN ('queued', 'sending')
		GROUP BY m.id
		HAVING COALESCE(SUM(CASE WHEN r.status = 'pending' THEN 1 ELSE 0 END), 0) = 0
		   AND COUNT(r.id) > 0
	`)
	if err != nil {
		return
	}
	defer rows.Close()

	for rows.Next() {
		var messageID string
		var sent, failed, skipped, pending, total int
		if err := rows.Scan(&messageID, &sent, &failed, &skipped, &pending, &total); err != nil {
			continue
		}

		finalStatus := "sent"
		if failed == total {
			finalStatus = "failed"
		}

		_, err := s.db.ExecContext(ctx, `
			UPDATE messages
			SET status = $2,
				sent_count = $3,
				failed_count = $4,
				skipped_count = $5,
				completed_at = NOW(),
				updated_at = NOW()
			WHERE id = $1
		`, messageID, finalStatus, sent, failed, skipped)
		if err == nil {
			atomic.AddInt64(&s.messagesSettled, 1)
			log.Printf("[MessageScheduler] Message %s settled as %s (sent: %d, failed: %d, skipped: %d)",
				messageID, finalStatus, sent, failed, skipped)
		}
	}
}

// registerWorker registers this scheduler in the workers table.
func (s *MessageScheduler) registerWorker() {
	_, err := s.db.Exec(`
		INSERT INTO notify_workers (id, worker_type, hostname, status, started_at, last_heartbeat_at)
		VALUES ($1, 'scheduler', $2, 'running', NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET status = 'running', last_heartbeat_at = NOW()
	`, s.workerID, hostname())
	if err != nil {
		log.Printf("[MessageScheduler] Warning: failed to register worker: %v", err)
	}
}

// deregisterWorker marks this scheduler stopped in the workers table.
func (s *MessageScheduler) deregisterWorker() {
	_, err := s.db.Exec(`
		UPDATE notify_workers SET status = 'stopped' WHERE id = $1
	`, s.workerID)
	if err != nil {
		log.Printf("[MessageScheduler] Warning: failed to deregister worker: %v", err)
	}
}

// heartbeatLoop sends periodic heartbeats.
func (s *MessageScheduler) heartbeatLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.db.Exec(`
				UPDATE notify_workers
				SET last_heartbeat_at = NOW(),
				    metadata = $2
				WHERE id = $1
			`, s.workerID, fmt.Sprintf(`{"messages_promoted": %d, "messages_settled": %d, "errors": %d}`,
				atomic.LoadInt64(&s.messagesPromoted),
				atomic.LoadInt64(&s.messagesSettled),
				atomic.LoadInt64(&s.errors)))
		}
	}
}

// newContext creates a fresh context for the scheduler (exposed for testing).
func (s *MessageScheduler) newContext() (context.Context, context.CancelFunc) {
	return context.WithCancel(context.Background())
}
