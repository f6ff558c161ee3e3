package notify

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/IQTechSolutions/ConectOne-sub011/internal/domain"
	"github.com/IQTechSolutions/ConectOne-sub011/internal/pkg/logger"
)

// Sender delivers one notification on a single channel.
type Sender interface {
	Send(ctx context.Context, d *Delivery) (*SendResult, error)
}

// Delivery is one claimed outbox row ready to hand to a channel sender.
// SenderName and SenderEmail come from the parent message; one-off notices
// leave them empty and the sender falls back to its configured defaults.
type Delivery struct {
	ID            string
	MessageID     string
	RecipientID   string
	Channel       domain.NotifyChannel
	Recipient     string
	RecipientName string
	Subject       string
	Body          string
	SenderName    string
	SenderEmail   string
}

// SendResult contains the outcome of a send attempt. Skipped means the
// provider had nowhere to deliver (say, no registered devices for a push),
// which is not a failure.
type SendResult struct {
	Success    bool
	Skipped    bool
	SkipReason string
	ProviderID string
	Error      error
	SentAt     time.Time
}

// DispatcherPool runs a pool of workers that claim outbox rows and hand them
// to the channel senders. Claims use FOR UPDATE SKIP LOCKED so several pool
// instances can share one outbox without stepping on each other.
type DispatcherPool struct {
	db           *sql.DB
	workerID     string
	numWorkers   int
	batchSize    int
	pollInterval time.Duration

	// Stats
	totalSent    int64
	totalFailed  int64
	totalSkipped int64
	totalRetried int64

	// Control
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	mu      sync.RWMutex

	// Channel senders (injected)
	emailSender Sender
	pushSender  Sender

	limiter *RateLimiter
}

// NewDispatcherPool creates a dispatcher pool.
func NewDispatcherPool(db *sql.DB, numWorkers int) *DispatcherPool {
	if numWorkers <= 0 {
		numWorkers = 4
	}

	return &DispatcherPool{
		db:           db,
		workerID:     fmt.Sprintf("dispatcher-%s", uuid.New().String()[:8]),
		numWorkers:   numWorkers,
		batchSize:    50,
		pollInterval: 500 * time.Millisecond,
	}
}

// SetSenders sets the channel sender implementations.
func (p *DispatcherPool) SetSenders(email, push Sender) {
	p.emailSender = email
	p.pushSender = push
}

// SetRateLimiter connects the pool to the shared per-channel rate limiter.
func (p *DispatcherPool) SetRateLimiter(rl *RateLimiter) {
	p.limiter = rl
}

// SetBatching overrides the claim batch size and poll interval. Call before
// Start.
func (p *DispatcherPool) SetBatching(batchSize int, pollInterval time.Duration) {
	if batchSize > 0 {
		p.batchSize = batchSize
	}
	if pollInterval > 0 {
		p.pollInterval = pollInterval
	}
}

// Start begins the worker pool.
func (p *DispatcherPool) Start() {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.ctx, p.cancel = context.WithCancel(context.Background())
	p.mu.Unlock()

	log.Printf("[DispatcherPool] Starting %d workers (batch_size=%d)", p.numWorkers, p.batchSize)

	p.registerWorker()
	go p.heartbeatLoop()

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop gracefully stops the worker pool.
func (p *DispatcherPool) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.cancel()
	p.mu.Unlock()

	log.Println("[DispatcherPool] Stopping workers...")
	p.wg.Wait()
	p.deregisterWorker()

	log.Printf("[DispatcherPool] Stopped. Total sent: %d, failed: %d, skipped: %d",
		atomic.LoadInt64(&p.totalSent), atomic.LoadInt64(&p.totalFailed), atomic.LoadInt64(&p.totalSkipped))
}

// Stats returns current statistics.
func (p *DispatcherPool) Stats() map[string]int64 {
	return map[string]int64{
		"total_sent":    atomic.LoadInt64(&p.totalSent),
		"total_failed":  atomic.LoadInt64(&p.totalFailed),
		"total_skipped": atomic.LoadInt64(&p.totalSkipped),
		"total_retried": atomic.LoadInt64(&p.totalRetried),
	}
}

// worker is the main claim-and-deliver loop.
func (p *DispatcherPool) worker(workerNum int) {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		default:
			deliveries, err := p.claimBatch()
			if err != nil {
				log.Printf("[DispatcherPool] Worker %d: error claiming batch: %v", workerNum, err)
				time.Sleep(time.Second)
				continue
			}

			if len(deliveries) == 0 {
				time.Sleep(p.pollInterval)
				continue
			}

			for _, d := range deliveries {
				if err := p.processDelivery(d); err != nil {
					log.Printf("[DispatcherPool] Worker %d: error processing %s: %v", workerNum, d.ID, err)
				}
			}
		}
	}
}

// claimBatch claims a batch of queued outbox rows and flips their parent
// messages to sending.
func (p *DispatcherPool) claimBatch() ([]Delivery, error) {
	ctx, cancel := context.WithTimeout(p.ctx, 5*time.Second)
	defer cancel()

	rows, err := p.db.QueryContext(ctx, `
		WITH claimed AS (
			UPDATE notification_outbox
			SET
				status = 'sending',
				claimed_by = $1,
				claimed_at = NOW(),
				updated_at = NOW()
			WHERE id IN (
				SELECT o.id FROM notification_outbox o
				WHERE o.status = 'queued'
				ORDER BY o.created_at ASC
				LIMIT $2
				FOR UPDATE SKIP LOCKED
			)
			RETURNING id, message_id, recipient_id, channel, recipient, recipient_name, subject, body
		)
		SELECT
			c.id,
			COALESCE(c.message_id::text, ''),
			COALESCE(c.recipient_id::text, ''),
			c.channel,
			c.recipient,
			c.recipient_name,
			c.subject,
			c.body,
			COALESCE(m.sender_name, ''),
			COALESCE(m.sender_email, '')
		FROM claimed c
		LEFT JOIN messages m ON m.id = c.message_id
	`, p.workerID, p.batchSize)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deliveries []Delivery
	for rows.Next() {
		var d Delivery
		err := rows.Scan(
			&d.ID, &d.MessageID, &d.RecipientID, &d.Channel, &d.Recipient,
			&d.RecipientName, &d.Subject, &d.Body, &d.SenderName, &d.SenderEmail,
		)
		if err != nil {
			continue
		}
		deliveries = append(deliveries, d)
	}

	if len(deliveries) > 0 {
		p.markMessagesSending(ctx, deliveries)
	}
	return deliveries, nil
}

// markMessagesSending flips the parent messages of a claimed batch from
// queued to sending. Messages already in sending are left alone.
func (p *DispatcherPool) markMessagesSending(ctx context.Context, deliveries []Delivery) {
	seen := make(map[string]bool)
	var ids []string
	for _, d := range deliveries {
		if d.MessageID != "" && !seen[d.MessageID] {
			seen[d.MessageID] = true
			ids = append(ids, d.MessageID)
		}
	}
	if len(ids) == 0 {
		return
	}

	_, err := p.db.ExecContext(ctx, `
		UPDATE messages SET status = 'sending', updated_at = NOW()
		WHERE id = ANY($1::uuid[]) AND status = 'queued'
	`, pq.Array(ids))
	if err != nil {
		log.Printf("[DispatcherPool] Error marking messages sending: %v", err)
	}
}

// processDelivery hands a single claimed row to its channel sender.
func (p *DispatcherPool) processDelivery(d Delivery) error {
	ctx, cancel := context.WithTimeout(p.ctx, 30*time.Second)
	defer cancel()

	if p.limiter != nil {
		for {
			allowed, wait, err := p.limiter.CheckAndIncrement(ctx, d.Channel, 1)
			if err != nil {
				// Daily budget spent. Put the row back untouched so it goes
				// out when the window resets.
				p.releaseClaim(ctx, d.ID)
				return err
			}
			if allowed {
				break
			}
			select {
			case <-ctx.Done():
				p.releaseClaim(ctx, d.ID)
				return ctx.Err()
			case <-time.After(wait):
			}
		}
	}

	var sender Sender
	switch d.Channel {
	case domain.ChannelEmail:
		sender = p.emailSender
	case domain.ChannelPush:
		sender = p.pushSender
	}
	if sender == nil {
		atomic.AddInt64(&p.totalFailed, 1)
		_, err := p.markFailed(ctx, d, "no sender configured for "+string(d.Channel))
		return err
	}

	result, err := sender.Send(ctx, &d)
	if err == nil && result.Skipped {
		atomic.AddInt64(&p.totalSkipped, 1)
		return p.markSkipped(ctx, d, result.SkipReason)
	}
	if err != nil || !result.Success {
		errMsg := "unknown error"
		if err != nil {
			errMsg = err.Error()
		} else if result.Error != nil {
			errMsg = result.Error.Error()
		}
		terminal, mErr := p.markFailed(ctx, d, errMsg)
		if terminal {
			atomic.AddInt64(&p.totalFailed, 1)
		} else {
			atomic.AddInt64(&p.totalRetried, 1)
		}
		return mErr
	}

	atomic.AddInt64(&p.totalSent, 1)
	if err := p.markSent(ctx, d); err != nil {
		log.Printf("[DispatcherPool] Error marking sent: %v", err)
	}
	return nil
}

// releaseClaim puts a claimed row back in the queue without burning an
// attempt.
func (p *DispatcherPool) releaseClaim(ctx context.Context, id string) {
	p.db.ExecContext(ctx, `
		UPDATE notification_outbox
		SET status = 'queued', claimed_by = '', claimed_at = NULL, updated_at = NOW()
		WHERE id = $1
	`, id)
}

// markSent marks an outbox row delivered and rolls the outcome up to the
// recipient row and message counters.
func (p *DispatcherPool) markSent(ctx context.Context, d Delivery) error {
	_, err := p.db.ExecContext(ctx, `
		UPDATE notification_outbox
		SET status = 'sent', attempts = attempts + 1, updated_at = NOW()
		WHERE id = $1
	`, d.ID)
	if err != nil {
		return err
	}

	if d.RecipientID != "" {
		p.db.ExecContext(ctx, `
			UPDATE message_recipients
			SET status = 'sent', attempts = attempts + 1, sent_at = NOW()
			WHERE id = $1
		`, d.RecipientID)
	}
	if d.MessageID != "" {
		p.db.ExecContext(ctx, `
			UPDATE messages SET sent_count = sent_count + 1 WHERE id = $1
		`, d.MessageID)
	}

	log.Printf("[DispatcherPool] Sent %s to %s", d.Channel, logger.RedactEmail(d.Recipient))
	return nil
}

// markFailed requeues the row for another attempt, or marks it permanently
// failed once the attempt budget is spent. Returns whether the failure was
// terminal.
func (p *DispatcherPool) markFailed(ctx context.Context, d Delivery, errMsg string) (bool, error) {
	var attempts int
	_ = p.db.QueryRowContext(ctx, `
		SELECT COALESCE(attempts, 0) FROM notification_outbox WHERE id = $1
	`, d.ID).Scan(&attempts)

	if attempts+1 >= MaxAttempts {
		_, err := p.db.ExecContext(ctx, `
			UPDATE notification_outbox
			SET status = 'failed', last_error = $2, attempts = attempts + 1,
			    claimed_by = '', updated_at = NOW()
			WHERE id = $1
		`, d.ID, errMsg)
		if err != nil {
			return true, err
		}
		if d.RecipientID != "" {
			p.db.ExecContext(ctx, `
				UPDATE message_recipients
				SET status = 'failed', attempts = attempts + 1, last_error = $2
				WHERE id = $1
			`, d.RecipientID, errMsg)
		}
		if d.MessageID != "" {
			p.db.ExecContext(ctx, `
				UPDATE messages SET failed_count = failed_count + 1 WHERE id = $1
			`, d.MessageID)
		}
		log.Printf("[DispatcherPool] Delivery %s failed permanently after %d attempts: %s", d.ID, attempts+1, errMsg)
		return true, nil
	}

	_, err := p.db.ExecContext(ctx, `
		UPDATE notification_outbox
		SET status = 'queued', last_error = $2, attempts = attempts + 1,
		    claimed_by = '', claimed_at = NULL, updated_at = NOW()
		WHERE id = $1
	`, d.ID, errMsg)
	if err != nil {
		return false, err
	}
	if d.RecipientID != "" {
		p.db.ExecContext(ctx, `
			UPDATE message_recipients
			SET attempts = attempts + 1, last_error = $2
			WHERE id = $1
		`, d.RecipientID, errMsg)
	}
	return false, nil
}

// markSkipped marks an outbox row skipped.
func (p *DispatcherPool) markSkipped(ctx context.Context, d Delivery, reason string) error {
	_, err := p.db.ExecContext(ctx, `
		UPDATE notification_outbox
		SET status = 'skipped', last_error = $2, updated_at = NOW()
		WHERE id = $1
	`, d.ID, reason)
	if err != nil {
		return err
	}

	if d.RecipientID != "" {
		p.db.ExecContext(ctx, `
			UPDATE message_recipients
			SET status = 'skipped', last_error = $2
			WHERE id = $1
		`, d.RecipientID, reason)
	}
	if d.MessageID != "" {
		p.db.ExecContext(ctx, `
			UPDATE messages SET skipped_count = skipped_count + 1 WHERE id = $1
		`, d.MessageID)
	}
	return nil
}

// registerWorker registers this pool in the workers table.
func (p *DispatcherPool) registerWorker() {
	p.db.Exec(`
		INSERT INTO notify_workers (id, worker_type, hostname, status, max_concurrent, started_at, last_heartbeat_at)
		VALUES ($1, 'dispatcher', $2, 'running', $3, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			status = 'running',
			started_at = NOW(),
			last_heartbeat_at = NOW()
	`, p.workerID, hostname(), p.numWorkers*p.batchSize)
}

// deregisterWorker marks this pool stopped in the workers table.
func (p *DispatcherPool) deregisterWorker() {
	p.db.Exec(`UPDATE notify_workers SET status = 'stopped' WHERE id = $1`, p.workerID)
}

// heartbeatLoop sends periodic heartbeats.
func (p *DispatcherPool) heartbeatLoop() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			stats := p.Stats()
			statsJSON, _ := json.Marshal(stats)
			p.db.Exec(`
				UPDATE notify_workers
				SET
					last_heartbeat_at = NOW(),
					total_processed = $2,
					total_errors = $3,
					metadata = $4
				WHERE id = $1
			`, p.workerID, stats["total_sent"], stats["total_failed"], string(statsJSON))
		}
	}
}

// newContext creates a fresh context for the pool (exposed for testing).
func (p *DispatcherPool) newContext() (context.Context, context.CancelFunc) {
	return context.WithCancel(context.Background())
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return h
}
