package notify

import (
	"context"
	"database/sql"
	"log"
	"time"
)

// If a dispatcher crashes mid-delivery, outbox rows stay stuck in 'sending'
// indefinitely. OutboxRecoveryWorker periodically scans for such rows and
// either requeues them (if under the attempt budget) or moves them to
// dead_letter, marking the affected recipients failed so the message can
// still complete.

const (
	// DefaultRecoveryInterval is how often we scan for stuck rows.
	DefaultRecoveryInterval = 2 * time.Minute

	// DefaultStaleAge is how long a row can be claimed before we consider
	// it stuck (dispatcher likely crashed).
	DefaultStaleAge = 5 * time.Minute

	// MaxAttempts is the most times a delivery is tried before it is
	// abandoned.
	MaxAttempts = 5
)

// OutboxRecoveryWorker reclaims stuck outbox rows and enforces the attempt
// budget.
type OutboxRecoveryWorker struct {
	db       *sql.DB
	interval time.Duration
	staleAge time.Duration
}

// NewOutboxRecoveryWorker creates a recovery worker with default settings.
func NewOutboxRecoveryWorker(db *sql.DB) *OutboxRecoveryWorker {
	return &OutboxRecoveryWorker{
		db:       db,
		interval: DefaultRecoveryInterval,
		staleAge: DefaultStaleAge,
	}
}

// NewOutboxRecoveryWorkerWithConfig creates a recovery worker with custom
// timing.
func NewOutboxRecoveryWorkerWithConfig(db *sql.DB, interval, staleAge time.Duration) *OutboxRecoveryWorker {
	if interval <= 0 {
		interval = DefaultRecoveryInterval
	}
	if staleAge <= 0 {
		staleAge = DefaultStaleAge
	}
	return &OutboxRecoveryWorker{
		db:       db,
		interval: interval,
		staleAge: staleAge,
	}
}

// Start begins the recovery loop. It blocks until ctx is cancelled.
func (rw *OutboxRecoveryWorker) Start(ctx context.Context) {
	log.Printf("[OutboxRecovery] Starting (interval=%s, stale_age=%s, max_attempts=%d)",
		rw.interval, rw.staleAge, MaxAttempts)

	ticker := time.NewTicker(rw.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[OutboxRecovery] Stopping")
			return
		case <-ticker.C:
			rw.recoverStuckRows(ctx)
		}
	}
}

// recoverStuckRows performs three passes:
//  1. Requeue rows claimed too long ago that are under the attempt budget.
//  2. Dead-letter stuck rows that have spent their budget.
//  3. Mark recipients of dead-lettered rows failed so their messages can
//     reach a final status.
func (rw *OutboxRecoveryWorker) recoverStuckRows(ctx context.Context) {
	queryCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	res, err := rw.db.ExecContext(queryCtx, `
		UPDATE notification_outbox
		SET status = 'queued',
		    claimed_by = '',
		    claimed_at = NULL,
		    attempts = attempts + 1,
		    updated_at = NOW()
		WHERE status = 'sending'
		  AND claimed_at < NOW() - $1::interval
		  AND attempts < $2
	`, rw.staleAge.String(), MaxAttempts)
	if err != nil {
		log.Printf("[OutboxRecovery] Requeue error: %v", err)
	} else if n, _ := res.RowsAffected(); n > 0 {
		log.Printf("[OutboxRecovery] Requeued %d stuck rows", n)
	}

	res, err = rw.db.ExecContext(queryCtx, `
		UPDATE notification_outbox
		SET status = 'dead_letter', updated_at = NOW()
		WHERE status = 'sending'
		  AND claimed_at < NOW() - $1::interval
		  AND attempts >= $2
	`, rw.staleAge.String(), MaxAttempts)
	if err != nil {
		log.Printf("[OutboxRecovery] Dead-letter error: %v", err)
	} else if n, _ := res.RowsAffected(); n > 0 {
		log.Printf("[OutboxRecovery] Moved %d rows to dead_letter", n)
	}

	res, err = rw.db.ExecContext(queryCtx, `
		UPDATE message_recipients r
		SET status = 'failed', last_error = 'delivery abandoned after repeated worker failures'
		FROM notification_outbox o
		WHERE o.recipient_id = r.id
		  AND o.status = 'dead_letter'
		  AND r.status = 'pending'
	`)
	if err != nil {
		log.Printf("[OutboxRecovery] Recipient fail-out error: %v", err)
	} else if n, _ := res.RowsAffected(); n > 0 {
		log.Printf("[OutboxRecovery] Marked %d recipients failed from dead-lettered rows", n)
	}
}
