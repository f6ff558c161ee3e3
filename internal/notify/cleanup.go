package notify

import (
	"context"
	"database/sql"
	"log"
	"strings"
	"time"
)

// Without periodic cleanup, delivered outbox rows accumulate indefinitely
// and the claim query slows down as the table bloats. The per-recipient
// rows on message_recipients are the durable delivery record and are kept.
//
// Retention policies:
//   - Outbox rows (sent/skipped):  7 days
//   - Dead-letter outbox rows:     30 days
//   - Stopped worker registrations: 7 days

const (
	// DefaultCleanupInterval is how often the cleanup cycle runs.
	DefaultCleanupInterval = 1 * time.Hour

	// cleanupBatchSize limits each DELETE to avoid table-level locks.
	cleanupBatchSize = 10000
)

// OutboxCleanupWorker periodically removes old rows from the dispatch tables.
type OutboxCleanupWorker struct {
	db       *sql.DB
	interval time.Duration
}

// NewOutboxCleanupWorker creates a cleanup worker with default settings.
func NewOutboxCleanupWorker(db *sql.DB) *OutboxCleanupWorker {
	return &OutboxCleanupWorker{
		db:       db,
		interval: DefaultCleanupInterval,
	}
}

// Start begins the cleanup loop. It blocks until ctx is cancelled.
func (cw *OutboxCleanupWorker) Start(ctx context.Context) {
	log.Printf("[OutboxCleanup] Starting (interval=%s, batch_size=%d)", cw.interval, cleanupBatchSize)

	// Run once immediately on start
	cw.cleanup(ctx)

	ticker := time.NewTicker(cw.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[OutboxCleanup] Stopping")
			return
		case <-ticker.C:
			cw.cleanup(ctx)
		}
	}
}

func (cw *OutboxCleanupWorker) cleanup(ctx context.Context) {
	start := time.Now()

	total := cw.batchDelete(ctx, "notification_outbox", `
		DELETE FROM notification_outbox
		WHERE id IN (
			SELECT id FROM notification_outbox
			WHERE status IN ('sent', 'skipped')
			  AND updated_at < NOW() - INTERVAL '7 days'
			LIMIT $1
		)
	`)
	if total > 0 {
		log.Printf("[OutboxCleanup] Removed %d delivered rows", total)
	}

	total = cw.batchDelete(ctx, "notification_outbox", `
		DELETE FROM notification_outbox
		WHERE id IN (
			SELECT id FROM notification_outbox
			WHERE status = 'dead_letter'
			  AND updated_at < NOW() - INTERVAL '30 days'
			LIMIT $1
		)
	`)
	if total > 0 {
		log.Printf("[OutboxCleanup] Removed %d dead-letter rows older than 30 days", total)
	}

	total = cw.batchDelete(ctx, "notify_workers", `
		DELETE FROM notify_workers
		WHERE id IN (
			SELECT id FROM notify_workers
			WHERE status = 'stopped'
			  AND last_heartbeat_at < NOW() - INTERVAL '7 days'
			LIMIT $1
		)
	`)
	if total > 0 {
		log.Printf("[OutboxCleanup] Removed %d stale worker registrations", total)
	}

	log.Printf("[OutboxCleanup] Cleanup cycle completed in %s", time.Since(start).Round(time.Millisecond))
}

// batchDelete runs the given DELETE statement in a loop, passing
// cleanupBatchSize as $1, until zero rows are affected. Returns the
// cumulative number of deleted rows.
//
// If the target table does not exist, it logs once and returns 0 so the
// worker stays safe when migrations haven't run yet.
func (cw *OutboxCleanupWorker) batchDelete(ctx context.Context, table, query string) int64 {
	var totalDeleted int64

	for {
		if ctx.Err() != nil {
			return totalDeleted
		}

		queryCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
		res, err := cw.db.ExecContext(queryCtx, query, cleanupBatchSize)
		cancel()

		if err != nil {
			if isTableNotExistsError(err) {
				if totalDeleted == 0 {
					log.Printf("[OutboxCleanup] Table %s does not exist, skipping", table)
				}
				return totalDeleted
			}
			log.Printf("[OutboxCleanup] Error deleting from %s: %v", table, err)
			return totalDeleted
		}

		affected, _ := res.RowsAffected()
		if affected == 0 {
			return totalDeleted
		}
		totalDeleted += affected

		// Small pause between batches to reduce load
		time.Sleep(100 * time.Millisecond)
	}
}

func isTableNotExistsError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "relation") && strings.Contains(msg, "does not exist")
}
