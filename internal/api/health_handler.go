package api

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/IQTechSolutions/ConectOne-sub011/internal/media"
	"github.com/IQTechSolutions/ConectOne-sub011/internal/notify"
	"github.com/IQTechSolutions/ConectOne-sub011/internal/pkg/httputil"
)

// HealthStatus represents the overall health of the system.
type HealthStatus struct {
	Status  string                    `json:"status"` // "healthy", "degraded", "unhealthy"
	Version string                    `json:"version"`
	Uptime  string                    `json:"uptime"`
	Checks  map[string]ComponentCheck `json:"checks"`
}

// ComponentCheck represents the health of a single component.
type ComponentCheck struct {
	Status  string `json:"status"` // "up", "down", "degraded"
	Latency string `json:"latency,omitempty"`
	Message string `json:"message,omitempty"`
}

// HealthChecker provides comprehensive health check functionality for the
// platform's dependencies (Postgres, Redis, blob storage, SES, dispatcher).
type HealthChecker struct {
	db        *sql.DB
	redis     *redis.Client
	store     media.BlobStore
	email     *notify.SESSender
	startTime time.Time
}

// NewHealthChecker creates a new HealthChecker.
// Any dependency can be nil; the check will report "not configured" for nil deps.
func NewHealthChecker(db *sql.DB, redisClient *redis.Client, store media.BlobStore, email *notify.SESSender) *HealthChecker {
	return &HealthChecker{
		db:        db,
		redis:     redisClient,
		store:     store,
		email:     email,
		startTime: time.Now(),
	}
}

const healthVersion = "1.0.0"

// HandleHealth returns the comprehensive health status of all components.
// Overall status is "healthy" if all checks pass, "degraded" if any are
// degraded or non-critical ones are down, and "unhealthy" if the database
// is down.
//
//	GET /health
func (hc *HealthChecker) HandleHealth(w http.ResponseWriter, r *http.Request) {
	checks := hc.runAllChecks(r.Context())

	status := HealthStatus{
		Status:  determineOverallStatus(checks),
		Version: healthVersion,
		Uptime:  formatUptime(time.Since(hc.startTime)),
		Checks:  checks,
	}

	// Always return 200 for the general health endpoint; the status field
	// conveys health. /health/ready returns 503 for probes that need it.
	httputil.JSON(w, http.StatusOK, status)
}

// HandleLiveness is a simple liveness probe that returns 200 whenever the
// server process is running. Suitable for ECS liveness probes.
//
//	GET /health/live
func (hc *HealthChecker) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, map[string]interface{}{
		"status": "alive",
		"uptime": formatUptime(time.Since(hc.startTime)),
	})
}

// HandleReadiness checks all critical dependencies and returns 200 only when
// the service is ready to accept traffic. Suitable for readiness probes.
//
//	GET /health/ready
func (hc *HealthChecker) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	checks := hc.runAllChecks(r.Context())

	overall := determineOverallStatus(checks)

	ready := overall != "unhealthy"
	httpStatus := http.StatusOK
	if !ready {
		httpStatus = http.StatusServiceUnavailable
	}

	httputil.JSON(w, httpStatus, map[string]interface{}{
		"ready":  ready,
		"status": overall,
		"checks": checks,
	})
}

func (hc *HealthChecker) runAllChecks(ctx context.Context) map[string]ComponentCheck {
	checks := make(map[string]ComponentCheck, 5)

	// Run checks concurrently for minimal total latency.
	type result struct {
		name  string
		check ComponentCheck
	}
	ch := make(chan result, 5)

	go func() { ch <- result{"database", hc.checkDatabase(ctx)} }()
	go func() { ch <- result{"redis", hc.checkRedis(ctx)} }()
	go func() { ch <- result{"storage", hc.checkStorage(ctx)} }()
	go func() { ch <- result{"email", hc.checkEmail(ctx)} }()
	go func() { ch <- result{"dispatcher", hc.checkDispatcher(ctx)} }()

	for i := 0; i < 5; i++ {
		r := <-ch
		checks[r.name] = r.check
	}

	return checks
}

// checkDatabase pings PostgreSQL with a 3-second timeout.
func (hc *HealthChecker) checkDatabase(ctx context.Context) ComponentCheck {
	if hc.db == nil {
		return ComponentCheck{Status: "down", Message: "not configured"}
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	start := time.Now()
	err := hc.db.PingContext(pingCtx)
	latency := time.Since(start)

	if err != nil {
		return ComponentCheck{
			Status:  "down",
			Latency: latency.String(),
			Message: fmt.Sprintf("ping failed: %v", err),
		}
	}

	status := "up"
	msg := "connected"
	if latency > 1*time.Second {
		status = "degraded"
		msg = fmt.Sprintf("slow response (%s)", latency)
	}

	return ComponentCheck{
		Status:  status,
		Latency: latency.String(),
		Message: msg,
	}
}

// checkRedis pings Redis with a 2-second timeout. Redis is optional, so a
// missing client reports "not configured" rather than down.
func (hc *HealthChecker) checkRedis(ctx context.Context) ComponentCheck {
	if hc.redis == nil {
		return ComponentCheck{Status: "down", Message: "not configured"}
	}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	err := hc.redis.Ping(pingCtx).Err()
	latency := time.Since(start)

	if err != nil {
		return ComponentCheck{
			Status:  "down",
			Latency: latency.String(),
			Message: fmt.Sprintf("ping failed: %v", err),
		}
	}

	status := "up"
	msg := "connected"
	if latency > 500*time.Millisecond {
		status = "degraded"
		msg = fmt.Sprintf("slow response (%s)", latency)
	}

	return ComponentCheck{
		Status:  status,
		Latency: latency.String(),
		Message: msg,
	}
}

// checkStorage verifies the blob store is reachable (HeadBucket for S3,
// a stat of the root directory for local storage).
func (hc *HealthChecker) checkStorage(ctx context.Context) ComponentCheck {
	if hc.store == nil {
		return ComponentCheck{Status: "down", Message: "not configured"}
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	start := time.Now()
	err := hc.store.Ping(pingCtx)
	latency := time.Since(start)

	if err != nil {
		return ComponentCheck{
			Status:  "down",
			Latency: latency.String(),
			Message: fmt.Sprintf("storage ping failed: %v", err),
		}
	}

	return ComponentCheck{
		Status:  "up",
		Latency: latency.String(),
		Message: "reachable",
	}
}

// checkEmail verifies the SES account is reachable. Sending may still fail
// for individual recipients; this only proves credentials and connectivity.
func (hc *HealthChecker) checkEmail(ctx context.Context) ComponentCheck {
	if hc.email == nil {
		return ComponentCheck{Status: "down", Message: "not configured"}
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	start := time.Now()
	err := hc.email.Ping(pingCtx)
	latency := time.Since(start)

	if err != nil {
		return ComponentCheck{
			Status:  "down",
			Latency: latency.String(),
			Message: fmt.Sprintf("GetAccount failed: %v", err),
		}
	}

	return ComponentCheck{
		Status:  "up",
		Latency: latency.String(),
		Message: "account reachable",
	}
}

// checkDispatcher reports notification dispatcher health from worker
// heartbeats and the outbox backlog. No fresh heartbeat means deliveries
// are piling up, which degrades the service without taking it down.
func (hc *HealthChecker) checkDispatcher(ctx context.Context) ComponentCheck {
	if hc.db == nil {
		return ComponentCheck{Status: "down", Message: "not configured"}
	}

	queryCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	start := time.Now()
	var workers int
	err := hc.db.QueryRowContext(queryCtx, `
		SELECT COUNT(*) FROM notify_workers
		WHERE status = 'running' AND last_heartbeat_at > NOW() - INTERVAL '2 minutes'
	`).Scan(&workers)
	latency := time.Since(start)

	if err != nil {
		// Table may not exist yet so treat as degraded rather than down.
		return ComponentCheck{
			Status:  "degraded",
			Latency: latency.String(),
			Message: fmt.Sprintf("heartbeat check failed: %v", err),
		}
	}

	var backlog int
	hc.db.QueryRowContext(queryCtx,
		`SELECT COUNT(*) FROM notification_outbox WHERE status = 'queued'`,
	).Scan(&backlog)

	if workers == 0 {
		msg := "no dispatch workers heartbeating"
		if backlog > 0 {
			msg = fmt.Sprintf("no dispatch workers heartbeating, %d deliveries queued", backlog)
		}
		return ComponentCheck{
			Status:  "degraded",
			Latency: latency.String(),
			Message: msg,
		}
	}

	status := "up"
	msg := fmt.Sprintf("%d workers, %d deliveries queued", workers, backlog)
	if backlog > 1000 {
		status = "degraded"
		msg = fmt.Sprintf("high outbox backlog: %d deliveries queued", backlog)
	}

	return ComponentCheck{
		Status:  status,
		Latency: latency.String(),
		Message: msg,
	}
}

// determineOverallStatus derives the aggregate status from individual checks.
//
// Rules:
//   - "unhealthy" if the database is down (critical dependency)
//   - "degraded"  if any check is degraded or a non-critical check is down
//   - "healthy"   otherwise
func determineOverallStatus(checks map[string]ComponentCheck) string {
	if db, ok := checks["database"]; ok && db.Status == "down" {
		// Only mark unhealthy if the DB is configured (down + configured = unhealthy).
		if db.Message != "not configured" {
			return "unhealthy"
		}
	}

	for _, c := range checks {
		if c.Status == "degraded" {
			return "degraded"
		}
		if c.Status == "down" && c.Message != "not configured" {
			return "degraded"
		}
	}

	return "healthy"
}

// HandleDBStats returns raw database/sql pool statistics for diagnostics.
//
//	GET /health/db
func (hc *HealthChecker) HandleDBStats(w http.ResponseWriter, r *http.Request) {
	if hc.db == nil {
		httputil.JSON(w, http.StatusOK, map[string]string{"error": "no database configured"})
		return
	}
	stats := hc.db.Stats()

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	pingErr := ""
	pingStart := time.Now()
	if err := hc.db.PingContext(ctx); err != nil {
		pingErr = err.Error()
	}
	pingLatency := time.Since(pingStart)

	var pgVersion string
	hc.db.QueryRowContext(ctx, `SELECT version()`).Scan(&pgVersion)

	var activeConns int
	hc.db.QueryRowContext(ctx,
		`SELECT count(*) FROM pg_stat_activity WHERE datname = current_database()`,
	).Scan(&activeConns)

	httputil.JSON(w, http.StatusOK, map[string]interface{}{
		"pool": map[string]interface{}{
			"max_open":      stats.MaxOpenConnections,
			"open":          stats.OpenConnections,
			"in_use":        stats.InUse,
			"idle":          stats.Idle,
			"wait_count":    stats.WaitCount,
			"wait_duration": stats.WaitDuration.String(),
		},
		"ping": map[string]string{
			"latency": pingLatency.String(),
			"error":   pingErr,
		},
		"pg_version":      pgVersion,
		"pg_active_conns": activeConns,
	})
}

// formatUptime produces a human-readable uptime string like "3d 4h 12m 5s".
func formatUptime(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}
	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}
