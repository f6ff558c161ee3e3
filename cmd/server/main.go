package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"

	"github.com/IQTechSolutions/ConectOne-sub011/internal/api"
	"github.com/IQTechSolutions/ConectOne-sub011/internal/auth"
	"github.com/IQTechSolutions/ConectOne-sub011/internal/config"
	"github.com/IQTechSolutions/ConectOne-sub011/internal/media"
	"github.com/IQTechSolutions/ConectOne-sub011/internal/notify"
	"github.com/IQTechSolutions/ConectOne-sub011/internal/repository/postgres"
	"github.com/IQTechSolutions/ConectOne-sub011/internal/service/activities"
	"github.com/IQTechSolutions/ConectOne-sub011/internal/service/adverts"
	"github.com/IQTechSolutions/ConectOne-sub011/internal/service/agegroups"
	"github.com/IQTechSolutions/ConectOne-sub011/internal/service/directory"
	"github.com/IQTechSolutions/ConectOne-sub011/internal/service/events"
	"github.com/IQTechSolutions/ConectOne-sub011/internal/service/messaging"
	"github.com/IQTechSolutions/ConectOne-sub011/internal/service/schools"
	"github.com/IQTechSolutions/ConectOne-sub011/internal/service/vacations"
)

// checkPortAvailable verifies that the target port is not already in use.
// This prevents confusion from stale processes occupying the port.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v\n"+
			"  Hint: Run 'lsof -i :%d' to find the blocking process", port, addr, err, port)
	}
	ln.Close()
	return nil
}

func extractHost(dsn string) string {
	at := strings.Index(dsn, "@")
	if at < 0 {
		return "(unknown)"
	}
	rest := dsn[at+1:]
	slash := strings.Index(rest, "/")
	if slash >= 0 {
		rest = rest[:slash]
	}
	return rest
}

func main() {
	log.Println("==============================================================")
	log.Println("  ConectOne API Server (cmd/server/main.go)")
	log.Println("  Schools, directory and messaging platform backend")
	log.Println("==============================================================")

	// Load configuration
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if os.Getenv("DATABASE_URL") != "" {
		log.Println("[config] DATABASE_URL env override active")
	}

	// Pre-flight check: verify the target port is available
	host := cfg.Server.GetHost()
	port := cfg.Server.Port
	if port == 0 {
		port = 8080
	}
	if err := checkPortAvailable(host, port); err != nil {
		log.Fatalf("Pre-flight check FAILED: %v", err)
	}
	log.Printf("Pre-flight check passed: port %d is available", port)

	ctx, cancel := context.WithCancel(context.Background())

	// Initialize media blob storage
	store, err := media.NewStore(ctx, cfg.Media)
	if err != nil {
		log.Fatalf("Failed to initialize media storage: %v", err)
	}
	if cfg.Media.Type == "s3" {
		log.Printf("Media storage: S3 (bucket: %s, cdn: %s)", cfg.Media.S3Bucket, cfg.Media.CDNDomain)
	} else {
		log.Printf("Media storage: local (%s)", cfg.Media.LocalPath)
	}

	// Open PostgreSQL with connect and statement timeouts baked into the DSN
	dbURL := cfg.Database.URL
	if dbURL == "" {
		log.Fatalf("Database not configured: set database.url in config/config.yaml or DATABASE_URL")
	}
	sep := "?"
	if strings.Contains(dbURL, "?") {
		sep = "&"
	}
	if !strings.Contains(dbURL, "connect_timeout") {
		dbURL += sep + "connect_timeout=5"
		sep = "&"
	}
	dbURL += sep + "options=-c%20statement_timeout%3D15000%20-c%20idle_in_transaction_session_timeout%3D15000"
	log.Printf("DB URL host portion: ...@%s/...", extractHost(dbURL))
	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}

	// Set pool limits early to prevent connection exhaustion
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime())
	db.SetConnMaxIdleTime(30 * time.Second)

	// Wire repositories and application services
	schoolsService := schools.NewService(postgres.NewSchoolsRepo(db))
	messagingService := messaging.NewService(postgres.NewMessagesRepo(db), notify.NewTemplateService())

	h := api.NewHandlers(schoolsService)
	h.SetAgeGroupsService(agegroups.NewService(postgres.NewAgeGroupsRepo(db)))
	h.SetActivitiesService(activities.NewService(postgres.NewActivitiesRepo(db)))
	h.SetEventsService(events.NewService(postgres.NewEventsRepo(db)))
	h.SetDirectoryService(directory.NewService(postgres.NewDirectoryRepo(db)))
	h.SetVacationsService(vacations.NewService(postgres.NewVacationsRepo(db)))
	h.SetAdvertsService(adverts.NewService(postgres.NewAdvertsRepo(db)))
	h.SetMessagingService(messagingService)
	h.SetMediaService(media.NewService(postgres.NewMediaRepo(db), store, cfg.Media), store)

	schoolCtx := api.NewSchoolContextProvider(db)
	h.SetSchoolContext(schoolCtx)

	// Initialize Redis. Optional: without it the scheduler leases through PG
	// advisory locks and sends go out unpaced.
	var redisClient *redis.Client
	redisURL := cfg.Redis.URL
	if redisURL == "" {
		redisURL = os.Getenv("REDIS_ADDR")
	}
	if redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			redisClient = redis.NewClient(&redis.Options{Addr: redisURL})
		} else {
			redisClient = redis.NewClient(opts)
		}
		pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			log.Printf("Warning: Redis connection failed (%s): %v - falling back to PG advisory locks", redisURL, err)
			redisClient.Close()
			redisClient = nil
		} else {
			log.Printf("Redis connected: %s (scheduler leases and send pacing enabled)", redisURL)
		}
		pingCancel()
	} else {
		log.Println("Redis not configured (REDIS_URL not set) - using PG advisory locks for scheduler leases")
	}

	// Channel senders for the notification dispatcher
	var sesSender *notify.SESSender
	var emailSender notify.Sender
	if cfg.Email.AccessKey != "" && cfg.Email.SecretKey != "" {
		sesSender = notify.NewSESSender(cfg.Email.AccessKey, cfg.Email.SecretKey, cfg.Email.Region, cfg.Email.FromName, cfg.Email.FromEmail)
		emailSender = sesSender
		log.Printf("SES email sender initialized (region: %s, from: %s <%s>)", cfg.Email.Region, cfg.Email.FromName, cfg.Email.FromEmail)
	} else {
		log.Println("SES email sending not configured (missing AWS credentials)")
	}

	var pushSender notify.Sender
	if cfg.Push.Enabled && cfg.Push.RelayURL != "" {
		pushSender = notify.NewPushSender(cfg.Push.RelayURL, cfg.Push.APIKey)
		log.Printf("Push relay sender initialized (%s)", cfg.Push.RelayURL)
	} else {
		log.Println("Push relay not configured (push deliveries will be marked failed)")
	}

	// Initialize authentication manager if enabled
	var authManager *auth.Manager
	if cfg.Auth.Enabled && cfg.Auth.GoogleClientID != "" {
		// Determine base URL for OAuth callbacks
		baseURL := fmt.Sprintf("http://%s:%d", cfg.Server.GetHost(), cfg.Server.Port)
		// On ECS, use the production URL
		if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" {
			baseURL = "https://api.conectone.co.za"
		}
		// Allow override via environment variable
		if envURL := os.Getenv("AUTH_BASE_URL"); envURL != "" {
			baseURL = envURL
		}

		authManager = auth.NewManager(cfg.Auth, baseURL)

		// Pre-flight: validate the OAuth credentials against Google before
		// accepting traffic.
		log.Println("Validating Google OAuth credentials...")
		if err := authManager.ValidateCredentials(context.Background()); err != nil {
			log.Fatalf("OAuth pre-flight FAILED: %v", err)
		}
		log.Println("Google OAuth credentials validated successfully")

		authManager.StartSessionSweeper(ctx)
		log.Printf("Google OAuth enabled for domain: %s (callback: %s/auth/callback)", cfg.Auth.AllowedDomain, baseURL)
	} else {
		log.Println("Authentication disabled")
	}

	// Routes are built inside NewServer, so every handler dependency must be
	// set before this point.
	hc := api.NewHealthChecker(db, redisClient, store, sesSender)
	server := api.NewServer(cfg, h, authManager, schoolCtx, hc)
	log.Println("Health check routes registered: /health, /health/live, /health/ready")

	// Background notification workers. A split deployment sets
	// DISPATCH_DISABLED=true here and runs cmd/worker on the sending tier.
	if os.Getenv("DISPATCH_DISABLED") == "true" {
		log.Println("Dispatch workers disabled (DISPATCH_DISABLED=true); run cmd/worker to drain the outbox")
	} else {
		// Test connection with timeout - only start background workers if DB is reachable
		pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
		if err := db.PingContext(pingCtx); err != nil {
			pingCancel()
			log.Printf("Warning: database ping failed: %v - routes registered but dispatch workers skipped", err)
		} else {
			pingCancel()
			log.Println("Database connected successfully")

			// Message Scheduler promotes scheduled messages into the outbox
			// and settles completed sends
			scheduler := notify.NewMessageScheduler(db, messagingService)
			if redisClient != nil {
				scheduler.SetRedisClient(redisClient)
			}
			if err := scheduler.Start(); err != nil {
				log.Printf("Warning: Failed to start message scheduler: %v", err)
			} else {
				log.Printf("Message Scheduler started (polls every 30s for due messages)")
			}

			// Dispatcher pool drains the outbox over email and push
			pool := notify.NewDispatcherPool(db, cfg.Dispatch.Workers)
			pool.SetBatching(cfg.Dispatch.BatchSize, cfg.Dispatch.PollInterval())
			pool.SetSenders(emailSender, pushSender)
			if redisClient != nil {
				limiter := notify.NewRateLimiter(redisClient)
				limiter.SetEmailPerSecond(cfg.Dispatch.SendsPerSecond)
				pool.SetRateLimiter(limiter)
			}
			pool.Start()

			// Recovery worker reclaims deliveries stuck in sending state
			recovery := notify.NewOutboxRecoveryWorker(db)
			go recovery.Start(ctx)
			log.Println("Outbox Recovery Worker started (scans every 2m for stuck deliveries)")

			// Cleanup worker removes settled outbox rows and dead worker registrations
			cleanup := notify.NewOutboxCleanupWorker(db)
			go cleanup.Start(ctx)
			log.Println("Outbox Cleanup Worker started (runs every 1h, batch deletes settled rows)")

			// Ensure workers stop on shutdown
			go func() {
				<-ctx.Done()
				scheduler.Stop()
				pool.Stop()
			}()
		}
	}

	// Setup graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.GetHost(), cfg.Server.Port)
		log.Printf("Starting server on %s", addr)
		if err := server.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	log.Println("All services initialized - server is ready")

	<-done
	log.Println("Shutting down...")

	// Cancel background tasks
	cancel()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	if redisClient != nil {
		redisClient.Close()
	}

	log.Println("Server stopped")
}
