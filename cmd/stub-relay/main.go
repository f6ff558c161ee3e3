package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"
)

// The stub relay stands in for the mobile push gateway during local
// development. It accepts the same POST /v1/push contract, logs every
// notification instead of delivering it, and answers 404 for recipients
// under the no-devices.test domain so the skip path can be exercised.
//
// Point the API server at it with PUSH_RELAY_URL=http://localhost:9090.

type pushRequest struct {
	Recipient string `json:"recipient"`
	Name      string `json:"name"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	MessageID string `json:"message_id"`
}

func main() {
	log.Println("============================================================")
	log.Println("  WARNING: This is a STUB push relay for local testing.")
	log.Println("  Notifications are logged, never delivered.")
	log.Println("============================================================")
	log.Println("")

	apiKey := os.Getenv("STUB_RELAY_API_KEY")
	if apiKey != "" {
		log.Println("Bearer auth enabled")
	}

	var received int64
	var rejected int64

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","service":"conectone-stub-relay","warning":"THIS IS A STUB - nothing is delivered"}`))
	})

	mux.HandleFunc("GET /v1/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"received":%d,"rejected":%d}`,
			atomic.LoadInt64(&received), atomic.LoadInt64(&rejected))
	})

	mux.HandleFunc("POST /v1/push", func(w http.ResponseWriter, r *http.Request) {
		if apiKey != "" && r.Header.Get("Authorization") != "Bearer "+apiKey {
			atomic.AddInt64(&rejected, 1)
			http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
			return
		}

		var req pushRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			atomic.AddInt64(&rejected, 1)
			http.Error(w, `{"error":"invalid payload"}`, http.StatusBadRequest)
			return
		}
		if req.Recipient == "" || req.Title == "" {
			atomic.AddInt64(&rejected, 1)
			http.Error(w, `{"error":"recipient and title are required"}`, http.StatusBadRequest)
			return
		}

		// Simulated registry miss, same contract as the real gateway.
		if strings.HasSuffix(req.Recipient, "@no-devices.test") {
			http.Error(w, `{"error":"no registered devices"}`, http.StatusNotFound)
			return
		}

		n := atomic.AddInt64(&received, 1)
		log.Printf("[push #%d] to=%s title=%q body_len=%d message_id=%s",
			n, req.Recipient, req.Title, len(req.Body), req.MessageID)

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"id":"stub-%d"}`, n)
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "9090"
	}

	server := &http.Server{
		Addr:         "0.0.0.0:" + port,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Stub relay listening on :%s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down stub relay...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Stub relay stopped")
}
