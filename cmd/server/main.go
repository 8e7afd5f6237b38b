/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the care-facility scheduling and attendance
  engine server. Handles configuration, dependency injection, and
  graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (if present) and parse command-line flags
  2. Initialize SQLite store
  3. Create API handler with the facility config
  4. Configure HTTP router and start the workload monitor
  5. Start server with graceful shutdown

CONFIGURATION:
  Flags win over environment variables; environment variables (optionally
  from a .env file) win over defaults.

  -port / PORT                      HTTP server port (default: 8080)
  -db / DB_PATH                     SQLite database path (default: careops.db,
                                    ":memory:" for in-memory)
  -close-time / CLOSE_TIME          Facility closing time "HH:MM" (default: 17:00)
  -workload-limit / WORKLOAD_LIMIT_HOURS
                                    Daily overload limit in hours (default: 8)
  -absence-limit / ABSENCE_MONTHLY_LIMIT
                                    Monthly absence-support cap (default: 2)
  -monitor-interval                 Workload monitor interval (default: 1h, 0 disables)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the workload monitor and close the database

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/yasutakesougo/careops-engine/api"
	"github.com/yasutakesougo/careops-engine/store/sqlite"
)

func main() {
	// .env is optional; a missing file is not an error.
	_ = godotenv.Load()

	defaults := api.DefaultConfig()

	port := flag.Int("port", envInt("PORT", 8080), "HTTP server port")
	dbPath := flag.String("db", envStr("DB_PATH", "careops.db"), "SQLite database path")
	closeTime := flag.String("close-time", envStr("CLOSE_TIME", defaults.CloseTime), "facility closing time (HH:MM)")
	workloadLimit := flag.String("workload-limit", envStr("WORKLOAD_LIMIT_HOURS", defaults.WorkloadLimitHours.String()), "daily workload limit in hours")
	absenceLimit := flag.Int("absence-limit", envInt("ABSENCE_MONTHLY_LIMIT", defaults.AbsenceMonthlyLimit), "monthly absence-support cap per user")
	monitorInterval := flag.Duration("monitor-interval", time.Hour, "workload monitor interval (0 disables)")
	flag.Parse()

	limit, err := decimal.NewFromString(*workloadLimit)
	if err != nil {
		log.Fatalf("Invalid workload limit %q: %v", *workloadLimit, err)
	}

	cfg := api.Config{
		CloseTime:            *closeTime,
		WorkloadLimitHours:   limit,
		AbsenceMonthlyLimit:  *absenceLimit,
		DiscrepancyThreshold: defaults.DiscrepancyThreshold,
	}

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Initialize handler and router
	handler := api.NewHandler(store, cfg)
	router := api.NewRouter(handler)

	// Workload monitor
	monitor := api.NewWorkloadMonitor(store, cfg)
	if *monitorInterval <= 0 {
		monitor.Enabled = false
	} else {
		monitor.CheckInterval = *monitorInterval
	}
	monitor.Start()
	defer monitor.Stop()

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on http://localhost:%d", *port)
		log.Printf("API available at http://localhost:%d/api", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
