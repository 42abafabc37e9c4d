/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the hostel leave service.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env, environment, flags)
  2. Build the zap logger and validate the configuration
  3. Initialize SQLite store and audit log
  4. Create lifecycle engine and leave service
  5. Configure HTTP router and start the overdue monitor
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: APP_PORT or 8080)
  -db      SQLite database path (default: DB_PATH or hostel.db)
           Use ":memory:" for in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the overdue monitor
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection
  5. Flush logs

EXAMPLES:
  # Run with file database
  ./server -db="./data/hostel.db"

  # Run with in-memory database
  ./server -db=":memory:"

  # Run on different port
  ./server -port=3000

ENVIRONMENT:
  See config/config.go for every variable and its default.

SEE ALSO:
  - api/server.go: Router configuration
  - leave/service.go: Lifecycle round-trips
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/warp/hostel-leave/api"
	"github.com/warp/hostel-leave/config"
	"github.com/warp/hostel-leave/leave"
	"github.com/warp/hostel-leave/lifecycle"
	"github.com/warp/hostel-leave/logger"
	"github.com/warp/hostel-leave/store/sqlite"
)

func main() {
	cfg := config.Load()

	// Flags
	port := flag.String("port", cfg.App.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.Database.Path, "SQLite database path")
	flag.Parse()

	log := logger.New(cfg)
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatal("refusing to start", zap.String("environment", cfg.App.Environment), zap.Error(err))
	}

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatal("failed to initialize database", zap.String("path", *dbPath), zap.Error(err))
	}
	defer store.Close()

	// Initialize service
	engine := lifecycle.NewEngine(cfg.Location())
	svc := leave.NewService(store, store.AuditLog(), engine, log)

	handler := api.NewHandler(svc, log)

	monitor := api.NewOverdueMonitor(svc, log)
	monitor.CheckInterval = cfg.Hostel.OverdueCheckInterval
	monitor.Enabled = cfg.Hostel.OverdueCheckInterval > 0
	handler.Monitor = monitor

	// Create router
	router := api.NewRouter(handler, api.RouterOptions{
		JWTSecret:       []byte(cfg.Auth.JWTSecret),
		AllowedOrigins:  cfg.App.CorsAllowedOrigins,
		Idempotency:     api.NewIdempotency(cfg.App.IdempotencyTTL),
		EnableScenarios: !cfg.IsProduction(),
	})

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	monitor.Start()

	// Start server in goroutine
	go func() {
		log.Info("server starting",
			zap.String("addr", "http://localhost:"+*port),
			zap.String("db", *dbPath),
			zap.String("timezone", engine.Location.String()),
			zap.String("environment", cfg.App.Environment),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	monitor.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
		return
	}

	log.Info("server stopped")
}
