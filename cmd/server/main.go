/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the receiving engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Load pipeline configuration (defaults, optionally a JSON file)
  3. Initialize the store (SQLite or MySQL)
  4. Create the importer and API handler
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: 8080)
  -driver  Store driver: "sqlite" or "mysql" (default: sqlite)
  -db      SQLite database path (default: receiving.db)
           Use ":memory:" for an in-memory database
  -dsn     MySQL DSN when -driver=mysql
           (e.g. user:pass@tcp(localhost:3306)/receiving?parseTime=true)
  -config  Optional JSON pipeline configuration file. Fields present in
           the file replace the shipped defaults wholesale.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/receiving.db"

  # Run against the reporting MySQL instance
  ./server -driver=mysql -dsn="app:secret@tcp(db:3306)/receiving?parseTime=true"

  # Run with a deployment-specific taxonomy
  ./server -config=./config/korea.json

SEE ALSO:
  - api/server.go: Router configuration
  - receiving/defaults.go: Shipped configuration
  - store/sqlite, store/mysql: Database implementations
*/
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/receiving-engine/api"
	"github.com/warp/receiving-engine/engine"
	"github.com/warp/receiving-engine/receiving"
	"github.com/warp/receiving-engine/store/mysql"
	"github.com/warp/receiving-engine/store/sqlite"
)

// closableStore is what both SQL-backed stores provide.
type closableStore interface {
	engine.ReceivingStore
	Close() error
}

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	driver := flag.String("driver", "sqlite", "store driver: sqlite or mysql")
	dbPath := flag.String("db", "receiving.db", "SQLite database path")
	dsn := flag.String("dsn", "", "MySQL DSN (with -driver=mysql)")
	configPath := flag.String("config", "", "optional JSON pipeline configuration file")
	flag.Parse()

	// Pipeline configuration
	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize store
	store, err := openStore(*driver, *dbPath, *dsn)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Initialize importer and handler
	importer, err := receiving.NewImporter(cfg, store)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	handler := api.NewHandler(importer, store, api.NewMetrics())

	// Create router
	router := api.NewRouter(handler)

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
		log.Printf("Server starting on http://localhost:%d (driver=%s)", *port, *driver)
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

func openStore(driver, dbPath, dsn string) (closableStore, error) {
	switch driver {
	case "sqlite":
		return sqlite.New(dbPath)
	case "mysql":
		if dsn == "" {
			return nil, fmt.Errorf("-dsn is required with -driver=mysql")
		}
		return mysql.New(dsn)
	default:
		return nil, fmt.Errorf("unknown driver %q (want sqlite or mysql)", driver)
	}
}

// loadConfig starts from the shipped defaults and overlays the JSON
// file if one was given. The result is validated before any row is
// processed.
func loadConfig(path string) (engine.Config, error) {
	cfg := receiving.DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
