/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the back-office server: configuration, store
  selection, index creation, dependency injection, graceful shutdown.

STARTUP SEQUENCE:
  1. Load environment configuration (.env honored)
  2. Open the store gateway selected by STORE_URI
  3. Ensure unique indexes (schedules, employee names)
  4. Wire services and the HTTP router
  5. Serve with graceful shutdown on SIGINT/SIGTERM

ENVIRONMENT:
  STORE_URI        required; mongodb:// URI or a SQLite path
                   (":memory:" for an in-memory database)
  PORT             HTTP port, default 8080
  ROSTER_POLICY    "replace" (default) or "merge"
  SALES_DATE_REP   "native" (default) or "epoch-pair"

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM: stop accepting connections, drain for up to 30s,
  close the store, exit.
*/
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sabaispa/backoffice/api"
	"github.com/sabaispa/backoffice/catalog"
	"github.com/sabaispa/backoffice/config"
	"github.com/sabaispa/backoffice/directory"
	"github.com/sabaispa/backoffice/roster"
	"github.com/sabaispa/backoffice/sales"
	"github.com/sabaispa/backoffice/store"
	storemongo "github.com/sabaispa/backoffice/store/mongo"
	storesqlite "github.com/sabaispa/backoffice/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	ctx := context.Background()
	gw, err := openGateway(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer gw.Close(ctx)

	rosters := roster.NewService(gw, cfg.RosterPolicy)
	employees := directory.NewService(gw)
	if err := rosters.EnsureIndexes(ctx); err != nil {
		log.Fatalf("Failed to create schedule index: %v", err)
	}
	if err := employees.EnsureIndexes(ctx); err != nil {
		log.Fatalf("Failed to create employee index: %v", err)
	}

	handler := api.NewHandler(
		rosters,
		employees,
		catalog.NewService(gw),
		sales.NewService(gw, cfg.SalesDateRep),
	)
	router := api.NewRouter(handler, gw)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on http://localhost:%s (roster policy: %s, sales dates: %s)",
			cfg.Port, cfg.RosterPolicy, cfg.SalesDateRep)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server stopped")
}

func openGateway(ctx context.Context, cfg config.Config) (store.Gateway, error) {
	if cfg.IsMongo() {
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		return storemongo.New(connectCtx, cfg.StoreURI, cfg.Database)
	}
	gw, err := storesqlite.New(cfg.StoreURI)
	if err != nil {
		return nil, fmt.Errorf("sqlite %q: %w", cfg.StoreURI, err)
	}
	return gw, nil
}
