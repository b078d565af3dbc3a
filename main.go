// Command cshm-server serves the continuous shape measure engine over HTTP:
// single measure computations, full geometry rankings with persisted runs,
// and a debug chart of ranked measures.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coordchem/cshm/internal/config"
	"github.com/coordchem/cshm/internal/runstore"
	"github.com/coordchem/cshm/internal/version"
)

var (
	listen        = flag.String("listen", ":8080", "Listen address")
	dbFile        = flag.String("db", "shape_runs.db", "Path to the run database")
	configPath    = flag.String("config", "", "Optional tuning config JSON (see internal/config)")
	migrationsDir = flag.String("migrations", "", "Run versioned migrations from this directory instead of the inline schema")
)

func main() {
	flag.Parse()
	log.Printf("cshm-server %s (%s, built %s)", version.Version, version.GitSHA, version.BuildTime)

	tuning := config.EmptyTuningConfig()
	if *configPath != "" {
		cfg, err := config.LoadTuningConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load tuning config: %v", err)
		}
		tuning = cfg
	}

	store, err := runstore.Open(*dbFile)
	if err != nil {
		log.Fatalf("Failed to open run store: %v", err)
	}
	defer store.Close()

	if *migrationsDir != "" {
		if err := store.MigrateUp(*migrationsDir); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		version, dirty, err := store.MigrateVersion(*migrationsDir)
		if err != nil {
			log.Printf("Could not read migration version: %v", err)
		} else {
			log.Printf("Run store at migration version %d (dirty=%v)", version, dirty)
		}
	}

	server := NewServer(store, tuning)
	httpServer := &http.Server{
		Addr:    *listen,
		Handler: server.ServeMux(),
	}

	go func() {
		log.Printf("Shape measure server listening on %s", *listen)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Printf("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
