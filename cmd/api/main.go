package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nadi.org/internal/artifact"
	"nadi.org/internal/docs"
	"nadi.org/internal/httpapi"
	"nadi.org/internal/obs"
	"nadi.org/internal/payroll"
	"nadi.org/internal/render"
	"nadi.org/internal/store/pg"
	"nadi.org/internal/stream"
)

var version = "0.3.0"

func main() {
	obs.Init()
	obs.InitBuildInfo(version, os.Getenv("NADI_BUILD_COMMIT"))

	dsn := os.Getenv("NADI_PG_DSN")
	if dsn == "" {
		log.Fatal("NADI_PG_DSN is required")
	}
	store, err := pg.Open(dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	objects, err := buildObjectStore(ctx)
	cancel()
	if err != nil {
		log.Fatalf("object store: %v", err)
	}

	events := stream.New()
	agg := payroll.NewAggregator(store)
	artifacts := artifact.NewStore(objects, store)
	service := docs.NewService(agg, render.New(), artifacts, events)

	api := httpapi.New(httpapi.Deps{
		Docs:       service,
		Artifacts:  artifacts,
		Aggregator: agg,
		Records:    store,
		Events:     events,
		Ready:      httpapi.ReadyProbe{DB: store.DB()},
		Version:    version,
	})

	addr := os.Getenv("NADI_HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second, // SSE and bulk runs outlive typical requests
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting nadi-payroll-docs %s on %s", version, srv.Addr)
	obs.SetReady(true)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")
	obs.SetReady(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(shutdownCtx)
	log.Println("Stopped")
}

// buildObjectStore prefers S3 when a bucket is configured and falls back to
// the in-memory store for local development.
func buildObjectStore(ctx context.Context) (artifact.ObjectStore, error) {
	if os.Getenv("NADI_S3_BUCKET") == "" {
		log.Println("NADI_S3_BUCKET not set; using in-memory object store")
		return artifact.NewMemoryObjects(), nil
	}
	cfg, err := artifact.S3ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	return artifact.NewS3Store(ctx, cfg)
}
