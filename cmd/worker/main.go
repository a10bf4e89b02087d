package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MeiZhiYying/classifyDoc/internal/bootstrap"
	"github.com/MeiZhiYying/classifyDoc/internal/config"
	"github.com/MeiZhiYying/classifyDoc/internal/infrastructure/filewatcher"
)

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, "catalog-worker")
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	go serveMetrics(app, cfg.WorkerMetricsPort)

	if cfg.WatchEnabled {
		go watchUploadDir(ctx, app, cfg)
	}

	if app.Queue == nil {
		log.Printf("no nats queue configured, worker idles until shutdown")
		<-ctx.Done()
		return
	}

	log.Printf("worker subscribed to %s", cfg.NATSRescanSubject)
	err = app.Queue.SubscribeRescanRequested(ctx, func(handlerCtx context.Context, category string) error {
		rescanCtx, cancel := context.WithTimeout(handlerCtx, 5*time.Minute)
		defer cancel()

		result, err := app.Scanner.RescanForCategory(rescanCtx, category)
		if err != nil {
			return err
		}
		log.Printf("rescan for %q reclassified %d of %d files", category, result.Classified, result.Total)
		return nil
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}

// watchUploadDir picks up files dropped into the upload root outside of
// an upload request. A full scan skips everything already catalogued,
// so running one per settled file stays cheap.
func watchUploadDir(ctx context.Context, app *bootstrap.App, cfg config.Config) {
	watcher, err := filewatcher.New(cfg.UploadDir, cfg.WatchSettleDelay, app.Logger)
	if err != nil {
		log.Printf("file watcher init error: %v", err)
		return
	}
	defer watcher.Close()

	keys, err := watcher.Watch(ctx)
	if err != nil {
		log.Printf("file watcher start error: %v", err)
		return
	}

	for key := range keys {
		result, err := app.Scanner.FullScan(ctx)
		if err != nil {
			log.Printf("watched scan error for %s: %v", key, err)
			continue
		}
		if result.Classified > 0 {
			log.Printf("watched scan after %s classified %d files", key, result.Classified)
		}
	}
}

func serveMetrics(app *bootstrap.App, port string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", app.HTTPMetrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	log.Printf("worker metrics listening on :%s", port)
	if err := http.ListenAndServe(":"+port, mux); err != nil && err != http.ErrServerClosed {
		log.Printf("worker metrics server error: %v", err)
	}
}
