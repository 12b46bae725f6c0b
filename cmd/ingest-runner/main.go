// cmd/ingest-runner/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"mentionscope/internal/cache"
	"mentionscope/internal/collect"
	"mentionscope/internal/common/config"
	"mentionscope/internal/common/logger"
	"mentionscope/internal/ingest"
	"mentionscope/internal/sentiment"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	configPath := flag.String("config", "", "path to config file (default: search config/ directory)")
	force := flag.Bool("force", false, "ignore the cached snapshot and re-ingest")
	once := flag.Bool("once", false, "run a single ingest and exit")
	listenAddr := flag.String("listen", ":8080", "health/metrics listen address")
	flag.Parse()

	var (
		cfg *config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.LoadFromFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		bootLog := logger.New("info", "console")
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.Wrap(zapLog)

	zapLog.Info("Starting ingest runner...",
		zap.String("store", cfg.Cache.Store),
		zap.Strings("sources", cfg.Business.EnabledSources()),
	)

	ctx := context.Background()

	store, err := cache.NewStore(*cfg, log)
	if err != nil {
		zapLog.Fatal("cache store init failed", zap.Error(err))
	}

	var history ingest.History
	if cfg.Database.Postgres.Enabled {
		var pg *cache.PostgresHistory
		err = retryWithBackoff(func() error {
			var err error
			pg, err = cache.NewPostgresHistory(cfg.Database.Postgres, log)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()
		history = pg
		zapLog.Info("PostgreSQL ratings mirror connected")
	}

	var classifier sentiment.Classifier
	if cfg.Classifier.Enabled {
		classifier = sentiment.NewHTTPClassifier(cfg.Classifier)
		zapLog.Info("External classifier enabled", zap.String("baseUrl", cfg.Classifier.BaseURL))
	}

	collectors := collect.Build(cfg.Business, log)
	zapLog.Info("Collectors ready", zap.Int("count", len(collectors)))

	pipeline := ingest.New(cfg, store, collectors, classifier, history, log)

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening", zap.String("addr", *listenAddr))
		if err := http.ListenAndServe(*listenAddr, nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	runOnce := func(force bool) error {
		doc, err := pipeline.Run(ctx, force, func(stage string, pct int, meta map[string]any) {
			zapLog.Info("ingest progress",
				zap.String("stage", stage),
				zap.Int("pct", pct),
				zap.Any("meta", meta),
			)
		})
		if err != nil {
			return err
		}
		zapLog.Info("ingest run finished",
			zap.Int("items", doc.Stats.Total),
			zap.String("note", doc.Stats.Note),
		)
		return nil
	}

	if *once {
		if err := runOnce(*force); err != nil {
			zapLog.Error("ingest failed", zap.Error(err))
			os.Exit(1)
		}
		return
	}

	// Periodic mode: re-run at half the snapshot TTL so the cache never
	// expires between runs. The reuse gate still applies per run.
	interval := time.Duration(cfg.Cache.TTLHours) * time.Hour / 2
	if interval < time.Hour {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if err := runOnce(*force); err != nil {
		zapLog.Error("ingest failed", zap.Error(err))
		os.Exit(1)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			if err := runOnce(false); err != nil {
				zapLog.Error("ingest failed", zap.Error(err))
			}
		case <-sigCh:
			zapLog.Info("Shutdown signal received, stopping ingest runner")
			return
		}
	}
}
