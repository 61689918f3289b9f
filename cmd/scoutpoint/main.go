package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/scoutpoint/scoutpoint/internal/backup"
	"github.com/scoutpoint/scoutpoint/internal/config"
	"github.com/scoutpoint/scoutpoint/internal/database"
	"github.com/scoutpoint/scoutpoint/internal/logging"
	"github.com/scoutpoint/scoutpoint/internal/server"
	"github.com/scoutpoint/scoutpoint/internal/store"
)

func main() {
	logger := logging.Setup(os.Getenv("SCOUTPOINT_LOG_LEVEL"))

	port := os.Getenv("SCOUTPOINT_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("SCOUTPOINT_DB_PATH")
	if dbPath == "" {
		dbPath = "scoutpoint.db"
	}

	db, err := database.Open(dbPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	cfg, err := config.Load(os.Getenv("SCOUTPOINT_CONFIG"))
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	srv := server.New(db, server.Config{
		Catalog:             cfg.Catalog(),
		Costs:               cfg.CostTable(),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
	}, logger)

	backupInterval := 24 * time.Hour
	if v := os.Getenv("SCOUTPOINT_BACKUP_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			backupInterval = d
		}
	}
	backupMgr := backup.NewManager(backup.Config{
		S3: backup.S3Config{
			Endpoint:  os.Getenv("SCOUTPOINT_S3_ENDPOINT"),
			Bucket:    os.Getenv("SCOUTPOINT_S3_BUCKET"),
			Region:    os.Getenv("SCOUTPOINT_S3_REGION"),
			AccessKey: os.Getenv("SCOUTPOINT_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("SCOUTPOINT_S3_SECRET_KEY"),
		},
		DBPath:     dbPath,
		Passphrase: os.Getenv("SCOUTPOINT_BACKUP_PASSPHRASE"),
		Interval:   backupInterval,
	}, db, store.NewBackupStore(db), logger.With("component", "backup"))
	backupMgr.Start()
	defer backupMgr.Stop()

	httpServer := &http.Server{
		Addr:              ":" + port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Background cleanup goroutine
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				srv.RateLimiter().Cleanup()
			case <-cleanupCtx.Done():
				return
			}
		}
	}()

	go func() {
		slog.Info("scoutpoint starting", "addr", ":"+port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
