package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"github.com/mailprobe/mailprobe/internal/config"
	"github.com/mailprobe/mailprobe/internal/db"
	"github.com/mailprobe/mailprobe/internal/ingestion"
	"github.com/mailprobe/mailprobe/internal/logging"
	"github.com/mailprobe/mailprobe/internal/report"
	"github.com/mailprobe/mailprobe/internal/repository"
	"github.com/mailprobe/mailprobe/internal/validation"
	"github.com/mailprobe/mailprobe/internal/verifier"
	"github.com/mailprobe/mailprobe/internal/web"
	"github.com/mailprobe/mailprobe/migrations"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(".")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logging.Setup(cfg.LogLevel, cfg.LogFormat)
	logger := slog.Default()

	conn, err := db.NewConnection(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer conn.Close()

	if err := db.RunMigrations(cfg.Database, migrations.FS); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	uploadRepo := repository.NewUploadRepository(conn.Pool)
	recordRepo := repository.NewEmailRecordRepository(conn.Pool)

	var emailVerifier verifier.Verifier
	switch cfg.Verifier.Mode {
	case "http":
		emailVerifier = verifier.NewHTTPVerifier(cfg.Verifier.Endpoint, cfg.Verifier.APIKey, cfg.Verifier.Timeout)
	default:
		emailVerifier = verifier.NewSimulated(cfg.Verifier.Delay)
	}

	ingestionSvc := ingestion.NewService(uploadRepo, recordRepo, logger)
	validationSvc := validation.NewService(uploadRepo, recordRepo, emailVerifier, logger)
	reportSvc := report.NewService(uploadRepo, recordRepo)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      corsHandler.Handler(web.NewHandler(ingestionSvc, validationSvc, reportSvc)),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", cfg.ListenAddr, "verifier", cfg.Verifier.Mode)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		return fmt.Errorf("serve: %w", err)
	case <-quit:
	}
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", "error", err)
	}

	// Let in-flight validation workers finish writing their verdicts.
	validationSvc.WaitForWorkers()

	logger.Info("server exited")
	return nil
}
