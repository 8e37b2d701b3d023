package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/inkpress/newsletter/internal/config"
	"github.com/inkpress/newsletter/internal/delivery"
	"github.com/inkpress/newsletter/internal/email"
	"github.com/inkpress/newsletter/internal/logger"
	"github.com/inkpress/newsletter/internal/storage"
)

func main() {
	cfg, err := config.Load("config")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewFromConfig(logger.Config{
		Level:     cfg.Logging.Level,
		Output:    cfg.Logging.Output,
		FilePath:  cfg.Logging.FilePath,
		MaxSizeMB: cfg.Logging.MaxSizeMB,
		MaxFiles:  cfg.Logging.MaxFiles,
	})
	log.Info().Msg("starting delivery worker")

	// Initialize database connection pool.
	ctx := context.Background()
	db, err := storage.NewDB(ctx, cfg.Database.URL, cfg.Database.PoolMin, cfg.Database.PoolMax, cfg.Database.ConnectTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	queries := storage.New(db.Pool)

	client, err := email.NewClient(email.Config{
		Transport:     cfg.Email.Transport,
		SenderAddress: cfg.Email.SenderAddress,
		BaseURL:       cfg.Email.BaseURL,
		AuthToken:     cfg.Email.AuthToken,
		SendTimeout:   cfg.Email.SendTimeout,
		SMTPHost:      cfg.Email.SMTPHost,
		SMTPPort:      cfg.Email.SMTPPort,
		SMTPUsername:  cfg.Email.SMTPUsername,
		SMTPPassword:  cfg.Email.SMTPPassword,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create email client")
	}

	worker := delivery.NewWorker(delivery.NewStore(queries), client, delivery.Config{
		PollInterval: cfg.Worker.PollInterval,
		BatchSize:    cfg.Worker.BatchSize,
	}, log)

	// Expose Prometheus metrics on a dedicated port.
	metricsAddr := fmt.Sprintf(":%d", cfg.Worker.MetricsPort)
	metricsSrv := &http.Server{Addr: metricsAddr, Handler: promhttp.Handler()}
	go func() {
		log.Info().Str("addr", metricsAddr).Msg("metrics server listening")
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server error")
		}
	}()

	runCtx, cancel := context.WithCancel(ctx)

	done := make(chan error, 1)
	go func() {
		done <- worker.Run(runCtx)
	}()

	log.Info().
		Dur("poll_interval", cfg.Worker.PollInterval).
		Int("batch_size", cfg.Worker.BatchSize).
		Msg("delivery worker started")

	// Wait for interrupt signal for graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down delivery worker")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Worker.ShutdownTimeout)
	defer shutdownCancel()

	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("worker exited with error")
		}
	case <-shutdownCtx.Done():
		log.Warn().Msg("worker did not stop within shutdown timeout")
	}

	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("metrics server forced to shutdown")
	}

	log.Info().Msg("delivery worker stopped")
}
