package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/inkpress/newsletter/internal/api"
	"github.com/inkpress/newsletter/internal/bootstrap"
	"github.com/inkpress/newsletter/internal/config"
	"github.com/inkpress/newsletter/internal/email"
	"github.com/inkpress/newsletter/internal/idempotency"
	"github.com/inkpress/newsletter/internal/logger"
	"github.com/inkpress/newsletter/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.Load("config")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewFromConfig(logger.Config{
		Level:     cfg.Logging.Level,
		Output:    cfg.Logging.Output,
		FilePath:  cfg.Logging.FilePath,
		MaxSizeMB: cfg.Logging.MaxSizeMB,
		MaxFiles:  cfg.Logging.MaxFiles,
	})
	log.Info().Msg("starting API server")

	// Connect to database
	ctx := context.Background()
	db, err := storage.NewDB(
		ctx,
		cfg.Database.URL,
		cfg.Database.PoolMin,
		cfg.Database.PoolMax,
		cfg.Database.ConnectTimeout,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	log.Info().Msg("database connection established")

	queries := storage.New(db.Pool)
	idemStore := idempotency.NewStore(db.Pool, log)

	if err := bootstrap.SeedOperator(ctx, queries, log, cfg.App.AdminUsername, cfg.App.AdminPassword); err != nil {
		log.Fatal().Err(err).Msg("failed to seed operator account")
	}

	// Outbound transport for confirmation emails
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

	router := api.NewRouter(queries, db, idemStore, client, cfg.App.BaseURL, log)

	// Configure HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.App.Host, cfg.App.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.App.ReadTimeout,
		WriteTimeout: cfg.App.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("API server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info().Str("signal", sig.String()).Msg("shutting down server")

	// Graceful shutdown with 30-second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
