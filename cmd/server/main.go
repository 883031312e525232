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

	"golang.org/x/sync/errgroup"

	"github.com/welldanyogia/webrana-formmail-backend/internal/api"
	"github.com/welldanyogia/webrana-formmail-backend/internal/config"
	"github.com/welldanyogia/webrana-formmail-backend/internal/database"
	"github.com/welldanyogia/webrana-formmail-backend/internal/logger"
	"github.com/welldanyogia/webrana-formmail-backend/internal/mailer"
	"github.com/welldanyogia/webrana-formmail-backend/internal/metrics"
	"github.com/welldanyogia/webrana-formmail-backend/internal/repository"
	"github.com/welldanyogia/webrana-formmail-backend/internal/services"
	"github.com/welldanyogia/webrana-formmail-backend/internal/websocket"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("server exited with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}

	cfg, err := config.LoadWithValidation()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Setup logger
	log := logger.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	slog.SetDefault(log)
	secLogger := logger.NewSecurityLogger(log)

	log.Info("Starting Formmail Backend Server...")
	cfg.LogConfig(log)

	// Database
	db, err := database.Connect(cfg.DatabaseURL, database.Options{
		Production: cfg.IsProduction(),
		LogLevel:   cfg.LogLevel,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	// Live audit feed
	hub := websocket.NewHub(log, m)

	// Mail
	transport := mailer.NewSMTPTransport(mailer.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		TLSMode:  cfg.SMTPTLSMode,
		Timeout:  cfg.SMTPTimeout,
	}, log)
	dispatcher, err := mailer.NewDispatcher(mailer.DispatcherConfig{
		From:      cfg.MailFrom,
		Transport: transport,
		Logger:    log,
	})
	if err != nil {
		return err
	}

	// Services
	auditRepo := repository.NewAuditRepository(db)
	recorder := services.NewAuditRecorder(services.AuditRecorderConfig{
		Repo:      auditRepo,
		Publisher: hub,
		Metrics:   m,
		Logger:    log,
	})
	pipeline := services.NewPipeline(services.PipelineConfig{
		DefaultRecipient: cfg.MailDefaultRecipient,
		Sender:           dispatcher.Sender(),
		MaxFileSize:      cfg.MaxFileSize,
	}, dispatcher, recorder, m, log)

	router := api.NewRouter(&api.RouterConfig{
		DB:             db,
		Submissions:    pipeline,
		Audits:         services.NewAuditQueryService(auditRepo),
		Hub:            hub,
		Metrics:        m,
		Logger:         log,
		SecurityLogger: secLogger,
		APIKey:         cfg.APIKey,
		AllowedOrigins: cfg.AllowedOrigins,
		Production:     cfg.IsProduction(),
		RateLimit:      cfg.RateLimitRequests,
		RateBurst:      cfg.RateLimitBurst,
		MaxUploadSize:  cfg.MaxUploadSize,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.APIPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		// Uploads of up to MAX_UPLOAD_SIZE plus the SMTP round trip
		ReadTimeout:  2 * time.Minute,
		WriteTimeout: 2*time.Minute + cfg.SMTPTimeout,
		IdleTimeout:  120 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		hub.Run(groupCtx)
		return nil
	})

	group.Go(func() error {
		log.Info("starting HTTP server", slog.String("address", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return httpServer.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		return err
	}

	log.Info("Server stopped")
	return nil
}
