// Command mailsink runs a local SMTP server that accepts the relay's mail,
// parses it and logs a summary of each message.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	gosmtp "github.com/emersion/go-smtp"

	"github.com/welldanyogia/webrana-formmail-backend/internal/config"
	"github.com/welldanyogia/webrana-formmail-backend/internal/logger"
	"github.com/welldanyogia/webrana-formmail-backend/internal/smtp"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		slog.Error("failed to load .env", slog.Any("error", err))
		os.Exit(1)
	}

	log := logger.New(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"), os.Stdout)
	slog.SetDefault(log)

	cfg := smtp.LoadServerConfigFromEnv()

	inbox := smtp.NewInbox(cfg.InboxCapacity)
	inbox.OnAdd(func(msg smtp.ReceivedMessage) {
		attrs := []any{
			slog.String("from", msg.EnvelopeFrom),
			slog.Any("recipients", msg.Recipients),
			slog.Int64("size", msg.Size),
		}
		if msg.Email != nil {
			attrs = append(attrs,
				slog.String("subject", msg.Email.Subject),
				slog.String("request_id", msg.Email.RequestID),
				slog.Any("attachments", msg.Email.AttachmentNames()),
			)
		}
		log.Info("message received", attrs...)
	})

	backend := smtp.NewBackend(&smtp.BackendConfig{
		Inbox:          inbox,
		Username:       cfg.Username,
		Password:       cfg.Password,
		AllowedDomains: cfg.AllowedDomains,
		Logger:         log,
	})
	server := smtp.NewSecureServer(backend, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting mail sink",
			slog.String("address", cfg.Addr),
			slog.String("domain", cfg.Domain),
			slog.Bool("auth", cfg.Username != ""),
			slog.Bool("tls", cfg.TLSConfig != nil),
		)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down mail sink...")
		if err := server.Close(); err != nil {
			log.Error("failed to close mail sink", slog.Any("error", err))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, gosmtp.ErrServerClosed) {
			log.Error("mail sink error", slog.Any("error", err))
			os.Exit(1)
		}
	}

	log.Info("Mail sink stopped", slog.Int("messages", inbox.Len()))
}
