package services

import (
	"context"
	"log/slog"
	"time"

	apperrors "github.com/welldanyogia/webrana-formmail-backend/internal/errors"
	"github.com/welldanyogia/webrana-formmail-backend/internal/metrics"
	"github.com/welldanyogia/webrana-formmail-backend/internal/models"
	"github.com/welldanyogia/webrana-formmail-backend/internal/repository"
)

// DefaultAuditTimeout bounds a single audit insert
const DefaultAuditTimeout = 5 * time.Second

// AuditEntry describes one send attempt to be recorded
type AuditEntry struct {
	RequestID    string
	Form         models.FormSubmission
	Recipient    string
	EmailSubject string
	FileNames    []string
	Status       string
	SendDate     time.Time
}

// Auditor persists audit entries
type Auditor interface {
	// Record stores the entry. A non-nil error wraps ErrPersistence and has
	// already been logged; callers must not let it change their outcome.
	Record(ctx context.Context, entry AuditEntry) (*models.EmailAudit, error)
}

// AuditPublisher receives every stored audit record
type AuditPublisher interface {
	PublishAudit(record *models.EmailAudit)
}

// AuditRecorderConfig holds the recorder's collaborators. Only Repo is required.
type AuditRecorderConfig struct {
	Repo      repository.AuditRepository
	Publisher AuditPublisher
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
	Timeout   time.Duration
}

// AuditRecorder writes one EmailAudit row per send attempt
type AuditRecorder struct {
	repo      repository.AuditRepository
	publisher AuditPublisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	timeout   time.Duration
}

// NewAuditRecorder creates an AuditRecorder
func NewAuditRecorder(cfg AuditRecorderConfig) *AuditRecorder {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultAuditTimeout
	}
	return &AuditRecorder{
		repo:      cfg.Repo,
		publisher: cfg.Publisher,
		metrics:   cfg.Metrics,
		logger:    logger,
		timeout:   timeout,
	}
}

// Record inserts the audit row. The insert is detached from the caller's
// cancellation so a client disconnect after the send still leaves a record.
// Failures are logged and counted, never retried.
func (r *AuditRecorder) Record(ctx context.Context, entry AuditEntry) (*models.EmailAudit, error) {
	record := NewEmailAudit(entry)

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	if err := r.repo.Create(writeCtx, record); err != nil {
		r.metrics.RecordAuditWriteFailure()
		r.logger.Error("failed to record email audit",
			slog.String("request_id", entry.RequestID),
			slog.String("recipient", entry.Recipient),
			slog.String("send_status", entry.Status),
			slog.Any("error", err))
		return nil, apperrors.Wrap(apperrors.ErrPersistence, err.Error())
	}

	r.logger.Debug("email audit recorded",
		slog.Uint64("audit_id", uint64(record.ID)),
		slog.String("request_id", entry.RequestID))

	if r.publisher != nil {
		r.publisher.PublishAudit(record)
	}

	return record, nil
}

// NewEmailAudit maps an entry onto a new, unsaved audit row
func NewEmailAudit(entry AuditEntry) *models.EmailAudit {
	record := &models.EmailAudit{
		RequestID:          entry.RequestID,
		Recipient:          entry.Recipient,
		EmailSubject:       entry.EmailSubject,
		OrganizationName:   entry.Form.OrganizationName,
		ResponsibleContact: entry.Form.ResponsibleContact,
		Subject:            entry.Form.Subject,
		ReferencePeriod:    entry.Form.ReferencePeriod,
		DataDescription:    entry.Form.DataDescription,
		FileCount:          len(entry.FileNames),
		FileNames:          models.JoinFileNames(entry.FileNames),
		SendStatus:         entry.Status,
		LGPDCompliance:     entry.Form.LGPDCompliance,
	}
	if !entry.SendDate.IsZero() {
		record.SendDate = entry.SendDate.UTC()
	}
	return record
}
