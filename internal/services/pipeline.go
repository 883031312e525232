package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/welldanyogia/webrana-formmail-backend/internal/content"
	apperrors "github.com/welldanyogia/webrana-formmail-backend/internal/errors"
	"github.com/welldanyogia/webrana-formmail-backend/internal/metrics"
	"github.com/welldanyogia/webrana-formmail-backend/internal/models"
	"github.com/welldanyogia/webrana-formmail-backend/internal/validator"
)

// SuccessMessage is returned with every delivered submission
const SuccessMessage = "Email sent successfully"

// ResultKind is the outcome of one submission
type ResultKind int

const (
	ResultSuccess ResultKind = iota
	ResultValidationFailed
	ResultFileInvalid
	ResultSendFailed
	ResultInternalError
)

// String returns the metrics label for the kind
func (k ResultKind) String() string {
	switch k {
	case ResultSuccess:
		return metrics.OutcomeSuccess
	case ResultValidationFailed:
		return metrics.OutcomeValidationFailed
	case ResultFileInvalid:
		return metrics.OutcomeFileInvalid
	case ResultSendFailed:
		return metrics.OutcomeSendFailed
	default:
		return metrics.OutcomeInternalError
	}
}

// Result is the outcome of Submit. Response is set only for ResultSuccess;
// Details lists field violations for ResultValidationFailed. Err carries
// the typed error for every failure kind.
type Result struct {
	Kind     ResultKind
	Response *models.SendResponse
	Details  []string
	Err      error
}

// OK reports whether the email was handed to the transport
func (r Result) OK() bool {
	return r.Kind == ResultSuccess
}

// SubmitRequest is one form submission with its uploaded files
type SubmitRequest struct {
	Form        models.FormSubmission
	Attachments []models.Attachment
	// Recipient overrides the configured default when non-blank
	Recipient string
	RequestID string
	// BindErrors are "field: message" violations found while decoding the
	// request; they fail validation like any other field rule
	BindErrors []string
}

// SubmissionService relays form submissions by email
type SubmissionService interface {
	Submit(ctx context.Context, req SubmitRequest) Result
}

// Sender delivers a built email. *mailer.Dispatcher implements it.
type Sender interface {
	Dispatch(ctx context.Context, email models.OutboundEmail, requestID string) error
}

// PipelineConfig holds the relay settings resolved at startup
type PipelineConfig struct {
	DefaultRecipient string
	// Sender is the From address, used for logging only
	Sender      string
	MaxFileSize int64
}

// Pipeline validates a submission, builds and sends the email, then writes
// exactly one audit record whatever the outcome
type Pipeline struct {
	cfg     PipelineConfig
	sender  Sender
	auditor Auditor
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewPipeline creates a Pipeline. Metrics and logger may be nil.
func NewPipeline(cfg PipelineConfig, sender Sender, auditor Auditor, m *metrics.Metrics, logger *slog.Logger) *Pipeline {
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = validator.DefaultMaxFileSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		cfg:     cfg,
		sender:  sender,
		auditor: auditor,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

// submission carries the per-request state through the pipeline stages
type submission struct {
	req       SubmitRequest
	recipient string
	subject   string
	fileNames []string
	audited   bool
	log       *slog.Logger
}

// Submit runs the pipeline for one request
func (p *Pipeline) Submit(ctx context.Context, req SubmitRequest) (res Result) {
	s := &submission{
		req:       req,
		recipient: p.resolveRecipient(req.Recipient),
		subject:   content.Subject(req.Form),
		fileNames: models.AttachmentNames(req.Attachments),
	}
	s.log = p.logger.With(
		slog.String("request_id", req.RequestID),
		slog.String("recipient", s.recipient),
		slog.Int("file_count", len(req.Attachments)),
	)
	s.log.Info("submission started", slog.String("sender", p.cfg.Sender))

	defer func() {
		if r := recover(); r != nil {
			s.log.Error("submission panicked", slog.Any("panic", r))
			res = p.fail(ctx, s, ResultInternalError, fmt.Errorf("%w: %v", apperrors.ErrInternal, r))
		}
	}()

	// Validating
	if err := validateRequest(req); err != nil {
		return p.fail(ctx, s, ResultValidationFailed, err)
	}
	if err := validator.ValidateAttachments(req.Attachments, p.cfg.MaxFileSize); err != nil {
		return p.fail(ctx, s, ResultFileInvalid, err)
	}

	// Building
	email := content.Build(req.Form, s.recipient, req.Attachments)

	// Sending
	start := time.Now()
	err := p.sender.Dispatch(ctx, email, req.RequestID)
	p.metrics.ObserveSend(time.Since(start))
	if err != nil {
		if !apperrors.IsSendFailed(err) {
			err = apperrors.NewSendError(err)
		}
		return p.fail(ctx, s, ResultSendFailed, err)
	}

	// Auditing
	sendDate := p.now().UTC()
	p.audit(ctx, s, models.SendStatusSuccess, sendDate)

	for _, att := range req.Attachments {
		p.metrics.RecordAttachment(att.Size)
	}
	p.metrics.RecordSubmission(ResultSuccess.String())
	s.log.Info("email sent", slog.Duration("send_duration", time.Since(start)))

	return Result{
		Kind: ResultSuccess,
		Response: &models.SendResponse{
			Status:    models.SendStatusSuccess,
			Message:   SuccessMessage,
			SendDate:  sendDate,
			Recipient: s.recipient,
			FileCount: len(req.Attachments),
			FileNames: s.fileNames,
			RequestID: req.RequestID,
		},
	}
}

// fail audits the failure, unless an audit write was already attempted, and
// builds the failure result
func (p *Pipeline) fail(ctx context.Context, s *submission, kind ResultKind, err error) Result {
	if !s.audited {
		p.audit(ctx, s, models.ErrorStatus(err.Error()), p.now().UTC())
	}

	p.metrics.RecordSubmission(kind.String())
	s.log.Warn("submission failed",
		slog.String("outcome", kind.String()),
		slog.Any("error", err))

	res := Result{Kind: kind, Err: err}
	if vErr := apperrors.GetValidationError(err); vErr != nil {
		res.Details = vErr.Details
	}
	return res
}

// audit writes the single audit row. A panic while recording is contained
// here so the send outcome already decided stays the one reported.
func (p *Pipeline) audit(ctx context.Context, s *submission, status string, sendDate time.Time) {
	s.audited = true
	defer func() {
		if r := recover(); r != nil {
			p.metrics.RecordAuditWriteFailure()
			s.log.Error("audit write panicked",
				slog.String("status", status),
				slog.Any("panic", r))
		}
	}()
	// Record logs and counts its own failures
	_, _ = p.auditor.Record(ctx, AuditEntry{
		RequestID:    s.req.RequestID,
		Form:         s.req.Form,
		Recipient:    s.recipient,
		EmailSubject: s.subject,
		FileNames:    s.fileNames,
		Status:       status,
		SendDate:     sendDate,
	})
}

func (p *Pipeline) resolveRecipient(recipient string) string {
	if r := strings.TrimSpace(recipient); r != "" {
		return r
	}
	return p.cfg.DefaultRecipient
}

// validateRequest merges form and recipient violations into one error
func validateRequest(req SubmitRequest) error {
	details := append([]string(nil), req.BindErrors...)
	if vErr := apperrors.GetValidationError(validator.ValidateSubmission(req.Form)); vErr != nil {
		details = append(details, vErr.Details...)
	}
	if vErr := apperrors.GetValidationError(validator.ValidateRecipient(req.Recipient)); vErr != nil {
		details = append(details, vErr.Details...)
	}
	if len(details) > 0 {
		return apperrors.NewValidationError(details)
	}
	return nil
}
