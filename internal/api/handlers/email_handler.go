package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/welldanyogia/webrana-formmail-backend/internal/api/middleware"
	"github.com/welldanyogia/webrana-formmail-backend/internal/api/response"
	apperrors "github.com/welldanyogia/webrana-formmail-backend/internal/errors"
	"github.com/welldanyogia/webrana-formmail-backend/internal/logger"
	"github.com/welldanyogia/webrana-formmail-backend/internal/models"
	"github.com/welldanyogia/webrana-formmail-backend/internal/services"
	"github.com/welldanyogia/webrana-formmail-backend/internal/validator"
)

// Multipart field names
const (
	FieldFiles     = "files"
	FieldFormData  = "formData"
	FieldRecipient = "recipient"
)

// ServiceUpMessage is returned by the email service health check
const ServiceUpMessage = "Email service is running"

// EmailHandler handles form submission HTTP requests
type EmailHandler struct {
	service       services.SubmissionService
	secLogger     *logger.SecurityLogger
	logger        *slog.Logger
	maxUploadSize int64
}

// NewEmailHandler creates a new EmailHandler
func NewEmailHandler(
	service services.SubmissionService,
	secLogger *logger.SecurityLogger,
	logger *slog.Logger,
	maxUploadSize int64,
) *EmailHandler {
	return &EmailHandler{
		service:       service,
		secLogger:     secLogger,
		logger:        logger,
		maxUploadSize: maxUploadSize,
	}
}

// Send handles POST /api/emails/send with the form as plain multipart fields
func (h *EmailHandler) Send(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return h.multipartError(c, err)
	}

	submission, bindErrs := formFromFields(form)
	return h.submit(c, form, submission, bindErrs)
}

// SendJSON handles POST /api/emails/send-json where the form arrives as a
// JSON "formData" part next to the files
func (h *EmailHandler) SendJSON(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return h.multipartError(c, err)
	}

	// An unreadable formData still goes through the pipeline so that the
	// rejection is audited
	var submission models.FormSubmission
	var bindErrs []string
	raw, err := formDataPart(form)
	if err != nil {
		bindErrs = append(bindErrs, FieldFormData+": "+err.Error())
	} else if err := json.Unmarshal(raw, &submission); err != nil {
		bindErrs = append(bindErrs, FieldFormData+": must be valid JSON")
	}

	return h.submit(c, form, submission, bindErrs)
}

// Health handles GET /api/emails/health
func (h *EmailHandler) Health(c echo.Context) error {
	return response.SuccessWithMessage(c, nil, ServiceUpMessage)
}

func (h *EmailHandler) submit(c echo.Context, form *multipart.Form, submission models.FormSubmission, bindErrs []string) error {
	attachments, err := h.readAttachments(c, form.File[FieldFiles])
	if err != nil {
		return h.multipartError(c, err)
	}

	recipient := c.QueryParam(FieldRecipient)
	if strings.TrimSpace(recipient) == "" {
		recipient = firstValue(form, FieldRecipient)
	}

	res := h.service.Submit(c.Request().Context(), services.SubmitRequest{
		Form:        submission,
		Attachments: attachments,
		Recipient:   recipient,
		RequestID:   middleware.GetRequestID(c),
		BindErrors:  bindErrs,
	})

	if res.OK() {
		return response.Success(c, res.Response)
	}

	if res.Kind == services.ResultFileInvalid && h.secLogger != nil {
		if fErr := apperrors.GetFileProcessingError(res.Err); fErr != nil {
			h.secLogger.BlockedFileUpload(c.RealIP(), fErr.Filename, fErr.Message)
		}
	}

	return response.Error(c, res.Err)
}

// readAttachments loads every uploaded file into memory. Filenames carrying
// path elements are sanitized and reported.
func (h *EmailHandler) readAttachments(c echo.Context, headers []*multipart.FileHeader) ([]models.Attachment, error) {
	attachments := make([]models.Attachment, 0, len(headers))
	for _, fh := range headers {
		name := fh.Filename
		if clean := validator.SanitizeFilename(name); clean != name && name != "" {
			if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
				if h.secLogger != nil {
					h.secLogger.PathTraversalAttempt(c.RealIP(), c.Request().URL.Path, name)
				}
			}
			name = clean
		}

		content, err := readFile(fh)
		if err != nil {
			return nil, fmt.Errorf("failed to read uploaded file %s: %w", name, err)
		}

		attachments = append(attachments, models.NewAttachment(name, fh.Header.Get(echo.HeaderContentType), content))
	}
	return attachments, nil
}

func (h *EmailHandler) multipartError(c echo.Context, err error) error {
	var maxBytesErr *http.MaxBytesError
	if errors.Is(err, echo.ErrStatusRequestEntityTooLarge) || errors.As(err, &maxBytesErr) {
		return response.PayloadTooLarge(c, h.maxUploadSize)
	}
	if h.logger != nil {
		h.logger.Warn("failed to parse multipart request",
			slog.String("request_id", middleware.GetRequestID(c)),
			slog.Any("error", err))
	}
	return response.BadRequest(c, "request must be multipart/form-data with form fields and files")
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// formFromFields binds the plain multipart variant. lgpdCompliance defaults
// to false when absent; an unparsable value is returned as a field violation.
func formFromFields(form *multipart.Form) (models.FormSubmission, []string) {
	submission := models.FormSubmission{
		OrganizationName:   firstValue(form, "organizationName"),
		ResponsibleContact: firstValue(form, "responsibleContact"),
		Subject:            firstValue(form, "subject"),
		ReferencePeriod:    firstValue(form, "referencePeriod"),
		DataDescription:    firstValue(form, "dataDescription"),
	}

	if raw := strings.TrimSpace(firstValue(form, "lgpdCompliance")); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return submission, []string{"lgpdCompliance: must be true or false"}
		}
		submission.LGPDCompliance = v
	}

	return submission, nil
}

// formDataPart accepts formData either as a text field or as a file part
// with an application/json body
func formDataPart(form *multipart.Form) ([]byte, error) {
	if v, ok := form.Value[FieldFormData]; ok && len(v) > 0 {
		return []byte(v[0]), nil
	}
	if files := form.File[FieldFormData]; len(files) > 0 {
		raw, err := readFile(files[0])
		if err != nil {
			return nil, errors.New("part could not be read")
		}
		return raw, nil
	}
	return nil, errors.New("part is required")
}

func firstValue(form *multipart.Form, key string) string {
	if v := form.Value[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}
