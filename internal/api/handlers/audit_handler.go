package handlers

import (
	"errors"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/welldanyogia/webrana-formmail-backend/internal/api/response"
	"github.com/welldanyogia/webrana-formmail-backend/internal/repository"
	"github.com/welldanyogia/webrana-formmail-backend/internal/services"
)

// HistoryDateLayout is the startDate/endDate query format
const HistoryDateLayout = "2006-01-02T15:04:05"

// AuditHandler handles audit trail HTTP requests
type AuditHandler struct {
	service services.AuditQueryService
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(service services.AuditQueryService) *AuditHandler {
	return &AuditHandler{service: service}
}

// History handles GET /api/emails/history
func (h *AuditHandler) History(c echo.Context) error {
	start, err := parseDateParam(c, "startDate")
	if err != nil {
		return response.BadRequest(c, "invalid startDate, expected "+HistoryDateLayout)
	}
	end, err := parseDateParam(c, "endDate")
	if err != nil {
		return response.BadRequest(c, "invalid endDate, expected "+HistoryDateLayout)
	}

	records, err := h.service.History(c.Request().Context(), start, end)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, records)
}

// Recent handles GET /api/emails/recent
func (h *AuditHandler) Recent(c echo.Context) error {
	records, err := h.service.Recent(c.Request().Context())
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, records)
}

// Search handles GET /api/emails/search
func (h *AuditHandler) Search(c echo.Context) error {
	limit, err := intParam(c, "limit")
	if err != nil {
		return response.BadRequest(c, "invalid limit")
	}
	offset, err := intParam(c, "offset")
	if err != nil {
		return response.BadRequest(c, "invalid offset")
	}

	result, err := h.service.Search(c.Request().Context(), repository.AuditFilter{
		Recipient:    c.QueryParam("recipient"),
		Organization: c.QueryParam("organization"),
		Limit:        limit,
		Offset:       offset,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, result.Records, result.Total, result.Limit, result.Offset)
}

// Get handles GET /api/emails/audit/:id
func (h *AuditHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "invalid audit record ID")
	}

	record, err := h.service.Get(c.Request().Context(), uint(id))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "audit record not found")
		}
		return response.Error(c, err)
	}

	return response.Success(c, record)
}

// Stats handles GET /api/emails/stats
func (h *AuditHandler) Stats(c echo.Context) error {
	counts, err := h.service.Stats(c.Request().Context())
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, counts)
}

// parseDateParam returns nil for an absent parameter. Values without a zone
// are read as UTC; RFC 3339 is accepted as well.
func parseDateParam(c echo.Context, name string) (*time.Time, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}

	t, err := time.ParseInLocation(HistoryDateLayout, raw, time.UTC)
	if err != nil {
		t, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, err
		}
	}
	t = t.UTC()
	return &t, nil
}

func intParam(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
