package services

import (
	"context"
	"fmt"
	"time"

	"github.com/welldanyogia/webrana-formmail-backend/internal/models"
	"github.com/welldanyogia/webrana-formmail-backend/internal/repository"
	"github.com/welldanyogia/webrana-formmail-backend/internal/validator"
)

// RecentWindow is how far back Recent looks
const RecentWindow = 24 * time.Hour

// SearchResult is one page of audit search results
type SearchResult struct {
	Records []models.EmailAudit
	Total   int64
	Limit   int
	Offset  int
}

// AuditQueryService defines the read side of the audit trail
type AuditQueryService interface {
	// History returns records with start <= sendDate <= end, newest first.
	// When either bound is nil every record is returned.
	History(ctx context.Context, start, end *time.Time) ([]models.EmailAudit, error)

	// Recent returns records from the last 24 hours, newest first
	Recent(ctx context.Context) ([]models.EmailAudit, error)

	// Search matches recipient and organization case-insensitively.
	// Limit and offset are normalized before the query runs.
	Search(ctx context.Context, filter repository.AuditFilter) (*SearchResult, error)

	// Get returns a single record
	Get(ctx context.Context, id uint) (*models.EmailAudit, error)

	// Stats counts records per outcome
	Stats(ctx context.Context) ([]models.StatusCount, error)
}

// auditQueryService implements AuditQueryService
type auditQueryService struct {
	repo repository.AuditRepository
	now  func() time.Time
}

// NewAuditQueryService creates a new AuditQueryService instance
func NewAuditQueryService(repo repository.AuditRepository) AuditQueryService {
	return &auditQueryService{repo: repo, now: time.Now}
}

func (s *auditQueryService) History(ctx context.Context, start, end *time.Time) ([]models.EmailAudit, error) {
	if start == nil || end == nil {
		return s.repo.ListAll(ctx)
	}
	if end.Before(*start) {
		return nil, fmt.Errorf("%w: endDate must not be before startDate", repository.ErrInvalidInput)
	}
	// send_date is stored in UTC; sqlite compares it as text
	return s.repo.ListBetween(ctx, start.UTC(), end.UTC())
}

func (s *auditQueryService) Recent(ctx context.Context) ([]models.EmailAudit, error) {
	return s.repo.ListSince(ctx, s.now().UTC().Add(-RecentWindow))
}

func (s *auditQueryService) Search(ctx context.Context, filter repository.AuditFilter) (*SearchResult, error) {
	filter.Limit, filter.Offset = validator.ValidatePagination(filter.Limit, filter.Offset)

	records, total, err := s.repo.Search(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &SearchResult{
		Records: records,
		Total:   total,
		Limit:   filter.Limit,
		Offset:  filter.Offset,
	}, nil
}

func (s *auditQueryService) Get(ctx context.Context, id uint) (*models.EmailAudit, error) {
	if id == 0 {
		return nil, repository.ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

func (s *auditQueryService) Stats(ctx context.Context) ([]models.StatusCount, error) {
	return s.repo.CountByOutcome(ctx)
}
