package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/welldanyogia/webrana-formmail-backend/internal/models"
)

// AuditFilter narrows an audit search. Empty fields match everything.
type AuditFilter struct {
	Recipient    string
	Organization string
	Limit        int
	Offset       int
}

// AuditRepository defines the interface for audit trail data access.
// Records are append-only: there is no update or delete.
type AuditRepository interface {
	Create(ctx context.Context, record *models.EmailAudit) error
	GetByID(ctx context.Context, id uint) (*models.EmailAudit, error)
	ListBetween(ctx context.Context, start, end time.Time) ([]models.EmailAudit, error)
	ListAll(ctx context.Context) ([]models.EmailAudit, error)
	ListSince(ctx context.Context, since time.Time) ([]models.EmailAudit, error)
	Search(ctx context.Context, filter AuditFilter) ([]models.EmailAudit, int64, error)
	CountByOutcome(ctx context.Context) ([]models.StatusCount, error)
}

// auditRepository implements AuditRepository using GORM
type auditRepository struct {
	db *gorm.DB
}

// NewAuditRepository creates a new AuditRepository instance
func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

// Create inserts a new audit record
func (r *auditRepository) Create(ctx context.Context, record *models.EmailAudit) error {
	if record == nil {
		return ErrInvalidInput
	}
	result := r.db.WithContext(ctx).Create(record)
	if result.Error != nil {
		return fmt.Errorf("failed to create audit record: %w", result.Error)
	}
	return nil
}

// GetByID retrieves an audit record by its ID
func (r *auditRepository) GetByID(ctx context.Context, id uint) (*models.EmailAudit, error) {
	var record models.EmailAudit
	result := r.db.WithContext(ctx).First(&record, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get audit record by ID: %w", result.Error)
	}
	return &record, nil
}

// ListBetween returns records sent within [start, end], newest first
func (r *auditRepository) ListBetween(ctx context.Context, start, end time.Time) ([]models.EmailAudit, error) {
	if end.Before(start) {
		return nil, ErrInvalidInput
	}

	var records []models.EmailAudit
	result := r.newestFirst(ctx).
		Where("send_date >= ? AND send_date <= ?", start, end).
		Find(&records)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list audit records by date: %w", result.Error)
	}
	return records, nil
}

// ListAll returns every record, newest first
func (r *auditRepository) ListAll(ctx context.Context) ([]models.EmailAudit, error) {
	var records []models.EmailAudit
	if err := r.newestFirst(ctx).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list audit records: %w", err)
	}
	return records, nil
}

// ListSince returns records sent at or after since, newest first
func (r *auditRepository) ListSince(ctx context.Context, since time.Time) ([]models.EmailAudit, error) {
	var records []models.EmailAudit
	result := r.newestFirst(ctx).Where("send_date >= ?", since).Find(&records)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list recent audit records: %w", result.Error)
	}
	return records, nil
}

// Search matches recipient and organization name case-insensitively by
// substring, with pagination. It returns the page and the total match count.
func (r *auditRepository) Search(ctx context.Context, filter AuditFilter) ([]models.EmailAudit, int64, error) {
	matches := func(db *gorm.DB) *gorm.DB {
		if recipient := strings.TrimSpace(filter.Recipient); recipient != "" {
			db = db.Where(`LOWER(recipient) LIKE ? ESCAPE '\'`, containsPattern(recipient))
		}
		if org := strings.TrimSpace(filter.Organization); org != "" {
			db = db.Where(`LOWER(organization_name) LIKE ? ESCAPE '\'`, containsPattern(org))
		}
		return db
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.EmailAudit{}).Scopes(matches).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count audit records: %w", err)
	}

	var records []models.EmailAudit
	result := r.newestFirst(ctx).
		Scopes(matches).
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&records)
	if result.Error != nil {
		return nil, 0, fmt.Errorf("failed to search audit records: %w", result.Error)
	}

	return records, total, nil
}

// CountByOutcome counts successful and failed attempts. Every failure
// status carries its own cause, so failures are grouped by prefix.
func (r *auditRepository) CountByOutcome(ctx context.Context) ([]models.StatusCount, error) {
	var success, failure int64

	if err := r.db.WithContext(ctx).Model(&models.EmailAudit{}).
		Where("send_status = ?", models.SendStatusSuccess).
		Count(&success).Error; err != nil {
		return nil, fmt.Errorf("failed to count successful sends: %w", err)
	}

	if err := r.db.WithContext(ctx).Model(&models.EmailAudit{}).
		Where("send_status LIKE ?", models.SendStatusErrorPrefix+"%").
		Count(&failure).Error; err != nil {
		return nil, fmt.Errorf("failed to count failed sends: %w", err)
	}

	return []models.StatusCount{
		{Status: models.SendStatusSuccess, Count: success},
		{Status: models.StatusError, Count: failure},
	}, nil
}

func (r *auditRepository) newestFirst(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Order("send_date DESC").Order("id DESC")
}
