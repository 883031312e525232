package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/welldanyogia/webrana-formmail-backend/internal/models"
	"github.com/welldanyogia/webrana-formmail-backend/internal/repository"
)

// MockAuditRepository implements repository.AuditRepository
type MockAuditRepository struct {
	mock.Mock
}

// Create inserts an audit record
func (m *MockAuditRepository) Create(ctx context.Context, record *models.EmailAudit) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

// GetByID retrieves an audit record by its ID
func (m *MockAuditRepository) GetByID(ctx context.Context, id uint) (*models.EmailAudit, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EmailAudit), args.Error(1)
}

// ListBetween retrieves records sent within [start, end]
func (m *MockAuditRepository) ListBetween(ctx context.Context, start, end time.Time) ([]models.EmailAudit, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.EmailAudit), args.Error(1)
}

// ListAll retrieves every record
func (m *MockAuditRepository) ListAll(ctx context.Context) ([]models.EmailAudit, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.EmailAudit), args.Error(1)
}

// ListSince retrieves records sent after since
func (m *MockAuditRepository) ListSince(ctx context.Context, since time.Time) ([]models.EmailAudit, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.EmailAudit), args.Error(1)
}

// Search retrieves one page of matching records and the total count
func (m *MockAuditRepository) Search(ctx context.Context, filter repository.AuditFilter) ([]models.EmailAudit, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.EmailAudit), args.Get(1).(int64), args.Error(2)
}

// CountByOutcome counts records per send status
func (m *MockAuditRepository) CountByOutcome(ctx context.Context) ([]models.StatusCount, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.StatusCount), args.Error(1)
}
