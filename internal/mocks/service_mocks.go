package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/welldanyogia/webrana-formmail-backend/internal/models"
	"github.com/welldanyogia/webrana-formmail-backend/internal/repository"
	"github.com/welldanyogia/webrana-formmail-backend/internal/services"
)

// MockSubmissionService implements services.SubmissionService
type MockSubmissionService struct {
	mock.Mock
}

// Submit relays a form submission
func (m *MockSubmissionService) Submit(ctx context.Context, req services.SubmitRequest) services.Result {
	args := m.Called(ctx, req)
	return args.Get(0).(services.Result)
}

// MockAuditQueryService implements services.AuditQueryService
type MockAuditQueryService struct {
	mock.Mock
}

// History returns records in a date range
func (m *MockAuditQueryService) History(ctx context.Context, start, end *time.Time) ([]models.EmailAudit, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.EmailAudit), args.Error(1)
}

// Recent returns records from the last 24 hours
func (m *MockAuditQueryService) Recent(ctx context.Context) ([]models.EmailAudit, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.EmailAudit), args.Error(1)
}

// Search returns one page of matching records
func (m *MockAuditQueryService) Search(ctx context.Context, filter repository.AuditFilter) (*services.SearchResult, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SearchResult), args.Error(1)
}

// Get returns a single record
func (m *MockAuditQueryService) Get(ctx context.Context, id uint) (*models.EmailAudit, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EmailAudit), args.Error(1)
}

// Stats counts records per outcome
func (m *MockAuditQueryService) Stats(ctx context.Context) ([]models.StatusCount, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.StatusCount), args.Error(1)
}
