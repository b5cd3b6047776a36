package fiscal

import (
	"context"

	domain "github.com/fiscalhub/backend/internal/domain/fiscal"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// =============================================================================
// Mock Repository
// =============================================================================

type MockDocumentRepository struct {
	mock.Mock
}

var _ domain.DocumentRepository = (*MockDocumentRepository)(nil)

func (m *MockDocumentRepository) FindByID(ctx context.Context, tenantID, branchID, id uuid.UUID) (*domain.FiscalDocument, error) {
	args := m.Called(ctx, tenantID, branchID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FiscalDocument), args.Error(1)
}

func (m *MockDocumentRepository) FindByAccessKey(ctx context.Context, tenantID, branchID uuid.UUID, key domain.AccessKey) (*domain.FiscalDocument, error) {
	args := m.Called(ctx, tenantID, branchID, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FiscalDocument), args.Error(1)
}

func (m *MockDocumentRepository) FindByNumber(ctx context.Context, tenantID, branchID uuid.UUID, docType domain.DocumentType, series, number string) (*domain.FiscalDocument, error) {
	args := m.Called(ctx, tenantID, branchID, docType, series, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FiscalDocument), args.Error(1)
}

func (m *MockDocumentRepository) FindAll(ctx context.Context, tenantID, branchID uuid.UUID, filter domain.DocumentFilter) ([]domain.FiscalDocument, error) {
	args := m.Called(ctx, tenantID, branchID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FiscalDocument), args.Error(1)
}

func (m *MockDocumentRepository) Count(ctx context.Context, tenantID, branchID uuid.UUID, filter domain.DocumentFilter) (int64, error) {
	args := m.Called(ctx, tenantID, branchID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDocumentRepository) Save(ctx context.Context, doc *domain.FiscalDocument) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockDocumentRepository) SaveMany(ctx context.Context, docs []*domain.FiscalDocument) error {
	args := m.Called(ctx, docs)
	return args.Error(0)
}

func (m *MockDocumentRepository) Exists(ctx context.Context, tenantID, branchID, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, branchID, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockDocumentRepository) NextDocumentNumber(ctx context.Context, tenantID, branchID uuid.UUID, docType domain.DocumentType, series string) (string, error) {
	args := m.Called(ctx, tenantID, branchID, docType, series)
	return args.String(0), args.Error(1)
}

func (m *MockDocumentRepository) Delete(ctx context.Context, tenantID, branchID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, branchID, id)
	return args.Error(0)
}

// =============================================================================
// Mock Tax Authority Gateway
// =============================================================================

type MockTaxAuthorityGateway struct {
	mock.Mock
}

var _ domain.TaxAuthorityGateway = (*MockTaxAuthorityGateway)(nil)

func (m *MockTaxAuthorityGateway) Transmit(ctx context.Context, req *domain.TransmitRequest) (*domain.TransmitReceipt, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TransmitReceipt), args.Error(1)
}

func (m *MockTaxAuthorityGateway) QueryAuthorization(ctx context.Context, tenantID uuid.UUID, receiptNumber string) (*domain.AuthorizationResult, error) {
	args := m.Called(ctx, tenantID, receiptNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AuthorizationResult), args.Error(1)
}

func (m *MockTaxAuthorityGateway) Cancel(ctx context.Context, req *domain.CancelDocumentRequest) (*domain.CancellationResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CancellationResult), args.Error(1)
}

func (m *MockTaxAuthorityGateway) QueryStatus(ctx context.Context, tenantID uuid.UUID, key domain.AccessKey) (*domain.StatusResult, error) {
	args := m.Called(ctx, tenantID, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StatusResult), args.Error(1)
}
