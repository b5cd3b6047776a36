package fiscal

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/fiscalhub/backend/internal/domain/fiscal"
	"github.com/fiscalhub/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newPendingDocument(t *testing.T, tenantID, branchID uuid.UUID, docType domain.DocumentType) *domain.FiscalDocument {
	doc := newTestDraft(t, tenantID, branchID, docType)
	addTestItem(t, doc, 10, 50)
	require.NoError(t, doc.Submit())
	return doc
}

func newAuthorizedDocument(t *testing.T, tenantID, branchID uuid.UUID, authorizedAt time.Time) *domain.FiscalDocument {
	doc := newPendingDocument(t, tenantID, branchID, domain.DocumentTypeNFE)
	require.NoError(t, doc.Process())

	key, err := domain.GenerateAccessKey(domain.AccessKeyParts{
		UFCode:       "35",
		YearMonth:    "2601",
		CNPJ:         "12345678000195",
		Model:        "55",
		Series:       "1",
		Number:       "1",
		EmissionType: "1",
		Code:         "00000042",
	})
	require.NoError(t, err)
	require.NoError(t, doc.Authorize(domain.AuthorizeParams{
		AccessKey:      key,
		ProtocolNumber: "135260000000001",
		ProtocolDate:   authorizedAt,
	}))
	doc.ClearDomainEvents()
	return doc
}

func TestTransmissionService_Transmit(t *testing.T) {
	repo := new(MockDocumentRepository)
	gateway := new(MockTaxAuthorityGateway)
	svc := NewTransmissionService(repo, gateway, zap.NewNop())
	tenantID, branchID := uuid.New(), uuid.New()
	doc := newPendingDocument(t, tenantID, branchID, domain.DocumentTypeNFE)

	repo.On("FindByID", mock.Anything, tenantID, branchID, doc.ID).Return(doc, nil)
	gateway.On("Transmit", mock.Anything, mock.MatchedBy(func(req *domain.TransmitRequest) bool {
		return req.DocumentID == doc.ID && !req.AccessKey.IsZero()
	})).Return(&domain.TransmitReceipt{
		ReceiptNumber: "351000000000001",
		StatusCode:    domain.AuthorityCodeProcessing,
		Message:       "Batch received, processing",
		ReceivedAt:    time.Now(),
	}, nil)
	repo.On("Save", mock.Anything, doc).Return(nil)

	resp, err := svc.Transmit(context.Background(), tenantID, branchID, doc.ID)

	require.NoError(t, err)
	assert.Equal(t, "PROCESSING", resp.Status)
	assert.Equal(t, domain.AuthorityCodeProcessing, resp.StatusCode)
	assert.Equal(t, "351000000000001", resp.ReceiptNumber)
	gateway.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestTransmissionService_Transmit_GatewayUnavailable(t *testing.T) {
	repo := new(MockDocumentRepository)
	gateway := new(MockTaxAuthorityGateway)
	svc := NewTransmissionService(repo, gateway, zap.NewNop())
	tenantID, branchID := uuid.New(), uuid.New()
	doc := newPendingDocument(t, tenantID, branchID, domain.DocumentTypeNFE)

	repo.On("FindByID", mock.Anything, tenantID, branchID, doc.ID).Return(doc, nil)
	gateway.On("Transmit", mock.Anything, mock.Anything).Return(nil, domain.ErrAuthorityUnavailable)

	_, err := svc.Transmit(context.Background(), tenantID, branchID, doc.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrAuthorityUnavailable))
	repo.AssertNotCalled(t, "Save")
}

func TestTransmissionService_Transmit_ServiceInvoiceResolvesSynchronously(t *testing.T) {
	repo := new(MockDocumentRepository)
	gateway := new(MockTaxAuthorityGateway)
	svc := NewTransmissionService(repo, gateway, zap.NewNop())
	tenantID, branchID := uuid.New(), uuid.New()
	doc := newPendingDocument(t, tenantID, branchID, domain.DocumentTypeNFSE)

	key, err := domain.GenerateAccessKey(domain.AccessKeyParts{
		UFCode:       "35",
		YearMonth:    "2601",
		CNPJ:         "12345678000195",
		Model:        "99",
		Series:       "1",
		Number:       "1",
		EmissionType: "1",
		Code:         "00000042",
	})
	require.NoError(t, err)

	repo.On("FindByID", mock.Anything, tenantID, branchID, doc.ID).Return(doc, nil)
	gateway.On("Transmit", mock.Anything, mock.Anything).Return(&domain.TransmitReceipt{
		ReceiptNumber: "351000000000002",
		StatusCode:    domain.AuthorityCodeProcessing,
	}, nil)
	gateway.On("QueryAuthorization", mock.Anything, tenantID, "351000000000002").Return(&domain.AuthorizationResult{
		Status:         domain.AuthorityStatusAuthorized,
		StatusCode:     domain.AuthorityCodeAuthorized,
		Message:        "Authorized",
		AccessKey:      key,
		ProtocolNumber: "135260000000009",
		ProtocolDate:   time.Now(),
	}, nil)
	repo.On("Save", mock.Anything, doc).Return(nil)

	resp, err := svc.Transmit(context.Background(), tenantID, branchID, doc.ID)

	require.NoError(t, err)
	assert.Equal(t, "AUTHORIZED", resp.Status)
	assert.Equal(t, domain.AuthorityCodeAuthorized, resp.StatusCode)
	require.NotNil(t, doc.AccessKey)
	gateway.AssertExpectations(t)
}

func TestTransmissionService_CheckAuthorization_Authorized(t *testing.T) {
	repo := new(MockDocumentRepository)
	gateway := new(MockTaxAuthorityGateway)
	svc := NewTransmissionService(repo, gateway, zap.NewNop())
	tenantID, branchID := uuid.New(), uuid.New()
	doc := newPendingDocument(t, tenantID, branchID, domain.DocumentTypeNFE)
	require.NoError(t, doc.Process())

	key, err := domain.GenerateAccessKey(domain.AccessKeyParts{
		UFCode:       "35",
		YearMonth:    "2601",
		CNPJ:         "12345678000195",
		Model:        "55",
		Series:       "1",
		Number:       "1",
		EmissionType: "1",
		Code:         "00000042",
	})
	require.NoError(t, err)

	protocolDate := time.Now().Add(-time.Hour)
	repo.On("FindByID", mock.Anything, tenantID, branchID, doc.ID).Return(doc, nil)
	gateway.On("QueryAuthorization", mock.Anything, tenantID, "351000000000001").Return(&domain.AuthorizationResult{
		Status:         domain.AuthorityStatusAuthorized,
		StatusCode:     domain.AuthorityCodeAuthorized,
		AccessKey:      key,
		ProtocolNumber: "135260000000001",
		ProtocolDate:   protocolDate,
	}, nil)
	repo.On("Save", mock.Anything, doc).Return(nil)

	resp, err := svc.CheckAuthorization(context.Background(), tenantID, branchID, doc.ID, "351000000000001")

	require.NoError(t, err)
	assert.Equal(t, "AUTHORIZED", resp.Status)
	require.NotNil(t, doc.AuthorizedAt)
	assert.True(t, doc.AuthorizedAt.Equal(protocolDate))
}

func TestTransmissionService_CheckAuthorization_StillProcessing(t *testing.T) {
	repo := new(MockDocumentRepository)
	gateway := new(MockTaxAuthorityGateway)
	svc := NewTransmissionService(repo, gateway, zap.NewNop())
	tenantID, branchID := uuid.New(), uuid.New()
	doc := newPendingDocument(t, tenantID, branchID, domain.DocumentTypeNFE)
	require.NoError(t, doc.Process())

	repo.On("FindByID", mock.Anything, tenantID, branchID, doc.ID).Return(doc, nil)
	gateway.On("QueryAuthorization", mock.Anything, tenantID, "351000000000001").Return(&domain.AuthorizationResult{
		Status:     domain.AuthorityStatusProcessing,
		StatusCode: domain.AuthorityCodeProcessing,
	}, nil)

	resp, err := svc.CheckAuthorization(context.Background(), tenantID, branchID, doc.ID, "351000000000001")

	require.NoError(t, err)
	assert.Equal(t, "PROCESSING", resp.Status)
	repo.AssertNotCalled(t, "Save")
}

func TestTransmissionService_CheckAuthorization_Rejected(t *testing.T) {
	repo := new(MockDocumentRepository)
	gateway := new(MockTaxAuthorityGateway)
	svc := NewTransmissionService(repo, gateway, zap.NewNop())
	tenantID, branchID := uuid.New(), uuid.New()
	doc := newPendingDocument(t, tenantID, branchID, domain.DocumentTypeNFE)
	require.NoError(t, doc.Process())

	repo.On("FindByID", mock.Anything, tenantID, branchID, doc.ID).Return(doc, nil)
	gateway.On("QueryAuthorization", mock.Anything, tenantID, "351000000000001").Return(&domain.AuthorizationResult{
		Status:     domain.AuthorityStatusRejected,
		StatusCode: domain.AuthorityCodeDenied,
		Message:    "Usage denied due to registry irregularity",
	}, nil)
	repo.On("Save", mock.Anything, doc).Return(nil)

	resp, err := svc.CheckAuthorization(context.Background(), tenantID, branchID, doc.ID, "351000000000001")

	require.NoError(t, err)
	assert.Equal(t, "REJECTED", resp.Status)
	assert.Equal(t, domain.AuthorityCodeDenied, doc.RejectionCode)
}

func TestTransmissionService_CancelDocument(t *testing.T) {
	repo := new(MockDocumentRepository)
	gateway := new(MockTaxAuthorityGateway)
	svc := NewTransmissionService(repo, gateway, zap.NewNop())
	tenantID, branchID := uuid.New(), uuid.New()
	doc := newAuthorizedDocument(t, tenantID, branchID, time.Now())

	repo.On("FindByID", mock.Anything, tenantID, branchID, doc.ID).Return(doc, nil)
	gateway.On("Cancel", mock.Anything, mock.MatchedBy(func(req *domain.CancelDocumentRequest) bool {
		return req.AccessKey == *doc.AccessKey && len(req.Reason) >= domain.MinCancelReasonLength
	})).Return(&domain.CancellationResult{
		Status:         domain.AuthorityStatusCancelled,
		StatusCode:     domain.AuthorityCodeCancelHomologated,
		Message:        "Cancellation homologated",
		ProtocolNumber: "135260000000002",
	}, nil)
	repo.On("Save", mock.Anything, doc).Return(nil)

	resp, err := svc.CancelDocument(context.Background(), tenantID, branchID, doc.ID, &CancelDocumentCommand{
		Reason: "Order cancelled by the customer",
	})

	require.NoError(t, err)
	assert.Equal(t, "CANCELLED", resp.Status)
	assert.Equal(t, "135260000000002", doc.CancelProtocolNumber)
	gateway.AssertExpectations(t)
}

func TestTransmissionService_CancelDocument_PastWindowNeverReachesGateway(t *testing.T) {
	repo := new(MockDocumentRepository)
	gateway := new(MockTaxAuthorityGateway)
	svc := NewTransmissionService(repo, gateway, zap.NewNop())
	tenantID, branchID := uuid.New(), uuid.New()
	doc := newAuthorizedDocument(t, tenantID, branchID, time.Now().Add(-25*time.Hour))

	repo.On("FindByID", mock.Anything, tenantID, branchID, doc.ID).Return(doc, nil)

	_, err := svc.CancelDocument(context.Background(), tenantID, branchID, doc.ID, &CancelDocumentCommand{
		Reason: "Order cancelled by the customer",
	})

	require.Error(t, err)
	assert.True(t, shared.IsDomainError(err, shared.CodeCancellationDeadlineExpired))
	gateway.AssertNotCalled(t, "Cancel")
}

func TestTransmissionService_CancelDocument_AuthorityPastDeadline(t *testing.T) {
	repo := new(MockDocumentRepository)
	gateway := new(MockTaxAuthorityGateway)
	svc := NewTransmissionService(repo, gateway, zap.NewNop())
	tenantID, branchID := uuid.New(), uuid.New()
	doc := newAuthorizedDocument(t, tenantID, branchID, time.Now())

	repo.On("FindByID", mock.Anything, tenantID, branchID, doc.ID).Return(doc, nil)
	gateway.On("Cancel", mock.Anything, mock.Anything).Return(&domain.CancellationResult{
		Status:     domain.AuthorityStatusRejected,
		StatusCode: domain.AuthorityCodePastDeadline,
		Message:    "Cancellation past the regulatory deadline",
	}, nil)

	_, err := svc.CancelDocument(context.Background(), tenantID, branchID, doc.ID, &CancelDocumentCommand{
		Reason: "Order cancelled by the customer",
	})

	require.Error(t, err)
	assert.True(t, shared.IsDomainError(err, shared.CodeCancellationDeadlineExpired))
	assert.Equal(t, domain.DocumentStatusAuthorized, doc.Status)
	repo.AssertNotCalled(t, "Save")
}

func TestTransmissionService_QueryStatus(t *testing.T) {
	repo := new(MockDocumentRepository)
	gateway := new(MockTaxAuthorityGateway)
	svc := NewTransmissionService(repo, gateway, zap.NewNop())
	tenantID := uuid.New()

	key, err := domain.GenerateAccessKey(domain.AccessKeyParts{
		UFCode:       "35",
		YearMonth:    "2601",
		CNPJ:         "12345678000195",
		Model:        "55",
		Series:       "1",
		Number:       "1",
		EmissionType: "1",
		Code:         "00000042",
	})
	require.NoError(t, err)

	gateway.On("QueryStatus", mock.Anything, tenantID, key).Return(&domain.StatusResult{
		Status:     domain.AuthorityStatusAuthorized,
		StatusCode: domain.AuthorityCodeAuthorized,
	}, nil)

	result, err := svc.QueryStatus(context.Background(), tenantID, uuid.New(), key.String())
	require.NoError(t, err)
	assert.Equal(t, domain.AuthorityStatusAuthorized, result.Status)
}

func TestTransmissionService_AuthorizeDocument_ManualProtocolEntry(t *testing.T) {
	repo := new(MockDocumentRepository)
	gateway := new(MockTaxAuthorityGateway)
	svc := NewTransmissionService(repo, gateway, zap.NewNop())
	tenantID, branchID := uuid.New(), uuid.New()
	doc := newPendingDocument(t, tenantID, branchID, domain.DocumentTypeNFE)
	require.NoError(t, doc.Process())
	doc.ClearDomainEvents()

	repo.On("FindByID", mock.Anything, tenantID, branchID, doc.ID).Return(doc, nil)
	repo.On("Save", mock.Anything, doc).Return(nil)

	protocolDate := time.Now().Add(-time.Hour)
	resp, err := svc.AuthorizeDocument(context.Background(), tenantID, branchID, doc.ID, &AuthorizeDocumentCommand{
		ProtocolNumber: "135269999999999",
		ProtocolDate:   &protocolDate,
	})

	require.NoError(t, err)
	assert.Equal(t, "AUTHORIZED", resp.Status)
	assert.Equal(t, domain.AuthorityCodeAuthorized, resp.StatusCode)
	require.NotNil(t, doc.AccessKey)
	assert.Equal(t, "135269999999999", doc.ProtocolNumber)
	assert.WithinDuration(t, protocolDate, *doc.AuthorizedAt, time.Second)
	gateway.AssertNotCalled(t, "Transmit")
	repo.AssertExpectations(t)
}

func TestTransmissionService_AuthorizeDocument_RefusesPendingGoodsInvoice(t *testing.T) {
	repo := new(MockDocumentRepository)
	gateway := new(MockTaxAuthorityGateway)
	svc := NewTransmissionService(repo, gateway, zap.NewNop())
	tenantID, branchID := uuid.New(), uuid.New()
	doc := newPendingDocument(t, tenantID, branchID, domain.DocumentTypeNFE)

	repo.On("FindByID", mock.Anything, tenantID, branchID, doc.ID).Return(doc, nil)

	_, err := svc.AuthorizeDocument(context.Background(), tenantID, branchID, doc.ID, &AuthorizeDocumentCommand{
		ProtocolNumber: "135269999999999",
	})
	require.Error(t, err)
	assert.True(t, shared.IsDomainError(err, shared.CodeInvalidStatusTransition))
	repo.AssertNotCalled(t, "Save")
}

func TestTransmissionService_AuthorizeDocument_RejectsMalformedAccessKey(t *testing.T) {
	repo := new(MockDocumentRepository)
	gateway := new(MockTaxAuthorityGateway)
	svc := NewTransmissionService(repo, gateway, zap.NewNop())
	tenantID, branchID := uuid.New(), uuid.New()
	doc := newPendingDocument(t, tenantID, branchID, domain.DocumentTypeNFE)
	require.NoError(t, doc.Process())

	repo.On("FindByID", mock.Anything, tenantID, branchID, doc.ID).Return(doc, nil)

	_, err := svc.AuthorizeDocument(context.Background(), tenantID, branchID, doc.ID, &AuthorizeDocumentCommand{
		AccessKey:      "not-a-key",
		ProtocolNumber: "135269999999999",
	})
	require.Error(t, err)
	assert.True(t, shared.IsDomainError(err, shared.CodeInvalidAccessKey))
}

func TestTransmissionService_Transmit_SubmitsDraftFirst(t *testing.T) {
	repo := new(MockDocumentRepository)
	gateway := new(MockTaxAuthorityGateway)
	svc := NewTransmissionService(repo, gateway, zap.NewNop())
	tenantID, branchID := uuid.New(), uuid.New()
	doc := newTestDraft(t, tenantID, branchID, domain.DocumentTypeNFE)
	addTestItem(t, doc, 3, 25)

	repo.On("FindByID", mock.Anything, tenantID, branchID, doc.ID).Return(doc, nil)
	gateway.On("Transmit", mock.Anything, mock.Anything).Return(&domain.TransmitReceipt{
		ReceiptNumber: "351000000000007",
		StatusCode:    domain.AuthorityCodeProcessing,
	}, nil)
	repo.On("Save", mock.Anything, doc).Return(nil)

	resp, err := svc.Transmit(context.Background(), tenantID, branchID, doc.ID)

	require.NoError(t, err)
	assert.Equal(t, "PROCESSING", resp.Status)
	assert.Equal(t, domain.DocumentStatusProcessing, doc.Status)
}

func TestTransmissionService_Transmit_RefusesEmptyDraft(t *testing.T) {
	repo := new(MockDocumentRepository)
	gateway := new(MockTaxAuthorityGateway)
	svc := NewTransmissionService(repo, gateway, zap.NewNop())
	tenantID, branchID := uuid.New(), uuid.New()
	doc := newTestDraft(t, tenantID, branchID, domain.DocumentTypeNFE)

	repo.On("FindByID", mock.Anything, tenantID, branchID, doc.ID).Return(doc, nil)

	_, err := svc.Transmit(context.Background(), tenantID, branchID, doc.ID)
	require.Error(t, err)
	assert.True(t, shared.IsDomainError(err, shared.CodeEmptyDocument))
	gateway.AssertNotCalled(t, "Transmit")
}

func TestTransmissionService_Transmit_ServiceInvoiceStillProcessingPersists(t *testing.T) {
	repo := new(MockDocumentRepository)
	gateway := new(MockTaxAuthorityGateway)
	svc := NewTransmissionService(repo, gateway, zap.NewNop())
	tenantID, branchID := uuid.New(), uuid.New()
	doc := newPendingDocument(t, tenantID, branchID, domain.DocumentTypeNFSE)

	repo.On("FindByID", mock.Anything, tenantID, branchID, doc.ID).Return(doc, nil)
	gateway.On("Transmit", mock.Anything, mock.Anything).Return(&domain.TransmitReceipt{
		ReceiptNumber: "351000000000008",
		StatusCode:    domain.AuthorityCodeProcessing,
	}, nil)
	gateway.On("QueryAuthorization", mock.Anything, tenantID, "351000000000008").Return(&domain.AuthorizationResult{
		Status:     domain.AuthorityStatusProcessing,
		StatusCode: domain.AuthorityCodeProcessing,
		Message:    "Lote em processamento",
	}, nil)
	repo.On("Save", mock.Anything, doc).Return(nil)

	resp, err := svc.Transmit(context.Background(), tenantID, branchID, doc.ID)

	require.NoError(t, err)
	assert.Equal(t, "PROCESSING", resp.Status)
	assert.Equal(t, domain.DocumentStatusProcessing, doc.Status)
	// the PROCESSING transition is saved before the synchronous poll
	repo.AssertCalled(t, "Save", mock.Anything, doc)
}
