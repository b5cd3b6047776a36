package fiscal

import (
	"context"
	"testing"

	domain "github.com/fiscalhub/backend/internal/domain/fiscal"
	"github.com/fiscalhub/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type stubGenerator struct {
	docType domain.DocumentType
	result  *domain.AuxiliaryDocument
	err     error
}

func (g *stubGenerator) DocumentType() domain.DocumentType { return g.docType }

func (g *stubGenerator) Generate(_ context.Context, _ *domain.FiscalDocument) (*domain.AuxiliaryDocument, error) {
	return g.result, g.err
}

func TestRenderingService_RenderDocument(t *testing.T) {
	repo := new(MockDocumentRepository)
	tenantID, branchID := uuid.New(), uuid.New()
	doc := newTestDraft(t, tenantID, branchID, domain.DocumentTypeNFE)

	registry := domain.NewGeneratorRegistry(&stubGenerator{
		docType: domain.DocumentTypeNFE,
		result: &domain.AuxiliaryDocument{
			FileName:    "danfe-001-000000001.pdf",
			ContentType: "application/pdf",
			Content:     []byte("%PDF-1.4"),
		},
	})
	svc := NewRenderingService(repo, registry, nil)

	repo.On("FindByID", mock.Anything, tenantID, branchID, doc.ID).Return(doc, nil)

	aux, err := svc.RenderDocument(context.Background(), tenantID, branchID, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "danfe-001-000000001.pdf", aux.FileName)
	assert.Equal(t, "application/pdf", aux.ContentType)
	assert.NotEmpty(t, aux.Content)
	repo.AssertExpectations(t)
}

func TestRenderingService_RenderDocument_DocumentNotFound(t *testing.T) {
	repo := new(MockDocumentRepository)
	svc := NewRenderingService(repo, domain.NewGeneratorRegistry(), nil)
	tenantID, branchID := uuid.New(), uuid.New()
	docID := uuid.New()

	repo.On("FindByID", mock.Anything, tenantID, branchID, docID).
		Return(nil, shared.NewDomainError(shared.CodeNotFound, "Document not found"))

	_, err := svc.RenderDocument(context.Background(), tenantID, branchID, docID)
	assert.True(t, shared.IsDomainError(err, shared.CodeNotFound))
}

func TestRenderingService_RenderDocument_NoLayoutForType(t *testing.T) {
	repo := new(MockDocumentRepository)
	tenantID, branchID := uuid.New(), uuid.New()
	doc := newTestDraft(t, tenantID, branchID, domain.DocumentTypeNFE)

	svc := NewRenderingService(repo, domain.NewGeneratorRegistry(), nil)
	repo.On("FindByID", mock.Anything, tenantID, branchID, doc.ID).Return(doc, nil)

	_, err := svc.RenderDocument(context.Background(), tenantID, branchID, doc.ID)
	assert.True(t, shared.IsDomainError(err, shared.CodeInvalidInput))
}

func TestRenderingService_RenderDocument_GeneratorError(t *testing.T) {
	repo := new(MockDocumentRepository)
	tenantID, branchID := uuid.New(), uuid.New()
	doc := newTestDraft(t, tenantID, branchID, domain.DocumentTypeNFE)

	registry := domain.NewGeneratorRegistry(&stubGenerator{
		docType: domain.DocumentTypeNFE,
		err:     domain.ErrDocumentNotAuthorized,
	})
	svc := NewRenderingService(repo, registry, nil)
	repo.On("FindByID", mock.Anything, tenantID, branchID, doc.ID).Return(doc, nil)

	_, err := svc.RenderDocument(context.Background(), tenantID, branchID, doc.ID)
	assert.ErrorIs(t, err, domain.ErrDocumentNotAuthorized)
}
