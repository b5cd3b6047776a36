package fiscal

import (
	"context"

	"github.com/fiscalhub/backend/internal/domain/fiscal"
	"github.com/fiscalhub/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RenderingService produces the printable auxiliary document (DANFE, DACTE
// and friends) for authorized or cancelled fiscal documents.
type RenderingService struct {
	repo     fiscal.DocumentRepository
	registry *fiscal.GeneratorRegistry
	logger   *zap.Logger
}

// NewRenderingService creates a new RenderingService
func NewRenderingService(repo fiscal.DocumentRepository, registry *fiscal.GeneratorRegistry, logger *zap.Logger) *RenderingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RenderingService{repo: repo, registry: registry, logger: logger}
}

// RenderDocument renders the auxiliary document for the given fiscal
// document. The document must be authorized or cancelled.
func (s *RenderingService) RenderDocument(ctx context.Context, tenantID, branchID, docID uuid.UUID) (*fiscal.AuxiliaryDocument, error) {
	doc, err := s.repo.FindByID(ctx, tenantID, branchID, docID)
	if err != nil {
		return nil, err
	}

	gen, err := s.registry.Get(doc.Type)
	if err != nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput,
			"No auxiliary document layout for type "+string(doc.Type))
	}

	aux, err := gen.Generate(ctx, doc)
	if err != nil {
		return nil, err
	}

	s.logger.Info("auxiliary document rendered",
		zap.String("document_id", doc.ID.String()),
		zap.String("type", string(doc.Type)),
		zap.String("file_name", aux.FileName),
		zap.Int("size_bytes", len(aux.Content)),
	)
	return aux, nil
}
