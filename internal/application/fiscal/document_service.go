package fiscal

import (
	"context"
	"time"

	"github.com/fiscalhub/backend/internal/domain/fiscal"
	"github.com/fiscalhub/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ServiceOption configures optional collaborators of the application services
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	events shared.EventPublisher
}

// WithEventPublisher routes domain events drained after a successful save to
// the given publisher. Without it, events are drained and discarded.
func WithEventPublisher(p shared.EventPublisher) ServiceOption {
	return func(o *serviceOptions) { o.events = p }
}

func applyServiceOptions(opts []ServiceOption) serviceOptions {
	var o serviceOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// DocumentService provides application-level document lifecycle operations:
// drafting, item maintenance and submission. Transmission to the tax
// authority is handled by TransmissionService.
type DocumentService struct {
	repo   fiscal.DocumentRepository
	events shared.EventPublisher
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(repo fiscal.DocumentRepository, opts ...ServiceOption) *DocumentService {
	o := applyServiceOptions(opts)
	return &DocumentService{repo: repo, events: o.events}
}

// publishEvents drains the aggregate's pending events and hands them to the
// publisher. Runs only after a successful save so listeners never observe
// state that was rolled back.
func (s *DocumentService) publishEvents(ctx context.Context, doc *fiscal.FiscalDocument) {
	events := doc.GetDomainEvents()
	doc.ClearDomainEvents()
	if s.events == nil || len(events) == 0 {
		return
	}
	_ = s.events.Publish(ctx, events...)
}

// CreateDocument creates a new draft. When the request carries no number the
// next sequential number for the type and series within the branch is used.
func (s *DocumentService) CreateDocument(ctx context.Context, tenantID, branchID uuid.UUID, req *CreateDocumentRequest) (*DocumentResponse, error) {
	docType := fiscal.DocumentType(req.Type)
	if !docType.IsValid() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Unknown document type "+req.Type)
	}

	number := req.Number
	if number == "" {
		next, err := s.repo.NextDocumentNumber(ctx, tenantID, branchID, docType, req.Series)
		if err != nil {
			return nil, err
		}
		number = next
	}

	issueDate := time.Now()
	if req.IssueDate != nil {
		issueDate = *req.IssueDate
	}

	var recipient *fiscal.PartyInfo
	if req.RecipientID != nil {
		recipient = &fiscal.PartyInfo{
			ID:    *req.RecipientID,
			TaxID: req.RecipientTaxID,
			Name:  req.RecipientName,
		}
	}

	doc, err := fiscal.NewFiscalDocument(fiscal.NewDocumentParams{
		TenantID:   tenantID,
		BranchID:   branchID,
		Type:       docType,
		Series:     req.Series,
		Number:     number,
		Issuer:     fiscal.PartyInfo{ID: req.IssuerID, TaxID: req.IssuerTaxID, Name: req.IssuerName},
		Recipient:  recipient,
		IssueDate:  issueDate,
		Freight:    req.Freight,
		Insurance:  req.Insurance,
		OtherCosts: req.OtherCosts,
		Notes:      req.Notes,
	})
	if err != nil {
		return nil, err
	}

	for i := range req.Items {
		item, err := req.Items[i].toDomainItem()
		if err != nil {
			return nil, err
		}
		if err := doc.AddItem(item); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Save(ctx, doc); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, doc)
	return toDocumentResponse(doc), nil
}

// GetDocument gets a document by ID
func (s *DocumentService) GetDocument(ctx context.Context, tenantID, branchID, id uuid.UUID) (*DocumentResponse, error) {
	doc, err := s.loadDocument(ctx, tenantID, branchID, id)
	if err != nil {
		return nil, err
	}
	return toDocumentResponse(doc), nil
}

// GetDocumentByAccessKey gets an authorized document by its access key
func (s *DocumentService) GetDocumentByAccessKey(ctx context.Context, tenantID, branchID uuid.UUID, rawKey string) (*DocumentResponse, error) {
	key, err := fiscal.NewAccessKey(rawKey)
	if err != nil {
		return nil, err
	}
	doc, err := s.repo.FindByAccessKey(ctx, tenantID, branchID, key)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, shared.NewDomainError(shared.CodeNotFound, "Fiscal document not found")
	}
	return toDocumentResponse(doc), nil
}

// ListDocuments lists documents for a branch with filtering and pagination
func (s *DocumentService) ListDocuments(ctx context.Context, tenantID, branchID uuid.UUID, filter DocumentListFilter) (*shared.Paginated[DocumentResponse], error) {
	domainFilter := fiscal.DocumentFilter{Filter: shared.DefaultFilter()}
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.Type != "" {
		docType := fiscal.DocumentType(filter.Type)
		if !docType.IsValid() {
			return nil, shared.NewDomainError(shared.CodeInvalidInput, "Unknown document type "+filter.Type)
		}
		domainFilter.Type = &docType
	}
	if filter.Status != "" {
		status := fiscal.DocumentStatus(filter.Status)
		if !status.IsValid() {
			return nil, shared.NewDomainError(shared.CodeInvalidInput, "Unknown document status "+filter.Status)
		}
		domainFilter.Status = &status
	}
	if filter.Series != "" {
		domainFilter.Series = &filter.Series
	}
	domainFilter.IssuerID = filter.IssuerID
	domainFilter.IssuedFrom = filter.IssuedFrom
	domainFilter.IssuedTo = filter.IssuedTo

	docs, err := s.repo.FindAll(ctx, tenantID, branchID, domainFilter)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.Count(ctx, tenantID, branchID, domainFilter)
	if err != nil {
		return nil, err
	}

	responses := make([]DocumentResponse, 0, len(docs))
	for i := range docs {
		responses = append(responses, *toDocumentResponse(&docs[i]))
	}
	result := shared.NewPaginated(responses, total, domainFilter.Page, domainFilter.PageSize)
	return &result, nil
}

// AddItem adds a line item to a draft document
func (s *DocumentService) AddItem(ctx context.Context, tenantID, branchID, docID uuid.UUID, req *AddItemRequest) (*DocumentResponse, error) {
	doc, err := s.loadDocument(ctx, tenantID, branchID, docID)
	if err != nil {
		return nil, err
	}

	item, err := req.toDomainItem()
	if err != nil {
		return nil, err
	}

	if err := doc.AddItem(item); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, doc); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, doc)
	return toDocumentResponse(doc), nil
}

// RemoveItem removes a line item from a draft document
func (s *DocumentService) RemoveItem(ctx context.Context, tenantID, branchID, docID, itemID uuid.UUID) (*DocumentResponse, error) {
	doc, err := s.loadDocument(ctx, tenantID, branchID, docID)
	if err != nil {
		return nil, err
	}
	if err := doc.RemoveItem(itemID); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, doc); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, doc)
	return toDocumentResponse(doc), nil
}

// SubmitDocument moves a draft to PENDING, making it ready for transmission
func (s *DocumentService) SubmitDocument(ctx context.Context, tenantID, branchID, docID uuid.UUID) (*DocumentResponse, error) {
	doc, err := s.loadDocument(ctx, tenantID, branchID, docID)
	if err != nil {
		return nil, err
	}
	if err := doc.Submit(); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, doc); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, doc)
	return toDocumentResponse(doc), nil
}

// ValidateDocument collects every issuance-blocking issue on a document
// without mutating it. Submission fails on the first violation; this is the
// full list for correcting a draft in one pass.
func (s *DocumentService) ValidateDocument(ctx context.Context, tenantID, branchID, docID uuid.UUID) (*ValidationResponse, error) {
	doc, err := s.loadDocument(ctx, tenantID, branchID, docID)
	if err != nil {
		return nil, err
	}

	issues := doc.Validate()
	return &ValidationResponse{
		DocumentID: doc.ID,
		Valid:      len(issues) == 0,
		Issues:     issues,
	}, nil
}

// ReturnToDraft moves a PENDING or REJECTED document back to DRAFT
func (s *DocumentService) ReturnToDraft(ctx context.Context, tenantID, branchID, docID uuid.UUID) (*DocumentResponse, error) {
	doc, err := s.loadDocument(ctx, tenantID, branchID, docID)
	if err != nil {
		return nil, err
	}
	if err := doc.ReturnToDraft(); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, doc); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, doc)
	return toDocumentResponse(doc), nil
}

// DeleteDraft removes a draft document. Any other status is refused.
func (s *DocumentService) DeleteDraft(ctx context.Context, tenantID, branchID, docID uuid.UUID) error {
	doc, err := s.loadDocument(ctx, tenantID, branchID, docID)
	if err != nil {
		return err
	}
	if doc.Status != fiscal.DocumentStatusDraft {
		return shared.NewDomainError(shared.CodeInvalidStatusTransition,
			"Only draft documents can be deleted")
	}
	return s.repo.Delete(ctx, tenantID, branchID, docID)
}

func (s *DocumentService) loadDocument(ctx context.Context, tenantID, branchID, id uuid.UUID) (*fiscal.FiscalDocument, error) {
	doc, err := s.repo.FindByID(ctx, tenantID, branchID, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, shared.NewDomainError(shared.CodeNotFound, "Fiscal document not found")
	}
	return doc, nil
}
