package fiscal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fiscalhub/backend/internal/domain/fiscal"
	"github.com/fiscalhub/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TransmissionService orchestrates the exchange with the tax authority:
// transmitting pending documents, polling authorization outcomes, cancelling
// authorized documents and querying registered status. Authority rejections
// are applied to the document; only transport failures surface as errors.
type TransmissionService struct {
	repo    fiscal.DocumentRepository
	gateway fiscal.TaxAuthorityGateway
	logger  *zap.Logger
	events  shared.EventPublisher
}

// NewTransmissionService creates a new TransmissionService
func NewTransmissionService(repo fiscal.DocumentRepository, gateway fiscal.TaxAuthorityGateway, logger *zap.Logger, opts ...ServiceOption) *TransmissionService {
	o := applyServiceOptions(opts)
	return &TransmissionService{repo: repo, gateway: gateway, logger: logger, events: o.events}
}

func (s *TransmissionService) publishEvents(ctx context.Context, doc *fiscal.FiscalDocument) {
	events := doc.GetDomainEvents()
	doc.ClearDomainEvents()
	if s.events == nil || len(events) == 0 {
		return
	}
	_ = s.events.Publish(ctx, events...)
}

// Transmit sends a document to the authority. A DRAFT with items is submitted
// in the same round; the document then moves to PROCESSING. Service invoices
// are resolved synchronously, other subtypes stay in PROCESSING until
// CheckAuthorization is called with the returned receipt.
func (s *TransmissionService) Transmit(ctx context.Context, tenantID, branchID, docID uuid.UUID) (*TransmissionResponse, error) {
	doc, err := s.loadDocument(ctx, tenantID, branchID, docID)
	if err != nil {
		return nil, err
	}

	if doc.Status == fiscal.DocumentStatusDraft {
		if err := doc.Submit(); err != nil {
			return nil, err
		}
	}

	key, err := s.buildAccessKey(doc)
	if err != nil {
		return nil, err
	}

	if err := doc.Process(); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(toDocumentResponse(doc))
	if err != nil {
		return nil, fmt.Errorf("serialize document for transmission: %w", err)
	}

	receipt, err := s.gateway.Transmit(ctx, &fiscal.TransmitRequest{
		TenantID:     tenantID,
		BranchID:     branchID,
		DocumentID:   doc.ID,
		DocumentType: doc.Type,
		AccessKey:    key,
		Series:       doc.Series,
		Number:       doc.Number,
		IssuerTaxID:  doc.IssuerTaxID,
		TotalValue:   doc.Totals.Total,
		Payload:      payload,
	})
	if err != nil {
		return nil, fmt.Errorf("transmit document %s: %w", doc.ID, err)
	}

	s.logger.Info("document transmitted",
		zap.String("document_id", doc.ID.String()),
		zap.String("receipt", receipt.ReceiptNumber),
		zap.String("status_code", receipt.StatusCode))

	// Service invoices authorize synchronously; resolve in the same round.
	// The PROCESSING transition is persisted first so the document state
	// survives even when the authority still reports processing.
	if doc.Type == fiscal.DocumentTypeNFSE {
		if err := s.repo.Save(ctx, doc); err != nil {
			return nil, err
		}
		s.publishEvents(ctx, doc)

		result, err := s.gateway.QueryAuthorization(ctx, tenantID, receipt.ReceiptNumber)
		if err != nil {
			return nil, fmt.Errorf("query authorization for receipt %s: %w", receipt.ReceiptNumber, err)
		}
		if err := s.applyAuthorizationResult(ctx, doc, result); err != nil {
			return nil, err
		}
		return &TransmissionResponse{
			DocumentID:    doc.ID,
			Status:        doc.Status.String(),
			StatusCode:    result.StatusCode,
			Message:       result.Message,
			ReceiptNumber: receipt.ReceiptNumber,
			Document:      toDocumentResponse(doc),
		}, nil
	}

	if err := s.repo.Save(ctx, doc); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, doc)
	return &TransmissionResponse{
		DocumentID:    doc.ID,
		Status:        doc.Status.String(),
		StatusCode:    receipt.StatusCode,
		Message:       receipt.Message,
		ReceiptNumber: receipt.ReceiptNumber,
		Document:      toDocumentResponse(doc),
	}, nil
}

// CheckAuthorization polls the authority for the outcome of a transmitted
// batch and applies it to the document. While the authority still reports
// processing, the document keeps its PROCESSING status.
func (s *TransmissionService) CheckAuthorization(ctx context.Context, tenantID, branchID, docID uuid.UUID, receiptNumber string) (*TransmissionResponse, error) {
	doc, err := s.loadDocument(ctx, tenantID, branchID, docID)
	if err != nil {
		return nil, err
	}

	result, err := s.gateway.QueryAuthorization(ctx, tenantID, receiptNumber)
	if err != nil {
		return nil, fmt.Errorf("query authorization for receipt %s: %w", receiptNumber, err)
	}

	if result.Status != fiscal.AuthorityStatusProcessing {
		if err := s.applyAuthorizationResult(ctx, doc, result); err != nil {
			return nil, err
		}
	}

	return &TransmissionResponse{
		DocumentID:    doc.ID,
		Status:        doc.Status.String(),
		StatusCode:    result.StatusCode,
		Message:       result.Message,
		ReceiptNumber: receiptNumber,
		Document:      toDocumentResponse(doc),
	}, nil
}

// CancelDocument requests cancellation at the authority and, when the
// cancellation is homologated, cancels the document locally. The local
// deadline check runs first so an obviously late request never reaches the
// authority.
// AuthorizeDocument records an authorization protocol obtained outside the
// polling flow, e.g. a contingency issuance resolved over the authority's
// support channel. The access key defaults to the one already derived for
// the document when the command omits it.
func (s *TransmissionService) AuthorizeDocument(ctx context.Context, tenantID, branchID, docID uuid.UUID, cmd *AuthorizeDocumentCommand) (*TransmissionResponse, error) {
	doc, err := s.loadDocument(ctx, tenantID, branchID, docID)
	if err != nil {
		return nil, err
	}

	var key fiscal.AccessKey
	switch {
	case cmd.AccessKey != "":
		key, err = fiscal.NewAccessKey(cmd.AccessKey)
		if err != nil {
			return nil, err
		}
	case doc.AccessKey != nil:
		key = *doc.AccessKey
	default:
		key, err = s.buildAccessKey(doc)
		if err != nil {
			return nil, err
		}
	}

	protocolDate := time.Now()
	if cmd.ProtocolDate != nil {
		protocolDate = *cmd.ProtocolDate
	}

	if err := doc.Authorize(fiscal.AuthorizeParams{
		AccessKey:      key,
		ProtocolNumber: cmd.ProtocolNumber,
		ProtocolDate:   protocolDate,
	}); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, doc); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, doc)

	s.logger.Info("document authorized via manual protocol entry",
		zap.String("document_id", doc.ID.String()),
		zap.String("protocol", cmd.ProtocolNumber))

	return &TransmissionResponse{
		DocumentID: doc.ID,
		Status:     doc.Status.String(),
		StatusCode: fiscal.AuthorityCodeAuthorized,
		Message:    "Authorization registered",
		Document:   toDocumentResponse(doc),
	}, nil
}

func (s *TransmissionService) CancelDocument(ctx context.Context, tenantID, branchID, docID uuid.UUID, cmd *CancelDocumentCommand) (*TransmissionResponse, error) {
	doc, err := s.loadDocument(ctx, tenantID, branchID, docID)
	if err != nil {
		return nil, err
	}
	if doc.Status == fiscal.DocumentStatusCancelled {
		return nil, shared.NewDomainError(shared.CodeAlreadyCancelled, "Document is already cancelled")
	}
	if doc.AccessKey == nil {
		return nil, shared.NewDomainError(shared.CodeInvalidStatusTransition,
			"Only authorized documents can be cancelled")
	}
	if doc.AuthorizedAt != nil && time.Now().After(doc.AuthorizedAt.Add(fiscal.CancellationWindow)) {
		return nil, shared.NewDomainError(shared.CodeCancellationDeadlineExpired,
			fmt.Sprintf("Cancellation window of %s from authorization has expired", fiscal.CancellationWindow))
	}

	result, err := s.gateway.Cancel(ctx, &fiscal.CancelDocumentRequest{
		TenantID:       tenantID,
		BranchID:       branchID,
		AccessKey:      *doc.AccessKey,
		ProtocolNumber: doc.ProtocolNumber,
		Reason:         cmd.Reason,
	})
	if err != nil {
		return nil, fmt.Errorf("cancel document %s: %w", doc.ID, err)
	}

	switch result.StatusCode {
	case fiscal.AuthorityCodeCancelHomologated:
		if err := doc.Cancel(fiscal.CancelParams{
			Reason:         cmd.Reason,
			ProtocolNumber: result.ProtocolNumber,
		}); err != nil {
			return nil, err
		}
		if err := s.repo.Save(ctx, doc); err != nil {
			return nil, err
		}
		s.publishEvents(ctx, doc)
		s.logger.Info("document cancellation homologated",
			zap.String("document_id", doc.ID.String()),
			zap.String("protocol", result.ProtocolNumber))
	case fiscal.AuthorityCodePastDeadline:
		return nil, shared.NewDomainError(shared.CodeCancellationDeadlineExpired, result.Message)
	default:
		s.logger.Warn("document cancellation refused",
			zap.String("document_id", doc.ID.String()),
			zap.String("status_code", result.StatusCode),
			zap.String("message", result.Message))
	}

	return &TransmissionResponse{
		DocumentID: doc.ID,
		Status:     doc.Status.String(),
		StatusCode: result.StatusCode,
		Message:    result.Message,
		Document:   toDocumentResponse(doc),
	}, nil
}

// QueryStatus returns the situation of a document as registered at the
// authority, without mutating local state
func (s *TransmissionService) QueryStatus(ctx context.Context, tenantID, branchID uuid.UUID, rawKey string) (*fiscal.StatusResult, error) {
	key, err := fiscal.NewAccessKey(rawKey)
	if err != nil {
		return nil, err
	}
	result, err := s.gateway.QueryStatus(ctx, tenantID, key)
	if err != nil {
		return nil, fmt.Errorf("query status for access key %s: %w", key, err)
	}
	return result, nil
}

func (s *TransmissionService) applyAuthorizationResult(ctx context.Context, doc *fiscal.FiscalDocument, result *fiscal.AuthorizationResult) error {
	switch result.Status {
	case fiscal.AuthorityStatusAuthorized:
		if err := doc.Authorize(fiscal.AuthorizeParams{
			AccessKey:      result.AccessKey,
			ProtocolNumber: result.ProtocolNumber,
			ProtocolDate:   result.ProtocolDate,
		}); err != nil {
			return err
		}
	case fiscal.AuthorityStatusRejected:
		if err := doc.Reject(result.StatusCode, result.Message); err != nil {
			return err
		}
	default:
		// Still processing; the PROCESSING state was already persisted when
		// the document was transmitted, so there is nothing to save.
		return nil
	}
	if err := s.repo.Save(ctx, doc); err != nil {
		return err
	}
	s.publishEvents(ctx, doc)
	return nil
}

// buildAccessKey derives the candidate access key from document fields. The
// numeric code is taken from the first segment of the document ID so retries
// of the same document produce the same key.
func (s *TransmissionService) buildAccessKey(doc *fiscal.FiscalDocument) (fiscal.AccessKey, error) {
	code := fmt.Sprintf("%08d", doc.ID.ID()%100000000)
	return fiscal.GenerateAccessKey(fiscal.AccessKeyParts{
		UFCode:       "35",
		YearMonth:    doc.IssueDate.Format("0601"),
		CNPJ:         doc.IssuerTaxID,
		Model:        modelCodeFor(doc.Type),
		Series:       doc.Series,
		Number:       doc.Number,
		EmissionType: "1",
		Code:         code,
	})
}

// modelCodeFor maps a document subtype to its regulator model code
func modelCodeFor(docType fiscal.DocumentType) string {
	switch docType {
	case fiscal.DocumentTypeNFE:
		return "55"
	case fiscal.DocumentTypeNFCE:
		return "65"
	case fiscal.DocumentTypeCTE:
		return "57"
	case fiscal.DocumentTypeMDFE:
		return "58"
	case fiscal.DocumentTypeNFSE:
		return "99"
	default:
		return "55"
	}
}

func (s *TransmissionService) loadDocument(ctx context.Context, tenantID, branchID, id uuid.UUID) (*fiscal.FiscalDocument, error) {
	doc, err := s.repo.FindByID(ctx, tenantID, branchID, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, shared.NewDomainError(shared.CodeNotFound, "Fiscal document not found")
	}
	return doc, nil
}
