package fiscal

import (
	"time"

	"github.com/fiscalhub/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DocumentCreatedEvent is raised when a new fiscal document draft is created
type DocumentCreatedEvent struct {
	shared.BaseDomainEvent
	DocumentID   uuid.UUID    `json:"document_id"`
	DocumentType DocumentType `json:"document_type"`
	Series       string       `json:"series"`
	Number       string       `json:"number"`
	IssuerID     uuid.UUID    `json:"issuer_id"`
	IssuerTaxID  string       `json:"issuer_tax_id"`
	IssueDate    time.Time    `json:"issue_date"`
	TaxRegime    TaxRegime    `json:"tax_regime"`
}

// EventType returns the event type name
func (e *DocumentCreatedEvent) EventType() string {
	return "FiscalDocumentCreated"
}

// NewDocumentCreatedEvent creates a new DocumentCreatedEvent
func NewDocumentCreatedEvent(doc *FiscalDocument) *DocumentCreatedEvent {
	return &DocumentCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("FiscalDocumentCreated", "FiscalDocument", doc.ID, doc.TenantID, doc.BranchID),
		DocumentID:      doc.ID,
		DocumentType:    doc.Type,
		Series:          doc.Series,
		Number:          doc.Number,
		IssuerID:        doc.IssuerID,
		IssuerTaxID:     doc.IssuerTaxID,
		IssueDate:       doc.IssueDate,
		TaxRegime:       doc.TaxRegime,
	}
}

// DocumentSubmittedEvent is raised when a draft is submitted for transmission
type DocumentSubmittedEvent struct {
	shared.BaseDomainEvent
	DocumentID   uuid.UUID       `json:"document_id"`
	DocumentType DocumentType    `json:"document_type"`
	Series       string          `json:"series"`
	Number       string          `json:"number"`
	ItemCount    int             `json:"item_count"`
	TotalValue   decimal.Decimal `json:"total_value"`
}

// EventType returns the event type name
func (e *DocumentSubmittedEvent) EventType() string {
	return "FiscalDocumentSubmitted"
}

// NewDocumentSubmittedEvent creates a new DocumentSubmittedEvent
func NewDocumentSubmittedEvent(doc *FiscalDocument) *DocumentSubmittedEvent {
	return &DocumentSubmittedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("FiscalDocumentSubmitted", "FiscalDocument", doc.ID, doc.TenantID, doc.BranchID),
		DocumentID:      doc.ID,
		DocumentType:    doc.Type,
		Series:          doc.Series,
		Number:          doc.Number,
		ItemCount:       len(doc.Items),
		TotalValue:      doc.Totals.Total,
	}
}

// DocumentAuthorizedEvent is raised when the tax authority authorizes a document
type DocumentAuthorizedEvent struct {
	shared.BaseDomainEvent
	DocumentID     uuid.UUID       `json:"document_id"`
	DocumentType   DocumentType    `json:"document_type"`
	Series         string          `json:"series"`
	Number         string          `json:"number"`
	AccessKey      string          `json:"access_key"`
	ProtocolNumber string          `json:"protocol_number"`
	AuthorizedAt   time.Time       `json:"authorized_at"`
	TotalValue     decimal.Decimal `json:"total_value"`
}

// EventType returns the event type name
func (e *DocumentAuthorizedEvent) EventType() string {
	return "FiscalDocumentAuthorized"
}

// NewDocumentAuthorizedEvent creates a new DocumentAuthorizedEvent
func NewDocumentAuthorizedEvent(doc *FiscalDocument) *DocumentAuthorizedEvent {
	authorizedAt := time.Now()
	if doc.AuthorizedAt != nil {
		authorizedAt = *doc.AuthorizedAt
	}
	accessKey := ""
	if doc.AccessKey != nil {
		accessKey = doc.AccessKey.String()
	}
	return &DocumentAuthorizedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("FiscalDocumentAuthorized", "FiscalDocument", doc.ID, doc.TenantID, doc.BranchID),
		DocumentID:      doc.ID,
		DocumentType:    doc.Type,
		Series:          doc.Series,
		Number:          doc.Number,
		AccessKey:       accessKey,
		ProtocolNumber:  doc.ProtocolNumber,
		AuthorizedAt:    authorizedAt,
		TotalValue:      doc.Totals.Total,
	}
}

// DocumentRejectedEvent is raised when the tax authority rejects a document
type DocumentRejectedEvent struct {
	shared.BaseDomainEvent
	DocumentID      uuid.UUID    `json:"document_id"`
	DocumentType    DocumentType `json:"document_type"`
	Series          string       `json:"series"`
	Number          string       `json:"number"`
	RejectionCode   string       `json:"rejection_code"`
	RejectionReason string       `json:"rejection_reason"`
}

// EventType returns the event type name
func (e *DocumentRejectedEvent) EventType() string {
	return "FiscalDocumentRejected"
}

// NewDocumentRejectedEvent creates a new DocumentRejectedEvent
func NewDocumentRejectedEvent(doc *FiscalDocument) *DocumentRejectedEvent {
	return &DocumentRejectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("FiscalDocumentRejected", "FiscalDocument", doc.ID, doc.TenantID, doc.BranchID),
		DocumentID:      doc.ID,
		DocumentType:    doc.Type,
		Series:          doc.Series,
		Number:          doc.Number,
		RejectionCode:   doc.RejectionCode,
		RejectionReason: doc.RejectionReason,
	}
}

// DocumentCancelledEvent is raised when an authorized document is cancelled
type DocumentCancelledEvent struct {
	shared.BaseDomainEvent
	DocumentID     uuid.UUID    `json:"document_id"`
	DocumentType   DocumentType `json:"document_type"`
	Series         string       `json:"series"`
	Number         string       `json:"number"`
	AccessKey      string       `json:"access_key"`
	CancelReason   string       `json:"cancel_reason"`
	CancelProtocol string       `json:"cancel_protocol"`
	CancelledAt    time.Time    `json:"cancelled_at"`
}

// EventType returns the event type name
func (e *DocumentCancelledEvent) EventType() string {
	return "FiscalDocumentCancelled"
}

// NewDocumentCancelledEvent creates a new DocumentCancelledEvent
func NewDocumentCancelledEvent(doc *FiscalDocument) *DocumentCancelledEvent {
	cancelledAt := time.Now()
	if doc.CancelledAt != nil {
		cancelledAt = *doc.CancelledAt
	}
	accessKey := ""
	if doc.AccessKey != nil {
		accessKey = doc.AccessKey.String()
	}
	return &DocumentCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("FiscalDocumentCancelled", "FiscalDocument", doc.ID, doc.TenantID, doc.BranchID),
		DocumentID:      doc.ID,
		DocumentType:    doc.Type,
		Series:          doc.Series,
		Number:          doc.Number,
		AccessKey:       accessKey,
		CancelReason:    doc.CancelReason,
		CancelProtocol:  doc.CancelProtocolNumber,
		CancelledAt:     cancelledAt,
	}
}
