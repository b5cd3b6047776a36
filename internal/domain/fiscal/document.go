package fiscal

import (
	"fmt"
	"time"

	"github.com/fiscalhub/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DocumentType represents the kind of regulated fiscal document
type DocumentType string

const (
	// DocumentTypeNFE is the electronic goods invoice
	DocumentTypeNFE DocumentType = "NFE"
	// DocumentTypeNFCE is the electronic consumer invoice
	DocumentTypeNFCE DocumentType = "NFCE"
	// DocumentTypeCTE is the electronic transport knowledge document
	DocumentTypeCTE DocumentType = "CTE"
	// DocumentTypeMDFE is the electronic freight manifest
	DocumentTypeMDFE DocumentType = "MDFE"
	// DocumentTypeNFSE is the electronic service invoice
	DocumentTypeNFSE DocumentType = "NFSE"
)

// IsValid checks if the type is a valid DocumentType
func (t DocumentType) IsValid() bool {
	switch t {
	case DocumentTypeNFE, DocumentTypeNFCE, DocumentTypeCTE, DocumentTypeMDFE, DocumentTypeNFSE:
		return true
	}
	return false
}

// String returns the string representation of DocumentType
func (t DocumentType) String() string {
	return string(t)
}

// IsService reports whether line totals count as services rather than products
func (t DocumentType) IsService() bool {
	return t == DocumentTypeNFSE
}

// TaxRegime marks which consumption-tax regime applies to a document
type TaxRegime string

const (
	// TaxRegimeCurrent covers documents issued under the pre-reform rules
	TaxRegimeCurrent TaxRegime = "CURRENT"
	// TaxRegimeTransition covers documents issued during the consumption-tax
	// reform transition, where the new dual taxes apply alongside the old ones
	TaxRegimeTransition TaxRegime = "TRANSITION"
)

// taxReformCutover is the first issue date under the transition regime
var taxReformCutover = time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

// TaxRegimeForDate derives the applicable regime from the issue date
func TaxRegimeForDate(issueDate time.Time) TaxRegime {
	if issueDate.Before(taxReformCutover) {
		return TaxRegimeCurrent
	}
	return TaxRegimeTransition
}

// CancellationWindow is the regulator deadline for cancelling an authorized
// document, measured from the authorization timestamp.
const CancellationWindow = 24 * time.Hour

// ItemTaxes holds the per-tax values of a single line item
type ItemTaxes struct {
	ICMS   decimal.Decimal `gorm:"type:decimal(15,2)" json:"icms"`
	IPI    decimal.Decimal `gorm:"type:decimal(15,2)" json:"ipi"`
	PIS    decimal.Decimal `gorm:"type:decimal(15,2)" json:"pis"`
	COFINS decimal.Decimal `gorm:"type:decimal(15,2)" json:"cofins"`
	IBS    decimal.Decimal `gorm:"type:decimal(15,2)" json:"ibs"`
	CBS    decimal.Decimal `gorm:"type:decimal(15,2)" json:"cbs"`
}

// DocumentItem is one line of a fiscal document. Items are owned exclusively
// by their document and have no independent lifecycle. The total value is
// fixed at construction (quantity times unit price); an item whose values
// change is replaced, never mutated.
type DocumentItem struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primaryKey"`
	DocumentID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	Ordinal            int             `gorm:"not null"`
	ProductID          uuid.UUID       `gorm:"type:uuid"`
	Description        string          `gorm:"size:255;not null"`
	ClassificationCode string          `gorm:"size:8;not null"` // NCM, digits only
	CFOP               OperationCode   `gorm:"type:varchar(4)"`
	Unit               string          `gorm:"size:10"`
	Quantity           decimal.Decimal `gorm:"type:decimal(15,4);not null"`
	UnitPrice          decimal.Decimal `gorm:"type:decimal(15,4);not null"`
	TotalValue         decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	Discount           decimal.Decimal `gorm:"type:decimal(15,2)"`
	Taxes              ItemTaxes       `gorm:"embedded;embeddedPrefix:tax_"`
	CreatedAt          time.Time
}

// TableName pins the storage table for line items
func (DocumentItem) TableName() string {
	return "fiscal_document_items"
}

// DocumentItemParams carries the inputs for building a line item
type DocumentItemParams struct {
	ProductID          uuid.UUID
	Description        string
	ClassificationCode string
	CFOP               OperationCode
	Unit               string
	Quantity           decimal.Decimal
	UnitPrice          decimal.Decimal
	Discount           decimal.Decimal
	Taxes              ItemTaxes
}

// NewDocumentItem builds a validated line item. The classification code is
// stored digits-only and must be exactly 8 digits after stripping.
func NewDocumentItem(p DocumentItemParams) (*DocumentItem, error) {
	if p.Description == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidItemValue, "Item description cannot be empty")
	}
	if p.Quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError(shared.CodeInvalidItemValue, "Item quantity must be positive")
	}
	if p.UnitPrice.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeInvalidItemValue, "Item unit price cannot be negative")
	}
	if p.Discount.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeInvalidItemValue, "Item discount cannot be negative")
	}
	if p.CFOP.IsZero() {
		return nil, shared.NewDomainError(shared.CodeInvalidOperationCode, "Item operation code is required")
	}

	ncm := stripNonDigits(p.ClassificationCode)
	if len(ncm) != 8 {
		return nil, shared.NewDomainError(shared.CodeInvalidClassificationCode,
			fmt.Sprintf("Classification code must have exactly 8 digits, got %q", p.ClassificationCode))
	}

	return &DocumentItem{
		ID:                 uuid.New(),
		ProductID:          p.ProductID,
		Description:        p.Description,
		ClassificationCode: ncm,
		CFOP:               p.CFOP,
		Unit:               p.Unit,
		Quantity:           p.Quantity,
		UnitPrice:          p.UnitPrice,
		TotalValue:         p.Quantity.Mul(p.UnitPrice).Round(2),
		Discount:           p.Discount,
		Taxes:              p.Taxes,
		CreatedAt:          time.Now(),
	}, nil
}

// DocumentTotals holds the running monetary totals of a document. All values
// are recomputed from the current items plus freight, insurance and other
// costs on every item mutation.
type DocumentTotals struct {
	Products   decimal.Decimal `gorm:"type:decimal(15,2)" json:"products"`
	Services   decimal.Decimal `gorm:"type:decimal(15,2)" json:"services"`
	Discount   decimal.Decimal `gorm:"type:decimal(15,2)" json:"discount"`
	Freight    decimal.Decimal `gorm:"type:decimal(15,2)" json:"freight"`
	Insurance  decimal.Decimal `gorm:"type:decimal(15,2)" json:"insurance"`
	OtherCosts decimal.Decimal `gorm:"type:decimal(15,2)" json:"other_costs"`
	ICMS       decimal.Decimal `gorm:"type:decimal(15,2)" json:"icms"`
	IPI        decimal.Decimal `gorm:"type:decimal(15,2)" json:"ipi"`
	PIS        decimal.Decimal `gorm:"type:decimal(15,2)" json:"pis"`
	COFINS     decimal.Decimal `gorm:"type:decimal(15,2)" json:"cofins"`
	IBS        decimal.Decimal `gorm:"type:decimal(15,2)" json:"ibs"`
	CBS        decimal.Decimal `gorm:"type:decimal(15,2)" json:"cbs"`
	Total      decimal.Decimal `gorm:"type:decimal(15,2)" json:"total"`
}

// TotalTaxes sums every tracked tax kind. This informational view includes
// the taxes embedded in the line price (ICMS, PIS, COFINS), which the grand
// total deliberately leaves out.
func (t DocumentTotals) TotalTaxes() decimal.Decimal {
	return t.ICMS.Add(t.IPI).Add(t.PIS).Add(t.COFINS).Add(t.IBS).Add(t.CBS)
}

// PartyInfo identifies the issuer or recipient of a document
type PartyInfo struct {
	ID    uuid.UUID `json:"id"`
	TaxID string    `json:"tax_id"`
	Name  string    `json:"name"`
}

// FiscalDocument is the aggregate root for a government-regulated electronic
// fiscal document. It owns its line items and running totals and is mutated
// exclusively through its own behaviors; status changes always consult the
// transition policy. All behaviors are synchronous and free of I/O.
type FiscalDocument struct {
	shared.TenantAggregateRoot
	Type      DocumentType   `gorm:"size:8;not null"`
	Status    DocumentStatus `gorm:"size:16;not null"`
	Series    string         `gorm:"size:3;not null"`
	Number    string         `gorm:"size:9;not null"`
	AccessKey *AccessKey     `gorm:"type:varchar(44)"`

	IssuerID        uuid.UUID `gorm:"type:uuid;not null"`
	IssuerTaxID     string    `gorm:"size:14;not null"`
	IssuerName      string    `gorm:"size:255"`
	RecipientID     *uuid.UUID
	RecipientTaxID  string `gorm:"size:14"`
	RecipientName   string `gorm:"size:255"`

	IssueDate time.Time
	TaxRegime TaxRegime      `gorm:"size:16"`
	Totals    DocumentTotals `gorm:"embedded;embeddedPrefix:total_"`
	Items     []DocumentItem `gorm:"foreignKey:DocumentID"`

	ProtocolNumber       string `gorm:"size:20"`
	ProtocolDate         *time.Time
	AuthorizedAt         *time.Time
	CancelReason         string `gorm:"size:255"`
	CancelProtocolNumber string `gorm:"size:20"`
	CancelledAt          *time.Time
	RejectionCode        string `gorm:"size:8"`
	RejectionReason      string `gorm:"size:255"`
	Notes                string `gorm:"size:1000"`
}

// TableName pins the storage table for documents
func (FiscalDocument) TableName() string {
	return "fiscal_documents"
}

// NewDocumentParams carries the inputs for the validating factory
type NewDocumentParams struct {
	TenantID       uuid.UUID
	BranchID       uuid.UUID
	Type           DocumentType
	Series         string
	Number         string
	Issuer         PartyInfo
	Recipient      *PartyInfo
	IssueDate      time.Time
	TaxRegime      TaxRegime // derived from IssueDate when empty
	Freight        decimal.Decimal
	Insurance      decimal.Decimal
	OtherCosts     decimal.Decimal
	Notes          string
}

// NewFiscalDocument creates a new DRAFT document with zeroed totals and
// version 1. Required fields are validated with descriptive errors.
func NewFiscalDocument(p NewDocumentParams) (*FiscalDocument, error) {
	if p.TenantID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Organization ID cannot be empty")
	}
	if p.BranchID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Branch ID cannot be empty")
	}
	if !p.Type.IsValid() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("Unknown document type %q", p.Type))
	}
	if p.Series == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Document series cannot be empty")
	}
	if p.Number == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Document number cannot be empty")
	}
	if p.Issuer.ID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Issuer ID cannot be empty")
	}
	if p.Issuer.TaxID == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Issuer tax ID cannot be empty")
	}
	if p.Freight.IsNegative() || p.Insurance.IsNegative() || p.OtherCosts.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Freight, insurance and other costs cannot be negative")
	}

	issueDate := p.IssueDate
	if issueDate.IsZero() {
		issueDate = time.Now()
	}
	regime := p.TaxRegime
	if regime == "" {
		regime = TaxRegimeForDate(issueDate)
	}

	doc := &FiscalDocument{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(p.TenantID, p.BranchID),
		Type:                p.Type,
		Status:              DocumentStatusDraft,
		Series:              p.Series,
		Number:              p.Number,
		IssuerID:            p.Issuer.ID,
		IssuerTaxID:         p.Issuer.TaxID,
		IssuerName:          p.Issuer.Name,
		IssueDate:           issueDate,
		TaxRegime:           regime,
		Items:               make([]DocumentItem, 0),
		Notes:               p.Notes,
	}
	doc.Totals.Freight = p.Freight
	doc.Totals.Insurance = p.Insurance
	doc.Totals.OtherCosts = p.OtherCosts
	if p.Recipient != nil {
		recipientID := p.Recipient.ID
		doc.RecipientID = &recipientID
		doc.RecipientTaxID = p.Recipient.TaxID
		doc.RecipientName = p.Recipient.Name
	}
	doc.recomputeTotals()

	doc.AddDomainEvent(NewDocumentCreatedEvent(doc))

	return doc, nil
}

// DocumentState carries the full persisted state for rehydration
type DocumentState struct {
	ID                   uuid.UUID
	TenantID             uuid.UUID
	BranchID             uuid.UUID
	Version              int
	Type                 DocumentType
	Status               DocumentStatus
	Series               string
	Number               string
	AccessKey            *AccessKey
	Issuer               PartyInfo
	Recipient            *PartyInfo
	IssueDate            time.Time
	TaxRegime            TaxRegime
	Totals               DocumentTotals
	Items                []DocumentItem
	ProtocolNumber       string
	ProtocolDate         *time.Time
	AuthorizedAt         *time.Time
	CancelReason         string
	CancelProtocolNumber string
	CancelledAt          *time.Time
	RejectionCode        string
	RejectionReason      string
	Notes                string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// ReconstituteFiscalDocument rebuilds an aggregate from stored state. It
// trusts the state and performs no validation; the result must nonetheless be
// a fully usable instance. No events are emitted.
func ReconstituteFiscalDocument(s DocumentState) *FiscalDocument {
	doc := &FiscalDocument{
		Type:                 s.Type,
		Status:               s.Status,
		Series:               s.Series,
		Number:               s.Number,
		AccessKey:            s.AccessKey,
		IssuerID:             s.Issuer.ID,
		IssuerTaxID:          s.Issuer.TaxID,
		IssuerName:           s.Issuer.Name,
		IssueDate:            s.IssueDate,
		TaxRegime:            s.TaxRegime,
		Totals:               s.Totals,
		Items:                s.Items,
		ProtocolNumber:       s.ProtocolNumber,
		ProtocolDate:         s.ProtocolDate,
		AuthorizedAt:         s.AuthorizedAt,
		CancelReason:         s.CancelReason,
		CancelProtocolNumber: s.CancelProtocolNumber,
		CancelledAt:          s.CancelledAt,
		RejectionCode:        s.RejectionCode,
		RejectionReason:      s.RejectionReason,
		Notes:                s.Notes,
	}
	doc.TenantID = s.TenantID
	doc.BranchID = s.BranchID
	doc.BaseEntity = shared.NewBaseEntityWithID(s.ID, s.CreatedAt, s.UpdatedAt)
	doc.Version = s.Version
	if s.Recipient != nil {
		recipientID := s.Recipient.ID
		doc.RecipientID = &recipientID
		doc.RecipientTaxID = s.Recipient.TaxID
		doc.RecipientName = s.Recipient.Name
	}
	if doc.Items == nil {
		doc.Items = make([]DocumentItem, 0)
	}
	return doc
}

// CanModify returns true while items may still be added or removed
func (d *FiscalDocument) CanModify() bool {
	return d.Status == DocumentStatusDraft
}

// AddItem appends a line item. Only allowed in DRAFT; totals are recomputed
// and the version bumped.
func (d *FiscalDocument) AddItem(item *DocumentItem) error {
	if !d.CanModify() {
		return shared.NewDomainError(shared.CodeAlreadyAuthorized,
			fmt.Sprintf("Cannot add items to a document in %s status", d.Status))
	}

	item.DocumentID = d.ID
	if item.Ordinal == 0 {
		item.Ordinal = len(d.Items) + 1
	}
	d.Items = append(d.Items, *item)
	d.recomputeTotals()
	d.touch()

	return nil
}

// RemoveItem removes a line item by ID. Only allowed in DRAFT; remaining
// items keep their relative order and are renumbered from 1.
func (d *FiscalDocument) RemoveItem(itemID uuid.UUID) error {
	if !d.CanModify() {
		return shared.NewDomainError(shared.CodeAlreadyAuthorized,
			fmt.Sprintf("Cannot remove items from a document in %s status", d.Status))
	}

	for idx, item := range d.Items {
		if item.ID == itemID {
			d.Items = append(d.Items[:idx], d.Items[idx+1:]...)
			for i := range d.Items {
				d.Items[i].Ordinal = i + 1
			}
			d.recomputeTotals()
			d.touch()
			return nil
		}
	}

	return shared.NewDomainError(shared.CodeNotFound, "Document item not found")
}

// SetFreight updates the freight charge. Only allowed in DRAFT.
func (d *FiscalDocument) SetFreight(value decimal.Decimal) error {
	return d.setCharge(&d.Totals.Freight, value, "Freight")
}

// SetInsurance updates the insurance charge. Only allowed in DRAFT.
func (d *FiscalDocument) SetInsurance(value decimal.Decimal) error {
	return d.setCharge(&d.Totals.Insurance, value, "Insurance")
}

// SetOtherCosts updates the other-costs charge. Only allowed in DRAFT.
func (d *FiscalDocument) SetOtherCosts(value decimal.Decimal) error {
	return d.setCharge(&d.Totals.OtherCosts, value, "Other costs")
}

func (d *FiscalDocument) setCharge(field *decimal.Decimal, value decimal.Decimal, label string) error {
	if !d.CanModify() {
		return shared.NewDomainError(shared.CodeAlreadyAuthorized,
			fmt.Sprintf("Cannot change charges of a document in %s status", d.Status))
	}
	if value.IsNegative() {
		return shared.NewDomainError(shared.CodeInvalidInput, label+" cannot be negative")
	}
	*field = value
	d.recomputeTotals()
	d.touch()
	return nil
}

// Submit moves the document from DRAFT to PENDING. A document with no items
// cannot be submitted.
func (d *FiscalDocument) Submit() error {
	if !d.Status.CanTransitionTo(DocumentStatusPending, d.Type) {
		return d.transitionError(DocumentStatusPending)
	}
	if len(d.Items) == 0 {
		return shared.NewDomainError(shared.CodeEmptyDocument, "Cannot submit a document without items")
	}

	d.Status = DocumentStatusPending
	d.touch()
	d.AddDomainEvent(NewDocumentSubmittedEvent(d))

	return nil
}

// Process moves the document from PENDING to PROCESSING, marking that it was
// handed to the tax authority and a response is awaited.
func (d *FiscalDocument) Process() error {
	if !d.Status.CanTransitionTo(DocumentStatusProcessing, d.Type) {
		return d.transitionError(DocumentStatusProcessing)
	}

	d.Status = DocumentStatusProcessing
	d.touch()

	return nil
}

// ReturnToDraft moves a PENDING or REJECTED document back to DRAFT so its
// items can be corrected and it can be resubmitted.
func (d *FiscalDocument) ReturnToDraft() error {
	if !d.Status.CanTransitionTo(DocumentStatusDraft, d.Type) {
		return d.transitionError(DocumentStatusDraft)
	}

	d.Status = DocumentStatusDraft
	d.RejectionCode = ""
	d.RejectionReason = ""
	d.touch()

	return nil
}

// AuthorizeParams carries the authority response fed into Authorize
type AuthorizeParams struct {
	AccessKey      AccessKey
	ProtocolNumber string
	ProtocolDate   time.Time
}

// Authorize records the authority authorization. Legal from PROCESSING (and
// directly from PENDING for service invoices, per the transition policy).
// AuthorizedAt is stamped from the protocol date, falling back to now.
func (d *FiscalDocument) Authorize(p AuthorizeParams) error {
	if !d.Status.CanTransitionTo(DocumentStatusAuthorized, d.Type) {
		return d.transitionError(DocumentStatusAuthorized)
	}
	if p.AccessKey.IsZero() {
		return shared.NewDomainError(shared.CodeInvalidAccessKey, "Access key is required for authorization")
	}
	if p.ProtocolNumber == "" {
		return shared.NewDomainError(shared.CodeInvalidInput, "Protocol number is required for authorization")
	}

	authorizedAt := p.ProtocolDate
	if authorizedAt.IsZero() {
		authorizedAt = time.Now()
	}

	key := p.AccessKey
	d.Status = DocumentStatusAuthorized
	d.AccessKey = &key
	d.ProtocolNumber = p.ProtocolNumber
	d.ProtocolDate = &authorizedAt
	d.AuthorizedAt = &authorizedAt
	d.touch()
	d.AddDomainEvent(NewDocumentAuthorizedEvent(d))

	return nil
}

// Reject records an authority rejection. Legal wherever the transition policy
// allows REJECTED.
func (d *FiscalDocument) Reject(code, reason string) error {
	if !d.Status.CanTransitionTo(DocumentStatusRejected, d.Type) {
		return d.transitionError(DocumentStatusRejected)
	}

	d.Status = DocumentStatusRejected
	d.RejectionCode = code
	d.RejectionReason = reason
	d.touch()
	d.AddDomainEvent(NewDocumentRejectedEvent(d))

	return nil
}

// RegisterCorrection marks an authorized document as corrected via a
// correction letter. A corrected document may still be cancelled.
func (d *FiscalDocument) RegisterCorrection(text string) error {
	if !d.Status.CanTransitionTo(DocumentStatusCorrected, d.Type) {
		return d.transitionError(DocumentStatusCorrected)
	}
	if text == "" {
		return shared.NewDomainError(shared.CodeInvalidInput, "Correction text cannot be empty")
	}

	d.Status = DocumentStatusCorrected
	d.Notes = text
	d.touch()

	return nil
}

// CancelParams carries the inputs for cancelling an authorized document
type CancelParams struct {
	Reason         string
	ProtocolNumber string
}

// Cancel cancels an authorized document. Cancelling twice yields a distinct
// ALREADY_CANCELLED code; cancelling past the 24-hour window from the
// authorization timestamp yields CANCELLATION_DEADLINE_EXPIRED.
func (d *FiscalDocument) Cancel(p CancelParams) error {
	if d.Status == DocumentStatusCancelled {
		return shared.NewDomainError(shared.CodeAlreadyCancelled, "Document is already cancelled")
	}
	if !d.Status.CanTransitionTo(DocumentStatusCancelled, d.Type) {
		return d.transitionError(DocumentStatusCancelled)
	}
	if p.Reason == "" {
		return shared.NewDomainError(shared.CodeInvalidInput, "Cancellation reason is required")
	}
	if d.AuthorizedAt == nil {
		return shared.NewDomainError(shared.CodeInvalidStatusTransition, "Document has no authorization timestamp")
	}
	if time.Now().After(d.AuthorizedAt.Add(CancellationWindow)) {
		return shared.NewDomainError(shared.CodeCancellationDeadlineExpired,
			fmt.Sprintf("Cancellation window of %s from authorization has expired", CancellationWindow))
	}

	now := time.Now()
	d.Status = DocumentStatusCancelled
	d.CancelReason = p.Reason
	d.CancelProtocolNumber = p.ProtocolNumber
	d.CancelledAt = &now
	d.touch()
	d.AddDomainEvent(NewDocumentCancelledEvent(d))

	return nil
}

// ValidationIssue describes one problem found during pre-issuance validation
type ValidationIssue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Validate inspects the document for issues that would prevent issuance.
// Unlike Submit, which fails on the first violation, this collects every
// issue so callers can show the full list. An empty slice means the
// document is ready to be submitted.
func (d *FiscalDocument) Validate() []ValidationIssue {
	var issues []ValidationIssue

	if len(d.Items) == 0 {
		issues = append(issues, ValidationIssue{
			Code:    shared.CodeEmptyDocument,
			Message: "Document has no items",
		})
	}
	if len(stripNonDigits(d.IssuerTaxID)) != 14 {
		issues = append(issues, ValidationIssue{
			Code:    shared.CodeInvalidInput,
			Message: "Issuer tax ID must have 14 digits",
		})
	}
	// Goods and transport documents name a counterparty; consumer and
	// service invoices may be issued without one.
	if (d.Type == DocumentTypeNFE || d.Type == DocumentTypeCTE || d.Type == DocumentTypeMDFE) && d.RecipientTaxID == "" {
		issues = append(issues, ValidationIssue{
			Code:    shared.CodeInvalidInput,
			Message: "Recipient tax ID is required for " + string(d.Type),
		})
	}
	if d.Totals.Discount.GreaterThan(d.Totals.Products.Add(d.Totals.Services)) {
		issues = append(issues, ValidationIssue{
			Code:    shared.CodeInvalidItemValue,
			Message: "Total discount exceeds the gross document value",
		})
	}

	return issues
}

// ItemCount returns the number of line items
func (d *FiscalDocument) ItemCount() int {
	return len(d.Items)
}

// GetItem returns a line item by its ID, or nil
func (d *FiscalDocument) GetItem(itemID uuid.UUID) *DocumentItem {
	for idx := range d.Items {
		if d.Items[idx].ID == itemID {
			return &d.Items[idx]
		}
	}
	return nil
}

// IsAuthorized returns true if the document is authorized
func (d *FiscalDocument) IsAuthorized() bool {
	return d.Status == DocumentStatusAuthorized
}

// IsCancelled returns true if the document is cancelled
func (d *FiscalDocument) IsCancelled() bool {
	return d.Status == DocumentStatusCancelled
}

// IsTerminal returns true if no further transition is possible
func (d *FiscalDocument) IsTerminal() bool {
	return d.Status == DocumentStatusCancelled
}

// recomputeTotals derives every total from the current items plus freight,
// insurance and other costs. ICMS, PIS and COFINS are assumed embedded in the
// line price: they are tracked as informational totals but not added to the
// grand total. IPI is charged on top and is added. TotalTaxes() on the totals
// struct sums all kinds regardless.
func (d *FiscalDocument) recomputeTotals() {
	products := decimal.Zero
	services := decimal.Zero
	discount := decimal.Zero
	var icms, ipi, pis, cofins, ibs, cbs decimal.Decimal

	for _, item := range d.Items {
		if d.Type.IsService() {
			services = services.Add(item.TotalValue)
		} else {
			products = products.Add(item.TotalValue)
		}
		discount = discount.Add(item.Discount)
		icms = icms.Add(item.Taxes.ICMS)
		ipi = ipi.Add(item.Taxes.IPI)
		pis = pis.Add(item.Taxes.PIS)
		cofins = cofins.Add(item.Taxes.COFINS)
		ibs = ibs.Add(item.Taxes.IBS)
		cbs = cbs.Add(item.Taxes.CBS)
	}

	d.Totals.Products = products
	d.Totals.Services = services
	d.Totals.Discount = discount
	d.Totals.ICMS = icms
	d.Totals.IPI = ipi
	d.Totals.PIS = pis
	d.Totals.COFINS = cofins
	d.Totals.IBS = ibs
	d.Totals.CBS = cbs

	d.Totals.Total = products.Add(services).
		Sub(discount).
		Add(d.Totals.Freight).
		Add(d.Totals.Insurance).
		Add(d.Totals.OtherCosts).
		Add(ipi)
}

// touch stamps the update time and bumps the optimistic-locking version
func (d *FiscalDocument) touch() {
	d.UpdatedAt = time.Now()
	d.IncrementVersion()
}

// transitionError builds the standard invalid-transition failure
func (d *FiscalDocument) transitionError(target DocumentStatus) error {
	return shared.NewDomainError(shared.CodeInvalidStatusTransition,
		fmt.Sprintf("Cannot transition %s document from %s to %s", d.Type, d.Status, target))
}
