package fiscal

import (
	"time"

	"github.com/fiscalhub/backend/internal/domain/fiscal"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateDocumentRequest represents a request to create a document draft
type CreateDocumentRequest struct {
	Type           string           `json:"type" binding:"required"`
	Series         string           `json:"series" binding:"required"`
	Number         string           `json:"number"` // assigned from the branch sequence when empty
	IssuerID       uuid.UUID        `json:"issuer_id" binding:"required"`
	IssuerTaxID    string           `json:"issuer_tax_id" binding:"required"`
	IssuerName     string           `json:"issuer_name"`
	RecipientID    *uuid.UUID       `json:"recipient_id"`
	RecipientTaxID string           `json:"recipient_tax_id"`
	RecipientName  string           `json:"recipient_name"`
	IssueDate      *time.Time       `json:"issue_date"`
	Freight        decimal.Decimal  `json:"freight"`
	Insurance      decimal.Decimal  `json:"insurance"`
	OtherCosts     decimal.Decimal  `json:"other_costs"`
	Notes          string           `json:"notes"`
	Items          []AddItemRequest `json:"items" binding:"omitempty,dive"`
}

// AddItemRequest represents a request to add a line item to a draft
type AddItemRequest struct {
	ProductID          uuid.UUID       `json:"product_id"`
	Description        string          `json:"description" binding:"required"`
	ClassificationCode string          `json:"classification_code" binding:"required"`
	OperationCode      string          `json:"operation_code" binding:"required,cfop"`
	OperationDesc      string          `json:"operation_description"`
	Unit               string          `json:"unit"`
	Quantity           decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice          decimal.Decimal `json:"unit_price" binding:"required"`
	Discount           decimal.Decimal `json:"discount"`
	Taxes              ItemTaxesDTO    `json:"taxes"`
}

func (r *AddItemRequest) toDomainItem() (*fiscal.DocumentItem, error) {
	cfop, err := fiscal.NewOperationCode(r.OperationCode, r.OperationDesc)
	if err != nil {
		return nil, err
	}
	return fiscal.NewDocumentItem(fiscal.DocumentItemParams{
		ProductID:          r.ProductID,
		Description:        r.Description,
		ClassificationCode: r.ClassificationCode,
		CFOP:               cfop,
		Unit:               r.Unit,
		Quantity:           r.Quantity,
		UnitPrice:          r.UnitPrice,
		Discount:           r.Discount,
		Taxes:              r.Taxes.toDomain(),
	})
}

// ItemTaxesDTO carries the per-tax values of one line item
type ItemTaxesDTO struct {
	ICMS   decimal.Decimal `json:"icms"`
	IPI    decimal.Decimal `json:"ipi"`
	PIS    decimal.Decimal `json:"pis"`
	COFINS decimal.Decimal `json:"cofins"`
	IBS    decimal.Decimal `json:"ibs"`
	CBS    decimal.Decimal `json:"cbs"`
}

func (d ItemTaxesDTO) toDomain() fiscal.ItemTaxes {
	return fiscal.ItemTaxes{
		ICMS:   d.ICMS,
		IPI:    d.IPI,
		PIS:    d.PIS,
		COFINS: d.COFINS,
		IBS:    d.IBS,
		CBS:    d.CBS,
	}
}

// CancelDocumentCommand represents a request to cancel an authorized document
type CancelDocumentCommand struct {
	Reason string `json:"reason" binding:"required,min=15"`
}

// AuthorizeDocumentCommand records an authorization protocol obtained
// outside the normal polling flow, e.g. contingency issuance resolved over
// the authority's support channel.
type AuthorizeDocumentCommand struct {
	AccessKey      string     `json:"access_key"`
	ProtocolNumber string     `json:"protocol_number" binding:"required"`
	ProtocolDate   *time.Time `json:"protocol_date"`
}

// ValidationResponse lists the issuance-blocking issues found on a document
type ValidationResponse struct {
	DocumentID uuid.UUID                `json:"document_id"`
	Valid      bool                     `json:"valid"`
	Issues     []fiscal.ValidationIssue `json:"issues"`
}

// DocumentListFilter defines filtering options for document list queries
type DocumentListFilter struct {
	Type       string     `form:"type"`
	Status     string     `form:"status"`
	Series     string     `form:"series"`
	IssuerID   *uuid.UUID `form:"issuer_id"`
	IssuedFrom *time.Time `form:"issued_from"`
	IssuedTo   *time.Time `form:"issued_to"`
	Page       int        `form:"page"`
	PageSize   int        `form:"page_size"`
}

// DocumentItemResponse represents a line item in API responses
type DocumentItemResponse struct {
	ID                 uuid.UUID       `json:"id"`
	Ordinal            int             `json:"ordinal"`
	ProductID          uuid.UUID       `json:"product_id,omitempty"`
	Description        string          `json:"description"`
	ClassificationCode string          `json:"classification_code"`
	OperationCode      string          `json:"operation_code"`
	OperationDesc      string          `json:"operation_description"`
	Unit               string          `json:"unit,omitempty"`
	Quantity           decimal.Decimal `json:"quantity"`
	UnitPrice          decimal.Decimal `json:"unit_price"`
	TotalValue         decimal.Decimal `json:"total_value"`
	Discount           decimal.Decimal `json:"discount"`
	Taxes              ItemTaxesDTO    `json:"taxes"`
}

// TotalsResponse represents document totals in API responses
type TotalsResponse struct {
	Products   decimal.Decimal `json:"products"`
	Services   decimal.Decimal `json:"services"`
	Discount   decimal.Decimal `json:"discount"`
	Freight    decimal.Decimal `json:"freight"`
	Insurance  decimal.Decimal `json:"insurance"`
	OtherCosts decimal.Decimal `json:"other_costs"`
	ICMS       decimal.Decimal `json:"icms"`
	IPI        decimal.Decimal `json:"ipi"`
	PIS        decimal.Decimal `json:"pis"`
	COFINS     decimal.Decimal `json:"cofins"`
	IBS        decimal.Decimal `json:"ibs"`
	CBS        decimal.Decimal `json:"cbs"`
	TotalTaxes decimal.Decimal `json:"total_taxes"`
	Total      decimal.Decimal `json:"total"`
}

// DocumentResponse represents a fiscal document in API responses
type DocumentResponse struct {
	ID              uuid.UUID              `json:"id"`
	TenantID        uuid.UUID              `json:"tenant_id"`
	BranchID        uuid.UUID              `json:"branch_id"`
	Type            string                 `json:"type"`
	Status          string                 `json:"status"`
	Series          string                 `json:"series"`
	Number          string                 `json:"number"`
	AccessKey       string                 `json:"access_key,omitempty"`
	IssuerID        uuid.UUID              `json:"issuer_id"`
	IssuerTaxID     string                 `json:"issuer_tax_id"`
	IssuerName      string                 `json:"issuer_name,omitempty"`
	RecipientID     *uuid.UUID             `json:"recipient_id,omitempty"`
	RecipientTaxID  string                 `json:"recipient_tax_id,omitempty"`
	RecipientName   string                 `json:"recipient_name,omitempty"`
	IssueDate       time.Time              `json:"issue_date"`
	TaxRegime       string                 `json:"tax_regime"`
	Totals          TotalsResponse         `json:"totals"`
	Items           []DocumentItemResponse `json:"items"`
	ProtocolNumber  string                 `json:"protocol_number,omitempty"`
	AuthorizedAt    *time.Time             `json:"authorized_at,omitempty"`
	CancelReason    string                 `json:"cancel_reason,omitempty"`
	CancelledAt     *time.Time             `json:"cancelled_at,omitempty"`
	RejectionCode   string                 `json:"rejection_code,omitempty"`
	RejectionReason string                 `json:"rejection_reason,omitempty"`
	Notes           string                 `json:"notes,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
	Version         int                    `json:"version"`
}

// TransmissionResponse represents the outcome of a transmission round
type TransmissionResponse struct {
	DocumentID    uuid.UUID         `json:"document_id"`
	Status        string            `json:"status"`
	StatusCode    string            `json:"status_code"`
	Message       string            `json:"message"`
	ReceiptNumber string            `json:"receipt_number,omitempty"`
	Document      *DocumentResponse `json:"document,omitempty"`
}

func toItemResponse(item *fiscal.DocumentItem) DocumentItemResponse {
	return DocumentItemResponse{
		ID:                 item.ID,
		Ordinal:            item.Ordinal,
		ProductID:          item.ProductID,
		Description:        item.Description,
		ClassificationCode: item.ClassificationCode,
		OperationCode:      item.CFOP.Code(),
		OperationDesc:      item.CFOP.Description(),
		Unit:               item.Unit,
		Quantity:           item.Quantity,
		UnitPrice:          item.UnitPrice,
		TotalValue:         item.TotalValue,
		Discount:           item.Discount,
		Taxes: ItemTaxesDTO{
			ICMS:   item.Taxes.ICMS,
			IPI:    item.Taxes.IPI,
			PIS:    item.Taxes.PIS,
			COFINS: item.Taxes.COFINS,
			IBS:    item.Taxes.IBS,
			CBS:    item.Taxes.CBS,
		},
	}
}

func toDocumentResponse(doc *fiscal.FiscalDocument) *DocumentResponse {
	items := make([]DocumentItemResponse, 0, len(doc.Items))
	for i := range doc.Items {
		items = append(items, toItemResponse(&doc.Items[i]))
	}

	accessKey := ""
	if doc.AccessKey != nil {
		accessKey = doc.AccessKey.String()
	}

	return &DocumentResponse{
		ID:              doc.ID,
		TenantID:        doc.TenantID,
		BranchID:        doc.BranchID,
		Type:            doc.Type.String(),
		Status:          doc.Status.String(),
		Series:          doc.Series,
		Number:          doc.Number,
		AccessKey:       accessKey,
		IssuerID:        doc.IssuerID,
		IssuerTaxID:     doc.IssuerTaxID,
		IssuerName:      doc.IssuerName,
		RecipientID:     doc.RecipientID,
		RecipientTaxID:  doc.RecipientTaxID,
		RecipientName:   doc.RecipientName,
		IssueDate:       doc.IssueDate,
		TaxRegime:       string(doc.TaxRegime),
		Totals: TotalsResponse{
			Products:   doc.Totals.Products,
			Services:   doc.Totals.Services,
			Discount:   doc.Totals.Discount,
			Freight:    doc.Totals.Freight,
			Insurance:  doc.Totals.Insurance,
			OtherCosts: doc.Totals.OtherCosts,
			ICMS:       doc.Totals.ICMS,
			IPI:        doc.Totals.IPI,
			PIS:        doc.Totals.PIS,
			COFINS:     doc.Totals.COFINS,
			IBS:        doc.Totals.IBS,
			CBS:        doc.Totals.CBS,
			TotalTaxes: doc.Totals.TotalTaxes(),
			Total:      doc.Totals.Total,
		},
		Items:           items,
		ProtocolNumber:  doc.ProtocolNumber,
		AuthorizedAt:    doc.AuthorizedAt,
		CancelReason:    doc.CancelReason,
		CancelledAt:     doc.CancelledAt,
		RejectionCode:   doc.RejectionCode,
		RejectionReason: doc.RejectionReason,
		Notes:           doc.Notes,
		CreatedAt:       doc.CreatedAt,
		UpdatedAt:       doc.UpdatedAt,
		Version:         doc.Version,
	}
}
