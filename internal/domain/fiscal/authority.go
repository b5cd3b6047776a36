package fiscal

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Tax Authority Gateway Errors
// ---------------------------------------------------------------------------

var (
	// Transmission request errors
	ErrAuthorityInvalidTenantID   = errors.New("authority: invalid tenant ID")
	ErrAuthorityInvalidDocumentID = errors.New("authority: invalid document ID")
	ErrAuthorityInvalidAccessKey  = errors.New("authority: invalid access key")
	ErrAuthorityInvalidReceipt    = errors.New("authority: invalid receipt number")
	ErrAuthorityReasonTooShort    = errors.New("authority: cancellation reason below minimum length")

	// Gateway errors
	ErrAuthorityNotConfigured   = errors.New("authority: gateway not configured")
	ErrAuthorityUnavailable     = errors.New("authority: gateway temporarily unavailable")
	ErrAuthorityRequestFailed   = errors.New("authority: gateway request failed")
	ErrAuthorityInvalidResponse = errors.New("authority: invalid gateway response")
)

// MinCancelReasonLength is the regulator minimum for cancellation reasons
const MinCancelReasonLength = 15

// ---------------------------------------------------------------------------
// Regulator status codes. A rejection is a successful gateway call with a
// negative outcome, never a transport error.
// ---------------------------------------------------------------------------

const (
	// AuthorityCodeAuthorized means the document usage was authorized
	AuthorityCodeAuthorized = "100"
	// AuthorityCodeCancelHomologated means the cancellation was homologated
	AuthorityCodeCancelHomologated = "101"
	// AuthorityCodeProcessing means the batch is still being processed
	AuthorityCodeProcessing = "105"
	// AuthorityCodeDenied means usage was denied for a registry irregularity
	AuthorityCodeDenied = "302"
	// AuthorityCodePastDeadline means the cancellation deadline has passed
	AuthorityCodePastDeadline = "563"
)

// AuthorityStatus classifies the regulator outcome of a gateway call
type AuthorityStatus string

const (
	// AuthorityStatusAuthorized indicates the document was authorized
	AuthorityStatusAuthorized AuthorityStatus = "AUTHORIZED"
	// AuthorityStatusProcessing indicates the authority is still processing
	AuthorityStatusProcessing AuthorityStatus = "PROCESSING"
	// AuthorityStatusRejected indicates the authority rejected the document
	AuthorityStatusRejected AuthorityStatus = "REJECTED"
	// AuthorityStatusCancelled indicates the cancellation was homologated
	AuthorityStatusCancelled AuthorityStatus = "CANCELLED"
	// AuthorityStatusUnknown indicates the document is not known to the authority
	AuthorityStatusUnknown AuthorityStatus = "UNKNOWN"
)

// IsValid returns true if the status is valid
func (s AuthorityStatus) IsValid() bool {
	switch s {
	case AuthorityStatusAuthorized, AuthorityStatusProcessing, AuthorityStatusRejected,
		AuthorityStatusCancelled, AuthorityStatusUnknown:
		return true
	default:
		return false
	}
}

// String returns the string representation of AuthorityStatus
func (s AuthorityStatus) String() string {
	return string(s)
}

// StatusForCode maps a regulator status code to the coarse outcome
func StatusForCode(code string) AuthorityStatus {
	switch code {
	case AuthorityCodeAuthorized:
		return AuthorityStatusAuthorized
	case AuthorityCodeCancelHomologated:
		return AuthorityStatusCancelled
	case AuthorityCodeProcessing:
		return AuthorityStatusProcessing
	case "":
		return AuthorityStatusUnknown
	default:
		return AuthorityStatusRejected
	}
}

// ---------------------------------------------------------------------------
// Request/Response DTOs
// ---------------------------------------------------------------------------

// TransmitRequest represents a request to transmit a document batch
type TransmitRequest struct {
	// TenantID is the organization transmitting the document
	TenantID uuid.UUID
	// BranchID is the branch that issued the document
	BranchID uuid.UUID
	// DocumentID is our internal document ID
	DocumentID uuid.UUID
	// DocumentType is the fiscal document subtype
	DocumentType DocumentType
	// AccessKey is the candidate access key for the document
	AccessKey AccessKey
	// Series and Number identify the document within the issuer
	Series string
	Number string
	// IssuerTaxID is the issuing party registration number
	IssuerTaxID string
	// TotalValue is the document grand total
	TotalValue decimal.Decimal
	// Payload is the serialized document sent to the authority
	Payload []byte
}

// Validate validates the transmit request
func (r *TransmitRequest) Validate() error {
	if r.TenantID == uuid.Nil {
		return ErrAuthorityInvalidTenantID
	}
	if r.DocumentID == uuid.Nil {
		return ErrAuthorityInvalidDocumentID
	}
	if r.AccessKey.IsZero() {
		return ErrAuthorityInvalidAccessKey
	}
	return nil
}

// TransmitReceipt represents the synchronous acknowledgement of a transmission
type TransmitReceipt struct {
	// ReceiptNumber tracks the batch while it is processed
	ReceiptNumber string
	// StatusCode is the regulator status code, typically 105
	StatusCode string
	// Message is the human readable regulator message
	Message string
	// ReceivedAt is when the authority accepted the batch
	ReceivedAt time.Time
}

// AuthorizationResult represents the outcome of querying a transmitted batch
type AuthorizationResult struct {
	// Status is the coarse outcome
	Status AuthorityStatus
	// StatusCode is the exact regulator code (100, 105, 302, ...)
	StatusCode string
	// Message is the human readable regulator message
	Message string
	// AccessKey echoes the authorized access key
	AccessKey AccessKey
	// ProtocolNumber is the authorization protocol, set when authorized
	ProtocolNumber string
	// ProtocolDate is the regulator authorization timestamp
	ProtocolDate time.Time
}

// CancelDocumentRequest represents a request to cancel an authorized document
type CancelDocumentRequest struct {
	// TenantID is the organization cancelling the document
	TenantID uuid.UUID
	// BranchID is the branch that issued the document
	BranchID uuid.UUID
	// AccessKey identifies the authorized document
	AccessKey AccessKey
	// ProtocolNumber is the original authorization protocol
	ProtocolNumber string
	// Reason is the justification, MinCancelReasonLength characters minimum
	Reason string
}

// Validate validates the cancel request
func (r *CancelDocumentRequest) Validate() error {
	if r.TenantID == uuid.Nil {
		return ErrAuthorityInvalidTenantID
	}
	if r.AccessKey.IsZero() {
		return ErrAuthorityInvalidAccessKey
	}
	if len(r.Reason) < MinCancelReasonLength {
		return ErrAuthorityReasonTooShort
	}
	return nil
}

// CancellationResult represents the outcome of a cancellation request
type CancellationResult struct {
	// Status is the coarse outcome
	Status AuthorityStatus
	// StatusCode is the exact regulator code (101, 563, ...)
	StatusCode string
	// Message is the human readable regulator message
	Message string
	// ProtocolNumber is the cancellation protocol, set when homologated
	ProtocolNumber string
	// ProtocolDate is the regulator cancellation timestamp
	ProtocolDate time.Time
}

// StatusResult represents the registered situation of a document
type StatusResult struct {
	// Status is the coarse outcome
	Status AuthorityStatus
	// StatusCode is the exact regulator code
	StatusCode string
	// Message is the human readable regulator message
	Message string
	// ProtocolNumber is the latest protocol on record
	ProtocolNumber string
	// ProtocolDate is the latest protocol timestamp
	ProtocolDate time.Time
}

// ---------------------------------------------------------------------------
// TaxAuthorityGateway Port Interface
// ---------------------------------------------------------------------------

// TaxAuthorityGateway defines the port interface for the government tax
// authority. It is defined in the domain layer; concrete implementations
// (the HTTP client, the deterministic simulator) live in infrastructure.
// Implementations report rejections through result status codes and reserve
// errors for transport and availability failures.
type TaxAuthorityGateway interface {
	// Transmit sends a document batch and returns the tracking receipt
	Transmit(ctx context.Context, req *TransmitRequest) (*TransmitReceipt, error)

	// QueryAuthorization queries the outcome of a transmitted batch by its
	// receipt number
	QueryAuthorization(ctx context.Context, tenantID uuid.UUID, receiptNumber string) (*AuthorizationResult, error)

	// Cancel requests cancellation of an authorized document
	Cancel(ctx context.Context, req *CancelDocumentRequest) (*CancellationResult, error)

	// QueryStatus returns the registered situation of a document by access key
	QueryStatus(ctx context.Context, tenantID uuid.UUID, key AccessKey) (*StatusResult, error)
}
