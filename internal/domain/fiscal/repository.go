package fiscal

import (
	"context"
	"time"

	"github.com/fiscalhub/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// DocumentFilter defines filtering options for fiscal document queries
type DocumentFilter struct {
	shared.Filter
	Type        *DocumentType   // Filter by document type
	Status      *DocumentStatus // Filter by status
	Series      *string         // Filter by series
	IssuerID    *uuid.UUID      // Filter by issuing party
	RecipientID *uuid.UUID      // Filter by recipient party
	IssuedFrom  *time.Time      // Filter by issue date range start
	IssuedTo    *time.Time      // Filter by issue date range end
}

// DocumentRepository defines the interface for fiscal document persistence.
// Every method is scoped by organization and branch; a document is never
// visible outside the branch that issued it.
type DocumentRepository interface {
	// FindByID finds a document with its items for a branch
	FindByID(ctx context.Context, tenantID, branchID, id uuid.UUID) (*FiscalDocument, error)

	// FindByAccessKey finds an authorized document by its 44-digit access key
	FindByAccessKey(ctx context.Context, tenantID, branchID uuid.UUID, key AccessKey) (*FiscalDocument, error)

	// FindByNumber finds a document by type, series and number within a branch
	FindByNumber(ctx context.Context, tenantID, branchID uuid.UUID, docType DocumentType, series, number string) (*FiscalDocument, error)

	// FindAll lists documents for a branch with filtering and pagination
	FindAll(ctx context.Context, tenantID, branchID uuid.UUID, filter DocumentFilter) ([]FiscalDocument, error)

	// Count counts documents for a branch with optional filters
	Count(ctx context.Context, tenantID, branchID uuid.UUID, filter DocumentFilter) (int64, error)

	// Save persists a document and its items atomically, enforcing the
	// optimistic version check
	Save(ctx context.Context, doc *FiscalDocument) error

	// SaveMany persists several documents sequentially; a failure aborts
	// the remainder
	SaveMany(ctx context.Context, docs []*FiscalDocument) error

	// Exists reports whether a document exists within a branch
	Exists(ctx context.Context, tenantID, branchID, id uuid.UUID) (bool, error)

	// NextDocumentNumber returns the next sequential number for a type and
	// series within a branch, zero padded to nine digits
	NextDocumentNumber(ctx context.Context, tenantID, branchID uuid.UUID, docType DocumentType, series string) (string, error)

	// Delete removes a draft document
	Delete(ctx context.Context, tenantID, branchID, id uuid.UUID) error
}
