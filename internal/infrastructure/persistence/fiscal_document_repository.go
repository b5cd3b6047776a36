package persistence

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/fiscalhub/backend/internal/domain/fiscal"
	"github.com/fiscalhub/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormDocumentRepository implements fiscal.DocumentRepository using GORM
type GormDocumentRepository struct {
	db *gorm.DB
}

var _ fiscal.DocumentRepository = (*GormDocumentRepository)(nil)

// NewGormDocumentRepository creates a new GormDocumentRepository
func NewGormDocumentRepository(db *gorm.DB) *GormDocumentRepository {
	return &GormDocumentRepository{db: db}
}

// FindByID finds a document with its items for a branch
func (r *GormDocumentRepository) FindByID(ctx context.Context, tenantID, branchID, id uuid.UUID) (*fiscal.FiscalDocument, error) {
	var doc fiscal.FiscalDocument
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("ordinal ASC") }).
		Where("tenant_id = ? AND branch_id = ? AND id = ?", tenantID, branchID, id).
		First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}

// FindByAccessKey finds an authorized document by its access key
func (r *GormDocumentRepository) FindByAccessKey(ctx context.Context, tenantID, branchID uuid.UUID, key fiscal.AccessKey) (*fiscal.FiscalDocument, error) {
	var doc fiscal.FiscalDocument
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("ordinal ASC") }).
		Where("tenant_id = ? AND branch_id = ? AND access_key = ?", tenantID, branchID, key.String()).
		First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}

// FindByNumber finds a document by type, series and number within a branch
func (r *GormDocumentRepository) FindByNumber(ctx context.Context, tenantID, branchID uuid.UUID, docType fiscal.DocumentType, series, number string) (*fiscal.FiscalDocument, error) {
	var doc fiscal.FiscalDocument
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("ordinal ASC") }).
		Where("tenant_id = ? AND branch_id = ? AND type = ? AND series = ? AND number = ?",
			tenantID, branchID, docType, series, number).
		First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}

// FindAll lists documents for a branch with filtering and pagination
func (r *GormDocumentRepository) FindAll(ctx context.Context, tenantID, branchID uuid.UUID, filter fiscal.DocumentFilter) ([]fiscal.FiscalDocument, error) {
	var docs []fiscal.FiscalDocument
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&fiscal.FiscalDocument{}).
			Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("ordinal ASC") }).
			Where("tenant_id = ? AND branch_id = ?", tenantID, branchID),
		filter,
	)

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	query = query.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize)

	if err := query.Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

// Count counts documents for a branch with optional filters
func (r *GormDocumentRepository) Count(ctx context.Context, tenantID, branchID uuid.UUID, filter fiscal.DocumentFilter) (int64, error) {
	var count int64
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&fiscal.FiscalDocument{}).
			Where("tenant_id = ? AND branch_id = ?", tenantID, branchID),
		filter,
	)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormDocumentRepository) applyFilter(query *gorm.DB, filter fiscal.DocumentFilter) *gorm.DB {
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Series != nil {
		query = query.Where("series = ?", *filter.Series)
	}
	if filter.IssuerID != nil {
		query = query.Where("issuer_id = ?", *filter.IssuerID)
	}
	if filter.RecipientID != nil {
		query = query.Where("recipient_id = ?", *filter.RecipientID)
	}
	if filter.IssuedFrom != nil {
		query = query.Where("issue_date >= ?", *filter.IssuedFrom)
	}
	if filter.IssuedTo != nil {
		query = query.Where("issue_date <= ?", *filter.IssuedTo)
	}
	return query
}

// Save persists a document and its items atomically. For existing documents
// the stored version must be strictly below the aggregate version: the
// aggregate bumps its version on every mutation, so a stored version at or
// above ours means another process saved in between.
func (r *GormDocumentRepository) Save(ctx context.Context, doc *fiscal.FiscalDocument) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return r.saveInTx(tx, doc)
	})
}

func (r *GormDocumentRepository) saveInTx(tx *gorm.DB, doc *fiscal.FiscalDocument) error {
	var stored struct {
		Version int
	}
	err := tx.Model(&fiscal.FiscalDocument{}).
		Where("id = ?", doc.ID).
		Select("version").
		Take(&stored).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		// New document
	case err != nil:
		return err
	case stored.Version >= doc.Version:
		return shared.ErrConcurrencyConflict
	}

	if err := tx.Omit("Items").Save(doc).Error; err != nil {
		return err
	}

	currentItemIDs := make([]uuid.UUID, len(doc.Items))
	for i, item := range doc.Items {
		currentItemIDs[i] = item.ID
	}
	if len(currentItemIDs) > 0 {
		if err := tx.Where("document_id = ? AND id NOT IN ?", doc.ID, currentItemIDs).
			Delete(&fiscal.DocumentItem{}).Error; err != nil {
			return err
		}
	} else {
		if err := tx.Where("document_id = ?", doc.ID).
			Delete(&fiscal.DocumentItem{}).Error; err != nil {
			return err
		}
	}
	for i := range doc.Items {
		doc.Items[i].DocumentID = doc.ID
		if err := tx.Save(&doc.Items[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// SaveMany persists several documents in one transaction; a failure rolls
// back the whole batch
func (r *GormDocumentRepository) SaveMany(ctx context.Context, docs []*fiscal.FiscalDocument) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, doc := range docs {
			if err := r.saveInTx(tx, doc); err != nil {
				return fmt.Errorf("save document %s: %w", doc.ID, err)
			}
		}
		return nil
	})
}

// Exists reports whether a document exists within a branch
func (r *GormDocumentRepository) Exists(ctx context.Context, tenantID, branchID, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&fiscal.FiscalDocument{}).
		Where("tenant_id = ? AND branch_id = ? AND id = ?", tenantID, branchID, id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// NextDocumentNumber returns the next sequential number for a type and series
// within a branch, zero padded to nine digits
func (r *GormDocumentRepository) NextDocumentNumber(ctx context.Context, tenantID, branchID uuid.UUID, docType fiscal.DocumentType, series string) (string, error) {
	var maxNumber *string
	if err := r.db.WithContext(ctx).Model(&fiscal.FiscalDocument{}).
		Where("tenant_id = ? AND branch_id = ? AND type = ? AND series = ?", tenantID, branchID, docType, series).
		Select("MAX(number)").
		Scan(&maxNumber).Error; err != nil {
		return "", err
	}

	next := int64(1)
	if maxNumber != nil && *maxNumber != "" {
		current, err := strconv.ParseInt(*maxNumber, 10, 64)
		if err != nil {
			return "", fmt.Errorf("parse stored document number %q: %w", *maxNumber, err)
		}
		next = current + 1
	}
	return fmt.Sprintf("%09d", next), nil
}

// Delete removes a document and its items
func (r *GormDocumentRepository) Delete(ctx context.Context, tenantID, branchID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", id).Delete(&fiscal.DocumentItem{}).Error; err != nil {
			return err
		}
		result := tx.Where("tenant_id = ? AND branch_id = ? AND id = ?", tenantID, branchID, id).
			Delete(&fiscal.FiscalDocument{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}
