package handler

import (
	"net/http"

	appfiscal "github.com/fiscalhub/backend/internal/application/fiscal"
	"github.com/fiscalhub/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// DocumentHandler serves the fiscal document lifecycle endpoints: drafting,
// item maintenance, submission and auxiliary document rendering.
type DocumentHandler struct {
	BaseHandler
	documents *appfiscal.DocumentService
	rendering *appfiscal.RenderingService
}

// NewDocumentHandler creates a new DocumentHandler
func NewDocumentHandler(documents *appfiscal.DocumentService, rendering *appfiscal.RenderingService) *DocumentHandler {
	return &DocumentHandler{documents: documents, rendering: rendering}
}

// Create handles POST /api/v1/documents
func (h *DocumentHandler) Create(c *gin.Context) {
	tenantID, branchID, err := issuerScope(c)
	if err != nil {
		h.BadRequest(c, "Issuer scope is required")
		return
	}

	var req appfiscal.CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.documents.CreateDocument(c.Request.Context(), tenantID, branchID, &req)
	if err != nil {
		h.DomainError(c, err)
		return
	}
	h.Created(c, resp)
}

// Get handles GET /api/v1/documents/:id
func (h *DocumentHandler) Get(c *gin.Context) {
	tenantID, branchID, err := issuerScope(c)
	if err != nil {
		h.BadRequest(c, "Issuer scope is required")
		return
	}
	docID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid document ID format")
		return
	}

	resp, err := h.documents.GetDocument(c.Request.Context(), tenantID, branchID, docID)
	if err != nil {
		h.DomainError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetByAccessKey handles GET /api/v1/documents/access-key/:key
func (h *DocumentHandler) GetByAccessKey(c *gin.Context) {
	tenantID, branchID, err := issuerScope(c)
	if err != nil {
		h.BadRequest(c, "Issuer scope is required")
		return
	}

	resp, err := h.documents.GetDocumentByAccessKey(c.Request.Context(), tenantID, branchID, c.Param("key"))
	if err != nil {
		h.DomainError(c, err)
		return
	}
	h.Success(c, resp)
}

// List handles GET /api/v1/documents
func (h *DocumentHandler) List(c *gin.Context) {
	tenantID, branchID, err := issuerScope(c)
	if err != nil {
		h.BadRequest(c, "Issuer scope is required")
		return
	}

	var filter appfiscal.DocumentListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	page, err := h.documents.ListDocuments(c.Request.Context(), tenantID, branchID, filter)
	if err != nil {
		h.DomainError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// AddItem handles POST /api/v1/documents/:id/items
func (h *DocumentHandler) AddItem(c *gin.Context) {
	tenantID, branchID, err := issuerScope(c)
	if err != nil {
		h.BadRequest(c, "Issuer scope is required")
		return
	}
	docID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid document ID format")
		return
	}

	var req appfiscal.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.documents.AddItem(c.Request.Context(), tenantID, branchID, docID, &req)
	if err != nil {
		h.DomainError(c, err)
		return
	}
	h.Success(c, resp)
}

// RemoveItem handles DELETE /api/v1/documents/:id/items/:itemId
func (h *DocumentHandler) RemoveItem(c *gin.Context) {
	tenantID, branchID, err := issuerScope(c)
	if err != nil {
		h.BadRequest(c, "Issuer scope is required")
		return
	}
	docID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid document ID format")
		return
	}
	itemID, err := parseIDParam(c, "itemId")
	if err != nil {
		h.BadRequest(c, "Invalid item ID format")
		return
	}

	resp, err := h.documents.RemoveItem(c.Request.Context(), tenantID, branchID, docID, itemID)
	if err != nil {
		h.DomainError(c, err)
		return
	}
	h.Success(c, resp)
}

// Validate handles GET /api/v1/documents/:id/validate
func (h *DocumentHandler) Validate(c *gin.Context) {
	tenantID, branchID, err := issuerScope(c)
	if err != nil {
		h.BadRequest(c, "Issuer scope is required")
		return
	}
	docID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid document ID format")
		return
	}

	resp, err := h.documents.ValidateDocument(c.Request.Context(), tenantID, branchID, docID)
	if err != nil {
		h.DomainError(c, err)
		return
	}
	h.Success(c, resp)
}

// Submit handles POST /api/v1/documents/:id/submit
func (h *DocumentHandler) Submit(c *gin.Context) {
	tenantID, branchID, err := issuerScope(c)
	if err != nil {
		h.BadRequest(c, "Issuer scope is required")
		return
	}
	docID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid document ID format")
		return
	}

	resp, err := h.documents.SubmitDocument(c.Request.Context(), tenantID, branchID, docID)
	if err != nil {
		h.DomainError(c, err)
		return
	}
	h.Success(c, resp)
}

// ReturnToDraft handles POST /api/v1/documents/:id/return-to-draft
func (h *DocumentHandler) ReturnToDraft(c *gin.Context) {
	tenantID, branchID, err := issuerScope(c)
	if err != nil {
		h.BadRequest(c, "Issuer scope is required")
		return
	}
	docID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid document ID format")
		return
	}

	resp, err := h.documents.ReturnToDraft(c.Request.Context(), tenantID, branchID, docID)
	if err != nil {
		h.DomainError(c, err)
		return
	}
	h.Success(c, resp)
}

// Delete handles DELETE /api/v1/documents/:id
func (h *DocumentHandler) Delete(c *gin.Context) {
	tenantID, branchID, err := issuerScope(c)
	if err != nil {
		h.BadRequest(c, "Issuer scope is required")
		return
	}
	docID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid document ID format")
		return
	}

	if err := h.documents.DeleteDraft(c.Request.Context(), tenantID, branchID, docID); err != nil {
		h.DomainError(c, err)
		return
	}
	h.NoContent(c)
}

// RenderAuxiliary handles GET /api/v1/documents/:id/auxiliary
//
// The rendered file is returned directly rather than wrapped in the JSON
// envelope so browsers can display or download it.
func (h *DocumentHandler) RenderAuxiliary(c *gin.Context) {
	tenantID, branchID, err := issuerScope(c)
	if err != nil {
		h.BadRequest(c, "Issuer scope is required")
		return
	}
	docID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid document ID format")
		return
	}

	aux, err := h.rendering.RenderDocument(c.Request.Context(), tenantID, branchID, docID)
	if err != nil {
		h.DomainError(c, err)
		return
	}

	c.Header("Content-Disposition", `inline; filename="`+aux.FileName+`"`)
	c.Data(http.StatusOK, aux.ContentType, aux.Content)
}
