package handler

import (
	appfiscal "github.com/fiscalhub/backend/internal/application/fiscal"
	"github.com/fiscalhub/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// TransmissionHandler serves the tax authority endpoints: transmission,
// authorization polling, cancellation and status queries.
type TransmissionHandler struct {
	BaseHandler
	transmissions *appfiscal.TransmissionService
}

// NewTransmissionHandler creates a new TransmissionHandler
func NewTransmissionHandler(transmissions *appfiscal.TransmissionService) *TransmissionHandler {
	return &TransmissionHandler{transmissions: transmissions}
}

// checkAuthorizationRequest carries the receipt to poll for
type checkAuthorizationRequest struct {
	ReceiptNumber string `json:"receipt_number" binding:"required"`
}

// Transmit handles POST /api/v1/documents/:id/transmit
func (h *TransmissionHandler) Transmit(c *gin.Context) {
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

	resp, err := h.transmissions.Transmit(c.Request.Context(), tenantID, branchID, docID)
	if err != nil {
		h.DomainError(c, err)
		return
	}
	h.Success(c, resp)
}

// CheckAuthorization handles POST /api/v1/documents/:id/check-authorization
func (h *TransmissionHandler) CheckAuthorization(c *gin.Context) {
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

	var req checkAuthorizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.transmissions.CheckAuthorization(c.Request.Context(), tenantID, branchID, docID, req.ReceiptNumber)
	if err != nil {
		h.DomainError(c, err)
		return
	}
	h.Success(c, resp)
}

// Authorize handles POST /api/v1/documents/:id/authorize
//
// Records a protocol obtained outside the polling flow, such as contingency
// issuance resolved over the authority's support channel.
func (h *TransmissionHandler) Authorize(c *gin.Context) {
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

	var cmd appfiscal.AuthorizeDocumentCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.transmissions.AuthorizeDocument(c.Request.Context(), tenantID, branchID, docID, &cmd)
	if err != nil {
		h.DomainError(c, err)
		return
	}
	h.Success(c, resp)
}

// Cancel handles POST /api/v1/documents/:id/cancel
func (h *TransmissionHandler) Cancel(c *gin.Context) {
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

	var cmd appfiscal.CancelDocumentCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.transmissions.CancelDocument(c.Request.Context(), tenantID, branchID, docID, &cmd)
	if err != nil {
		h.DomainError(c, err)
		return
	}
	h.Success(c, resp)
}

// QueryStatus handles GET /api/v1/documents/status/:key
//
// The key is the 44-digit access key; the result comes straight from the
// tax authority, so documents issued elsewhere can be consulted too.
func (h *TransmissionHandler) QueryStatus(c *gin.Context) {
	tenantID, branchID, err := issuerScope(c)
	if err != nil {
		h.BadRequest(c, "Issuer scope is required")
		return
	}

	result, err := h.transmissions.QueryStatus(c.Request.Context(), tenantID, branchID, c.Param("key"))
	if err != nil {
		h.DomainError(c, err)
		return
	}
	h.Success(c, result)
}
