package handler

import (
	"errors"
	"net/http"

	"github.com/fiscalhub/backend/internal/domain/fiscal"
	"github.com/fiscalhub/backend/internal/interfaces/http/dto"
	"github.com/fiscalhub/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID from the context
func getRequestID(c *gin.Context) string {
	if id := c.GetString("request_id"); id != "" {
		return id
	}
	if id := c.GetHeader("X-Request-ID"); id != "" {
		return id
	}
	return ""
}

// issuerScope returns the tenant and branch identifiers set by the
// IssuerScope middleware. The middleware rejects requests without a valid
// scope, so uuid.Nil here means a route was wired without it.
func issuerScope(c *gin.Context) (tenantID, branchID uuid.UUID, err error) {
	tenantID = middleware.GetTenantID(c)
	branchID = middleware.GetBranchID(c)
	if tenantID == uuid.Nil || branchID == uuid.Nil {
		return uuid.Nil, uuid.Nil, errors.New("issuer scope not found in context")
	}
	return tenantID, branchID, nil
}

// parseIDParam parses a UUID path parameter
func parseIDParam(c *gin.Context, name string) (uuid.UUID, error) {
	return uuid.Parse(c.Param(name))
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// ErrorWithCode sends an error response, deriving status code from error code
func (h *BaseHandler) ErrorWithCode(c *gin.Context, code, message string) {
	h.Error(c, dto.GetHTTPStatus(code), code, message)
}

// BadRequest sends a 400 response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// DomainError translates a domain error into the HTTP surface. Failures
// reaching the tax authority map to 502 so callers can retry; everything
// else goes through the domain error code mapping.
func (h *BaseHandler) DomainError(c *gin.Context, err error) {
	if errors.Is(err, fiscal.ErrAuthorityUnavailable) || errors.Is(err, fiscal.ErrAuthorityRequestFailed) || errors.Is(err, fiscal.ErrAuthorityInvalidResponse) {
		h.Error(c, http.StatusBadGateway, dto.ErrCodeGatewayUnavailable, "Tax authority gateway is unavailable")
		return
	}
	if errors.Is(err, fiscal.ErrDocumentNotAuthorized) {
		h.ErrorWithCode(c, dto.ErrCodeInvalidState, "Document must be authorized or cancelled to render its auxiliary document")
		return
	}
	code, status, message := dto.MapDomainError(err)
	h.Error(c, status, code, message)
}
