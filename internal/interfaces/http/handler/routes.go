package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers the document lifecycle routes
func (h *DocumentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	docs := rg.Group("/documents")
	{
		docs.POST("", h.Create)
		docs.GET("", h.List)
		docs.GET("/access-key/:key", h.GetByAccessKey)
		docs.GET("/:id", h.Get)
		docs.DELETE("/:id", h.Delete)
		docs.POST("/:id/items", h.AddItem)
		docs.DELETE("/:id/items/:itemId", h.RemoveItem)
		docs.GET("/:id/validate", h.Validate)
		docs.POST("/:id/submit", h.Submit)
		docs.POST("/:id/return-to-draft", h.ReturnToDraft)
		docs.GET("/:id/auxiliary", h.RenderAuxiliary)
	}
}

// RegisterRoutes registers the tax authority routes
func (h *TransmissionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	docs := rg.Group("/documents")
	{
		docs.POST("/:id/transmit", h.Transmit)
		docs.POST("/:id/check-authorization", h.CheckAuthorization)
		docs.POST("/:id/authorize", h.Authorize)
		docs.POST("/:id/cancel", h.Cancel)
		docs.GET("/status/:key", h.QueryStatus)
	}
}

// HealthHandler serves liveness probes
type HealthHandler struct{}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// RegisterRoutes registers the health route
func (h *HealthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", h.Check)
}

// Check handles GET /api/v1/health
func (h *HealthHandler) Check(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
