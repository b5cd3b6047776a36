package event

import (
	"context"

	"github.com/fiscalhub/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// FiscalEventTypes lists every event the fiscal document aggregate emits
var FiscalEventTypes = []string{
	"FiscalDocumentCreated",
	"FiscalDocumentSubmitted",
	"FiscalDocumentAuthorized",
	"FiscalDocumentRejected",
	"FiscalDocumentCancelled",
}

// AuditLogHandler writes every fiscal document event to the structured log.
// Regulated issuers keep an audit trail of lifecycle changes; this handler
// is the in-process sink for it.
type AuditLogHandler struct {
	logger *zap.Logger
}

// NewAuditLogHandler creates a new AuditLogHandler
func NewAuditLogHandler(logger *zap.Logger) *AuditLogHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditLogHandler{logger: logger}
}

// EventTypes returns the fiscal document event types
func (h *AuditLogHandler) EventTypes() []string {
	return FiscalEventTypes
}

// Handle logs one lifecycle event
func (h *AuditLogHandler) Handle(_ context.Context, ev shared.DomainEvent) error {
	h.logger.Info("fiscal document event",
		zap.String("event_type", ev.EventType()),
		zap.String("event_id", ev.EventID().String()),
		zap.String("aggregate_id", ev.AggregateID().String()),
		zap.String("tenant_id", ev.TenantID().String()),
		zap.String("branch_id", ev.BranchID().String()),
		zap.Time("occurred_at", ev.OccurredAt()),
	)
	return nil
}

var _ shared.EventHandler = (*AuditLogHandler)(nil)
