package event

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/fiscalhub/backend/internal/domain/fiscal"
	"github.com/fiscalhub/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type recordingHandler struct {
	types    []string
	received []shared.DomainEvent
	err      error
}

func (h *recordingHandler) EventTypes() []string { return h.types }

func (h *recordingHandler) Handle(_ context.Context, ev shared.DomainEvent) error {
	h.received = append(h.received, ev)
	return h.err
}

func newSubmittedEvent(t *testing.T) shared.DomainEvent {
	t.Helper()
	doc, err := domain.NewFiscalDocument(domain.NewDocumentParams{
		TenantID:  uuid.New(),
		BranchID:  uuid.New(),
		Type:      domain.DocumentTypeNFE,
		Series:    "001",
		Number:    "000000001",
		Issuer:    domain.PartyInfo{ID: uuid.New(), TaxID: "12345678000195", Name: "Emitente Ltda"},
		IssueDate: time.Now(),
	})
	require.NoError(t, err)
	return domain.NewDocumentSubmittedEvent(doc)
}

func TestInMemoryEventBus_PublishRoutesByType(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	submitted := &recordingHandler{types: []string{"FiscalDocumentSubmitted"}}
	cancelled := &recordingHandler{types: []string{"FiscalDocumentCancelled"}}
	bus.Subscribe(submitted)
	bus.Subscribe(cancelled)

	ev := newSubmittedEvent(t)
	require.NoError(t, bus.Publish(context.Background(), ev))

	require.Len(t, submitted.received, 1)
	assert.Equal(t, ev.EventID(), submitted.received[0].EventID())
	assert.Empty(t, cancelled.received)
}

func TestInMemoryEventBus_FailingHandlerDoesNotStopDelivery(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	bus := NewInMemoryEventBus(zap.New(core))

	failing := &recordingHandler{types: []string{"FiscalDocumentSubmitted"}, err: errors.New("sink offline")}
	healthy := &recordingHandler{types: []string{"FiscalDocumentSubmitted"}}
	bus.Subscribe(failing)
	bus.Subscribe(healthy)

	require.NoError(t, bus.Publish(context.Background(), newSubmittedEvent(t)))

	assert.Len(t, healthy.received, 1)
	require.Equal(t, 1, logs.FilterMessage("event handler failed").Len())
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	handler := &recordingHandler{types: []string{"FiscalDocumentSubmitted"}}
	bus.Subscribe(handler)
	bus.Unsubscribe(handler)

	require.NoError(t, bus.Publish(context.Background(), newSubmittedEvent(t)))
	assert.Empty(t, handler.received)
}

func TestAuditLogHandler_LogsLifecycleEvents(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	handler := NewAuditLogHandler(zap.New(core))

	ev := newSubmittedEvent(t)
	require.NoError(t, handler.Handle(context.Background(), ev))

	entries := logs.FilterMessage("fiscal document event").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "FiscalDocumentSubmitted", fields["event_type"])
	assert.Equal(t, ev.AggregateID().String(), fields["aggregate_id"])
}

func TestAuditLogHandler_SubscribesToAllFiscalEvents(t *testing.T) {
	handler := NewAuditLogHandler(nil)
	assert.ElementsMatch(t, FiscalEventTypes, handler.EventTypes())
}
