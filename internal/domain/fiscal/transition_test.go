package fiscal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// ============================================
// DocumentStatus Tests
// ============================================

func TestDocumentStatus_IsValid(t *testing.T) {
	tests := []struct {
		status  DocumentStatus
		isValid bool
	}{
		{DocumentStatusDraft, true},
		{DocumentStatusPending, true},
		{DocumentStatusProcessing, true},
		{DocumentStatusAuthorized, true},
		{DocumentStatusRejected, true},
		{DocumentStatusCancelled, true},
		{DocumentStatusCorrected, true},
		{DocumentStatus("INVALID"), false},
		{DocumentStatus(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.isValid, tt.status.IsValid())
		})
	}
}

func TestDocumentStatus_CanTransitionTo_Default(t *testing.T) {
	tests := []struct {
		name    string
		from    DocumentStatus
		to      DocumentStatus
		allowed bool
	}{
		{"draft to pending", DocumentStatusDraft, DocumentStatusPending, true},
		{"draft to authorized", DocumentStatusDraft, DocumentStatusAuthorized, false},
		{"pending to processing", DocumentStatusPending, DocumentStatusProcessing, true},
		{"pending back to draft", DocumentStatusPending, DocumentStatusDraft, true},
		{"pending directly to authorized", DocumentStatusPending, DocumentStatusAuthorized, false},
		{"processing to authorized", DocumentStatusProcessing, DocumentStatusAuthorized, true},
		{"processing to rejected", DocumentStatusProcessing, DocumentStatusRejected, true},
		{"processing to cancelled", DocumentStatusProcessing, DocumentStatusCancelled, false},
		{"authorized to cancelled", DocumentStatusAuthorized, DocumentStatusCancelled, true},
		{"authorized to corrected", DocumentStatusAuthorized, DocumentStatusCorrected, true},
		{"authorized back to draft", DocumentStatusAuthorized, DocumentStatusDraft, false},
		{"rejected back to draft", DocumentStatusRejected, DocumentStatusDraft, true},
		{"rejected to authorized", DocumentStatusRejected, DocumentStatusAuthorized, false},
		{"corrected to cancelled", DocumentStatusCorrected, DocumentStatusCancelled, true},
		{"cancelled is terminal", DocumentStatusCancelled, DocumentStatusDraft, false},
		{"cancelled to authorized", DocumentStatusCancelled, DocumentStatusAuthorized, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to, DocumentTypeNFE))
		})
	}
}

func TestDocumentStatus_CanTransitionTo_ServiceInvoice(t *testing.T) {
	// Service invoices authorize synchronously, skipping PROCESSING
	assert.True(t, DocumentStatusPending.CanTransitionTo(DocumentStatusAuthorized, DocumentTypeNFSE))
	assert.True(t, DocumentStatusPending.CanTransitionTo(DocumentStatusRejected, DocumentTypeNFSE))

	// Every other subtype keeps the asynchronous path
	for _, docType := range []DocumentType{DocumentTypeNFE, DocumentTypeNFCE, DocumentTypeCTE, DocumentTypeMDFE} {
		assert.False(t, DocumentStatusPending.CanTransitionTo(DocumentStatusAuthorized, docType),
			"type %s must not authorize directly from pending", docType)
	}
}
