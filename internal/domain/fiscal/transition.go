package fiscal

// DocumentStatus represents the lifecycle status of a fiscal document
type DocumentStatus string

const (
	DocumentStatusDraft      DocumentStatus = "DRAFT"
	DocumentStatusPending    DocumentStatus = "PENDING"
	DocumentStatusProcessing DocumentStatus = "PROCESSING"
	DocumentStatusAuthorized DocumentStatus = "AUTHORIZED"
	DocumentStatusRejected   DocumentStatus = "REJECTED"
	DocumentStatusCancelled  DocumentStatus = "CANCELLED"
	DocumentStatusCorrected  DocumentStatus = "CORRECTED"
)

// IsValid checks if the status is a valid DocumentStatus
func (s DocumentStatus) IsValid() bool {
	switch s {
	case DocumentStatusDraft, DocumentStatusPending, DocumentStatusProcessing,
		DocumentStatusAuthorized, DocumentStatusRejected, DocumentStatusCancelled,
		DocumentStatusCorrected:
		return true
	}
	return false
}

// String returns the string representation of DocumentStatus
func (s DocumentStatus) String() string {
	return string(s)
}

// defaultTransitions is the transition table for the default family of
// document types (goods invoices and transport manifests).
var defaultTransitions = map[DocumentStatus][]DocumentStatus{
	DocumentStatusDraft:      {DocumentStatusPending},
	DocumentStatusPending:    {DocumentStatusProcessing, DocumentStatusDraft},
	DocumentStatusProcessing: {DocumentStatusAuthorized, DocumentStatusRejected},
	DocumentStatusAuthorized: {DocumentStatusCancelled, DocumentStatusCorrected},
	DocumentStatusRejected:   {DocumentStatusDraft},
	DocumentStatusCancelled:  {},
	DocumentStatusCorrected:  {DocumentStatusCancelled},
}

// serviceInvoiceTransitions differs from the default table only in the
// PENDING row: municipal service invoices may be authorized synchronously,
// skipping the PROCESSING step entirely.
var serviceInvoiceTransitions = map[DocumentStatus][]DocumentStatus{
	DocumentStatusDraft:      {DocumentStatusPending},
	DocumentStatusPending:    {DocumentStatusProcessing, DocumentStatusAuthorized, DocumentStatusRejected, DocumentStatusDraft},
	DocumentStatusProcessing: {DocumentStatusAuthorized, DocumentStatusRejected},
	DocumentStatusAuthorized: {DocumentStatusCancelled, DocumentStatusCorrected},
	DocumentStatusRejected:   {DocumentStatusDraft},
	DocumentStatusCancelled:  {},
	DocumentStatusCorrected:  {DocumentStatusCancelled},
}

// CanTransitionTo checks whether the status may move to target for the given
// document type. This lookup is the single source of truth consulted by every
// status-changing behavior on the aggregate.
func (s DocumentStatus) CanTransitionTo(target DocumentStatus, docType DocumentType) bool {
	table := defaultTransitions
	if docType == DocumentTypeNFSE {
		table = serviceInvoiceTransitions
	}
	for _, allowed := range table[s] {
		if allowed == target {
			return true
		}
	}
	return false
}
