package fiscal

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrGeneratorNotRegistered is returned when no generator serves a subtype
	ErrGeneratorNotRegistered = errors.New("fiscal: no auxiliary document generator registered for type")
	// ErrDocumentNotAuthorized is returned when rendering a document that was
	// never authorized
	ErrDocumentNotAuthorized = errors.New("fiscal: auxiliary document requires an authorized document")
	// ErrGeneratorTypeMismatch is returned when a generator is handed a
	// document of a subtype it does not serve
	ErrGeneratorTypeMismatch = errors.New("fiscal: document subtype does not match generator")
)

// AuxiliaryDocument is the rendered companion document (DANFE, DACTE) that
// accompanies the goods or service
type AuxiliaryDocument struct {
	FileName    string
	ContentType string
	Content     []byte
}

// AuxiliaryDocumentGenerator renders the printable companion document for one
// fiscal document subtype. Implementations live in infrastructure.
type AuxiliaryDocumentGenerator interface {
	// DocumentType returns the subtype this generator serves
	DocumentType() DocumentType

	// Generate renders the auxiliary document. The document must be
	// authorized or cancelled; a cancelled document renders with a
	// cancellation watermark.
	Generate(ctx context.Context, doc *FiscalDocument) (*AuxiliaryDocument, error)
}

// GeneratorRegistry resolves the generator for a document subtype
type GeneratorRegistry struct {
	generators map[DocumentType]AuxiliaryDocumentGenerator
}

// NewGeneratorRegistry creates a registry from the given generators
func NewGeneratorRegistry(generators ...AuxiliaryDocumentGenerator) *GeneratorRegistry {
	r := &GeneratorRegistry{generators: make(map[DocumentType]AuxiliaryDocumentGenerator)}
	for _, g := range generators {
		r.generators[g.DocumentType()] = g
	}
	return r
}

// Get returns the generator for the given subtype
func (r *GeneratorRegistry) Get(docType DocumentType) (AuxiliaryDocumentGenerator, error) {
	g, ok := r.generators[docType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGeneratorNotRegistered, docType)
	}
	return g, nil
}

// Supports reports whether a generator is registered for the subtype
func (r *GeneratorRegistry) Supports(docType DocumentType) bool {
	_, ok := r.generators[docType]
	return ok
}
