package rendering

import (
	"context"
	"fmt"

	"github.com/fiscalhub/backend/internal/domain/fiscal"
)

// layoutSpec binds a document subtype to its printable layout
type layoutSpec struct {
	template   string
	title      string
	filePrefix string
}

var layoutByType = map[fiscal.DocumentType]layoutSpec{
	fiscal.DocumentTypeNFE: {
		template:   "mercantile_a4.html",
		title:      "DANFE - Documento Auxiliar da NF-e",
		filePrefix: "danfe",
	},
	fiscal.DocumentTypeNFCE: {
		template:   "mercantile_a4.html",
		title:      "DANFE NFC-e",
		filePrefix: "danfe-nfce",
	},
	fiscal.DocumentTypeCTE: {
		template:   "transport_a4.html",
		title:      "DACTE - Documento Auxiliar do CT-e",
		filePrefix: "dacte",
	},
	fiscal.DocumentTypeMDFE: {
		template:   "transport_a4.html",
		title:      "DAMDFE - Documento Auxiliar do MDF-e",
		filePrefix: "damdfe",
	},
	fiscal.DocumentTypeNFSE: {
		template:   "service_a4.html",
		title:      "NFS-e - Nota Fiscal de Serviços Eletrônica",
		filePrefix: "nfse",
	},
}

// layoutData is the view model handed to the layouts
type layoutData struct {
	Title     string
	Document  *fiscal.FiscalDocument
	AccessKey string
	Cancelled bool
}

// Generator renders the printable auxiliary document for one subtype. With a
// PDF renderer it produces PDF output; without one it falls back to the raw
// HTML, which keeps environments without Chrome functional.
type Generator struct {
	docType  fiscal.DocumentType
	layout   layoutSpec
	engine   *TemplateEngine
	renderer PDFRenderer
}

// NewGenerator creates a generator for the given subtype. The renderer may be
// nil to emit HTML instead of PDF.
func NewGenerator(docType fiscal.DocumentType, engine *TemplateEngine, renderer PDFRenderer) (*Generator, error) {
	layout, ok := layoutByType[docType]
	if !ok {
		return nil, fmt.Errorf("no auxiliary document layout for type %s", docType)
	}
	return &Generator{
		docType:  docType,
		layout:   layout,
		engine:   engine,
		renderer: renderer,
	}, nil
}

// DocumentType returns the subtype this generator serves
func (g *Generator) DocumentType() fiscal.DocumentType {
	return g.docType
}

// Generate renders the auxiliary document. Only authorized and cancelled
// documents have a printable form; a cancelled one carries a watermark.
func (g *Generator) Generate(ctx context.Context, doc *fiscal.FiscalDocument) (*fiscal.AuxiliaryDocument, error) {
	if doc == nil {
		return nil, fiscal.ErrDocumentNotAuthorized
	}
	if doc.Type != g.docType {
		return nil, fmt.Errorf("%w: generator %s given %s", fiscal.ErrGeneratorTypeMismatch, g.docType, doc.Type)
	}
	if !doc.IsAuthorized() && !doc.IsCancelled() {
		return nil, fiscal.ErrDocumentNotAuthorized
	}

	data := layoutData{
		Title:     g.layout.title,
		Document:  doc,
		Cancelled: doc.IsCancelled(),
	}
	if doc.AccessKey != nil {
		data.AccessKey = doc.AccessKey.String()
	}

	html, err := g.engine.Render(g.layout.template, data)
	if err != nil {
		return nil, err
	}

	baseName := fmt.Sprintf("%s-%s-%s", g.layout.filePrefix, doc.Series, doc.Number)
	if data.AccessKey != "" {
		baseName = fmt.Sprintf("%s-%s", g.layout.filePrefix, data.AccessKey)
	}

	if g.renderer == nil {
		return &fiscal.AuxiliaryDocument{
			FileName:    baseName + ".html",
			ContentType: "text/html; charset=utf-8",
			Content:     []byte(html),
		}, nil
	}

	result, err := g.renderer.Render(ctx, &RenderRequest{HTML: html, Title: g.layout.title})
	if err != nil {
		return nil, err
	}
	return &fiscal.AuxiliaryDocument{
		FileName:    baseName + ".pdf",
		ContentType: "application/pdf",
		Content:     result.PDFData,
	}, nil
}

var _ fiscal.AuxiliaryDocumentGenerator = (*Generator)(nil)

// NewRegistry builds a generator registry covering every supported subtype
func NewRegistry(renderer PDFRenderer) (*fiscal.GeneratorRegistry, error) {
	engine, err := NewTemplateEngine()
	if err != nil {
		return nil, err
	}

	generators := make([]fiscal.AuxiliaryDocumentGenerator, 0, len(layoutByType))
	for docType := range layoutByType {
		g, err := NewGenerator(docType, engine, renderer)
		if err != nil {
			return nil, err
		}
		generators = append(generators, g)
	}
	return fiscal.NewGeneratorRegistry(generators...), nil
}
