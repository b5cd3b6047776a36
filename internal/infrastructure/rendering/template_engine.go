package rendering

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fiscalhub/backend/internal/domain/fiscal"
)

//go:embed templates/*.html
var templateFS embed.FS

// TemplateEngine renders auxiliary document layouts with Go's html/template,
// extended with the fiscal formatting helpers the layouts need.
type TemplateEngine struct {
	templates *template.Template
}

// NewTemplateEngine parses the embedded layouts
func NewTemplateEngine() (*TemplateEngine, error) {
	t, err := template.New("rendering").Funcs(templateFuncs()).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse auxiliary document templates: %w", err)
	}
	return &TemplateEngine{templates: t}, nil
}

// Render executes the named layout against the view data
func (e *TemplateEngine) Render(layout string, data any) (string, error) {
	var buf bytes.Buffer
	if err := e.templates.ExecuteTemplate(&buf, layout, data); err != nil {
		return "", fmt.Errorf("execute template %s: %w", layout, err)
	}
	return buf.String(), nil
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"formatAmount":    formatAmount,
		"formatQuantity":  formatQuantity,
		"formatDate":      formatDate,
		"formatDateTime":  formatDateTime,
		"formatAccessKey": formatAccessKey,
		"formatTaxID":     formatTaxID,
		"upper":           strings.ToUpper,
		"statusLabel":     statusLabel,
	}
}

// formatAmount renders a monetary value with thousands separators in the
// national convention, e.g. 1234567.8 -> "1.234.567,80"
func formatAmount(d decimal.Decimal) string {
	s := d.StringFixed(2)
	negative := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	parts := strings.SplitN(s, ".", 2)
	intPart, fracPart := parts[0], parts[1]

	var grouped strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped.WriteByte('.')
		}
		grouped.WriteRune(r)
	}

	out := grouped.String() + "," + fracPart
	if negative {
		out = "-" + out
	}
	return out
}

// formatQuantity trims trailing zeros from a quantity, keeping at least two
// decimal places
func formatQuantity(d decimal.Decimal) string {
	s := d.StringFixed(4)
	parts := strings.SplitN(s, ".", 2)
	frac := strings.TrimRight(parts[1], "0")
	for len(frac) < 2 {
		frac += "0"
	}
	return parts[0] + "," + frac
}

// formatDate and formatDateTime accept both values and the nullable pointer
// fields the aggregate uses for authority timestamps
func formatDate(v any) string {
	return formatTimeValue(v, "02/01/2006")
}

func formatDateTime(v any) string {
	return formatTimeValue(v, "02/01/2006 15:04:05")
}

func formatTimeValue(v any, layout string) string {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return ""
		}
		return t.Format(layout)
	case *time.Time:
		if t == nil || t.IsZero() {
			return ""
		}
		return t.Format(layout)
	default:
		return ""
	}
}

// formatAccessKey spaces the 44 digits in groups of four for readability
func formatAccessKey(key string) string {
	var b strings.Builder
	for i, r := range key {
		if i > 0 && i%4 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// formatTaxID applies the registration number mask: 14-digit company
// registrations and 11-digit personal registrations get their conventional
// punctuation, anything else passes through untouched
func formatTaxID(taxID string) string {
	switch len(taxID) {
	case 14:
		return fmt.Sprintf("%s.%s.%s/%s-%s",
			taxID[0:2], taxID[2:5], taxID[5:8], taxID[8:12], taxID[12:14])
	case 11:
		return fmt.Sprintf("%s.%s.%s-%s",
			taxID[0:3], taxID[3:6], taxID[6:9], taxID[9:11])
	default:
		return taxID
	}
}

func statusLabel(status fiscal.DocumentStatus) string {
	switch status {
	case fiscal.DocumentStatusAuthorized:
		return "AUTORIZADA"
	case fiscal.DocumentStatusCancelled:
		return "CANCELADA"
	case fiscal.DocumentStatusRejected:
		return "REJEITADA"
	default:
		return string(status)
	}
}
