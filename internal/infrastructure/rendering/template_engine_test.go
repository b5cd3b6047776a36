package rendering

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/fiscalhub/backend/internal/domain/fiscal"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		input    decimal.Decimal
		expected string
	}{
		{decimal.Zero, "0,00"},
		{decimal.NewFromFloat(9.9), "9,90"},
		{decimal.NewFromFloat(1234.5), "1.234,50"},
		{decimal.NewFromFloat(1234567.89), "1.234.567,89"},
		{decimal.NewFromFloat(-42.1), "-42,10"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, formatAmount(tt.input), "input %s", tt.input)
	}
}

func TestFormatQuantity(t *testing.T) {
	assert.Equal(t, "2,00", formatQuantity(decimal.NewFromInt(2)))
	assert.Equal(t, "1,50", formatQuantity(decimal.NewFromFloat(1.5)))
	assert.Equal(t, "0,1234", formatQuantity(decimal.NewFromFloat(0.1234)))
}

func TestFormatAccessKey(t *testing.T) {
	key := "35260112345678000195550010000001231000000077"
	formatted := formatAccessKey(key)
	assert.Equal(t, "3526 0112 3456 7800 0195 5500 1000 0001 2310 0000 0077", formatted)
}

func TestFormatTaxID(t *testing.T) {
	assert.Equal(t, "12.345.678/0001-95", formatTaxID("12345678000195"))
	assert.Equal(t, "123.456.789-09", formatTaxID("12345678909"))
	assert.Equal(t, "oddball", formatTaxID("oddball"))
}

func TestFormatTimeValue(t *testing.T) {
	ts := time.Date(2026, 3, 15, 14, 30, 0, 0, time.UTC)

	assert.Equal(t, "15/03/2026", formatDate(ts))
	assert.Equal(t, "15/03/2026 14:30:00", formatDateTime(&ts))
	assert.Equal(t, "", formatDate((*time.Time)(nil)))
	assert.Equal(t, "", formatDateTime(time.Time{}))
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "AUTORIZADA", statusLabel(fiscal.DocumentStatusAuthorized))
	assert.Equal(t, "CANCELADA", statusLabel(fiscal.DocumentStatusCancelled))
	assert.Equal(t, "REJEITADA", statusLabel(fiscal.DocumentStatusRejected))
	assert.Equal(t, "DRAFT", statusLabel(fiscal.DocumentStatusDraft))
}

func TestNewTemplateEngine_ParsesEmbeddedLayouts(t *testing.T) {
	engine, err := NewTemplateEngine()
	assert.NoError(t, err)
	assert.NotNil(t, engine)
}
