package fiscal

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/fiscalhub/backend/internal/domain/shared"
)

// AccessKey is the 44-digit identifier assigned to every authorized fiscal
// document. The layout is fixed by the regulator: nine fields concatenated,
// the last digit being a modulus-11 check digit over the first 43.
//
//	positions  0..1   UF (state) code
//	positions  2..5   year-month of emission (AAMM)
//	positions  6..19  issuer CNPJ
//	positions 20..21  document model code
//	positions 22..24  series
//	positions 25..33  document number
//	position  34      emission type code
//	positions 35..42  numeric code
//	position  43      check digit
type AccessKey struct {
	value string
}

// AccessKeyLength is the exact number of digits in a valid access key
const AccessKeyLength = 44

// AccessKeyParts holds the eight components concatenated ahead of the check
// digit. Each component is zero-padded to its fixed width during generation.
type AccessKeyParts struct {
	UFCode       string // 2 digits
	YearMonth    string // 4 digits, AAMM
	CNPJ         string // 14 digits
	Model        string // 2 digits
	Series       string // 3 digits
	Number       string // 9 digits
	EmissionType string // 1 digit
	Code         string // 8 digits
}

// NewAccessKey creates an AccessKey from a raw string. Non-digit characters
// are stripped; the result must be exactly 44 digits with a valid check digit.
func NewAccessKey(raw string) (AccessKey, error) {
	digits := stripNonDigits(raw)
	if len(digits) != AccessKeyLength {
		return AccessKey{}, shared.NewDomainError(shared.CodeInvalidAccessKey,
			fmt.Sprintf("Access key must have exactly %d digits, got %d", AccessKeyLength, len(digits)))
	}

	base := digits[:AccessKeyLength-1]
	expected := accessKeyCheckDigit(base)
	if int(digits[AccessKeyLength-1]-'0') != expected {
		return AccessKey{}, shared.NewDomainError(shared.CodeInvalidAccessKey,
			"Access key check digit does not match")
	}

	return AccessKey{value: digits}, nil
}

// GenerateAccessKey builds an AccessKey from its components. Each component is
// zero-padded to its fixed width, the check digit is computed and appended,
// and the result is re-validated through NewAccessKey.
func GenerateAccessKey(parts AccessKeyParts) (AccessKey, error) {
	base := padDigits(parts.UFCode, 2) +
		padDigits(parts.YearMonth, 4) +
		padDigits(parts.CNPJ, 14) +
		padDigits(parts.Model, 2) +
		padDigits(parts.Series, 3) +
		padDigits(parts.Number, 9) +
		padDigits(parts.EmissionType, 1) +
		padDigits(parts.Code, 8)

	if len(base) != AccessKeyLength-1 {
		return AccessKey{}, shared.NewDomainError(shared.CodeInvalidAccessKey,
			fmt.Sprintf("Access key components must concatenate to %d digits, got %d", AccessKeyLength-1, len(base)))
	}

	check := accessKeyCheckDigit(base)
	return NewAccessKey(base + fmt.Sprintf("%d", check))
}

// accessKeyCheckDigit computes the modulus-11 check digit over the 43 base
// digits. Digits are weighted right to left with the cycle 2,3,...,9.
func accessKeyCheckDigit(base string) int {
	weight := 2
	sum := 0
	for i := len(base) - 1; i >= 0; i-- {
		sum += int(base[i]-'0') * weight
		weight++
		if weight > 9 {
			weight = 2
		}
	}
	remainder := sum % 11
	if remainder < 2 {
		return 0
	}
	return 11 - remainder
}

// String returns the 44-digit key
func (k AccessKey) String() string {
	return k.value
}

// IsZero reports whether the key is the zero value
func (k AccessKey) IsZero() bool {
	return k.value == ""
}

// segment slices the key; a zero value yields empty segments instead of a
// panic, which keeps accessors safe after scanning an empty column.
func (k AccessKey) segment(lo, hi int) string {
	if k.value == "" {
		return ""
	}
	return k.value[lo:hi]
}

// UFCode returns the 2-digit state code
func (k AccessKey) UFCode() string {
	return k.segment(0, 2)
}

// YearMonth returns the AAMM emission period
func (k AccessKey) YearMonth() string {
	return k.segment(2, 6)
}

// IssuerTaxID returns the issuer CNPJ embedded in the key
func (k AccessKey) IssuerTaxID() string {
	return k.segment(6, 20)
}

// Model returns the document model code
func (k AccessKey) Model() string {
	return k.segment(20, 22)
}

// Series returns the document series
func (k AccessKey) Series() string {
	return k.segment(22, 25)
}

// Number returns the document number
func (k AccessKey) Number() string {
	return k.segment(25, 34)
}

// EmissionType returns the emission type code
func (k AccessKey) EmissionType() string {
	return k.segment(34, 35)
}

// Code returns the free numeric code
func (k AccessKey) Code() string {
	return k.segment(35, 43)
}

// CheckDigit returns the trailing check digit
func (k AccessKey) CheckDigit() string {
	return k.segment(43, 44)
}

// Parts decomposes the key into its eight components
func (k AccessKey) Parts() AccessKeyParts {
	return AccessKeyParts{
		UFCode:       k.UFCode(),
		YearMonth:    k.YearMonth(),
		CNPJ:         k.IssuerTaxID(),
		Model:        k.Model(),
		Series:       k.Series(),
		Number:       k.Number(),
		EmissionType: k.EmissionType(),
		Code:         k.Code(),
	}
}

// Value implements driver.Valuer for database storage
func (k AccessKey) Value() (driver.Value, error) {
	if k.value == "" {
		return nil, nil
	}
	return k.value, nil
}

// Scan implements sql.Scanner. The stored value is trusted; validation
// happened when the key entered the system.
func (k *AccessKey) Scan(value any) error {
	if value == nil {
		k.value = ""
		return nil
	}
	switch v := value.(type) {
	case string:
		k.value = v
	case []byte:
		k.value = string(v)
	default:
		return fmt.Errorf("cannot scan %T into AccessKey", value)
	}
	return nil
}

// MarshalJSON renders the key as a plain string
func (k AccessKey) MarshalJSON() ([]byte, error) {
	return []byte(`"` + k.value + `"`), nil
}

// UnmarshalJSON parses and validates the key
func (k *AccessKey) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "" || raw == "null" {
		k.value = ""
		return nil
	}
	key, err := NewAccessKey(raw)
	if err != nil {
		return err
	}
	k.value = key.value
	return nil
}

// stripNonDigits removes every non-digit rune from s
func stripNonDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// padDigits strips non-digits and left-pads with zeros to width. Values longer
// than width are kept as-is and caught by the length check in GenerateAccessKey.
func padDigits(s string, width int) string {
	digits := stripNonDigits(s)
	for len(digits) < width {
		digits = "0" + digits
	}
	return digits
}
