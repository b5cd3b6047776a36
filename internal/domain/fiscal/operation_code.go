package fiscal

import (
	"database/sql/driver"
	"fmt"

	"github.com/fiscalhub/backend/internal/domain/shared"
)

// OperationCode is the 4-digit CFOP classifying the commercial direction and
// jurisdictional scope of a line item. The first digit encodes both direction
// (entry vs exit) and scope (intra-state, inter-state or foreign); the
// remaining three digits refine the nature of the operation.
type OperationCode struct {
	code        string
	description string
}

// operationCodeDescriptions maps well-known CFOPs to display descriptions.
// Codes outside the table get a generic fallback.
var operationCodeDescriptions = map[string]string{
	"1102": "Purchase for resale",
	"1202": "Return of sale of goods acquired from third parties",
	"1556": "Purchase of material for use or consumption",
	"2102": "Interstate purchase for resale",
	"2202": "Interstate return of sale of goods",
	"3102": "Import purchase for resale",
	"5101": "Sale of own production",
	"5102": "Sale of goods acquired from third parties",
	"5202": "Return of purchase for resale",
	"5353": "Transport service contracted by an establishment",
	"5933": "Service provision subject to municipal service tax",
	"6101": "Interstate sale of own production",
	"6102": "Interstate sale of goods acquired from third parties",
	"6108": "Interstate sale to non-taxpayer final consumer",
	"6933": "Interstate service provision subject to municipal service tax",
	"7101": "Export sale of own production",
	"7102": "Export sale of goods acquired from third parties",
}

// NewOperationCode creates an OperationCode from a raw string. Non-digit
// characters are stripped; the result must be exactly 4 digits with a first
// digit in {1,2,3,5,6,7}. An empty description is resolved from the known-code
// table, falling back to a generic label.
func NewOperationCode(raw, description string) (OperationCode, error) {
	digits := stripNonDigits(raw)
	if len(digits) != 4 {
		return OperationCode{}, shared.NewDomainError(shared.CodeInvalidOperationCode,
			fmt.Sprintf("Operation code must have exactly 4 digits, got %q", raw))
	}
	switch digits[0] {
	case '1', '2', '3', '5', '6', '7':
	default:
		return OperationCode{}, shared.NewDomainError(shared.CodeInvalidOperationCode,
			fmt.Sprintf("Operation code first digit must be 1, 2, 3, 5, 6 or 7, got %c", digits[0]))
	}

	if description == "" {
		description = describeOperationCode(digits)
	}
	return OperationCode{code: digits, description: description}, nil
}

func describeOperationCode(code string) string {
	if d, ok := operationCodeDescriptions[code]; ok {
		return d
	}
	return "Fiscal operation " + code
}

// Code returns the 4-digit code
func (c OperationCode) Code() string {
	return c.code
}

// Description returns the human-readable description
func (c OperationCode) Description() string {
	return c.description
}

// String returns the 4-digit code
func (c OperationCode) String() string {
	return c.code
}

// IsZero reports whether the code is the zero value
func (c OperationCode) IsZero() bool {
	return c.code == ""
}

// firstDigit returns the leading digit, or 0 for the zero value so the
// classification predicates are safe on an unset code.
func (c OperationCode) firstDigit() byte {
	if c.code == "" {
		return 0
	}
	return c.code[0]
}

// IsEntry reports whether the operation brings goods or services in
func (c OperationCode) IsEntry() bool {
	switch c.firstDigit() {
	case '1', '2', '3':
		return true
	}
	return false
}

// IsExit reports whether the operation sends goods or services out
func (c OperationCode) IsExit() bool {
	switch c.firstDigit() {
	case '5', '6', '7':
		return true
	}
	return false
}

// IsIntraState reports whether the operation stays within the issuer's state
func (c OperationCode) IsIntraState() bool {
	return c.firstDigit() == '1' || c.firstDigit() == '5'
}

// IsInterState reports whether the operation crosses state borders
func (c OperationCode) IsInterState() bool {
	return c.firstDigit() == '2' || c.firstDigit() == '6'
}

// IsForeign reports whether the operation crosses the national border
func (c OperationCode) IsForeign() bool {
	return c.firstDigit() == '3' || c.firstDigit() == '7'
}

// Value implements driver.Valuer; only the code is stored
func (c OperationCode) Value() (driver.Value, error) {
	if c.code == "" {
		return nil, nil
	}
	return c.code, nil
}

// Scan implements sql.Scanner. The description is re-derived from the
// known-code table since only the code is persisted.
func (c *OperationCode) Scan(value any) error {
	if value == nil {
		*c = OperationCode{}
		return nil
	}
	var code string
	switch v := value.(type) {
	case string:
		code = v
	case []byte:
		code = string(v)
	default:
		return fmt.Errorf("cannot scan %T into OperationCode", value)
	}
	c.code = code
	c.description = describeOperationCode(code)
	return nil
}

// MarshalJSON renders the code as a plain string
func (c OperationCode) MarshalJSON() ([]byte, error) {
	return []byte(`"` + c.code + `"`), nil
}

// UnmarshalJSON parses and validates the code
func (c *OperationCode) UnmarshalJSON(data []byte) error {
	raw := string(data)
	if len(raw) >= 2 && raw[0] == '"' {
		raw = raw[1 : len(raw)-1]
	}
	if raw == "" || raw == "null" {
		*c = OperationCode{}
		return nil
	}
	code, err := NewOperationCode(raw, "")
	if err != nil {
		return err
	}
	*c = code
	return nil
}
