package billing

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// ToDecimal normalizes a loosely typed numeric value into a decimal.
// Malformed or absent input is treated as zero.
func ToDecimal(v any) decimal.Decimal {
	switch val := v.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return val
	case *decimal.Decimal:
		if val == nil {
			return decimal.Zero
		}
		return *val
	case decimal.NullDecimal:
		if !val.Valid {
			return decimal.Zero
		}
		return val.Decimal
	case int:
		return decimal.NewFromInt(int64(val))
	case int32:
		return decimal.NewFromInt(int64(val))
	case int64:
		return decimal.NewFromInt(val)
	case float32:
		return bounded(decimal.NewFromFloat32(val))
	case float64:
		return bounded(decimal.NewFromFloat(val))
	case json.Number:
		return parseDecimal(string(val))
	case string:
		return parseDecimal(val)
	case *string:
		if val == nil {
			return decimal.Zero
		}
		return parseDecimal(*val)
	default:
		return decimal.Zero
	}
}

func parseDecimal(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return bounded(d)
}

// Amounts the HMIS stores have at most ten digits, two of them after the point.
const (
	maxIntegerDigits  = 12
	maxFractionDigits = 20
)

// bounded returns zero for values outside the money range. Exponent notation
// such as "1e999999999" parses cheaply but makes later arithmetic rescale to
// the full exponent.
func bounded(d decimal.Decimal) decimal.Decimal {
	exp := int64(d.Exponent())
	if exp < -maxFractionDigits {
		return decimal.Zero
	}
	coefficient := d.Coefficient()
	digits := int64(len(coefficient.Abs(coefficient).String()))
	if digits+exp > maxIntegerDigits {
		return decimal.Zero
	}
	return d
}

// Amount is a decimal that decodes from either a JSON number or a JSON string.
// Null, empty and unparsable values decode as zero. It always encodes as a string.
type Amount struct {
	decimal.Decimal
}

// NewAmount wraps d
func NewAmount(d decimal.Decimal) Amount {
	return Amount{Decimal: d}
}

// UnmarshalJSON implements json.Unmarshaler
func (a *Amount) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		a.Decimal = decimal.Zero
		return nil
	}
	a.Decimal = parseDecimal(strings.Trim(raw, `"`))
	return nil
}

// MarshalJSON implements json.Marshaler
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Decimal.String())
}
