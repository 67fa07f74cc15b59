package billing

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDecimal(t *testing.T) {
	d := dec("12.5")
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, "0"},
		{"decimal", d, "12.5"},
		{"decimal pointer", &d, "12.5"},
		{"nil decimal pointer", (*decimal.Decimal)(nil), "0"},
		{"int", 7, "7"},
		{"int64", int64(-3), "-3"},
		{"float", 0.1, "0.1"},
		{"string", " 42.10 ", "42.1"},
		{"empty string", "", "0"},
		{"garbage string", "12abc", "0"},
		{"json number", json.Number("3.25"), "3.25"},
		{"largest accepted", "999999999999.99", "999999999999.99"},
		{"too many integer digits", "1000000000000", "0"},
		{"huge exponent", "1e999999999", "0"},
		{"huge negative exponent", "1e-999999999", "0"},
		{"exponent within range", "2.5e3", "2500"},
		{"huge float", 1e300, "0"},
		{"unsupported type", struct{}{}, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertDecimal(t, tt.want, ToDecimal(tt.in))
		})
	}
}

func TestAmountJSON_RejectsExponentOutOfRange(t *testing.T) {
	var v struct {
		A Amount `json:"a"`
		B Amount `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 1e999999999, "b": "1E-999999999"}`), &v))

	assertDecimal(t, "0", v.A.Decimal)
	assertDecimal(t, "0", v.B.Decimal)
}

func TestAmountJSON(t *testing.T) {
	var v struct {
		A Amount `json:"a"`
		B Amount `json:"b"`
		C Amount `json:"c"`
		D Amount `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 10.5, "b": "20.25", "c": null, "d": "n/a"}`), &v))

	assertDecimal(t, "10.5", v.A.Decimal)
	assertDecimal(t, "20.25", v.B.Decimal)
	assertDecimal(t, "0", v.C.Decimal)
	assertDecimal(t, "0", v.D.Decimal)

	out, err := json.Marshal(NewAmount(dec("1.50")))
	require.NoError(t, err)
	assert.Equal(t, `"1.5"`, string(out))
}
