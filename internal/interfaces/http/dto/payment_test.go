package dto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawAmount_Unmarshal(t *testing.T) {
	tests := []struct {
		name string
		body string
		want RawAmount
	}{
		{"number", `{"amount": 1500.50}`, "1500.50"},
		{"string", `{"amount": " 200 "}`, "200"},
		{"invalid text is kept", `{"amount": "abc"}`, "abc"},
		{"null", `{"amount": null}`, ""},
		{"absent", `{}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req SetAmountRequest
			require.NoError(t, json.Unmarshal([]byte(tt.body), &req))
			assert.Equal(t, tt.want, req.Amount)
		})
	}
}

func TestRawAmount_RejectsOtherTypes(t *testing.T) {
	var req SetAmountRequest
	assert.Error(t, json.Unmarshal([]byte(`{"amount": true}`), &req))
	assert.Error(t, json.Unmarshal([]byte(`{"amount": [1]}`), &req))
}
