package billing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ptr[T any](v T) *T {
	return &v
}

func assertDecimal(t *testing.T, expected string, actual decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, dec(expected).Equal(actual), append([]any{"expected %s, got %s", expected, actual.String()}, msgAndArgs...)...)
}

func cashItem(amount string) InvoiceItem {
	return InvoiceItem{ItemAmount: dec(amount), ActualTotal: dec(amount), PaymentModeName: "cash"}
}

func insuredItem(amount, actual string) InvoiceItem {
	return InvoiceItem{ItemAmount: dec(amount), ActualTotal: dec(actual), PaymentModeName: "NHIF"}
}
