package billing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultCurrency is used when no currency is configured
const DefaultCurrency = "KES"

// MoneyFormatter renders amounts for the desk as "KES 1,250.00".
type MoneyFormatter struct {
	code    string
	printer *message.Printer
}

// NewMoneyFormatter resolves code as an ISO 4217 currency. Unknown codes fall back to DefaultCurrency.
func NewMoneyFormatter(code string) *MoneyFormatter {
	unit, err := currency.ParseISO(strings.TrimSpace(code))
	if err != nil {
		unit = currency.MustParseISO(DefaultCurrency)
	}
	return &MoneyFormatter{
		code:    unit.String(),
		printer: message.NewPrinter(language.English),
	}
}

// Currency returns the resolved currency code
func (f *MoneyFormatter) Currency() string {
	return f.code
}

// Format renders d rounded to two places with thousands separators.
func (f *MoneyFormatter) Format(d decimal.Decimal) string {
	rounded := d.Round(2)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Neg()
	}
	whole := rounded.Truncate(0)
	cents := rounded.Sub(whole).Shift(2).IntPart()
	return fmt.Sprintf("%s %s%s.%02d", f.code, sign, f.printer.Sprintf("%d", whole.IntPart()), cents)
}

// SummaryDisplay carries the summary totals formatted for display.
type SummaryDisplay struct {
	Currency  string `json:"currency"`
	TotalOwed string `json:"total_owed"`
	Tendered  string `json:"tendered"`
	Balance   string `json:"balance"`
}

// Display formats the totals of s
func (f *MoneyFormatter) Display(s Summary) SummaryDisplay {
	return SummaryDisplay{
		Currency:  f.code,
		TotalOwed: f.Format(s.TotalOwed),
		Tendered:  f.Format(s.Tendered),
		Balance:   f.Format(s.Balance),
	}
}
