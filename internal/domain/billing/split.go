package billing

import (
	"github.com/shopspring/decimal"
)

// CashPortion returns the amount of inv collectible in cash under category.
//
// For credit the insurer owes the whole invoice. Otherwise cash items count
// at their actual total and every other item contributes only its co-pay.
// An invoice without items cannot be split and is owed in full. Any category
// other than credit, including unset, is treated as cash.
func CashPortion(inv Invoice, category PaymentCategory) decimal.Decimal {
	if category == CategoryCredit || len(inv.Items) == 0 {
		return inv.InvoiceAmount
	}
	total := decimal.Zero
	for _, item := range inv.Items {
		if item.IsCash() {
			total = total.Add(item.ActualTotal)
		} else {
			total = total.Add(item.CoPay())
		}
	}
	return total
}

// InsurancePortion is what remains of the invoice once the cash portion is taken out.
func InsurancePortion(inv Invoice, category PaymentCategory) decimal.Decimal {
	return inv.InvoiceAmount.Sub(CashPortion(inv, category))
}

// GrossAmount sums the gross price of every line, falling back to the invoice
// amount when there are no lines.
func GrossAmount(inv Invoice) decimal.Decimal {
	if len(inv.Items) == 0 {
		return inv.InvoiceAmount
	}
	total := decimal.Zero
	for _, item := range inv.Items {
		total = total.Add(item.ItemAmount)
	}
	return total
}

// AnomalyKind classifies suspicious upstream item amounts.
type AnomalyKind string

const (
	AnomalyNegativeAmount    AnomalyKind = "negative_amount"
	AnomalyActualExceedsItem AnomalyKind = "actual_exceeds_item"
)

// ItemAnomaly flags an invoice line whose amounts break actual_total <= item_amount
// or are negative. Anomalies are reported only; arithmetic uses the values as given.
type ItemAnomaly struct {
	InvoiceID   int64           `json:"invoice_id"`
	ItemID      int64           `json:"item_id"`
	Kind        AnomalyKind     `json:"kind"`
	ItemAmount  decimal.Decimal `json:"item_amount"`
	ActualTotal decimal.Decimal `json:"actual_total"`
}

// Anomalies lists the suspicious lines of inv
func Anomalies(inv Invoice) []ItemAnomaly {
	var out []ItemAnomaly
	for _, item := range inv.Items {
		base := ItemAnomaly{
			InvoiceID:   inv.ID,
			ItemID:      item.ID,
			ItemAmount:  item.ItemAmount,
			ActualTotal: item.ActualTotal,
		}
		if item.ItemAmount.IsNegative() || item.ActualTotal.IsNegative() {
			base.Kind = AnomalyNegativeAmount
			out = append(out, base)
			continue
		}
		if item.ActualTotal.GreaterThan(item.ItemAmount) {
			base.Kind = AnomalyActualExceedsItem
			out = append(out, base)
		}
	}
	return out
}
