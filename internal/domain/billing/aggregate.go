package billing

import "github.com/shopspring/decimal"

// BalanceKind labels the sign of a balance.
type BalanceKind string

const (
	BalanceUnderpayment BalanceKind = "underpayment"
	BalanceOverpayment  BalanceKind = "overpayment"
	BalanceExact        BalanceKind = "exact"
)

// ClassifyBalance maps balance = owed - tendered to its label.
func ClassifyBalance(balance decimal.Decimal) BalanceKind {
	switch balance.Sign() {
	case 1:
		return BalanceUnderpayment
	case -1:
		return BalanceOverpayment
	default:
		return BalanceExact
	}
}

// SummaryLine is the per-invoice breakdown of a selection.
type SummaryLine struct {
	InvoiceID        int64           `json:"invoice_id"`
	InvoiceNumber    string          `json:"invoice_number,omitempty"`
	Status           InvoiceStatus   `json:"status"`
	InvoiceAmount    decimal.Decimal `json:"invoice_amount"`
	CashPortion      decimal.Decimal `json:"cash_portion"`
	InsurancePortion decimal.Decimal `json:"insurance_portion"`
}

// Summary is the reduction of a selection against a tendered amount.
type Summary struct {
	Category    PaymentCategory `json:"payment_category"`
	TotalOwed   decimal.Decimal `json:"total_owed"`
	Tendered    decimal.Decimal `json:"tendered"`
	Balance     decimal.Decimal `json:"balance"`
	BalanceKind BalanceKind     `json:"balance_kind"`
	Lines       []SummaryLine   `json:"lines"`
	Anomalies   []ItemAnomaly   `json:"anomalies,omitempty"`
}

// Aggregate sums the cash portion of every selected invoice and compares it
// with the tendered amount. Lines keep the order of selected.
func Aggregate(selected []Invoice, category PaymentCategory, tendered decimal.Decimal) Summary {
	total := decimal.Zero
	lines := make([]SummaryLine, 0, len(selected))
	var anomalies []ItemAnomaly

	for _, inv := range selected {
		cash := CashPortion(inv, category)
		total = total.Add(cash)
		lines = append(lines, SummaryLine{
			InvoiceID:        inv.ID,
			InvoiceNumber:    inv.InvoiceNumber,
			Status:           inv.Status,
			InvoiceAmount:    inv.InvoiceAmount,
			CashPortion:      cash,
			InsurancePortion: inv.InvoiceAmount.Sub(cash),
		})
		anomalies = append(anomalies, Anomalies(inv)...)
	}

	balance := total.Sub(tendered)
	return Summary{
		Category:    category,
		TotalOwed:   total,
		Tendered:    tendered,
		Balance:     balance,
		BalanceKind: ClassifyBalance(balance),
		Lines:       lines,
		Anomalies:   anomalies,
	}
}

// AllocationLine is the projected effect of the tendered amount on one invoice.
type AllocationLine struct {
	InvoiceID       int64           `json:"invoice_id"`
	Owed            decimal.Decimal `json:"owed"`
	Applied         decimal.Decimal `json:"applied"`
	Remaining       decimal.Decimal `json:"remaining"`
	ProjectedStatus InvoiceStatus   `json:"projected_status"`
}

// AllocationPreview is the FIFO projection of a summary.
type AllocationPreview struct {
	Lines          []AllocationLine `json:"lines"`
	TotalApplied   decimal.Decimal  `json:"total_applied"`
	Unapplied      decimal.Decimal  `json:"unapplied"`
	FullyAllocated bool             `json:"fully_allocated"`
}

// PreviewAllocation applies the tendered amount to each line's cash portion in
// selection order. It is advisory: the posting service decides the real split
// and the resulting invoice status.
func PreviewAllocation(s Summary) AllocationPreview {
	remaining := s.Tendered
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	applied := decimal.Zero
	lines := make([]AllocationLine, 0, len(s.Lines))

	for _, line := range s.Lines {
		owed := line.CashPortion
		amount := decimal.Zero
		if owed.IsPositive() && remaining.IsPositive() {
			amount = decimal.Min(remaining, owed)
		}
		remaining = remaining.Sub(amount)
		applied = applied.Add(amount)

		status := line.Status
		switch {
		case owed.IsPositive() && amount.GreaterThanOrEqual(owed):
			status = InvoiceStatusPaid
		case amount.IsPositive():
			status = InvoiceStatusPartial
		}
		lines = append(lines, AllocationLine{
			InvoiceID:       line.InvoiceID,
			Owed:            owed,
			Applied:         amount,
			Remaining:       owed.Sub(amount),
			ProjectedStatus: status,
		})
	}

	return AllocationPreview{
		Lines:          lines,
		TotalApplied:   applied,
		Unapplied:      remaining,
		FullyAllocated: remaining.IsZero(),
	}
}
