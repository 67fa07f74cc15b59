package billing

import "github.com/shopspring/decimal"

// ModeCategory is the channel family of a payment mode.
type ModeCategory string

const (
	ModeCash         ModeCategory = "cash"
	ModeInsurance    ModeCategory = "insurance"
	ModeMpesa        ModeCategory = "mpesa"
	ModeCheque       ModeCategory = "cheque"
	ModeDirectToBank ModeCategory = "direct_to_bank"
)

// PaymentModeOption is a payment mode the desk can choose.
type PaymentModeOption struct {
	ID            int64        `json:"id"`
	Name          string       `json:"payment_mode"`
	Category      ModeCategory `json:"payment_category"`
	InsuranceID   *int64       `json:"insurance,omitempty"`
	InsuranceName string       `json:"insurance_company_name,omitempty"`
	IsDefault     bool         `json:"is_default"`
}

// ModesFor returns the modes usable for customer in their original order.
// Patients see every mode not tied to an insurer. Insurers additionally see
// the modes linked to them, and never another insurer's modes.
func ModesFor(modes []PaymentModeOption, customer CustomerRef) []PaymentModeOption {
	out := make([]PaymentModeOption, 0, len(modes))
	for _, m := range modes {
		if m.InsuranceID == nil && m.Category != ModeInsurance {
			out = append(out, m)
			continue
		}
		if customer.Kind == CustomerInsurance && m.InsuranceID != nil && *m.InsuranceID == customer.ID {
			out = append(out, m)
		}
	}
	return out
}

// DefaultMode picks the mode flagged as default, else the first cash mode.
func DefaultMode(modes []PaymentModeOption) (PaymentModeOption, bool) {
	for _, m := range modes {
		if m.IsDefault {
			return m, true
		}
	}
	for _, m := range modes {
		if m.Category == ModeCash {
			return m, true
		}
	}
	return PaymentModeOption{}, false
}

// FindMode looks up a mode by id
func FindMode(modes []PaymentModeOption, id int64) (PaymentModeOption, bool) {
	for _, m := range modes {
		if m.ID == id {
			return m, true
		}
	}
	return PaymentModeOption{}, false
}

// ModeBreakdown is the paid and pending totals billed against one payment mode.
type ModeBreakdown struct {
	PaymentMode     string          `json:"payment_mode"`
	PaymentCategory ModeCategory    `json:"payment_category"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	TotalPaid       decimal.Decimal `json:"total_paid"`
	TotalPending    decimal.Decimal `json:"total_pending"`
}

// BreakdownTotal sums rows into a single grand total row.
func BreakdownTotal(rows []ModeBreakdown) ModeBreakdown {
	total := ModeBreakdown{PaymentMode: "Total"}
	for _, r := range rows {
		total.TotalAmount = total.TotalAmount.Add(r.TotalAmount)
		total.TotalPaid = total.TotalPaid.Add(r.TotalPaid)
		total.TotalPending = total.TotalPending.Add(r.TotalPending)
	}
	return total
}
