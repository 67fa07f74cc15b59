package payment

import (
	"testing"
	"time"

	"github.com/mosesmbadi/easymed-sub000/internal/domain/billing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T {
	return &v
}

func patientInvoice(id, patientID int64, amount string) billing.Invoice {
	return billing.Invoice{
		ID:            id,
		InvoiceNumber: "INV-" + amount,
		InvoiceAmount: billing.ToDecimal(amount),
		Status:        billing.InvoiceStatusPending,
		PatientID:     ptr(patientID),
	}
}

func newTestSession() *Session {
	return NewSession("s-1", "user-1", "2026-10-14", time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC))
}

// readySession walks a session to ReadyToSubmit for patient 7 with invoices 1 and 2.
func readySession(t *testing.T) *Session {
	t.Helper()
	s := newTestSession()
	require.NoError(t, s.SelectCategory(billing.CategoryCash))
	require.NoError(t, s.SelectCustomer(7))
	s.SetAvailableInvoices([]billing.Invoice{patientInvoice(1, 7, "1000"), patientInvoice(2, 7, "500")})
	require.NoError(t, s.SelectInvoices([]int64{1, 2}))
	require.NoError(t, s.SetAmount("1200"))
	require.NoError(t, s.SetDetails(ptr(int64(3)), "MPESA-XYZ", ""))
	require.Equal(t, StateReadyToSubmit, s.State())
	return s
}

func TestSession_ForwardTransitions(t *testing.T) {
	s := newTestSession()
	assert.Equal(t, StateIdle, s.State())

	require.NoError(t, s.SelectCategory(billing.CategoryCash))
	assert.Equal(t, StateCategorySelected, s.State())

	require.NoError(t, s.SelectCustomer(7))
	assert.Equal(t, StateCustomerSelected, s.State())

	s.SetAvailableInvoices([]billing.Invoice{patientInvoice(1, 7, "1000")})
	require.NoError(t, s.SelectInvoices([]int64{1}))
	assert.Equal(t, StateInvoicesSelected, s.State())

	require.NoError(t, s.SetAmount("abc"))
	assert.Equal(t, StateInvoicesSelected, s.State(), "invalid amount is kept but does not advance")
	assert.Equal(t, "abc", s.Draft().Amount)

	require.NoError(t, s.SetAmount("250"))
	assert.Equal(t, StateAmountEntered, s.State())

	require.NoError(t, s.SetDetails(ptr(int64(3)), "  ", ""))
	assert.Equal(t, StateAmountEntered, s.State(), "blank reference")

	require.NoError(t, s.SetDetails(ptr(int64(3)), "REF-1", ""))
	assert.Equal(t, StateReadyToSubmit, s.State())
	assert.Equal(t, "2026-10-14", s.Draft().PaymentDate, "date defaults to today")
}

func TestSession_CategoryChangeCascades(t *testing.T) {
	s := readySession(t)

	require.NoError(t, s.SelectCategory(billing.CategoryCash))
	assert.Equal(t, StateReadyToSubmit, s.State(), "same category is a no-op")

	require.NoError(t, s.SelectCategory(billing.CategoryCredit))
	assert.Equal(t, StateCategorySelected, s.State())

	draft := s.Draft()
	assert.Nil(t, draft.CustomerID)
	assert.Empty(t, draft.InvoiceIDs)
	assert.Empty(t, draft.Amount)
	assert.Nil(t, draft.PaymentModeID)
	assert.Empty(t, draft.ReferenceNumber)
	assert.Equal(t, "2026-10-14", draft.PaymentDate)
	assert.Empty(t, s.View().AvailableInvoices)
}

func TestSession_CustomerChangeResetsInvoices(t *testing.T) {
	s := readySession(t)

	require.NoError(t, s.SelectCustomer(7))
	assert.Equal(t, StateReadyToSubmit, s.State(), "same customer is a no-op")

	require.NoError(t, s.SelectCustomer(8))
	assert.Equal(t, StateCustomerSelected, s.State())
	assert.Empty(t, s.Draft().InvoiceIDs)
	assert.Empty(t, s.Draft().Amount)
	assert.NotNil(t, s.Draft().PaymentModeID, "payment details survive a customer change")
}

func TestSession_SelectCustomerRequiresCategory(t *testing.T) {
	s := newTestSession()
	err := s.SelectCustomer(7)

	var ve *billing.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, billing.RuleCategory, ve.Rule)
}

func TestSession_SelectInvoices(t *testing.T) {
	s := newTestSession()
	require.NoError(t, s.SelectCategory(billing.CategoryCash))
	require.NoError(t, s.SelectCustomer(7))
	s.SetAvailableInvoices([]billing.Invoice{
		patientInvoice(1, 7, "100"),
		patientInvoice(2, 7, "200"),
		patientInvoice(3, 7, "300"),
	})

	require.NoError(t, s.SelectInvoices([]int64{3, 1, 3}))
	assert.Equal(t, []int64{3, 1}, s.Draft().InvoiceIDs, "caller order, duplicates collapsed")

	err := s.SelectInvoices([]int64{1, 99})
	assert.ErrorIs(t, err, ErrUnknownInvoice)
	assert.Contains(t, err.Error(), "99")
	assert.Equal(t, []int64{3, 1}, s.Draft().InvoiceIDs, "failed selection leaves the previous one")

	require.NoError(t, s.SetAmount("50"))
	require.NoError(t, s.SelectInvoices(nil))
	assert.Equal(t, StateCustomerSelected, s.State())
	assert.Empty(t, s.Draft().Amount, "empty selection clears the amount")
}

func TestSession_SetAvailableInvoices(t *testing.T) {
	s := newTestSession()
	require.NoError(t, s.SelectCategory(billing.CategoryCash))
	require.NoError(t, s.SelectCustomer(7))
	s.SetAvailableInvoices([]billing.Invoice{patientInvoice(1, 7, "100"), patientInvoice(2, 7, "200")})
	require.NoError(t, s.SelectInvoices([]int64{1, 2}))

	dropped := s.SetAvailableInvoices([]billing.Invoice{
		patientInvoice(2, 7, "200"),
		patientInvoice(5, 9, "900"),
	})

	require.Len(t, dropped, 1)
	assert.Equal(t, int64(5), dropped[0].ID)
	assert.Equal(t, []int64{2}, s.Draft().InvoiceIDs)
	assert.True(t, s.View().InvoicesLoaded)
}

func TestSession_SetAmountRequiresInvoices(t *testing.T) {
	s := newTestSession()
	require.NoError(t, s.SelectCategory(billing.CategoryCash))
	require.NoError(t, s.SelectCustomer(7))

	var ve *billing.ValidationError
	require.ErrorAs(t, s.SetAmount("100"), &ve)
	assert.Equal(t, billing.RuleInvoices, ve.Rule)
}

func TestSession_Validate_FirstFailureWins(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(*Session)
		rule    billing.Rule
		message string
	}{
		{"no category", func(s *Session) {}, billing.RuleCategory, "Please select a payment category"},
		{"no patient", func(s *Session) { _ = s.SelectCategory(billing.CategoryCash) }, billing.RuleCustomer, "Please select a patient"},
		{"no insurer", func(s *Session) { _ = s.SelectCategory(billing.CategoryCredit) }, billing.RuleCustomer, "Please select an insurance company"},
		{"no invoices", func(s *Session) {
			_ = s.SelectCategory(billing.CategoryCash)
			_ = s.SelectCustomer(7)
			_ = s.SetDetails(ptr(int64(1)), "REF", "")
		}, billing.RuleInvoices, "Please select at least one invoice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession()
			tt.prepare(s)

			var ve *billing.ValidationError
			require.ErrorAs(t, s.Validate(), &ve)
			assert.Equal(t, tt.rule, ve.Rule)
			assert.Equal(t, tt.message, ve.Message)
		})
	}
}

func TestSession_BuildAllocation(t *testing.T) {
	s := readySession(t)
	require.NoError(t, s.SetDetails(ptr(int64(3)), "  MPESA-XYZ ", "2026-10-01"))

	allocation, err := s.BuildAllocation()
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 2}, allocation.InvoiceIDs)
	assert.Equal(t, int64(3), allocation.PaymentModeID)
	assert.Equal(t, "1200", allocation.Amount.String())
	assert.Equal(t, "MPESA-XYZ", allocation.ReferenceNumber)
	assert.Equal(t, "2026-10-01", allocation.PaymentDate, "backdated")
	assert.Equal(t, int64(7), allocation.CustomerID)
	assert.Equal(t, billing.CustomerPatient, allocation.CustomerKind)
}

func TestSession_SummaryKeepsSelectionOrder(t *testing.T) {
	s := readySession(t)
	require.NoError(t, s.SelectInvoices([]int64{2, 1}))

	summary := s.Summary()

	assert.Equal(t, "1500", summary.TotalOwed.String())
	assert.Equal(t, "300", summary.Balance.String())
	assert.Equal(t, billing.BalanceUnderpayment, summary.BalanceKind)
	require.Len(t, summary.Lines, 2)
	assert.Equal(t, int64(2), summary.Lines[0].InvoiceID)
}

func TestSession_AllocatedIsTerminal(t *testing.T) {
	s := readySession(t)
	s.markSubmitting()
	s.markAllocated(&billing.Receipt{ID: 55})

	assert.Equal(t, StateAllocated, s.State())
	assert.False(t, s.Submitting())
	assert.ErrorIs(t, s.SelectCategory(billing.CategoryCredit), ErrSessionAllocated)
	assert.ErrorIs(t, s.SetAmount("1"), ErrSessionAllocated)
	_, err := s.BuildAllocation()
	assert.ErrorIs(t, err, ErrSessionAllocated)
	assert.Nil(t, s.View().NextStep)
}

func TestSession_ExponentAmountIsInvalid(t *testing.T) {
	s := readySession(t)
	require.NoError(t, s.SetAmount("1e999999999"))

	assert.Equal(t, "1e999999999", s.View().Amount)
	assert.True(t, s.Summary().Tendered.IsZero())
	var ve *billing.ValidationError
	require.ErrorAs(t, s.Validate(), &ve)
	assert.Equal(t, billing.RuleAmount, ve.Rule)
}

func TestSession_EditsRejectedWhileSubmitting(t *testing.T) {
	s := readySession(t)
	before := s.Draft()
	s.markSubmitting()

	mode := int64(9)
	assert.ErrorIs(t, s.SelectCategory(billing.CategoryCredit), billing.ErrSubmitInFlight)
	assert.ErrorIs(t, s.SelectCustomer(99), billing.ErrSubmitInFlight)
	assert.ErrorIs(t, s.SelectInvoices(nil), billing.ErrSubmitInFlight)
	assert.ErrorIs(t, s.SetAmount("1"), billing.ErrSubmitInFlight)
	assert.ErrorIs(t, s.SetDetails(&mode, "X", ""), billing.ErrSubmitInFlight)
	assert.Equal(t, before, s.Draft())

	s.clearSubmitting()
	assert.Equal(t, StateReadyToSubmit, s.State())
	assert.NoError(t, s.SetAmount("1"))
}

func TestSession_View(t *testing.T) {
	s := newTestSession()
	v := s.View()

	assert.Equal(t, StateIdle, v.State)
	assert.NotNil(t, v.AvailableInvoices)
	assert.NotNil(t, v.SelectedInvoiceIDs)
	assert.Nil(t, v.Customer)
	require.NotNil(t, v.NextStep)
	assert.Equal(t, "payment_category", v.NextStep.Field)

	ready := readySession(t).View()
	assert.Nil(t, ready.NextStep)
	require.NotNil(t, ready.Customer)
	assert.Equal(t, billing.CustomerRef{ID: 7, Kind: billing.CustomerPatient}, *ready.Customer)
	assert.Equal(t, "Cash (Patient)", ready.CategoryLabel)
}
