// Package billing holds the payment allocation rules used at the billing desk.
//
// It covers three concerns:
//   - CashPortion: how much of an invoice is collectible in cash for a payment category
//   - Aggregate: totals and balance over a selection of invoices against a tendered amount
//   - PaymentDraft: the ordered validation rules and the PaymentAllocation payload they gate
//
// Invoices and their items are owned by the upstream hospital system. Nothing in this
// package mutates them; every function here is a pure computation over its inputs.
package billing
