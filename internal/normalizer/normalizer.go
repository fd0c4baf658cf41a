// =============================================================================
// Sales & Receivables Analytics - Record Normalizer
// =============================================================================
//
// This module converts heterogeneous raw ERP rows into the canonical
// transaction/receivable/payment schema. It is the typing boundary of the
// pipeline: everything downstream only ever sees well-formed records.
//
// ERROR HANDLING:
//   - Malformed rows are collected, never thrown
//   - Each rejection carries a reason code and the offending field
//   - A rejected row never aborts the run
//
// FILTERING:
//   - Transactions and payments dated outside the requested range are
//     excluded silently (not an error)
//   - Duplicate ids within a batch: first occurrence wins, later rows are
//     rejected with duplicate_id
//
// =============================================================================

package normalizer

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finovatek/ar-analytics/internal/types"
)

// =============================================================================
// FIELD NAMES
// =============================================================================
// Column names as emitted by the ERP export layer.

const (
	fieldID          = "id"
	fieldDate        = "date"
	fieldCustomerID  = "customer_id"
	fieldAmount      = "amount"
	fieldCategory    = "category"
	fieldInvoiceDate = "invoice_date"
	fieldDueDate     = "due_date"
	fieldOriginal    = "original_amount"
	fieldOutstanding = "outstanding_amount"
	fieldStatus      = "status"
	fieldReceivable  = "receivable_id"
	fieldAppliedDate = "applied_date"
	fieldKind        = "kind"
)

// dateFormats are the date layouts accepted from the ERP, tried in order.
var dateFormats = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"20060102",
}

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result is the output of one normalization pass.
type Result struct {
	// Transactions are the valid sales transactions within the range.
	Transactions []types.Transaction

	// Receivables are the valid receivable records.
	Receivables []types.ReceivableRecord

	// Payments are the valid payment events within the range.
	Payments []types.PaymentEvent

	// Rejected are the rows that failed normalization, with reason codes.
	Rejected []types.RejectedRow
}

// =============================================================================
// NORMALIZER
// =============================================================================

// Normalizer validates and types raw rows for a single report run.
type Normalizer struct {
	rng types.DateRange

	// seen tracks ids per record kind for duplicate detection.
	// First occurrence wins; later ones are rejected.
	seenTransactions map[string]bool
	seenReceivables  map[string]bool
}

// New creates a Normalizer for the given report date range.
func New(rng types.DateRange) *Normalizer {
	return &Normalizer{
		rng:              rng,
		seenTransactions: make(map[string]bool),
		seenReceivables:  make(map[string]bool),
	}
}

// Normalize runs a full pass over the raw rows. It never returns an error:
// malformed input is always routed to the rejection list.
func Normalize(rows []types.RawRecord, rng types.DateRange) *Result {
	n := New(rng)
	result := &Result{}

	for _, row := range rows {
		switch row.Kind {
		case types.RawTransaction:
			n.normalizeTransaction(row, result)
		case types.RawReceivable:
			n.normalizeReceivable(row, result)
		case types.RawPayment:
			n.normalizePayment(row, result)
		default:
			result.Rejected = append(result.Rejected, types.RejectedRow{
				RowNumber: row.RowNumber,
				Kind:      row.Kind,
				Reason:    types.RejectMissingField,
				Field:     "kind",
				Detail:    fmt.Sprintf("unrecognized record kind %q", row.Kind),
			})
		}
	}

	return result
}

// =============================================================================
// PER-KIND NORMALIZATION
// =============================================================================

// normalizeTransaction validates one raw transaction row.
func (n *Normalizer) normalizeTransaction(row types.RawRecord, result *Result) {
	if !n.requireFields(row, result, fieldID, fieldDate, fieldCustomerID, fieldAmount) {
		return
	}

	date, ok := n.parseDate(row, fieldDate, result)
	if !ok {
		return
	}

	amount, ok := n.parseAmount(row, fieldAmount, result)
	if !ok {
		return
	}

	// Rows outside the requested range are excluded silently. This also
	// covers dates past the report period end.
	if !n.rng.Contains(date) {
		return
	}

	id := strings.TrimSpace(row.Fields[fieldID])
	if n.seenTransactions[id] {
		n.reject(row, result, types.RejectDuplicateID, fieldID,
			fmt.Sprintf("transaction id %q already seen in this batch", id))
		return
	}
	n.seenTransactions[id] = true

	result.Transactions = append(result.Transactions, types.Transaction{
		ID:         id,
		Date:       date,
		CustomerID: strings.TrimSpace(row.Fields[fieldCustomerID]),
		Amount:     amount,
		Category:   strings.TrimSpace(row.Fields[fieldCategory]),
	})
}

// normalizeReceivable validates one raw receivable row, enforcing the balance
// and date invariants at the boundary.
func (n *Normalizer) normalizeReceivable(row types.RawRecord, result *Result) {
	if !n.requireFields(row, result, fieldID, fieldCustomerID, fieldInvoiceDate,
		fieldDueDate, fieldOriginal, fieldOutstanding) {
		return
	}

	invoiceDate, ok := n.parseDate(row, fieldInvoiceDate, result)
	if !ok {
		return
	}
	dueDate, ok := n.parseDate(row, fieldDueDate, result)
	if !ok {
		return
	}
	if dueDate.Before(invoiceDate) {
		n.reject(row, result, types.RejectInvalidDate, fieldDueDate,
			"due_date precedes invoice_date")
		return
	}

	original, ok := n.parseAmount(row, fieldOriginal, result)
	if !ok {
		return
	}
	outstanding, ok := n.parseAmount(row, fieldOutstanding, result)
	if !ok {
		return
	}
	if outstanding.IsNegative() || outstanding.GreaterThan(original) {
		n.reject(row, result, types.RejectInvalidAmount, fieldOutstanding,
			fmt.Sprintf("outstanding %s outside [0, %s]", outstanding, original))
		return
	}

	// An absent status defaults to open; an unrecognized one is rejected.
	status := types.ReceivableStatus(strings.TrimSpace(row.Fields[fieldStatus]))
	if status == "" {
		status = types.StatusOpen
	}
	if !status.IsValid() {
		n.reject(row, result, types.RejectMissingField, fieldStatus,
			fmt.Sprintf("unrecognized status %q", status))
		return
	}

	id := strings.TrimSpace(row.Fields[fieldID])
	if n.seenReceivables[id] {
		n.reject(row, result, types.RejectDuplicateID, fieldID,
			fmt.Sprintf("receivable id %q already seen in this batch", id))
		return
	}
	n.seenReceivables[id] = true

	result.Receivables = append(result.Receivables, types.ReceivableRecord{
		ID:                id,
		CustomerID:        strings.TrimSpace(row.Fields[fieldCustomerID]),
		InvoiceDate:       invoiceDate,
		DueDate:           dueDate,
		OriginalAmount:    original,
		OutstandingAmount: outstanding,
		Status:            status,
	})
}

// normalizePayment validates one raw payment event row.
func (n *Normalizer) normalizePayment(row types.RawRecord, result *Result) {
	if !n.requireFields(row, result, fieldReceivable, fieldAmount, fieldAppliedDate, fieldKind) {
		return
	}

	appliedDate, ok := n.parseDate(row, fieldAppliedDate, result)
	if !ok {
		return
	}

	amount, ok := n.parseAmount(row, fieldAmount, result)
	if !ok {
		return
	}

	kind := types.PaymentKind(strings.TrimSpace(row.Fields[fieldKind]))
	switch kind {
	case types.KindPayment, types.KindWriteoff, types.KindAdjustment:
	default:
		n.reject(row, result, types.RejectMissingField, fieldKind,
			fmt.Sprintf("unrecognized payment kind %q", kind))
		return
	}

	// Amounts must be positive, except adjustments which may be negative.
	// A zero amount is meaningless for every kind.
	if amount.IsZero() || (!amount.IsPositive() && kind != types.KindAdjustment) {
		n.reject(row, result, types.RejectInvalidAmount, fieldAmount,
			fmt.Sprintf("amount %s not valid for %s event", amount, kind))
		return
	}

	// Events dated outside the requested range are excluded silently,
	// like transactions.
	if !n.rng.Contains(appliedDate) {
		return
	}

	result.Payments = append(result.Payments, types.PaymentEvent{
		ReceivableID: strings.TrimSpace(row.Fields[fieldReceivable]),
		Amount:       amount,
		AppliedDate:  appliedDate,
		Kind:         kind,
	})
}

// =============================================================================
// FIELD PARSERS
// =============================================================================

// requireFields rejects the row if any of the named fields is empty.
func (n *Normalizer) requireFields(row types.RawRecord, result *Result, fields ...string) bool {
	for _, f := range fields {
		if strings.TrimSpace(row.Fields[f]) == "" {
			n.reject(row, result, types.RejectMissingField, f,
				fmt.Sprintf("required field %q is empty", f))
			return false
		}
	}
	return true
}

// parseDate parses a date field, rejecting the row on failure. The accepted
// layouts mirror what the ERP export layer is known to emit.
func (n *Normalizer) parseDate(row types.RawRecord, field string, result *Result) (time.Time, bool) {
	value := strings.TrimSpace(row.Fields[field])

	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, value); err == nil {
			return types.Midnight(t), true
		}
	}

	n.reject(row, result, types.RejectInvalidDate, field,
		fmt.Sprintf("value %q is not a valid date", value))
	return time.Time{}, false
}

// parseAmount parses a decimal amount field, rejecting the row on failure.
// Thousands separators are tolerated because some ERP exports include them.
func (n *Normalizer) parseAmount(row types.RawRecord, field string, result *Result) (decimal.Decimal, bool) {
	value := strings.ReplaceAll(strings.TrimSpace(row.Fields[field]), ",", "")

	amount, err := decimal.NewFromString(value)
	if err != nil {
		n.reject(row, result, types.RejectInvalidAmount, field,
			fmt.Sprintf("value %q is not a valid amount", row.Fields[field]))
		return decimal.Decimal{}, false
	}

	return amount, true
}

// reject records a rejection for the row.
func (n *Normalizer) reject(row types.RawRecord, result *Result, reason types.RejectReason, field, detail string) {
	result.Rejected = append(result.Rejected, types.RejectedRow{
		RowNumber: row.RowNumber,
		Kind:      row.Kind,
		Reason:    reason,
		Field:     field,
		Detail:    detail,
	})
}
