// =============================================================================
// Sales & Receivables Analytics - Shared Types
// =============================================================================
//
// This package contains the canonical domain records shared across the
// pipeline to avoid import cycles. Types defined here are used by:
//   - normalizer
//   - sales
//   - aging
//   - reconcile
//   - engine
//   - xmlreport
//
// Raw ERP rows are only ever represented as RawRecord values; everything past
// the normalizer boundary works on the typed records below.
//
// =============================================================================

package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// RAW RECORDS
// =============================================================================

// RawKind discriminates the kind of raw ERP row.
type RawKind string

const (
	RawTransaction RawKind = "transaction"
	RawReceivable  RawKind = "receivable"
	RawPayment     RawKind = "payment"
)

// RawRecord is a single untyped row as exported by the ERP. Field values are
// raw strings; validation and typing happen in the normalizer.
type RawRecord struct {
	// Kind identifies which canonical record this row should normalize into.
	Kind RawKind

	// Fields maps ERP column names to raw string values.
	Fields map[string]string

	// RowNumber is the row number in the source export, for error reporting.
	RowNumber int
}

// =============================================================================
// REJECTIONS
// =============================================================================

// RejectReason is the machine-readable reason a raw row was rejected.
type RejectReason string

const (
	RejectMissingField  RejectReason = "missing_field"
	RejectInvalidDate   RejectReason = "invalid_date"
	RejectInvalidAmount RejectReason = "invalid_amount"
	RejectDuplicateID   RejectReason = "duplicate_id"
)

// RejectedRow describes a raw row that failed normalization. Rejected rows
// never abort a run; they are carried into the report payload.
type RejectedRow struct {
	// RowNumber is the source row number of the rejected row.
	RowNumber int

	// Kind is the raw record kind the row claimed to be.
	Kind RawKind

	// Reason is the rejection reason code.
	Reason RejectReason

	// Field is the offending field name, where applicable.
	Field string

	// Detail is a human-readable description of the failure.
	Detail string
}

// =============================================================================
// CANONICAL RECORDS
// =============================================================================

// Transaction is a normalized sales transaction.
type Transaction struct {
	// ID is the transaction identifier, unique within a batch.
	ID string

	// Date is the transaction date (time portion is always midnight UTC).
	Date time.Time

	// CustomerID identifies the customer the sale was booked against.
	CustomerID string

	// Amount is the signed transaction amount. Credits/returns are negative.
	Amount decimal.Decimal

	// Category is the ERP sales category label. Operator-supplied free text;
	// the serializer escapes it.
	Category string
}

// ReceivableStatus is the lifecycle status of a receivable.
type ReceivableStatus string

const (
	StatusOpen          ReceivableStatus = "open"
	StatusPartiallyPaid ReceivableStatus = "partially_paid"
	StatusPaid          ReceivableStatus = "paid"
	StatusWrittenOff    ReceivableStatus = "written_off"
)

// IsValid reports whether the status is one of the known lifecycle states.
func (s ReceivableStatus) IsValid() bool {
	switch s {
	case StatusOpen, StatusPartiallyPaid, StatusPaid, StatusWrittenOff:
		return true
	}
	return false
}

// IsTerminal reports whether the status accepts no further payment events.
// Events against a terminal receivable are reconciliation anomalies.
func (s ReceivableStatus) IsTerminal() bool {
	return s == StatusPaid || s == StatusWrittenOff
}

// ReceivableRecord is a normalized outstanding receivable.
//
// Invariants (enforced at the normalizer boundary and preserved by the
// reconciler): 0 <= OutstandingAmount <= OriginalAmount, DueDate >= InvoiceDate.
type ReceivableRecord struct {
	ID                string
	CustomerID        string
	InvoiceDate       time.Time
	DueDate           time.Time
	OriginalAmount    decimal.Decimal
	OutstandingAmount decimal.Decimal
	Status            ReceivableStatus
}

// PaymentKind discriminates payment events.
type PaymentKind string

const (
	KindPayment    PaymentKind = "payment"
	KindWriteoff   PaymentKind = "writeoff"
	KindAdjustment PaymentKind = "adjustment"
)

// PaymentEvent is an incoming payment, write-off, or manual adjustment
// against a receivable. Amount is positive except for adjustments, which may
// be negative (a negative adjustment lowers the outstanding balance).
type PaymentEvent struct {
	ReceivableID string
	Amount       decimal.Decimal
	AppliedDate  time.Time
	Kind         PaymentKind
}

// =============================================================================
// DERIVED AGGREGATES
// =============================================================================

// Granularity is the period granularity of a sales aggregate.
type Granularity string

const (
	GranularityDay        Granularity = "day"
	GranularityMonth      Granularity = "month"
	GranularityCumulative Granularity = "cumulative"
)

// SalesAggregate is one aggregated sales figure for a period.
type SalesAggregate struct {
	// Granularity is day, month, or cumulative.
	Granularity Granularity

	// PeriodKey identifies the period: "2006-01-02" for days, "2006-01" for
	// months, "2006-01-02..2006-01-31" for the cumulative range.
	PeriodKey string

	// TotalAmount is the exact decimal sum of transaction amounts.
	TotalAmount decimal.Decimal

	// TransactionCount is the number of transactions in the period.
	TransactionCount int
}

// AgingBucket is one days-overdue bucket of outstanding receivables.
type AgingBucket struct {
	// Label is one of "0-30", "31-60", "61-90", "90+".
	Label string

	// TotalOutstanding is the summed outstanding amount in the bucket.
	TotalOutstanding decimal.Decimal

	// ReceivableCount is the number of receivables in the bucket.
	ReceivableCount int

	// WeightedCollectionProbability is the outstanding-weighted collection
	// probability for the bucket. Nil for an empty bucket: "no receivables"
	// is distinct from "no chance of collection".
	WeightedCollectionProbability *decimal.Decimal
}

// NotDueSummary summarizes receivables that are not yet due as of the
// reference date. These are excluded from the four aging buckets.
type NotDueSummary struct {
	TotalOutstanding decimal.Decimal
	ReceivableCount  int
}

// =============================================================================
// RECONCILIATION
// =============================================================================

// AnomalyType classifies reconciliation anomalies.
type AnomalyType string

const (
	AnomalyOrphanPayment      AnomalyType = "orphan_payment"
	AnomalyOverPayment        AnomalyType = "over_payment"
	AnomalyInvalidAdjustment  AnomalyType = "invalid_adjustment"
	AnomalyTerminalReceivable AnomalyType = "terminal_receivable"
)

// Anomaly is a detected inconsistency between a payment event and the
// receivable it references. Anomalies never abort a run; they are reported
// in the reconciliation section of the document.
type Anomaly struct {
	// Type is the anomaly classification.
	Type AnomalyType

	// ReceivableID is the receivable the offending event referenced.
	ReceivableID string

	// Amount is the anomalous amount (the over-payment excess, the rejected
	// adjustment amount, or the amount of the orphan/terminal event).
	Amount decimal.Decimal

	// Detail is a human-readable description.
	Detail string
}

// ReconciliationResult is the output of the reconciler: the updated
// receivables plus every anomaly detected while applying events.
type ReconciliationResult struct {
	Records   []ReceivableRecord
	Anomalies []Anomaly
}

// =============================================================================
// SUPPLEMENTARY ANALYTICS
// =============================================================================

// CustomerOverdue is one row of the worst-overdue-customers table.
type CustomerOverdue struct {
	CustomerID         string
	TotalOutstanding   decimal.Decimal
	OverdueOutstanding decimal.Decimal

	// OverdueRatio is OverdueOutstanding / TotalOutstanding, zero when the
	// customer has no outstanding balance.
	OverdueRatio decimal.Decimal
}

// =============================================================================
// DATE RANGE
// =============================================================================

// DateRange is the inclusive reporting period requested by the caller.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether d falls inside the range (inclusive on both ends).
// Only the calendar date is considered.
func (r DateRange) Contains(d time.Time) bool {
	day := Midnight(d)
	return !day.Before(Midnight(r.Start)) && !day.After(Midnight(r.End))
}

// Midnight truncates a timestamp to its calendar date in UTC.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// =============================================================================
// REPORT PAYLOAD
// =============================================================================

// ReportPayload is the immutable snapshot produced by one report run. It is
// created once per run, never mutated after serialization, and owned by the
// caller that requested the report.
type ReportPayload struct {
	// RunID uniquely identifies the report run.
	RunID string

	// GeneratedAt is the report generation timestamp. It is the only
	// wall-clock-dependent content in the serialized document.
	GeneratedAt time.Time

	// Range is the requested reporting period.
	Range DateRange

	// ReferenceDate is the as-of date used for receivables aging.
	ReferenceDate time.Time

	// Sales holds the daily, monthly, and cumulative aggregates.
	Sales []SalesAggregate

	// Buckets holds the four aging buckets in fixed label order.
	Buckets []AgingBucket

	// NotDue summarizes receivables not yet due at the reference date.
	NotDue NotDueSummary

	// Reconciliation holds the updated receivables and anomalies.
	Reconciliation ReconciliationResult

	// Rejected holds raw rows that failed normalization.
	Rejected []RejectedRow

	// TopOverdue lists the customers with the largest overdue balances.
	TopOverdue []CustomerOverdue

	// LongOverdueRatio is the 90+ bucket outstanding divided by the total
	// outstanding across all buckets, used for the KPI check.
	LongOverdueRatio decimal.Decimal

	// KPITargetExceeded is true when LongOverdueRatio exceeds the configured
	// long-overdue target.
	KPITargetExceeded bool
}
