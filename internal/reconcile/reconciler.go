// =============================================================================
// Sales & Receivables Analytics - Processed Receivables Reconciler
// =============================================================================
//
// This module matches payment events against outstanding receivables and
// produces the updated balances plus a list of anomalies. It never mutates
// its inputs: the caller's snapshot stays intact, so re-running the same
// event sequence from the original snapshot yields identical output.
//
// STATE MACHINE (per receivable):
//   open -> (partial payment) -> partially_paid -> (full payment) -> paid
//   any  -> (writeoff)        -> written_off
//   paid and written_off are terminal; any further event against them is an
//   anomaly, not an application.
//
// ANOMALIES:
//   - orphan_payment      : event references an unknown receivable id
//   - over_payment        : payment exceeds the remaining outstanding; the
//                           balance is capped at zero and the excess reported
//   - invalid_adjustment  : adjustment would push the balance outside
//                           [0, original_amount]; rejected, not applied
//   - terminal_receivable : event against a paid or written-off receivable
//
// =============================================================================

package reconcile

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/finovatek/ar-analytics/internal/types"
)

// Reconcile applies the payment events to the receivables in ascending
// applied_date order (stable for ties, so input order breaks ties
// deterministically) and returns the updated records plus all anomalies.
func Reconcile(records []types.ReceivableRecord, events []types.PaymentEvent) types.ReconciliationResult {
	// Work on copies; the input snapshot is read-only.
	updated := make([]types.ReceivableRecord, len(records))
	copy(updated, records)

	index := make(map[string]int, len(updated))
	for i, rec := range updated {
		index[rec.ID] = i
	}

	ordered := make([]types.PaymentEvent, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].AppliedDate.Before(ordered[j].AppliedDate)
	})

	result := types.ReconciliationResult{Records: updated}

	for _, ev := range ordered {
		i, ok := index[ev.ReceivableID]
		if !ok {
			result.Anomalies = append(result.Anomalies, types.Anomaly{
				Type:         types.AnomalyOrphanPayment,
				ReceivableID: ev.ReceivableID,
				Amount:       ev.Amount,
				Detail:       fmt.Sprintf("%s event references unknown receivable %q", ev.Kind, ev.ReceivableID),
			})
			continue
		}

		rec := &result.Records[i]

		if rec.Status.IsTerminal() {
			result.Anomalies = append(result.Anomalies, types.Anomaly{
				Type:         types.AnomalyTerminalReceivable,
				ReceivableID: rec.ID,
				Amount:       ev.Amount,
				Detail:       fmt.Sprintf("%s event against %s receivable", ev.Kind, rec.Status),
			})
			continue
		}

		switch ev.Kind {
		case types.KindPayment:
			applyPayment(rec, ev, &result)
		case types.KindWriteoff:
			applyWriteoff(rec)
		case types.KindAdjustment:
			applyAdjustment(rec, ev, &result)
		}
	}

	return result
}

// applyPayment decrements the outstanding balance, capping at zero. Any
// excess is surfaced as an over_payment anomaly rather than silently dropped
// or allowed to go negative.
func applyPayment(rec *types.ReceivableRecord, ev types.PaymentEvent, result *types.ReconciliationResult) {
	remaining := rec.OutstandingAmount.Sub(ev.Amount)

	if remaining.IsNegative() {
		excess := remaining.Neg()
		result.Anomalies = append(result.Anomalies, types.Anomaly{
			Type:         types.AnomalyOverPayment,
			ReceivableID: rec.ID,
			Amount:       excess,
			Detail: fmt.Sprintf("payment of %s exceeds outstanding %s by %s",
				ev.Amount.StringFixed(2), rec.OutstandingAmount.StringFixed(2), excess.StringFixed(2)),
		})
		remaining = decimal.Zero
	}

	rec.OutstandingAmount = remaining
	if remaining.IsZero() {
		rec.Status = types.StatusPaid
	} else {
		rec.Status = types.StatusPartiallyPaid
	}
}

// applyWriteoff zeroes the balance and moves the receivable to its terminal
// written_off state regardless of the remaining balance.
func applyWriteoff(rec *types.ReceivableRecord) {
	rec.OutstandingAmount = decimal.Zero
	rec.Status = types.StatusWrittenOff
}

// applyAdjustment moves the balance by the signed adjustment amount. An
// adjustment that would leave [0, original_amount] is rejected and reported;
// the balance stays untouched.
func applyAdjustment(rec *types.ReceivableRecord, ev types.PaymentEvent, result *types.ReconciliationResult) {
	adjusted := rec.OutstandingAmount.Add(ev.Amount)

	if adjusted.IsNegative() || adjusted.GreaterThan(rec.OriginalAmount) {
		result.Anomalies = append(result.Anomalies, types.Anomaly{
			Type:         types.AnomalyInvalidAdjustment,
			ReceivableID: rec.ID,
			Amount:       ev.Amount,
			Detail: fmt.Sprintf("adjustment of %s would move outstanding %s outside [0, %s]",
				ev.Amount.StringFixed(2), rec.OutstandingAmount.StringFixed(2), rec.OriginalAmount.StringFixed(2)),
		})
		return
	}

	rec.OutstandingAmount = adjusted
	if adjusted.IsZero() {
		rec.Status = types.StatusPaid
	}
}
