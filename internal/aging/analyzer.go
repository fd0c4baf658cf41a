// =============================================================================
// Sales & Receivables Analytics - Receivables Aging Analyzer
// =============================================================================
//
// This module buckets outstanding receivables by days overdue relative to a
// reference date and computes a collection-probability score per bucket.
//
// BUCKETING:
//   age = reference_date - due_date, in whole days. Records not yet due are
//   summarized separately and excluded from the four aging buckets.
//     0-30   : age <= 30
//     31-60  : 31 <= age <= 60
//     61-90  : 61 <= age <= 90
//     90+    : age > 90
//
// COLLECTION PROBABILITY:
//   Each bucket has a baseline weight from the aging policy (monotonically
//   decreasing with bucket index). Customers with written-off history in the
//   batch have their weight multiplied by the policy adjustment factor, never
//   below zero. The bucket score is the outstanding-weighted average:
//     sum(outstanding * adjusted_weight) / sum(outstanding)
//   An empty bucket has no score at all (nil), which is not the same thing as
//   a zero chance of collection.
//
// =============================================================================

package aging

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finovatek/ar-analytics/internal/types"
)

// BucketLabels are the four aging bucket labels in fixed report order.
var BucketLabels = []string{"0-30", "31-60", "61-90", "90+"}

// =============================================================================
// POLICY
// =============================================================================

// Policy is the collection-probability calibration applied by the analyzer.
type Policy struct {
	// BucketWeights maps bucket labels to baseline collection weights.
	BucketWeights map[string]decimal.Decimal

	// WriteoffFactor multiplies the weight for customers carrying a
	// written_off receivable in the batch. Expected in [0, 1].
	WriteoffFactor decimal.Decimal
}

// DefaultPolicy returns the documented baseline calibration.
func DefaultPolicy() Policy {
	return Policy{
		BucketWeights: map[string]decimal.Decimal{
			"0-30":  decimal.NewFromFloat(0.9),
			"31-60": decimal.NewFromFloat(0.7),
			"61-90": decimal.NewFromFloat(0.4),
			"90+":   decimal.NewFromFloat(0.1),
		},
		WriteoffFactor: decimal.NewFromFloat(0.5),
	}
}

// =============================================================================
// ANALYSIS
// =============================================================================

// bucketAccumulator collects per-bucket sums while scanning records.
type bucketAccumulator struct {
	outstanding decimal.Decimal
	weighted    decimal.Decimal
	count       int
}

// Analyze buckets the receivables by age as of the reference date and scores
// each bucket. Only records with a positive outstanding balance participate;
// settled and written-off records carry nothing to collect.
//
// Bucket assignment is a pure function of (reference_date - due_date), so the
// same inputs always produce the same buckets.
func Analyze(records []types.ReceivableRecord, referenceDate time.Time, policy Policy) ([]types.AgingBucket, types.NotDueSummary) {
	ref := types.Midnight(referenceDate)

	writtenOff := writtenOffCustomers(records)

	accumulators := make(map[string]*bucketAccumulator, len(BucketLabels))
	for _, label := range BucketLabels {
		accumulators[label] = &bucketAccumulator{
			outstanding: decimal.Zero,
			weighted:    decimal.Zero,
		}
	}

	notDue := types.NotDueSummary{TotalOutstanding: decimal.Zero}

	for _, rec := range records {
		if !rec.OutstandingAmount.IsPositive() {
			continue
		}

		age := daysBetween(types.Midnight(rec.DueDate), ref)
		if age < 0 {
			notDue.TotalOutstanding = notDue.TotalOutstanding.Add(rec.OutstandingAmount)
			notDue.ReceivableCount++
			continue
		}

		label := BucketFor(age)
		weight := policy.BucketWeights[label]
		if writtenOff[rec.CustomerID] {
			weight = weight.Mul(policy.WriteoffFactor)
			if weight.IsNegative() {
				weight = decimal.Zero
			}
		}

		acc := accumulators[label]
		acc.outstanding = acc.outstanding.Add(rec.OutstandingAmount)
		acc.weighted = acc.weighted.Add(rec.OutstandingAmount.Mul(weight))
		acc.count++
	}

	buckets := make([]types.AgingBucket, 0, len(BucketLabels))
	for _, label := range BucketLabels {
		acc := accumulators[label]
		bucket := types.AgingBucket{
			Label:            label,
			TotalOutstanding: acc.outstanding,
			ReceivableCount:  acc.count,
		}

		// Division guard: a bucket with no outstanding has no probability.
		if acc.outstanding.IsPositive() {
			p := acc.weighted.DivRound(acc.outstanding, 6)
			bucket.WeightedCollectionProbability = &p
		}

		buckets = append(buckets, bucket)
	}

	return buckets, notDue
}

// BucketFor returns the aging bucket label for a non-negative age in days.
func BucketFor(age int) string {
	switch {
	case age <= 30:
		return "0-30"
	case age <= 60:
		return "31-60"
	case age <= 90:
		return "61-90"
	default:
		return "90+"
	}
}

// writtenOffCustomers collects the customers with written-off history in the
// batch. Their collection weights are adjusted down.
func writtenOffCustomers(records []types.ReceivableRecord) map[string]bool {
	customers := make(map[string]bool)
	for _, rec := range records {
		if rec.Status == types.StatusWrittenOff {
			customers[rec.CustomerID] = true
		}
	}
	return customers
}

// daysBetween returns the whole-day difference to - from. Both arguments must
// already be midnight-truncated.
func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

// =============================================================================
// TOP OVERDUE CUSTOMERS
// =============================================================================

// TopOverdue aggregates overdue outstanding per customer and returns the
// worst limit customers ordered by overdue outstanding descending (customer
// id ascending on ties, for deterministic output).
func TopOverdue(records []types.ReceivableRecord, referenceDate time.Time, limit int) []types.CustomerOverdue {
	if limit <= 0 {
		return nil
	}

	ref := types.Midnight(referenceDate)
	byCustomer := make(map[string]*types.CustomerOverdue)

	for _, rec := range records {
		if !rec.OutstandingAmount.IsPositive() {
			continue
		}

		c, ok := byCustomer[rec.CustomerID]
		if !ok {
			c = &types.CustomerOverdue{
				CustomerID:         rec.CustomerID,
				TotalOutstanding:   decimal.Zero,
				OverdueOutstanding: decimal.Zero,
			}
			byCustomer[rec.CustomerID] = c
		}

		c.TotalOutstanding = c.TotalOutstanding.Add(rec.OutstandingAmount)
		if daysBetween(types.Midnight(rec.DueDate), ref) >= 0 {
			c.OverdueOutstanding = c.OverdueOutstanding.Add(rec.OutstandingAmount)
		}
	}

	customers := make([]types.CustomerOverdue, 0, len(byCustomer))
	for _, c := range byCustomer {
		if c.TotalOutstanding.IsPositive() {
			c.OverdueRatio = c.OverdueOutstanding.DivRound(c.TotalOutstanding, 6)
		}
		customers = append(customers, *c)
	}

	sort.Slice(customers, func(i, j int) bool {
		cmp := customers[i].OverdueOutstanding.Cmp(customers[j].OverdueOutstanding)
		if cmp != 0 {
			return cmp > 0
		}
		return customers[i].CustomerID < customers[j].CustomerID
	})

	if len(customers) > limit {
		customers = customers[:limit]
	}

	return customers
}
