// =============================================================================
// Sales & Receivables Analytics - Sales Calculator
// =============================================================================
//
// This module aggregates normalized sales transactions into daily, monthly,
// and cumulative totals for the requested reporting period.
//
// GUARANTEES:
//   - Full calendar coverage: every day of the range and every month touched
//     by the range yields an aggregate, zero-valued when no transactions
//     landed there. Downstream consumers never have to handle gaps.
//   - Exact decimal arithmetic throughout; no floating-point accumulation.
//   - Deterministic output: aggregates are ordered by period ascending, and
//     same-day amounts are summed before any accumulation, so the order of
//     transactions within a day cannot affect the result.
//
// =============================================================================

package sales

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finovatek/ar-analytics/internal/types"
)

// periodTotal accumulates one period while grouping.
type periodTotal struct {
	amount decimal.Decimal
	count  int
}

// Aggregate produces the sales aggregates for the transactions: one daily
// entry per calendar day of the range, one monthly entry per month touched by
// the range, and a single cumulative entry covering the full range, in that
// order.
//
// Transactions are assumed normalized (all dated within the range); any
// stragglers outside it are ignored rather than inventing calendar periods
// the caller did not request.
func Aggregate(transactions []types.Transaction, rng types.DateRange) []types.SalesAggregate {
	start := types.Midnight(rng.Start)
	end := types.Midnight(rng.End)

	daily := make(map[string]*periodTotal)
	monthly := make(map[string]*periodTotal)
	cumulative := periodTotal{amount: decimal.Zero}

	for _, tx := range transactions {
		if !rng.Contains(tx.Date) {
			continue
		}

		dayKey := tx.Date.Format("2006-01-02")
		monthKey := tx.Date.Format("2006-01")

		addTo(daily, dayKey, tx.Amount)
		addTo(monthly, monthKey, tx.Amount)
		cumulative.amount = cumulative.amount.Add(tx.Amount)
		cumulative.count++
	}

	var aggregates []types.SalesAggregate

	// Daily aggregates: one per calendar day, gaps filled with zeros.
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		key := day.Format("2006-01-02")
		aggregates = append(aggregates, buildAggregate(types.GranularityDay, key, daily[key]))
	}

	// Monthly aggregates: one per month touched by the range.
	firstMonth := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	lastMonth := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, time.UTC)
	for month := firstMonth; !month.After(lastMonth); month = month.AddDate(0, 1, 0) {
		key := month.Format("2006-01")
		aggregates = append(aggregates, buildAggregate(types.GranularityMonth, key, monthly[key]))
	}

	// One cumulative aggregate over the whole range.
	cumulativeKey := fmt.Sprintf("%s..%s", start.Format("2006-01-02"), end.Format("2006-01-02"))
	aggregates = append(aggregates, types.SalesAggregate{
		Granularity:      types.GranularityCumulative,
		PeriodKey:        cumulativeKey,
		TotalAmount:      cumulative.amount,
		TransactionCount: cumulative.count,
	})

	return aggregates
}

// addTo accumulates an amount into the keyed period total.
func addTo(totals map[string]*periodTotal, key string, amount decimal.Decimal) {
	t, ok := totals[key]
	if !ok {
		t = &periodTotal{amount: decimal.Zero}
		totals[key] = t
	}
	t.amount = t.amount.Add(amount)
	t.count++
}

// buildAggregate converts an accumulated total (possibly nil, meaning no
// transactions in the period) into a SalesAggregate.
func buildAggregate(g types.Granularity, key string, t *periodTotal) types.SalesAggregate {
	if t == nil {
		return types.SalesAggregate{
			Granularity: g,
			PeriodKey:   key,
			TotalAmount: decimal.Zero,
		}
	}
	return types.SalesAggregate{
		Granularity:      g,
		PeriodKey:        key,
		TotalAmount:      t.amount,
		TransactionCount: t.count,
	}
}
