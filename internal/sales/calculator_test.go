package sales

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finovatek/ar-analytics/internal/types"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func tx(id string, date time.Time, amount string) types.Transaction {
	return types.Transaction{
		ID:         id,
		Date:       date,
		CustomerID: "C1",
		Amount:     decimal.RequireFromString(amount),
	}
}

func byGranularity(aggs []types.SalesAggregate, g types.Granularity) []types.SalesAggregate {
	var out []types.SalesAggregate
	for _, a := range aggs {
		if a.Granularity == g {
			out = append(out, a)
		}
	}
	return out
}

func TestAggregateEmptyRangeIsZeroFilled(t *testing.T) {
	rng := types.DateRange{Start: day(2024, 3, 1), End: day(2024, 3, 3)}

	aggs := Aggregate(nil, rng)

	daily := byGranularity(aggs, types.GranularityDay)
	require.Len(t, daily, 3)
	for i, key := range []string{"2024-03-01", "2024-03-02", "2024-03-03"} {
		assert.Equal(t, key, daily[i].PeriodKey)
		assert.True(t, daily[i].TotalAmount.IsZero())
		assert.Zero(t, daily[i].TransactionCount)
	}

	monthly := byGranularity(aggs, types.GranularityMonth)
	require.Len(t, monthly, 1)
	assert.Equal(t, "2024-03", monthly[0].PeriodKey)

	cumulative := byGranularity(aggs, types.GranularityCumulative)
	require.Len(t, cumulative, 1)
	assert.Equal(t, "2024-03-01..2024-03-03", cumulative[0].PeriodKey)
	assert.True(t, cumulative[0].TotalAmount.IsZero())
}

func TestAggregateTotalsAgree(t *testing.T) {
	// Range spans a month boundary so the monthly split is non-trivial.
	rng := types.DateRange{Start: day(2024, 3, 30), End: day(2024, 4, 2)}

	transactions := []types.Transaction{
		tx("T1", day(2024, 3, 30), "100.10"),
		tx("T2", day(2024, 3, 30), "49.90"),
		tx("T3", day(2024, 3, 31), "-25.00"), // credit note
		tx("T4", day(2024, 4, 1), "200.00"),
	}

	aggs := Aggregate(transactions, rng)

	daily := byGranularity(aggs, types.GranularityDay)
	monthly := byGranularity(aggs, types.GranularityMonth)
	cumulative := byGranularity(aggs, types.GranularityCumulative)

	require.Len(t, daily, 4)
	require.Len(t, monthly, 2)
	require.Len(t, cumulative, 1)

	sum := func(aggs []types.SalesAggregate) (decimal.Decimal, int) {
		total := decimal.Zero
		count := 0
		for _, a := range aggs {
			total = total.Add(a.TotalAmount)
			count += a.TransactionCount
		}
		return total, count
	}

	dailyTotal, dailyCount := sum(daily)
	monthlyTotal, monthlyCount := sum(monthly)

	assert.True(t, dailyTotal.Equal(cumulative[0].TotalAmount))
	assert.True(t, monthlyTotal.Equal(cumulative[0].TotalAmount))
	assert.Equal(t, cumulative[0].TransactionCount, dailyCount)
	assert.Equal(t, cumulative[0].TransactionCount, monthlyCount)

	assert.True(t, cumulative[0].TotalAmount.Equal(decimal.RequireFromString("325.00")))
	assert.Equal(t, 4, cumulative[0].TransactionCount)
}

func TestAggregatePerDayTotals(t *testing.T) {
	rng := types.DateRange{Start: day(2024, 3, 1), End: day(2024, 3, 2)}

	aggs := Aggregate([]types.Transaction{
		tx("T1", day(2024, 3, 1), "10.00"),
		tx("T2", day(2024, 3, 1), "5.50"),
	}, rng)

	daily := byGranularity(aggs, types.GranularityDay)
	require.Len(t, daily, 2)
	assert.True(t, daily[0].TotalAmount.Equal(decimal.RequireFromString("15.50")))
	assert.Equal(t, 2, daily[0].TransactionCount)
	assert.True(t, daily[1].TotalAmount.IsZero())
}

func TestAggregateOrderIsDeterministic(t *testing.T) {
	rng := types.DateRange{Start: day(2024, 2, 28), End: day(2024, 3, 1)}

	transactions := []types.Transaction{
		tx("T2", day(2024, 3, 1), "2"),
		tx("T1", day(2024, 2, 28), "1"),
	}

	a := Aggregate(transactions, rng)
	b := Aggregate([]types.Transaction{transactions[1], transactions[0]}, rng)

	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i].Granularity, b[i].Granularity)
		assert.Equal(t, a[i].PeriodKey, b[i].PeriodKey)
		assert.True(t, a[i].TotalAmount.Equal(b[i].TotalAmount))
	}

	// Dailies first, then monthlies, then the cumulative tail.
	assert.Equal(t, types.GranularityDay, a[0].Granularity)
	assert.Equal(t, types.GranularityCumulative, a[len(a)-1].Granularity)
}

func TestAggregateExactDecimalAccumulation(t *testing.T) {
	// 0.1 summed ten times is exactly 1 in decimal arithmetic; a float
	// accumulator would drift.
	rng := types.DateRange{Start: day(2024, 3, 1), End: day(2024, 3, 1)}

	var transactions []types.Transaction
	for i := 0; i < 10; i++ {
		transactions = append(transactions, types.Transaction{
			ID:     string(rune('A' + i)),
			Date:   day(2024, 3, 1),
			Amount: decimal.RequireFromString("0.1"),
		})
	}

	aggs := Aggregate(transactions, rng)
	cumulative := byGranularity(aggs, types.GranularityCumulative)
	require.Len(t, cumulative, 1)
	assert.True(t, cumulative[0].TotalAmount.Equal(decimal.NewFromInt(1)))
}
