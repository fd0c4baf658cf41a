package normalizer

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

func marchRange() types.DateRange {
	return types.DateRange{Start: day(2024, 3, 1), End: day(2024, 3, 31)}
}

func txRow(rowNum int, fields map[string]string) types.RawRecord {
	return types.RawRecord{Kind: types.RawTransaction, Fields: fields, RowNumber: rowNum}
}

func TestNormalizeTransactionValid(t *testing.T) {
	result := Normalize([]types.RawRecord{
		txRow(2, map[string]string{
			"id":          "TX-1",
			"date":        "2024-03-15",
			"customer_id": "CUST-9",
			"amount":      "1,234.50",
			"category":    "hardware",
		}),
	}, marchRange())

	require.Len(t, result.Transactions, 1)
	require.Empty(t, result.Rejected)

	tx := result.Transactions[0]
	assert.Equal(t, "TX-1", tx.ID)
	assert.Equal(t, day(2024, 3, 15), tx.Date)
	assert.Equal(t, "CUST-9", tx.CustomerID)
	assert.True(t, tx.Amount.Equal(decimal.RequireFromString("1234.50")))
	assert.Equal(t, "hardware", tx.Category)
}

func TestNormalizeRejectionReasons(t *testing.T) {
	tests := []struct {
		name   string
		row    types.RawRecord
		reason types.RejectReason
		field  string
	}{
		{
			name: "missing required field",
			row: txRow(3, map[string]string{
				"id": "TX-1", "date": "2024-03-15", "amount": "10",
			}),
			reason: types.RejectMissingField,
			field:  "customer_id",
		},
		{
			name: "unparseable date",
			row: txRow(4, map[string]string{
				"id": "TX-1", "date": "not-a-date", "customer_id": "C1", "amount": "10",
			}),
			reason: types.RejectInvalidDate,
			field:  "date",
		},
		{
			name: "unparseable amount",
			row: txRow(5, map[string]string{
				"id": "TX-1", "date": "2024-03-15", "customer_id": "C1", "amount": "ten",
			}),
			reason: types.RejectInvalidAmount,
			field:  "amount",
		},
		{
			name:   "unrecognized record kind",
			row:    types.RawRecord{Kind: "mystery", Fields: map[string]string{}, RowNumber: 6},
			reason: types.RejectMissingField,
			field:  "kind",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Normalize([]types.RawRecord{tt.row}, marchRange())

			require.Len(t, result.Rejected, 1)
			rej := result.Rejected[0]
			assert.Equal(t, tt.reason, rej.Reason)
			assert.Equal(t, tt.field, rej.Field)
			assert.Equal(t, tt.row.RowNumber, rej.RowNumber)
			assert.Empty(t, result.Transactions)
		})
	}
}

func TestNormalizeDuplicateIDFirstWins(t *testing.T) {
	result := Normalize([]types.RawRecord{
		txRow(2, map[string]string{
			"id": "TX-1", "date": "2024-03-10", "customer_id": "C1", "amount": "100",
		}),
		txRow(3, map[string]string{
			"id": "TX-1", "date": "2024-03-11", "customer_id": "C2", "amount": "200",
		}),
	}, marchRange())

	require.Len(t, result.Transactions, 1)
	assert.Equal(t, "C1", result.Transactions[0].CustomerID)

	require.Len(t, result.Rejected, 1)
	assert.Equal(t, types.RejectDuplicateID, result.Rejected[0].Reason)
	assert.Equal(t, 3, result.Rejected[0].RowNumber)
}

func TestNormalizeOutOfRangeIsSilent(t *testing.T) {
	// Rows dated outside the requested period are dropped without a
	// rejection entry; they are valid data from another period.
	result := Normalize([]types.RawRecord{
		txRow(2, map[string]string{
			"id": "TX-1", "date": "2024-04-01", "customer_id": "C1", "amount": "100",
		}),
		{Kind: types.RawPayment, RowNumber: 3, Fields: map[string]string{
			"receivable_id": "R-1", "amount": "50", "applied_date": "2024-02-28", "kind": "payment",
		}},
	}, marchRange())

	assert.Empty(t, result.Transactions)
	assert.Empty(t, result.Payments)
	assert.Empty(t, result.Rejected)
}

func TestNormalizeReceivableInvariants(t *testing.T) {
	base := func(overrides map[string]string) types.RawRecord {
		fields := map[string]string{
			"id":                 "R-1",
			"customer_id":        "C1",
			"invoice_date":       "2024-01-10",
			"due_date":           "2024-02-10",
			"original_amount":    "1000",
			"outstanding_amount": "400",
		}
		for k, v := range overrides {
			fields[k] = v
		}
		return types.RawRecord{Kind: types.RawReceivable, Fields: fields, RowNumber: 2}
	}

	t.Run("valid row with empty status defaults to open", func(t *testing.T) {
		result := Normalize([]types.RawRecord{base(nil)}, marchRange())
		require.Len(t, result.Receivables, 1)
		assert.Equal(t, types.StatusOpen, result.Receivables[0].Status)
	})

	t.Run("outstanding above original is rejected", func(t *testing.T) {
		result := Normalize([]types.RawRecord{
			base(map[string]string{"outstanding_amount": "1500"}),
		}, marchRange())
		require.Len(t, result.Rejected, 1)
		assert.Equal(t, types.RejectInvalidAmount, result.Rejected[0].Reason)
		assert.Equal(t, "outstanding_amount", result.Rejected[0].Field)
	})

	t.Run("negative outstanding is rejected", func(t *testing.T) {
		result := Normalize([]types.RawRecord{
			base(map[string]string{"outstanding_amount": "-1"}),
		}, marchRange())
		require.Len(t, result.Rejected, 1)
		assert.Equal(t, types.RejectInvalidAmount, result.Rejected[0].Reason)
	})

	t.Run("due date before invoice date is rejected", func(t *testing.T) {
		result := Normalize([]types.RawRecord{
			base(map[string]string{"due_date": "2024-01-01"}),
		}, marchRange())
		require.Len(t, result.Rejected, 1)
		assert.Equal(t, types.RejectInvalidDate, result.Rejected[0].Reason)
		assert.Equal(t, "due_date", result.Rejected[0].Field)
	})

	t.Run("unrecognized status is rejected", func(t *testing.T) {
		result := Normalize([]types.RawRecord{
			base(map[string]string{"status": "pending"}),
		}, marchRange())
		require.Len(t, result.Rejected, 1)
		assert.Equal(t, "status", result.Rejected[0].Field)
	})

	t.Run("receivables are not range filtered", func(t *testing.T) {
		// A receivable is a position snapshot, not a period event: an
		// invoice from January still belongs in a March report.
		result := Normalize([]types.RawRecord{base(nil)}, marchRange())
		assert.Len(t, result.Receivables, 1)
	})
}

func TestNormalizePaymentEvents(t *testing.T) {
	row := func(amount, kind string) types.RawRecord {
		return types.RawRecord{Kind: types.RawPayment, RowNumber: 2, Fields: map[string]string{
			"receivable_id": "R-1",
			"amount":        amount,
			"applied_date":  "2024-03-05",
			"kind":          kind,
		}}
	}

	t.Run("valid payment", func(t *testing.T) {
		result := Normalize([]types.RawRecord{row("250.00", "payment")}, marchRange())
		require.Len(t, result.Payments, 1)
		assert.Equal(t, types.KindPayment, result.Payments[0].Kind)
	})

	t.Run("negative adjustment is allowed", func(t *testing.T) {
		result := Normalize([]types.RawRecord{row("-50", "adjustment")}, marchRange())
		require.Len(t, result.Payments, 1)
		assert.True(t, result.Payments[0].Amount.Equal(decimal.NewFromInt(-50)))
	})

	t.Run("negative payment is rejected", func(t *testing.T) {
		result := Normalize([]types.RawRecord{row("-50", "payment")}, marchRange())
		require.Len(t, result.Rejected, 1)
		assert.Equal(t, types.RejectInvalidAmount, result.Rejected[0].Reason)
	})

	t.Run("zero amount is rejected for every kind", func(t *testing.T) {
		for _, kind := range []string{"payment", "writeoff", "adjustment"} {
			result := Normalize([]types.RawRecord{row("0", kind)}, marchRange())
			require.Len(t, result.Rejected, 1, "kind %s", kind)
			assert.Equal(t, types.RejectInvalidAmount, result.Rejected[0].Reason)
		}
	})

	t.Run("unrecognized kind is rejected", func(t *testing.T) {
		result := Normalize([]types.RawRecord{row("10", "refund")}, marchRange())
		require.Len(t, result.Rejected, 1)
		assert.Equal(t, "kind", result.Rejected[0].Field)
	})
}

func TestNormalizeAcceptsMultipleDateLayouts(t *testing.T) {
	for _, value := range []string{"2024-03-15", "2024/03/15", "03/15/2024", "20240315"} {
		result := Normalize([]types.RawRecord{
			txRow(2, map[string]string{
				"id": "TX-" + value, "date": value, "customer_id": "C1", "amount": "10",
			}),
		}, marchRange())

		require.Len(t, result.Transactions, 1, "layout %s", value)
		assert.Equal(t, day(2024, 3, 15), result.Transactions[0].Date)
	}
}

func TestNormalizeNeverPanicsOnGarbage(t *testing.T) {
	rows := []types.RawRecord{
		{Kind: types.RawTransaction},
		{Kind: types.RawReceivable, Fields: map[string]string{"id": "x"}},
		{Kind: types.RawPayment, Fields: map[string]string{"amount": "\x00\x01"}},
		{},
	}

	result := Normalize(rows, marchRange())
	assert.Len(t, result.Rejected, len(rows))
}
