// =============================================================================
// Sales & Receivables Analytics - Report Engine
// =============================================================================
//
// This module orchestrates one report generation run, from raw rows to the
// immutable ReportPayload.
//
// PIPELINE:
//   1. Validate the requested date range (fatal on start > end)
//   2. Normalize raw rows into typed records (+ rejection list)
//   3. Reconcile payment events against the receivables
//   4. Aggregate sales into daily/monthly/cumulative totals
//   5. Age the reconciled receivables and score collection probability
//   6. Rank the worst overdue customers and run the long-overdue KPI check
//   7. Assemble the payload snapshot
//
// Aging runs on the reconciled records, not the raw snapshot, so the aging
// and reconciliation sections of the report agree on outstanding balances.
//
// CONCURRENCY:
//   A run is a single synchronous computation over a read-only snapshot and
//   holds no shared mutable state, so independent runs may execute in
//   parallel without coordination.
//
// =============================================================================

package engine

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/finovatek/ar-analytics/internal/aging"
	"github.com/finovatek/ar-analytics/internal/config"
	"github.com/finovatek/ar-analytics/internal/normalizer"
	"github.com/finovatek/ar-analytics/internal/reconcile"
	"github.com/finovatek/ar-analytics/internal/sales"
	"github.com/finovatek/ar-analytics/internal/types"
)

// ErrInvalidDateRange is returned when the requested range has start after
// end. This is a configuration error: the run aborts before any computation
// and no document is produced.
var ErrInvalidDateRange = errors.New("invalid date range: start is after end")

// =============================================================================
// ENGINE
// =============================================================================

// Engine generates reports for a fixed configuration.
type Engine struct {
	cfg    *config.Config
	logger *logrus.Logger

	// Clock supplies the generation timestamp. Tests pin it for
	// byte-identical output.
	Clock func() time.Time
}

// New creates an Engine with the given configuration and logger.
func New(cfg *config.Config, logger *logrus.Logger) *Engine {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Engine{
		cfg:    cfg,
		logger: logger,
		Clock:  time.Now,
	}
}

// GenerateReport runs the full pipeline over a read-only snapshot of raw
// rows and returns the report payload. The inputs are never mutated.
//
// Per-record failures never abort the run; they surface in the payload's
// rejection and anomaly lists. Only an invalid date range is fatal.
func (e *Engine) GenerateReport(rows []types.RawRecord, rng types.DateRange, referenceDate time.Time) (*types.ReportPayload, error) {
	if rng.Start.After(rng.End) {
		return nil, ErrInvalidDateRange
	}

	runID := uuid.NewString()
	log := e.logger.WithFields(logrus.Fields{
		"run_id":       runID,
		"period_start": rng.Start.Format("2006-01-02"),
		"period_end":   rng.End.Format("2006-01-02"),
	})
	log.WithField("raw_rows", len(rows)).Info("report run started")

	// =========================================================================
	// STEP 1: NORMALIZE
	// =========================================================================

	normalized := normalizer.Normalize(rows, rng)
	log.WithFields(logrus.Fields{
		"transactions": len(normalized.Transactions),
		"receivables":  len(normalized.Receivables),
		"payments":     len(normalized.Payments),
		"rejected":     len(normalized.Rejected),
	}).Debug("normalization complete")

	// =========================================================================
	// STEP 2: RECONCILE PAYMENTS
	// =========================================================================

	reconciliation := reconcile.Reconcile(normalized.Receivables, normalized.Payments)
	if len(reconciliation.Anomalies) > 0 {
		log.WithField("anomalies", len(reconciliation.Anomalies)).Warn("reconciliation anomalies detected")
	}

	// =========================================================================
	// STEP 3: AGGREGATE SALES
	// =========================================================================

	salesAggregates := sales.Aggregate(normalized.Transactions, rng)

	// =========================================================================
	// STEP 4: AGE RECEIVABLES
	// =========================================================================

	buckets, notDue := aging.Analyze(reconciliation.Records, referenceDate, e.policy())

	// =========================================================================
	// STEP 5: SUPPLEMENTARY ANALYTICS
	// =========================================================================

	topOverdue := aging.TopOverdue(reconciliation.Records, referenceDate, e.cfg.TopOverdueCount)
	longOverdueRatio, exceeded := e.checkLongOverdueKPI(buckets, log)

	// =========================================================================
	// STEP 6: ASSEMBLE PAYLOAD
	// =========================================================================

	payload := &types.ReportPayload{
		RunID:             runID,
		GeneratedAt:       e.Clock().UTC(),
		Range:             rng,
		ReferenceDate:     types.Midnight(referenceDate),
		Sales:             salesAggregates,
		Buckets:           buckets,
		NotDue:            notDue,
		Reconciliation:    reconciliation,
		Rejected:          normalized.Rejected,
		TopOverdue:        topOverdue,
		LongOverdueRatio:  longOverdueRatio,
		KPITargetExceeded: exceeded,
	}

	log.Info("report run complete")
	return payload, nil
}

// policy converts the configured aging calibration into decimals.
func (e *Engine) policy() aging.Policy {
	weights := make(map[string]decimal.Decimal, len(e.cfg.Aging.BucketWeights))
	for label, w := range e.cfg.Aging.BucketWeights {
		weights[label] = decimal.NewFromFloat(w)
	}
	return aging.Policy{
		BucketWeights:  weights,
		WriteoffFactor: decimal.NewFromFloat(e.cfg.Aging.WriteoffAdjustmentFactor),
	}
}

// checkLongOverdueKPI computes the share of total outstanding sitting in the
// 90+ bucket and compares it against the configured target.
func (e *Engine) checkLongOverdueKPI(buckets []types.AgingBucket, log *logrus.Entry) (decimal.Decimal, bool) {
	total := decimal.Zero
	longOverdue := decimal.Zero

	for _, bucket := range buckets {
		total = total.Add(bucket.TotalOutstanding)
		if bucket.Label == "90+" {
			longOverdue = bucket.TotalOutstanding
		}
	}

	if !total.IsPositive() {
		return decimal.Zero, false
	}

	ratio := longOverdue.DivRound(total, 6)
	target := decimal.NewFromFloat(e.cfg.LongOverdueTargetRatio)
	exceeded := ratio.GreaterThan(target)

	if exceeded {
		log.WithFields(logrus.Fields{
			"long_overdue_ratio": ratio.String(),
			"target":             target.String(),
		}).Warn("long-overdue receivables KPI exceeded")
	} else {
		log.WithField("long_overdue_ratio", ratio.String()).Debug("long-overdue KPI within target")
	}

	return ratio, exceeded
}
