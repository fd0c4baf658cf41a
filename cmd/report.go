// =============================================================================
// Sales & Receivables Analytics - Report Command
// =============================================================================
//
// This file defines the 'report' command, which runs the full analytics
// pipeline for one reporting period and writes the XML report document.
//
// COMMAND USAGE:
//   aranalytics report --from 2024-03-01 --to 2024-03-31 [flags]
//
// FLAGS:
//   --from    : Start of the reporting period (inclusive, YYYY-MM-DD)
//   --to      : End of the reporting period (inclusive, YYYY-MM-DD)
//   --as-of   : Reference date for receivables aging (defaults to --to)
//   --input   : Override the configured input directory
//   --dry-run : Run the pipeline without writing the output file
//
// PROCESSING PIPELINE:
//   1. Load configuration and set up logging
//   2. Discover export files (.csv, .xlsx) in the input directory
//   3. Load every export into raw rows
//   4. Run the report engine (normalize, reconcile, aggregate, age, score)
//   5. Serialize the payload to XML
//   6. Write the document to the output directory and archive it
//   7. Print a summary
//
// =============================================================================

package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/finovatek/ar-analytics/internal/engine"
	"github.com/finovatek/ar-analytics/internal/ingest"
	"github.com/finovatek/ar-analytics/internal/types"
	"github.com/finovatek/ar-analytics/internal/xmlreport"
	"github.com/finovatek/ar-analytics/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// fromDate is the start of the reporting period (YYYY-MM-DD).
var fromDate string

// toDate is the end of the reporting period (YYYY-MM-DD).
var toDate string

// asOfDate is the reference date for aging; defaults to the period end.
var asOfDate string

// inputDir overrides the configured input directory when set.
var inputDir string

// dryRun runs the pipeline without writing the output file.
var dryRun bool

// =============================================================================
// REPORT COMMAND DEFINITION
// =============================================================================

// reportCmd represents the 'report' command.
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate the sales & receivables XML report for a period",
	Long: `The report command loads every ERP export in the input directory,
normalizes the rows, reconciles payments against receivables, aggregates
sales, ages the receivables as of the reference date, and writes the
resulting XML report document.

Per-row failures never abort a run: malformed rows end up in the report's
Rejections section and reconciliation conflicts in its Anomaly list. Only
an invalid date range or unreadable input stops the run.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runReport()
	},
}

// =============================================================================
// INITIALIZATION
// =============================================================================

// init registers the report command with the root command and sets up flags.
func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVar(
		&fromDate,
		"from",
		"",
		"Start of the reporting period, inclusive (YYYY-MM-DD)",
	)

	reportCmd.Flags().StringVar(
		&toDate,
		"to",
		"",
		"End of the reporting period, inclusive (YYYY-MM-DD)",
	)

	reportCmd.Flags().StringVar(
		&asOfDate,
		"as-of",
		"",
		"Reference date for receivables aging (defaults to --to)",
	)

	reportCmd.Flags().StringVar(
		&inputDir,
		"input",
		"",
		"Override the configured input directory",
	)

	reportCmd.Flags().BoolVar(
		&dryRun,
		"dry-run",
		false,
		"Run the pipeline without writing the output file",
	)

	reportCmd.MarkFlagRequired("from")
	reportCmd.MarkFlagRequired("to")
}

// =============================================================================
// MAIN REPORT FUNCTION
// =============================================================================

// runReport orchestrates one report run end to end.
func runReport() error {
	startTime := time.Now()

	// =========================================================================
	// STEP 1: CONFIGURATION AND LOGGING
	// =========================================================================

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if inputDir != "" {
		cfg.InputDir = inputDir
	}

	logger := newLogger(cfg)

	rng, referenceDate, err := parsePeriod()
	if err != nil {
		return err
	}

	// =========================================================================
	// STEP 2: DISCOVER AND LOAD EXPORTS
	// =========================================================================

	fm := utils.NewFileManager(cfg.InputDir, cfg.OutputDir, cfg.OutputArchiveDir)
	if err := fm.EnsureDirectories(); err != nil {
		return err
	}

	files, err := fm.DiscoverInputFiles()
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Println("No export files found in the input directory.")
		return nil
	}

	var rows []types.RawRecord
	for _, file := range files {
		records, err := ingest.LoadFile(file, cfg)
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", filepath.Base(file), err)
		}
		logger.WithField("file", filepath.Base(file)).
			WithField("rows", len(records)).
			Debug("export loaded")
		rows = append(rows, records...)
	}

	// =========================================================================
	// STEP 3: RUN THE PIPELINE
	// =========================================================================

	eng := engine.New(cfg, logger)
	payload, err := eng.GenerateReport(rows, rng, referenceDate)
	if err != nil {
		return err
	}

	document, err := xmlreport.Generate(payload)
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}

	// =========================================================================
	// STEP 4: WRITE AND ARCHIVE
	// =========================================================================

	outputPath := "(dry run)"
	if !dryRun {
		name := utils.OutputFileName(cfg.OutputNamePattern, payload.RunID, payload.GeneratedAt, rng.End)
		outputPath, err = fm.WriteReport(name, document)
		if err != nil {
			return err
		}
		if _, err := fm.ArchiveReport(outputPath); err != nil {
			logger.WithError(err).Warn("report archival failed")
		}
	}

	// =========================================================================
	// STEP 5: PRINT SUMMARY
	// =========================================================================

	elapsed := time.Since(startTime)
	fmt.Println("\n=== Report Complete ===")
	fmt.Printf("Period:          %s .. %s\n", rng.Start.Format("2006-01-02"), rng.End.Format("2006-01-02"))
	fmt.Printf("Input files:     %d\n", len(files))
	fmt.Printf("Rows loaded:     %d\n", len(rows))
	fmt.Printf("Rows rejected:   %d\n", len(payload.Rejected))
	fmt.Printf("Anomalies:       %d\n", len(payload.Reconciliation.Anomalies))
	fmt.Printf("Output:          %s\n", outputPath)
	fmt.Printf("Time elapsed:    %s\n", elapsed)

	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// parsePeriod parses the --from/--to/--as-of flags into a date range and a
// reference date.
func parsePeriod() (types.DateRange, time.Time, error) {
	start, err := time.Parse("2006-01-02", fromDate)
	if err != nil {
		return types.DateRange{}, time.Time{}, fmt.Errorf("invalid --from date %q: %w", fromDate, err)
	}

	end, err := time.Parse("2006-01-02", toDate)
	if err != nil {
		return types.DateRange{}, time.Time{}, fmt.Errorf("invalid --to date %q: %w", toDate, err)
	}

	referenceDate := end
	if asOfDate != "" {
		referenceDate, err = time.Parse("2006-01-02", asOfDate)
		if err != nil {
			return types.DateRange{}, time.Time{}, fmt.Errorf("invalid --as-of date %q: %w", asOfDate, err)
		}
	}

	return types.DateRange{Start: start, End: end}, referenceDate, nil
}
