// =============================================================================
// Sales & Receivables Analytics - CSV Ingestion
// =============================================================================
//
// This module reads raw rows from the ERP's CSV exports, mirroring the XLSX
// loader: untyped RawRecords out, normalization elsewhere.
//
// =============================================================================

package ingest

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/finovatek/ar-analytics/internal/config"
	"github.com/finovatek/ar-analytics/internal/types"
)

// LoadCSV reads every data row of the CSV file into raw records of the
// given kind.
func LoadCSV(path string, kind types.RawKind, settings config.CSVSettings) ([]types.RawRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	if settings.Delimiter != "" {
		reader.Comma = rune(settings.Delimiter[0])
	}
	// Ragged ERP exports are common; let the normalizer sort out the fields.
	reader.FieldsPerRecord = -1

	allRows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}

	headerRows := settings.HeaderRows
	if headerRows < 1 {
		headerRows = 1
	}
	if len(allRows) <= headerRows {
		return nil, nil
	}

	// With multi-row headers the last header row carries the column names.
	headers := foldHeaders(allRows[headerRows-1])

	var records []types.RawRecord
	for i, row := range allRows[headerRows:] {
		rowNumber := headerRows + i + 1

		if isEmptyRow(row) {
			continue
		}

		fields := make(map[string]string, len(headers))
		for col, header := range headers {
			if header == "" {
				continue
			}
			if col < len(row) {
				fields[header] = strings.TrimSpace(row[col])
			}
		}

		records = append(records, types.RawRecord{
			Kind:      kind,
			Fields:    fields,
			RowNumber: rowNumber,
		})
	}

	return records, nil
}

// =============================================================================
// FILE DISPATCH
// =============================================================================

// DetectKind infers the raw record kind from the export file name. The ERP
// names its exports after their content (transactions_*.csv,
// receivables_2024-03.xlsx, payments-march.csv).
func DetectKind(path string) (types.RawKind, error) {
	name := strings.ToLower(filepath.Base(path))

	switch {
	case strings.Contains(name, "transaction"), strings.Contains(name, "sales"):
		return types.RawTransaction, nil
	case strings.Contains(name, "receivable"), strings.Contains(name, "invoice"):
		return types.RawReceivable, nil
	case strings.Contains(name, "payment"):
		return types.RawPayment, nil
	}

	return "", fmt.Errorf("cannot infer record kind from file name %q", filepath.Base(path))
}

// LoadFile loads a single export file, dispatching on its extension and
// inferring the record kind from its name.
func LoadFile(path string, cfg *config.Config) ([]types.RawRecord, error) {
	kind, err := DetectKind(path)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return LoadExcel(path, kind, cfg.Excel)
	case ".csv":
		return LoadCSV(path, kind, cfg.CSV)
	}

	return nil, fmt.Errorf("unsupported export format %q", filepath.Ext(path))
}
