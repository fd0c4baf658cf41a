// =============================================================================
// Sales & Receivables Analytics - XLSX Ingestion
// =============================================================================
//
// This module reads raw rows from the ERP's XLSX exports. It knows nothing
// about the meaning of the data: every row comes out as an untyped RawRecord
// and the normalizer decides what survives.
//
// ERP EXPORT QUIRKS HANDLED HERE:
//   - Workbooks may carry unrelated sheets; a sheet filter keeps only the
//     ones that look like data
//   - The ERP appends summary rows ("TOTAL", "SUBTOTAL") below the data;
//     those are skipped, since aggregating them again would double-count
//   - Header cells may differ in case and spacing from the canonical column
//     names; headers are folded to lower_snake form
//
// =============================================================================

package ingest

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/finovatek/ar-analytics/internal/config"
	"github.com/finovatek/ar-analytics/internal/types"
)

// LoadExcel reads every data row of the workbook into raw records of the
// given kind.
func LoadExcel(path string, kind types.RawKind, settings config.ExcelSettings) ([]types.RawRecord, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	var records []types.RawRecord

	for _, sheet := range f.GetSheetList() {
		if !sheetMatches(sheet, settings.SheetFilter) {
			continue
		}

		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
		}
		if len(rows) < 2 {
			// Header only, or empty sheet.
			continue
		}

		headers := foldHeaders(rows[0])

		for i, row := range rows[1:] {
			rowNumber := i + 2 // 1-based, after the header row

			if isTotalRow(row, settings.TotalRowLabels) {
				continue
			}
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
	}

	return records, nil
}

// sheetMatches reports whether the sheet name passes the filter. An empty
// filter admits every sheet.
func sheetMatches(sheet string, filter []string) bool {
	if len(filter) == 0 {
		return true
	}
	for _, substr := range filter {
		if strings.Contains(sheet, substr) {
			return true
		}
	}
	return false
}

// foldHeaders normalizes header cells to lower_snake form so they line up
// with the canonical column names regardless of export styling.
func foldHeaders(cells []string) []string {
	headers := make([]string, len(cells))
	for i, cell := range cells {
		h := strings.ToLower(strings.TrimSpace(cell))
		h = strings.ReplaceAll(h, " ", "_")
		headers[i] = h
	}
	return headers
}

// isTotalRow reports whether the row is an ERP summary row.
func isTotalRow(row []string, labels []string) bool {
	if len(row) == 0 {
		return false
	}
	first := strings.ToUpper(strings.TrimSpace(row[0]))
	for _, label := range labels {
		if first == strings.ToUpper(label) {
			return true
		}
	}
	return false
}

// isEmptyRow reports whether every cell in the row is blank.
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
