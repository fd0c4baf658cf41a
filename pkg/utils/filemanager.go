// =============================================================================
// Sales & Receivables Analytics - File Manager Utility
// =============================================================================
//
// This module provides file management around report generation:
//   - Input export discovery
//   - Output file naming from a configurable pattern
//   - Writing the serialized report document
//   - Archival of generated reports for long-term storage
//
// The analytics core never touches the filesystem; everything I/O-shaped
// lives here or in the ingest package.
//
// =============================================================================

package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations around a report run.
type FileManager struct {
	// InputDir is the directory scanned for ERP export files.
	InputDir string

	// OutputDir is the directory where report documents are written.
	OutputDir string

	// OutputArchiveDir is the directory for archived report documents.
	OutputArchiveDir string

	// ArchiveOnSuccess determines whether reports are archived after writing.
	ArchiveOnSuccess bool
}

// NewFileManager creates a FileManager with the specified directories.
func NewFileManager(inputDir, outputDir, outputArchiveDir string) *FileManager {
	return &FileManager{
		InputDir:         inputDir,
		OutputDir:        outputDir,
		OutputArchiveDir: outputArchiveDir,
		ArchiveOnSuccess: true,
	}
}

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDirectories creates all required directories if they don't exist.
func (fm *FileManager) EnsureDirectories() error {
	dirs := []string{
		fm.InputDir,
		fm.OutputDir,
		fm.OutputArchiveDir,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// =============================================================================
// FILE DISCOVERY
// =============================================================================

// DiscoverInputFiles scans the input directory for ERP export files
// (.csv and .xlsx). Directories and other file types are ignored.
func (fm *FileManager) DiscoverInputFiles() ([]string, error) {
	var files []string

	err := filepath.Walk(fm.InputDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		switch strings.ToLower(filepath.Ext(path)) {
		case ".csv", ".xlsx":
			files = append(files, path)
		}
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to walk input directory: %w", err)
	}

	return files, nil
}

// =============================================================================
// OUTPUT NAMING
// =============================================================================

// OutputFileName expands the output name pattern.
//
// Placeholders:
//   {run_id}    - the report run id
//   {timestamp} - generation timestamp as YYYYMMDD_HHMMSS
//   {end}       - the report period end date as YYYY-MM-DD
func OutputFileName(pattern, runID string, generatedAt, periodEnd time.Time) string {
	name := pattern
	name = strings.ReplaceAll(name, "{run_id}", runID)
	name = strings.ReplaceAll(name, "{timestamp}", generatedAt.Format("20060102_150405"))
	name = strings.ReplaceAll(name, "{end}", periodEnd.Format("2006-01-02"))
	return name
}

// =============================================================================
// OUTPUT WRITING
// =============================================================================

// WriteReport writes the serialized document into the output directory and
// returns the full output path.
func (fm *FileManager) WriteReport(fileName string, document []byte) (string, error) {
	if err := os.MkdirAll(fm.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	outputPath := filepath.Join(fm.OutputDir, fileName)
	if err := os.WriteFile(outputPath, document, 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	return outputPath, nil
}

// =============================================================================
// ARCHIVAL
// =============================================================================

// ArchiveReport copies a generated report into the archive directory.
// Archival failures are not fatal to a run; the caller decides whether to
// log or propagate.
func (fm *FileManager) ArchiveReport(outputPath string) (string, error) {
	if !fm.ArchiveOnSuccess {
		return outputPath, nil
	}

	if err := os.MkdirAll(fm.OutputArchiveDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	archivePath := filepath.Join(fm.OutputArchiveDir, filepath.Base(outputPath))
	if err := copyFile(outputPath, archivePath); err != nil {
		return "", fmt.Errorf("failed to archive report: %w", err)
	}

	return archivePath, nil
}

// copyFile copies a file, preserving the original.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}

	return out.Sync()
}
