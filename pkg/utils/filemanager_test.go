package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *FileManager {
	t.Helper()
	root := t.TempDir()
	return NewFileManager(
		filepath.Join(root, "input"),
		filepath.Join(root, "output"),
		filepath.Join(root, "archive"),
	)
}

func TestEnsureDirectories(t *testing.T) {
	fm := newTestManager(t)
	require.NoError(t, fm.EnsureDirectories())

	for _, dir := range []string{fm.InputDir, fm.OutputDir, fm.OutputArchiveDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestDiscoverInputFiles(t *testing.T) {
	fm := newTestManager(t)
	require.NoError(t, fm.EnsureDirectories())

	for _, name := range []string{"transactions.csv", "receivables.XLSX", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(fm.InputDir, name), []byte("x"), 0644))
	}

	files, err := fm.DiscoverInputFiles()
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "receivables.XLSX", filepath.Base(files[0]))
	assert.Equal(t, "transactions.csv", filepath.Base(files[1]))
}

func TestOutputFileName(t *testing.T) {
	generated := time.Date(2024, 4, 1, 9, 30, 15, 0, time.UTC)
	end := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)

	name := OutputFileName("receivables_report_{end}_{run_id}.xml", "abc123", generated, end)
	assert.Equal(t, "receivables_report_2024-03-31_abc123.xml", name)

	name = OutputFileName("{timestamp}.xml", "ignored", generated, end)
	assert.Equal(t, "20240401_093015.xml", name)
}

func TestWriteAndArchiveReport(t *testing.T) {
	fm := newTestManager(t)

	outputPath, err := fm.WriteReport("report.xml", []byte("<Report/>"))
	require.NoError(t, err)

	data, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.Equal(t, "<Report/>", string(data))

	archivePath, err := fm.ArchiveReport(outputPath)
	require.NoError(t, err)
	assert.Equal(t, fm.OutputArchiveDir, filepath.Dir(archivePath))

	archived, err := os.ReadFile(archivePath)
	require.NoError(t, err)
	assert.Equal(t, data, archived)

	// Original stays in place.
	_, err = os.Stat(outputPath)
	assert.NoError(t, err)
}

func TestArchiveDisabled(t *testing.T) {
	fm := newTestManager(t)
	fm.ArchiveOnSuccess = false

	outputPath, err := fm.WriteReport("report.xml", []byte("<Report/>"))
	require.NoError(t, err)

	archivePath, err := fm.ArchiveReport(outputPath)
	require.NoError(t, err)
	assert.Equal(t, outputPath, archivePath)

	_, err = os.Stat(filepath.Join(fm.OutputArchiveDir, "report.xml"))
	assert.True(t, os.IsNotExist(err))
}
