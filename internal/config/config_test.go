package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "./input", cfg.InputDir)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "receivables_report_{end}_{run_id}.xml", cfg.OutputNamePattern)
	assert.Equal(t, 20, cfg.TopOverdueCount)
	assert.InDelta(t, 0.10, cfg.LongOverdueTargetRatio, 1e-9)
	assert.InDelta(t, 0.9, cfg.Aging.BucketWeights["0-30"], 1e-9)
	assert.InDelta(t, 0.1, cfg.Aging.BucketWeights["90+"], 1e-9)
	assert.InDelta(t, 0.5, cfg.Aging.WriteoffAdjustmentFactor, 1e-9)
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadOverridesAndDefaults(t *testing.T) {
	path := writeConfig(t, `
input_dir: /data/exports
log_level: debug
top_overdue_count: 5
aging_policy:
  bucket_weights:
    "0-30": 0.95
    "31-60": 0.6
    "61-90": 0.3
    "90+": 0.05
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/data/exports", cfg.InputDir)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 5, cfg.TopOverdueCount)
	assert.InDelta(t, 0.95, cfg.Aging.BucketWeights["0-30"], 1e-9)

	// Unset fields still get defaults.
	assert.Equal(t, "./output", cfg.OutputDir)
	assert.Equal(t, ",", cfg.CSV.Delimiter)
	assert.Equal(t, []string{"TOTAL", "SUBTOTAL"}, cfg.Excel.TotalRowLabels)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Run("weight out of range", func(t *testing.T) {
		path := writeConfig(t, `
aging_policy:
  bucket_weights:
    "0-30": 1.5
`)
		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("unknown log level", func(t *testing.T) {
		path := writeConfig(t, "log_level: loud\n")
		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := writeConfig(t, "input_dir: [unterminated\n")
		_, err := Load(path)
		assert.Error(t, err)
	})
}

func TestLoadClampsWriteoffFactor(t *testing.T) {
	path := writeConfig(t, `
aging_policy:
  writeoff_adjustment_factor: 2.5
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, cfg.Aging.WriteoffAdjustmentFactor, 1e-9)
}
