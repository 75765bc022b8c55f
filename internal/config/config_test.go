package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/strategyci/internal/scoring"
)

func TestDefaultPassesValidate(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestValidateRejectsBadConfidenceLevel(t *testing.T) {
	c := Default()
	c.Engine.ConfidenceLvl = 1.5
	assert.Error(t, c.Validate())
}

func TestValidateRequiresCacheAddrWhenEnabled(t *testing.T) {
	c := Default()
	c.ResultCache.Enabled = true
	c.ResultCache.Addr = ""
	assert.Error(t, c.Validate())
}

func TestLoadReadsYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	contents := []byte("master_seed: 77\nengine:\n  confidence_level: 0.95\n  min_b_outer: 3000\n  min_b_inner: 150\n")
	require.NoError(t, os.WriteFile(path, contents, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, uint64(77), cfg.MasterSeed)
	assert.Equal(t, 0.95, cfg.Engine.ConfidenceLvl)
	assert.Equal(t, 3000, cfg.Engine.MinBOuter)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestToScoringProfileSwitchesByClass(t *testing.T) {
	cfg := Default()
	returns := cfg.ToScoringProfile(scoring.ClassReturnsBased)
	ratio := cfg.ToScoringProfile(scoring.ClassRatio)
	assert.NotEqual(t, returns.Weights.Stability, ratio.Weights.Stability)
}
