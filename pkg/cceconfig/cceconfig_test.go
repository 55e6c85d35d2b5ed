package cceconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelcode/cce/pkg/cce"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, cce.DefaultScoringConfig(), cfg)
}

func TestLoad_PartialOverrideMergesOntoDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scoring.yaml")
	require.NoError(t, os.WriteFile(path, []byte("keyword_weight: 9\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	defaults := cce.DefaultScoringConfig()
	assert.Equal(t, 9, cfg.KeywordWeight)
	assert.Equal(t, defaults.CamelCaseWeight, cfg.CamelCaseWeight)
}

func TestLoadOrDefault_SwallowsErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte(":::not valid yaml:::"), 0o644))

	cfg := LoadOrDefault(path)
	assert.Equal(t, cce.DefaultScoringConfig(), cfg)
}
