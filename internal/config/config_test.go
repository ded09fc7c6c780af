package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokando/tempnet/internal/config"
	"github.com/gokando/tempnet/internal/engine"
)

func TestDefaults(t *testing.T) {
	cfg := config.Default()
	assert.True(t, cfg.UseTemporalPropagator)
	assert.Equal(t, "HIGH", cfg.PriorityPreference)
	assert.False(t, cfg.AllowViolations)
	assert.Zero(t, cfg.MaxChoices)
}

func TestFromMap(t *testing.T) {
	cfg, err := config.FromMap(map[string]string{
		"ConstraintEngine.allowViolations":      "true",
		"TemporalNetwork.useTemporalPropagator": "N",
		"PriorityPreference":                    "LOW",
		"MaxChoices":                            "16",
	})
	require.NoError(t, err)
	assert.True(t, cfg.AllowViolations)
	assert.False(t, cfg.UseTemporalPropagator)
	assert.Equal(t, "LOW", cfg.PriorityPreference)
	assert.Equal(t, 16, cfg.MaxChoices)

	ecfg := cfg.Engine()
	assert.True(t, ecfg.AllowViolations)
	assert.False(t, ecfg.UseTemporalPropagator)
}

func TestFromMapRejectsUnknownKey(t *testing.T) {
	_, err := config.FromMap(map[string]string{"NoSuch.key": "1"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, engine.ErrConfigError))
}

func TestFromMapRejectsBadValue(t *testing.T) {
	_, err := config.FromMap(map[string]string{"MaxChoices": "lots"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, engine.ErrConfigError))
}

func TestFromMapRejectsBadPreference(t *testing.T) {
	_, err := config.FromMap(map[string]string{"PriorityPreference": "MEDIUM"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, engine.ErrConfigError))
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"allowViolations: true\npriorityPreference: LOW\nmaxChoices: 8\n"), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.AllowViolations)
	assert.Equal(t, "LOW", cfg.PriorityPreference)
	assert.Equal(t, 8, cfg.MaxChoices)
	// Unset fields keep their defaults.
	assert.True(t, cfg.UseTemporalPropagator)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, engine.ErrConfigError))
}
