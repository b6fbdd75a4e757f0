package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hovershell/core/internal/shared/types"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestDuplicateBindingKindRejected(t *testing.T) {
	cfg := Default()
	cfg.Triggers = append(cfg.Triggers, types.TriggerBinding{
		Kind: types.TriggerHotkey, Toggle: "ctrl+`",
	})

	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrValidation))
}

func TestZeroDwellRejected(t *testing.T) {
	cfg := Default()
	cfg.Triggers = []types.TriggerBinding{
		{Kind: types.TriggerEdgeDwell, Edge: types.EdgeTop, DwellMs: 0},
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrValidation))
}

func TestTwoDefaultProvidersRejected(t *testing.T) {
	cfg := Default()
	cfg.Providers = []types.Provider{
		{ID: "a", Kind: types.ProviderOpenAI, Default: true, Enabled: true},
		{ID: "b", Kind: types.ProviderOllama, Default: true, Enabled: true},
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrValidation))
}

func TestTwoDefaultsAllowedWhenOneDisabled(t *testing.T) {
	cfg := Default()
	cfg.Providers = []types.Provider{
		{ID: "a", Kind: types.ProviderOpenAI, Default: true, Enabled: true},
		{ID: "b", Kind: types.ProviderOllama, Default: true, Enabled: false},
	}

	assert.NoError(t, cfg.Validate())
}

func TestUnknownEdgeRejected(t *testing.T) {
	cfg := Default()
	cfg.Triggers = []types.TriggerBinding{
		{Kind: types.TriggerEdgeDwell, Edge: "diagonal", DwellMs: 450},
	}

	assert.Error(t, cfg.Validate())
}

func TestScrollbackLimitRejected(t *testing.T) {
	cfg := Default()
	cfg.Terminal.ScrollbackLimit = 0

	assert.Error(t, cfg.Validate())
}

func TestLoadPartialYAMLKeepsOtherFields(t *testing.T) {
	path := writeConfig(t, "terminal:\n  shell: /bin/zsh\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/bin/zsh", cfg.Terminal.Shell)
	assert.Equal(t, 10000, cfg.Terminal.ScrollbackLimit)
	assert.Equal(t, 1000, cfg.Terminal.HistoryMax)
	assert.Equal(t, "8777", cfg.Server.Port)
}

func TestLoadYAMLDisablesRateLimit(t *testing.T) {
	path := writeConfig(t, "rate_limit:\n  enabled: false\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 100, cfg.RateLimit.RequestsPerSecond)
}

func TestLoadYAMLOverridesSurfaceField(t *testing.T) {
	path := writeConfig(t, "surface:\n  height_fraction: 0.6\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.6, cfg.Surface.HeightFraction)
	assert.Equal(t, 1920, cfg.Surface.ScreenWidth)
	assert.Equal(t, uint(250), cfg.Surface.SettleTimeoutMs)
}
