package provider

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hovershell/core/internal/shared/types"
)

func testProviders() []types.Provider {
	return []types.Provider{
		{ID: "openai-main", Kind: types.ProviderOpenAI, Model: "gpt-4o", Default: true, Enabled: true},
		{ID: "claude", Kind: types.ProviderAnthropic, Model: "claude-sonnet-4", Enabled: true},
		{ID: "local", Kind: types.ProviderOllama, Model: "llama3", Enabled: false},
	}
}

func TestLoadRejectsDuplicateIDs(t *testing.T) {
	r := NewRegistry()
	err := r.Load([]types.Provider{
		{ID: "a", Kind: types.ProviderOpenAI, Enabled: true},
		{ID: "a", Kind: types.ProviderOllama, Enabled: true},
	})
	assert.True(t, errors.Is(err, types.ErrValidation))
}

func TestLoadRejectsTwoDefaults(t *testing.T) {
	r := NewRegistry()
	err := r.Load([]types.Provider{
		{ID: "a", Kind: types.ProviderOpenAI, Default: true, Enabled: true},
		{ID: "b", Kind: types.ProviderAnthropic, Default: true, Enabled: true},
	})
	assert.True(t, errors.Is(err, types.ErrValidation))
}

func TestLoadRejectsUnknownKind(t *testing.T) {
	r := NewRegistry()
	err := r.Load([]types.Provider{{ID: "a", Kind: "bard", Enabled: true}})
	assert.True(t, errors.Is(err, types.ErrValidation))
}

func TestLoadAllowsDisabledDefaultMarker(t *testing.T) {
	// A default flag on a disabled provider is inert, not a conflict.
	r := NewRegistry()
	err := r.Load([]types.Provider{
		{ID: "a", Kind: types.ProviderOpenAI, Default: true, Enabled: false},
		{ID: "b", Kind: types.ProviderAnthropic, Default: true, Enabled: true},
	})
	require.NoError(t, err)

	p, err := r.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "b", p.ID)
}

func TestResolveOverrideAndDefault(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Load(testProviders()))

	p, err := r.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "openai-main", p.ID)

	p, err = r.Resolve("claude")
	require.NoError(t, err)
	assert.Equal(t, "claude", p.ID)

	_, err = r.Resolve("missing")
	assert.True(t, errors.Is(err, types.ErrNotFound))

	_, err = r.Resolve("local")
	assert.True(t, errors.Is(err, types.ErrValidation))
}

func TestResolveWithoutDefault(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Load([]types.Provider{
		{ID: "claude", Kind: types.ProviderAnthropic, Enabled: true},
	}))

	_, err := r.Resolve("")
	assert.True(t, errors.Is(err, types.ErrNoProvider))
}

func TestSetDefaultMovesFlag(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Load(testProviders()))

	require.NoError(t, r.SetDefault("claude"))

	p, _ := r.Resolve("")
	assert.Equal(t, "claude", p.ID)

	old, _ := r.Get("openai-main")
	assert.False(t, old.Default)

	// Exactly one default among enabled providers.
	defaults := 0
	for _, p := range r.List() {
		if p.Default && p.Enabled {
			defaults++
		}
	}
	assert.Equal(t, 1, defaults)
}

func TestSetDefaultRejectsDisabled(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Load(testProviders()))
	assert.True(t, errors.Is(r.SetDefault("local"), types.ErrValidation))
}

func TestDisableDefaultClearsDefault(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Load(testProviders()))

	require.NoError(t, r.Disable("openai-main"))

	_, err := r.Resolve("")
	assert.True(t, errors.Is(err, types.ErrNoProvider))

	require.NoError(t, r.Enable("openai-main"))
	require.NoError(t, r.SetDefault("openai-main"))
	p, err := r.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "openai-main", p.ID)
}
