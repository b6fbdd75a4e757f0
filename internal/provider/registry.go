// Package provider manages completion backend configuration and the HTTP
// adapters that talk to them. The registry owns the single-default invariant;
// adapters own the wire formats.
package provider

import (
	"sync"

	"github.com/hovershell/core/internal/shared/types"
)

// Registry holds provider configurations. Among enabled providers at most one
// is the default; Resolve falls back to it when no override is named.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]types.Provider
	order     []string
	defaultID string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]types.Provider)}
}

// Load replaces the registry contents. Duplicate ids, unknown kinds, and more
// than one default among enabled providers are rejected.
func (r *Registry) Load(providers []types.Provider) error {
	seen := make(map[string]bool, len(providers))
	defaultID := ""
	for _, p := range providers {
		if p.ID == "" {
			return types.Validationf("provider with empty id")
		}
		if seen[p.ID] {
			return types.Validationf("duplicate provider id %q", p.ID)
		}
		seen[p.ID] = true

		switch p.Kind {
		case types.ProviderOpenAI, types.ProviderAnthropic, types.ProviderOllama, types.ProviderCohere:
		default:
			return types.Validationf("provider %q has unknown kind %q", p.ID, p.Kind)
		}

		if p.Default && p.Enabled {
			if defaultID != "" {
				return types.Validationf("providers %q and %q both marked default", defaultID, p.ID)
			}
			defaultID = p.ID
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.providers = make(map[string]types.Provider, len(providers))
	r.order = r.order[:0]
	for _, p := range providers {
		p.Default = p.ID == defaultID
		r.providers[p.ID] = p
		r.order = append(r.order, p.ID)
	}
	r.defaultID = defaultID
	return nil
}

// Resolve picks the provider for a request: the named override when given,
// the default otherwise. Disabled providers never resolve.
func (r *Registry) Resolve(override string) (types.Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if override != "" {
		p, ok := r.providers[override]
		if !ok {
			return types.Provider{}, types.NotFoundf("provider %s", override)
		}
		if !p.Enabled {
			return types.Provider{}, types.Validationf("provider %q is disabled", override)
		}
		return p, nil
	}

	if r.defaultID == "" {
		return types.Provider{}, types.ErrNoProvider
	}
	return r.providers[r.defaultID], nil
}

// List returns all providers in load order.
func (r *Registry) List() []types.Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]types.Provider, 0, len(r.order))
	for _, pid := range r.order {
		out = append(out, r.providers[pid])
	}
	return out
}

// Get returns one provider.
func (r *Registry) Get(providerID string) (types.Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[providerID]
	if !ok {
		return types.Provider{}, types.NotFoundf("provider %s", providerID)
	}
	return p, nil
}

// SetDefault moves the default flag. The target must exist and be enabled.
func (r *Registry) SetDefault(providerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.providers[providerID]
	if !ok {
		return types.NotFoundf("provider %s", providerID)
	}
	if !p.Enabled {
		return types.Validationf("provider %q is disabled", providerID)
	}

	if r.defaultID != "" {
		old := r.providers[r.defaultID]
		old.Default = false
		r.providers[r.defaultID] = old
	}
	p.Default = true
	r.providers[providerID] = p
	r.defaultID = providerID
	return nil
}

// Enable marks a provider usable again.
func (r *Registry) Enable(providerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.providers[providerID]
	if !ok {
		return types.NotFoundf("provider %s", providerID)
	}
	p.Enabled = true
	r.providers[providerID] = p
	return nil
}

// Disable takes a provider out of rotation. Disabling the default clears the
// default; Resolve returns ErrNoProvider until a new one is set.
func (r *Registry) Disable(providerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.providers[providerID]
	if !ok {
		return types.NotFoundf("provider %s", providerID)
	}
	p.Enabled = false
	if r.defaultID == providerID {
		p.Default = false
		r.defaultID = ""
	}
	r.providers[providerID] = p
	return nil
}
