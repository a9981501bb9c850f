package llm

import "fmt"

// Registry looks a Provider up by name. Exactly one provider is
// configured per deployment via internal/config, but the planner is
// written against this indirection so tests can substitute a fake.
type Registry struct {
	providers map[string]Provider
	active    string
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds a provider under its own Name(). The first provider
// registered becomes the active one; SetActive can change it.
func (r *Registry) Register(p Provider) {
	r.providers[p.Name()] = p
	if r.active == "" {
		r.active = p.Name()
	}
}

// SetActive selects which registered provider Active() returns.
func (r *Registry) SetActive(name string) error {
	if _, ok := r.providers[name]; !ok {
		return fmt.Errorf("llm: unknown provider %q", name)
	}
	r.active = name
	return nil
}

// Active returns the currently selected provider.
func (r *Registry) Active() (Provider, error) {
	p, ok := r.providers[r.active]
	if !ok {
		return nil, fmt.Errorf("llm: no active provider configured")
	}
	return p, nil
}
