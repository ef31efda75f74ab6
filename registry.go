// Package weld is the runtime side of weld's dependency-injection code
// generation: the binding registry that generated module files register
// into at init time, and the error types shared with generated code.
package weld

import (
	"sort"
	"sync"
)

// Binding describes a single contributed binding: in the given scope, the
// bound type is provided by the named provider function. Generated module
// files register bindings at init time.
type Binding struct {
	// Scope is the component scope the binding is contributed to.
	Scope string

	// BoundType is the fully-qualified name of the bound interface.
	BoundType string

	// Impl is the fully-qualified name of the implementing type.
	Impl string

	// Provider is the provider function for the implementation.
	Provider any

	// Multi marks the binding as a multibinding: several bindings for the
	// same bound type may coexist in one scope.
	Multi bool
}

// A Registry holds contributed bindings grouped by scope. Registries are
// safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	bindings map[string][]Binding // scope -> bindings
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{bindings: make(map[string][]Binding)}
}

// Register adds a binding to the registry. Registering a binding that is
// identical to an existing one is a no-op. Registering a different
// (non-multi) binding for an already bound type in the same scope returns
// a ConflictError.
func (r *Registry) Register(b Binding) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, cur := range r.bindings[b.Scope] {
		if cur.BoundType != b.BoundType {
			continue
		}
		if cur.Impl == b.Impl && cur.Multi == b.Multi {
			return nil
		}
		if !cur.Multi || !b.Multi {
			return NewConflictError(b.Scope, b.BoundType, cur.Impl, b.Impl)
		}
	}
	r.bindings[b.Scope] = append(r.bindings[b.Scope], b)
	return nil
}

// MustRegister is like Register but panics on conflict. It is intended for
// init-time registration in generated code, where a conflict is a build
// defect rather than a recoverable condition.
func (r *Registry) MustRegister(b Binding) {
	if err := r.Register(b); err != nil {
		panic(err)
	}
}

// Bindings returns the bindings contributed to the given scope, ordered by
// bound type then implementing type. It returns ErrUnknownScope if nothing
// was contributed to the scope.
func (r *Registry) Bindings(scope string) ([]Binding, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	bs, ok := r.bindings[scope]
	if !ok {
		return nil, ErrUnknownScope
	}
	out := make([]Binding, len(bs))
	copy(out, bs)
	sort.Slice(out, func(i, j int) bool {
		if out[i].BoundType != out[j].BoundType {
			return out[i].BoundType < out[j].BoundType
		}
		return out[i].Impl < out[j].Impl
	})
	return out, nil
}

// Scopes returns all scopes with at least one binding, sorted.
func (r *Registry) Scopes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	scopes := make([]string, 0, len(r.bindings))
	for s := range r.bindings {
		scopes = append(scopes, s)
	}
	sort.Strings(scopes)
	return scopes
}

// defaultRegistry backs the package-level registration functions used by
// generated code.
var defaultRegistry = NewRegistry()

// Register adds a binding to the default registry.
func Register(b Binding) error { return defaultRegistry.Register(b) }

// MustRegister adds a binding to the default registry and panics on conflict.
func MustRegister(b Binding) { defaultRegistry.MustRegister(b) }

// Bindings returns bindings contributed to the given scope in the default registry.
func Bindings(scope string) ([]Binding, error) { return defaultRegistry.Bindings(scope) }
