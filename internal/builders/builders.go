// Package builders provides the registry of per-software builder
// implementations. The resolution pipeline only consumes a builder's extra
// parameter schema; the build steps themselves live with the orchestrator.
package builders

import (
	"fmt"
	"sort"
	"sync"

	"github.com/forgelabs/modforge/internal/schema"
)

// Builder is a capability-indexed build-step implementation. The
// configuration core only asks builders for the extra parameters they
// contribute to the schema.
type Builder interface {
	// Name returns the builder's registered name.
	Name() string
	// ExtraOptions returns the builder-specific parameters merged into the
	// base schema before a buildspec is normalized.
	ExtraOptions() map[string]schema.ParameterSpec
}

// UnknownBuilderError reports a lookup of an unregistered builder name.
type UnknownBuilderError struct {
	Name      string
	Available []string
}

func (e *UnknownBuilderError) Error() string {
	return fmt.Sprintf("unknown builder %q (%d builders registered)", e.Name, len(e.Available))
}

// Registry maps builder names and software names to builders. It is
// populated at startup; lookups are safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	byName     map[string]Builder
	bySoftware map[string]Builder
	fallback   Builder
}

// NewRegistry returns an empty registry with the given fallback builder,
// used when neither an explicit builder nor a software-specific one is
// registered.
func NewRegistry(fallback Builder) *Registry {
	return &Registry{
		byName:     make(map[string]Builder),
		bySoftware: make(map[string]Builder),
		fallback:   fallback,
	}
}

// DefaultRegistry returns a registry with the generic builders registered
// and ConfigureMake as the fallback.
func DefaultRegistry() *Registry {
	r := NewRegistry(ConfigureMake{})
	for _, b := range []Builder{ConfigureMake{}, CMakeMake{}, PythonPackage{}, Bundle{}, ToolchainBundle{}} {
		r.Register(b)
	}
	return r
}

// Register adds a builder under its own name.
func (r *Registry) Register(b Builder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byName[b.Name()] = b
}

// RegisterForSoftware binds a builder to a specific software name, used
// when a buildspec does not name a builder explicitly.
func (r *Registry) RegisterForSoftware(softwareName string, b Builder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bySoftware[softwareName] = b
}

// Available returns the sorted names of all registered builders.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup resolves the builder for a buildspec. An explicit builder name
// takes precedence and must be registered; otherwise a software-specific
// builder is used when one exists, and the fallback builder covers the
// rest.
func (r *Registry) Lookup(builderName, softwareName string) (Builder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if builderName != "" {
		b, ok := r.byName[builderName]
		if !ok {
			names := make([]string, 0, len(r.byName))
			for name := range r.byName {
				names = append(names, name)
			}
			sort.Strings(names)
			return nil, &UnknownBuilderError{Name: builderName, Available: names}
		}
		return b, nil
	}
	if b, ok := r.bySoftware[softwareName]; ok {
		return b, nil
	}
	return r.fallback, nil
}
