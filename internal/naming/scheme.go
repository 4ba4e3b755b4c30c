// Package naming derives module identities (full and short module names,
// subdirectories, symlink and modpath extensions) from resolved buildspecs
// and dependency records, through a pluggable naming scheme selected once
// per process.
package naming

import (
	"fmt"
	"sort"
	"strings"
)

// SystemToolchainName and SystemToolchainVersion form the sentinel pair
// denoting a toolchain-independent build.
const (
	SystemToolchainName    = "system"
	SystemToolchainVersion = "system"
)

// Subject is the partial or full view of a buildspec that naming schemes
// derive identity from. Dependency records expose only their own fields;
// a fully parsed buildspec exposes every parameter.
type Subject interface {
	// SpecValue looks up a parameter value by name.
	SpecValue(key string) (any, bool)
	// SpecKeys lists the parameter names the subject can answer for.
	SpecKeys() []string
	// FullSpec reports whether the subject is a fully parsed buildspec.
	FullSpec() bool
	// IsHidden reports whether the subject's module should be hidden.
	IsHidden() bool
}

// Scheme is a single naming strategy. Implementations must be stateless;
// one instance serves the whole process.
type Scheme interface {
	FullModuleName(s Subject) (string, error)
	ShortModuleName(s Subject) (string, error)
	ModuleSubdir(s Subject) (string, error)
	SymlinkPaths(s Subject) ([]string, error)
	ModpathExtensions(s Subject) ([]string, error)
	InitModulePaths(s Subject) ([]string, error)
	// ExpandToolchainLoad reports whether load statements for a toolchain
	// should be expanded to loads of its dependencies.
	ExpandToolchainLoad() bool
	// IsShortNameFor checks a short module name against a software name.
	IsShortNameFor(shortName, softwareName string) bool
	// RequiresToolchainDetails reports whether the scheme needs toolchain
	// internals that only a fully parsed buildspec can provide.
	RequiresToolchainDetails() bool
	// Sufficient reports whether the given parameter keys carry enough
	// information for this scheme to derive names without escalation.
	Sufficient(keys []string) bool
}

// SchemeFactory constructs a naming scheme instance.
type SchemeFactory func() Scheme

// Registry maps scheme names to factories. It is populated at startup and
// read-only afterwards.
type Registry struct {
	factories map[string]SchemeFactory
}

// NewRegistry returns an empty scheme registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]SchemeFactory)}
}

// DefaultRegistry returns a registry with the built-in schemes registered.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(FlatSchemeName, func() Scheme { return FlatScheme{} })
	r.Register(HierarchicalSchemeName, func() Scheme { return HierarchicalScheme{} })
	return r
}

// Register adds a scheme factory under the given name, overwriting any
// previous registration.
func (r *Registry) Register(name string, factory SchemeFactory) {
	r.factories[name] = factory
}

// Available returns the sorted names of all registered schemes.
func (r *Registry) Available() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New constructs the scheme registered under name.
func (r *Registry) New(name string) (Scheme, error) {
	factory, ok := r.factories[name]
	if !ok {
		return nil, &UnknownSchemeError{Name: name, Available: r.Available()}
	}
	return factory(), nil
}

// UnknownSchemeError reports selection of a naming scheme that is not
// registered.
type UnknownSchemeError struct {
	Name      string
	Available []string
}

func (e *UnknownSchemeError) Error() string {
	return fmt.Sprintf("unknown module naming scheme %q (available: %s)",
		e.Name, strings.Join(e.Available, ", "))
}

// InvalidModuleNameError reports a derived module name that fails the
// well-formedness rules.
type InvalidModuleNameError struct {
	Name   string
	Reason string
}

func (e *InvalidModuleNameError) Error() string {
	return fmt.Sprintf("invalid module name %q: %s", e.Name, e.Reason)
}

// StringValue fetches a parameter from a subject as a string, rendering
// scalar non-strings through fmt.
func StringValue(s Subject, key string) string {
	v, ok := s.SpecValue(key)
	if !ok || v == nil {
		return ""
	}
	if str, ok := v.(string); ok {
		return str
	}
	switch v.(type) {
	case int, int64, uint64, float64, bool:
		return fmt.Sprintf("%v", v)
	}
	return ""
}

// ToolchainOf extracts the toolchain name and version from a subject.
func ToolchainOf(s Subject) (name, version string, ok bool) {
	v, found := s.SpecValue("toolchain")
	if !found {
		return "", "", false
	}
	switch tc := v.(type) {
	case map[string]any:
		n, _ := tc["name"].(string)
		ver := scalarString(tc["version"])
		return n, ver, n != ""
	case map[string]string:
		return tc["name"], tc["version"], tc["name"] != ""
	}
	return "", "", false
}

func scalarString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", s)
	}
}

// UsesSystemToolchain reports whether the subject's toolchain is the
// sentinel "no toolchain".
func UsesSystemToolchain(s Subject) bool {
	name, _, ok := ToolchainOf(s)
	return !ok || name == SystemToolchainName
}

// EffectiveVersion derives the full effective version of a subject: the
// software version, the toolchain qualifier unless the system toolchain is
// used, and the version suffix.
func EffectiveVersion(s Subject) string {
	version := StringValue(s, "version")
	if !UsesSystemToolchain(s) {
		tcName, tcVersion, _ := ToolchainOf(s)
		version += "-" + tcName + "-" + tcVersion
	}
	return version + StringValue(s, "versionsuffix")
}
