// Package buildspec implements the configuration core: it normalizes a raw
// buildspec against the parameter schema, resolves dependency declarations
// with toolchain inheritance, expands template placeholders, validates
// invariants and derives module identity through the naming service.
package buildspec

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/mitchellh/copystructure"

	"github.com/forgelabs/modforge/internal/naming"
	"github.com/forgelabs/modforge/internal/osdeps"
	"github.com/forgelabs/modforge/internal/schema"
	"github.com/forgelabs/modforge/internal/template"
)

// envRootPrefix and envVersionPrefix name the environment variables exported
// for allowed system dependencies.
const (
	envRootPrefix    = "MODFORGE_ROOT_"
	envVersionPrefix = "MODFORGE_VERSION_"
)

// entry is one parameter's (value, documentation, category) triple.
type entry struct {
	Value    any
	Doc      string
	Category schema.Category
}

// Policy carries the process-wide validation and filtering settings the
// resolution pipeline injects into every buildspec.
type Policy struct {
	// ValidModuleClasses constrains the moduleclass parameter; empty means
	// unconstrained.
	ValidModuleClasses []string
	// ValidStops constrains the stop parameter; empty means unconstrained.
	ValidStops []string
	// FilterDeps removes dependencies on the listed software names.
	FilterDeps []string
	// CheckOSDeps gates the OS-dependency probe during validation.
	CheckOSDeps bool
}

// BuildSpec is one resolved build specification.
type BuildSpec struct {
	path    string
	rawText []byte

	params    map[string]*entry
	defaults  map[string]any
	mandatory []string

	validation bool
	hidden     bool
	parsed     bool

	deps       []*Dependency
	buildDeps  []*Dependency
	hiddenDeps []*Dependency

	templateCtx map[string]string
	toolchain   *Toolchain

	fullModName  string
	shortModName string

	policy  Policy
	naming  *naming.Service
	osProbe osdeps.Prober
	logger  *slog.Logger
}

// Path returns the source path the buildspec was read from, if any.
func (b *BuildSpec) Path() string { return b.path }

// RawText returns the source text the buildspec was parsed from.
func (b *BuildSpec) RawText() []byte { return b.rawText }

// Hidden reports whether the module built from this buildspec is hidden,
// either by request or through the hidden parameter.
func (b *BuildSpec) Hidden() bool {
	if b.hidden {
		return true
	}
	if e, ok := b.params["hidden"]; ok {
		if h, ok := e.Value.(bool); ok {
			return h
		}
	}
	return false
}

// resolveKey applies the deprecation/replacement tables and checks the key
// against the merged schema. Every keyed accessor routes through here.
func (b *BuildSpec) resolveKey(key string) (string, error) {
	key, err := schema.ResolveAlias(key, b.logger)
	if err != nil {
		return "", err
	}
	if _, ok := b.params[key]; !ok {
		return "", &UnknownParameterError{Key: key}
	}
	return key, nil
}

// Get returns a parameter value with template placeholders expanded.
func (b *BuildSpec) Get(key string) (any, error) {
	key, err := b.resolveKey(key)
	if err != nil {
		return nil, err
	}
	return template.Resolve(b.params[key].Value, b.templateCtx, b.logger), nil
}

// RawValue returns a parameter value without template expansion, for callers
// that edit nested structure in place.
func (b *BuildSpec) RawValue(key string) (any, error) {
	key, err := b.resolveKey(key)
	if err != nil {
		return nil, err
	}
	return b.params[key].Value, nil
}

// Set stores a parameter value. The key must be part of the merged schema.
func (b *BuildSpec) Set(key string, value any) error {
	key, err := b.resolveKey(key)
	if err != nil {
		return err
	}
	b.params[key].Value = value
	return nil
}

// Contains reports whether the buildspec knows the given parameter. Replaced
// keys are never contained.
func (b *BuildSpec) Contains(key string) bool {
	_, err := b.resolveKey(key)
	return err == nil
}

// Update appends to an existing parameter value: strings are joined with
// single spaces and a trailing space, lists are extended.
func (b *BuildSpec) Update(key string, value any) error {
	prev, err := b.RawValue(key)
	if err != nil {
		return err
	}

	var add []string
	switch v := value.(type) {
	case string:
		add = []string{v}
	case []string:
		add = v
	case []any:
		for _, elem := range v {
			add = append(add, scalarString(elem))
		}
	default:
		return fmt.Errorf("cannot update parameter %q with %v (%T)", key, value, value)
	}

	switch p := prev.(type) {
	case string, nil:
		prevStr, _ := p.(string)
		return b.Set(key, strings.TrimLeft(fmt.Sprintf("%s %s ", prevStr, strings.Join(add, " ")), " "))
	case []any:
		out := append(append([]any{}, p...), toAnySlice(add)...)
		return b.Set(key, out)
	case []string:
		return b.Set(key, append(append([]string{}, p...), add...))
	}
	return fmt.Errorf("cannot update parameter %q of type %T", key, prev)
}

func toAnySlice(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}

// Toolchain returns the buildspec's own toolchain, memoized.
func (b *BuildSpec) Toolchain() (Toolchain, error) {
	if b.toolchain != nil {
		return *b.toolchain, nil
	}
	raw, err := b.RawValue("toolchain")
	if err != nil {
		return Toolchain{}, err
	}
	tc, err := resolveToolchain(raw, SystemToolchain)
	if err != nil {
		return Toolchain{}, err
	}
	if opts, err := b.RawValue("toolchainopts"); err == nil {
		if m, ok := opts.(map[string]any); ok {
			tc.Opts = m
		}
	}
	b.toolchain = &tc
	return tc, nil
}

// Name returns the software name.
func (b *BuildSpec) Name() string {
	v, _ := b.RawValue("name")
	return scalarString(v)
}

// Version returns the software version.
func (b *BuildSpec) Version() string {
	v, _ := b.RawValue("version")
	return scalarString(v)
}

// AsMap renders every parameter's templated value into a plain mapping.
func (b *BuildSpec) AsMap() map[string]any {
	out := make(map[string]any, len(b.params))
	for key, e := range b.params {
		out[key] = template.Resolve(e.Value, b.templateCtx, b.logger)
	}
	return out
}

// rawMap renders every parameter's raw value into a plain mapping.
func (b *BuildSpec) rawMap() map[string]any {
	out := make(map[string]any, len(b.params))
	for key, e := range b.params {
		out[key] = e.Value
	}
	return out
}

// syncDependencyParams mirrors the resolved dependency records into the
// parameter entries, so keyed access reports the reconciled lists rather
// than the schema defaults.
func (b *BuildSpec) syncDependencyParams() {
	b.params["dependencies"].Value = b.deps
	b.params["builddependencies"].Value = b.buildDeps
	b.params["hiddendependencies"].Value = b.hiddenDeps
}

// Dependencies returns the concatenation of the plain, build and hidden
// dependency lists after the configured dependency filter is applied.
func (b *BuildSpec) Dependencies() []*Dependency {
	all := make([]*Dependency, 0, len(b.deps)+len(b.buildDeps)+len(b.hiddenDeps))
	all = append(all, b.deps...)
	all = append(all, b.buildDeps...)
	all = append(all, b.hiddenDeps...)
	return b.filterDeps(all)
}

// BuildDependencies returns the build-only dependency list, filtered.
func (b *BuildSpec) BuildDependencies() []*Dependency {
	return b.filterDeps(append([]*Dependency{}, b.buildDeps...))
}

// FilteredDependencyCount reports how many declared dependencies the
// configured filter removes.
func (b *BuildSpec) FilteredDependencyCount() int {
	total := len(b.deps) + len(b.buildDeps) + len(b.hiddenDeps)
	return total - len(b.Dependencies())
}

func (b *BuildSpec) filterDeps(deps []*Dependency) []*Dependency {
	if len(b.policy.FilterDeps) == 0 {
		return deps
	}
	filtered := deps[:0]
	for _, dep := range deps {
		skip := false
		for _, name := range b.policy.FilterDeps {
			if dep.Name == name {
				skip = true
				break
			}
		}
		if skip {
			b.logger.Debug("filtered out dependency", "name", dep.Name, "version", dep.Version)
			continue
		}
		filtered = append(filtered, dep)
	}
	return filtered
}

// GenerateTemplateValues rebuilds the memoized template context from the
// current raw parameter values. It runs the derivation twice, first without
// the lowercase shortcut entries and then with them, so the shortcuts can
// never shadow the richer values.
func (b *BuildSpec) GenerateTemplateValues() {
	raw := b.rawMap()
	ctx := template.BuildContext(raw, true)
	for key, value := range template.BuildContext(raw, false) {
		ctx[key] = value
	}
	b.templateCtx = ctx
}

// TemplateContext returns the memoized template context.
func (b *BuildSpec) TemplateContext() map[string]string { return b.templateCtx }

// Copy returns a deep copy sharing no mutable state with the original.
func (b *BuildSpec) Copy() (*BuildSpec, error) {
	dup := *b

	params, err := copystructure.Copy(b.params)
	if err != nil {
		return nil, fmt.Errorf("copying buildspec parameters: %w", err)
	}
	dup.params = params.(map[string]*entry)

	copyDeps := func(deps []*Dependency) ([]*Dependency, error) {
		if deps == nil {
			return nil, nil
		}
		v, err := copystructure.Copy(deps)
		if err != nil {
			return nil, err
		}
		return v.([]*Dependency), nil
	}
	if dup.deps, err = copyDeps(b.deps); err != nil {
		return nil, fmt.Errorf("copying dependencies: %w", err)
	}
	if dup.buildDeps, err = copyDeps(b.buildDeps); err != nil {
		return nil, fmt.Errorf("copying build dependencies: %w", err)
	}
	if dup.hiddenDeps, err = copyDeps(b.hiddenDeps); err != nil {
		return nil, fmt.Errorf("copying hidden dependencies: %w", err)
	}
	if dup.parsed {
		dup.syncDependencyParams()
	}

	dup.mandatory = append([]string{}, b.mandatory...)
	dup.templateCtx = make(map[string]string, len(b.templateCtx))
	for key, value := range b.templateCtx {
		dup.templateCtx[key] = value
	}
	if b.toolchain != nil {
		tc := *b.toolchain
		dup.toolchain = &tc
	}
	return &dup, nil
}

// SpecValue implements naming.Subject over the templated parameter view.
func (b *BuildSpec) SpecValue(key string) (any, bool) {
	e, ok := b.params[key]
	if !ok {
		return nil, false
	}
	return template.Resolve(e.Value, b.templateCtx, b.logger), true
}

// SpecKeys implements naming.Subject.
func (b *BuildSpec) SpecKeys() []string {
	keys := make([]string, 0, len(b.params))
	for key := range b.params {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// FullSpec implements naming.Subject: a parsed buildspec is authoritative.
func (b *BuildSpec) FullSpec() bool { return b.parsed }

// IsHidden implements naming.Subject.
func (b *BuildSpec) IsHidden() bool { return b.Hidden() }

// FullModuleName derives (and memoizes) the unique full module name.
func (b *BuildSpec) FullModuleName() (string, error) {
	if b.fullModName != "" {
		return b.fullModName, nil
	}
	name, err := b.naming.FullModuleName(b, false)
	if err != nil {
		return "", err
	}
	b.fullModName = name
	return name, nil
}

// ShortModuleName derives (and memoizes) the policy-visible short name.
func (b *BuildSpec) ShortModuleName() (string, error) {
	if b.shortModName != "" {
		return b.shortModName, nil
	}
	name, err := b.naming.ShortModuleName(b, false)
	if err != nil {
		return "", err
	}
	b.shortModName = name
	return name, nil
}

// ModuleSubdir derives the module subdirectory under the selected scheme.
func (b *BuildSpec) ModuleSubdir() (string, error) {
	return b.naming.ModuleSubdir(b)
}

// DevelModuleName is the filename of the companion development module:
// the full module name flattened with dashes plus a fixed suffix.
func (b *BuildSpec) DevelModuleName() (string, error) {
	full, err := b.FullModuleName()
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(full, "/", "-") + "-modforge-devel", nil
}

// InvalidateModuleNames drops the memoized module names so the next query
// re-derives them, after a naming-relevant parameter changed.
func (b *BuildSpec) InvalidateModuleNames() {
	b.fullModName = ""
	b.shortModName = ""
}

// ExportSystemDeps exports root/version environment variables for every
// name/version pair in allow_system_deps, so builds can pick up the system
// provided installations.
func (b *BuildSpec) ExportSystemDeps() error {
	raw, err := b.RawValue("allow_system_deps")
	if err != nil {
		return err
	}
	pairs, ok := raw.([]any)
	if !ok {
		if raw == nil {
			return nil
		}
		return fmt.Errorf("invalid allow_system_deps value %v (%T): expected list of name/version pairs", raw, raw)
	}
	for _, elem := range pairs {
		pair, ok := elem.([]any)
		if !ok || len(pair) != 2 {
			return fmt.Errorf("invalid allow_system_deps entry %v: expected [name, version]", elem)
		}
		name := scalarString(pair[0])
		version := scalarString(pair[1])
		if err := os.Setenv(envRootPrefix+envVarSuffix(name), name); err != nil {
			return err
		}
		if err := os.Setenv(envVersionPrefix+envVarSuffix(name), version); err != nil {
			return err
		}
		b.logger.Debug("allowing system version of dependency", "name", name, "version", version)
	}
	return nil
}

// envVarSuffix renders a software name as an environment-variable suffix:
// uppercased with non-alphanumeric characters stripped.
func envVarSuffix(name string) string {
	var sb strings.Builder
	for _, r := range strings.ToUpper(name) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
