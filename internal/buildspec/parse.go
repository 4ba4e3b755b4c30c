package buildspec

import (
	"io"
	"log/slog"
	"sort"

	"github.com/agext/levenshtein"

	"github.com/forgelabs/modforge/internal/builders"
	"github.com/forgelabs/modforge/internal/naming"
	"github.com/forgelabs/modforge/internal/osdeps"
	"github.com/forgelabs/modforge/internal/schema"
	"github.com/forgelabs/modforge/internal/specfile"
)

// typoThreshold is the minimum similarity for an unknown key to be reported
// as a likely typo of a known parameter.
const typoThreshold = 0.85

// Options configures construction of a single buildspec.
type Options struct {
	// Path is the source path, informational and used in error reports.
	Path string
	// Overrides narrows or overrides raw parameter values before resolution.
	Overrides map[string]any
	// ExtraOptions supplies the builder parameter extension directly. When
	// nil, the builder registry is consulted for the declared easyblock or
	// software name.
	ExtraOptions map[string]schema.ParameterSpec
	// Validate enables the validation pass for this instance.
	Validate bool
	// Hidden marks the resulting module as hidden.
	Hidden bool

	Policy   Policy
	Builders *builders.Registry
	Naming   *naming.Service
	OSProbe  osdeps.Prober
	Logger   *slog.Logger
}

// New runs the full resolution pipeline over one buildspec block: schema
// seeding, mandatory and typo checks, dependency resolution with toolchain
// inheritance, hidden-dependency reconciliation, template-context generation
// and, when enabled, validation. A failed resolution never yields a
// partially built buildspec.
func New(raw []byte, opts Options) (*BuildSpec, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	extra, err := extraOptions(raw, opts)
	if err != nil {
		return nil, err
	}
	merged, err := schema.Merge(schema.Defaults(), extra)
	if err != nil {
		return nil, err
	}

	b := &BuildSpec{
		path:       opts.Path,
		rawText:    raw,
		params:     make(map[string]*entry, len(merged)),
		defaults:   make(map[string]any, len(merged)),
		validation: opts.Validate,
		hidden:     opts.Hidden,
		policy:     opts.Policy,
		naming:     opts.Naming,
		osProbe:    opts.OSProbe,
		logger:     logger,
	}
	for name, spec := range merged {
		b.params[name] = &entry{Value: spec.Default, Doc: spec.Doc, Category: spec.Category}
		b.defaults[name] = spec.Default
	}
	b.mandatory = mandatorySet(extra)

	rawParams, err := specfile.Parse(raw, opts.Overrides)
	if err != nil {
		return nil, err
	}

	if missing := missingMandatory(b.mandatory, rawParams); len(missing) > 0 {
		return nil, &MissingMandatoryError{Path: opts.Path, Missing: missing}
	}
	if typos := findTypos(rawParams, merged); len(typos) > 0 {
		return nil, &TypoError{Suggestions: typos}
	}

	if err := b.applyRawParams(rawParams); err != nil {
		return nil, err
	}
	if err := b.reconcileHiddenDeps(); err != nil {
		return nil, err
	}
	b.syncDependencyParams()

	b.GenerateTemplateValues()
	b.parsed = true

	if err := b.nameDependencies(); err != nil {
		return nil, err
	}

	if opts.Validate {
		if err := b.Validate(); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// extraOptions determines the builder parameter extension: either supplied
// directly, or looked up in the builder registry for the easyblock or
// software name pre-fetched from the raw source.
func extraOptions(raw []byte, opts Options) (map[string]schema.ParameterSpec, error) {
	if opts.ExtraOptions != nil {
		return opts.ExtraOptions, nil
	}
	if opts.Builders == nil {
		return map[string]schema.ParameterSpec{}, nil
	}
	values, err := specfile.FetchParameters(raw, []string{"name", "easyblock"})
	if err != nil {
		return nil, err
	}
	builder, err := opts.Builders.Lookup(values[1], values[0])
	if err != nil {
		return nil, err
	}
	return builder.ExtraOptions(), nil
}

// mandatorySet is the schema-mandatory parameters plus any extension
// parameters flagged mandatory, sorted for stable reporting.
func mandatorySet(extra map[string]schema.ParameterSpec) []string {
	mandatory := append([]string{}, schema.MandatoryParams...)
	for name, spec := range extra {
		if spec.Category == schema.Mandatory {
			mandatory = append(mandatory, name)
		}
	}
	sort.Strings(mandatory)
	return mandatory
}

// missingMandatory collects every mandatory key absent from the raw mapping.
func missingMandatory(mandatory []string, rawParams map[string]any) []string {
	var missing []string
	for _, key := range mandatory {
		if _, ok := rawParams[key]; !ok {
			missing = append(missing, key)
		}
	}
	return missing
}

// findTypos collects unknown keys that closely resemble a known parameter.
// Replaced keys are not typos; they fail on their own later.
func findTypos(rawParams map[string]any, known map[string]schema.ParameterSpec) []TypoSuggestion {
	var typos []TypoSuggestion
	for key := range rawParams {
		if _, ok := known[key]; ok {
			continue
		}
		if schema.IsReplaced(key) || schema.IsDeprecated(key) {
			continue
		}
		best, score := "", 0.0
		for name := range known {
			if s := levenshtein.Similarity(key, name, nil); s > score {
				best, score = name, s
			}
		}
		if score >= typoThreshold {
			typos = append(typos, TypoSuggestion{Key: key, Suggestion: best, Score: score})
		}
	}
	sort.Slice(typos, func(i, j int) bool { return typos[i].Key < typos[j].Key })
	return typos
}

// applyRawParams stores every known raw parameter, routing dependency lists
// through the dependency resolver. The toolchain parameter is applied first
// so dependencies can inherit it. Replaced keys always fail; unknown
// non-typo keys are ignored.
func (b *BuildSpec) applyRawParams(rawParams map[string]any) error {
	if tc, ok := rawParams["toolchain"]; ok {
		if err := b.Set("toolchain", tc); err != nil {
			return err
		}
	}
	if opts, ok := rawParams["toolchainopts"]; ok {
		if err := b.Set("toolchainopts", opts); err != nil {
			return err
		}
	}
	owner, err := b.Toolchain()
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(rawParams))
	for key := range rawParams {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := rawParams[key]
		switch key {
		case "toolchain", "toolchainopts":
			// applied above
		case "dependencies":
			if b.deps, err = b.parseDependencyList(value, owner, false, false); err != nil {
				return err
			}
		case "builddependencies":
			if b.buildDeps, err = b.parseDependencyList(value, owner, false, true); err != nil {
				return err
			}
		case "hiddendependencies":
			if b.hiddenDeps, err = b.parseDependencyList(value, owner, true, false); err != nil {
				return err
			}
		default:
			resolved, err := schema.ResolveAlias(key, b.logger)
			if err != nil {
				return err
			}
			if _, ok := b.params[resolved]; !ok {
				b.logger.Debug("ignoring unknown buildspec parameter", "parameter", key)
				continue
			}
			b.params[resolved].Value = value
		}
	}
	return nil
}

// parseDependencyList resolves one dependency-list parameter element-wise.
func (b *BuildSpec) parseDependencyList(value any, owner Toolchain, hidden, build bool) ([]*Dependency, error) {
	list, ok := value.([]any)
	if !ok {
		return nil, &MissingDependencyFieldError{Fields: []string{"list"}, Raw: value}
	}
	deps := make([]*Dependency, 0, len(list))
	for _, elem := range list {
		dep, err := parseDependency(elem, owner, hidden, build)
		if err != nil {
			return nil, err
		}
		deps = append(deps, dep)
	}
	return deps, nil
}

// reconcileHiddenDeps matches every hidden dependency against the plain
// dependency list by visible full module name. A matching plain entry is
// removed (the hidden entry supersedes it); a hidden dependency with no
// match is faulty and fails resolution.
func (b *BuildSpec) reconcileHiddenDeps() error {
	if len(b.hiddenDeps) == 0 {
		return nil
	}

	visibleName := func(d *Dependency) (string, error) {
		if b.naming == nil {
			return d.Name + "/" + d.EffectiveVersion(), nil
		}
		return b.naming.FullModuleName(d, true)
	}

	plainNames := make([]string, len(b.deps))
	for i, dep := range b.deps {
		name, err := visibleName(dep)
		if err != nil {
			return err
		}
		plainNames[i] = name
	}

	var faulty []string
	for _, hidden := range b.hiddenDeps {
		name, err := visibleName(hidden)
		if err != nil {
			return err
		}
		matched := false
		for i, plain := range plainNames {
			if plain == name {
				b.deps = append(b.deps[:i], b.deps[i+1:]...)
				plainNames = append(plainNames[:i], plainNames[i+1:]...)
				matched = true
				break
			}
		}
		if !matched {
			faulty = append(faulty, name)
		}
	}
	if len(faulty) > 0 {
		allNames := make([]string, len(b.deps))
		for i, dep := range b.deps {
			name, err := visibleName(dep)
			if err != nil {
				return err
			}
			allNames[i] = name
		}
		return &UnreconciledHiddenDependencyError{Faulty: faulty, Visible: allNames}
	}
	return nil
}

// nameDependencies fills the short and full module names on every resolved
// dependency record.
func (b *BuildSpec) nameDependencies() error {
	if b.naming == nil {
		return nil
	}
	for _, deps := range [][]*Dependency{b.deps, b.buildDeps, b.hiddenDeps} {
		for _, dep := range deps {
			full, err := b.naming.FullModuleName(dep, false)
			if err != nil {
				return err
			}
			short, err := b.naming.ShortModuleName(dep, false)
			if err != nil {
				return err
			}
			dep.FullModName = full
			dep.ShortModName = short
		}
	}
	return nil
}
