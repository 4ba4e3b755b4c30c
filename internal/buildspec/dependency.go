package buildspec

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"

	"github.com/forgelabs/modforge/internal/naming"
)

// Toolchain identifies the compiler/library stack a build is compiled
// against. The (system, system) sentinel pair denotes a toolchain-independent
// build.
type Toolchain struct {
	Name    string
	Version string
	Opts    map[string]any
}

// SystemToolchain is the sentinel denoting a toolchain-independent build.
var SystemToolchain = Toolchain{
	Name:    naming.SystemToolchainName,
	Version: naming.SystemToolchainVersion,
}

// IsSystem reports whether the toolchain is the sentinel.
func (tc Toolchain) IsSystem() bool {
	return tc.Name == naming.SystemToolchainName
}

func (tc Toolchain) String() string {
	if tc.IsSystem() {
		return naming.SystemToolchainName
	}
	return tc.Name + "/" + tc.Version
}

// asMap renders the toolchain in the shape naming subjects expose.
func (tc Toolchain) asMap() map[string]string {
	return map[string]string{"name": tc.Name, "version": tc.Version}
}

// Dependency is the canonical record for one declared dependency.
type Dependency struct {
	Name          string
	Version       string
	VersionSuffix string
	Toolchain     Toolchain
	// System mirrors Toolchain.IsSystem at resolution time.
	System bool
	Hidden bool
	// Build marks build-only dependencies.
	Build bool

	ShortModName string
	FullModName  string
}

// EffectiveVersion is the dependency's version with toolchain qualifier and
// suffix, as used for buildspec discovery.
func (d *Dependency) EffectiveVersion() string {
	return naming.EffectiveVersion(d)
}

// SpecValue implements naming.Subject.
func (d *Dependency) SpecValue(key string) (any, bool) {
	switch key {
	case "name":
		return d.Name, true
	case "version":
		return d.Version, true
	case "versionsuffix":
		return d.VersionSuffix, true
	case "toolchain":
		return d.Toolchain.asMap(), true
	}
	return nil, false
}

// SpecKeys implements naming.Subject.
func (d *Dependency) SpecKeys() []string {
	return []string{"name", "version", "versionsuffix", "toolchain"}
}

// FullSpec implements naming.Subject: a dependency record is always partial.
func (d *Dependency) FullSpec() bool { return false }

// IsHidden implements naming.Subject.
func (d *Dependency) IsHidden() bool { return d.Hidden }

// depSpec is the mapping form of a dependency declaration.
type depSpec struct {
	Name          string `mapstructure:"name"`
	Version       string `mapstructure:"version"`
	VersionSuffix string `mapstructure:"versionsuffix"`
	Toolchain     any    `mapstructure:"toolchain"`
	// System is the legacy no-toolchain marker; it maps onto the toolchain
	// field when no toolchain is declared.
	System bool `mapstructure:"system"`
}

// parseDependency normalizes one raw dependency declaration. The input is
// never mutated. Accepted shapes: a mapping with explicit fields, or an
// ordered list of two to four elements read as (name, version,
// versionsuffix, toolchain).
func parseDependency(raw any, owner Toolchain, hidden, build bool) (*Dependency, error) {
	var spec depSpec
	switch v := raw.(type) {
	case map[string]any:
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           &spec,
			WeaklyTypedInput: true,
			ErrorUnused:      false,
		})
		if err != nil {
			return nil, err
		}
		if err := dec.Decode(v); err != nil {
			return nil, fmt.Errorf("invalid dependency %v: %w", raw, err)
		}
		if spec.Toolchain == nil && spec.System {
			spec.Toolchain = true
		}
	case []any:
		if len(v) < 2 || len(v) > 4 {
			return nil, fmt.Errorf("invalid dependency %v: expected 2 to 4 elements, got %d", raw, len(v))
		}
		spec.Name = scalarString(v[0])
		spec.Version = scalarString(v[1])
		if len(v) > 2 {
			spec.VersionSuffix = scalarString(v[2])
		}
		if len(v) > 3 {
			spec.Toolchain = v[3]
		}
	default:
		return nil, fmt.Errorf("invalid dependency %v (%T): expected mapping or list", raw, raw)
	}

	tc, err := resolveToolchain(spec.Toolchain, owner)
	if err != nil {
		return nil, err
	}

	var missing []string
	if spec.Name == "" {
		missing = append(missing, "name")
	}
	if spec.Version == "" {
		missing = append(missing, "version")
	}
	if len(missing) > 0 {
		return nil, &MissingDependencyFieldError{Fields: missing, Raw: raw}
	}

	return &Dependency{
		Name:          spec.Name,
		Version:       spec.Version,
		VersionSuffix: spec.VersionSuffix,
		Toolchain:     tc,
		System:        tc.IsSystem(),
		Hidden:        hidden,
		Build:         build,
	}, nil
}

// resolveToolchain applies the toolchain-inheritance rules for a dependency:
// no declaration inherits the owner's toolchain, the boolean literal true
// selects the system sentinel, a two-element list reads as (name, version),
// and a mapping with name and version is taken as-is.
func resolveToolchain(spec any, owner Toolchain) (Toolchain, error) {
	switch tc := spec.(type) {
	case nil:
		return owner, nil
	case bool:
		if tc {
			return SystemToolchain, nil
		}
		return owner, nil
	case []any:
		if len(tc) != 2 {
			return Toolchain{}, &UnsupportedToolchainError{Spec: spec}
		}
		return Toolchain{Name: scalarString(tc[0]), Version: scalarString(tc[1])}, nil
	case map[string]any:
		name := scalarString(tc["name"])
		version := scalarString(tc["version"])
		if name == "" || version == "" {
			return Toolchain{}, &UnsupportedToolchainError{Spec: spec}
		}
		return Toolchain{Name: name, Version: version}, nil
	}
	return Toolchain{}, &UnsupportedToolchainError{Spec: spec}
}

// scalarString renders a scalar declaration element as a string. Versions
// decode as numbers when unquoted in the source.
func scalarString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case int, int64, uint64, float64, bool:
		return fmt.Sprintf("%v", s)
	}
	return ""
}
