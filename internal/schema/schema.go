// Package schema defines the buildspec parameter schema: the table of
// recognized parameters with their defaults, documentation and category,
// plus the deprecation and replacement tables consulted on every keyed
// parameter access.
package schema

import (
	"fmt"
	"log/slog"
)

// Category classifies a parameter within the schema.
type Category int

const (
	// Optional parameters have a sensible default and may be omitted.
	Optional Category = iota
	// Mandatory parameters must be present in every buildspec.
	Mandatory
	// Custom parameters are supplied by a builder's extra options.
	Custom
	// Hidden parameters are internal bookkeeping, never user-facing.
	Hidden
)

// String returns the category name as used in documentation and dumps.
func (c Category) String() string {
	switch c {
	case Mandatory:
		return "mandatory"
	case Custom:
		return "custom"
	case Hidden:
		return "hidden"
	default:
		return "optional"
	}
}

// ParameterSpec describes a single recognized buildspec parameter.
type ParameterSpec struct {
	// Default is the value a buildspec gets when the parameter is omitted.
	Default any
	// Doc is a one-line description of the parameter.
	Doc string
	// Category classifies the parameter (mandatory, optional, ...).
	Category Category
}

// Deprecation maps a deprecated parameter to its replacement.
type Deprecation struct {
	// Replacement is the parameter name to use instead.
	Replacement string
	// Since is the release in which the parameter was deprecated.
	Since string
}

// MandatoryParams lists the parameters every buildspec must define,
// regardless of builder.
var MandatoryParams = []string{"name", "version", "homepage", "description", "toolchain"}

// IterateOptions lists the configure/build/install option parameters that
// may be given as equal-length lists for an iterated build.
var IterateOptions = []string{
	"preconfigopts", "configopts",
	"prebuildopts", "buildopts",
	"preinstallopts", "installopts",
}

// deprecatedParams maps deprecated parameter names to their replacements.
// Accessing one of these emits a deprecation warning and transparently
// rewrites the access to the replacement.
var deprecatedParams = map[string]Deprecation{
	"sanity_check_dirs": {Replacement: "sanity_check_paths", Since: "2.0"},
}

// replacedParams maps parameters that are no longer supported at all to
// the name that replaced them. Accessing one of these is always an error.
var replacedParams = map[string]string{
	"license":     "software_license",
	"makeopts":    "buildopts",
	"premakeopts": "prebuildopts",
}

// ReplacedParameterError reports use of a parameter that has been replaced
// and is no longer supported.
type ReplacedParameterError struct {
	Key         string
	Replacement string
}

func (e *ReplacedParameterError) Error() string {
	return fmt.Sprintf("buildspec parameter %q is replaced by %q", e.Key, e.Replacement)
}

// InvalidExtensionError reports a builder extra-options set of the wrong shape.
type InvalidExtensionError struct {
	Detail string
}

func (e *InvalidExtensionError) Error() string {
	return fmt.Sprintf("invalid builder extra options: %s", e.Detail)
}

// ResolveAlias applies the deprecation and replacement tables to a
// parameter key. A deprecated key is rewritten to its replacement after a
// warning is logged; a replaced key always fails. Every keyed accessor on
// a buildspec routes through this before touching the parameter table.
func ResolveAlias(key string, logger *slog.Logger) (string, error) {
	if dep, ok := deprecatedParams[key]; ok {
		if logger != nil {
			logger.Warn("deprecated buildspec parameter",
				"parameter", key, "replacement", dep.Replacement, "since", dep.Since)
		}
		key = dep.Replacement
	}
	if repl, ok := replacedParams[key]; ok {
		return "", &ReplacedParameterError{Key: key, Replacement: repl}
	}
	return key, nil
}

// IsDeprecated reports whether key is in the deprecated-parameter table.
func IsDeprecated(key string) bool {
	_, ok := deprecatedParams[key]
	return ok
}

// IsReplaced reports whether key is in the replaced-parameter table.
func IsReplaced(key string) bool {
	_, ok := replacedParams[key]
	return ok
}

// Merge returns the union of a schema and a set of builder extra options.
// Neither input is modified. Extra options with a nil documentation-free
// spec are rejected.
func Merge(base, extra map[string]ParameterSpec) (map[string]ParameterSpec, error) {
	merged := make(map[string]ParameterSpec, len(base)+len(extra))
	for name, spec := range base {
		merged[name] = spec
	}
	for name, spec := range extra {
		if name == "" {
			return nil, &InvalidExtensionError{Detail: "empty parameter name"}
		}
		if spec.Doc == "" {
			return nil, &InvalidExtensionError{Detail: fmt.Sprintf("parameter %q has no documentation", name)}
		}
		merged[name] = spec
	}
	return merged, nil
}
