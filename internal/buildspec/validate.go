package buildspec

import (
	"context"
	"slices"

	"github.com/forgelabs/modforge/internal/license"
	"github.com/forgelabs/modforge/internal/schema"
)

// Validate runs the validation steps in order: enumerated-value checks, the
// OS-dependency probe, the skipsteps type check, the iterate-option length
// check and the license check. Each step batches its own findings; the
// first failing step stops the rest.
func (b *BuildSpec) Validate() error {
	if err := b.validateEnums(); err != nil {
		return err
	}
	if b.policy.CheckOSDeps {
		if err := b.validateOSDeps(); err != nil {
			return err
		}
	}
	if err := b.validateSkipSteps(); err != nil {
		return err
	}
	if err := b.validateIterateOptions(); err != nil {
		return err
	}
	return b.validateLicense()
}

// validateEnums checks every constrained parameter against its allowed-value
// list. An empty allowed list means no constraint.
func (b *BuildSpec) validateEnums() error {
	constraints := []struct {
		param   string
		allowed []string
	}{
		{"moduleclass", b.policy.ValidModuleClasses},
		{"stop", b.policy.ValidStops},
	}

	var violations []EnumViolation
	for _, c := range constraints {
		if len(c.allowed) == 0 {
			continue
		}
		raw, err := b.RawValue(c.param)
		if err != nil {
			return err
		}
		value := scalarString(raw)
		if value == "" {
			continue
		}
		if !slices.Contains(c.allowed, value) {
			violations = append(violations, EnumViolation{Param: c.param, Value: value, Allowed: c.allowed})
		}
	}
	if len(violations) > 0 {
		return &InvalidEnumValueError{Violations: violations}
	}
	return nil
}

// validateOSDeps probes the host for every declared OS dependency. An entry
// is a single package name or a list of alternatives; it is satisfied when
// at least one candidate is present. Entirely-absent entries are collected
// and reported together.
func (b *BuildSpec) validateOSDeps() error {
	raw, err := b.RawValue("osdependencies")
	if err != nil {
		return err
	}
	entries, ok := raw.([]any)
	if !ok || len(entries) == 0 {
		return nil
	}
	if b.osProbe == nil {
		b.logger.Warn("no OS dependency prober configured, skipping check")
		return nil
	}

	ctx := context.Background()
	var missing [][]string
	for _, entry := range entries {
		var candidates []string
		switch v := entry.(type) {
		case string:
			candidates = []string{v}
		case []any:
			for _, alt := range v {
				candidates = append(candidates, scalarString(alt))
			}
		default:
			candidates = []string{scalarString(entry)}
		}

		found := false
		for _, name := range candidates {
			if b.osProbe.HasPackage(ctx, name) {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, candidates)
		}
	}
	if len(missing) > 0 {
		return &MissingOSDependencyError{Missing: missing}
	}
	return nil
}

// validateSkipSteps rejects a scalar skipsteps value.
func (b *BuildSpec) validateSkipSteps() error {
	raw, err := b.RawValue("skipsteps")
	if err != nil {
		return err
	}
	switch raw.(type) {
	case nil, []any, []string:
		return nil
	}
	return &SkipStepsTypeError{Value: raw}
}

// validateIterateOptions checks that every iterated option parameter given
// as a list longer than one element shares the same length. One-element
// lists behave like scalars applied to every iteration and are exempt.
func (b *BuildSpec) validateIterateOptions() error {
	lengths := make(map[string]int)
	for _, param := range schema.IterateOptions {
		raw, err := b.RawValue(param)
		if err != nil {
			return err
		}
		if list, ok := raw.([]any); ok && len(list) > 1 {
			lengths[param] = len(list)
		}
	}

	distinct := make(map[int]struct{})
	for _, length := range lengths {
		distinct[length] = struct{}{}
	}
	if len(distinct) > 1 {
		return &InconsistentIterateLengthsError{Lengths: lengths}
	}
	return nil
}

// validateLicense checks the software_license parameter against the license
// catalog. An unset license fails only when the parameter is mandatory; a
// non-string value fails distinctly from an unknown license name.
func (b *BuildSpec) validateLicense() error {
	raw, err := b.RawValue("software_license")
	if err != nil {
		return err
	}
	if raw == nil {
		if slices.Contains(b.mandatory, "software_license") {
			return &InvalidLicenseError{Value: nil, Reason: "mandatory software license not set"}
		}
		return nil
	}
	name, ok := raw.(string)
	if !ok {
		return &InvalidLicenseError{Value: raw, Reason: "expected a license name string"}
	}
	if _, err := license.Lookup(name); err != nil {
		return err
	}
	return nil
}
