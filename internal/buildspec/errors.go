package buildspec

import (
	"fmt"
	"sort"
	"strings"
)

// UnknownParameterError reports access to a parameter the merged schema
// does not know.
type UnknownParameterError struct {
	Key string
}

func (e *UnknownParameterError) Error() string {
	return fmt.Sprintf("unknown buildspec parameter %q", e.Key)
}

// MissingMandatoryError reports every mandatory parameter absent from a
// buildspec, collected as one batch.
type MissingMandatoryError struct {
	Path    string
	Missing []string
}

func (e *MissingMandatoryError) Error() string {
	return fmt.Sprintf("mandatory parameters not provided in %s: %s",
		e.Path, strings.Join(e.Missing, ", "))
}

// TypoSuggestion pairs an unknown key with the known parameter it most
// closely resembles.
type TypoSuggestion struct {
	Key        string
	Suggestion string
	Score      float64
}

// TypoError reports unknown keys that closely match known parameter names,
// collected as one batch.
type TypoError struct {
	Suggestions []TypoSuggestion
}

func (e *TypoError) Error() string {
	parts := make([]string, len(e.Suggestions))
	for i, s := range e.Suggestions {
		parts[i] = fmt.Sprintf("%s (did you mean %q?)", s.Key, s.Suggestion)
	}
	return "likely typos in buildspec parameters: " + strings.Join(parts, ", ")
}

// UnsupportedToolchainError reports a dependency toolchain declaration of an
// unrecognized shape.
type UnsupportedToolchainError struct {
	Spec any
}

func (e *UnsupportedToolchainError) Error() string {
	return fmt.Sprintf("unsupported toolchain specification: %v (%T)", e.Spec, e.Spec)
}

// MissingDependencyFieldError reports a dependency declaration whose name
// or version resolved to empty.
type MissingDependencyFieldError struct {
	Fields []string
	Raw    any
}

func (e *MissingDependencyFieldError) Error() string {
	return fmt.Sprintf("dependency %v is missing field(s): %s", e.Raw, strings.Join(e.Fields, ", "))
}

// UnreconciledHiddenDependencyError reports hidden dependencies without a
// matching entry in the plain dependency list.
type UnreconciledHiddenDependencyError struct {
	Faulty  []string
	Visible []string
}

func (e *UnreconciledHiddenDependencyError) Error() string {
	return fmt.Sprintf("hidden dependencies with no matching dependency: %s (dependencies: %s)",
		strings.Join(e.Faulty, ", "), strings.Join(e.Visible, ", "))
}

// EnumViolation is one parameter whose value is outside its allowed list.
type EnumViolation struct {
	Param   string
	Value   any
	Allowed []string
}

// InvalidEnumValueError reports all enumerated-value violations found in one
// validation pass.
type InvalidEnumValueError struct {
	Violations []EnumViolation
}

func (e *InvalidEnumValueError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = fmt.Sprintf("%s=%v (allowed: %s)", v.Param, v.Value, strings.Join(v.Allowed, ", "))
	}
	return "invalid parameter values: " + strings.Join(parts, "; ")
}

// MissingOSDependencyError reports OS dependencies for which no candidate
// package was found on the host.
type MissingOSDependencyError struct {
	Missing [][]string
}

func (e *MissingOSDependencyError) Error() string {
	parts := make([]string, len(e.Missing))
	for i, alts := range e.Missing {
		parts[i] = strings.Join(alts, "|")
	}
	return "required OS packages not found: " + strings.Join(parts, ", ")
}

// SkipStepsTypeError reports a skipsteps value that is not a sequence.
type SkipStepsTypeError struct {
	Value any
}

func (e *SkipStepsTypeError) Error() string {
	return fmt.Sprintf("invalid skipsteps value %v (%T): not a list", e.Value, e.Value)
}

// InconsistentIterateLengthsError reports iterated option parameters whose
// list lengths disagree.
type InconsistentIterateLengthsError struct {
	Lengths map[string]int
}

func (e *InconsistentIterateLengthsError) Error() string {
	parts := make([]string, 0, len(e.Lengths))
	for name, length := range e.Lengths {
		parts = append(parts, fmt.Sprintf("%s:%d", name, length))
	}
	sort.Strings(parts)
	return "lists of iterated build options have inconsistent lengths: " + strings.Join(parts, ", ")
}

// InvalidLicenseError reports a software_license value of the wrong type or
// a missing mandatory license. Unknown license names surface as a
// license.UnknownLicenseError instead.
type InvalidLicenseError struct {
	Value  any
	Reason string
}

func (e *InvalidLicenseError) Error() string {
	return fmt.Sprintf("invalid software license %v: %s", e.Value, e.Reason)
}
