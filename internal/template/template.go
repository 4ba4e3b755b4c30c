// Package template expands %(name)s-style placeholders inside buildspec
// parameter values, using a context derived from already-resolved
// parameters. Substitution is lenient: a placeholder that cannot be
// resolved is logged and the value is passed through untouched, so
// downstream consumers still see the literal placeholder for diagnostics.
package template

import (
	"fmt"
	"log/slog"
	"regexp"
)

// placeholderRun matches the remainder of a string that still leads into a
// %(name)s placeholder, possibly through more percent signs.
var placeholderRun = regexp.MustCompile(`^%*\(\w+\)s`)

// placeholder matches a single %(name)s placeholder at the start of a string.
var placeholder = regexp.MustCompile(`^%\((\w+)\)s`)

// MissingKeyError reports a placeholder whose key is absent from the context.
type MissingKeyError struct {
	Key string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("template key %q not defined", e.Key)
}

// Resolve substitutes placeholders throughout a value. Strings are
// resolved directly; slices are rebuilt element-wise, mappings are resolved
// over their values with keys preserved. Any other type passes through
// unchanged. Substitution failures are logged on logger and leave the
// affected string as-is.
func Resolve(value any, ctx map[string]string, logger *slog.Logger) any {
	switch v := value.(type) {
	case string:
		return ResolveString(v, ctx, logger)
	case []string:
		out := make([]string, len(v))
		for i, elem := range v {
			out[i] = ResolveString(elem, ctx, logger)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			out[i] = Resolve(elem, ctx, logger)
		}
		return out
	case map[string]string:
		out := make(map[string]string, len(v))
		for key, elem := range v {
			out[key] = ResolveString(elem, ctx, logger)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, elem := range v {
			out[key] = Resolve(elem, ctx, logger)
		}
		return out
	default:
		return value
	}
}

// ResolveString substitutes placeholders in a single string. Literal percent
// signs are preserved: a '%' is escaped to '%%' everywhere except when it
// opens an odd run of percent signs leading into a %(name)s placeholder, so
// '%(name)s' substitutes, '%%(name)s' yields the literal '%(name)s', and
// '10%' stays '10%'. On any substitution failure the input is returned
// unchanged and a warning is logged.
func ResolveString(s string, ctx map[string]string, logger *slog.Logger) string {
	resolved, err := interpolate(escapePercents(s), ctx)
	if err != nil {
		if logger != nil {
			logger.Warn("unable to resolve template value", "value", s, "error", err)
		}
		return s
	}
	return resolved
}

// escapePercents doubles every '%' that does not lead into a %(name)s
// placeholder, so interpolate treats it as a literal.
func escapePercents(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		out = append(out, s[i])
		if s[i] == '%' && !placeholderRun.MatchString(s[i+1:]) {
			out = append(out, '%')
		}
	}
	return string(out)
}

// interpolate performs the actual substitution over an escaped string:
// '%%' becomes a literal '%', '%(key)s' is replaced from the context.
func interpolate(s string, ctx map[string]string) (string, error) {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); {
		if s[i] != '%' {
			out = append(out, s[i])
			i++
			continue
		}
		if i+1 < len(s) && s[i+1] == '%' {
			out = append(out, '%')
			i += 2
			continue
		}
		m := placeholder.FindStringSubmatch(s[i:])
		if m == nil {
			return "", fmt.Errorf("stray %% at offset %d", i)
		}
		value, ok := ctx[m[1]]
		if !ok {
			return "", &MissingKeyError{Key: m[1]}
		}
		out = append(out, value...)
		i += len(m[0])
	}
	return string(out), nil
}
