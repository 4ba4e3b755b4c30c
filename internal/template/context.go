package template

import (
	"fmt"
	"strings"
)

// contextParams are the buildspec parameters that feed the template
// context directly, keyed by template name.
var contextParams = map[string]string{
	"name":          "name",
	"version":       "version",
	"versionprefix": "versionprefix",
	"versionsuffix": "versionsuffix",
}

// BuildContext derives a template context from a raw parameter mapping.
// With skipLower set, the trivial all-lowercase shortcut entries derived
// from other values (namelower, nameletter) are left out; callers run the
// derivation twice, first without and then with them, so the shortcuts can
// never shadow the richer values.
func BuildContext(params map[string]any, skipLower bool) map[string]string {
	ctx := make(map[string]string)

	for tmplName, param := range contextParams {
		if s := stringParam(params, param); s != "" {
			ctx[tmplName] = s
		}
	}

	if tc, ok := params["toolchain"].(map[string]any); ok {
		if s, ok := tc["name"].(string); ok && s != "" {
			ctx["toolchain_name"] = s
		}
		if s := anyToString(tc["version"]); s != "" {
			ctx["toolchain_version"] = s
		}
	}

	if version := ctx["version"]; version != "" {
		parts := strings.Split(version, ".")
		ctx["version_major"] = parts[0]
		if len(parts) > 1 {
			ctx["version_minor"] = parts[1]
			ctx["version_major_minor"] = parts[0] + "." + parts[1]
		}
	}

	if !skipLower {
		if name := ctx["name"]; name != "" {
			ctx["namelower"] = strings.ToLower(name)
			ctx["nameletter"] = strings.ToLower(name[:1])
		}
	}

	return ctx
}

func stringParam(params map[string]any, key string) string {
	return anyToString(params[key])
}

// anyToString renders a scalar parameter value for template use. Versions
// in particular may decode as numbers when unquoted in the source.
func anyToString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case int, int64, uint64, float64, bool:
		return fmt.Sprintf("%v", s)
	default:
		return ""
	}
}
