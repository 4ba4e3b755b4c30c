package buildspec

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// dumpGroups fixes the section order of a dumped buildspec. Parameters not
// listed here follow in sorted order, with moduleclass last.
var dumpGroups = [][]string{
	{"easyblock"},
	{"name", "version", "versionprefix", "versionsuffix"},
	{"homepage", "description"},
	{"toolchain", "toolchainopts"},
	{"source_urls", "sources", "patches", "checksums"},
	{"builddependencies", "dependencies", "hiddendependencies"},
	{"osdependencies"},
	{"parallel", "maxparallel"},
}

// Dump serializes the buildspec back into source form: parameters grouped
// into fixed sections, emitting only values that differ from the schema
// default, with raw (untemplated) values so placeholders survive the round
// trip. Re-resolving the dump yields the same name, version, dependencies
// and module name.
func (b *BuildSpec) Dump() ([]byte, error) {
	var sb strings.Builder

	grouped := make(map[string]bool)
	for _, group := range dumpGroups {
		var lines []string
		for _, key := range group {
			grouped[key] = true
			line, ok, err := b.dumpParam(key)
			if err != nil {
				return nil, err
			}
			if ok {
				lines = append(lines, line)
			}
		}
		if len(lines) > 0 {
			sb.WriteString(strings.Join(lines, ""))
			sb.WriteString("\n")
		}
	}

	var rest []string
	for key := range b.params {
		if !grouped[key] && key != "moduleclass" {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)

	var lines []string
	for _, key := range rest {
		line, ok, err := b.dumpParam(key)
		if err != nil {
			return nil, err
		}
		if ok {
			lines = append(lines, line)
		}
	}
	if len(lines) > 0 {
		sb.WriteString(strings.Join(lines, ""))
		sb.WriteString("\n")
	}

	if line, ok, err := b.dumpParam("moduleclass"); err != nil {
		return nil, err
	} else if ok {
		sb.WriteString(line)
	}

	return []byte(strings.TrimRight(sb.String(), "\n") + "\n"), nil
}

// dumpParam renders one parameter as YAML lines, or reports that it matches
// the schema default and is omitted.
func (b *BuildSpec) dumpParam(key string) (string, bool, error) {
	e, ok := b.params[key]
	if !ok {
		return "", false, nil
	}

	switch key {
	case "dependencies":
		// Hidden dependencies supersede their plain declarations during
		// resolution, so the plain list is re-widened here to keep the
		// dump re-resolvable.
		return dumpDeps(key, append(append([]*Dependency{}, b.deps...), b.hiddenDeps...)), len(b.deps)+len(b.hiddenDeps) > 0, nil
	case "builddependencies":
		return dumpDeps(key, b.buildDeps), len(b.buildDeps) > 0, nil
	case "hiddendependencies":
		return dumpDeps(key, b.hiddenDeps), len(b.hiddenDeps) > 0, nil
	}

	if reflect.DeepEqual(e.Value, b.defaults[key]) || e.Value == nil {
		return "", false, nil
	}

	switch v := e.Value.(type) {
	case string:
		if strings.Contains(v, "\n") {
			return key + ": |-\n  " + strings.ReplaceAll(v, "\n", "\n  ") + "\n", true, nil
		}
		return key + ": " + quoteString(v) + "\n", true, nil
	case bool, int, int64, uint64, float64:
		return fmt.Sprintf("%s: %v\n", key, v), true, nil
	case []any:
		if len(v) == 0 {
			return "", false, nil
		}
		if flow, ok := flowList(v); ok {
			return key + ": " + flow + "\n", true, nil
		}
	case map[string]any:
		if len(v) == 0 {
			return "", false, nil
		}
	}

	data, err := yaml.Marshal(map[string]any{key: e.Value})
	if err != nil {
		return "", false, fmt.Errorf("dumping parameter %q: %w", key, err)
	}
	return string(data), true, nil
}

// flowList renders a list of scalars in flow style; non-scalar elements fall
// back to the generic YAML encoder.
func flowList(list []any) (string, bool) {
	parts := make([]string, len(list))
	for i, elem := range list {
		switch v := elem.(type) {
		case string:
			if strings.Contains(v, "\n") {
				return "", false
			}
			parts[i] = quoteString(v)
		case bool, int, int64, uint64, float64:
			parts[i] = fmt.Sprintf("%v", v)
		default:
			return "", false
		}
	}
	return "[" + strings.Join(parts, ", ") + "]", true
}

// dumpDeps renders a dependency list as one flow mapping per line.
func dumpDeps(key string, deps []*Dependency) string {
	if len(deps) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(key + ":\n")
	for _, dep := range deps {
		fields := []string{
			"name: " + quoteString(dep.Name),
			"version: " + quoteString(dep.Version),
		}
		if dep.VersionSuffix != "" {
			fields = append(fields, "versionsuffix: "+quoteString(dep.VersionSuffix))
		}
		if dep.System {
			fields = append(fields, "system: true")
		} else {
			fields = append(fields, fmt.Sprintf("toolchain: {name: %s, version: %s}",
				quoteString(dep.Toolchain.Name), quoteString(dep.Toolchain.Version)))
		}
		sb.WriteString("  - {" + strings.Join(fields, ", ") + "}\n")
	}
	return sb.String()
}

// quoteString applies the quoting rules for dumped scalars: strings holding
// a double quote are single-quoted, everything else is double-quoted.
func quoteString(s string) string {
	if strings.Contains(s, `"`) && !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
