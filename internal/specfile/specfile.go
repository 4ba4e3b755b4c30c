// Package specfile turns raw buildspec file bytes into a key/value mapping.
// Buildspec files are YAML documents; a single file may carry several
// independent blocks separated by the standard document separator. The rest
// of the system treats this package as a black box returning raw mappings.
package specfile

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Ext is the file extension for buildspec files.
const Ext = ".eb"

// ParseError reports a syntax problem in a buildspec source.
type ParseError struct {
	Path    string
	Message string
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// Parse decodes a single buildspec block into a raw parameter mapping and
// overlays the given build-spec overrides on top of it. The returned map
// uses the value types produced by the YAML decoder (string, int, bool,
// []any, map[string]any).
func Parse(raw []byte, overrides map[string]any) (map[string]any, error) {
	var params map[string]any
	if err := yaml.Unmarshal(raw, &params); err != nil {
		return nil, &ParseError{Message: fmt.Sprintf("invalid buildspec syntax: %v", err)}
	}
	if params == nil {
		params = map[string]any{}
	}
	for key, value := range overrides {
		params[key] = value
	}
	return params, nil
}

// FetchParameters performs a cheap pre-scan of a buildspec block for the
// given string parameters, without running the full resolution pipeline.
// Absent or non-string parameters yield an empty string.
func FetchParameters(raw []byte, keys []string) ([]string, error) {
	params, err := Parse(raw, nil)
	if err != nil {
		return nil, err
	}
	values := make([]string, len(keys))
	for i, key := range keys {
		if s, ok := params[key].(string); ok {
			values[i] = s
		}
	}
	return values, nil
}

// SplitBlocks splits a buildspec source into its independent blocks. A block
// boundary is a line consisting of the YAML document separator. When only is
// non-empty, just the blocks whose "name" parameter is listed are returned,
// in the requested order; a requested name with no matching block is an error.
func SplitBlocks(raw []byte, only []string) ([][]byte, error) {
	var blocks [][]byte
	var current []string
	flush := func() {
		joined := strings.Join(current, "\n")
		if strings.TrimSpace(joined) != "" {
			blocks = append(blocks, []byte(joined))
		}
		current = nil
	}
	for _, line := range strings.Split(string(raw), "\n") {
		if strings.TrimRight(line, " \t") == "---" {
			flush()
			continue
		}
		current = append(current, line)
	}
	flush()

	if len(only) == 0 {
		return blocks, nil
	}

	byName := make(map[string][]byte, len(blocks))
	for _, block := range blocks {
		values, err := FetchParameters(block, []string{"name"})
		if err != nil {
			return nil, err
		}
		if values[0] != "" {
			byName[values[0]] = block
		}
	}

	var selected [][]byte
	for _, name := range only {
		block, ok := byName[name]
		if !ok {
			return nil, &ParseError{Message: fmt.Sprintf("no block with name %q found", name)}
		}
		selected = append(selected, block)
	}
	return selected, nil
}
