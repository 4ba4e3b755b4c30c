package naming

import "strings"

// FlatSchemeName selects the default flat naming scheme.
const FlatSchemeName = "flat"

// FlatScheme is the default naming scheme: every module lives directly
// under the module root as <name>/<effective version>, so full and short
// names coincide and no modulepath extensions are needed.
type FlatScheme struct{}

// requiredKeys are the parameters FlatScheme needs from a subject.
var flatRequiredKeys = []string{"name", "version", "versionsuffix", "toolchain"}

// FullModuleName derives <name>/<effective version>.
func (FlatScheme) FullModuleName(s Subject) (string, error) {
	return StringValue(s, "name") + "/" + EffectiveVersion(s), nil
}

// ShortModuleName coincides with the full module name under a flat layout.
func (f FlatScheme) ShortModuleName(s Subject) (string, error) {
	return f.FullModuleName(s)
}

// ModuleSubdir is empty: all modules live at the root.
func (FlatScheme) ModuleSubdir(Subject) (string, error) { return "", nil }

// SymlinkPaths is empty for the flat scheme.
func (FlatScheme) SymlinkPaths(Subject) ([]string, error) { return nil, nil }

// ModpathExtensions is empty: a flat layout never extends the modulepath.
func (FlatScheme) ModpathExtensions(Subject) ([]string, error) { return nil, nil }

// InitModulePaths returns the single root path.
func (FlatScheme) InitModulePaths(Subject) ([]string, error) { return []string{""}, nil }

// ExpandToolchainLoad is false: toolchain modules are visible to users.
func (FlatScheme) ExpandToolchainLoad() bool { return false }

// IsShortNameFor checks that the short name is rooted at the software name.
func (FlatScheme) IsShortNameFor(shortName, softwareName string) bool {
	return shortName == softwareName || strings.HasPrefix(shortName, softwareName+"/")
}

// RequiresToolchainDetails is false: the toolchain name/version pair on a
// dependency record is all the flat scheme ever needs.
func (FlatScheme) RequiresToolchainDetails() bool { return false }

// Sufficient reports whether the keys cover the flat scheme's inputs.
func (FlatScheme) Sufficient(keys []string) bool {
	have := make(map[string]bool, len(keys))
	for _, key := range keys {
		have[key] = true
	}
	for _, key := range flatRequiredKeys {
		if !have[key] {
			return false
		}
	}
	return true
}
