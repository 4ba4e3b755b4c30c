package naming

import "strings"

// HierarchicalSchemeName selects the hierarchical naming scheme.
const HierarchicalSchemeName = "hierarchical"

// coreSubdir is where toolchain-independent modules live in a hierarchy.
const coreSubdir = "Core"

// HierarchicalScheme organizes modules by the toolchain they were built
// with: system-toolchain modules live under Core, everything else under
// Compiler/<toolchain name>/<toolchain version>. Compiler and MPI modules
// extend the modulepath so their dependants become visible only after
// loading them. Toolchain modules are not exposed directly, so toolchain
// loads are expanded to loads of the toolchain's dependencies.
type HierarchicalScheme struct{}

// ShortModuleName strips the toolchain qualifier: the subdirectory already
// encodes it.
func (HierarchicalScheme) ShortModuleName(s Subject) (string, error) {
	return StringValue(s, "name") + "/" + StringValue(s, "version") + StringValue(s, "versionsuffix"), nil
}

// ModuleSubdir places the module by its toolchain.
func (HierarchicalScheme) ModuleSubdir(s Subject) (string, error) {
	if UsesSystemToolchain(s) {
		return coreSubdir, nil
	}
	tcName, tcVersion, _ := ToolchainOf(s)
	return "Compiler/" + tcName + "/" + tcVersion, nil
}

// FullModuleName is the subdirectory joined with the short name.
func (h HierarchicalScheme) FullModuleName(s Subject) (string, error) {
	subdir, err := h.ModuleSubdir(s)
	if err != nil {
		return "", err
	}
	short, err := h.ShortModuleName(s)
	if err != nil {
		return "", err
	}
	return subdir + "/" + short, nil
}

// SymlinkPaths is empty: a hierarchy relies on modpath extensions instead.
func (HierarchicalScheme) SymlinkPaths(Subject) ([]string, error) { return nil, nil }

// ModpathExtensions makes compiler and MPI installations open up their own
// branch of the module hierarchy.
func (HierarchicalScheme) ModpathExtensions(s Subject) ([]string, error) {
	name := StringValue(s, "name")
	version := StringValue(s, "version") + StringValue(s, "versionsuffix")
	switch StringValue(s, "moduleclass") {
	case "compiler":
		return []string{"Compiler/" + name + "/" + version}, nil
	case "mpi":
		tcName, tcVersion, ok := ToolchainOf(s)
		if !ok {
			tcName, tcVersion = SystemToolchainName, SystemToolchainVersion
		}
		return []string{"MPI/" + tcName + "/" + tcVersion + "/" + name + "/" + version}, nil
	}
	return nil, nil
}

// InitModulePaths starts every session at the Core level.
func (HierarchicalScheme) InitModulePaths(Subject) ([]string, error) {
	return []string{coreSubdir}, nil
}

// ExpandToolchainLoad is true: toolchains are not user-visible in a
// hierarchy, so their loads become loads of their dependencies.
func (HierarchicalScheme) ExpandToolchainLoad() bool { return true }

// IsShortNameFor checks that the short name is rooted at the software name.
func (HierarchicalScheme) IsShortNameFor(shortName, softwareName string) bool {
	return shortName == softwareName || strings.HasPrefix(shortName, softwareName+"/")
}

// RequiresToolchainDetails is true: placement decisions need the module
// class and toolchain internals of a fully parsed buildspec.
func (HierarchicalScheme) RequiresToolchainDetails() bool { return true }

// Sufficient requires the module class on top of the identity fields.
func (HierarchicalScheme) Sufficient(keys []string) bool {
	for _, key := range keys {
		if key == "moduleclass" {
			return true
		}
	}
	return false
}
