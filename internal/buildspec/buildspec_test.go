package buildspec

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgelabs/modforge/internal/builders"
	"github.com/forgelabs/modforge/internal/naming"
	"github.com/forgelabs/modforge/internal/schema"
)

const sampleSpec = `name: zlib
version: "1.2.8"
homepage: http://www.zlib.net/
description: zlib is a compression library
toolchain: {name: GCC, version: "4.8.2"}
sources: ["%(namelower)s-%(version)s.tar.gz"]
dependencies:
  - [ncurses, "5.9"]
  - {name: Java, version: "1.8.0_25", system: true}
builddependencies:
  - [CMake, "3.0.0"]
moduleclass: lib
`

func testOptions() Options {
	return Options{
		Path:     "zlib-1.2.8.eb",
		Builders: builders.DefaultRegistry(),
		Naming:   naming.NewService(naming.FlatSchemeName, naming.DefaultRegistry(), nil, nil),
	}
}

func parseSample(t *testing.T, source string, opts Options) *BuildSpec {
	t.Helper()
	b, err := New([]byte(source), opts)
	require.NoError(t, err)
	return b
}

func TestParseSeedsDefaultsAndValues(t *testing.T) {
	b := parseSample(t, sampleSpec, testOptions())

	assert.Equal(t, "zlib", b.Name())
	assert.Equal(t, "1.2.8", b.Version())

	mc, err := b.Get("moduleclass")
	require.NoError(t, err)
	assert.Equal(t, "lib", mc)

	// untouched parameters keep their schema default
	stop, err := b.Get("stop")
	require.NoError(t, err)
	assert.Equal(t, "", stop)
}

func TestMissingMandatoryBatched(t *testing.T) {
	_, err := New([]byte("name: zlib\nversion: \"1.2.8\"\n"), testOptions())

	var missing *MissingMandatoryError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"description", "homepage", "toolchain"}, missing.Missing)
}

func TestTypoDetection(t *testing.T) {
	source := sampleSpec + "versionsufix: \"-test\"\ndependancies: []\n"
	_, err := New([]byte(source), testOptions())

	var typos *TypoError
	require.ErrorAs(t, err, &typos)
	require.Len(t, typos.Suggestions, 2)
	assert.Equal(t, "dependancies", typos.Suggestions[0].Key)
	assert.Equal(t, "dependencies", typos.Suggestions[0].Suggestion)
	assert.Equal(t, "versionsufix", typos.Suggestions[1].Key)
	assert.Equal(t, "versionsuffix", typos.Suggestions[1].Suggestion)
}

func TestReplacedParameterIsFatal(t *testing.T) {
	source := sampleSpec + "makeopts: \"-j4\"\n"
	_, err := New([]byte(source), testOptions())

	var replaced *schema.ReplacedParameterError
	require.ErrorAs(t, err, &replaced)
	assert.Equal(t, "buildopts", replaced.Replacement)
}

func TestDeprecatedParameterIsRewritten(t *testing.T) {
	source := sampleSpec + "sanity_check_dirs: {files: [lib/libz.a]}\n"
	b := parseSample(t, source, testOptions())

	v, err := b.RawValue("sanity_check_paths")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"files": []any{"lib/libz.a"}}, v)
}

func TestUnknownParameterIgnored(t *testing.T) {
	source := sampleSpec + "totally_unrelated_key: 42\n"
	b := parseSample(t, source, testOptions())

	assert.False(t, b.Contains("totally_unrelated_key"))
}

func TestToolchainInheritance(t *testing.T) {
	b := parseSample(t, sampleSpec, testOptions())
	deps := b.Dependencies()
	require.Len(t, deps, 3)

	ncurses := deps[0]
	assert.Equal(t, "ncurses", ncurses.Name)
	assert.Equal(t, Toolchain{Name: "GCC", Version: "4.8.2"}, ncurses.Toolchain)
	assert.False(t, ncurses.System)
	assert.Equal(t, "ncurses/5.9-GCC-4.8.2", ncurses.FullModName)

	java := deps[1]
	assert.True(t, java.System)
	assert.Equal(t, SystemToolchain, java.Toolchain)
	assert.Equal(t, "Java/1.8.0_25", java.FullModName)

	cmake := deps[2]
	assert.True(t, cmake.Build)
}

func TestDependencyFilter(t *testing.T) {
	opts := testOptions()
	opts.Policy.FilterDeps = []string{"CMake"}
	b := parseSample(t, sampleSpec, opts)

	assert.Len(t, b.Dependencies(), 2)
	assert.Equal(t, 1, b.FilteredDependencyCount())
	assert.Empty(t, b.BuildDependencies())
}

func TestHiddenDependencySupersedesPlain(t *testing.T) {
	source := sampleSpec + "hiddendependencies:\n  - [ncurses, \"5.9\"]\n"
	b := parseSample(t, source, testOptions())

	deps := b.Dependencies()
	var ncurses []*Dependency
	for _, dep := range deps {
		if dep.Name == "ncurses" {
			ncurses = append(ncurses, dep)
		}
	}
	require.Len(t, ncurses, 1, "plain entry must be removed, hidden entry remains")
	assert.True(t, ncurses[0].Hidden)
	assert.Equal(t, "ncurses/.5.9-GCC-4.8.2", ncurses[0].FullModName)
}

func TestHiddenDependencyWithoutMatchFails(t *testing.T) {
	source := sampleSpec + "hiddendependencies:\n  - [libxml2, \"2.9.1\"]\n"
	_, err := New([]byte(source), testOptions())

	var unreconciled *UnreconciledHiddenDependencyError
	require.ErrorAs(t, err, &unreconciled)
	assert.Equal(t, []string{"libxml2/2.9.1-GCC-4.8.2"}, unreconciled.Faulty)
	assert.Contains(t, unreconciled.Visible, "ncurses/5.9-GCC-4.8.2")
}

func TestTemplateValues(t *testing.T) {
	b := parseSample(t, sampleSpec, testOptions())

	sources, err := b.Get("sources")
	require.NoError(t, err)
	assert.Equal(t, []any{"zlib-1.2.8.tar.gz"}, sources)

	raw, err := b.RawValue("sources")
	require.NoError(t, err)
	assert.Equal(t, []any{"%(namelower)s-%(version)s.tar.gz"}, raw, "raw view keeps placeholders")

	ctx := b.TemplateContext()
	assert.Equal(t, "1.2", ctx["version_major_minor"])
	assert.Equal(t, "GCC", ctx["toolchain_name"])
}

func TestOverridesNarrowRawValues(t *testing.T) {
	opts := testOptions()
	opts.Overrides = map[string]any{"version": "1.2.11"}
	b := parseSample(t, sampleSpec, opts)

	assert.Equal(t, "1.2.11", b.Version())
}

func TestSetGetContains(t *testing.T) {
	b := parseSample(t, sampleSpec, testOptions())

	require.NoError(t, b.Set("buildopts", "-j 8"))
	v, err := b.Get("buildopts")
	require.NoError(t, err)
	assert.Equal(t, "-j 8", v)

	assert.True(t, b.Contains("buildopts"))
	assert.False(t, b.Contains("makeopts"), "replaced keys are never contained")

	_, err = b.Get("no_such_parameter")
	var unknown *UnknownParameterError
	assert.ErrorAs(t, err, &unknown)
}

func TestUpdateAppends(t *testing.T) {
	b := parseSample(t, sampleSpec, testOptions())

	require.NoError(t, b.Set("configopts", "--enable-shared"))
	require.NoError(t, b.Update("configopts", "--static"))

	v, err := b.Get("configopts")
	require.NoError(t, err)
	assert.Equal(t, "--enable-shared --static ", v)

	require.NoError(t, b.Update("patches", []string{"fix.patch"}))
	patches, err := b.Get("patches")
	require.NoError(t, err)
	assert.Equal(t, []any{"fix.patch"}, patches)
}

func TestCopyIsIndependent(t *testing.T) {
	b := parseSample(t, sampleSpec, testOptions())

	dup, err := b.Copy()
	require.NoError(t, err)

	require.NoError(t, dup.Set("version", "9.9.9"))
	dup.Dependencies()[0].Name = "mutated"

	assert.Equal(t, "1.2.8", b.Version())
	assert.Equal(t, "ncurses", b.Dependencies()[0].Name)
}

func TestModuleNames(t *testing.T) {
	b := parseSample(t, sampleSpec, testOptions())

	full, err := b.FullModuleName()
	require.NoError(t, err)
	assert.Equal(t, "zlib/1.2.8-GCC-4.8.2", full)

	short, err := b.ShortModuleName()
	require.NoError(t, err)
	assert.Equal(t, full, short)

	devel, err := b.DevelModuleName()
	require.NoError(t, err)
	assert.Equal(t, "zlib-1.2.8-GCC-4.8.2-modforge-devel", devel)
}

func TestHiddenModuleName(t *testing.T) {
	opts := testOptions()
	opts.Hidden = true
	b := parseSample(t, sampleSpec, opts)

	full, err := b.FullModuleName()
	require.NoError(t, err)
	assert.Equal(t, "zlib/.1.2.8-GCC-4.8.2", full)
}

func TestExportSystemDeps(t *testing.T) {
	t.Setenv("MODFORGE_ROOT_JAVA", "")
	t.Setenv("MODFORGE_VERSION_JAVA", "")

	source := sampleSpec + "allow_system_deps:\n  - [Java, \"1.8\"]\n"
	b := parseSample(t, source, testOptions())

	require.NoError(t, b.ExportSystemDeps())
	assert.Equal(t, "Java", os.Getenv("MODFORGE_ROOT_JAVA"))
	assert.Equal(t, "1.8", os.Getenv("MODFORGE_VERSION_JAVA"))
}

func TestDumpRoundTrip(t *testing.T) {
	opts := testOptions()
	opts.Validate = true
	opts.Policy.ValidModuleClasses = []string{"base", "lib", "compiler"}
	b := parseSample(t, sampleSpec, opts)

	dumped, err := b.Dump()
	require.NoError(t, err)

	again, err := New(dumped, opts)
	require.NoError(t, err)

	assert.Equal(t, b.Name(), again.Name())
	assert.Equal(t, b.Version(), again.Version())
	assert.Len(t, again.Dependencies(), len(b.Dependencies()))

	full, err := b.FullModuleName()
	require.NoError(t, err)
	fullAgain, err := again.FullModuleName()
	require.NoError(t, err)
	assert.Equal(t, full, fullAgain)
}

func TestDumpOmitsDefaults(t *testing.T) {
	b := parseSample(t, sampleSpec, testOptions())

	dumped, err := b.Dump()
	require.NoError(t, err)

	assert.NotContains(t, string(dumped), "stop:")
	assert.NotContains(t, string(dumped), "hidden:")
	assert.Contains(t, string(dumped), `name: "zlib"`)
}

func TestDependencyParamsReportResolvedRecords(t *testing.T) {
	b := parseSample(t, sampleSpec, testOptions())

	v, err := b.Get("dependencies")
	require.NoError(t, err)
	deps, ok := v.([]*Dependency)
	require.True(t, ok, "dependencies parameter should hold the resolved records, got %T", v)
	require.Len(t, deps, 2)
	assert.Equal(t, "ncurses", deps[0].Name)
	assert.Equal(t, "Java", deps[1].Name)

	v, err = b.Get("builddependencies")
	require.NoError(t, err)
	buildDeps, ok := v.([]*Dependency)
	require.True(t, ok)
	require.Len(t, buildDeps, 1)
	assert.Equal(t, "CMake", buildDeps[0].Name)

	asMap := b.AsMap()
	assert.Equal(t, b.deps, asMap["dependencies"])
}

func TestDumpQuotingStyles(t *testing.T) {
	b := parseSample(t, sampleSpec, testOptions())
	require.NoError(t, b.Set("configopts", `--with-msg="hello world"`))
	require.NoError(t, b.Set("buildopts", `--with-both="it's quoted"`))

	dumped, err := b.Dump()
	require.NoError(t, err)

	// double quotes alone switch to single-quoting; mixed quotes stay
	// double-quoted with escapes
	assert.Contains(t, string(dumped), `configopts: '--with-msg="hello world"'`)
	assert.Contains(t, string(dumped), `buildopts: "--with-both=\"it's quoted\""`)
}

func TestBuilderExtraOptionsMerged(t *testing.T) {
	source := "easyblock: PythonPackage\n" + sampleSpec
	b := parseSample(t, source, testOptions())

	v, err := b.Get("use_pip")
	require.NoError(t, err)
	assert.Equal(t, false, v)
}
