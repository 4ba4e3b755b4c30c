package builders

import (
	"testing"

	"github.com/forgelabs/modforge/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupExplicitBuilder(t *testing.T) {
	r := DefaultRegistry()

	b, err := r.Lookup("CMakeMake", "irrelevant")
	require.NoError(t, err)
	assert.Equal(t, "CMakeMake", b.Name())

	_, ok := b.ExtraOptions()["separate_build_dir"]
	assert.True(t, ok)
}

func TestLookupUnknownBuilder(t *testing.T) {
	r := DefaultRegistry()

	_, err := r.Lookup("NoSuchBuilder", "GCC")
	var unknown *UnknownBuilderError
	require.ErrorAs(t, err, &unknown)
	assert.Contains(t, unknown.Available, "ConfigureMake")
}

func TestLookupBySoftwareName(t *testing.T) {
	r := DefaultRegistry()
	r.RegisterForSoftware("SciPy", PythonPackage{})

	b, err := r.Lookup("", "SciPy")
	require.NoError(t, err)
	assert.Equal(t, "PythonPackage", b.Name())
}

func TestLookupFallsBackToDefault(t *testing.T) {
	r := DefaultRegistry()

	b, err := r.Lookup("", "SomeRandomSoftware")
	require.NoError(t, err)
	assert.Equal(t, "ConfigureMake", b.Name())
}

func TestExtraOptionsMergeIntoSchema(t *testing.T) {
	b, err := DefaultRegistry().Lookup("PythonPackage", "")
	require.NoError(t, err)

	merged, err := schema.Merge(schema.Defaults(), b.ExtraOptions())
	require.NoError(t, err)
	assert.Equal(t, schema.Custom, merged["use_pip"].Category)
}
