package template

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveString(t *testing.T) {
	ctx := map[string]string{"name": "x", "version": "1.2"}

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain string untouched", input: "hello", want: "hello"},
		{name: "placeholder substitutes", input: "%(name)s", want: "x"},
		{name: "placeholder inside text", input: "pkg-%(name)s-%(version)s", want: "pkg-x-1.2"},
		{name: "literal percent preserved", input: "10%", want: "10%"},
		{name: "lone percent s preserved", input: "%s", want: "%s"},
		{name: "double percent preserved", input: "%%", want: "%%"},
		{name: "escaped placeholder stays literal", input: "%%(name)s", want: "%(name)s"},
		{name: "triple percent placeholder", input: "%%%(name)s", want: "%x"},
		{name: "quadruple percent placeholder", input: "%%%%(name)s", want: "%%(name)s"},
		{name: "empty string", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveString(tt.input, ctx, nil))
		})
	}
}

func TestResolveStringIdempotent(t *testing.T) {
	ctx := map[string]string{"name": "x"}

	// A value with no remaining placeholders must resolve to itself.
	for _, input := range []string{"x", "10%", "configure --prefix=%s"} {
		once := ResolveString(input, ctx, nil)
		twice := ResolveString(once, ctx, nil)
		assert.Equal(t, once, twice, "resolving %q twice", input)
	}
}

func TestResolveStringMissingKeyIsLenient(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	got := ResolveString("prefix-%(nosuchkey)s", map[string]string{}, logger)

	assert.Equal(t, "prefix-%(nosuchkey)s", got, "failed substitution returns the input unchanged")
	assert.Contains(t, buf.String(), "unable to resolve template value")
}

func TestResolveRecursesIntoValues(t *testing.T) {
	ctx := map[string]string{"name": "zlib", "version": "1.2.8"}

	value := map[string]any{
		"files": []any{"%(name)s-%(version)s.tar.gz", 42},
		"dirs":  []string{"lib/%(name)s"},
		"nested": map[string]any{
			"url": "http://example.org/%(name)s",
		},
	}

	got, ok := Resolve(value, ctx, nil).(map[string]any)
	require.True(t, ok)

	files, ok := got["files"].([]any)
	require.True(t, ok)
	assert.Equal(t, "zlib-1.2.8.tar.gz", files[0])
	assert.Equal(t, 42, files[1], "non-string elements pass through")

	dirs, ok := got["dirs"].([]string)
	require.True(t, ok)
	assert.Equal(t, []string{"lib/zlib"}, dirs)

	nested, ok := got["nested"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "http://example.org/zlib", nested["url"])

	// the input must not be mutated
	assert.Equal(t, "%(name)s-%(version)s.tar.gz", value["files"].([]any)[0])
}

func TestResolveNonContainerPassthrough(t *testing.T) {
	assert.Equal(t, 7, Resolve(7, nil, nil))
	assert.Equal(t, true, Resolve(true, nil, nil))
	assert.Nil(t, Resolve(nil, nil, nil))
}

func TestBuildContext(t *testing.T) {
	params := map[string]any{
		"name":          "GCC",
		"version":       "4.8.2",
		"versionsuffix": "-test",
		"toolchain":     map[string]any{"name": "system", "version": "system"},
	}

	ctx := BuildContext(params, false)

	assert.Equal(t, "GCC", ctx["name"])
	assert.Equal(t, "4.8.2", ctx["version"])
	assert.Equal(t, "4", ctx["version_major"])
	assert.Equal(t, "8", ctx["version_minor"])
	assert.Equal(t, "4.8", ctx["version_major_minor"])
	assert.Equal(t, "-test", ctx["versionsuffix"])
	assert.Equal(t, "system", ctx["toolchain_name"])
	assert.Equal(t, "gcc", ctx["namelower"])
	assert.Equal(t, "g", ctx["nameletter"])
}

func TestBuildContextSkipLower(t *testing.T) {
	params := map[string]any{"name": "GCC", "version": "4.8.2"}

	ctx := BuildContext(params, true)

	_, hasLower := ctx["namelower"]
	_, hasLetter := ctx["nameletter"]
	assert.False(t, hasLower, "skipLower must omit namelower")
	assert.False(t, hasLetter, "skipLower must omit nameletter")
	assert.Equal(t, "GCC", ctx["name"])
}

func TestBuildContextNumericVersion(t *testing.T) {
	// an unquoted version like 2016 decodes as an int
	ctx := BuildContext(map[string]any{"name": "Bison", "version": 3}, true)
	assert.Equal(t, "3", ctx["version"])
}

func TestBuildContextEmptyParams(t *testing.T) {
	ctx := BuildContext(map[string]any{}, false)
	assert.Empty(t, ctx)
}
