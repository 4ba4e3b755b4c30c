package specfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSpec = `
name: GCC
version: 4.8.2
homepage: https://gcc.gnu.org
description: The GNU Compiler Collection
toolchain: {name: system, version: system}
dependencies:
  - [zlib, 1.2.8]
`

func TestParse(t *testing.T) {
	params, err := Parse([]byte(sampleSpec), nil)
	require.NoError(t, err)

	assert.Equal(t, "GCC", params["name"])
	assert.Equal(t, "4.8.2", params["version"])

	tc, ok := params["toolchain"].(map[string]any)
	require.True(t, ok, "toolchain should decode to a mapping")
	assert.Equal(t, "system", tc["name"])

	deps, ok := params["dependencies"].([]any)
	require.True(t, ok)
	assert.Len(t, deps, 1)
}

func TestParseAppliesOverrides(t *testing.T) {
	params, err := Parse([]byte(sampleSpec), map[string]any{"version": "4.9.0", "parallel": 8})
	require.NoError(t, err)

	assert.Equal(t, "4.9.0", params["version"])
	assert.Equal(t, 8, params["parallel"])
}

func TestParseInvalidSyntax(t *testing.T) {
	_, err := Parse([]byte("name: [unbalanced"), nil)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
}

func TestParseEmptySource(t *testing.T) {
	params, err := Parse(nil, nil)
	require.NoError(t, err)
	assert.Empty(t, params)
}

func TestFetchParameters(t *testing.T) {
	values, err := FetchParameters([]byte(sampleSpec), []string{"name", "easyblock", "version"})
	require.NoError(t, err)
	assert.Equal(t, []string{"GCC", "", "4.8.2"}, values)
}

const multiBlockSpec = `name: GCC
version: 4.8.2
---
name: zlib
version: 1.2.8
---
name: binutils
version: "2.24"
`

func TestSplitBlocks(t *testing.T) {
	blocks, err := SplitBlocks([]byte(multiBlockSpec), nil)
	require.NoError(t, err)
	require.Len(t, blocks, 3)

	values, err := FetchParameters(blocks[1], []string{"name"})
	require.NoError(t, err)
	assert.Equal(t, "zlib", values[0])
}

func TestSplitBlocksSingleBlock(t *testing.T) {
	blocks, err := SplitBlocks([]byte(sampleSpec), nil)
	require.NoError(t, err)
	assert.Len(t, blocks, 1)
}

func TestSplitBlocksOnlyFilter(t *testing.T) {
	blocks, err := SplitBlocks([]byte(multiBlockSpec), []string{"binutils", "GCC"})
	require.NoError(t, err)
	require.Len(t, blocks, 2)

	first, err := FetchParameters(blocks[0], []string{"name"})
	require.NoError(t, err)
	assert.Equal(t, "binutils", first[0], "blocks should come back in requested order")
}

func TestSplitBlocksOnlyFilterMissing(t *testing.T) {
	_, err := SplitBlocks([]byte(multiBlockSpec), []string{"no-such-block"})
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
}
