package license

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupKnownLicense(t *testing.T) {
	l, err := Lookup("GPLv2")
	require.NoError(t, err)
	assert.Equal(t, "GPL-2", l.String())
	assert.True(t, l.DistributeSource)
}

func TestLookupUnknownLicense(t *testing.T) {
	_, err := Lookup("WTFPL")
	var unknown *UnknownLicenseError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "WTFPL", unknown.Name)
	assert.Contains(t, unknown.Available, "MIT")
}

func TestAvailableSorted(t *testing.T) {
	names := Available()
	require.NotEmpty(t, names)
	assert.IsNonDecreasing(t, names)
}
