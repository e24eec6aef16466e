package casskit

import (
	"testing"

	"github.com/blang/semver/v4"
	"github.com/stretchr/testify/require"
)

func TestVersion(t *testing.T) {
	assert := require.New(t)

	// Version must stay a valid semver and never regress below the first
	// published release.
	floor := semver.MustParse("0.1.0")
	assert.True(Version.Compare(floor) >= 0, "Version regressed below %s", floor)
	assert.NoError(Version.Validate())
}
