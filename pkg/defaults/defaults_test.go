package defaults

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPacingOrdering(t *testing.T) {
	t.Parallel()

	assert.Less(t, PacingQuick, PacingStandard)
	assert.Less(t, PacingStandard, PacingFull)
	assert.Equal(t, 0, 100%ProgressStep)
	assert.Equal(t, 0, 100%CachedProgressStep)
}

func TestUserAgent(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ScanReport/"+Version, UserAgent(""))
	assert.Equal(t, "ScanReport/"+Version+" (mcp)", UserAgent("mcp"))
}

func TestLimits(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 10<<20, MaxImportSize)
	assert.Equal(t, 2<<20, MaxLogoSize)
	assert.Equal(t, 5, RecentReports)
}
