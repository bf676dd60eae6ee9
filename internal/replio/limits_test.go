package replio_test

import (
	"testing"

	"github.com/mna/dbi/internal/replio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadLimitsDefaultsToZero(t *testing.T) {
	limits, err := replio.LoadLimits()
	require.NoError(t, err)
	assert.Zero(t, limits.Machine.MaxSteps)
	assert.Zero(t, limits.Compiler.MaxLines)
}

func TestLoadLimitsReadsEnv(t *testing.T) {
	t.Setenv("DBI_MAX_STEPS", "42")
	t.Setenv("DBI_MAX_LINES", "7")

	limits, err := replio.LoadLimits()
	require.NoError(t, err)
	assert.Equal(t, 42, limits.Machine.MaxSteps)
	assert.Equal(t, 7, limits.Compiler.MaxLines)
}
