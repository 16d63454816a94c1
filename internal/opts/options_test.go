package opts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions_Limits(t *testing.T) {
	o := Options{MaxIterations: 2, MaxRewrites: 3}
	assert.True(t, o.CanIterate(0))
	assert.True(t, o.CanIterate(1))
	assert.False(t, o.CanIterate(2))
	assert.True(t, o.CanRewrite(3))
	assert.False(t, o.CanRewrite(4))

	unbounded := Options{}
	assert.True(t, unbounded.CanIterate(1<<20))
	assert.True(t, unbounded.CanRewrite(1<<20))
}

func TestOptions_Defaults(t *testing.T) {
	o := GetDefaultOptions()
	assert.Equal(t, MaxIterations, o.MaxIterations)
	assert.Equal(t, MaxRewrites, o.MaxRewrites)
}

func TestParseOrDefault(t *testing.T) {
	const key = "WARPSYNC_TEST_LIMIT"

	t.Setenv(key, "")
	require.Equal(t, 7, parseOrDefault(key, 7, 1))

	t.Setenv(key, "0x10")
	require.Equal(t, 16, parseOrDefault(key, 7, 1))

	t.Setenv(key, "0")
	require.Equal(t, 0, parseOrDefault(key, 7, 0))
	require.PanicsWithValue(t, "warpsync: value too small for "+key, func() { parseOrDefault(key, 7, 1) })

	t.Setenv(key, "lots")
	require.PanicsWithValue(t, "warpsync: invalid value for "+key, func() { parseOrDefault(key, 7, 1) })
}
