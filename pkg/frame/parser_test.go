package frame

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseBasic(t *testing.T) {
	input := strings.Join([]string{
		"main.c:10:5:main\t4\tstatic",
		"main.c:20:5:helper\t8\tstatic",
		"",
		"not a valid line at all",
		"main.c:30:5:helper.isra.0\t6\tstatic",
	}, "\n")

	rep, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, 4, rep.Raw["main"])
	require.Equal(t, 8, rep.Raw["helper"])
	// Base collapses helper and helper.isra.0 under "helper", keeping the
	// minimum of the two reported sizes.
	require.Equal(t, 6, rep.Base["helper"], "minimum across clones")
}

func TestParseSkipsMalformedLines(t *testing.T) {
	input := "garbage\nmore garbage\n"
	rep, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Empty(t, rep.Raw)
}

func TestNormalizeNameWrapper(t *testing.T) {
	require.Equal(t, "foo", NormalizeName("foo.constprop.0"))
}
