package depth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mranakol/avrstack/pkg/avr"
	"github.com/mranakol/avrstack/pkg/policy"
)

// TestEstimateSubtractPattern mirrors the worked example: reduction
// subtract(1), initial value 5, expected depth 6.
func TestEstimateSubtractPattern(t *testing.T) {
	source := `
int rec(int n) {
	if (n > 0) return n + rec(n - 1);
	return 0;
}
int main() {
	rec(5);
	return 0;
}
`
	recursive := map[string]bool{"rec": true}
	var findings []avr.Finding
	infos, err := Estimate(source, recursive, nil, &findings)
	require.NoError(t, err)
	info := infos["rec"]
	assert.Equal(t, avr.Subtract, info.Reduction)
	assert.Equal(t, 1, info.N)
	assert.Equal(t, 5, info.InitialValue)
	assert.Equal(t, 6, info.Depth)
}

// TestEstimateLogarithmicPattern mirrors the worked example: split(64)
// with n >> 2, expected depth 4.
func TestEstimateLogarithmicPattern(t *testing.T) {
	source := `
void split(int n) {
	if (n > 1) split(n >> 2);
}
void main() {
	split(64);
}
`
	recursive := map[string]bool{"split": true}
	var findings []avr.Finding
	infos, err := Estimate(source, recursive, nil, &findings)
	require.NoError(t, err)
	info := infos["split"]
	assert.Equal(t, avr.Divide, info.Reduction)
	assert.Equal(t, 4, info.N)
	assert.Equal(t, 64, info.InitialValue)
	assert.Equal(t, 4, info.Depth)
}

func TestEstimateUnknownPatternDefaultsToSubtractOne(t *testing.T) {
	source := `
int weird(int n) {
	if (n > 0) return weird(foo(n));
	return 0;
}
int main() {
	weird(3);
}
`
	recursive := map[string]bool{"weird": true}
	var findings []avr.Finding
	infos, err := Estimate(source, recursive, nil, &findings)
	require.NoError(t, err)
	assert.Equal(t, avr.Subtract, infos["weird"].Reduction)
	assert.Equal(t, 1, infos["weird"].N)

	found := false
	for _, f := range findings {
		if f.Kind == avr.RecursionPatternUnknown {
			found = true
		}
	}
	assert.True(t, found, "expected a RecursionPatternUnknown finding for the unrecognized reduction")
}

func TestEstimateNoInitialValueIsFatal(t *testing.T) {
	source := `
int rec(int n) {
	return rec(n - 1);
}
void caller(int x) {
	rec(x);
}
`
	recursive := map[string]bool{"rec": true}
	var findings []avr.Finding
	_, err := Estimate(source, recursive, nil, &findings)
	assert.Error(t, err, "expected an error when no initial value can be determined")
}

// TestEstimateConsultsPolicyRecognizer covers a reduction pattern the
// built-in subtract/divide/shift regexes don't match, recognized instead by
// a recognizer registered on the policy passed to Estimate.
func TestEstimateConsultsPolicyRecognizer(t *testing.T) {
	source := `
int weird(int n) {
	if (n > 1) return weird(halve(n));
	return 0;
}
int main() {
	weird(3);
}
`
	recursive := map[string]bool{"weird": true}
	var findings []avr.Finding

	pol := policy.Default()
	pol.AddRecognizer(func(body, param string) (avr.ReductionKind, int, bool) {
		if param == "n" {
			return avr.Divide, 2, true
		}
		return avr.Subtract, 0, false
	})

	infos, err := Estimate(source, recursive, pol, &findings)
	require.NoError(t, err)
	assert.Equal(t, avr.Divide, infos["weird"].Reduction)
	assert.Equal(t, 2, infos["weird"].N)
	for _, f := range findings {
		assert.NotEqual(t, avr.RecursionPatternUnknown, f.Kind, "recognizer should have matched before the unknown-pattern fallback")
	}
}

func TestCeilLog(t *testing.T) {
	cases := []struct{ initial, n, want int }{
		{64, 4, 3},
		{1, 4, 0},
		{5, 2, 3},
		{16, 2, 4},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ceilLog(c.initial, c.n), "ceilLog(%d, %d)", c.initial, c.n)
	}
}
