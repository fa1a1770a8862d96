package recursion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mranakol/avrstack/pkg/avr"
)

func TestDetectSelfLoop(t *testing.T) {
	g := avr.NewCallGraph()
	g.AddEdge("main", "fib")
	g.AddEdge("fib", "fib")

	var findings []avr.Finding
	recursive := Detect(g, "", &findings)

	assert.True(t, recursive["fib"], "expected fib to be detected as recursive")
	assert.False(t, recursive["main"], "main should not be recursive")
}

func TestDetectMainInfiniteLoopExcluded(t *testing.T) {
	g := avr.NewCallGraph()
	g.AddEdge("main", "main")
	source := "void main() { while (1) { do_work(); } }"

	var findings []avr.Finding
	recursive := Detect(g, source, &findings)

	assert.False(t, recursive["main"], "main's infinite loop should not count as recursion")
}

func TestDetectSourceMismatchFinding(t *testing.T) {
	g := avr.NewCallGraph()
	g.AddEdge("main", "helper")
	// helper calls itself in source, but the call graph (perhaps after
	// inlining in a -fno-inline build where helper's self-call got folded
	// into a loop) shows no self-loop; this should be flagged, not silently
	// trusted either way.
	source := "void helper(int n) { if (n > 0) helper(n - 1); } void main() { helper(3); }"

	var findings []avr.Finding
	Detect(g, source, &findings)

	require.Len(t, findings, 1)
	assert.Equal(t, avr.RecursionSourceMismatch, findings[0].Kind)
}

func TestDetectNoMismatchWhenAgreeing(t *testing.T) {
	g := avr.NewCallGraph()
	g.AddEdge("main", "helper")
	g.AddEdge("helper", "helper")
	source := "void helper(int n) { if (n > 0) helper(n - 1); } void main() { helper(3); }"

	var findings []avr.Finding
	recursive := Detect(g, source, &findings)

	assert.True(t, recursive["helper"])
	assert.Empty(t, findings, "expected no mismatch findings when source and graph agree")
}
