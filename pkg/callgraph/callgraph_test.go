package callgraph

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mranakol/avrstack/pkg/addr"
	"github.com/mranakol/avrstack/pkg/avr"
	"github.com/mranakol/avrstack/pkg/disasm"
	"github.com/mranakol/avrstack/pkg/policy"
)

func TestBuildDirectCallEdge(t *testing.T) {
	text := strings.Join([]string{
		"00000100 <main>:",
		"  100:\t0e 94 08 00 \tcall\t0x108\t; 0x108 <helper>",
		"00000108 <helper>:",
		"  108:\t08 95       \tret",
	}, "\n")
	d := disasm.New(text)
	funcs := disasm.Partition(d)
	resolver := addr.Build(funcs)
	knownNames := []string{"main", "helper"}

	var findings []avr.Finding
	g := Build(d, funcs, resolver, knownNames, policy.Default(), "", &findings)

	assert.True(t, g.HasEdge("main", "helper"), "expected main->helper edge, graph: %v", g.Nodes())
}

func TestBuildIndirectCallViaPointerPair(t *testing.T) {
	// tgt is at byte 0x00A4; ldi r30 with the low byte, r31 with the high
	// byte, then icall.
	text := strings.Join([]string{
		"00000100 <main>:",
		"  100:\te4 e0       \tldi\tr30, 0xa4",
		"  102:\tf0 e0       \tldi\tr31, 0x00",
		"  104:\t09 95       \ticall",
		"000000a4 <tgt>:",
		"  a4:\t08 95       \tret",
	}, "\n")
	d := disasm.New(text)
	funcs := disasm.Partition(d)
	resolver := addr.Build(funcs)
	knownNames := []string{"main", "tgt"}

	var findings []avr.Finding
	g := Build(d, funcs, resolver, knownNames, policy.Default(), "", &findings)

	assert.True(t, g.HasEdge("main", "tgt"), "expected main->tgt resolved indirect edge, findings: %v", findings)
}

func TestBuildUnresolvedIndirectCallIsAFinding(t *testing.T) {
	text := strings.Join([]string{
		"00000100 <main>:",
		"  100:\t09 95       \ticall",
	}, "\n")
	d := disasm.New(text)
	funcs := disasm.Partition(d)
	resolver := addr.Build(funcs)
	knownNames := []string{"main"}

	var findings []avr.Finding
	Build(d, funcs, resolver, knownNames, policy.Default(), "", &findings)

	require.Len(t, findings, 1)
	assert.Equal(t, avr.IndirectCallUnresolved, findings[0].Kind)
}

func TestSynthesizeEntryEdgesFromSource(t *testing.T) {
	text := strings.Join([]string{
		"00000100 <main>:",
		"  100:\t08 95       \tret",
		"00000108 <helper>:",
		"  108:\t08 95       \tret",
	}, "\n")
	d := disasm.New(text)
	funcs := disasm.Partition(d)
	resolver := addr.Build(funcs)
	knownNames := []string{"main", "helper"}
	source := "int main() { helper(); return 0; }"

	var findings []avr.Finding
	g := Build(d, funcs, resolver, knownNames, policy.Default(), source, &findings)

	assert.True(t, g.HasEdge("main", "helper"), "expected synthesized main->helper edge from source text when assembly had no calls")
}
