package frameanalysis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mranakol/avrstack/pkg/avr"
	"github.com/mranakol/avrstack/pkg/disasm"
	"github.com/mranakol/avrstack/pkg/frame"
)

func buildDisasm(lines ...string) (*disasm.Disassembly, []*avr.Function) {
	d := disasm.New(strings.Join(lines, "\n"))
	return d, disasm.Partition(d)
}

func TestAnalyzeObservedFrame(t *testing.T) {
	d, funcs := buildDisasm(
		"00000100 <main>:",
		"  100:\t2f 92       \tpush\tr2",
		"  102:\t3f 92       \tpush\tr3",
		"  104:\t1a 97       \tsbiw\tr28, 10",
	)
	rep := &frame.Report{Raw: map[string]int{}, Base: map[string]int{}}
	var findings []avr.Finding
	require.NoError(t, Analyze(d, funcs, rep, &findings))
	// push_count(2) + frame_down(10) + 2 = 14, per the local_frame formula.
	assert.Equal(t, 14, funcs[0].LocalFrame)
	assert.Empty(t, findings)
}

func TestAnalyzeReconcilesWithFrameReport(t *testing.T) {
	// No decodable body at all (empty range) but the frame report covers it.
	d, funcs := buildDisasm(
		"00000100 <main>:",
		"00000102 <next>:",
		"  102:\t08 95       \tret",
	)
	rep := &frame.Report{
		Raw:  map[string]int{"main": 20, "next": 2},
		Base: map[string]int{"main": 20, "next": 2},
	}
	var findings []avr.Finding
	require.NoError(t, Analyze(d, funcs, rep, &findings))
	assert.Equal(t, 20, funcs[0].LocalFrame, "LocalFrame should take the reported value when it exceeds the observed one")
}

func TestAnalyzeNoFrameDataIsFatal(t *testing.T) {
	d, funcs := buildDisasm(
		"00000100 <main>:",
		"00000102 <next>:",
		"  102:\t08 95       \tret",
	)
	rep := &frame.Report{Raw: map[string]int{}, Base: map[string]int{}}
	var findings []avr.Finding
	err := Analyze(d, funcs, rep, &findings)
	assert.Error(t, err, "expected an error when a function has neither assembly body nor reported frame")
}

func TestAnalyzeDirectSPWriteFinding(t *testing.T) {
	d, funcs := buildDisasm(
		"00000100 <main>:",
		"  100:\t0f be       \tout\t0x3d, r16",
		"  102:\t08 95       \tret",
	)
	rep := &frame.Report{Raw: map[string]int{}, Base: map[string]int{}}
	var findings []avr.Finding
	require.NoError(t, Analyze(d, funcs, rep, &findings))
	require.Len(t, findings, 1)
	assert.Equal(t, avr.StackPointerDirectWrite, findings[0].Kind)
}
