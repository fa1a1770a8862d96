package disasm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *Disassembly {
	text := strings.Join([]string{
		"00000100 <main>:",
		"  100:\t0f 92       \tpush\tr0",
		"  102:\t0e 94 10 00 \tcall\t0x110\t; 0x110 <helper>",
		"00000110 <helper>:",
		"  110:\t1f 92       \tpush\tr1",
		"00000200 <__do_copy_data>:",
		"  200:\t00 00       \tnop",
	}, "\n")
	return New(text)
}

func TestPartitionBoundaries(t *testing.T) {
	d := sample()
	funcs := Partition(d)
	require.Len(t, funcs, 3)
	assert.Equal(t, "main", funcs[0].Label)
	assert.Equal(t, "main", funcs[0].BaseName)
	assert.Equal(t, "helper", funcs[1].Label)
	assert.Equal(t, "__do_copy_data", funcs[2].Label)
	assert.True(t, funcs[2].Runtime, "third function should be a flagged runtime symbol")
}

func TestPartitionAbsorbsLocalLabels(t *testing.T) {
	text := strings.Join([]string{
		"00000100 <main>:",
		"  100:\t0f 92       \tpush\tr0",
		"00000102 <.L2>:",
		"  102:\t08 95       \tret",
	}, "\n")
	funcs := Partition(New(text))
	require.Len(t, funcs, 1, "local label should not start a new function")
	assert.Greater(t, funcs[0].LineEnd, funcs[0].LineStart, "expected local label's lines absorbed into main's range")
}

func TestIsRuntimeSymbol(t *testing.T) {
	assert.True(t, isRuntimeSymbol("__vector_1"), "double-underscore prefix should be a runtime symbol")
	assert.True(t, isRuntimeSymbol("_exit"), "_exit should be a runtime symbol (exact match)")
	assert.False(t, isRuntimeSymbol("main"))
}
