package disasm

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/mranakol/avrstack/pkg/avr"
)

var log = logrus.WithField("stage", "disasm")

// runtimeExact is the fixed set of runtime symbols excluded from stack
// accounting by exact name, on top of the "__" prefix rule.
var runtimeExact = map[string]bool{
	"__ctors_end":     true,
	"__bad_interrupt":  true,
	"_exit":           true,
	"__stop_program":  true,
}

// isLocalLabel reports whether label is a compiler-generated local label
// that should be absorbed into the enclosing function rather than starting
// a new one.
func isLocalLabel(label string) bool {
	return strings.HasPrefix(label, ".L") || strings.HasPrefix(label, ".Loc") || strings.Contains(label, "^")
}

// isRuntimeSymbol reports whether label is a runtime/startup symbol that is
// excluded from stack accounting but kept in the address map.
func isRuntimeSymbol(label string) bool {
	return strings.HasPrefix(label, "__") || runtimeExact[label]
}

// Partition walks the disassembly line-by-line and emits one avr.Function
// per real function boundary, absorbing local labels into the enclosing
// function and classifying runtime symbols.
func Partition(d *Disassembly) []*avr.Function {
	var funcs []*avr.Function
	var current *avr.Function

	closeCurrent := func(endLine int) {
		if current != nil {
			current.LineEnd = endLine
			funcs = append(funcs, current)
		}
	}

	for i, line := range d.Lines {
		addr, label, ok := HeaderMatch(line)
		if !ok {
			continue
		}
		if isLocalLabel(label) {
			// Absorbed into whatever function is currently open; does not
			// start a new partition.
			continue
		}
		closeCurrent(i)
		current = &avr.Function{
			Label:       label,
			BaseName:    avr.NormalizeName(label),
			ByteAddress: addr,
			WordAddress: addr / 2,
			LineStart:   i,
			Runtime:     isRuntimeSymbol(label),
		}
	}
	closeCurrent(len(d.Lines))

	log.Debugf("partitioned %d functions", len(funcs))
	return funcs
}
