// Package avr holds the data types shared across the analysis pipeline:
// functions, instructions, findings and the call graph they flow through.
package avr

import "fmt"

// Function is a single disassembled function: a demangled label, its
// addresses in both forms used by the AVR toolchain, the line range it
// occupies in the disassembly, and its resolved frame cost.
//
// LocalFrame is filled in by the frame-analysis stage (observed cost
// reconciled against the compiler's frame report); it is zero until then.
type Function struct {
	Label       string
	BaseName    string
	ByteAddress uint64
	WordAddress uint64
	LineStart   int
	LineEnd     int
	LocalFrame  int

	// Runtime is true for symbols excluded from stack accounting but
	// still present in the address map.
	Runtime bool
}

func (f *Function) String() string {
	return fmt.Sprintf("%s@0x%04x", f.Label, f.ByteAddress)
}

// InstructionKind tags the handful of instruction shapes that matter to the
// analysis; everything else decodes to Other.
type InstructionKind int

const (
	Other InstructionKind = iota
	DirectCall
	RelativeCall
	IndirectCall
	LoadImmR30
	LoadImmR31
	FrameSub
	FrameAdd
	Push
	Pop
	ArrayLoad
)

// Instruction is a parsed disassembly line, decoded just enough to drive
// frame accounting and call-graph construction.
type Instruction struct {
	Address uint64
	Kind    InstructionKind

	// Target is the absolute call target for DirectCall.
	Target uint64
	// Offset is the raw signed operand for RelativeCall.
	Offset int
	// Imm is the immediate loaded for LoadImmR30/LoadImmR31.
	Imm byte
	// N is the adjustment operand for FrameSub/FrameAdd.
	N int
	// Raw is the untouched operand text, used as a last-resort scan target
	// for the RelativeCall heuristic.
	Raw string
}

// FindingKind enumerates the non-fatal finding taxonomy. Fatal errors are
// not represented here; they are returned as plain errors.
type FindingKind int

const (
	AddressUnresolved FindingKind = iota
	IndirectCallUnresolved
	RecursionPatternUnknown
	StackPointerDirectWrite
	RecursionSourceMismatch
)

func (k FindingKind) String() string {
	switch k {
	case AddressUnresolved:
		return "AddressUnresolved"
	case IndirectCallUnresolved:
		return "IndirectCallUnresolved"
	case RecursionPatternUnknown:
		return "RecursionPatternUnknown"
	case StackPointerDirectWrite:
		return "StackPointerDirectWrite"
	case RecursionSourceMismatch:
		return "RecursionSourceMismatch"
	default:
		return "Unknown"
	}
}

// Finding is a single non-fatal observation attached to a function during
// analysis. It never aborts the pipeline.
type Finding struct {
	Kind     FindingKind
	Function string
	Message  string
}

func (f Finding) String() string {
	return fmt.Sprintf("%s[%s]: %s", f.Kind, f.Function, f.Message)
}

// ReductionKind is the recurrence pattern DepthEstimator recognizes.
type ReductionKind int

const (
	Subtract ReductionKind = iota
	Divide
)

// RecursionInfo records the proven depth and reduction pattern for one
// recursive function.
type RecursionInfo struct {
	Function     string
	Depth        int
	Reduction    ReductionKind
	N            int
	InitialValue int
}

func (r RecursionInfo) String() string {
	kind := "subtract"
	if r.Reduction == Divide {
		kind = "divide"
	}
	return fmt.Sprintf("%s: depth=%d (%s %d, initial=%d)", r.Function, r.Depth, kind, r.N, r.InitialValue)
}

// PathResult is one complete root-to-leaf path discovered by StackPathSearch,
// with its summed frame cost.
type PathResult struct {
	Functions []string
	Cost      int
}
