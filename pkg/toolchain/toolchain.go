// Package toolchain defines the external-collaborator interface the core
// analysis depends on but does not implement itself, plus a concrete
// exec-based implementation that drives avr-gcc/avr-objdump/avr-size.
package toolchain

import (
	"context"
	"io"
)

// CompileResult is what a successful Compile produces: the path to the
// linked executable and the compiler's per-function frame report.
type CompileResult struct {
	ExecutablePath string
	FrameReport    io.Reader
}

// Toolchain is the three capabilities the core pipeline consumes from an
// external build/inspection collaborator.
type Toolchain interface {
	// Compile produces an executable and frame-usage report for source,
	// targeting mcu at the given optimization level with any extra flags.
	// Implementations must enable function-frame reporting and disable
	// inlining so every source function is visible in the disassembly.
	Compile(ctx context.Context, source, mcu, optLevel string, extraFlags []string) (CompileResult, error)

	// Disassemble returns the full textual disassembly of exe.
	Disassemble(ctx context.Context, exe string) (string, error)

	// SizeSections returns at least ".data" and ".bss" byte counts for exe.
	SizeSections(ctx context.Context, exe string) (map[string]int, error)
}

// ErrToolchainAbsent is returned when a required external tool
// isn't on PATH.
type ErrToolchainAbsent struct {
	Tool string
}

func (e *ErrToolchainAbsent) Error() string {
	return "toolchain: required tool not available: " + e.Tool
}

// ErrCompilationFailure wraps a non-zero Toolchain exit; Stderr carries
// the collaborator's diagnostic output verbatim.
type ErrCompilationFailure struct {
	Stderr string
}

func (e *ErrCompilationFailure) Error() string {
	return "toolchain: compilation failed: " + e.Stderr
}

// ErrFrameReportMissing is returned when a function has neither a decodable
// assembly body nor a compiler-reported frame size, so its cost can't be
// determined at all.
type ErrFrameReportMissing struct {
	Function string
	Err      error
}

func (e *ErrFrameReportMissing) Error() string {
	if e.Function != "" {
		return "toolchain: frame report missing for function " + e.Function
	}
	return "toolchain: frame report missing: " + e.Err.Error()
}

func (e *ErrFrameReportMissing) Unwrap() error { return e.Err }

// ErrRecursionDepthUnknown is returned when a recursive function's initial
// argument value can't be determined by any of DepthEstimator's search
// methods.
type ErrRecursionDepthUnknown struct {
	Function string
	Err      error
}

func (e *ErrRecursionDepthUnknown) Error() string {
	if e.Function != "" {
		return "toolchain: recursion depth unknown for function " + e.Function
	}
	return "toolchain: recursion depth unknown: " + e.Err.Error()
}

func (e *ErrRecursionDepthUnknown) Unwrap() error { return e.Err }
