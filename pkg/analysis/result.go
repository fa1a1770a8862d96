// Package analysis holds the final structure the pipeline produces and the
// reporter consumes: the aggregate of every stage's output.
package analysis

import (
	"math"

	"github.com/mranakol/avrstack/pkg/avr"
)

// Result is the complete output of one pipeline run.
type Result struct {
	SourceFile string
	MCUType    string

	RAMSize        int
	DataSize       int
	AvailableStack int

	FunctionUsage map[string]int
	CallGraph     *avr.CallGraph
	Recursive     map[string]avr.RecursionInfo
	Paths         []avr.PathResult
	MaxPath       avr.PathResult

	RawMax           int
	SafetyMultiplier float64
	ReportedMax      int

	Findings []avr.Finding
}

// Finalize computes ReportedMax from RawMax and SafetyMultiplier:
// reported_max = ceil(raw_max * safety_multiplier).
func (r *Result) Finalize() {
	r.ReportedMax = int(math.Ceil(float64(r.RawMax) * r.SafetyMultiplier))
	r.AvailableStack = r.RAMSize - r.DataSize
}
