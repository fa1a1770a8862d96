// Package frameanalysis counts register-save operations, frame-pointer
// adjustments and calls per function to compute an observed frame cost,
// then reconciles that against the compiler's frame report.
package frameanalysis

import (
	"github.com/sirupsen/logrus"

	"github.com/mranakol/avrstack/pkg/avr"
	"github.com/mranakol/avrstack/pkg/disasm"
	"github.com/mranakol/avrstack/pkg/frame"
	"github.com/mranakol/avrstack/pkg/toolchain"
)

var log = logrus.WithField("stage", "frameanalysis")

// Observation is the per-function tally FrameAnalyzer produces before
// reconciliation with the frame report.
type Observation struct {
	PushCount    int
	PopCount     int
	FrameDown    int
	FrameUp      int
	CallCount    int
	RelCallCount int
	ICallCount   int
	HasBody      bool
	SPDirectIO   bool
}

// Observed computes local_frame from an Observation:
// push_count + frame_down + 2.
func (o Observation) Observed() int {
	return o.PushCount + o.FrameDown + 2
}

// Analyze computes observations for every function and reconciles each
// against the frame report, filling in Function.LocalFrame. Non-fatal
// findings (StackPointerDirectWrite) are appended to findings.
//
// Returns a FrameReportMissing-shaped error, naming the offending function,
// when a function has no decodable body and no reported frame at all.
func Analyze(d *disasm.Disassembly, funcs []*avr.Function, rep *frame.Report, findings *[]avr.Finding) error {
	for _, fn := range funcs {
		obs := observeFunction(d, fn)
		reported, haveReported := rep.Base[fn.BaseName]

		if !obs.HasBody && !haveReported {
			return &toolchain.ErrFrameReportMissing{Function: fn.Label}
		}

		observed := obs.Observed()
		local := observed
		if haveReported && reported > local {
			local = reported
		}
		fn.LocalFrame = local

		if obs.PushCount != obs.PopCount {
			log.Warnf("%s: push_count=%d differs from pop_count=%d; push_count is used", fn.Label, obs.PushCount, obs.PopCount)
		}

		if obs.SPDirectIO && obs.FrameDown == 0 {
			msg := "direct SP manipulation with no Y-register frame; reported frame may be understated"
			*findings = append(*findings, avr.Finding{
				Kind: avr.StackPointerDirectWrite, Function: fn.Label, Message: msg,
			})
			log.Warnf("%s: %s", fn.Label, msg)
		}

		log.Debugf("%s: observed=%d reported=%d used=%d", fn.Label, observed, reported, local)
	}
	return nil
}

func observeFunction(d *disasm.Disassembly, fn *avr.Function) Observation {
	var obs Observation
	for i := fn.LineStart + 1; i < fn.LineEnd && i < len(d.Lines); i++ {
		line := d.Lines[i]
		inst, ok := disasm.DecodeInstruction(line)
		if !ok {
			continue
		}
		obs.HasBody = true
		switch inst.Kind {
		case avr.Push:
			obs.PushCount++
		case avr.Pop:
			obs.PopCount++
		case avr.FrameSub:
			obs.FrameDown += inst.N
		case avr.FrameAdd:
			obs.FrameUp += inst.N
		case avr.DirectCall:
			obs.CallCount++
		case avr.RelativeCall:
			if inst.Offset == 0 {
				// Known 2-byte stack-reservation idiom; it
				// contributes to frame_down but is not itself a call.
				obs.FrameDown += 2
			} else {
				obs.RelCallCount++
			}
		case avr.IndirectCall:
			obs.ICallCount++
		case avr.Other:
			if len(inst.Raw) >= 3 && inst.Raw[:3] == "SP:" {
				obs.SPDirectIO = true
			}
		}
	}
	return obs
}
