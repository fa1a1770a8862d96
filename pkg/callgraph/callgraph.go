// Package callgraph walks
// each function's instructions and emits direct, relative and
// pointer-resolved indirect call edges into an avr.CallGraph.
package callgraph

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/mranakol/avrstack/pkg/addr"
	"github.com/mranakol/avrstack/pkg/avr"
	"github.com/mranakol/avrstack/pkg/disasm"
	"github.com/mranakol/avrstack/pkg/policy"
)

var log = logrus.WithField("stage", "callgraph")

// EntrySymbol is the traversal root.
const EntrySymbol = "main"

// regState tracks the Z pointer register pair (r30/r31) per function: none,
// low byte set, high byte set, both set, or primed by a preceding array
// load, collapsed into two optional byte values plus a flag, reset at
// function boundaries.
type regState struct {
	r30, r31     *byte
	arrayLoaded  bool
}

func (s *regState) reset() {
	s.r30, s.r31 = nil, nil
	s.arrayLoaded = false
}

func (s *regState) bothSet() bool {
	return s.r30 != nil && s.r31 != nil
}

// Build walks every function and returns the resolved call graph. knownNames
// is the frame-report key set (base names): the universe the relative-call
// text scan, array-dispatch fan-out and entry-edge synthesis may target. sourceText is the optional C
// source, used only for the entry-function edge synthesis fallback.
func Build(d *disasm.Disassembly, funcs []*avr.Function, resolver *addr.Resolver, knownNames []string, pol *policy.Policy, sourceText string, findings *[]avr.Finding) *avr.CallGraph {
	g := avr.NewCallGraph()
	for _, name := range knownNames {
		g.AddNode(name)
	}

	for _, fn := range funcs {
		walkFunction(d, fn, resolver, knownNames, pol, g, findings)
	}

	synthesizeEntryEdges(g, knownNames, sourceText, findings)
	return g
}

func walkFunction(d *disasm.Disassembly, fn *avr.Function, resolver *addr.Resolver, knownNames []string, pol *policy.Policy, g *avr.CallGraph, findings *[]avr.Finding) {
	var state regState
	g.AddNode(fn.BaseName)

	for i := fn.LineStart + 1; i < fn.LineEnd && i < len(d.Lines); i++ {
		inst, ok := disasm.DecodeInstruction(d.Lines[i])
		if !ok {
			continue
		}
		switch inst.Kind {
		case avr.DirectCall:
			handleDirectCall(fn, inst, resolver, g, findings)
		case avr.RelativeCall:
			handleRelativeCall(fn, inst, knownNames, g)
		case avr.LoadImmR30:
			v := inst.Imm
			state.r30 = &v
		case avr.LoadImmR31:
			v := inst.Imm
			state.r31 = &v
		case avr.ArrayLoad:
			state.arrayLoaded = true
		case avr.IndirectCall:
			handleIndirectCall(fn, &state, resolver, knownNames, pol, g, findings)
		}
	}
}

func handleDirectCall(fn *avr.Function, inst avr.Instruction, resolver *addr.Resolver, g *avr.CallGraph, findings *[]avr.Finding) {
	target, ok := resolver.ResolveValue(inst.Target)
	if !ok {
		*findings = append(*findings, avr.Finding{
			Kind: avr.AddressUnresolved, Function: fn.Label,
			Message: "direct call target could not be resolved",
		})
		log.Debugf("%s: unresolved direct call target 0x%x", fn.Label, inst.Target)
		return
	}
	g.AddEdge(fn.BaseName, target.BaseName)
}

func handleRelativeCall(fn *avr.Function, inst avr.Instruction, knownNames []string, g *avr.CallGraph) {
	if inst.Offset == 0 {
		// Frame effect already accounted for in frameanalysis; no edge.
		return
	}
	// Last-resort heuristic: scan the textual operand for any
	// known function name.
	for _, name := range knownNames {
		if name != "" && strings.Contains(inst.Raw, name) {
			g.AddEdge(fn.BaseName, name)
			return
		}
	}
	log.Debugf("%s: relative call with unresolvable offset %d and no textual match", fn.Label, inst.Offset)
}

func handleIndirectCall(fn *avr.Function, state *regState, resolver *addr.Resolver, knownNames []string, pol *policy.Policy, g *avr.CallGraph, findings *[]avr.Finding) {
	if state.bothSet() {
		value := (uint64(*state.r31) << 8) | uint64(*state.r30)
		if target, ok := resolver.ResolveValue(value); ok {
			g.AddEdge(fn.BaseName, target.BaseName)
		} else {
			*findings = append(*findings, avr.Finding{
				Kind: avr.IndirectCallUnresolved, Function: fn.Label,
				Message: "pointer pair did not resolve to a known function",
			})
		}
		state.reset()
		return
	}

	if state.arrayLoaded {
		for _, name := range knownNames {
			if name == fn.BaseName || name == EntrySymbol || pol.ExcludedFromArrayDispatch(name) {
				continue
			}
			g.AddEdge(fn.BaseName, name)
		}
		state.arrayLoaded = false
		return
	}

	*findings = append(*findings, avr.Finding{
		Kind: avr.IndirectCallUnresolved, Function: fn.Label,
		Message: "indirect call with no pointer-pair evidence and no preceding array load",
	})
}

// synthesizeEntryEdges recovers cases where the entry's call sites were
// elided by inlining: if the entry has no
// outgoing edges but the source text names other known functions, edges to
// every such textually-mentioned function are added.
func synthesizeEntryEdges(g *avr.CallGraph, knownNames []string, sourceText string, findings *[]avr.Finding) {
	if !g.HasNode(EntrySymbol) || len(g.Successors(EntrySymbol)) > 0 || sourceText == "" {
		return
	}
	added := 0
	for _, name := range knownNames {
		if name == EntrySymbol {
			continue
		}
		if strings.Contains(sourceText, name+"(") {
			g.AddEdge(EntrySymbol, name)
			added++
		}
	}
	if added > 0 {
		log.Infof("synthesized %d entry edges from source text (entry had no assembly-derived calls)", added)
	}
}
