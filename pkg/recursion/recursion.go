// Package recursion detects recursive functions: primary detection from
// call-graph self-loops, optionally cross-validated against source when
// it's available.
package recursion

import (
	"github.com/sirupsen/logrus"

	"github.com/mranakol/avrstack/pkg/avr"
	"github.com/mranakol/avrstack/pkg/csource"
)

var log = logrus.WithField("stage", "recursion")

// Detect returns the set of recursive function (base) names. Primary
// detection is a self-loop f->f in the graph. When sourceText is non-empty
// the assembly-derived result is cross-checked: a disagreement is recorded
// as a finding rather than silently resolved, treating the source signal
// as load-bearing, not cosmetic.
//
// The 'main' infinite-loop exclusion always applies: an entry function
// whose body is a plain event loop never counts as recursive even if it
// is textually self-referential.
func Detect(g *avr.CallGraph, sourceText string, findings *[]avr.Finding) map[string]bool {
	recursive := make(map[string]bool)
	for _, name := range g.Nodes() {
		if g.HasEdge(name, name) {
			recursive[name] = true
		}
	}

	if recursive["main"] {
		if body, _, ok := csource.Body(sourceText, "main"); ok && csource.HasInfiniteLoop(body) {
			log.Info("main excluded from recursive set: infinite loop, not recursion")
			delete(recursive, "main")
		}
	}

	if sourceText != "" {
		crossCheck(g, sourceText, recursive, findings)
	}

	log.Debugf("recursive functions: %v", keys(recursive))
	return recursive
}

func crossCheck(g *avr.CallGraph, sourceText string, recursive map[string]bool, findings *[]avr.Finding) {
	for _, name := range g.Nodes() {
		if name == "main" {
			continue
		}
		body, _, ok := csource.Body(sourceText, name)
		if !ok {
			continue
		}
		sourceSays := csource.CallsItself(body, name)
		graphSays := recursive[name]
		if sourceSays != graphSays {
			*findings = append(*findings, avr.Finding{
				Kind:     avr.RecursionSourceMismatch,
				Function: name,
				Message:  "source-level self-call and assembly self-loop disagree on recursiveness",
			})
			log.Warnf("%s: source says recursive=%v but call graph says %v", name, sourceSays, graphSays)
		}
	}
}

func keys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
