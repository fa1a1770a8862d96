// Package depth implements DepthEstimator: for each recursive function it
// identifies the recurrence pattern and the initial argument value from
// the source, then computes a finite depth.
package depth

import (
	"regexp"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/mranakol/avrstack/pkg/avr"
	"github.com/mranakol/avrstack/pkg/csource"
	"github.com/mranakol/avrstack/pkg/policy"
	"github.com/mranakol/avrstack/pkg/toolchain"
)

var log = logrus.WithField("stage", "depth")

// Estimate computes an avr.RecursionInfo for every name in recursive, using
// source text to determine the reduction kind and initial value. pol's
// extra recognizers are consulted when none of the built-in
// subtract/divide/shift patterns match. Returns a RecursionDepthUnknown
// error naming the function for the first one whose initial value can't be
// determined by any of the four search methods.
func Estimate(sourceText string, recursive map[string]bool, pol *policy.Policy, findings *[]avr.Finding) (map[string]avr.RecursionInfo, error) {
	names := make([]string, 0, len(recursive))
	for n := range recursive {
		names = append(names, n)
	}
	sort.Strings(names)

	infos := make(map[string]avr.RecursionInfo, len(names))
	for _, name := range names {
		kind, n, ok := detectReduction(sourceText, name, pol)
		if !ok {
			*findings = append(*findings, avr.Finding{
				Kind: avr.RecursionPatternUnknown, Function: name,
				Message: "no recognizable reduction pattern; defaulting to subtract(1)",
			})
			log.Warnf("%s: reduction pattern unknown, defaulting to subtract(1)", name)
			kind, n = avr.Subtract, 1
		}

		initial, ok := findInitialValue(sourceText, name, 1)
		if !ok {
			return nil, &toolchain.ErrRecursionDepthUnknown{Function: name}
		}

		d := computeDepth(kind, n, initial)
		infos[name] = avr.RecursionInfo{
			Function: name, Depth: d, Reduction: kind, N: n, InitialValue: initial,
		}
		log.Debugf("%s: %s", name, infos[name])
	}
	return infos, nil
}

func detectReduction(src, name string, pol *policy.Policy) (avr.ReductionKind, int, bool) {
	q := regexp.QuoteMeta(name)
	subtractRe := regexp.MustCompile(q + `\s*\(\s*\w+\s*-\s*(\d+)\s*\)`)
	divideRe := regexp.MustCompile(q + `\s*\(\s*\w+\s*/\s*(\d+)\s*\)`)
	shiftRe := regexp.MustCompile(q + `\s*\(\s*\w+\s*>>\s*(\d+)\s*\)`)

	if m := subtractRe.FindStringSubmatch(src); m != nil {
		n := atoi(m[1])
		return avr.Subtract, n, true
	}
	if m := divideRe.FindStringSubmatch(src); m != nil {
		n := atoi(m[1])
		return avr.Divide, n, true
	}
	if m := shiftRe.FindStringSubmatch(src); m != nil {
		k := atoi(m[1])
		return avr.Divide, 1 << uint(k), true
	}

	if kind, n, ok := tryRecognizers(src, name, pol); ok {
		return kind, n, true
	}
	return avr.Subtract, 1, false
}

// tryRecognizers consults any extra recognizers pol carries, one per
// parameter of name's own definition, before the caller falls back to the
// subtract(1) default.
func tryRecognizers(src, name string, pol *policy.Policy) (avr.ReductionKind, int, bool) {
	if pol == nil {
		return avr.Subtract, 0, false
	}
	recognizers := pol.Recognizers()
	if len(recognizers) == 0 {
		return avr.Subtract, 0, false
	}
	body, params, ok := csource.Body(src, name)
	if !ok {
		return avr.Subtract, 0, false
	}
	for _, param := range params {
		for _, recognize := range recognizers {
			if kind, n, ok := recognize(body, param); ok {
				return kind, n, true
			}
		}
	}
	return avr.Subtract, 0, false
}

// findInitialValue runs a fixed four-method search order for a recursive
// function's starting argument value. hops bounds the parameter-propagation
// step to one level up the caller chain, a deliberate limit rather than a
// full interprocedural trace.
func findInitialValue(src, name string, hops int) (int, bool) {
	// 1. Direct literal argument at any call site.
	if v, ok := maxLiteralCallArg(src, name); ok {
		return v, true
	}

	// 2. Variable argument in main, resolved to a literal assignment in main.
	if mainBody, _, ok := csource.Body(src, "main"); ok {
		if v, ok := variableArgInCaller(mainBody, name); ok {
			return v, true
		}
	}

	// 3. Parameter propagation one hop up the caller chain.
	if hops > 0 {
		if v, ok := paramPropagation(src, name); ok {
			return v, true
		}
	}

	// 4. Any literal call elsewhere in the source. Identical to method 1
	// as written; kept as a separate named step in the search order.
	if v, ok := maxLiteralCallArg(src, name); ok {
		return v, true
	}

	return 0, false
}

var literalCallCache = map[string]*regexp.Regexp{}

func literalCallRe(name string) *regexp.Regexp {
	if re, ok := literalCallCache[name]; ok {
		return re
	}
	re := regexp.MustCompile(regexp.QuoteMeta(name) + `\s*\(\s*(\d+)\s*[,)]`)
	literalCallCache[name] = re
	return re
}

func maxLiteralCallArg(src, name string) (int, bool) {
	re := literalCallRe(name)
	matches := re.FindAllStringSubmatch(src, -1)
	if len(matches) == 0 {
		return 0, false
	}
	max := -1
	for _, m := range matches {
		v := atoi(m[1])
		if v > max {
			max = v
		}
	}
	return max, true
}

func variableArgInCaller(callerBody, name string) (int, bool) {
	varRe := regexp.MustCompile(regexp.QuoteMeta(name) + `\s*\(\s*(\w+)\s*[,)]`)
	m := varRe.FindStringSubmatch(callerBody)
	if m == nil {
		return 0, false
	}
	varName := m[1]
	assignRe := regexp.MustCompile(regexp.QuoteMeta(varName) + `\s*=\s*(\d+)\s*;`)
	am := assignRe.FindStringSubmatch(callerBody)
	if am == nil {
		return 0, false
	}
	return atoi(am[1]), true
}

// funcDefRe enumerates every function definition's name in the source, used
// to find candidate callers for parameter propagation.
var funcDefRe = regexp.MustCompile(`(?:\w+[\s\*]+)+(\w+)\s*\([^)]*\)\s*\{`)

func paramPropagation(src, name string) (int, bool) {
	for _, m := range funcDefRe.FindAllStringSubmatch(src, -1) {
		caller := m[1]
		if caller == name {
			continue
		}
		body, params, ok := csource.Body(src, caller)
		if !ok {
			continue
		}
		for _, p := range params {
			if p == "" {
				continue
			}
			callRe := regexp.MustCompile(regexp.QuoteMeta(name) + `\s*\(\s*` + regexp.QuoteMeta(p) + `\s*[,)]`)
			if callRe.MatchString(body) {
				if v, ok := findInitialValue(src, caller, 0); ok {
					return v, true
				}
			}
		}
	}
	return 0, false
}

func computeDepth(kind avr.ReductionKind, n, initial int) int {
	switch kind {
	case avr.Subtract:
		if n <= 0 {
			n = 1
		}
		return initial/n + 1
	case avr.Divide:
		if n >= 2 && initial >= 1 {
			return ceilLog(initial, n) + 1
		}
		return initial + 1
	default:
		return initial + 1
	}
}

// ceilLog returns ceil(log_n(initial)) computed by repeated multiplication
// instead of floating-point logarithms, to avoid precision errors landing
// exactly on an integer boundary (e.g. log(64)/log(4) == 3).
func ceilLog(initial, n int) int {
	k := 0
	p := 1
	for p < initial {
		p *= n
		k++
	}
	return k
}

func atoi(s string) int {
	n := 0
	for _, c := range s {
		n = n*10 + int(c-'0')
	}
	return n
}
