// Package csource holds the small set of regex/brace-matching helpers both
// RecursionDetector and DepthEstimator use to cross-check the call graph
// against the original C source. This is intentionally shallow: a
// source-level lexer or parser is out of scope, so parameter tracing never
// goes beyond one hop.
package csource

import "regexp"

// funcDefPattern builds a regexp that finds a function definition's opening brace, e.g.
// "void foo(int n) {". re.DOTALL equivalent is implied by Go's regexp
// operating on the whole string without per-line anchors.
func funcDefPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?:\w+\s+)+` + regexp.QuoteMeta(name) + `\s*\(([^)]*)\)\s*\{`)
}

// Body returns the full text of the first definition of name found in src,
// from the start of its signature through the closing brace, along with its
// parameter list.
func Body(src, name string) (body string, params []string, ok bool) {
	re := funcDefPattern(name)
	loc := re.FindStringSubmatchIndex(src)
	if loc == nil {
		return "", nil, false
	}
	start := loc[0]
	braceOpen := -1
	for i := start; i < len(src); i++ {
		if src[i] == '{' {
			braceOpen = i
			break
		}
	}
	if braceOpen == -1 {
		return "", nil, false
	}
	depth := 0
	end := -1
	for i := braceOpen; i < len(src); i++ {
		switch src[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				end = i
			}
		}
		if end != -1 {
			break
		}
	}
	if end == -1 {
		return "", nil, false
	}
	paramList := src[loc[2]:loc[3]]
	return src[start : end+1], splitParams(paramList), true
}

func splitParams(list string) []string {
	var out []string
	depth := 0
	last := 0
	for i, c := range list {
		switch c {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, lastIdentifier(list[last:i]))
				last = i + 1
			}
		}
	}
	if tail := lastIdentifier(list[last:]); tail != "" {
		out = append(out, tail)
	}
	return out
}

var identRe = regexp.MustCompile(`[A-Za-z_]\w*$`)

// lastIdentifier extracts the parameter name from a declaration fragment
// like "int n" or "uint8_t *buf", i.e. the trailing identifier.
func lastIdentifier(decl string) string {
	m := identRe.FindString(decl)
	return m
}

var infiniteLoopRe = regexp.MustCompile(`while\s*\(\s*(1|true)\s*\)|for\s*\(\s*;\s*;\s*\)`)

// HasInfiniteLoop reports whether body contains a while(1)/while(true)/
// for(;;) construct.
func HasInfiniteLoop(body string) bool {
	return infiniteLoopRe.MatchString(body)
}

// CallsItself reports whether body (the function's definition as returned
// by Body; everything before the first '{' is excluded from the search)
// calls name as a full identifier, not a substring of another identifier.
func CallsItself(body, name string) bool {
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\s*\(`)
	// Skip the opening brace of the declaration itself: search from the
	// first '{' onward so the signature itself is excluded from the scan.
	if idx := indexByte(body, '{'); idx >= 0 {
		body = body[idx:]
	}
	return re.MatchString(body)
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}
