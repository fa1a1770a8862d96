// Package policy holds two decisions left open by design: the
// array-dispatch exclusion set and extra recurrence-pattern recognizers.
// The exclusion set can be extended from a small starlark script instead of
// requiring a recompile; recognizers are registered from Go code with
// AddRecognizer and cannot be defined in a script.
package policy

import (
	"fmt"

	"go.starlark.net/starlark"

	"github.com/mranakol/avrstack/pkg/avr"
)

// defaultExcluded is the built-in array-dispatch exclusion set: the delay
// routines a dispatch-table scan would otherwise wrongly fan out to.
var defaultExcluded = []string{"delay_ms", "delay_us", "_delay_ms", "_delay_us"}

// Policy is the mutable set of names excluded from array-dispatch fan-out
// edges, plus any additional recurrence recognizers registered via
// AddRecognizer.
type Policy struct {
	excluded   map[string]bool
	recognizers []Recognizer
}

// Recognizer is an additional recurrence-pattern matcher beyond the built-in
// subtract/divide/shift rules in pkg/depth. Body is the C source text of
// the recursive function; a Recognizer returns ok=false if it doesn't apply.
type Recognizer func(body, param string) (kind avr.ReductionKind, n int, ok bool)

// Default returns the built-in policy: just the hard-coded delay-routine
// exclusions, no extra recognizers.
func Default() *Policy {
	p := &Policy{excluded: make(map[string]bool, len(defaultExcluded))}
	for _, name := range defaultExcluded {
		p.excluded[name] = true
	}
	return p
}

// ExcludedFromArrayDispatch reports whether name should never be added as a
// fan-out target of an unresolved array-dispatch indirect call.
func (p *Policy) ExcludedFromArrayDispatch(name string) bool {
	return p.excluded[name]
}

// Recognizers returns any extra recurrence recognizers registered with the
// policy, beyond the built-in subtract/divide/shift patterns pkg/depth
// always tries first.
func (p *Policy) Recognizers() []Recognizer {
	return p.recognizers
}

// AddRecognizer registers an extra recurrence recognizer, consulted by
// pkg/depth when a recursive function matches none of the built-in
// patterns.
func (p *Policy) AddRecognizer(r Recognizer) {
	p.recognizers = append(p.recognizers, r)
}

// LoadStarlark extends p with the `excluded_functions` list (a list of
// strings, merged into the built-in set) defined by a starlark script. A
// script with no such global is a no-op.
//
// Example script:
//
//	excluded_functions = ["vTaskDelay", "sleep_ms"]
func (p *Policy) LoadStarlark(name string, src []byte) error {
	thread := &starlark.Thread{Name: "avrstack-policy"}
	globals, err := starlark.ExecFile(thread, name, src, nil)
	if err != nil {
		return fmt.Errorf("policy: loading %s: %w", name, err)
	}
	val, ok := globals["excluded_functions"]
	if !ok {
		return nil
	}
	list, ok := val.(*starlark.List)
	if !ok {
		return fmt.Errorf("policy: %s: excluded_functions must be a list", name)
	}
	iter := list.Iterate()
	defer iter.Done()
	var item starlark.Value
	for iter.Next(&item) {
		s, ok := starlark.AsString(item)
		if !ok {
			return fmt.Errorf("policy: %s: excluded_functions entries must be strings", name)
		}
		p.excluded[s] = true
	}
	return nil
}
