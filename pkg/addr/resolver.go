// Package addr builds the bidirectional address<->function map used to
// resolve call targets.
//
// Call sites encode targets in several textual shapes (raw hex, hex without
// leading zeros, byte form, word form, word form without leading zeros) but
// all of them denote the same two underlying integers per function: its
// byte address and its word address (byte/2). Canonicalizing to those two
// integers collapses the five textual formats into one lookup.
package addr

import (
	"strconv"
	"strings"

	"github.com/mranakol/avrstack/pkg/avr"
)

// Resolver is the bidirectional address<->function map.
type Resolver struct {
	byName  map[string]*avr.Function
	byByte  map[uint64]*avr.Function
	byWord  map[uint64]*avr.Function
}

// Build indexes every function by name, byte address and word address.
// Invariant: addresses map to exactly one function, enforced here by
// last-write-wins on duplicate addresses (disassembly addresses are unique
// in practice; a collision indicates a partitioning bug upstream).
func Build(funcs []*avr.Function) *Resolver {
	r := &Resolver{
		byName: make(map[string]*avr.Function, len(funcs)),
		byByte: make(map[uint64]*avr.Function, len(funcs)),
		byWord: make(map[uint64]*avr.Function, len(funcs)),
	}
	for _, fn := range funcs {
		r.byName[fn.Label] = fn
		r.byByte[fn.ByteAddress] = fn
		r.byWord[fn.WordAddress] = fn
	}
	return r
}

// ByName looks up a function by its exact disassembly label.
func (r *Resolver) ByName(name string) (*avr.Function, bool) {
	fn, ok := r.byName[name]
	return fn, ok
}

// ByByteAddress looks up a function whose byte address equals addr.
func (r *Resolver) ByByteAddress(addr uint64) (*avr.Function, bool) {
	fn, ok := r.byByte[addr]
	return fn, ok
}

// ByWordAddress looks up a function whose word address (byte/2) equals addr.
func (r *Resolver) ByWordAddress(addr uint64) (*avr.Function, bool) {
	fn, ok := r.byWord[addr]
	return fn, ok
}

// ResolveText tries to resolve a raw textual address operand (as it appears
// on a call instruction) against both the byte and word address spaces,
// trying byte first since call targets are byte addresses on this
// architecture and word addresses only arise from the jump-table heuristics
// in pkg/callgraph.
func (r *Resolver) ResolveText(text string) (*avr.Function, bool) {
	v, ok := parseAddrText(text)
	if !ok {
		return nil, false
	}
	if fn, ok := r.ByByteAddress(v); ok {
		return fn, true
	}
	return r.ByWordAddress(v)
}

// ResolveValue tries both address spaces for an already-parsed integer,
// used by the indirect-call pointer-pair resolution in pkg/callgraph.
func (r *Resolver) ResolveValue(v uint64) (*avr.Function, bool) {
	if fn, ok := r.ByByteAddress(v); ok {
		return fn, true
	}
	return r.ByWordAddress(v)
}

func parseAddrText(text string) (uint64, bool) {
	s := strings.TrimSpace(text)
	s = strings.TrimPrefix(s, "0x")
	s = strings.TrimPrefix(s, "0X")
	s = strings.TrimLeft(s, "0")
	if s == "" {
		return 0, true
	}
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
