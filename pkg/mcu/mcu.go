// Package mcu is the static RAM-size lookup table for supported target
// MCUs. It is required only for the report, never for the core analysis.
package mcu

import "fmt"

// Properties describes one target's memory layout.
type Properties struct {
	RAMSize  int
	RAMStart int
	StackTop int
}

// builtin lists the RAM layout of each MCU target known out of the box.
var builtin = map[string]Properties{
	"atmega328p": {RAMSize: 2048, RAMStart: 0x100, StackTop: 0x08FF},
	"atmega2560": {RAMSize: 8192, RAMStart: 0x200, StackTop: 0x21FF},
	"attiny85":   {RAMSize: 512, RAMStart: 0x60, StackTop: 0x025F},
}

// Table is a mutable lookup that config.Config can extend with additional
// target entries beyond the builtin set.
type Table struct {
	entries map[string]Properties
}

// Default returns a Table seeded with the builtin MCUs.
func Default() *Table {
	t := &Table{entries: make(map[string]Properties, len(builtin))}
	for name, p := range builtin {
		t.entries[name] = p
	}
	return t
}

// Add registers or overrides a target's properties.
func (t *Table) Add(name string, p Properties) {
	t.entries[name] = p
}

// Lookup returns the properties for target, falling back to atmega328p
// with an error describing the substitution; callers decide whether that
// fallback is acceptable.
func (t *Table) Lookup(target string) (Properties, error) {
	if p, ok := t.entries[target]; ok {
		return p, nil
	}
	return t.entries["atmega328p"], fmt.Errorf("mcu: unknown target %q, falling back to atmega328p", target)
}
