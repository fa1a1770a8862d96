// Package disasm models the AVR disassembly text stream and decodes the
// handful of instruction shapes the analysis cares about.
package disasm

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/mranakol/avrstack/pkg/avr"
)

// Disassembly is the immutable, line-indexed disassembly text: owned by the
// pipeline, shared read-only by later stages.
type Disassembly struct {
	Lines []string
}

// New wraps raw disassembly text.
func New(text string) *Disassembly {
	return &Disassembly{Lines: strings.Split(text, "\n")}
}

var headerRe = regexp.MustCompile(`^([0-9a-fA-F]+)\s+<([^>]+)>:\s*$`)

// instrRe matches "  <addr>:\t<hex bytes>\t<mnemonic> <operands>" lines,
// tolerating the varying whitespace objdump emits.
var instrRe = regexp.MustCompile(`^\s*([0-9a-fA-F]+):\s+(?:[0-9a-fA-F]{2}\s+)+(\S+)\s*(.*)$`)

// HeaderMatch reports whether line is a function-boundary header, returning
// its address and label if so.
func HeaderMatch(line string) (addr uint64, label string, ok bool) {
	m := headerRe.FindStringSubmatch(line)
	if m == nil {
		return 0, "", false
	}
	a, err := strconv.ParseUint(m[1], 16, 64)
	if err != nil {
		return 0, "", false
	}
	return a, m[2], true
}

// DecodeInstruction parses a single instruction line into the tagged
// avr.Instruction shape; lines that aren't instructions, or whose mnemonic
// isn't one the analysis tracks, decode to (avr.Instruction{}, false).
func DecodeInstruction(line string) (avr.Instruction, bool) {
	m := instrRe.FindStringSubmatch(line)
	if m == nil {
		return avr.Instruction{}, false
	}
	addr, err := strconv.ParseUint(m[1], 16, 64)
	if err != nil {
		return avr.Instruction{}, false
	}
	mnemonic := strings.ToLower(m[2])
	operands := strings.TrimSpace(m[3])
	inst := avr.Instruction{Address: addr, Raw: operands}

	switch mnemonic {
	case "call":
		if target, ok := parseHexOperandTarget(operands); ok {
			inst.Kind = avr.DirectCall
			inst.Target = target
			return inst, true
		}
		return avr.Instruction{}, false
	case "rcall":
		inst.Kind = avr.RelativeCall
		inst.Offset = parseRelativeOffset(operands)
		return inst, true
	case "icall", "eicall":
		inst.Kind = avr.IndirectCall
		return inst, true
	case "push":
		inst.Kind = avr.Push
		return inst, true
	case "pop":
		inst.Kind = avr.Pop
		return inst, true
	case "ldi":
		reg, imm, ok := parseLdi(operands)
		if !ok {
			return avr.Instruction{}, false
		}
		inst.Imm = imm
		switch reg {
		case 30:
			inst.Kind = avr.LoadImmR30
		case 31:
			inst.Kind = avr.LoadImmR31
		default:
			return avr.Instruction{}, false
		}
		return inst, true
	case "ld", "ldd":
		if isPointerRegLoad(operands) {
			inst.Kind = avr.ArrayLoad
			return inst, true
		}
		return avr.Instruction{}, false
	case "sbiw":
		if reg, n, ok := parseFrameAdjust(operands); ok && reg == 28 {
			inst.Kind = avr.FrameSub
			inst.N = n
			return inst, true
		}
		return avr.Instruction{}, false
	case "adiw":
		if reg, n, ok := parseFrameAdjust(operands); ok && reg == 28 {
			inst.Kind = avr.FrameAdd
			inst.N = n
			return inst, true
		}
		return avr.Instruction{}, false
	case "in", "out":
		if touchesStackPointerIO(operands) {
			inst.Kind = avr.Other // tracked separately, see frameanalysis Observation.SPDirectIO
			inst.Raw = "SP:" + operands
			return inst, true
		}
		return avr.Instruction{}, false
	default:
		return avr.Instruction{}, false
	}
}

var hexTargetRe = regexp.MustCompile(`0x([0-9a-fA-F]+)`)

func parseHexOperandTarget(operands string) (uint64, bool) {
	m := hexTargetRe.FindStringSubmatch(operands)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseUint(m[1], 16, 64)
	return v, err == nil
}

// parseRelativeOffset extracts the literal operand rcall encodes when it
// isn't a "+0" idiom; non-numeric or missing operands decode as a
// non-zero sentinel so callers fall through to the text-scan heuristic.
func parseRelativeOffset(operands string) int {
	fields := strings.Fields(operands)
	if len(fields) == 0 {
		return 1
	}
	first := strings.TrimPrefix(fields[0], ".")
	first = strings.TrimPrefix(first, "+")
	n, err := strconv.Atoi(first)
	if err != nil {
		return 1
	}
	return n
}

var ldiRe = regexp.MustCompile(`r(\d+),\s*(?:0x)?([0-9a-fA-F]+)`)

func parseLdi(operands string) (reg int, imm byte, ok bool) {
	m := ldiRe.FindStringSubmatch(operands)
	if m == nil {
		return 0, 0, false
	}
	r, err1 := strconv.Atoi(m[1])
	v, err2 := strconv.ParseUint(m[2], 16, 16)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return r, byte(v), true
}

func isPointerRegLoad(operands string) bool {
	return strings.Contains(operands, "Y") || strings.Contains(operands, "Z")
}

var frameAdjustRe = regexp.MustCompile(`r(\d+),\s*(\d+)`)

func parseFrameAdjust(operands string) (reg, n int, ok bool) {
	m := frameAdjustRe.FindStringSubmatch(operands)
	if m == nil {
		return 0, 0, false
	}
	r, err1 := strconv.Atoi(m[1])
	v, err2 := strconv.Atoi(m[2])
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return r, v, true
}

func touchesStackPointerIO(operands string) bool {
	return strings.Contains(operands, "0x3d") || strings.Contains(operands, "0x3e") ||
		strings.Contains(operands, "0x3D") || strings.Contains(operands, "0x3E")
}
