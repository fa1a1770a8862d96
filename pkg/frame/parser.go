// Package frame parses the compiler's per-function stack-usage report
// (gcc -fstack-usage's .su output) into raw and normalized name tables.
package frame

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/mranakol/avrstack/pkg/avr"
)

var log = logrus.WithField("stage", "frame")

// numberTail matches the final "<int> <word>" field of a .su record, e.g.
// "16 static" or "0 dynamic,bounded".
var numberTail = regexp.MustCompile(`(\d+)\s+\S+\s*$`)

// funcField pulls the function name out of the "...:<file>:<name> <sig>"
// portion that precedes the number tail. The trailing \s is load-bearing:
// without it, a line like "main.c:10:5:main\t4\tstatic" leftmost-matches
// the column number ("5") instead of the name.
var funcField = regexp.MustCompile(`:[^:]+:([^\s:]+)\s`)

// Report is the parsed frame report: raw per-label byte counts and the
// normalized base-name table with collisions resolved to the minimum.
type Report struct {
	Raw  map[string]int
	Base map[string]int
}

// Parse reads a frame report and produces its Report. Malformed lines are
// skipped with a warning; Parse fails only when reading r fails. Total absence only
// becomes fatal later, when the assembly-derived frame also can't cover a
// function during reconciliation.
func Parse(r io.Reader) (*Report, error) {
	rep := &Report{Raw: map[string]int{}, Base: map[string]int{}}
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		name, bytes, ok := parseLine(line)
		if !ok {
			log.Warnf("skipping malformed frame report line %d: %q", lineNo, line)
			continue
		}
		rep.Raw[name] = bytes
		base := avr.NormalizeName(name)
		if existing, ok := rep.Base[base]; !ok || bytes < existing {
			rep.Base[base] = bytes
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("frame: reading report: %w", err)
	}
	return rep, nil
}

func parseLine(line string) (name string, bytes int, ok bool) {
	m := numberTail.FindStringSubmatch(line)
	if m == nil {
		return "", 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return "", 0, false
	}
	fm := funcField.FindStringSubmatch(line)
	if fm == nil {
		// Fallback: split on ':' and take the first token of the fourth
		// field ("file:line:column:name ..."); the third field is the
		// column number, not the name.
		parts := strings.Split(line, ":")
		if len(parts) < 4 {
			return "", 0, false
		}
		fields := strings.Fields(parts[3])
		if len(fields) == 0 {
			return "", 0, false
		}
		return fields[0], n, true
	}
	return fm[1], n, true
}

// NormalizeName strips any optimizer-clone suffix from a raw label; it is a
// thin re-export of avr.NormalizeName kept here so callers of this package
// don't need to import pkg/avr just to normalize a name.
func NormalizeName(name string) string {
	return avr.NormalizeName(name)
}
