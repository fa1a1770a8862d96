// Package report renders a final analysis.Result as text, JSON, or a
// Graphviz .dot call-graph.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"sort"

	"github.com/mranakol/avrstack/pkg/analysis"
)

// Format selects the Reporter's output shape.
type Format string

const (
	Text Format = "text"
	JSON Format = "json"
	Dot  Format = "dot"
)

// ANSI codes used for Text color output, kept minimal and local:
// go-colorable's job is making these escapes behave on Windows consoles,
// not producing them.
const (
	ansiReset  = "\x1b[0m"
	ansiBold   = "\x1b[1m"
	ansiYellow = "\x1b[33m"
	ansiRed    = "\x1b[31m"
)

// Render writes res to w in the requested format. Color is only applied in
// Text format and only when colorize is true (the caller decides that from
// go-isatty against the destination writer; see cmd/avrstack).
func Render(w io.Writer, format Format, res *analysis.Result, colorize bool) error {
	switch format {
	case JSON:
		return renderJSON(w, res)
	case Dot:
		return renderDot(w, res)
	default:
		return renderText(w, res, colorize)
	}
}

type jsonReport struct {
	SourceFile       string         `json:"source_file"`
	MCUType          string         `json:"mcu_type"`
	RAMSize          int            `json:"ram_size"`
	DataSize         int            `json:"data_size"`
	AvailableStack   int            `json:"available_stack"`
	RawMax           int            `json:"raw_max_usage"`
	ReportedMax      int            `json:"max_stack_usage"`
	SafetyMultiplier float64        `json:"safety_multiplier"`
	FunctionUsage    map[string]int `json:"function_usage"`
	RecursiveDepths  map[string]int `json:"recursion_limits,omitempty"`
	Findings         []string       `json:"findings,omitempty"`
}

func renderJSON(w io.Writer, res *analysis.Result) error {
	jr := jsonReport{
		SourceFile:       res.SourceFile,
		MCUType:          res.MCUType,
		RAMSize:          res.RAMSize,
		DataSize:         res.DataSize,
		AvailableStack:   res.AvailableStack,
		RawMax:           res.RawMax,
		ReportedMax:      res.ReportedMax,
		SafetyMultiplier: res.SafetyMultiplier,
		FunctionUsage:    res.FunctionUsage,
	}
	if len(res.Recursive) > 0 {
		jr.RecursiveDepths = make(map[string]int, len(res.Recursive))
		for name, info := range res.Recursive {
			jr.RecursiveDepths[name] = info.Depth
		}
	}
	for _, f := range res.Findings {
		jr.Findings = append(jr.Findings, f.String())
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jr)
}

// renderDot emits the call graph as Graphviz source for `--format dot`. Nodes
// carry the function's observed frame size; recursive functions are
// filled red.
func renderDot(w io.Writer, res *analysis.Result) error {
	fmt.Fprintln(w, "digraph stack_usage {")
	fmt.Fprintln(w, "  rankdir=LR;")
	if res.CallGraph == nil {
		fmt.Fprintln(w, "}")
		return nil
	}
	for _, name := range res.CallGraph.Nodes() {
		usage := res.FunctionUsage[name]
		label := fmt.Sprintf("%s\\n%d bytes", name, usage)
		if _, recursive := res.Recursive[name]; recursive {
			fmt.Fprintf(w, "  %q [label=%q, style=filled, fillcolor=\"#f4a0a0\"];\n", name, label)
		} else {
			fmt.Fprintf(w, "  %q [label=%q];\n", name, label)
		}
	}
	for _, caller := range res.CallGraph.Nodes() {
		for _, callee := range res.CallGraph.Successors(caller) {
			fmt.Fprintf(w, "  %q -> %q;\n", caller, callee)
		}
	}
	fmt.Fprintln(w, "}")
	return nil
}

func renderText(w io.Writer, res *analysis.Result, colorize bool) error {
	bold := func(s string) string { return wrap(s, ansiBold, colorize) }
	warn := func(s string) string { return wrap(s, ansiYellow, colorize) }

	fmt.Fprintf(w, "Stack Analysis Report for %s\n", filepath.Base(res.SourceFile))
	fmt.Fprintln(w, "============================================================")
	fmt.Fprintf(w, "MCU Type: %s\n", res.MCUType)
	fmt.Fprintf(w, "RAM Size: %d bytes\n", res.RAMSize)
	fmt.Fprintf(w, "Data Size (.data + .bss): %d bytes\n", res.DataSize)
	fmt.Fprintf(w, "Available Stack Space: %d bytes\n\n", res.AvailableStack)

	fmt.Fprintln(w, bold("Static Analysis Results:"))
	fmt.Fprintln(w, "------------------------------")
	fmt.Fprintf(w, "Predicted Maximum Stack Usage: %d bytes\n", res.ReportedMax)
	fmt.Fprintf(w, "Raw Stack Usage (without safety margin): %d bytes\n", res.RawMax)
	fmt.Fprintf(w, "Safety Margin: %d bytes\n", res.AvailableStack-res.ReportedMax)
	if res.RAMSize > 0 {
		fmt.Fprintf(w, "Stack Usage Percentage: %.1f%%\n", float64(res.ReportedMax)/float64(res.RAMSize)*100)
	}
	if len(res.MaxPath.Functions) > 0 {
		fmt.Fprintf(w, "Maximal Path: %v\n", res.MaxPath.Functions)
	}
	if res.ReportedMax > res.AvailableStack {
		fmt.Fprintln(w, wrap("WARNING: predicted usage exceeds available stack space", ansiRed, colorize))
	}

	fmt.Fprintln(w, "\nFunction Stack Usage:")
	fmt.Fprintln(w, "------------------------------")
	for _, name := range sortedByUsageDesc(res.FunctionUsage) {
		fmt.Fprintf(w, "%s: %d bytes\n", name, res.FunctionUsage[name])
	}

	if len(res.Recursive) > 0 {
		fmt.Fprintln(w, "\nRecursive Functions:")
		fmt.Fprintln(w, "------------------------------")
		names := make([]string, 0, len(res.Recursive))
		for n := range res.Recursive {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			info := res.Recursive[n]
			fmt.Fprintf(w, "%s (recursion limit: %d)\n", n, info.Depth)
		}
	}

	if len(res.Findings) > 0 {
		fmt.Fprintln(w, "\nWarnings:")
		fmt.Fprintln(w, "------------------------------")
		for _, f := range res.Findings {
			fmt.Fprintln(w, warn(f.String()))
		}
	}
	return nil
}

func wrap(s, code string, colorize bool) string {
	if !colorize {
		return s
	}
	return code + s + ansiReset
}

func sortedByUsageDesc(usage map[string]int) []string {
	names := make([]string, 0, len(usage))
	for n := range usage {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool {
		if usage[names[i]] != usage[names[j]] {
			return usage[names[i]] > usage[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}
