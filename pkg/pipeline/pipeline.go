// Package pipeline wires the full analysis into one Run call: a scoped
// workspace is created, the external Toolchain compiles and disassembles
// the source, and each stage package is invoked in turn to build the final
// analysis.Result.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/mranakol/avrstack/internal/config"
	"github.com/mranakol/avrstack/pkg/addr"
	"github.com/mranakol/avrstack/pkg/analysis"
	"github.com/mranakol/avrstack/pkg/avr"
	"github.com/mranakol/avrstack/pkg/callgraph"
	"github.com/mranakol/avrstack/pkg/csource"
	"github.com/mranakol/avrstack/pkg/depth"
	"github.com/mranakol/avrstack/pkg/disasm"
	"github.com/mranakol/avrstack/pkg/frame"
	"github.com/mranakol/avrstack/pkg/frameanalysis"
	"github.com/mranakol/avrstack/pkg/mcu"
	"github.com/mranakol/avrstack/pkg/policy"
	"github.com/mranakol/avrstack/pkg/recursion"
	"github.com/mranakol/avrstack/pkg/stackpath"
	"github.com/mranakol/avrstack/pkg/toolchain"
)

var log = logrus.WithField("stage", "pipeline")

// Options configures one Run.
type Options struct {
	SourceFile string
	MCUType    string
	Config     config.Config
	MCUTable   *mcu.Table
	Policy     *policy.Policy
	Toolchain  toolchain.Toolchain

	// WorkDir, if set, is used as the scoped workspace and is left in place
	// on return (intended for tests). If empty, Run creates a temporary
	// directory and removes it before returning, win or lose.
	WorkDir string
}

// Run executes the full pipeline and returns the aggregated result, or the
// first fatal error encountered: ToolchainAbsent, CompilationFailure,
// FrameReportMissing, and RecursionDepthUnknown all abort the run;
// everything else accumulates as a Finding on the result.
func Run(ctx context.Context, opts Options) (*analysis.Result, error) {
	workDir := opts.WorkDir
	cleanup := func() {}
	if workDir == "" {
		dir, err := os.MkdirTemp("", "avrstack-*")
		if err != nil {
			return nil, fmt.Errorf("pipeline: creating scoped workspace: %w", err)
		}
		workDir = dir
		cleanup = func() {
			if err := os.RemoveAll(workDir); err != nil {
				log.Warnf("cleaning up workspace %s: %v", workDir, err)
			}
		}
	}
	defer cleanup()

	tc := opts.Toolchain
	if tc == nil {
		tc = &toolchain.Exec{WorkDir: workDir}
	}

	table := opts.MCUTable
	if table == nil {
		table = mcu.Default()
	}
	opts.Config.ApplyMCUOverrides(table)
	props, err := table.Lookup(opts.MCUType)
	if err != nil {
		log.Warnf("%v", err)
	}

	pol := opts.Policy
	if pol == nil {
		pol = policy.Default()
	}

	var findings []avr.Finding

	sourceBytes, err := os.ReadFile(opts.SourceFile)
	if err != nil {
		return nil, fmt.Errorf("pipeline: reading %s: %w", opts.SourceFile, err)
	}
	sourceText := string(sourceBytes)

	extraFlags, err := opts.Config.SplitCompilerFlags()
	if err != nil {
		return nil, err
	}

	log.Debugf("compiling %s for %s", opts.SourceFile, opts.MCUType)
	compileResult, err := tc.Compile(ctx, opts.SourceFile, opts.MCUType, opts.Config.OptimizationLevel, extraFlags)
	if err != nil {
		return nil, err
	}

	frameReport, err := frame.Parse(compileResult.FrameReport)
	if err != nil {
		return nil, &toolchain.ErrFrameReportMissing{Err: err}
	}

	disasmText, err := tc.Disassemble(ctx, compileResult.ExecutablePath)
	if err != nil {
		return nil, err
	}
	d := disasm.New(disasmText)
	funcs := disasm.Partition(d)

	accountedFuncs := make([]*avr.Function, 0, len(funcs))
	for _, f := range funcs {
		if f.Runtime {
			continue
		}
		accountedFuncs = append(accountedFuncs, f)
	}

	if err := frameanalysis.Analyze(d, accountedFuncs, frameReport, &findings); err != nil {
		return nil, err
	}

	resolver := addr.Build(funcs)

	localFrame := make(map[string]int, len(accountedFuncs))
	for _, f := range accountedFuncs {
		localFrame[f.BaseName] = f.LocalFrame
	}
	knownNames := make([]string, 0, len(frameReport.Base))
	for name := range frameReport.Base {
		knownNames = append(knownNames, name)
	}
	sort.Strings(knownNames)

	graph := callgraph.Build(d, funcs, resolver, knownNames, pol, sourceText, &findings)

	recursiveSet := recursion.Detect(graph, sourceText, &findings)
	recursionInfo, err := depth.Estimate(sourceText, recursiveSet, pol, &findings)
	if err != nil {
		return nil, err
	}

	engine, err := stackpath.New(graph, localFrame, recursionInfo)
	if err != nil {
		return nil, fmt.Errorf("pipeline: building path search engine: %w", err)
	}
	result := engine.Search(callgraph.EntrySymbol)

	sections, err := tc.SizeSections(ctx, compileResult.ExecutablePath)
	if err != nil {
		return nil, err
	}
	dataSize := sections[".data"] + sections[".bss"]

	res := &analysis.Result{
		SourceFile:       filepath.Clean(opts.SourceFile),
		MCUType:          opts.MCUType,
		RAMSize:          props.RAMSize,
		DataSize:         dataSize,
		FunctionUsage:    localFrame,
		CallGraph:        graph,
		Recursive:        recursionInfo,
		Paths:            result.Paths,
		MaxPath:          result.Max,
		RawMax:           result.RawMax,
		SafetyMultiplier: opts.Config.SafetyMultiplier,
		Findings:         findings,
	}
	res.Finalize()

	if body, _, ok := csource.Body(sourceText, callgraph.EntrySymbol); ok && csource.HasInfiniteLoop(body) {
		log.Debug("main contains an infinite loop, excluded from recursion accounting as entry")
	}

	return res, nil
}
