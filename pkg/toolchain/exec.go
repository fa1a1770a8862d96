package toolchain

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/creack/pty"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("stage", "toolchain")

// requiredTools is the set of AVR GNU toolchain binaries Exec depends on.
var requiredTools = []string{"avr-gcc", "avr-objdump", "avr-size"}

// Exec is the default Toolchain, implemented by shelling out to the AVR
// GNU toolchain.
type Exec struct {
	// WorkDir is the scoped workspace the pipeline created; intermediate
	// files (the executable, the .su frame report) are written here.
	WorkDir string
	// Verbose streams the compiler's stderr live through a pty instead of
	// buffering it. No avrstack command sets it; the Exec that pipeline.Run
	// builds by default leaves it false.
	Verbose bool
}

// CheckAvailable verifies every required tool is on PATH, returning
// ErrToolchainAbsent for the first one that isn't.
func CheckAvailable() error {
	for _, tool := range requiredTools {
		if _, err := exec.LookPath(tool); err != nil {
			return &ErrToolchainAbsent{Tool: tool}
		}
	}
	return nil
}

// Compile runs avr-gcc with function-frame reporting enabled and inlining
// disabled, then parses the resulting .su sidecar file.
func (e *Exec) Compile(ctx context.Context, source, mcuType, optLevel string, extraFlags []string) (CompileResult, error) {
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	execPath := filepath.Join(e.WorkDir, base+".elf")

	args := []string{
		"-mmcu=" + mcuType,
		optLevel, "-g",
		"-fno-inline", "-fno-inline-small-functions",
		"-fstack-usage",
	}
	args = append(args, extraFlags...)
	args = append(args, "-o", execPath, source)

	if err := e.run(ctx, "avr-gcc", args); err != nil {
		return CompileResult{}, err
	}

	suFile, err := locateFrameReport(e.WorkDir, filepath.Dir(source), base)
	if err != nil {
		log.Warnf("stack usage file not found for %s: %v", base, err)
		return CompileResult{ExecutablePath: execPath, FrameReport: strings.NewReader("")}, nil
	}
	data, err := os.ReadFile(suFile)
	if err != nil {
		return CompileResult{}, fmt.Errorf("toolchain: reading frame report %s: %w", suFile, err)
	}
	return CompileResult{ExecutablePath: execPath, FrameReport: bytes.NewReader(data)}, nil
}

// locateFrameReport tries the handful of locations avr-gcc -fstack-usage
// is known to drop the .su file in.
func locateFrameReport(workDir, sourceDir, base string) (string, error) {
	candidates := []string{
		filepath.Join(sourceDir, base+".su"),
		filepath.Join(workDir, base+".su"),
		filepath.Join(workDir, base+".elf-"+base+".su"),
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c, nil
		}
	}
	return "", fmt.Errorf("no .su file in %v", candidates)
}

// Disassemble runs avr-objdump -d and returns the raw text stream.
func (e *Exec) Disassemble(ctx context.Context, execPath string) (string, error) {
	var out bytes.Buffer
	if err := e.runCapture(ctx, "avr-objdump", []string{"-d", execPath}, &out); err != nil {
		return "", err
	}
	return out.String(), nil
}

// SizeSections runs avr-size -A and parses the per-section byte counts.
func (e *Exec) SizeSections(ctx context.Context, execPath string) (map[string]int, error) {
	var out bytes.Buffer
	if err := e.runCapture(ctx, "avr-size", []string{"-A", execPath}, &out); err != nil {
		return nil, err
	}
	sections := make(map[string]int)
	sc := bufio.NewScanner(&out)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 {
			continue
		}
		if n, err := strconv.Atoi(fields[1]); err == nil {
			sections[fields[0]] = n
		}
	}
	return sections, nil
}

// run executes cmd, streaming stderr through a pty when Verbose is set so
// line-buffered compiler progress isn't fully buffered (SPEC_FULL.md
// DOMAIN STACK note on creack/pty); it falls back to a plain pipe whenever
// pty allocation isn't available (non-TTY CI environments).
func (e *Exec) run(ctx context.Context, name string, args []string) error {
	return e.runCapture(ctx, name, args, io.Discard)
}

func (e *Exec) runCapture(ctx context.Context, name string, args []string, stdout io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = e.WorkDir
	// Run in its own process group so a scoped-workspace teardown can kill
	// the whole tree if the toolchain hangs.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var stderrBuf bytes.Buffer
	cmd.Stdout = stdout

	if e.Verbose {
		ptmx, tty, err := pty.Open()
		if err == nil {
			defer ptmx.Close()
			defer tty.Close()
			cmd.Stderr = tty
			if startErr := cmd.Start(); startErr != nil {
				return classifyStartError(name, startErr)
			}
			go io.Copy(io.MultiWriter(&stderrBuf, log.WriterLevel(logrus.DebugLevel)), ptmx)
			err = cmd.Wait()
			return classifyRunError(err, stderrBuf.String())
		}
		log.Debugf("pty allocation failed (%v), falling back to a plain pipe", err)
	}

	cmd.Stderr = &stderrBuf
	if err := cmd.Run(); err != nil {
		return classifyStartOrRunError(name, err, stderrBuf.String())
	}
	return nil
}

func classifyStartError(name string, err error) error {
	if os.IsNotExist(err) {
		return &ErrToolchainAbsent{Tool: name}
	}
	return fmt.Errorf("toolchain: starting %s: %w", name, err)
}

func classifyRunError(err error, stderr string) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*exec.ExitError); ok {
		return &ErrCompilationFailure{Stderr: stderr}
	}
	return fmt.Errorf("toolchain: %w", err)
}

func classifyStartOrRunError(name string, err error, stderr string) error {
	if os.IsNotExist(err) {
		return &ErrToolchainAbsent{Tool: name}
	}
	if _, ok := err.(*exec.ExitError); ok {
		return &ErrCompilationFailure{Stderr: stderr}
	}
	return fmt.Errorf("toolchain: running %s: %w", name, err)
}
