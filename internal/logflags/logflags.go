// Package logflags configures logrus: one shared root logger, a per-stage
// field logger obtained via Stage, and a single place that turns a CLI
// verbosity flag into a level.
package logflags

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

var (
	mu          sync.RWMutex
	allowStages map[string]bool // nil means "all stages"
)

// Setup configures logrus's standard logger, the one every package-level
// `logrus.WithField("stage", ...)` call in this repo logs through, and
// optionally restricts the loggers returned by Stage to a comma-separated
// subset of pipeline stages.
func Setup(level string, stages string, out io.Writer) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("logflags: invalid log level %q: %w", level, err)
	}
	logrus.SetLevel(lvl)
	if out == nil {
		out = defaultWriter()
	}
	logrus.SetOutput(out)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	mu.Lock()
	defer mu.Unlock()
	if stages == "" {
		allowStages = nil
		return nil
	}
	allowStages = make(map[string]bool)
	for _, s := range strings.Split(stages, ",") {
		allowStages[strings.TrimSpace(s)] = true
	}
	return nil
}

// defaultWriter wraps stderr with go-colorable so logrus's level coloring
// survives on Windows consoles, and is a plain passthrough everywhere
// go-isatty reports a real terminal.
func defaultWriter() io.Writer {
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		return colorable.NewColorableStderr()
	}
	return os.Stderr
}

// Stage returns a field logger for name. If Setup restricted logging to a
// subset of stages and name isn't in it, the returned logger discards
// everything. This is decided once here rather than via a hook, since
// logrus hooks observe but cannot veto an already-decided write. Packages
// that just do `logrus.WithField("stage", "x")` at init time won't pick up
// a later restriction; use Stage from the CLI-facing code paths that run
// after Setup instead.
func Stage(name string) logrus.FieldLogger {
	mu.RLock()
	defer mu.RUnlock()
	if allowStages != nil && !allowStages[name] {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		return discard.WithField("stage", name)
	}
	return logrus.WithField("stage", name)
}
