package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/txtar"

	"github.com/mranakol/avrstack/internal/config"
	"github.com/mranakol/avrstack/pkg/toolchain"
)

// fakeToolchain replays a bundled fixture instead of shelling out to
// avr-gcc/avr-objdump/avr-size, so the pipeline's wiring can be exercised
// without an AVR toolchain installed.
type fakeToolchain struct {
	frameReport string
	disasm      string
	sections    map[string]int
}

func (f *fakeToolchain) Compile(ctx context.Context, source, mcu, optLevel string, extraFlags []string) (toolchain.CompileResult, error) {
	return toolchain.CompileResult{
		ExecutablePath: "fake.elf",
		FrameReport:    strings.NewReader(f.frameReport),
	}, nil
}

func (f *fakeToolchain) Disassemble(ctx context.Context, exe string) (string, error) {
	return f.disasm, nil
}

func (f *fakeToolchain) SizeSections(ctx context.Context, exe string) (map[string]int, error) {
	return f.sections, nil
}

// loadFixture reads a txtar archive bundling one test's source, frame
// report, and disassembly into a single file under testdata/.
func loadFixture(t *testing.T, name string) *txtar.Archive {
	t.Helper()
	path := filepath.Join("testdata", name)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return txtar.Parse(data)
}

func fixtureFile(a *txtar.Archive, name string) string {
	for _, f := range a.Files {
		if f.Name == name {
			return string(f.Data)
		}
	}
	return ""
}

func TestRunStraightChain(t *testing.T) {
	a := loadFixture(t, "straight_chain.txtar")

	dir := t.TempDir()
	srcPath := filepath.Join(dir, "main.c")
	require.NoError(t, os.WriteFile(srcPath, []byte(fixtureFile(a, "main.c")), 0o644))

	tc := &fakeToolchain{
		frameReport: fixtureFile(a, "frame.su"),
		disasm:      fixtureFile(a, "disasm.txt"),
		sections:    map[string]int{".data": 0, ".bss": 0},
	}

	res, err := Run(context.Background(), Options{
		SourceFile: srcPath,
		MCUType:    "atmega328p",
		Config:     config.Default(),
		Toolchain:  tc,
		WorkDir:    t.TempDir(),
	})
	require.NoError(t, err)

	assert.Equal(t, 16, res.RawMax)
	assert.Empty(t, res.Findings)
}
