package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/derekparker/trie"
	"github.com/go-delve/liner"
	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"github.com/mranakol/avrstack/internal/config"
	"github.com/mranakol/avrstack/pkg/analysis"
	"github.com/mranakol/avrstack/pkg/pipeline"
	"github.com/mranakol/avrstack/pkg/policy"
)

var exploreCmd = &cobra.Command{
	Use:   "explore <source.c>",
	Short: "Run the analysis once, then interactively inspect functions and call paths",
	Args:  cobra.ExactArgs(1),
	RunE:  runExplore,
}

func init() {
	exploreCmd.Flags().StringVar(&flagMCU, "mcu", "atmega328p", "target MCU")
}

// replSession holds the analysis result plus the function-name trie backing
// tab completion.
type replSession struct {
	res      *analysis.Result
	names    *trie.Trie
	commands []string
}

func runExplore(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if flagConfig != "" {
		loaded, err := config.Load(flagConfig)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	pol := policy.Default()
	if cfg.PolicyScript != "" {
		src, err := os.ReadFile(cfg.PolicyScript)
		if err != nil {
			return fmt.Errorf("reading policy script: %w", err)
		}
		if err := pol.LoadStarlark(cfg.PolicyScript, src); err != nil {
			return err
		}
	}

	res, err := pipeline.Run(context.Background(), pipeline.Options{
		SourceFile: args[0],
		MCUType:    flagMCU,
		Config:     cfg,
		Policy:     pol,
	})
	if err != nil {
		return err
	}

	sess := &replSession{res: res, names: trie.New(), commands: []string{"usage", "path", "recursive", "findings", "help", "quit"}}
	for name := range res.FunctionUsage {
		sess.names.Add(name, nil)
	}

	printTerminalBanner()

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetCompleter(sess.complete)

	for {
		input, err := line.Prompt("(avrstack) ")
		if err != nil {
			fmt.Println()
			return nil
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)
		if sess.dispatch(input) {
			return nil
		}
	}
}

// printTerminalBanner reports the REPL's working width, queried via a
// posix ioctl rather than assumed.
func printTerminalBanner() {
	width := 80
	if ws, err := unix.IoctlGetWinsize(int(os.Stdout.Fd()), unix.TIOCGWINSZ); err == nil && ws.Col > 0 {
		width = int(ws.Col)
	}
	fmt.Println(strings.Repeat("-", min(width, 60)))
	fmt.Println("avrstack explore: type 'help' for commands, 'quit' to exit")
	fmt.Println(strings.Repeat("-", min(width, 60)))
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func (s *replSession) complete(line string) []string {
	fields := strings.Fields(line)
	prefix := line
	if len(fields) > 0 && !strings.HasSuffix(line, " ") {
		prefix = fields[len(fields)-1]
	} else if strings.HasSuffix(line, " ") {
		prefix = ""
	}
	if len(fields) <= 1 {
		var out []string
		for _, c := range s.commands {
			if strings.HasPrefix(c, prefix) {
				out = append(out, c)
			}
		}
		return out
	}
	head := strings.Join(fields[:len(fields)-1], " ")
	var out []string
	for _, name := range s.names.PrefixSearch(prefix) {
		out = append(out, head+" "+name)
	}
	return out
}

// dispatch runs one REPL command, returning true when the session should
// end.
func (s *replSession) dispatch(input string) bool {
	fields := strings.Fields(input)
	cmdName, rest := fields[0], fields[1:]
	switch cmdName {
	case "quit", "exit":
		return true
	case "help":
		fmt.Println("usage <function>   show the observed frame size of a function")
		fmt.Println("path                show the maximal stack path")
		fmt.Println("recursive           list recursive functions and their proven depth")
		fmt.Println("findings            list non-fatal findings from the analysis")
		fmt.Println("quit                exit")
	case "usage":
		if len(rest) != 1 {
			fmt.Println("usage: usage <function>")
			return false
		}
		if n, ok := s.res.FunctionUsage[rest[0]]; ok {
			fmt.Printf("%s: %d bytes\n", rest[0], n)
		} else {
			fmt.Printf("no such function: %s\n", rest[0])
		}
	case "path":
		fmt.Printf("%v (total %d bytes)\n", s.res.MaxPath.Functions, s.res.MaxPath.Cost)
	case "recursive":
		names := make([]string, 0, len(s.res.Recursive))
		for n := range s.res.Recursive {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			fmt.Println(s.res.Recursive[n].String())
		}
	case "findings":
		for _, f := range s.res.Findings {
			fmt.Println(f.String())
		}
	default:
		fmt.Printf("unknown command %q; type 'help'\n", cmdName)
	}
	return false
}
