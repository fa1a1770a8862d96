// Command avrstack estimates the worst-case call-stack depth of an AVR C
// program without running it, by building a model from its disassembly
// and walking it exhaustively.
package main

import "os"

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
