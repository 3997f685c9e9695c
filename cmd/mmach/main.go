/*
 * modelmachine - Command line front end.
 *
 * Copyright 2024, Richard Cornwell
 * Copyright 2026, the modelmachine contributors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Command mmach is the external front end spec 6 summarises for contract:
// run FILE, debug FILE, asm IN OUT, each built as a spf13/cobra subcommand
// the way cmd/z80opt structures its own optimizer subcommands, in place of
// the teacher's single-binary pborman/getopt flag set (DESIGN.md records
// the swap: this front end needs verb-shaped subcommands, getopt only
// gives it flags).
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/cmc-go/modelmachine/internal/assembler"
	"github.com/cmc-go/modelmachine/internal/debugger"
	"github.com/cmc-go/modelmachine/internal/engine"
	"github.com/cmc-go/modelmachine/internal/loader"
	"github.com/cmc-go/modelmachine/internal/source"

	"github.com/cmc-go/modelmachine/command/debugrepl"
	logger "github.com/cmc-go/modelmachine/util/logger"
)

// exit codes, spec 6: "0 on normal halt, 1 on error halt, 2 on
// loader/parse failure."
const (
	exitHalt        = 0
	exitErrorHalt   = 1
	exitLoadFailure = 2
)

var (
	suppressEnter bool
	logFile       string
	wordBits      int
)

func main() {
	debugOn := false
	programLevel := new(slog.LevelVar)
	programLevel.Set(slog.LevelInfo)
	slog.SetDefault(slog.New(logger.NewHandler(os.Stderr, &slog.HandlerOptions{Level: programLevel}, &debugOn)))

	root := &cobra.Command{
		Use:   "mmach",
		Short: "model machine emulator, assembler, and debugger",
	}
	root.PersistentFlags().BoolVar(&suppressEnter, "enter", false, "suppress the inline .enter list; always read input from stdin")
	root.PersistentFlags().IntVar(&wordBits, "word-bits", source.DefaultWordBits, "word width in bits, for asm's .mmasm input")

	root.AddCommand(runCmd(), debugCmd(), asmCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "mmach:", err)
		os.Exit(exitLoadFailure)
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run FILE",
		Short: "load and run a .mmach program to completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, err := parseFile(args[0])
			if err != nil {
				fmt.Fprintln(os.Stderr, "mmach:", err)
				os.Exit(exitLoadFailure)
			}

			opts := loader.Options{
				SuppressEnter: suppressEnter,
				InputReader:   os.Stdin,
				Output:        os.Stdout,
			}
			_, result, err := loader.Run(prog, opts)
			if err != nil {
				fmt.Fprintln(os.Stderr, "mmach:", err)
				if result.Reason == engine.StopNone {
					// loader.Build failed before any step ran.
					os.Exit(exitLoadFailure)
				}
				os.Exit(exitErrorHalt)
			}
			if result.Reason != engine.StopHalt {
				fmt.Fprintln(os.Stderr, "mmach: stopped:", result.Reason)
				os.Exit(exitErrorHalt)
			}
			os.Exit(exitHalt)
			return nil
		},
	}
}

func debugCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "debug FILE",
		Short: "load a .mmach program under the interactive debugger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, err := parseFile(args[0])
			if err != nil {
				fmt.Fprintln(os.Stderr, "mmach:", err)
				os.Exit(exitLoadFailure)
			}

			opts := loader.Options{
				SuppressEnter: suppressEnter,
				InputReader:   os.Stdin,
				Output:        os.Stdout,
			}
			dbg, err := debugger.New(prog, opts)
			if err != nil {
				fmt.Fprintln(os.Stderr, "mmach:", err)
				os.Exit(exitLoadFailure)
			}
			debugrepl.Run(dbg)
			return nil
		},
	}
}

func asmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "asm IN OUT",
		Short: "assemble a .mmasm source file into a .mmach image",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := os.Open(args[0])
			if err != nil {
				fmt.Fprintln(os.Stderr, "mmach:", err)
				os.Exit(exitLoadFailure)
			}
			defer in.Close()

			prog, err := assembler.Assemble(in, wordBits)
			if err != nil {
				fmt.Fprintln(os.Stderr, "mmach:", err)
				os.Exit(exitLoadFailure)
			}

			out, err := os.Create(args[1])
			if err != nil {
				fmt.Fprintln(os.Stderr, "mmach:", err)
				os.Exit(exitLoadFailure)
			}
			defer out.Close()

			if err := source.Write(out, prog); err != nil {
				fmt.Fprintln(os.Stderr, "mmach:", err)
				os.Exit(exitLoadFailure)
			}
			return nil
		},
	}
}

func parseFile(path string) (*source.Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return source.Parse(f)
}
