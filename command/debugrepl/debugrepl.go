/*
 * modelmachine - Debugger command reader.
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

// Package debugrepl is the interactive front end for internal/debugger. It
// is the external UI spec 4.7 hands the four debugger operations to; the
// core never imports this package. Built the same way the teacher's
// command/reader drives emu/core with peterh/liner, but the commands
// typed at the prompt are this machine's own: step, run, regs, mem,
// break, clear, quit.
package debugrepl

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/cmc-go/modelmachine/internal/debugger"
)

var commands = []string{"step", "run", "regs", "mem", "break", "clear", "quit", "help"}

func completer(line string) []string {
	var out []string
	for _, c := range commands {
		if strings.HasPrefix(c, line) {
			out = append(out, c)
		}
	}
	return out
}

// Run drives dbg from an interactive prompt until the user quits or the
// input stream is aborted (Ctrl-D / Ctrl-C), grounded on the teacher's
// ConsoleReader loop shape.
func Run(dbg *debugger.Debugger) {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(completer)

	fmt.Println("modelmachine debugger. Type help for commands.")
	for {
		command, err := line.Prompt("mmach> ")
		if err == nil {
			line.AppendHistory(command)
			quit := dispatch(dbg, command)
			if quit {
				return
			}
			continue
		}

		if errors.Is(err, liner.ErrPromptAborted) {
			return
		}
		slog.Error("debugrepl: error reading line: " + err.Error())
		return
	}
}

// dispatch executes one typed command line and reports whether the REPL
// should exit.
func dispatch(dbg *debugger.Debugger, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	switch fields[0] {
	case "quit", "q", "exit":
		return true

	case "help", "h", "?":
		printHelp()

	case "step", "s":
		reason, err := dbg.Step()
		report(reason, 1, err)

	case "run", "r":
		var budget uint64
		if len(fields) > 1 {
			budget = parseUint(fields[1])
		}
		reason, taken, err := dbg.RunUntilHaltOrBreakpoint(budget)
		report(reason, taken, err)

	case "regs":
		printState(dbg)

	case "mem":
		if len(fields) < 2 {
			fmt.Println("usage: mem ADDR [COUNT]")
			break
		}
		addr := uint32(parseUint(fields[1]))
		n := 1
		if len(fields) > 2 {
			n = int(parseUint(fields[2]))
		}
		printMem(dbg, addr, n)

	case "break", "b":
		if len(fields) < 2 {
			fmt.Println("usage: break ADDR")
			break
		}
		dbg.SetBreakpoint(uint32(parseUint(fields[1])))

	case "clear":
		if len(fields) < 2 {
			fmt.Println("usage: clear ADDR")
			break
		}
		dbg.ClearBreakpoint(uint32(parseUint(fields[1])))

	default:
		fmt.Printf("unknown command %q; type help\n", fields[0])
	}
	return false
}

func printHelp() {
	fmt.Println(`step            execute one instruction
run [N]         run until halt, breakpoint, or N steps (0 = unlimited)
regs            show PC, flags, cycle count, and every register
mem ADDR [N]    dump N cells (default 1) starting at ADDR
break ADDR      set a breakpoint
clear ADDR      remove a breakpoint
quit            exit the debugger`)
}

func report(reason fmt.Stringer, taken uint64, err error) {
	if err != nil {
		fmt.Printf("stop: %s after %d step(s): %v\n", reason, taken, err)
		return
	}
	fmt.Printf("stop: %s after %d step(s)\n", reason, taken)
}

func printState(dbg *debugger.Debugger) {
	st := dbg.ReadState()
	fmt.Printf("PC=%04x cycles=%d halted=%v flags=%+v\n", st.PC, st.Cycles, st.Halted, st.Flags)
	names := make([]string, 0, len(st.Registers))
	for name := range st.Registers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %-6s %d\n", name, st.Registers[name])
	}
}

func printMem(dbg *debugger.Debugger, addr uint32, n int) {
	data := dbg.PeekMemory(addr, n)
	fmt.Printf("%04x:", addr)
	for _, b := range data {
		fmt.Printf(" %02x", b)
	}
	fmt.Println()
}

func parseUint(tok string) uint64 {
	tok = strings.TrimPrefix(strings.ToLower(tok), "0x")
	v, _ := strconv.ParseUint(tok, 16, 64)
	return v
}
