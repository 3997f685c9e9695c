/*
   loader: program image construction and I/O binding (spec 4.6).

   Copyright (c) 2024, Richard Cornwell
   Copyright (c) 2026, the modelmachine contributors

   Permission is hereby granted, free of charge, to any person obtaining a
   copy of this software and associated documentation files (the "Software"),
   to deal in the Software without restriction, including without limitation
   the rights to use, copy, modify, merge, publish, distribute, sublicense,
   and/or sell copies of the Software, and to permit persons to whom the
   Software is furnished to do so, subject to the following conditions:

   The above copyright notice and this permission notice shall be included in
   all copies or substantial portions of the Software.

   THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
   IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
   FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.  IN NO EVENT SHALL
   ROBERT M SUPNIK BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
   IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
   CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
*/

// Package loader turns a parsed source.Program into a running engine.Engine:
// it builds the RAM/register file for the named machine, loads the image
// spans, binds the I/O table (reading input numbers before execution and
// emitting output numbers after a normal halt), then drives the run. The
// span-loading and option-binding style follows the teacher's
// config/configparser; the engine itself never knows about sources,
// bindings or I/O (spec 4.6: "specified only by the data it must produce").
package loader

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cmc-go/modelmachine/internal/engine"
	"github.com/cmc-go/modelmachine/internal/isa"
	"github.com/cmc-go/modelmachine/internal/source"
	"github.com/cmc-go/modelmachine/internal/word"
)

var (
	// ErrNumberOutOfRange is returned when an input value does not fit the
	// target word width, signed or unsigned.
	ErrNumberOutOfRange = errors.New("loader: number out of range")
)

// Options controls one Run.
type Options struct {
	// Protected enables the RAM's uninitialised-read policy.
	Protected bool
	// StepBudget bounds execution (0 means unlimited); see spec 5.
	StepBudget uint64
	// SuppressEnter corresponds to the CLI's --enter flag: when true, the
	// inline .enter list is ignored even if present, and input is always
	// read from InputReader (spec 6).
	SuppressEnter bool
	// InputReader supplies input numbers, whitespace-separated, when the
	// inline .enter list is absent or suppressed.
	InputReader io.Reader
	// Output receives the printed output bindings after a normal halt.
	Output io.Writer
}

// Result summarises one Run.
type Result struct {
	Reason engine.StopReason
	Cycles uint64
}

// Build constructs a fresh Engine for prog's machine (PC = 0, SP at the top
// of RAM for stack machines, per engine.New), loads prog's image spans, and
// binds its input bindings — everything spec 4.6 steps 1-3 describe, short
// of actually running. The debugger hook surface builds this way so it can
// single-step from a clean, fully-bound start state.
func Build(prog *source.Program, opts Options) (*engine.Engine, error) {
	desc, err := isa.New(prog.Machine, prog.WordBits)
	if err != nil {
		return nil, err
	}
	eng := engine.New(desc, opts.Protected)
	if err := LoadSpans(eng, prog); err != nil {
		return eng, err
	}
	if err := bindInputs(eng, prog, opts); err != nil {
		return eng, err
	}
	return eng, nil
}

// Run builds prog (see Build), executes it, and — if it halts normally —
// emits its outputs to opts.Output (spec 4.6 steps 4-5). It returns the
// engine so callers can inspect final state, and the stop summary.
func Run(prog *source.Program, opts Options) (*engine.Engine, Result, error) {
	eng, err := Build(prog, opts)
	if err != nil {
		return eng, Result{}, err
	}

	reason, cycles, runErr := eng.Run(opts.StepBudget)
	result := Result{Reason: reason, Cycles: cycles}
	if runErr != nil {
		return eng, result, runErr
	}
	if reason == engine.StopHalt && opts.Output != nil {
		if err := emitOutputs(eng, prog, opts.Output); err != nil {
			return eng, result, err
		}
	}
	return eng, result, nil
}

// LoadSpans copies prog's image spans into eng's RAM (spec 4.6 step 2).
// Overlap between spans is rejected earlier, by source.Parse
// (source.ErrOverlappingSpans); this just stores bytes.
func LoadSpans(eng *engine.Engine, prog *source.Program) error {
	for _, span := range prog.Spans {
		for i := 0; i < len(span.Data); i += 1 {
			w, err := word.FromUnsigned(8, uint64(span.Data[i]))
			if err != nil {
				return err
			}
			if err := eng.RAM.Store(span.Addr+uint32(i), w); err != nil {
				return err
			}
		}
	}
	return nil
}

// numberSource yields the numbers bound to input slots, preferring the
// program's inline .enter list unless it is empty or suppressed (spec 4.6
// step 3: "inline enter if present and not overridden, else external
// stream").
type numberSource struct {
	inline []int64
	idx    int
	sc     *bufio.Scanner
}

func newNumberSource(prog *source.Program, opts Options) *numberSource {
	if !opts.SuppressEnter && len(prog.Enter) > 0 {
		return &numberSource{inline: prog.Enter}
	}
	sc := bufio.NewScanner(opts.InputReader)
	sc.Split(bufio.ScanWords)
	return &numberSource{sc: sc}
}

func (n *numberSource) next() (int64, error) {
	if n.inline != nil {
		if n.idx >= len(n.inline) {
			return 0, io.EOF
		}
		v := n.inline[n.idx]
		n.idx++
		return v, nil
	}
	if n.sc == nil || !n.sc.Scan() {
		if n.sc != nil {
			if err := n.sc.Err(); err != nil {
				return 0, err
			}
		}
		return 0, io.EOF
	}
	return source.ParseNumber(n.sc.Text())
}

func fitsWidth(v int64, bits int) bool {
	if bits >= 64 {
		return true
	}
	min := -(int64(1) << uint(bits-1))
	max := (int64(1) << uint(bits-1)) - 1
	if v >= min && v <= max {
		return true
	}
	umax := (uint64(1) << uint(bits)) - 1
	return v >= 0 && uint64(v) <= umax
}

func bindInputs(eng *engine.Engine, prog *source.Program, opts Options) error {
	ns := newNumberSource(prog, opts)
	wordBits := eng.Desc.WordBits

	for _, b := range prog.Bindings {
		if b.Kind != source.BindingInput {
			continue
		}
		if eng.Desc.Stack == isa.StackAddressLess {
			for i := 0; i < b.Count; i++ {
				v, err := ns.next()
				if err != nil {
					return fmt.Errorf("loader: reading input: %w", err)
				}
				if !fitsWidth(v, wordBits) {
					return ErrNumberOutOfRange
				}
				w, err := word.FromSigned(wordBits, v)
				if err != nil {
					return err
				}
				if err := eng.PushStack(w); err != nil {
					return err
				}
			}
			continue
		}
		for _, addr := range b.Addrs {
			v, err := ns.next()
			if err != nil {
				return fmt.Errorf("loader: reading input: %w", err)
			}
			if !fitsWidth(v, wordBits) {
				return ErrNumberOutOfRange
			}
			w, err := word.FromSigned(wordBits, v)
			if err != nil {
				return err
			}
			if err := eng.RAM.Store(addr, w); err != nil {
				return err
			}
		}
	}
	return nil
}

func emitOutputs(eng *engine.Engine, prog *source.Program, out io.Writer) error {
	for _, b := range prog.Bindings {
		if b.Kind != source.BindingOutput {
			continue
		}
		var vals []int64
		if eng.Desc.Stack == isa.StackAddressLess {
			words, err := eng.StackWords(b.Count)
			if err != nil {
				return err
			}
			for i := len(words) - 1; i >= 0; i-- {
				vals = append(vals, words[i].AsSigned())
			}
		} else {
			for _, addr := range b.Addrs {
				w, err := eng.RAM.Fetch(addr, eng.Desc.WordBits)
				if err != nil {
					return err
				}
				vals = append(vals, w.AsSigned())
			}
		}
		strs := make([]string, len(vals))
		for i, v := range vals {
			strs[i] = fmt.Sprintf("%d", v)
		}
		if _, err := fmt.Fprintln(out, strings.Join(strs, " ")); err != nil {
			return err
		}
	}
	return nil
}
