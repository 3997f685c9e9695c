/*
   debugger: single-step and inspection hook surface.

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

// Package debugger exposes the four operations spec 4.7 grants an external
// UI: Step, RunUntilHaltOrBreakpoint, ReadState, SetBreakpoint. It sits at
// the same boundary the teacher's emu/core occupies between the CPU and
// command/parser, but restated synchronously: spec 5 is explicit that the
// guest engine runs on one thread with no suspension inside a step, so
// there is no CPU goroutine here to hand commands to over a channel — the
// debugger just calls straight into engine.Engine between prompts.
package debugger

import (
	"github.com/cmc-go/modelmachine/internal/alu"
	"github.com/cmc-go/modelmachine/internal/engine"
	"github.com/cmc-go/modelmachine/internal/loader"
	"github.com/cmc-go/modelmachine/internal/source"
)

// State is a read-only snapshot of the engine for display (spec 4.7:
// "read_state (returns a snapshot view of named registers and memory
// spans)").
type State struct {
	PC     uint32
	Cycles uint64
	Flags  alu.Flags
	Halted bool
	// Registers holds every declared register's current signed value,
	// keyed by name (PC, FLAGS, ADDR, the machine's scratch registers, and
	// R0..RF on the register machines).
	Registers map[string]int64
}

// Debugger wraps one engine.Engine with a set of breakpoints, built the
// same way loader.Run builds a fresh run (spec 4.6 steps 1-3), but stopping
// short of executing so the caller can step it. It keeps no record of past
// stop reasons; each call returns its own.
type Debugger struct {
	Prog        *source.Program
	Engine      *engine.Engine
	breakpoints map[uint32]bool
}

// New builds the engine for prog (RAM, register file, input bindings
// bound) without running it, ready for Step or RunUntilHaltOrBreakpoint.
func New(prog *source.Program, opts loader.Options) (*Debugger, error) {
	eng, err := loader.Build(prog, opts)
	if err != nil {
		return nil, err
	}
	return &Debugger{Prog: prog, Engine: eng, breakpoints: map[uint32]bool{}}, nil
}

// SetBreakpoint arms a stop at address (spec 4.7).
func (d *Debugger) SetBreakpoint(address uint32) { d.breakpoints[address] = true }

// ClearBreakpoint disarms a previously set breakpoint.
func (d *Debugger) ClearBreakpoint(address uint32) { delete(d.breakpoints, address) }

// Breakpoints returns every address a breakpoint is currently armed at.
func (d *Debugger) Breakpoints() []uint32 {
	out := make([]uint32, 0, len(d.breakpoints))
	for a := range d.breakpoints {
		out = append(out, a)
	}
	return out
}

func (d *Debugger) currentPC() uint32 {
	w, _ := d.Engine.RF.Get("PC")
	return uint32(w.AsUnsigned())
}

// Step executes exactly one instruction (spec 4.7 "step"), delegating to
// engine.Engine.Step.
func (d *Debugger) Step() (engine.StopReason, error) {
	return d.Engine.Step()
}

// RunUntilHaltOrBreakpoint steps until halt, an error, stepBudget steps (0
// means unlimited), or the program counter reaches an armed breakpoint
// (spec 4.7 "run_until_halt_or_breakpoint", spec 5: "the debugger may
// request stop; it takes effect at the next step boundary"). The
// breakpoint check happens before every step except the very first, so
// resuming from a line that is itself breakpointed makes progress instead
// of re-triggering immediately.
func (d *Debugger) RunUntilHaltOrBreakpoint(stepBudget uint64) (engine.StopReason, uint64, error) {
	var taken uint64
	for {
		if taken > 0 && d.breakpoints[d.currentPC()] {
			return engine.StopBreakpoint, taken, nil
		}
		if stepBudget != 0 && taken >= stepBudget {
			return engine.StopStepLimit, taken, nil
		}
		reason, err := d.Engine.Step()
		taken++
		if reason != engine.StopNone {
			return reason, taken, err
		}
	}
}

// ReadState returns a snapshot of the engine's registers and flags (spec
// 4.7 "read_state").
func (d *Debugger) ReadState() State {
	regs := make(map[string]int64, len(d.Engine.RF.Names()))
	for _, name := range d.Engine.RF.Names() {
		w, err := d.Engine.RF.Get(name)
		if err != nil {
			continue
		}
		regs[name] = w.AsSigned()
	}
	return State{
		PC:        d.currentPC(),
		Cycles:    d.Engine.Cycles,
		Flags:     d.Engine.Flags(),
		Halted:    d.Engine.Halted(),
		Registers: regs,
	}
}

// PeekMemory returns nCells consecutive raw memory cells starting at addr,
// for a memory-span inspection view (spec 4.7), without tripping the
// protected-read policy the way a guest Fetch would.
func (d *Debugger) PeekMemory(addr uint32, nCells int) []byte {
	return d.Engine.RAM.Peek(addr, nCells)
}
