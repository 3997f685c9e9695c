/*
   engine: the parameterised fetch-decode-execute control unit.

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

// Package engine implements the single fetch-decode-execute loop shared by
// all eight model machines (spec 4.5). It is parameterised entirely by an
// isa.Descriptor; nothing here names a specific machine.
package engine

import (
	"errors"

	"github.com/cmc-go/modelmachine/internal/alu"
	"github.com/cmc-go/modelmachine/internal/isa"
	"github.com/cmc-go/modelmachine/internal/memory"
	"github.com/cmc-go/modelmachine/internal/word"
)

var (
	// ErrInvalidOpcode is returned when the fetched opcode has no row in
	// the machine's instruction table.
	ErrInvalidOpcode = errors.New("engine: invalid opcode")
	// ErrAddressOutOfRange would mark an effective address whose word does
	// not lie entirely in RAM after wrap. Every effective address this
	// engine computes is taken modulo 2^address_bits before use, so this
	// condition can never actually arise; the error is kept so callers can
	// still type-switch on the full taxonomy.
	ErrAddressOutOfRange = errors.New("engine: address out of range")
	// ErrStackOverflow is returned when a push would move SP below the
	// stack's low bound.
	ErrStackOverflow = errors.New("engine: stack overflow")
	// ErrStackUnderflow is returned when a pop would move SP above the
	// stack's starting bound.
	ErrStackUnderflow = errors.New("engine: stack underflow")
)

// StopReason names why Step/Run returned.
type StopReason int

const (
	StopNone StopReason = iota
	StopHalt
	StopError
	StopStepLimit
	StopBreakpoint
)

func (r StopReason) String() string {
	switch r {
	case StopHalt:
		return "halt"
	case StopError:
		return "error"
	case StopStepLimit:
		return "step-limit-exceeded"
	case StopBreakpoint:
		return "breakpoint"
	}
	return "none"
}

// Engine is one running instance of a model machine. Two engines never
// share state (spec 5): each owns its own RAM and register file.
type Engine struct {
	Desc   *isa.Descriptor
	RAM    *memory.RAM
	RF     *memory.RegisterFile
	Cycles uint64

	alu   *alu.ALU
	flags alu.Flags

	stackLow, stackHigh uint32
	wordCells           uint32
}

// New constructs an Engine for desc, with protected memory if protected.
func New(desc *isa.Descriptor, protected bool) *Engine {
	ram := memory.NewRAM(desc.CellBits, desc.AddressBits, protected)
	rf := memory.NewRegisterFile()

	rf.Declare("PC", desc.AddressBits, true)
	rf.Declare("FLAGS", 8, true)
	rf.Declare("ADDR", desc.AddressBits, true)

	maxBits := 8
	for _, in := range desc.Instructions {
		if b := in.Length() * 8; b > maxBits {
			maxBits = b
		}
	}
	rf.Declare("IR", maxBits, true)

	if desc.Writeback != isa.WritebackRegister {
		rf.Declare("R1", desc.WordBits, true)
		rf.Declare("R2", desc.WordBits, true)
		rf.Declare("S", desc.WordBits, true)
		rf.Declare("S1", desc.WordBits, true)
	} else {
		for _, name := range desc.AddressableRegs {
			rf.Declare(name, desc.WordBits, false)
		}
	}

	top := uint32(1) << uint(desc.AddressBits)
	rf.Set("PC", word.MustNew(desc.AddressBits, 0))

	e := &Engine{
		Desc: desc, RAM: ram, RF: rf, alu: alu.New(),
		stackLow: 0, stackHigh: top,
		wordCells: uint32(desc.WordBits / desc.CellBits),
	}
	if desc.Stack != isa.StackNone {
		rf.Declare("SP", desc.AddressBits, true)
		rf.Set("SP", word.MustNew(desc.AddressBits, uint64(top)))
	}
	return e
}

// Flags returns the flags left by the most recently executed arithmetic,
// cmp, or halt step.
func (e *Engine) Flags() alu.Flags { return e.flags }

// Halted reports whether FLAGS.HALT has been set.
func (e *Engine) Halted() bool { return e.flags.HALT }

// PushStack pushes w onto the operand stack without executing a guest
// instruction; used by the loader to bind address-less stack machine input
// bindings before execution begins (spec 4.6 step 3: "for the address-less
// stack machine, each input binding pushes count values onto the stack").
func (e *Engine) PushStack(w word.Word) error {
	newSP := e.sp() - e.wordCells
	if err := e.checkPush(newSP); err != nil {
		return err
	}
	if err := e.RAM.Store(newSP, w); err != nil {
		return err
	}
	e.setSP(newSP)
	return nil
}

// StackWords returns the top n words of the operand stack, index 0 being
// the most recently pushed, without popping them; used by the loader to
// emit address-less stack output bindings (spec 4.6 step 5: "the top count
// stack slots, reversed").
func (e *Engine) StackWords(n int) ([]word.Word, error) {
	sp := e.sp()
	out := make([]word.Word, n)
	for i := 0; i < n; i++ {
		w, err := e.RAM.Fetch(sp+uint32(i)*e.wordCells, e.Desc.WordBits)
		if err != nil {
			return nil, err
		}
		out[i] = w
	}
	return out, nil
}

func (e *Engine) addrMask() uint32 { return (uint32(1) << uint(e.Desc.AddressBits)) - 1 }

func (e *Engine) setFlags(f alu.Flags) {
	e.flags = f
	bits := 0
	if f.Z {
		bits |= 1
	}
	if f.N {
		bits |= 2
	}
	if f.C {
		bits |= 4
	}
	if f.V {
		bits |= 8
	}
	if f.HALT {
		bits |= 16
	}
	e.RF.Set("FLAGS", word.MustNew(8, uint64(bits)))
}

func (e *Engine) setAddr(a uint32) {
	e.RF.Set("ADDR", word.MustNew(e.Desc.AddressBits, uint64(a&e.addrMask())))
}

func (e *Engine) sp() uint32 {
	w, _ := e.RF.Get("SP")
	v := uint32(w.AsUnsigned())
	if v == 0 {
		// SP is address_bits wide, so the empty-stack value 2^address_bits
		// (the top of RAM) is held in the register as 0.
		return e.stackHigh
	}
	return v
}

func (e *Engine) setSP(v uint32) {
	e.RF.Set("SP", word.MustNew(e.Desc.AddressBits, uint64(v&e.addrMask())))
}

func (e *Engine) checkPush(newSP uint32) error {
	if int64(newSP) < int64(e.stackLow) || newSP > e.stackHigh {
		return ErrStackOverflow
	}
	return nil
}

func (e *Engine) checkPop(newSP uint32) error {
	if newSP > e.stackHigh {
		return ErrStackUnderflow
	}
	return nil
}

// Step executes exactly one instruction. StopHalt/StopError terminate the
// run; StopNone means the engine is ready for another Step.
func (e *Engine) Step() (StopReason, error) {
	pcw, _ := e.RF.Get("PC")
	pc := uint32(pcw.AsUnsigned())

	opWord, err := e.RAM.Fetch(pc, 8)
	if err != nil {
		return StopError, err
	}
	opcode := byte(opWord.AsUnsigned())

	in, ok := e.Desc.Lookup(opcode)
	if !ok {
		return StopError, ErrInvalidOpcode
	}

	length := in.Length()
	var operandBytes []byte
	if length > 1 {
		rest, err := e.RAM.Fetch(pc+1, (length-1)*8)
		if err != nil {
			return StopError, err
		}
		operandBytes = rest.ToBytesBE()
	}
	dec := isa.Decode(in, operandBytes)

	full := make([]byte, length)
	full[0] = opcode
	copy(full[1:], operandBytes)
	irBits := e.RF.Width("IR")
	padded := make([]byte, irBits/8)
	copy(padded[len(padded)-len(full):], full)
	irWord, _ := word.FromBytesBE(irBits, padded)
	e.RF.Set("IR", irWord)

	newPC := (pc + uint32(length)) & e.addrMask()
	e.RF.Set("PC", word.MustNew(e.Desc.AddressBits, uint64(newPC)))

	e.Cycles++

	var execErr error
	switch in.Kind {
	case isa.KindHalt:
		f, _ := e.alu.Execute(e.RF, alu.OpHalt, "", "", "", "", true)
		e.setFlags(f)
		return StopHalt, nil
	case isa.KindArithmetic:
		execErr = e.execArithmetic(in, dec)
	case isa.KindCmp:
		execErr = e.execCmp(in, dec)
	case isa.KindMove:
		execErr = e.execMove(in, dec)
	case isa.KindPush:
		execErr = e.execPush(in, dec)
	case isa.KindPop:
		execErr = e.execPop(in, dec)
	case isa.KindDup:
		execErr = e.execDup()
	case isa.KindSwap:
		execErr = e.execSwap(in, dec)
	case isa.KindJump:
		execErr = e.execJump(in, dec, true)
	case isa.KindCondJump:
		execErr = e.execJump(in, dec, in.Pred.Eval(e.flags))
	default:
		execErr = ErrInvalidOpcode
	}
	if execErr != nil {
		return StopError, execErr
	}
	return StopNone, nil
}

// Run steps until halt, error, or stepBudget steps have executed (0 means
// unlimited). It returns the stop reason, the number of steps actually
// taken in this call, and any error.
func (e *Engine) Run(stepBudget uint64) (StopReason, uint64, error) {
	var taken uint64
	for stepBudget == 0 || taken < stepBudget {
		reason, err := e.Step()
		taken++
		if reason != StopNone {
			return reason, taken, err
		}
	}
	return StopStepLimit, taken, nil
}

func signExtend(v uint32, fromBits int) int64 {
	mask := int64(1)<<uint(fromBits) - 1
	val := int64(v) & mask
	if val&(int64(1)<<uint(fromBits-1)) != 0 {
		val -= int64(1) << uint(fromBits)
	}
	return val
}
