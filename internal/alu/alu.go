/*
   alu: stateless register-to-register arithmetic/logic unit.

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

// Package alu implements the one arithmetic/logic unit shared by every
// model machine (spec 4.3): a pure function over named registers in a
// memory.RegisterFile that reads sources, writes a destination (and an
// optional second destination for division remainders), and updates
// FLAGS. The ALU never touches RAM.
package alu

import (
	"errors"

	"github.com/cmc-go/modelmachine/internal/memory"
	"github.com/cmc-go/modelmachine/internal/word"
)

// Op identifies an ALU operation. It is a closed enumeration (design note
// "Shared ALU register contract": register/operation identities are
// compile-time checked so a typo in an opcode table is a compile error,
// not a runtime surprise).
type Op int

const (
	OpAdd Op = iota
	OpSub
	OpSMul
	OpUMul
	OpSDiv
	OpUDiv
	OpCmp  // subtract, set flags, discard result
	OpMove // no flags
	OpHalt
)

var (
	// ErrUnsupportedOp is returned for an Op the ALU does not recognise.
	ErrUnsupportedOp = errors.New("alu: unsupported operation")
)

// Flags mirrors the spec's flag record (4.1/4.3): Zero, Negative, Carry
// (unsigned add/sub overflow), V (signed overflow), and HALT.
type Flags struct {
	Z    bool
	N    bool
	C    bool
	V    bool
	HALT bool
}

// JEQ etc. implement the jump predicates of spec 4.1, evaluated against the
// flags left by the most recent arithmetic or cmp operation.
func (f Flags) JEQ() bool  { return f.Z }
func (f Flags) JNEQ() bool { return !f.Z }
func (f Flags) SJL() bool  { return f.N != f.V }
func (f Flags) SJGE() bool { return f.N == f.V }
func (f Flags) SJLE() bool { return f.Z || (f.N != f.V) }
func (f Flags) SJG() bool  { return !f.Z && (f.N == f.V) }

// UJL, UJGE, UJLE, UJG follow the "standard" unsigned-compare convention
// resolved in spec 9 open question (b): C=1 iff a<b (unsigned) when flags
// were set by sub/cmp.
func (f Flags) UJL() bool  { return f.C }
func (f Flags) UJGE() bool { return !f.C }
func (f Flags) UJLE() bool { return f.C || f.Z }
func (f Flags) UJG() bool  { return !f.C && !f.Z }

// ALU holds no state of its own; Execute is the sole entry point.
type ALU struct{}

// New constructs a stateless ALU.
func New() *ALU { return &ALU{} }

// Execute reads src1 (and src2, for binary ops) from rf, computes op, and
// writes dst (and dst2, for divmod's remainder). It returns the updated
// flags. Division errors (DivisionByZero, SignedOverflow) are returned as
// errors and leave rf unmodified; the control unit turns those into an
// error halt (spec 4.3).
func (a *ALU) Execute(rf *memory.RegisterFile, op Op, src1, src2, dst, dst2 string, signed bool) (Flags, error) {
	switch op {
	case OpMove:
		v, err := rf.Get(src1)
		if err != nil {
			return Flags{}, err
		}
		if err := rf.Set(dst, v); err != nil {
			return Flags{}, err
		}
		return Flags{}, nil
	case OpHalt:
		return Flags{HALT: true}, nil
	}

	v1, err := rf.Get(src1)
	if err != nil {
		return Flags{}, err
	}
	v2, err := rf.Get(src2)
	if err != nil {
		return Flags{}, err
	}

	var result word.Word
	var carry, overflow bool
	var rem word.Word
	hasRem := false

	switch op {
	case OpAdd:
		result, carry, overflow, err = v1.Add(v2)
	case OpSub, OpCmp:
		result, carry, overflow, err = v1.Sub(v2)
	case OpSMul:
		result, overflow, err = v1.SMul(v2)
		carry = overflow
	case OpUMul:
		result, overflow, err = v1.UMul(v2)
		carry = overflow
	case OpSDiv:
		result, rem, err = v1.DivModSigned(v2)
		hasRem = true
	case OpUDiv:
		result, rem, err = v1.DivModUnsigned(v2)
		hasRem = true
	default:
		return Flags{}, ErrUnsupportedOp
	}
	if err != nil {
		return Flags{}, err
	}

	flags := Flags{C: carry, V: overflow}
	if signed {
		flags.Z = result.AsSigned() == 0
		flags.N = result.AsSigned() < 0
	} else {
		flags.Z = result.AsUnsigned() == 0
		msb := uint64(1) << uint(result.Width()-1)
		flags.N = result.AsUnsigned()&msb != 0
	}

	if op == OpCmp {
		return flags, nil
	}
	if err := rf.Set(dst, result); err != nil {
		return Flags{}, err
	}
	if hasRem && dst2 != "" {
		if err := rf.Set(dst2, rem); err != nil {
			return Flags{}, err
		}
	}
	return flags, nil
}
