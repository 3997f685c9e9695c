/*
   isa: instruction-set description tables for the eight model machines.

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

// Package isa declares, for each of the eight model machines, a table
// mapping opcode to (mnemonic, operand format, length, semantics) per
// spec 4.4. Each table is a plain Go map literal in the style of the
// teacher's emu/opcodemap + emu/disassemble opMap (opcode -> row), kept as
// data so the single internal/engine control unit can stay one
// implementation parameterized by whichever Descriptor it is given
// (spec 9, "Per-machine CPU specialisation": composition, not inheritance).
package isa

import (
	"errors"
	"fmt"

	"github.com/cmc-go/modelmachine/internal/alu"
)

// ErrUnknownMachine is returned by New for a MachineID with no table.
var ErrUnknownMachine = errors.New("isa: unknown machine id")

// MachineID names one of the eight model machines by the .mmach .cpu id.
type MachineID string

const (
	ThreeAddress       MachineID = "mm-3"
	TwoAddress         MachineID = "mm-2"
	VariableLength     MachineID = "mm-v"
	OneAddress         MachineID = "mm-1"
	Stack              MachineID = "mm-s"
	AddressLessStack   MachineID = "mm-0"
	Register           MachineID = "mm-r"
	RegisterModifiedID MachineID = "mm-m"
)

// Kind is the discriminated semantics variant of spec 4.4.
type Kind int

const (
	KindArithmetic Kind = iota
	KindMove
	KindPush
	KindPop
	KindDup
	KindSwap
	KindCmp
	KindCondJump
	KindJump
	KindHalt
)

// Predicate names a conditional-jump test evaluated against alu.Flags.
// Opcodes share a common predicate nibble (spec 4.4); 0x84 is SJGE, the
// authoritative reading of spec 9 open question (d) (one cross-reference
// table prints it "sjneq", but every semantic definition agrees on sjge).
type Predicate int

const (
	PredNone Predicate = iota
	PredEQ
	PredNEQ
	PredSJL
	PredSJG
	PredSJGE
	PredSJLE
	PredUJL
	PredUJGE
	PredUJLE
	PredUJG
)

// Eval applies the predicate to a flag snapshot.
func (p Predicate) Eval(f alu.Flags) bool {
	switch p {
	case PredEQ:
		return f.JEQ()
	case PredNEQ:
		return f.JNEQ()
	case PredSJL:
		return f.SJL()
	case PredSJG:
		return f.SJG()
	case PredSJGE:
		return f.SJGE()
	case PredSJLE:
		return f.SJLE()
	case PredUJL:
		return f.UJL()
	case PredUJGE:
		return f.UJGE()
	case PredUJLE:
		return f.UJLE()
	case PredUJG:
		return f.UJG()
	}
	return false
}

// Shared opcode numbering: identical across every machine table so a
// conditional-jump predicate nibble means the same thing everywhere
// (spec 4.4: "Conditional-jump opcodes share a common predicate nibble").
const (
	OpAdd  byte = 0x01
	OpSub  byte = 0x02
	OpSMul byte = 0x03
	OpUMul byte = 0x04
	OpSDiv byte = 0x05
	OpUDiv byte = 0x06

	OpMove  byte = 0x10 // load: memory -> accumulator/dest
	OpStore byte = 0x11 // store: accumulator/src -> memory

	OpPush byte = 0x20
	OpPop  byte = 0x21
	OpDup  byte = 0x22
	OpSwap byte = 0x23

	OpCmp byte = 0x30

	OpJmp  byte = 0x8A
	OpJeq  byte = 0x80
	OpJneq byte = 0x81
	OpSjl  byte = 0x82
	OpSjg  byte = 0x83
	OpSjge byte = 0x84 // spec 9(d): authoritative sjge, not "sjneq"
	OpSjle byte = 0x85
	OpUjl  byte = 0x86
	OpUjge byte = 0x87
	OpUjle byte = 0x88
	OpUjg  byte = 0x89

	OpHalt byte = 0x99 // spec 4.4: "Opcode 0x99 is always halt"
)

var predicateByOpcode = map[byte]Predicate{
	OpJeq:  PredEQ,
	OpJneq: PredNEQ,
	OpSjl:  PredSJL,
	OpSjg:  PredSJG,
	OpSjge: PredSJGE,
	OpSjle: PredSJLE,
	OpUjl:  PredUJL,
	OpUjge: PredUJGE,
	OpUjle: PredUJLE,
	OpUjg:  PredUJG,
}

// FieldKind tags a decoded operand field.
type FieldKind int

const (
	FieldReg FieldKind = iota // register-index nibble
	FieldAddr                 // memory address / raw operand value
	FieldPad                  // zero-padding, discarded
)

// Field is one operand field following the opcode byte: its bit width and
// what kind of value it carries (spec 4.4 format: "addresses, register
// nibbles, zero-padding nibbles; each with its bit width and position").
type Field struct {
	Kind FieldKind
	Bits int
}

// Instruction is one opcode-table row (spec 4.4).
type Instruction struct {
	Opcode   byte
	Mnemonic string
	Fields   []Field
	Kind     Kind
	ALUOp    alu.Op
	Signed   bool
	Pred     Predicate // valid when Kind == KindCondJump
}

// Length is the total instruction length in bytes, opcode included.
func (in Instruction) Length() int {
	bits := 8
	for _, f := range in.Fields {
		bits += f.Bits
	}
	return bits / 8
}

// Decoded holds the operand values extracted from one fetched instruction,
// in field order: register indices in Regs, address/raw values in Addrs.
type Decoded struct {
	Regs  []int
	Addrs []uint32
}

// Decode extracts Regs/Addrs from the raw operand bytes (everything after
// the opcode byte) according to in.Fields, reading bits MSB-first.
func Decode(in Instruction, operandBytes []byte) Decoded {
	var bitbuf uint64
	nbits := 0
	for _, b := range operandBytes {
		bitbuf = (bitbuf << 8) | uint64(b)
		nbits += 8
	}
	var out Decoded
	pos := nbits
	for _, f := range in.Fields {
		pos -= f.Bits
		mask := uint64(1)<<uint(f.Bits) - 1
		v := (bitbuf >> uint(pos)) & mask
		switch f.Kind {
		case FieldReg:
			out.Regs = append(out.Regs, int(v))
		case FieldAddr:
			out.Addrs = append(out.Addrs, uint32(v))
		case FieldPad:
			// discarded
		}
	}
	return out
}

// WritebackKind names the destination convention each machine uses for an
// arithmetic result (spec 4.5 step 4, "arithmetic (register-memory)").
type WritebackKind int

const (
	WritebackThreeAddress WritebackKind = iota // dest is the third address operand
	WritebackFirstAddress                      // dest is the first address operand (two-address/variable)
	WritebackAccumulator                       // dest is the implicit accumulator S
	WritebackStackTop                          // dest is the top of the operand stack
	WritebackRegister                          // dest is a named/addressed register
)

// StackKind distinguishes the two stack machines' operand conventions
// (spec 4.5: push/pop/dup/swap semantics differ between the addressed and
// address-less stack).
type StackKind int

const (
	StackNone        StackKind = iota
	StackAddressed              // mm-s: push/pop operands are memory addresses
	StackAddressLess            // mm-0: push is an immediate, pop/swap operands are counts/offsets
)

// JumpKind names how a jump target is computed (spec 4.5 step 4,
// "conditional jump"/"unconditional jump").
type JumpKind int

const (
	JumpAbsolute     JumpKind = iota // most machines: target is the address operand
	JumpPCRelative                   // mm-0: target = PC + sign-extended displacement
	JumpModifierBase                 // mm-m: target = (R_M + A) mod 2^16
)

// Descriptor fully parameterizes internal/engine for one model machine
// (spec 9 design note: "one control-unit implementation parameterized by
// an instruction-set descriptor and a machine configuration record").
type Descriptor struct {
	Machine         MachineID
	CellBits        int
	WordBits        int
	AddressBits     int
	Protected       bool
	Writeback       WritebackKind
	Stack           StackKind
	Jump            JumpKind
	HasModifier     bool     // mm-m: register-indexed address modification
	AddressableRegs []string // R0..RF names, in index order (register machines only)
	Instructions    map[byte]Instruction
}

// Lookup fetches the instruction row for opcode, and whether it exists.
func (d *Descriptor) Lookup(opcode byte) (Instruction, bool) {
	in, ok := d.Instructions[opcode]
	return in, ok
}

// New builds the Descriptor for machine, sized to wordBits (the register
// and accumulator width declared by the program's .cpu directive).
func New(machine MachineID, wordBits int) (*Descriptor, error) {
	switch machine {
	case ThreeAddress:
		return NewThreeAddress(wordBits), nil
	case TwoAddress:
		return NewTwoAddress(wordBits), nil
	case VariableLength:
		return NewVariableLength(wordBits), nil
	case OneAddress:
		return NewOneAddress(wordBits), nil
	case Stack:
		return NewStack(wordBits), nil
	case AddressLessStack:
		return NewAddressLessStack(wordBits), nil
	case Register:
		return NewRegister(wordBits), nil
	case RegisterModifiedID:
		return NewRegisterModified(wordBits), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownMachine, machine)
}

// arithmeticMnemonics pairs each shared arithmetic opcode with its ALU op,
// mnemonic stem and signedness, so every per-machine table builds its
// arithmetic rows from one list instead of six hand-copied literals.
var arithmeticMnemonics = []struct {
	Op      byte
	Mn      string
	ALUOp   alu.Op
	Signed  bool
}{
	{OpAdd, "add", alu.OpAdd, true},
	{OpSub, "sub", alu.OpSub, true},
	{OpSMul, "smul", alu.OpSMul, true},
	{OpUMul, "umul", alu.OpUMul, false},
	{OpSDiv, "sdiv", alu.OpSDiv, true},
	{OpUDiv, "udiv", alu.OpUDiv, false},
}

// addCondJumps inserts every shared conditional-jump opcode into table,
// with operand fields supplied by the caller (they differ by machine:
// absolute address, or a modifier register + address, or a PC-relative
// displacement).
func addCondJumps(table map[byte]Instruction, fields []Field) {
	for op, pred := range predicateByOpcode {
		table[op] = Instruction{
			Opcode:   op,
			Mnemonic: condMnemonic(pred),
			Fields:   fields,
			Kind:     KindCondJump,
			Pred:     pred,
		}
	}
}

func condMnemonic(p Predicate) string {
	switch p {
	case PredEQ:
		return "jeq"
	case PredNEQ:
		return "jneq"
	case PredSJL:
		return "sjl"
	case PredSJG:
		return "sjg"
	case PredSJGE:
		return "sjge"
	case PredSJLE:
		return "sjle"
	case PredUJL:
		return "ujl"
	case PredUJGE:
		return "ujge"
	case PredUJLE:
		return "ujle"
	case PredUJG:
		return "ujg"
	}
	return "j?"
}

// addHalt inserts the universal halt row (spec 4.4: opcode 0x99 is always
// halt, with no operand fields on any machine).
func addHalt(table map[byte]Instruction) {
	table[OpHalt] = Instruction{
		Opcode:   OpHalt,
		Mnemonic: "halt",
		Kind:     KindHalt,
	}
}
