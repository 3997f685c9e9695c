/*
   disassemble: modification-machine disassembler.

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
   RICHARD CORNWELL BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
   IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
   CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
*/

// Package disassemble renders raw mm-m instruction bytes back to assembly
// text, the way the teacher's emu/disassemble renders IBM 370 bytes: one
// opcode-to-mnemonic map keyed by the instruction's isa.Kind, no per-opcode
// special cases. It exists to support the assemble/disassemble round-trip
// property (spec 8): assembling then disassembling preserves the semantics
// of every encodable mm-m instruction.
package disassemble

import (
	"fmt"

	"github.com/cmc-go/modelmachine/internal/isa"
)

// One renders the instruction at the start of data (opcode byte first,
// followed by whatever operand bytes its format needs) as one line of mm-m
// assembly, and returns the instruction's length in bytes. It returns an
// error if data is too short for the decoded opcode's length, or the
// opcode has no row in desc.
func One(desc *isa.Descriptor, data []byte) (text string, length int, err error) {
	if len(data) == 0 {
		return "", 0, fmt.Errorf("disassemble: empty input")
	}
	in, ok := desc.Lookup(data[0])
	if !ok {
		return "", 0, fmt.Errorf("disassemble: opcode %#02x not in %s table", data[0], desc.Machine)
	}
	length = in.Length()
	if len(data) < length {
		return "", 0, fmt.Errorf("disassemble: need %d bytes for %s, have %d", length, in.Mnemonic, len(data))
	}
	dec := isa.Decode(in, data[1:length])

	switch in.Kind {
	case isa.KindHalt:
		return "halt", length, nil
	case isa.KindArithmetic, isa.KindSwap, isa.KindCmp:
		return fmt.Sprintf("%s R%X, R%X", in.Mnemonic, dec.Regs[0], dec.Regs[1]), length, nil
	case isa.KindMove:
		return fmt.Sprintf("%s R%X, %s", in.Mnemonic, dec.Regs[0], operand(dec.Regs[1], dec.Addrs[0])), length, nil
	case isa.KindJump, isa.KindCondJump:
		return fmt.Sprintf("%s %s", in.Mnemonic, operand(dec.Regs[0], dec.Addrs[0])), length, nil
	}
	return "", 0, fmt.Errorf("disassemble: unhandled kind for %s", in.Mnemonic)
}

// operand renders a modification-machine memory operand: a bare 16-bit
// displacement when the modifier register is R0 (spec 4.5: "if M = 0, the
// additive contribution is zero regardless of R0's current value", so an
// unmodified operand and an explicit "(R0)" modifier are indistinguishable
// at the bit level, and the shorter form round-trips), otherwise
// "addr(Rn)" (spec 4.8's address form).
func operand(modReg int, addr uint32) string {
	if modReg == 0 {
		return fmt.Sprintf("%d", addr)
	}
	return fmt.Sprintf("%d(R%X)", addr, modReg)
}

// All disassembles every instruction in data starting at address base,
// stopping at the first halt, an unknown opcode, or the end of data.
// Lines are formatted "addr: mnemonic operands", matching the label-free
// listing style a debugger's "list" command would print (spec 4.7).
func All(desc *isa.Descriptor, base uint32, data []byte) []string {
	var lines []string
	addr := base
	off := 0
	for off < len(data) {
		text, length, err := One(desc, data[off:])
		if err != nil {
			break
		}
		lines = append(lines, fmt.Sprintf("%04x: %s", addr, text))
		if desc.Instructions[data[off]].Kind == isa.KindHalt {
			break
		}
		off += length
		addr += uint32(length)
	}
	return lines
}
