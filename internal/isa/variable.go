package isa

import "github.com/cmc-go/modelmachine/internal/alu"

// NewVariableLength builds the mm-v table. Every arithmetic operation has
// two opcodes: a long form with two 16-bit addresses (identical to mm-2)
// and a short form with two 8-bit addresses reaching only the first 256
// cells, two bytes shorter. Instruction length is therefore a function of
// which opcode was fetched, not a fixed per-machine constant (spec 9:
// "variable-length: instruction length depends on the opcode actually
// fetched").
func NewVariableLength(wordBits int) *Descriptor {
	longAddr := func(n int) []Field {
		f := make([]Field, n)
		for i := range f {
			f[i] = Field{Kind: FieldAddr, Bits: 16}
		}
		return f
	}
	shortAddr := func(n int) []Field {
		f := make([]Field, n)
		for i := range f {
			f[i] = Field{Kind: FieldAddr, Bits: 8}
		}
		return f
	}

	table := map[byte]Instruction{}
	for _, m := range arithmeticMnemonics {
		table[m.Op] = Instruction{
			Opcode: m.Op, Mnemonic: m.Mn, Fields: longAddr(2),
			Kind: KindArithmetic, ALUOp: m.ALUOp, Signed: m.Signed,
		}
	}
	// Short forms occupy 0x40..0x45, one per arithmetic opcode in order.
	for i, m := range arithmeticMnemonics {
		op := byte(0x40 + i)
		table[op] = Instruction{
			Opcode: op, Mnemonic: "s" + m.Mn, Fields: shortAddr(2),
			Kind: KindArithmetic, ALUOp: m.ALUOp, Signed: m.Signed,
		}
	}
	table[OpMove] = Instruction{Opcode: OpMove, Mnemonic: "move", Fields: longAddr(2), Kind: KindMove}
	table[OpCmp] = Instruction{Opcode: OpCmp, Mnemonic: "cmp", Fields: longAddr(2), Kind: KindCmp, ALUOp: alu.OpCmp, Signed: true}
	table[OpJmp] = Instruction{Opcode: OpJmp, Mnemonic: "jmp", Fields: longAddr(1), Kind: KindJump}
	addCondJumps(table, longAddr(1))
	addHalt(table)

	return &Descriptor{
		Machine: VariableLength, CellBits: 8, WordBits: wordBits, AddressBits: 16,
		Writeback: WritebackFirstAddress, Jump: JumpAbsolute,
		Instructions: table,
	}
}
