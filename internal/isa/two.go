package isa

import "github.com/cmc-go/modelmachine/internal/alu"

// NewTwoAddress builds the mm-2 table: arithmetic instructions name two
// memory addresses and write the result back into the first (spec 9:
// "two-address/variable: write to the first address operand").
func NewTwoAddress(wordBits int) *Descriptor {
	addr := func(n int) []Field {
		f := make([]Field, n)
		for i := range f {
			f[i] = Field{Kind: FieldAddr, Bits: 16}
		}
		return f
	}

	table := map[byte]Instruction{}
	for _, m := range arithmeticMnemonics {
		table[m.Op] = Instruction{
			Opcode: m.Op, Mnemonic: m.Mn, Fields: addr(2),
			Kind: KindArithmetic, ALUOp: m.ALUOp, Signed: m.Signed,
		}
	}
	table[OpMove] = Instruction{Opcode: OpMove, Mnemonic: "move", Fields: addr(2), Kind: KindMove}
	table[OpCmp] = Instruction{Opcode: OpCmp, Mnemonic: "cmp", Fields: addr(2), Kind: KindCmp, ALUOp: alu.OpCmp, Signed: true}
	table[OpJmp] = Instruction{Opcode: OpJmp, Mnemonic: "jmp", Fields: addr(1), Kind: KindJump}
	addCondJumps(table, addr(1))
	addHalt(table)

	return &Descriptor{
		Machine: TwoAddress, CellBits: 8, WordBits: wordBits, AddressBits: 16,
		Writeback: WritebackFirstAddress, Jump: JumpAbsolute,
		Instructions: table,
	}
}
