package isa

import "github.com/cmc-go/modelmachine/internal/alu"

// NewThreeAddress builds the mm-3 instruction table: every arithmetic
// instruction names three memory addresses (src1, src2, dest), the
// convention spec 9 calls "three-address: write to the third address
// operand" (spec 4.5 step 4).
func NewThreeAddress(wordBits int) *Descriptor {
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
			Opcode: m.Op, Mnemonic: m.Mn, Fields: addr(3),
			Kind: KindArithmetic, ALUOp: m.ALUOp, Signed: m.Signed,
		}
	}
	table[OpMove] = Instruction{Opcode: OpMove, Mnemonic: "move", Fields: addr(2), Kind: KindMove}
	table[OpCmp] = Instruction{Opcode: OpCmp, Mnemonic: "cmp", Fields: addr(2), Kind: KindCmp, ALUOp: alu.OpCmp, Signed: true}
	table[OpJmp] = Instruction{Opcode: OpJmp, Mnemonic: "jmp", Fields: addr(1), Kind: KindJump}
	addCondJumps(table, addr(1))
	addHalt(table)

	return &Descriptor{
		Machine: ThreeAddress, CellBits: 8, WordBits: wordBits, AddressBits: 16,
		Writeback: WritebackThreeAddress, Jump: JumpAbsolute,
		Instructions: table,
	}
}
