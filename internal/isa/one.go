package isa

import "github.com/cmc-go/modelmachine/internal/alu"

// NewOneAddress builds the mm-1 table: a single implicit accumulator S
// (plus a secondary accumulator S1) and one memory-address operand per
// instruction. Arithmetic reads S and [A], writes S (spec 9: "one-address:
// accumulate in the implicit accumulator"). swap exchanges S and S1 (spec 9
// open question (c), resolved: the one-address swap exchanges the two
// accumulators, not a memory cell).
func NewOneAddress(wordBits int) *Descriptor {
	addr1 := []Field{{Kind: FieldAddr, Bits: 16}}

	table := map[byte]Instruction{}
	for _, m := range arithmeticMnemonics {
		table[m.Op] = Instruction{
			Opcode: m.Op, Mnemonic: m.Mn, Fields: addr1,
			Kind: KindArithmetic, ALUOp: m.ALUOp, Signed: m.Signed,
		}
	}
	table[OpMove] = Instruction{Opcode: OpMove, Mnemonic: "load", Fields: addr1, Kind: KindMove}
	table[OpStore] = Instruction{Opcode: OpStore, Mnemonic: "store", Fields: addr1, Kind: KindMove}
	table[OpSwap] = Instruction{Opcode: OpSwap, Mnemonic: "swap", Kind: KindSwap}
	table[OpCmp] = Instruction{Opcode: OpCmp, Mnemonic: "cmp", Fields: addr1, Kind: KindCmp, ALUOp: alu.OpCmp, Signed: true}
	table[OpJmp] = Instruction{Opcode: OpJmp, Mnemonic: "jmp", Fields: addr1, Kind: KindJump}
	addCondJumps(table, addr1)
	addHalt(table)

	return &Descriptor{
		Machine: OneAddress, CellBits: 8, WordBits: wordBits, AddressBits: 16,
		Writeback: WritebackAccumulator, Jump: JumpAbsolute,
		Instructions: table,
	}
}
