package isa

import "github.com/cmc-go/modelmachine/internal/alu"

// NewAddressLessStack builds the mm-0 table. Arithmetic, cmp and dup behave
// as on mm-s, but push takes a sign-extended immediate instead of a memory
// address, pop takes a raw byte count to deallocate, swap takes a slot
// displacement choosing its second operand, and jump targets are PC-relative
// (spec 9: "address-less stack: push is immediate, pop/swap operands are
// counts/offsets, jump displacement is signed and relative to the
// instruction following it").
func NewAddressLessStack(wordBits int) *Descriptor {
	imm1 := []Field{{Kind: FieldAddr, Bits: 16}}

	table := map[byte]Instruction{}
	for _, m := range arithmeticMnemonics {
		table[m.Op] = Instruction{
			Opcode: m.Op, Mnemonic: m.Mn,
			Kind: KindArithmetic, ALUOp: m.ALUOp, Signed: m.Signed,
		}
	}
	table[OpPush] = Instruction{Opcode: OpPush, Mnemonic: "push", Fields: imm1, Kind: KindPush}
	table[OpPop] = Instruction{Opcode: OpPop, Mnemonic: "pop", Fields: imm1, Kind: KindPop}
	table[OpDup] = Instruction{Opcode: OpDup, Mnemonic: "dup", Kind: KindDup}
	table[OpSwap] = Instruction{Opcode: OpSwap, Mnemonic: "swap", Fields: imm1, Kind: KindSwap}
	table[OpCmp] = Instruction{Opcode: OpCmp, Mnemonic: "cmp", Kind: KindCmp, ALUOp: alu.OpCmp, Signed: true}
	table[OpJmp] = Instruction{Opcode: OpJmp, Mnemonic: "jmp", Fields: imm1, Kind: KindJump}
	addCondJumps(table, imm1)
	addHalt(table)

	return &Descriptor{
		Machine: AddressLessStack, CellBits: 8, WordBits: wordBits, AddressBits: 16,
		Writeback: WritebackStackTop, Stack: StackAddressLess, Jump: JumpPCRelative,
		Instructions: table,
	}
}
