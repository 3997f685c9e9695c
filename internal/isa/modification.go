package isa

import "github.com/cmc-go/modelmachine/internal/alu"

// NewRegisterModified builds the mm-m table. It shares mm-r's register
// arithmetic, but every memory-referencing instruction (load, store, jump)
// carries an extra modifier-register nibble: the effective address is
// (R_M + A) mod 2^address_bits (spec 4.5, "address modification"; the same
// rule applies to jump targets).
func NewRegisterModified(wordBits int) *Descriptor {
	rr := []Field{{Kind: FieldReg, Bits: 4}, {Kind: FieldReg, Bits: 4}}
	regMemMod := []Field{{Kind: FieldReg, Bits: 4}, {Kind: FieldReg, Bits: 4}, {Kind: FieldAddr, Bits: 16}}
	jumpMod := []Field{{Kind: FieldReg, Bits: 4}, {Kind: FieldPad, Bits: 4}, {Kind: FieldAddr, Bits: 16}}

	table := map[byte]Instruction{}
	for _, m := range arithmeticMnemonics {
		table[m.Op] = Instruction{
			Opcode: m.Op, Mnemonic: m.Mn, Fields: rr,
			Kind: KindArithmetic, ALUOp: m.ALUOp, Signed: m.Signed,
		}
	}
	table[OpMove] = Instruction{Opcode: OpMove, Mnemonic: "load", Fields: regMemMod, Kind: KindMove}
	table[OpStore] = Instruction{Opcode: OpStore, Mnemonic: "store", Fields: regMemMod, Kind: KindMove}
	table[OpSwap] = Instruction{Opcode: OpSwap, Mnemonic: "swap", Fields: rr, Kind: KindSwap}
	table[OpCmp] = Instruction{Opcode: OpCmp, Mnemonic: "cmp", Fields: rr, Kind: KindCmp, ALUOp: alu.OpCmp, Signed: true}
	table[OpJmp] = Instruction{Opcode: OpJmp, Mnemonic: "jmp", Fields: jumpMod, Kind: KindJump}
	addCondJumps(table, jumpMod)
	addHalt(table)

	return &Descriptor{
		Machine: RegisterModifiedID, CellBits: 8, WordBits: wordBits, AddressBits: 16,
		Writeback: WritebackRegister, Jump: JumpModifierBase, HasModifier: true,
		AddressableRegs: registerNames(),
		Instructions:    table,
	}
}
