package isa

import "github.com/cmc-go/modelmachine/internal/alu"

func registerNames() []string {
	names := make([]string, 16)
	hex := "0123456789ABCDEF"
	for i := range names {
		names[i] = "R" + string(hex[i])
	}
	return names
}

// NewRegister builds the mm-r table: sixteen addressable registers R0..RF.
// Arithmetic is register-to-register, writing its result (and, for divmod,
// its remainder) into named registers (spec 9: "register: write to the
// named/addressed destination register; a divmod remainder goes to the next
// register in circular R0..RF order"). load/store move values between a
// register and a plain memory address.
func NewRegister(wordBits int) *Descriptor {
	rr := []Field{{Kind: FieldReg, Bits: 4}, {Kind: FieldReg, Bits: 4}}
	regMem := []Field{{Kind: FieldReg, Bits: 4}, {Kind: FieldPad, Bits: 4}, {Kind: FieldAddr, Bits: 16}}
	addr1 := []Field{{Kind: FieldAddr, Bits: 16}}

	table := map[byte]Instruction{}
	for _, m := range arithmeticMnemonics {
		table[m.Op] = Instruction{
			Opcode: m.Op, Mnemonic: m.Mn, Fields: rr,
			Kind: KindArithmetic, ALUOp: m.ALUOp, Signed: m.Signed,
		}
	}
	table[OpMove] = Instruction{Opcode: OpMove, Mnemonic: "load", Fields: regMem, Kind: KindMove}
	table[OpStore] = Instruction{Opcode: OpStore, Mnemonic: "store", Fields: regMem, Kind: KindMove}
	table[OpSwap] = Instruction{Opcode: OpSwap, Mnemonic: "swap", Fields: rr, Kind: KindSwap}
	table[OpCmp] = Instruction{Opcode: OpCmp, Mnemonic: "cmp", Fields: rr, Kind: KindCmp, ALUOp: alu.OpCmp, Signed: true}
	table[OpJmp] = Instruction{Opcode: OpJmp, Mnemonic: "jmp", Fields: addr1, Kind: KindJump}
	addCondJumps(table, addr1)
	addHalt(table)

	return &Descriptor{
		Machine: Register, CellBits: 8, WordBits: wordBits, AddressBits: 16,
		Writeback: WritebackRegister, Jump: JumpAbsolute,
		AddressableRegs: registerNames(),
		Instructions:    table,
	}
}
