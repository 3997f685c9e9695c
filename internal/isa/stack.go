package isa

import "github.com/cmc-go/modelmachine/internal/alu"

// NewStack builds the mm-s table: an addressed operand stack. Arithmetic,
// cmp, dup and swap pop their operands from the top of the stack and have
// no operand fields; push and pop name the memory address to copy to/from
// (spec 9: "stack: write to top of stack and adjust SP").
func NewStack(wordBits int) *Descriptor {
	addr1 := []Field{{Kind: FieldAddr, Bits: 16}}

	table := map[byte]Instruction{}
	for _, m := range arithmeticMnemonics {
		table[m.Op] = Instruction{
			Opcode: m.Op, Mnemonic: m.Mn,
			Kind: KindArithmetic, ALUOp: m.ALUOp, Signed: m.Signed,
		}
	}
	table[OpPush] = Instruction{Opcode: OpPush, Mnemonic: "push", Fields: addr1, Kind: KindPush}
	table[OpPop] = Instruction{Opcode: OpPop, Mnemonic: "pop", Fields: addr1, Kind: KindPop}
	table[OpDup] = Instruction{Opcode: OpDup, Mnemonic: "dup", Kind: KindDup}
	table[OpSwap] = Instruction{Opcode: OpSwap, Mnemonic: "swap", Kind: KindSwap}
	table[OpCmp] = Instruction{Opcode: OpCmp, Mnemonic: "cmp", Kind: KindCmp, ALUOp: alu.OpCmp, Signed: true}
	table[OpJmp] = Instruction{Opcode: OpJmp, Mnemonic: "jmp", Fields: addr1, Kind: KindJump}
	addCondJumps(table, addr1)
	addHalt(table)

	return &Descriptor{
		Machine: Stack, CellBits: 8, WordBits: wordBits, AddressBits: 16,
		Writeback: WritebackStackTop, Stack: StackAddressed, Jump: JumpAbsolute,
		Instructions: table,
	}
}
