package disassemble

import (
	"strings"
	"testing"

	"github.com/cmc-go/modelmachine/internal/assembler"
	"github.com/cmc-go/modelmachine/internal/isa"
)

// TestRoundTripPreservesSemantics exercises spec.md §8's round-trip
// property: assembling then disassembling preserves every encodable
// instruction's mnemonic and operand shape on the modification machine.
func TestRoundTripPreservesSemantics(t *testing.T) {
	text := `
.code
array: .word 1, 2
.config 0x100
main:
  load  R1, array
  load  R2, array(R1)
  add   R1, R2
  sub   R1, R2
  cmp   R1, R2
  sjge  main
  store R1, array
  halt
`
	prog, err := assembler.Assemble(strings.NewReader(text), 32)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if len(prog.Spans) == 0 {
		t.Fatal("expected at least one span")
	}

	desc := isa.NewRegisterModified(32)
	var got []string
	for _, span := range prog.Spans {
		for _, line := range All(desc, span.Addr, span.Data) {
			got = append(got, line)
		}
	}

	want := []string{"load", "load", "add", "sub", "cmp", "sjge", "store", "halt"}
	if len(got) != len(want) {
		t.Fatalf("disassembled %d instructions, want %d: %v", len(got), len(want), got)
	}
	for i, line := range got {
		fields := strings.Fields(strings.SplitN(line, ": ", 2)[1])
		if fields[0] != want[i] {
			t.Errorf("instruction %d: mnemonic = %q, want %q (line %q)", i, fields[0], want[i], line)
		}
	}
}

func TestOneUnknownOpcode(t *testing.T) {
	desc := isa.NewRegisterModified(32)
	if _, _, err := One(desc, []byte{0xfe}); err == nil {
		t.Fatal("expected an error for an opcode with no table row")
	}
}
