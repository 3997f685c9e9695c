package assembler

import (
	"bytes"
	"strings"
	"testing"

	"github.com/cmc-go/modelmachine/internal/loader"
)

// TestAssembleAddressedSum exercises spec.md §8 scenario 4: summing a
// five-element signed array through the mm-m address-modification form,
// storing the total into sum, then dumping array(5), sum.
func TestAssembleAddressedSum(t *testing.T) {
	text := `
array: .word -1, 2, 3, 4, 5
sum:   .word 0
off0:  .word 0
off1:  .word 4
off2:  .word 8
off3:  .word 12
off4:  .word 16

main:
  load R3, off0
  load R1, array(R3)
  load R3, off1
  load R2, array(R3)
  add  R1, R2
  load R3, off2
  load R2, array(R3)
  add  R1, R2
  load R3, off3
  load R2, array(R3)
  add  R1, R2
  load R3, off4
  load R2, array(R3)
  add  R1, R2
  store R1, sum
  halt
.dump array(5), sum
`
	prog, err := Assemble(strings.NewReader(text), 32)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}

	var out bytes.Buffer
	_, result, err := loader.Run(prog, loader.Options{Output: &out})
	if err != nil {
		t.Fatalf("run failed: %v (reason %v)", err, result.Reason)
	}
	if got, want := strings.TrimSpace(out.String()), "-1 2 3 4 5 13"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestAssembleUnknownMnemonic(t *testing.T) {
	_, err := Assemble(strings.NewReader(".code\nbogus R1, R2\nhalt\n"), 32)
	if err == nil {
		t.Fatal("expected an unknown-mnemonic error")
	}
}

func TestAssembleUnknownLabel(t *testing.T) {
	_, err := Assemble(strings.NewReader(".code\nload R1, nowhere\nhalt\n"), 32)
	if err == nil {
		t.Fatal("expected an unknown-label error")
	}
}

func TestAssembleDuplicateLabel(t *testing.T) {
	text := ".code\nfoo: .word 1\nfoo: .word 2\n"
	_, err := Assemble(strings.NewReader(text), 32)
	if err == nil {
		t.Fatal("expected a duplicate-label error")
	}
}

func TestAssembleConfigSetsLoadAddress(t *testing.T) {
	text := ".config 0x100\nstart: halt\n"
	prog, err := Assemble(strings.NewReader(text), 32)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if len(prog.Spans) != 1 || prog.Spans[0].Addr != 0x100 {
		t.Fatalf("expected one span at 0x100, got %+v", prog.Spans)
	}
}
