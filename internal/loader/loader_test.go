package loader

import (
	"bytes"
	"strings"
	"testing"

	"github.com/cmc-go/modelmachine/internal/source"
)

// TestRunThreeAddressAdd loads a one-instruction mm-3 program (add three
// addressed operands, then halt), binds two inline inputs to the first two
// operands, and checks the output binding on the third.
func TestRunThreeAddressAdd(t *testing.T) {
	text := `.cpu mm-3 16
.input 0x10, 0x12
.output 0x14
.enter 3 4
.code
0100100012001499
`
	prog, err := source.Parse(strings.NewReader(text))
	if err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	_, result, err := Run(prog, Options{Output: &out})
	if err != nil {
		t.Fatalf("run failed: %v (reason %v)", err, result.Reason)
	}
	if got, want := strings.TrimSpace(out.String()), "7"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

// TestRunDivisionByZeroSuppressesOutput exercises spec.md §8 scenario 5:
// sdiv by zero halts with an error and produces no output.
func TestRunDivisionByZeroSuppressesOutput(t *testing.T) {
	// sdiv 0x10,0x12,0x14   divisor cell 0x12 left at zero -> DivisionByZero
	// halt
	text := `.cpu mm-3 16
.input 0x10
.output 0x14
.enter 9
.code
0500100012001499
`
	prog, err := source.Parse(strings.NewReader(text))
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	_, result, err := Run(prog, Options{Output: &out})
	if err == nil {
		t.Fatal("expected a division-by-zero error")
	}
	if out.Len() != 0 {
		t.Errorf("expected no output on error halt, got %q", out.String())
	}
	_ = result
}

// TestRunProtectedUninitialisedReadHalts exercises spec.md §8 scenario 6.
func TestRunProtectedUninitialisedReadHalts(t *testing.T) {
	// move 0x50,0x14 reads an address never written, under protected RAM.
	text := `.cpu mm-3 16
.code
100050001499
`
	prog, err := source.Parse(strings.NewReader(text))
	if err != nil {
		t.Fatal(err)
	}
	_, _, err = Run(prog, Options{Protected: true})
	if err == nil {
		t.Fatal("expected UninitialisedRead")
	}
}
