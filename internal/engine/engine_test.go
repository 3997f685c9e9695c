package engine_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/cmc-go/modelmachine/internal/engine"
	"github.com/cmc-go/modelmachine/internal/isa"
	"github.com/cmc-go/modelmachine/internal/loader"
	"github.com/cmc-go/modelmachine/internal/source"
	"github.com/cmc-go/modelmachine/internal/word"
)

// TestFactorialByDecrement exercises spec.md §8 scenario 1: a decrement loop
// computing 6! on mm-3. result := 1; i := n; while i != 0 { result *= i;
// i -= 1 }, with n bound to input and result bound to output.
func TestFactorialByDecrement(t *testing.T) {
	text := `.cpu mm-3 16
.input 0x200
.output 0x202
.enter 6
.code
10020602021002000204300204020880002303020202040202020204020602048A000A99
.code 0x206
00010000
`
	prog, err := source.Parse(strings.NewReader(text))
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	_, result, err := loader.Run(prog, loader.Options{Output: &out})
	if err != nil {
		t.Fatalf("run failed: %v (reason %v)", err, result.Reason)
	}
	if got, want := strings.TrimSpace(out.String()), "720"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

// TestPolynomialThreeAddress exercises spec.md §8 scenario 2: x =
// ((a*-21) mod 50 - b)^2 on mm-3, with a = -123, b = 456, expecting 178929.
// mod is computed the way a three-address machine with only a quotient
// writeback must: q = a/b (truncated), r = a - b*q.
func TestPolynomialThreeAddress(t *testing.T) {
	text := `.cpu mm-3 32
.input 0x100, 0x104
.output 0x124
.enter -123 456
.code
03010001080110050110010C0114030114010C01180201100118011C02011C01040120030120012001249900
.code 0x108
FFFFFFEB00000032
`
	prog, err := source.Parse(strings.NewReader(text))
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	_, result, err := loader.Run(prog, loader.Options{Output: &out})
	if err != nil {
		t.Fatalf("run failed: %v (reason %v)", err, result.Reason)
	}
	if got, want := strings.TrimSpace(out.String()), "178929"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

// TestPolynomialAddressLessStack exercises spec.md §8 scenario 3: the same
// polynomial as TestPolynomialThreeAddress, on mm-0 (the address-less
// stack machine), with .enter -12 45, expecting 1849. The input bindings
// push a then b (spec 4.6 step 3); swap(1) brings a to the top so -21 can
// be multiplied against it while b waits underneath. The final subtraction
// computes b - r rather than r - b (stack order, not operand order,
// decides which operand is "earlier"), but squaring erases the sign flip.
func TestPolynomialAddressLessStack(t *testing.T) {
	text := `.cpu mm-0 16
.input 2
.output 1
.enter -12 45
.code
23000120FFEB03222000320520003203020222039900
`
	prog, err := source.Parse(strings.NewReader(text))
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	_, result, err := loader.Run(prog, loader.Options{Output: &out})
	if err != nil {
		t.Fatalf("run failed: %v (reason %v)", err, result.Reason)
	}
	if got, want := strings.TrimSpace(out.String()), "1849"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

// TestHaltLeavesStateUnchanged exercises spec.md §8's invariant: "A halt
// step sets FLAGS.HALT and leaves all other state unchanged from its
// pre-state."
func TestHaltLeavesStateUnchanged(t *testing.T) {
	desc := isa.NewThreeAddress(16)
	eng := engine.New(desc, false)

	// Pre-seed a data cell so there is observable non-FLAGS state to check.
	if err := eng.RAM.Store(0x10, word.MustNew(16, 0x1234)); err != nil {
		t.Fatal(err)
	}
	// halt at address 0.
	if err := eng.RAM.Store(0, word.MustNew(8, uint64(isa.OpHalt))); err != nil {
		t.Fatal(err)
	}

	reason, err := eng.Step()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reason != engine.StopHalt {
		t.Fatalf("reason = %v, want StopHalt", reason)
	}
	if !eng.Flags().HALT {
		t.Error("FLAGS.HALT not set after halt")
	}
	w, err := eng.RAM.Fetch(0x10, 16)
	if err != nil {
		t.Fatal(err)
	}
	if w.AsUnsigned() != 0x1234 {
		t.Errorf("halt mutated unrelated memory: got %#x", w.AsUnsigned())
	}
}

// TestMoveDoesNotTouchFlags exercises spec.md §8's invariant: "The control
// unit never writes FLAGS on a pure move or jump."
func TestMoveDoesNotTouchFlags(t *testing.T) {
	desc := isa.NewThreeAddress(16)
	eng := engine.New(desc, false)

	// First, leave FLAGS in a known non-zero state via a cmp that sets Z.
	if err := eng.RAM.Store(0x20, word.MustNew(16, 7)); err != nil {
		t.Fatal(err)
	}
	if err := eng.RAM.Store(0x22, word.MustNew(16, 7)); err != nil {
		t.Fatal(err)
	}
	// cmp 0x20,0x22 (a 2-address instruction: opcode + two 16-bit addresses).
	mustEncode2(t, eng, 0, isa.OpCmp, 0x20, 0x22)
	if _, err := eng.Step(); err != nil {
		t.Fatal(err)
	}
	if !eng.Flags().Z {
		t.Fatal("expected cmp of equal operands to set Z")
	}
	before := eng.Flags()

	// move 0x20,0x24 at the next instruction (cmp above occupies 5 bytes).
	mustEncode2(t, eng, 5, isa.OpMove, 0x20, 0x24)
	if _, err := eng.Step(); err != nil {
		t.Fatal(err)
	}
	if eng.Flags() != before {
		t.Errorf("move altered flags: before %+v, after %+v", before, eng.Flags())
	}
}

// mustEncode2 stores a 2-address instruction (opcode + two 16-bit
// addresses, the mm-3 move/cmp format) at at.
func mustEncode2(t *testing.T, eng *engine.Engine, at uint32, op byte, a1, a2 uint16) {
	t.Helper()
	raw := []byte{op, byte(a1 >> 8), byte(a1), byte(a2 >> 8), byte(a2)}
	for i, b := range raw {
		if err := eng.RAM.Store(at+uint32(i), word.MustNew(8, uint64(b))); err != nil {
			t.Fatal(err)
		}
	}
}
