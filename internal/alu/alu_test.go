package alu

import (
	"testing"

	"github.com/cmc-go/modelmachine/internal/memory"
	"github.com/cmc-go/modelmachine/internal/word"
)

func newRF() *memory.RegisterFile {
	rf := memory.NewRegisterFile()
	rf.Declare("R1", 16, false)
	rf.Declare("R2", 16, false)
	rf.Declare("S", 16, false)
	rf.Declare("S1", 16, false)
	return rf
}

func TestAddSetsFlags(t *testing.T) {
	rf := newRF()
	a := New()
	v1, _ := word.FromSigned(16, 5)
	v2, _ := word.FromSigned(16, -5)
	rf.Set("R1", v1)
	rf.Set("R2", v2)
	flags, err := a.Execute(rf, OpAdd, "R1", "R2", "S", "", true)
	if err != nil {
		t.Fatal(err)
	}
	if !flags.Z {
		t.Error("expected zero flag set for 5 + -5")
	}
	result, _ := rf.Get("S")
	if result.AsSigned() != 0 {
		t.Errorf("expected 0, got %d", result.AsSigned())
	}
}

func TestDivModWritesRemainder(t *testing.T) {
	rf := newRF()
	a := New()
	v1, _ := word.FromSigned(16, 17)
	v2, _ := word.FromSigned(16, 5)
	rf.Set("R1", v1)
	rf.Set("R2", v2)
	_, err := a.Execute(rf, OpSDiv, "R1", "R2", "S", "S1", true)
	if err != nil {
		t.Fatal(err)
	}
	q, _ := rf.Get("S")
	r, _ := rf.Get("S1")
	if q.AsSigned() != 3 || r.AsSigned() != 2 {
		t.Errorf("17/5 = q3 r2, got q%d r%d", q.AsSigned(), r.AsSigned())
	}
}

func TestDivisionByZeroPropagates(t *testing.T) {
	rf := newRF()
	a := New()
	v1, _ := word.FromSigned(16, 10)
	zero, _ := word.FromSigned(16, 0)
	rf.Set("R1", v1)
	rf.Set("R2", zero)
	_, err := a.Execute(rf, OpSDiv, "R1", "R2", "S", "S1", true)
	if err != word.ErrDivisionByZero {
		t.Errorf("expected ErrDivisionByZero, got %v", err)
	}
}

func TestCmpDoesNotWriteDestination(t *testing.T) {
	rf := newRF()
	a := New()
	v1, _ := word.FromSigned(16, 7)
	v2, _ := word.FromSigned(16, 7)
	rf.Set("R1", v1)
	rf.Set("R2", v2)
	flags, err := a.Execute(rf, OpCmp, "R1", "R2", "", "", true)
	if err != nil {
		t.Fatal(err)
	}
	if !flags.JEQ() {
		t.Error("expected JEQ true for equal cmp")
	}
}

func TestHaltSetsFlagOnly(t *testing.T) {
	rf := newRF()
	a := New()
	flags, err := a.Execute(rf, OpHalt, "", "", "", "", true)
	if err != nil {
		t.Fatal(err)
	}
	if !flags.HALT {
		t.Error("expected HALT flag set")
	}
}

func TestJumpPredicates(t *testing.T) {
	// N != V => SJL; unsigned C => UJL
	f := Flags{N: true, V: false}
	if !f.SJL() {
		t.Error("expected SJL true when N != V")
	}
	f2 := Flags{C: true}
	if !f2.UJL() {
		t.Error("expected UJL true when C set")
	}
	if f2.UJGE() {
		t.Error("expected UJGE false when C set")
	}
}

func TestUnsignedCmpTakesJumpForUnequalOperands(t *testing.T) {
	rf := newRF()
	a := New()
	v1, _ := word.FromUnsigned(16, 5)
	v2, _ := word.FromUnsigned(16, 10)
	rf.Set("R1", v1)
	rf.Set("R2", v2)
	flags, err := a.Execute(rf, OpCmp, "R1", "R2", "", "", false)
	if err != nil {
		t.Fatal(err)
	}
	if !flags.UJL() {
		t.Error("expected UJL true for cmp 5,10 unsigned (5 < 10)")
	}
	if flags.UJG() {
		t.Error("expected UJG false for cmp 5,10 unsigned")
	}

	rf.Set("R1", v2)
	rf.Set("R2", v1)
	flags, err = a.Execute(rf, OpCmp, "R1", "R2", "", "", false)
	if err != nil {
		t.Fatal(err)
	}
	if flags.UJL() {
		t.Error("expected UJL false for cmp 10,5 unsigned")
	}
	if !flags.UJG() {
		t.Error("expected UJG true for cmp 10,5 unsigned (10 > 5)")
	}
}
