package memory

import (
	"testing"

	"github.com/cmc-go/modelmachine/internal/word"
)

func TestRAMRoundTrip(t *testing.T) {
	ram := NewRAM(8, 16, false)
	w, _ := word.FromSigned(8, 42)
	if err := ram.Store(10, w); err != nil {
		t.Fatal(err)
	}
	got, err := ram.Fetch(10, 8)
	if err != nil {
		t.Fatal(err)
	}
	if eq, _ := got.Eq(w); !eq {
		t.Errorf("got %v, want %v", got, w)
	}
}

func TestRAMWideWordAcrossCells(t *testing.T) {
	ram := NewRAM(8, 16, false)
	w, _ := word.FromUnsigned(32, 0x11223344)
	if err := ram.Store(100, w); err != nil {
		t.Fatal(err)
	}
	got, err := ram.Fetch(100, 32)
	if err != nil {
		t.Fatal(err)
	}
	if eq, _ := got.Eq(w); !eq {
		t.Errorf("got %v, want %v", got, w)
	}
	// big-endian: most significant byte first
	b0, _ := ram.Fetch(100, 8)
	if b0.AsUnsigned() != 0x11 {
		t.Errorf("expected MSB first, got %x", b0.AsUnsigned())
	}
}

func TestRAMProtectedUninitialisedRead(t *testing.T) {
	ram := NewRAM(8, 16, true)
	if _, err := ram.Fetch(5, 8); err != ErrUninitialisedRead {
		t.Errorf("expected ErrUninitialisedRead, got %v", err)
	}
}

func TestRAMPermissiveUninitialisedReadsZero(t *testing.T) {
	ram := NewRAM(8, 16, false)
	got, err := ram.Fetch(5, 8)
	if err != nil {
		t.Fatal(err)
	}
	if got.AsUnsigned() != 0 {
		t.Errorf("expected zero, got %v", got.AsUnsigned())
	}
}

func TestRAMAddressWrap(t *testing.T) {
	ram := NewRAM(8, 4, false) // 2^4 = 16 cells
	w, _ := word.FromUnsigned(8, 0xAB)
	if err := ram.Store(16, w); err != nil { // wraps to 0
		t.Fatal(err)
	}
	got, err := ram.Fetch(0, 8)
	if err != nil {
		t.Fatal(err)
	}
	if got.AsUnsigned() != 0xAB {
		t.Errorf("expected wrap to address 0, got %x", got.AsUnsigned())
	}
}

func TestRAMBadAlignment(t *testing.T) {
	ram := NewRAM(16, 16, false)
	if _, err := ram.Fetch(0, 8); err != ErrBadAlignment {
		t.Errorf("expected ErrBadAlignment, got %v", err)
	}
}

func TestRegisterFileWidthCheck(t *testing.T) {
	rf := NewRegisterFile()
	rf.Declare("R1", 16, false)
	bad, _ := word.FromUnsigned(8, 1)
	if err := rf.Set("R1", bad); err != ErrRegisterWidth {
		t.Errorf("expected ErrRegisterWidth, got %v", err)
	}
	good, _ := word.FromUnsigned(16, 1234)
	if err := rf.Set("R1", good); err != nil {
		t.Fatal(err)
	}
	got, err := rf.Get("R1")
	if err != nil {
		t.Fatal(err)
	}
	if got.AsUnsigned() != 1234 {
		t.Errorf("got %d, want 1234", got.AsUnsigned())
	}
}

func TestRegisterFileReservedNotAddressable(t *testing.T) {
	rf := NewRegisterFile()
	rf.Declare("PC", 16, true)
	rf.Declare("R0", 16, false)
	names := []string{"R0"}
	if _, err := rf.GetAddressable(0, names); err != nil {
		t.Fatalf("R0 should be addressable: %v", err)
	}
	// PC is not in the addressable name table at all, so any index lookup
	// against the guest-visible table can never reach it; attempting to
	// treat it as addressable index 1 (out of range here) must fail.
	if _, err := rf.GetAddressable(1, names); err != ErrIllegalRegister {
		t.Errorf("expected ErrIllegalRegister, got %v", err)
	}
}
