package isa

import "testing"

func TestHaltIsUniversal(t *testing.T) {
	for _, m := range []MachineID{ThreeAddress, TwoAddress, VariableLength, OneAddress, Stack, AddressLessStack, Register, RegisterModifiedID} {
		d, err := New(m, 16)
		if err != nil {
			t.Fatalf("%s: %v", m, err)
		}
		in, ok := d.Lookup(OpHalt)
		if !ok || in.Mnemonic != "halt" {
			t.Errorf("%s: opcode 0x99 is not halt", m)
		}
	}
}

func TestSjgeIsNotSjneq(t *testing.T) {
	d := NewThreeAddress(16)
	in, ok := d.Lookup(OpSjge)
	if !ok {
		t.Fatal("0x84 missing")
	}
	if in.Mnemonic != "sjge" || in.Pred != PredSJGE {
		t.Errorf("expected 0x84 to be sjge, got %s", in.Mnemonic)
	}
}

func TestThreeAddressInstructionLength(t *testing.T) {
	d := NewThreeAddress(16)
	in, _ := d.Lookup(OpAdd)
	if got := in.Length(); got != 7 {
		t.Errorf("expected 7-byte add, got %d", got)
	}
}

func TestVariableLengthShortFormIsShorter(t *testing.T) {
	d := NewVariableLength(16)
	long, _ := d.Lookup(OpAdd)
	short, _ := d.Lookup(0x40)
	if long.Length() <= short.Length() {
		t.Errorf("expected short form shorter than long form: long=%d short=%d", long.Length(), short.Length())
	}
}

func TestDecodeRegisterFields(t *testing.T) {
	d := NewRegister(16)
	in, _ := d.Lookup(OpAdd)
	// Rx=0x3, Ry=0xA packed into one byte.
	dec := Decode(in, []byte{0x3A})
	if len(dec.Regs) != 2 || dec.Regs[0] != 3 || dec.Regs[1] != 0xA {
		t.Errorf("unexpected decode: %+v", dec)
	}
}

func TestDecodeRegModAddress(t *testing.T) {
	d := NewRegisterModified(16)
	in, _ := d.Lookup(OpMove)
	// Rx=0x1, Rm=0x2, addr=0x00FF
	dec := Decode(in, []byte{0x12, 0x00, 0xFF})
	if len(dec.Regs) != 2 || dec.Regs[0] != 1 || dec.Regs[1] != 2 {
		t.Errorf("unexpected regs: %+v", dec.Regs)
	}
	if len(dec.Addrs) != 1 || dec.Addrs[0] != 0xFF {
		t.Errorf("unexpected addrs: %+v", dec.Addrs)
	}
}
