package word

import "testing"

func TestRoundTripBytes(t *testing.T) {
	widths := []int{8, 16, 24, 32, 40}
	for _, w := range widths {
		v, err := New(w, 0x12345678)
		if err != nil {
			t.Fatalf("New(%d): %v", w, err)
		}
		b := v.ToBytesBE()
		back, err := FromBytesBE(w, b)
		if err != nil {
			t.Fatalf("FromBytesBE: %v", err)
		}
		if eq, _ := v.Eq(back); !eq {
			t.Errorf("width %d: round trip mismatch got %v want %v", w, back, v)
		}
	}
}

func TestAddSubInverse(t *testing.T) {
	a, _ := New(16, 12345)
	b, _ := New(16, 6789)
	sum, _, _, err := a.Add(b)
	if err != nil {
		t.Fatal(err)
	}
	back, _, _, err := sum.Sub(b)
	if err != nil {
		t.Fatal(err)
	}
	if eq, _ := back.Eq(a); !eq {
		t.Errorf("sub(add(a,b),b) = %v, want %v", back, a)
	}
}

func TestDivModSignedIdentity(t *testing.T) {
	cases := []struct{ a, b int64 }{
		{100, 7}, {-100, 7}, {100, -7}, {-100, -7}, {7, 100}, {-7, 100},
	}
	for _, c := range cases {
		a, _ := FromSigned(16, c.a)
		b, _ := FromSigned(16, c.b)
		q, r, err := a.DivModSigned(b)
		if err != nil {
			t.Fatalf("DivModSigned(%d,%d): %v", c.a, c.b, err)
		}
		bq, _, _ := b.SMul(q)
		sum, _, _, _ := bq.Add(r)
		if eq, _ := sum.Eq(a); !eq {
			t.Errorf("b*q+r = %v, want %v (a=%d b=%d q=%d r=%d)", sum, a, c.a, c.b, q.AsSigned(), r.AsSigned())
		}
		if r.AsSigned() != 0 {
			if (r.AsSigned() < 0) != (c.a < 0) {
				t.Errorf("sign(r) must match sign(a): a=%d r=%d", c.a, r.AsSigned())
			}
		}
		absR := r.AsSigned()
		if absR < 0 {
			absR = -absR
		}
		absB := c.b
		if absB < 0 {
			absB = -absB
		}
		if absR >= absB {
			t.Errorf("|r| must be < |b|: r=%d b=%d", r.AsSigned(), c.b)
		}
	}
}

func TestDivisionByZero(t *testing.T) {
	a, _ := FromSigned(16, 10)
	zero, _ := FromSigned(16, 0)
	if _, _, err := a.DivModSigned(zero); err != ErrDivisionByZero {
		t.Errorf("expected ErrDivisionByZero, got %v", err)
	}
	if _, _, err := a.DivModUnsigned(zero); err != ErrDivisionByZero {
		t.Errorf("expected ErrDivisionByZero, got %v", err)
	}
}

func TestSignedOverflowDivide(t *testing.T) {
	minVal, _ := FromSigned(8, -128)
	negOne, _ := FromSigned(8, -1)
	if _, _, err := minVal.DivModSigned(negOne); err != ErrSignedOverflow {
		t.Errorf("expected ErrSignedOverflow, got %v", err)
	}
}

func TestCmpSignedUnsigned(t *testing.T) {
	a, _ := FromSigned(8, -1) // 0xFF
	b, _ := FromSigned(8, 1)
	if c, _ := a.CmpSigned(b); c >= 0 {
		t.Errorf("signed: -1 should be < 1, got cmp=%d", c)
	}
	if c, _ := a.CmpUnsigned(b); c <= 0 {
		t.Errorf("unsigned: 0xFF should be > 1, got cmp=%d", c)
	}
}

func TestAddOverflowFlag(t *testing.T) {
	maxPos, _ := FromSigned(8, 127)
	one, _ := FromSigned(8, 1)
	_, _, overflow, _ := maxPos.Add(one)
	if !overflow {
		t.Error("expected signed overflow adding 127+1 in 8 bits")
	}
}

func TestWidthMismatch(t *testing.T) {
	a, _ := New(8, 1)
	b, _ := New(16, 1)
	if _, _, _, err := a.Add(b); err != ErrWidthMismatch {
		t.Errorf("expected ErrWidthMismatch, got %v", err)
	}
}
