/*
   word: fixed-width two's-complement integers.

   Copyright (c) 2024, Richard Cornwell
   Copyright (c) 2026, the modelmachine contributors

   Permission is hereby granted, free of charge, to any person obtaining a
   copy of this software and associated documentation files (the "Software"),
   to deal in the Software without restriction, including without limitation
   the rights to use, copy, modify, merge, publish, distribute, sublicense,
   and/or sell copies of the Software, and to permit persons to whom the
   Software is furnished to do so, subject to the following conditions:

   The above copyright notice and this permission notice shall be included in
   all copies or substantial portions of the Software.

   THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
   IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
   FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.  IN NO EVENT SHALL
   ROBERT M SUPNIK BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
   IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
   CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
*/

// Package word implements the fixed-width, two's-complement arithmetic
// shared by every model machine: a value of a declared bit width 1..64,
// with modular wraparound, overflow detection and a big-endian byte form.
package word

import (
	"errors"
	"math/bits"
)

var (
	// ErrDivisionByZero is returned by the div/divmod family when the divisor is zero.
	ErrDivisionByZero = errors.New("word: division by zero")
	// ErrSignedOverflow is returned by signed division when the quotient cannot
	// be represented (minimum value divided by -1).
	ErrSignedOverflow = errors.New("word: signed division overflow")
	// ErrWidthMismatch is returned by any binary operator given two words of
	// different widths.
	ErrWidthMismatch = errors.New("word: operand width mismatch")
	// ErrBadWidth is returned when a width outside [1, 64] is requested.
	ErrBadWidth = errors.New("word: width must be in [1, 64]")
)

// Word is an unsigned bit pattern of a declared width. It carries no
// signedness of its own; callers choose signed or unsigned interpretation
// per operation (spec: "carries no signedness; interpretation is chosen per
// operation").
type Word struct {
	bits  uint64
	width int
}

// maskFor returns the bitmask covering the low w bits (w in [1, 64]).
func maskFor(w int) uint64 {
	if w >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(w)) - 1
}

// New constructs a Word of width bits from an unsigned 64-bit pattern,
// truncating to width. Width must be in [1, 64].
func New(width int, bits uint64) (Word, error) {
	if width < 1 || width > 64 {
		return Word{}, ErrBadWidth
	}
	return Word{bits: bits & maskFor(width), width: width}, nil
}

// MustNew is New but panics on a bad width; used for compile-time-known
// widths (machine configuration constants), never on guest-derived input.
func MustNew(width int, b uint64) Word {
	w, err := New(width, b)
	if err != nil {
		panic(err)
	}
	return w
}

// FromSigned builds a Word of the given width from a signed interpretation,
// wrapping modulo 2^width.
func FromSigned(width int, v int64) (Word, error) {
	return New(width, uint64(v))
}

// FromUnsigned builds a Word of the given width from an unsigned value,
// truncating modulo 2^width.
func FromUnsigned(width int, v uint64) (Word, error) {
	return New(width, v)
}

// Width reports the declared bit width.
func (w Word) Width() int { return w.width }

// AsUnsigned returns the value in [0, 2^width).
func (w Word) AsUnsigned() uint64 { return w.bits }

// AsSigned returns the value in [-2^(width-1), 2^(width-1)).
func (w Word) AsSigned() int64 {
	sign := uint64(1) << uint(w.width-1)
	if w.bits&sign != 0 {
		return int64(w.bits) - int64(maskFor(w.width)) - 1
	}
	return int64(w.bits)
}

// Eq is bitwise equality; both operands must share a width.
func (w Word) Eq(o Word) (bool, error) {
	if w.width != o.width {
		return false, ErrWidthMismatch
	}
	return w.bits == o.bits, nil
}

func (w Word) isNegative() bool {
	sign := uint64(1) << uint(w.width-1)
	return w.bits&sign != 0
}

// Add computes (w + o) mod 2^width. overflow reports signed overflow;
// carry reports unsigned overflow (spec 4.1/3: "the overflow flag is set
// when the signed interpretation overflows").
func (w Word) Add(o Word) (result Word, carry, overflow bool, err error) {
	if w.width != o.width {
		return Word{}, false, false, ErrWidthMismatch
	}
	sum := w.bits + o.bits
	carry = sum > maskFor(w.width)
	res := sum & maskFor(w.width)
	result = Word{bits: res, width: w.width}
	overflow = w.isNegative() == o.isNegative() && result.isNegative() != w.isNegative()
	return result, carry, overflow, nil
}

// Sub computes (w - o) mod 2^width. carry is the unsigned borrow (set when
// w < o unsigned) and overflow is signed overflow, the standard
// "subtraction sets carry/overflow" rule used by cmp/jump predicates
// (spec 4.1).
func (w Word) Sub(o Word) (result Word, carry, overflow bool, err error) {
	if w.width != o.width {
		return Word{}, false, false, ErrWidthMismatch
	}
	borrow := w.bits < o.bits
	diff := (w.bits - o.bits) & maskFor(w.width)
	result = Word{bits: diff, width: w.width}
	carry = borrow // borrow <=> carry set, so ujl (C) <=> a<b unsigned
	overflow = w.isNegative() != o.isNegative() && result.isNegative() != w.isNegative()
	return result, carry, overflow, nil
}

// Neg computes the two's-complement negation.
func (w Word) Neg() (Word, bool) {
	zero := Word{width: w.width}
	res, _, overflow, _ := zero.Sub(w)
	return res, overflow
}

// SMul computes the signed product truncated to width; overflow is set when
// the true product does not fit in width bits signed.
func (w Word) SMul(o Word) (result Word, overflow bool, err error) {
	if w.width != o.width {
		return Word{}, false, ErrWidthMismatch
	}
	full := w.AsSigned() * o.AsSigned()
	res := Word{bits: uint64(full) & maskFor(w.width), width: w.width}
	overflow = res.AsSigned() != full
	return res, overflow, nil
}

// UMul computes the unsigned product truncated to width; overflow is set
// when the true product does not fit in width bits unsigned.
func (w Word) UMul(o Word) (result Word, overflow bool, err error) {
	if w.width != o.width {
		return Word{}, false, ErrWidthMismatch
	}
	hi, lo := bits.Mul64(w.bits, o.bits)
	res := lo & maskFor(w.width)
	overflow = hi != 0 || (lo&^maskFor(w.width)) != 0
	return Word{bits: res, width: w.width}, overflow, nil
}

// DivModSigned implements truncated division toward zero: q = trunc(a/b),
// r = a - b*q. Division by zero and the MinInt/-1 overflow case are errors
// (spec 4.1).
func (w Word) DivModSigned(o Word) (q, r Word, err error) {
	if w.width != o.width {
		return Word{}, Word{}, ErrWidthMismatch
	}
	a, b := w.AsSigned(), o.AsSigned()
	if b == 0 {
		return Word{}, Word{}, ErrDivisionByZero
	}
	minVal := -(int64(1) << uint(w.width-1))
	if a == minVal && b == -1 {
		return Word{}, Word{}, ErrSignedOverflow
	}
	quot := a / b
	rem := a - b*quot
	qw, _ := FromSigned(w.width, quot)
	rw, _ := FromSigned(w.width, rem)
	return qw, rw, nil
}

// DivModUnsigned implements unsigned truncated division.
func (w Word) DivModUnsigned(o Word) (q, r Word, err error) {
	if w.width != o.width {
		return Word{}, Word{}, ErrWidthMismatch
	}
	if o.bits == 0 {
		return Word{}, Word{}, ErrDivisionByZero
	}
	quot := w.bits / o.bits
	rem := w.bits % o.bits
	qw, _ := New(w.width, quot)
	rw, _ := New(w.width, rem)
	return qw, rw, nil
}

// CmpSigned returns -1, 0, 1 comparing the signed interpretations.
func (w Word) CmpSigned(o Word) (int, error) {
	if w.width != o.width {
		return 0, ErrWidthMismatch
	}
	a, b := w.AsSigned(), o.AsSigned()
	switch {
	case a < b:
		return -1, nil
	case a > b:
		return 1, nil
	default:
		return 0, nil
	}
}

// CmpUnsigned returns -1, 0, 1 comparing the unsigned interpretations.
func (w Word) CmpUnsigned(o Word) (int, error) {
	if w.width != o.width {
		return 0, ErrWidthMismatch
	}
	switch {
	case w.bits < o.bits:
		return -1, nil
	case w.bits > o.bits:
		return 1, nil
	default:
		return 0, nil
	}
}

// ToBytesBE serializes the word as a fixed-length big-endian byte slice,
// len = ceil(width/8).
func (w Word) ToBytesBE() []byte {
	n := (w.width + 7) / 8
	out := make([]byte, n)
	v := w.bits
	for i := n - 1; i >= 0; i-- {
		out[i] = byte(v)
		v >>= 8
	}
	return out
}

// FromBytesBE parses a big-endian byte slice into a Word of the given bit
// width; extra high bits in the first byte beyond width are ignored.
func FromBytesBE(width int, b []byte) (Word, error) {
	if width < 1 || width > 64 {
		return Word{}, ErrBadWidth
	}
	var v uint64
	for _, by := range b {
		v = (v << 8) | uint64(by)
	}
	return New(width, v)
}
