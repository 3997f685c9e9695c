/*
   memory: byte-addressable RAM for a model machine.

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

// Package memory implements the two storage variants shared by every model
// machine (spec 4.2): a byte-addressable RAM with a configurable cell size
// and protected/permissive uninitialised-read policy, and a register file
// keyed by name. Unlike the teacher's package-level singleton, both are
// instantiable structs: spec 5 requires every running emulator instance to
// own independent state.
package memory

import (
	"errors"

	"github.com/cmc-go/modelmachine/internal/word"
)

var (
	// ErrUninitialisedRead is returned by Fetch under the protected policy
	// when any touched cell was never written.
	ErrUninitialisedRead = errors.New("memory: uninitialised read")
	// ErrBadAlignment is returned when bits is not a positive multiple of
	// the RAM's cell size.
	ErrBadAlignment = errors.New("memory: width not a multiple of cell size")
)

// RAM is byte-addressable and wraps every effective address modulo
// 2^addressBits (spec 3: "Address space").
type RAM struct {
	cells       []byte
	initialized []bool
	cellBits    int
	addressBits int
	protected   bool
}

// NewRAM constructs a RAM with the given cell width in bits (one of 8, 16,
// 24, 40, 56 per spec's 1/2/3/5/7 byte cells), address width in bits
// (commonly 16), and uninitialised-read policy.
func NewRAM(cellBits, addressBits int, protected bool) *RAM {
	cellBytes := cellBits / 8
	cellCount := 1 << uint(addressBits)
	return &RAM{
		cells:       make([]byte, cellCount*cellBytes),
		initialized: make([]bool, cellCount),
		cellBits:    cellBits,
		addressBits: addressBits,
		protected:   protected,
	}
}

func (m *RAM) wrap(addr uint32) uint32 {
	size := uint32(1) << uint(m.addressBits)
	return addr % size
}

func (m *RAM) cellBytes() int { return m.cellBits / 8 }

// Fetch reads bits/cellBits consecutive cells starting at addr, most
// significant cell first (spec: "big-endian order"), and returns them as a
// single Word of width bits. bits must be a positive multiple of the RAM's
// cell size. Addresses wrap modulo 2^addressBits. Under the protected
// policy, reading any cell never written fails with ErrUninitialisedRead;
// otherwise uninitialised cells read as zero.
func (m *RAM) Fetch(addr uint32, bits int) (word.Word, error) {
	if bits <= 0 || bits%m.cellBits != 0 {
		return word.Word{}, ErrBadAlignment
	}
	nCells := bits / m.cellBits
	var v uint64
	for i := 0; i < nCells; i++ {
		cellIndex := m.wrap(addr + uint32(i))
		if m.protected && !m.initialized[cellIndex] {
			return word.Word{}, ErrUninitialisedRead
		}
		base := int(cellIndex) * m.cellBytes()
		for b := 0; b < m.cellBytes(); b++ {
			v = (v << 8) | uint64(m.cells[base+b])
		}
	}
	return word.New(bits, v)
}

// Store writes word.Width()/cellBits consecutive cells starting at addr,
// marking each touched cell initialised. The word's width must be a
// positive multiple of the RAM's cell size.
func (m *RAM) Store(addr uint32, w word.Word) error {
	bits := w.Width()
	if bits <= 0 || bits%m.cellBits != 0 {
		return ErrBadAlignment
	}
	nCells := bits / m.cellBits
	raw := w.ToBytesBE()
	for i := 0; i < nCells; i++ {
		cellIndex := m.wrap(addr + uint32(i))
		base := int(cellIndex) * m.cellBytes()
		srcBase := i * m.cellBytes()
		copy(m.cells[base:base+m.cellBytes()], raw[srcBase:srcBase+m.cellBytes()])
		m.initialized[cellIndex] = true
	}
	return nil
}

// Size returns the addressable cell count (2^addressBits).
func (m *RAM) Size() int { return len(m.initialized) }

// CellBits reports the configured cell width in bits.
func (m *RAM) CellBits() int { return m.cellBits }

// Peek returns the nCells consecutive cells starting at addr as raw bytes,
// ignoring the protected policy. It exists for the debugger's inspection
// contract (spec 4.7): a snapshot view must be able to show uninitialised
// memory to the user without tripping the guest-visible UninitialisedRead
// error that a normal Fetch would raise.
func (m *RAM) Peek(addr uint32, nCells int) []byte {
	out := make([]byte, 0, nCells*m.cellBytes())
	for i := 0; i < nCells; i++ {
		cellIndex := m.wrap(addr + uint32(i))
		base := int(cellIndex) * m.cellBytes()
		out = append(out, m.cells[base:base+m.cellBytes()]...)
	}
	return out
}
