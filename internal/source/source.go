/*
   source: .mmach text format tokenizer/parser.

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

// Package source tokenizes and parses the .mmach text format (spec 6): a
// line-oriented description of a program for one of the eight model
// machines, producing exactly the data the loader needs (spec 1: "The
// tokenizer/parser for the source-text format is... specified only by the
// data it must produce"). The scanning style — strip comments, split on
// whitespace, scan hex/decimal tokens by hand — follows the teacher's
// emu/assemble line-scanning helpers (getHex, getNumber, skipSpace).
package source

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cmc-go/modelmachine/internal/isa"
)

var (
	// ErrUnknownCpu is returned when a .cpu directive names an id not in
	// {mm-3, mm-2, mm-v, mm-1, mm-s, mm-0, mm-r, mm-m}.
	ErrUnknownCpu = errors.New("source: unknown .cpu id")
	// ErrSyntax is returned for any line that does not match the format.
	// Parse wraps it with the 1-based line number where a line is at fault;
	// a missing .cpu directive and ParseNumber's own errors carry none.
	ErrSyntax = errors.New("source: syntax error")
	// ErrOverlappingSpans is returned when two .code sections cover a
	// shared address after expansion.
	ErrOverlappingSpans = errors.New("source: overlapping .code spans")
)

// DefaultWordBits is the arithmetic word width used when a .cpu line does
// not carry an explicit override. It is wide enough to hold every literal
// in spec.md's end-to-end scenarios (the largest, 178929, needs 18 bits)
// while staying a convenient byte multiple.
const DefaultWordBits = 32

// BindingKind distinguishes an input binding (consumed before execution)
// from an output binding (emitted after a normal halt).
type BindingKind int

const (
	BindingInput BindingKind = iota
	BindingOutput
)

// Binding is one entry of the I/O binding table (spec 3/4.6). Addrs holds
// the memory addresses named by the directive, in declaration order; for
// the address-less stack machine Addrs is empty and Count is the number of
// stack slots the binding covers instead.
type Binding struct {
	Kind   BindingKind
	Addrs  []uint32
	Count  int
	Prompt string
}

// Span is one non-overlapping, disjoint chunk of the program image.
type Span struct {
	Addr uint32
	Data []byte
}

// Program is everything the loader needs: the target machine, its word
// width, the image spans, the I/O binding table, and an optional inline
// .enter list (spec 4.6: "Input: parser output =
// (machine_id, spans[], bindings[], inline_enter?)").
type Program struct {
	Machine  isa.MachineID
	WordBits int
	Spans    []Span
	Enter    []int64
	Bindings []Binding
}

// ParseNumber implements the numeric input grammar of spec 6: an optional
// sign, then either decimal digits or "0x" + hex digits. It does not apply
// any width check; callers that bind a parsed number to a machine word are
// responsible for that (spec 4.6's NumberOutOfRange).
func ParseNumber(tok string) (int64, error) {
	s := tok
	neg := false
	if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	if s == "" {
		return 0, fmt.Errorf("%w: empty number", ErrSyntax)
	}
	var v uint64
	var err error
	if len(s) > 2 && (s[0:2] == "0x" || s[0:2] == "0X") {
		v, err = strconv.ParseUint(s[2:], 16, 64)
	} else {
		v, err = strconv.ParseUint(s, 10, 64)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrSyntax, tok, err)
	}
	if neg {
		return -int64(v), nil
	}
	return int64(v), nil
}

// parseAddr accepts the same forms as ParseNumber but as an unsigned
// 16-bit-ish address (no sign).
func parseAddr(tok string) (uint32, error) {
	n, err := ParseNumber(tok)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: bad address %q", ErrSyntax, tok)
	}
	return uint32(n), nil
}

func stripComment(line string) string {
	if i := strings.IndexByte(line, ';'); i >= 0 {
		return line[:i]
	}
	return line
}

// splitAddrList splits "a, b,c" into ["a","b","c"], trimming whitespace, and
// stops at the first token that doesn't parse as a number (the remainder,
// including that token's raw text, is returned as tail for a prompt or
// message string).
func splitAddrList(rest string) (addrs []string, tail string) {
	for {
		rest = strings.TrimLeft(rest, " \t")
		if rest == "" {
			return addrs, ""
		}
		end := strings.IndexAny(rest, ", \t")
		var tok string
		if end < 0 {
			tok = rest
			rest = ""
		} else {
			tok = rest[:end]
		}
		if _, err := ParseNumber(tok); err != nil {
			return addrs, rest
		}
		addrs = append(addrs, tok)
		if end < 0 {
			return addrs, ""
		}
		rest = rest[end:]
		rest = strings.TrimLeft(rest, " \t")
		if strings.HasPrefix(rest, ",") {
			rest = rest[1:]
			continue
		}
		return addrs, rest
	}
}

// Parse reads one complete .mmach program from r (spec 6).
func Parse(r io.Reader) (*Program, error) {
	sc := bufio.NewScanner(r)
	prog := &Program{WordBits: DefaultWordBits}

	lineNo := 0
	var curSpan *Span
	sawCpu := false

	flushSpan := func() {
		if curSpan != nil {
			prog.Spans = append(prog.Spans, *curSpan)
			curSpan = nil
		}
	}

	for sc.Scan() {
		lineNo++
		raw := stripComment(sc.Text())
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if !sawCpu {
			if !strings.HasPrefix(line, ".cpu") {
				return nil, fmt.Errorf("%w: line %d: expected .cpu directive", ErrSyntax, lineNo)
			}
			fields := strings.Fields(line)
			if len(fields) < 2 {
				return nil, fmt.Errorf("%w: line %d: .cpu needs a machine id", ErrSyntax, lineNo)
			}
			id := isa.MachineID(fields[1])
			switch id {
			case isa.ThreeAddress, isa.TwoAddress, isa.VariableLength, isa.OneAddress,
				isa.Stack, isa.AddressLessStack, isa.Register, isa.RegisterModifiedID:
				prog.Machine = id
			default:
				return nil, fmt.Errorf("%w: line %d: %q", ErrUnknownCpu, lineNo, fields[1])
			}
			if len(fields) >= 3 {
				n, err := strconv.Atoi(fields[2])
				if err != nil || n <= 0 {
					return nil, fmt.Errorf("%w: line %d: bad word width %q", ErrSyntax, lineNo, fields[2])
				}
				prog.WordBits = n
			}
			sawCpu = true
			continue
		}

		switch {
		case strings.HasPrefix(line, ".input"), strings.HasPrefix(line, ".output"):
			isInput := strings.HasPrefix(line, ".input")
			rest := strings.TrimSpace(line[len(".input"):])
			if !isInput {
				rest = strings.TrimSpace(line[len(".output"):])
			}
			b := Binding{Kind: BindingOutput}
			if isInput {
				b.Kind = BindingInput
			}
			if prog.Machine == isa.AddressLessStack {
				fields := strings.Fields(rest)
				if len(fields) == 0 {
					return nil, fmt.Errorf("%w: line %d: missing stack-slot count", ErrSyntax, lineNo)
				}
				n, err := ParseNumber(fields[0])
				if err != nil || n <= 0 {
					return nil, fmt.Errorf("%w: line %d: bad stack-slot count", ErrSyntax, lineNo)
				}
				b.Count = int(n)
				b.Prompt = strings.TrimSpace(strings.Join(fields[1:], " "))
			} else {
				toks, tail := splitAddrList(rest)
				if len(toks) == 0 {
					return nil, fmt.Errorf("%w: line %d: missing address", ErrSyntax, lineNo)
				}
				for _, t := range toks {
					a, err := parseAddr(t)
					if err != nil {
						return nil, fmt.Errorf("%w: line %d: %v", ErrSyntax, lineNo, err)
					}
					b.Addrs = append(b.Addrs, a)
				}
				b.Count = len(b.Addrs)
				b.Prompt = strings.TrimSpace(tail)
			}
			prog.Bindings = append(prog.Bindings, b)

		case strings.HasPrefix(line, ".enter"):
			fields := strings.Fields(line[len(".enter"):])
			for _, f := range fields {
				n, err := ParseNumber(f)
				if err != nil {
					return nil, fmt.Errorf("%w: line %d: %v", ErrSyntax, lineNo, err)
				}
				prog.Enter = append(prog.Enter, n)
			}

		case strings.HasPrefix(line, ".code"):
			flushSpan()
			rest := strings.TrimSpace(line[len(".code"):])
			addr := uint32(0)
			if rest != "" {
				a, err := parseAddr(rest)
				if err != nil {
					return nil, fmt.Errorf("%w: line %d: %v", ErrSyntax, lineNo, err)
				}
				addr = a
			}
			curSpan = &Span{Addr: addr}

		default:
			if curSpan == nil {
				return nil, fmt.Errorf("%w: line %d: data outside a .code section", ErrSyntax, lineNo)
			}
			digits := strings.Join(strings.Fields(line), "")
			hexPerWord := prog.WordBits / 4
			if hexPerWord == 0 || len(digits)%hexPerWord != 0 {
				return nil, fmt.Errorf("%w: line %d: incomplete word (%d hex digits, need a multiple of %d)", ErrSyntax, lineNo, len(digits), hexPerWord)
			}
			raw, err := decodeHexWords(digits)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrSyntax, lineNo, err)
			}
			curSpan.Data = append(curSpan.Data, raw...)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	flushSpan()

	if !sawCpu {
		return nil, fmt.Errorf("%w: missing .cpu directive", ErrSyntax)
	}
	if err := checkOverlap(prog.Spans); err != nil {
		return nil, err
	}
	return prog, nil
}

func decodeHexWords(digits string) ([]byte, error) {
	if len(digits)%2 != 0 {
		digits = "0" + digits
	}
	out := make([]byte, len(digits)/2)
	for i := 0; i < len(out); i++ {
		b, err := strconv.ParseUint(digits[2*i:2*i+2], 16, 8)
		if err != nil {
			return nil, err
		}
		out[i] = byte(b)
	}
	return out, nil
}

// Write renders prog back into the .mmach text dialect Parse reads, hex
// digits grouped WordBits/4 per line inside a .code section per span, so
// the assembler's output (spec 4.8) can be fed straight back into run or
// debug through the same front door as a hand-written program.
func Write(w io.Writer, prog *Program) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, ".cpu %s %d\n", prog.Machine, prog.WordBits)

	for _, b := range prog.Bindings {
		directive := ".input"
		if b.Kind == BindingOutput {
			directive = ".output"
		}
		if prog.Machine == isa.AddressLessStack {
			fmt.Fprintf(bw, "%s %d %s\n", directive, b.Count, b.Prompt)
			continue
		}
		addrs := make([]string, len(b.Addrs))
		for i, a := range b.Addrs {
			addrs[i] = fmt.Sprintf("0x%x", a)
		}
		fmt.Fprintf(bw, "%s %s %s\n", directive, strings.Join(addrs, ", "), b.Prompt)
	}

	if len(prog.Enter) > 0 {
		nums := make([]string, len(prog.Enter))
		for i, n := range prog.Enter {
			nums[i] = strconv.FormatInt(n, 10)
		}
		fmt.Fprintf(bw, ".enter %s\n", strings.Join(nums, " "))
	}

	hexPerWord := prog.WordBits / 4
	if hexPerWord == 0 {
		hexPerWord = 2
	}
	for _, span := range prog.Spans {
		fmt.Fprintf(bw, ".code 0x%x\n", span.Addr)
		digits := make([]byte, 0, len(span.Data)*2)
		for _, b := range span.Data {
			digits = append(digits, []byte(fmt.Sprintf("%02x", b))...)
		}
		// Parse requires each line's digit count to be a multiple of
		// hexPerWord; the assembler's variable-length mm-m instructions
		// rarely fill a whole word, so pad the tail with zero digits.
		// Those extra cells sit past every span's own halt and are never
		// fetched.
		if rem := len(digits) % hexPerWord; rem != 0 {
			digits = append(digits, bytes.Repeat([]byte{'0'}, hexPerWord-rem)...)
		}
		for i := 0; i < len(digits); i += hexPerWord {
			fmt.Fprintln(bw, string(digits[i:i+hexPerWord]))
		}
	}

	return bw.Flush()
}

func checkOverlap(spans []Span) error {
	type rng struct{ lo, hi uint32 }
	var ranges []rng
	for _, s := range spans {
		if len(s.Data) == 0 {
			continue
		}
		ranges = append(ranges, rng{s.Addr, s.Addr + uint32(len(s.Data)) - 1})
	}
	for i := 0; i < len(ranges); i++ {
		for j := i + 1; j < len(ranges); j++ {
			if ranges[i].lo <= ranges[j].hi && ranges[j].lo <= ranges[i].hi {
				return ErrOverlappingSpans
			}
		}
	}
	return nil
}
