/*
   assembler: two-pass assembler for the register-with-modification machine.

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
   RICHARD CORNWELL BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
   IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
   CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
*/

// Package assembler implements the .mmasm two-pass assembler for the
// register-with-modification machine (spec 4.8): symbolic mnemonics,
// labels, .word data, and the label(reg) address form. Pass one walks the
// source assigning an address to every label and statement, sized by the
// mnemonic's encoded length (reusing isa.NewRegisterModified's own opcode
// table as the single source of truth for those lengths, the way the
// teacher's emu/assemble keeps one opMap/lenMap pair per format). Pass two
// resolves every reference and emits bytes. Output is a source.Program
// whose Spans/Bindings feed directly into the loader (spec 4.8: "Output is
// a span list plus an output-binding list feeding directly into the
// loader"), following the teacher's emu/assemble single-pass-per-line
// scanning style generalized to two passes for forward label references.
package assembler

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cmc-go/modelmachine/internal/isa"
	"github.com/cmc-go/modelmachine/internal/source"
	"github.com/cmc-go/modelmachine/internal/word"
)

var (
	// ErrUnknownMnemonic is returned for a statement whose mnemonic has no
	// row in the mm-m instruction table.
	ErrUnknownMnemonic = errors.New("assembler: unknown mnemonic")
	// ErrUnknownLabel is returned for a reference to a label never defined.
	ErrUnknownLabel = errors.New("assembler: unknown label")
	// ErrDuplicateLabel is returned when a label is defined twice.
	ErrDuplicateLabel = errors.New("assembler: duplicate label")
	// ErrOperandMismatch is returned when a statement's operands don't match
	// its mnemonic's expected shape.
	ErrOperandMismatch = errors.New("assembler: operand/format mismatch")
	// ErrSyntax is returned for anything else that doesn't parse.
	ErrSyntax = errors.New("assembler: syntax error")
)

// SourceError wraps an assembler error with the 1-based line it came from
// (spec 4.8: "all errors with a source location").
type SourceError struct {
	Line int
	Err  error
}

func (e *SourceError) Error() string { return fmt.Sprintf("line %d: %v", e.Line, e.Err) }
func (e *SourceError) Unwrap() error { return e.Err }

func fail(line int, err error) error { return &SourceError{Line: line, Err: err} }

// item is one pass-one statement, in source order.
type item struct {
	line int
	addr uint32

	kind itemKind
	// code
	mnemonic string
	operands string
	in       isa.Instruction
	// word
	values []int64
}

type itemKind int

const (
	itemCode itemKind = iota
	itemWord
	itemOrg // .config / .code: starts a new span at addr
)

type dumpEntry struct {
	line  int
	label string
	size  int
}

// wordBytes reports how many bytes one mm-m word occupies.
func wordBytes(wordBits int) int { return (wordBits + 7) / 8 }

// Assemble reads one complete .mmasm source from r and produces the
// source.Program the loader consumes directly: Machine is always mm-m,
// WordBits is the caller's chosen register/word width (the .mmasm dialect
// carries no .cpu line of its own), Spans hold the assembled image, and
// Bindings hold the output bindings declared by .dump lines.
func Assemble(r io.Reader, wordBits int) (*source.Program, error) {
	desc := isa.NewRegisterModified(wordBits)
	mnemonics := map[string]isa.Instruction{}
	for _, in := range desc.Instructions {
		mnemonics[in.Mnemonic] = in
	}
	wb := wordBytes(wordBits)

	labels := map[string]uint32{}
	var items []item
	var dumps []dumpEntry

	sc := bufio.NewScanner(r)
	lineNo := 0
	pc := uint32(0)

	for sc.Scan() {
		lineNo++
		raw := stripComment(sc.Text())
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		label, rest, hasLabel := splitLabel(line)
		if hasLabel {
			if _, dup := labels[label]; dup {
				return nil, fail(lineNo, fmt.Errorf("%w: %q", ErrDuplicateLabel, label))
			}
			labels[label] = pc
			rest = strings.TrimSpace(rest)
			if rest == "" {
				continue
			}
		}

		switch {
		case strings.HasPrefix(rest, ".config"):
			n, err := parseUint(strings.TrimSpace(rest[len(".config"):]))
			if err != nil {
				return nil, fail(lineNo, fmt.Errorf("%w: %v", ErrSyntax, err))
			}
			pc = n
			items = append(items, item{line: lineNo, addr: pc, kind: itemOrg})

		case strings.HasPrefix(rest, ".code"):
			pc = 0
			items = append(items, item{line: lineNo, addr: pc, kind: itemOrg})

		case strings.HasPrefix(rest, ".word"):
			vals, err := parseWordList(rest[len(".word"):])
			if err != nil {
				return nil, fail(lineNo, err)
			}
			items = append(items, item{line: lineNo, addr: pc, kind: itemWord, values: vals})
			pc += uint32(len(vals) * wb)

		case strings.HasPrefix(rest, ".dump"):
			entries, err := parseDumpList(rest[len(".dump"):])
			if err != nil {
				return nil, fail(lineNo, err)
			}
			for i := range entries {
				entries[i].line = lineNo
			}
			dumps = append(dumps, entries...)

		default:
			mnem, operands := splitMnemonic(rest)
			in, ok := mnemonics[strings.ToLower(mnem)]
			if !ok {
				return nil, fail(lineNo, fmt.Errorf("%w: %q", ErrUnknownMnemonic, mnem))
			}
			items = append(items, item{
				line: lineNo, addr: pc, kind: itemCode,
				mnemonic: strings.ToLower(mnem), operands: operands, in: in,
			})
			pc += uint32(in.Length())
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	prog := &source.Program{Machine: isa.RegisterModifiedID, WordBits: wordBits}
	var curSpan *source.Span
	flush := func() {
		if curSpan != nil && len(curSpan.Data) > 0 {
			prog.Spans = append(prog.Spans, *curSpan)
		}
		curSpan = nil
	}

	for _, it := range items {
		switch it.kind {
		case itemOrg:
			flush()
			curSpan = &source.Span{Addr: it.addr}
		case itemWord:
			if curSpan == nil {
				curSpan = &source.Span{Addr: it.addr}
			}
			for _, v := range it.values {
				w, err := word.FromSigned(wordBits, v)
				if err != nil {
					return nil, fail(it.line, err)
				}
				curSpan.Data = append(curSpan.Data, w.ToBytesBE()...)
			}
		case itemCode:
			if curSpan == nil {
				curSpan = &source.Span{Addr: it.addr}
			}
			enc, err := encode(it, labels, wordBits)
			if err != nil {
				return nil, fail(it.line, err)
			}
			curSpan.Data = append(curSpan.Data, enc...)
		}
	}
	flush()

	// Every entry of one .dump line goes into a single output binding, so
	// the line's values print together on one output line.
	lastLine := -1
	for _, d := range dumps {
		addr, ok := labels[d.label]
		if !ok {
			return nil, fail(d.line, fmt.Errorf("%w: %q", ErrUnknownLabel, d.label))
		}
		if d.line != lastLine {
			prog.Bindings = append(prog.Bindings, source.Binding{Kind: source.BindingOutput})
			lastLine = d.line
		}
		b := &prog.Bindings[len(prog.Bindings)-1]
		for i := 0; i < d.size; i++ {
			b.Addrs = append(b.Addrs, addr+uint32(i*wb))
		}
		b.Count = len(b.Addrs)
	}

	return prog, nil
}

func stripComment(line string) string {
	if i := strings.IndexByte(line, ';'); i >= 0 {
		return line[:i]
	}
	return line
}

// splitLabel splits a leading "label:" off line, if present.
func splitLabel(line string) (label, rest string, ok bool) {
	i := strings.IndexByte(line, ':')
	if i < 0 {
		return "", line, false
	}
	candidate := strings.TrimSpace(line[:i])
	if candidate == "" || strings.ContainsAny(candidate, " \t") {
		return "", line, false
	}
	return candidate, line[i+1:], true
}

func splitMnemonic(s string) (mnemonic, operands string) {
	s = strings.TrimSpace(s)
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i+1:])
}

func parseUint(s string) (uint32, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

func parseInt(s string) (int64, error) {
	s = strings.TrimSpace(s)
	neg := false
	if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	var v uint64
	var err error
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err = strconv.ParseUint(s[2:], 16, 64)
	} else {
		v, err = strconv.ParseUint(s, 10, 64)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrSyntax, s)
	}
	if neg {
		return -int64(v), nil
	}
	return int64(v), nil
}

func parseWordList(s string) ([]int64, error) {
	var out []int64
	for _, tok := range strings.Split(s, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		v, err := parseInt(tok)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: .word needs at least one value", ErrSyntax)
	}
	return out, nil
}

func parseDumpList(s string) ([]dumpEntry, error) {
	var out []dumpEntry
	for _, tok := range strings.Split(s, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		label := tok
		size := 1
		if i := strings.IndexByte(tok, '('); i >= 0 {
			if !strings.HasSuffix(tok, ")") {
				return nil, fmt.Errorf("%w: bad .dump entry %q", ErrSyntax, tok)
			}
			label = strings.TrimSpace(tok[:i])
			n, err := parseInt(tok[i+1 : len(tok)-1])
			if err != nil || n <= 0 {
				return nil, fmt.Errorf("%w: bad .dump size %q", ErrSyntax, tok)
			}
			size = int(n)
		}
		out = append(out, dumpEntry{label: label, size: size})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: .dump needs at least one label", ErrSyntax)
	}
	return out, nil
}

// regIndex parses "R0".."RF" (case-insensitive) into 0..15.
func regIndex(tok string) (int, bool) {
	tok = strings.TrimSpace(tok)
	if len(tok) < 2 || (tok[0] != 'R' && tok[0] != 'r') {
		return 0, false
	}
	n, err := strconv.ParseInt(tok[1:], 16, 16)
	if err != nil || n < 0 || n > 15 {
		return 0, false
	}
	return int(n), true
}

// memOperand parses a bare label or a "label(Rn)" address form (spec 4.8)
// into its resolved 16-bit address and modifier register index (0 when no
// "(Rn)" suffix is present, meaning an unmodified reference).
func memOperand(tok string, labels map[string]uint32) (addr uint32, modReg int, err error) {
	tok = strings.TrimSpace(tok)
	label := tok
	if i := strings.IndexByte(tok, '('); i >= 0 {
		if !strings.HasSuffix(tok, ")") {
			return 0, 0, fmt.Errorf("%w: bad operand %q", ErrSyntax, tok)
		}
		label = strings.TrimSpace(tok[:i])
		regTok := strings.TrimSpace(tok[i+1 : len(tok)-1])
		r, ok := regIndex(regTok)
		if !ok {
			return 0, 0, fmt.Errorf("%w: bad modifier register %q", ErrOperandMismatch, regTok)
		}
		modReg = r
	}
	a, ok := labels[label]
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrUnknownLabel, label)
	}
	return a, modReg, nil
}

// encode emits the bytes for one code item, resolving its operands against
// labels. The operand shapes mirror isa's per-Kind layout exactly (spec
// 4.8 pass two: "resolving each label reference and each label(reg) to the
// opcode's modifier nibble + 16-bit displacement").
func encode(it item, labels map[string]uint32, wordBits int) ([]byte, error) {
	parts := splitOperands(it.operands)

	switch it.in.Kind {
	case isa.KindHalt:
		return []byte{it.in.Opcode}, nil

	case isa.KindArithmetic, isa.KindSwap, isa.KindCmp:
		if len(parts) != 2 {
			return nil, fmt.Errorf("%w: %s needs two register operands", ErrOperandMismatch, it.mnemonic)
		}
		rx, ok1 := regIndex(parts[0])
		ry, ok2 := regIndex(parts[1])
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("%w: %s operands must be registers", ErrOperandMismatch, it.mnemonic)
		}
		return []byte{it.in.Opcode, byte(rx<<4 | ry)}, nil

	case isa.KindMove:
		if len(parts) != 2 {
			return nil, fmt.Errorf("%w: %s needs a register and a memory operand", ErrOperandMismatch, it.mnemonic)
		}
		rx, ok := regIndex(parts[0])
		if !ok {
			return nil, fmt.Errorf("%w: %s first operand must be a register", ErrOperandMismatch, it.mnemonic)
		}
		addr, modReg, err := memOperand(parts[1], labels)
		if err != nil {
			return nil, err
		}
		return []byte{it.in.Opcode, byte(rx<<4 | modReg), byte(addr >> 8), byte(addr)}, nil

	case isa.KindJump, isa.KindCondJump:
		if len(parts) != 1 {
			return nil, fmt.Errorf("%w: %s needs one memory operand", ErrOperandMismatch, it.mnemonic)
		}
		addr, modReg, err := memOperand(parts[0], labels)
		if err != nil {
			return nil, err
		}
		return []byte{it.in.Opcode, byte(modReg << 4), byte(addr >> 8), byte(addr)}, nil
	}
	return nil, fmt.Errorf("%w: %s has no known encoding", ErrOperandMismatch, it.mnemonic)
}

func splitOperands(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	fields := strings.Split(s, ",")
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = strings.TrimSpace(f)
	}
	return out
}
