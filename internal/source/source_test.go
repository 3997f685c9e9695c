package source

import (
	"strings"
	"testing"

	"github.com/cmc-go/modelmachine/internal/isa"
)

func TestParseSimpleProgram(t *testing.T) {
	text := `
; comment
.cpu mm-3
.input 0x6
.output 0x7
.enter 6
.code
01000000 02000006 03000007
99000000
`
	prog, err := Parse(strings.NewReader(text))
	if err != nil {
		t.Fatal(err)
	}
	if prog.Machine != isa.ThreeAddress {
		t.Errorf("expected mm-3, got %s", prog.Machine)
	}
	if len(prog.Bindings) != 2 {
		t.Fatalf("expected 2 bindings, got %d", len(prog.Bindings))
	}
	if prog.Bindings[0].Kind != BindingInput || prog.Bindings[0].Addrs[0] != 0x6 {
		t.Errorf("unexpected input binding: %+v", prog.Bindings[0])
	}
	if prog.Bindings[1].Kind != BindingOutput || prog.Bindings[1].Addrs[0] != 0x7 {
		t.Errorf("unexpected output binding: %+v", prog.Bindings[1])
	}
	if len(prog.Enter) != 1 || prog.Enter[0] != 6 {
		t.Errorf("unexpected enter: %+v", prog.Enter)
	}
	if len(prog.Spans) != 1 || prog.Spans[0].Addr != 0 {
		t.Fatalf("unexpected spans: %+v", prog.Spans)
	}
	if len(prog.Spans[0].Data) != 4*4 {
		t.Errorf("expected 16 bytes of code, got %d", len(prog.Spans[0].Data))
	}
}

func TestParseUnknownCpu(t *testing.T) {
	_, err := Parse(strings.NewReader(".cpu mm-9\n"))
	if err == nil {
		t.Fatal("expected an error")
	}
}

func TestParseMissingCpu(t *testing.T) {
	_, err := Parse(strings.NewReader(".input 0x1\n"))
	if err == nil {
		t.Fatal("expected an error")
	}
}

func TestParseIncompleteWord(t *testing.T) {
	text := ".cpu mm-3\n.code\n0102\n"
	_, err := Parse(strings.NewReader(text))
	if err == nil {
		t.Fatal("expected incomplete-word syntax error")
	}
}

func TestParseOverlappingSpans(t *testing.T) {
	text := `.cpu mm-3
.code 0
01000000
.code 2
02000000
`
	_, err := Parse(strings.NewReader(text))
	if err == nil {
		t.Fatal("expected overlap error")
	}
}

func TestParseMultiAddressInputWithPrompt(t *testing.T) {
	text := ".cpu mm-3\n.input 0x10, 0x11 enter two numbers\n.code\n99000000\n"
	prog, err := Parse(strings.NewReader(text))
	if err != nil {
		t.Fatal(err)
	}
	b := prog.Bindings[0]
	if len(b.Addrs) != 2 || b.Addrs[0] != 0x10 || b.Addrs[1] != 0x11 {
		t.Fatalf("unexpected addrs: %+v", b.Addrs)
	}
	if b.Prompt != "enter two numbers" {
		t.Errorf("unexpected prompt: %q", b.Prompt)
	}
}

func TestParseAddressLessStackInputIsACount(t *testing.T) {
	text := ".cpu mm-0\n.input 2\n.code\n99000000\n"
	prog, err := Parse(strings.NewReader(text))
	if err != nil {
		t.Fatal(err)
	}
	if prog.Bindings[0].Count != 2 || len(prog.Bindings[0].Addrs) != 0 {
		t.Errorf("unexpected mm-0 binding: %+v", prog.Bindings[0])
	}
}

func TestParseNumberGrammar(t *testing.T) {
	cases := map[string]int64{
		"123":   123,
		"-123":  -123,
		"+5":    5,
		"0x10":  16,
		"-0x10": -16,
	}
	for tok, want := range cases {
		got, err := ParseNumber(tok)
		if err != nil {
			t.Errorf("%q: %v", tok, err)
			continue
		}
		if got != want {
			t.Errorf("%q: got %d, want %d", tok, got, want)
		}
	}
}
