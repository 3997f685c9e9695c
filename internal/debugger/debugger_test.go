package debugger

import (
	"strings"
	"testing"

	"github.com/cmc-go/modelmachine/internal/engine"
	"github.com/cmc-go/modelmachine/internal/loader"
	"github.com/cmc-go/modelmachine/internal/source"
)

func mustParse(t *testing.T, text string) *source.Program {
	t.Helper()
	prog, err := source.Parse(strings.NewReader(text))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return prog
}

// TestStepAdvancesOneInstructionAtATime exercises spec.md §4.7's "step"
// operation: each call executes exactly one instruction and leaves the
// engine ready for the next.
func TestStepAdvancesOneInstructionAtATime(t *testing.T) {
	text := `.cpu mm-3 16
.input 0x10, 0x12
.output 0x14
.enter 3 4
.code
0100100012001499
`
	dbg, err := New(mustParse(t, text), loader.Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if reason, err := dbg.Step(); reason != engine.StopNone || err != nil {
		t.Fatalf("first step: reason=%v err=%v", reason, err)
	}
	if got := dbg.ReadState().PC; got != 7 {
		t.Fatalf("PC after one add = %d, want 7", got)
	}

	reason, err := dbg.Step()
	if reason != engine.StopHalt || err != nil {
		t.Fatalf("second step: reason=%v err=%v", reason, err)
	}
	if !dbg.ReadState().Halted {
		t.Fatal("expected Halted after the halt instruction")
	}
}

// TestBreakpointStopsRunBeforeHalt exercises "run_until_halt_or_breakpoint"
// and "set_breakpoint" together, targeting the halt instruction itself.
func TestBreakpointStopsRunBeforeHalt(t *testing.T) {
	text := `.cpu mm-3 16
.input 0x10, 0x12
.output 0x14
.enter 3 4
.code
0100100012001499
`
	dbg, err := New(mustParse(t, text), loader.Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	dbg.SetBreakpoint(7)

	reason, taken, err := dbg.RunUntilHaltOrBreakpoint(0)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if reason != engine.StopBreakpoint {
		t.Fatalf("reason = %v, want StopBreakpoint", reason)
	}
	if taken != 1 {
		t.Fatalf("steps taken = %d, want 1", taken)
	}

	dbg.ClearBreakpoint(7)
	reason, _, err = dbg.RunUntilHaltOrBreakpoint(0)
	if err != nil || reason != engine.StopHalt {
		t.Fatalf("resumed run: reason=%v err=%v", reason, err)
	}
}

// TestRunUntilStepLimitReportsStepLimit exercises the debugger's step
// budget against a program that never halts.
func TestRunUntilStepLimitReportsStepLimit(t *testing.T) {
	text := `.cpu mm-0 16
.code
8AFFFD99
`
	dbg, err := New(mustParse(t, text), loader.Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	reason, taken, err := dbg.RunUntilHaltOrBreakpoint(10)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if reason != engine.StopStepLimit || taken != 10 {
		t.Fatalf("reason=%v taken=%d, want StepLimit/10", reason, taken)
	}
}

// TestPeekMemoryReadsUninitialisedCellsWithoutError exercises the
// protected-policy bypass Peek gives the debugger's read_state contract.
func TestPeekMemoryReadsUninitialisedCellsWithoutError(t *testing.T) {
	text := `.cpu mm-3 16
.code
1499
`
	dbg, err := New(mustParse(t, text), loader.Options{Protected: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	data := dbg.PeekMemory(0x50, 2)
	if len(data) != 2 {
		t.Fatalf("peeked %d bytes, want 2", len(data))
	}
}
