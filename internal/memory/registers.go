package memory

import (
	"errors"

	"github.com/cmc-go/modelmachine/internal/word"
)

var (
	// ErrUnknownRegister is returned by Get/Set for a name never declared.
	ErrUnknownRegister = errors.New("memory: unknown register")
	// ErrRegisterWidth is returned by Set when the word's width does not
	// match the register's declared width.
	ErrRegisterWidth = errors.New("memory: register width mismatch")
	// ErrIllegalRegister is returned when guest code addresses a reserved
	// (non-addressable) register by index.
	ErrIllegalRegister = errors.New("memory: illegal register")
)

type regSlot struct {
	value    word.Word
	width    int
	reserved bool // non-addressable from guest code (control/scratch registers)
	sticky   bool // HALT-sticky: IsHaltSet reports whether it holds a non-zero value
}

// RegisterFile is a name -> fixed-width word map. Widths are fixed at
// construction (spec 4.2); writing a word of the wrong width is an error.
// Registers declared reserved are the scratch registers the control unit uses
// internally (PC, IR, FLAGS, ADDR, SP, and per-machine ALU scratch such as
// R1/R2/S/S1) that guest code may never address directly — only the
// addressable set (R0..RF on the register machines) is reachable from a
// decoded register-index operand (spec 4.2, design note "Shared ALU
// register contract").
type RegisterFile struct {
	slots map[string]*regSlot
}

// NewRegisterFile constructs an empty register file.
func NewRegisterFile() *RegisterFile {
	return &RegisterFile{slots: make(map[string]*regSlot)}
}

// Declare adds a named register of the given width. reserved marks it as
// not addressable by a guest-decoded register index.
func (r *RegisterFile) Declare(name string, width int, reserved bool) {
	r.slots[name] = &regSlot{width: width, reserved: reserved}
}

// DeclareHaltSticky declares a reserved register marked HALT-sticky, whose
// non-zero value IsHaltSet reports. Get and Set treat it like any other
// register. The engine does not use it: it stops fetching on its own
// FLAGS.HALT flag.
func (r *RegisterFile) DeclareHaltSticky(name string, width int) {
	r.slots[name] = &regSlot{width: width, reserved: true, sticky: true}
}

// Get returns the current value of name.
func (r *RegisterFile) Get(name string) (word.Word, error) {
	s, ok := r.slots[name]
	if !ok {
		return word.Word{}, ErrUnknownRegister
	}
	return s.value, nil
}

// Set stores w into name; the width of w must equal the register's
// declared width.
func (r *RegisterFile) Set(name string, w word.Word) error {
	s, ok := r.slots[name]
	if !ok {
		return ErrUnknownRegister
	}
	if w.Width() != s.width {
		return ErrRegisterWidth
	}
	s.value = w
	return nil
}

// Width reports the declared width of name, or 0 if undeclared.
func (r *RegisterFile) Width(name string) int {
	s, ok := r.slots[name]
	if !ok {
		return 0
	}
	return s.width
}

// IsHaltSet reports FLAGS.HALT-style sticky registers without requiring
// the caller to know the exact register name convention; callers that know
// the name can just call Get directly. Kept for symmetry with
// DeclareHaltSticky.
func (r *RegisterFile) IsHaltSet(name string) bool {
	s, ok := r.slots[name]
	if !ok {
		return false
	}
	return s.sticky && s.value.AsUnsigned() != 0
}

// GetAddressable fetches register idx (0..15, i.e. R0..RF) by its guest
// register-field index, using addressNames to translate index to a
// declared, non-reserved register name. Returns ErrIllegalRegister if idx
// is out of [0,15] or the mapped register is reserved.
func (r *RegisterFile) GetAddressable(idx int, addressNames []string) (word.Word, error) {
	if idx < 0 || idx >= len(addressNames) {
		return word.Word{}, ErrIllegalRegister
	}
	name := addressNames[idx]
	s, ok := r.slots[name]
	if !ok || s.reserved {
		return word.Word{}, ErrIllegalRegister
	}
	return s.value, nil
}

// SetAddressable is the Set counterpart of GetAddressable.
func (r *RegisterFile) SetAddressable(idx int, addressNames []string, w word.Word) error {
	if idx < 0 || idx >= len(addressNames) {
		return ErrIllegalRegister
	}
	name := addressNames[idx]
	s, ok := r.slots[name]
	if !ok || s.reserved {
		return ErrIllegalRegister
	}
	if w.Width() != s.width {
		return ErrRegisterWidth
	}
	s.value = w
	return nil
}

// Names returns every declared register name, for the debugger's state
// snapshot (spec 4.7).
func (r *RegisterFile) Names() []string {
	out := make([]string, 0, len(r.slots))
	for n := range r.slots {
		out = append(out, n)
	}
	return out
}
