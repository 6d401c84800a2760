// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

package gpioreg

import (
	"sync"
)

// Mode is the direction a line has been configured for.
type Mode int

const (
	// Line mode has not been set since the line was obtained from the bank.
	ModeUnset Mode = iota

	// Line is an input.
	ModeInput

	// Line is an output.
	ModeOutput
)

func (m Mode) String() string {
	switch m {
	case ModeUnset:
		return "unset"
	case ModeInput:
		return "input"
	case ModeOutput:
		return "output"
	}
	return "unknown"
}

// funcSelect returns the function-select field value for the mode.
func (m Mode) funcSelect() uint32 {
	if m == ModeOutput {
		return 1
	}
	return 0
}

// Level is the logical level of a line.
type Level int

const (
	// Line is low.
	Low Level = iota

	// Line is high.
	High
)

func (l Level) String() string {
	if l == High {
		return "high"
	}
	return "low"
}

// Line provides control of a single line of a Bank.
//
// Lines are obtained from Bank.Line and remain valid until the bank is
// closed.
type Line struct {
	bank   *Bank
	offset int

	// guards mode and level
	mu    sync.Mutex
	mode  Mode
	level Level
}

// Offset returns the offset of the line within the bank.
func (l *Line) Offset() int {
	return l.offset
}

// Mode returns the mode the line was last set to.
func (l *Line) Mode() Mode {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.mode
}

// LastLevel returns the level last written to the line.
func (l *Line) LastLevel() Level {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// SetMode sets the line to be an input or an output.
//
// Setting the mode the line already has is harmless.
func (l *Line) SetMode(m Mode) error {
	if m != ModeInput && m != ModeOutput {
		return &OutOfRangeError{Kind: "mode", Value: int(m), Limit: int(ModeOutput) + 1}
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	layout := l.bank.layout
	off, shift := layout.FuncField(l.offset)
	err := l.bank.ModifyWord(off, layout.FuncMask()<<shift, m.funcSelect()<<shift)
	if err != nil {
		return err
	}
	l.mode = m
	return nil
}

// Write drives the line to the given level.
//
// The line must be an output.
func (l *Line) Write(v Level) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.write(v)
}

// Toggle drives the line to the inverse of the level last written, and returns
// the new level.
//
// The line must be an output.
func (l *Line) Toggle() (Level, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	v := High
	if l.level == High {
		v = Low
	}
	if err := l.write(v); err != nil {
		return l.level, err
	}
	return v, nil
}

// write drives the line.  Must be called with mu held.
func (l *Line) write(v Level) error {
	if l.bank.isClosed() {
		return ErrStaleHandle
	}
	if l.mode != ModeOutput {
		return &WrongModeError{Offset: l.offset, Mode: l.mode, Op: "write"}
	}
	layout := l.bank.layout
	var err error
	if layout.SetClear {
		reg := layout.Clear
		if v == High {
			reg = layout.Set
		}
		off, mask := layout.BitField(reg, l.offset)
		err = l.bank.WriteWord(off, mask)
	} else {
		off, mask := layout.BitField(layout.Output, l.offset)
		var value uint32
		if v == High {
			value = mask
		}
		err = l.bank.ModifyWord(off, mask, value)
	}
	if err != nil {
		return err
	}
	l.level = v
	return nil
}

// Read returns the level of the line.
//
// The line must be an input.
func (l *Line) Read() (Level, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.bank.isClosed() {
		return Low, ErrStaleHandle
	}
	if l.mode != ModeInput {
		return Low, &WrongModeError{Offset: l.offset, Mode: l.mode, Op: "read"}
	}
	layout := l.bank.layout
	off, mask := layout.BitField(layout.Level, l.offset)
	w, err := l.bank.ReadWord(off)
	if err != nil {
		return Low, err
	}
	if w&mask != 0 {
		return High, nil
	}
	return Low, nil
}
