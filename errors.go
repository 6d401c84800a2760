// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

package gpioreg

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrStaleHandle indicates the bank, or the bank a line was derived from,
	// has been closed.
	ErrStaleHandle = errors.New("stale handle: register bank is closed")

	// ErrBusy indicates the region overlaps one already mapped by an open Bank.
	ErrBusy = errors.New("region already mapped")
)

// MapError is returned when a register region cannot be mapped.
type MapError struct {
	// The mapper device, e.g. "/dev/mem".
	Device string

	Base   uint64
	Length int

	// The underlying cause.
	Err error
}

func (e *MapError) Error() string {
	return fmt.Sprintf("map %s %#x+%#x: %v", e.Device, e.Base, e.Length, e.Err)
}

// Unwrap returns the underlying cause.
func (e *MapError) Unwrap() error {
	return e.Err
}

// Cause returns the underlying cause, for pkg/errors.
func (e *MapError) Cause() error {
	return e.Err
}

// OutOfRangeError is returned when a pin, register offset or length falls
// outside the bounds of the bank, or a line mode can't be set.
type OutOfRangeError struct {
	// What was out of range, e.g. "offset", "pin", "length", "mode".
	Kind string

	Value int

	// The exclusive upper bound, the minimum for "length", or the required
	// alignment for "alignment".
	Limit int
}

func (e *OutOfRangeError) Error() string {
	switch e.Kind {
	case "alignment":
		return fmt.Sprintf("%#x is not aligned to %d", e.Value, e.Limit)
	case "length":
		return fmt.Sprintf("length %#x is less than the %#x required", e.Value, e.Limit)
	case "mode":
		return fmt.Sprintf("mode %s is neither input nor output", Mode(e.Value))
	}
	return fmt.Sprintf("%s %d out of range [0,%d)", e.Kind, e.Value, e.Limit)
}

// WrongModeError is returned when a line operation is invalid for the line's
// current mode.
type WrongModeError struct {
	Offset int

	// The mode of the line when the operation was attempted.
	Mode Mode

	// The attempted operation, "read" or "write".
	Op string
}

func (e *WrongModeError) Error() string {
	return fmt.Sprintf("can't %s line %d in %s mode", e.Op, e.Offset, e.Mode)
}
