// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

package sim

import (
	gpioreg "github.com/warthog618/go-gpioreg"
)

// SimpletonBase is the simulated physical address of a Simpleton's chip.
const SimpletonBase uint64 = 0x10000000

// Simpleton is a Sim with a single chip using the Generic layout.
type Simpleton struct {
	*Sim
}

// NewSimpleton creates a Simpleton simulating numLines lines.
func NewSimpleton(numLines int) (*Simpleton, error) {
	words := (numLines + 31) / 32
	layout := gpioreg.Generic
	layout.NumLines = numLines
	layout.Output = words * gpioreg.WordSize
	layout.Level = 2 * words * gpioreg.WordSize
	s, err := NewSim(WithBank(NewBank("simpleton", SimpletonBase, layout)))
	if s == nil {
		return nil, err
	}
	return &Simpleton{s}, err
}

// Open opens a gpioreg.Bank covering the simulated chip.
func (s *Simpleton) Open(options ...gpioreg.OpenOption) (*gpioreg.Bank, error) {
	return s.Sim.Open(0, options...)
}

// Config returns the configuration used for the Chip.
func (s *Simpleton) Config() Bank {
	return s.Chips[0].cfg
}

// Level returns the level the line is being driven to.
//
// If the line is an output then this is the level the registers are driving
// it to, and otherwise there is little point calling this method -
// you probably should be calling Pull instead.
func (s *Simpleton) Level(offset int) (gpioreg.Level, error) {
	return s.Chips[0].Level(offset)
}

// Mode returns the mode the registers configure the line for.
func (s *Simpleton) Mode(offset int) (gpioreg.Mode, error) {
	return s.Chips[0].Mode(offset)
}

// Pull returns the current pull of the given line.
func (s *Simpleton) Pull(offset int) (gpioreg.Level, error) {
	return s.Chips[0].Pull(offset)
}

// Pulldown sets the pull of the given line to pull-down.
func (s *Simpleton) Pulldown(offset int) error {
	return s.Chips[0].Pulldown(offset)
}

// Pullup sets the pull of the given line to pull-up.
func (s *Simpleton) Pullup(offset int) error {
	return s.Chips[0].Pullup(offset)
}

// SetPull sets the pull of the given line.
func (s *Simpleton) SetPull(offset int, level gpioreg.Level) error {
	return s.Chips[0].SetPull(offset, level)
}

// Toggle flips the pull of the given line.
//
// If it was pull-up it becomes pull-down, and vice versa.
func (s *Simpleton) Toggle(offset int) error {
	return s.Chips[0].Toggle(offset)
}

// Word returns the value a read of the register at offset off would return.
func (s *Simpleton) Word(off int) (uint32, error) {
	return s.Chips[0].Word(off)
}
