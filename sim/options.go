// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

package sim

// NewSimOption defines the interface required to provide an option to NewSim.
type NewSimOption interface {
	applySimOption(*builder)
}

// WithBank returns an option that adds the given bank to the Sim.
func WithBank(b *Bank) Bank {
	return *b
}

func (o Bank) applySimOption(b *builder) {
	b.banks = append(b.banks, o)
}

// NewBankOption defines the interface required to provide an option to NewBank.
type NewBankOption interface {
	applyBankOption(*Bank)
}

// HoggedLine is an option that hogs a line.
type HoggedLine struct {
	offset int
	Hog
}

// WithHoggedLine returns an option to hog a simulated line.
//
// Hogging the line sets its mode, and for outputs its level, before the sim
// goes live.
func WithHoggedLine(offset int, direction HogDirection) HoggedLine {
	return HoggedLine{offset, Hog{direction}}
}

func (o HoggedLine) applyBankOption(b *Bank) {
	if b.Hogs == nil {
		b.Hogs = make(map[int]Hog)
	}
	b.Hogs[o.offset] = o.Hog
}

// NameOption defines the name for a Sim.
type NameOption string

// WithName returns an option that defines the name of a Sim.
func WithName(name string) NameOption {
	return NameOption(name)
}

func (o NameOption) applySimOption(b *builder) {
	b.name = string(o)
}

// SizeOption defines the size of a simulated register block.
type SizeOption int

// WithSize returns an option that defines the size, in bytes, of a simulated
// register block.
func WithSize(size int) SizeOption {
	return SizeOption(size)
}

func (o SizeOption) applyBankOption(b *Bank) {
	b.Size = int(o)
}
