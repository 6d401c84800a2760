// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

package sim

import (
	gpioreg "github.com/warthog618/go-gpioreg"
)

// DefaultSize is the size of a simulated register block if none is provided.
const DefaultSize = 4096

// Bank contains the information required to configure a chip in a Sim.
type Bank struct {
	// The label of the chip.
	Label string

	// The simulated physical address of the block.
	Base uint64

	// The size of the block, in bytes.
	Size int

	// The register layout the chip simulates.
	Layout gpioreg.Layout

	// Lines that are already configured when the sim goes live.
	Hogs map[int]Hog
}

// NewBank constructs a Bank with the label, base, layout and options provided.
//
// The label is informational.  In a testing context the label can be used to
// identify the role of the chip in the test.
//
// The available options are [WithSize] and [WithHoggedLine].
func NewBank(label string, base uint64, layout gpioreg.Layout, options ...NewBankOption) *Bank {
	b := &Bank{Label: label, Base: base, Layout: layout, Size: DefaultSize}
	for _, o := range options {
		o.applyBankOption(b)
	}
	return b
}

// Hog contains the details of a line hog, i.e. a line configured before the
// registers are mapped.
type Hog struct {
	// The direction for the hogged line, and if an output then the level it
	// is driven to.
	Direction HogDirection
}

// HogDirection indicates the direction of a hogged line.
type HogDirection int

const (
	// Hogged line is an input.
	HogDirectionInput HogDirection = iota

	// Hogged line is an output driven low.
	HogDirectionOutputLow

	// Hogged line is an output driven high.
	HogDirectionOutputHigh
)
