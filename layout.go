// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

package gpioreg

import (
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// WordSize is the size of a register word, in bytes.
const WordSize = 4

// Physical base addresses of the GPIO block on the Raspberry Pi family.
const (
	BCM2835Base uint64 = 0x20200000 // Pi 1, Zero
	BCM2836Base uint64 = 0x3f200000 // Pi 2, 3
	BCM2711Base uint64 = 0xfe200000 // Pi 4
)

// Layout describes where the registers controlling the lines of a GPIO block
// live within its mapped region.
//
// All offsets are byte offsets from the start of the region.
type Layout struct {
	// A name for the layout, informational only.
	Name string `yaml:"name"`

	// The number of lines controlled by the block.
	NumLines int `yaml:"num_lines"`

	// Offset of the first function-select word.
	FuncSelect int `yaml:"func_select"`

	// Width of each line's function-select field, in bits.
	FuncBits int `yaml:"func_bits"`

	// Offset of the first output latch word.
	//
	// Only used if SetClear is false.
	Output int `yaml:"output"`

	// If set then outputs are driven by writing a 1 to the line's bit in the
	// Set or Clear words, rather than by modifying the Output word.
	SetClear bool `yaml:"set_clear"`

	// Offset of the first write-1-to-set word.
	Set int `yaml:"set"`

	// Offset of the first write-1-to-clear word.
	Clear int `yaml:"clear"`

	// Offset of the first input level word.
	Level int `yaml:"level"`
}

// BCM2835 is the GPIO block of the Broadcom BCM2835 family, as found on the
// Raspberry Pi.
var BCM2835 = Layout{
	Name:       "bcm2835",
	NumLines:   54,
	FuncSelect: 0x00,
	FuncBits:   3,
	SetClear:   true,
	Set:        0x1c,
	Clear:      0x28,
	Level:      0x34,
}

// Generic is a minimal GPIO block with one direction bit per line and
// separate output latch and input level words.
var Generic = Layout{
	Name:       "generic",
	NumLines:   32,
	FuncSelect: 0x00,
	FuncBits:   1,
	Output:     0x04,
	Level:      0x08,
}

var layouts = map[string]Layout{
	BCM2835.Name: BCM2835,
	Generic.Name: Generic,
}

// LayoutByName returns the predefined layout with the given name.
func LayoutByName(name string) (Layout, bool) {
	l, ok := layouts[name]
	return l, ok
}

// ParseLayout decodes a YAML layout description and validates it.
func ParseLayout(data []byte) (Layout, error) {
	var l Layout
	if err := yaml.Unmarshal(data, &l); err != nil {
		return Layout{}, errors.Wrap(err, "parse layout")
	}
	if err := l.Validate(); err != nil {
		return Layout{}, err
	}
	return l, nil
}

// Validate checks the layout is self-consistent.
func (l Layout) Validate() error {
	if l.NumLines <= 0 {
		return errors.Errorf("layout %q: num_lines must be positive", l.Name)
	}
	if l.FuncBits <= 0 || l.FuncBits > 32 {
		return errors.Errorf("layout %q: func_bits must be in 1..32", l.Name)
	}
	offsets := map[string]int{
		"func_select": l.FuncSelect,
		"level":       l.Level,
	}
	if l.SetClear {
		offsets["set"] = l.Set
		offsets["clear"] = l.Clear
	} else {
		offsets["output"] = l.Output
	}
	for name, off := range offsets {
		if off < 0 || off%WordSize != 0 {
			return errors.Errorf("layout %q: %s offset %#x is not a word offset", l.Name, name, off)
		}
	}
	for name, off := range offsets {
		end := off + l.bitWords()*WordSize
		if name == "func_select" {
			end = off + l.funcWords()*WordSize
		}
		for other, o := range offsets {
			oend := o + l.bitWords()*WordSize
			if other == "func_select" {
				oend = o + l.funcWords()*WordSize
			}
			if name != other && off < oend && o < end {
				return errors.Errorf("layout %q: %s registers overlap %s registers", l.Name, name, other)
			}
		}
	}
	return nil
}

// Size returns the minimum region length, in bytes, required to hold all the
// registers of the layout.
func (l Layout) Size() int {
	end := l.FuncSelect + l.funcWords()*WordSize
	levelEnd := l.bitWords() * WordSize
	for _, off := range l.bitRegisters() {
		if e := off + levelEnd; e > end {
			end = e
		}
	}
	return end
}

// funcWords returns the number of function-select words.
func (l Layout) funcWords() int {
	perWord := 32 / l.FuncBits
	return (l.NumLines + perWord - 1) / perWord
}

// bitWords returns the number of words in each one-bit-per-line register.
func (l Layout) bitWords() int {
	return (l.NumLines + 31) / 32
}

func (l Layout) bitRegisters() []int {
	if l.SetClear {
		return []int{l.Set, l.Clear, l.Level}
	}
	return []int{l.Output, l.Level}
}

// FuncField returns the offset of the function-select word for the line, and
// the shift of the line's field within it.
func (l Layout) FuncField(pin int) (off int, shift uint) {
	perWord := 32 / l.FuncBits
	return l.FuncSelect + (pin/perWord)*WordSize, uint((pin % perWord) * l.FuncBits)
}

// FuncMask returns the unshifted mask of a function-select field.
func (l Layout) FuncMask() uint32 {
	if l.FuncBits == 32 {
		return ^uint32(0)
	}
	return 1<<uint(l.FuncBits) - 1
}

// BitField returns the offset of the word containing the line's bit, relative
// to a one-bit-per-line register starting at base, and the bit mask.
func (l Layout) BitField(base, pin int) (off int, mask uint32) {
	return base + (pin/32)*WordSize, 1 << uint(pin%32)
}
