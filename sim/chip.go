// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

package sim

import (
	"sync"

	"github.com/pkg/errors"
	gpioreg "github.com/warthog618/go-gpioreg"
)

// Chip provides the interface to a simulated register block.
//
// Lines are identified by offset into the chip, with offsets
// being in the range 0..Config().Layout.NumLines-1.
//
// The registers behave as the hardware would:
//   - reads of the set and clear words return 0,
//   - writing a 1 to a bit of the set or clear words drives the corresponding
//     output high or low,
//   - reads of the level words return the driven level for outputs and the
//     pull for inputs,
//   - writes to the level words are ignored.
//
// All other words behave as plain memory.
type Chip struct {
	// guards all register state
	mu sync.Mutex

	// The plain register words.
	regs []uint32

	// The output latch, one bit per line, for set/clear layouts.
	latch []uint32

	// The level inputs are pulled to, one bit per line.
	pull []uint32

	// The configuration for this chip
	cfg Bank
}

func newChip(cfg Bank) *Chip {
	n := (cfg.Layout.NumLines + 31) / 32
	c := &Chip{
		regs:  make([]uint32, cfg.Size/gpioreg.WordSize),
		latch: make([]uint32, n),
		pull:  make([]uint32, n),
		cfg:   cfg,
	}
	for o, h := range cfg.Hogs {
		mode := gpioreg.ModeOutput
		if h.Direction == HogDirectionInput {
			mode = gpioreg.ModeInput
		}
		c.setMode(o, mode)
		c.setOutput(o, h.Direction == HogDirectionOutputHigh)
	}
	return c
}

// Config returns the configuration used for the Chip.
func (c *Chip) Config() Bank {
	return c.cfg
}

// Base returns the simulated physical address of the chip.
func (c *Chip) Base() uint64 {
	return c.cfg.Base
}

// Level returns the level the line is being driven to.
//
// If the line is an output then this is the level the registers are driving
// it to, and otherwise there is little point calling this method -
// you probably should be calling Pull instead.
func (c *Chip) Level(offset int) (gpioreg.Level, error) {
	if err := c.checkOffset(offset); err != nil {
		return gpioreg.Low, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return toLevel(c.output(offset)), nil
}

// Mode returns the mode the registers configure the line for.
//
// Function-select values other than input or output are reported as
// ModeUnset.
func (c *Chip) Mode(offset int) (gpioreg.Mode, error) {
	if err := c.checkOffset(offset); err != nil {
		return gpioreg.ModeUnset, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode(offset), nil
}

// Pull returns the current pull of the given line.
func (c *Chip) Pull(offset int) (gpioreg.Level, error) {
	if err := c.checkOffset(offset); err != nil {
		return gpioreg.Low, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return toLevel(c.pull[offset/32]&bit(offset) != 0), nil
}

// Pulldown sets the pull of the given line to pull-down.
func (c *Chip) Pulldown(offset int) error {
	return c.SetPull(offset, gpioreg.Low)
}

// Pullup sets the pull of the given line to pull-up.
func (c *Chip) Pullup(offset int) error {
	return c.SetPull(offset, gpioreg.High)
}

// SetPull sets the pull of the given line.
func (c *Chip) SetPull(offset int, level gpioreg.Level) error {
	if err := c.checkOffset(offset); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if level == gpioreg.High {
		c.pull[offset/32] |= bit(offset)
	} else {
		c.pull[offset/32] &^= bit(offset)
	}
	return nil
}

// Toggle flips the pull of the given line.
//
// If it was pull-up it becomes pull-down, and vice versa.
func (c *Chip) Toggle(offset int) error {
	p, err := c.Pull(offset)
	if err != nil {
		return err
	}
	if p == gpioreg.Low {
		p = gpioreg.High
	} else {
		p = gpioreg.Low
	}
	return c.SetPull(offset, p)
}

// Word returns the value a read of the register at offset off would return.
func (c *Chip) Word(off int) (uint32, error) {
	if off < 0 || off >= c.cfg.Size || off%gpioreg.WordSize != 0 {
		return 0, errors.Errorf("invalid register offset %#x", off)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load(off), nil
}

func (c *Chip) checkOffset(offset int) error {
	if offset < 0 || offset >= c.cfg.Layout.NumLines {
		return errors.Errorf("offset %d out of range", offset)
	}
	return nil
}

// bitWord returns the index of the word within the one-bit-per-line register
// starting at reg that contains off, if any.
func (c *Chip) bitWord(reg, off int) (int, bool) {
	i := (off - reg) / gpioreg.WordSize
	if off < reg || i >= len(c.pull) {
		return 0, false
	}
	return i, true
}

// load returns the value read from the register.  Must be called with mu held.
func (c *Chip) load(off int) uint32 {
	l := c.cfg.Layout
	if l.SetClear {
		if _, ok := c.bitWord(l.Set, off); ok {
			return 0
		}
		if _, ok := c.bitWord(l.Clear, off); ok {
			return 0
		}
	}
	if i, ok := c.bitWord(l.Level, off); ok {
		out := c.outputMask(i)
		return c.outputWord(i)&out | c.pull[i]&^out
	}
	return c.regs[off/gpioreg.WordSize]
}

// store writes the value to the register.  Must be called with mu held.
func (c *Chip) store(off int, v uint32) {
	l := c.cfg.Layout
	if l.SetClear {
		if i, ok := c.bitWord(l.Set, off); ok {
			c.latch[i] |= v
			return
		}
		if i, ok := c.bitWord(l.Clear, off); ok {
			c.latch[i] &^= v
			return
		}
	}
	if _, ok := c.bitWord(l.Level, off); ok {
		return
	}
	c.regs[off/gpioreg.WordSize] = v
}

// outputWord returns the word of the output latch.
func (c *Chip) outputWord(i int) uint32 {
	l := c.cfg.Layout
	if l.SetClear {
		return c.latch[i]
	}
	return c.regs[l.Output/gpioreg.WordSize+i]
}

// outputMask returns the mask of the lines in the word configured as outputs.
func (c *Chip) outputMask(i int) uint32 {
	var m uint32
	for b := 0; b < 32; b++ {
		o := i*32 + b
		if o >= c.cfg.Layout.NumLines {
			break
		}
		if c.mode(o) == gpioreg.ModeOutput {
			m |= bit(o)
		}
	}
	return m
}

func (c *Chip) output(offset int) bool {
	return c.outputWord(offset/32)&bit(offset) != 0
}

func (c *Chip) setOutput(offset int, high bool) {
	l := c.cfg.Layout
	w := &c.latch[offset/32]
	if !l.SetClear {
		w = &c.regs[l.Output/gpioreg.WordSize+offset/32]
	}
	if high {
		*w |= bit(offset)
	} else {
		*w &^= bit(offset)
	}
}

func (c *Chip) mode(offset int) gpioreg.Mode {
	l := c.cfg.Layout
	off, shift := l.FuncField(offset)
	switch (c.regs[off/gpioreg.WordSize] >> shift) & l.FuncMask() {
	case 0:
		return gpioreg.ModeInput
	case 1:
		return gpioreg.ModeOutput
	}
	return gpioreg.ModeUnset
}

func (c *Chip) setMode(offset int, m gpioreg.Mode) {
	l := c.cfg.Layout
	off, shift := l.FuncField(offset)
	w := &c.regs[off/gpioreg.WordSize]
	*w &^= l.FuncMask() << shift
	if m == gpioreg.ModeOutput {
		*w |= 1 << shift
	}
}

func bit(offset int) uint32 {
	return 1 << uint(offset%32)
}

func toLevel(high bool) gpioreg.Level {
	if high {
		return gpioreg.High
	}
	return gpioreg.Low
}

// region is the view of a Chip mapped through the Sim.
type region struct {
	c *Chip

	// offset of the region within the chip
	off int
}

func (r *region) LoadWord(off int) uint32 {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	return r.c.load(r.off + off)
}

func (r *region) StoreWord(off int, v uint32) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	r.c.store(r.off+off, v)
}

func (r *region) Unmap() error {
	return nil
}
