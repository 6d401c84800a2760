// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

package gpioreg

import (
	"math"
	"sync"

	"github.com/pkg/errors"
)

// Bank provides access to a mapped block of GPIO registers.
//
// Registers are identified by byte offset into the block, with offsets
// being word aligned and in the range 0..Len()-1.
//
// A Bank is safe for concurrent use.  Reads may proceed concurrently, while
// writes, and in particular the read-modify-write of ModifyWord, are
// serialized against all other accesses.
//
// Only one Bank in the process may map a given range of a device at a time.
// Access from other processes mapping the same registers is not coordinated.
type Bank struct {
	// guards region, closed and lines
	mu sync.RWMutex

	region Region
	closed bool

	// The device the region was mapped from.
	device string

	base   uint64
	length int
	layout Layout

	// Lines derived from the bank, indexed by offset and created on demand.
	lines []*Line
}

// Open maps length bytes of registers starting at base.
//
// The available options are [WithLayout], [WithMapper] and [WithDevice].
//
// If no mapper is provided then the registers are mapped from /dev/mem.
// If no layout is provided then BCM2835 is assumed.
//
// The length must be a positive multiple of the word size, and large enough
// to contain the registers described by the layout.
func Open(base uint64, length int, options ...OpenOption) (*Bank, error) {
	cfg := openConfig{mapper: Memory, layout: BCM2835}
	for _, o := range options {
		o.applyOpenOption(&cfg)
	}
	if err := cfg.layout.Validate(); err != nil {
		return nil, err
	}
	if length <= 0 || length < cfg.layout.Size() {
		return nil, &OutOfRangeError{Kind: "length", Value: length, Limit: cfg.layout.Size()}
	}
	if length%WordSize != 0 {
		return nil, &OutOfRangeError{Kind: "alignment", Value: length, Limit: WordSize}
	}
	device := cfg.mapper.Device()
	if base%WordSize != 0 {
		return nil, &MapError{Device: device, Base: base, Length: length, Err: errors.New("base is not word aligned")}
	}
	if base > math.MaxUint64-uint64(length) {
		return nil, &MapError{Device: device, Base: base, Length: length, Err: errors.New("region wraps the address space")}
	}
	if err := claim(device, base, length); err != nil {
		return nil, &MapError{Device: device, Base: base, Length: length, Err: err}
	}
	r, err := cfg.mapper.Map(base, length)
	if err != nil {
		release(device, base)
		return nil, &MapError{Device: device, Base: base, Length: length, Err: err}
	}
	return &Bank{
		region: r,
		device: device,
		base:   base,
		length: length,
		layout: cfg.layout,
		lines:  make([]*Line, cfg.layout.NumLines),
	}, nil
}

// Close unmaps the registers.
//
// Any subsequent use of the bank, or of lines derived from it, returns
// ErrStaleHandle, as does closing the bank again.
func (b *Bank) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrStaleHandle
	}
	b.closed = true
	release(b.device, b.base)
	err := b.region.Unmap()
	b.region = nil
	return errors.Wrap(err, "unmap")
}

// Base returns the address the bank was mapped from.
func (b *Bank) Base() uint64 {
	return b.base
}

// Len returns the length of the bank in bytes.
func (b *Bank) Len() int {
	return b.length
}

// Layout returns the register layout of the bank.
func (b *Bank) Layout() Layout {
	return b.layout
}

// Line returns the line with the given offset.
//
// Repeated calls for the same offset return the same Line.
func (b *Bank) Line(offset int) (*Line, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrStaleHandle
	}
	if offset < 0 || offset >= len(b.lines) {
		return nil, &OutOfRangeError{Kind: "pin", Value: offset, Limit: len(b.lines)}
	}
	l := b.lines[offset]
	if l == nil {
		l = &Line{bank: b, offset: offset}
		b.lines[offset] = l
	}
	return l, nil
}

// ReadWord returns the value of the register at offset off.
func (b *Bank) ReadWord(off int) (uint32, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if err := b.check(off); err != nil {
		return 0, err
	}
	return b.region.LoadWord(off), nil
}

// WriteWord sets the register at offset off to v.
func (b *Bank) WriteWord(off int, v uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.check(off); err != nil {
		return err
	}
	b.region.StoreWord(off, v)
	return nil
}

// ModifyWord replaces the bits of the register at offset off selected by mask
// with the corresponding bits of value, leaving the other bits unchanged.
//
// The read-modify-write is atomic with respect to all other accesses through
// the bank.
func (b *Bank) ModifyWord(off int, mask, value uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.check(off); err != nil {
		return err
	}
	v := b.region.LoadWord(off)
	b.region.StoreWord(off, v&^mask|value&mask)
	return nil
}

// isClosed reports whether the bank has been closed.
func (b *Bank) isClosed() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.closed
}

// check validates the bank is open and off is a word offset within it.
//
// Must be called with mu held.
func (b *Bank) check(off int) error {
	if b.closed {
		return ErrStaleHandle
	}
	if off < 0 || off >= b.length {
		return &OutOfRangeError{Kind: "offset", Value: off, Limit: b.length}
	}
	if off%WordSize != 0 {
		return &OutOfRangeError{Kind: "alignment", Value: off, Limit: WordSize}
	}
	return nil
}

// span is a range of a device owned by an open Bank.
type span struct {
	base uint64
	end  uint64
}

// owners records the ranges mapped by open banks, by device.
var owners = struct {
	sync.Mutex
	spans map[string][]span
}{spans: map[string][]span{}}

// claim records the range as owned, failing if it overlaps one already owned.
func claim(device string, base uint64, length int) error {
	owners.Lock()
	defer owners.Unlock()

	s := span{base, base + uint64(length)}
	for _, o := range owners.spans[device] {
		if s.base < o.end && o.base < s.end {
			return ErrBusy
		}
	}
	owners.spans[device] = append(owners.spans[device], s)
	return nil
}

// release removes the claim on the range starting at base.
func release(device string, base uint64) {
	owners.Lock()
	defer owners.Unlock()

	spans := owners.spans[device]
	for i, o := range spans {
		if o.base == base {
			spans = append(spans[:i], spans[i+1:]...)
			break
		}
	}
	if len(spans) == 0 {
		delete(owners.spans, device)
		return
	}
	owners.spans[device] = spans
}
