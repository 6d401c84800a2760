// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

package sim

import (
	"fmt"
	"math"
	"os"
	"path"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	gpioreg "github.com/warthog618/go-gpioreg"
)

// Sim provides a simulated physical address space containing one or more
// register blocks.
//
// Each simulated chip is available through Chips, in the same order the banks
// were added to NewSim.
//
// Sim implements gpioreg.Mapper, so a gpioreg.Bank may be opened on any of
// its chips.
type Sim struct {
	// The name of the simulator.
	//
	// This is not something the user generally needs to be concerned with,
	// but is provided to assist with debugging.
	Name string

	// The chips being simulated.
	Chips []*Chip

	mu     sync.Mutex
	closed bool
}

// NewSim constructs a Sim based on the provided options.
//
// The available options are [WithName] and [WithBank].
//
// Providing a WithName is optional, and is only necessary in rare cases.
// If a name is provided using WithName then that name must uniquely identify
// the sim within the process.
// If no name is provided then a unique name is automatically generated.
//
// At least one WithBank option must be provided, and the banks must not
// overlap.
func NewSim(options ...NewSimOption) (*Sim, error) {
	b := builder{}
	for _, o := range options {
		o.applySimOption(&b)
	}
	return b.live()
}

// Close deconstructs the sim.
//
// Subsequent attempts to map the sim fail.  Regions already mapped remain
// usable until unmapped.
func (s *Sim) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	names.Delete(s.Name)
}

// Device identifies the address space of the sim.
func (s *Sim) Device() string {
	return "sim:" + s.Name
}

// Map returns a region covering the given range, which must lie entirely
// within one chip.
func (s *Sim) Map(base uint64, length int) (gpioreg.Region, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errors.Errorf("sim '%s' is closed", s.Name)
	}
	for _, c := range s.Chips {
		start, end := c.cfg.Base, c.cfg.Base+uint64(c.cfg.Size)
		if base >= start && base < end {
			if length <= 0 || uint64(length) > end-base {
				return nil, errors.Errorf("%#x+%#x overruns chip '%s'", base, length, c.cfg.Label)
			}
			return &region{c: c, off: int(base - start)}, nil
		}
	}
	return nil, errors.Errorf("no chip at %#x", base)
}

// Open opens a gpioreg.Bank covering the whole of the indexed chip, with the
// chip's layout.
//
// Further options may be provided, such as WithLayout to override the layout.
func (s *Sim) Open(chip int, options ...gpioreg.OpenOption) (*gpioreg.Bank, error) {
	if chip < 0 || chip >= len(s.Chips) {
		return nil, errors.Errorf("no chip %d", chip)
	}
	c := s.Chips[chip]
	opts := append([]gpioreg.OpenOption{
		gpioreg.WithMapper(s),
		gpioreg.WithLayout(c.cfg.Layout),
	}, options...)
	return gpioreg.Open(c.cfg.Base, c.cfg.Size, opts...)
}

// builder contains all the information required to build a sim.
type builder struct {
	// The name for the simulator.
	//
	// If empty when live is called then a unique name is generated.
	name string // optional

	// The details of the banks to be simulated.
	//
	// Each bank becomes a chip when the simulator goes live.
	banks []Bank
}

// names of the live sims
var names sync.Map

// live builds the sim and takes it live.
func (b *builder) live() (*Sim, error) {
	if len(b.banks) == 0 {
		return nil, errors.New("no banks defined")
	}
	if len(b.name) == 0 {
		b.name = uniqueName()
	}
	for i, k := range b.banks {
		if err := checkBank(k); err != nil {
			return nil, err
		}
		for _, o := range b.banks[:i] {
			if k.Base < o.Base+uint64(o.Size) && o.Base < k.Base+uint64(k.Size) {
				return nil, errors.Errorf("bank '%s' overlaps bank '%s'", k.Label, o.Label)
			}
		}
	}
	if _, loaded := names.LoadOrStore(b.name, struct{}{}); loaded {
		return nil, errors.Errorf("sim with name '%s' already exists", b.name)
	}
	s := Sim{Name: b.name}
	for _, k := range b.banks {
		s.Chips = append(s.Chips, newChip(k))
	}
	return &s, nil
}

// checkBank validates the configuration of a bank.
func checkBank(k Bank) error {
	if err := k.Layout.Validate(); err != nil {
		return errors.Wrapf(err, "bank '%s'", k.Label)
	}
	if k.Size%gpioreg.WordSize != 0 || k.Size < k.Layout.Size() {
		return errors.Errorf("bank '%s' size %#x can't hold layout '%s'", k.Label, k.Size, k.Layout.Name)
	}
	if k.Base%gpioreg.WordSize != 0 {
		return errors.Errorf("bank '%s' base %#x is not word aligned", k.Label, k.Base)
	}
	if k.Base > math.MaxUint64-uint64(k.Size) {
		return errors.Errorf("bank '%s' %#x+%#x wraps the address space", k.Label, k.Base, k.Size)
	}
	for o := range k.Hogs {
		if o < 0 || o >= k.Layout.NumLines {
			return errors.Errorf("bank '%s' hogged line %d out of range", k.Label, o)
		}
	}
	return nil
}

var simCounter uint32 = 0

// uniqueName returns a name for the sim that is very likely to be unique, using the
// appname, PID and a monotonic atomic counter.
//
// The only reason it may clash with an existing sim is if the user goes out of
// their way to explicitly create a sim with the same name.
func uniqueName() string {
	return fmt.Sprintf("%s-p%d-%d", appName(), os.Getpid(), atomic.AddUint32(&simCounter, 1))
}

// appName returns the name of the running executable.
//
// Falls back to "gpioreg-sim" if that can't be determined for some reason.
func appName() string {
	str, err := os.Executable()
	if err != nil {
		return "gpioreg-sim"
	}
	return path.Base(str)
}
