// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

//go:build linux

package gpioreg

import (
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// DevMem maps registers through a memory device file.
type DevMem struct {
	// The path to the device, e.g. "/dev/mem".
	Path string

	// If set then the device maps the register block itself, rather than
	// physical memory, so the region is mapped from file offset 0 and the
	// base is only used to identify the region.
	//
	// This is the case for /dev/gpiomem.
	Relative bool
}

// Memory maps from the physical address space.  Requires root.
var Memory = DevMem{Path: "/dev/mem"}

// GPIOMem maps the GPIO block exposed by /dev/gpiomem on the Raspberry Pi,
// which does not require root.
var GPIOMem = DevMem{Path: "/dev/gpiomem", Relative: true}

// Device returns the path of the memory device.
func (d DevMem) Device() string {
	return d.Path
}

// Map maps the region using mmap.
//
// The base need not be page aligned.
func (d DevMem) Map(base uint64, length int) (Region, error) {
	fd, err := unix.Open(d.Path, unix.O_RDWR|unix.O_SYNC|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", d.Path)
	}
	// the mapping survives closing the fd
	defer unix.Close(fd)

	offset := base
	if d.Relative {
		offset = 0
	}
	pageSize := uint64(os.Getpagesize())
	delta := offset % pageSize
	b, err := unix.Mmap(fd, int64(offset-delta), length+int(delta), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, errors.Wrap(err, "mmap")
	}
	return &wordRegion{
		b:     b[delta:],
		unmap: func() error { return unix.Munmap(b) },
	}, nil
}
