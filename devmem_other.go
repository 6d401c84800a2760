// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

//go:build !linux

package gpioreg

import "github.com/pkg/errors"

// DevMem maps registers through a memory device file.
//
// Only supported on Linux.
type DevMem struct {
	Path     string
	Relative bool
}

// Memory maps from the physical address space.
var Memory = DevMem{Path: "/dev/mem"}

// GPIOMem maps the GPIO block exposed by /dev/gpiomem.
var GPIOMem = DevMem{Path: "/dev/gpiomem", Relative: true}

// Device returns the path of the memory device.
func (d DevMem) Device() string {
	return d.Path
}

// Map always fails on this platform.
func (d DevMem) Map(base uint64, length int) (Region, error) {
	return nil, errors.New("memory mapped registers are only supported on Linux")
}
