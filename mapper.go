// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

package gpioreg

import (
	"sync/atomic"
	"unsafe"
)

// Mapper maps physical register regions into the process.
type Mapper interface {
	// Device identifies the physical address space the mapper maps from.
	//
	// Regions from different devices never alias.
	Device() string

	// Map maps length bytes of registers starting at base.
	Map(base uint64, length int) (Region, error)
}

// Region is a mapped block of registers.
//
// Offsets passed to a Region have already been bounds checked and word
// aligned by the Bank.
type Region interface {
	LoadWord(off int) uint32
	StoreWord(off int, v uint32)

	// Unmap releases the mapping.  The Region must not be used afterwards.
	Unmap() error
}

// wordRegion is a Region backed by a byte slice, such as one returned by
// mmap.
type wordRegion struct {
	b     []byte
	unmap func() error
}

func (r *wordRegion) word(off int) *uint32 {
	return (*uint32)(unsafe.Pointer(&r.b[off]))
}

func (r *wordRegion) LoadWord(off int) uint32 {
	return atomic.LoadUint32(r.word(off))
}

func (r *wordRegion) StoreWord(off int, v uint32) {
	atomic.StoreUint32(r.word(off), v)
}

func (r *wordRegion) Unmap() error {
	if r.unmap == nil {
		return nil
	}
	return r.unmap()
}
