// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

package gpioreg_test

import (
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gpioreg "github.com/warthog618/go-gpioreg"
	"github.com/warthog618/go-gpioreg/sim"
)

func newSimpleton(t *testing.T, numLines int) *sim.Simpleton {
	s, err := sim.NewSimpleton(numLines)
	require.Nil(t, err)
	t.Cleanup(s.Close)
	return s
}

func checkOutOfRange(t *testing.T, err error, kind string) {
	t.Helper()
	var oe *gpioreg.OutOfRangeError
	require.True(t, errors.As(err, &oe), "expected OutOfRangeError, got %v", err)
	assert.Equal(t, kind, oe.Kind)
}

func checkMapError(t *testing.T, err error) *gpioreg.MapError {
	t.Helper()
	var me *gpioreg.MapError
	require.True(t, errors.As(err, &me), "expected MapError, got %v", err)
	return me
}

func TestOpen(t *testing.T) {
	s := newSimpleton(t, 32)
	m := gpioreg.WithMapper(s)
	l := gpioreg.WithLayout(s.Config().Layout)

	b, err := gpioreg.Open(sim.SimpletonBase, sim.DefaultSize, m, l)
	require.Nil(t, err)
	assert.Equal(t, sim.SimpletonBase, b.Base())
	assert.Equal(t, sim.DefaultSize, b.Len())
	assert.Equal(t, s.Config().Layout, b.Layout())

	// already owned
	bb, err := gpioreg.Open(sim.SimpletonBase, sim.DefaultSize, m, l)
	assert.Nil(t, bb)
	me := checkMapError(t, err)
	assert.ErrorIs(t, err, gpioreg.ErrBusy)
	assert.Equal(t, s.Device(), me.Device)

	// overlapping
	bb, err = gpioreg.Open(sim.SimpletonBase+0x100, 0x100, m, l)
	assert.Nil(t, bb)
	assert.ErrorIs(t, err, gpioreg.ErrBusy)

	// released on close
	require.Nil(t, b.Close())
	b, err = gpioreg.Open(sim.SimpletonBase, sim.DefaultSize, m, l)
	require.Nil(t, err)
	require.Nil(t, b.Close())

	// zero length
	bb, err = gpioreg.Open(sim.SimpletonBase, 0, m, l)
	assert.Nil(t, bb)
	checkOutOfRange(t, err, "length")

	// too short for layout
	bb, err = gpioreg.Open(sim.SimpletonBase, 8, m, l)
	assert.Nil(t, bb)
	checkOutOfRange(t, err, "length")

	// partial word
	bb, err = gpioreg.Open(sim.SimpletonBase, 0x102, m, l)
	assert.Nil(t, bb)
	checkOutOfRange(t, err, "alignment")

	// misaligned base
	bb, err = gpioreg.Open(sim.SimpletonBase+2, 0x100, m, l)
	assert.Nil(t, bb)
	checkMapError(t, err)

	// nothing mapped there
	bb, err = gpioreg.Open(0x1000, 0x100, m, l)
	assert.Nil(t, bb)
	me = checkMapError(t, err)
	assert.Equal(t, uint64(0x1000), me.Base)
	assert.Equal(t, 0x100, me.Length)

	// invalid layout
	bad := gpioreg.Generic
	bad.Level = bad.Output
	bb, err = gpioreg.Open(sim.SimpletonBase, sim.DefaultSize, m, gpioreg.WithLayout(bad))
	assert.Nil(t, bb)
	assert.NotNil(t, err)

	// failed opens don't leave the range owned
	b, err = gpioreg.Open(sim.SimpletonBase, sim.DefaultSize, m, l)
	require.Nil(t, err)
	require.Nil(t, b.Close())
}

// anyMapper maps any range, backing each with words in memory.
type anyMapper struct{}

func (anyMapper) Device() string {
	return "any"
}

func (anyMapper) Map(base uint64, length int) (gpioreg.Region, error) {
	return &memRegion{make([]uint32, length/gpioreg.WordSize)}, nil
}

type memRegion struct {
	words []uint32
}

func (r *memRegion) LoadWord(off int) uint32 {
	return r.words[off/gpioreg.WordSize]
}

func (r *memRegion) StoreWord(off int, v uint32) {
	r.words[off/gpioreg.WordSize] = v
}

func (r *memRegion) Unmap() error {
	return nil
}

func TestOpenWrap(t *testing.T) {
	m := gpioreg.WithMapper(anyMapper{})
	l := gpioreg.WithLayout(gpioreg.Generic)

	// region crossing the top of the address space
	b, err := gpioreg.Open(0xfffffffffffff000, 0x2000, m, l)
	assert.Nil(t, b)
	me := checkMapError(t, err)
	assert.Equal(t, uint64(0xfffffffffffff000), me.Base)

	// so the top page remains free
	b, err = gpioreg.Open(0xfffffffffffff800, 0x100, m, l)
	require.Nil(t, err)

	// and is then exclusively owned
	bb, err := gpioreg.Open(0xfffffffffffff000, 0xffc, m, l)
	assert.Nil(t, bb)
	checkMapError(t, err)
	assert.ErrorIs(t, err, gpioreg.ErrBusy)
	require.Nil(t, b.Close())

	// the end must be addressable
	b, err = gpioreg.Open(0xfffffffffffff000, 0x1000, m, l)
	assert.Nil(t, b)
	checkMapError(t, err)
	b, err = gpioreg.Open(0xfffffffffffff000, 0xffc, m, l)
	require.Nil(t, err)
	require.Nil(t, b.Close())
}

func TestOpenDevice(t *testing.T) {
	b, err := gpioreg.Open(gpioreg.BCM2836Base, 4096, gpioreg.WithDevice("/nonexistent/mem"))
	assert.Nil(t, b)
	me := checkMapError(t, err)
	assert.Equal(t, "/nonexistent/mem", me.Device)
	assert.Equal(t, gpioreg.BCM2836Base, me.Base)
}

func TestClose(t *testing.T) {
	s := newSimpleton(t, 32)
	b, err := s.Open()
	require.Nil(t, err)

	require.Nil(t, b.Close())
	assert.ErrorIs(t, b.Close(), gpioreg.ErrStaleHandle)

	_, err = b.ReadWord(0)
	assert.ErrorIs(t, err, gpioreg.ErrStaleHandle)
	err = b.WriteWord(0, 1)
	assert.ErrorIs(t, err, gpioreg.ErrStaleHandle)
	err = b.ModifyWord(0, 1, 1)
	assert.ErrorIs(t, err, gpioreg.ErrStaleHandle)
	l, err := b.Line(1)
	assert.Nil(t, l)
	assert.ErrorIs(t, err, gpioreg.ErrStaleHandle)
}

func TestWordAccess(t *testing.T) {
	s := newSimpleton(t, 32)
	b, err := s.Open()
	require.Nil(t, err)
	defer b.Close()

	// plain memory beyond the layout
	off := 0x40
	err = b.WriteWord(off, 0x12345678)
	assert.Nil(t, err)
	v, err := b.ReadWord(off)
	assert.Nil(t, err)
	assert.Equal(t, uint32(0x12345678), v)

	err = b.ModifyWord(off, 0x0000ff00, 0xaaaaaaaa)
	assert.Nil(t, err)
	v, err = b.ReadWord(off)
	assert.Nil(t, err)
	assert.Equal(t, uint32(0x1234aa78), v)

	// last word
	last := b.Len() - gpioreg.WordSize
	err = b.WriteWord(last, 42)
	assert.Nil(t, err)
	v, err = b.ReadWord(last)
	assert.Nil(t, err)
	assert.Equal(t, uint32(42), v)

	// out of range
	for _, off := range []int{b.Len(), b.Len() + 4, -4} {
		_, err = b.ReadWord(off)
		checkOutOfRange(t, err, "offset")
		err = b.WriteWord(off, 1)
		checkOutOfRange(t, err, "offset")
		err = b.ModifyWord(off, 1, 1)
		checkOutOfRange(t, err, "offset")
	}

	// misaligned
	_, err = b.ReadWord(2)
	checkOutOfRange(t, err, "alignment")
	err = b.WriteWord(2, 1)
	checkOutOfRange(t, err, "alignment")
	err = b.ModifyWord(2, 1, 1)
	checkOutOfRange(t, err, "alignment")
}

func TestModifyWordConcurrent(t *testing.T) {
	s := newSimpleton(t, 32)
	b, err := s.Open()
	require.Nil(t, err)
	defer b.Close()

	off := 0x40
	for run := 0; run < 50; run++ {
		require.Nil(t, b.WriteWord(off, 0))
		var wg sync.WaitGroup
		for i := 0; i < 32; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				mask := uint32(1) << uint(i)
				for j := 0; j < 10; j++ {
					b.ModifyWord(off, mask, 0)
					b.ModifyWord(off, mask, mask)
				}
			}(i)
		}
		wg.Wait()
		v, err := b.ReadWord(off)
		require.Nil(t, err)
		require.Equal(t, ^uint32(0), v)
	}
}
