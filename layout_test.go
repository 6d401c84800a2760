// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

package gpioreg_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gpioreg "github.com/warthog618/go-gpioreg"
)

func TestPredefinedLayouts(t *testing.T) {
	for _, name := range []string{"bcm2835", "generic"} {
		l, ok := gpioreg.LayoutByName(name)
		require.True(t, ok, name)
		assert.Equal(t, name, l.Name)
		assert.Nil(t, l.Validate(), name)
	}
	_, ok := gpioreg.LayoutByName("bcm9999")
	assert.False(t, ok)

	assert.Equal(t, 0x3c, gpioreg.BCM2835.Size())
	assert.Equal(t, 0x0c, gpioreg.Generic.Size())
}

func TestLayoutFields(t *testing.T) {
	l := gpioreg.BCM2835

	off, shift := l.FuncField(0)
	assert.Equal(t, 0x00, off)
	assert.Equal(t, uint(0), shift)
	off, shift = l.FuncField(17)
	assert.Equal(t, 0x04, off)
	assert.Equal(t, uint(21), shift)
	off, shift = l.FuncField(53)
	assert.Equal(t, 0x14, off)
	assert.Equal(t, uint(9), shift)
	assert.Equal(t, uint32(7), l.FuncMask())

	off, mask := l.BitField(l.Set, 17)
	assert.Equal(t, 0x1c, off)
	assert.Equal(t, uint32(1)<<17, mask)
	off, mask = l.BitField(l.Level, 40)
	assert.Equal(t, 0x38, off)
	assert.Equal(t, uint32(1)<<8, mask)
}

func TestParseLayout(t *testing.T) {
	_, err := gpioreg.ParseLayout([]byte(`
name: sunxi-pa
num_lines: 22
func_select: 0x00
func_bits: 4
output: 0x10
level: 0x10
`))
	// output and level overlap
	assert.NotNil(t, err)

	l, err := gpioreg.ParseLayout([]byte(`
name: custom
num_lines: 40
func_select: 0x00
func_bits: 2
output: 0x10
level: 0x20
`))
	require.Nil(t, err)
	assert.Equal(t, gpioreg.Layout{
		Name:       "custom",
		NumLines:   40,
		FuncSelect: 0x00,
		FuncBits:   2,
		Output:     0x10,
		Level:      0x20,
	}, l)
	assert.Equal(t, 0x28, l.Size())

	l, err = gpioreg.ParseLayout([]byte(`
name: bcm
num_lines: 54
func_bits: 3
set_clear: true
set: 0x1c
clear: 0x28
level: 0x34
`))
	require.Nil(t, err)
	l.Name = gpioreg.BCM2835.Name
	assert.Equal(t, gpioreg.BCM2835, l)

	bad := []string{
		"num_lines: [",
		"num_lines: 0\nfunc_bits: 1\noutput: 4\nlevel: 8",
		"num_lines: 8\nfunc_bits: 0\noutput: 4\nlevel: 8",
		"num_lines: 8\nfunc_bits: 33\noutput: 4\nlevel: 8",
		"num_lines: 8\nfunc_bits: 1\noutput: 6\nlevel: 8",
		"num_lines: 8\nfunc_bits: 1\noutput: 0\nlevel: 8",
		"num_lines: 8\nfunc_bits: 1\nset_clear: true\nset: 4\nclear: 4\nlevel: 8",
	}
	for _, y := range bad {
		_, err = gpioreg.ParseLayout([]byte(y))
		assert.NotNil(t, err, y)
	}
}
