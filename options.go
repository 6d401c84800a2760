// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

package gpioreg

// OpenOption defines the interface required to provide an option to Open.
type OpenOption interface {
	applyOpenOption(*openConfig)
}

// openConfig contains the configuration for a bank being opened.
type openConfig struct {
	mapper Mapper
	layout Layout
}

// LayoutOption is an option that defines the register layout of the bank.
type LayoutOption struct {
	Layout
}

// WithLayout returns an option that sets the register layout of the bank.
//
// The default is BCM2835.
func WithLayout(l Layout) LayoutOption {
	return LayoutOption{l}
}

func (o LayoutOption) applyOpenOption(c *openConfig) {
	c.layout = o.Layout
}

// MapperOption is an option that defines how the bank is mapped.
type MapperOption struct {
	Mapper
}

// WithMapper returns an option that sets the Mapper used to map the bank.
//
// The default is Memory, i.e. /dev/mem.
func WithMapper(m Mapper) MapperOption {
	return MapperOption{m}
}

func (o MapperOption) applyOpenOption(c *openConfig) {
	c.mapper = o.Mapper
}

// DeviceOption is an option that maps the bank through a memory device file.
type DeviceOption string

// WithDevice returns an option that maps the bank through the named device.
//
// The path "/dev/gpiomem" is treated as relative, as per GPIOMem.
func WithDevice(path string) DeviceOption {
	return DeviceOption(path)
}

func (o DeviceOption) applyOpenOption(c *openConfig) {
	if string(o) == GPIOMem.Path {
		c.mapper = GPIOMem
		return
	}
	c.mapper = DevMem{Path: string(o)}
}
