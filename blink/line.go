// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

package blink

import (
	"github.com/pkg/errors"
	gpioreg "github.com/warthog618/go-gpioreg"
	"github.com/warthog618/go-gpiocdev"
)

// RegisterLine is an output line driven through memory-mapped registers.
type RegisterLine struct {
	*gpioreg.Line
	bank *gpioreg.Bank
}

// OpenRegisterLine maps the register bank and sets the line to be an output.
func OpenRegisterLine(base uint64, length, offset int, options ...gpioreg.OpenOption) (*RegisterLine, error) {
	b, err := gpioreg.Open(base, length, options...)
	if err != nil {
		return nil, err
	}
	l, err := b.Line(offset)
	if err == nil {
		err = l.SetMode(gpioreg.ModeOutput)
	}
	if err != nil {
		b.Close()
		return nil, err
	}
	return &RegisterLine{Line: l, bank: b}, nil
}

// Close returns the line to an input and unmaps the bank.
func (r *RegisterLine) Close() error {
	err := r.SetMode(gpioreg.ModeInput)
	if cerr := r.bank.Close(); err == nil {
		err = cerr
	}
	return err
}

// CdevLine is an output line driven through the GPIO character device.
type CdevLine struct {
	l *gpiocdev.Line
}

// RequestCdevLine requests the line from the named chip, e.g. "gpiochip0",
// as an output driven low.
func RequestCdevLine(chip string, offset int, consumer string) (*CdevLine, error) {
	l, err := gpiocdev.RequestLine(chip, offset,
		gpiocdev.AsOutput(0),
		gpiocdev.WithConsumer(consumer))
	if err != nil {
		return nil, errors.Wrapf(err, "request %s:%d", chip, offset)
	}
	return &CdevLine{l}, nil
}

// Write drives the line to the level.
func (c *CdevLine) Write(v gpioreg.Level) error {
	return c.l.SetValue(int(v))
}

// Close returns the line to an input and releases it.
func (c *CdevLine) Close() error {
	err := c.l.Reconfigure(gpiocdev.AsInput)
	if cerr := c.l.Close(); err == nil {
		err = cerr
	}
	return err
}
