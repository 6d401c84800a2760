// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

// Package mecca drives a chain of Meccano smart modules, such as the servos
// and LEDs of a Meccanoid, over a single bit-banged GPIO line.
//
// Each exchange sends a six byte frame to the chain:
//
//	0xFF, data1, data2, data3, data4, checksum|module
//
// with each byte framed as a low start bit, eight data bits LSB first, and
// two high stop bits, each lasting BitDelay.  The line is then switched to an
// input and the module selected in the frame replies with a single byte,
// sampled LSB first every ReadBitDelay.
package mecca

import (
	"context"
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	gpioreg "github.com/warthog618/go-gpioreg"
)

const (
	// BitDelay is the duration of each transmitted bit.
	BitDelay = 417 * time.Microsecond

	// ReadBitDelay is the interval between samples of the reply.
	ReadBitDelay = 2500 * time.Microsecond

	// ReplyDelay is the time allowed for the module to start its reply
	// after the frame is sent.
	ReplyDelay = 500 * time.Millisecond

	// Header is the first byte of every frame.
	Header = 0xff

	// NumModules is the maximum number of modules in a chain.
	NumModules = 4
)

// Line is a GPIO line that can be switched between output and input.
//
// A *gpioreg.Line is a Line.
type Line interface {
	SetMode(gpioreg.Mode) error
	Write(gpioreg.Level) error
	Read() (gpioreg.Level, error)
}

// Sleeper waits for the duration, returning early with the context's error
// if the context is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Brain is the controller end of a chain of smart modules.
//
// A Brain is not safe for concurrent use.
type Brain struct {
	Line Line

	// The position in the chain, 0..NumModules-1, of the module to reply.
	Module int

	// Optional.  Defaults to a timer based sleep.
	Sleep Sleeper

	// Optional.
	Logger logrus.FieldLogger

	data [NumModules]byte
}

// SetColor sets the data byte sent to the module at the position in the
// chain.
func (b *Brain) SetColor(module int, c byte) error {
	if module < 0 || module >= NumModules {
		return &gpioreg.OutOfRangeError{Kind: "module", Value: module, Limit: NumModules}
	}
	b.data[module] = c
	return nil
}

// Data returns the data bytes sent in each frame.
func (b *Brain) Data() [NumModules]byte {
	return b.data
}

// Frame returns the bytes sent by Communicate.
func (b *Brain) Frame() []byte {
	return []byte{
		Header,
		b.data[0], b.data[1], b.data[2], b.data[3],
		Checksum(b.data, b.Module),
	}
}

// Communicate sends the frame to the chain and returns the reply from the
// selected module.
//
// The line is left as an input.
func (b *Brain) Communicate(ctx context.Context) (byte, error) {
	if b.Line == nil {
		return 0, errors.New("no line")
	}
	if b.Module < 0 || b.Module >= NumModules {
		return 0, &gpioreg.OutOfRangeError{Kind: "module", Value: b.Module, Limit: NumModules}
	}
	log := b.logger()
	if err := b.Line.SetMode(gpioreg.ModeOutput); err != nil {
		return 0, err
	}
	frame := b.Frame()
	for _, v := range frame {
		if err := b.send(ctx, v); err != nil {
			return 0, err
		}
	}
	log.WithField("frame", frame).Debug("sent")
	r, err := b.receive(ctx)
	if err != nil {
		return 0, err
	}
	log.WithFields(logrus.Fields{
		"module": b.Module,
		"reply":  r,
	}).Debug("received")
	return r, nil
}

// send writes one byte, framed by start and stop bits.
func (b *Brain) send(ctx context.Context, v byte) error {
	if err := b.bit(ctx, gpioreg.Low); err != nil {
		return err
	}
	for i := 0; i < 8; i++ {
		if err := b.bit(ctx, gpioreg.Level(v>>i&1)); err != nil {
			return err
		}
	}
	for i := 0; i < 2; i++ {
		if err := b.bit(ctx, gpioreg.High); err != nil {
			return err
		}
	}
	return nil
}

func (b *Brain) bit(ctx context.Context, v gpioreg.Level) error {
	if err := b.Line.Write(v); err != nil {
		return errors.Wrap(err, "write")
	}
	return b.sleep(ctx, BitDelay)
}

// receive reads the reply byte.
func (b *Brain) receive(ctx context.Context) (byte, error) {
	if err := b.Line.SetMode(gpioreg.ModeInput); err != nil {
		return 0, err
	}
	if err := b.sleep(ctx, ReplyDelay); err != nil {
		return 0, err
	}
	var r byte
	for i := 0; i < 8; i++ {
		v, err := b.Line.Read()
		if err != nil {
			return 0, errors.Wrap(err, "read")
		}
		if v == gpioreg.High {
			r |= 1 << i
		}
		if err = b.sleep(ctx, ReadBitDelay); err != nil {
			return 0, err
		}
	}
	return r, nil
}

func (b *Brain) sleep(ctx context.Context, d time.Duration) error {
	if b.Sleep != nil {
		return b.Sleep(ctx, d)
	}
	return Sleep(ctx, d)
}

func (b *Brain) logger() logrus.FieldLogger {
	if b.Logger != nil {
		return b.Logger
	}
	l := logrus.New()
	l.Out = io.Discard
	return l
}

// Sleep waits for the duration or until the context is done.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Checksum returns the final byte of the frame, which combines a checksum of
// the data in the upper nibble with the position of the replying module in
// the lower.
func Checksum(data [NumModules]byte, module int) byte {
	cs := 0
	for _, v := range data {
		cs += int(v)
	}
	cs += cs >> 8
	cs += cs << 4
	return byte(cs&0xf0) | byte(module&0x0f)
}
