// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

// Package blink periodically toggles a GPIO line.
package blink

import (
	"context"
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	gpioreg "github.com/warthog618/go-gpioreg"
)

// Writer drives a line to a level.
type Writer interface {
	Write(gpioreg.Level) error
}

// Blinker drives a line high for half of each period and low for the other
// half.
type Blinker struct {
	Writer Writer

	// The duration of one high/low cycle.
	Period time.Duration

	// The number of cycles to run.  Zero runs until the context is done.
	Count int

	// Optional.
	Logger logrus.FieldLogger
}

// Run blinks the line until the context is done or Count cycles have
// completed.
//
// The line is left low.  Cancelling the context is not an error.
func (b *Blinker) Run(ctx context.Context) (err error) {
	if b.Writer == nil {
		return errors.New("no writer")
	}
	if b.Period <= 0 {
		return errors.Errorf("invalid period %s", b.Period)
	}
	log := b.Logger
	if log == nil {
		l := logrus.New()
		l.Out = io.Discard
		log = l
	}
	half := b.Period / 2
	v := gpioreg.High
	defer func() {
		if v == gpioreg.Low {
			// last write was high
			if lerr := b.Writer.Write(gpioreg.Low); lerr != nil && err == nil {
				err = errors.Wrap(lerr, "write")
			}
		}
	}()
	for cycle := 0; b.Count == 0 || cycle < b.Count; {
		log.WithField("level", v).Debug("set level")
		if err = b.Writer.Write(v); err != nil {
			// don't retry the write on the way out
			v = gpioreg.High
			return errors.Wrap(err, "write")
		}
		if v == gpioreg.Low {
			v = gpioreg.High
		} else {
			v = gpioreg.Low
		}
		select {
		case <-ctx.Done():
			log.Debug("stopped")
			return nil
		case <-time.After(half):
		}
		if v == gpioreg.High {
			cycle++
		}
	}
	return nil
}
