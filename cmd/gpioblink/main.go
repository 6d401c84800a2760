// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

// gpioblink toggles a GPIO line at a fixed period.
//
// By default the line is driven through the memory-mapped registers of a
// Raspberry Pi, via /dev/gpiomem.  Do not run this on a device which has the
// line externally driven.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	prefixed "github.com/BertoldVdb/logrus-prefixed-formatter"
	"github.com/sirupsen/logrus"
	gpioreg "github.com/warthog618/go-gpioreg"
	"github.com/warthog618/go-gpioreg/blink"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := loadConfig(args)
	if err == flag.ErrHelp {
		return 0
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	// validated by loadConfig
	level, _ := logrus.ParseLevel(cfg.LogLevel)
	log := newLogger(level)

	l, err := openLine(cfg)
	if err != nil {
		log.WithError(err).Error("initialisation failed")
		return 1
	}
	log.WithFields(logrus.Fields{
		"pin":    cfg.Pin,
		"period": cfg.Period,
	}).Info("blinking")

	// capture exit signals to ensure line is reverted to input on exit.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b := blink.Blinker{
		Writer: l,
		Period: cfg.Period,
		Count:  cfg.Count,
		Logger: log,
	}
	rc := 0
	if err = b.Run(ctx); err != nil {
		log.WithError(err).Error("blink failed")
		rc = 1
	}
	if err = l.Close(); err != nil {
		log.WithError(err).Error("close failed")
		rc = 1
	}
	return rc
}

type line interface {
	blink.Writer
	io.Closer
}

// openLine opens the line to blink, as described by the config.
func openLine(cfg config) (line, error) {
	if cfg.Chip != "" {
		l, err := blink.RequestCdevLine(cfg.Chip, cfg.Pin, "gpioblink")
		if err != nil {
			return nil, err
		}
		return l, nil
	}
	layout, err := cfg.layout()
	if err != nil {
		return nil, err
	}
	l, err := blink.OpenRegisterLine(cfg.Base, cfg.Length, cfg.Pin,
		gpioreg.WithDevice(cfg.Device),
		gpioreg.WithLayout(layout))
	if err != nil {
		return nil, err
	}
	return l, nil
}

func newLogger(level logrus.Level) *logrus.Entry {
	logrus.ErrorKey = "$error"
	logger := logrus.New()
	logger.SetLevel(level)
	customFormatter := new(prefixed.TextFormatter)
	customFormatter.TimestampFormat = "2006-01-02 15:04:05"
	customFormatter.FullTimestamp = true
	customFormatter.PrefixPadding = 20
	customFormatter.SpacePadding = 50
	logger.SetFormatter(customFormatter)
	return logrus.NewEntry(logger).WithField("prefix", "gpioblink")
}
