// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

package main

import (
	"flag"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	gpioreg "github.com/warthog618/go-gpioreg"
	"gopkg.in/yaml.v3"
)

type config struct {
	// Memory device the registers are mapped through.
	Device string `yaml:"device"`

	// Physical address and length of the GPIO register block.
	Base   uint64 `yaml:"base"`
	Length int    `yaml:"length"`

	// Name of a predefined layout, ignored if LayoutFile is set.
	Layout     string `yaml:"layout"`
	LayoutFile string `yaml:"layout_file"`

	Pin    int           `yaml:"pin"`
	Period time.Duration `yaml:"period"`
	Count  int           `yaml:"count"`

	// If set the line is driven through this gpiochip rather than the
	// registers.
	Chip string `yaml:"chip"`

	LogLevel string `yaml:"log_level"`
}

func defaultConfig() config {
	return config{
		Device: gpioreg.GPIOMem.Path,
		Base:   gpioreg.BCM2836Base,
		Length: 4096,
		Layout: gpioreg.BCM2835.Name,
		// J8-19
		Pin:      10,
		Period:   time.Second,
		LogLevel: logrus.InfoLevel.String(),
	}
}

// loadConfig builds the config from the defaults, then the config file, if
// any, then any flags explicitly set.
func loadConfig(args []string) (config, error) {
	cfg := defaultConfig()
	fl := cfg
	fs := flag.NewFlagSet("gpioblink", flag.ContinueOnError)
	path := fs.String("config", "", "YAML config file")
	fs.StringVar(&fl.Device, "device", fl.Device, "memory device to map the registers from")
	fs.Uint64Var(&fl.Base, "base", fl.Base, "physical address of the GPIO registers")
	fs.IntVar(&fl.Length, "length", fl.Length, "length of the GPIO register block")
	fs.StringVar(&fl.Layout, "layout", fl.Layout, "register layout (bcm2835 or generic)")
	fs.StringVar(&fl.LayoutFile, "layout-file", fl.LayoutFile, "YAML register layout, overrides -layout")
	fs.IntVar(&fl.Pin, "pin", fl.Pin, "line to blink")
	fs.DurationVar(&fl.Period, "period", fl.Period, "blink period")
	fs.IntVar(&fl.Count, "count", fl.Count, "number of blinks, 0 for no limit")
	fs.StringVar(&fl.Chip, "chip", fl.Chip, "drive the line through this gpiochip instead of the registers")
	fs.StringVar(&fl.LogLevel, "loglevel", fl.LogLevel, "log level")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if *path != "" {
		data, err := os.ReadFile(*path)
		if err != nil {
			return cfg, errors.Wrap(err, "read config")
		}
		if err = yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, errors.Wrapf(err, "parse config %s", *path)
		}
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "device":
			cfg.Device = fl.Device
		case "base":
			cfg.Base = fl.Base
		case "length":
			cfg.Length = fl.Length
		case "layout":
			cfg.Layout = fl.Layout
		case "layout-file":
			cfg.LayoutFile = fl.LayoutFile
		case "pin":
			cfg.Pin = fl.Pin
		case "period":
			cfg.Period = fl.Period
		case "count":
			cfg.Count = fl.Count
		case "chip":
			cfg.Chip = fl.Chip
		case "loglevel":
			cfg.LogLevel = fl.LogLevel
		}
	})
	return cfg, cfg.validate()
}

func (c config) validate() error {
	if c.Period <= 0 {
		return errors.Errorf("period must be positive, not %s", c.Period)
	}
	if c.Count < 0 {
		return errors.Errorf("count must not be negative, not %d", c.Count)
	}
	if c.Pin < 0 {
		return errors.Errorf("pin must not be negative, not %d", c.Pin)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// layout returns the register layout described by the config.
func (c config) layout() (gpioreg.Layout, error) {
	if c.LayoutFile != "" {
		data, err := os.ReadFile(c.LayoutFile)
		if err != nil {
			return gpioreg.Layout{}, errors.Wrap(err, "read layout")
		}
		return gpioreg.ParseLayout(data)
	}
	l, ok := gpioreg.LayoutByName(c.Layout)
	if !ok {
		return gpioreg.Layout{}, errors.Errorf("unknown layout '%s'", c.Layout)
	}
	return l, nil
}
