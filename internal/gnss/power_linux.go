// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

//go:build linux

package gnss

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

const powerConsumer = "gnss_hal"

type gpioPower struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

// OpenPowerLine requests offset on chip (e.g. "gpiochip0") as an output,
// initially off.
func OpenPowerLine(chip string, offset int) (PowerLine, error) {
	c, err := gpiocdev.NewChip(chip)
	if err != nil {
		return nil, fmt.Errorf("gnss/OpenPowerLine: %w", err)
	}
	l, err := c.RequestLine(offset, gpiocdev.AsOutput(0), gpiocdev.WithConsumer(powerConsumer))
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("gnss/OpenPowerLine: line %d: %w", offset, err)
	}
	return &gpioPower{chip: c, line: l}, nil
}

func (g *gpioPower) Set(on bool) error {
	if g.line == nil {
		return fmt.Errorf("gnss/gpioPower.Set: line released")
	}
	v := 0
	if on {
		v = 1
	}
	return g.line.SetValue(v)
}

func (g *gpioPower) Close() error {
	if g.line == nil {
		return nil
	}
	_ = g.line.SetValue(0)
	err := g.line.Close()
	g.line = nil
	_ = g.chip.Close()
	return err
}
