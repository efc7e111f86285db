// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package gnss

import (
	"context"
	"io"

	"github.com/rs/zerolog"

	"github.com/ahmedammar/platform-hardware-imx/internal/gps"
)

// PowerLine switches the receiver's supply.
type PowerLine interface {
	Set(on bool) error
	Close() error
}

// Control wraps a chip driver with the start/stop hooks and an optional
// power line. The power line is raised before the start command and lowered
// after the stop command. It stays requested across device sessions until
// Close.
type Control struct {
	Driver gps.Driver
	Hooks  Hooks
	Power  PowerLine
	Log    zerolog.Logger
}

var _ gps.Driver = (*Control)(nil)

// Init runs the driver's bring-up and then leaves the receiver stopped,
// through the stop hook when there is one.
func (c *Control) Init(w io.Writer) error {
	if err := c.Driver.Init(w); err != nil {
		return err
	}
	return c.Stop(w)
}

func (c *Control) Start(w io.Writer) error {
	c.setPower(true)
	if c.Hooks.Run(context.Background(), "start") {
		c.Log.Info().Msg("start hook handled session start")
		return nil
	}
	return c.Driver.Start(w)
}

func (c *Control) Stop(w io.Writer) (err error) {
	if c.Hooks.Run(context.Background(), "stop") {
		c.Log.Info().Msg("stop hook handled session stop")
	} else {
		err = c.Driver.Stop(w)
	}
	c.setPower(false)
	return
}

func (c *Control) Deinit(w io.Writer) error {
	err := c.Driver.Deinit(w)
	c.setPower(false)
	return err
}

// Close releases the power line. The Control must not be used afterwards.
func (c *Control) Close() error {
	if c.Power == nil {
		return nil
	}
	return c.Power.Close()
}

func (c *Control) setPower(on bool) {
	if c.Power == nil {
		return
	}
	if err := c.Power.Set(on); err != nil {
		c.Log.Error().Err(err).Bool("on", on).Msg("could not switch receiver power")
	}
}
