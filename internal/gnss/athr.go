// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package gnss

import (
	"fmt"
	"io"
	"time"

	"github.com/ahmedammar/platform-hardware-imx/internal/nmea"
)

const defaultSettle = time.Second

var (
	athrWakeup = nmea.Sentence{Type: "PUNV", Data: []string{"WAKEUP"}}
	athrSleep  = nmea.Sentence{Type: "PUNV", Data: []string{"SLEEP"}}
)

// Athr drives Atheros receivers through the PUNV vendor sentences.
type Athr struct {
	// Settle is how long Init waits for the receiver after the device is
	// opened.
	Settle time.Duration
}

func NewAthr() *Athr {
	return &Athr{Settle: defaultSettle}
}

// Init only waits for the receiver to settle. Control sends the stop
// afterwards so the stop hook is honored.
func (a *Athr) Init(w io.Writer) error {
	time.Sleep(a.Settle)
	return nil
}

func (a *Athr) Start(w io.Writer) error {
	if err := write(w, athrWakeup.Bytes()); err != nil {
		return fmt.Errorf("gnss/Athr.Start: %w", err)
	}
	return nil
}

func (a *Athr) Stop(w io.Writer) error {
	if err := write(w, athrSleep.Bytes()); err != nil {
		return fmt.Errorf("gnss/Athr.Stop: %w", err)
	}
	return nil
}

func (a *Athr) Deinit(w io.Writer) error {
	return nil
}
