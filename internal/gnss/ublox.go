// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package gnss

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/ahmedammar/platform-hardware-imx/internal/nmea"
)

// messages the reader consumes
var ubloxMessages = []string{"GGA", "GLL", "ZDA", "VTG", "GSA", "GSV", "RMC"}

const (
	ubloxActiveRate = 1
	ubloxIdleRate   = 10
)

// Ublox drives u-blox receivers by changing the output rate of the standard
// NMEA messages with PUBX,40.
type Ublox struct {
	Settle time.Duration
}

func NewUblox() *Ublox {
	return &Ublox{Settle: defaultSettle}
}

// rateCommands returns PUBX,40 sentences setting every message to rate on
// DDC, USART1 and USART2, with USB left off.
func rateCommands(rate int) [][]byte {
	r := strconv.Itoa(rate)
	cmds := make([][]byte, 0, len(ubloxMessages))
	for _, msg := range ubloxMessages {
		s := nmea.Sentence{Type: "PUBX", Data: []string{"40", msg, r, r, r, "0"}}
		cmds = append(cmds, s.Bytes())
	}
	return cmds
}

func (u *Ublox) Init(w io.Writer) error {
	time.Sleep(u.Settle)
	return nil
}

func (u *Ublox) Start(w io.Writer) error {
	if err := write(w, rateCommands(ubloxActiveRate)...); err != nil {
		return fmt.Errorf("gnss/Ublox.Start: %w", err)
	}
	return nil
}

func (u *Ublox) Stop(w io.Writer) error {
	if err := write(w, rateCommands(ubloxIdleRate)...); err != nil {
		return fmt.Errorf("gnss/Ublox.Stop: %w", err)
	}
	return nil
}

func (u *Ublox) Deinit(w io.Writer) error {
	return nil
}
