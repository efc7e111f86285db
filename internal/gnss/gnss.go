// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package gnss

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sort"
	"strings"
	"time"

	"github.com/tarm/serial"
	bugst "go.bug.st/serial"

	"github.com/ahmedammar/platform-hardware-imx/internal/gps"
)

// Device transports.
const (
	TransportGnss   = "gnss"
	TransportSerial = "serial"
	TransportTCP    = "tcp"
	TransportUnix   = "unix"
)

var (
	ErrUnknownTransport = errors.New("gnss: unknown transport")
	ErrUnknownDriver    = errors.New("gnss: unknown driver")
	ErrNoPort           = errors.New("gnss: no serial port found")
)

// Opener opens the receiver device. It is called once per session Init.
type Opener func() (io.ReadWriteCloser, error)

const dialTimeout = 5 * time.Second

// NewOpener returns an Opener for the given transport. For "gnss" the path
// is a kernel GNSS character device (or a tty, which is switched to raw
// mode), for "serial" a tty opened at baud, and for "tcp" and "unix" a
// socket address.
func NewOpener(transport, path string, baud int) (Opener, error) {
	switch transport {
	case TransportGnss, "":
		return func() (io.ReadWriteCloser, error) {
			f, err := openCharDevice(path)
			if err != nil {
				return nil, fmt.Errorf("gnss/Opener: %w", err)
			}
			return f, nil
		}, nil
	case TransportSerial:
		conf := &serial.Config{Name: path, Baud: baud}
		return func() (io.ReadWriteCloser, error) {
			p, err := serial.OpenPort(conf)
			if err != nil {
				return nil, fmt.Errorf("gnss/Opener: %w", err)
			}
			return p, nil
		}, nil
	case TransportTCP, TransportUnix:
		return func() (io.ReadWriteCloser, error) {
			c, err := net.DialTimeout(transport, path, dialTimeout)
			if err != nil {
				return nil, fmt.Errorf("gnss/Opener: %w", err)
			}
			return c, nil
		}, nil
	}
	return nil, fmt.Errorf("gnss/NewOpener: %w: %q", ErrUnknownTransport, transport)
}

var portsList = bugst.GetPortsList

// DetectPort returns the first serial port, in name order, that looks like a
// GNSS receiver: USB serial adapters and ACM modems first, any other tty
// after that.
func DetectPort() (string, error) {
	ports, err := portsList()
	if err != nil {
		return "", fmt.Errorf("gnss/DetectPort: %w", err)
	}
	sort.Strings(ports)

	var fallback string
	for _, p := range ports {
		if strings.Contains(p, "ttyUSB") || strings.Contains(p, "ttyACM") {
			return p, nil
		}
		if fallback == "" && strings.Contains(p, "tty") {
			fallback = p
		}
	}
	if fallback == "" {
		return "", ErrNoPort
	}
	return fallback, nil
}

// DefaultBaud is the baud rate a driver's receivers ship with.
func DefaultBaud(driver string) int {
	if driver == "athr" {
		return 115200
	}
	return 9600
}

// NewDriver returns the chip driver with the given name. cacheDir is where
// the stm driver looks for stored assistance data.
func NewDriver(name, cacheDir string) (gps.Driver, error) {
	switch name {
	case "athr":
		return NewAthr(), nil
	case "ublox":
		return NewUblox(), nil
	case "stm":
		return &Stm{CacheDir: cacheDir}, nil
	}
	return nil, fmt.Errorf("gnss/NewDriver: %w: %q", ErrUnknownDriver, name)
}

// write sends command sentences to the receiver, stopping at the first error.
func write(w io.Writer, cmds ...[]byte) error {
	for _, c := range cmds {
		if _, err := w.Write(c); err != nil {
			return err
		}
	}
	return nil
}
