// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"os"

	toml "github.com/pelletier/go-toml"
)

const DefaultPath = "/etc/gnss_hal.conf"

// Defaults applied to keys missing from the file.
const (
	DefaultSocket    = "/var/run/gnss_hal.sock"
	DefaultDriver    = "athr"
	DefaultTransport = "gnss"
	DefaultLogLevel  = "info"
	DefaultTopic     = "gnss"
)

type Power struct {
	Chip string `toml:"gpio_chip"`
	Line int    `toml:"gpio_line"`
}

type MQTT struct {
	Broker   string `toml:"broker"`
	ClientID string `toml:"client_id"`
	Topic    string `toml:"topic"`
	QoS      int    `toml:"qos"`
}

type HTTP struct {
	Listen string `toml:"listen"`
}

type Config struct {
	Socket      string `toml:"socket"`
	OwnerGroup  string `toml:"group"`
	Driver      string `toml:"device_driver"`
	Transport   string `toml:"device_transport"`
	DevicePath  string `toml:"device_path"`
	BaudRate    int    `toml:"device_baud_rate"`
	FixInterval int    `toml:"fix_interval"`
	HooksPath   string `toml:"hooks_path"`
	CachePath   string `toml:"agps_directory"`
	LogLevel    string `toml:"log_level"`

	Power Power `toml:"power"`
	MQTT  MQTT  `toml:"mqtt"`
	HTTP  HTTP  `toml:"http"`
}

func Parse(file string) (c *Config, err error) {
	contents, err := os.ReadFile(file)
	if err != nil {
		err = fmt.Errorf("config.Parse(): %w", err)
		return
	}

	return Load(contents)
}

// Load parses a configuration from TOML text and fills in defaults.
func Load(contents []byte) (c *Config, err error) {
	c = &Config{}

	if err = toml.Unmarshal(contents, c); err != nil {
		err = fmt.Errorf("config.Load(): %w", err)
		return
	}

	c.setDefaults()

	if err = c.validate(); err != nil {
		err = fmt.Errorf("config.Load(): %w", err)
	}
	return
}

func (c *Config) setDefaults() {
	if c.Socket == "" {
		c.Socket = DefaultSocket
	}
	if c.Driver == "" {
		c.Driver = DefaultDriver
	}
	if c.Transport == "" {
		c.Transport = DefaultTransport
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.MQTT.Topic == "" {
		c.MQTT.Topic = DefaultTopic
	}
}

func (c *Config) validate() error {
	switch c.Driver {
	case "athr", "ublox", "stm":
	default:
		return fmt.Errorf("unsupported device_driver %q", c.Driver)
	}
	switch c.Transport {
	case "gnss", "serial", "tcp", "unix":
	default:
		return fmt.Errorf("unsupported device_transport %q", c.Transport)
	}
	if c.Transport != "serial" && c.Transport != "gnss" && c.DevicePath == "" {
		return fmt.Errorf("device_path is required for %s transport", c.Transport)
	}
	if c.FixInterval < 0 {
		return fmt.Errorf("fix_interval must not be negative")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt qos must be 0, 1 or 2")
	}
	return nil
}
