// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const full = `
socket = "/tmp/gnss.sock"
group = "gps"
device_driver = "ublox"
device_transport = "serial"
device_path = "/dev/ttyUSB0"
device_baud_rate = 38400
fix_interval = 2
hooks_path = "/etc/gnss_hal/hooks"
agps_directory = "/var/cache/gnss_hal"
log_level = "debug"

[power]
gpio_chip = "gpiochip0"
gpio_line = 17

[mqtt]
broker = "tcp://localhost:1883"
client_id = "hal"
topic = "car/gnss"
qos = 1

[http]
listen = ":8080"
`

func TestParse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gnss_hal.conf")
	require.NoError(t, os.WriteFile(path, []byte(full), 0644))

	c, err := Parse(path)
	require.NoError(t, err)

	assert.Equal(t, &Config{
		Socket:      "/tmp/gnss.sock",
		OwnerGroup:  "gps",
		Driver:      "ublox",
		Transport:   "serial",
		DevicePath:  "/dev/ttyUSB0",
		BaudRate:    38400,
		FixInterval: 2,
		HooksPath:   "/etc/gnss_hal/hooks",
		CachePath:   "/var/cache/gnss_hal",
		LogLevel:    "debug",
		Power:       Power{Chip: "gpiochip0", Line: 17},
		MQTT:        MQTT{Broker: "tcp://localhost:1883", ClientID: "hal", Topic: "car/gnss", QoS: 1},
		HTTP:        HTTP{Listen: ":8080"},
	}, c)
}

func TestParseMissingFile(t *testing.T) {
	_, err := Parse(filepath.Join(t.TempDir(), "nope.conf"))
	assert.Error(t, err)
}

func TestDefaults(t *testing.T) {
	c, err := Load([]byte(`device_path = "/dev/gnss0"`))
	require.NoError(t, err)

	assert.Equal(t, DefaultSocket, c.Socket)
	assert.Equal(t, DefaultDriver, c.Driver)
	assert.Equal(t, DefaultTransport, c.Transport)
	assert.Equal(t, DefaultLogLevel, c.LogLevel)
	assert.Equal(t, DefaultTopic, c.MQTT.Topic)
	assert.Equal(t, 0, c.FixInterval)
	assert.Empty(t, c.MQTT.Broker)
}

func TestInvalid(t *testing.T) {
	tables := []struct {
		name string
		in   string
	}{
		{"syntax", `device_driver = `},
		{"driver", `device_driver = "sirf"`},
		{"transport", `device_transport = "bluetooth"`},
		{"tcp without address", `device_transport = "tcp"`},
		{"negative interval", `fix_interval = -1`},
		{"qos", "[mqtt]\nqos = 3"},
	}

	for _, table := range tables {
		_, err := Load([]byte(table.in))
		assert.Error(t, err, table.name)
	}
}
