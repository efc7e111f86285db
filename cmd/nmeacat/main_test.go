// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmedammar/platform-hardware-imx/internal/server"
)

const capture = "$GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W*6A\r\n" +
	"$GPGSV,1,1,02,03,03,111,00,04,15,270,00*7F\r\n" +
	"$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47\r\n"

func TestCat(t *testing.T) {
	var out, errOut bytes.Buffer
	c := &cat{out: &out, errOut: &errOut}
	require.NoError(t, c.run(strings.NewReader(capture), 0, zerolog.Nop()))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)

	var m server.Message
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &m))
	assert.Equal(t, "location", m.Type)
	assert.InDelta(t, 22.4, m.Location.Speed, 1e-9)

	require.NoError(t, json.Unmarshal([]byte(lines[1]), &m))
	assert.Equal(t, "satellites", m.Type)
	assert.Len(t, m.Satellites, 2)

	m = server.Message{}
	require.NoError(t, json.Unmarshal([]byte(lines[2]), &m))
	assert.InDelta(t, 545.4, m.Location.Altitude, 1e-9)
	assert.Empty(t, errOut.String())
}

func TestCatValidate(t *testing.T) {
	var out, errOut bytes.Buffer
	c := &cat{out: &out, errOut: &errOut, validate: true}

	in := capture + "$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*00\r\n"
	require.NoError(t, c.run(strings.NewReader(in), 0, zerolog.Nop()))

	assert.Equal(t, 1, c.bad)
	assert.Contains(t, errOut.String(), "*00")
}
