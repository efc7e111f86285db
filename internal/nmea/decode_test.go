// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package nmea

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseInt(t *testing.T) {
	tables := []struct {
		in       string
		expected int
	}{
		{"", -1},
		{"0", 0},
		{"08", 8},
		{"123519", 123519},
		{"12a", -1},
		{"-3", -1},
		{" 1", -1},
	}

	for _, table := range tables {
		assert.Equal(t, table.expected, ParseInt(Token(table.in)), "%q", table.in)
	}
}

func TestParseFloat(t *testing.T) {
	tables := []struct {
		in       string
		expected float64
	}{
		{"", -1},
		{"545.4", 545.4},
		{"-12.5", -12.5},
		{"0.9", 0.9},
		{"19.00", 19},
		{"1e3", 1000},
		{"12.5M", 12.5},
		{"M", 0},
		{strings.Repeat("1", 32), 0},
	}

	for _, table := range tables {
		assert.InDelta(t, table.expected, ParseFloat(Token(table.in)), 1e-9, "%q", table.in)
	}
}

func TestConvertDegreesMinutes(t *testing.T) {
	tables := []struct {
		in       string
		expected float64
	}{
		{"4916.45", 49 + 16.45/60},
		{"4807.038", 48 + 7.038/60},
		{"01131.000", 11 + 31.0/60},
		{"12311.12", 123 + 11.12/60},
		{"0000.00000", 0},
	}

	for _, table := range tables {
		assert.InDelta(t, table.expected, ConvertDegreesMinutes(Token(table.in)), 1e-9, "%q", table.in)
	}

	assert.InDelta(t, 49.274166, ConvertDegreesMinutes(Token("4916.45")), 1e-6)
}
