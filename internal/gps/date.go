// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package gps

import (
	"math"
	"time"

	"github.com/ahmedammar/platform-hardware-imx/internal/nmea"
)

// dateContext holds the last UTC date seen in an RMC or ZDA sentence. Time
// of day arrives separately and is combined with it.
type dateContext struct {
	year int
	mon  int
	day  int
}

func newDateContext() dateContext {
	return dateContext{year: -1, mon: -1, day: -1}
}

func (d dateContext) valid() bool {
	return d.year >= 0 && d.mon > 0 && d.day > 0
}

// setDDMMYY takes an RMC date field. Two digit years are mapped to 20yy with
// no century pivot.
func (d *dateContext) setDDMMYY(tok nmea.Token) bool {
	if len(tok) != 6 {
		return false
	}
	day := nmea.ParseInt(tok[0:2])
	mon := nmea.ParseInt(tok[2:4])
	year := nmea.ParseInt(tok[4:6])
	if day < 0 || mon < 0 || year < 0 {
		return false
	}

	d.year = year + 2000
	d.mon = mon
	d.day = day
	return true
}

// setDayMonthYear takes the separate ZDA day, month and four digit year
// fields.
func (d *dateContext) setDayMonthYear(day, mon, year nmea.Token) bool {
	if len(day) < 2 || len(mon) < 2 || len(year) < 4 {
		return false
	}
	dd := nmea.ParseInt(day[:2])
	mm := nmea.ParseInt(mon[:2])
	yy := nmea.ParseInt(year[:4])
	if dd < 0 || mm < 0 || yy < 0 {
		return false
	}

	d.year = yy
	d.mon = mm
	d.day = dd
	return true
}

// timestamp converts an hhmmss.sss token into milliseconds since the epoch,
// using the held date or the host's UTC date when none has been seen yet.
func (d dateContext) timestamp(tok nmea.Token, now time.Time) (int64, bool) {
	if len(tok) < 6 {
		return 0, false
	}

	hour := nmea.ParseInt(tok[0:2])
	minute := nmea.ParseInt(tok[2:4])
	seconds := nmea.ParseFloat(tok[4:])
	if hour < 0 || minute < 0 || seconds < 0 {
		return 0, false
	}

	year, mon, day := d.year, time.Month(d.mon), d.day
	if !d.valid() {
		year, mon, day = now.UTC().Date()
	}

	whole, frac := math.Modf(seconds)
	t := time.Date(year, mon, day, hour, minute, int(whole), int(math.Round(frac*1e3))*int(time.Millisecond), time.UTC)
	return t.UnixMilli(), true
}
