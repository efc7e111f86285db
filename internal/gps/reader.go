// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package gps

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ahmedammar/platform-hardware-imx/internal/nmea"
)

const (
	// MaxSentenceSize is the line buffer capacity, the NMEA maximum.
	MaxSentenceSize = 83

	// lines shorter than this cannot carry an ID and a payload
	minSentenceSize = 9

	// reported accuracy meaning "unknown"
	unknownAccuracy = 99.99
)

// Reader accumulates bytes into lines and parses every complete line into
// the aggregated fix and satellite status. Parsing happens with the lock
// held, so the fix is never observed half updated by whoever else holds it.
//
// Fix, SvStatus and the Clear* methods must be called with the lock held.
type Reader struct {
	// OnSentence receives a copy of every line long enough to be parsed,
	// before it is interpreted. Called with the lock held.
	OnSentence func(timestamp int64, line []byte)
	// OnParsed runs after each parsed line, with the lock held.
	OnParsed func(r *Reader)
	// Now is the clock used for raw sentence timestamps and as the date
	// fallback. Defaults to time.Now.
	Now func() time.Time

	log  zerolog.Logger
	lock sync.Locker

	pos      int
	overflow bool
	in       [MaxSentenceSize + 1]byte
	tz       nmea.Tokenizer

	date            dateContext
	fix             Location
	svStatus        SvStatus
	svStatusChanged bool
	gsaFixed        bool
	timemap         TimeMap
}

// NewReader returns a Reader that parses under lock. A nil lock gets a
// private mutex.
func NewReader(lock sync.Locker, logger zerolog.Logger) *Reader {
	if lock == nil {
		lock = &sync.Mutex{}
	}
	return &Reader{
		Now:  time.Now,
		log:  logger,
		lock: lock,
		date: newDateContext(),
	}
}

// Feed passes every byte of p to AddByte.
func (r *Reader) Feed(p []byte) {
	for _, c := range p {
		r.AddByte(c)
	}
}

// AddByte appends c to the current line. A line exceeding the buffer puts
// the reader in overflow, dropping bytes until the next '\n'.
func (r *Reader) AddByte(c byte) {
	if r.overflow {
		r.overflow = c != '\n'
		return
	}

	if r.pos >= MaxSentenceSize {
		r.log.Debug().Msg("sentence too long, discarding until end of line")
		r.overflow = true
		r.pos = 0
		return
	}

	r.in[r.pos] = c
	r.pos++

	if c == '\n' {
		r.lock.Lock()
		r.parse(r.in[:r.pos])
		if r.OnParsed != nil {
			r.OnParsed(r)
		}
		r.lock.Unlock()
		r.pos = 0
	}
}

// Overflowed reports whether the reader is discarding an overlong line.
func (r *Reader) Overflowed() bool {
	return r.overflow
}

// Pending returns the number of bytes buffered for the current line.
func (r *Reader) Pending() int {
	return r.pos
}

func (r *Reader) Fix() Location {
	return r.fix
}

// ClearFix drops all location flags once the fix was delivered.
func (r *Reader) ClearFix() {
	r.fix.Flags = 0
}

// SvStatus returns the satellite status and whether it changed since the
// last ClearSvStatusChanged.
func (r *Reader) SvStatus() (SvStatus, bool) {
	return r.svStatus, r.svStatusChanged
}

func (r *Reader) ClearSvStatusChanged() {
	r.svStatusChanged = false
}

// TakeTimeMap returns the system time correlated with the current fix
// timestamp, if any, and invalidates it.
func (r *Reader) TakeTimeMap() (float64, bool) {
	if !r.timemap.Valid || r.timemap.Timestamp != r.fix.Timestamp {
		return 0, false
	}
	r.timemap.Valid = false
	return r.timemap.SysTime, true
}

func (r *Reader) parse(line []byte) {
	if len(line) < minSentenceSize {
		r.log.Debug().Int("len", len(line)).Msg("sentence too short, discarded")
		return
	}

	if r.OnSentence != nil {
		r.OnSentence(r.Now().UnixMilli(), append([]byte(nil), line...))
	}

	r.tz.Tokenize(line)
	id := r.tz.Get(0)

	if len(id) < 5 {
		if id.HasPrefix("PUNV") {
			r.parseVendor()
			return
		}
		r.log.Debug().Str("id", id.String()).Msg("sentence id too short, ignored")
		return
	}

	// skip the talker ID
	switch string(id[2:5]) {
	case "GGA":
		r.parseGGA()
	case "GLL":
		r.parseGLL()
	case "GSA":
		r.parseGSA()
	case "GSV":
		r.parseGSV()
	case "RMC":
		r.parseRMC()
	case "VTG":
		r.parseVTG()
	case "ZDA":
		r.parseZDA()
	default:
		r.log.Debug().Str("id", id.String()).Msg("unknown sentence")
	}
}

func (r *Reader) parseGGA() {
	if r.tz.Get(6).First() <= '0' {
		return
	}

	r.updateTime(r.tz.Get(1))
	r.updateLatLong(r.tz.Get(2), r.tz.Get(3).First(), r.tz.Get(4), r.tz.Get(5).First())
	r.updateAltitude(r.tz.Get(9))
}

func (r *Reader) parseGLL() {
	if r.tz.Get(6).First() != 'A' {
		return
	}

	r.updateTime(r.tz.Get(5))
	r.updateLatLong(r.tz.Get(1), r.tz.Get(2).First(), r.tz.Get(3), r.tz.Get(4).First())
}

func (r *Reader) parseGSA() {
	mode := r.tz.Get(2).First()
	if mode == 0 || mode == '1' {
		if r.gsaFixed {
			r.log.Debug().Msg("GSA fixed -> unfixed")
			r.svStatus.UsedInFixMask = 0
			r.svStatusChanged = true
			r.gsaFixed = false
		}
		return
	}

	r.svStatus.UsedInFixMask = 0
	for i := 3; i <= 14; i++ {
		prn := nmea.ParseInt(r.tz.Get(i))
		if prn < 1 || prn > 32 {
			continue
		}
		r.svStatus.UsedInFixMask |= 1 << uint(prn-1)
		r.svStatusChanged = true
		r.gsaFixed = true
	}
}

func (r *Reader) parseGSV() {
	numSatellites := nmea.ParseInt(r.tz.Get(3))
	if numSatellites <= 0 {
		return
	}

	totalSentences := nmea.ParseInt(r.tz.Get(1))
	sentence := nmea.ParseInt(r.tz.Get(2))

	if sentence == 1 {
		r.svStatusChanged = false
		r.svStatus.NumSvs = 0
	}

	for i := 0; i < 4 && r.svStatus.NumSvs < numSatellites && r.svStatus.NumSvs < MaxSvs; i++ {
		r.svStatus.List[r.svStatus.NumSvs] = SvInfo{
			PRN:       nmea.ParseInt(r.tz.Get(i*4 + 4)),
			Elevation: nmea.ParseFloat(r.tz.Get(i*4 + 5)),
			Azimuth:   nmea.ParseFloat(r.tz.Get(i*4 + 6)),
			SNR:       nmea.ParseFloat(r.tz.Get(i*4 + 7)),
		}
		r.svStatus.NumSvs++
	}

	if sentence == totalSentences {
		r.svStatusChanged = true
	}
}

func (r *Reader) parseRMC() {
	if r.tz.Get(2).First() != 'A' {
		return
	}

	if !r.date.setDDMMYY(r.tz.Get(9)) {
		r.log.Debug().Str("date", r.tz.Get(9).String()).Msg("no usable date in RMC, keeping previous date")
	}
	r.updateTime(r.tz.Get(1))
	r.updateLatLong(r.tz.Get(3), r.tz.Get(4).First(), r.tz.Get(5), r.tz.Get(6).First())
	r.updateBearing(r.tz.Get(8))
	r.updateSpeed(r.tz.Get(7))
}

func (r *Reader) parseVTG() {
	ref := r.tz.Get(9).First()
	if ref == 0 || ref == 'N' {
		return
	}

	r.updateBearing(r.tz.Get(1))
	r.updateSpeed(r.tz.Get(5))
}

func (r *Reader) parseZDA() {
	if !r.tz.Get(4).Empty() {
		r.date.setDayMonthYear(r.tz.Get(2), r.tz.Get(3), r.tz.Get(4))
	}

	if tok := r.tz.Get(1); !tok.Empty() {
		r.updateTime(tok)
	}
}

// parseVendor handles the $PUNV family. Field offsets are fixed by the
// receiver firmware.
func (r *Reader) parseVendor() {
	kind := r.tz.Get(1)
	switch {
	case kind.HasPrefix("CFG_R"):
		r.log.Debug().Msg("PUNV,CFG_R acknowledged")
	case kind.HasPrefix("QUAL"):
		if !r.tz.Get(3).Empty() {
			r.updateAccuracy(r.tz.Get(10))
		}
	case kind.HasPrefix("TIMEMAP"):
		r.updateTimeMap(r.tz.Get(8), r.tz.Get(2))
	default:
		r.log.Debug().Str("kind", kind.String()).Msg("unknown PUNV sentence")
	}
}

func (r *Reader) updateTime(tok nmea.Token) bool {
	ts, ok := r.date.timestamp(tok, r.Now())
	if ok {
		r.fix.Timestamp = ts
	}
	return ok
}

func (r *Reader) updateLatLong(lat nmea.Token, latHemi byte, lon nmea.Token, lonHemi byte) bool {
	if len(lat) < 6 {
		r.log.Debug().Str("lat", lat.String()).Msg("latitude is too short")
		return false
	}
	if len(lon) < 6 {
		r.log.Debug().Str("lon", lon.String()).Msg("longitude is too short")
		return false
	}

	latitude := nmea.ConvertDegreesMinutes(lat)
	if latHemi == 'S' {
		latitude = -latitude
	}
	longitude := nmea.ConvertDegreesMinutes(lon)
	if lonHemi == 'W' {
		longitude = -longitude
	}

	r.fix.Flags |= HasLatLong
	r.fix.Latitude = latitude
	r.fix.Longitude = longitude
	return true
}

func (r *Reader) updateAltitude(tok nmea.Token) {
	if tok.Empty() {
		return
	}
	r.fix.Flags |= HasAltitude
	r.fix.Altitude = nmea.ParseFloat(tok)
}

func (r *Reader) updateBearing(tok nmea.Token) {
	if tok.Empty() {
		return
	}
	r.fix.Flags |= HasBearing
	r.fix.Bearing = nmea.ParseFloat(tok)
}

func (r *Reader) updateSpeed(tok nmea.Token) {
	if tok.Empty() {
		return
	}
	r.fix.Flags |= HasSpeed
	r.fix.Speed = nmea.ParseFloat(tok)
}

func (r *Reader) updateAccuracy(tok nmea.Token) {
	if tok.Empty() {
		return
	}
	r.fix.Accuracy = nmea.ParseFloat(tok)
	if r.fix.Accuracy == unknownAccuracy {
		return
	}
	r.fix.Flags |= HasAccuracy
}

func (r *Reader) updateTimeMap(systime, utc nmea.Token) {
	if systime.Empty() || utc.Empty() {
		r.timemap.Valid = false
		return
	}

	ts, ok := r.date.timestamp(utc, r.Now())
	if !ok {
		r.timemap.Valid = false
		return
	}

	r.timemap = TimeMap{
		Valid:     true,
		SysTime:   nmea.ParseFloat(systime),
		Timestamp: ts,
	}
}
