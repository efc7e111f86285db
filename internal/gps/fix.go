// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package gps

// LocationFlags tells which fields of a Location hold data. A field whose
// bit is clear may still carry an old value and must be ignored.
type LocationFlags uint16

const (
	HasLatLong LocationFlags = 1 << iota
	HasAltitude
	HasSpeed
	HasBearing
	HasAccuracy
)

// Location is the fix aggregated from successive sentences.
type Location struct {
	Flags     LocationFlags `json:"flags"`
	Latitude  float64       `json:"latitude"`
	Longitude float64       `json:"longitude"`
	Altitude  float64       `json:"altitude"`
	Speed     float64       `json:"speed"`
	Bearing   float64       `json:"bearing"`
	Accuracy  float64       `json:"accuracy"`
	// Timestamp is UTC, in milliseconds since the epoch.
	Timestamp int64 `json:"timestamp"`
}

// MaxSvs is the capacity of the satellite list.
const MaxSvs = 32

type SvInfo struct {
	PRN       int     `json:"prn"`
	SNR       float64 `json:"snr"`
	Elevation float64 `json:"elevation"`
	Azimuth   float64 `json:"azimuth"`
}

// SvStatus is the satellite view built from GSV groups, plus the set of PRNs
// used in the current fix taken from GSA.
type SvStatus struct {
	NumSvs int
	List   [MaxSvs]SvInfo
	// UsedInFixMask has bit (prn-1) set for every PRN 1..32 used in the fix.
	UsedInFixMask uint32
}

// Satellites returns the populated part of the satellite list.
func (s SvStatus) Satellites() []SvInfo {
	n := s.NumSvs
	if n > MaxSvs {
		n = MaxSvs
	}
	return s.List[:n]
}

// UsedInFix reports whether prn was used in the last fix.
func (s SvStatus) UsedInFix(prn int) bool {
	if prn < 1 || prn > 32 {
		return false
	}
	return s.UsedInFixMask&(1<<uint(prn-1)) != 0
}

// TimeMap correlates a receiver system time with a UTC timestamp. It is
// reported once and then invalidated.
type TimeMap struct {
	Valid     bool
	SysTime   float64
	Timestamp int64
}

// Status is reported through Callbacks.Status.
type Status int

const (
	StatusNone Status = iota
	StatusSessionBegin
	StatusSessionEnd
	StatusEngineOn
	StatusEngineOff
)

func (s Status) String() string {
	switch s {
	case StatusSessionBegin:
		return "session-begin"
	case StatusSessionEnd:
		return "session-end"
	case StatusEngineOn:
		return "engine-on"
	case StatusEngineOff:
		return "engine-off"
	default:
		return "none"
	}
}
