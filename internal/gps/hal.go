// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package gps

import (
	"errors"
	"io"
	"time"
)

var (
	ErrNotInitialized     = errors.New("gps: not initialized")
	ErrAlreadyInitialized = errors.New("gps: already initialized")
	ErrNotRunning         = errors.New("gps: device thread not running")
)

// Extension names accepted by Interface.Extension.
const (
	XtraInterfaceName = "gps-xtra"
	NiInterfaceName   = "gps-ni"
)

type PositionMode int

const (
	PositionModeStandalone PositionMode = iota
	PositionModeMSBased
	PositionModeMSAssisted
)

type PositionRecurrence int

const (
	RecurrencePeriodic PositionRecurrence = iota
	RecurrenceSingle
)

// AidingData selects the assistance data DeleteAidingData should drop.
type AidingData uint16

const (
	DeleteEphemeris AidingData = 1 << iota
	DeleteAlmanac
	DeletePosition
	DeleteTime
	DeleteIono
	DeleteUTC
	DeleteHealth
	DeleteSvDir
	DeleteSvSteer
	DeleteSaData
	DeleteRti
	DeleteCellDB AidingData = 0x8000
	DeleteAll    AidingData = 0xFFFF
)

// Callbacks is the notification surface of a GPS session.
type Callbacks struct {
	Location func(Location)
	Status   func(Status)
	SvStatus func(SvStatus)
	// Nmea receives every delimited line, including vendor binary frames.
	Nmea func(timestamp int64, sentence []byte)
	// CreateThread starts fn on a worker owned by the host. When nil, a
	// goroutine is used.
	CreateThread func(name string, fn func()) error
}

// Interface is the HAL entry table for the GPS device.
type Interface interface {
	Init(cb Callbacks) error
	Start() error
	Stop() error
	Cleanup()
	InjectTime(t time.Time, reference int64, uncertainty int) error
	InjectLocation(latitude, longitude float64, accuracy float32) error
	DeleteAidingData(flags AidingData)
	SetPositionMode(mode PositionMode, recurrence PositionRecurrence, minInterval, preferredAccuracy, preferredTime uint32) error
	SetFixFrequency(seconds int)
	// Extension returns an XtraInterface or NiInterface by name, or nil.
	Extension(name string) any
}

// Driver sends chip specific commands to the receiver. Writes go to the
// open device; the session never reopens it between Start and Stop.
type Driver interface {
	Init(w io.Writer) error
	Start(w io.Writer) error
	Stop(w io.Writer) error
	Deinit(w io.Writer) error
}

type XtraCallbacks struct {
	DownloadRequest func()
}

// XtraInterface injects assistance data into the receiver.
type XtraInterface interface {
	Init(cb XtraCallbacks) error
	InjectData(data []byte) error
}

type NiType int

const (
	NiTypeVoice NiType = iota + 1
	NiTypeUmtsSupl
	NiTypeUmtsCtrlPlane
)

type NiResponse int

const (
	NiResponseAccept NiResponse = iota + 1
	NiResponseDeny
	NiResponseNoResp
)

type NiEncoding int

const (
	NiEncUnknown NiEncoding = iota - 1
	NiEncNone
	NiEncSuplGsmDefault
	NiEncSuplUTF8
	NiEncSuplUCS2
)

// NiNotification is sent ahead of a fix delivery when NI callbacks are
// registered. Extras carries "systime=..." when the receiver reported a
// time correlation for that fix.
type NiNotification struct {
	ID                  int
	Type                NiType
	NotifyFlags         uint32
	Timeout             int
	DefaultResponse     NiResponse
	RequestorID         string
	Text                string
	RequestorIDEncoding NiEncoding
	TextEncoding        NiEncoding
	Extras              string
}

type NiCallbacks struct {
	Notify func(NiNotification)
}

type NiInterface interface {
	Init(cb NiCallbacks)
	Respond(id int, response NiResponse)
}
