// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package gps

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rs/zerolog"
)

// DeviceState governs the timer goroutine and the first fix latch.
type DeviceState int

const (
	StateQuit DeviceState = iota
	StateInit
	StateStarted
)

func (s DeviceState) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateStarted:
		return "started"
	default:
		return "quit"
	}
}

// commands sent to the device goroutine
type command byte

const (
	cmdQuit  command = 0
	cmdStart command = 1
	cmdStop  command = 2
)

const (
	readChunkSize = 512
	noInterval    = -1
)

// Session is a single GPS device session. It owns the device while
// initialized, runs the device goroutine that feeds the Reader, and a timer
// goroutine that delivers fixes while started.
type Session struct {
	log    zerolog.Logger
	open   func() (io.ReadWriteCloser, error)
	driver Driver

	lifeMu      sync.Mutex
	initialized atomic.Bool

	// mu is the fix lock. It guards reader state, state, firstFix and ni.
	mu       sync.Mutex
	reader   *Reader
	state    DeviceState
	firstFix bool
	ni       *NiCallbacks

	// fix interval in seconds, noInterval when unset
	fixInterval atomic.Int64
	intervalSet chan struct{}

	callbacks Callbacks
	dev       io.ReadWriteCloser
	writer    *lockedWriter
	control   chan command
	done      chan struct{}

	timerStop chan struct{}
	timerDone chan struct{}
}

var _ Interface = (*Session)(nil)

// NewSession returns a session which opens its device with open and sends
// chip commands through driver.
func NewSession(open func() (io.ReadWriteCloser, error), driver Driver, logger zerolog.Logger) *Session {
	s := &Session{
		log:         logger,
		open:        open,
		driver:      driver,
		intervalSet: make(chan struct{}, 1),
	}
	s.fixInterval.Store(noInterval)
	return s
}

// Init opens the device and starts the device goroutine. There is no retry
// when the device cannot be opened.
func (s *Session) Init(cb Callbacks) (err error) {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()

	if s.initialized.Load() {
		return ErrAlreadyInitialized
	}

	dev, err := s.open()
	if err != nil {
		return fmt.Errorf("gps/Session.Init: device not ready: %w", err)
	}

	s.callbacks = cb
	s.dev = dev
	s.writer = &lockedWriter{w: dev}
	s.control = make(chan command, 4)
	s.done = make(chan struct{})

	s.reader = NewReader(&s.mu, s.log)
	s.reader.OnSentence = s.emitNmea
	s.reader.OnParsed = s.checkFirstFix

	s.mu.Lock()
	s.state = StateInit
	s.firstFix = false
	s.mu.Unlock()
	s.fixInterval.Store(noInterval)

	if err = s.spawn("gps", s.run); err != nil {
		s.mu.Lock()
		s.state = StateQuit
		s.mu.Unlock()
		dev.Close()
		return fmt.Errorf("gps/Session.Init: could not create device thread: %w", err)
	}

	s.initialized.Store(true)
	s.log.Info().Msg("gps state initialized")
	return nil
}

// Cleanup stops the device goroutine and releases the device.
func (s *Session) Cleanup() {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()

	if !s.initialized.Load() {
		return
	}

	s.log.Debug().Msg("gps send quit command")
	select {
	case s.control <- cmdQuit:
	case <-s.done:
	}
	<-s.done

	s.mu.Lock()
	s.state = StateQuit
	s.mu.Unlock()
	s.fixInterval.Store(noInterval)

	if err := s.dev.Close(); err != nil {
		s.log.Error().Err(err).Msg("could not close gps device")
	}
	s.initialized.Store(false)
	s.log.Info().Msg("gps deinit complete")
}

func (s *Session) Start() error {
	if !s.initialized.Load() {
		return ErrNotInitialized
	}
	return s.send(cmdStart)
}

func (s *Session) Stop() error {
	if !s.initialized.Load() {
		return ErrNotInitialized
	}
	return s.send(cmdStop)
}

// State returns the current device state.
func (s *Session) State() DeviceState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetFixFrequency sets the delivery interval. Values below one second are
// raised to one second.
func (s *Session) SetFixFrequency(seconds int) {
	if !s.initialized.Load() {
		s.log.Warn().Msg("SetFixFrequency called with uninitialized state")
		return
	}
	if seconds <= 0 {
		seconds = 1
	}
	s.setInterval(int64(seconds))
	s.log.Debug().Int("seconds", seconds).Msg("gps fix frequency set")
}

// SetPositionMode takes minInterval in milliseconds. Only standalone mode is
// implemented; other modes are accepted and run standalone.
func (s *Session) SetPositionMode(mode PositionMode, recurrence PositionRecurrence, minInterval, preferredAccuracy, preferredTime uint32) error {
	if mode != PositionModeStandalone {
		s.log.Warn().Int("mode", int(mode)).Msg("unsupported position mode, using standalone")
	}
	if !s.initialized.Load() {
		return ErrNotInitialized
	}

	seconds := int64(minInterval / 1000)
	if seconds == 0 {
		seconds = 1
	}
	s.setInterval(seconds)
	s.log.Debug().Uint32("min_interval_ms", minInterval).Msg("gps fix frequency set")
	return nil
}

func (s *Session) InjectTime(t time.Time, reference int64, uncertainty int) error {
	return nil
}

func (s *Session) InjectLocation(latitude, longitude float64, accuracy float32) error {
	return nil
}

func (s *Session) DeleteAidingData(flags AidingData) {}

func (s *Session) Extension(name string) any {
	switch name {
	case XtraInterfaceName:
		return xtraExtension{s}
	case NiInterfaceName:
		return niExtension{s}
	}
	s.log.Debug().Str("name", name).Msg("no GPS extension found")
	return nil
}

func (s *Session) setInterval(seconds int64) {
	s.fixInterval.Store(seconds)
	select {
	case s.intervalSet <- struct{}{}:
	default:
	}
}

func (s *Session) send(cmd command) error {
	select {
	case <-s.done:
		return ErrNotRunning
	default:
	}
	select {
	case s.control <- cmd:
		return nil
	case <-s.done:
		return ErrNotRunning
	}
}

func (s *Session) spawn(name string, fn func()) error {
	if s.callbacks.CreateThread != nil {
		return s.callbacks.CreateThread(name, fn)
	}
	go fn()
	return nil
}

func (s *Session) reportStatus(status Status) {
	if s.callbacks.Status != nil {
		s.callbacks.Status(status)
	}
	s.log.Info().Stringer("status", status).Msg("gps status callback")
}

// run is the device goroutine. It multiplexes control commands and device
// bytes until told to quit or the device fails.
func (s *Session) run() {
	defer close(s.done)

	if err := s.driver.Init(s.writer); err != nil {
		s.log.Error().Err(err).Msg("gps device init failed")
	}

	data := make(chan []byte)
	readErr := make(chan error, 1)
	stopRead := make(chan struct{})
	defer close(stopRead)
	go s.readDevice(data, readErr, stopRead)

	s.log.Debug().Msg("gps thread running")

	started := false
loop:
	for {
		select {
		case cmd := <-s.control:
			switch cmd {
			case cmdQuit:
				s.log.Debug().Msg("gps thread quitting on demand")
				break loop
			case cmdStart:
				if started {
					continue
				}
				if err := s.startSession(); err != nil {
					s.log.Error().Err(err).Msg("could not start gps session")
					break loop
				}
				started = true
			case cmdStop:
				if !started {
					continue
				}
				started = false
				s.stopSession()
			}
		case buf := <-data:
			s.handleChunk(buf)
		case err := <-readErr:
			s.log.Error().Err(err).Msg("gps device closed or failed")
			break loop
		}
	}

	if started {
		s.mu.Lock()
		s.state = StateInit
		s.firstFix = false
		s.mu.Unlock()
		s.stopTimer()
		s.reportStatus(StatusSessionEnd)
	}

	if err := s.driver.Deinit(s.writer); err != nil {
		s.log.Error().Err(err).Msg("gps device deinit failed")
	}
}

func (s *Session) startSession() error {
	s.log.Debug().Msg("gps thread starting")

	if err := s.driver.Start(s.writer); err != nil {
		s.log.Error().Err(err).Msg("gps device start failed")
	}
	s.reportStatus(StatusSessionBegin)

	s.mu.Lock()
	s.state = StateStarted
	s.mu.Unlock()

	s.timerStop = make(chan struct{})
	s.timerDone = make(chan struct{})
	stop, done := s.timerStop, s.timerDone
	if err := s.spawn("gps_tmr", func() { s.runTimer(stop, done) }); err != nil {
		s.mu.Lock()
		s.state = StateInit
		s.mu.Unlock()
		s.timerStop, s.timerDone = nil, nil
		return fmt.Errorf("gps/Session.startSession: could not create timer thread: %w", err)
	}
	return nil
}

func (s *Session) stopSession() {
	s.log.Debug().Msg("gps thread stopping")

	if err := s.driver.Stop(s.writer); err != nil {
		s.log.Error().Err(err).Msg("gps device stop failed")
	}

	s.mu.Lock()
	s.state = StateInit
	s.firstFix = false
	s.mu.Unlock()

	s.stopTimer()
	s.reportStatus(StatusSessionEnd)
}

func (s *Session) stopTimer() {
	if s.timerStop == nil {
		return
	}
	close(s.timerStop)
	<-s.timerDone
	s.timerStop, s.timerDone = nil, nil
}

// readDevice pumps device reads into data until the device fails or stop is
// closed.
func (s *Session) readDevice(data chan<- []byte, readErr chan<- error, stop <-chan struct{}) {
	buf := make([]byte, readChunkSize)
	for {
		n, err := s.dev.Read(buf)
		if n > 0 {
			select {
			case data <- append([]byte(nil), buf[:n]...):
			case <-stop:
				return
			}
		}
		if err != nil {
			if errors.Is(err, syscall.EINTR) || errors.Is(err, syscall.EAGAIN) {
				continue
			}
			readErr <- err
			return
		}
	}
}

var (
	oapPrefix  = []byte("OAP")
	gsmaPrefix = []byte("#!GSMA")
)

func (s *Session) handleChunk(buf []byte) {
	s.reader.Feed(buf)

	// binary vendor frames go to the raw sentence path untokenized
	if bytes.HasPrefix(buf, oapPrefix) || bytes.HasPrefix(buf, gsmaPrefix) {
		if len(buf) < minSentenceSize {
			s.log.Debug().Msg("vendor frame too short, discarded")
			return
		}
		s.emitNmea(time.Now().UnixMilli(), buf)
	}
}

func (s *Session) emitNmea(timestamp int64, line []byte) {
	if s.callbacks.Nmea != nil {
		s.callbacks.Nmea(timestamp, line)
	}
}

// checkFirstFix delivers the first fix of a session as soon as it is parsed
// instead of waiting for the timer. Called with the fix lock held.
func (s *Session) checkFirstFix(r *Reader) {
	if s.firstFix || s.state != StateStarted || r.fix.Flags&HasLatLong == 0 {
		return
	}

	s.sendNiLocked()
	if s.callbacks.Location != nil {
		s.callbacks.Location(r.fix)
		r.ClearFix()
	}
	s.firstFix = true
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
