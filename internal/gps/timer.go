// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package gps

import "time"

// runTimer delivers the aggregated fix and satellite status every fix
// interval while the session is started. Until an interval is configured it
// only waits.
func (s *Session) runTimer(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	s.log.Debug().Msg("gps entered timer thread")
	defer s.log.Debug().Msg("gps timer thread destroyed")

	for {
		interval := s.fixInterval.Load()
		if interval <= 0 {
			select {
			case <-s.intervalSet:
			case <-stop:
				return
			}
			if !s.started() {
				return
			}
			continue
		}

		s.mu.Lock()
		s.deliverLocked()
		keepGoing := s.state == StateStarted
		s.mu.Unlock()

		if !keepGoing {
			return
		}

		t := time.NewTimer(time.Duration(interval) * time.Second)
		select {
		case <-t.C:
		case <-stop:
			t.Stop()
			return
		}

		if !s.started() {
			return
		}
	}
}

func (s *Session) started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateStarted
}

// deliverLocked hands out the fix and satellite status, each at most once.
// Called with the fix lock held.
func (s *Session) deliverLocked() {
	r := s.reader
	if r.fix.Flags&HasLatLong != 0 {
		s.log.Debug().Uint16("flags", uint16(r.fix.Flags)).Msg("gps fix cb")
		s.sendNiLocked()
		if s.callbacks.Location != nil {
			s.callbacks.Location(r.fix)
			r.ClearFix()
			s.firstFix = true
		}
	}

	if r.svStatusChanged && s.callbacks.SvStatus != nil {
		s.callbacks.SvStatus(r.svStatus)
		r.ClearSvStatusChanged()
	}
}
