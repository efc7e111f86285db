// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package gps

import "fmt"

const niNotificationID = 0xABBA

type xtraExtension struct {
	s *Session
}

func (x xtraExtension) Init(cb XtraCallbacks) error {
	return nil
}

// InjectData writes data to the receiver unchanged.
func (x xtraExtension) InjectData(data []byte) error {
	if !x.s.initialized.Load() {
		return ErrNotInitialized
	}
	if _, err := x.s.writer.Write(data); err != nil {
		return fmt.Errorf("gps/xtra.InjectData: %w", err)
	}
	x.s.log.Debug().Int("len", len(data)).Msg("injected xtra data")
	return nil
}

type niExtension struct {
	s *Session
}

func (n niExtension) Init(cb NiCallbacks) {
	n.s.mu.Lock()
	n.s.ni = &cb
	n.s.mu.Unlock()
}

func (n niExtension) Respond(id int, response NiResponse) {}

// sendNiLocked emits the NI notification that accompanies a fix delivery.
// Called with the fix lock held.
func (s *Session) sendNiLocked() {
	if s.ni == nil || s.ni.Notify == nil {
		return
	}

	notification := NiNotification{
		ID:                  niNotificationID,
		Type:                NiTypeUmtsCtrlPlane,
		DefaultResponse:     NiResponseNoResp,
		RequestorIDEncoding: NiEncNone,
		TextEncoding:        NiEncNone,
	}
	if systime, ok := s.reader.TakeTimeMap(); ok {
		notification.Extras = fmt.Sprintf("systime=%10.10f", systime)
	}
	s.ni.Notify(notification)
}
