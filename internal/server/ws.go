// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/ahmedammar/platform-hardware-imx/internal/gps"
	"github.com/ahmedammar/platform-hardware-imx/internal/pool"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message is the JSON frame sent to stream clients.
type Message struct {
	Type       string        `json:"type"`
	Location   *gps.Location `json:"location,omitempty"`
	Satellites []gps.SvInfo  `json:"satellites,omitempty"`
	UsedInFix  []int         `json:"used_in_fix,omitempty"`
}

// LocationMessage encodes a fix for stream clients.
func LocationMessage(l gps.Location) ([]byte, error) {
	return json.Marshal(Message{Type: "location", Location: &l})
}

// SatellitesMessage encodes a satellite status for stream clients.
func SatellitesMessage(s gps.SvStatus) ([]byte, error) {
	m := Message{Type: "satellites", Satellites: s.Satellites()}
	for _, sv := range m.Satellites {
		if s.UsedInFix(sv.PRN) {
			m.UsedInFix = append(m.UsedInFix, sv.PRN)
		}
	}
	return json.Marshal(m)
}

// Stream serves fixes and satellite status to websocket clients.
type Stream struct {
	connPool *pool.Pool
	log      zerolog.Logger
}

func NewStream(connPool *pool.Pool, logger zerolog.Logger) *Stream {
	return &Stream{connPool: connPool, log: logger}
}

func (s *Stream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	c := s.connPool.Add(pool.KindLocation | pool.KindSatellites)
	defer s.connPool.Remove(c)

	hangup := make(chan struct{})
	go func() {
		defer close(hangup)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					s.log.Debug().Err(err).Str("client", c.ID).Msg("websocket closed")
				}
				return
			}
		}
	}()

	for {
		select {
		case msg := <-c.Send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-hangup:
			return
		case <-c.Done:
			return
		}
	}
}
