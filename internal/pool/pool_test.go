// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package pool

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDemandTransitions(t *testing.T) {
	p := New(zerolog.Nop())

	a := p.Add(KindNmea)
	require.Equal(t, true, <-p.Demand())

	b := p.Add(KindLocation)
	assert.Equal(t, 2, p.Count())
	assert.NotEqual(t, a.ID, b.ID)

	p.Remove(a)
	assert.Empty(t, p.Demand())

	p.Remove(b)
	require.Equal(t, false, <-p.Demand())

	// removing again neither panics nor reports demand
	p.Remove(b)
	assert.Empty(t, p.Demand())
	assert.Equal(t, 0, p.Count())

	select {
	case <-b.Done:
	default:
		t.Fatal("removed client not marked done")
	}
}

func TestBroadcastByKind(t *testing.T) {
	p := New(zerolog.Nop())
	nmea := p.Add(KindNmea)
	ws := p.Add(KindLocation | KindSatellites)

	p.Broadcast(KindNmea, []byte("$GPGGA"))
	p.Broadcast(KindSatellites, []byte(`{"type":"satellites"}`))

	assert.Equal(t, "$GPGGA", string(<-nmea.Send))
	assert.Empty(t, nmea.Send)
	assert.Equal(t, `{"type":"satellites"}`, string(<-ws.Send))
	assert.Empty(t, ws.Send)
}

func TestSlowClientDropped(t *testing.T) {
	p := New(zerolog.Nop())
	c := p.Add(KindNmea)

	for i := 0; i < sendBuffer+10; i++ {
		p.Broadcast(KindNmea, []byte{byte(i)})
	}
	assert.Len(t, c.Send, sendBuffer)
	assert.Equal(t, []byte{0}, <-c.Send)
}
