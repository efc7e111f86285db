// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package publish

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ahmedammar/platform-hardware-imx/internal/gps"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) Connect() mqtt.Token {
	return m.Called().Get(0).(mqtt.Token)
}

func (m *mockClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	return m.Called(topic, qos, retained, payload).Get(0).(mqtt.Token)
}

func (m *mockClient) Disconnect(quiesce uint) {
	m.Called(quiesce)
}

type mockToken struct {
	mock.Mock
}

func (m *mockToken) Wait() bool {
	return m.Called().Bool(0)
}

func (m *mockToken) WaitTimeout(d time.Duration) bool {
	return m.Called(d).Bool(0)
}

func (m *mockToken) Done() <-chan struct{} {
	return m.Called().Get(0).(<-chan struct{})
}

func (m *mockToken) Error() error {
	return m.Called().Error(0)
}

func okToken() *mockToken {
	tok := new(mockToken)
	tok.On("Wait").Return(true)
	tok.On("WaitTimeout", mock.Anything).Return(true)
	tok.On("Error").Return(nil)
	return tok
}

func TestConnect(t *testing.T) {
	client := new(mockClient)
	client.On("Connect").Return(okToken())
	require.NoError(t, New(client, "gnss", 0, zerolog.Nop()).Connect())

	failed := new(mockToken)
	failed.On("Wait").Return(true)
	failed.On("Error").Return(errors.New("refused"))
	client = new(mockClient)
	client.On("Connect").Return(failed)
	assert.Error(t, New(client, "gnss", 0, zerolog.Nop()).Connect())
}

func TestLocation(t *testing.T) {
	client := new(mockClient)
	var payload []byte
	client.On("Publish", "car/gnss/location", byte(1), false, mock.Anything).
		Run(func(args mock.Arguments) { payload = args.Get(3).([]byte) }).
		Return(okToken())

	p := New(client, "car/gnss", 1, zerolog.Nop())
	p.Location(gps.Location{Flags: gps.HasLatLong | gps.HasSpeed, Latitude: 48.1, Longitude: 11.5, Speed: 22.4})

	client.AssertExpectations(t)
	var l gps.Location
	require.NoError(t, json.Unmarshal(payload, &l))
	assert.Equal(t, gps.HasLatLong|gps.HasSpeed, l.Flags)
	assert.Equal(t, 22.4, l.Speed)
}

func TestSatellites(t *testing.T) {
	client := new(mockClient)
	var payload []byte
	client.On("Publish", "gnss/satellites", byte(0), false, mock.Anything).
		Run(func(args mock.Arguments) { payload = args.Get(3).([]byte) }).
		Return(okToken())

	var sv gps.SvStatus
	sv.NumSvs = 3
	sv.List[0] = gps.SvInfo{PRN: 1}
	sv.List[1] = gps.SvInfo{PRN: 2}
	sv.List[2] = gps.SvInfo{PRN: 3}
	sv.UsedInFixMask = 0b101

	New(client, "gnss", 0, zerolog.Nop()).Satellites(sv)

	client.AssertExpectations(t)
	assert.JSONEq(t, `{"satellites":[
		{"prn":1,"snr":0,"elevation":0,"azimuth":0},
		{"prn":2,"snr":0,"elevation":0,"azimuth":0},
		{"prn":3,"snr":0,"elevation":0,"azimuth":0}],
		"used_in_fix":[1,3]}`, string(payload))
}

func TestClose(t *testing.T) {
	client := new(mockClient)
	client.On("Disconnect", uint(250)).Return()
	New(client, "gnss", 0, zerolog.Nop()).Close()
	client.AssertExpectations(t)
}
