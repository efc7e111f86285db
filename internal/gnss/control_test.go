// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package gnss

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockDriver struct {
	mock.Mock
}

func (m *mockDriver) Init(w io.Writer) error   { return m.Called().Error(0) }
func (m *mockDriver) Start(w io.Writer) error  { return m.Called().Error(0) }
func (m *mockDriver) Stop(w io.Writer) error   { return m.Called().Error(0) }
func (m *mockDriver) Deinit(w io.Writer) error { return m.Called().Error(0) }

type fakePower struct {
	states []bool
	closed bool
}

func (p *fakePower) Set(on bool) error {
	p.states = append(p.states, on)
	return nil
}

func (p *fakePower) Close() error {
	p.closed = true
	return nil
}

func writeHook(t *testing.T, dir, name string, status int) {
	t.Helper()
	script := "#!/bin/sh\nexit 0\n"
	if status != 0 {
		script = "#!/bin/sh\nexit 1\n"
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(script), 0755))
}

func TestHooks(t *testing.T) {
	dir := t.TempDir()
	writeHook(t, dir, "start", 0)
	writeHook(t, dir, "stop", 1)

	h := Hooks{Dir: dir}
	assert.True(t, h.Run(context.Background(), "start"))
	assert.False(t, h.Run(context.Background(), "stop"))
	assert.False(t, h.Run(context.Background(), "missing"))
	assert.False(t, Hooks{}.Run(context.Background(), "start"))
}

func newRecordingDriver() *mockDriver {
	drv := new(mockDriver)
	drv.On("Init").Return(nil)
	drv.On("Start").Return(nil)
	drv.On("Stop").Return(nil)
	drv.On("Deinit").Return(nil)
	return drv
}

func TestControlWithoutHooks(t *testing.T) {
	drv := newRecordingDriver()
	power := &fakePower{}

	c := &Control{Driver: drv, Power: power, Log: zerolog.Nop()}
	var buf bytes.Buffer
	require.NoError(t, c.Init(&buf))
	require.NoError(t, c.Start(&buf))
	require.NoError(t, c.Stop(&buf))
	require.NoError(t, c.Deinit(&buf))

	drv.AssertExpectations(t)
	drv.AssertNumberOfCalls(t, "Stop", 2)
	assert.Equal(t, []bool{false, true, false, false}, power.states)
	assert.False(t, power.closed)

	require.NoError(t, c.Close())
	assert.True(t, power.closed)
}

func TestControlPowerSurvivesReinit(t *testing.T) {
	drv := newRecordingDriver()
	power := &fakePower{}
	c := &Control{Driver: drv, Power: power, Log: zerolog.Nop()}

	for i := 0; i < 2; i++ {
		require.NoError(t, c.Init(io.Discard))
		require.NoError(t, c.Start(io.Discard))
		assert.True(t, power.states[len(power.states)-1], "powered on in cycle %d", i)
		require.NoError(t, c.Deinit(io.Discard))
		assert.False(t, power.states[len(power.states)-1])
	}
	assert.False(t, power.closed)
}

func TestControlInitHonorsStopHook(t *testing.T) {
	dir := t.TempDir()
	writeHook(t, dir, "stop", 0)

	drv := new(mockDriver)
	drv.On("Init").Return(nil)
	c := &Control{Driver: drv, Hooks: Hooks{Dir: dir}, Log: zerolog.Nop()}

	require.NoError(t, c.Init(io.Discard))
	drv.AssertCalled(t, "Init")
	drv.AssertNotCalled(t, "Stop")
}

func TestControlInitFailureSkipsStop(t *testing.T) {
	drv := new(mockDriver)
	drv.On("Init").Return(errors.New("no answer"))
	c := &Control{Driver: drv, Log: zerolog.Nop()}

	assert.Error(t, c.Init(io.Discard))
	drv.AssertNotCalled(t, "Stop")
}

func TestControlHookSkipsDriver(t *testing.T) {
	dir := t.TempDir()
	writeHook(t, dir, "start", 0)
	writeHook(t, dir, "stop", 0)

	drv := new(mockDriver)
	c := &Control{Driver: drv, Hooks: Hooks{Dir: dir}, Log: zerolog.Nop()}

	var buf bytes.Buffer
	require.NoError(t, c.Start(&buf))
	require.NoError(t, c.Stop(&buf))
	drv.AssertNotCalled(t, "Start")
	drv.AssertNotCalled(t, "Stop")
}

func TestControlFailingHookRunsDriver(t *testing.T) {
	dir := t.TempDir()
	writeHook(t, dir, "start", 1)

	drv := new(mockDriver)
	drv.On("Start").Return(nil)
	c := &Control{Driver: drv, Hooks: Hooks{Dir: dir}, Log: zerolog.Nop()}

	require.NoError(t, c.Start(io.Discard))
	drv.AssertCalled(t, "Start")
}
