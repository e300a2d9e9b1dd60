// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package chipmon

import (
	"context"
	"testing"
	"time"

	"github.com/pilebones/go-udev/netlink"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventFromUEvent(t *testing.T) {
	patterns := []struct {
		name string
		ue   netlink.UEvent
		evt  Event
		ok   bool
	}{
		{
			"udev add",
			netlink.UEvent{Action: netlink.ADD, Env: map[string]string{"DEVNAME": "/dev/gpiochip2"}},
			Event{Action: ActionAdd, Name: "gpiochip2", Path: "/dev/gpiochip2"},
			true,
		},
		{
			"kernel remove",
			netlink.UEvent{Action: netlink.REMOVE, Env: map[string]string{"DEVNAME": "gpiochip0"}},
			Event{Action: ActionRemove, Name: "gpiochip0", Path: "/dev/gpiochip0"},
			true,
		},
		{
			"change",
			netlink.UEvent{Action: netlink.CHANGE, Env: map[string]string{"DEVNAME": "gpiochip0"}},
			Event{},
			false,
		},
		{
			"not a chip",
			netlink.UEvent{Action: netlink.ADD, Env: map[string]string{"DEVNAME": "/dev/ttyS0"}},
			Event{},
			false,
		},
		{
			"no devname",
			netlink.UEvent{Action: netlink.ADD, Env: map[string]string{}},
			Event{},
			false,
		},
	}
	for _, p := range patterns {
		tf := func(t *testing.T) {
			evt, ok := eventFromUEvent(p.ue)
			assert.Equal(t, p.ok, ok)
			assert.Equal(t, p.evt, evt)
		}
		t.Run(p.name, tf)
	}
}

func TestMatcher(t *testing.T) {
	m := matcher()
	require.Nil(t, m.Compile())
	assert.True(t, m.Evaluate(netlink.UEvent{
		Action: netlink.ADD,
		Env:    map[string]string{"SUBSYSTEM": "gpio", "DEVNAME": "/dev/gpiochip1"},
	}))
	assert.True(t, m.Evaluate(netlink.UEvent{
		Action: netlink.REMOVE,
		Env:    map[string]string{"SUBSYSTEM": "gpio", "DEVNAME": "gpiochip1"},
	}))
	assert.False(t, m.Evaluate(netlink.UEvent{
		Action: netlink.CHANGE,
		Env:    map[string]string{"SUBSYSTEM": "gpio", "DEVNAME": "gpiochip1"},
	}))
	assert.False(t, m.Evaluate(netlink.UEvent{
		Action: netlink.ADD,
		Env:    map[string]string{"SUBSYSTEM": "tty", "DEVNAME": "/dev/ttyS0"},
	}))
}

func TestActionString(t *testing.T) {
	assert.Equal(t, "added", ActionAdd.String())
	assert.Equal(t, "removed", ActionRemove.String())
	assert.Equal(t, "unknown(0)", Action(0).String())
}

func TestReadCancel(t *testing.T) {
	m := &Monitor{
		queue: make(chan netlink.UEvent, 2),
		errs:  make(chan error, 1),
	}
	m.queue <- netlink.UEvent{Action: netlink.CHANGE, Env: map[string]string{"DEVNAME": "gpiochip0"}}
	m.queue <- netlink.UEvent{Action: netlink.ADD, Env: map[string]string{"DEVNAME": "/dev/gpiochip3"}}
	evt, err := m.Read(context.Background())
	require.Nil(t, err)
	assert.Equal(t, Event{Action: ActionAdd, Name: "gpiochip3", Path: "/dev/gpiochip3"}, evt)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = m.Read(ctx)
	assert.Equal(t, context.DeadlineExceeded, err)
}

func TestStop(t *testing.T) {
	m := &Monitor{quit: make(chan struct{}, 1)}
	done := make(chan struct{})
	go func() {
		m.stop()
		// the monitor goroutine has exited without draining quit
		m.stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stop blocked")
	}
	assert.Len(t, m.quit, 1)
}
