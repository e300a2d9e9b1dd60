// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

// Package chipmon reports GPIO chips being added to and removed from the
// system.
//
// The reports are taken from the uevents the kernel, or udev, broadcasts on
// netlink as gpiochip devices come and go.
package chipmon

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/pilebones/go-udev/netlink"
	"github.com/sirupsen/logrus"
)

// Action is the change to a chip.
type Action int

const (
	_ Action = iota

	// ActionAdd indicates the chip has been added.
	ActionAdd

	// ActionRemove indicates the chip has been removed.
	ActionRemove
)

func (a Action) String() string {
	switch a {
	case ActionAdd:
		return "added"
	case ActionRemove:
		return "removed"
	}
	return fmt.Sprintf("unknown(%d)", int(a))
}

// Event describes a chip being added or removed.
type Event struct {
	Action Action

	// Name is the name of the chip, e.g. gpiochip0.
	Name string

	// Path is the path to the chip device, e.g. /dev/gpiochip0.
	Path string
}

// Monitor reports chip add and remove events.
type Monitor struct {
	conn  *netlink.UEventConn
	queue chan netlink.UEvent
	errs  chan error
	quit  chan struct{}
	log   logrus.FieldLogger
}

// Option modifies the Monitor.
type Option func(*Monitor, *netlink.Mode)

// WithKernelEvents takes the events directly from the kernel rather than
// from udev.
//
// The kernel events are available before udev has created the device node,
// but do not depend on udev running.
func WithKernelEvents() Option {
	return func(m *Monitor, mode *netlink.Mode) {
		*mode = netlink.KernelEvent
	}
}

// WithLogger sets the logger that receives errors from the netlink socket.
func WithLogger(l logrus.FieldLogger) Option {
	return func(m *Monitor, mode *netlink.Mode) {
		m.log = l
	}
}

// New creates a Monitor.
func New(options ...Option) (*Monitor, error) {
	m := &Monitor{
		conn:  new(netlink.UEventConn),
		queue: make(chan netlink.UEvent, 8),
		errs:  make(chan error, 8),
	}
	mode := netlink.UdevEvent
	for _, option := range options {
		option(m, &mode)
	}
	if err := m.conn.Connect(mode); err != nil {
		return nil, fmt.Errorf("unable to connect to netlink uevent socket: %w", err)
	}
	m.quit = m.conn.Monitor(m.queue, m.errs, matcher())
	return m, nil
}

func matcher() *netlink.RuleDefinition {
	action := "^(add|remove)$"
	return &netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": "^gpio$",
			"DEVNAME":   "gpiochip\\d+$",
		},
	}
}

// Read blocks until a chip is added or removed, or the ctx is done.
func (m *Monitor) Read(ctx context.Context) (Event, error) {
	for {
		select {
		case ue := <-m.queue:
			if evt, ok := eventFromUEvent(ue); ok {
				return evt, nil
			}
		case err := <-m.errs:
			if m.log != nil {
				m.log.WithError(err).Warn("uevent read failed")
			}
		case <-ctx.Done():
			return Event{}, ctx.Err()
		}
	}
}

// Close stops the monitor.
func (m *Monitor) Close() error {
	m.stop()
	return m.conn.Close()
}

// stop requests the monitor goroutine to exit.
//
// The goroutine only checks quit between reads, and quit is buffered, so a
// pending quit is enough and a second is dropped.
func (m *Monitor) stop() {
	select {
	case m.quit <- struct{}{}:
	default:
	}
}

func eventFromUEvent(ue netlink.UEvent) (Event, bool) {
	var action Action
	switch ue.Action {
	case netlink.ADD:
		action = ActionAdd
	case netlink.REMOVE:
		action = ActionRemove
	default:
		return Event{}, false
	}
	devname := ue.Env["DEVNAME"]
	name := path.Base(devname)
	if !strings.HasPrefix(name, "gpiochip") {
		return Event{}, false
	}
	devpath := devname
	if !strings.HasPrefix(devpath, "/") {
		devpath = "/dev/" + name
	}
	return Event{Action: action, Name: name, Path: devpath}, true
}
