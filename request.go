// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package gpiocdev

import (
	"context"
	"sync"

	"github.com/warthog618/gpiocdev/uapi"
	"golang.org/x/sys/unix"
)

// Request represents a set of lines requested from a single chip.
//
// The lines remain reserved until the Request is closed.
type Request struct {
	chip    string
	offsets []int
	abi     uapiABI
	fd      uintptr

	// mu covers all fields below.
	mu sync.Mutex

	// the last values written to the lines.
	values []int

	// indicates the lines that are outputs.
	outputs []bool

	poller *poller

	closed bool
}

func newRequest(chip string, fd uintptr, abi uapiABI, offsets []int, rc *RequestConfig) *Request {
	r := Request{
		chip:    chip,
		offsets: offsets,
		abi:     abi,
		fd:      fd,
	}
	r.applyConfig(rc)
	return &r
}

func (r *Request) applyConfig(rc *RequestConfig) {
	cfgs, values := rc.effectiveAll()
	r.values = values
	r.outputs = make([]bool, len(cfgs))
	for i, lc := range cfgs {
		r.outputs[i] = lc.Direction == LineDirectionOutput
	}
}

// Chip returns the name of the chip from which the lines were requested.
func (r *Request) Chip() string {
	return r.chip
}

// Offsets returns the offsets of the requested lines, in request order.
func (r *Request) Offsets() []int {
	return append([]int(nil), r.offsets...)
}

func (r *Request) index(offset int) int {
	for i, o := range r.offsets {
		if o == offset {
			return i
		}
	}
	return -1
}

// Values returns the current values of all the requested lines, keyed by
// offset.
//
// Values are active state, so 1 is active and 0 inactive.
func (r *Request) Values() (map[int]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrClosed
	}
	vv, err := r.abi.values(r.fd, len(r.offsets))
	if err != nil {
		return nil, r.ioError("get values", err)
	}
	values := make(map[int]int, len(vv))
	for i, v := range vv {
		values[r.offsets[i]] = v
	}
	return values, nil
}

// SetValues sets the active state of the given output lines.
//
// Lines not contained in values are left unchanged.
// All the lines are set with a single kernel call.
func (r *Request) SetValues(values map[int]int) error {
	if len(values) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	vv := append([]int(nil), r.values...)
	var mask uapi.LineBitmap
	for offset, v := range values {
		idx := r.index(offset)
		if idx < 0 {
			return &IoError{Op: "set values", Chip: r.chip, Offset: offset, Err: ErrInvalidOffset}
		}
		if !r.outputs[idx] {
			return &IoError{Op: "set values", Chip: r.chip, Offset: offset, Err: ErrPermissionDenied}
		}
		if v != 0 {
			v = 1
		}
		vv[idx] = v
		mask = mask.Set(idx, 1)
	}
	if err := r.abi.setValues(r.fd, vv, mask); err != nil {
		return r.ioError("set values", err)
	}
	r.values = vv
	return nil
}

// Reconfigure updates the configuration of the requested lines.
//
// The config must contain exactly the requested lines.
func (r *Request) Reconfigure(rc *RequestConfig) error {
	if err := rc.Validate(); err != nil {
		return err
	}
	offsets := rc.Offsets()
	if len(offsets) != len(r.offsets) {
		return &ConfigError{Offset: -1, Reason: "config lines do not match request"}
	}
	for i, o := range offsets {
		if o != r.offsets[i] {
			return &ConfigError{Offset: o, Reason: "config lines do not match request"}
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	if err := r.abi.reconfigure(r.fd, rc); err != nil {
		if _, ok := err.(unix.Errno); ok {
			return r.ioError("reconfigure", err)
		}
		return err
	}
	r.applyConfig(rc)
	return nil
}

// ReadEdgeEvent returns the next edge event detected on the requested lines.
//
// Blocks until an event is available or the ctx is done.
func (r *Request) ReadEdgeEvent(ctx context.Context) (LineEvent, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return LineEvent{}, ErrClosed
	}
	if r.poller == nil {
		p, err := newPoller(int(r.fd))
		if err != nil {
			r.mu.Unlock()
			return LineEvent{}, r.ioError("read edge event", err)
		}
		r.poller = p
	}
	p := r.poller
	r.mu.Unlock()
	if err := p.wait(ctx); err != nil {
		if ctx.Err() != nil {
			return LineEvent{}, err
		}
		return LineEvent{}, r.ioError("read edge event", err)
	}
	le, err := r.abi.readEdgeEvent(r.fd, r.offsets)
	if err != nil {
		return LineEvent{}, r.ioError("read edge event", err)
	}
	return le, nil
}

// Close releases the lines.
func (r *Request) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	r.closed = true
	if r.poller != nil {
		r.poller.close()
	}
	if err := unix.Close(int(r.fd)); err != nil {
		return r.ioError("close", err)
	}
	return nil
}

func (r *Request) ioError(op string, err error) error {
	return &IoError{Op: op, Chip: r.chip, Offset: -1, Err: err}
}
