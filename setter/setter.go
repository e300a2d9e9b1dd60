// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

// Package setter drives a set of output lines, possibly spread across
// several chips, and holds or toggles them until released.
//
// The lines are identified by name, or by offset when restricted to a single
// chip, and each chip is updated with a single kernel call.
package setter

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/warthog618/gpiocdev"
)

// Options describes the lines to request and how to drive them.
type Options struct {
	// Lines are the lines to request and their initial values, in command
	// line order.
	Lines []LineValue

	// Chip restricts the lines to a single chip.
	Chip string

	// ByName prevents line identifiers being interpreted as offsets.
	ByName bool

	// Strict requires that line names be unique across all chips in scope.
	Strict bool

	// ABI is the uAPI version to use, or 0 to probe.
	ABI int

	// Consumer is the label applied to the requested lines.
	Consumer string

	// LineConfig is applied to all the requested lines, e.g. bias or drive.
	LineConfig []gpiocdev.LineConfigOption

	// HoldPeriod is the minimum time lines are held at a value.
	HoldPeriod time.Duration

	// Toggle is the sequence of periods between toggles.
	//
	// If nil then the lines are not toggled.
	Toggle TimeSequence

	// Interactive reads commands from a prompt after setting the lines.
	Interactive bool

	// Daemonize detaches from the controlling terminal after the lines are
	// set.
	Daemonize bool

	// Banner prints the lines being set once they are requested.
	Banner bool

	// Log receives diagnostics. May be nil.
	Log logrus.FieldLogger
}

// DefaultConsumer is the consumer label used if none is provided.
const DefaultConsumer = "gpiocdev-set"

// lineRequest is the subset of gpiocdev.Request used to drive the lines.
type lineRequest interface {
	SetValues(values map[int]int) error
	ReadEdgeEvent(ctx context.Context) (gpiocdev.LineEvent, error)
	Close() error
}

// lineState is the state of a single requested line.
type lineState struct {
	// index into Setter.chips and Setter.requests
	chip   int
	offset int
	value  int

	// the value has changed and is yet to be written.
	dirty bool
}

// Sleeper blocks for a period, or until the ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Setter holds the requests for a set of lines and tracks their values.
//
// A Setter is not safe for concurrent use.
type Setter struct {
	// ids of the requested lines, in command line order.
	ids []string

	lines map[string]*lineState

	chips []gpiocdev.ChipInfo

	// the request on each chip.
	requests []lineRequest

	holdPeriod time.Duration

	// the last operation ended with a hold.
	lastHeld bool

	sleep Sleeper

	out io.Writer
}

// SetterOption modifies a Setter.
type SetterOption func(*Setter)

// WithSleeper replaces the function used to sleep.
func WithSleeper(s Sleeper) SetterOption {
	return func(st *Setter) {
		st.sleep = s
	}
}

// WithOutput replaces the writer that command output is written to.
func WithOutput(w io.Writer) SetterOption {
	return func(st *Setter) {
		st.out = w
	}
}

// Request resolves the lines and requests them as outputs, set to their
// initial values.
//
// Lines are requested with one request per chip. If any request fails then
// any requests already made are released and the error returned.
func Request(opts Options, options ...SetterOption) (*Setter, error) {
	return requester{
		resolve:     gpiocdev.Resolve,
		requestChip: requestLines,
	}.request(opts, options...)
}

func requestLines(ci gpiocdev.ChipInfo, rc *gpiocdev.RequestConfig, opts Options) (lineRequest, error) {
	c, err := gpiocdev.NewChip(ci.Path,
		gpiocdev.WithABIVersion(opts.ABI),
		gpiocdev.WithConsumer(opts.Consumer))
	if err != nil {
		return nil, err
	}
	defer c.Close()
	return c.RequestLines(rc)
}

type requester struct {
	resolve     func(ids []string, opts gpiocdev.ResolveOptions) (*gpiocdev.Resolution, error)
	requestChip func(ci gpiocdev.ChipInfo, rc *gpiocdev.RequestConfig, opts Options) (lineRequest, error)
}

func (r requester) request(opts Options, options ...SetterOption) (*Setter, error) {
	if opts.Consumer == "" {
		opts.Consumer = DefaultConsumer
	}
	ids := make([]string, len(opts.Lines))
	for i, lv := range opts.Lines {
		ids[i] = lv.ID
	}
	res, err := r.resolve(ids, gpiocdev.ResolveOptions{
		Chip:   opts.Chip,
		ByName: opts.ByName,
		Strict: opts.Strict,
		ABI:    opts.ABI,
		Log:    opts.Log,
	})
	if err != nil {
		return nil, err
	}
	if err = res.Validate(); err != nil {
		return nil, err
	}
	s := newSetter(res.Chips, opts.HoldPeriod, options...)
	for _, lv := range opts.Lines {
		if _, ok := s.lines[lv.ID]; ok {
			continue
		}
		m, _ := res.Line(lv.ID)
		s.ids = append(s.ids, lv.ID)
		s.lines[lv.ID] = &lineState{chip: m.Chip, offset: m.Offset, value: lv.Value}
	}
	for idx, ci := range s.chips {
		var offsets, values []int
		for _, id := range s.ids {
			ls := s.lines[id]
			if ls.chip == idx {
				offsets = append(offsets, ls.offset)
				values = append(values, ls.value)
			}
		}
		rc := gpiocdev.NewRequestConfig(opts.LineConfig...).
			WithLines(offsets, gpiocdev.AsOutput(values...))
		req, err := r.requestChip(ci, rc, opts)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to request and set lines on %s: %w", ci.Name, err)
		}
		if opts.Log != nil {
			opts.Log.WithFields(logrus.Fields{
				"chip":    ci.Name,
				"offsets": offsets,
				"values":  values,
			}).Debug("requested lines")
		}
		s.requests = append(s.requests, req)
	}
	return s, nil
}

func newSetter(chips []gpiocdev.ChipInfo, holdPeriod time.Duration, options ...SetterOption) *Setter {
	s := &Setter{
		lines:      map[string]*lineState{},
		chips:      chips,
		holdPeriod: holdPeriod,
		sleep:      sleep,
		out:        os.Stdout,
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// IDs returns the identifiers of the requested lines, in request order.
func (s *Setter) IDs() []string {
	return append([]string(nil), s.ids...)
}

// Values returns the current values of the lines.
//
// These are the values last written, not read back from the hardware.
func (s *Setter) Values() map[string]int {
	vv := make(map[string]int, len(s.lines))
	for id, ls := range s.lines {
		vv[id] = ls.value
	}
	return vv
}

// Close releases all the requested lines.
func (s *Setter) Close() error {
	var err error
	for _, r := range s.requests {
		if cerr := r.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	s.requests = nil
	return err
}

// Hold blocks for the hold period, if one is set.
func (s *Setter) Hold(ctx context.Context) error {
	if s.holdPeriod <= 0 {
		return nil
	}
	s.lastHeld = true
	return s.sleep(ctx, s.holdPeriod)
}

// Sleep blocks for the period, less any hold that immediately preceded it.
func (s *Setter) Sleep(ctx context.Context, d time.Duration) error {
	if s.lastHeld {
		s.lastHeld = false
		if d <= s.holdPeriod {
			return nil
		}
		d -= s.holdPeriod
	}
	return s.sleep(ctx, d)
}

// Toggle repeatedly inverts the value of all lines, waiting for the periods
// in the sequence between toggles.
//
// The periods are extended to the hold period where necessary.
// A sequence of a single zero period never toggles, and holds the lines until
// the ctx is done.
// If the final period is zero then Toggle returns after the preceding
// periods have each been applied once, otherwise the sequence repeats until
// the ctx is done.
func (s *Setter) Toggle(ctx context.Context, ts TimeSequence) error {
	if len(ts) == 0 || (len(ts) == 1 && ts[0] == 0) {
		if err := s.Hold(ctx); err != nil {
			return err
		}
		return s.Wait(ctx)
	}
	for idx := 0; ; {
		if err := s.sleep(ctx, max(ts[idx], s.holdPeriod)); err != nil {
			return err
		}
		s.toggleAll()
		if _, err := s.update(); err != nil {
			return err
		}
		idx++
		if idx == len(ts)-1 && ts[idx] == 0 {
			return nil
		}
		if idx == len(ts) {
			idx = 0
		}
	}
}

// Wait blocks until the ctx is done.
//
// It waits on an edge event that should never arrive, as the lines are all
// outputs, so the lines are held at their current values for as long as the
// process is willing to wait.
// Requests that cannot be read, such as uAPI v1 line handles which do not
// support poll, fall back to waiting on the ctx alone.
func (s *Setter) Wait(ctx context.Context) error {
	if len(s.requests) != 0 {
		for {
			_, err := s.requests[0].ReadEdgeEvent(ctx)
			if ctx.Err() != nil || err != nil {
				break
			}
		}
	}
	<-ctx.Done()
	return ctx.Err()
}

func (s *Setter) toggleAll() {
	for _, ls := range s.lines {
		ls.value ^= 1
		ls.dirty = true
	}
}

// update writes the values of dirty lines, with one request per chip with
// dirty lines.
//
// Returns true if any lines were written.
func (s *Setter) update() (bool, error) {
	updated := false
	for idx := range s.chips {
		values := map[int]int{}
		for _, ls := range s.lines {
			if ls.dirty && ls.chip == idx {
				values[ls.offset] = ls.value
				ls.dirty = false
			}
		}
		if len(values) == 0 {
			continue
		}
		if err := s.requests[idx].SetValues(values); err != nil {
			return updated, fmt.Errorf("set failed: %w", err)
		}
		updated = true
	}
	return updated, nil
}

// clean discards any pending changes.
func (s *Setter) clean() {
	for _, ls := range s.lines {
		ls.dirty = false
	}
}
