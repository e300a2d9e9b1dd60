// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package gpiocdev

import (
	"fmt"
	"time"

	"github.com/warthog618/gpiocdev/uapi"
)

// fields of LineConfig that can be set independently.
type field uint8

const (
	fieldDirection field = 1 << iota
	fieldActiveLow
	fieldDrive
	fieldBias
	fieldEdge
	fieldDebounce
	fieldEventClock
	fieldValue
)

var fieldNames = map[field]string{
	fieldDirection:  "direction",
	fieldActiveLow:  "active level",
	fieldDrive:      "drive",
	fieldBias:       "bias",
	fieldDebounce:   "debounce",
	fieldEventClock: "event clock",
	fieldValue:      "output value",
}

// lineSettings are the explicitly set fields of a line, or of the request
// defaults.
type lineSettings struct {
	set   field
	cfg   LineConfig
	value int

	// output values for the request defaults, in request order.
	values []int

	// the first field set twice with different values.
	conflict field
}

func (ls *lineSettings) mark(f field, same bool) {
	if ls.set&f != 0 && !same && ls.conflict == 0 {
		ls.conflict = f
	}
	ls.set |= f
}

func (ls *lineSettings) setDirection(d LineDirection) {
	ls.mark(fieldDirection, ls.cfg.Direction == d)
	ls.cfg.Direction = d
}

func (ls *lineSettings) setValue(v int) {
	if v != 0 {
		v = 1
	}
	ls.mark(fieldValue, ls.value == v)
	ls.value = v
}

func (ls *lineSettings) setActiveLow(al bool) {
	ls.mark(fieldActiveLow, ls.cfg.ActiveLow == al)
	ls.cfg.ActiveLow = al
}

func (ls *lineSettings) setDrive(d LineDrive) {
	ls.mark(fieldDrive, ls.cfg.Drive == d)
	ls.cfg.Drive = d
}

func (ls *lineSettings) setBias(b LineBias) {
	ls.mark(fieldBias, ls.cfg.Bias == b)
	ls.cfg.Bias = b
}

func (ls *lineSettings) addEdges(e LineEdge) {
	ls.set |= fieldEdge
	ls.cfg.EdgeDetection |= e
}

func (ls *lineSettings) setDebounce(d time.Duration) {
	ls.mark(fieldDebounce, ls.cfg.DebouncePeriod == d)
	ls.cfg.DebouncePeriod = d
	ls.cfg.Debounced = d != 0
}

func (ls *lineSettings) setEventClock(c LineEventClock) {
	ls.mark(fieldEventClock, ls.cfg.EventClock == c)
	ls.cfg.EventClock = c
}

// overlay applies the explicitly set fields of ls to lc.
func (ls *lineSettings) overlay(lc *LineConfig) {
	if ls.set&fieldDirection != 0 {
		lc.Direction = ls.cfg.Direction
	}
	if ls.set&fieldActiveLow != 0 {
		lc.ActiveLow = ls.cfg.ActiveLow
	}
	if ls.set&fieldDrive != 0 {
		lc.Drive = ls.cfg.Drive
	}
	if ls.set&fieldBias != 0 {
		lc.Bias = ls.cfg.Bias
	}
	if ls.set&fieldEdge != 0 {
		lc.EdgeDetection = ls.cfg.EdgeDetection
	}
	if ls.set&fieldDebounce != 0 {
		lc.Debounced = ls.cfg.Debounced
		lc.DebouncePeriod = ls.cfg.DebouncePeriod
	}
	if ls.set&fieldEventClock != 0 {
		lc.EventClock = ls.cfg.EventClock
	}
}

// RequestConfig is the configuration for a set of lines to be requested from
// a single chip.
//
// The config is built from request defaults, provided to NewRequestConfig,
// and per-line settings, provided to WithLines. The effective config of a
// line is the request defaults overridden by any per-line settings.
type RequestConfig struct {
	base    lineSettings
	offsets []int
	lines   map[int]*lineSettings
}

// NewRequestConfig creates a RequestConfig with the given defaults.
func NewRequestConfig(options ...LineConfigOption) *RequestConfig {
	rc := &RequestConfig{lines: map[int]*lineSettings{}}
	for _, option := range options {
		option.applyLineConfig(&rc.base, -1)
	}
	return rc
}

// WithLines adds lines to the config, and applies the options to those lines.
//
// Lines may be added more than once, in which case the options accumulate.
func (rc *RequestConfig) WithLines(offsets []int, options ...LineConfigOption) *RequestConfig {
	for idx, offset := range offsets {
		ls, ok := rc.lines[offset]
		if !ok {
			ls = &lineSettings{}
			rc.lines[offset] = ls
			rc.offsets = append(rc.offsets, offset)
		}
		for _, option := range options {
			option.applyLineConfig(ls, idx)
		}
	}
	return rc
}

// Offsets returns the offsets of the lines in the config, in the order they
// were added.
func (rc *RequestConfig) Offsets() []int {
	return append([]int(nil), rc.offsets...)
}

// LineConfig returns the effective config for a line, and its initial output
// value.
func (rc *RequestConfig) LineConfig(offset int) (LineConfig, int, bool) {
	for idx, o := range rc.offsets {
		if o == offset {
			lc, v := rc.effective(idx)
			return lc, v, true
		}
	}
	return LineConfig{}, 0, false
}

func (rc *RequestConfig) effective(idx int) (LineConfig, int) {
	lc := rc.base.cfg
	v := 0
	if idx < len(rc.base.values) && rc.base.values[idx] != 0 {
		v = 1
	}
	ls := rc.lines[rc.offsets[idx]]
	ls.overlay(&lc)
	if ls.set&fieldValue != 0 {
		v = ls.value
	}
	if lc.Direction != LineDirectionOutput {
		v = 0
	}
	return lc, v
}

func (rc *RequestConfig) effectiveAll() ([]LineConfig, []int) {
	cfgs := make([]LineConfig, len(rc.offsets))
	values := make([]int, len(rc.offsets))
	for idx := range rc.offsets {
		cfgs[idx], values[idx] = rc.effective(idx)
	}
	return cfgs, values
}

// Validate checks the config for conflicting or inapplicable settings.
//
// It does not check the offsets are valid for any particular chip.
func (rc *RequestConfig) Validate() error {
	if len(rc.offsets) == 0 {
		return &ConfigError{Offset: -1, Reason: "no lines"}
	}
	if len(rc.offsets) > uapi.LinesMax {
		return &ConfigError{
			Offset: -1,
			Reason: fmt.Sprintf("too many lines (%d > %d)", len(rc.offsets), uapi.LinesMax),
		}
	}
	if rc.base.conflict != 0 {
		return &ConfigError{Offset: -1, Reason: "conflicting " + fieldNames[rc.base.conflict]}
	}
	for idx, offset := range rc.offsets {
		if offset < 0 {
			return &ConfigError{Offset: offset, Reason: "negative offset"}
		}
		ls := rc.lines[offset]
		if ls.conflict != 0 {
			return &ConfigError{Offset: offset, Reason: "conflicting " + fieldNames[ls.conflict]}
		}
		lc, _ := rc.effective(idx)
		if lc.Drive != LineDrivePushPull && lc.Direction != LineDirectionOutput {
			return &ConfigError{Offset: offset, Reason: lc.Drive.String() + " requires output"}
		}
		if lc.EdgeDetection != LineEdgeNone && lc.Direction == LineDirectionOutput {
			return &ConfigError{Offset: offset, Reason: "edge detection requires input"}
		}
		if lc.Debounced && lc.Direction == LineDirectionOutput {
			return &ConfigError{Offset: offset, Reason: "debounce requires input"}
		}
	}
	return nil
}

func (lc LineConfig) toHandleFlags() uapi.HandleFlag {
	var flags uapi.HandleFlag

	if lc.ActiveLow {
		flags |= uapi.HandleRequestActiveLow
	}

	switch lc.Direction {
	case LineDirectionOutput:
		flags |= uapi.HandleRequestOutput
	case LineDirectionInput:
		flags |= uapi.HandleRequestInput
	}

	switch lc.Drive {
	case LineDriveOpenDrain:
		flags |= uapi.HandleRequestOpenDrain
	case LineDriveOpenSource:
		flags |= uapi.HandleRequestOpenSource
	}

	switch lc.Bias {
	case LineBiasPullUp:
		flags |= uapi.HandleRequestPullUp
	case LineBiasPullDown:
		flags |= uapi.HandleRequestPullDown
	case LineBiasDisabled:
		flags |= uapi.HandleRequestBiasDisable
	}

	return flags
}

func (lc LineConfig) toEventFlags() uapi.EventFlag {
	switch lc.EdgeDetection {
	case LineEdgeBoth:
		return uapi.EventRequestBothEdges
	case LineEdgeRising:
		return uapi.EventRequestRisingEdge
	case LineEdgeFalling:
		return uapi.EventRequestFallingEdge
	default:
		return 0
	}
}

func (lc LineConfig) toLineFlagV2() (flags uapi.LineFlagV2) {
	if lc.ActiveLow {
		flags |= uapi.LineFlagV2ActiveLow
	}
	if lc.Direction == LineDirectionOutput {
		flags |= uapi.LineFlagV2Output
		if lc.Drive == LineDriveOpenDrain {
			flags |= uapi.LineFlagV2OpenDrain
		} else if lc.Drive == LineDriveOpenSource {
			flags |= uapi.LineFlagV2OpenSource
		}
	} else if lc.Direction == LineDirectionInput {
		flags |= uapi.LineFlagV2Input
		if lc.EdgeDetection&LineEdgeRising != 0 {
			flags |= uapi.LineFlagV2EdgeRising
		}
		if lc.EdgeDetection&LineEdgeFalling != 0 {
			flags |= uapi.LineFlagV2EdgeFalling
		}
		if lc.EventClock == LineEventClockRealtime {
			flags |= uapi.LineFlagV2EventClockRealtime
		}
	}

	switch lc.Bias {
	case LineBiasDisabled:
		flags |= uapi.LineFlagV2BiasDisabled
	case LineBiasPullUp:
		flags |= uapi.LineFlagV2BiasPullUp
	case LineBiasPullDown:
		flags |= uapi.LineFlagV2BiasPullDown
	}
	return
}

// v1Config is the config mapped to uAPI v1.
type v1Config struct {
	handleFlags uapi.HandleFlag
	eventFlags  uapi.EventFlag
	values      uapi.HandleData
}

// toV1 maps the config to uAPI v1, which requires all lines share the same
// config, and only supports edge detection on a single line.
func (rc *RequestConfig) toV1() (v1Config, error) {
	var c v1Config
	if err := rc.Validate(); err != nil {
		return c, err
	}
	cfgs, values := rc.effectiveAll()
	for i, lc := range cfgs {
		if lc.Debounced {
			return c, ErrUapiIncompatibility{"debounce", 1}
		}
		if lc.EventClock != LineEventClockMonotonic {
			return c, ErrUapiIncompatibility{"event clock", 1}
		}
		if lc != cfgs[0] {
			return c, ErrUapiIncompatibility{"per-line config", 1}
		}
		c.values[i] = uint8(values[i])
	}
	c.handleFlags = cfgs[0].toHandleFlags()
	c.eventFlags = cfgs[0].toEventFlags()
	if c.eventFlags != 0 && len(cfgs) > 1 {
		return c, ErrUapiIncompatibility{"edge detection on multiple lines", 1}
	}
	return c, nil
}

// toV2 maps the config to uAPI v2.
//
// The flags of the first line become the base flags, and lines with other
// flags are grouped into flag attributes.
func (rc *RequestConfig) toV2() (uapi.LineConfig, error) {
	var ulc uapi.LineConfig
	if err := rc.Validate(); err != nil {
		return ulc, err
	}
	cfgs, values := rc.effectiveAll()
	ulc.Flags = cfgs[0].toLineFlagV2()

	var flags []uapi.LineFlagV2
	flagMasks := map[uapi.LineFlagV2]uapi.LineBitmap{}
	var periods []time.Duration
	debounceMasks := map[time.Duration]uapi.LineBitmap{}
	var outputs, bits uapi.LineBitmap
	for i, lc := range cfgs {
		if f := lc.toLineFlagV2(); f != ulc.Flags {
			if _, ok := flagMasks[f]; !ok {
				flags = append(flags, f)
			}
			flagMasks[f] = flagMasks[f].Set(i, 1)
		}
		if lc.Debounced {
			if _, ok := debounceMasks[lc.DebouncePeriod]; !ok {
				periods = append(periods, lc.DebouncePeriod)
			}
			debounceMasks[lc.DebouncePeriod] = debounceMasks[lc.DebouncePeriod].Set(i, 1)
		}
		if lc.Direction == LineDirectionOutput {
			outputs = outputs.Set(i, 1)
			bits = bits.Set(i, values[i])
		}
	}
	var attrs []uapi.LineConfigAttribute
	for _, f := range flags {
		attrs = append(attrs, uapi.LineConfigAttribute{Attr: f.Encode(), Mask: flagMasks[f]})
	}
	if outputs != 0 {
		attrs = append(attrs, uapi.LineConfigAttribute{
			Attr: uapi.OutputValues(bits).Encode(),
			Mask: outputs,
		})
	}
	for _, p := range periods {
		attrs = append(attrs, uapi.LineConfigAttribute{
			Attr: uapi.DebouncePeriod(p).Encode(),
			Mask: debounceMasks[p],
		})
	}
	if len(attrs) > uapi.LineConfigAttributesMax {
		return ulc, ErrConfigOverflow
	}
	for _, a := range attrs {
		ulc.AddAttribute(a)
	}
	return ulc, nil
}
