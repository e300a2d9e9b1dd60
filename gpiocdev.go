// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

// Package gpiocdev is a library for accessing GPIO lines on Linux platforms
// using the GPIO character device.
//
// Both versions of the kernel uAPI are supported, with the version selected
// when the chip is opened, either explicitly or by probing the kernel.
//
// Supports:
//   - Line direction (input/output)
//   - Line write (active/inactive)
//   - Line read (active/inactive)
//   - Line bias (pull-up/pull-down/disabled)
//   - Line drive (push-pull/open-drain/open-source)
//   - Line level (active-high/active-low)
//   - Line edge detection (rising/falling/both)
//   - Line info change watches
//   - Resolving line names to chip and offset across all chips
//
// Example of use:
//
//	c, err := gpiocdev.NewChip("gpiochip0")
//	if err != nil {
//		panic(err)
//	}
//	defer c.Close()
//	cfg := gpiocdev.NewRequestConfig(gpiocdev.AsOutput()).
//		WithLines([]int{4})
//	r, err := c.RequestLines(cfg)
//	if err != nil {
//		panic(err)
//	}
//	defer r.Close()
//	v := 0
//	for {
//		<-time.After(time.Second)
//		v ^= 1
//		r.SetValues(map[int]int{4: v})
//	}
package gpiocdev

import (
	"time"

	"github.com/warthog618/gpiocdev/uapi"
)

// LineConfig contains the configuration parameters for the line.
type LineConfig struct {
	// A flag indicating if the line is active low.
	ActiveLow bool

	// The line direction.
	Direction LineDirection

	// The line drive.
	Drive LineDrive

	// The line bias.
	Bias LineBias

	// The line edge detection.
	EdgeDetection LineEdge

	// A flag indicating if the line is debounced.
	Debounced bool

	// The line debounce period.
	DebouncePeriod time.Duration

	// The source clock for events on the line.
	EventClock LineEventClock
}

// LineDirection indicates the direction of a line.
type LineDirection int

const (
	// LineDirectionUnknown indicate the line direction is unknown.
	LineDirectionUnknown LineDirection = iota

	// LineDirectionInput indicates the line is an input.
	LineDirectionInput

	// LineDirectionOutput indicates the line is an output.
	LineDirectionOutput
)

func (d LineDirection) String() string {
	switch d {
	case LineDirectionInput:
		return "input"
	case LineDirectionOutput:
		return "output"
	}
	return "unknown"
}

// LineDrive indicates the drive of an output line.
type LineDrive int

const (
	// LineDrivePushPull indicates the line is driven in both directions.
	LineDrivePushPull LineDrive = iota

	// LineDriveOpenDrain indicates the line is an open drain output.
	LineDriveOpenDrain

	// LineDriveOpenSource indicates the line is an open source output.
	LineDriveOpenSource
)

func (d LineDrive) String() string {
	switch d {
	case LineDriveOpenDrain:
		return "open-drain"
	case LineDriveOpenSource:
		return "open-source"
	}
	return "push-pull"
}

// LineBias indicates the bias applied to a line.
type LineBias int

const (
	// LineBiasUnknown indicates the line bias is unknown.
	LineBiasUnknown LineBias = iota

	// LineBiasDisabled indicates the line bias is disabled.
	LineBiasDisabled

	// LineBiasPullUp indicates the line has pull up enabled.
	LineBiasPullUp

	// LineBiasPullDown indicates the line has pull down enabled.
	LineBiasPullDown
)

func (b LineBias) String() string {
	switch b {
	case LineBiasDisabled:
		return "disabled"
	case LineBiasPullUp:
		return "pull-up"
	case LineBiasPullDown:
		return "pull-down"
	}
	return "unknown"
}

// LineEdge indicates the edges detected by the line.
type LineEdge int

const (
	// LineEdgeNone indicates the line edge detection is disabled.
	LineEdgeNone LineEdge = iota

	// LineEdgeRising indicates the line has rising edge detection enabled.
	LineEdgeRising

	// LineEdgeFalling indicates the line has falling edge detection enabled.
	LineEdgeFalling

	// LineEdgeBoth indicates the line has both rising and falling edge
	// detection enabled.
	LineEdgeBoth = LineEdgeRising | LineEdgeFalling
)

func (e LineEdge) String() string {
	switch e {
	case LineEdgeRising:
		return "rising"
	case LineEdgeFalling:
		return "falling"
	case LineEdgeBoth:
		return "both"
	}
	return "none"
}

// LineEventClock indicates the source clock used to timestamp edge events.
type LineEventClock int

const (
	// LineEventClockMonotonic indicates the source clock is CLOCK_MONOTONIC.
	LineEventClockMonotonic LineEventClock = iota

	// LineEventClockRealtime indicates the source clock is CLOCK_REALTIME.
	LineEventClockRealtime
)

// LineInfo contains a summary of publicly available information about the
// line.
type LineInfo struct {
	// The line offset within the chip.
	Offset int

	// The system name for the line.
	Name string

	// A string identifying the requester of the line, if requested.
	Consumer string

	// The line is in use.
	Used bool

	// The configuration parameters for the line.
	Config LineConfig
}

// LineEventType indicates the type of change to the line active state.
//
// Note that for active low lines a low line level results in a high active
// state.
type LineEventType int

const (
	_ LineEventType = iota

	// LineEventRisingEdge indicates an inactive to active event.
	LineEventRisingEdge

	// LineEventFallingEdge indicates an active to inactive event.
	LineEventFallingEdge
)

func (t LineEventType) String() string {
	if t == LineEventRisingEdge {
		return "rising"
	}
	return "falling"
}

// LineEvent represents a change in the state of a line.
type LineEvent struct {
	// The line offset within the GPIO chip.
	Offset int

	// Timestamp indicates the time the event was detected.
	//
	// The timestamp is intended for accurately measuring intervals between
	// events. It is not guaranteed to be based on a particular clock.
	Timestamp time.Duration

	// The type of state change event this structure represents.
	Type LineEventType

	// The sequence number for this event in the sequence of events for all
	// the lines in this request.
	//
	// Always zero for uAPI v1.
	Seqno uint32

	// The sequence number for this event in the sequence of events on this
	// particular line.
	//
	// Always zero for uAPI v1.
	LineSeqno uint32
}

// LineInfoChangeEvent represents a change in the info a line.
type LineInfoChangeEvent struct {
	// Info is the updated line info.
	Info LineInfo

	// Timestamp indicates the time the event was detected.
	Timestamp time.Duration

	// The type of info change event this structure represents.
	Type LineInfoChangeType
}

// LineInfoChangeType indicates the type of change to the line info.
type LineInfoChangeType int

const (
	_ LineInfoChangeType = iota

	// LineRequested indicates the line has been requested.
	LineRequested

	// LineReleased indicates the line has been released.
	LineReleased

	// LineReconfigured indicates the line configuration has changed.
	LineReconfigured
)

func (t LineInfoChangeType) String() string {
	switch t {
	case LineRequested:
		return "requested"
	case LineReleased:
		return "released"
	case LineReconfigured:
		return "reconfigured"
	}
	return "unknown"
}

func lineInfoToLineConfig(li uapi.LineInfo) LineConfig {
	lc := LineConfig{}
	lc.ActiveLow = li.Flags.IsActiveLow()

	if li.Flags.IsOut() {
		lc.Direction = LineDirectionOutput
		if li.Flags.IsOpenDrain() {
			lc.Drive = LineDriveOpenDrain
		} else if li.Flags.IsOpenSource() {
			lc.Drive = LineDriveOpenSource
		}
	} else {
		lc.Direction = LineDirectionInput
	}

	if li.Flags.IsPullUp() {
		lc.Bias = LineBiasPullUp
	} else if li.Flags.IsPullDown() {
		lc.Bias = LineBiasPullDown
	} else if li.Flags.IsBiasDisable() {
		lc.Bias = LineBiasDisabled
	}
	return lc
}

func lineInfoV2ToLineConfig(li uapi.LineInfoV2) LineConfig {
	lc := LineConfig{}
	lc.ActiveLow = li.Flags.IsActiveLow()

	if li.Flags.IsOutput() {
		lc.Direction = LineDirectionOutput
		if li.Flags.IsOpenDrain() {
			lc.Drive = LineDriveOpenDrain
		} else if li.Flags.IsOpenSource() {
			lc.Drive = LineDriveOpenSource
		}
	} else if li.Flags.IsInput() {
		lc.Direction = LineDirectionInput
	}

	if li.Flags.IsBothEdges() {
		lc.EdgeDetection = LineEdgeBoth
	} else if li.Flags.IsRisingEdge() {
		lc.EdgeDetection = LineEdgeRising
	} else if li.Flags.IsFallingEdge() {
		lc.EdgeDetection = LineEdgeFalling
	}

	if li.Flags.IsBiasPullUp() {
		lc.Bias = LineBiasPullUp
	} else if li.Flags.IsBiasPullDown() {
		lc.Bias = LineBiasPullDown
	} else if li.Flags.IsBiasDisabled() {
		lc.Bias = LineBiasDisabled
	}

	if li.Flags.HasRealtimeEventClock() {
		lc.EventClock = LineEventClockRealtime
	}

	for i := 0; i < int(li.NumAttrs) && i < len(li.Attrs); i++ {
		if li.Attrs[i].ID == uapi.LineAttributeIDDebounce {
			var dp uapi.DebouncePeriod
			dp.Decode(li.Attrs[i])
			lc.Debounced = true
			lc.DebouncePeriod = time.Duration(dp)
		}
	}
	return lc
}

func newLineInfo(li uapi.LineInfo) LineInfo {
	return LineInfo{
		Offset:   int(li.Offset),
		Name:     uapi.BytesToString(li.Name[:]),
		Consumer: uapi.BytesToString(li.Consumer[:]),
		Used:     li.Flags.IsUsed(),
		Config:   lineInfoToLineConfig(li),
	}
}

func newLineInfoV2(li uapi.LineInfoV2) LineInfo {
	return LineInfo{
		Offset:   int(li.Offset),
		Name:     uapi.BytesToString(li.Name[:]),
		Consumer: uapi.BytesToString(li.Consumer[:]),
		Used:     li.Flags.IsUsed(),
		Config:   lineInfoV2ToLineConfig(li),
	}
}

func newLineEventType(k uapi.EdgeKind) LineEventType {
	if k == uapi.EdgeRising {
		return LineEventRisingEdge
	}
	return LineEventFallingEdge
}

func newLineInfoChangeType(k uapi.InfoChangeKind) LineInfoChangeType {
	switch k {
	case uapi.LineChangedRequested:
		return LineRequested
	case uapi.LineChangedReleased:
		return LineReleased
	}
	return LineReconfigured
}
