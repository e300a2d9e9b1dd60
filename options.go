// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package gpiocdev

import "time"

// ChipOption defines the interface required to provide a Chip option.
type ChipOption interface {
	applyChipOption(*ChipOptions)
}

// ChipOptions contains the options for a Chip.
type ChipOptions struct {
	consumer string
	abi      int
}

// RequestOption defines the interface required to provide an option for a
// line request.
type RequestOption interface {
	applyRequestOption(*requestOptions)
}

type requestOptions struct {
	consumer        string
	eventBufferSize int
}

// ConsumerOption defines the consumer label for a line.
type ConsumerOption string

// WithConsumer provides the consumer label for the line.
//
// When applied to a chip it provides the default consumer label for all lines
// requested by the chip.
func WithConsumer(consumer string) ConsumerOption {
	return ConsumerOption(consumer)
}

func (o ConsumerOption) applyChipOption(c *ChipOptions) {
	c.consumer = string(o)
}

func (o ConsumerOption) applyRequestOption(r *requestOptions) {
	r.consumer = string(o)
}

// ABIVersionOption selects the version of the GPIO ioctl ABI to be used for
// requests. Can be either 1 or 2, or 0 to probe the kernel.
type ABIVersionOption int

// WithABIVersion indicates the version of the GPIO ioctl ABI to be used for
// requests.
//
// This is intended to allow testing of the v1 uAPI on kernels that support
// v2.
func WithABIVersion(version int) ABIVersionOption {
	return ABIVersionOption(version)
}

func (o ABIVersionOption) applyChipOption(c *ChipOptions) {
	c.abi = int(o)
}

// EventBufferSizeOption provides a suggested minimum number of events the
// kernel will buffer for a request.
//
// Only supported by uAPI v2.
type EventBufferSizeOption int

// WithEventBufferSize suggests a minimum number of events that can be stored
// in the kernel event buffer for the request.
func WithEventBufferSize(size int) EventBufferSizeOption {
	return EventBufferSizeOption(size)
}

func (o EventBufferSizeOption) applyRequestOption(r *requestOptions) {
	r.eventBufferSize = int(o)
}

// LineConfigOption defines the interface required to update a line
// configuration.
//
// Each option only updates the fields of the configuration it owns, so the
// order options are applied in is irrelevant.
type LineConfigOption interface {
	// idx is the index of the line within the WithLines group, or -1 when
	// applied to the request defaults.
	applyLineConfig(ls *lineSettings, idx int)
}

// InputOption indicates the line direction should be set to an input.
type InputOption int

// AsInput indicates that a line be requested as an input.
const AsInput = InputOption(0)

func (o InputOption) applyLineConfig(ls *lineSettings, idx int) {
	ls.setDirection(LineDirectionInput)
}

// OutputOption indicates the line direction should be set to an output.
type OutputOption []int

// AsOutput indicates that a line or lines be requested as an output.
//
// The initial active state for outputs can be provided.
// When applied to the request defaults the values are applied to the lines
// in the order they were added to the request. When applied to a WithLines
// group they are applied to the lines of that group, in order.
// If fewer values are provided than lines then the remaining lines default
// to inactive.
func AsOutput(values ...int) OutputOption {
	vv := append([]int(nil), values...)
	return OutputOption(vv)
}

func (o OutputOption) applyLineConfig(ls *lineSettings, idx int) {
	ls.setDirection(LineDirectionOutput)
	if idx < 0 {
		ls.values = o
		return
	}
	if idx < len(o) {
		ls.setValue(o[idx])
	}
}

// LevelOption determines the line level that is considered active.
type LevelOption bool

const (
	// AsActiveLow indicates that a line be considered active when the line
	// level is low.
	AsActiveLow = LevelOption(true)

	// AsActiveHigh indicates that a line be considered active when the line
	// level is high.
	//
	// This is the default active level.
	AsActiveHigh = LevelOption(false)
)

func (o LevelOption) applyLineConfig(ls *lineSettings, idx int) {
	ls.setActiveLow(bool(o))
}

// BiasOption indicates how a line is to be biased.
type BiasOption LineBias

const (
	// WithBiasAsIs indicates that a line have its internal bias left
	// unchanged.
	WithBiasAsIs = BiasOption(LineBiasUnknown)

	// WithBiasDisabled indicates that a line have its internal bias disabled.
	WithBiasDisabled = BiasOption(LineBiasDisabled)

	// WithPullDown indicates that a line have its internal pull-down enabled.
	WithPullDown = BiasOption(LineBiasPullDown)

	// WithPullUp indicates that a line have its internal pull-up enabled.
	WithPullUp = BiasOption(LineBiasPullUp)
)

func (o BiasOption) applyLineConfig(ls *lineSettings, idx int) {
	ls.setBias(LineBias(o))
}

// DriveOption determines if a line is open drain, open source or push-pull.
//
// Only applicable to output lines.
type DriveOption LineDrive

const (
	// AsOpenDrain indicates that a line be driven low but left floating for
	// high.
	AsOpenDrain = DriveOption(LineDriveOpenDrain)

	// AsOpenSource indicates that a line be driven high but left floating
	// for low.
	AsOpenSource = DriveOption(LineDriveOpenSource)

	// AsPushPull indicates that a line be driven both low and high.
	//
	// This is the default for output lines.
	AsPushPull = DriveOption(LineDrivePushPull)
)

func (o DriveOption) applyLineConfig(ls *lineSettings, idx int) {
	ls.setDrive(LineDrive(o))
}

// EdgeOption indicates the edges to be detected by the line.
//
// Edge options are cumulative, so WithRisingEdge and WithFallingEdge combine
// to WithBothEdges. Only applicable to input lines.
type EdgeOption LineEdge

const (
	// WithRisingEdge indicates that a line will generate events when its
	// active state transitions from low to high.
	WithRisingEdge = EdgeOption(LineEdgeRising)

	// WithFallingEdge indicates that a line will generate events when its
	// active state transitions from high to low.
	WithFallingEdge = EdgeOption(LineEdgeFalling)

	// WithBothEdges indicates that a line will generate events when its
	// active state transitions from low to high and from high to low.
	WithBothEdges = EdgeOption(LineEdgeBoth)
)

func (o EdgeOption) applyLineConfig(ls *lineSettings, idx int) {
	ls.addEdges(LineEdge(o))
}

// DebounceOption indicates that a line will be debounced.
//
// Only supported by uAPI v2.
type DebounceOption time.Duration

// WithDebounce indicates that a line will be debounced with the specified
// debounce period.
//
// A zero period disables debouncing.
func WithDebounce(period time.Duration) DebounceOption {
	return DebounceOption(period)
}

func (o DebounceOption) applyLineConfig(ls *lineSettings, idx int) {
	ls.setDebounce(time.Duration(o))
}

// EventClockOption indicates the event clock source used to timestamp edge
// events.
type EventClockOption LineEventClock

const (
	// WithMonotonicEventClock specifies that the edge event timestamps are
	// sourced from CLOCK_MONOTONIC.
	WithMonotonicEventClock = EventClockOption(LineEventClockMonotonic)

	// WithRealtimeEventClock specifies that the edge event timestamps are
	// sourced from CLOCK_REALTIME.
	//
	// Only supported by uAPI v2.
	WithRealtimeEventClock = EventClockOption(LineEventClockRealtime)
)

func (o EventClockOption) applyLineConfig(ls *lineSettings, idx int) {
	ls.setEventClock(LineEventClock(o))
}
