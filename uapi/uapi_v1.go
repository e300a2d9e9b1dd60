// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package uapi

import (
	"fmt"
	"unsafe"
)

// GetLineInfo returns the LineInfo for one line from the GPIO character device.
//
// The fd is an open GPIO character device.
// The offset is zero based.
func GetLineInfo(fd uintptr, offset int) (LineInfo, error) {
	li := LineInfo{Offset: uint32(offset)}
	if err := ioctlPtr(fd, getLineInfoIoctl, unsafe.Pointer(&li)); err != nil {
		return LineInfo{}, err
	}
	return li, nil
}

// GetLineEvent requests a line from the GPIO character device with event
// reporting enabled.
//
// The fd is an open GPIO character device.
// The line must be an input and must not already be requested.
// If successful, the fd for the line is returned in the request.fd.
func GetLineEvent(fd uintptr, request *EventRequest) error {
	if err := request.HandleFlags.Validate(); err != nil {
		return err
	}
	if request.HandleFlags.IsOutput() {
		return fmt.Errorf("%w: edge detection on output", ErrConflictingFlags)
	}
	return ioctlPtr(fd, getLineEventIoctl, unsafe.Pointer(request))
}

// GetLineHandle requests a line from the GPIO character device.
//
// This request is without event reporting.
// The fd is an open GPIO character device.
// The lines must not already be requested.
// The flags in the request will be applied to all lines in the request.
// If successful, the fd for the line is returned in the request.fd.
func GetLineHandle(fd uintptr, request *HandleRequest) error {
	if err := request.Flags.Validate(); err != nil {
		return err
	}
	return ioctlPtr(fd, getLineHandleIoctl, unsafe.Pointer(request))
}

// GetLineValues returns the values of a set of requested lines.
//
// The fd is a requested line, as returned by GetLineHandle or GetLineEvent.
func GetLineValues(fd uintptr, values *HandleData) error {
	return ioctlPtr(fd, getLineValuesIoctl, unsafe.Pointer(&values[0]))
}

// SetLineValues sets the values of a set of requested lines.
//
// The fd is a requested line, as returned by GetLineHandle or GetLineEvent.
func SetLineValues(fd uintptr, values HandleData) error {
	return ioctlPtr(fd, setLineValuesIoctl, unsafe.Pointer(&values[0]))
}

// SetLineConfig sets the config of an existing handle request.
//
// The config flags in the request will be applied to all lines in the handle
// request.
func SetLineConfig(fd uintptr, config *HandleConfig) error {
	if err := config.Flags.Validate(); err != nil {
		return err
	}
	return ioctlPtr(fd, setLineConfigIoctl, unsafe.Pointer(config))
}

// WatchLineInfo sets a watch on info of a line.
//
// A watch is set on the line indicated by info.Offset. If successful the
// current line info is returned, else an error is returned.
func WatchLineInfo(fd uintptr, info *LineInfo) error {
	return ioctlPtr(fd, watchLineInfoIoctl, unsafe.Pointer(info))
}

// UnwatchLineInfo clears a watch on info of a line.
//
// Disables the watch on info for the line.
// This is common to both ABI versions.
func UnwatchLineInfo(fd uintptr, offset uint32) error {
	return ioctlPtr(fd, unwatchLineInfoIoctl, unsafe.Pointer(&offset))
}

// ReadEvent reads a single event from a requested line.
//
// The fd is a requested line, as returned by GetLineEvent.
//
// This function is blocking and should only be called when the fd is known to
// be ready to read.
func ReadEvent(fd uintptr) (EventData, error) {
	var buf [eventDataSize]byte
	if err := readFull(fd, buf[:]); err != nil {
		return EventData{}, err
	}
	return DecodeEventData(buf[:])
}

// DecodeEventData decodes an EventData from its kernel representation.
//
// The event kind is range checked.
func DecodeEventData(b []byte) (EventData, error) {
	if err := checkLen(b, eventDataSize); err != nil {
		return EventData{}, err
	}
	id, err := ParseEdgeKind(nativeEndian.Uint32(b[8:]))
	if err != nil {
		return EventData{}, err
	}
	return EventData{Timestamp: nativeEndian.Uint64(b), ID: id}, nil
}

// ReadLineInfoChanged reads a line info changed event from a chip.
//
// The fd is an open GPIO character device.
//
// This function is blocking and should only be called when the fd is known to
// be ready to read.
func ReadLineInfoChanged(fd uintptr) (LineInfoChanged, error) {
	var buf [lineInfoChangedSize]byte
	if err := readFull(fd, buf[:]); err != nil {
		return LineInfoChanged{}, err
	}
	return DecodeLineInfoChanged(buf[:])
}

// DecodeLineInfoChanged decodes a LineInfoChanged from its kernel
// representation.
//
// The change kind is range checked.
func DecodeLineInfoChanged(b []byte) (LineInfoChanged, error) {
	if err := checkLen(b, lineInfoChangedSize); err != nil {
		return LineInfoChanged{}, err
	}
	kind, err := ParseInfoChangeKind(nativeEndian.Uint32(b[lineInfoSize+8:]))
	if err != nil {
		return LineInfoChanged{}, err
	}
	lic := LineInfoChanged{
		Info:      decodeLineInfo(b),
		Timestamp: nativeEndian.Uint64(b[lineInfoSize:]),
		Type:      kind,
	}
	return lic, nil
}

func decodeLineInfo(b []byte) LineInfo {
	li := LineInfo{
		Offset: nativeEndian.Uint32(b),
		Flags:  LineFlag(nativeEndian.Uint32(b[4:])),
	}
	copy(li.Name[:], b[8:8+nameSize])
	copy(li.Consumer[:], b[8+nameSize:8+2*nameSize])
	return li
}

// LineInfo contains the details of a single line of a GPIO chip.
type LineInfo struct {
	// The offset of the line within the chip.
	Offset uint32

	// The line flags applied to this line.
	Flags LineFlag

	// The system name for this line.
	Name [nameSize]byte

	// If requested, a string added by the requester to identify the
	// owner of the request.
	Consumer [nameSize]byte
}

// LineInfoChanged contains the details of a change to line info.
//
// This is returned via the chip fd in response to changes to watched lines.
type LineInfoChanged struct {
	// The updated info.
	Info LineInfo

	// The time the change occurred.
	Timestamp uint64

	// The type of change.
	Type InfoChangeKind

	// reserved for future use.
	_ [5]uint32
}

// LineFlag are the flags for a line.
type LineFlag uint32

const (
	// LineFlagUsed indicates that the line is already in use.
	// It may have been requested by this process or another process,
	// or may be reserved by the kernel.
	LineFlagUsed LineFlag = 1 << iota

	// LineFlagIsOut indicates that the line is an output.
	LineFlagIsOut

	// LineFlagActiveLow indicates that the line is active low.
	LineFlagActiveLow

	// LineFlagOpenDrain indicates that the line will pull low when set low but
	// float when set high. This flag only applies to output lines.
	LineFlagOpenDrain

	// LineFlagOpenSource indicates that the line will pull high when set high
	// but float when set low. This flag only applies to output lines.
	LineFlagOpenSource

	// LineFlagPullUp indicates that the internal line pull up is enabled.
	LineFlagPullUp

	// LineFlagPullDown indicates that the internal line pull down is enabled.
	LineFlagPullDown

	// LineFlagBiasDisabled indicates that the internal line bias is disabled.
	LineFlagBiasDisabled
)

// IsUsed returns true if the line is not available to be requested.
func (f LineFlag) IsUsed() bool {
	return f&LineFlagUsed != 0
}

// IsOut returns true if the line is an output.
func (f LineFlag) IsOut() bool {
	return f&LineFlagIsOut != 0
}

// IsActiveLow returns true if the line is active low.
func (f LineFlag) IsActiveLow() bool {
	return f&LineFlagActiveLow != 0
}

// IsOpenDrain returns true if the line is open-drain.
func (f LineFlag) IsOpenDrain() bool {
	return f&LineFlagOpenDrain != 0
}

// IsOpenSource returns true if the line is open-source.
func (f LineFlag) IsOpenSource() bool {
	return f&LineFlagOpenSource != 0
}

// IsBiasDisable returns true if the line has bias disabled.
func (f LineFlag) IsBiasDisable() bool {
	return f&LineFlagBiasDisabled != 0
}

// IsPullDown returns true if the line has pull-down enabled.
func (f LineFlag) IsPullDown() bool {
	return f&LineFlagPullDown != 0
}

// IsPullUp returns true if the line has pull-up enabled.
func (f LineFlag) IsPullUp() bool {
	return f&LineFlagPullUp != 0
}

// HandleConfig is a request to change the config of an existing request.
//
// Can be applied to both handle and event requests.
// Event requests cannot be reconfigured to outputs.
type HandleConfig struct {
	// The flags to be applied to the lines.
	Flags HandleFlag

	// The default values to be applied to output lines (when
	// HandleRequestOutput is set in the Flags).
	DefaultValues [HandlesMax]uint8

	// reserved for future use.
	_ [4]uint32
}

// HandleRequest is a request for control of a set of lines.
// The lines must all be on the same GPIO chip.
type HandleRequest struct {
	// The lines to be requested.
	Offsets [HandlesMax]uint32

	// The flags to be applied to the lines.
	Flags HandleFlag

	// The default values to be applied to output lines.
	DefaultValues [HandlesMax]uint8

	// The string identifying the requester to be applied to the lines.
	Consumer [nameSize]byte

	// The number of lines being requested.
	Lines uint32

	// The file handle for the requested lines.
	// Set if the request is successful.
	Fd int32
}

// HandleFlag contains the flags applied to the lines of a handle request.
type HandleFlag uint32

const (
	// HandleRequestInput requests the line as an input.
	HandleRequestInput HandleFlag = 1 << iota

	// HandleRequestOutput requests the line as an output.
	HandleRequestOutput

	// HandleRequestActiveLow requests the line be made active low.
	HandleRequestActiveLow

	// HandleRequestOpenDrain requests the line be made open drain.
	//
	// This option requires the line to be requested as an Output.
	// This cannot be set at the same time as OpenSource.
	HandleRequestOpenDrain

	// HandleRequestOpenSource requests the line be made open source.
	//
	// This option requires the line to be requested as an Output.
	// This cannot be set at the same time as OpenDrain.
	HandleRequestOpenSource

	// HandleRequestPullUp requests the line have pull-up enabled.
	HandleRequestPullUp

	// HandleRequestPullDown requests the line have pull-down enabled.
	HandleRequestPullDown

	// HandleRequestBiasDisable requests the line have bias disabled.
	HandleRequestBiasDisable

	// HandlesMax is the maximum number of lines that can be requested in a
	// single request.
	HandlesMax = 64

	handleBiasMask  = HandleRequestPullUp | HandleRequestPullDown | HandleRequestBiasDisable
	handleDriveMask = HandleRequestOpenDrain | HandleRequestOpenSource
)

// Validate returns an error if the flags contain mutually exclusive bits.
func (f HandleFlag) Validate() error {
	if f.IsInput() && f.IsOutput() {
		return fmt.Errorf("%w: input and output", ErrConflictingFlags)
	}
	if moreThanOne(uint64(f & handleBiasMask)) {
		return fmt.Errorf("%w: multiple bias", ErrConflictingFlags)
	}
	if f&handleDriveMask != 0 {
		if moreThanOne(uint64(f & handleDriveMask)) {
			return fmt.Errorf("%w: open-drain and open-source", ErrConflictingFlags)
		}
		if !f.IsOutput() {
			return fmt.Errorf("%w: drive requires output", ErrConflictingFlags)
		}
	}
	return nil
}

func moreThanOne(v uint64) bool {
	return v&(v-1) != 0
}

// IsInput returns true if the line is requested as an input.
func (f HandleFlag) IsInput() bool {
	return f&HandleRequestInput != 0
}

// IsOutput returns true if the line is requested as an output.
func (f HandleFlag) IsOutput() bool {
	return f&HandleRequestOutput != 0
}

// IsActiveLow returns true if the line is requested as a active low.
func (f HandleFlag) IsActiveLow() bool {
	return f&HandleRequestActiveLow != 0
}

// IsOpenDrain returns true if the line is requested as an open drain.
func (f HandleFlag) IsOpenDrain() bool {
	return f&HandleRequestOpenDrain != 0
}

// IsOpenSource returns true if the line is requested as an open source.
func (f HandleFlag) IsOpenSource() bool {
	return f&HandleRequestOpenSource != 0
}

// IsBiasDisable returns true if the line is requested with bias disabled.
func (f HandleFlag) IsBiasDisable() bool {
	return f&HandleRequestBiasDisable != 0
}

// IsPullDown returns true if the line is requested with pull-down enabled.
func (f HandleFlag) IsPullDown() bool {
	return f&HandleRequestPullDown != 0
}

// IsPullUp returns true if the line is requested with pull-up enabled.
func (f HandleFlag) IsPullUp() bool {
	return f&HandleRequestPullUp != 0
}

// HandleData contains the logical value for each line.
// Zero is a logical low and any other value is a logical high.
type HandleData [HandlesMax]uint8

// EventRequest is a request for control of a line with event reporting enabled.
type EventRequest struct {
	// The line to be requested.
	Offset uint32

	// The line flags applied to this line.
	HandleFlags HandleFlag

	// The type of events to report.
	EventFlags EventFlag

	// The string identifying the requester to be applied to the line.
	Consumer [nameSize]byte

	// The file handle for the requested line.
	// Set if the request is successful.
	Fd int32
}

// EventFlag indicates the types of events that will be reported.
type EventFlag uint32

const (
	// EventRequestRisingEdge requests rising edge events.
	// This means a transition from a low logical state to a high logical state.
	// Note that for active low lines this means a transition from a physical
	// high to a physical low.
	EventRequestRisingEdge EventFlag = 1 << iota

	// EventRequestFallingEdge requests falling edge events.
	// This means a transition from a high logical state to a low logical state.
	EventRequestFallingEdge

	// EventRequestBothEdges requests both rising and falling edge events.
	EventRequestBothEdges = EventRequestRisingEdge | EventRequestFallingEdge
)

// IsRisingEdge returns true if rising edge events have been requested.
func (f EventFlag) IsRisingEdge() bool {
	return f&EventRequestRisingEdge != 0
}

// IsFallingEdge returns true if falling edge events have been requested.
func (f EventFlag) IsFallingEdge() bool {
	return f&EventRequestFallingEdge != 0
}

// IsBothEdges returns true if both rising and falling edge events have been
// requested.
func (f EventFlag) IsBothEdges() bool {
	return f&EventRequestBothEdges == EventRequestBothEdges
}

// IOCTL command codes
type ioctl uintptr

var (
	getChipInfoIoctl     = ior(gpioMagic, 0x01, unsafe.Sizeof(ChipInfo{}))
	getLineInfoIoctl     = iorw(gpioMagic, 0x02, unsafe.Sizeof(LineInfo{}))
	getLineHandleIoctl   = iorw(gpioMagic, 0x03, unsafe.Sizeof(HandleRequest{}))
	getLineEventIoctl    = iorw(gpioMagic, 0x04, unsafe.Sizeof(EventRequest{}))
	getLineValuesIoctl   = iorw(gpioMagic, 0x08, unsafe.Sizeof(HandleData{}))
	setLineValuesIoctl   = iorw(gpioMagic, 0x09, unsafe.Sizeof(HandleData{}))
	setLineConfigIoctl   = iorw(gpioMagic, 0x0a, unsafe.Sizeof(HandleConfig{}))
	watchLineInfoIoctl   = iorw(gpioMagic, 0x0b, unsafe.Sizeof(LineInfo{}))
	unwatchLineInfoIoctl = iorw(gpioMagic, 0x0c, unsafe.Sizeof(uint32(0)))
)
