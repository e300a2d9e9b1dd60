// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

// Package uapi provides the Linux GPIO character device UAPI definitions.
//
// Both generations of the ABI are covered. Structures exchanged with the
// kernel via ioctl are defined with the exact layout of their kernel
// counterparts, while structures read from the kernel as events are decoded
// from raw bytes and range checked before being returned.
package uapi

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Size of name and consumer strings.
const nameSize = 32

// the magic number used in all GPIO ioctl commands.
const gpioMagic = 0xB4

var nativeEndian = binary.NativeEndian

// ErrConflictingFlags indicates a set of flags contains mutually exclusive
// bits.
var ErrConflictingFlags = errors.New("conflicting flags")

// ValidationError indicates a field returned by the kernel contains a value
// outside the set of values known to this package.
type ValidationError struct {
	// Field is the name of the offending field.
	Field string

	// Value is the raw value of the field.
	Value uint32
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: invalid value: %d", e.Field, e.Value)
}

// ChipInfo contains the details of a GPIO chip.
type ChipInfo struct {
	// The system name of the device.
	Name [nameSize]byte

	// An identifying label added by the device driver.
	Label [nameSize]byte

	// The number of lines supported by this chip.
	Lines uint32
}

// GetChipInfo returns the ChipInfo for the GPIO character device.
//
// The fd is an open GPIO character device.
func GetChipInfo(fd uintptr) (ChipInfo, error) {
	var ci ChipInfo
	if err := ioctlPtr(fd, getChipInfoIoctl, unsafe.Pointer(&ci)); err != nil {
		return ChipInfo{}, err
	}
	return ci, nil
}

// EdgeKind identifies the type of an edge event.
//
// The values are common to both ABI versions.
type EdgeKind uint32

const (
	// EdgeRising indicates an inactive to active transition.
	EdgeRising EdgeKind = iota + 1

	// EdgeFalling indicates an active to inactive transition.
	EdgeFalling
)

// ParseEdgeKind converts a raw kernel value into an EdgeKind.
func ParseEdgeKind(v uint32) (EdgeKind, error) {
	switch EdgeKind(v) {
	case EdgeRising, EdgeFalling:
		return EdgeKind(v), nil
	}
	return 0, &ValidationError{Field: "kind", Value: v}
}

func (k EdgeKind) String() string {
	switch k {
	case EdgeRising:
		return "rising"
	case EdgeFalling:
		return "falling"
	}
	return fmt.Sprintf("EdgeKind(%d)", uint32(k))
}

// InfoChangeKind identifies the type of change that has occurred to a line.
//
// The values are common to both ABI versions.
type InfoChangeKind uint32

const (
	// LineChangedRequested indicates the line has been requested.
	LineChangedRequested InfoChangeKind = iota + 1

	// LineChangedReleased indicates the line has been released.
	LineChangedReleased

	// LineChangedConfig indicates the line configuration has changed.
	LineChangedConfig
)

// ParseInfoChangeKind converts a raw kernel value into an InfoChangeKind.
func ParseInfoChangeKind(v uint32) (InfoChangeKind, error) {
	switch InfoChangeKind(v) {
	case LineChangedRequested, LineChangedReleased, LineChangedConfig:
		return InfoChangeKind(v), nil
	}
	return 0, &ValidationError{Field: "kind", Value: v}
}

func (k InfoChangeKind) String() string {
	switch k {
	case LineChangedRequested:
		return "requested"
	case LineChangedReleased:
		return "released"
	case LineChangedConfig:
		return "reconfigured"
	}
	return fmt.Sprintf("InfoChangeKind(%d)", uint32(k))
}

// BytesToString is a helper function that converts strings stored in byte
// arrays, as returned by GetChipInfo and GetLineInfo, into strings.
func BytesToString(a []byte) string {
	n := bytes.IndexByte(a, 0)
	if n == -1 {
		return string(a)
	}
	return string(a[:n])
}

// PutString copies s into a fixed size name field, truncating if necessary
// so the result is always null terminated.
func PutString(a []byte, s string) {
	for i := range a {
		a[i] = 0
	}
	if len(a) == 0 {
		return
	}
	copy(a[:len(a)-1], s)
}

func ioctlPtr(fd uintptr, cmd ioctl, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, uintptr(cmd), uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

// readFull reads one complete kernel record from fd into buf.
//
// The kernel never returns partial records, so a short read indicates a
// corrupt stream.
func readFull(fd uintptr, buf []byte) error {
	n, err := unix.Read(int(fd), buf)
	if err != nil {
		return err
	}
	if n != len(buf) {
		return io.ErrUnexpectedEOF
	}
	return nil
}

func checkLen(b []byte, size int) error {
	if len(b) < size {
		return io.ErrUnexpectedEOF
	}
	return nil
}
