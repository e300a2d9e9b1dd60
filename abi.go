// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package gpiocdev

import "github.com/warthog618/gpiocdev/uapi"

// uapiABI is the set of kernel operations that differ between the uAPI
// versions.
//
// A Chip selects the implementation when opened, and its requests inherit it,
// so nothing above this layer needs to know which version is in use.
type uapiABI interface {
	version() int

	lineInfo(fd uintptr, offset int) (LineInfo, error)

	// watchLineInfo returns the line info at the time the watch is set.
	watchLineInfo(fd uintptr, offset int) (LineInfo, error)

	// readInfoChange reads the next info change event from the chip fd.
	// Blocks until one is available.
	readInfoChange(fd uintptr) (LineInfoChangeEvent, error)

	// requestLines returns the fd of the request.
	requestLines(fd uintptr, offsets []int, rc *RequestConfig, ro requestOptions) (uintptr, error)

	reconfigure(fd uintptr, rc *RequestConfig) error

	// values returns the values of the first n lines of the request.
	values(fd uintptr, n int) ([]int, error)

	// setValues sets the values of the lines identified by mask.
	//
	// values contains the value of every line in the request, as
	// v1 has no way to leave lines unchanged.
	setValues(fd uintptr, values []int, mask uapi.LineBitmap) error

	// readEdgeEvent reads the next edge event from the request fd.
	// Blocks until one is available.
	readEdgeEvent(fd uintptr, offsets []int) (LineEvent, error)
}

func newABI(version int) uapiABI {
	if version == 1 {
		return abiV1{}
	}
	return abiV2{}
}
