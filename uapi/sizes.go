// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package uapi

import "unsafe"

// Kernel struct sizes.
//
// The layout of each struct must match its kernel counterpart exactly, so a
// mismatch is a compile error rather than a runtime failure.
const (
	chipInfoSize          = 68
	lineInfoSize          = 72
	lineInfoChangedSize   = 104
	handleRequestSize     = 364
	handleConfigSize      = 84
	handleDataSize        = 64
	eventRequestSize      = 48
	lineAttributeSize     = 16
	lineConfigAttrSize    = 24
	lineInfoV2Size        = 256
	lineInfoChangedV2Size = 288
	lineConfigSize        = 272
	lineRequestSize       = 592
	lineValuesSize        = 16
	lineEventSize         = 48
)

// each pair fails to compile if the struct is larger, or smaller, than expected.
var (
	_ [chipInfoSize - unsafe.Sizeof(ChipInfo{})]struct{}
	_ [unsafe.Sizeof(ChipInfo{}) - chipInfoSize]struct{}

	_ [lineInfoSize - unsafe.Sizeof(LineInfo{})]struct{}
	_ [unsafe.Sizeof(LineInfo{}) - lineInfoSize]struct{}

	_ [lineInfoChangedSize - unsafe.Sizeof(LineInfoChanged{})]struct{}
	_ [unsafe.Sizeof(LineInfoChanged{}) - lineInfoChangedSize]struct{}

	_ [handleRequestSize - unsafe.Sizeof(HandleRequest{})]struct{}
	_ [unsafe.Sizeof(HandleRequest{}) - handleRequestSize]struct{}

	_ [handleConfigSize - unsafe.Sizeof(HandleConfig{})]struct{}
	_ [unsafe.Sizeof(HandleConfig{}) - handleConfigSize]struct{}

	_ [handleDataSize - unsafe.Sizeof(HandleData{})]struct{}
	_ [unsafe.Sizeof(HandleData{}) - handleDataSize]struct{}

	_ [eventRequestSize - unsafe.Sizeof(EventRequest{})]struct{}
	_ [unsafe.Sizeof(EventRequest{}) - eventRequestSize]struct{}

	_ [eventDataSize - unsafe.Sizeof(EventData{})]struct{}
	_ [unsafe.Sizeof(EventData{}) - eventDataSize]struct{}

	_ [lineAttributeSize - unsafe.Sizeof(LineAttribute{})]struct{}
	_ [unsafe.Sizeof(LineAttribute{}) - lineAttributeSize]struct{}

	_ [lineConfigAttrSize - unsafe.Sizeof(LineConfigAttribute{})]struct{}
	_ [unsafe.Sizeof(LineConfigAttribute{}) - lineConfigAttrSize]struct{}

	_ [lineInfoV2Size - unsafe.Sizeof(LineInfoV2{})]struct{}
	_ [unsafe.Sizeof(LineInfoV2{}) - lineInfoV2Size]struct{}

	_ [lineInfoChangedV2Size - unsafe.Sizeof(LineInfoChangedV2{})]struct{}
	_ [unsafe.Sizeof(LineInfoChangedV2{}) - lineInfoChangedV2Size]struct{}

	_ [lineConfigSize - unsafe.Sizeof(LineConfig{})]struct{}
	_ [unsafe.Sizeof(LineConfig{}) - lineConfigSize]struct{}

	_ [lineRequestSize - unsafe.Sizeof(LineRequest{})]struct{}
	_ [unsafe.Sizeof(LineRequest{}) - lineRequestSize]struct{}

	_ [lineValuesSize - unsafe.Sizeof(LineValues{})]struct{}
	_ [unsafe.Sizeof(LineValues{}) - lineValuesSize]struct{}

	_ [lineEventSize - unsafe.Sizeof(LineEvent{})]struct{}
	_ [unsafe.Sizeof(LineEvent{}) - lineEventSize]struct{}
)
