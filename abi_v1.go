// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package gpiocdev

import (
	"time"

	"github.com/warthog618/gpiocdev/uapi"
)

type abiV1 struct{}

func (abiV1) version() int {
	return 1
}

func (abiV1) lineInfo(fd uintptr, offset int) (LineInfo, error) {
	li, err := uapi.GetLineInfo(fd, offset)
	if err != nil {
		return LineInfo{}, err
	}
	return newLineInfo(li), nil
}

func (abiV1) watchLineInfo(fd uintptr, offset int) (LineInfo, error) {
	li := uapi.LineInfo{Offset: uint32(offset)}
	if err := uapi.WatchLineInfo(fd, &li); err != nil {
		return LineInfo{}, err
	}
	return newLineInfo(li), nil
}

func (abiV1) readInfoChange(fd uintptr) (LineInfoChangeEvent, error) {
	lic, err := uapi.ReadLineInfoChanged(fd)
	if err != nil {
		return LineInfoChangeEvent{}, err
	}
	lice := LineInfoChangeEvent{
		Info:      newLineInfo(lic.Info),
		Timestamp: time.Duration(lic.Timestamp),
		Type:      newLineInfoChangeType(lic.Type),
	}
	return lice, nil
}

func (abiV1) requestLines(fd uintptr, offsets []int, rc *RequestConfig, ro requestOptions) (uintptr, error) {
	c, err := rc.toV1()
	if err != nil {
		return 0, err
	}
	if c.eventFlags != 0 {
		er := uapi.EventRequest{
			Offset:      uint32(offsets[0]),
			HandleFlags: c.handleFlags,
			EventFlags:  c.eventFlags,
		}
		uapi.PutString(er.Consumer[:], ro.consumer)
		if err = uapi.GetLineEvent(fd, &er); err != nil {
			return 0, err
		}
		return uintptr(er.Fd), nil
	}
	hr := uapi.HandleRequest{
		Lines:         uint32(len(offsets)),
		Flags:         c.handleFlags,
		DefaultValues: c.values,
	}
	uapi.PutString(hr.Consumer[:], ro.consumer)
	for i, o := range offsets {
		hr.Offsets[i] = uint32(o)
	}
	if err = uapi.GetLineHandle(fd, &hr); err != nil {
		return 0, err
	}
	return uintptr(hr.Fd), nil
}

func (abiV1) reconfigure(fd uintptr, rc *RequestConfig) error {
	c, err := rc.toV1()
	if err != nil {
		return err
	}
	hc := uapi.HandleConfig{
		Flags:         c.handleFlags,
		DefaultValues: c.values,
	}
	return uapi.SetLineConfig(fd, &hc)
}

func (abiV1) values(fd uintptr, n int) ([]int, error) {
	var hd uapi.HandleData
	if err := uapi.GetLineValues(fd, &hd); err != nil {
		return nil, err
	}
	vv := make([]int, n)
	for i := range vv {
		if hd[i] != 0 {
			vv[i] = 1
		}
	}
	return vv, nil
}

func (abiV1) setValues(fd uintptr, values []int, mask uapi.LineBitmap) error {
	var hd uapi.HandleData
	for i, v := range values {
		if v != 0 {
			hd[i] = 1
		}
	}
	return uapi.SetLineValues(fd, hd)
}

func (abiV1) readEdgeEvent(fd uintptr, offsets []int) (LineEvent, error) {
	ed, err := uapi.ReadEvent(fd)
	if err != nil {
		return LineEvent{}, err
	}
	le := LineEvent{
		Offset:    offsets[0],
		Timestamp: time.Duration(ed.Timestamp),
		Type:      newLineEventType(ed.ID),
	}
	return le, nil
}
