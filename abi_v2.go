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

type abiV2 struct{}

func (abiV2) version() int {
	return 2
}

func (abiV2) lineInfo(fd uintptr, offset int) (LineInfo, error) {
	li, err := uapi.GetLineInfoV2(fd, offset)
	if err != nil {
		return LineInfo{}, err
	}
	return newLineInfoV2(li), nil
}

func (abiV2) watchLineInfo(fd uintptr, offset int) (LineInfo, error) {
	li := uapi.LineInfoV2{Offset: uint32(offset)}
	if err := uapi.WatchLineInfoV2(fd, &li); err != nil {
		return LineInfo{}, err
	}
	return newLineInfoV2(li), nil
}

func (abiV2) readInfoChange(fd uintptr) (LineInfoChangeEvent, error) {
	lic, err := uapi.ReadLineInfoChangedV2(fd)
	if err != nil {
		return LineInfoChangeEvent{}, err
	}
	lice := LineInfoChangeEvent{
		Info:      newLineInfoV2(lic.Info),
		Timestamp: time.Duration(lic.Timestamp),
		Type:      newLineInfoChangeType(lic.Type),
	}
	return lice, nil
}

func (abiV2) requestLines(fd uintptr, offsets []int, rc *RequestConfig, ro requestOptions) (uintptr, error) {
	config, err := rc.toV2()
	if err != nil {
		return 0, err
	}
	lr := uapi.LineRequest{
		Lines:           uint32(len(offsets)),
		Config:          config,
		EventBufferSize: uint32(ro.eventBufferSize),
	}
	uapi.PutString(lr.Consumer[:], ro.consumer)
	for i, o := range offsets {
		lr.Offsets[i] = uint32(o)
	}
	if err = uapi.GetLine(fd, &lr); err != nil {
		return 0, err
	}
	return uintptr(lr.Fd), nil
}

func (abiV2) reconfigure(fd uintptr, rc *RequestConfig) error {
	config, err := rc.toV2()
	if err != nil {
		return err
	}
	return uapi.SetLineConfigV2(fd, &config)
}

func (abiV2) values(fd uintptr, n int) ([]int, error) {
	lv := uapi.LineValues{Mask: uapi.NewLineBitMask(n)}
	if err := uapi.GetLineValuesV2(fd, &lv); err != nil {
		return nil, err
	}
	vv := make([]int, n)
	for i := range vv {
		vv[i] = lv.Get(i)
	}
	return vv, nil
}

func (abiV2) setValues(fd uintptr, values []int, mask uapi.LineBitmap) error {
	lv := uapi.LineValues{
		Bits: uapi.NewLineBitmap(values...),
		Mask: mask,
	}
	return uapi.SetLineValuesV2(fd, lv)
}

func (abiV2) readEdgeEvent(fd uintptr, offsets []int) (LineEvent, error) {
	ev, err := uapi.ReadLineEvent(fd)
	if err != nil {
		return LineEvent{}, err
	}
	le := LineEvent{
		Offset:    int(ev.Offset),
		Timestamp: time.Duration(ev.Timestamp),
		Type:      newLineEventType(ev.ID),
		Seqno:     ev.Seqno,
		LineSeqno: ev.LineSeqno,
	}
	return le, nil
}
