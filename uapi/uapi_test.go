// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package uapi_test

import (
	"encoding/binary"
	"errors"
	"testing"
	"time"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warthog618/gpiocdev/uapi"
)

func TestSizes(t *testing.T) {
	patterns := []struct {
		name string
		size uintptr
		x    uintptr
	}{
		{"ChipInfo", unsafe.Sizeof(uapi.ChipInfo{}), 68},
		{"LineInfo", unsafe.Sizeof(uapi.LineInfo{}), 72},
		{"LineInfoChanged", unsafe.Sizeof(uapi.LineInfoChanged{}), 104},
		{"HandleRequest", unsafe.Sizeof(uapi.HandleRequest{}), 364},
		{"HandleConfig", unsafe.Sizeof(uapi.HandleConfig{}), 84},
		{"HandleData", unsafe.Sizeof(uapi.HandleData{}), 64},
		{"EventRequest", unsafe.Sizeof(uapi.EventRequest{}), 48},
		{"LineAttribute", unsafe.Sizeof(uapi.LineAttribute{}), 16},
		{"LineConfigAttribute", unsafe.Sizeof(uapi.LineConfigAttribute{}), 24},
		{"LineInfoV2", unsafe.Sizeof(uapi.LineInfoV2{}), 256},
		{"LineInfoChangedV2", unsafe.Sizeof(uapi.LineInfoChangedV2{}), 288},
		{"LineConfig", unsafe.Sizeof(uapi.LineConfig{}), 272},
		{"LineRequest", unsafe.Sizeof(uapi.LineRequest{}), 592},
		{"LineValues", unsafe.Sizeof(uapi.LineValues{}), 16},
		{"LineEvent", unsafe.Sizeof(uapi.LineEvent{}), 48},
	}
	for _, p := range patterns {
		tf := func(t *testing.T) {
			assert.Equal(t, p.x, p.size)
		}
		t.Run(p.name, tf)
	}
}

func eventDataBytes(ts uint64, id uint32) []byte {
	b := make([]byte, unsafe.Sizeof(uapi.EventData{}))
	binary.NativeEndian.PutUint64(b, ts)
	binary.NativeEndian.PutUint32(b[8:], id)
	return b
}

func lineEventBytes(ts uint64, id, offset, seqno, lseqno uint32) []byte {
	b := make([]byte, 48)
	binary.NativeEndian.PutUint64(b, ts)
	binary.NativeEndian.PutUint32(b[8:], id)
	binary.NativeEndian.PutUint32(b[12:], offset)
	binary.NativeEndian.PutUint32(b[16:], seqno)
	binary.NativeEndian.PutUint32(b[20:], lseqno)
	return b
}

func lineInfoChangedBytes(offset uint32, flags uapi.LineFlag, name string, ts uint64, kind uint32) []byte {
	b := make([]byte, 104)
	binary.NativeEndian.PutUint32(b, offset)
	binary.NativeEndian.PutUint32(b[4:], uint32(flags))
	copy(b[8:40], name)
	copy(b[40:72], "consumer")
	binary.NativeEndian.PutUint64(b[72:], ts)
	binary.NativeEndian.PutUint32(b[80:], kind)
	return b
}

func lineInfoChangedV2Bytes(offset uint32, flags uapi.LineFlagV2, name string, ts uint64, kind uint32) []byte {
	b := make([]byte, 288)
	copy(b[0:32], name)
	copy(b[32:64], "consumer")
	binary.NativeEndian.PutUint32(b[64:], offset)
	binary.NativeEndian.PutUint32(b[68:], 1)
	binary.NativeEndian.PutUint64(b[72:], uint64(flags))
	// one debounce attribute
	binary.NativeEndian.PutUint32(b[80:], uint32(uapi.LineAttributeIDDebounce))
	binary.NativeEndian.PutUint32(b[88:], 1234)
	binary.NativeEndian.PutUint64(b[256:], ts)
	binary.NativeEndian.PutUint32(b[264:], kind)
	return b
}

func requireKindError(t *testing.T, err error, value uint32) {
	t.Helper()
	var verr *uapi.ValidationError
	require.True(t, errors.As(err, &verr), err)
	assert.Equal(t, "kind", verr.Field)
	assert.Equal(t, value, verr.Value)
	assert.Contains(t, err.Error(), "kind")
}

func TestDecodeEventData(t *testing.T) {
	for _, kind := range []uint32{0, 3, 0xffffffff} {
		_, err := uapi.DecodeEventData(eventDataBytes(42, kind))
		requireKindError(t, err, kind)
	}
	ed, err := uapi.DecodeEventData(eventDataBytes(42, 1))
	require.Nil(t, err)
	assert.Equal(t, uint64(42), ed.Timestamp)
	assert.Equal(t, uapi.EdgeRising, ed.ID)
	ed, err = uapi.DecodeEventData(eventDataBytes(43, 2))
	require.Nil(t, err)
	assert.Equal(t, uapi.EdgeFalling, ed.ID)

	// short
	_, err = uapi.DecodeEventData(eventDataBytes(43, 2)[:8])
	assert.NotNil(t, err)
}

func TestDecodeLineEvent(t *testing.T) {
	for _, kind := range []uint32{0, 3} {
		_, err := uapi.DecodeLineEvent(lineEventBytes(42, kind, 3, 1, 1))
		requireKindError(t, err, kind)
	}
	le, err := uapi.DecodeLineEvent(lineEventBytes(42, 1, 3, 5, 2))
	require.Nil(t, err)
	xle := uapi.LineEvent{
		Timestamp: 42,
		ID:        uapi.EdgeRising,
		Offset:    3,
		Seqno:     5,
		LineSeqno: 2,
	}
	assert.Equal(t, xle, le)
	le, err = uapi.DecodeLineEvent(lineEventBytes(42, 2, 3, 5, 2))
	require.Nil(t, err)
	assert.Equal(t, uapi.EdgeFalling, le.ID)

	_, err = uapi.DecodeLineEvent(lineEventBytes(42, 2, 3, 5, 2)[:47])
	assert.NotNil(t, err)
}

func TestDecodeLineInfoChanged(t *testing.T) {
	for _, kind := range []uint32{0, 4} {
		_, err := uapi.DecodeLineInfoChanged(
			lineInfoChangedBytes(3, uapi.LineFlagUsed, "LED0", 42, kind))
		requireKindError(t, err, kind)
	}
	xkinds := []uapi.InfoChangeKind{
		uapi.LineChangedRequested,
		uapi.LineChangedReleased,
		uapi.LineChangedConfig,
	}
	for i, xkind := range xkinds {
		lic, err := uapi.DecodeLineInfoChanged(
			lineInfoChangedBytes(3, uapi.LineFlagUsed|uapi.LineFlagIsOut, "LED0", 42, uint32(i+1)))
		require.Nil(t, err)
		xli := uapi.LineInfo{
			Offset: 3,
			Flags:  uapi.LineFlagUsed | uapi.LineFlagIsOut,
		}
		copy(xli.Name[:], "LED0")
		copy(xli.Consumer[:], "consumer")
		assert.Equal(t, xli, lic.Info)
		assert.Equal(t, uint64(42), lic.Timestamp)
		assert.Equal(t, xkind, lic.Type)
	}
}

func TestDecodeLineInfoChangedV2(t *testing.T) {
	for _, kind := range []uint32{0, 4} {
		_, err := uapi.DecodeLineInfoChangedV2(
			lineInfoChangedV2Bytes(3, uapi.LineFlagV2Used, "LED0", 42, kind))
		requireKindError(t, err, kind)
	}
	for kind := uint32(1); kind <= 3; kind++ {
		flags := uapi.LineFlagV2Used | uapi.LineFlagV2Input
		lic, err := uapi.DecodeLineInfoChangedV2(
			lineInfoChangedV2Bytes(5, flags, "BUTTON", 43, kind))
		require.Nil(t, err)
		assert.Equal(t, uapi.InfoChangeKind(kind), lic.Type)
		assert.Equal(t, uint64(43), lic.Timestamp)
		assert.Equal(t, uint32(5), lic.Info.Offset)
		assert.Equal(t, flags, lic.Info.Flags)
		assert.Equal(t, "BUTTON", uapi.BytesToString(lic.Info.Name[:]))
		assert.Equal(t, "consumer", uapi.BytesToString(lic.Info.Consumer[:]))
		require.Equal(t, uint32(1), lic.Info.NumAttrs)
		var dp uapi.DebouncePeriod
		dp.Decode(lic.Info.Attrs[0])
		assert.Equal(t, uapi.DebouncePeriod(1234*time.Microsecond), dp)
	}
}

func TestParseKinds(t *testing.T) {
	k, err := uapi.ParseEdgeKind(1)
	assert.Nil(t, err)
	assert.Equal(t, "rising", k.String())
	k, err = uapi.ParseEdgeKind(2)
	assert.Nil(t, err)
	assert.Equal(t, "falling", k.String())
	_, err = uapi.ParseEdgeKind(3)
	assert.EqualError(t, err, "kind: invalid value: 3")

	c, err := uapi.ParseInfoChangeKind(3)
	assert.Nil(t, err)
	assert.Equal(t, "reconfigured", c.String())
	_, err = uapi.ParseInfoChangeKind(0)
	assert.EqualError(t, err, "kind: invalid value: 0")
}

func TestBytesToString(t *testing.T) {
	name := "a test string"
	a := [20]byte{}
	copy(a[:], name)

	// empty
	v := uapi.BytesToString(a[:0])
	assert.Equal(t, 0, len(v))

	// normal
	v = uapi.BytesToString(a[:])
	assert.Equal(t, name, v)

	// unterminated
	v = uapi.BytesToString(a[:len(name)])
	assert.Equal(t, name, v)
}

func TestPutString(t *testing.T) {
	a := [8]byte{'x', 'x', 'x', 'x', 'x', 'x', 'x', 'x'}
	uapi.PutString(a[:], "abc")
	assert.Equal(t, [8]byte{'a', 'b', 'c'}, a)

	// truncated and terminated
	uapi.PutString(a[:], "abcdefghij")
	assert.Equal(t, [8]byte{'a', 'b', 'c', 'd', 'e', 'f', 'g', 0}, a)
}

func TestLineFlags(t *testing.T) {
	assert.False(t, uapi.LineFlag(0).IsUsed())
	assert.False(t, uapi.LineFlag(0).IsOut())
	assert.False(t, uapi.LineFlag(0).IsActiveLow())
	assert.True(t, uapi.LineFlagUsed.IsUsed())
	assert.True(t, uapi.LineFlagIsOut.IsOut())
	assert.True(t, uapi.LineFlagActiveLow.IsActiveLow())
	assert.True(t, uapi.LineFlagOpenDrain.IsOpenDrain())
	assert.False(t, uapi.LineFlagOpenDrain.IsOpenSource())
	assert.True(t, uapi.LineFlagOpenSource.IsOpenSource())
	assert.True(t, uapi.LineFlagPullUp.IsPullUp())
	assert.False(t, uapi.LineFlagPullUp.IsPullDown())
	assert.True(t, uapi.LineFlagPullDown.IsPullDown())
	assert.True(t, uapi.LineFlagBiasDisabled.IsBiasDisable())
	assert.Equal(t, uapi.LineFlag(0x80), uapi.LineFlagBiasDisabled)
}

func TestHandleFlags(t *testing.T) {
	assert.True(t, uapi.HandleRequestInput.IsInput())
	assert.True(t, uapi.HandleRequestOutput.IsOutput())
	assert.True(t, uapi.HandleRequestActiveLow.IsActiveLow())
	assert.True(t, uapi.HandleRequestOpenDrain.IsOpenDrain())
	assert.True(t, uapi.HandleRequestOpenSource.IsOpenSource())
	assert.True(t, uapi.HandleRequestPullUp.IsPullUp())
	assert.True(t, uapi.HandleRequestPullDown.IsPullDown())
	assert.True(t, uapi.HandleRequestBiasDisable.IsBiasDisable())
	assert.Equal(t, uapi.HandleFlag(0x80), uapi.HandleRequestBiasDisable)
}

func TestHandleFlagValidate(t *testing.T) {
	patterns := []struct {
		name  string
		flags uapi.HandleFlag
		ok    bool
	}{
		{"zero", 0, true},
		{"input", uapi.HandleRequestInput, true},
		{"output", uapi.HandleRequestOutput, true},
		{"input output", uapi.HandleRequestInput | uapi.HandleRequestOutput, false},
		{"pull-up", uapi.HandleRequestInput | uapi.HandleRequestPullUp, true},
		{"pull-up pull-down", uapi.HandleRequestPullUp | uapi.HandleRequestPullDown, false},
		{"pull-up disabled", uapi.HandleRequestPullUp | uapi.HandleRequestBiasDisable, false},
		{"open-drain", uapi.HandleRequestOutput | uapi.HandleRequestOpenDrain, true},
		{"open-drain input", uapi.HandleRequestInput | uapi.HandleRequestOpenDrain, false},
		{"open-drain open-source",
			uapi.HandleRequestOutput | uapi.HandleRequestOpenDrain | uapi.HandleRequestOpenSource,
			false},
	}
	for _, p := range patterns {
		tf := func(t *testing.T) {
			err := p.flags.Validate()
			if p.ok {
				assert.Nil(t, err)
			} else {
				assert.True(t, errors.Is(err, uapi.ErrConflictingFlags), err)
			}
		}
		t.Run(p.name, tf)
	}
}

func TestLineFlagV2Validate(t *testing.T) {
	patterns := []struct {
		name  string
		flags uapi.LineFlagV2
		ok    bool
	}{
		{"zero", 0, true},
		{"input edges", uapi.LineFlagV2Input | uapi.LineFlagV2EdgeBoth, true},
		{"output edges", uapi.LineFlagV2Output | uapi.LineFlagV2EdgeRising, false},
		{"input output", uapi.LineFlagV2Input | uapi.LineFlagV2Output, false},
		{"pull-down disabled", uapi.LineFlagV2BiasPullDown | uapi.LineFlagV2BiasDisabled, false},
		{"open-source", uapi.LineFlagV2Output | uapi.LineFlagV2OpenSource, true},
		{"drive without output", uapi.LineFlagV2OpenSource, false},
		{"open-drain open-source", uapi.LineFlagV2Output | uapi.LineFlagV2DriveMask, false},
	}
	for _, p := range patterns {
		tf := func(t *testing.T) {
			err := p.flags.Validate()
			if p.ok {
				assert.Nil(t, err)
			} else {
				assert.True(t, errors.Is(err, uapi.ErrConflictingFlags), err)
			}
		}
		t.Run(p.name, tf)
	}
}

func TestLineFlagsV2(t *testing.T) {
	assert.Equal(t, uapi.LineFlagV2(1), uapi.LineFlagV2Used)
	assert.Equal(t, uapi.LineFlagV2(1<<11), uapi.LineFlagV2EventClockRealtime)
	assert.True(t, uapi.LineFlagV2(0).IsAvailable())
	assert.True(t, uapi.LineFlagV2Used.IsUsed())
	assert.True(t, uapi.LineFlagV2EdgeBoth.IsBothEdges())
	assert.False(t, uapi.LineFlagV2EdgeRising.IsBothEdges())
	assert.True(t, uapi.LineFlagV2BiasPullUp.IsBiasPullUp())
	assert.True(t, uapi.LineFlagV2EventClockRealtime.HasRealtimeEventClock())

	var f uapi.LineFlagV2
	f.Decode((uapi.LineFlagV2Output | uapi.LineFlagV2ActiveLow).Encode())
	assert.Equal(t, uapi.LineFlagV2Output|uapi.LineFlagV2ActiveLow, f)
}

func TestLineConfigAttributes(t *testing.T) {
	var lc uapi.LineConfig
	for i := 0; i < uapi.LineConfigAttributesMax; i++ {
		err := lc.AddAttribute(uapi.LineConfigAttribute{
			Attr: uapi.DebouncePeriod(time.Millisecond).Encode(),
			Mask: uapi.NewLineBits(i),
		})
		require.Nil(t, err)
	}
	err := lc.AddAttribute(uapi.LineConfigAttribute{})
	assert.Equal(t, uapi.ErrTooManyAttributes, err)
	assert.Equal(t, uint32(uapi.LineConfigAttributesMax), lc.NumAttrs)

	lc = uapi.LineConfig{Flags: uapi.LineFlagV2Output}
	err = lc.AddAttribute(uapi.LineConfigAttribute{
		Attr: (uapi.LineFlagV2Input | uapi.LineFlagV2Output).Encode(),
		Mask: uapi.NewLineBits(1),
	})
	require.Nil(t, err)
	assert.True(t, errors.Is(lc.Validate(), uapi.ErrConflictingFlags))
}

func TestLineBitmap(t *testing.T) {
	lb := uapi.NewLineBitmap(1, 0, 1, 1)
	assert.Equal(t, uapi.LineBitmap(0x0d), lb)
	assert.Equal(t, 1, lb.Get(0))
	assert.Equal(t, 0, lb.Get(1))
	lb = lb.Set(1, 1).Set(0, 0)
	assert.Equal(t, uapi.LineBitmap(0x0e), lb)
	assert.Equal(t, uapi.LineBitmap(0x22), uapi.NewLineBits(1, 5))
	assert.Equal(t, uapi.LineBitmap(0x07), uapi.NewLineBitMask(3))
	assert.Equal(t, uapi.LineBitmap(0xffffffffffffffff), uapi.NewLineBitMask(64))
	assert.Equal(t, uapi.LineBitmap(0xffffffffffffffff), uapi.NewLineBitMask(65))
}

func TestDebouncePeriod(t *testing.T) {
	var dp uapi.DebouncePeriod
	dp.Decode(uapi.DebouncePeriod(10 * time.Millisecond).Encode())
	assert.Equal(t, uapi.DebouncePeriod(10*time.Millisecond), dp)

	// larger than fits in a uint32 of nanoseconds
	dp.Decode(uapi.DebouncePeriod(5 * time.Second).Encode())
	assert.Equal(t, uapi.DebouncePeriod(5*time.Second), dp)
}

func TestParseRelease(t *testing.T) {
	patterns := []struct {
		release string
		x       uapi.Semver
	}{
		{"5.10.0", uapi.Semver{5, 10, 0}},
		{"6.1.21-v8+", uapi.Semver{6, 1, 21}},
		{"6.18", uapi.Semver{6, 18, 0}},
	}
	for _, p := range patterns {
		v, err := uapi.ParseRelease(p.release)
		assert.Nil(t, err, p.release)
		assert.Equal(t, p.x, v, p.release)
	}
	_, err := uapi.ParseRelease("banana")
	assert.NotNil(t, err)

	assert.Equal(t, -1, uapi.Semver{5, 7}.Compare(uapi.V2Kernel))
	assert.Equal(t, 0, uapi.Semver{5, 10, 0}.Compare(uapi.V2Kernel))
	assert.Equal(t, 1, uapi.Semver{6, 1}.Compare(uapi.V2Kernel))
	assert.Equal(t, "5.10", uapi.V2Kernel.String())
}
