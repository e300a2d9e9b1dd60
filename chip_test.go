// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package gpiocdev_test

import (
	"context"
	"errors"
	"flag"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warthog618/go-gpiosim"
	"github.com/warthog618/gpiocdev"
	"github.com/warthog618/gpiocdev/uapi"
	"golang.org/x/sys/unix"
)

var kernelAbiVersion int

func TestMain(m *testing.M) {
	flag.IntVar(&kernelAbiVersion, "abi", 0, "kernel uAPI version")
	flag.Parse()
	rc := m.Run()
	os.Exit(rc)
}

var (
	// linux kernel timers typically have this granularity, so base timeouts on this...
	clkTick          = 10 * time.Millisecond
	eventWaitTimeout = 10 * clkTick
)

func newSimpleton(t *testing.T, lines int) *gpiosim.Simpleton {
	t.Helper()
	s, err := gpiosim.NewSimpleton(lines)
	if err != nil {
		t.Skipf("gpio-sim unavailable: %s", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func getChip(t *testing.T, path string, options ...gpiocdev.ChipOption) *gpiocdev.Chip {
	t.Helper()
	if kernelAbiVersion != 0 {
		options = append(options, gpiocdev.WithABIVersion(kernelAbiVersion))
	}
	c, err := gpiocdev.NewChip(path, options...)
	require.Nil(t, err)
	require.NotNil(t, c)
	t.Cleanup(func() { c.Close() })
	return c
}

func requireKernel(t *testing.T, min uapi.Semver) {
	t.Helper()
	if err := uapi.CheckKernelVersion(min); err != nil {
		t.Skip(err)
	}
}

func requireABI(t *testing.T, c *gpiocdev.Chip, abi int) {
	t.Helper()
	if c.UapiAbiVersion() != abi {
		t.Skipf("requires uAPI v%d", abi)
	}
}

func TestChipPath(t *testing.T) {
	patterns := []struct {
		id   string
		path string
	}{
		{"0", "/dev/gpiochip0"},
		{"12", "/dev/gpiochip12"},
		{"gpiochip3", "/dev/gpiochip3"},
		{"/dev/gpiochip4", "/dev/gpiochip4"},
		{"/some/other/path", "/some/other/path"},
		{"-1", "/dev/-1"},
	}
	for _, p := range patterns {
		assert.Equal(t, p.path, gpiocdev.ChipPath(p.id), p.id)
	}
}

func TestNewChip(t *testing.T) {
	s := newSimpleton(t, 6)

	// non-existent
	c, err := gpiocdev.NewChip("nonexistent")
	assert.NotNil(t, err)
	assert.Nil(t, c)
	var ioe *gpiocdev.IoError
	assert.True(t, errors.As(err, &ioe))

	// not a chip
	c, err = gpiocdev.NewChip("/dev/null")
	assert.True(t, errors.Is(err, gpiocdev.ErrNotCharacterDevice))
	assert.Nil(t, c)

	// by name
	c = getChip(t, s.ChipName())
	assert.Equal(t, s.ChipName(), c.Name)
	assert.Equal(t, s.DevPath(), c.Path)
	assert.Equal(t, 6, c.Lines())

	// by path
	c = getChip(t, s.DevPath())
	ci, err := c.Info()
	assert.Nil(t, err)
	assert.Equal(t, s.ChipName(), ci.Name)
	assert.NotEmpty(t, ci.Label)
	assert.Equal(t, 6, ci.Lines)
	assert.Equal(t, c.UapiAbiVersion(), ci.AbiVersion)
}

func TestChips(t *testing.T) {
	s := newSimpleton(t, 4)
	cc := gpiocdev.Chips()
	assert.Contains(t, cc, s.ChipName())
}

func TestChipClose(t *testing.T) {
	s := newSimpleton(t, 4)
	c, err := gpiocdev.NewChip(s.DevPath())
	require.Nil(t, err)
	assert.Nil(t, c.Close())
	assert.Equal(t, gpiocdev.ErrClosed, c.Close())
	_, err = c.LineInfo(1)
	assert.Equal(t, gpiocdev.ErrClosed, err)
	_, err = c.Info()
	assert.Equal(t, gpiocdev.ErrClosed, err)
}

func TestChipLineInfo(t *testing.T) {
	s := newSimpleton(t, 6)
	c := getChip(t, s.DevPath())

	li, err := c.LineInfo(2)
	assert.Nil(t, err)
	assert.Equal(t, 2, li.Offset)
	assert.False(t, li.Used)

	// not validated locally
	_, err = c.LineInfo(6)
	var ioe *gpiocdev.IoError
	require.True(t, errors.As(err, &ioe))
	assert.Equal(t, "line info", ioe.Op)
	assert.Equal(t, 6, ioe.Offset)
	assert.Equal(t, unix.EINVAL, ioe.Err)

	r, err := c.RequestLines(
		gpiocdev.NewRequestConfig(gpiocdev.AsOutput(1), gpiocdev.AsActiveLow).
			WithLines([]int{2}),
		gpiocdev.WithConsumer("chip_test"))
	require.Nil(t, err)
	defer r.Close()
	li, err = c.LineInfo(2)
	assert.Nil(t, err)
	assert.True(t, li.Used)
	assert.Equal(t, "chip_test", li.Consumer)
	assert.Equal(t, gpiocdev.LineDirectionOutput, li.Config.Direction)
	assert.True(t, li.Config.ActiveLow)
}

func TestChipWatchLineInfo(t *testing.T) {
	requireKernel(t, uapi.InfoWatchKernel)
	s := newSimpleton(t, 6)
	c := getChip(t, s.DevPath())

	li, err := c.WatchLineInfo(3)
	require.Nil(t, err)
	assert.Equal(t, 3, li.Offset)
	assert.False(t, li.Used)

	r, err := c.RequestLines(gpiocdev.NewRequestConfig(gpiocdev.AsInput).WithLines([]int{3}))
	require.Nil(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), eventWaitTimeout)
	defer cancel()
	lice, err := c.ReadInfoChange(ctx)
	require.Nil(t, err)
	assert.Equal(t, gpiocdev.LineRequested, lice.Type)
	assert.Equal(t, 3, lice.Info.Offset)
	assert.True(t, lice.Info.Used)

	r.Close()
	lice, err = c.ReadInfoChange(ctx)
	require.Nil(t, err)
	assert.Equal(t, gpiocdev.LineReleased, lice.Type)

	assert.Nil(t, c.UnwatchLineInfo(3))

	// no more events, so times out
	ctx, cancel = context.WithTimeout(context.Background(), 5*clkTick)
	defer cancel()
	r, err = c.RequestLines(gpiocdev.NewRequestConfig(gpiocdev.AsInput).WithLines([]int{3}))
	require.Nil(t, err)
	defer r.Close()
	_, err = c.ReadInfoChange(ctx)
	assert.Equal(t, context.DeadlineExceeded, err)
}

func TestChipRequestLinesInvalid(t *testing.T) {
	s := newSimpleton(t, 4)
	c := getChip(t, s.DevPath())

	// offset beyond chip
	_, err := c.RequestLines(gpiocdev.NewRequestConfig().WithLines([]int{1, 4}))
	assert.True(t, errors.Is(err, gpiocdev.ErrInvalidOffset))

	// rejected before kernel
	_, err = c.RequestLines(
		gpiocdev.NewRequestConfig(gpiocdev.WithPullUp, gpiocdev.WithPullDown).
			WithLines([]int{1}))
	var ce *gpiocdev.ConfigError
	assert.True(t, errors.As(err, &ce))

	// busy
	r, err := c.RequestLines(gpiocdev.NewRequestConfig().WithLines([]int{1}))
	require.Nil(t, err)
	defer r.Close()
	_, err = c.RequestLines(gpiocdev.NewRequestConfig().WithLines([]int{1}))
	assert.True(t, errors.Is(err, unix.EBUSY))
}
