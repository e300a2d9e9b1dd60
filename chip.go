// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package gpiocdev

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/warthog618/gpiocdev/uapi"
	"golang.org/x/sys/unix"
)

// Chip represents a single GPIO chip that controls a set of lines.
type Chip struct {
	f *os.File

	// The system name for this chip.
	Name string

	// A more individual label for the chip.
	Label string

	// The path to the chip device.
	Path string

	// The number of GPIO lines on this chip.
	lines int

	// default options for requested lines.
	options ChipOptions

	abi uapiABI

	// mutex covers the attributes below it.
	mu sync.Mutex

	// waits for info change events.
	poller *poller

	// indicates the chip has been closed.
	closed bool
}

// ChipInfo contains the details of a chip.
type ChipInfo struct {
	// The system name for the chip, e.g. "gpiochip0".
	Name string

	// The label assigned to the chip by the driver.
	Label string

	// The path to the chip device.
	Path string

	// The number of lines on the chip.
	Lines int

	// The version of the uAPI in use.
	AbiVersion int
}

// Chips returns the names of the available GPIO devices, sorted by chip
// number.
func Chips() []string {
	cc := []string(nil)
	for _, name := range chipNames() {
		if IsChip(name) == nil {
			cc = append(cc, name)
		}
	}
	sort.Slice(cc, func(i, j int) bool {
		return chipNumber(cc[i]) < chipNumber(cc[j])
	})
	return cc
}

func chipNumber(name string) int {
	n, err := strconv.Atoi(strings.TrimPrefix(name, "gpiochip"))
	if err != nil {
		return -1
	}
	return n
}

// ChipPath returns the path of the device for a chip.
//
// The chip may be identified by path, name or number, so "/dev/gpiochip0",
// "gpiochip0" and "0" all refer to the same chip.
func ChipPath(id string) string {
	if strings.HasPrefix(id, "/") {
		return id
	}
	if _, err := strconv.ParseUint(id, 10, 32); err == nil {
		return "/dev/gpiochip" + id
	}
	return "/dev/" + id
}

// NewChip opens a GPIO character device.
//
// The chip may be identified by path, name or number.
func NewChip(id string, options ...ChipOption) (*Chip, error) {
	path := ChipPath(id)
	err := IsChip(path)
	if err != nil {
		return nil, &IoError{Op: "open", Chip: path, Offset: -1, Err: err}
	}
	co := ChipOptions{
		consumer: fmt.Sprintf("gpiocdev-p%d", os.Getpid()),
	}
	for _, option := range options {
		option.applyChipOption(&co)
	}
	f, err := os.OpenFile(path, unix.O_CLOEXEC, unix.O_RDONLY)
	if err != nil {
		// only happens if device removed/locked since IsChip call.
		return nil, &IoError{Op: "open", Chip: path, Offset: -1, Err: err}
	}
	ci, err := uapi.GetChipInfo(f.Fd())
	if err != nil {
		f.Close()
		return nil, &IoError{Op: "chip info", Chip: path, Offset: -1, Err: err}
	}
	c := Chip{
		f:       f,
		Name:    uapi.BytesToString(ci.Name[:]),
		Label:   uapi.BytesToString(ci.Label[:]),
		Path:    path,
		lines:   int(ci.Lines),
		options: co,
	}
	if c.options.abi == 0 {
		// probe v2 - should only throw an error if v2 is not supported.
		if _, err = uapi.GetLineInfoV2(f.Fd(), 0); err == nil {
			c.options.abi = 2
		} else {
			c.options.abi = 1
		}
	}
	c.abi = newABI(c.options.abi)
	if len(c.Label) == 0 {
		c.Label = "unknown"
	}
	return &c, nil
}

// Close releases the Chip.
//
// It does not release any lines which may be requested - they must be closed
// independently.
func (c *Chip) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.closed = true
	if c.poller != nil {
		c.poller.close()
	}
	return c.f.Close()
}

// Info returns the details of the chip.
func (c *Chip) Info() (ChipInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ChipInfo{}, ErrClosed
	}
	ci := ChipInfo{
		Name:       c.Name,
		Label:      c.Label,
		Path:       c.Path,
		Lines:      c.lines,
		AbiVersion: c.abi.version(),
	}
	return ci, nil
}

// Lines returns the number of lines that exist on the GPIO chip.
func (c *Chip) Lines() int {
	return c.lines
}

// UapiAbiVersion returns the version of the GPIO uAPI the chip is using.
func (c *Chip) UapiAbiVersion() int {
	return c.abi.version()
}

// LineInfo returns the publicly available information on the line.
//
// This is always available and does not require requesting the line.
// The offset is not checked against the number of lines on the chip, that
// is left to the kernel.
func (c *Chip) LineInfo(offset int) (LineInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return LineInfo{}, ErrClosed
	}
	li, err := c.abi.lineInfo(c.f.Fd(), offset)
	if err != nil {
		return LineInfo{}, c.ioError("line info", offset, err)
	}
	return li, nil
}

// WatchLineInfo enables watching changes to line info for the specified line.
//
// Returns the current line info. Changes are returned by ReadInfoChange.
//
// Requires Linux v5.7 or later.
func (c *Chip) WatchLineInfo(offset int) (LineInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return LineInfo{}, ErrClosed
	}
	li, err := c.abi.watchLineInfo(c.f.Fd(), offset)
	if err != nil {
		return LineInfo{}, c.ioError("watch line info", offset, err)
	}
	return li, nil
}

// UnwatchLineInfo disables watching changes to line info.
//
// Requires Linux v5.7 or later.
func (c *Chip) UnwatchLineInfo(offset int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if err := uapi.UnwatchLineInfo(c.f.Fd(), uint32(offset)); err != nil {
		return c.ioError("unwatch line info", offset, err)
	}
	return nil
}

// ReadInfoChange returns the next change to the info of a watched line.
//
// Blocks until a change is available or the ctx is done.
func (c *Chip) ReadInfoChange(ctx context.Context) (LineInfoChangeEvent, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return LineInfoChangeEvent{}, ErrClosed
	}
	if c.poller == nil {
		p, err := newPoller(int(c.f.Fd()))
		if err != nil {
			c.mu.Unlock()
			return LineInfoChangeEvent{}, c.ioError("watch line info", -1, err)
		}
		c.poller = p
	}
	p := c.poller
	c.mu.Unlock()
	if err := p.wait(ctx); err != nil {
		if ctx.Err() != nil {
			return LineInfoChangeEvent{}, err
		}
		return LineInfoChangeEvent{}, c.ioError("read line info change", -1, err)
	}
	lice, err := c.abi.readInfoChange(c.f.Fd())
	if err != nil {
		return LineInfoChangeEvent{}, c.ioError("read line info change", -1, err)
	}
	return lice, nil
}

// RequestLines requests control of a set of lines on the chip.
//
// The lines are requested in a single kernel operation, so either all lines
// are requested or none are.
// If granted, control is maintained until the Request is closed.
func (c *Chip) RequestLines(rc *RequestConfig, options ...RequestOption) (*Request, error) {
	if err := rc.Validate(); err != nil {
		return nil, err
	}
	offsets := rc.Offsets()
	for _, o := range offsets {
		if o >= c.lines {
			return nil, c.ioError("request lines", o, ErrInvalidOffset)
		}
	}
	ro := requestOptions{consumer: c.options.consumer}
	for _, option := range options {
		option.applyRequestOption(&ro)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	fd, err := c.abi.requestLines(c.f.Fd(), offsets, rc, ro)
	if err != nil {
		if _, ok := err.(unix.Errno); ok {
			return nil, c.ioError("request lines", -1, err)
		}
		return nil, err
	}
	return newRequest(c.Name, fd, c.abi, offsets, rc), nil
}

func (c *Chip) ioError(op string, offset int, err error) error {
	return &IoError{Op: op, Chip: c.Name, Offset: offset, Err: err}
}

// IsChip checks if the named device is an accessible GPIO character device.
//
// Returns an error if not.
func IsChip(name string) error {
	path := ChipPath(name)
	fi, err := os.Lstat(path)
	if err != nil {
		return err
	}
	if fi.Mode()&os.ModeCharDevice == 0 {
		return ErrNotCharacterDevice
	}
	sysfspath := fmt.Sprintf("/sys/bus/gpio/devices/%s/dev", fi.Name())
	sysfsdev, err := os.ReadFile(sysfspath)
	if err != nil || len(sysfsdev) == 0 {
		return ErrNotCharacterDevice
	}
	var stat unix.Stat_t
	if err = unix.Lstat(path, &stat); err != nil {
		return err
	}
	devstr := fmt.Sprintf("%d:%d", unix.Major(uint64(stat.Rdev)), unix.Minor(uint64(stat.Rdev)))
	sysstr := strings.TrimSpace(string(sysfsdev))
	if devstr != sysstr {
		return ErrNotCharacterDevice
	}
	return nil
}

// chipNames returns the name of potential gpiochips.
//
// Does not open them or check if they are valid.
func chipNames() []string {
	ee, err := os.ReadDir("/dev")
	if err != nil {
		return nil
	}
	cc := []string(nil)
	for _, e := range ee {
		name := e.Name()
		if strings.HasPrefix(name, "gpiochip") {
			cc = append(cc, name)
		}
	}
	return cc
}
