// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

package gpiocdev

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrClosed indicates the chip or request has already been closed.
	ErrClosed = errors.New("already closed")

	// ErrConfigOverflow indicates the provided configuration is too complicated
	// to be mapped to the kernel uAPI.
	//
	// Reduce the number of distinct line configurations or split the request
	// into multiple requests for smaller sets of lines.
	ErrConfigOverflow = errors.New("configuration too complex to map to kernel uAPI")

	// ErrInvalidOffset indicates a line offset is invalid.
	ErrInvalidOffset = errors.New("invalid offset")

	// ErrNotCharacterDevice indicates the device is not a character device.
	ErrNotCharacterDevice = errors.New("not a character device")

	// ErrPermissionDenied indicates caller does not have required permissions
	// for the operation.
	ErrPermissionDenied = errors.New("permission denied")
)

// ErrUapiIncompatibility indicates the feature is not supported by the given
// kernel uAPI version.
type ErrUapiIncompatibility struct {
	Feature    string
	AbiVersion int
}

func (e ErrUapiIncompatibility) Error() string {
	return fmt.Sprintf("%s not available in kernel GPIO uAPI v%d", e.Feature, e.AbiVersion)
}

// IoError is an error returned by the kernel in response to an operation on
// a chip or request.
type IoError struct {
	// Op is the operation being performed, e.g. "line info".
	Op string

	// Chip is the name or path of the chip.
	Chip string

	// Offset is the offset of the line, or -1 if the operation is not
	// specific to a line.
	Offset int

	// Err is the underlying error, typically a unix.Errno.
	Err error
}

func (e *IoError) Error() string {
	if e.Offset < 0 {
		return fmt.Sprintf("%s %s: %s", e.Op, e.Chip, e.Err)
	}
	return fmt.Sprintf("%s %s:%d: %s", e.Op, e.Chip, e.Offset, e.Err)
}

func (e *IoError) Unwrap() error {
	return e.Err
}

// ConfigError indicates a RequestConfig is invalid.
//
// These are detected before any request is made to the kernel.
type ConfigError struct {
	// Offset identifies the line with the invalid config, or -1 if the
	// problem is with the request as a whole.
	Offset int

	// Reason describes the problem.
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Offset < 0 {
		return "invalid config: " + e.Reason
	}
	return fmt.Sprintf("invalid config for line %d: %s", e.Offset, e.Reason)
}

// ResolutionError indicates one or more line identifiers did not resolve to
// exactly one line.
type ResolutionError struct {
	// NotFound contains the identifiers that matched no line.
	NotFound []string

	// Ambiguous contains the identifiers that matched more than one line,
	// and the number of lines matched.
	Ambiguous map[string]int

	// Duplicates contains pairs of identifiers that resolved to the same line.
	Duplicates [][2]string
}

func (e *ResolutionError) Error() string {
	var errs []string
	for _, id := range e.NotFound {
		errs = append(errs, fmt.Sprintf("cannot find line '%s'", id))
	}
	ids := make([]string, 0, len(e.Ambiguous))
	for id := range e.Ambiguous {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		errs = append(errs, fmt.Sprintf("line '%s' is not unique (%d matches)", id, e.Ambiguous[id]))
	}
	for _, d := range e.Duplicates {
		errs = append(errs, fmt.Sprintf("lines '%s' and '%s' are the same line", d[0], d[1]))
	}
	return strings.Join(errs, "\n")
}

func (e *ResolutionError) empty() bool {
	return len(e.NotFound) == 0 && len(e.Ambiguous) == 0 && len(e.Duplicates) == 0
}
