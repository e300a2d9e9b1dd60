// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

package setter

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrInvalidDuration indicates a duration string could not be parsed.
	ErrInvalidDuration = errors.New("invalid duration")

	// ErrInvalidLineValue indicates a line=value string could not be parsed.
	ErrInvalidLineValue = errors.New("invalid line=value")

	// ErrInvalidValue indicates a line value string could not be parsed.
	ErrInvalidValue = errors.New("invalid line value")
)

// ParseDuration parses a period such as "10ms", "2s" or "150us".
//
// A bare number is taken as milliseconds.
// Periods are whole numbers, and nanosecond resolution is not supported.
func ParseDuration(s string) (time.Duration, error) {
	idx := strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' })
	num, units := s, ""
	if idx >= 0 {
		num, units = s[:idx], s[idx:]
	}
	if len(num) == 0 {
		return 0, fmt.Errorf("%w: '%s': no digits", ErrInvalidDuration, s)
	}
	var unit time.Duration
	switch units {
	case "", "ms":
		unit = time.Millisecond
	case "s":
		unit = time.Second
	case "us":
		unit = time.Microsecond
	default:
		return 0, fmt.Errorf("%w: '%s': unknown units '%s'", ErrInvalidDuration, s, units)
	}
	n, err := strconv.ParseUint(num, 10, 63)
	if err != nil || n > uint64(math.MaxInt64/int64(unit)) {
		return 0, fmt.Errorf("%w: '%s': out of range", ErrInvalidDuration, s)
	}
	return time.Duration(n) * unit, nil
}

// TimeSequence is the sequence of periods between toggles.
type TimeSequence []time.Duration

// ParseTimeSequence parses a comma separated list of periods, e.g.
// "100us,200us,1s,0".
func ParseTimeSequence(s string) (TimeSequence, error) {
	var ts TimeSequence
	for _, period := range strings.Split(s, ",") {
		d, err := ParseDuration(period)
		if err != nil {
			return nil, err
		}
		ts = append(ts, d)
	}
	return ts, nil
}

// LineValue is a line identifier and the value to set it to.
type LineValue struct {
	ID    string
	Value int
}

// ParseValue parses a line value.
//
// Accepts "0", "inactive", "off", "false", "1", "active", "on" and "true",
// ignoring case.
func ParseValue(s string) (int, error) {
	switch strings.ToLower(s) {
	case "0", "inactive", "off", "false":
		return 0, nil
	case "1", "active", "on", "true":
		return 1, nil
	}
	return 0, fmt.Errorf("%w: '%s'", ErrInvalidValue, s)
}

// ParseLineValue parses a line=value pair.
//
// The line is split from the value at the last '=', so line names may
// contain '='. Line names containing spaces must be quoted, e.g.
// "my line"=active.
func ParseLineValue(s string) (LineValue, error) {
	pos := strings.LastIndexByte(s, '=')
	if pos < 0 {
		return LineValue{}, fmt.Errorf("%w: no '=' found in '%s'", ErrInvalidLineValue, s)
	}
	id := unquoted(s[:pos])
	if strings.ContainsRune(id, '"') {
		return LineValue{}, fmt.Errorf("%w: semi-quoted line name in '%s'", ErrInvalidLineValue, s)
	}
	v, err := ParseValue(s[pos+1:])
	if err != nil {
		return LineValue{}, err
	}
	return LineValue{ID: id, Value: v}, nil
}

// unquoted strips quotes surrounding the whole string.
func unquoted(s string) string {
	if len(s) > 1 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// quotable quotes a line name if it contains spaces.
func quotable(id string) string {
	if strings.ContainsRune(id, ' ') {
		return `"` + id + `"`
	}
	return id
}

// commandWords splits a command line into words.
type commandWords struct {
	words []string

	// the line ends within a quoted section.
	inquote bool

	// the last word was not terminated by a space.
	partial bool
}

// splitWords splits a line into space separated words.
//
// Quoted sections may contain spaces, and the quotes are retained in the
// words.
func splitWords(line string) commandWords {
	var cw commandWords
	start := -1
	for i, r := range line {
		switch {
		case r == '"':
			if start < 0 {
				start = i
			}
			cw.inquote = !cw.inquote
		case r == ' ' && !cw.inquote:
			if start >= 0 {
				cw.words = append(cw.words, line[start:i])
				start = -1
			}
		default:
			if start < 0 {
				start = i
			}
		}
	}
	if start >= 0 {
		cw.words = append(cw.words, line[start:])
		cw.partial = true
	}
	return cw
}
