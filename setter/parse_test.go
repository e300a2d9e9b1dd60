// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

package setter

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDuration(t *testing.T) {
	patterns := []struct {
		in  string
		d   time.Duration
		err error
	}{
		{"0", 0, nil},
		{"10", 10 * time.Millisecond, nil},
		{"10ms", 10 * time.Millisecond, nil},
		{"2s", 2 * time.Second, nil},
		{"150us", 150 * time.Microsecond, nil},
		{"", 0, ErrInvalidDuration},
		{"ms", 0, ErrInvalidDuration},
		{"10ns", 0, ErrInvalidDuration},
		{"10m", 0, ErrInvalidDuration},
		{"1.5s", 0, ErrInvalidDuration},
		{"-1", 0, ErrInvalidDuration},
		{"99999999999999999999s", 0, ErrInvalidDuration},
	}
	for _, p := range patterns {
		tf := func(t *testing.T) {
			d, err := ParseDuration(p.in)
			assert.True(t, errors.Is(err, p.err), err)
			assert.Equal(t, p.d, d)
		}
		t.Run(p.in, tf)
	}
}

func TestParseTimeSequence(t *testing.T) {
	ts, err := ParseTimeSequence("100us,200,1s,0")
	assert.Nil(t, err)
	assert.Equal(t, TimeSequence{
		100 * time.Microsecond,
		200 * time.Millisecond,
		time.Second,
		0,
	}, ts)

	ts, err = ParseTimeSequence("0")
	assert.Nil(t, err)
	assert.Equal(t, TimeSequence{0}, ts)

	ts, err = ParseTimeSequence("10,,20")
	assert.True(t, errors.Is(err, ErrInvalidDuration))
	assert.Nil(t, ts)

	_, err = ParseTimeSequence("10,20ns")
	assert.EqualError(t, err, "invalid duration: '20ns': unknown units 'ns'")
}

func TestParseValue(t *testing.T) {
	for _, s := range []string{"0", "inactive", "off", "false", "OFF", "Inactive"} {
		v, err := ParseValue(s)
		assert.Nil(t, err, s)
		assert.Equal(t, 0, v, s)
	}
	for _, s := range []string{"1", "active", "on", "true", "ON", "True"} {
		v, err := ParseValue(s)
		assert.Nil(t, err, s)
		assert.Equal(t, 1, v, s)
	}
	_, err := ParseValue("2")
	assert.EqualError(t, err, "invalid line value: '2'")
	_, err = ParseValue("")
	assert.True(t, errors.Is(err, ErrInvalidValue))
}

func TestParseLineValue(t *testing.T) {
	patterns := []struct {
		in  string
		lv  LineValue
		err string
	}{
		{"LED=1", LineValue{"LED", 1}, ""},
		{"17=off", LineValue{"17", 0}, ""},
		{`"my line"=active`, LineValue{"my line", 1}, ""},
		{"a=b=on", LineValue{"a=b", 1}, ""},
		{"LED", LineValue{}, "invalid line=value: no '=' found in 'LED'"},
		{`"my line=1`, LineValue{}, `invalid line=value: semi-quoted line name in '"my line=1'`},
		{`my line"=1`, LineValue{}, `invalid line=value: semi-quoted line name in 'my line"=1'`},
		{"LED=high", LineValue{}, "invalid line value: 'high'"},
	}
	for _, p := range patterns {
		tf := func(t *testing.T) {
			lv, err := ParseLineValue(p.in)
			if p.err != "" {
				assert.EqualError(t, err, p.err)
			} else {
				assert.Nil(t, err)
			}
			assert.Equal(t, p.lv, lv)
		}
		t.Run(p.in, tf)
	}
}

func TestQuotable(t *testing.T) {
	assert.Equal(t, "LED", quotable("LED"))
	assert.Equal(t, `"my line"`, quotable("my line"))
	assert.Equal(t, "my line", unquoted(`"my line"`))
	assert.Equal(t, `"`, unquoted(`"`))
	assert.Equal(t, "LED", unquoted("LED"))
}

func TestSplitWords(t *testing.T) {
	patterns := []struct {
		name string
		in   string
		cw   commandWords
	}{
		{"empty", "", commandWords{}},
		{"spaces", "   ", commandWords{}},
		{"single", "get", commandWords{words: []string{"get"}, partial: true}},
		{"terminated", "get ", commandWords{words: []string{"get"}}},
		{"multiple", "set  a=1 b=0", commandWords{words: []string{"set", "a=1", "b=0"}, partial: true}},
		{"quoted", `get "my line" a `, commandWords{words: []string{"get", `"my line"`, "a"}}},
		{"quoted value", `set "my line"=1`, commandWords{words: []string{"set", `"my line"=1`}, partial: true}},
		{"unclosed", `get "my li`, commandWords{words: []string{"get", `"my li`}, inquote: true, partial: true}},
	}
	for _, p := range patterns {
		tf := func(t *testing.T) {
			assert.Equal(t, p.cw, splitWords(p.in))
		}
		t.Run(p.name, tf)
	}
}
