// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package setter

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindCommand(t *testing.T) {
	patterns := []struct {
		name string
		cmd  string
		err  string
	}{
		{"get", "get", ""},
		{"g", "get", ""},
		{"tog", "toggle", ""},
		{"sl", "sleep", ""},
		{"?", "help", ""},
		{"s", "", "ambiguous command: 's'"},
		{"e", "exit", ""},
		{"bogus", "", "unknown command: 'bogus'"},
		{"gets", "", "unknown command: 'gets'"},
	}
	for _, p := range patterns {
		tf := func(t *testing.T) {
			c, err := findCommand(p.name)
			if p.err != "" {
				require.NotNil(t, err)
				assert.Equal(t, p.err, err.Error())
				return
			}
			require.Nil(t, err)
			assert.Equal(t, p.cmd, c.name)
		}
		t.Run(p.name, tf)
	}
}

func TestExecErrors(t *testing.T) {
	_, s := newRig(t, abcOptions())
	patterns := []struct {
		name string
		line string
		err  string
	}{
		{"unknown", "bogus a", "unknown command: 'bogus'"},
		{"ambiguous", "s a=1", "ambiguous command: 's'"},
		{"unclosed quote", `get "my line`, `missing closing quote in '"my line'`},
		{"get unknown", "get a x", "get: not a requested line: 'x'"},
		{"set no args", "set", "set: requires at least one line=value"},
		{"set no value", "set a", "set: invalid line=value: no '=' found in 'a'"},
		{"set bad value", "set a=2", "set: invalid line value: '2'"},
		{"set semi-quoted", `set "a=1`, `missing closing quote in '"a=1'`},
		{"toggle unknown", "toggle x", "toggle: not a requested line: 'x'"},
		{"sleep no args", "sleep", "sleep: requires exactly one period"},
		{"sleep extra args", "sleep 1 2", "sleep: requires exactly one period"},
		{"sleep ns", "sleep 10ns", "sleep: invalid duration: '10ns': unknown units 'ns'"},
	}
	for _, p := range patterns {
		tf := func(t *testing.T) {
			err := s.Exec(context.Background(), p.line)
			var ce *CommandError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, p.err, err.Error())
		}
		t.Run(p.name, tf)
	}
	assert.Equal(t, map[string]int{"a": 1, "b": 0, "c": 1}, s.Values())
}

func TestExecEmpty(t *testing.T) {
	f, s := newRig(t, abcOptions())
	assert.Nil(t, s.Exec(context.Background(), ""))
	assert.Nil(t, s.Exec(context.Background(), "   "))
	assert.Empty(t, f.out.String())
}

func TestExecExit(t *testing.T) {
	_, s := newRig(t, abcOptions())
	assert.Equal(t, ErrExit, s.Exec(context.Background(), "exit"))
}

func TestExecGet(t *testing.T) {
	opts := abcOptions()
	opts.Lines = append(opts.Lines, LineValue{"my line", 0})
	f, s := newRig(t, opts)

	require.Nil(t, s.Exec(context.Background(), "get"))
	assert.Equal(t, "a=1 b=0 c=1 \"my line\"=0\n", f.out.String())

	f.out.Reset()
	require.Nil(t, s.Exec(context.Background(), `get "my line" b`))
	assert.Equal(t, "\"my line\"=0 b=0\n", f.out.String())
}

func TestExecSetQuoted(t *testing.T) {
	opts := abcOptions()
	opts.Lines = append(opts.Lines, LineValue{"my line", 0})
	f, s := newRig(t, opts)

	require.Nil(t, s.Exec(context.Background(), `set "my line"=on a=off`))
	assert.Equal(t, []map[int]int{{1: 0}}, f.reqs[0].sets)
	assert.Equal(t, []map[int]int{{5: 1}}, f.reqs[1].sets)
	assert.Equal(t, 1, s.Values()["my line"])
}

func TestExecToggle(t *testing.T) {
	f, s := newRig(t, abcOptions())

	require.Nil(t, s.Exec(context.Background(), "toggle a c"))
	assert.Equal(t, []map[int]int{{1: 0}}, f.reqs[0].sets)
	assert.Equal(t, []map[int]int{{2: 0}}, f.reqs[1].sets)

	require.Nil(t, s.Exec(context.Background(), "toggle"))
	assert.Equal(t, map[int]int{1: 1, 3: 1}, f.reqs[0].sets[1])
	assert.Equal(t, map[int]int{2: 1}, f.reqs[1].sets[1])
	assert.Equal(t, map[string]int{"a": 1, "b": 1, "c": 1}, s.Values())
}

func TestExecHelp(t *testing.T) {
	f, s := newRig(t, abcOptions())
	require.Nil(t, s.Exec(context.Background(), "help"))
	help := f.out.String()
	assert.Equal(t, helpText(), help)
	for _, name := range commandNames() {
		assert.Contains(t, help, "\n    "+name)
	}

	f.out.Reset()
	require.Nil(t, s.Exec(context.Background(), "?"))
	assert.Equal(t, help, f.out.String())
}

func TestExecCancelled(t *testing.T) {
	_, s := newRig(t, abcOptions())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.Exec(ctx, "sleep 1s")
	assert.Equal(t, context.Canceled, err)
}

type fakeReader struct {
	lines []string
	next  int
	err   error
}

func (r *fakeReader) Readline() (string, error) {
	if r.next >= len(r.lines) {
		if r.err != nil {
			return "", r.err
		}
		return "", io.EOF
	}
	line := r.lines[r.next]
	r.next++
	return line, nil
}

func TestInteract(t *testing.T) {
	f, s := newRig(t, abcOptions())
	r := &fakeReader{lines: []string{"get", "bogus", "set a=0", "get a", "exit", "get"}}

	err := s.Interact(context.Background(), r)
	assert.Nil(t, err)
	assert.Equal(t, 5, r.next)
	assert.Equal(t, "a=1 b=0 c=1\nunknown command: 'bogus'\na=0\n", f.out.String())
	assert.Equal(t, []map[int]int{{1: 0}}, f.reqs[0].sets)
}

func TestInteractEOF(t *testing.T) {
	_, s := newRig(t, abcOptions())
	r := &fakeReader{lines: []string{"toggle"}}
	assert.Nil(t, s.Interact(context.Background(), r))
	assert.Equal(t, map[string]int{"a": 0, "b": 1, "c": 0}, s.Values())
}

func TestInteractReadError(t *testing.T) {
	_, s := newRig(t, abcOptions())
	rerr := errors.New("terminal gone")
	r := &fakeReader{err: rerr}
	assert.Equal(t, rerr, s.Interact(context.Background(), r))
}
