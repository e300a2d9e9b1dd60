// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package setter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComplete(t *testing.T) {
	c := completer{ids: []string{"LED", "my line", "BUTTON"}}
	patterns := []struct {
		name string
		line string
		ss   []string
		n    int
	}{
		{"empty", "", []string{"get ", "set ", "toggle ", "sleep ", "help ", "exit "}, 0},
		{"command", "to", []string{"ggle "}, 2},
		{"ambiguous command", "s", []string{"et ", "leep "}, 1},
		{"unknown command", "bogus ", nil, 0},
		{"get all", "get ", []string{"LED ", `"my line" `, "BUTTON "}, 0},
		{"get unselected", "get LED ", []string{`"my line" `, "BUTTON "}, 0},
		{"get partial", "get B", []string{"UTTON "}, 1},
		{"get quoted", `get LED "my`, []string{` line" `}, 3},
		{"toggle", "toggle BUTTON L", []string{"ED "}, 1},
		{"set all", "set ", []string{"LED=", `"my line"=`, "BUTTON="}, 0},
		{"set unselected", "set LED=1 ", []string{`"my line"=`, "BUTTON="}, 0},
		{"set partial", "set LED=1 BU", []string{"TTON="}, 2},
		{"set value", "set LED=", []string{"active ", "inactive ", "on ", "off ", "true ", "false ", "1 ", "0 "}, 0},
		{"set partial value", "set LED=o", []string{"n ", "ff "}, 1},
		{"sleep units", "sleep 10", []string{"s ", "ms ", "us "}, 0},
		{"sleep partial units", "sleep 10m", []string{"s "}, 1},
		{"sleep complete", "sleep 10ms ", nil, 0},
		{"exit", "exit ", nil, 0},
	}
	for _, p := range patterns {
		tf := func(t *testing.T) {
			line := []rune(p.line)
			ss, n := c.Do(line, len(line))
			var got []string
			for _, s := range ss {
				got = append(got, string(s))
			}
			assert.Equal(t, p.ss, got)
			assert.Equal(t, p.n, n)
		}
		t.Run(p.name, tf)
	}
}

func TestCompleteCursor(t *testing.T) {
	c := completer{ids: []string{"LED", "BUTTON"}}
	// only the text before the cursor is considered
	line := []rune("get B LED")
	ss, n := c.Do(line, 5)
	assert.Equal(t, [][]rune{[]rune("UTTON ")}, ss)
	assert.Equal(t, 1, n)
}
