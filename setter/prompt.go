// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package setter

import (
	"fmt"
	"strings"

	"github.com/chzyer/readline"
)

// Prompt is the interactive prompt.
const Prompt = "gpiocdev-set> "

// NewPrompt creates a prompt that completes commands and the names of the
// requested lines.
func NewPrompt(ids []string) (*readline.Instance, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            Prompt,
		AutoComplete:      completer{ids: ids},
		HistoryLimit:      20,
		HistorySearchFold: true,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create prompt: %w", err)
	}
	return rl, nil
}

var (
	valueWords = []string{"active", "inactive", "on", "off", "true", "false", "1", "0"}
	unitWords  = []string{"s", "ms", "us"}
)

// completer provides completions for the interactive commands.
type completer struct {
	ids []string
}

// Do returns the suffixes that complete the word under the cursor, and the
// length of the part of the word already entered.
func (c completer) Do(line []rune, pos int) ([][]rune, int) {
	text := strings.TrimLeft(string(line[:pos]), " ")
	cw := splitWords(text)
	if len(cw.words) == 0 {
		return suffixes(commandNames(), "", " ")
	}
	if len(cw.words) == 1 && cw.partial {
		return suffixes(commandNames(), cw.words[0], " ")
	}
	args := cw.words[1:]
	switch cw.words[0] {
	case "get", "toggle":
		return c.completeLines(args, cw.partial)
	case "set":
		return c.completeSet(args, cw.partial)
	case "sleep":
		return completeSleep(args, cw.partial)
	}
	return nil, 0
}

func (c completer) unselected(selected []string) []string {
	var ids []string
outer:
	for _, id := range c.ids {
		for _, s := range selected {
			if s == id {
				continue outer
			}
		}
		ids = append(ids, id)
	}
	return ids
}

func (c completer) completeLines(args []string, partial bool) ([][]rune, int) {
	selected := make([]string, len(args))
	for i, arg := range args {
		selected[i] = unquoted(arg)
	}
	if !partial {
		return quotedSuffixes(c.unselected(selected), "", " ")
	}
	part := args[len(args)-1]
	return quotedSuffixes(c.unselected(selected[:len(selected)-1]), part, " ")
}

func (c completer) completeSet(args []string, partial bool) ([][]rune, int) {
	var selected []string
	for _, arg := range args {
		if idx := strings.IndexByte(arg, '='); idx >= 0 {
			selected = append(selected, unquoted(arg[:idx]))
		}
	}
	ids := c.unselected(selected)
	if !partial {
		return quotedSuffixes(ids, "", "=")
	}
	part := args[len(args)-1]
	if idx := strings.IndexByte(part, '='); idx >= 0 {
		return suffixes(valueWords, part[idx+1:], " ")
	}
	return quotedSuffixes(ids, part, "=")
}

func completeSleep(args []string, partial bool) ([][]rune, int) {
	if !partial || len(args) != 1 {
		return nil, 0
	}
	t := args[0]
	idx := strings.IndexFunc(t, func(r rune) bool { return r < '0' || r > '9' })
	if idx < 0 {
		return suffixes(unitWords, "", " ")
	}
	return suffixes(unitWords, t[idx:], " ")
}

// suffixes returns the remainder of the candidates that start with part.
func suffixes(candidates []string, part, term string) ([][]rune, int) {
	var ss [][]rune
	for _, c := range candidates {
		if strings.HasPrefix(c, part) {
			ss = append(ss, []rune(c[len(part):]+term))
		}
	}
	return ss, len([]rune(part))
}

// quotedSuffixes returns the remainder of the line names that start with
// part, quoting names that contain spaces.
func quotedSuffixes(ids []string, part, term string) ([][]rune, int) {
	qq := make([]string, len(ids))
	for i, id := range ids {
		qq[i] = quotable(id)
	}
	return suffixes(qq, part, term)
}
