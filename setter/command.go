// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package setter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
)

// ErrExit is returned by Exec for the exit command.
var ErrExit = errors.New("exit")

// CommandError indicates an interactive command could not be executed.
//
// The session can continue after a CommandError.
type CommandError struct {
	Cmd string
	Err error
}

func (e *CommandError) Error() string {
	if e.Cmd == "" {
		return e.Err.Error()
	}
	return e.Cmd + ": " + e.Err.Error()
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// LineReader provides command lines for an interactive session.
type LineReader interface {
	// Readline returns the next line, or io.EOF at the end of input.
	Readline() (string, error)
}

type command struct {
	name  string
	usage string
	help  string
	exec  func(s *Setter, ctx context.Context, args []string) error
}

var commands []command

func init() {
	commands = []command{
		{"get", "get [line]...", "Display the current values of the given requested lines", (*Setter).doGet},
		{"set", "set <line=value>...", "Update the values of the given requested lines", (*Setter).doSet},
		{"toggle", "toggle [line]...", "Toggle the values of the given requested lines\n" +
			"If no lines are specified then all requested lines are toggled.", (*Setter).doToggle},
		{"sleep", "sleep <period>", "Sleep for the specified period", (*Setter).doSleep},
		{"help", "help", "Print this help", (*Setter).doHelp},
		{"exit", "exit", "Exit the program", func(*Setter, context.Context, []string) error { return ErrExit }},
	}
}

// commandNames returns the names of the interactive commands.
func commandNames() []string {
	names := make([]string, len(commands))
	for i, c := range commands {
		names[i] = c.name
	}
	return names
}

// findCommand returns the command with the given name, or unique prefix of
// the name.
func findCommand(name string) (command, error) {
	if name == "?" {
		name = "help"
	}
	var matches []command
	for _, c := range commands {
		if c.name == name {
			return c, nil
		}
		if strings.HasPrefix(c.name, name) {
			matches = append(matches, c)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return command{}, &CommandError{Err: fmt.Errorf("unknown command: '%s'", name)}
	}
	return command{}, &CommandError{Err: fmt.Errorf("ambiguous command: '%s'", name)}
}

// Exec executes a single interactive command line.
//
// Returns ErrExit for the exit command.
// Any changes to line values are discarded if the command fails.
func (s *Setter) Exec(ctx context.Context, line string) error {
	err := s.exec(ctx, line)
	if err != nil {
		s.clean()
	}
	return err
}

func (s *Setter) exec(ctx context.Context, line string) error {
	cw := splitWords(line)
	if cw.inquote {
		return &CommandError{Err: fmt.Errorf("missing closing quote in '%s'", cw.words[len(cw.words)-1])}
	}
	if len(cw.words) == 0 {
		return nil
	}
	cmd, err := findCommand(cw.words[0])
	if err != nil {
		return err
	}
	err = cmd.exec(s, ctx, cw.words[1:])
	if err == nil || err == ErrExit || ctx.Err() != nil {
		return err
	}
	var ce *CommandError
	if errors.As(err, &ce) {
		if ce.Cmd == "" {
			ce.Cmd = cmd.name
		}
		return ce
	}
	return &CommandError{Cmd: cmd.name, Err: err}
}

// Interact runs an interactive session, reading commands from r until the
// exit command, the end of input, or the ctx is done.
//
// Command errors are reported to the output and the session continues.
func (s *Setter) Interact(ctx context.Context, r LineReader) error {
	for {
		line, err := r.Readline()
		if err != nil {
			if err == io.EOF || err == readline.ErrInterrupt {
				return nil
			}
			return err
		}
		err = s.Exec(ctx, line)
		if err == ErrExit {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			fmt.Fprintln(s.out, err)
		}
	}
}

func notRequested(id string) error {
	return fmt.Errorf("not a requested line: '%s'", id)
}

func (s *Setter) doGet(ctx context.Context, args []string) error {
	ids := make([]string, 0, len(args))
	for _, arg := range args {
		id := unquoted(arg)
		if _, ok := s.lines[id]; !ok {
			return notRequested(id)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		ids = s.ids
	}
	vv := make([]string, len(ids))
	for i, id := range ids {
		vv[i] = fmt.Sprintf("%s=%d", quotable(id), s.lines[id].value)
	}
	fmt.Fprintln(s.out, strings.Join(vv, " "))
	return nil
}

func (s *Setter) doSet(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("requires at least one line=value")
	}
	lvs := make([]LineValue, len(args))
	for i, arg := range args {
		lv, err := ParseLineValue(arg)
		if err != nil {
			return err
		}
		if _, ok := s.lines[lv.ID]; !ok {
			return notRequested(lv.ID)
		}
		lvs[i] = lv
	}
	for _, lv := range lvs {
		ls := s.lines[lv.ID]
		ls.value = lv.Value
		ls.dirty = true
	}
	return s.updateAndHold(ctx)
}

func (s *Setter) doToggle(ctx context.Context, args []string) error {
	ids := make([]string, 0, len(args))
	for _, arg := range args {
		id := unquoted(arg)
		if _, ok := s.lines[id]; !ok {
			return notRequested(id)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		s.toggleAll()
	}
	for _, id := range ids {
		ls := s.lines[id]
		ls.value ^= 1
		ls.dirty = true
	}
	return s.updateAndHold(ctx)
}

func (s *Setter) updateAndHold(ctx context.Context) error {
	updated, err := s.update()
	if err != nil {
		return err
	}
	if updated {
		return s.Hold(ctx)
	}
	return nil
}

func (s *Setter) doSleep(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("requires exactly one period")
	}
	d, err := ParseDuration(args[0])
	if err != nil {
		return err
	}
	return s.Sleep(ctx, d)
}

func (s *Setter) doHelp(ctx context.Context, args []string) error {
	fmt.Fprint(s.out, helpText())
	return nil
}

func helpText() string {
	var sb strings.Builder
	sb.WriteString("COMMANDS:\n")
	for _, c := range commands {
		fmt.Fprintf(&sb, "\n    %s\n", c.usage)
		for _, line := range strings.Split(c.help, "\n") {
			fmt.Fprintf(&sb, "            %s\n", line)
		}
	}
	return sb.String()
}
