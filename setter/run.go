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
	"os"

	"github.com/warthog618/gpiocdev/internal/daemon"
)

// ErrConflictingModes indicates the options select both interactive and
// daemonized operation.
var ErrConflictingModes = errors.New("cannot be both interactive and daemonized")

// Run requests the lines, sets them to their initial values, then holds,
// toggles or interacts with them as the options direct.
//
// The lines are released when Run returns. Cancelling the ctx is a normal
// termination and does not return an error.
func Run(ctx context.Context, opts Options) error {
	if opts.Interactive && (opts.Daemonize || opts.Toggle != nil) {
		return ErrConflictingModes
	}
	if opts.Daemonize && !daemon.IsChild() {
		if err := daemon.Detach(); err != nil {
			return err
		}
		if opts.Banner {
			printBanner(os.Stdout, lineIDs(opts.Lines))
		}
		return nil
	}
	s, err := Request(opts)
	if opts.Daemonize {
		if rerr := daemon.Ready(err); rerr != nil && err == nil {
			err = rerr
		}
	}
	if err != nil {
		return err
	}
	defer s.Close()
	if opts.Banner {
		printBanner(s.out, s.IDs())
	}
	return ignoreCancel(run(ctx, s, opts))
}

func run(ctx context.Context, s *Setter, opts Options) error {
	if opts.Toggle != nil {
		return s.Toggle(ctx, opts.Toggle)
	}
	if err := s.Hold(ctx); err != nil {
		return err
	}
	if opts.Interactive {
		p, err := NewPrompt(s.IDs())
		if err != nil {
			return err
		}
		defer p.Close()
		s.out = p.Stdout()
		return s.Interact(ctx, p)
	}
	return s.Wait(ctx)
}

func ignoreCancel(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func lineIDs(lvs []LineValue) []string {
	ids := make([]string, len(lvs))
	for i, lv := range lvs {
		ids[i] = lv.ID
	}
	return ids
}

func printBanner(w io.Writer, ids []string) {
	if len(ids) == 0 {
		return
	}
	if len(ids) == 1 {
		fmt.Fprintf(w, "Setting line '%s'...\n", ids[0])
		return
	}
	fmt.Fprint(w, "Setting lines ")
	for _, id := range ids[:len(ids)-1] {
		fmt.Fprintf(w, "'%s', ", id)
	}
	fmt.Fprintf(w, "and '%s'...\n", ids[len(ids)-1])
}
