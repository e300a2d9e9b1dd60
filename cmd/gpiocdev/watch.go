// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/warthog618/gpiocdev"
	"golang.org/x/sync/errgroup"
)

func init() {
	watchOpts.Lines.addFlags(watchCmd, false)
	watchCmd.Flags().UintVarP(&watchOpts.NumEvents, "num-events", "n", 0, "exit after n events")
	watchCmd.Flags().BoolVar(&watchOpts.Info, "info", false, "display complete line info")
	watchCmd.SetHelpTemplate(watchCmd.HelpTemplate() + extendedLineHelp)
	rootCmd.AddCommand(watchCmd)
}

var (
	watchCmd = &cobra.Command{
		Use:                   "watch [flags] <line>...",
		Short:                 "Watch lines for changes to the line info",
		Long:                  `Wait for changes to info on GPIO lines and print them to standard output.`,
		Args:                  cobra.MinimumNArgs(1),
		RunE:                  watch,
		DisableFlagsInUseLine: true,
	}
	watchOpts = struct {
		Lines     lineOpts
		Info      bool
		NumEvents uint
	}{}
)

type chipInfoEvent struct {
	chip string
	evt  gpiocdev.LineInfoChangeEvent
}

func watch(cmd *cobra.Command, args []string) error {
	res, err := watchOpts.Lines.resolve(args)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	evtchan := make(chan chipInfoEvent)
	for idx, oo := range chipOffsets(res) {
		c, err := gpiocdev.NewChip(res.Chips[idx].Path, chipOptions()...)
		if err != nil {
			return err
		}
		defer c.Close()
		for _, o := range oo {
			li, err := c.WatchLineInfo(o)
			if err != nil {
				return fmt.Errorf("error requesting watch on line %d: %w", o, err)
			}
			if watchOpts.Info {
				printLineInfo(c.Name, li)
			}
		}
		g.Go(func() error {
			for {
				evt, err := c.ReadInfoChange(gctx)
				if err != nil {
					return err
				}
				select {
				case evtchan <- chipInfoEvent{c.Name, evt}:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
		})
	}
	err = watchWait(gctx, evtchan)
	cancel()
	if gerr := g.Wait(); err == nil && !errors.Is(gerr, context.Canceled) {
		err = gerr
	}
	return err
}

func watchWait(ctx context.Context, evtchan <-chan chipInfoEvent) error {
	count := uint(0)
	for {
		select {
		case ce := <-evtchan:
			fmt.Printf("%s %s %d %-12s (%s)\n",
				time.Now().Format(time.RFC3339Nano),
				ce.chip,
				ce.evt.Info.Offset,
				ce.evt.Type,
				ce.evt.Timestamp)
			if watchOpts.Info {
				printLineInfo(ce.chip, ce.evt.Info)
			}
			count++
			if watchOpts.NumEvents > 0 && count >= watchOpts.NumEvents {
				return nil
			}
		case <-ctx.Done():
			return nil
		}
	}
}
