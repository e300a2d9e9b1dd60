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
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/warthog618/gpiocdev"
	"github.com/warthog618/gpiocdev/chipmon"
)

func init() {
	detectCmd.Flags().BoolVarP(&detectOpts.Watch, "watch", "w", false, "report chips being added and removed")
	detectCmd.Flags().BoolVar(&detectOpts.Kernel, "kernel-events", false, "take events from the kernel rather than udev")
	rootCmd.AddCommand(detectCmd)
}

var (
	detectCmd = &cobra.Command{
		Use:   "detect [flags] [chip]...",
		Short: "Detect available GPIO chips",
		Long:  `List GPIO chips, print their labels and number of GPIO lines.`,
		Run:   detect,
	}
	detectOpts = struct {
		Watch  bool
		Kernel bool
	}{}
)

func detect(cmd *cobra.Command, args []string) {
	rc := 0
	cc := args
	if len(cc) == 0 {
		cc = gpiocdev.Chips()
	}
	for _, id := range cc {
		if err := printChip(id); err != nil {
			logErr(cmd, err)
			rc = 1
		}
	}
	if detectOpts.Watch {
		ctx, cancel := signalContext()
		defer cancel()
		if err := watchChips(ctx); err != nil {
			logErr(cmd, err)
			rc = 1
		}
	}
	os.Exit(rc)
}

func printChip(id string) error {
	c, err := gpiocdev.NewChip(id, chipOptions()...)
	if err != nil {
		return err
	}
	defer c.Close()
	ci, err := c.Info()
	if err != nil {
		return err
	}
	fmt.Printf("%s [%s] (%d lines) using kernel uAPI v%d\n",
		ci.Name, ci.Label, ci.Lines, ci.AbiVersion)
	return nil
}

func watchChips(ctx context.Context) error {
	options := []chipmon.Option{chipmon.WithLogger(logger)}
	if detectOpts.Kernel {
		options = append(options, chipmon.WithKernelEvents())
	}
	m, err := chipmon.New(options...)
	if err != nil {
		return err
	}
	defer m.Close()
	for {
		evt, err := m.Read(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		fmt.Printf("%s %s %s\n", time.Now().Format(time.RFC3339Nano), evt.Name, evt.Action)
		if evt.Action == chipmon.ActionAdd {
			if err := printChip(evt.Path); err != nil {
				logger.WithError(err).WithField("chip", evt.Name).Debug("chip info unavailable")
			}
		}
	}
}
