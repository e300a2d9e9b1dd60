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
	monOpts.Lines.addFlags(monCmd, false)
	monCmd.Flags().BoolVarP(&monOpts.ActiveLow, "active-low", "l", false, "treat the line as active low")
	monCmd.Flags().StringVarP(&monOpts.Bias, "bias", "b", "as-is", "set the line bias.")
	monCmd.Flags().StringVarP(&monOpts.Edge, "edge", "e", "both", "select the edge detection.")
	monCmd.Flags().VarP(&monOpts.Debounce, "debounce-period", "p", "debounce the lines with the specified period")
	monCmd.Flags().UintVarP(&monOpts.NumEvents, "num-events", "n", 0, "exit after n edges")
	monCmd.Flags().BoolVarP(&monOpts.Quiet, "quiet", "q", false, "don't display event details")
	monCmd.Flags().StringVarP(&monOpts.Consumer, "consumer", "C", "gpiocdev-mon", "the consumer label applied to requested lines")
	monCmd.SetHelpTemplate(monCmd.HelpTemplate() + extendedLineHelp + extendedMonHelp + extendedBiasHelp)
	rootCmd.AddCommand(monCmd)
}

var extendedMonHelp = `
Edges:
  both:         both rising and falling edge events are detected
                and reported
  rising:       only rising edge events are detected and reported
  falling:      only falling edge events are detected and reported
`

var (
	monCmd = &cobra.Command{
		Use:                   "mon [flags] <line>...",
		Short:                 "Monitor the state of lines",
		Long:                  `Wait for edge events on GPIO lines and print them to standard output.`,
		Args:                  cobra.MinimumNArgs(1),
		RunE:                  mon,
		DisableFlagsInUseLine: true,
	}
	monOpts = struct {
		Lines     lineOpts
		ActiveLow bool
		Bias      string
		Edge      string
		Debounce  durationValue
		Quiet     bool
		NumEvents uint
		Consumer  string
	}{}
)

type chipEdgeEvent struct {
	chip string
	evt  gpiocdev.LineEvent
}

func mon(cmd *cobra.Command, args []string) error {
	rc, err := monConfig()
	if err != nil {
		return err
	}
	res, err := monOpts.Lines.resolve(args)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	evtchan := make(chan chipEdgeEvent)
	for idx, oo := range chipOffsets(res) {
		ci := res.Chips[idx]
		r, err := requestEdges(ci, oo, rc)
		if err != nil {
			return fmt.Errorf("error requesting GPIO lines on %s: %w", ci.Name, err)
		}
		defer r.Close()
		g.Go(func() error {
			for {
				evt, err := r.ReadEdgeEvent(gctx)
				if err != nil {
					return err
				}
				select {
				case evtchan <- chipEdgeEvent{ci.Name, evt}:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
		})
	}
	err = monWait(gctx, evtchan)
	cancel()
	if gerr := g.Wait(); err == nil && !errors.Is(gerr, context.Canceled) {
		err = gerr
	}
	return err
}

func requestEdges(ci gpiocdev.ChipInfo, offsets []int, base []gpiocdev.LineConfigOption) (*gpiocdev.Request, error) {
	c, err := gpiocdev.NewChip(ci.Path, chipOptions(gpiocdev.WithConsumer(monOpts.Consumer))...)
	if err != nil {
		return nil, err
	}
	defer c.Close()
	return c.RequestLines(gpiocdev.NewRequestConfig(base...).WithLines(offsets))
}

func monConfig() ([]gpiocdev.LineConfigOption, error) {
	edge, err := parseEdge(monOpts.Edge)
	if err != nil {
		return nil, err
	}
	bias, err := parseBias(monOpts.Bias)
	if err != nil {
		return nil, err
	}
	lco := []gpiocdev.LineConfigOption{gpiocdev.AsInput, edge, bias}
	if monOpts.ActiveLow {
		lco = append(lco, gpiocdev.AsActiveLow)
	}
	if monOpts.Debounce != 0 {
		lco = append(lco, gpiocdev.WithDebounce(time.Duration(monOpts.Debounce)))
	}
	return lco, nil
}

func monWait(ctx context.Context, evtchan <-chan chipEdgeEvent) error {
	count := uint(0)
	for {
		select {
		case ce := <-evtchan:
			if !monOpts.Quiet {
				fmt.Printf("event: %s %3d %-7s %s (%s)\n",
					ce.chip,
					ce.evt.Offset,
					ce.evt.Type,
					time.Now().Format(time.RFC3339Nano),
					ce.evt.Timestamp)
			}
			count++
			if monOpts.NumEvents > 0 && count >= monOpts.NumEvents {
				return nil
			}
		case <-ctx.Done():
			return nil
		}
	}
}
