// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/warthog618/gpiocdev"
	"github.com/warthog618/gpiocdev/setter"
)

// lineOpts identify the lines a command operates on.
type lineOpts struct {
	Chip   string
	ByName bool
	Strict bool
}

func (lo *lineOpts) addFlags(cmd *cobra.Command, strict bool) {
	cmd.Flags().StringVarP(&lo.Chip, "chip", "c", "", "restrict scope to the lines on this chip")
	cmd.Flags().BoolVar(&lo.ByName, "by-name", false, "lines are strictly identified by name")
	if strict {
		cmd.Flags().BoolVarP(&lo.Strict, "strict", "s", false, "check all lines - don't assume names are unique")
	}
}

func (lo *lineOpts) resolveOptions() gpiocdev.ResolveOptions {
	return gpiocdev.ResolveOptions{
		Chip:   lo.Chip,
		ByName: lo.ByName,
		Strict: lo.Strict,
		ABI:    rootOpts.AbiV,
		Log:    logger,
	}
}

// resolve finds the lines and checks that each was found exactly once.
func (lo *lineOpts) resolve(ids []string) (*gpiocdev.Resolution, error) {
	res, err := gpiocdev.Resolve(ids, lo.resolveOptions())
	if err != nil {
		return nil, err
	}
	if err = res.Validate(); err != nil {
		return nil, err
	}
	return res, nil
}

// chipOffsets groups the matched lines by chip, returning the offsets on
// each chip in ascending order.
func chipOffsets(res *gpiocdev.Resolution) [][]int {
	oo := make([][]int, len(res.Chips))
	seen := map[gpiocdev.ChipOffset]bool{}
	for _, mm := range res.Matches {
		for _, m := range mm {
			if seen[m.ChipOffset] {
				continue
			}
			seen[m.ChipOffset] = true
			oo[m.Chip] = append(oo[m.Chip], m.Offset)
		}
	}
	for _, o := range oo {
		sort.Ints(o)
	}
	return oo
}

// lineAttrs describes the line config and usage.
func lineAttrs(li gpiocdev.LineInfo) string {
	attrs := []string(nil)
	if li.Used {
		consumer := li.Consumer
		if len(consumer) == 0 {
			consumer = "kernel"
		}
		attrs = append(attrs, "used", fmt.Sprintf("consumer=%s", quoted(consumer)))
	}
	attrs = append(attrs, li.Config.Direction.String())
	if li.Config.ActiveLow {
		attrs = append(attrs, "active-low")
	}
	if li.Config.Drive != gpiocdev.LineDrivePushPull {
		attrs = append(attrs, li.Config.Drive.String())
	}
	switch li.Config.Bias {
	case gpiocdev.LineBiasPullUp, gpiocdev.LineBiasPullDown:
		attrs = append(attrs, li.Config.Bias.String())
	case gpiocdev.LineBiasDisabled:
		attrs = append(attrs, "bias-disabled")
	}
	if li.Config.EdgeDetection != gpiocdev.LineEdgeNone {
		attrs = append(attrs, "edges="+li.Config.EdgeDetection.String())
	}
	if li.Config.EventClock == gpiocdev.LineEventClockRealtime {
		attrs = append(attrs, "event-clock=realtime")
	}
	if li.Config.Debounced {
		attrs = append(attrs,
			fmt.Sprintf("debounce-period=%s", li.Config.DebouncePeriod))
	}
	return "[" + strings.Join(attrs, " ") + "]"
}

func quoted(s string) string {
	if strings.Contains(s, " ") {
		return "\"" + s + "\""
	}
	return s
}

func nameOrDefault(s, def string) string {
	if len(s) == 0 {
		return def
	}
	return s
}

// durationValue is a pflag.Value for periods in the setter format, where
// a bare number is taken as milliseconds.
type durationValue time.Duration

var (
	_ pflag.Value = (*durationValue)(nil)
	_ pflag.Value = timeSequenceValue{}
)

func (d *durationValue) Set(s string) error {
	v, err := setter.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = durationValue(v)
	return nil
}

func (d *durationValue) String() string {
	return time.Duration(*d).String()
}

func (d *durationValue) Type() string {
	return "period"
}

// timeSequenceValue is a pflag.Value for a comma separated list of periods.
type timeSequenceValue struct {
	ts *setter.TimeSequence
}

func (t timeSequenceValue) Set(s string) error {
	ts, err := setter.ParseTimeSequence(s)
	if err != nil {
		return err
	}
	*t.ts = ts
	return nil
}

func (t timeSequenceValue) String() string {
	if t.ts == nil {
		return ""
	}
	ss := make([]string, len(*t.ts))
	for i, d := range *t.ts {
		ss[i] = d.String()
	}
	return strings.Join(ss, ",")
}

func (t timeSequenceValue) Type() string {
	return "periods"
}

func parseBias(s string) (gpiocdev.LineConfigOption, error) {
	switch strings.ToLower(s) {
	case "as-is", "":
		return gpiocdev.WithBiasAsIs, nil
	case "disabled", "disable":
		return gpiocdev.WithBiasDisabled, nil
	case "pull-up":
		return gpiocdev.WithPullUp, nil
	case "pull-down":
		return gpiocdev.WithPullDown, nil
	}
	return nil, fmt.Errorf("invalid bias: '%s'", s)
}

func parseDrive(s string) (gpiocdev.LineConfigOption, error) {
	switch strings.ToLower(s) {
	case "push-pull", "":
		return gpiocdev.AsPushPull, nil
	case "open-drain":
		return gpiocdev.AsOpenDrain, nil
	case "open-source":
		return gpiocdev.AsOpenSource, nil
	}
	return nil, fmt.Errorf("invalid drive: '%s'", s)
}

func parseEdge(s string) (gpiocdev.LineConfigOption, error) {
	switch strings.ToLower(s) {
	case "both", "":
		return gpiocdev.WithBothEdges, nil
	case "rising":
		return gpiocdev.WithRisingEdge, nil
	case "falling":
		return gpiocdev.WithFallingEdge, nil
	}
	return nil, fmt.Errorf("invalid edge: '%s'", s)
}

var extendedLineHelp = `
Lines:
  Lines are identified by name, or by offset if --chip is provided.
  The chip may be identified by number, name, or path,
  e.g. 0, gpiochip0 and /dev/gpiochip0 all select the same chip.
`

var extendedBiasHelp = `
Biases:
  as-is:        leave bias unchanged
  disabled:     disable bias
  pull-up:      enable pull-up
  pull-down:    enable pull-down
`
