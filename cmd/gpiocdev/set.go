// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package main

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/warthog618/gpiocdev"
	"github.com/warthog618/gpiocdev/setter"
)

func init() {
	setOpts.Lines.addFlags(setCmd, true)
	setCmd.Flags().BoolVarP(&setOpts.ActiveLow, "active-low", "l", false, "treat the line as active low")
	setCmd.Flags().StringVarP(&setOpts.Bias, "bias", "b", "as-is", "set the line bias.")
	setCmd.Flags().StringVarP(&setOpts.Drive, "drive", "d", "push-pull", "set the line drive.")
	setCmd.Flags().VarP(&setOpts.HoldPeriod, "hold-period", "p", "the minimum time period to hold lines at the requested values")
	setCmd.Flags().VarP(timeSequenceValue{&setOpts.Toggle}, "toggle", "t", "toggle the lines after the specified time periods")
	setCmd.Flags().BoolVarP(&setOpts.Interactive, "interactive", "i", false, "set the lines then wait for additional set commands")
	setCmd.Flags().BoolVarP(&setOpts.Daemonize, "daemonize", "z", false, "set line values then detach from the controlling terminal")
	setCmd.Flags().StringVarP(&setOpts.Consumer, "consumer", "C", setter.DefaultConsumer, "the consumer label applied to requested lines")
	setCmd.Flags().BoolVar(&setOpts.Banner, "banner", false, "display a banner on successful startup")
	setCmd.MarkFlagsMutuallyExclusive("interactive", "toggle")
	setCmd.MarkFlagsMutuallyExclusive("interactive", "daemonize")
	setCmd.SetHelpTemplate(setCmd.HelpTemplate() + extendedLineHelp + extendedBiasHelp + extendedSetHelp)
	rootCmd.AddCommand(setCmd)
}

var extendedSetHelp = `
Values:
  Values may be inactive/off/false/0 or active/on/true/1.
  e.g. GPIO17=on GPIO22=inactive
       --chip gpiochip0 17=1 22=0

Drives:
  push-pull:    drive the line both high and low
  open-drain:   drive the line low or go high impedance
  open-source:  drive the line high or go high impedance

Periods:
  Periods are taken as milliseconds unless a unit (s, ms or us) is specified.
  The toggle periods are a comma separated list, e.g.
      -t 10ms
      -t 100us,200us,100us,150us
      -t 1s,2s,1s,0
  The lines are toggled after each period elapses. If the final period is
  zero then the program exits after the preceding periods, otherwise the
  sequence repeats.

Note:
  On exit the lines revert to their default state.
`

var (
	setCmd = &cobra.Command{
		Use:                   "set [flags] <line=value>...",
		Short:                 "Set the value of lines",
		Long:                  `Set the value of lines and hold them at that value until exit.`,
		Args:                  cobra.MinimumNArgs(1),
		RunE:                  set,
		DisableFlagsInUseLine: true,
	}
	setOpts = struct {
		Lines       lineOpts
		ActiveLow   bool
		Bias        string
		Drive       string
		HoldPeriod  durationValue
		Toggle      setter.TimeSequence
		Interactive bool
		Daemonize   bool
		Consumer    string
		Banner      bool
	}{}
)

func set(cmd *cobra.Command, args []string) error {
	opts, err := setterOptions(args)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()
	return setter.Run(ctx, opts)
}

func setterOptions(args []string) (setter.Options, error) {
	lvs := make([]setter.LineValue, len(args))
	for i, arg := range args {
		lv, err := setter.ParseLineValue(arg)
		if err != nil {
			return setter.Options{}, err
		}
		lvs[i] = lv
	}
	bias, err := parseBias(setOpts.Bias)
	if err != nil {
		return setter.Options{}, err
	}
	drive, err := parseDrive(setOpts.Drive)
	if err != nil {
		return setter.Options{}, err
	}
	lco := []gpiocdev.LineConfigOption{bias, drive}
	if setOpts.ActiveLow {
		lco = append(lco, gpiocdev.AsActiveLow)
	}
	return setter.Options{
		Lines:       lvs,
		Chip:        setOpts.Lines.Chip,
		ByName:      setOpts.Lines.ByName,
		Strict:      setOpts.Lines.Strict,
		ABI:         rootOpts.AbiV,
		Consumer:    setOpts.Consumer,
		LineConfig:  lco,
		HoldPeriod:  time.Duration(setOpts.HoldPeriod),
		Toggle:      setOpts.Toggle,
		Interactive: setOpts.Interactive,
		Daemonize:   setOpts.Daemonize,
		Banner:      setOpts.Banner,
		Log:         logger,
	}, nil
}
