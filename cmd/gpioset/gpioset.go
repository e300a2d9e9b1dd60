// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

// A clone of libgpiod gpioset.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	prefixed "github.com/BertoldVdb/logrus-prefixed-formatter"
	"github.com/sirupsen/logrus"
	"github.com/warthog618/config"
	"github.com/warthog618/config/dict"
	"github.com/warthog618/config/env"
	"github.com/warthog618/config/keys"
	"github.com/warthog618/config/pflag"
	"github.com/warthog618/gpiocdev"
	"github.com/warthog618/gpiocdev/setter"
)

var version = "undefined"

func main() {
	cfg, flags := loadConfig()
	if cfg.MustGet("help").Bool() {
		printHelp()
		os.Exit(0)
	}
	if cfg.MustGet("version").Bool() {
		printVersion()
		os.Exit(0)
	}
	if flags.NArg() == 0 {
		die("at least one GPIO line value must be specified")
	}
	opts, err := setterOptions(cfg, flags.Args())
	if err != nil {
		die(err.Error())
	}
	opts.Log = newLogger()
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err = setter.Run(ctx, opts); err != nil {
		die(err.Error())
	}
}

var defaultConfig = map[string]interface{}{
	"help":        false,
	"version":     false,
	"active-low":  false,
	"banner":      false,
	"by-name":     false,
	"interactive": false,
	"strict":      false,
	"daemonize":   false,
	"bias":        "as-is",
	"drive":       "push-pull",
	"chip":        "",
	"consumer":    setter.DefaultConsumer,
	"hold-period": "0",
	"toggle":      "",
}

func loadConfig() (*config.Config, *pflag.Getter) {
	ff := []pflag.Flag{
		{Short: 'h', Name: "help", Options: pflag.IsBool},
		{Short: 'v', Name: "version", Options: pflag.IsBool},
		{Short: 'l', Name: "active-low", Options: pflag.IsBool},
		{Name: "banner", Options: pflag.IsBool},
		{Name: "by-name", Options: pflag.IsBool},
		{Short: 'i', Name: "interactive", Options: pflag.IsBool},
		{Short: 's', Name: "strict", Options: pflag.IsBool},
		{Short: 'z', Name: "daemonize", Options: pflag.IsBool},
		{Short: 'b', Name: "bias"},
		{Short: 'd', Name: "drive"},
		{Short: 'c', Name: "chip"},
		{Short: 'C', Name: "consumer"},
		{Short: 'p', Name: "hold-period"},
		{Short: 't', Name: "toggle"},
	}
	flags := pflag.New(pflag.WithFlags(ff),
		pflag.WithKeyReplacer(keys.NullReplacer()),
	)
	cfg := config.New(
		flags,
		env.New(env.WithEnvPrefix("GPIOSET_")),
		config.WithDefault(dict.New(dict.WithMap(defaultConfig))))
	return cfg, flags
}

func setterOptions(cfg *config.Config, args []string) (setter.Options, error) {
	opts := setter.Options{
		Chip:        cfg.MustGet("chip").String(),
		ByName:      cfg.MustGet("by-name").Bool(),
		Strict:      cfg.MustGet("strict").Bool(),
		Consumer:    cfg.MustGet("consumer").String(),
		Interactive: cfg.MustGet("interactive").Bool(),
		Daemonize:   cfg.MustGet("daemonize").Bool(),
		Banner:      cfg.MustGet("banner").Bool(),
	}
	for _, arg := range args {
		lv, err := setter.ParseLineValue(arg)
		if err != nil {
			return opts, err
		}
		opts.Lines = append(opts.Lines, lv)
	}
	var err error
	if opts.HoldPeriod, err = setter.ParseDuration(cfg.MustGet("hold-period").String()); err != nil {
		return opts, err
	}
	if ts := cfg.MustGet("toggle").String(); ts != "" {
		if opts.Toggle, err = setter.ParseTimeSequence(ts); err != nil {
			return opts, err
		}
	}
	if opts.Interactive && (opts.Daemonize || opts.Toggle != nil) {
		return opts, errors.New("can't combine interactive with toggle or daemonize")
	}
	if cfg.MustGet("active-low").Bool() {
		opts.LineConfig = append(opts.LineConfig, gpiocdev.AsActiveLow)
	}
	switch bias := cfg.MustGet("bias").String(); bias {
	case "as-is":
	case "disabled":
		opts.LineConfig = append(opts.LineConfig, gpiocdev.WithBiasDisabled)
	case "pull-up":
		opts.LineConfig = append(opts.LineConfig, gpiocdev.WithPullUp)
	case "pull-down":
		opts.LineConfig = append(opts.LineConfig, gpiocdev.WithPullDown)
	default:
		return opts, fmt.Errorf("invalid bias: %s", bias)
	}
	switch drive := cfg.MustGet("drive").String(); drive {
	case "push-pull":
	case "open-drain":
		opts.LineConfig = append(opts.LineConfig, gpiocdev.AsOpenDrain)
	case "open-source":
		opts.LineConfig = append(opts.LineConfig, gpiocdev.AsOpenSource)
	default:
		return opts, fmt.Errorf("invalid drive: %s", drive)
	}
	return opts, nil
}

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.Out = os.Stderr
	f := new(prefixed.TextFormatter)
	f.FullTimestamp = true
	l.SetFormatter(f)
	l.SetLevel(logrus.WarnLevel)
	return l
}

func die(reason string) {
	fmt.Fprintln(os.Stderr, "gpioset: "+reason)
	os.Exit(1)
}

func printHelp() {
	fmt.Printf("Usage: %s [OPTIONS] <line=value>...\n", os.Args[0])
	fmt.Println("Set values of GPIO lines.")
	fmt.Println("")
	fmt.Println("Lines are specified by name, or optionally by offset if the chip option is provided.")
	fmt.Println("Values may be '1' or '0', or equivalently 'active'/'inactive' or 'on'/'off'.")
	fmt.Println("")
	fmt.Println("The line values are held until the process is killed, unless either")
	fmt.Println("the interactive or toggle options are specified.")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("      --banner\t\tdisplay a banner on successful startup")
	fmt.Println("  -b, --bias <bias>\tspecify the line bias")
	fmt.Println("\t\t\tPossible values: 'pull-down', 'pull-up', 'disabled'.")
	fmt.Println("\t\t\t(default is to leave bias unchanged)")
	fmt.Println("      --by-name\t\ttreat lines as names even if they would parse as an offset")
	fmt.Println("  -c, --chip <chip>\trestrict scope to a particular chip")
	fmt.Println("  -C, --consumer <name>\tconsumer name applied to requested lines (default 'gpiocdev-set')")
	fmt.Println("  -d, --drive <drive>\tspecify the line drive mode")
	fmt.Println("\t\t\tPossible values: 'push-pull', 'open-drain', 'open-source'.")
	fmt.Println("\t\t\t(default is 'push-pull')")
	fmt.Println("  -h, --help\t\tdisplay this help and exit")
	fmt.Println("  -i, --interactive\tset the lines then wait for additional set commands")
	fmt.Println("  -l, --active-low\ttreat the line as active low")
	fmt.Println("  -p, --hold-period <period>")
	fmt.Println("\t\t\tthe minimum time period to hold lines at the requested values")
	fmt.Println("  -s, --strict\t\tabort if requested line names are not unique")
	fmt.Println("  -t, --toggle <period>[,period]...")
	fmt.Println("\t\t\ttoggle the line(s) after the specified period(s)")
	fmt.Println("\t\t\tIf the last period is non-zero then the sequence repeats.")
	fmt.Println("  -v, --version\t\toutput version information and exit")
	fmt.Println("  -z, --daemonize\tset values then detach from the controlling terminal")
	fmt.Println("")
	fmt.Println("Periods:")
	fmt.Println("    Periods are taken as milliseconds unless units are specified. e.g. 10us.")
	fmt.Println("    Supported units are 's', 'ms', and 'us'.")
	fmt.Println("")
	fmt.Println("The consumer, bias and drive may also be set from the environment,")
	fmt.Println("e.g. GPIOSET_CONSUMER=blinky.")
	fmt.Println("")
	fmt.Println("Note: the state of a GPIO line controlled over the character device reverts to default")
	fmt.Println("when the last process referencing the file descriptor representing the device file exits.")
}

func printVersion() {
	fmt.Printf("%s (gpiocdev) %s\n", os.Args[0], version)
}
