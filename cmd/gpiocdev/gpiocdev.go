// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

// A utility to access GPIO lines on Linux GPIO character devices.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	prefixed "github.com/BertoldVdb/logrus-prefixed-formatter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/warthog618/gpiocdev"
)

var version = "undefined"

var (
	rootCmd = &cobra.Command{
		Use:     "gpiocdev",
		Short:   "gpiocdev is a utility to access GPIO lines",
		Long:    "gpiocdev is a utility to access GPIO lines on Linux GPIO character devices",
		Version: version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = newLogger(rootOpts.Verbose)
		},
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
		SilenceUsage: true,
	}
	rootOpts = struct {
		Verbose bool
		AbiV    int
	}{}
	logger = newLogger(false)
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&rootOpts.Verbose, "verbose", "v", false, "provide more detailed error messages")
	rootCmd.PersistentFlags().IntVar(&rootOpts.AbiV, "abiv", 0, "use specified uAPI version.")
	rootCmd.PersistentFlags().MarkHidden("abiv")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(verbose bool) *logrus.Logger {
	l := logrus.New()
	l.Out = os.Stderr
	f := new(prefixed.TextFormatter)
	f.FullTimestamp = true
	f.TimestampFormat = "2006-01-02 15:04:05"
	l.SetFormatter(f)
	l.SetLevel(logrus.WarnLevel)
	if verbose {
		l.SetLevel(logrus.DebugLevel)
	}
	return l
}

func logErr(cmd *cobra.Command, err error) {
	fmt.Fprintf(os.Stderr, "gpiocdev %s: %s\n", cmd.Name(), err)
}

func chipOptions(options ...gpiocdev.ChipOption) []gpiocdev.ChipOption {
	if rootOpts.AbiV != 0 {
		options = append(options, gpiocdev.WithABIVersion(rootOpts.AbiV))
	}
	return options
}

// signalContext returns a context that is cancelled by SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
