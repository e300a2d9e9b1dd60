// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/warthog618/gpiocdev"
)

func init() {
	getOpts.addFlags(getCmd, true)
	getCmd.SetHelpTemplate(getCmd.HelpTemplate() + extendedLineHelp)
	rootCmd.AddCommand(getCmd)
}

var (
	getCmd = &cobra.Command{
		Use:     "get [flags] [line]...",
		Aliases: []string{"line", "info"},
		Short:   "Get info for lines",
		Long: `Print information about the specified lines, or all lines of the specified chip,
or all lines of all chips if none are specified.

Exits with a non-zero status if any line is not found exactly once.`,
		Run:                   get,
		DisableFlagsInUseLine: true,
	}
	getOpts lineOpts
)

func get(cmd *cobra.Command, args []string) {
	rc := 0
	if len(args) == 0 {
		cc := []string{getOpts.Chip}
		if getOpts.Chip == "" {
			cc = gpiocdev.Chips()
		}
		for _, id := range cc {
			if err := printChipLines(id); err != nil {
				logErr(cmd, err)
				rc = 1
			}
		}
		os.Exit(rc)
	}
	res, err := gpiocdev.Resolve(args, getOpts.resolveOptions())
	if err != nil {
		logErr(cmd, err)
		os.Exit(1)
	}
	printMatchedLines(res)
	for i, n := range res.Counts {
		switch {
		case n == 0:
			logErr(cmd, fmt.Errorf("cannot find line '%s'", args[i]))
			rc = 1
		case n > 1:
			logErr(cmd, fmt.Errorf("line '%s' is not unique", args[i]))
			rc = 1
		}
	}
	os.Exit(rc)
}

func printChipLines(id string) error {
	c, err := gpiocdev.NewChip(id, chipOptions()...)
	if err != nil {
		return err
	}
	defer c.Close()
	fmt.Printf("%s - %d lines:\n", nameOrDefault(c.Name, "??"), c.Lines())
	for o := 0; o < c.Lines(); o++ {
		li, err := c.LineInfo(o)
		if err != nil {
			return err
		}
		fmt.Printf("\tline %3d:\t%-16s\t%s\n",
			li.Offset, nameOrDefault(li.Name, "unnamed"), lineAttrs(li))
	}
	return nil
}

func printMatchedLines(res *gpiocdev.Resolution) {
	infos := map[gpiocdev.ChipOffset]gpiocdev.LineInfo{}
	for _, mm := range res.Matches {
		for _, m := range mm {
			infos[m.ChipOffset] = m.Info
		}
	}
	for idx, oo := range chipOffsets(res) {
		for _, o := range oo {
			printLineInfo(res.Chips[idx].Name, infos[gpiocdev.ChipOffset{Chip: idx, Offset: o}])
		}
	}
}

func printLineInfo(chip string, li gpiocdev.LineInfo) {
	fmt.Printf("%s %d\t%-16s\t%s\n",
		nameOrDefault(chip, "??"), li.Offset, nameOrDefault(li.Name, "unnamed"), lineAttrs(li))
}
