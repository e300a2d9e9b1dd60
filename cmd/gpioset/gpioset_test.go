// SPDX-License-Identifier: MIT
//
// Copyright © 2023 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warthog618/config"
	"github.com/warthog618/config/dict"
	"github.com/warthog618/gpiocdev"
	"github.com/warthog618/gpiocdev/setter"
)

func testConfig(overrides map[string]interface{}) *config.Config {
	return config.New(
		dict.New(dict.WithMap(overrides)),
		config.WithDefault(dict.New(dict.WithMap(defaultConfig))))
}

func TestSetterOptionsDefaults(t *testing.T) {
	opts, err := setterOptions(testConfig(nil), []string{"LED=1", "BUTTON=off"})
	require.Nil(t, err)
	assert.Equal(t, []setter.LineValue{{ID: "LED", Value: 1}, {ID: "BUTTON", Value: 0}}, opts.Lines)
	assert.Equal(t, setter.DefaultConsumer, opts.Consumer)
	assert.Equal(t, time.Duration(0), opts.HoldPeriod)
	assert.Nil(t, opts.Toggle)
	assert.Empty(t, opts.LineConfig)
	assert.False(t, opts.Interactive)
}

func TestSetterOptions(t *testing.T) {
	cfg := testConfig(map[string]interface{}{
		"chip":        "gpiochip1",
		"by-name":     true,
		"strict":      true,
		"consumer":    "blinky",
		"hold-period": "20ms",
		"toggle":      "1s,2s,0",
		"active-low":  true,
		"bias":        "pull-up",
		"drive":       "open-drain",
		"banner":      true,
	})
	opts, err := setterOptions(cfg, []string{"7=active"})
	require.Nil(t, err)
	assert.Equal(t, "gpiochip1", opts.Chip)
	assert.True(t, opts.ByName)
	assert.True(t, opts.Strict)
	assert.True(t, opts.Banner)
	assert.Equal(t, "blinky", opts.Consumer)
	assert.Equal(t, 20*time.Millisecond, opts.HoldPeriod)
	assert.Equal(t, setter.TimeSequence{time.Second, 2 * time.Second, 0}, opts.Toggle)
	assert.Equal(t, []gpiocdev.LineConfigOption{
		gpiocdev.AsActiveLow,
		gpiocdev.WithPullUp,
		gpiocdev.AsOpenDrain,
	}, opts.LineConfig)
}

func TestSetterOptionsErrors(t *testing.T) {
	patterns := []struct {
		name      string
		overrides map[string]interface{}
		args      []string
		err       string
	}{
		{"line value", nil, []string{"LED"}, "invalid line=value: no '=' found in 'LED'"},
		{"hold period", map[string]interface{}{"hold-period": "1ns"}, []string{"LED=1"},
			"invalid duration: '1ns': unknown units 'ns'"},
		{"toggle", map[string]interface{}{"toggle": "1,x"}, []string{"LED=1"},
			"invalid duration: 'x': no digits"},
		{"bias", map[string]interface{}{"bias": "sideways"}, []string{"LED=1"}, "invalid bias: sideways"},
		{"drive", map[string]interface{}{"drive": "hard"}, []string{"LED=1"}, "invalid drive: hard"},
		{"interactive toggle", map[string]interface{}{"interactive": true, "toggle": "10"}, []string{"LED=1"},
			"can't combine interactive with toggle or daemonize"},
		{"interactive daemonize", map[string]interface{}{"interactive": true, "daemonize": true}, []string{"LED=1"},
			"can't combine interactive with toggle or daemonize"},
	}
	for _, p := range patterns {
		tf := func(t *testing.T) {
			_, err := setterOptions(testConfig(p.overrides), p.args)
			assert.EqualError(t, err, p.err)
		}
		t.Run(p.name, tf)
	}
}
