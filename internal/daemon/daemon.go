// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

// Package daemon detaches a process from its controlling terminal.
//
// As a Go process cannot safely fork, the process is re-executed in a new
// session, and the parent waits for the child to report that it is ready
// before exiting.
package daemon

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"
)

// EnvKey is the environment variable that identifies the detached child.
const EnvKey = "GPIOCDEV_DAEMON"

// readyFd is the fd of the ready pipe in the child.
const readyFd = 3

// ErrNotReady indicates the child exited without reporting it was ready.
var ErrNotReady = errors.New("daemon exited before ready")

// IsChild returns true if the process is the detached child.
func IsChild() bool {
	return os.Getenv(EnvKey) != ""
}

// Detach starts a copy of the process, with the same arguments, in a new
// session with no controlling terminal.
//
// Returns once the child calls Ready, returning the error the child
// reported, if any. The caller should then exit.
func Detach() error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}
	r, w, err := os.Pipe()
	if err != nil {
		return err
	}
	defer r.Close()
	cmd := exec.Command(exe, os.Args[1:]...)
	cmd.Env = append(os.Environ(), EnvKey+"=1")
	cmd.ExtraFiles = []*os.File{w}
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	err = cmd.Start()
	w.Close()
	if err != nil {
		return err
	}
	err = waitReady(r)
	cmd.Process.Release()
	return err
}

func waitReady(r io.Reader) error {
	status, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && status == "" {
		return ErrNotReady
	}
	status = strings.TrimSuffix(status, "\n")
	if status == "ok" {
		return nil
	}
	return errors.New(strings.TrimPrefix(status, "error: "))
}

// Ready reports the outcome of the child's startup to the parent.
//
// Does nothing if the process is not the detached child.
func Ready(rerr error) error {
	if !IsChild() {
		return nil
	}
	f := os.NewFile(readyFd, "ready")
	if f == nil {
		return ErrNotReady
	}
	defer f.Close()
	return writeStatus(f, rerr)
}

func writeStatus(w io.Writer, rerr error) error {
	if rerr != nil {
		msg := strings.ReplaceAll(rerr.Error(), "\n", "; ")
		_, err := fmt.Fprintf(w, "error: %s\n", msg)
		return err
	}
	_, err := io.WriteString(w, "ok\n")
	return err
}
