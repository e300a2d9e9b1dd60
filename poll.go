// SPDX-FileCopyrightText: 2020 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package gpiocdev

import (
	"context"

	"golang.org/x/sys/unix"
)

// poller waits for a single fd to become readable, with the wait able to be
// cancelled via a context.
type poller struct {
	epfd int

	// eventfd used to interrupt the wait
	donefd int

	fd int
}

func newPoller(fd int) (p *poller, err error) {
	var epfd, donefd int
	epfd, err = unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return
	}
	defer func() {
		if err != nil {
			unix.Close(epfd)
		}
	}()
	donefd, err = unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		return
	}
	defer func() {
		if err != nil {
			unix.Close(donefd)
		}
	}()
	epv := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(donefd)}
	err = unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, donefd, &epv)
	if err != nil {
		return
	}
	epv.Fd = int32(fd)
	err = unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, fd, &epv)
	if err != nil {
		return
	}
	p = &poller{epfd: epfd, donefd: donefd, fd: fd}
	return
}

func (p *poller) close() {
	unix.Close(p.epfd)
	unix.Close(p.donefd)
}

func (p *poller) interrupt() {
	unix.Write(p.donefd, []byte{1, 0, 0, 0, 0, 0, 0, 0})
}

func (p *poller) drain() {
	var buf [8]byte
	unix.Read(p.donefd, buf[:])
}

// wait blocks until the fd is readable or the ctx is done.
//
// There is no timeout other than that provided by the ctx.
func (p *poller) wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	stop := context.AfterFunc(ctx, p.interrupt)
	defer stop()
	epollEvents := make([]unix.EpollEvent, 2)
	for {
		n, err := unix.EpollWait(p.epfd, epollEvents[:], -1)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return err
		}
		ready := false
		for i := 0; i < n; i++ {
			if epollEvents[i].Fd == int32(p.donefd) {
				// may be left over from a previous, cancelled, wait
				p.drain()
				if err := ctx.Err(); err != nil {
					return err
				}
				continue
			}
			ready = true
		}
		if ready {
			return nil
		}
	}
}
