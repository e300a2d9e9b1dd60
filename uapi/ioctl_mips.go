// SPDX-FileCopyrightText: 2020 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux && (mips || mipsle || mips64 || mips64le || ppc64 || ppc64le || sparc64)
// +build linux
// +build mips mipsle mips64 mips64le ppc64 ppc64le sparc64

package uapi

// ioctl constants
const (
	iocNRBits    = 8
	iocTypeBits  = 8
	iocSizeBits  = 13
	iocNRShift   = 0
	iocTypeShift = iocNRShift + iocNRBits
	iocSizeShift = iocTypeShift + iocTypeBits
	iocDirShift  = iocSizeShift + iocSizeBits
	iocWrite     = 4
	iocRead      = 2
)
