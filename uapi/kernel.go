// SPDX-FileCopyrightText: 2020 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package uapi

import (
	"fmt"
	"regexp"
	"strconv"

	"golang.org/x/sys/unix"
)

// Semver is a version number, most significant part first.
type Semver []byte

func (v Semver) String() string {
	if len(v) == 0 {
		return ""
	}
	vstr := strconv.Itoa(int(v[0]))
	for i := 1; i < len(v); i++ {
		vstr += "." + strconv.Itoa(int(v[i]))
	}
	return vstr
}

// Compare returns -1, 0 or 1 as v is less than, equal to, or greater than w.
//
// Missing trailing parts are treated as zero.
func (v Semver) Compare(w Semver) int {
	n := len(v)
	if len(w) > n {
		n = len(w)
	}
	for i := 0; i < n; i++ {
		var a, b byte
		if i < len(v) {
			a = v[i]
		}
		if i < len(w) {
			b = w[i]
		}
		if a < b {
			return -1
		}
		if a > b {
			return 1
		}
	}
	return 0
}

var (
	// V2Kernel is the first kernel supporting ABI v2.
	V2Kernel = Semver{5, 10}

	// InfoWatchKernel is the first kernel supporting line info watches.
	InfoWatchKernel = Semver{5, 7}

	releaseRegex = regexp.MustCompile(`^(\d+)\.(\d+)(?:\.(\d+))?`)
)

// KernelVersion returns the running kernel version.
func KernelVersion() (Semver, error) {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return nil, err
	}
	return ParseRelease(BytesToString(uts.Release[:]))
}

// ParseRelease extracts the version from a kernel release string, such as
// "6.1.0-rpi4-rpi-v8".
func ParseRelease(release string) (Semver, error) {
	vers := releaseRegex.FindStringSubmatch(release)
	if vers == nil {
		return nil, fmt.Errorf("can't parse kernel release: %q", release)
	}
	v := Semver{}
	for _, vf := range vers[1:] {
		if vf == "" {
			vf = "0"
		}
		n, err := strconv.ParseUint(vf, 10, 8)
		if err != nil {
			n = 255
		}
		v = append(v, byte(n))
	}
	return v, nil
}

// ErrorBadVersion indicates the kernel version is insufficient.
type ErrorBadVersion struct {
	Need Semver
	Have Semver
}

func (e ErrorBadVersion) Error() string {
	return fmt.Sprintf("require kernel %s or later, but running %s", e.Need, e.Have)
}

// CheckKernelVersion returns an error if the kernel version is less than the
// min.
func CheckKernelVersion(min Semver) error {
	kv, err := KernelVersion()
	if err != nil {
		return err
	}
	if kv.Compare(min) < 0 {
		return ErrorBadVersion{Need: min, Have: kv}
	}
	return nil
}
