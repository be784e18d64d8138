// Copyright 2019 The Allocatorsample Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package oserrno turns a raw OS page acquisition failure into an error
// that names the syscall that failed, the way cznic/memory's own
// mmap_windows.go wraps syscall failures with os.NewSyscallError rather
// than surfacing a bare errno.
package oserrno

import "fmt"

// Wrap annotates err (typically a syscall.Errno from golang.org/x/sys/unix
// or the raw syscall package) with the name of the call that produced it.
// It returns nil if err is nil.
func Wrap(call string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("oserrno: %s: %w", call, err)
}
