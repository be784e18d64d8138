// Copyright 2019 The Allocatorsample Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build darwin || dragonfly || freebsd || linux || openbsd || netbsd

package ospage

import (
	"os"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/alexshen/allocatorsample/internal/oserrno"
)

type system struct{}

func (system) PageSize() uintptr {
	return uintptr(os.Getpagesize())
}

func (system) Acquire(bytes uintptr) (unsafe.Pointer, error) {
	b, err := unix.Mmap(-1, 0, int(bytes), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, oserrno.Wrap("mmap", err)
	}
	return unsafe.Pointer(&b[0]), nil
}

func (system) Release(p unsafe.Pointer, bytes uintptr) error {
	b := unsafe.Slice((*byte)(p), int(bytes))
	return oserrno.Wrap("munmap", unix.Munmap(b))
}
