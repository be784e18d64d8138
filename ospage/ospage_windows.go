// Copyright 2019 The Allocatorsample Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build windows

package ospage

import (
	"errors"
	"os"
	"sync"
	"syscall"
	"unsafe"
)

type system struct{}

func (system) PageSize() uintptr {
	return uintptr(os.Getpagesize())
}

var (
	handleMu  sync.Mutex
	handleMap = map[uintptr]syscall.Handle{}
)

func (system) Acquire(bytes uintptr) (unsafe.Pointer, error) {
	flProtect := uint32(syscall.PAGE_READWRITE)
	dwDesiredAccess := uint32(syscall.FILE_MAP_WRITE)

	maxSizeHigh := uint32(uint64(bytes) >> 32)
	maxSizeLow := uint32(uint64(bytes) & 0xFFFFFFFF)
	h, err := syscall.CreateFileMapping(syscall.InvalidHandle, nil, flProtect, maxSizeHigh, maxSizeLow, nil)
	if h == 0 {
		return nil, os.NewSyscallError("CreateFileMapping", err)
	}

	addr, err := syscall.MapViewOfFile(h, dwDesiredAccess, 0, 0, bytes)
	if addr == 0 {
		syscall.CloseHandle(h)
		return nil, os.NewSyscallError("MapViewOfFile", err)
	}

	handleMu.Lock()
	handleMap[addr] = h
	handleMu.Unlock()

	return unsafe.Pointer(addr), nil
}

func (system) Release(p unsafe.Pointer, bytes uintptr) error {
	addr := uintptr(p)
	if err := syscall.UnmapViewOfFile(addr); err != nil {
		return err
	}

	handleMu.Lock()
	h, ok := handleMap[addr]
	delete(handleMap, addr)
	handleMu.Unlock()
	if !ok {
		return errors.New("ospage: unknown mapping base address")
	}

	return os.NewSyscallError("CloseHandle", syscall.CloseHandle(h))
}
