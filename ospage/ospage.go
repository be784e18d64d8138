// Copyright 2019 The Allocatorsample Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ospage is the two-call interface the segregated allocator uses
// to obtain and release pages of platform page size: Acquire and Release.
// It generalizes cznic/memory's own mmap_unix.go/mmap_windows.go split
// behind a Pager interface so segalloc.Allocator can be driven by a fake
// Pager in tests.
package ospage

import "unsafe"

// Pager acquires and releases whole pages of platform page size from the
// operating system. A successful Acquire returns zero-initialized,
// page-aligned, readable/writable private memory. Release must succeed;
// a failing Release is a fatal, non-recoverable condition.
type Pager interface {
	// PageSize returns the platform page size. It is fixed for the
	// process lifetime and is always a power of two.
	PageSize() uintptr
	// Acquire returns a pointer to a fresh, page-aligned mapping of at
	// least bytes length, or an error on failure.
	Acquire(bytes uintptr) (unsafe.Pointer, error)
	// Release returns a mapping previously obtained from Acquire with
	// the same bytes length back to the operating system.
	Release(p unsafe.Pointer, bytes uintptr) error
}

// System is the default Pager, backed directly by the host OS.
var System Pager = system{}
