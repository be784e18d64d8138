// Copyright 2019 The Allocatorsample Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package freelist threads a singly linked free list through equally
// sized blocks in a byte range. It is the Go port of
// original_source/memoryallocator/free_list.h and backs both the
// segregated allocator's per-page slot management and standalone use as
// a fixed-size-block pool.
package freelist

import (
	"unsafe"

	"github.com/alexshen/allocatorsample/internal/alignment"
)

type node struct {
	next *node
}

// blockAlign is the alignment (and minimum block size) imposed by the
// node header threaded through every free slot, analogous to
// FreeList::minBlockSize in the original source.
const blockAlign = unsafe.Sizeof(node{})

// MinBlockSize is the smallest block size a FreeList can manage: a single
// node pointer's worth of bytes.
const MinBlockSize = uintptr(blockAlign)

// FreeList is a singly linked chain of equally sized, uninitialized
// blocks carved out of a caller-owned byte range. The zero value is an
// empty list; construct a populated one with New.
type FreeList struct {
	head *node
}

// New builds a FreeList over [beg, end), threading as many blocks of
// (adjusted) size size as fit. beg is rounded up to the free-list's
// block alignment and size is rounded up to a multiple of it before the
// block count is computed.
func New(beg, end unsafe.Pointer, size uintptr) FreeList {
	var fl FreeList
	fl.init(beg, end, size)
	return fl
}

func (f *FreeList) init(beg, end unsafe.Pointer, size uintptr) {
	if uintptr(beg) > uintptr(end) {
		panic("freelist: beg must not be after end")
	}
	if size < MinBlockSize {
		panic("freelist: size must be at least MinBlockSize")
	}

	beg = alignment.AlignUp(beg, uintptr(blockAlign))
	size = alignment.RoundUpPow2(size, uintptr(blockAlign))

	if uintptr(beg) > uintptr(end) {
		return
	}
	n := (uintptr(end) - uintptr(beg)) / size
	if n == 0 {
		return
	}

	cur := (*node)(beg)
	f.head = cur
	for i := uintptr(0); i+1 < n; i++ {
		next := (*node)(alignment.Add(unsafe.Pointer(cur), size))
		cur.next = next
		cur = next
	}
	cur.next = nil
}

// Empty reports whether the free list has no blocks left.
func (f *FreeList) Empty() bool { return f.head == nil }

// Malloc pops and returns the head block, or nil if the list is empty.
// The returned memory is uninitialized.
func (f *FreeList) Malloc() unsafe.Pointer {
	if f.head == nil {
		return nil
	}
	n := f.head
	f.head = n.next
	return unsafe.Pointer(n)
}

// Free pushes p, which must have been previously returned by Malloc on
// this same FreeList, back onto the head of the list. No size validation
// is performed.
func (f *FreeList) Free(p unsafe.Pointer) {
	if p == nil {
		return
	}
	n := (*node)(p)
	n.next = f.head
	f.head = n
}

// AdjustBlockSize rounds n up to a multiple of the free-list block
// alignment, the size a caller must reserve per block to host the
// intrusive node header.
func AdjustBlockSize(n uintptr) uintptr {
	return alignment.RoundUpPow2(n, uintptr(blockAlign))
}
