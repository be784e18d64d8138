// Copyright 2019 The Allocatorsample Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package freelist

import (
	"unsafe"

	"testing"
)

func TestMallocFreeExhaustsAndRecycles(t *testing.T) {
	const blockSize = 16
	const blockCount = 8
	buf := make([]byte, blockSize*blockCount+blockSize) // slack for alignment

	beg := unsafe.Pointer(&buf[0])
	end := unsafe.Pointer(uintptr(beg) + uintptr(len(buf)))
	fl := New(beg, end, blockSize)

	var got []unsafe.Pointer
	for {
		p := fl.Malloc()
		if p == nil {
			break
		}
		got = append(got, p)
	}
	if len(got) == 0 {
		t.Fatalf("expected at least one block")
	}
	if !fl.Empty() {
		t.Fatalf("expected free list to be empty after exhausting it")
	}

	for _, p := range got {
		fl.Free(p)
	}
	if fl.Empty() {
		t.Fatalf("expected free list to be non-empty after freeing")
	}

	recount := 0
	for fl.Malloc() != nil {
		recount++
	}
	if recount != len(got) {
		t.Fatalf("got %d blocks after recycle, want %d", recount, len(got))
	}
}

func TestAdjustBlockSize(t *testing.T) {
	if got := AdjustBlockSize(1); got < MinBlockSize {
		t.Fatalf("AdjustBlockSize(1) = %d, want >= %d", got, MinBlockSize)
	}
	if got := AdjustBlockSize(MinBlockSize); got != MinBlockSize {
		t.Fatalf("AdjustBlockSize(MinBlockSize) = %d, want %d", got, MinBlockSize)
	}
}

func TestEmptyRangeYieldsNoBlocks(t *testing.T) {
	buf := make([]byte, 4)
	fl := New(unsafe.Pointer(&buf[0]), unsafe.Pointer(&buf[0]), 16)
	if !fl.Empty() {
		t.Fatalf("expected empty free list for a too-small range")
	}
}
