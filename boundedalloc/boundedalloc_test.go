// Copyright 2019 The Allocatorsample Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package boundedalloc

import (
	"testing"
	"unsafe"

	"github.com/alexshen/allocatorsample/largealloc"
)

func TestMallocFreeRoundTrip(t *testing.T) {
	inner := largealloc.New(make([]byte, 4096), 16)
	a := New(inner)

	p, err := a.Malloc(40)
	if err != nil {
		t.Fatalf("Malloc: %v", err)
	}
	if err := a.Free(p); err != nil {
		t.Fatalf("Free: %v", err)
	}
}

func TestOverrunIsDetectedOnFree(t *testing.T) {
	inner := largealloc.New(make([]byte, 4096), 16)
	a := New(inner)

	p, err := a.Malloc(40)
	if err != nil {
		t.Fatalf("Malloc: %v", err)
	}

	// Corrupt one byte of the trailing canary.
	tag := (*byte)(unsafe.Pointer(uintptr(p) + 40))
	*tag ^= 0xFF

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on canary corruption")
		}
	}()
	a.Free(p)
}

func TestCustomTag(t *testing.T) {
	inner := largealloc.New(make([]byte, 4096), 16)
	a := New(inner, 0x12345678)

	p, err := a.Malloc(8)
	if err != nil {
		t.Fatalf("Malloc: %v", err)
	}
	if err := a.Free(p); err != nil {
		t.Fatalf("Free: %v", err)
	}
}
