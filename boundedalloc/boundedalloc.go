// Copyright 2019 The Allocatorsample Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package boundedalloc wraps any allocator.Interface with a canary tag
// trailing every allocation, so an overrun of the user's requested size
// is caught on Free instead of silently corrupting a neighboring block.
// It is the Go port of original_source/memoryallocator/bounded_allocator.h:
// the template's Header{userSize, offset} plus trailing Tag word becomes
// a fixed Go struct and a uint32 field on Allocator.
package boundedalloc

import (
	"encoding/binary"
	"unsafe"

	"github.com/alexshen/allocatorsample/allocator"
	"github.com/alexshen/allocatorsample/internal/alignment"
)

// DefaultTag is the four-byte canary value written after every payload
// when no tag is configured explicitly, matching the original source's
// 0xDEADBEAF default.
const DefaultTag uint32 = 0xDEADBEAF

const tagSize = unsafe.Sizeof(uint32(0))

// header precedes every payload this allocator hands out.
type header struct {
	userSize uintptr
	offset   uintptr
}

const headerSize = unsafe.Sizeof(header{})
const headerAlign = unsafe.Alignof(header{})

// Allocator adds a trailing canary tag to every allocation made through
// an underlying allocator.Interface, validated on Free. The zero value
// is not ready to use; construct with New.
type Allocator struct {
	inner allocator.Interface
	tag   uint32
}

// New wraps inner, writing tag after every payload. Pass no tag to use
// DefaultTag.
func New(inner allocator.Interface, tag ...uint32) *Allocator {
	t := DefaultTag
	if len(tag) > 0 {
		t = tag[0]
	}
	return &Allocator{inner: inner, tag: t}
}

// Malloc returns size bytes aligned to alignmentArgs[0] (default
// alignment.MaxAlign), preceded by a header recording size and followed
// by the configured canary tag.
func (a *Allocator) Malloc(size uintptr, alignmentArgs ...uintptr) (unsafe.Pointer, error) {
	if size == 0 {
		panic("boundedalloc: size must be > 0")
	}
	align := alignment.MaxAlign
	if len(alignmentArgs) > 0 {
		align = alignmentArgs[0]
	}
	if align < headerAlign {
		align = headerAlign
	}

	total := alignment.RoundUpPow2(headerSize, align) + size + tagSize
	raw, err := a.inner.Malloc(total, align)
	if err != nil {
		return nil, err
	}

	payload := alignment.Add(raw, alignment.RoundUpPow2(headerSize, align))
	h := (*header)(alignment.Back(payload, headerSize))
	*h = header{userSize: size, offset: alignment.Sub(payload, raw)}

	writeTag(alignment.Add(payload, size), a.tag)
	return payload, nil
}

// Free validates the trailing canary and releases the block back to the
// underlying allocator. It panics via allocator.Fail if the canary has
// been overwritten, the sign of a buffer overrun. Free(nil) is a no-op.
func (a *Allocator) Free(p unsafe.Pointer) error {
	if p == nil {
		return nil
	}

	h := (*header)(alignment.Back(p, headerSize))
	got := readTag(alignment.Add(p, h.userSize))
	if allocator.DebugChecks && got != a.tag {
		allocator.Fail("Free", "buffer overrun detected: canary tag corrupted")
	}

	raw := alignment.Back(p, h.offset)
	return a.inner.Free(raw)
}

func writeTag(p unsafe.Pointer, tag uint32) {
	binary.LittleEndian.PutUint32(unsafe.Slice((*byte)(p), tagSize), tag)
}

func readTag(p unsafe.Pointer) uint32 {
	return binary.LittleEndian.Uint32(unsafe.Slice((*byte)(p), tagSize))
}
