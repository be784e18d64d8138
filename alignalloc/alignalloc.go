// Copyright 2019 The Allocatorsample Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package alignalloc wraps any allocator.Interface to serve allocations
// at an alignment stronger than the wrapped allocator natively provides.
// It is the Go port of
// original_source/memoryallocator/aligned_allocator.h: one byte
// immediately before the returned pointer records how far back the
// unaligned block actually begins, so Free can recover it.
package alignalloc

import (
	"unsafe"

	"github.com/alexshen/allocatorsample/allocator"
	"github.com/alexshen/allocatorsample/internal/alignment"
)

// Allocator adds a configurable alignment guarantee on top of an
// underlying allocator.Interface. The zero value is not ready to use;
// construct with New.
type Allocator struct {
	inner allocator.Interface
}

// New wraps inner so that every Malloc is aligned to at least
// alignment.MaxAlign by default, or to the alignment passed explicitly
// to Malloc.
func New(inner allocator.Interface) *Allocator {
	return &Allocator{inner: inner}
}

// Malloc returns size bytes aligned to alignmentArgs[0] (default
// alignment.MaxAlign), which must be a power of two no larger than 256 —
// the single recovery byte written before the returned pointer can only
// encode offsets up to 256 (0 is reserved to mean "256").
func (a *Allocator) Malloc(size uintptr, alignmentArgs ...uintptr) (unsafe.Pointer, error) {
	if size == 0 {
		panic("alignalloc: size must be > 0")
	}
	align := alignment.MaxAlign
	if len(alignmentArgs) > 0 {
		align = alignmentArgs[0]
	}
	if !alignment.IsValidAlignment(align) || align > 256 {
		panic("alignalloc: invalid alignment")
	}

	raw, err := a.inner.Malloc(size + align)
	if err != nil {
		return nil, err
	}

	u := alignment.AlignUp(alignment.Add(raw, 1), align)
	off := alignment.Sub(u, raw)
	offByte := (*byte)(alignment.Back(u, 1))
	if off == 256 {
		*offByte = 0
	} else {
		*offByte = byte(off)
	}
	return u, nil
}

// Free releases a pointer previously returned by Malloc on this
// Allocator. Free(nil) is a no-op.
func (a *Allocator) Free(p unsafe.Pointer) error {
	if p == nil {
		return nil
	}
	off := uintptr(*(*byte)(alignment.Back(p, 1)))
	if off == 0 {
		off = 256
	}
	return a.inner.Free(alignment.Back(p, off))
}
