// Copyright 2019 The Allocatorsample Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package largealloc implements the coalescing large-block allocator: it
// manages one contiguous, caller-owned byte region with a best-fit,
// size-indexed red-black tree of free blocks, splitting on allocation and
// coalescing adjacent free blocks on release. It is the Go port of
// original_source/memoryallocator/large_allocator.{h,cpp}, generalized
// from a single C++ translation unit into the block-header-over-raw-bytes
// technique cznic/memory uses for its own page headers.
package largealloc

import (
	"unsafe"

	"github.com/alexshen/allocatorsample/allocator"
	"github.com/alexshen/allocatorsample/dlist"
	"github.com/alexshen/allocatorsample/internal/alignment"
	"github.com/alexshen/allocatorsample/rbtree"
)

// block is the fixed-layout header embedded at the start of every block,
// free or allocated, inside the managed region. size/free are kept as
// separate fields (the original source packs free into the low bit of
// size) since the split is immaterial in Go and separate fields read more
// naturally; the documented invariant ("size in all bits but the lowest,
// free in the lowest") is preserved in spirit via blockHeaderSize/
// totalSize below rather than in the bit layout itself.
type block struct {
	listNode dlist.Node[block]
	treeNode rbtree.Node[block]
	size     uintptr
	free     bool
}

func (b *block) ListLinks() *dlist.Node[block] { return &b.listNode }
func (b *block) TreeLinks() *rbtree.Node[block] { return &b.treeNode }

// blockHeaderSize is the size of the header physically occupying the
// front of every block in the managed region.
const blockHeaderSize = unsafe.Sizeof(block{})

// blockAlign is the alignment every block header (and therefore every
// split point) must satisfy.
const blockAlign = unsafe.Alignof(block{})

func (b *block) totalSize() uintptr {
	return blockHeaderSize + b.size
}

func blockLess(a, b *block) bool { return a.size < b.size }

// Allocator manages one contiguous byte region with best-fit allocation,
// splitting, and two-sided coalescing. The zero value is not ready to
// use; construct with New. Allocator values must not be copied: the
// intrusive list and tree inside hold pointers into the managed region
// that a shallow copy would alias incorrectly.
type Allocator struct {
	region       []byte
	blocks       dlist.List[block, *block]
	freeTree     *rbtree.Tree[block, *block]
	minBlockSize uintptr
}

// New constructs an Allocator over region, reserving minBlockSize (after
// rounding up to the block header's alignment) as the smallest payload a
// split is allowed to carve off. The caller must keep region alive for
// at least as long as the Allocator; New retains a reference to it so the
// Go garbage collector cannot reclaim it out from under in-flight
// pointers derived from Malloc.
func New(region []byte, minBlockSize uintptr) *Allocator {
	a := &Allocator{
		region:       region,
		freeTree:     rbtree.New[block, *block](blockLess),
		minBlockSize: alignment.RoundUpPow2(minBlockSize, blockAlign),
	}
	a.init()
	return a
}

func (a *Allocator) regionPtr() unsafe.Pointer {
	if len(a.region) == 0 {
		return nil
	}
	return unsafe.Pointer(&a.region[0])
}

func (a *Allocator) init() {
	beg := alignment.AlignUp(a.regionPtr(), blockAlign)
	end := alignment.Add(a.regionPtr(), uintptr(len(a.region)))
	if alignment.Sub(end, beg) < blockHeaderSize {
		return
	}

	b := (*block)(beg)
	*b = block{free: true}
	b.size = alignment.Sub(end, beg) - blockHeaderSize

	a.freeTree.Insert(b)
	a.blocks.AddFirst(b)
}

// Malloc returns size bytes aligned to alignment (which must be a valid
// power-of-two alignment no larger than 256, the most the one-byte offset
// written before the returned pointer can encode; it defaults to
// alignment.MaxAlign), or
// (nil, allocator.ErrOOM) if no free block is large enough.
//
// The large allocator reserves alignment extra bytes on top of size so
// that a standalone call (with no alignalloc wrapper layered above it)
// can still honor an alignment request; this means the reservation is
// paid twice when an aligning wrapper is also used, a tradeoff accepted
// so Allocator.Malloc(size, alignment) is directly usable on its own.
func (a *Allocator) Malloc(size uintptr, alignmentArgs ...uintptr) (unsafe.Pointer, error) {
	if size == 0 {
		panic("largealloc: size must be > 0")
	}
	align := alignment.MaxAlign
	if len(alignmentArgs) > 0 {
		align = alignmentArgs[0]
	}
	if !alignment.IsValidAlignment(align) || align > 256 {
		panic("largealloc: invalid alignment")
	}
	if align < blockAlign {
		align = blockAlign
	}

	payload := alignment.RoundUpPow2(size, blockAlign)
	target := payload + align

	key := &block{size: target}
	it := a.freeTree.LowerBound(key)
	if it.Done() {
		return nil, allocator.ErrOOM
	}

	found := it.Node()
	a.freeTree.Remove(found)

	oldSize := found.size
	if oldSize >= target+blockHeaderSize+a.minBlockSize {
		found.size = target
		found.free = false

		next := (*block)(alignment.Add(unsafe.Pointer(found), found.totalSize()))
		*next = block{free: true}
		next.size = oldSize - target - blockHeaderSize

		a.blocks.InsertAfter(next, found)
		a.freeTree.Insert(next)
	} else {
		found.free = false
	}

	payloadBase := alignment.Add(unsafe.Pointer(found), blockHeaderSize)
	return alignUserPointer(payloadBase, align), nil
}

// Free releases a pointer previously returned by Malloc on this
// Allocator. Free(nil) is a no-op.
func (a *Allocator) Free(p unsafe.Pointer) error {
	if p == nil {
		return nil
	}

	b := blockFromUserPointer(p)
	if allocator.DebugChecks && b.free {
		allocator.Fail("Free", "double free detected")
	}
	b.free = true

	if prev := b.listNode.Prev(); prev != nil && prev.free {
		a.freeTree.Remove(prev)
		a.blocks.Remove(b)
		prev.size += b.totalSize()
		b = prev
	}

	if next := b.listNode.Next(); next != nil && next.free {
		a.freeTree.Remove(next)
		a.blocks.Remove(next)
		b.size += next.totalSize()
	}

	a.freeTree.Insert(b)
	return nil
}

// alignUserPointer adjusts base (the first byte of payload a block
// offers) to a pointer that is a multiple of align, writing the
// one-byte offset immediately before it so Free can recover base. This
// is the same one-byte-offset scheme as package alignalloc, inlined here
// because the large allocator must honor alignment without depending on
// that wrapper (see the Malloc doc comment above).
func alignUserPointer(base unsafe.Pointer, align uintptr) unsafe.Pointer {
	u := alignment.AlignUp(alignment.Add(base, 1), align)
	off := alignment.Sub(u, base)
	offByte := (*byte)(alignment.Back(u, 1))
	if off == 256 {
		*offByte = 0
	} else {
		*offByte = byte(off)
	}
	return u
}

func blockFromUserPointer(u unsafe.Pointer) *block {
	off := uintptr(*(*byte)(alignment.Back(u, 1)))
	if off == 0 {
		off = 256
	}
	base := alignment.Back(u, off)
	return (*block)(alignment.Back(base, blockHeaderSize))
}

// Validate walks the managed region and panics (via allocator.Fail) if
// any of the following do not hold: block-list contiguity, free bits
// matching tree membership, no two adjacent free blocks, and a
// block-list total size equal to the aligned region length. It is a
// debug-only structural audit that tests call explicitly; Malloc and Free
// do not call it. It does nothing when allocator.DebugChecks is false.
func (a *Allocator) Validate() {
	if !allocator.DebugChecks {
		return
	}

	var prevFree bool
	var prev *block
	var total uintptr
	for b := a.blocks.First(); b != nil; b = b.listNode.Next() {
		if prev != nil {
			expected := alignment.Add(unsafe.Pointer(prev), prev.totalSize())
			if unsafe.Pointer(b) != expected {
				allocator.Fail("Validate", "block list is not contiguous")
			}
		}
		if prevFree && b.free {
			allocator.Fail("Validate", "two adjacent free blocks")
		}
		total += b.totalSize()
		prevFree = b.free
		prev = b
	}

	inTree := map[*block]bool{}
	for it := a.freeTree.Begin(); !it.Done(); it = it.Next() {
		inTree[it.Node()] = true
	}
	for b := a.blocks.First(); b != nil; b = b.listNode.Next() {
		if b.free != inTree[b] {
			allocator.Fail("Validate", "free-tree membership does not match free bit")
		}
	}

	beg := alignment.AlignUp(a.regionPtr(), blockAlign)
	end := alignment.Add(a.regionPtr(), uintptr(len(a.region)))
	if first := a.blocks.First(); first != nil && total != alignment.Sub(end, beg) {
		allocator.Fail("Validate", "block list does not cover the aligned region")
	}
}
