// Copyright 2019 The Allocatorsample Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package segalloc implements the segregated (size-class) allocator: it
// obtains whole pages from an ospage.Pager and sub-allocates each page
// into equally sized slots via a freelist.FreeList, one active page per
// bin. It is the Go port of
// original_source/memoryallocator/segregated_allocator.h, generalized
// from the original's compile-time template<std::size_t MaxBins> to a
// runtime bin count — Go has no non-type generic parameters — and from
// cznic/memory's own power-of-two size classing (its lists[log]/
// pages[log]) to a linear minBinSize+i*sizeStep classing.
package segalloc

import (
	"unsafe"

	"github.com/alexshen/allocatorsample/allocator"
	"github.com/alexshen/allocatorsample/dlist"
	"github.com/alexshen/allocatorsample/freelist"
	"github.com/alexshen/allocatorsample/internal/alignment"
	"github.com/alexshen/allocatorsample/ospage"
)

// page is the header occupying the first bytes of every OS page this
// allocator owns. The remainder of the page, from pageHeaderSize to the
// end, is carved into equally sized slots by freeList.
type page struct {
	listNode dlist.Node[page]
	freeList freelist.FreeList
	bin      int
}

func (p *page) ListLinks() *dlist.Node[page] { return &p.listNode }

var pageHeaderSize = alignment.RoundUpPow2(unsafe.Sizeof(page{}), unsafe.Alignof(page{}))

// Allocator is a fixed collection of per-bin page lists, each page
// carved into slots sized for that bin. The zero value is not ready to
// use; construct with New. Allocator values must not be copied: pages
// hold a bin index back-reference and participate in a specific bin's
// list, which a shallow copy would corrupt (mirroring the original
// source, which also deletes its copy and move constructors).
type Allocator struct {
	pager      ospage.Pager
	bins       []dlist.List[page, *page]
	minBinSize uintptr
	sizeStep   uintptr
}

// New constructs an Allocator with maxBins bins, where bin i serves slot
// sizes minBinSize+i*sizeStep (both adjusted up to the free list's block
// alignment via freelist.AdjustBlockSize, exactly as the original
// source's FreeList::adjustBlockSize does for its own minBinSize/
// sizeStep fields).
func New(pager ospage.Pager, maxBins int, minBinSize, sizeStep uintptr) *Allocator {
	if maxBins <= 0 {
		panic("segalloc: maxBins must be > 0")
	}
	if minBinSize == 0 || sizeStep == 0 {
		panic("segalloc: minBinSize and sizeStep must be > 0")
	}
	return &Allocator{
		pager:      pager,
		bins:       make([]dlist.List[page, *page], maxBins),
		minBinSize: freelist.AdjustBlockSize(minBinSize),
		sizeStep:   freelist.AdjustBlockSize(sizeStep),
	}
}

// MaxBinSize returns the largest slot size this allocator can serve.
func (a *Allocator) MaxBinSize() uintptr {
	return a.minBinSize + a.sizeStep*uintptr(len(a.bins)-1)
}

func (a *Allocator) binFor(size uintptr) (int, bool) {
	if size < a.minBinSize {
		size = a.minBinSize
	}
	bin := (size - a.minBinSize + a.sizeStep - 1) / a.sizeStep
	if bin >= uintptr(len(a.bins)) {
		return 0, false
	}
	return int(bin), true
}

// Malloc returns a slot of at least size bytes from the smallest bin that
// fits it, or (nil, allocator.ErrOOM) if size exceeds MaxBinSize or the
// OS page interface fails.
func (a *Allocator) Malloc(size uintptr, _ ...uintptr) (unsafe.Pointer, error) {
	if size == 0 {
		panic("segalloc: size must be > 0")
	}
	bin, ok := a.binFor(size)
	if !ok {
		return nil, allocator.ErrOOM
	}

	list := &a.bins[bin]
	active := list.First()
	if active == nil || active.freeList.Empty() {
		p, err := a.newPage(bin)
		if err != nil {
			return nil, err
		}
		list.AddFirst(p)
		active = p
	}
	return active.freeList.Malloc(), nil
}

func (a *Allocator) newPage(bin int) (*page, error) {
	pageSize := a.pager.PageSize()
	raw, err := a.pager.Acquire(pageSize)
	if err != nil {
		return nil, allocator.ErrOOM
	}

	p := (*page)(raw)
	*p = page{bin: bin}
	slotSize := a.minBinSize + uintptr(bin)*a.sizeStep
	p.freeList = freelist.New(alignment.Add(raw, pageHeaderSize), alignment.Add(raw, pageSize), slotSize)
	return p, nil
}

// Free returns p, which must have been previously returned by Malloc on
// this Allocator, to its owning page's free list. Free(nil) is a no-op.
func (a *Allocator) Free(p unsafe.Pointer) error {
	if p == nil {
		return nil
	}

	pg := (*page)(alignment.MaskDown(p, a.pager.PageSize()))
	wasEmpty := pg.freeList.Empty()
	pg.freeList.Free(p)

	list := &a.bins[pg.bin]
	if wasEmpty && pg != list.First() {
		list.Remove(pg)
		if head := list.First(); head != nil {
			list.InsertAfter(pg, head)
		} else {
			list.AddFirst(pg)
		}
	}
	return nil
}

// Close returns every page this Allocator owns to its Pager. The
// Allocator must not be used afterward.
func (a *Allocator) Close() error {
	pageSize := a.pager.PageSize()
	for i := range a.bins {
		list := &a.bins[i]
		for cur := list.First(); cur != nil; {
			next := cur.listNode.Next()
			if err := a.pager.Release(unsafe.Pointer(cur), pageSize); err != nil {
				return err
			}
			cur = next
		}
		*list = dlist.List[page, *page]{}
	}
	return nil
}
