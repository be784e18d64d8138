// Copyright 2019 The Allocatorsample Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package segalloc

import (
	"testing"
	"unsafe"

	"github.com/alexshen/allocatorsample/allocator"
	"github.com/alexshen/allocatorsample/ospage"
)

func TestMallocFreeRoundTrip(t *testing.T) {
	a := New(ospage.System, 8, 16, 16)
	defer a.Close()

	p, err := a.Malloc(20)
	if err != nil {
		t.Fatalf("Malloc: %v", err)
	}
	if err := a.Free(p); err != nil {
		t.Fatalf("Free: %v", err)
	}
}

func TestMallocBeyondMaxBinReturnsOOM(t *testing.T) {
	a := New(ospage.System, 4, 16, 16)
	defer a.Close()

	if _, err := a.Malloc(a.MaxBinSize() + 1); err != allocator.ErrOOM {
		t.Fatalf("Malloc(too big) = %v, want ErrOOM", err)
	}
}

func TestMallocFillsPageThenAllocatesAnother(t *testing.T) {
	a := New(ospage.System, 4, 16, 16)
	defer a.Close()

	var got []unsafe.Pointer
	pageSize := ospage.System.PageSize()
	// Request enough 16-byte slots to span well past a single page.
	n := int(pageSize/16) * 2
	for i := 0; i < n; i++ {
		p, err := a.Malloc(16)
		if err != nil {
			t.Fatalf("Malloc #%d: %v", i, err)
		}
		got = append(got, p)
	}
	for _, p := range got {
		a.Free(p)
	}
}

func TestFreeingFullNonActivePageDoesNotDisplaceActivePage(t *testing.T) {
	a := New(ospage.System, 4, 16, 16)
	defer a.Close()

	bin, ok := a.binFor(16)
	if !ok {
		t.Fatalf("binFor(16) failed")
	}
	list := &a.bins[bin]

	// Fill the first page completely; the allocation that spills onto a
	// freshly acquired second page is recognizable because it is the one
	// after which list.First() changes.
	p0, err := a.Malloc(16)
	if err != nil {
		t.Fatalf("Malloc: %v", err)
	}
	firstPagePtrs := []unsafe.Pointer{p0}
	firstPage := list.First()
	var secondPage *page
	for {
		p, err := a.Malloc(16)
		if err != nil {
			t.Fatalf("Malloc: %v", err)
		}
		if head := list.First(); head != firstPage {
			secondPage = head
			break
		}
		firstPagePtrs = append(firstPagePtrs, p)
	}
	if len(firstPagePtrs) == 0 {
		t.Fatalf("expected at least one slot in the first page")
	}
	if secondPage == nil || list.First() != secondPage {
		t.Fatalf("expected the freshly acquired page to be the active (head) page")
	}

	// The first page is now completely full and not the active page.
	// Freeing one of its slots must not displace the active page from
	// the head of the list.
	a.Free(firstPagePtrs[0])
	if list.First() != secondPage {
		t.Fatalf("freeing a slot in a non-active page displaced the active page from the head")
	}
}

func TestFreedSlotIsRecycled(t *testing.T) {
	a := New(ospage.System, 4, 16, 16)
	defer a.Close()

	p1, _ := a.Malloc(16)
	a.Free(p1)
	p2, _ := a.Malloc(16)
	if p1 != p2 {
		t.Fatalf("expected freed slot to be recycled, got distinct pointers %p %p", p1, p2)
	}
}
