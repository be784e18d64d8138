// Copyright 2019 The Allocatorsample Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dlist

import (
	"math"
	"testing"

	"github.com/cznic/mathutil"
)

type item struct {
	node  Node[item]
	value int
}

func (i *item) ListLinks() *Node[item] { return &i.node }

func collect(l *List[item, *item]) []int {
	var out []int
	for n := l.First(); n != nil; n = n.node.Next() {
		out = append(out, n.value)
	}
	return out
}

func sameInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestAddFirstAddLast(t *testing.T) {
	var l List[item, *item]
	a, b, c := &item{value: 1}, &item{value: 2}, &item{value: 3}

	l.AddLast(a)
	l.AddLast(b)
	l.AddFirst(c)

	if got, want := collect(&l), []int{3, 1, 2}; !sameInts(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if l.First() != c || l.Last() != b {
		t.Fatalf("first/last wrong")
	}
}

func TestInsertAfterBefore(t *testing.T) {
	var l List[item, *item]
	a, b, c, d := &item{value: 1}, &item{value: 2}, &item{value: 3}, &item{value: 4}

	l.AddFirst(b)
	l.InsertAfter(c, b)
	l.InsertBefore(a, b)
	l.InsertAfter(d, c)

	if got, want := collect(&l), []int{1, 2, 3, 4}; !sameInts(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if l.First() != a || l.Last() != d {
		t.Fatalf("first/last wrong: first=%v last=%v", l.First(), l.Last())
	}
}

func TestRemove(t *testing.T) {
	var l List[item, *item]
	a, b, c := &item{value: 1}, &item{value: 2}, &item{value: 3}
	l.AddLast(a)
	l.AddLast(b)
	l.AddLast(c)

	l.Remove(b)
	if got, want := collect(&l), []int{1, 3}; !sameInts(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if b.node.Prev() != nil || b.node.Next() != nil {
		t.Fatalf("removed node must be detached")
	}

	l.Remove(a)
	l.Remove(c)
	if !l.Empty() {
		t.Fatalf("expected empty list")
	}
}

func TestSwap(t *testing.T) {
	var l1, l2 List[item, *item]
	a, b := &item{value: 1}, &item{value: 2}
	l1.AddLast(a)
	l2.AddLast(b)

	l1.Swap(&l2)

	if got, want := collect(&l1), []int{2}; !sameInts(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if got, want := collect(&l2), []int{1}; !sameInts(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestRandomAddRemove(t *testing.T) {
	rng, err := mathutil.NewFC32(0, math.MaxInt32, true)
	if err != nil {
		t.Fatal(err)
	}
	rng.Seed(42)

	var l List[item, *item]
	var live []*item
	const n = 2000
	for i := 0; i < n; i++ {
		it := &item{value: i}
		switch rng.Next() % 3 {
		case 0:
			l.AddFirst(it)
			live = append([]*item{it}, live...)
		case 1:
			l.AddLast(it)
			live = append(live, it)
		default:
			if len(live) == 0 {
				l.AddLast(it)
				live = append(live, it)
				continue
			}
			pivot := live[rng.Next()%len(live)]
			l.InsertAfter(it, pivot)
			for j, v := range live {
				if v == pivot {
					tail := append([]*item{it}, live[j+1:]...)
					live = append(live[:j+1:j+1], tail...)
					break
				}
			}
		}
	}

	for len(live) > 0 {
		idx := int(rng.Next()) % len(live)
		victim := live[idx]
		l.Remove(victim)
		live = append(live[:idx], live[idx+1:]...)
	}
	if !l.Empty() {
		t.Fatalf("expected empty list after removing every node")
	}
}
