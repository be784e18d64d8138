// Copyright 2019 The Allocatorsample Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rbtree

import (
	"math"
	"sort"
	"testing"

	"github.com/cznic/mathutil"
)

type intNode struct {
	node Node[intNode]
	key  int
}

func (n *intNode) TreeLinks() *Node[intNode] { return &n.node }

func intLess(a, b *intNode) bool { return a.key < b.key }

func sortedKeys(tr *Tree[intNode, *intNode]) []int {
	var out []int
	for it := tr.Begin(); !it.Done(); it = it.Next() {
		out = append(out, it.Node().key)
	}
	return out
}

func TestInsertOrder(t *testing.T) {
	tr := New[intNode, *intNode](intLess)
	values := []int{5, 3, 8, 1, 4, 7, 9, 2, 6, 0}
	for _, v := range values {
		tr.Insert(&intNode{key: v})
	}
	tr.Validate()

	got := sortedKeys(tr)
	want := append([]int(nil), values...)
	sort.Ints(want)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestLowerBoundFind(t *testing.T) {
	tr := New[intNode, *intNode](intLess)
	for _, v := range []int{10, 20, 30, 40} {
		tr.Insert(&intNode{key: v})
	}

	it := tr.LowerBound(&intNode{key: 25})
	if it.Done() || it.Node().key != 30 {
		t.Fatalf("LowerBound(25) = %v, want 30", it.Node())
	}

	it = tr.LowerBound(&intNode{key: 100})
	if !it.Done() {
		t.Fatalf("LowerBound(100) should be End()")
	}

	it = tr.Find(&intNode{key: 20})
	if it.Done() || it.Node().key != 20 {
		t.Fatalf("Find(20) failed")
	}
	it = tr.Find(&intNode{key: 21})
	if !it.Done() {
		t.Fatalf("Find(21) should be End()")
	}
}

func TestRemoveRandom(t *testing.T) {
	rng, err := mathutil.NewFC32(0, math.MaxInt32, true)
	if err != nil {
		t.Fatal(err)
	}
	rng.Seed(42)

	const n = 5000
	tr := New[intNode, *intNode](intLess)
	nodes := make([]*intNode, n)
	seen := map[int]bool{}
	for i := 0; i < n; i++ {
		var k int
		for {
			k = int(rng.Next())
			if !seen[k] {
				seen[k] = true
				break
			}
		}
		nodes[i] = &intNode{key: k}
		tr.Insert(nodes[i])
	}
	tr.Validate()

	want := make([]int, n)
	for i, nd := range nodes {
		want[i] = nd.key
	}
	sort.Ints(want)
	got := sortedKeys(tr)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("mismatch at %d: got %d want %d", i, got[i], want[i])
		}
	}

	for len(nodes) > 0 {
		idx := int(rng.Next()) % len(nodes)
		victim := nodes[idx]
		tr.Remove(victim)
		nodes = append(nodes[:idx], nodes[idx+1:]...)
		if len(nodes)%777 == 0 {
			tr.Validate()
		}
	}
	if !tr.Empty() {
		t.Fatalf("expected empty tree")
	}
}

func TestDuplicateKeysInsertionOrder(t *testing.T) {
	tr := New[intNode, *intNode](intLess)
	a := &intNode{key: 1}
	b := &intNode{key: 1}
	c := &intNode{key: 1}
	tr.Insert(a)
	tr.Insert(b)
	tr.Insert(c)
	tr.Validate()

	var order []*intNode
	for it := tr.Begin(); !it.Done(); it = it.Next() {
		order = append(order, it.Node())
	}
	if len(order) != 3 || order[0] != a || order[1] != b || order[2] != c {
		t.Fatalf("expected stable insertion order for duplicate keys")
	}
}
