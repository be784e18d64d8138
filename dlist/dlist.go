// Copyright 2019 The Allocatorsample Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dlist implements an intrusive doubly linked list: the link
// fields live inside the contained objects (a Node[T] embedded in T)
// rather than in separately allocated wrapper nodes, the same shape as
// cznic/memory's own prev/next node struct threaded through free slots.
//
// A List owns no storage; the host objects own their own Node. A Node is
// either detached (both links nil and the node is not a member of any
// List) or linked into exactly one List.
package dlist

import "github.com/alexshen/allocatorsample/allocator"

// Node is the link pair embedded inside a list element of type T.
type Node[T any] struct {
	prev, next *T
}

// Prev returns the previous element, or nil if n is the head or detached.
func (n *Node[T]) Prev() *T { return n.prev }

// Next returns the next element, or nil if n is the tail or detached.
func (n *Node[T]) Next() *T { return n.next }

func (n *Node[T]) detached() bool { return n.prev == nil && n.next == nil }

// Linked is satisfied by *T for a host type T that embeds a Node[T] and
// exposes it through ListLinks. This is the generic stand-in for the
// teacher's ListNode<T> CRTP base: PT carries the pointer receiver
// needed to mutate the node in place.
type Linked[T any] interface {
	*T
	ListLinks() *Node[T]
}

// List is an ordered intrusive sequence of *T. The zero value is an empty
// list ready to use. PT is always *T; it is spelled out as its own type
// parameter because Go generics cannot otherwise express "T's pointer
// type has this method set".
type List[T any, PT Linked[T]] struct {
	head, tail *T
}

// First returns the head element, or nil if the list is empty.
func (l *List[T, PT]) First() *T { return l.head }

// Last returns the tail element, or nil if the list is empty.
func (l *List[T, PT]) Last() *T { return l.tail }

// Empty reports whether the list has no elements.
func (l *List[T, PT]) Empty() bool { return l.head == nil }

// AddFirst inserts n at the head of the list. n must be detached.
func (l *List[T, PT]) AddFirst(n *T) {
	nn := PT(n).ListLinks()
	requireDetached("AddFirst", nn)
	nn.next = l.head
	if l.head != nil {
		PT(l.head).ListLinks().prev = n
	} else {
		l.tail = n
	}
	l.head = n
}

// AddLast inserts n at the tail of the list. n must be detached.
func (l *List[T, PT]) AddLast(n *T) {
	nn := PT(n).ListLinks()
	requireDetached("AddLast", nn)
	nn.prev = l.tail
	if l.tail != nil {
		PT(l.tail).ListLinks().next = n
	} else {
		l.head = n
	}
	l.tail = n
}

// InsertAfter inserts n immediately after pivot, which must already be
// linked into this list. n must be detached.
func (l *List[T, PT]) InsertAfter(n, pivot *T) {
	nn := PT(n).ListLinks()
	requireDetached("InsertAfter", nn)

	pn := PT(pivot).ListLinks()
	if pn.next != nil {
		PT(pn.next).ListLinks().prev = n
		nn.next = pn.next
		nn.prev = pivot
		pn.next = n
	} else {
		l.AddLast(n)
	}
}

// InsertBefore inserts n immediately before pivot, which must already be
// linked into this list. n must be detached.
func (l *List[T, PT]) InsertBefore(n, pivot *T) {
	nn := PT(n).ListLinks()
	requireDetached("InsertBefore", nn)

	pn := PT(pivot).ListLinks()
	if pn.prev != nil {
		PT(pn.prev).ListLinks().next = n
		nn.prev = pn.prev
		nn.next = pivot
		pn.prev = n
	} else {
		l.AddFirst(n)
	}
}

// Remove unlinks n from the list. n must be currently linked into it.
// After Remove, n is detached.
func (l *List[T, PT]) Remove(n *T) {
	nn := PT(n).ListLinks()
	if allocator.DebugChecks && nn.detached() && l.head != n && l.tail != n {
		allocator.Fail("Remove", "node is not linked into this list")
	}

	if nn.prev == nil {
		l.head = nn.next
	} else {
		PT(nn.prev).ListLinks().next = nn.next
	}
	if nn.next == nil {
		l.tail = nn.prev
	} else {
		PT(nn.next).ListLinks().prev = nn.prev
	}
	nn.prev = nil
	nn.next = nil
}

// Swap exchanges the contents of l and rhs in O(1), transferring
// ownership of all nodes between the two lists without touching any
// node's links.
func (l *List[T, PT]) Swap(rhs *List[T, PT]) {
	l.head, rhs.head = rhs.head, l.head
	l.tail, rhs.tail = rhs.tail, l.tail
}

func requireDetached[T any](op string, n *Node[T]) {
	if allocator.DebugChecks && !n.detached() {
		allocator.Fail(op, "node is already linked into a list")
	}
}
