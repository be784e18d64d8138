// Copyright 2019 The Allocatorsample Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rbtree implements an intrusive red-black tree: an ordered
// multiset whose link fields (parent, left, right, color) live inside the
// contained objects, keyed by a user-supplied strict weak ordering.
//
// The tree carries a sentinel node that simultaneously serves as the
// parent-of-root and as the fixed end() position: the sentinel's left
// holds the leftmost node (O(1) min), its right holds the rightmost
// (O(1) max), and its parent holds the root. This is a direct port of
// original_source/memoryallocator/rb_tree.h, with the color bit — packed
// into the low bit of the parent pointer in the C++ original — pulled out
// into its own field, since Go cannot safely tag a live pointer with
// spare bits under a precise garbage collector.
package rbtree

import "github.com/alexshen/allocatorsample/allocator"

// Node is the link set embedded inside a tree element of type T.
type Node[T any] struct {
	parent, left, right *T
	red                 bool
}

func (n *Node[T]) linked() bool {
	return n.parent != nil || n.left != nil || n.right != nil
}

// Linked is satisfied by *T for a host type T that embeds a Node[T] and
// exposes it through TreeLinks, the generic stand-in for the RbTreeNode
// CRTP base of the original source.
type Linked[T any] interface {
	*T
	TreeLinks() *Node[T]
}

// Less is a strict weak ordering over *T, analogous to the operator<
// overload the original Key type defines on itself.
type Less[T any] func(a, b *T) bool

// Tree is an intrusive, ordered multiset of *T. Ties are broken by
// insertion order: a newly inserted node that is neither less-than nor
// greater-than an existing node descends to the right of it, so repeated
// keys come out in the order they were inserted. The zero value is not
// ready to use; construct with New.
type Tree[T any, PT Linked[T]] struct {
	sentinel T
	less     Less[T]
}

// New constructs an empty tree ordered by less.
func New[T any, PT Linked[T]](less Less[T]) *Tree[T, PT] {
	t := &Tree[T, PT]{less: less}
	t.sentinelNode().red = false
	t.setLeftmost(t.sentinelPtr())
	t.setRightmost(t.sentinelPtr())
	return t
}

func (t *Tree[T, PT]) links(n *T) *Node[T] { return PT(n).TreeLinks() }

func (t *Tree[T, PT]) sentinelPtr() *T          { return &t.sentinel }
func (t *Tree[T, PT]) sentinelNode() *Node[T]   { return t.links(t.sentinelPtr()) }
func (t *Tree[T, PT]) root() *T                 { return t.sentinelNode().parent }
func (t *Tree[T, PT]) setRoot(n *T)             { t.sentinelNode().parent = n }
func (t *Tree[T, PT]) leftmost() *T             { return t.sentinelNode().left }
func (t *Tree[T, PT]) setLeftmost(n *T)         { t.sentinelNode().left = n }
func (t *Tree[T, PT]) rightmost() *T            { return t.sentinelNode().right }
func (t *Tree[T, PT]) setRightmost(n *T)        { t.sentinelNode().right = n }

// Empty reports whether the tree has no elements.
func (t *Tree[T, PT]) Empty() bool { return t.leftmost() == t.sentinelPtr() }

// Insert adds node, which must be detached, into the tree.
func (t *Tree[T, PT]) Insert(node *T) {
	nn := t.links(node)
	if allocator.DebugChecks && nn.linked() {
		allocator.Fail("Insert", "node is already part of a tree")
	}

	parent := t.sentinelPtr()
	cur := t.root()
	smaller := false
	for cur != nil {
		parent = cur
		smaller = t.less(node, cur)
		if smaller {
			cur = t.links(cur).left
		} else {
			cur = t.links(cur).right
		}
	}

	if parent == t.sentinelPtr() {
		t.setRoot(node)
		t.setLeftmost(node)
		t.setRightmost(node)
	} else {
		if parent == t.leftmost() && smaller {
			t.setLeftmost(node)
		} else if parent == t.rightmost() && !smaller {
			t.setRightmost(node)
		}
		if smaller {
			t.links(parent).left = node
		} else {
			t.links(parent).right = node
		}
	}
	nn.parent = parent
	nn.red = true

	t.insertFixup(node)
	t.Validate()
}

// Remove removes node, which must be currently linked into the tree.
// After Remove, node is detached.
func (t *Tree[T, PT]) Remove(node *T) {
	nn := t.links(node)
	if allocator.DebugChecks && !nn.linked() {
		allocator.Fail("Remove", "node is not part of a tree")
	}

	var candidate *T
	if nn.left == nil || nn.right == nil {
		candidate = node
	} else {
		candidate = t.successor(node)
	}
	cn := t.links(candidate)

	var child *T
	if cn.left != nil {
		child = cn.left
	} else {
		child = cn.right
	}

	if node == t.rightmost() {
		t.setRightmost(t.predecessor(node))
	}
	if node == t.leftmost() {
		t.setLeftmost(t.successor(node))
	}

	if child != nil && candidate != nn.right {
		t.links(child).parent = cn.parent
	}
	childParent := cn.parent
	isRoot := node == t.root()

	if candidate == t.root() {
		t.setRoot(child)
	} else {
		if isRoot {
			t.setRoot(candidate)
		}
		if candidate == t.links(cn.parent).left {
			t.links(cn.parent).left = child
		} else if candidate != nn.right {
			t.links(cn.parent).right = child
		}
	}

	candidateWasRed := cn.red
	if candidate != node {
		cn.left = nn.left
		if candidate != nn.right {
			cn.right = nn.right
			t.links(nn.right).parent = candidate
		} else {
			childParent = candidate
		}
		cn.parent = nn.parent
		cn.red = nn.red
		t.links(nn.left).parent = candidate

		if !isRoot {
			if node == t.links(nn.parent).left {
				t.links(nn.parent).left = candidate
			} else {
				t.links(nn.parent).right = candidate
			}
		}
	}
	if !candidateWasRed {
		t.removeFixup(child, childParent)
	}

	nn.parent, nn.left, nn.right = nil, nil, nil
	nn.red = false
	t.Validate()
}

// LowerBound returns an Iterator at the first element not less than key,
// or End() if every element is less than key.
func (t *Tree[T, PT]) LowerBound(key *T) Iterator[T, PT] {
	var res *T
	cur := t.root()
	for cur != nil {
		if t.less(cur, key) {
			cur = t.links(cur).right
		} else {
			res = cur
			cur = t.links(cur).left
		}
	}
	if res == nil {
		res = t.sentinelPtr()
	}
	return Iterator[T, PT]{t, res}
}

// Find returns an Iterator at an element equivalent to key (neither less
// nor greater), or End() if none exists.
func (t *Tree[T, PT]) Find(key *T) Iterator[T, PT] {
	var res *T
	cur := t.root()
	for cur != nil {
		switch {
		case t.less(cur, key):
			cur = t.links(cur).right
		case t.less(key, cur):
			cur = t.links(cur).left
		default:
			res = cur
			cur = nil
		}
	}
	if res == nil {
		res = t.sentinelPtr()
	}
	return Iterator[T, PT]{t, res}
}

// Begin returns an Iterator at the leftmost (smallest) element.
func (t *Tree[T, PT]) Begin() Iterator[T, PT] { return Iterator[T, PT]{t, t.leftmost()} }

// End returns the fixed one-past-the-end Iterator.
func (t *Tree[T, PT]) End() Iterator[T, PT] { return Iterator[T, PT]{t, t.sentinelPtr()} }

func (t *Tree[T, PT]) minimum(n *T) *T {
	for t.links(n).left != nil {
		n = t.links(n).left
	}
	return n
}

func (t *Tree[T, PT]) maximum(n *T) *T {
	for t.links(n).right != nil {
		n = t.links(n).right
	}
	return n
}

func (t *Tree[T, PT]) successor(n *T) *T {
	if r := t.links(n).right; r != nil {
		return t.minimum(r)
	}
	cur := n
	parent := t.links(cur).parent
	for cur == t.links(parent).right {
		cur = parent
		parent = t.links(parent).parent
	}
	if t.links(cur).right != parent {
		return parent
	}
	return cur
}

func (t *Tree[T, PT]) predecessor(n *T) *T {
	if l := t.links(n).left; l != nil {
		return t.maximum(l)
	}
	cur := n
	parent := t.links(cur).parent
	for cur == t.links(parent).left {
		cur = parent
		parent = t.links(parent).parent
	}
	if t.links(cur).left != parent {
		return parent
	}
	return cur
}

func (t *Tree[T, PT]) leftRotate(node *T) {
	nn := t.links(node)
	right := nn.right
	if right == nil {
		return
	}

	rn := t.links(right)
	nn.right = rn.left
	if rn.left != nil {
		t.links(rn.left).parent = node
	}
	rn.parent = nn.parent
	if t.root() != node {
		p := t.links(nn.parent)
		if node == p.left {
			p.left = right
		} else {
			p.right = right
		}
	} else {
		t.setRoot(right)
	}
	nn.parent = right
	rn.left = node
}

func (t *Tree[T, PT]) rightRotate(node *T) {
	nn := t.links(node)
	left := nn.left
	if left == nil {
		return
	}

	ln := t.links(left)
	nn.left = ln.right
	if ln.right != nil {
		t.links(ln.right).parent = node
	}
	ln.parent = nn.parent
	if t.root() != node {
		p := t.links(nn.parent)
		if node == p.left {
			p.left = left
		} else {
			p.right = left
		}
	} else {
		t.setRoot(left)
	}
	nn.parent = left
	ln.right = node
}

func isRed[T any](n *T, links func(*T) *Node[T]) bool {
	return n != nil && links(n).red
}

func (t *Tree[T, PT]) insertFixup(cur *T) {
	for t.links(t.links(cur).parent).red {
		parent := t.links(cur).parent
		grandParent := t.links(parent).parent
		if parent == t.links(grandParent).left {
			uncle := t.links(grandParent).right
			if isRed(uncle, t.links) {
				t.links(parent).red = false
				t.links(uncle).red = false
				t.links(grandParent).red = true
				cur = grandParent
			} else {
				if cur == t.links(parent).right {
					cur = parent
					t.leftRotate(cur)
					parent = t.links(cur).parent
					grandParent = t.links(parent).parent
				}
				t.links(parent).red = false
				t.links(grandParent).red = true
				t.rightRotate(grandParent)
			}
		} else {
			uncle := t.links(grandParent).left
			if isRed(uncle, t.links) {
				t.links(parent).red = false
				t.links(uncle).red = false
				t.links(grandParent).red = true
				cur = grandParent
			} else {
				if cur == t.links(parent).left {
					cur = parent
					t.rightRotate(cur)
					parent = t.links(cur).parent
					grandParent = t.links(parent).parent
				}
				t.links(parent).red = false
				t.links(grandParent).red = true
				t.leftRotate(grandParent)
			}
		}
	}
	t.links(t.root()).red = false
}

func (t *Tree[T, PT]) removeFixup(cur, parent *T) {
	for cur != t.root() && !isRed(cur, t.links) {
		if cur == t.links(parent).left {
			sibling := t.links(parent).right
			if allocator.DebugChecks && sibling == nil {
				allocator.Fail("removeFixup", "sibling must exist")
			}
			sn := t.links(sibling)
			if sn.red {
				sn.red = false
				t.links(parent).red = true
				t.leftRotate(parent)
				sibling = t.links(parent).right
				sn = t.links(sibling)
			}
			if !isRed(sn.left, t.links) && !isRed(sn.right, t.links) {
				sn.red = true
				cur = parent
				parent = t.links(cur).parent
			} else {
				if !isRed(sn.right, t.links) {
					if sn.left != nil {
						t.links(sn.left).red = false
					}
					sn.red = true
					t.rightRotate(sibling)
					sibling = t.links(parent).right
					sn = t.links(sibling)
				}
				sn.red = t.links(parent).red
				t.links(parent).red = false
				if sn.right != nil {
					t.links(sn.right).red = false
				}
				t.leftRotate(parent)
				cur = t.root()
			}
		} else {
			sibling := t.links(parent).left
			if allocator.DebugChecks && sibling == nil {
				allocator.Fail("removeFixup", "sibling must exist")
			}
			sn := t.links(sibling)
			if sn.red {
				sn.red = false
				t.links(parent).red = true
				t.rightRotate(parent)
				sibling = t.links(parent).left
				sn = t.links(sibling)
			}
			if !isRed(sn.left, t.links) && !isRed(sn.right, t.links) {
				sn.red = true
				cur = parent
				parent = t.links(cur).parent
			} else {
				if !isRed(sn.left, t.links) {
					if sn.right != nil {
						t.links(sn.right).red = false
					}
					sn.red = true
					t.leftRotate(sibling)
					sibling = t.links(parent).left
					sn = t.links(sibling)
				}
				sn.red = t.links(parent).red
				t.links(parent).red = false
				if sn.left != nil {
					t.links(sn.left).red = false
				}
				t.rightRotate(parent)
				cur = t.root()
			}
		}
	}
	if cur != nil {
		t.links(cur).red = false
	}
}

// Validate walks the tree and panics (via allocator.Fail) if it is not a
// well-formed red-black tree. It is a debug-only structural audit run
// after every Insert/Remove when allocator.DebugChecks is true, and is
// exported so tests can invoke it explicitly. It does nothing when
// allocator.DebugChecks is false.
func (t *Tree[T, PT]) Validate() {
	if !allocator.DebugChecks {
		return
	}
	root := t.root()
	if root != nil && t.links(root).red {
		allocator.Fail("Validate", "root must be black")
	}
	if root != nil && t.links(root).parent != t.sentinelPtr() {
		allocator.Fail("Validate", "root's parent must be the sentinel")
	}
	t.validateNode(root)
}

func (t *Tree[T, PT]) validateNode(n *T) int {
	if n == nil {
		return 0
	}
	nn := t.links(n)
	if nn.left != nil && t.links(nn.left).parent != n {
		allocator.Fail("Validate", "left child's parent is wrong")
	}
	if nn.right != nil && t.links(nn.right).parent != n {
		allocator.Fail("Validate", "right child's parent is wrong")
	}
	if nn.red && (isRed(nn.left, t.links) || isRed(nn.right, t.links)) {
		allocator.Fail("Validate", "red node has a red child")
	}
	lbh := t.validateNode(nn.left)
	rbh := t.validateNode(nn.right)
	if lbh != rbh {
		allocator.Fail("Validate", "unequal black heights")
	}
	blackBonus := 0
	if !nn.red {
		blackBonus = 1
	}
	return lbh + blackBonus
}

// Iterator walks a Tree in sorted order. The zero value is not usable;
// obtain one from Begin, End, LowerBound, or Find.
type Iterator[T any, PT Linked[T]] struct {
	tree *Tree[T, PT]
	node *T
}

// Node returns the element the iterator currently refers to. It must not
// be called on an End() iterator.
func (it Iterator[T, PT]) Node() *T { return it.node }

// Done reports whether the iterator has reached End().
func (it Iterator[T, PT]) Done() bool { return it.node == it.tree.sentinelPtr() }

// Next advances the iterator to the next element in sorted order. It must
// not be called on an End() iterator.
func (it Iterator[T, PT]) Next() Iterator[T, PT] {
	if allocator.DebugChecks && it.Done() {
		allocator.Fail("Next", "cannot advance past End()")
	}
	return Iterator[T, PT]{it.tree, it.tree.successor(it.node)}
}

// Prev moves the iterator to the previous element in sorted order.
// Calling Prev on End() yields the last element (if any).
func (it Iterator[T, PT]) Prev() Iterator[T, PT] {
	if it.Done() {
		return Iterator[T, PT]{it.tree, it.tree.rightmost()}
	}
	return Iterator[T, PT]{it.tree, it.tree.predecessor(it.node)}
}
