// Copyright 2019 The Allocatorsample Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package allocator defines the Interface every allocator in this module
// satisfies (largealloc, segalloc, and the alignalloc/boundedalloc
// wrappers over either) plus two error classes: a recoverable ErrOOM and
// a fatal InvariantError for programmer errors and corruption.
package allocator

import (
	"errors"
	"fmt"
	"unsafe"
)

// Interface is the shared malloc/free contract. Implementations are not
// safe for concurrent use; callers needing that must synchronize
// externally.
type Interface interface {
	// Malloc returns size bytes, or (nil, ErrOOM) if no suitable space
	// is available. alignment defaults to alignment.MaxAlign when
	// omitted and must otherwise be a valid (power-of-two) alignment.
	Malloc(size uintptr, alignment ...uintptr) (unsafe.Pointer, error)
	// Free releases a pointer previously returned by Malloc on this
	// same Interface. Free(nil) is a no-op. Freeing a pointer not
	// owned by this Interface, or freeing one twice, is undefined
	// behavior surfaced only as a debug-mode InvariantError panic.
	Free(p unsafe.Pointer) error
}

// ErrOOM is returned by Malloc when the allocator cannot satisfy a
// request from its own managed memory. It carries no further detail; the
// caller may retry with a smaller size or later.
var ErrOOM = errors.New("allocator: out of memory")

// InvariantError reports a broken precondition or a structural corruption
// detected by a debug-mode check: a double free, a pointer foreign to the
// allocator it was passed to, a canary mismatch, or an inconsistent
// intrusive-container invariant. It is always fatal — the library does
// not attempt to continue past one; such conditions are detected at
// debug time via assertions and treated as unrecoverable.
type InvariantError struct {
	Op      string
	Message string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("allocator: %s: %s", e.Op, e.Message)
}

// DebugChecks gates the expensive structural audits (Validate methods on
// rbtree.Tree and largealloc.Allocator) and the cheap precondition
// assertions throughout this module. It is true by default; a release
// build wanting to shed the O(n) Validate cost sets it to false during
// program init, before any allocator in this module is used.
var DebugChecks = true

// Fail panics with an *InvariantError. Debug-only checks call this
// instead of returning an error, since a broken invariant is not a
// condition any caller can meaningfully recover from.
func Fail(op, format string, args ...any) {
	panic(&InvariantError{Op: op, Message: fmt.Sprintf(format, args...)})
}
