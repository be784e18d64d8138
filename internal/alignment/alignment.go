// Copyright 2019 The Allocatorsample Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package alignment collects the pointer- and size-rounding primitives
// shared by every allocator in this module: power-of-two validation,
// round-up/round-down to a power of two, and pointer arithmetic over
// opaque, unsafe.Pointer-addressed bytes.
package alignment

import (
	"unsafe"

	"github.com/cznic/mathutil"
)

// IsPowerOfTwo reports whether n is a power of two. Per spec, n == 0 is
// rejected even though the bit test n&(n-1) == 0 alone would accept it.
func IsPowerOfTwo(n uintptr) bool {
	return n != 0 && n&(n-1) == 0
}

// IsValidAlignment reports whether a is usable as an alignment: positive
// and a power of two.
func IsValidAlignment(a uintptr) bool {
	return IsPowerOfTwo(a)
}

// RoundUp rounds size up to the nearest multiple of n, which need not be a
// power of two.
func RoundUp(size, n uintptr) uintptr {
	if n == 0 {
		panic("alignment: RoundUp by zero")
	}
	return (size + n - 1) / n * n
}

// RoundUpPow2 rounds size up to the nearest multiple of align, which must
// be a valid alignment.
func RoundUpPow2(size, align uintptr) uintptr {
	if !IsValidAlignment(align) {
		panic("alignment: invalid alignment")
	}
	return (size + align - 1) &^ (align - 1)
}

// RoundDownPow2 rounds size down to the nearest multiple of align, which
// must be a valid alignment.
func RoundDownPow2(size, align uintptr) uintptr {
	if !IsValidAlignment(align) {
		panic("alignment: invalid alignment")
	}
	return size &^ (align - 1)
}

// Log2Ceil returns ceil(log2(n)) for n >= 1, built on mathutil.BitLen the
// same way cznic/memory computes its size-class log from a byte count.
func Log2Ceil(n uintptr) uint {
	if n == 0 {
		panic("alignment: Log2Ceil of zero")
	}
	return uint(mathutil.BitLen(int(n - 1)))
}

// Add returns p advanced by off bytes. off is unsigned; use Back to step
// backward.
func Add(p unsafe.Pointer, off uintptr) unsafe.Pointer {
	return unsafe.Pointer(uintptr(p) + off)
}

// Sub returns the byte distance from base to p (p - base).
func Sub(p, base unsafe.Pointer) uintptr {
	return uintptr(p) - uintptr(base)
}

// Back returns p stepped back by off bytes (the analogue of
// pointerAdd(p, -off) in the original source, which took a signed
// ptrdiff_t).
func Back(p unsafe.Pointer, off uintptr) unsafe.Pointer {
	return unsafe.Pointer(uintptr(p) - off)
}

// AlignUp returns p advanced to the next address that is a multiple of
// align, which must be a valid alignment.
func AlignUp(p unsafe.Pointer, align uintptr) unsafe.Pointer {
	return unsafe.Pointer(RoundUpPow2(uintptr(p), align))
}

// MaskDown returns p rounded down to the nearest multiple of align, which
// must be a valid alignment. Used to recover a page header from any
// pointer inside the page.
func MaskDown(p unsafe.Pointer, align uintptr) unsafe.Pointer {
	return unsafe.Pointer(RoundDownPow2(uintptr(p), align))
}

// MaxAlign is the alignment guaranteed suitable for any fundamental Go
// type on every platform this module targets; it mirrors
// alignof(std::max_align_t) from the original source.
const MaxAlign = unsafe.Alignof(struct {
	_ complex128
}{})
