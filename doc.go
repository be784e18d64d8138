// Copyright 2019 The Allocatorsample Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package allocatorsample is the root of a module whose packages (with
// the demo command in cmd/allocdemo) implement a composable, user-space memory allocator toolkit:
// an intrusive doubly linked list and red-black tree, a coalescing
// large-block allocator, a segregated (size-class) allocator over raw
// OS pages, a fixed-size free list, and aligning/bounded wrappers that
// compose over any of the above through a single allocator.Interface.
//
// Each concern lives in its own package under the module root; see
// allocator.Interface for the contract every allocator satisfies.
package allocatorsample
