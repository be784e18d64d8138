// Copyright 2019 The Allocatorsample Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ospage

import "testing"

func TestAcquireReleaseRoundTrip(t *testing.T) {
	pageSize := System.PageSize()
	if pageSize == 0 {
		t.Fatalf("PageSize() = 0")
	}

	p, err := System.Acquire(pageSize)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if p == nil {
		t.Fatalf("Acquire returned nil pointer")
	}
	if err := System.Release(p, pageSize); err != nil {
		t.Fatalf("Release: %v", err)
	}
}

func TestAcquireMultiplePages(t *testing.T) {
	pageSize := System.PageSize()
	p, err := System.Acquire(pageSize * 4)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := System.Release(p, pageSize*4); err != nil {
		t.Fatalf("Release: %v", err)
	}
}
