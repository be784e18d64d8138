// Copyright 2019 The Allocatorsample Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command allocdemo exercises every allocator in this module end to end:
// a red-black tree stress test, then a large allocator wrapped in a
// bounded (canary) allocator wrapped in an aligning allocator, a
// standalone free list, and a segregated allocator. It is the Go port
// of original_source/memoryallocator/main.cpp's smoke tests, restructured
// as a CLI so each scenario can be run in isolation.
package main

import (
	"errors"
	"flag"
	"math/rand"
	"os"
	"sort"
	"time"
	"unsafe"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/alexshen/allocatorsample/alignalloc"
	"github.com/alexshen/allocatorsample/allocator"
	"github.com/alexshen/allocatorsample/boundedalloc"
	"github.com/alexshen/allocatorsample/freelist"
	"github.com/alexshen/allocatorsample/largealloc"
	"github.com/alexshen/allocatorsample/ospage"
	"github.com/alexshen/allocatorsample/rbtree"
	"github.com/alexshen/allocatorsample/segalloc"
)

func regionBegin(b []byte) unsafe.Pointer { return unsafe.Pointer(&b[0]) }
func regionEnd(b []byte) unsafe.Pointer   { return unsafe.Pointer(uintptr(regionBegin(b)) + uintptr(len(b))) }

var (
	scenario = flag.String("scenario", "all", "which scenario to run: all, rbtree, large, freelist, segregated")
	seed     = flag.Int64("seed", 1, "seed for the pseudo-random workloads")
	verbose  = flag.Bool("v", false, "enable debug-level logging")
)

func main() {
	flag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339
	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	logger := log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().
		Str("run_id", uuid.NewString()).
		Logger()

	run := map[string]func(zerolog.Logger, *rand.Rand){
		"rbtree":     runRBTreeStress,
		"large":      runLargeAllocatorScenario,
		"freelist":   runFreeListScenario,
		"segregated": runSegregatedScenario,
	}

	rng := rand.New(rand.NewSource(*seed))
	if *scenario == "all" {
		names := make([]string, 0, len(run))
		for name := range run {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			logger.Info().Str("scenario", name).Msg("starting scenario")
			run[name](logger, rng)
		}
		return
	}

	fn, ok := run[*scenario]
	if !ok {
		logger.Fatal().Str("scenario", *scenario).Msg("unknown scenario")
	}
	fn(logger, rng)
}

type sizedNode struct {
	link rbtree.Node[sizedNode]
	size int
}

func (n *sizedNode) TreeLinks() *rbtree.Node[sizedNode] { return &n.link }

func sizedLess(a, b *sizedNode) bool { return a.size < b.size }

// runRBTreeStress ports testRbTree from the original demo: insert a large
// random population, verify sorted order against a reference slice, then
// remove every node in random order and confirm the tree empties cleanly.
func runRBTreeStress(logger zerolog.Logger, rng *rand.Rand) {
	const n = 45120
	tree := rbtree.New[sizedNode, *sizedNode](sizedLess)
	nodes := make([]*sizedNode, n)
	for i := range nodes {
		nd := &sizedNode{size: rng.Intn(100)}
		nodes[i] = nd
		tree.Insert(nd)
	}

	reference := append([]*sizedNode(nil), nodes...)
	sort.Slice(reference, func(i, j int) bool { return reference[i].size < reference[j].size })

	i := 0
	for it := tree.Begin(); !it.Done(); it = it.Next() {
		if it.Node().size != reference[i].size {
			logger.Fatal().Msg("tree iteration order diverged from reference")
		}
		i++
	}

	remaining := append([]*sizedNode(nil), nodes...)
	for len(remaining) > 0 {
		idx := rng.Intn(len(remaining))
		tree.Remove(remaining[idx])
		remaining[idx] = remaining[len(remaining)-1]
		remaining = remaining[:len(remaining)-1]
	}
	if !tree.Empty() {
		logger.Fatal().Msg("tree did not empty after removing every node")
	}
	logger.Info().Int("count", n).Msg("rbtree stress scenario passed")
}

// runLargeAllocatorScenario ports the large/bounded/aligned allocator
// composition from the original demo: a 10 MiB heap region managed by
// largealloc, wrapped in boundedalloc for overrun detection, wrapped
// again in alignalloc to satisfy a 16-byte-aligned allocation.
func runLargeAllocatorScenario(logger zerolog.Logger, _ *rand.Rand) {
	const regionSize = 10 * 1024 * 1024
	region := make([]byte, regionSize)
	large := largealloc.New(region, 16)

	p, err := large.Malloc(1 * 1024 * 1024)
	if err != nil {
		logger.Fatal().Err(err).Msg("large.Malloc failed")
	}
	if err := large.Free(p); err != nil {
		logger.Fatal().Err(err).Msg("large.Free failed")
	}

	bounded := boundedalloc.New(large)
	aligned := alignalloc.New(bounded)

	const payloadSize = 40 // 10 ints, matching struct S{ a [10]int32 } in the original
	s, err := aligned.Malloc(payloadSize, 16)
	if err != nil {
		logger.Fatal().Err(err).Msg("aligned.Malloc failed")
	}
	if err := aligned.Free(s); err != nil {
		logger.Fatal().Err(err).Msg("aligned.Free failed")
	}
	logger.Info().Int("region_bytes", regionSize).Msg("large allocator scenario passed")
}

// runFreeListScenario ports the standalone FreeList smoke test: build a
// free list over a region, pop one block, push it back.
func runFreeListScenario(logger zerolog.Logger, _ *rand.Rand) {
	region := make([]byte, 4096)
	beg := regionBegin(region)
	end := regionEnd(region)
	fl := freelist.New(beg, end, 12)

	p := fl.Malloc()
	if p == nil {
		logger.Fatal().Msg("freelist.Malloc returned nil on a freshly built list")
	}
	fl.Free(p)
	logger.Info().Msg("freelist scenario passed")
}

// runSegregatedScenario ports the SegregatedAllocator<1>(8, 8) smoke
// test: a single-bin allocator serving 8-byte slots.
func runSegregatedScenario(logger zerolog.Logger, _ *rand.Rand) {
	seg := segalloc.New(ospage.System, 1, 8, 8)
	defer seg.Close()

	p, err := seg.Malloc(7)
	if err != nil {
		logger.Fatal().Err(err).Msg("segalloc.Malloc(7) failed")
	}
	if err := seg.Free(p); err != nil {
		logger.Fatal().Err(err).Msg("segalloc.Free failed")
	}
	if _, err := seg.Malloc(9); !errors.Is(err, allocator.ErrOOM) {
		logger.Fatal().Err(err).Msg("segalloc.Malloc(9) should have reported ErrOOM: request exceeds the single bin's 8-byte capacity")
	}
	logger.Info().Msg("segregated allocator scenario passed")
}
