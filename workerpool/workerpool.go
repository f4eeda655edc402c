// Copyright 2025 The go-phi Authors. SPDX-License-Identifier: Apache-2.0

// Package workerpool provides a persistent, reusable worker pool for parallel
// computation. Unlike per-call goroutine spawning, a Pool is created once and
// reused across many operations, eliminating allocation and spawn overhead.
//
// This is critical for the IIT engine, where TPM construction and the
// complex search both partition a large index space (rows, element
// subsets) across a fixed number of workers via a single shared counter:
// each worker pulls exactly one task per step of the counter, so no two
// workers ever process the same index. The MIP search over system
// partitions does not use the pool: it runs sequentially inside each
// complex-search worker.
//
// Usage:
//
//	pool := workerpool.New(runtime.GOMAXPROCS(0))
//	defer pool.Close()
//
//	pool.ParallelForAtomic(m, func(i int) {
//	    processRow(i)
//	})
package workerpool

import (
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Pool is a persistent worker pool that can be reused across many parallel
// operations. Workers are spawned once at creation and reused.
type Pool struct {
	numWorkers int
	workC      chan workItem
	closeOnce  sync.Once
	closed     atomic.Bool
}

// workItem represents a single parallel operation to execute.
type workItem struct {
	fn      func()
	barrier *sync.WaitGroup
}

// New creates a new worker pool with the specified number of workers.
// Workers are spawned immediately and persist until Close is called.
// If numWorkers <= 0, uses GOMAXPROCS.
func New(numWorkers int) *Pool {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}

	p := &Pool{
		numWorkers: numWorkers,
		// Buffer enough for all workers to have pending work
		workC: make(chan workItem, numWorkers*2),
	}

	// Spawn persistent workers
	for range numWorkers {
		go p.worker()
	}

	return p
}

// worker is the main loop for each persistent worker goroutine.
func (p *Pool) worker() {
	for item := range p.workC {
		item.fn()
		item.barrier.Done()
	}
}

// NumWorkers returns the number of workers in the pool.
func (p *Pool) NumWorkers() int {
	return p.numWorkers
}

// Close shuts down the worker pool. All pending work will complete.
// Calling Close multiple times is safe.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		close(p.workC)
	})
}

// ParallelForAtomic executes fn for each index in [0, n) using atomic work
// stealing from a single shared counter: each worker pulls exactly one
// index per step of the counter, with no two workers ever processing the
// same index. Blocks until all work completes.
func (p *Pool) ParallelForAtomic(n int, fn func(i int)) {
	if n <= 0 {
		return
	}

	if p.closed.Load() {
		for i := range n {
			fn(i)
		}
		return
	}

	workers := min(p.numWorkers, n)

	if workers == 1 {
		for i := range n {
			fn(i)
		}
		return
	}

	var nextIdx atomic.Int64
	var wg sync.WaitGroup
	wg.Add(workers)

	for range workers {
		p.workC <- workItem{
			fn: func() {
				for {
					idx := int(nextIdx.Add(1)) - 1
					if idx >= n {
						return
					}
					fn(idx)
				}
			},
			barrier: &wg,
		}
	}

	wg.Wait()
}

// ParallelForAtomicErr is ParallelForAtomic with fatal-error escalation: the
// first non-nil error returned by fn cancels the shared counter for every
// worker (no further index is dispatched) and is returned once every
// in-flight call to fn has returned. Any worker failure is fatal to the
// whole search; the coordinator joins all workers before returning.
//
// fn may be called concurrently with indices already in flight when the
// failing call returns; ParallelForAtomicErr does not interrupt work in
// progress, it only stops handing out new work.
func (p *Pool) ParallelForAtomicErr(n int, fn func(i int) error) error {
	if n <= 0 {
		return nil
	}

	workers := min(p.numWorkers, n)
	if p.closed.Load() || workers <= 1 {
		for i := range n {
			if err := fn(i); err != nil {
				return err
			}
		}
		return nil
	}

	var nextIdx atomic.Int64
	var failed atomic.Bool
	var g errgroup.Group
	for range workers {
		g.Go(func() error {
			for {
				if failed.Load() {
					return nil
				}
				idx := int(nextIdx.Add(1)) - 1
				if idx >= n {
					return nil
				}
				if err := fn(idx); err != nil {
					failed.Store(true)
					return err
				}
			}
		})
	}
	return g.Wait()
}
