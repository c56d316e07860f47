// Package parallel runs row bands of a draw across a fixed set of workers.
package parallel

import (
	"runtime"
	"sync"
)

// WorkerPool runs batches of functions on a fixed set of goroutines
// reading one shared queue. It is safe for concurrent use.
type WorkerPool struct {
	workers int
	jobs    chan func()

	// mu guards closed; submitters hold it shared so Close never closes
	// jobs under a pending send.
	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewWorkerPool starts a pool of workers goroutines. A count of 0 or
// less means GOMAXPROCS.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	p := &WorkerPool{
		workers: workers,
		jobs:    make(chan func(), workers*4),
	}
	p.wg.Add(workers)
	for range workers {
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				job()
			}
		}()
	}
	return p
}

// ExecuteAll runs every function of work and returns when all are done.
// After Close the work runs on the calling goroutine.
func (p *WorkerPool) ExecuteAll(work []func()) {
	if len(work) == 0 {
		return
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		for _, fn := range work {
			fn()
		}
		return
	}

	var done sync.WaitGroup
	done.Add(len(work))
	for _, fn := range work {
		p.jobs <- func() {
			defer done.Done()
			fn()
		}
	}
	done.Wait()
}

// Rows splits [0, height) into contiguous bands, up to two per worker and
// at least minRows tall, and calls fn(y0, y1) for each band in parallel.
// A single band runs inline.
func (p *WorkerPool) Rows(height, minRows int, fn func(y0, y1 int)) {
	if height <= 0 {
		return
	}
	bands := min(p.workers*2, height/max(minRows, 1))
	if bands <= 1 {
		fn(0, height)
		return
	}

	step := (height + bands - 1) / bands
	work := make([]func(), 0, bands)
	for y0 := 0; y0 < height; y0 += step {
		y1 := min(y0+step, height)
		work = append(work, func() { fn(y0, y1) })
	}
	p.ExecuteAll(work)
}

// Close waits for running batches, then stops the workers. Further calls
// are no-ops.
func (p *WorkerPool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()
	p.wg.Wait()
}

// Workers returns the number of workers.
func (p *WorkerPool) Workers() int {
	return p.workers
}

// IsRunning reports whether the pool still dispatches to its workers.
func (p *WorkerPool) IsRunning() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return !p.closed
}
