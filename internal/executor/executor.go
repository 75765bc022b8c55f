// Package executor supplies the pluggable parallel-for-chunked
// abstraction the bootstrap engines' outer replicate loops run
// through. It mirrors the core's external-interfaces contract: "any
// type exposing a parallel_for_chunked(n, fn) entry point".
package executor

import "sync"

// Executor runs fn once per chunk covering [0,n), blocking until every
// chunk has completed.
type Executor interface {
	ParallelForChunked(n int, fn func(lo, hi int))
}

// SingleThreaded runs the entire range as one chunk on the caller's
// goroutine. Useful for small B, for deterministic debugging, and as
// the default when no executor is supplied.
type SingleThreaded struct{}

func (SingleThreaded) ParallelForChunked(n int, fn func(lo, hi int)) {
	if n <= 0 {
		return
	}
	fn(0, n)
}

// WorkerPool splits [0,n) into roughly Workers equally sized chunks
// and runs them concurrently, joining via a WaitGroup before
// returning — the only blocking point the core's concurrency model
// allows.
type WorkerPool struct {
	Workers int
}

// NewWorkerPool returns a WorkerPool with the given goroutine count,
// clamped to at least 1.
func NewWorkerPool(workers int) WorkerPool {
	if workers < 1 {
		workers = 1
	}
	return WorkerPool{Workers: workers}
}

func (w WorkerPool) ParallelForChunked(n int, fn func(lo, hi int)) {
	if n <= 0 {
		return
	}
	workers := w.Workers
	if workers > n {
		workers = n
	}
	chunk := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for lo := 0; lo < n; lo += chunk {
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			fn(lo, hi)
		}(lo, hi)
	}
	wg.Wait()
}
