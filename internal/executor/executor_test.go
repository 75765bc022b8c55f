package executor

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSingleThreadedRunsOneChunk(t *testing.T) {
	var calls int
	SingleThreaded{}.ParallelForChunked(10, func(lo, hi int) {
		calls++
		assert.Equal(t, 0, lo)
		assert.Equal(t, 10, hi)
	})
	assert.Equal(t, 1, calls)
}

func TestSingleThreadedNoOpOnZero(t *testing.T) {
	called := false
	SingleThreaded{}.ParallelForChunked(0, func(lo, hi int) { called = true })
	assert.False(t, called)
}

func TestWorkerPoolCoversFullRange(t *testing.T) {
	var covered int64
	wp := NewWorkerPool(4)
	wp.ParallelForChunked(97, func(lo, hi int) {
		atomic.AddInt64(&covered, int64(hi-lo))
	})
	assert.Equal(t, int64(97), covered)
}

func TestWorkerPoolClampsWorkersToN(t *testing.T) {
	wp := NewWorkerPool(50)
	var chunks int64
	wp.ParallelForChunked(3, func(lo, hi int) {
		atomic.AddInt64(&chunks, 1)
	})
	assert.LessOrEqual(t, chunks, int64(3))
}

func TestNewWorkerPoolClampsToOne(t *testing.T) {
	wp := NewWorkerPool(0)
	assert.Equal(t, 1, wp.Workers)
}
