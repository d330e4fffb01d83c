package fluid

import (
	"sync/atomic"
	"testing"
)

func TestWorkerPoolCoversRangeOnce(t *testing.T) {
	tests := []struct {
		name      string
		workers   int
		threshold int
		n         int
	}{
		{"below threshold", 4, 100, 50},
		{"even split", 4, 1, 400},
		{"uneven split", 3, 1, 10},
		{"more workers than items", 8, 1, 3},
		{"single worker", 1, 1, 100},
		{"empty", 4, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := NewWorkerPool(tt.workers, tt.threshold)
			defer pool.Close()

			counts := make([]int32, tt.n)
			pool.Run(tt.n, func(i0, i1 int) {
				for i := i0; i < i1; i++ {
					atomic.AddInt32(&counts[i], 1)
				}
			})

			for i, c := range counts {
				if c != 1 {
					t.Errorf("index %d visited %d times", i, c)
				}
			}
		})
	}
}

func TestWorkerPoolReusedAcrossRuns(t *testing.T) {
	pool := NewWorkerPool(4, 1)
	defer pool.Close()

	var total int64
	for run := 0; run < 20; run++ {
		pool.Run(100, func(i0, i1 int) {
			atomic.AddInt64(&total, int64(i1-i0))
		})
	}
	if total != 2000 {
		t.Errorf("total = %d, want 2000", total)
	}
}

func TestWorkerPoolDefaults(t *testing.T) {
	pool := NewWorkerPool(0, 0)
	defer pool.Close()

	if pool.Workers() < 1 {
		t.Errorf("workers = %d, want >= 1", pool.Workers())
	}
	if pool.threshold != defaultParallelThreshold {
		t.Errorf("threshold = %d, want %d", pool.threshold, defaultParallelThreshold)
	}
}

func TestWorkerPoolCloseIdempotent(t *testing.T) {
	pool := NewWorkerPool(2, 1)
	pool.Run(10, func(i0, i1 int) {})
	pool.Close()
	pool.Close()
}
