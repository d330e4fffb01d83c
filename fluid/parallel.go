package fluid

import (
	"runtime"
	"sync"
)

// defaultParallelThreshold is the minimum particle count to use the pool.
// Below this, single-threaded is faster due to goroutine overhead.
const defaultParallelThreshold = 256

// Runner executes fn over the index range [0, n) and returns only after every
// index has been processed. Returning is the stage barrier.
type Runner interface {
	Run(n int, fn func(i0, i1 int))
}

// Sequential runs the whole range on the calling goroutine.
type Sequential struct{}

// Run implements Runner.
func (Sequential) Run(n int, fn func(i0, i1 int)) {
	if n > 0 {
		fn(0, n)
	}
}

// workChunk represents a range of particles for a worker to process.
type workChunk struct {
	start, end int
	fn         func(i0, i1 int)
}

// WorkerPool is a persistent set of goroutines that split a stage's particle
// range into contiguous chunks. Each index is handled by exactly one worker,
// so per-particle sums are accumulated in the same order as the sequential
// path and results are bit-identical.
type WorkerPool struct {
	numWorkers int
	threshold  int

	workChan chan workChunk // sends work to workers
	doneChan chan struct{}  // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool           // true if workers are running
}

// NewWorkerPool creates a pool with the given number of workers (0 = GOMAXPROCS).
// Ranges shorter than threshold run on the caller (0 = default threshold).
// Workers are started lazily on the first parallel Run.
func NewWorkerPool(workers, threshold int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if threshold <= 0 {
		threshold = defaultParallelThreshold
	}
	return &WorkerPool{
		numWorkers: workers,
		threshold:  threshold,
	}
}

// Workers returns the number of worker goroutines.
func (p *WorkerPool) Workers() int {
	return p.numWorkers
}

// start launches persistent worker goroutines.
func (p *WorkerPool) start() {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// Close signals all workers to exit and waits for them.
func (p *WorkerPool) Close() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

// worker runs in a goroutine, processing chunks until stopped.
func (p *WorkerPool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			chunk.fn(chunk.start, chunk.end)
			p.doneChan <- struct{}{}
		}
	}
}

// Run implements Runner. It must not be called concurrently with itself.
func (p *WorkerPool) Run(n int, fn func(i0, i1 int)) {
	if n <= 0 {
		return
	}
	if n < p.threshold || p.numWorkers < 2 {
		fn(0, n)
		return
	}

	if !p.running {
		p.start()
	}

	chunkSize := (n + p.numWorkers - 1) / p.numWorkers

	chunksDispatched := 0
	for w := 0; w < p.numWorkers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}

		p.workChan <- workChunk{start: start, end: end, fn: fn}
		chunksDispatched++
	}

	// Wait for all chunks to complete
	for i := 0; i < chunksDispatched; i++ {
		<-p.doneChan
	}
}
