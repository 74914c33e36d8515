package filewriter

import (
	"context"
	"runtime"
	"sync"

	"github.com/go-vrs/vrs/compression"
)

// compressionJob is one record handed to a compression worker: its
// raw payload, the preset to try, and the channel the compressed
// result is returned on.
type compressionJob struct {
	payload []byte
	preset  compression.Preset
	result  chan<- compressionResult
}

// compressionResult carries a compression worker's output back to the
// per-stream bucket that requested it.
type compressionResult struct {
	Data             []byte
	Type             compression.Type
	UncompressedSize int
}

// compressionPool runs a fixed number of goroutines, each with its own
// *compression.Compressor (not safe for concurrent use), pulling jobs
// off a single bounded channel. Grounded on
// pkg/core/blocks/worker_pool.go's WorkerPoolOptimizer shape
// (bounded channel, context-cancellable workers, WaitGroup
// coordination), simplified to a fixed pool size since spec.md §4.G
// specifies "min(user, hardware_concurrency)" rather than adaptive
// scaling.
type compressionPool struct {
	jobs   chan compressionJob
	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// newCompressionPool starts size workers (clamped to
// runtime.NumCPU() if size <= 0 or exceeds it), each draining jobs
// until the pool is stopped.
func newCompressionPool(size int, queueDepth int) *compressionPool {
	if size <= 0 || size > runtime.NumCPU() {
		size = runtime.NumCPU()
	}
	if queueDepth <= 0 {
		queueDepth = 256
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &compressionPool{
		jobs:   make(chan compressionJob, queueDepth),
		cancel: cancel,
	}
	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
	return p
}

func (p *compressionPool) worker(ctx context.Context) {
	defer p.wg.Done()
	c := compression.NewCompressor()
	defer c.Close()
	for {
		select {
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			out, t := c.Compress(job.payload, job.preset)
			if t == compression.TypeNone {
				job.result <- compressionResult{Data: job.payload, Type: compression.TypeNone, UncompressedSize: len(job.payload)}
			} else {
				job.result <- compressionResult{Data: out, Type: t, UncompressedSize: len(job.payload)}
			}
		case <-ctx.Done():
			return
		}
	}
}

// Submit enqueues a job and blocks until a worker accepts it or the
// pool has been stopped (in which case it panics, matching "the
// library does not block producers itself" being the caller's
// responsibility to avoid by watching queue depth first).
func (p *compressionPool) Submit(payload []byte, preset compression.Preset) <-chan compressionResult {
	result := make(chan compressionResult, 1)
	p.jobs <- compressionJob{payload: payload, preset: preset, result: result}
	return result
}

// QueueLen reports how many jobs are currently waiting for a worker,
// the raw input to getBackgroundThreadQueueByteSize-style backpressure
// accessors.
func (p *compressionPool) QueueLen() int { return len(p.jobs) }

// Stop cancels every worker and waits for them to exit. Jobs already
// enqueued but not yet picked up are discarded.
func (p *compressionPool) Stop() {
	p.cancel()
	close(p.jobs)
	p.wg.Wait()
}
