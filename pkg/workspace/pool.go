package workspace

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
)

// job is one combination waiting for the resolver.
type job struct {
	loadingID string
	dragged   Token
	target    Token
}

// pool runs combinations on a fixed set of workers fed by a bounded queue.
type pool struct {
	queue   chan job
	wg      sync.WaitGroup
	process func(job)
	logger  *slog.Logger
}

func newPool(workers, queueSize uint, process func(job), log *slog.Logger) (*pool, error) {
	if workers > uint(math.MaxInt) {
		return nil, fmt.Errorf("workers %d exceeds max int", workers)
	}

	p := &pool{
		queue:   make(chan job, queueSize),
		process: process,
		logger:  log,
	}

	p.wg.Add(int(workers))
	for i := range workers {
		go p.worker(i)
	}
	return p, nil
}

// enqueue submits j without blocking. It reports false when the queue is full.
func (p *pool) enqueue(j job) bool {
	select {
	case p.queue <- j:
		p.logger.Debug("combination queued", "loading_id", j.loadingID)
		return true
	default:
		p.logger.Warn("combination queue full", "loading_id", j.loadingID)
		return false
	}
}

// close stops accepting jobs and waits for queued ones to finish. Callers
// must not enqueue after close.
func (p *pool) close() {
	close(p.queue)
	p.wg.Wait()
}

func (p *pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("combination worker started", "worker_id", id)

	for j := range p.queue {
		p.process(j)
	}

	p.logger.Debug("combination worker stopped", "worker_id", id)
}
