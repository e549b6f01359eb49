package extract

import (
	"context"
	"runtime"

	"golang.org/x/sync/semaphore"
)

// Pool bounds how many documents are parsed at once. Parsing is CPU bound,
// so concurrent requests queue here instead of oversubscribing the CPUs.
type Pool struct {
	sem *semaphore.Weighted
}

// NewPool returns a Pool admitting size concurrent extractions; size <= 0
// means one per CPU.
func NewPool(size int) *Pool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	return &Pool{sem: semaphore.NewWeighted(int64(size))}
}

// Extract waits for a slot, then runs Text. It returns ctx.Err() if the
// caller gives up while waiting.
func (p *Pool) Extract(ctx context.Context, data []byte, format Format) (string, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer p.sem.Release(1)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return Text(data, format)
}
