// Package parallel evaluates independent per-momentum work on a bounded set of goroutines.
//
// A [Pool] is shared by every species for the lifetime of a run. Each
// [Pool.Submit] call fans the points of one grid out over the pool and
// returns a [Handle]; [Handle.Get] blocks until every point has been
// evaluated and returns the results in the order the points were given.
//
// # Example
//
//	pool := parallel.NewPool(runtime.NumCPU())
//	defer pool.Close()
//	h := pool.Submit(ctx, particle.CollisionAt, particle.Grid().Points())
//	values, err := h.Get(parallel.DefaultTimeout)
package parallel

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

var (
	// ErrTimeout indicates a result that was not ready before the deadline.
	ErrTimeout = errors.New("parallel: timed out waiting for result")

	// ErrClosed indicates a submission to a closed pool.
	ErrClosed = errors.New("parallel: pool is closed")
)

// DefaultTimeout bounds the wait for one species' collision integral.
const DefaultTimeout = 1000 * time.Second

// PointFunc evaluates one sample point.
type PointFunc func(p float64) (float64, error)

// Pool limits the number of PointFunc calls running at once across all submissions.
type Pool struct {
	size int
	sem  *semaphore.Weighted

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewPool returns a pool running at most size points concurrently.
// A size below one yields a disabled pool; see [Pool.Enabled].
func NewPool(size int) *Pool {
	if size < 1 {
		return &Pool{}
	}
	return &Pool{size: size, sem: semaphore.NewWeighted(int64(size))}
}

// Enabled reports whether the pool runs work concurrently. Callers fall back
// to the serial path when it does not.
func (p *Pool) Enabled() bool { return p != nil && p.size > 0 }

func (p *Pool) Size() int { return p.size }

// Submit schedules fn over points and returns immediately. On a disabled pool
// the points are evaluated on a single background goroutine.
func (p *Pool) Submit(ctx context.Context, fn PointFunc, points []float64) *Handle {
	h := &Handle{done: make(chan struct{})}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		h.err = ErrClosed
		close(h.done)
		return h
	}
	p.wg.Add(1)
	p.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	var once sync.Once
	h.cancel = cancel
	h.release = func() { once.Do(p.wg.Done) }

	go func() {
		defer h.release()
		defer cancel()
		defer close(h.done)
		h.values, h.err = p.run(ctx, fn, points)
	}()
	return h
}

func (p *Pool) run(ctx context.Context, fn PointFunc, points []float64) ([]float64, error) {
	out := make([]float64, len(points))

	if !p.Enabled() {
		for i, pt := range points {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			v, err := fn(pt)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, pt := range points {
		if err := p.sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer p.sem.Release(1)
			v, err := fn(pt)
			if err != nil {
				return err
			}
			out[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	// a failed Acquire without a task error means the caller gave up
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Close waits for in-flight submissions that were not cancelled and rejects
// new ones. It is safe to call more than once.
func (p *Pool) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.wg.Wait()
}

// Handle is the pending result of one submission.
type Handle struct {
	done    chan struct{}
	values  []float64
	err     error
	cancel  context.CancelFunc
	release func()
}

// Get blocks until the result is ready or timeout elapses. A non-positive
// timeout waits indefinitely.
func (h *Handle) Get(timeout time.Duration) ([]float64, error) {
	if timeout <= 0 {
		<-h.done
		return h.values, h.err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-h.done:
		return h.values, h.err
	case <-timer.C:
		return nil, ErrTimeout
	}
}

// Done is closed once the result is available.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Cancel stops the submission from starting further points and detaches it
// from [Pool.Close]. Points already running are not interrupted; a PointFunc
// that never returns leaks its goroutine.
func (h *Handle) Cancel() {
	if h.cancel != nil {
		h.cancel()
	}
	if h.release != nil {
		h.release()
	}
}
