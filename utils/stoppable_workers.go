// Package utils contains small concurrency helpers shared by the viewer packages.
package utils

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	goutils "go.viam.com/utils"
)

// StoppableWorkers is a group of goroutines sharing one cancelable context. The viewer uses one
// group per long-lived loop: frame delivery, stats reporting, config watching.
type StoppableWorkers interface {
	AddWorkers(...func(context.Context))
	Stop()
	Context() context.Context
}

type stoppableWorkers struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup
}

// NewStoppableWorkers starts each function on its own goroutine.
func NewStoppableWorkers(funcs ...func(context.Context)) StoppableWorkers {
	return NewStoppableWorkersWithContext(context.Background(), funcs...)
}

// NewStoppableWorkersWithContext is NewStoppableWorkers with the workers' context derived from ctx,
// so canceling ctx also stops them. Stop must still be called to wait for them.
func NewStoppableWorkersWithContext(ctx context.Context, funcs ...func(context.Context)) StoppableWorkers {
	workerCtx, cancel := context.WithCancel(ctx)
	sw := &stoppableWorkers{ctx: workerCtx, cancel: cancel}
	sw.AddWorkers(funcs...)
	return sw
}

// AddWorkers starts more goroutines. After Stop it starts nothing.
func (sw *stoppableWorkers) AddWorkers(funcs ...func(context.Context)) {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	if sw.stopped {
		return
	}
	for _, f := range funcs {
		sw.wg.Add(1)
		goutils.PanicCapturingGo(func() {
			defer sw.wg.Done()
			f(sw.ctx)
		})
	}
}

// Stop cancels the workers' context and blocks until every worker has returned. Calling it again
// returns immediately once the first call has finished.
func (sw *stoppableWorkers) Stop() {
	sw.mu.Lock()
	sw.stopped = true
	sw.mu.Unlock()

	sw.cancel()
	sw.wg.Wait()
}

// Context is the context handed to every worker.
func (sw *stoppableWorkers) Context() context.Context {
	return sw.ctx
}

// TickerWorker returns a worker calling fn on every tick until its context is done. The ticker is
// created here, before the worker starts, so a mock clock advanced right after the worker is added
// still fires it.
func TickerWorker(clk clock.Clock, interval time.Duration, fn func(ctx context.Context)) func(context.Context) {
	ticker := clk.Ticker(interval)
	return func(ctx context.Context) {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			fn(ctx)
		}
	}
}
