package xfer

import "sync"

// Executor runs progress callbacks outside the transfer loop. Every
// dispatch goes through the caller-supplied Executor; the engine never
// calls listeners synchronously.
type Executor interface {
	Execute(fn func())
}

// SerialExecutor runs submitted functions one at a time, in submission
// order, on a single background goroutine. Execute never blocks, so the
// transfer loop is never throttled by a slow listener.
type SerialExecutor struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []func()
	closed bool
	done   chan struct{}
}

// NewSerialExecutor starts the background goroutine and returns the executor.
func NewSerialExecutor() *SerialExecutor {
	e := &SerialExecutor{done: make(chan struct{})}
	e.cond = sync.NewCond(&e.mu)
	go e.run()
	return e
}

// Execute enqueues fn. Calls after Close are dropped.
func (e *SerialExecutor) Execute(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.queue = append(e.queue, fn)
	e.cond.Signal()
}

// Close drains previously submitted callbacks, stops the background
// goroutine, and waits for it to exit. Safe to call more than once.
func (e *SerialExecutor) Close() {
	e.mu.Lock()
	if !e.closed {
		e.closed = true
		e.cond.Signal()
	}
	e.mu.Unlock()
	<-e.done
}

func (e *SerialExecutor) run() {
	defer close(e.done)
	for {
		e.mu.Lock()
		for len(e.queue) == 0 && !e.closed {
			e.cond.Wait()
		}
		if len(e.queue) == 0 {
			e.mu.Unlock()
			return
		}
		fn := e.queue[0]
		e.queue = e.queue[1:]
		e.mu.Unlock()

		fn()
	}
}
