package xfer

import (
	"fmt"
	"os"
	"time"
)

// sinkLinger is how long a sink waits before closing its read end once the
// buffer is full, giving a writer mid-write a chance to finish instead of
// seeing EPIPE. The pipe's own blocking semantics do the real
// synchronization; the value is a heuristic.
const sinkLinger = 50 * time.Millisecond

// MemoryPipe bridges an in-memory buffer and a real pipe endpoint, for
// callers that must hand a file descriptor to code expecting one. A source
// pipe exposes a read end that yields the buffer's contents; a sink pipe
// exposes a write end that fills the buffer. The background I/O is best
// effort: its errors are swallowed, and its half of the pipe is closed when
// it finishes so the peer never blocks forever.
type MemoryPipe struct {
	exposed  *os.File
	internal *os.File
	done     chan struct{}
}

// NewMemorySource returns a pipe whose read end yields the contents of
// data. A background goroutine feeds data into the write end and stops
// early if the reader goes away.
func NewMemorySource(data []byte) (*MemoryPipe, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("pipe: %w", err)
	}
	p := &MemoryPipe{exposed: r, internal: w, done: make(chan struct{})}
	go p.feed(data)
	return p, nil
}

// NewMemorySink returns a pipe whose write end fills data. A background
// goroutine drains the read end into data until the buffer is full or the
// writer goes away.
func NewMemorySink(data []byte) (*MemoryPipe, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("pipe: %w", err)
	}
	p := &MemoryPipe{exposed: w, internal: r, done: make(chan struct{})}
	go p.drain(data)
	return p, nil
}

// File returns the exposed endpoint: the read end of a source, the write
// end of a sink.
func (p *MemoryPipe) File() *os.File { return p.exposed }

// Done is closed once the background feeder or drainer has finished and
// released its end of the pipe. Close does not wait for it.
func (p *MemoryPipe) Done() <-chan struct{} { return p.done }

// Close closes the exposed endpoint only. The internal endpoint belongs to
// the background goroutine, which closes it when it finishes.
func (p *MemoryPipe) Close() error { return p.exposed.Close() }

func (p *MemoryPipe) feed(data []byte) {
	defer close(p.done)
	defer p.internal.Close()

	for off := 0; off < len(data); {
		n, err := p.internal.Write(data[off:])
		off += n
		if err != nil {
			return
		}
	}
}

func (p *MemoryPipe) drain(data []byte) {
	defer close(p.done)
	defer p.internal.Close()

	for off := 0; off < len(data); {
		n, err := p.internal.Read(data[off:])
		off += n
		if err != nil {
			return
		}
	}
	time.Sleep(sinkLinger)
}
