package xfer

import (
	"context"
	"io"
	"math"
	"os"
	"sync/atomic"
)

// CheckpointBytes is the transfer quantum. Copy loops move at most this
// many bytes per chunk, and each time this many bytes accumulate the loop
// polls for cancellation and dispatches a progress snapshot.
const CheckpointBytes = 512 * 1024

// Method identifies which transfer strategy moves the bytes.
type Method int

const (
	Userspace Method = iota
	Sendfile         // Linux sendfile(2), regular file to regular file
	Splice           // Linux splice(2), pipe on either side
)

func (m Method) String() string {
	switch m {
	case Userspace:
		return "userspace"
	case Sendfile:
		return "sendfile"
	case Splice:
		return "splice"
	default:
		return "unknown"
	}
}

// fastPathsOff gates the kernel fast paths process-wide. Zero value means
// fast paths are enabled.
var fastPathsOff atomic.Bool

// SetFastPaths enables or disables the kernel fast paths for the whole
// process. With fast paths disabled every copy takes the userspace loop,
// which is useful in constrained or test environments.
func SetFastPaths(enabled bool) { fastPathsOff.Store(!enabled) }

// FastPathsEnabled reports whether kernel fast paths may be used.
func FastPathsEnabled() bool { return !fastPathsOff.Load() }

// ProgressFunc receives the cumulative number of bytes copied so far.
type ProgressFunc func(copied int64)

// Option configures a single Copy call.
type Option func(*options)

type options struct {
	limit    int64
	executor Executor
	progress ProgressFunc
}

// WithLimit caps the number of bytes copied. A non-positive n means
// unbounded: copy until the source is exhausted.
func WithLimit(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.limit = n
		}
	}
}

// WithProgress registers a progress listener. Snapshots of the cumulative
// byte count are dispatched through ex at every checkpoint and once more
// when the copy concludes; callbacks never run inside the transfer loop.
func WithProgress(ex Executor, fn ProgressFunc) Option {
	return func(o *options) {
		o.executor = ex
		o.progress = fn
	}
}

// DetectMethod reports the strategy Copy would choose for the given
// endpoints without moving any bytes. A classification failure reports
// Userspace here; Copy itself treats it as fatal.
func DetectMethod(dst io.Writer, src io.Reader) Method {
	srcFile, srcOK := src.(*os.File)
	dstFile, dstOK := dst.(*os.File)
	if !srcOK || !dstOK || !FastPathsEnabled() {
		return Userspace
	}
	method, err := classify(srcFile, dstFile)
	if err != nil {
		return Userspace
	}
	return method
}

// Copy copies bytes from src to dst, choosing the cheapest mechanism the
// endpoints allow, and returns the number of bytes copied. When both
// endpoints are *os.File and fast paths are enabled the endpoints are
// classified by fstat: regular file to regular file takes the sendfile
// loop, a pipe on either side takes the splice loop, everything else falls
// back to the userspace loop. A failed classification aborts before any
// bytes move.
//
// ctx is polled at checkpoint boundaries only; on cancellation Copy
// returns ctx.Err() along with the count of bytes copied before the abort.
// Copy never closes either endpoint.
func Copy(ctx context.Context, dst io.Writer, src io.Reader, opts ...Option) (int64, error) {
	o := options{limit: math.MaxInt64}
	for _, opt := range opts {
		opt(&o)
	}
	cp := &checkpoint{ctx: ctx, executor: o.executor, fn: o.progress}

	srcFile, srcOK := src.(*os.File)
	dstFile, dstOK := dst.(*os.File)
	if srcOK && dstOK && FastPathsEnabled() {
		method, err := classify(srcFile, dstFile)
		if err != nil {
			return 0, err
		}
		switch method {
		case Sendfile:
			return copySendfile(dstFile, srcFile, o.limit, cp)
		case Splice:
			return copySplice(dstFile, srcFile, o.limit, cp)
		}
	}
	return copyUserspace(dst, src, o.limit, cp)
}
