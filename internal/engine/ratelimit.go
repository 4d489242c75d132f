package engine

import (
	"context"
	"io"

	"golang.org/x/time/rate"
)

// NewBWLimiter builds the shared token bucket for a bytes/sec cap. The
// burst is one second of budget, capped at 1 MB so ordinary read-sized
// chunks pass without blocking.
func NewBWLimiter(bytesPerSec int64) *rate.Limiter {
	burst := int(min(bytesPerSec, 1<<20))
	return rate.NewLimiter(rate.Limit(bytesPerSec), burst)
}

// rateLimitedReader throttles reads against a shared bucket. Wrapping the
// source also hides its concrete type, so throttled copies always run the
// userspace loop rather than a kernel fast path.
type rateLimitedReader struct {
	r      io.Reader
	bucket *rate.Limiter
	ctx    context.Context
}

func newRateLimitedReader(ctx context.Context, r io.Reader, l *rate.Limiter) *rateLimitedReader {
	return &rateLimitedReader{r: r, bucket: l, ctx: ctx}
}

// Read reads first and waits out the token debt afterwards, which keeps
// short final reads cheap. Reads are capped at the bucket's burst so a
// tiny limit cannot push WaitN past what it will ever grant.
func (rl *rateLimitedReader) Read(p []byte) (int, error) {
	if b := rl.bucket.Burst(); b > 0 && len(p) > b {
		p = p[:b]
	}
	n, err := rl.r.Read(p)
	if n == 0 {
		return n, err
	}
	if werr := rl.bucket.WaitN(rl.ctx, n); werr != nil {
		return n, werr
	}
	return n, err
}
