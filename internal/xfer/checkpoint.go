package xfer

import "context"

// checkpoint tracks the two counters every copy loop shares: the cumulative
// byte count and the bytes accumulated since the last checkpoint. Crossing
// CheckpointBytes polls the context and dispatches a progress snapshot. The
// cancellation check comes first, so a canceled copy never reports the
// checkpoint it died on.
type checkpoint struct {
	ctx      context.Context
	executor Executor
	fn       ProgressFunc
	copied   int64
	interval int64
}

// advance accounts n freshly copied bytes. At a checkpoint boundary it
// returns the context error if the copy was canceled.
func (c *checkpoint) advance(n int64) error {
	c.copied += n
	c.interval += n
	if c.interval >= CheckpointBytes {
		if err := c.ctx.Err(); err != nil {
			return err
		}
		c.dispatch()
		c.interval = 0
	}
	return nil
}

// finish dispatches the final snapshot. It runs whenever a copy concludes
// normally, so listeners observe the true total even when the last chunk
// never crossed a checkpoint.
func (c *checkpoint) finish() {
	c.dispatch()
}

func (c *checkpoint) dispatch() {
	if c.executor == nil || c.fn == nil {
		return
	}
	copied := c.copied
	c.executor.Execute(func() { c.fn(copied) })
}
