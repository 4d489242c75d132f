package xfer

import (
	"fmt"
	"io"
	"math"
)

const userspaceBufSize = 8192

// copyUserspace copies through a small buffer for endpoints the kernel
// paths cannot serve. Bounded budgets wrap the source in an
// io.LimitedReader so budget exhaustion and end-of-source look the same to
// the loop. Short writes are errors; bytes are accounted after the write
// that persists them.
func copyUserspace(dst io.Writer, src io.Reader, limit int64, cp *checkpoint) (int64, error) {
	r := src
	if limit < math.MaxInt64 {
		r = io.LimitReader(src, limit)
	}

	buf := make([]byte, userspaceBufSize)
	var total int64
	for {
		n, rerr := r.Read(buf)
		if n > 0 {
			w, werr := dst.Write(buf[:n])
			if werr == nil && w < n {
				werr = io.ErrShortWrite
			}
			if werr != nil {
				return total + int64(w), fmt.Errorf("write: %w", werr)
			}
			total += int64(n)
			if err := cp.advance(int64(n)); err != nil {
				return total, err
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return total, fmt.Errorf("read: %w", rerr)
		}
	}

	cp.finish()
	return total, nil
}
