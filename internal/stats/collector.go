package stats

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// ringSize is one sample per second, so the ring holds a minute of history.
const ringSize = 60

// Collector accumulates transfer counters. The hot-path Add methods are
// lock-free so workers never contend with each other or the presenter.
type Collector struct {
	scanned      atomic.Int64
	copied       atomic.Int64
	failed       atomic.Int64
	skipped      atomic.Int64
	copiedBytes  atomic.Int64
	dirs         atomic.Int64
	totalBytes   atomic.Int64
	totalFiles   atomic.Int64
	verified     atomic.Int64
	verifyFailed atomic.Int64
	started      time.Time

	// Ring state. Only the presenter's Tick writes here, once a second.
	mu        sync.Mutex
	byteRing  [ringSize]int64
	fileRing  [ringSize]int64
	head      int // next slot to write
	fill      int // samples written so far, capped at ringSize
	prevBytes int64
	prevFiles int64
}

// NewCollector returns a Collector whose elapsed clock starts now.
func NewCollector() *Collector {
	return &Collector{started: time.Now()}
}

func (c *Collector) AddFilesScanned(n int64)      { c.scanned.Add(n) }
func (c *Collector) AddFilesCopied(n int64)       { c.copied.Add(n) }
func (c *Collector) AddFilesFailed(n int64)       { c.failed.Add(n) }
func (c *Collector) AddFilesSkipped(n int64)      { c.skipped.Add(n) }
func (c *Collector) AddBytesCopied(n int64)       { c.copiedBytes.Add(n) }
func (c *Collector) AddDirsCreated(n int64)       { c.dirs.Add(n) }
func (c *Collector) AddFilesVerified(n int64)     { c.verified.Add(n) }
func (c *Collector) AddFilesVerifyFailed(n int64) { c.verifyFailed.Add(n) }

// SetTotals overwrites the expected totals once the scan has finished.
func (c *Collector) SetTotals(files, bytes int64) {
	c.totalFiles.Store(files)
	c.totalBytes.Store(bytes)
}

// AddFilesTotal grows the expected file count while the scan is still running.
func (c *Collector) AddFilesTotal(n int64) { c.totalFiles.Add(n) }

// AddBytesTotal grows the expected byte count while the scan is still running.
func (c *Collector) AddBytesTotal(n int64) { c.totalBytes.Add(n) }

// Snapshot is a point-in-time read of every counter.
type Snapshot struct {
	FilesScanned      int64
	FilesCopied       int64
	FilesFailed       int64
	FilesSkipped      int64
	BytesCopied       int64
	DirsCreated       int64
	BytesTotal        int64
	FilesTotal        int64
	FilesVerified     int64
	FilesVerifyFailed int64
	Elapsed           time.Duration
}

// Snapshot reads all counters. Each load is atomic; the set as a whole is
// only as consistent as concurrent writers allow, which is fine for display.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		FilesScanned:      c.scanned.Load(),
		FilesCopied:       c.copied.Load(),
		FilesFailed:       c.failed.Load(),
		FilesSkipped:      c.skipped.Load(),
		BytesCopied:       c.copiedBytes.Load(),
		DirsCreated:       c.dirs.Load(),
		BytesTotal:        c.totalBytes.Load(),
		FilesTotal:        c.totalFiles.Load(),
		FilesVerified:     c.verified.Load(),
		FilesVerifyFailed: c.verifyFailed.Load(),
		Elapsed:           c.Elapsed(),
	}
}

func (s Snapshot) String() string {
	return fmt.Sprintf(
		"scanned=%d copied=%d failed=%d skipped=%d bytes=%d dirs=%d verified=%d",
		s.FilesScanned, s.FilesCopied, s.FilesFailed, s.FilesSkipped,
		s.BytesCopied, s.DirsCreated, s.FilesVerified,
	)
}

// Tick records the byte/file deltas since the previous Tick into the ring.
// The presenter drives this at one call per second.
func (c *Collector) Tick() {
	nowBytes := c.copiedBytes.Load()
	nowFiles := c.copied.Load()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.byteRing[c.head] = nowBytes - c.prevBytes
	c.fileRing[c.head] = nowFiles - c.prevFiles
	c.prevBytes = nowBytes
	c.prevFiles = nowFiles

	c.head = (c.head + 1) % ringSize
	if c.fill < ringSize {
		c.fill++
	}
}

// RollingSpeed averages bytes/sec over the newest seconds samples.
func (c *Collector) RollingSpeed(seconds int) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.avgNewest(c.byteRing[:], seconds)
}

// RollingFilesPerSec averages files/sec over the newest seconds samples.
func (c *Collector) RollingFilesPerSec(seconds int) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.avgNewest(c.fileRing[:], seconds)
}

// avgNewest walks backwards from the newest sample. Caller holds mu.
func (c *Collector) avgNewest(ring []int64, want int) float64 {
	n := min(want, c.fill)
	if n == 0 {
		return 0
	}
	var sum int64
	idx := c.head
	for range n {
		idx = (idx - 1 + ringSize) % ringSize
		sum += ring[idx]
	}
	return float64(sum) / float64(n)
}

// ETA projects the remaining bytes at the 10 second rolling speed.
// Zero means unknown or already done.
func (c *Collector) ETA() time.Duration {
	speed := c.RollingSpeed(10)
	if speed <= 0 {
		return 0
	}
	left := c.totalBytes.Load() - c.copiedBytes.Load()
	if left <= 0 {
		return 0
	}
	return time.Duration(float64(left)/speed) * time.Second
}

// Elapsed is the time since the Collector was created.
func (c *Collector) Elapsed() time.Duration {
	return time.Since(c.started)
}

// FormatBytes renders b with a binary unit suffix, one decimal place.
func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	val := float64(b) / unit
	suffixes := "KMGTPE"
	i := 0
	for val >= unit && i < len(suffixes)-1 {
		val /= unit
		i++
	}
	return fmt.Sprintf("%.1f %ciB", val, suffixes[i])
}
