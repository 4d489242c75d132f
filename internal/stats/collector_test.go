package stats

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorParallelAdds(t *testing.T) {
	c := NewCollector()
	const workers = 64
	const perWorker = 500

	var wg sync.WaitGroup
	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			for range perWorker {
				c.AddFilesScanned(1)
				c.AddFilesCopied(1)
				c.AddFilesFailed(1)
				c.AddFilesSkipped(1)
				c.AddBytesCopied(512)
				c.AddDirsCreated(1)
				c.AddFilesVerified(1)
				c.AddFilesVerifyFailed(1)
			}
		}()
	}
	wg.Wait()

	s := c.Snapshot()
	want := int64(workers * perWorker)
	assert.Equal(t, want, s.FilesScanned)
	assert.Equal(t, want, s.FilesCopied)
	assert.Equal(t, want, s.FilesFailed)
	assert.Equal(t, want, s.FilesSkipped)
	assert.Equal(t, want*512, s.BytesCopied)
	assert.Equal(t, want, s.DirsCreated)
	assert.Equal(t, want, s.FilesVerified)
	assert.Equal(t, want, s.FilesVerifyFailed)
}

func TestCollectorStartsNow(t *testing.T) {
	c := NewCollector()
	assert.False(t, c.started.IsZero())
	assert.InDelta(t, 0, c.Elapsed().Seconds(), 1)
}

func TestTotals(t *testing.T) {
	c := NewCollector()

	c.AddFilesTotal(7)
	c.AddBytesTotal(900)
	c.AddFilesTotal(3)
	c.AddBytesTotal(100)
	s := c.Snapshot()
	assert.Equal(t, int64(10), s.FilesTotal)
	assert.Equal(t, int64(1000), s.BytesTotal)

	// SetTotals replaces whatever the incremental adds accumulated.
	c.SetTotals(42, 4096)
	s = c.Snapshot()
	assert.Equal(t, int64(42), s.FilesTotal)
	assert.Equal(t, int64(4096), s.BytesTotal)
}

func TestRollingSpeedSteadyRate(t *testing.T) {
	c := NewCollector()

	for range 8 {
		c.AddBytesCopied(2048)
		c.AddFilesCopied(4)
		c.Tick()
	}

	assert.InDelta(t, 2048.0, c.RollingSpeed(8), 0.01)
	assert.InDelta(t, 4.0, c.RollingFilesPerSec(8), 0.01)
}

func TestRollingSpeedShortHistory(t *testing.T) {
	c := NewCollector()

	c.AddBytesCopied(300)
	c.Tick()
	c.AddBytesCopied(500)
	c.Tick()

	// A 10 second window over 2 samples averages just those 2.
	assert.InDelta(t, 400.0, c.RollingSpeed(10), 0.01)
}

func TestRollingSpeedEmpty(t *testing.T) {
	c := NewCollector()
	assert.Equal(t, 0.0, c.RollingSpeed(5))
}

func TestRingOverwritesOldest(t *testing.T) {
	c := NewCollector()

	// Burst first, then settle; after wrapping, the burst must be gone.
	c.AddBytesCopied(1 << 20)
	c.Tick()
	for range ringSize {
		c.AddBytesCopied(100)
		c.Tick()
	}

	assert.InDelta(t, 100.0, c.RollingSpeed(ringSize), 0.01)
}

func TestETAFromRollingSpeed(t *testing.T) {
	c := NewCollector()
	c.SetTotals(20, 8000)

	for range 4 {
		c.AddBytesCopied(1000)
		c.Tick()
	}

	// 4000 left at 1000/sec.
	assert.InDelta(t, 4.0, c.ETA().Seconds(), 1.0)
}

func TestETAUnknownWithoutSamples(t *testing.T) {
	c := NewCollector()
	c.SetTotals(20, 8000)
	assert.Equal(t, time.Duration(0), c.ETA())
}

func TestETAZeroWhenDone(t *testing.T) {
	c := NewCollector()
	c.SetTotals(1, 500)
	c.AddBytesCopied(500)
	c.Tick()
	assert.Equal(t, time.Duration(0), c.ETA())
}

func TestSnapshotCarriesElapsed(t *testing.T) {
	c := NewCollector()
	time.Sleep(10 * time.Millisecond)
	assert.Greater(t, c.Snapshot().Elapsed, time.Duration(0))
}

func TestSnapshotString(t *testing.T) {
	s := Snapshot{
		FilesScanned:  12,
		FilesCopied:   9,
		FilesFailed:   2,
		FilesSkipped:  1,
		BytesCopied:   65536,
		DirsCreated:   4,
		FilesVerified: 9,
	}
	assert.Equal(t,
		"scanned=12 copied=9 failed=2 skipped=1 bytes=65536 dirs=4 verified=9",
		s.String())
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{999, "999 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{1048064, "1023.5 KiB"},
		{1 << 20, "1.0 MiB"},
		{3 << 30, "3.0 GiB"},
		{1 << 40, "1.0 TiB"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			require.Equal(t, tt.want, FormatBytes(tt.in))
		})
	}
}
