package engine

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zeebo/blake3"

	"github.com/pkarhu/ferry/internal/event"
	"github.com/pkarhu/ferry/internal/filter"
	"github.com/pkarhu/ferry/internal/stats"
	"github.com/pkarhu/ferry/internal/xfer"
)

// treeFiles is the fixture tree most engine tests copy. big.bin is sized
// to cross several checkpoint intervals; everything else fits in one read.
// createTestTree adds a link.txt symlink pointing at root.txt on top.
var treeFiles = map[string][]byte{
	"root.txt":          []byte("root file content"),
	"big.bin":           bytes.Repeat([]byte("ABCDEFGHIJKLMNOP"), 20000),
	"sub/mid.txt":       []byte("middle file content"),
	"sub/deep/leaf.txt": []byte("leaf file content"),
}

// newTestEngine builds an engine for white-box tests. The executor is
// closed on cleanup; tests that assert on byte counters should call
// drainProgress first so pending callbacks are flushed.
func newTestEngine(t *testing.T, cfg Config) *engine {
	t.Helper()
	if cfg.Jobs < 1 {
		cfg.Jobs = 2
	}
	e := &engine{
		cfg:      cfg,
		stats:    cfg.Stats,
		executor: xfer.NewSerialExecutor(),
	}
	if e.stats == nil {
		e.stats = stats.NewCollector()
	}
	if len(cfg.Excludes) > 0 || len(cfg.Includes) > 0 {
		rules, err := filter.New(cfg.Excludes, cfg.Includes)
		require.NoError(t, err)
		e.rules = rules
	}
	t.Cleanup(e.executor.Close)
	return e
}

// drainProgress flushes pending progress callbacks so byte counters are
// final. The executor stays unusable afterwards.
func (e *engine) drainProgress() {
	e.executor.Close()
}

// createTestTree writes the treeFiles fixture under root.
func createTestTree(t *testing.T, root string) {
	t.Helper()

	for rel, data := range treeFiles {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, data, 0o644))
	}
	require.NoError(t, os.Symlink("root.txt", filepath.Join(root, "link.txt")))
}

// verifyTreeCopy checks that dstRoot holds a faithful copy of the fixture
// tree createTestTree wrote under srcRoot: file contents, directories and
// the symlink target. Extra entries in dstRoot are ignored.
func verifyTreeCopy(t *testing.T, srcRoot, dstRoot string) {
	t.Helper()

	for rel := range treeFiles {
		rel = filepath.FromSlash(rel)
		want, err := os.ReadFile(filepath.Join(srcRoot, rel))
		require.NoError(t, err, "read src %s", rel)
		got, err := os.ReadFile(filepath.Join(dstRoot, rel))
		require.NoError(t, err, "read dst %s", rel)
		require.Equal(t, want, got, "content mismatch: %s", rel)
	}

	for _, dir := range []string{"sub", "sub/deep"} {
		st, err := os.Stat(filepath.Join(dstRoot, filepath.FromSlash(dir)))
		require.NoError(t, err, "stat %s", dir)
		require.True(t, st.IsDir(), "%s: not a directory", dir)
	}

	target, err := os.Readlink(filepath.Join(dstRoot, "link.txt"))
	require.NoError(t, err)
	require.Equal(t, "root.txt", target, "link.txt must stay a relative symlink")
}

// hashFile returns the BLAKE3 digest of the file contents.
func hashFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	h := blake3.Sum256(data)
	return h[:]
}

// collectEvents returns a channel for Config.Events plus a getter that
// stops the recorder and hands back everything it saw. Tests that never
// call the getter still get the channel closed on cleanup.
func collectEvents(t *testing.T) (chan event.Event, func() []event.Event) {
	t.Helper()

	ch := make(chan event.Event, 4096)
	var (
		seen []event.Event
		done = make(chan struct{})
		once sync.Once
	)
	go func() {
		for ev := range ch {
			seen = append(seen, ev)
		}
		close(done)
	}()
	stop := func() {
		once.Do(func() { close(ch) })
		<-done
	}
	t.Cleanup(stop)

	return ch, func() []event.Event {
		stop()
		return seen
	}
}

// findTmpFiles walks root and returns every staging file left behind.
// A clean run returns none.
func findTmpFiles(t *testing.T, root string) []string {
	t.Helper()

	var leftover []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err == nil && strings.HasSuffix(d.Name(), tmpSuffix) {
			leftover = append(leftover, path)
		}
		return err
	})
	require.NoError(t, err)
	return leftover
}

// eventTypes maps collected events to the set of types seen.
func eventTypes(events []event.Event) map[event.Type]bool {
	seen := make(map[event.Type]bool)
	for _, ev := range events {
		seen[ev.Type] = true
	}
	return seen
}

// firstEvent returns the first collected event of the given type.
func firstEvent(events []event.Event, typ event.Type) (event.Event, bool) {
	for _, ev := range events {
		if ev.Type == typ {
			return ev, true
		}
	}
	return event.Event{}, false
}
