package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkarhu/ferry/internal/event"
)

// taskFor builds a FileTask for an existing file the same way the
// scanner would.
func taskFor(t *testing.T, srcPath, dstPath string) FileTask {
	t.Helper()
	info, err := os.Stat(srcPath)
	require.NoError(t, err)
	task, err := taskFromInfo(srcPath, dstPath, info)
	require.NoError(t, err)
	return task
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "dst.txt")

	data := []byte("worker copy test")
	require.NoError(t, os.WriteFile(src, data, 0o644))

	e := newTestEngine(t, Config{})
	err := e.copyFile(context.Background(), taskFor(t, src, dst))
	require.NoError(t, err)
	e.drainProgress()

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	snap := e.stats.Snapshot()
	assert.Equal(t, int64(1), snap.FilesCopied)
	assert.Equal(t, int64(len(data)), snap.BytesCopied)
}

func TestCopyFile_Overwrite(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "dst.txt")

	require.NoError(t, os.WriteFile(src, []byte("new content"), 0o644))
	require.NoError(t, os.WriteFile(dst, []byte("old"), 0o644))

	e := newTestEngine(t, Config{})
	err := e.copyFile(context.Background(), taskFor(t, src, dst))
	require.NoError(t, err)

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, []byte("new content"), got)
}

func TestCopyFile_SameFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "same.txt")
	require.NoError(t, os.WriteFile(src, []byte("do not clobber"), 0o644))

	events, getEvents := collectEvents(t)
	e := newTestEngine(t, Config{Events: events})

	// Tolerated failure: recorded, not returned.
	err := e.copyFile(context.Background(), taskFor(t, src, src))
	require.NoError(t, err)

	got, err := os.ReadFile(src)
	require.NoError(t, err)
	assert.Equal(t, []byte("do not clobber"), got)
	assert.Equal(t, int64(1), e.stats.Snapshot().FilesFailed)

	fe, ok := firstEvent(getEvents(), event.FileFailed)
	require.True(t, ok)
	require.Error(t, fe.Error)
	assert.Contains(t, fe.Error.Error(), "same file")
}

func TestCopyFile_MissingSource(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "dst.txt")

	require.NoError(t, os.WriteFile(src, []byte("fleeting"), 0o644))
	task := taskFor(t, src, dst)
	require.NoError(t, os.Remove(src))

	e := newTestEngine(t, Config{})
	err := e.copyFile(context.Background(), task)
	require.NoError(t, err)

	assert.Equal(t, int64(1), e.stats.Snapshot().FilesFailed)
	assert.NoFileExists(t, dst)
}

func TestCopyFile_ZeroByte(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "empty.txt")
	dst := filepath.Join(dir, "empty-copy.txt")
	require.NoError(t, os.WriteFile(src, nil, 0o644))

	e := newTestEngine(t, Config{})
	err := e.copyFile(context.Background(), taskFor(t, src, dst))
	require.NoError(t, err)

	info, err := os.Stat(dst)
	require.NoError(t, err)
	assert.Zero(t, info.Size())
	assert.Equal(t, int64(1), e.stats.Snapshot().FilesCopied)
}

func TestCopyFile_Preserve(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "dst.txt")

	require.NoError(t, os.WriteFile(src, []byte("preserved"), 0o640))
	modTime := time.Date(2021, 3, 9, 8, 30, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(src, modTime, modTime))

	e := newTestEngine(t, Config{Preserve: true})
	err := e.copyFile(context.Background(), taskFor(t, src, dst))
	require.NoError(t, err)

	info, err := os.Stat(dst)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())
	assert.True(t, info.ModTime().Equal(modTime),
		"mtime: got %v, want %v", info.ModTime(), modTime)
}

func TestCopyFile_Fsync(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "dst.txt")
	require.NoError(t, os.WriteFile(src, []byte("durable"), 0o644))

	e := newTestEngine(t, Config{Fsync: true})
	err := e.copyFile(context.Background(), taskFor(t, src, dst))
	require.NoError(t, err)
	assert.Equal(t, hashFile(t, src), hashFile(t, dst))
}

func TestCopyFile_Limit(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.bin")
	dst := filepath.Join(dir, "dst.bin")

	data := []byte("0123456789abcdef")
	require.NoError(t, os.WriteFile(src, data, 0o644))

	e := newTestEngine(t, Config{Limit: 4})
	err := e.copyFile(context.Background(), taskFor(t, src, dst))
	require.NoError(t, err)

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, data[:4], got)
}

func TestCopyFile_Events(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "dst.txt")
	require.NoError(t, os.WriteFile(src, []byte("observable"), 0o644))

	events, getEvents := collectEvents(t)
	e := newTestEngine(t, Config{Events: events})

	err := e.copyFile(context.Background(), taskFor(t, src, dst))
	require.NoError(t, err)
	e.drainProgress()

	collected := getEvents()
	started, ok := firstEvent(collected, event.FileStarted)
	require.True(t, ok)
	assert.Equal(t, dst, started.Path)

	completed, ok := firstEvent(collected, event.FileCompleted)
	require.True(t, ok)
	assert.Equal(t, dst, completed.Path)
	assert.Equal(t, int64(10), completed.Size)
	assert.NotEmpty(t, completed.Method)
}

func TestCreateSymlink(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "link")

	e := newTestEngine(t, Config{})
	err := e.createSymlink(FileTask{
		DstPath:    dst,
		LinkTarget: "target.txt",
		Type:       Symlink,
	})
	require.NoError(t, err)

	target, err := os.Readlink(dst)
	require.NoError(t, err)
	assert.Equal(t, "target.txt", target)
	assert.Equal(t, int64(1), e.stats.Snapshot().FilesCopied)
}

func TestCreateSymlink_ReplacesExisting(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "link")
	require.NoError(t, os.Symlink("stale.txt", dst))

	e := newTestEngine(t, Config{})
	err := e.createSymlink(FileTask{
		DstPath:    dst,
		LinkTarget: "fresh.txt",
		Type:       Symlink,
	})
	require.NoError(t, err)

	target, err := os.Readlink(dst)
	require.NoError(t, err)
	assert.Equal(t, "fresh.txt", target)
}

func TestMakeDirs(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "dst")

	dirs := []FileTask{
		{DstPath: dst, Mode: 0o755, Type: Dir},
		{DstPath: filepath.Join(dst, "sub"), Mode: 0o755, Type: Dir},
		{DstPath: filepath.Join(dst, "sub", "deep"), Mode: 0o755, Type: Dir},
	}

	e := newTestEngine(t, Config{})
	e.makeDirs(dirs)

	for _, d := range dirs {
		assert.DirExists(t, d.DstPath)
	}
	assert.Equal(t, int64(3), e.stats.Snapshot().DirsCreated)
}

func TestRestoreDirTimes(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "dst")

	modTime := time.Date(2019, 11, 2, 4, 15, 0, 0, time.UTC)
	dirs := []FileTask{{DstPath: dst, Mode: 0o755, ModTime: modTime, Type: Dir}}

	e := newTestEngine(t, Config{Preserve: true})
	e.makeDirs(dirs)

	// Adding an entry bumps the dir's mtime; the restore pass puts it back.
	require.NoError(t, os.WriteFile(filepath.Join(dst, "entry.txt"), []byte("x"), 0o644))
	e.restoreDirTimes(dirs)

	info, err := os.Stat(dst)
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(modTime),
		"mtime: got %v, want %v", info.ModTime(), modTime)
}

func TestFileFailed(t *testing.T) {
	events, getEvents := collectEvents(t)
	e := newTestEngine(t, Config{Events: events})

	err := e.fileFailed(FileTask{DstPath: "/tmp/x"}, assert.AnError)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), e.stats.Snapshot().FilesFailed)

	fe, ok := firstEvent(getEvents(), event.FileFailed)
	require.True(t, ok)
	assert.Equal(t, "/tmp/x", fe.Path)
	assert.ErrorIs(t, fe.Error, assert.AnError)
}
