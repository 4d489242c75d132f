package fsutil

import (
	"fmt"
	"io"
	"os"
)

// ReadTextFile reads the file at path with a size cap. max > 0 keeps the
// first max bytes and appends ellipsis if the file was longer; max < 0
// keeps the last -max bytes and prepends ellipsis if anything was cut;
// max == 0 reads the whole file.
func ReadTextFile(path string, max int, ellipsis string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	switch {
	case max > 0:
		return readHead(f, path, max, ellipsis)
	case max < 0:
		return readTail(f, path, -max, ellipsis)
	default:
		data, err := io.ReadAll(f)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", path, err)
		}
		return string(data), nil
	}
}

func readHead(f *os.File, path string, max int, ellipsis string) (string, error) {
	buf := make([]byte, max+1)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	if n <= max {
		return string(buf[:n]), nil
	}
	return string(buf[:max]) + ellipsis, nil
}

// readTail keeps a rolling window of the last keep bytes using two
// buffers, so files of any size read in O(keep) memory.
func readTail(f *os.File, path string, keep int, ellipsis string) (string, error) {
	var prev, cur []byte
	rolled := false
	n := 0
	for {
		if prev != nil {
			rolled = true
		}
		prev, cur = cur, prev
		if cur == nil {
			cur = make([]byte, keep)
		}
		var err error
		n, err = io.ReadFull(f, cur)
		if n == len(cur) {
			continue
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read %s: %w", path, err)
		}
	}

	if prev == nil && n == 0 {
		return "", nil
	}
	if prev == nil {
		return string(cur[:n]), nil
	}
	if n > 0 {
		rolled = true
		prev = append(prev[n:], cur[:n]...)
	}
	if !rolled {
		return string(prev), nil
	}
	return ellipsis + string(prev), nil
}

// WriteTextFile writes contents to path, creating or truncating it, and
// flushes to stable storage before returning.
func WriteTextFile(path, contents string) error {
	return WriteBytesFile(path, []byte(contents))
}

// WriteBytesFile is WriteTextFile for raw bytes.
func WriteBytesFile(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
