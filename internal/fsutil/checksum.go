package fsutil

import (
	"encoding/hex"
	"fmt"
	"hash/crc32"
	"io"
	"os"

	"github.com/zeebo/blake3"
)

// sumFile streams the file at path into the digest writer.
func sumFile(path string, digest io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if _, err := io.Copy(digest, f); err != nil {
		return fmt.Errorf("checksum %s: %w", path, err)
	}
	return nil
}

// ChecksumCRC32 computes the IEEE CRC-32 of the file at path.
func ChecksumCRC32(path string) (uint32, error) {
	h := crc32.NewIEEE()
	if err := sumFile(path, h); err != nil {
		return 0, err
	}
	return h.Sum32(), nil
}

// ChecksumBLAKE3 computes the BLAKE3 hash of the file at path, returning
// the hex-encoded digest.
func ChecksumBLAKE3(path string) (string, error) {
	h := blake3.New()
	if err := sumFile(path, h); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
