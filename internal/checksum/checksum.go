package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Reader streams r through SHA-256 and returns the hex digest.
func Reader(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("checksum: read: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Opener opens a file for reading. storage.Provider satisfies it.
type Opener interface {
	Open(path string) (io.ReadCloser, error)
}

// File returns the digest of the file at path as seen through o.
func File(o Opener, path string) (string, error) {
	rc, err := o.Open(path)
	if err != nil {
		return "", err
	}
	defer rc.Close()
	return Reader(rc)
}

// Identical reports whether a and b have byte-identical content.
func Identical(o Opener, a, b string) (bool, error) {
	ha, err := File(o, a)
	if err != nil {
		return false, err
	}
	hb, err := File(o, b)
	if err != nil {
		return false, err
	}
	return ha == hb, nil
}
