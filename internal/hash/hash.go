// Package hash computes xxh3-64 digests of byte streams.
package hash

import (
	"fmt"
	"io"
	"strconv"

	"github.com/zeebo/xxh3"
)

// copyBufSize matches the chunk size used across the tools.
const copyBufSize = 1 << 20

// Sum hashes everything read from r.
func Sum(r io.Reader) (uint64, error) {
	h := xxh3.New()
	if _, err := io.CopyBuffer(h, r, make([]byte, copyBufSize)); err != nil {
		return 0, fmt.Errorf("hash: %w", err)
	}
	return h.Sum64(), nil
}

// Tee copies r to w unchanged and returns the digest of the bytes copied.
func Tee(w io.Writer, r io.Reader) (uint64, error) {
	h := xxh3.New()
	if _, err := io.CopyBuffer(io.MultiWriter(w, h), r, make([]byte, copyBufSize)); err != nil {
		return 0, fmt.Errorf("hash: %w", err)
	}
	return h.Sum64(), nil
}

// Bytes hashes b in one call.
func Bytes(b []byte) uint64 {
	return xxh3.Hash(b)
}

// Format renders a digest as 16 lowercase hex digits, or as an unsigned
// decimal when decimal is set.
func Format(sum uint64, decimal bool) string {
	if decimal {
		return strconv.FormatUint(sum, 10)
	}
	return fmt.Sprintf("%016x", sum)
}
