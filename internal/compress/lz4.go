package compress

import (
	"fmt"

	"github.com/pierrec/lz4/v4"
)

// LZ4 is the lz4 block codec. It is not safe for concurrent use.
type LZ4 struct {
	c lz4.Compressor
}

// NewLZ4 returns an lz4 codec.
func NewLZ4() *LZ4 { return &LZ4{} }

func (*LZ4) Name() string { return "lz4" }

func (z *LZ4) Compress(dst, src []byte) ([]byte, bool, error) {
	start := len(dst)
	dst = grow(dst, lz4.CompressBlockBound(len(src)))
	n, err := z.c.CompressBlock(src, dst[start:])
	if err != nil {
		return nil, false, err
	}
	if n == 0 || n >= len(src) {
		return nil, false, nil
	}
	return dst[:start+n], true, nil
}

func (*LZ4) Decompress(dst, src []byte, rawLen int) ([]byte, error) {
	start := len(dst)
	dst = grow(dst, rawLen)
	n, err := lz4.UncompressBlock(src, dst[start:])
	if err != nil {
		return nil, err
	}
	if n != rawLen {
		return nil, fmt.Errorf("got %d bytes, want %d", n, rawLen)
	}
	return dst[:start+n], nil
}

func (*LZ4) Close() error { return nil }

// grow extends dst by n bytes, reallocating when capacity is short.
func grow(dst []byte, n int) []byte {
	if cap(dst)-len(dst) < n {
		nd := make([]byte, len(dst), len(dst)+n)
		copy(nd, dst)
		dst = nd
	}
	return dst[:len(dst)+n]
}
