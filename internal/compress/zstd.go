package compress

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Zstd is the zstd block codec backed by one reusable encoder and decoder.
type Zstd struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewZstd returns a zstd codec at the default level.
func NewZstd() (*Zstd, error) {
	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderMaxMemory(MaxChunkSize),
	)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	return &Zstd{enc: enc, dec: dec}, nil
}

func (*Zstd) Name() string { return "zstd" }

func (z *Zstd) Compress(dst, src []byte) ([]byte, bool, error) {
	start := len(dst)
	out := z.enc.EncodeAll(src, dst)
	if len(out)-start >= len(src) {
		return nil, false, nil
	}
	return out, true, nil
}

func (z *Zstd) Decompress(dst, src []byte, rawLen int) ([]byte, error) {
	if cap(dst)-len(dst) < rawLen {
		nd := make([]byte, len(dst), len(dst)+rawLen)
		copy(nd, dst)
		dst = nd
	}
	return z.dec.DecodeAll(src, dst)
}

func (z *Zstd) Close() error {
	z.dec.Close()
	return z.enc.Close()
}
