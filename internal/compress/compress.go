// Package compress packs each chunk of a bsv stream into one compressed chunk
// and restores the exact original chunking on the way back.
//
// A packed chunk body is
//
//	[raw length u32][method u8][payload]
//
// where method 0 stores the payload as-is (used when the codec cannot make a
// chunk smaller) and method 1 means the payload is codec output.
package compress

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"

	"bsv/internal/bsv"
)

const (
	methodStored     = 0
	methodCompressed = 1

	headerSize = 5

	// MaxChunkSize bounds the raw size of a chunk either direction.
	MaxChunkSize = 1 << 30
)

// Codec compresses and decompresses single blocks.
type Codec interface {
	// Name is the codec's short name, e.g. "lz4".
	Name() string
	// Compress appends the compressed form of src to dst. ok is false when
	// the output would not be smaller than src.
	Compress(dst, src []byte) (out []byte, ok bool, err error)
	// Decompress appends the decompressed form of src to dst. rawLen is the
	// expected output size.
	Decompress(dst, src []byte, rawLen int) ([]byte, error)
	Close() error
}

// Stats counts the work done by Pack or Unpack.
type Stats struct {
	Chunks      int64
	RawBytes    int64
	PackedBytes int64
}

// Pack compresses every chunk of r into one chunk on w.
func Pack(ctx context.Context, r *bsv.Reader, w io.Writer, c Codec) (Stats, error) {
	var (
		st  Stats
		out []byte
	)
	for {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		raw, err := r.NextChunk()
		if err == io.EOF {
			return st, nil
		}
		if err != nil {
			return st, err
		}
		if len(raw) > MaxChunkSize {
			return st, fmt.Errorf("%w: chunk of %d bytes exceeds %d", bsv.ErrCapacity, len(raw), MaxChunkSize)
		}

		out = out[:0]
		out = binary.LittleEndian.AppendUint32(out, uint32(len(raw)))
		out = append(out, methodCompressed)
		packed, ok, err := c.Compress(out, raw)
		if err != nil {
			return st, fmt.Errorf("%s compress chunk %d: %w", c.Name(), st.Chunks+1, err)
		}
		if ok {
			out = packed
		} else {
			out = append(out[:headerSize-1], methodStored)
			out = append(out, raw...)
		}

		if err := bsv.WriteChunk(w, out); err != nil {
			return st, err
		}
		st.Chunks++
		st.RawBytes += int64(len(raw))
		st.PackedBytes += int64(len(out))
	}
}

// Unpack restores the chunks written by Pack. Malformed packed chunks are
// reported as framing errors.
func Unpack(ctx context.Context, r *bsv.Reader, w io.Writer, c Codec) (Stats, error) {
	var (
		st  Stats
		out []byte
	)
	for {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		packed, err := r.NextChunk()
		if err == io.EOF {
			return st, nil
		}
		if err != nil {
			return st, err
		}
		n := st.Chunks + 1
		if len(packed) < headerSize {
			return st, fmt.Errorf("%w: packed chunk %d is %d bytes, shorter than its header", bsv.ErrFraming, n, len(packed))
		}
		rawLen := int(binary.LittleEndian.Uint32(packed))
		method, payload := packed[4], packed[headerSize:]
		if rawLen > MaxChunkSize {
			return st, fmt.Errorf("%w: packed chunk %d claims %d raw bytes", bsv.ErrFraming, n, rawLen)
		}

		var raw []byte
		switch method {
		case methodStored:
			if len(payload) != rawLen {
				return st, fmt.Errorf("%w: stored chunk %d has %d bytes, header says %d", bsv.ErrFraming, n, len(payload), rawLen)
			}
			raw = payload
		case methodCompressed:
			out, err = c.Decompress(out[:0], payload, rawLen)
			if err != nil {
				return st, fmt.Errorf("%w: %s decompress chunk %d: %v", bsv.ErrFraming, c.Name(), n, err)
			}
			if len(out) != rawLen {
				return st, fmt.Errorf("%w: chunk %d decompressed to %d bytes, header says %d", bsv.ErrFraming, n, len(out), rawLen)
			}
			raw = out
		default:
			return st, fmt.Errorf("%w: chunk %d has unknown method %d", bsv.ErrFraming, n, method)
		}

		if err := bsv.WriteChunk(w, raw); err != nil {
			return st, err
		}
		st.Chunks++
		st.RawBytes += int64(rawLen)
		st.PackedBytes += int64(len(packed))
	}
}

// ByName returns a fresh codec: "lz4" or "zstd".
func ByName(name string) (Codec, error) {
	switch name {
	case "lz4":
		return NewLZ4(), nil
	case "zstd":
		return NewZstd()
	}
	return nil, fmt.Errorf("compress: unknown codec %q", name)
}
