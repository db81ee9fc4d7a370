package bsv

import (
	"fmt"
	"io"
)

// Reader turns a chunk-framed byte stream into a logical stream from which
// fixed-size byte ranges are requested on demand, refilling at chunk
// boundaries.
//
// By default every chunk gets its own backing array and slices returned by
// Request, Take, NextChunk and Load stay valid for as long as the caller keeps
// them (a full-stream sort holds on to all of them). With ReuseChunks set, one
// backing array is recycled and returned slices are only valid until the next
// chunk is read.
type Reader struct {
	// ReuseChunks recycles chunk memory between refills. Set it for streaming
	// consumers that never retain rows past the next Load.
	ReuseChunks bool

	r     io.Reader
	chunk []byte // current chunk body
	off   int    // next unread byte in chunk
	hdr   [chunkHeaderSize]byte
	spare []byte
	eof   bool

	chunks int64
	bytes  int64
}

// NewReader returns a Reader consuming chunks from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Request returns the next n bytes of the stream, reading the next chunk when
// the current one is exhausted. It returns io.EOF once the stream has ended,
// and an error wrapping ErrFraming when the stream is truncated or a request
// would cross a chunk boundary.
func (r *Reader) Request(n int) ([]byte, error) {
	if r.off == len(r.chunk) {
		if err := r.fill(); err != nil {
			return nil, err
		}
	}
	return r.Take(n)
}

// Take returns the next n bytes of the current chunk without reading another
// one.
func (r *Reader) Take(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative request %d", ErrFraming, n)
	}
	left := len(r.chunk) - r.off
	if n > left {
		if r.eof && left == 0 {
			return nil, fmt.Errorf("%w: truncated row at end of stream", ErrFraming)
		}
		return nil, fmt.Errorf("%w: request for %d bytes with %d left in chunk", ErrFraming, n, left)
	}
	b := r.chunk[r.off : r.off+n : r.off+n]
	r.off += n
	return b, nil
}

// NextChunk returns the unread remainder of the current chunk, or the whole
// next chunk when the current one is exhausted.
func (r *Reader) NextChunk() ([]byte, error) {
	if r.off == len(r.chunk) {
		if err := r.fill(); err != nil {
			return nil, err
		}
	}
	b := r.chunk[r.off:len(r.chunk):len(r.chunk)]
	r.off = len(r.chunk)
	return b, nil
}

// Stats reports how many chunks and body bytes have been read so far.
func (r *Reader) Stats() (chunks, bytes int64) {
	return r.chunks, r.bytes
}

// fill reads chunks until a non-empty body is available or the stream ends.
func (r *Reader) fill() error {
	for {
		if r.eof {
			return io.EOF
		}
		n, err := io.ReadFull(r.r, r.hdr[:])
		switch {
		case err == io.EOF:
			r.eof = true
			r.chunk, r.off = r.chunk[:0], 0
			return io.EOF
		case err == io.ErrUnexpectedEOF:
			return fmt.Errorf("%w: chunk header truncated after %d of %d bytes", ErrFraming, n, chunkHeaderSize)
		case err != nil:
			return fmt.Errorf("read chunk header: %w", err)
		}

		size := int(order.Uint32(r.hdr[:]))
		if size == 0 {
			continue
		}
		body := r.alloc(size)
		if n, err := io.ReadFull(r.r, body); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return fmt.Errorf("%w: chunk body truncated after %d of %d bytes", ErrFraming, n, size)
			}
			return fmt.Errorf("read chunk body: %w", err)
		}
		r.chunk, r.off = body, 0
		r.chunks++
		r.bytes += int64(size)
		return nil
	}
}

func (r *Reader) alloc(size int) []byte {
	if !r.ReuseChunks {
		return make([]byte, size)
	}
	if cap(r.spare) < size {
		r.spare = make([]byte, size)
	}
	return r.spare[:size]
}
