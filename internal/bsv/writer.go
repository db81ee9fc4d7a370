package bsv

import (
	"fmt"
	"io"
)

// Writer stages outgoing bytes in a fixed BufferSize area and emits them as
// one chunk whenever the next write would not fit. Flush must be called at the
// end of the stream; staged bytes are lost otherwise.
type Writer struct {
	w   io.Writer
	buf []byte // chunk header followed by BufferSize bytes of staging
	n   int    // staged body bytes

	chunks int64
	bytes  int64
}

// NewWriter returns a Writer emitting chunks to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{
		w:   w,
		buf: make([]byte, chunkHeaderSize+BufferSize),
	}
}

// Write stages p. A p larger than BufferSize is rejected with ErrCapacity.
func (w *Writer) Write(p []byte) (int, error) {
	dst, err := w.Next(len(p))
	if err != nil {
		return 0, err
	}
	return copy(dst, p), nil
}

// Next reserves n bytes of staging space and returns them for the caller to
// fill. The slice is only valid until the next call on w.
func (w *Writer) Next(n int) ([]byte, error) {
	if n > BufferSize {
		return nil, fmt.Errorf("%w: write of %d bytes exceeds buffer size %d", ErrCapacity, n, BufferSize)
	}
	if n > BufferSize-w.n {
		if err := w.Flush(); err != nil {
			return nil, err
		}
	}
	start := chunkHeaderSize + w.n
	w.n += n
	return w.buf[start : start+n : start+n], nil
}

// Flush emits staged bytes as one chunk. It is a no-op when nothing is staged.
func (w *Writer) Flush() error {
	if w.n == 0 {
		return nil
	}
	order.PutUint32(w.buf, uint32(w.n))
	if _, err := w.w.Write(w.buf[:chunkHeaderSize+w.n]); err != nil {
		return fmt.Errorf("write chunk: %w", err)
	}
	w.chunks++
	w.bytes += int64(w.n)
	w.n = 0
	return nil
}

// Buffered returns the number of staged bytes.
func (w *Writer) Buffered() int { return w.n }

// Stats reports how many chunks and body bytes have been emitted so far.
func (w *Writer) Stats() (chunks, bytes int64) {
	return w.chunks, w.bytes
}

// WriteChunk frames body as a single chunk on w, bypassing any staging. Empty
// bodies are skipped since a zero length on the wire carries no rows.
func WriteChunk(w io.Writer, body []byte) error {
	if len(body) == 0 {
		return nil
	}
	if uint64(len(body)) > 1<<32-1 {
		return fmt.Errorf("%w: chunk of %d bytes", ErrCapacity, len(body))
	}
	var hdr [chunkHeaderSize]byte
	order.PutUint32(hdr[:], uint32(len(body)))
	if _, err := w.Write(hdr[:]); err != nil {
		return fmt.Errorf("write chunk header: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("write chunk body: %w", err)
	}
	return nil
}
