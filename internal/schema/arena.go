package schema

import (
	"fmt"

	"bsv/internal/bsv"
)

// DefaultArenaSize matches the stream buffer size.
const DefaultArenaSize = bsv.BufferSize

// ErrArenaFull reports a conversion that did not fit in the scratch arena. It
// is an internal limit, never a property of the row, and is never filterable.
var ErrArenaFull = fmt.Errorf("scratch arena full: %w", bsv.ErrCapacity)

// Arena is a fixed-capacity bump allocator for bytes produced by conversions.
// Slices it hands out are valid until the next Reset.
type Arena struct {
	buf []byte
	off int
}

// NewArena returns an Arena holding up to size bytes.
func NewArena(size int) *Arena {
	return &Arena{buf: make([]byte, size)}
}

// Reset discards every allocation.
func (a *Arena) Reset() { a.off = 0 }

// Len returns the number of allocated bytes.
func (a *Arena) Len() int { return a.off }

// Alloc returns n fresh bytes.
func (a *Arena) Alloc(n int) ([]byte, error) {
	if n > len(a.buf)-a.off {
		return nil, fmt.Errorf("%w: need %d bytes, %d of %d in use", ErrArenaFull, n, a.off, len(a.buf))
	}
	b := a.buf[a.off : a.off+n : a.off+n]
	a.off += n
	return b, nil
}

// Copy allocates len(p) bytes and copies p into them.
func (a *Arena) Copy(p []byte) ([]byte, error) {
	b, err := a.Alloc(len(p))
	if err != nil {
		return nil, err
	}
	copy(b, p)
	return b, nil
}
