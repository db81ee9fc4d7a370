// Package bsv implements the binary row stream shared by every binary-mode
// tool: a chunk-framed byte stream ([length u32][body]) carrying contiguous row
// encodings that decode into rows without copying.
//
// Wire layout (little-endian):
//
//	chunk: [length u32][body: length bytes]
//	row:   [max u16][size_0 .. size_max u16][col_0][0x00][col_1][0x00]...
//
// A chunk always holds whole rows. Readers hand out slices that alias chunk
// memory; see Reader for how long those slices stay valid.
package bsv

import (
	"encoding/binary"
	"errors"
)

const (
	// BufferSize is the largest chunk body a Writer emits and the largest single
	// write it accepts.
	BufferSize = 5 << 20 // 5 MiB

	// MaxColumns is the largest number of columns in one row.
	MaxColumns = 1<<16 - 1

	// MaxColumnSize is the largest column payload the u16 size field can carry.
	MaxColumnSize = 1<<16 - 1

	// Delimiter follows every column on the wire.
	Delimiter = 0x00

	chunkHeaderSize = 4
	rowMaxSize      = 2
	rowSizeSize     = 2
)

// order is the byte order of every fixed-width field on the wire.
var order = binary.LittleEndian

var (
	// ErrFraming reports a truncated or inconsistent stream (short length
	// prefix, short chunk body, truncated row). It is always fatal.
	ErrFraming = errors.New("framing error")

	// ErrCapacity reports an internal limit being exceeded (row too large,
	// too many columns, oversized write). It is always fatal.
	ErrCapacity = errors.New("capacity exceeded")
)
