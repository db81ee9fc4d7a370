package bsv

import "fmt"

// Row is one record: an ordered list of byte-string columns. Column slices are
// borrowed, either from a Reader's chunk memory or from a per-row scratch
// arena; Row never owns or copies them.
type Row struct {
	Columns [][]byte
}

// Max returns the index of the last column (column count minus one).
func (r *Row) Max() int { return len(r.Columns) - 1 }

// Len returns the number of columns.
func (r *Row) Len() int { return len(r.Columns) }

// Reset empties r while keeping its column slice for reuse.
func (r *Row) Reset() { r.Columns = r.Columns[:0] }

// Append adds a column to the end of r.
func (r *Row) Append(col []byte) { r.Columns = append(r.Columns, col) }

// EncodedSize returns the number of wire bytes r occupies.
func (r *Row) EncodedSize() int {
	n := rowMaxSize + rowSizeSize*len(r.Columns)
	for _, c := range r.Columns {
		n += len(c) + 1
	}
	return n
}

// Load decodes the next row into row. Column slices alias the chunk the row
// was read from; row's column slice is reused. It returns io.EOF at the end of
// the stream and an error wrapping ErrFraming when the row is truncated.
func (r *Reader) Load(row *Row) error {
	hdr, err := r.Request(rowMaxSize)
	if err != nil {
		return err
	}
	count := int(order.Uint16(hdr)) + 1

	sizes, err := r.Take(rowSizeSize * count)
	if err != nil {
		return fmt.Errorf("row header: %w", err)
	}
	total := 0
	for i := 0; i < count; i++ {
		total += int(order.Uint16(sizes[i*rowSizeSize:])) + 1
	}
	body, err := r.Take(total)
	if err != nil {
		return fmt.Errorf("row body: %w", err)
	}

	row.Reset()
	off := 0
	for i := 0; i < count; i++ {
		size := int(order.Uint16(sizes[i*rowSizeSize:]))
		row.Columns = append(row.Columns, body[off:off+size:off+size])
		off += size + 1
	}
	return nil
}

// Dump encodes row into the staging area. Only structural limits are checked:
// 1..MaxColumns columns, each at most MaxColumnSize bytes, the whole row at
// most BufferSize bytes. Violating them returns an error wrapping ErrCapacity.
func (w *Writer) Dump(row *Row) error {
	count := len(row.Columns)
	if count == 0 || count > MaxColumns {
		return fmt.Errorf("%w: row has %d columns, allowed 1..%d", ErrCapacity, count, MaxColumns)
	}
	for i, c := range row.Columns {
		if len(c) > MaxColumnSize {
			return fmt.Errorf("%w: column %d is %d bytes, max %d", ErrCapacity, i, len(c), MaxColumnSize)
		}
	}
	size := row.EncodedSize()
	if size > BufferSize {
		return fmt.Errorf("%w: row of %d bytes exceeds buffer size %d", ErrCapacity, size, BufferSize)
	}

	dst, err := w.Next(size)
	if err != nil {
		return err
	}
	order.PutUint16(dst, uint16(count-1))
	off := rowMaxSize
	for _, c := range row.Columns {
		order.PutUint16(dst[off:], uint16(len(c)))
		off += rowSizeSize
	}
	for _, c := range row.Columns {
		off += copy(dst[off:], c)
		dst[off] = Delimiter
		off++
	}
	return nil
}
