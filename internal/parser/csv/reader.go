// Package csv converts between delimited text lines and bsv rows.
//
// Text input is read with encoding/csv in a tolerant mode (lazy quotes,
// variable field counts). A leading byte order mark is dropped; UTF-16 input
// announced by a BOM is decoded to UTF-8 on the fly. Memory stays bounded to
// one record.
package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"bsv/internal/bsv"
)

// Options configures Reader and Writer. The zero value means comma-separated,
// untrimmed fields.
type Options struct {
	// Comma is the field delimiter. When zero, ',' is used.
	Comma rune

	// TrimSpace trims leading/trailing white space from each field.
	TrimSpace bool
}

func (o Options) comma() rune {
	if o.Comma == 0 {
		return ','
	}
	return o.Comma
}

// Reader reads text records as rows.
type Reader struct {
	cr   *csv.Reader
	opt  Options
	buf  []byte
	line int
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader, opt Options) *Reader {
	cr := csv.NewReader(transform.NewReader(r, unicode.BOMOverride(transform.Nop)))
	cr.Comma = opt.comma()
	cr.ReuseRecord = true
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	return &Reader{cr: cr, opt: opt}
}

// Read fills row with the next record. Column slices alias an internal buffer
// that is overwritten by the next Read. Blank lines are skipped. It returns
// io.EOF at the end of input.
func (r *Reader) Read(row *bsv.Row) error {
	rec, err := r.cr.Read()
	if err == io.EOF {
		return io.EOF
	}
	r.line++
	if err != nil {
		return fmt.Errorf("csv read line %d: %w", r.line, err)
	}

	n := 0
	for i, v := range rec {
		if r.opt.TrimSpace {
			v = strings.TrimSpace(v)
			rec[i] = v
		}
		n += len(v)
	}
	if cap(r.buf) < n {
		r.buf = make([]byte, 0, n)
	}
	r.buf = r.buf[:0]

	row.Reset()
	for _, v := range rec {
		start := len(r.buf)
		r.buf = append(r.buf, v...)
		row.Append(r.buf[start:len(r.buf):len(r.buf)])
	}
	return nil
}

// Line returns the number of records read so far.
func (r *Reader) Line() int { return r.line }
