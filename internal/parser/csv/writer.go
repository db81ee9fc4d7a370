package csv

import (
	"encoding/csv"
	"fmt"
	"io"

	"bsv/internal/bsv"
)

// Writer writes rows as text records, quoting fields when needed.
type Writer struct {
	cw  *csv.Writer
	rec []string
}

// NewWriter returns a Writer emitting to w.
func NewWriter(w io.Writer, opt Options) *Writer {
	cw := csv.NewWriter(w)
	cw.Comma = opt.comma()
	return &Writer{cw: cw}
}

// Write emits one row.
func (w *Writer) Write(row *bsv.Row) error {
	w.rec = w.rec[:0]
	for _, c := range row.Columns {
		w.rec = append(w.rec, string(c))
	}
	if err := w.cw.Write(w.rec); err != nil {
		return fmt.Errorf("csv write: %w", err)
	}
	return nil
}

// Flush writes any buffered text to the underlying writer.
func (w *Writer) Flush() error {
	w.cw.Flush()
	return w.cw.Error()
}
