// Package sorter materializes a row stream and re-emits it ordered by the raw
// bytes of the first column.
package sorter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"

	"bsv/internal/bsv"
)

// Options configures Run.
type Options struct {
	// Descending reverses the order. Rows with equal keys keep input order
	// either way.
	Descending bool
}

type byFirstColumn struct {
	descending bool
	rows       []bsv.Row
}

var _ sort.Interface = (*byFirstColumn)(nil)

func (b *byFirstColumn) Len() int {
	return len(b.rows)
}

func (b *byFirstColumn) Swap(i, j int) {
	b.rows[i], b.rows[j] = b.rows[j], b.rows[i]
}

func (b *byFirstColumn) Less(i, j int) bool {
	v1 := b.rows[i].Columns[0]
	v2 := b.rows[j].Columns[0]
	if b.descending {
		return bytes.Compare(v2, v1) < 0
	}
	return bytes.Compare(v1, v2) < 0
}

// Load reads every remaining row of r. r must not reuse chunks: the returned
// rows alias chunk memory.
func Load(ctx context.Context, r *bsv.Reader) ([]bsv.Row, error) {
	if r.ReuseChunks {
		return nil, fmt.Errorf("sorter: reader must retain chunks")
	}
	var rows []bsv.Row
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var row bsv.Row
		if err := r.Load(&row); err != nil {
			if err == io.EOF {
				return rows, nil
			}
			return nil, fmt.Errorf("row %d: %w", len(rows)+1, err)
		}
		rows = append(rows, row)
	}
}

// Sort orders rows in place by their first column. The sort is stable.
func Sort(rows []bsv.Row, opt Options) {
	sort.Stable(&byFirstColumn{descending: opt.Descending, rows: rows})
}

// Run loads all rows from r, sorts them and writes them to w. It returns the
// number of rows written. w is flushed on success.
func Run(ctx context.Context, r *bsv.Reader, w *bsv.Writer, opt Options) (int64, error) {
	rows, err := Load(ctx, r)
	if err != nil {
		return 0, err
	}
	Sort(rows, opt)

	for i := range rows {
		if err := w.Dump(&rows[i]); err != nil {
			return int64(i), err
		}
	}
	if err := w.Flush(); err != nil {
		return int64(len(rows)), err
	}
	return int64(len(rows)), nil
}
