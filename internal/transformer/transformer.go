// Package transformer applies a parsed schema to a stream of rows.
//
// The Engine owns the per-row policy: a violation either aborts the stream
// (the default) or drops the row and counts it (filter mode). Rule
// implementations in package schema only report what went wrong; they never
// decide whether processing continues.
package transformer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"bsv/internal/bsv"
	"bsv/internal/schema"
)

// Policy selects what happens to a row that violates the schema.
type Policy uint8

const (
	// Abort stops the stream at the first violation.
	Abort Policy = iota
	// Filter drops violating rows, counts them and keeps going.
	Filter
)

func (p Policy) String() string {
	if p == Filter {
		return "filter"
	}
	return "abort"
}

// Stats are the per-run row counters.
type Stats struct {
	Processed int64
	Emitted   int64
	Filtered  int64
}

// Engine validates and converts rows against a schema.
type Engine struct {
	// OnReject, when set, is called for every row dropped in filter mode.
	OnReject func(row int64, reason string)

	// LogEvery logs a progress line every N processed rows when > 0.
	LogEvery int64

	schema *schema.Schema
	arena  *schema.Arena
	policy Policy
	cols   [][]byte // staging for converted columns
	stats  Stats
}

// New returns an Engine for s using a DefaultArenaSize scratch arena.
func New(s *schema.Schema, policy Policy) *Engine {
	return NewWithArena(s, policy, schema.NewArena(schema.DefaultArenaSize))
}

// NewWithArena returns an Engine that converts into a.
func NewWithArena(s *schema.Schema, policy Policy, a *schema.Arena) *Engine {
	return &Engine{schema: s, arena: a, policy: policy}
}

// Stats returns the counters accumulated so far.
func (e *Engine) Stats() Stats { return e.stats }

// Apply validates and converts row in place. It returns keep=false for a row
// dropped in filter mode. A non-nil error is fatal for the stream: a
// violation in abort mode (wrapping schema.ErrViolation) or an internal limit
// (wrapping bsv.ErrCapacity).
//
// Converted columns alias the engine's arena and stay valid until the next
// Apply. A row that is dropped or fails is left unmodified.
func (e *Engine) Apply(row *bsv.Row) (keep bool, err error) {
	e.stats.Processed++
	if err := e.schema.CheckWidth(row.Len()); err != nil {
		return e.reject(err)
	}

	e.arena.Reset()
	e.cols = append(e.cols[:0], row.Columns...)
	for i, rule := range e.schema.Rules {
		col, err := rule.Apply(e.cols[i], e.arena)
		if err != nil {
			return e.reject(fmt.Errorf("column %d (%s): %w", i, rule, err))
		}
		e.cols[i] = col
	}

	row.Columns, e.cols = e.cols, row.Columns
	e.stats.Emitted++
	return true, nil
}

func (e *Engine) reject(err error) (bool, error) {
	if !errors.Is(err, schema.ErrViolation) {
		return false, err
	}
	if e.policy == Abort {
		return false, fmt.Errorf("row %d: %w", e.stats.Processed, err)
	}
	e.stats.Filtered++
	if e.OnReject != nil {
		e.OnReject(e.stats.Processed, err.Error())
	}
	return false, nil
}

// Run streams every row from r through e into w and flushes w at the end.
// On error nothing staged after the last flushed chunk is written.
func Run(ctx context.Context, r *bsv.Reader, w *bsv.Writer, e *Engine) error {
	var row bsv.Row
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := r.Load(&row)
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("load row: %w", err)
		}

		keep, err := e.Apply(&row)
		if err != nil {
			return err
		}
		if keep {
			if err := w.Dump(&row); err != nil {
				return fmt.Errorf("dump row %d: %w", e.stats.Processed, err)
			}
		}

		if e.LogEvery > 0 && e.stats.Processed%e.LogEvery == 0 {
			log.Printf("transformer: processed=%d emitted=%d filtered=%d",
				e.stats.Processed, e.stats.Emitted, e.stats.Filtered)
		}
	}
	return w.Flush()
}
