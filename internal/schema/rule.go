package schema

import (
	"fmt"
	"strconv"
)

// Rule validates and possibly converts one column. Apply returns the column's
// new contents, which alias either col or memory taken from the arena. A
// failed check returns an error wrapping ErrViolation; running out of arena
// space returns ErrArenaFull.
type Rule interface {
	Apply(col []byte, a *Arena) ([]byte, error)
	String() string
}

// Pass leaves the column unchanged.
type Pass struct{}

func (Pass) Apply(col []byte, _ *Arena) ([]byte, error) { return col, nil }
func (Pass) String() string                             { return "*" }

// Size requires the column to be exactly N bytes.
type Size struct{ N int }

func (r Size) Apply(col []byte, _ *Arena) ([]byte, error) {
	if len(col) != r.N {
		return nil, sizeViolation(len(col), r.N)
	}
	return col, nil
}

func (r Size) String() string { return strconv.Itoa(r.N) }

// Head requires at least N bytes and keeps the first N.
type Head struct{ N int }

func (r Head) Apply(col []byte, _ *Arena) ([]byte, error) {
	if len(col) < r.N {
		return nil, sizeViolation(len(col), r.N)
	}
	return col[:r.N:r.N], nil
}

func (r Head) String() string { return strconv.Itoa(r.N) + "*" }

// Tail requires at least N bytes and keeps the last N.
type Tail struct{ N int }

func (r Tail) Apply(col []byte, _ *Arena) ([]byte, error) {
	if len(col) < r.N {
		return nil, sizeViolation(len(col), r.N)
	}
	return col[len(col)-r.N:], nil
}

func (r Tail) String() string { return "*" + strconv.Itoa(r.N) }

func sizeViolation(got, want int) error {
	return fmt.Errorf("%w: column was size %d, needed to be %d", ErrViolation, got, want)
}
