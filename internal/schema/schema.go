// Package schema parses column schemas and implements the per-column rules
// that validate and convert row columns: byte-size checks, head/tail trims and
// ascii<->fixed-width numeric conversions.
//
// A schema string is a comma-separated list of tokens, one per column:
//
//	*,*,*              3 columns of any size
//	8,*                an 8-byte column followed by a column of any size
//	8,*,...            same as above, extra trailing columns allowed
//	a:u16,a:i32,a:f64  convert ascii to numerics
//	u16:a,i32:a,f64:a  convert numerics to ascii
//	4*,*4              keep the first 4 bytes of column 1, the last 4 of column 2
package schema

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrSchema reports a schema string that cannot be parsed.
	ErrSchema = errors.New("bad schema")

	// ErrViolation reports a column or row that does not satisfy the schema.
	// Violations are the only errors a filtering caller may recover from.
	ErrViolation = errors.New("schema violation")
)

// Wildcard is the final token that allows rows with extra trailing columns.
const Wildcard = "..."

// Schema is an ordered list of column rules. It is immutable after Parse.
type Schema struct {
	Rules []Rule
	// Exact is false when the schema ends with the trailing wildcard; rows may
	// then carry more columns than Rules, which pass through unmodified.
	Exact bool
}

// Parse parses a comma-separated schema string.
func Parse(spec string) (*Schema, error) {
	if spec == "" {
		return nil, fmt.Errorf("%w: empty schema", ErrSchema)
	}
	tokens := strings.Split(spec, ",")
	s := &Schema{Rules: make([]Rule, 0, len(tokens)), Exact: true}
	for i, tok := range tokens {
		if tok == Wildcard {
			if i != len(tokens)-1 {
				return nil, fmt.Errorf("%w: %q must be the last token", ErrSchema, Wildcard)
			}
			s.Exact = false
			break
		}
		r, err := parseToken(tok)
		if err != nil {
			return nil, err
		}
		s.Rules = append(s.Rules, r)
	}
	return s, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// package-level schemas.
func MustParse(spec string) *Schema {
	s, err := Parse(spec)
	if err != nil {
		panic(err)
	}
	return s
}

// String renders s back to its token form.
func (s *Schema) String() string {
	var b strings.Builder
	for i, r := range s.Rules {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(r.String())
	}
	if !s.Exact {
		if len(s.Rules) > 0 {
			b.WriteByte(',')
		}
		b.WriteString(Wildcard)
	}
	return b.String()
}

// CheckWidth validates a row's column count against s.
func (s *Schema) CheckWidth(n int) error {
	want := len(s.Rules)
	if s.Exact && n != want {
		return fmt.Errorf("%w: row had %d columns, needed %d", ErrViolation, n, want)
	}
	if !s.Exact && n < want {
		return fmt.Errorf("%w: row had %d columns, needed at least %d", ErrViolation, n, want)
	}
	return nil
}

func parseToken(tok string) (Rule, error) {
	switch {
	case tok == "*":
		return Pass{}, nil
	case isDigits(tok):
		n, err := atoi(tok)
		return Size{N: n}, err
	case len(tok) > 1 && tok[0] == '*' && isDigits(tok[1:]):
		n, err := atoi(tok[1:])
		return Tail{N: n}, err
	case len(tok) > 1 && tok[len(tok)-1] == '*' && isDigits(tok[:len(tok)-1]):
		n, err := atoi(tok[:len(tok)-1])
		return Head{N: n}, err
	}

	if from, to, ok := strings.Cut(tok, ":"); ok {
		if from == "a" {
			if t, ok := lookupType(to); ok {
				return Encode{Type: t}, nil
			}
		}
		if to == "a" {
			if t, ok := lookupType(from); ok {
				return Decode{Type: t}, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrSchema, tok)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func atoi(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: size %q: %v", ErrSchema, s, err)
	}
	return n, nil
}
