package schema

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"
	"unsafe"
)

// NumType is a fixed-width numeric encoding a column can be converted to or
// from.
type NumType uint8

const (
	I16 NumType = iota + 1
	I32
	I64
	U16
	U32
	U64
	F32
	F64
)

var numTypeNames = [...]string{
	I16: "i16", I32: "i32", I64: "i64",
	U16: "u16", U32: "u32", U64: "u64",
	F32: "f32", F64: "f64",
}

func lookupType(name string) (NumType, bool) {
	for t, n := range numTypeNames {
		if n != "" && n == name {
			return NumType(t), true
		}
	}
	return 0, false
}

func (t NumType) String() string {
	if int(t) < len(numTypeNames) && numTypeNames[t] != "" {
		return numTypeNames[t]
	}
	return fmt.Sprintf("NumType(%d)", uint8(t))
}

// Width returns the encoded size in bytes.
func (t NumType) Width() int {
	switch t {
	case I16, U16:
		return 2
	case I32, U32, F32:
		return 4
	case I64, U64, F64:
		return 8
	}
	return 0
}

// Encode converts an ascii column to the binary form of Type ("a:i32").
type Encode struct{ Type NumType }

func (r Encode) Apply(col []byte, a *Arena) ([]byte, error) {
	switch r.Type {
	case I16:
		return encodeSigned[int16](col, a)
	case I32:
		return encodeSigned[int32](col, a)
	case I64:
		return encodeSigned[int64](col, a)
	case U16:
		return encodeUnsigned[uint16](col, a)
	case U32:
		return encodeUnsigned[uint32](col, a)
	case U64:
		return encodeUnsigned[uint64](col, a)
	case F32:
		return encodeFloat[float32](col, a)
	case F64:
		return encodeFloat[float64](col, a)
	}
	return nil, fmt.Errorf("%w: unknown type %v", ErrSchema, r.Type)
}

func (r Encode) String() string { return "a:" + r.Type.String() }

// Decode converts the binary form of Type to ascii ("i32:a").
type Decode struct{ Type NumType }

func (r Decode) Apply(col []byte, a *Arena) ([]byte, error) {
	switch r.Type {
	case I16:
		return decodeSigned[int16](col, a)
	case I32:
		return decodeSigned[int32](col, a)
	case I64:
		return decodeSigned[int64](col, a)
	case U16:
		return decodeUnsigned[uint16](col, a)
	case U32:
		return decodeUnsigned[uint32](col, a)
	case U64:
		return decodeUnsigned[uint64](col, a)
	case F32:
		return decodeFloat[float32](col, a, 8)
	case F64:
		return decodeFloat[float64](col, a, 16)
	}
	return nil, fmt.Errorf("%w: unknown type %v", ErrSchema, r.Type)
}

func (r Decode) String() string { return r.Type.String() + ":a" }

// --- generic conversions ----------------------------------------------------

type signed interface{ int16 | int32 | int64 }
type unsigned interface{ uint16 | uint32 | uint64 }
type float interface{ float32 | float64 }
type number interface{ signed | unsigned | float }

var order = binary.LittleEndian

func sizeOf[T number]() int {
	var v T
	return int(unsafe.Sizeof(v))
}

// narrow converts the 64-bit accumulator to T, reporting whether it fits.
func narrow[T signed | unsigned, W int64 | uint64](w W) (T, bool) {
	v := T(w)
	return v, W(v) == w
}

func encodeSigned[T signed](col []byte, a *Arena) ([]byte, error) {
	w, err := strconv.ParseInt(string(col), 10, 64)
	if err != nil {
		return nil, parseViolation[T](col, err)
	}
	v, ok := narrow[T](w)
	if !ok {
		return nil, rangeViolation[T](col, w < 0)
	}
	return put(a, v)
}

func encodeUnsigned[T unsigned](col []byte, a *Arena) ([]byte, error) {
	if len(col) > 0 && col[0] == '-' {
		return nil, fmt.Errorf("%w: unsigned value cannot be below zero: %q", ErrViolation, col)
	}
	w, err := strconv.ParseUint(string(col), 10, 64)
	if err != nil {
		return nil, parseViolation[T](col, err)
	}
	v, ok := narrow[T](w)
	if !ok {
		return nil, rangeViolation[T](col, false)
	}
	return put(a, v)
}

// encodeFloat does no bounds checking: magnitudes beyond T become +-Inf.
// Text that is not a number at all is still a violation.
func encodeFloat[T float](col []byte, a *Arena) ([]byte, error) {
	w, err := strconv.ParseFloat(string(col), 8*sizeOf[T]())
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return nil, parseViolation[T](col, err)
	}
	return put(a, T(w))
}

func decodeSigned[T signed](col []byte, a *Arena) ([]byte, error) {
	if err := checkWidth[T](col); err != nil {
		return nil, err
	}
	var tmp [24]byte
	return a.Copy(strconv.AppendInt(tmp[:0], int64(get[T](col)), 10))
}

func decodeUnsigned[T unsigned](col []byte, a *Arena) ([]byte, error) {
	if err := checkWidth[T](col); err != nil {
		return nil, err
	}
	var tmp [24]byte
	return a.Copy(strconv.AppendUint(tmp[:0], uint64(get[T](col)), 10))
}

// decodeFloat formats with the given number of significant digits, as %.Ng.
func decodeFloat[T float](col []byte, a *Arena, digits int) ([]byte, error) {
	if err := checkWidth[T](col); err != nil {
		return nil, err
	}
	var tmp [32]byte
	return a.Copy(strconv.AppendFloat(tmp[:0], float64(get[T](col)), 'g', digits, 64))
}

func checkWidth[T number](col []byte) error {
	if n := sizeOf[T](); len(col) != n {
		return fmt.Errorf("%w: number->ascii column was size %d, needed to be %d", ErrViolation, len(col), n)
	}
	return nil
}

func parseViolation[T number](col []byte, err error) error {
	if errors.Is(err, strconv.ErrRange) {
		return rangeViolation[T](col, len(col) > 0 && col[0] == '-')
	}
	return fmt.Errorf("%w: %q is not a valid %s", ErrViolation, col, typeName[T]())
}

func rangeViolation[T number](col []byte, below bool) error {
	if below {
		return fmt.Errorf("%w: %q below min value of %s", ErrViolation, col, typeName[T]())
	}
	return fmt.Errorf("%w: %q above max value of %s", ErrViolation, col, typeName[T]())
}

func typeName[T number]() string {
	var v T
	switch any(v).(type) {
	case int16:
		return I16.String()
	case int32:
		return I32.String()
	case int64:
		return I64.String()
	case uint16:
		return U16.String()
	case uint32:
		return U32.String()
	case uint64:
		return U64.String()
	case float32:
		return F32.String()
	default:
		return F64.String()
	}
}

func put[T number](a *Arena, v T) ([]byte, error) {
	b, err := a.Alloc(sizeOf[T]())
	if err != nil {
		return nil, err
	}
	switch x := any(v).(type) {
	case int16:
		order.PutUint16(b, uint16(x))
	case uint16:
		order.PutUint16(b, x)
	case int32:
		order.PutUint32(b, uint32(x))
	case uint32:
		order.PutUint32(b, x)
	case int64:
		order.PutUint64(b, uint64(x))
	case uint64:
		order.PutUint64(b, x)
	case float32:
		order.PutUint32(b, math.Float32bits(x))
	case float64:
		order.PutUint64(b, math.Float64bits(x))
	}
	return b, nil
}

func get[T number](b []byte) T {
	var v T
	switch p := any(&v).(type) {
	case *int16:
		*p = int16(order.Uint16(b))
	case *uint16:
		*p = order.Uint16(b)
	case *int32:
		*p = int32(order.Uint32(b))
	case *uint32:
		*p = order.Uint32(b)
	case *int64:
		*p = int64(order.Uint64(b))
	case *uint64:
		*p = order.Uint64(b)
	case *float32:
		*p = math.Float32frombits(order.Uint32(b))
	case *float64:
		*p = math.Float64frombits(order.Uint64(b))
	}
	return v
}
