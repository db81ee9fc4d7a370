package schema

import (
	"encoding/binary"
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func apply(t *testing.T, r Rule, col string) ([]byte, error) {
	t.Helper()
	return r.Apply([]byte(col), NewArena(64))
}

func TestEncodeIntegers(t *testing.T) {
	le := binary.LittleEndian
	tests := []struct {
		rule Rule
		in   string
		want []byte
	}{
		{Encode{I16}, "-5", le.AppendUint16(nil, uint16(0xfffb))},
		{Encode{I16}, "32767", le.AppendUint16(nil, 32767)},
		{Encode{I16}, "-32768", le.AppendUint16(nil, 0x8000)},
		{Encode{I32}, "-5", le.AppendUint32(nil, 0xfffffffb)},
		{Encode{I64}, "9223372036854775807", le.AppendUint64(nil, math.MaxInt64)},
		{Encode{U16}, "100", le.AppendUint16(nil, 100)},
		{Encode{U16}, "65535", le.AppendUint16(nil, 65535)},
		{Encode{U32}, "4294967295", le.AppendUint32(nil, math.MaxUint32)},
		{Encode{U64}, "18446744073709551615", le.AppendUint64(nil, math.MaxUint64)},
	}
	for _, tc := range tests {
		t.Run(tc.rule.String()+"/"+tc.in, func(t *testing.T) {
			got, err := apply(t, tc.rule, tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEncodeViolations(t *testing.T) {
	tests := []struct {
		rule Rule
		in   string
	}{
		{Encode{I16}, "32768"},
		{Encode{I16}, "-32769"},
		{Encode{I32}, "2147483648"},
		{Encode{I64}, "9223372036854775808"},
		{Encode{I64}, "-9223372036854775809"},
		{Encode{U16}, "-1"},
		{Encode{U16}, "65536"},
		{Encode{U32}, "-0"},
		{Encode{U64}, "18446744073709551616"},
		{Encode{I32}, "12abc"},
		{Encode{I32}, ""},
		{Encode{U32}, "ten"},
		{Encode{F64}, "pi"},
		{Encode{F32}, ""},
	}
	for _, tc := range tests {
		t.Run(tc.rule.String()+"/"+tc.in, func(t *testing.T) {
			_, err := apply(t, tc.rule, tc.in)
			assert.ErrorIs(t, err, ErrViolation)
		})
	}
}

func TestEncodeFloatHasNoBounds(t *testing.T) {
	got, err := apply(t, Encode{F32}, "1e39")
	require.NoError(t, err)
	assert.True(t, math.IsInf(float64(math.Float32frombits(binary.LittleEndian.Uint32(got))), 1))

	got, err = apply(t, Encode{F64}, "-1e400")
	require.NoError(t, err)
	assert.True(t, math.IsInf(math.Float64frombits(binary.LittleEndian.Uint64(got)), -1))
}

func TestDecodeRequiresExactWidth(t *testing.T) {
	for _, typ := range []NumType{I16, I32, I64, U16, U32, U64, F32, F64} {
		t.Run(typ.String(), func(t *testing.T) {
			_, err := apply(t, Decode{typ}, string(make([]byte, typ.Width()+1)))
			assert.ErrorIs(t, err, ErrViolation)
			_, err = apply(t, Decode{typ}, string(make([]byte, typ.Width())))
			assert.NoError(t, err)
		})
	}
}

func TestDecodeFormats(t *testing.T) {
	le := binary.LittleEndian
	tests := []struct {
		rule Rule
		in   []byte
		want string
	}{
		{Decode{I16}, le.AppendUint16(nil, 0xfffb), "-5"},
		{Decode{U16}, le.AppendUint16(nil, 100), "100"},
		{Decode{I64}, le.AppendUint64(nil, 1<<63), "-9223372036854775808"},
		{Decode{U64}, le.AppendUint64(nil, math.MaxUint64), "18446744073709551615"},
		{Decode{F64}, le.AppendUint64(nil, math.Float64bits(3.14)), "3.14"},
		{Decode{F64}, le.AppendUint64(nil, math.Float64bits(100)), "100"},
		{Decode{F64}, le.AppendUint64(nil, math.Float64bits(1e20)), "1e+20"},
		{Decode{F32}, le.AppendUint32(nil, math.Float32bits(0.1)), "0.1"},
		{Decode{F32}, le.AppendUint32(nil, math.Float32bits(1.5)), "1.5"},
	}
	for _, tc := range tests {
		t.Run(tc.rule.String()+"/"+tc.want, func(t *testing.T) {
			got, err := tc.rule.Apply(tc.in, NewArena(64))
			require.NoError(t, err)
			assert.Equal(t, tc.want, string(got))
		})
	}
}

/*
TestIntegerRoundTrip formats a value with T:a and parses it back with a:T for
boundary and sample values of every integer type.
*/
func TestIntegerRoundTrip(t *testing.T) {
	signedCases := map[NumType][]int64{
		I16: {math.MinInt16, -1, 0, 1, math.MaxInt16},
		I32: {math.MinInt32, -123456, 0, 99, math.MaxInt32},
		I64: {math.MinInt64, -1, 0, 1 << 40, math.MaxInt64},
	}
	for typ, values := range signedCases {
		for _, v := range values {
			in := []byte(strconv.FormatInt(v, 10))
			roundTrip(t, typ, in)
		}
	}
	unsignedCases := map[NumType][]uint64{
		U16: {0, 1, math.MaxUint16},
		U32: {0, 7, math.MaxUint32},
		U64: {0, 1 << 63, math.MaxUint64},
	}
	for typ, values := range unsignedCases {
		for _, v := range values {
			roundTrip(t, typ, []byte(strconv.FormatUint(v, 10)))
		}
	}
}

func roundTrip(t *testing.T, typ NumType, ascii []byte) {
	t.Helper()
	a := NewArena(64)
	bin, err := Encode{typ}.Apply(ascii, a)
	require.NoError(t, err, "%s %s", typ, ascii)
	require.Len(t, bin, typ.Width())

	// binary -> ascii -> binary must reproduce the same bytes
	txt, err := Decode{typ}.Apply(bin, a)
	require.NoError(t, err)
	assert.Equal(t, string(ascii), string(txt))
	again, err := Encode{typ}.Apply(txt, a)
	require.NoError(t, err)
	assert.Equal(t, bin, again)
}

func TestFloatRoundTripWithinPrecision(t *testing.T) {
	for _, v := range []float64{0, 3.14, -2.5e-10, 123456.789, 6.02214076e23} {
		a := NewArena(64)
		bin := binary.LittleEndian.AppendUint64(nil, math.Float64bits(v))
		txt, err := Decode{F64}.Apply(bin, a)
		require.NoError(t, err)
		back, err := Encode{F64}.Apply(txt, a)
		require.NoError(t, err)
		got := math.Float64frombits(binary.LittleEndian.Uint64(back))
		assert.InEpsilon(t, v+1, got+1, 1e-15, "value %v via %q", v, txt)
	}
	for _, v := range []float32{0, 3.14, -1.25, 65504.5} {
		a := NewArena(64)
		bin := binary.LittleEndian.AppendUint32(nil, math.Float32bits(v))
		txt, err := Decode{F32}.Apply(bin, a)
		require.NoError(t, err)
		back, err := Encode{F32}.Apply(txt, a)
		require.NoError(t, err)
		got := math.Float32frombits(binary.LittleEndian.Uint32(back))
		assert.InEpsilon(t, float64(v)+1, float64(got)+1, 1e-7, "value %v via %q", v, txt)
	}
}

func TestConversionArenaOverflow(t *testing.T) {
	a := NewArena(3)
	_, err := Encode{I32}.Apply([]byte("1"), a)
	assert.ErrorIs(t, err, ErrArenaFull)
	assert.NotErrorIs(t, err, ErrViolation)
}
