package encoding

import (
	"bytes"
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUint64Roundtrip(t *testing.T) {
	values := []uint64{0, 1, 2, 255, 256, math.MaxUint32, math.MaxUint64}
	for _, v := range values {
		enc := EncodeUint64Ascending(nil, v)
		require.Len(t, enc, 8)
		rest, got, err := DecodeUint64Ascending(enc)
		require.NoError(t, err)
		require.Empty(t, rest)
		require.Equal(t, v, got)
	}
}

func TestUint64Ordering(t *testing.T) {
	values := []uint64{0, 1, 2, 255, 256, 1 << 40, math.MaxUint64}
	for i := range values {
		for j := range values {
			a := EncodeUint64Ascending(nil, values[i])
			b := EncodeUint64Ascending(nil, values[j])
			require.Equal(t, values[i] < values[j], bytes.Compare(a, b) < 0)
		}
	}
}

func TestInt64Roundtrip(t *testing.T) {
	values := []int64{math.MinInt64, -1 << 40, -256, -1, 0, 1, 256, 1 << 40, math.MaxInt64}
	for _, v := range values {
		enc := EncodeInt64Ascending(nil, v)
		rest, got, err := DecodeInt64Ascending(enc)
		require.NoError(t, err)
		require.Empty(t, rest)
		require.Equal(t, v, got)
	}
}

func TestInt64Ordering(t *testing.T) {
	values := []int64{math.MinInt64, -1000, -1, 0, 1, 1000, math.MaxInt64}
	for i := range values {
		for j := range values {
			a := EncodeInt64Ascending(nil, values[i])
			b := EncodeInt64Ascending(nil, values[j])
			require.Equal(t, values[i] < values[j], bytes.Compare(a, b) < 0)
		}
	}
}

func TestFloat64Roundtrip(t *testing.T) {
	values := []float64{math.Inf(-1), -1e300, -1, -0.0001, 0, 0.0001, 1, 1e300, math.Inf(1)}
	for _, v := range values {
		enc := EncodeFloat64Ascending(nil, v)
		rest, got, err := DecodeFloat64Ascending(enc)
		require.NoError(t, err)
		require.Empty(t, rest)
		require.Equal(t, v, got)
	}
}

func TestFloat64Ordering(t *testing.T) {
	values := []float64{math.Inf(-1), -1e10, -1, -0.5, 0, 0.5, 1, 1e10, math.Inf(1)}
	for i := range values {
		for j := range values {
			a := EncodeFloat64Ascending(nil, values[i])
			b := EncodeFloat64Ascending(nil, values[j])
			require.Equal(t, values[i] < values[j], bytes.Compare(a, b) < 0)
		}
	}
}

func TestBoolRoundtrip(t *testing.T) {
	for _, v := range []bool{false, true} {
		enc := EncodeBoolAscending(nil, v)
		rest, got, err := DecodeBoolAscending(enc)
		require.NoError(t, err)
		require.Empty(t, rest)
		require.Equal(t, v, got)
	}
	require.False(t, bytes.Compare(EncodeBoolAscending(nil, false), EncodeBoolAscending(nil, true)) >= 0)
}

func TestBytesRoundtrip(t *testing.T) {
	cases := [][]byte{
		{},
		[]byte("a"),
		[]byte("hello world"),
		{0x00},
		{0x00, 0x00},
		{0x00, 0xff, 0x00},
		[]byte("a\x00b\x00c"),
	}
	for _, c := range cases {
		enc := EncodeBytesAscending(nil, c)
		rest, got, err := DecodeBytesAscending(enc)
		require.NoError(t, err)
		require.Empty(t, rest)
		require.Equal(t, c, got)
	}
}

func TestBytesOrdering(t *testing.T) {
	values := [][]byte{
		{},
		[]byte("a"),
		[]byte("aa"),
		[]byte("ab"),
		[]byte("b"),
		{0x00},
		{0x00, 0x01},
	}
	sorted := make([][]byte, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return bytes.Compare(sorted[i], sorted[j]) < 0 })

	encoded := make([][]byte, len(sorted))
	for i, v := range sorted {
		encoded[i] = EncodeBytesAscending(nil, v)
	}
	for i := 1; i < len(encoded); i++ {
		require.True(t, bytes.Compare(encoded[i-1], encoded[i]) < 0,
			"encoded(%q) should sort before encoded(%q)", sorted[i-1], sorted[i])
	}
}

func TestBytesPrefixFree(t *testing.T) {
	a := EncodeBytesAscending(nil, []byte("ab"))
	b := EncodeBytesAscending(nil, []byte("abc"))
	require.False(t, bytes.HasPrefix(b, a), "encoded(ab) must not be a prefix of encoded(abc)")
}

func TestDecodeBytesRejectsUnterminated(t *testing.T) {
	_, _, err := DecodeBytesAscending([]byte("no terminator"))
	require.Error(t, err)
}

func TestConcatenatedKeyRoundtrip(t *testing.T) {
	var buf []byte
	buf = EncodeUint64Ascending(buf, 42)
	buf = EncodeBytesAscending(buf, []byte("shard-a"))
	buf = EncodeInt64Ascending(buf, -7)

	rest, u, err := DecodeUint64Ascending(buf)
	require.NoError(t, err)
	require.Equal(t, uint64(42), u)

	rest, s, err := DecodeBytesAscending(rest)
	require.NoError(t, err)
	require.Equal(t, []byte("shard-a"), s)

	rest, i, err := DecodeInt64Ascending(rest)
	require.NoError(t, err)
	require.Equal(t, int64(-7), i)
	require.Empty(t, rest)
}

func TestUvarintRoundtrip(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		v := r.Uint64() >> (r.Intn(64))
		enc := EncodeUvarint(nil, v)
		rest, got, err := DecodeUvarint(enc)
		require.NoError(t, err)
		require.Empty(t, rest)
		require.Equal(t, v, got)
	}
}
