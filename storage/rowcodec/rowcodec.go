// Package rowcodec is the row codec: the bidirectional mapping between a
// structured row and exactly one (key, value) KV pair. Its function
// shape — Encode building a key/value pair from a schema and a row,
// Decode consuming one back — follows the same append/consume
// convention as util/encoding, the package it is built on; the varint
// column-tag value stream is this module's own design for the spec's
// "(column_id_varint, wire_type_byte, payload)" format, there being no
// protobuf-generated row message to reuse from the teacher (see
// DESIGN.md).
package rowcodec

import (
	"math"

	"github.com/marknewmail/sharkstore/roachpb"
	"github.com/marknewmail/sharkstore/sherrors"
	"github.com/marknewmail/sharkstore/util/encoding"
)

// wireType tags each entry in the value stream so the decoder knows how
// many payload bytes follow and how to interpret them, independent of
// column order.
type wireType byte

const (
	wireInt64 wireType = iota
	wireUint64
	wireFloat64
	wireBytes
	wireBool
)

func wireTypeFor(t roachpb.ColumnType) (wireType, error) {
	switch t {
	case roachpb.ColumnType_INT64:
		return wireInt64, nil
	case roachpb.ColumnType_UINT64:
		return wireUint64, nil
	case roachpb.ColumnType_FLOAT64:
		return wireFloat64, nil
	case roachpb.ColumnType_STRING, roachpb.ColumnType_BYTES:
		return wireBytes, nil
	case roachpb.ColumnType_BOOL:
		return wireBool, nil
	default:
		return 0, sherrors.InvalidArgumentf("unknown column type %v", t)
	}
}

// EncodeKey builds the primary-key portion of a row's storage key:
// tablePrefix followed by the order-preserving encoding of each PK
// column's value, in PrimaryKeyOrder. It fails with InvalidArgument if a
// PK column is missing from row or carries a value of the wrong type.
func EncodeKey(schema *roachpb.Schema, tablePrefix []byte, row roachpb.Row) ([]byte, error) {
	key := append([]byte(nil), tablePrefix...)
	for _, col := range schema.PrimaryKeyColumns() {
		v, ok := row[col.ColumnID]
		if !ok || v.Tag == roachpb.Null {
			return nil, sherrors.InvalidArgumentf("missing value for primary key column %q", col.Name)
		}
		var err error
		key, err = encodeOrdered(key, col, v)
		if err != nil {
			return nil, err
		}
	}
	return key, nil
}

// EncodeColumnAscending appends the order-preserving encoding of v (which
// must carry the tag matching col's declared type) to b. Exported so the
// scan engine can build partial leading-PK-prefix scope and bound keys
// with the same encoding EncodeKey uses for full PK tuples.
func EncodeColumnAscending(b []byte, col roachpb.Column, v roachpb.Value) ([]byte, error) {
	return encodeOrdered(b, col, v)
}

func encodeOrdered(b []byte, col roachpb.Column, v roachpb.Value) ([]byte, error) {
	switch col.Type {
	case roachpb.ColumnType_INT64:
		if v.Tag != roachpb.Int64 {
			return nil, sherrors.InvalidArgumentf("column %q expects INT64, got %v", col.Name, v.Tag)
		}
		return encoding.EncodeInt64Ascending(b, v.IntVal), nil
	case roachpb.ColumnType_UINT64:
		if v.Tag != roachpb.UInt64 {
			return nil, sherrors.InvalidArgumentf("column %q expects UINT64, got %v", col.Name, v.Tag)
		}
		return encoding.EncodeUint64Ascending(b, v.UintVal), nil
	case roachpb.ColumnType_FLOAT64:
		if v.Tag != roachpb.F64 {
			return nil, sherrors.InvalidArgumentf("column %q expects FLOAT64, got %v", col.Name, v.Tag)
		}
		return encoding.EncodeFloat64Ascending(b, v.FloatVal), nil
	case roachpb.ColumnType_STRING:
		if v.Tag != roachpb.Str {
			return nil, sherrors.InvalidArgumentf("column %q expects STRING, got %v", col.Name, v.Tag)
		}
		return encoding.EncodeStringAscending(b, v.StringVal), nil
	case roachpb.ColumnType_BYTES:
		if v.Tag != roachpb.Bytes {
			return nil, sherrors.InvalidArgumentf("column %q expects BYTES, got %v", col.Name, v.Tag)
		}
		return encoding.EncodeBytesAscending(b, v.BytesVal), nil
	case roachpb.ColumnType_BOOL:
		if v.Tag != roachpb.Bool {
			return nil, sherrors.InvalidArgumentf("column %q expects BOOL, got %v", col.Name, v.Tag)
		}
		return encoding.EncodeBoolAscending(b, v.BoolVal), nil
	default:
		return nil, sherrors.InvalidArgumentf("unknown column type %v for column %q", col.Type, col.Name)
	}
}

// DecodeKey recovers the PK tuple, keyed by column id, from a key
// produced by EncodeKey. prefixLen is the length of the caller's table
// prefix (not part of any column's encoding).
func DecodeKey(schema *roachpb.Schema, key []byte, prefixLen int) (roachpb.Row, error) {
	if len(key) < prefixLen {
		return nil, sherrors.Corruptionf(key, "key shorter than table prefix")
	}
	rest := key[prefixLen:]
	row := make(roachpb.Row)
	for _, col := range schema.PrimaryKeyColumns() {
		v, newRest, err := decodeOrdered(rest, col)
		if err != nil {
			return nil, sherrors.Corruptionf(key, "decoding primary key column %q: %v", col.Name, err)
		}
		row[col.ColumnID] = v
		rest = newRest
	}
	return row, nil
}

func decodeOrdered(b []byte, col roachpb.Column) (roachpb.Value, []byte, error) {
	switch col.Type {
	case roachpb.ColumnType_INT64:
		rest, v, err := encoding.DecodeInt64Ascending(b)
		return roachpb.ValueFromInt64(v), rest, err
	case roachpb.ColumnType_UINT64:
		rest, v, err := encoding.DecodeUint64Ascending(b)
		return roachpb.ValueFromUint64(v), rest, err
	case roachpb.ColumnType_FLOAT64:
		rest, v, err := encoding.DecodeFloat64Ascending(b)
		return roachpb.ValueFromFloat64(v), rest, err
	case roachpb.ColumnType_STRING:
		rest, v, err := encoding.DecodeStringAscending(b)
		return roachpb.ValueFromString(v), rest, err
	case roachpb.ColumnType_BYTES:
		rest, v, err := encoding.DecodeBytesAscending(b)
		return roachpb.ValueFromBytes(v), rest, err
	case roachpb.ColumnType_BOOL:
		rest, v, err := encoding.DecodeBoolAscending(b)
		return roachpb.ValueFromBool(v), rest, err
	default:
		return roachpb.Value{}, nil, sherrors.InvalidArgumentf("unknown column type %v", col.Type)
	}
}

// EncodeValue packs every present non-PK column of row into the repeated
// (column_id_varint, wire_type_byte, payload) stream described by the
// codec's value format. Column order in the stream follows schema
// order; callers decoding the stream must not assume that order.
func EncodeValue(schema *roachpb.Schema, row roachpb.Row) ([]byte, error) {
	var buf []byte
	for _, col := range schema.Columns {
		if col.IsPrimaryKey() {
			continue
		}
		v, ok := row[col.ColumnID]
		if !ok || v.Tag == roachpb.Null {
			continue
		}
		wt, err := wireTypeFor(col.Type)
		if err != nil {
			return nil, err
		}
		buf = encoding.EncodeUvarint(buf, uint64(col.ColumnID))
		buf = append(buf, byte(wt))
		buf, err = encodePayload(buf, wt, v)
		if err != nil {
			return nil, err
		}
	}
	return buf, nil
}

func encodePayload(b []byte, wt wireType, v roachpb.Value) ([]byte, error) {
	switch wt {
	case wireInt64:
		return encoding.EncodeUvarint(b, uint64(v.IntVal)), nil
	case wireUint64:
		return encoding.EncodeUvarint(b, v.UintVal), nil
	case wireFloat64:
		return encoding.EncodeUint64Ascending(b, uint64FromFloat(v.FloatVal)), nil
	case wireBytes:
		if v.Tag == roachpb.Str {
			return lengthPrefixed(b, []byte(v.StringVal)), nil
		}
		return lengthPrefixed(b, v.BytesVal), nil
	case wireBool:
		if v.BoolVal {
			return append(b, 1), nil
		}
		return append(b, 0), nil
	default:
		return nil, sherrors.InvalidArgumentf("unknown wire type %d", wt)
	}
}

func lengthPrefixed(b []byte, data []byte) []byte {
	b = encoding.EncodeUvarint(b, uint64(len(data)))
	return append(b, data...)
}

// DecodeValue unpacks non-PK columns from value into a Row. If
// projection is non-empty, only columns whose id appears in projection
// are decoded; an empty projection decodes every column present in the
// stream. A column id appearing twice in value is a Corruption error, as
// is a truncated or malformed entry.
func DecodeValue(schema *roachpb.Schema, value []byte, projection []uint32) (roachpb.Row, error) {
	want := toSet(projection)
	row := make(roachpb.Row)
	rest := value
	seen := make(map[uint32]bool)
	for len(rest) > 0 {
		var colID uint64
		var err error
		rest, colID, err = encoding.DecodeUvarint(rest)
		if err != nil {
			return nil, sherrors.Corruptionf(value, "decoding column id: %v", err)
		}
		if len(rest) < 1 {
			return nil, sherrors.Corruptionf(value, "truncated wire type for column %d", colID)
		}
		wt := wireType(rest[0])
		rest = rest[1:]

		var v roachpb.Value
		rest, v, err = decodePayload(rest, wt)
		if err != nil {
			return nil, sherrors.Corruptionf(value, "decoding column %d: %v", colID, err)
		}
		id := uint32(colID)
		if seen[id] {
			return nil, sherrors.Corruptionf(value, "duplicate column id %d in value stream", colID)
		}
		seen[id] = true

		if len(want) == 0 || want[id] {
			if col, ok := schema.ColumnByID(id); ok {
				row[id] = retagByColumnType(v, col.Type)
			} else {
				row[id] = v // unknown column id: preserved verbatim for forward compatibility
			}
		}
	}
	return row, nil
}

// retagByColumnType fixes up the tag on values whose wire encoding is
// ambiguous between STRING and BYTES (both travel as wireBytes): the
// schema is authoritative over which of the two a column actually is.
func retagByColumnType(v roachpb.Value, t roachpb.ColumnType) roachpb.Value {
	if v.Tag == roachpb.Bytes && t == roachpb.ColumnType_STRING {
		return roachpb.ValueFromString(string(v.BytesVal))
	}
	return v
}

func decodePayload(b []byte, wt wireType) ([]byte, roachpb.Value, error) {
	switch wt {
	case wireInt64:
		rest, v, err := encoding.DecodeUvarint(b)
		return rest, roachpb.ValueFromInt64(int64(v)), err
	case wireUint64:
		rest, v, err := encoding.DecodeUvarint(b)
		return rest, roachpb.ValueFromUint64(v), err
	case wireFloat64:
		rest, v, err := encoding.DecodeUint64Ascending(b)
		return rest, roachpb.ValueFromFloat64(floatFromUint64(v)), err
	case wireBytes:
		rest, n, err := encoding.DecodeUvarint(b)
		if err != nil {
			return nil, roachpb.Value{}, err
		}
		if uint64(len(rest)) < n {
			return nil, roachpb.Value{}, sherrors.InvalidArgumentf("truncated byte payload: want %d, have %d", n, len(rest))
		}
		data := append([]byte(nil), rest[:n]...)
		return rest[n:], roachpb.ValueFromBytes(data), nil
	case wireBool:
		if len(b) < 1 {
			return nil, roachpb.Value{}, sherrors.InvalidArgumentf("truncated bool payload")
		}
		return b[1:], roachpb.ValueFromBool(b[0] != 0), nil
	default:
		return nil, roachpb.Value{}, sherrors.InvalidArgumentf("unknown wire type %d", wt)
	}
}

func toSet(ids []uint32) map[uint32]bool {
	if len(ids) == 0 {
		return nil
	}
	m := make(map[uint32]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}

// Encode builds the complete (key, value) KV pair for row under schema,
// with key prefixed by tablePrefix.
func Encode(schema *roachpb.Schema, tablePrefix []byte, row roachpb.Row) (key, value []byte, err error) {
	key, err = EncodeKey(schema, tablePrefix, row)
	if err != nil {
		return nil, nil, err
	}
	value, err = EncodeValue(schema, row)
	if err != nil {
		return nil, nil, err
	}
	return key, value, nil
}

// Decode recovers a full Row (PK columns from key, the rest from value)
// under schema, with key prefixed by tablePrefix.
func Decode(schema *roachpb.Schema, tablePrefix []byte, key, value []byte) (roachpb.Row, error) {
	row, err := DecodeKey(schema, key, len(tablePrefix))
	if err != nil {
		return nil, err
	}
	rest, err := DecodeValue(schema, value, nil)
	if err != nil {
		return nil, err
	}
	for id, v := range rest {
		row[id] = v
	}
	return row, nil
}

func uint64FromFloat(f float64) uint64 {
	return math.Float64bits(f)
}

func floatFromUint64(u uint64) float64 {
	return math.Float64frombits(u)
}
