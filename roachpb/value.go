// Package roachpb holds the wire-level types shared across the storage
// core: column and schema descriptions, the tagged decoded-value variant
// the executor computes over, and the persisted range descriptor. It
// plays the same role the teacher's roachpb package plays for the SQL
// layer above it — a dependency-free leaf package everything else
// imports — but its contents are this module's own domain types rather
// than the teacher's KV API messages.
package roachpb

import (
	"fmt"
	"strconv"
)

// ColumnType is one of the logical column types the row codec knows how
// to encode into an order-preserving key or a tagged value payload.
type ColumnType int

const (
	ColumnType_INT64 ColumnType = iota
	ColumnType_UINT64
	ColumnType_FLOAT64
	ColumnType_STRING
	ColumnType_BYTES
	ColumnType_BOOL
)

func (t ColumnType) String() string {
	switch t {
	case ColumnType_INT64:
		return "INT64"
	case ColumnType_UINT64:
		return "UINT64"
	case ColumnType_FLOAT64:
		return "FLOAT64"
	case ColumnType_STRING:
		return "STRING"
	case ColumnType_BYTES:
		return "BYTES"
	case ColumnType_BOOL:
		return "BOOL"
	default:
		return "UNKNOWN"
	}
}

// Column describes one attribute of a table. PrimaryKeyOrder is zero for
// a non-key column, or 1..K giving the column's position within the
// composite primary key.
type Column struct {
	ColumnID        uint32
	Name            string
	Type            ColumnType
	PrimaryKeyOrder uint32
}

// IsPrimaryKey reports whether the column participates in the table's
// primary key.
func (c Column) IsPrimaryKey() bool {
	return c.PrimaryKeyOrder > 0
}

// Schema is the ordered set of columns making up a table, with a stable
// SchemaID identifying the table for range-prefix and descriptor
// bookkeeping.
type Schema struct {
	SchemaID uint64
	Columns  []Column
}

// PrimaryKeyColumns returns the schema's PK columns ordered by
// PrimaryKeyOrder ascending (1, 2, ..., K).
func (s *Schema) PrimaryKeyColumns() []Column {
	pk := make([]Column, 0, len(s.Columns))
	for _, c := range s.Columns {
		if c.IsPrimaryKey() {
			pk = append(pk, c)
		}
	}
	for i := 1; i < len(pk); i++ {
		for j := i; j > 0 && pk[j-1].PrimaryKeyOrder > pk[j].PrimaryKeyOrder; j-- {
			pk[j-1], pk[j] = pk[j], pk[j-1]
		}
	}
	return pk
}

// ColumnByName returns the column named name and true, or the zero
// Column and false if the schema has no such column.
func (s *Schema) ColumnByName(name string) (Column, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// ColumnByID returns the column with the given id and true, or the zero
// Column and false.
func (s *Schema) ColumnByID(id uint32) (Column, bool) {
	for _, c := range s.Columns {
		if c.ColumnID == id {
			return c, true
		}
	}
	return Column{}, false
}

// ValueTag identifies which field of Value is populated. Null is a
// distinct tag rather than a zero Int64, so an absent non-PK column
// round-trips as absent instead of as a sentinel.
type ValueTag int

const (
	Null ValueTag = iota
	Int64
	UInt64
	F64
	Str
	Bytes
	Bool
)

func (t ValueTag) String() string {
	switch t {
	case Null:
		return "Null"
	case Int64:
		return "Int64"
	case UInt64:
		return "UInt64"
	case F64:
		return "F64"
	case Str:
		return "Str"
	case Bytes:
		return "Bytes"
	case Bool:
		return "Bool"
	default:
		return "Unknown"
	}
}

// Value is the tagged variant the executor decodes column payloads into
// and computes predicates and aggregates over. Only the field named by
// Tag is meaningful.
type Value struct {
	Tag       ValueTag
	IntVal    int64
	UintVal   uint64
	FloatVal  float64
	StringVal string
	BytesVal  []byte
	BoolVal   bool
}

// ValueFromInt64 builds a non-null Int64 Value.
func ValueFromInt64(v int64) Value { return Value{Tag: Int64, IntVal: v} }

// ValueFromUint64 builds a non-null UInt64 Value.
func ValueFromUint64(v uint64) Value { return Value{Tag: UInt64, UintVal: v} }

// ValueFromFloat64 builds a non-null F64 Value.
func ValueFromFloat64(v float64) Value { return Value{Tag: F64, FloatVal: v} }

// ValueFromString builds a non-null Str Value.
func ValueFromString(v string) Value { return Value{Tag: Str, StringVal: v} }

// ValueFromBytes builds a non-null Bytes Value.
func ValueFromBytes(v []byte) Value { return Value{Tag: Bytes, BytesVal: v} }

// ValueFromBool builds a non-null Bool Value.
func ValueFromBool(v bool) Value { return Value{Tag: Bool, BoolVal: v} }

// Text renders v using the same decimal-text / raw-string convention the
// wire request and response shapes use for field values.
func (v Value) Text() string {
	switch v.Tag {
	case Null:
		return ""
	case Int64:
		return strconv.FormatInt(v.IntVal, 10)
	case UInt64:
		return strconv.FormatUint(v.UintVal, 10)
	case F64:
		return strconv.FormatFloat(v.FloatVal, 'g', -1, 64)
	case Str:
		return v.StringVal
	case Bytes:
		return string(v.BytesVal)
	case Bool:
		if v.BoolVal {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

// ZeroText is the textual form emitted for min/max/sum aggregates
// evaluated over an empty input, keyed by the column's declared type
// rather than by any decoded Value (there is none to decode).
func ZeroText(t ColumnType) string {
	switch t {
	case ColumnType_STRING, ColumnType_BYTES:
		return ""
	default:
		return "0"
	}
}

// Row is a decoded logical row, keyed by column id.
type Row map[uint32]Value

func (r Row) String() string {
	return fmt.Sprintf("Row(%d cols)", len(r))
}
