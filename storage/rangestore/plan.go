// Package rangestore is the range store and query executor: per-range
// row CRUD plus the scan engine shared by select and delete
// (projection, predicate and scope/key filtering, limit/offset, and
// streaming count/min/max/sum aggregates) built on storage/rowcodec and
// storage/engine. Its operation set and the concrete predicate operator
// names (Equal/NotEqual/Less/LessOrEqual/Larger/LargerOrEqual) mirror
// the original data server's SelectRequestBuilder/kvrpcpb match-list
// vocabulary exercised in
// original_source/data-server/test/unittest/store_unittest.cpp; there
// being no kvrpcpb wire package to import here, this module expresses
// the same plan as plain Go structs instead.
package rangestore

import (
	"strconv"

	"github.com/marknewmail/sharkstore/roachpb"
	"github.com/marknewmail/sharkstore/sherrors"
)

// Op is a match-list comparison operator.
type Op int

const (
	OpEqual Op = iota
	OpNotEqual
	OpLess
	OpLessOrEqual
	OpLarger
	OpLargerOrEqual
)

// Predicate is one (column, op, literal) entry of a scan plan's
// match_list. Literal is textual, in the same decimal/raw-string form
// as row field values; it is parsed against the column's declared type
// before comparison.
type Predicate struct {
	Column  string
	Op      Op
	Literal string
}

// AggregateFunc identifies a streaming aggregate.
type AggregateFunc int

const (
	AggNone AggregateFunc = iota
	AggCount
	AggMin
	AggMax
	AggSum
)

// ProjectionItem is a sum type: either a raw column reference or an
// aggregate. Column is the column name for Field projections, and the
// (possibly empty, for count) target column for Aggregate projections.
type ProjectionItem struct {
	IsAggregate bool
	Column      string
	Func        AggregateFunc
}

// Field builds a raw-column ProjectionItem.
func Field(column string) ProjectionItem {
	return ProjectionItem{Column: column}
}

// Aggregate builds an aggregate ProjectionItem. column is ignored for
// AggCount.
func Aggregate(fn AggregateFunc, column string) ProjectionItem {
	return ProjectionItem{IsAggregate: true, Func: fn, Column: column}
}

// Limit bounds the number of output rows, applied after predicates and
// before aggregation (aggregates ignore Limit entirely).
type Limit struct {
	Count  int
	Offset int
}

// ScopeBound is an optional, possibly partial, leading-PK-prefix tuple
// narrowing a scan past the range's own boundaries. A nil Values means
// unbounded on that side.
type ScopeBound struct {
	Values []string
}

// ScanPlan describes one select or delete pass over a range.
type ScanPlan struct {
	// Key, if non-nil, is a complete PK tuple; the scan degenerates to a
	// single point lookup and Scope is ignored.
	Key []string
	// Lower and Upper optionally narrow the scan past the range's own
	// [start_key, end_key) boundaries.
	Lower, Upper ScopeBound
	MatchList    []Predicate
	Projection   []ProjectionItem
	Limit        *Limit
}

// validateProjection enforces that aggregates and raw columns are never
// mixed in one projection.
func validateProjection(items []ProjectionItem) error {
	if len(items) == 0 {
		return nil
	}
	agg := items[0].IsAggregate
	for _, it := range items[1:] {
		if it.IsAggregate != agg {
			return sherrors.InvalidArgumentf("projection mixes raw columns and aggregates")
		}
	}
	return nil
}

// parseLiteral parses a textual literal into a roachpb.Value of the
// given column type, for use as the right-hand side of a predicate
// comparison.
func parseLiteral(t roachpb.ColumnType, literal string) (roachpb.Value, error) {
	switch t {
	case roachpb.ColumnType_INT64:
		v, err := strconv.ParseInt(literal, 10, 64)
		if err != nil {
			return roachpb.Value{}, sherrors.InvalidArgumentf("invalid int64 literal %q", literal)
		}
		return roachpb.ValueFromInt64(v), nil
	case roachpb.ColumnType_UINT64:
		v, err := strconv.ParseUint(literal, 10, 64)
		if err != nil {
			return roachpb.Value{}, sherrors.InvalidArgumentf("invalid uint64 literal %q", literal)
		}
		return roachpb.ValueFromUint64(v), nil
	case roachpb.ColumnType_FLOAT64:
		v, err := strconv.ParseFloat(literal, 64)
		if err != nil {
			return roachpb.Value{}, sherrors.InvalidArgumentf("invalid float64 literal %q", literal)
		}
		return roachpb.ValueFromFloat64(v), nil
	case roachpb.ColumnType_STRING:
		return roachpb.ValueFromString(literal), nil
	case roachpb.ColumnType_BYTES:
		return roachpb.ValueFromBytes([]byte(literal)), nil
	case roachpb.ColumnType_BOOL:
		v, err := strconv.ParseBool(literal)
		if err != nil {
			return roachpb.Value{}, sherrors.InvalidArgumentf("invalid bool literal %q", literal)
		}
		return roachpb.ValueFromBool(v), nil
	default:
		return roachpb.Value{}, sherrors.InvalidArgumentf("unknown column type %v", t)
	}
}
