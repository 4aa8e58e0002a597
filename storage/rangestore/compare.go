package rangestore

import (
	"bytes"

	"github.com/marknewmail/sharkstore/roachpb"
	"github.com/marknewmail/sharkstore/sherrors"
)

// compareValues returns -1, 0, or 1 as a compares less than, equal to,
// or greater than b. Both values must share the same tag; comparing
// across incompatible tags is an InvalidArgument error, per the tagged
// variant's contract that mixing incomparable tags in a predicate is
// rejected rather than silently coerced.
func compareValues(a, b roachpb.Value) (int, error) {
	if a.Tag != b.Tag {
		return 0, sherrors.InvalidArgumentf("cannot compare %v with %v", a.Tag, b.Tag)
	}
	switch a.Tag {
	case roachpb.Int64:
		return compareInt64(a.IntVal, b.IntVal), nil
	case roachpb.UInt64:
		return compareUint64(a.UintVal, b.UintVal), nil
	case roachpb.F64:
		return compareFloat64(a.FloatVal, b.FloatVal), nil
	case roachpb.Str:
		return bytes.Compare([]byte(a.StringVal), []byte(b.StringVal)), nil
	case roachpb.Bytes:
		return bytes.Compare(a.BytesVal, b.BytesVal), nil
	case roachpb.Bool:
		return compareBool(a.BoolVal, b.BoolVal), nil
	default:
		return 0, sherrors.InvalidArgumentf("cannot compare values of tag %v", a.Tag)
	}
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareUint64(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareFloat64(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareBool(a, b bool) int {
	if a == b {
		return 0
	}
	if !a {
		return -1
	}
	return 1
}

// matchOp evaluates op against the comparison result cmp (as returned by
// compareValues(rowVal, literal)).
func matchOp(cmp int, op Op) bool {
	switch op {
	case OpEqual:
		return cmp == 0
	case OpNotEqual:
		return cmp != 0
	case OpLess:
		return cmp < 0
	case OpLessOrEqual:
		return cmp <= 0
	case OpLarger:
		return cmp > 0
	case OpLargerOrEqual:
		return cmp >= 0
	default:
		return false
	}
}
