package rangestore

import (
	"context"
	"time"

	"github.com/marknewmail/sharkstore/roachpb"
	"github.com/marknewmail/sharkstore/sherrors"
	"github.com/marknewmail/sharkstore/storage/rowcodec"
)

// matchedRow is one row that passed a scan plan's match_list, carrying
// both its encoded key (for delete) and its decoded columns (for
// projection).
type matchedRow struct {
	key []byte
	row roachpb.Row
}

// encodePrefixTuple encodes as many leading PK columns as len(values)
// gives, in PK order, parsing each against its column's declared type.
// It is used both for Key (a complete PK tuple) and for Lower/Upper
// scope bounds (a possibly partial leading prefix).
func encodePrefixTuple(schema *roachpb.Schema, prefix []byte, values []string) ([]byte, error) {
	pk := schema.PrimaryKeyColumns()
	if len(values) > len(pk) {
		return nil, sherrors.InvalidArgumentf("tuple has %d values but schema has %d primary key columns", len(values), len(pk))
	}
	buf := append([]byte(nil), prefix...)
	for i, text := range values {
		col := pk[i]
		v, err := parseLiteral(col.Type, text)
		if err != nil {
			return nil, err
		}
		buf, err = rowcodec.EncodeColumnAscending(buf, col, v)
		if err != nil {
			return nil, err
		}
	}
	return buf, nil
}

// leadingPKBound narrows [lower, upper) further using any match-list
// predicate against the schema's leading (PrimaryKeyOrder == 1) PK
// column: an Equal predicate pins both bounds to that value; Less/
// LessOrEqual tighten the upper bound; Larger/LargerOrEqual tighten the
// lower bound. This is purely a performance optimization — matchRows
// always re-evaluates the full match_list per row — so a predicate this
// function doesn't recognize is simply left for the row-wise check.
func leadingPKBound(schema *roachpb.Schema, prefix []byte, matchList []Predicate, lower, upper []byte) ([]byte, []byte, error) {
	pk := schema.PrimaryKeyColumns()
	if len(pk) == 0 {
		return lower, upper, nil
	}
	leading := pk[0]
	for _, pred := range matchList {
		if pred.Column != leading.Name {
			continue
		}
		v, err := parseLiteral(leading.Type, pred.Literal)
		if err != nil {
			return nil, nil, err
		}
		encoded, err := rowcodec.EncodeColumnAscending(append([]byte(nil), prefix...), leading, v)
		if err != nil {
			return nil, nil, err
		}
		switch pred.Op {
		case OpEqual:
			lower, upper = tighterLower(lower, encoded), tighterUpper(upper, immediateSuccessor(encoded))
		case OpLess:
			upper = tighterUpper(upper, encoded)
		case OpLessOrEqual:
			upper = tighterUpper(upper, immediateSuccessor(encoded))
		case OpLarger:
			lower = tighterLower(lower, immediateSuccessor(encoded))
		case OpLargerOrEqual:
			lower = tighterLower(lower, encoded)
		}
	}
	return lower, upper, nil
}

func tighterLower(cur, candidate []byte) []byte {
	if len(cur) == 0 || bytesGreater(candidate, cur) {
		return candidate
	}
	return cur
}

func tighterUpper(cur, candidate []byte) []byte {
	if len(cur) == 0 || bytesLess(candidate, cur) {
		return candidate
	}
	return cur
}

// immediateSuccessor returns the smallest key strictly greater than any
// key having b as a prefix, used to turn an inclusive bound into the
// exclusive upper bound a KV iterator wants.
func immediateSuccessor(b []byte) []byte {
	end := append([]byte(nil), b...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] != 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return append(end, 0x00)
}

// matchRows runs plan's match_list over the range, calling fn for every
// row that passes. It never applies limit or projection — callers
// select what they need from each matchedRow. Iteration stops and the
// error is returned immediately on a decode or backend failure,
// discarding partial progress, per the executor's no-local-recovery
// policy for IOError/Corruption.
func (r *Range) matchRows(ctx context.Context, plan ScanPlan, fn func(matchedRow) (keepGoing bool, err error)) error {
	if r.metrics != nil {
		start := time.Now()
		defer func() { r.metrics.ScanLatency.Observe(time.Since(start).Seconds()) }()
	}

	if plan.Key != nil {
		key, err := encodePrefixTuple(r.schema, r.prefix, plan.Key)
		if err != nil {
			return err
		}
		if len(plan.Key) != len(r.schema.PrimaryKeyColumns()) {
			return sherrors.InvalidArgumentf("key must supply all %d primary key columns", len(r.schema.PrimaryKeyColumns()))
		}
		value, err := r.eng.Get(key)
		if sherrors.Is(err, sherrors.NotFound) {
			return nil
		}
		if err != nil {
			r.errf("point lookup failed: %v", err)
			return err
		}
		row, err := rowcodec.Decode(r.schema, r.prefix, key, value)
		if err != nil {
			r.errf("decoding row at key %x failed: %v", key, err)
			return err
		}
		ok, err := evaluateMatchList(r.schema, row, plan.MatchList)
		if err != nil {
			return err
		}
		if ok {
			if _, err := fn(matchedRow{key: key, row: row}); err != nil {
				return err
			}
		}
		return nil
	}

	var lowerBound, upperBound []byte
	var err error
	if len(plan.Lower.Values) > 0 {
		lowerBound, err = encodePrefixTuple(r.schema, r.prefix, plan.Lower.Values)
		if err != nil {
			return err
		}
	}
	if len(plan.Upper.Values) > 0 {
		upperBound, err = encodePrefixTuple(r.schema, r.prefix, plan.Upper.Values)
		if err != nil {
			return err
		}
	}
	effLower, effUpper := r.effectiveBounds(lowerBound, upperBound)
	effLower, effUpper, err = leadingPKBound(r.schema, r.prefix, plan.MatchList, effLower, effUpper)
	if err != nil {
		return err
	}
	if len(effUpper) > 0 && !bytesLess(effLower, effUpper) {
		return nil // empty scan: lower >= upper
	}

	it := r.eng.NewIterator(ctx, effLower, effUpper)
	defer it.Close()

	for ok := it.Rewind(); ok; ok = it.Next() {
		key := append([]byte(nil), it.Key()...)
		value := append([]byte(nil), it.Value()...)
		row, err := rowcodec.Decode(r.schema, r.prefix, key, value)
		if err != nil {
			r.errf("decoding row at key %x failed: %v", key, err)
			return err
		}
		matched, err := evaluateMatchList(r.schema, row, plan.MatchList)
		if err != nil {
			return err
		}
		if !matched {
			continue
		}
		keepGoing, err := fn(matchedRow{key: key, row: row})
		if err != nil {
			return err
		}
		if !keepGoing {
			break
		}
	}
	if err := it.Err(); err != nil {
		r.errf("scan iteration failed: %v", err)
		return err
	}
	return nil
}

func evaluateMatchList(schema *roachpb.Schema, row roachpb.Row, matchList []Predicate) (bool, error) {
	for _, pred := range matchList {
		col, ok := schema.ColumnByName(pred.Column)
		if !ok {
			return false, sherrors.InvalidArgumentf("unknown column %q in match list", pred.Column)
		}
		rowVal, present := row[col.ColumnID]
		if !present {
			return false, nil // NULL never satisfies any comparison
		}
		literal, err := parseLiteral(col.Type, pred.Literal)
		if err != nil {
			return false, err
		}
		cmp, err := compareValues(rowVal, literal)
		if err != nil {
			return false, err
		}
		if !matchOp(cmp, pred.Op) {
			return false, nil
		}
	}
	return true, nil
}
