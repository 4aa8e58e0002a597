package rangestore

import (
	"github.com/marknewmail/sharkstore/roachpb"
	"github.com/marknewmail/sharkstore/sherrors"
	"github.com/marknewmail/sharkstore/storage/engine"
	"github.com/marknewmail/sharkstore/storage/rowcodec"
)

// Insert encodes and writes rows atomically: either every row lands, or
// none do. If checkDuplicate is set, any row whose key already exists
// aborts the whole request with Duplicate and affected=0 before any
// write is attempted.
func (r *Range) Insert(rows []roachpb.Row, checkDuplicate bool) (affected uint64, err error) {
	done, err := r.beginOp(true)
	if err != nil {
		return 0, err
	}
	defer done()

	ops := make([]engine.BatchOp, 0, len(rows))
	for _, row := range rows {
		key, value, err := rowcodec.Encode(r.schema, r.prefix, row)
		if err != nil {
			return 0, err
		}
		if err := r.checkKeyInRange(key); err != nil {
			return 0, err
		}
		if checkDuplicate {
			if _, err := r.eng.Get(key); err == nil {
				if r.metrics != nil {
					r.metrics.Duplicates.Inc()
				}
				return 0, sherrors.Duplicatef("key already exists")
			} else if !sherrors.Is(err, sherrors.NotFound) {
				return 0, err
			}
		}
		ops = append(ops, engine.BatchOp{Key: key, Value: value, IsPut: true})
	}

	if err := r.eng.Write(ops, r.syncOnWrite); err != nil {
		r.errf("insert batch of %d rows failed: %v", len(ops), err)
		return 0, err
	}
	if r.metrics != nil {
		r.metrics.InsertedRows.Add(float64(len(ops)))
	}
	return uint64(len(ops)), nil
}
