package rangestore

import (
	"context"

	"github.com/marknewmail/sharkstore/storage/engine"
)

// StructuredDelete enumerates every row matching plan's key/scope/
// match_list and removes them as a single atomic batch, committed under
// the range's sync-on-write setting. It returns the number of keys
// actually removed. A plan matching nothing returns affected=0 with no
// error.
func (r *Range) StructuredDelete(ctx context.Context, plan ScanPlan) (affected uint64, err error) {
	done, err := r.beginOp(true)
	if err != nil {
		return 0, err
	}
	defer done()

	var ops []engine.BatchOp
	err = r.matchRows(ctx, plan, func(m matchedRow) (bool, error) {
		ops = append(ops, engine.BatchOp{Key: m.key, IsPut: false})
		return true, nil
	})
	if err != nil {
		return 0, err
	}
	if len(ops) == 0 {
		return 0, nil
	}
	if err := r.eng.Write(ops, r.syncOnWrite); err != nil {
		r.errf("structured delete batch of %d keys failed: %v", len(ops), err)
		return 0, err
	}
	if r.metrics != nil {
		r.metrics.DeletedRows.Add(float64(len(ops)))
	}
	return uint64(len(ops)), nil
}
