package rangestore

import (
	"context"

	"github.com/marknewmail/sharkstore/roachpb"
	"github.com/marknewmail/sharkstore/sherrors"
)

// Select runs plan and returns its output rows as ordered lists of
// field-value text, in projection order. A raw-field projection emits
// one output row per matching input row (after limit/offset); an
// aggregate projection always emits exactly one output row, computed
// over every matching row regardless of limit.
func (r *Range) Select(ctx context.Context, plan ScanPlan) ([][]string, error) {
	done, err := r.beginOp(false)
	if err != nil {
		return nil, err
	}
	defer done()

	if err := validateProjection(plan.Projection); err != nil {
		return nil, err
	}
	if len(plan.Projection) == 0 {
		return nil, sherrors.InvalidArgumentf("projection must not be empty")
	}

	if plan.Projection[0].IsAggregate {
		return r.selectAggregate(ctx, plan)
	}
	return r.selectFields(ctx, plan)
}

func (r *Range) selectFields(ctx context.Context, plan ScanPlan) ([][]string, error) {
	cols := make([]roachpb.Column, len(plan.Projection))
	for i, item := range plan.Projection {
		col, ok := r.schema.ColumnByName(item.Column)
		if !ok {
			return nil, sherrors.InvalidArgumentf("unknown column %q in projection", item.Column)
		}
		cols[i] = col
	}

	offset, limit := 0, -1
	if plan.Limit != nil {
		offset, limit = plan.Limit.Offset, plan.Limit.Count
	}

	var out [][]string
	matched := 0
	err := r.matchRows(ctx, plan, func(m matchedRow) (bool, error) {
		matched++
		if matched <= offset {
			return true, nil
		}
		row := make([]string, len(cols))
		for i, col := range cols {
			row[i] = m.row[col.ColumnID].Text()
		}
		out = append(out, row)
		if limit >= 0 && len(out) >= limit {
			return false, nil
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	if r.metrics != nil {
		r.metrics.SelectedRows.Add(float64(len(out)))
	}
	return out, nil
}

type aggAcc struct {
	item   ProjectionItem
	col    roachpb.Column
	hasCol bool
	count  uint64
	sumI   int64
	sumU   uint64
	sumF   float64
	hasMin bool
	min    roachpb.Value
	hasMax bool
	max    roachpb.Value
}

func (r *Range) selectAggregate(ctx context.Context, plan ScanPlan) ([][]string, error) {
	accs := make([]*aggAcc, len(plan.Projection))
	for i, item := range plan.Projection {
		acc := &aggAcc{item: item}
		if item.Func != AggCount && item.Column != "" {
			col, ok := r.schema.ColumnByName(item.Column)
			if !ok {
				return nil, sherrors.InvalidArgumentf("unknown column %q in aggregate", item.Column)
			}
			acc.col = col
			acc.hasCol = true
		}
		accs[i] = acc
	}

	err := r.matchRows(ctx, plan, func(m matchedRow) (bool, error) {
		for _, acc := range accs {
			if err := acc.observe(m.row); err != nil {
				return false, err
			}
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	row := make([]string, len(accs))
	for i, acc := range accs {
		row[i] = acc.text()
	}
	if r.metrics != nil && len(accs) > 0 {
		r.metrics.SelectedRows.Add(float64(accs[0].count))
	}
	return [][]string{row}, nil
}

func (a *aggAcc) observe(row roachpb.Row) error {
	a.count++
	if a.item.Func == AggCount {
		return nil
	}
	if !a.hasCol {
		return sherrors.InvalidArgumentf("aggregate %v requires a column", a.item.Func)
	}
	v, ok := row[a.col.ColumnID]
	if !ok || v.Tag == roachpb.Null {
		return nil
	}
	switch a.item.Func {
	case AggSum:
		switch v.Tag {
		case roachpb.Int64:
			a.sumI += v.IntVal
		case roachpb.UInt64:
			a.sumU += v.UintVal
		case roachpb.F64:
			a.sumF += v.FloatVal
		default:
			return sherrors.InvalidArgumentf("sum() requires a numeric column, got %v", v.Tag)
		}
	case AggMin:
		if !a.hasMin {
			a.min, a.hasMin = v, true
			return nil
		}
		cmp, err := compareValues(v, a.min)
		if err != nil {
			return err
		}
		if cmp < 0 {
			a.min = v
		}
	case AggMax:
		if !a.hasMax {
			a.max, a.hasMax = v, true
			return nil
		}
		cmp, err := compareValues(v, a.max)
		if err != nil {
			return err
		}
		if cmp > 0 {
			a.max = v
		}
	}
	return nil
}

func (a *aggAcc) text() string {
	switch a.item.Func {
	case AggCount:
		return roachpb.ValueFromUint64(a.count).Text()
	case AggSum:
		if !a.hasCol {
			return "0"
		}
		switch a.col.Type {
		case roachpb.ColumnType_INT64:
			return roachpb.ValueFromInt64(a.sumI).Text()
		case roachpb.ColumnType_UINT64:
			return roachpb.ValueFromUint64(a.sumU).Text()
		case roachpb.ColumnType_FLOAT64:
			return roachpb.ValueFromFloat64(a.sumF).Text()
		default:
			return "0"
		}
	case AggMin:
		if !a.hasMin {
			return roachpb.ZeroText(a.col.Type)
		}
		return a.min.Text()
	case AggMax:
		if !a.hasMax {
			return roachpb.ZeroText(a.col.Type)
		}
		return a.max.Text()
	default:
		return ""
	}
}
