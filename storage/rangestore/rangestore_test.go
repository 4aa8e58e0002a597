package rangestore

import (
	"context"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/marknewmail/sharkstore/keys"
	"github.com/marknewmail/sharkstore/roachpb"
	"github.com/marknewmail/sharkstore/sherrors"
	"github.com/marknewmail/sharkstore/storage/engine"
	"github.com/marknewmail/sharkstore/storage/metastore"
	"github.com/marknewmail/sharkstore/util/metric"
)

const (
	colID      = 1
	colName    = 2
	colBalance = 3
)

func accountSchema() *roachpb.Schema {
	return &roachpb.Schema{
		SchemaID: 1,
		Columns: []roachpb.Column{
			{ColumnID: colID, Name: "id", Type: roachpb.ColumnType_INT64, PrimaryKeyOrder: 1},
			{ColumnID: colName, Name: "name", Type: roachpb.ColumnType_STRING},
			{ColumnID: colBalance, Name: "balance", Type: roachpb.ColumnType_INT64},
		},
	}
}

func tablePrefixEnd(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] != 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return append(end, 0x00)
}

// testRange wires a Range and its backing Engine/Store for tests; it
// owns fresh temp directories and is left in the Serving state.
type testRange struct {
	*Range
	eng  *engine.Engine
	meta *metastore.Store
}

func newTestRange(t *testing.T) *testRange {
	t.Helper()
	schema := accountSchema()
	prefix := keys.TablePrefix(schema.SchemaID)

	eng, err := engine.Open(t.TempDir(), false)
	require.NoError(t, err)
	t.Cleanup(func() { eng.Close() })

	meta, err := metastore.Open(t.TempDir(), false, nil)
	require.NoError(t, err)
	t.Cleanup(func() { meta.Close() })

	desc := &roachpb.RangeDescriptor{
		RangeID:  1,
		StartKey: prefix,
		EndKey:   tablePrefixEnd(prefix),
		SchemaID: schema.SchemaID,
	}
	r := Open(desc, schema, eng, meta, nil, true)
	r.SetServing()
	return &testRange{Range: r, eng: eng, meta: meta}
}

// newTestRangeWithMetrics is like newTestRange but wires a real
// StoreMetrics against a fresh, unregistered-elsewhere registry, for
// tests that assert on counter values instead of just outcomes.
func newTestRangeWithMetrics(t *testing.T) (*testRange, *metric.StoreMetrics) {
	t.Helper()
	schema := accountSchema()
	prefix := keys.TablePrefix(schema.SchemaID)

	eng, err := engine.Open(t.TempDir(), false)
	require.NoError(t, err)
	t.Cleanup(func() { eng.Close() })

	metrics := metric.NewStoreMetrics(prometheus.NewRegistry())
	meta, err := metastore.Open(t.TempDir(), false, metrics)
	require.NoError(t, err)
	t.Cleanup(func() { meta.Close() })

	desc := &roachpb.RangeDescriptor{
		RangeID:  1,
		StartKey: prefix,
		EndKey:   tablePrefixEnd(prefix),
		SchemaID: schema.SchemaID,
	}
	r := Open(desc, schema, eng, meta, metrics, true)
	r.SetServing()
	return &testRange{Range: r, eng: eng, meta: meta}, metrics
}

func row(id int64, name string, balance int64) roachpb.Row {
	return roachpb.Row{
		colID:      roachpb.ValueFromInt64(id),
		colName:    roachpb.ValueFromString(name),
		colBalance: roachpb.ValueFromInt64(balance),
	}
}

// S1 — KV put/get/delete.
func TestRawPutGetDelete(t *testing.T) {
	tr := newTestRange(t)
	key := append(append([]byte(nil), tr.prefix...), 'k')

	require.NoError(t, tr.Put(key, []byte("v"), true))
	v, err := tr.Get(key)
	require.NoError(t, err)
	require.Equal(t, []byte("v"), v)

	require.NoError(t, tr.Delete(key, true))
	_, err = tr.Get(key)
	require.True(t, sherrors.Is(err, sherrors.NotFound))
}

func TestPutOutsideRangeRejected(t *testing.T) {
	tr := newTestRange(t)
	require.Error(t, tr.Put([]byte("\x00outside"), []byte("v"), true))
}

func TestStateMachine(t *testing.T) {
	tr := newTestRange(t)
	require.Equal(t, Serving, tr.State())

	tr.BeginClose()
	require.Equal(t, Closing, tr.State())

	key := append(append([]byte(nil), tr.prefix...), 'k')
	require.Error(t, tr.Put(key, []byte("v"), true))
	_, err := tr.Get(key)
	require.True(t, sherrors.Is(err, sherrors.NotFound)) // reads still allowed while Closing

	tr.Close()
	require.Equal(t, Closed, tr.State())
	_, err = tr.Get(key)
	require.True(t, sherrors.Is(err, sherrors.RangeClosing))
}

func insertAccountRows(t *testing.T, tr *testRange, n int) []roachpb.Row {
	t.Helper()
	rows := make([]roachpb.Row, n)
	for i := 1; i <= n; i++ {
		rows[i-1] = row(int64(i), fmt.Sprintf("user-%04d", i), int64(100+i))
	}
	affected, err := tr.Insert(rows, false)
	require.NoError(t, err)
	require.Equal(t, uint64(n), affected)
	return rows
}

// S2 — Insert + count.
func TestInsertAndCount(t *testing.T) {
	tr := newTestRange(t)
	insertAccountRows(t, tr, 100)

	out, err := tr.Select(context.Background(), ScanPlan{Projection: []ProjectionItem{Aggregate(AggCount, "")}})
	require.NoError(t, err)
	require.Equal(t, [][]string{{"100"}}, out)

	out, err = tr.Select(context.Background(), ScanPlan{
		MatchList:  []Predicate{{Column: "id", Op: OpLess, Literal: "5"}},
		Projection: []ProjectionItem{Aggregate(AggCount, "")},
	})
	require.NoError(t, err)
	require.Equal(t, [][]string{{"4"}}, out)

	out, err = tr.Select(context.Background(), ScanPlan{
		MatchList:  []Predicate{{Column: "id", Op: OpLarger, Literal: "5"}},
		Projection: []ProjectionItem{Aggregate(AggCount, "")},
	})
	require.NoError(t, err)
	require.Equal(t, [][]string{{"95"}}, out)

	out, err = tr.Select(context.Background(), ScanPlan{
		MatchList:  []Predicate{{Column: "id", Op: OpNotEqual, Literal: "1"}},
		Projection: []ProjectionItem{Aggregate(AggCount, "")},
	})
	require.NoError(t, err)
	require.Equal(t, [][]string{{"99"}}, out)
}

func TestCountOnEmptyStore(t *testing.T) {
	tr := newTestRange(t)
	out, err := tr.Select(context.Background(), ScanPlan{Projection: []ProjectionItem{Aggregate(AggCount, "")}})
	require.NoError(t, err)
	require.Equal(t, [][]string{{"0"}}, out)
}

func TestCountByKeyNotFound(t *testing.T) {
	tr := newTestRange(t)
	insertAccountRows(t, tr, 10)
	out, err := tr.Select(context.Background(), ScanPlan{
		Key:        []string{"999999"},
		Projection: []ProjectionItem{Aggregate(AggCount, "")},
	})
	require.NoError(t, err)
	require.Equal(t, [][]string{{"0"}}, out)
}

// S3 — Aggregates on id and balance.
func TestAggregatesMinMaxSum(t *testing.T) {
	tr := newTestRange(t)
	insertAccountRows(t, tr, 100)

	out, err := tr.Select(context.Background(), ScanPlan{Projection: []ProjectionItem{
		Aggregate(AggMax, "id"), Aggregate(AggMin, "id"), Aggregate(AggSum, "id"),
	}})
	require.NoError(t, err)
	require.Equal(t, [][]string{{"100", "1", "5050"}}, out)

	out, err = tr.Select(context.Background(), ScanPlan{Projection: []ProjectionItem{
		Aggregate(AggMax, "balance"), Aggregate(AggMin, "balance"), Aggregate(AggSum, "balance"),
	}})
	require.NoError(t, err)
	require.Equal(t, [][]string{{"200", "101", "15050"}}, out)
}

func TestAggregateOnEmptyInputEmitsZero(t *testing.T) {
	tr := newTestRange(t)
	out, err := tr.Select(context.Background(), ScanPlan{Projection: []ProjectionItem{
		Aggregate(AggMin, "id"), Aggregate(AggMax, "id"), Aggregate(AggSum, "balance"),
	}})
	require.NoError(t, err)
	require.Equal(t, [][]string{{"0", "0", "0"}}, out)
}

// S4 — Range where.
func TestSelectWhereRange(t *testing.T) {
	tr := newTestRange(t)
	rows := insertAccountRows(t, tr, 100)

	out, err := tr.Select(context.Background(), ScanPlan{
		MatchList: []Predicate{
			{Column: "id", Op: OpLarger, Literal: "1"},
			{Column: "id", Op: OpLess, Literal: "4"},
		},
		Projection: []ProjectionItem{Field("id"), Field("name"), Field("balance")},
	})
	require.NoError(t, err)
	require.Equal(t, [][]string{
		{rows[1][colID].Text(), rows[1][colName].Text(), rows[1][colBalance].Text()},
		{rows[2][colID].Text(), rows[2][colName].Text(), rows[2][colBalance].Text()},
	}, out)

	out, err = tr.Select(context.Background(), ScanPlan{
		MatchList: []Predicate{
			{Column: "id", Op: OpLarger, Literal: "4"},
			{Column: "id", Op: OpLess, Literal: "1"},
		},
		Projection: []ProjectionItem{Field("id")},
	})
	require.NoError(t, err)
	require.Empty(t, out)
}

// S5 — Scope and limit.
func TestSelectScopeAndLimit(t *testing.T) {
	tr := newTestRange(t)
	insertAccountRows(t, tr, 100)

	out, err := tr.Select(context.Background(), ScanPlan{
		Lower:      ScopeBound{Values: []string{"2"}},
		Upper:      ScopeBound{Values: []string{"4"}},
		Projection: []ProjectionItem{Field("id")},
	})
	require.NoError(t, err)
	require.Equal(t, [][]string{{"2"}, {"3"}}, out)

	out, err = tr.Select(context.Background(), ScanPlan{
		Projection: []ProjectionItem{Field("id")},
		Limit:      &Limit{Count: 3, Offset: 1},
	})
	require.NoError(t, err)
	require.Equal(t, [][]string{{"2"}, {"3"}, {"4"}}, out)
}

// S6 — Delete with predicates.
func TestStructuredDeleteWithPredicates(t *testing.T) {
	tr := newTestRange(t)
	insertAccountRows(t, tr, 100)

	affected, err := tr.StructuredDelete(context.Background(), ScanPlan{
		MatchList: []Predicate{{Column: "id", Op: OpEqual, Literal: "1"}},
	})
	require.NoError(t, err)
	require.Equal(t, uint64(1), affected)

	affected, err = tr.StructuredDelete(context.Background(), ScanPlan{
		MatchList: []Predicate{{Column: "name", Op: OpEqual, Literal: "user-0002"}},
	})
	require.NoError(t, err)
	require.Equal(t, uint64(1), affected)

	affected, err = tr.StructuredDelete(context.Background(), ScanPlan{
		MatchList: []Predicate{{Column: "balance", Op: OpLess, Literal: "105"}},
	})
	require.NoError(t, err)
	require.Equal(t, uint64(2), affected)

	out, err := tr.Select(context.Background(), ScanPlan{
		Projection: []ProjectionItem{Field("id")},
		Limit:      &Limit{Count: 1},
	})
	require.NoError(t, err)
	require.Equal(t, [][]string{{"5"}}, out)
}

func TestStructuredDeleteNoMatchIsOK(t *testing.T) {
	tr := newTestRange(t)
	affected, err := tr.StructuredDelete(context.Background(), ScanPlan{
		MatchList: []Predicate{{Column: "id", Op: OpEqual, Literal: "1"}},
	})
	require.NoError(t, err)
	require.Equal(t, uint64(0), affected)
}

// S7 — Duplicate detection.
func TestInsertDuplicateAborts(t *testing.T) {
	tr := newTestRange(t)
	_, err := tr.Insert([]roachpb.Row{row(1, "user1", 100)}, false)
	require.NoError(t, err)

	affected, err := tr.Insert([]roachpb.Row{row(1, "user1", 100)}, true)
	require.True(t, sherrors.Is(err, sherrors.Duplicate))
	require.Equal(t, uint64(0), affected)

	out, err := tr.Select(context.Background(), ScanPlan{Projection: []ProjectionItem{Aggregate(AggCount, "")}})
	require.NoError(t, err)
	require.Equal(t, [][]string{{"1"}}, out)
}

func TestInsertDuplicateIncrementsMetric(t *testing.T) {
	tr, metrics := newTestRangeWithMetrics(t)
	_, err := tr.Insert([]roachpb.Row{row(1, "user1", 100)}, false)
	require.NoError(t, err)
	require.Equal(t, float64(0), testutil.ToFloat64(metrics.Duplicates))

	_, err = tr.Insert([]roachpb.Row{row(1, "user1", 100)}, true)
	require.True(t, sherrors.Is(err, sherrors.Duplicate))
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.Duplicates))
}

func TestInsertAllOrNothingOnDuplicate(t *testing.T) {
	tr := newTestRange(t)
	_, err := tr.Insert([]roachpb.Row{row(5, "existing", 1)}, false)
	require.NoError(t, err)

	_, err = tr.Insert([]roachpb.Row{
		row(10, "new", 1),
		row(5, "dup", 1),
	}, true)
	require.True(t, sherrors.Is(err, sherrors.Duplicate))

	notFound, err := tr.Select(context.Background(), ScanPlan{Key: []string{"10"}, Projection: []ProjectionItem{Field("id")}})
	require.NoError(t, err)
	require.Empty(t, notFound)

	out, err := tr.Select(context.Background(), ScanPlan{Projection: []ProjectionItem{Aggregate(AggCount, "")}})
	require.NoError(t, err)
	require.Equal(t, [][]string{{"1"}}, out) // only the pre-existing row
}

func TestMixedProjectionRejected(t *testing.T) {
	tr := newTestRange(t)
	_, err := tr.Select(context.Background(), ScanPlan{
		Projection: []ProjectionItem{Field("id"), Aggregate(AggCount, "")},
	})
	require.True(t, sherrors.Is(err, sherrors.InvalidArgument))
}

func TestSelectUnknownColumnRejected(t *testing.T) {
	tr := newTestRange(t)
	_, err := tr.Select(context.Background(), ScanPlan{
		Projection: []ProjectionItem{Field("nonexistent")},
	})
	require.True(t, sherrors.Is(err, sherrors.InvalidArgument))
}
