package rangestore

import (
	"sync"

	"github.com/marknewmail/sharkstore/keys"
	"github.com/marknewmail/sharkstore/roachpb"
	"github.com/marknewmail/sharkstore/sherrors"
	"github.com/marknewmail/sharkstore/storage/engine"
	"github.com/marknewmail/sharkstore/storage/metastore"
	"github.com/marknewmail/sharkstore/util/log"
	"github.com/marknewmail/sharkstore/util/metric"
)

// State is one point in a range's Loading -> Serving -> Closing ->
// Closed lifecycle.
type State int32

const (
	Loading State = iota
	Serving
	Closing
	Closed
)

func (s State) String() string {
	switch s {
	case Loading:
		return "Loading"
	case Serving:
		return "Serving"
	case Closing:
		return "Closing"
	case Closed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// Range is one contiguous, independently-lifecycled key-span: the row
// CRUD and scan-engine surface described in the spec's component D, sat
// on top of a shared Engine handle and this range's own descriptor and
// schema. Transitions between states are driven by an external
// lifecycle collaborator (the control plane); Range itself only
// enforces which operations each state accepts.
type Range struct {
	mu     sync.RWMutex
	state  State
	desc   *roachpb.RangeDescriptor
	schema *roachpb.Schema
	prefix []byte

	eng         *engine.Engine
	meta        *metastore.Store
	metrics     *metric.StoreMetrics
	syncOnWrite bool

	inFlight sync.WaitGroup
}

// Open constructs a Range in the Loading state: it reads back nothing
// from disk itself (the caller already holds the descriptor and schema)
// but establishes the table prefix and pre-warms nothing beyond that —
// there is no separate index to build, since the KV backend's own
// ordering already serves range boundaries directly. syncOnWrite is the
// per-range durability setting (storage/config.Config.SyncOnWrite) that
// Insert and StructuredDelete commit their batches with; raw Put/Delete
// take their own sync argument instead.
func Open(desc *roachpb.RangeDescriptor, schema *roachpb.Schema, eng *engine.Engine, meta *metastore.Store, metrics *metric.StoreMetrics, syncOnWrite bool) *Range {
	r := &Range{
		state:       Loading,
		desc:        desc,
		schema:      schema,
		prefix:      keys.TablePrefix(schema.SchemaID),
		eng:         eng,
		meta:        meta,
		metrics:     metrics,
		syncOnWrite: syncOnWrite,
	}
	return r
}

// SetServing transitions a Loading range to Serving. It is a no-op
// (idempotent) if the range is already Serving.
func (r *Range) SetServing() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == Loading {
		r.state = Serving
		if r.metrics != nil {
			r.metrics.OpenRanges.Inc()
		}
		r.logf("range %d serving [%x, %x)", r.desc.RangeID, r.desc.StartKey, r.desc.EndKey)
	}
}

// BeginClose transitions a Serving or Loading range to Closing: new
// writes are rejected from this point, while reads (new and in-flight)
// are still allowed to complete.
func (r *Range) BeginClose() {
	r.mu.Lock()
	if r.state == Serving || r.state == Loading {
		r.state = Closing
	}
	r.mu.Unlock()
	r.logf("range %d closing", r.desc.RangeID)
}

// Close waits for in-flight operations to drain and transitions to
// Closed. It is safe to call only after BeginClose.
func (r *Range) Close() {
	r.inFlight.Wait()
	r.mu.Lock()
	wasServing := r.state != Closed
	r.state = Closed
	r.mu.Unlock()
	if wasServing && r.metrics != nil {
		r.metrics.OpenRanges.Dec()
	}
	r.logf("range %d closed", r.desc.RangeID)
}

// State returns the range's current lifecycle state.
func (r *Range) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// beginOp registers one in-flight operation and checks the range will
// accept it: writes are rejected once Closing or Closed; reads are
// rejected only once Closed (a Closing range still drains reads).
func (r *Range) beginOp(write bool) (func(), error) {
	r.mu.RLock()
	state := r.state
	r.mu.RUnlock()

	switch {
	case state == Closed:
		return nil, sherrors.RangeClosingf("range %d is closed", r.desc.RangeID)
	case state == Closing && write:
		return nil, sherrors.RangeClosingf("range %d is closing", r.desc.RangeID)
	}
	r.inFlight.Add(1)
	return r.inFlight.Done, nil
}

func (r *Range) checkKeyInRange(key []byte) error {
	if !r.desc.ContainsKey(key) {
		return sherrors.OutOfRangef("key outside range [%x, %x)", r.desc.StartKey, r.desc.EndKey)
	}
	return nil
}

// effectiveBounds intersects the range's own [start, end) with an
// optional caller-supplied scope, returning the tighter of the two on
// each side. A resulting lower >= upper means an empty scan.
func (r *Range) effectiveBounds(lower, upper []byte) ([]byte, []byte) {
	effLower := r.desc.StartKey
	if len(lower) > 0 && bytesGreater(lower, effLower) {
		effLower = lower
	}
	effUpper := r.desc.EndKey
	if len(upper) > 0 && (len(effUpper) == 0 || bytesLess(upper, effUpper)) {
		effUpper = upper
	}
	return effLower, effUpper
}

func bytesLess(a, b []byte) bool {
	return compareBytes(a, b) < 0
}

func bytesGreater(a, b []byte) bool {
	return compareBytes(a, b) > 0
}

func compareBytes(a, b []byte) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

func (r *Range) logf(format string, args ...interface{}) {
	log.Infof(log.WithTags(nil, "r", r.desc.RangeID), format, args...)
}

func (r *Range) errf(format string, args ...interface{}) {
	log.Errorf(log.WithTags(nil, "r", r.desc.RangeID), format, args...)
}
