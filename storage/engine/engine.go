// Package engine is the KV backend adapter: an ordered, byte-keyed store
// with point get/put/delete, atomic batch writes, and bounded forward
// iteration, backed by github.com/cockroachdb/pebble. Its method shape
// (put/get/del/writeBatch operating on raw key/value bytes, opened
// against a directory that is created if missing) follows the teacher's
// storage/rocksdb.go, with pebble standing in for the teacher's cgo
// RocksDB bindings — the same swap the retrieved qianbin-thor/pebbledb
// package makes for a LevelDB-shaped KV interface.
package engine

import (
	"context"
	"os"

	"github.com/cockroachdb/pebble"

	"github.com/marknewmail/sharkstore/sherrors"
)

// Engine is a pebble-backed implementation of the ordered KV backend
// contract every meta store and range store is built on.
type Engine struct {
	db   *pebble.DB
	dir  string
	opts *pebble.Options
}

// Open creates dir if it does not exist and opens a pebble store rooted
// there. readOnly opens the existing store without permitting writes;
// it does not create a missing directory (there would be nothing to
// open read-only).
func Open(dir string, readOnly bool) (*Engine, error) {
	if !readOnly {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, sherrors.IOErrorf(err, "creating engine directory %s", dir)
		}
	}
	opts := &pebble.Options{ReadOnly: readOnly}
	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, sherrors.IOErrorf(err, "opening pebble store at %s", dir)
	}
	return &Engine{db: db, dir: dir, opts: opts}, nil
}

// Close releases the underlying pebble handle. It is idempotent only in
// the sense pebble itself guarantees (calling Close twice is an error);
// callers close an Engine exactly once, at store shutdown.
func (e *Engine) Close() error {
	if err := e.db.Close(); err != nil {
		return sherrors.IOErrorf(err, "closing engine at %s", e.dir)
	}
	return nil
}

// Get returns the value stored at key, or a NotFound error if key is
// absent.
func (e *Engine) Get(key []byte) ([]byte, error) {
	v, closer, err := e.db.Get(key)
	if err == pebble.ErrNotFound {
		return nil, sherrors.NotFoundf("key %q not found", key)
	}
	if err != nil {
		return nil, sherrors.IOErrorf(err, "get key %q", key)
	}
	out := append([]byte(nil), v...)
	if cerr := closer.Close(); cerr != nil {
		return nil, sherrors.IOErrorf(cerr, "releasing get result for key %q", key)
	}
	return out, nil
}

// Put writes key/value, syncing to disk before returning when sync is
// true.
func (e *Engine) Put(key, value []byte, sync bool) error {
	if err := e.db.Set(key, value, writeOpts(sync)); err != nil {
		return sherrors.IOErrorf(err, "put key %q", key)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error — pebble,
// like the teacher's RocksDB wrapper, treats delete of a missing key as
// a successful no-op.
func (e *Engine) Delete(key []byte, sync bool) error {
	if err := e.db.Delete(key, writeOpts(sync)); err != nil {
		return sherrors.IOErrorf(err, "delete key %q", key)
	}
	return nil
}

// BatchOp is one operation queued into a Write call: a Put when IsPut is
// true, a Delete otherwise.
type BatchOp struct {
	Key   []byte
	Value []byte
	IsPut bool
}

// Write applies ops atomically: every op lands, or none do.
func (e *Engine) Write(ops []BatchOp, sync bool) error {
	b := e.db.NewBatch()
	defer b.Close()
	for _, op := range ops {
		var err error
		if op.IsPut {
			err = b.Set(op.Key, op.Value, nil)
		} else {
			err = b.Delete(op.Key, nil)
		}
		if err != nil {
			return sherrors.IOErrorf(err, "staging batch op for key %q", op.Key)
		}
	}
	if err := e.db.Apply(b, writeOpts(sync)); err != nil {
		return sherrors.IOErrorf(err, "applying batch of %d ops", len(ops))
	}
	return nil
}

func writeOpts(sync bool) *pebble.WriteOptions {
	if sync {
		return pebble.Sync
	}
	return pebble.NoSync
}

// Iterator is a restartable, forward-only cursor over [lower, upper) in
// ascending key order. It borrows a pebble snapshot for its lifetime, so
// concurrent writes never mutate what an in-flight scan observes.
type Iterator struct {
	it  *pebble.Iterator
	ctx context.Context
}

// NewIterator opens an Iterator bounded by [lower, upper). A nil bound on
// either side means unbounded on that side.
func (e *Engine) NewIterator(ctx context.Context, lower, upper []byte) *Iterator {
	it, _ := e.db.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upper})
	return &Iterator{it: it, ctx: ctx}
}

// Rewind positions the iterator at the first key in its bounds.
func (it *Iterator) Rewind() bool {
	return it.it.First()
}

// Next advances the iterator, returning false at the end of the bounds,
// on a backend error, or when ctx has been canceled. Callers must check
// Err after Next returns false to distinguish end-of-scan from failure.
func (it *Iterator) Next() bool {
	if it.ctx != nil {
		select {
		case <-it.ctx.Done():
			return false
		default:
		}
	}
	return it.it.Next()
}

// Valid reports whether the iterator is currently positioned at a key.
func (it *Iterator) Valid() bool {
	return it.it.Valid()
}

// Key returns the key at the iterator's current position. The returned
// slice is only valid until the next call to Next or Close.
func (it *Iterator) Key() []byte {
	return it.it.Key()
}

// Value returns the value at the iterator's current position, under the
// same validity rule as Key.
func (it *Iterator) Value() []byte {
	return it.it.Value()
}

// Err reports any backend error encountered during iteration, or the
// context's error if the scan stopped because ctx was canceled.
func (it *Iterator) Err() error {
	if err := it.it.Error(); err != nil {
		return sherrors.IOErrorf(err, "iterating")
	}
	if it.ctx != nil {
		select {
		case <-it.ctx.Done():
			return sherrors.Canceledf("scan canceled: %v", it.ctx.Err())
		default:
		}
	}
	return nil
}

// Close releases the iterator's snapshot. It must be called before the
// owning range is allowed to transition to Closed.
func (it *Iterator) Close() error {
	return it.it.Close()
}
