// Package metastore is the durable catalog: node id, the range
// descriptor catalog, and per-range applied log indices. Its operation
// set and failure policy (decimal-text node id and apply index, a
// range-descriptor prefix scan that stops at the first non-matching key
// or iterator error, idempotent delete) are a direct port of the
// original data server's storage/meta_store.cpp, with pebble standing
// in for its RocksDB handle and a binary struct codec (descriptor.go)
// standing in for its protobuf Range message.
package metastore

import (
	"strconv"

	"github.com/marknewmail/sharkstore/keys"
	"github.com/marknewmail/sharkstore/roachpb"
	"github.com/marknewmail/sharkstore/sherrors"
	"github.com/marknewmail/sharkstore/storage/engine"
	"github.com/marknewmail/sharkstore/util/log"
	"github.com/marknewmail/sharkstore/util/metric"
)

// Store is the meta store: node identity, range descriptors, and apply
// indices, all persisted through a single Engine handle.
type Store struct {
	eng     *engine.Engine
	metrics *metric.StoreMetrics
}

// Open creates path if missing and opens a meta store rooted there.
// metrics may be nil, in which case IOError and Corruption occurrences
// are not counted (as in tests that have no registry to report to).
func Open(path string, readOnly bool, metrics *metric.StoreMetrics) (*Store, error) {
	eng, err := engine.Open(path, readOnly)
	if err != nil {
		return nil, err
	}
	return &Store{eng: eng, metrics: metrics}, nil
}

// Close releases the underlying engine handle.
func (s *Store) Close() error {
	return s.eng.Close()
}

// SaveNodeID durably records the node's id, overwriting any previous
// value.
func (s *Store) SaveNodeID(nodeID uint64) error {
	if err := s.eng.Put(keys.NodeIDKey(), []byte(strconv.FormatUint(nodeID, 10)), true); err != nil {
		return err
	}
	return nil
}

// GetNodeID returns the persisted node id, or 0 with no error if the
// node has never been bootstrapped.
func (s *Store) GetNodeID() (uint64, error) {
	v, err := s.eng.Get(keys.NodeIDKey())
	if sherrors.Is(err, sherrors.NotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	id, perr := strconv.ParseUint(string(v), 10, 64)
	if perr != nil {
		if s.metrics != nil {
			s.metrics.CodecFailures.Inc()
		}
		return 0, sherrors.Corruptionf(v, "invalid node_id")
	}
	return id, nil
}

// AddRange encodes desc and durably writes it, overwriting any existing
// descriptor for the same range id.
func (s *Store) AddRange(desc *roachpb.RangeDescriptor) error {
	value, err := encodeDescriptor(desc)
	if err != nil {
		return err
	}
	return s.eng.Put(keys.RangeDescriptorKey(desc.RangeID), value, true)
}

// BatchAddRange writes every descriptor in descs as a single durable,
// atomic batch: all land, or none do.
func (s *Store) BatchAddRange(descs []*roachpb.RangeDescriptor) error {
	ops := make([]engine.BatchOp, 0, len(descs))
	for _, desc := range descs {
		value, err := encodeDescriptor(desc)
		if err != nil {
			return err
		}
		ops = append(ops, engine.BatchOp{Key: keys.RangeDescriptorKey(desc.RangeID), Value: value, IsPut: true})
	}
	return s.eng.Write(ops, true)
}

// GetRange returns the descriptor for rangeID, or NotFound if absent.
func (s *Store) GetRange(rangeID uint64) (*roachpb.RangeDescriptor, error) {
	v, err := s.eng.Get(keys.RangeDescriptorKey(rangeID))
	if err != nil {
		return nil, err
	}
	desc, err := decodeDescriptor(v)
	if err != nil {
		if s.metrics != nil {
			s.metrics.CodecFailures.Inc()
		}
		return nil, sherrors.Corruptionf(v, "parsing range descriptor %d: %v", rangeID, err)
	}
	return desc, nil
}

// GetAllRange returns every persisted range descriptor in ascending
// range id order. It stops and returns the error on the first iterator
// failure, discarding any partial results accumulated so far.
func (s *Store) GetAllRange() ([]*roachpb.RangeDescriptor, error) {
	it := s.eng.NewIterator(nil, keys.RangeDescriptorPrefix(), keys.RangeDescriptorPrefixEnd())
	defer it.Close()

	var descs []*roachpb.RangeDescriptor
	for ok := it.Rewind(); ok; ok = it.Next() {
		desc, err := decodeDescriptor(it.Value())
		if err != nil {
			if s.metrics != nil {
				s.metrics.CodecFailures.Inc()
			}
			return nil, sherrors.Corruptionf(it.Value(), "parsing range descriptor: %v", err)
		}
		descs = append(descs, desc)
	}
	if err := it.Err(); err != nil {
		if s.metrics != nil {
			s.metrics.MetaIOErrors.Inc()
		}
		return nil, err
	}
	return descs, nil
}

// DelRange removes the descriptor for rangeID. Deleting an absent range
// id is not an error.
func (s *Store) DelRange(rangeID uint64) error {
	return s.eng.Delete(keys.RangeDescriptorKey(rangeID), true)
}

// SaveApplyIndex records the applied log index for rangeID. It is
// written on the hot apply path, so it is not sync'd by default; the
// caller chooses durability via Config.SyncApplyIndex (see
// storage/config).
func (s *Store) SaveApplyIndex(rangeID, applyIndex uint64, sync bool) error {
	key := keys.ApplyIndexKey(rangeID)
	value := []byte(strconv.FormatUint(applyIndex, 10))
	if err := s.eng.Put(key, value, sync); err != nil {
		if s.metrics != nil {
			s.metrics.MetaIOErrors.Inc()
		}
		log.Errorf(nil, "save apply index for range %d failed: %v", rangeID, err)
		return err
	}
	return nil
}

// LoadApplyIndex returns the last saved apply index for rangeID, or 0
// with no error if none has ever been saved.
func (s *Store) LoadApplyIndex(rangeID uint64) (uint64, error) {
	v, err := s.eng.Get(keys.ApplyIndexKey(rangeID))
	if sherrors.Is(err, sherrors.NotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	idx, perr := strconv.ParseUint(string(v), 10, 64)
	if perr != nil {
		if s.metrics != nil {
			s.metrics.CodecFailures.Inc()
		}
		return 0, sherrors.Corruptionf(v, "invalid apply index for range %d", rangeID)
	}
	return idx, nil
}

// DeleteApplyIndex removes the applied log index for rangeID. Deleting
// an absent entry is not an error.
func (s *Store) DeleteApplyIndex(rangeID uint64) error {
	return s.eng.Delete(keys.ApplyIndexKey(rangeID), true)
}
