package roachpb

import "github.com/google/uuid"

// NewSyntheticID generates a pseudo-random, non-zero uint64 suitable for
// a range, replica, or node id in places that have no control plane to
// hand one out — cmd/datanode's first-boot node id, or a test fixture
// building a RangeDescriptor. It is not coordinated with any other node
// and must never be used where the control plane is expected to assign
// the id (there, a collision would be a correctness bug, not a cosmetic
// one).
func NewSyntheticID() uint64 {
	id := uuid.New()
	var v uint64
	for _, b := range id[:8] {
		v = v<<8 | uint64(b)
	}
	if v == 0 {
		v = 1
	}
	return v
}

// ReplicaDescriptor identifies one member of a range's replica set. The
// storage core never interprets these fields beyond persisting them;
// replica placement and voting are owned by the replication layer.
type ReplicaDescriptor struct {
	NodeID    uint64
	StoreID   uint64
	ReplicaID uint64
}

// RangeDescriptor is the durable record of one range: its id, its key
// span, the schema it stores rows for, and its replica set. The
// executor treats everything but RangeID/StartKey/EndKey as opaque.
type RangeDescriptor struct {
	RangeID    uint64
	StartKey   []byte
	EndKey     []byte
	SchemaID   uint64
	ReplicaSet []ReplicaDescriptor
	Version    uint64
}

// ContainsKey reports whether key falls within [StartKey, EndKey).
func (d *RangeDescriptor) ContainsKey(key []byte) bool {
	if len(d.StartKey) > 0 && bytesLess(key, d.StartKey) {
		return false
	}
	if len(d.EndKey) > 0 && !bytesLess(key, d.EndKey) {
		return false
	}
	return true
}

func bytesLess(a, b []byte) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
