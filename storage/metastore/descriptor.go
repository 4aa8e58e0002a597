package metastore

import (
	"github.com/marknewmail/sharkstore/roachpb"
	"github.com/marknewmail/sharkstore/sherrors"
	"github.com/marknewmail/sharkstore/util/encoding"
)

// encodeDescriptor serializes a RangeDescriptor as a flat binary record:
// the range id varint, the length-prefixed start/end keys, the schema id
// and version varints, then a count-prefixed list of replica
// (node id, store id, replica id) varint triples. There is no protoc
// available to regenerate a metapb.Range message here (see DESIGN.md),
// so this plays the role the original data server's protobuf
// serialization plays, using util/encoding's EncodeUvarint for every
// integer and length prefix, the same idiom the row codec's value
// stream uses.
func encodeDescriptor(d *roachpb.RangeDescriptor) ([]byte, error) {
	var buf []byte
	buf = encoding.EncodeUvarint(buf, d.RangeID)
	buf = lengthPrefixBytes(buf, d.StartKey)
	buf = lengthPrefixBytes(buf, d.EndKey)
	buf = encoding.EncodeUvarint(buf, d.SchemaID)
	buf = encoding.EncodeUvarint(buf, d.Version)
	buf = encoding.EncodeUvarint(buf, uint64(len(d.ReplicaSet)))
	for _, r := range d.ReplicaSet {
		buf = encoding.EncodeUvarint(buf, r.NodeID)
		buf = encoding.EncodeUvarint(buf, r.StoreID)
		buf = encoding.EncodeUvarint(buf, r.ReplicaID)
	}
	return buf, nil
}

func decodeDescriptor(b []byte) (*roachpb.RangeDescriptor, error) {
	d := &roachpb.RangeDescriptor{}
	rest, rangeID, err := encoding.DecodeUvarint(b)
	if err != nil {
		return nil, sherrors.InvalidArgumentf("range_id: %v", err)
	}
	d.RangeID = rangeID

	rest, d.StartKey, err = decodeLengthPrefixBytes(rest)
	if err != nil {
		return nil, sherrors.InvalidArgumentf("start_key: %v", err)
	}
	rest, d.EndKey, err = decodeLengthPrefixBytes(rest)
	if err != nil {
		return nil, sherrors.InvalidArgumentf("end_key: %v", err)
	}
	rest, d.SchemaID, err = encoding.DecodeUvarint(rest)
	if err != nil {
		return nil, sherrors.InvalidArgumentf("schema_id: %v", err)
	}
	rest, d.Version, err = encoding.DecodeUvarint(rest)
	if err != nil {
		return nil, sherrors.InvalidArgumentf("version: %v", err)
	}
	var n uint64
	rest, n, err = encoding.DecodeUvarint(rest)
	if err != nil {
		return nil, sherrors.InvalidArgumentf("replica count: %v", err)
	}
	d.ReplicaSet = make([]roachpb.ReplicaDescriptor, n)
	for i := uint64(0); i < n; i++ {
		var nodeID, storeID, replicaID uint64
		rest, nodeID, err = encoding.DecodeUvarint(rest)
		if err != nil {
			return nil, sherrors.InvalidArgumentf("replica[%d].node_id: %v", i, err)
		}
		rest, storeID, err = encoding.DecodeUvarint(rest)
		if err != nil {
			return nil, sherrors.InvalidArgumentf("replica[%d].store_id: %v", i, err)
		}
		rest, replicaID, err = encoding.DecodeUvarint(rest)
		if err != nil {
			return nil, sherrors.InvalidArgumentf("replica[%d].replica_id: %v", i, err)
		}
		d.ReplicaSet[i] = roachpb.ReplicaDescriptor{NodeID: nodeID, StoreID: storeID, ReplicaID: replicaID}
	}
	if len(rest) != 0 {
		return nil, sherrors.InvalidArgumentf("%d trailing bytes after descriptor", len(rest))
	}
	return d, nil
}

func lengthPrefixBytes(b []byte, data []byte) []byte {
	b = encoding.EncodeUvarint(b, uint64(len(data)))
	return append(b, data...)
}

func decodeLengthPrefixBytes(b []byte) (rest []byte, data []byte, err error) {
	rest, n, err := encoding.DecodeUvarint(b)
	if err != nil {
		return nil, nil, err
	}
	if uint64(len(rest)) < n {
		return nil, nil, sherrors.InvalidArgumentf("truncated: want %d bytes, have %d", n, len(rest))
	}
	return rest[n:], append([]byte(nil), rest[:n]...), nil
}
