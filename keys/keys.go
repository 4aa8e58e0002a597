// Package keys builds the fixed-prefix byte keys the meta store and the
// range stores read and write, following the teacher's keys/keys.go
// convention of exposing one small constructor per key shape instead of
// letting callers concatenate prefixes by hand.
package keys

import (
	"encoding/binary"
)

// Meta keyspace prefixes. These are disjoint from any table prefix a
// schema id can produce (see TablePrefix) because a table prefix is
// always 9 bytes wide and begins with 0x10, never with one of these
// single lead bytes.
var (
	nodeIDKey   = []byte("\x01node_id")
	rangePrefix = []byte("\x02range/")
	applyPrefix = []byte("\x03apply/")
)

// NodeIDKey returns the meta-store key holding the node's persisted id.
func NodeIDKey() []byte {
	return append([]byte(nil), nodeIDKey...)
}

// RangeDescriptorKey returns the meta-store key for the descriptor of
// the range with the given id.
func RangeDescriptorKey(rangeID uint64) []byte {
	return appendUint64(rangePrefix, rangeID)
}

// RangeDescriptorPrefix returns the prefix shared by every range
// descriptor key, for use as the lower bound of a prefix scan.
func RangeDescriptorPrefix() []byte {
	return append([]byte(nil), rangePrefix...)
}

// RangeDescriptorPrefixEnd returns the exclusive upper bound of a prefix
// scan over all range descriptor keys: the smallest key that is
// lexicographically greater than every key with the range-descriptor
// prefix.
func RangeDescriptorPrefixEnd() []byte {
	return prefixEnd(rangePrefix)
}

// decodeRangeID extracts the range id encoded in a key built by
// RangeDescriptorKey or ApplyIndexKey, given the key's own prefix.
func decodeRangeID(prefix, key []byte) (uint64, bool) {
	if len(key) != len(prefix)+8 {
		return 0, false
	}
	for i := range prefix {
		if key[i] != prefix[i] {
			return 0, false
		}
	}
	return binary.BigEndian.Uint64(key[len(prefix):]), true
}

// DecodeRangeDescriptorKey extracts the range id from a key produced by
// RangeDescriptorKey.
func DecodeRangeDescriptorKey(key []byte) (uint64, bool) {
	return decodeRangeID(rangePrefix, key)
}

// ApplyIndexKey returns the meta-store key for the applied log index of
// the range with the given id.
func ApplyIndexKey(rangeID uint64) []byte {
	return appendUint64(applyPrefix, rangeID)
}

func appendUint64(prefix []byte, v uint64) []byte {
	key := make([]byte, 0, len(prefix)+8)
	key = append(key, prefix...)
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	return append(key, buf[:]...)
}

// prefixEnd returns the smallest key greater than every key with the
// given prefix, by incrementing the last byte that isn't already 0xff
// and truncating everything after it. It follows the same construction
// the teacher's keys package uses for its own PrefixEnd helper.
func prefixEnd(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] != 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil // prefix was all 0xff bytes; no finite upper bound exists
}

// TablePrefix returns the fixed 9-byte, meta-prefix-disjoint key prefix
// every row of the table identified by schemaID is stored under. It is
// disjoint from the meta prefixes because those are single-byte-led
// ("\x01", "\x02", "\x03") followed by an ASCII word, while a table
// prefix is the raw 8-byte big-endian encoding of schemaID with a fixed
// 0x10 lead byte reserved for user data.
func TablePrefix(schemaID uint64) []byte {
	buf := make([]byte, 9)
	buf[0] = 0x10
	binary.BigEndian.PutUint64(buf[1:], schemaID)
	return buf
}
