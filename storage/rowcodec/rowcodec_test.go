package rowcodec

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marknewmail/sharkstore/keys"
	"github.com/marknewmail/sharkstore/roachpb"
	"github.com/marknewmail/sharkstore/sherrors"
)

func testSchema() *roachpb.Schema {
	return &roachpb.Schema{
		SchemaID: 1,
		Columns: []roachpb.Column{
			{ColumnID: 1, Name: "id", Type: roachpb.ColumnType_INT64, PrimaryKeyOrder: 1},
			{ColumnID: 2, Name: "name", Type: roachpb.ColumnType_STRING},
			{ColumnID: 3, Name: "balance", Type: roachpb.ColumnType_INT64},
		},
	}
}

func row(id int64, name string, balance int64) roachpb.Row {
	return roachpb.Row{
		1: roachpb.ValueFromInt64(id),
		2: roachpb.ValueFromString(name),
		3: roachpb.ValueFromInt64(balance),
	}
}

func TestEncodeDecodeRoundtrip(t *testing.T) {
	schema := testSchema()
	prefix := keys.TablePrefix(schema.SchemaID)
	r := row(42, "user-0042", 142)

	key, value, err := Encode(schema, prefix, r)
	require.NoError(t, err)

	got, err := Decode(schema, prefix, key, value)
	require.NoError(t, err)
	require.Equal(t, r[1], got[1])
	require.Equal(t, r[2], got[2])
	require.Equal(t, r[3], got[3])
}

func TestEncodeKeyMissingPK(t *testing.T) {
	schema := testSchema()
	prefix := keys.TablePrefix(schema.SchemaID)
	r := roachpb.Row{2: roachpb.ValueFromString("no id")}
	_, err := EncodeKey(schema, prefix, r)
	require.True(t, sherrors.Is(err, sherrors.InvalidArgument))
}

func TestKeyOrderMatchesPKOrder(t *testing.T) {
	schema := testSchema()
	prefix := keys.TablePrefix(schema.SchemaID)

	k1, err := EncodeKey(schema, prefix, row(1, "a", 0))
	require.NoError(t, err)
	k2, err := EncodeKey(schema, prefix, row(2, "a", 0))
	require.NoError(t, err)
	require.True(t, bytes.Compare(k1, k2) < 0)
}

func TestKeysArePrefixFree(t *testing.T) {
	schema := testSchema()
	prefix := keys.TablePrefix(schema.SchemaID)

	k1, err := EncodeKey(schema, prefix, row(1, "a", 0))
	require.NoError(t, err)
	k2, err := EncodeKey(schema, prefix, row(11, "a", 0))
	require.NoError(t, err)
	require.False(t, bytes.HasPrefix(k2, k1))
	require.False(t, bytes.HasPrefix(k1, k2))
}

func TestDecodeValueProjection(t *testing.T) {
	schema := testSchema()
	r := row(1, "alice", 100)
	value, err := EncodeValue(schema, r)
	require.NoError(t, err)

	got, err := DecodeValue(schema, value, []uint32{3})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, int64(100), got[3].IntVal)
}

func TestDecodeValueUnknownColumnPreserved(t *testing.T) {
	schema := testSchema()
	r := row(1, "alice", 100)
	value, err := EncodeValue(schema, r)
	require.NoError(t, err)

	trimmedSchema := &roachpb.Schema{SchemaID: schema.SchemaID, Columns: schema.Columns[:2]}
	got, err := DecodeValue(trimmedSchema, value, nil)
	require.NoError(t, err)
	require.Equal(t, int64(100), got[3].IntVal)
}

func TestDecodeValueDuplicateColumnIsCorruption(t *testing.T) {
	schema := testSchema()
	v1, err := EncodeValue(schema, row(1, "a", 1))
	require.NoError(t, err)
	v2, err := EncodeValue(schema, row(1, "b", 2))
	require.NoError(t, err)
	dup := append(append([]byte(nil), v1...), v2...)

	_, err = DecodeValue(schema, dup, nil)
	require.True(t, sherrors.Is(err, sherrors.Corruption))
}

func TestNonPKColumnAbsentWhenMissing(t *testing.T) {
	schema := testSchema()
	r := roachpb.Row{1: roachpb.ValueFromInt64(5)}
	value, err := EncodeValue(schema, r)
	require.NoError(t, err)
	got, err := DecodeValue(schema, value, nil)
	require.NoError(t, err)
	require.Empty(t, got)
}
