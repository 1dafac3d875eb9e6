package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nftwatch/mewatch/internal/store"
)

func TestKV_GetSetDelete(t *testing.T) {
	kv := New()
	ctx := context.Background()

	_, err := kv.Get(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, kv.Set(ctx, "a", []byte("1")))
	got, err := kv.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), got)

	require.NoError(t, kv.Set(ctx, "a", []byte("2")))
	got, err = kv.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), got)

	require.NoError(t, kv.Delete(ctx, "a"))
	_, err = kv.Get(ctx, "a")
	require.ErrorIs(t, err, store.ErrNotFound)

	// Deleting an absent key is a no-op.
	require.NoError(t, kv.Delete(ctx, "a"))
}

func TestKV_Scan(t *testing.T) {
	kv := New()
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "ledger:degods:A", []byte("a")))
	require.NoError(t, kv.Set(ctx, "ledger:degods:B", []byte("b")))
	require.NoError(t, kv.Set(ctx, "ledger:okay_bears:C", []byte("c")))
	require.NoError(t, kv.Set(ctx, "watermark:degods", []byte("w")))

	got, err := kv.Scan(ctx, "ledger:degods:")
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Contains(t, got, "ledger:degods:A")
	assert.Contains(t, got, "ledger:degods:B")
}

func TestKV_FailureHooks(t *testing.T) {
	kv := New()
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "ledger:degods:A", []byte("a")))

	kv.FailSet = "ledger:"
	kv.FailDelete = "ledger:"
	kv.FailErr = errors.New("refused")

	assert.ErrorIs(t, kv.Set(ctx, "ledger:degods:B", []byte("b")), kv.FailErr)
	assert.ErrorIs(t, kv.Delete(ctx, "ledger:degods:A"), kv.FailErr)

	// Keys outside the prefix are unaffected.
	require.NoError(t, kv.Set(ctx, "watermark:degods", []byte("w")))
	require.NoError(t, kv.Delete(ctx, "watermark:degods"))

	// The failed delete must not have removed the value.
	got, err := kv.Get(ctx, "ledger:degods:A")
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), got)
}

func TestKV_ValueIsolation(t *testing.T) {
	kv := New()
	ctx := context.Background()

	original := []byte("value")
	require.NoError(t, kv.Set(ctx, "k", original))

	// Mutating the caller's slice must not affect the stored value.
	original[0] = 'X'
	got, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), got)

	// Mutating a returned slice must not affect the stored value.
	got[0] = 'Y'
	again, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), again)
}
