package cart

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"
)

func newTestBoltStore(t *testing.T) *BoltStore {
	t.Helper()
	store, err := NewBoltStore(filepath.Join(t.TempDir(), "carts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestBoltStoreSaveLoad(t *testing.T) {
	store := newTestBoltStore(t)
	ctx := context.Background()

	c := New("sess-1")
	c.AddItem(Item{ID: 1, Kind: KindProduct, Name: "Pomade", Price: 12.5, Quantity: 2})
	c.AddItem(Item{ID: 2, Kind: KindService, Name: "Haircut", Price: 30, Quantity: 1, Date: "2026-09-01", Time: "10:00"})
	require.NoError(t, store.Save(ctx, c))

	got, err := store.Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "sess-1", got.ID)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "Pomade", got.Items[0].Name)
	assert.Equal(t, "10:00", got.Items[1].Time)
}

func TestBoltStoreLoadMissingReturnsEmpty(t *testing.T) {
	store := newTestBoltStore(t)

	got, err := store.Load(context.Background(), "never-saved")
	require.NoError(t, err)
	assert.Equal(t, "never-saved", got.ID)
	assert.True(t, got.IsEmpty())
	assert.NotNil(t, got.Items)
}

func TestBoltStoreLoadCorruptReturnsEmpty(t *testing.T) {
	store := newTestBoltStore(t)

	err := store.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(cartBucket).Put([]byte("bad"), []byte("{not json"))
	})
	require.NoError(t, err)

	got, err := store.Load(context.Background(), "bad")
	require.NoError(t, err)
	assert.True(t, got.IsEmpty())
}

func TestBoltStoreDelete(t *testing.T) {
	store := newTestBoltStore(t)
	ctx := context.Background()

	c := New("sess-1")
	c.AddItem(Item{ID: 1, Kind: KindProduct, Quantity: 1})
	require.NoError(t, store.Save(ctx, c))

	require.NoError(t, store.Delete(ctx, "sess-1"))
	got, err := store.Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.True(t, got.IsEmpty())

	// deleting an absent cart is not an error
	assert.NoError(t, store.Delete(ctx, "sess-1"))
}

func TestBoltStoreExpireBefore(t *testing.T) {
	store := newTestBoltStore(t)
	ctx := context.Background()

	old := New("old")
	old.AddItem(Item{ID: 1, Kind: KindProduct, Quantity: 1})
	require.NoError(t, store.Save(ctx, old))

	// backdate the saved snapshot
	err := store.db.Update(func(tx *bbolt.Tx) error {
		data, merr := json.Marshal(boltRecord{Cart: *old, SavedAt: time.Now().Add(-48 * time.Hour).Unix()})
		if merr != nil {
			return merr
		}
		return tx.Bucket(cartBucket).Put([]byte("old"), data)
	})
	require.NoError(t, err)

	fresh := New("fresh")
	fresh.AddItem(Item{ID: 2, Kind: KindProduct, Quantity: 1})
	require.NoError(t, store.Save(ctx, fresh))

	removed, err := store.ExpireBefore(time.Now().Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	gone, err := store.Load(ctx, "old")
	require.NoError(t, err)
	assert.True(t, gone.IsEmpty())

	kept, err := store.Load(ctx, "fresh")
	require.NoError(t, err)
	assert.Len(t, kept.Items, 1)
}

func TestBoltStoreExpireBeforeDropsUnreadable(t *testing.T) {
	store := newTestBoltStore(t)

	err := store.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(cartBucket).Put([]byte("junk"), []byte("??"))
	})
	require.NoError(t, err)

	removed, err := store.ExpireBefore(time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}
