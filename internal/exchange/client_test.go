package exchange

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dyluth/coda/pkg/datastore"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestClient creates a test client connected to a miniredis instance
func setupTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	mr := miniredis.NewMiniRedis()
	err := mr.Start()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client, err := NewClient(&redis.Options{Addr: mr.Addr()}, "test-lab", nil)
	require.NoError(t, err)
	client.now = func() time.Time { return time.UnixMilli(1700000000000) }
	t.Cleanup(func() { client.Close() })

	return client, mr
}

func newTestStore(t *testing.T) *datastore.Store {
	t.Helper()
	s := datastore.New()
	trial, err := s.AddColumn("trial", datastore.Scalar(datastore.ArgNominal))
	require.NoError(t, err)
	_, err = s.AddCell(trial, 0, 1000)
	require.NoError(t, err)
	require.NoError(t, s.SetCellValue(trial, 1, "correct"))

	notes, err := s.AddColumn("notes", datastore.Scalar(datastore.ArgText))
	require.NoError(t, err)
	_, err = s.AddCell(notes, 500, 900)
	require.NoError(t, err)
	require.NoError(t, s.SetCellValue(notes, 1, "said \"hi\",\nthen left"))
	return s
}

func TestNewClient(t *testing.T) {
	t.Run("creates client successfully", func(t *testing.T) {
		client, _ := setupTestClient(t)
		assert.NotNil(t, client)
		assert.Equal(t, "test-lab", client.namespace)
	})

	t.Run("rejects empty namespace", func(t *testing.T) {
		_, err := NewClient(&redis.Options{Addr: "localhost:6379"}, "", nil)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "namespace cannot be empty")
	})

	t.Run("parses redis url", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client, err := NewClientFromURL("redis://"+mr.Addr(), "lab", nil)
		require.NoError(t, err)
		defer client.Close()
		assert.NoError(t, client.Ping(context.Background()))
	})

	t.Run("rejects bad url", func(t *testing.T) {
		_, err := NewClientFromURL("http://nope", "lab", nil)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid redis url")
	})
}

func TestPing(t *testing.T) {
	client, mr := setupTestClient(t)
	ctx := context.Background()

	assert.NoError(t, client.Ping(ctx))

	mr.Close()
	assert.Error(t, client.Ping(ctx))
}

func TestPublish(t *testing.T) {
	ctx := context.Background()

	t.Run("writes snapshot hash", func(t *testing.T) {
		client, mr := setupTestClient(t)
		store := newTestStore(t)

		snap, err := client.Publish(ctx, "MyStudy", store)
		require.NoError(t, err)
		assert.Equal(t, 2, snap.Columns)
		assert.Equal(t, 2, snap.Cells)
		assert.Equal(t, int64(1700000000000), snap.SavedAtMs)

		key := SnapshotKey("test-lab", "MyStudy")
		assert.Equal(t, snap.CSV, mr.HGet(key, "csv"))
		assert.Equal(t, snap.Digest, mr.HGet(key, "digest"))
		assert.Equal(t, "2", mr.HGet(key, "cells"))
		assert.True(t, store.IsChanged(), "publishing does not reset the changed flag")
	})

	t.Run("rejects empty project", func(t *testing.T) {
		client, _ := setupTestClient(t)
		_, err := client.Publish(ctx, "", newTestStore(t))
		assert.Error(t, err)
	})

	t.Run("replaces previous snapshot", func(t *testing.T) {
		client, _ := setupTestClient(t)
		first, err := client.Publish(ctx, "MyStudy", newTestStore(t))
		require.NoError(t, err)

		second, err := client.Publish(ctx, "MyStudy", datastore.New())
		require.NoError(t, err)
		assert.NotEqual(t, first.Digest, second.Digest)

		got, err := client.GetSnapshot(ctx, "MyStudy")
		require.NoError(t, err)
		assert.Equal(t, second.Digest, got.Digest)
		assert.Equal(t, "", got.CSV)
	})
}

func TestFetch(t *testing.T) {
	ctx := context.Background()

	t.Run("round-trips the store", func(t *testing.T) {
		client, _ := setupTestClient(t)
		original := newTestStore(t)
		_, err := client.Publish(ctx, "MyStudy", original)
		require.NoError(t, err)

		store, snap, err := client.Fetch(ctx, "MyStudy")
		require.NoError(t, err)
		assert.Equal(t, "MyStudy", snap.Project)
		assert.False(t, store.IsChanged())

		notes, err := store.ColumnByName("notes")
		require.NoError(t, err)
		assert.Equal(t, "said \"hi\",\nthen left", notes.Cells()[0].Value().String())
	})

	t.Run("missing snapshot", func(t *testing.T) {
		client, _ := setupTestClient(t)
		_, _, err := client.Fetch(ctx, "nobody")
		require.Error(t, err)
		assert.True(t, IsNotFound(err))
	})

	t.Run("rejects tampered data", func(t *testing.T) {
		client, mr := setupTestClient(t)
		_, err := client.Publish(ctx, "MyStudy", newTestStore(t))
		require.NoError(t, err)

		mr.HSet(SnapshotKey("test-lab", "MyStudy"), "csv", "trial (NOMINAL)\n0,1,wrong\n")

		_, _, err = client.Fetch(ctx, "MyStudy")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "digest mismatch")
		assert.False(t, IsNotFound(err))
	})

	t.Run("rejects malformed hash", func(t *testing.T) {
		client, mr := setupTestClient(t)
		mr.HSet(SnapshotKey("test-lab", "Broken"), "csv", "x")

		_, _, err := client.Fetch(ctx, "Broken")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to deserialize snapshot")
	})

	t.Run("namespaces are isolated", func(t *testing.T) {
		client, mr := setupTestClient(t)
		_, err := client.Publish(ctx, "MyStudy", newTestStore(t))
		require.NoError(t, err)

		other, err := NewClient(&redis.Options{Addr: mr.Addr()}, "other-lab", nil)
		require.NoError(t, err)
		defer other.Close()

		_, _, err = other.Fetch(ctx, "MyStudy")
		assert.True(t, IsNotFound(err))
	})
}

func TestSubscribe(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx := context.Background()

	sub, err := client.Subscribe(ctx)
	require.NoError(t, err)
	defer sub.Close()

	published, err := client.Publish(ctx, "MyStudy", newTestStore(t))
	require.NoError(t, err)

	select {
	case snap := <-sub.Events():
		assert.Equal(t, "MyStudy", snap.Project)
		assert.Equal(t, published.Digest, snap.Digest)
		assert.Empty(t, snap.CSV, "events carry metadata only")
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for snapshot event")
	}
}

func TestSubscribe_MalformedEvent(t *testing.T) {
	client, mr := setupTestClient(t)
	ctx := context.Background()

	sub, err := client.Subscribe(ctx)
	require.NoError(t, err)
	defer sub.Close()

	mr.Publish(SnapshotEventsChannel("test-lab"), "{not json")

	select {
	case err := <-sub.Errors():
		assert.Contains(t, err.Error(), "failed to unmarshal snapshot event")
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for subscription error")
	}
}

func TestSubscription_CloseIsIdempotent(t *testing.T) {
	client, _ := setupTestClient(t)

	sub, err := client.Subscribe(context.Background())
	require.NoError(t, err)

	assert.NoError(t, sub.Close())
	assert.NoError(t, sub.Close())

	select {
	case _, ok := <-sub.Events():
		assert.False(t, ok, "events channel closed after Close")
	case <-time.After(1 * time.Second):
		t.Fatal("events channel not closed")
	}
}
