package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	return redis.NewClient(&redis.Options{Addr: mr.Addr()}), mr
}

func TestRedisMirror_SaveLoad(t *testing.T) {
	client, mr := setupRedis(t)
	m := NewRedisMirror(client, time.Hour)
	ctx := context.Background()

	entry := Entry{Key: "KTC-K501", Value: "[A-1]", InsertedAt: time.Now().UTC().Truncate(time.Second), Version: 4}
	require.NoError(t, m.Save(ctx, entry))

	assert.True(t, mr.Exists(MirrorKey("KTC-K501")))
	assert.Equal(t, time.Hour, mr.TTL(MirrorKey("KTC-K501")))

	got, ok, err := m.Load(ctx, "KTC-K501")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, entry.Value, got.Value)
	assert.Equal(t, entry.Version, got.Version)
	assert.True(t, entry.InsertedAt.Equal(got.InsertedAt))
}

func TestRedisMirror_Miss(t *testing.T) {
	client, _ := setupRedis(t)
	m := NewRedisMirror(client, time.Hour)

	_, ok, err := m.Load(context.Background(), "unknown")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisMirror_Expiry(t *testing.T) {
	client, mr := setupRedis(t)
	m := NewRedisMirror(client, time.Minute)
	ctx := context.Background()

	require.NoError(t, m.Save(ctx, Entry{Key: "k", Value: "v"}))
	mr.FastForward(2 * time.Minute)

	_, ok, err := m.Load(ctx, "k")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisMirror_Errors(t *testing.T) {
	client, mock := redismock.NewClientMock()
	m := NewRedisMirror(client, time.Minute)
	ctx := context.Background()

	entry := Entry{Key: "k", Value: "v"}
	data, _ := json.Marshal(entry)
	mock.ExpectSet(MirrorKey("k"), data, time.Minute).SetErr(assert.AnError)
	assert.Error(t, m.Save(ctx, entry))

	mock.ExpectGet(MirrorKey("k")).SetErr(assert.AnError)
	_, ok, err := m.Load(ctx, "k")
	assert.Error(t, err)
	assert.False(t, ok)

	mock.ExpectGet(MirrorKey("k")).SetVal("not json")
	_, ok, err = m.Load(ctx, "k")
	assert.Error(t, err)
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}
