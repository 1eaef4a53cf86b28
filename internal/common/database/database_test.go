package database

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ksel-bot/internal/common/config"
)

func TestNewRedis_Ping(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client, err := NewRedis(config.RedisMirrorConfig{Enabled: true, Address: mr.Addr()})
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, client.Ping(context.Background()))
}

func TestNewRedis_RequiresAddress(t *testing.T) {
	_, err := NewRedis(config.RedisMirrorConfig{Enabled: true})
	assert.Error(t, err)
}

func TestNewRedis_PingFailure(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	client, err := NewRedis(config.RedisMirrorConfig{Address: addr})
	require.NoError(t, err)
	defer client.Close()

	assert.Error(t, client.Ping(context.Background()))
}

func TestNewPostgres_AppliesPoolSettings(t *testing.T) {
	client, err := NewPostgres(config.PostgresConfig{
		Host:           "localhost",
		Port:           5432,
		Database:       "ksel",
		User:           "ksel",
		Password:       "secret",
		MaxConnections: 7,
		MaxIdle:        3,
		SSLMode:        "disable",
	})
	require.NoError(t, err)
	defer client.Close()

	assert.Equal(t, 7, client.DB.Stats().MaxOpenConnections)
}
