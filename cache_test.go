package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisCacheSet(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewRedisCache(db)

	series := hourlySeries(time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC), 17.1, 16.8)
	payload, err := json.Marshal(series)
	require.NoError(t, err)

	mock.ExpectSet("timeseries:test", payload, seriesCacheTTL).SetVal("OK")
	err = cache.Set(context.Background(), "timeseries:test", series, seriesCacheTTL)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCacheGet(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewRedisCache(db)

	t.Run("hit", func(t *testing.T) {
		mock.ExpectGet("timeseries:hit").SetVal(`{"location_key":"test","samples":[]}`)
		val, err := cache.Get(context.Background(), "timeseries:hit")
		require.NoError(t, err)
		assert.Equal(t, `{"location_key":"test","samples":[]}`, val)
	})

	t.Run("miss", func(t *testing.T) {
		mock.ExpectGet("timeseries:miss").RedisNil()
		_, err := cache.Get(context.Background(), "timeseries:miss")
		assert.ErrorIs(t, err, redis.Nil)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCacheDelete(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewRedisCache(db)

	mock.ExpectDel("timeseries:gone").SetVal(1)
	err := cache.Delete(context.Background(), "timeseries:gone")
	require.NoError(t, err)

	t.Run("propagates errors", func(t *testing.T) {
		mock.ExpectDel("timeseries:bad").SetErr(errors.New("connection lost"))
		err := cache.Delete(context.Background(), "timeseries:bad")
		assert.Error(t, err)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCacheFlush(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewRedisCache(db)

	mock.ExpectFlushDB().SetVal("OK")
	err := cache.Flush(context.Background())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
