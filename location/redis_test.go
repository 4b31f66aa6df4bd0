package location

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisGeocoder_MissThenHit(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := OpenRedis(mr.Addr(), "", 0)
	defer rdb.Close()

	g := &fakeGeocoder{place: munich}
	rg := NewRedisGeocoder(rdb, g, 30*time.Minute)
	ctx := context.Background()

	p, err := rg.Reverse(ctx, 48.137, 11.575)
	require.NoError(t, err)
	assert.Same(t, munich, p)

	key := redisKey(48.137, 11.575)
	require.True(t, mr.Exists(key))
	assert.Equal(t, 30*time.Minute, mr.TTL(key))

	p, err = rg.Reverse(ctx, 48.137, 11.575)
	require.NoError(t, err)
	assert.Equal(t, 1, g.Calls(), "a hit skips the wrapped geocoder")
	assert.Equal(t, munich.Address, p.Address)
}

func TestRedisGeocoder_SharedBetweenInstances(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := OpenRedis(mr.Addr(), "", 0)
	defer rdb.Close()

	stored := &Place{
		DisplayName: "Hallstatt, Upper Austria, Austria",
		Address:     map[string]string{"village": "Hallstatt", "state": "Upper Austria", "country_code": "at"},
	}
	data, err := json.Marshal(stored)
	require.NoError(t, err)
	require.NoError(t, mr.Set(redisKey(47.562, 13.649), string(data)))

	g := &fakeGeocoder{place: munich}
	p, err := NewRedisGeocoder(rdb, g, time.Hour).Reverse(context.Background(), 47.562, 13.649)
	require.NoError(t, err)
	assert.Equal(t, stored, p)
	assert.Equal(t, 0, g.Calls())
	assert.Equal(t, "Hallstatt, Upper Austria, AT", PreciseLocation(p))
}

func TestRedisGeocoder_FailureWritesNoKey(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := OpenRedis(mr.Addr(), "", 0)
	defer rdb.Close()

	g := &fakeGeocoder{err: errors.New("service unavailable")}
	_, err := NewRedisGeocoder(rdb, g, time.Hour).Reverse(context.Background(), 1, 2)
	assert.EqualError(t, err, "service unavailable")
	assert.False(t, mr.Exists(redisKey(1, 2)))
	assert.Empty(t, mr.Keys())
}

func TestRedisGeocoder_UnreadableValueFallsThrough(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := OpenRedis(mr.Addr(), "", 0)
	defer rdb.Close()

	key := redisKey(48.137, 11.575)
	require.NoError(t, mr.Set(key, "{not json"))

	g := &fakeGeocoder{place: munich}
	p, err := NewRedisGeocoder(rdb, g, time.Hour).Reverse(context.Background(), 48.137, 11.575)
	require.NoError(t, err)
	assert.Same(t, munich, p)
	assert.Equal(t, 1, g.Calls())

	got, err := mr.Get(key)
	require.NoError(t, err)
	var cached Place
	require.NoError(t, json.Unmarshal([]byte(got), &cached), "the bad value is overwritten")
	assert.Equal(t, munich.Address, cached.Address)
}

func TestRedisGeocoder_ExpiredKeyCallsGeocoderAgain(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := OpenRedis(mr.Addr(), "", 0)
	defer rdb.Close()

	g := &fakeGeocoder{place: munich}
	rg := NewRedisGeocoder(rdb, g, time.Minute)
	ctx := context.Background()

	_, err := rg.Reverse(ctx, 48.137, 11.575)
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)
	_, err = rg.Reverse(ctx, 48.137, 11.575)
	require.NoError(t, err)
	assert.Equal(t, 2, g.Calls())
}
