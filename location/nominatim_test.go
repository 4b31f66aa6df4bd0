package location

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNominatim_Reverse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		assert.Equal(t, "48.137", r.URL.Query().Get("lat"))
		assert.Equal(t, "11.575", r.URL.Query().Get("lon"))
		assert.Equal(t, "jsonv2", r.URL.Query().Get("format"))
		assert.Equal(t, "aprsnoop-test", r.Header.Get("User-Agent"))
		fmt.Fprint(w, `{"display_name":"Marienplatz, München","address":{"city":"München","state":"Bayern","country_code":"de"}}`)
	}))
	defer srv.Close()

	n := NewNominatim(srv.URL, "aprsnoop-test", time.Second)
	p, err := n.Reverse(context.Background(), 48.137, 11.575)
	require.NoError(t, err)
	assert.Equal(t, "Marienplatz, München", p.DisplayName)
	assert.Equal(t, "Bayern, DE", PreciseLocation(p))
}

func TestNominatim_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
		}},
		{"error payload", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"error":"Unable to geocode"}`)
		}},
		{"garbage", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `<html>`)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			p, err := NewNominatim(srv.URL, "", time.Second).Reverse(context.Background(), 1, 2)
			assert.Error(t, err)
			assert.Nil(t, p)
		})
	}
}

func TestRedisGeocoder_FallsThroughWhenRedisIsDown(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	g := &fakeGeocoder{place: munich}
	rg := NewRedisGeocoder(rdb, g, time.Hour)

	p, err := rg.Reverse(context.Background(), 48.137, 11.575)
	require.NoError(t, err)
	assert.Same(t, munich, p)
	assert.Equal(t, 1, g.Calls())
}

func TestRedisGeocoder_PassesErrorsThrough(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	g := &fakeGeocoder{err: fmt.Errorf("boom")}
	_, err := NewRedisGeocoder(rdb, g, time.Hour).Reverse(context.Background(), 1, 2)
	assert.EqualError(t, err, "boom")
}

func TestRedisKey(t *testing.T) {
	assert.Equal(t, "aprsnoop:geo:48.137,-11.5", redisKey(48.137, -11.5))
	assert.Nil(t, OpenRedis("", "", 0))
}
