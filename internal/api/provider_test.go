package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smokyabdulrahman/ghari/internal/cache"
	"github.com/smokyabdulrahman/ghari/internal/location"
	"github.com/smokyabdulrahman/ghari/internal/namaz"
)

func countingServer(t *testing.T, hits *int32) *Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		resp := sampleResponse()
		resp.Data.Date.Hijri = HijriDate{Day: "10", Month: HijriMonth{En: "Ramadan"}, Year: "1447"}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(server.Close)

	c := NewClient()
	c.BaseURL = server.URL
	return c
}

func TestProvider_TimesReadsThroughCache(t *testing.T) {
	var hits int32
	c, err := cache.New(t.TempDir())
	require.NoError(t, err)

	p := NewProvider(countingServer(t, &hits), c, 2, 0, zerolog.Nop())
	loc := location.Snapshot{Latitude: 51.5074, Longitude: -0.1278, Timezone: "Europe/London"}
	date := time.Date(2026, 2, 28, 9, 0, 0, 0, time.UTC)

	snap, err := p.Times(context.Background(), loc, date)
	require.NoError(t, err)
	assert.Equal(t, "05:17", snap.Get(namaz.Fajr))
	assert.Equal(t, "00:14", snap.Get(namaz.NisfulLayl))

	_, err = p.Times(context.Background(), loc, date)
	require.NoError(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits), "second call served from cache")

	day, err := p.Day(context.Background(), loc, date)
	require.NoError(t, err)
	assert.Equal(t, "Europe/London", day.Timezone)
	assert.Equal(t, "10 Ramadan 1447 AH", day.Hijri)
}

func TestProvider_ByCityWithoutCache(t *testing.T) {
	var hits int32
	p := NewProvider(countingServer(t, &hits), nil, -1, -1, zerolog.Nop())
	loc := location.Snapshot{City: "London", Country: "UK", Type: location.TypeManual}

	_, err := p.Times(context.Background(), loc, time.Now())
	require.NoError(t, err)
	_, err = p.Times(context.Background(), loc, time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&hits))
}

func TestProvider_NoLocation(t *testing.T) {
	var hits int32
	p := NewProvider(countingServer(t, &hits), nil, -1, -1, zerolog.Nop())

	_, err := p.Times(context.Background(), location.Snapshot{}, time.Now())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoLocation))
	assert.Zero(t, atomic.LoadInt32(&hits))
}

func TestProvider_UsesLocationCalendarDay(t *testing.T) {
	var path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		json.NewEncoder(w).Encode(sampleResponse())
	}))
	defer server.Close()
	client := NewClient()
	client.BaseURL = server.URL

	p := NewProvider(client, nil, -1, -1, zerolog.Nop())
	loc := location.Snapshot{Latitude: 21.4, Longitude: 39.8, Timezone: "Asia/Riyadh"}

	// 22:30 UTC on the 28th is already the 1st of March in Riyadh.
	_, err := p.Times(context.Background(), loc, time.Date(2026, 2, 28, 22, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Contains(t, path, "/timings/01-03-2026")
}
