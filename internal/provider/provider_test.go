package provider

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EtfSentry/internal/model"
)

func testLogger() zerolog.Logger { return zerolog.Nop() }

func TestMockDeterministic(t *testing.T) {
	m := NewMock()
	first, err := m.Fetch(context.Background(), "510300", 250)
	require.NoError(t, err)
	second, err := m.Fetch(context.Background(), "510300", 250)
	require.NoError(t, err)

	require.Len(t, first.Bars, 250)
	assert.Equal(t, first.Bars, second.Bars)

	other, err := m.Fetch(context.Background(), "159949", 250)
	require.NoError(t, err)
	assert.NotEqual(t, first.Bars, other.Bars, "different symbols must diverge")
}

func TestMockSimulatedOutage(t *testing.T) {
	m := NewMock()
	m.Fail = map[string]bool{"512480": true}
	_, err := m.Fetch(context.Background(), "512480", 250)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrDataUnavailable)
}

func TestSecidPrefix(t *testing.T) {
	assert.Equal(t, "1.510300", secid("510300"), "Shanghai fund")
	assert.Equal(t, "0.159949", secid("159949"), "Shenzhen fund")
}

func TestParseKline(t *testing.T) {
	bar, err := parseKline("2025-06-30,3.915,3.942,3.950,3.901,1234567,4867890.0")
	require.NoError(t, err)
	assert.Equal(t, 2025, bar.Time.Year())
	assert.Equal(t, 3.915, bar.Open)
	assert.Equal(t, 3.942, bar.Close)
	assert.Equal(t, 3.950, bar.High)
	assert.Equal(t, 3.901, bar.Low)
	assert.Equal(t, 1234567.0, bar.Volume)

	_, err = parseKline("2025-06-30,not-a-number")
	assert.Error(t, err)
}

func TestBarCacheRoundTrip(t *testing.T) {
	cache, err := OpenBarCache(filepath.Join(t.TempDir(), "bars.db"))
	require.NoError(t, err)
	defer cache.Close()

	m := NewMock()
	snap, err := m.Fetch(context.Background(), "510050", 120)
	require.NoError(t, err)
	require.NoError(t, cache.Store(snap))

	got, ok, err := cache.Load("510050", 120, time.Hour)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got.Bars, 120)
	for i := range snap.Bars {
		assert.InDelta(t, snap.Bars[i].Close, got.Bars[i].Close, 1e-9)
		assert.True(t, got.Bars[i].Time.Equal(snap.Bars[i].Time), "bar %d time", i)
	}
}

func TestBarCacheStaleness(t *testing.T) {
	cache, err := OpenBarCache(filepath.Join(t.TempDir(), "bars.db"))
	require.NoError(t, err)
	defer cache.Close()

	m := NewMock()
	snap, err := m.Fetch(context.Background(), "159934", 60)
	require.NoError(t, err)
	snap.FetchedAt = time.Now().Add(-48 * time.Hour)
	require.NoError(t, cache.Store(snap))

	_, ok, err := cache.Load("159934", 60, 18*time.Hour)
	require.NoError(t, err)
	assert.False(t, ok, "stale series must miss")

	// Too few cached bars also misses.
	fresh, err := m.Fetch(context.Background(), "159941", 60)
	require.NoError(t, err)
	require.NoError(t, cache.Store(fresh))
	_, ok, err = cache.Load("159941", 250, time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCachedProviderShortCircuits(t *testing.T) {
	cache, err := OpenBarCache(filepath.Join(t.TempDir(), "bars.db"))
	require.NoError(t, err)
	defer cache.Close()

	inner := NewMock()
	cached := NewCached(inner, cache, time.Hour, testLogger())

	first, err := cached.Fetch(context.Background(), "510300", 120)
	require.NoError(t, err)

	// Break the inner provider; the cache must now serve alone.
	inner.Fail = map[string]bool{"510300": true}
	second, err := cached.Fetch(context.Background(), "510300", 120)
	require.NoError(t, err)
	assert.Equal(t, first.Bars, second.Bars)
}
