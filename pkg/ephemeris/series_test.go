package ephemeris

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	astromath "github.com/oxygene76/orrery/pkg/astronomy/math"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func day(n int) time.Time {
	return epoch.AddDate(0, 0, n)
}

func testSeries(days ...int) Series {
	s := Series{MeanRadiusAU: 0.0001}
	for _, d := range days {
		s.Samples = append(s.Samples, Sample{Time: day(d), Position: astromath.Vector3{X: float64(d)}})
	}
	return s
}

func TestSeriesIndexMatchesLinearScan(t *testing.T) {
	s := testSeries(0, 2, 4, 10, 11)

	for h := -24; h <= 12*24; h += 7 {
		target := epoch.Add(time.Duration(h) * time.Hour)
		want := s.Len()
		for i, sample := range s.Samples {
			if !sample.Time.Before(target) {
				want = i
				break
			}
		}
		assert.Equal(t, want, s.Index(target), "hour %d", h)
	}
}

func TestSeriesEvery(t *testing.T) {
	s := testSeries(0, 1, 2, 3, 4)
	every := s.Every(2)
	require.Len(t, every, 3)
	assert.Equal(t, day(4), every[2].Time)

	assert.Len(t, s.Every(0), 5)
}

func TestSeriesValidate(t *testing.T) {
	assert.NoError(t, testSeries(0, 1, 5).Validate())
	assert.ErrorIs(t, testSeries(0, 1, 1).Validate(), ErrUnordered)
	assert.ErrorIs(t, testSeries(3, 1).Validate(), ErrUnordered)
}

func TestStoreSetRejectsUnorderedSeries(t *testing.T) {
	store := NewStore()
	err := store.Set("399", testSeries(2, 1))
	assert.ErrorIs(t, err, ErrUnordered)

	s, ok := store.Get("399")
	require.True(t, ok)
	assert.Empty(t, s.Samples)
	assert.Equal(t, 0.0001, s.MeanRadiusAU)
	assert.False(t, store.Has("399"))
	assert.True(t, store.Complete([]string{"399"}))
	assert.False(t, store.Complete([]string{"399", "499"}))
}

func TestSeriesJSONShape(t *testing.T) {
	s := testSeries(0)
	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `[0.0001, [{"date":"2024-01-01T00:00:00Z","position":{"x":0,"y":0,"z":0}}]]`, string(data))

	data, err = json.Marshal(Empty())
	require.NoError(t, err)
	assert.JSONEq(t, `[0.001, []]`, string(data))
}

func TestCacheRoundTrip(t *testing.T) {
	store := NewStore()
	require.NoError(t, store.Set("399", testSeries(0, 1, 2, 3)))
	require.NoError(t, store.Set("3398", Empty()))

	path := filepath.Join(t.TempDir(), "cache", "ephemeris.json")
	require.NoError(t, SaveCache(path, store))

	loaded, err := LoadCache(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"3398", "399"}, loaded.IDs())

	s, ok := loaded.Get("399")
	require.True(t, ok)
	require.Equal(t, 4, s.Len())
	assert.True(t, s.Samples[3].Time.Equal(day(3)))
	assert.False(t, loaded.Has("3398"))
}

func TestLoadCacheMissingFile(t *testing.T) {
	_, err := LoadCache(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

type fakeSource struct {
	series map[string]Series
	calls  []string
}

func (f *fakeSource) Fetch(ctx context.Context, id string, start, stop time.Time) (Series, error) {
	f.calls = append(f.calls, id)
	s, ok := f.series[id]
	if !ok {
		return Empty(), errors.New("not found")
	}
	return s, nil
}

func (f *fakeSource) Name() string { return "fake" }

func TestLoadRecordsFailuresAsEmpty(t *testing.T) {
	src := &fakeSource{series: map[string]Series{
		"399": testSeries(0, 1, 2),
		"499": testSeries(0, 1),
	}}
	store := NewStore()

	var progress []string
	err := Load(context.Background(), src, store, []string{"399", "123", "499"}, day(0), day(2), LoadOptions{
		Progress: func(done, total int, id string, err error) {
			progress = append(progress, id)
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"399", "123", "499"}, src.calls)
	assert.Equal(t, []string{"399", "123", "499"}, progress)
	assert.True(t, store.Has("399"))
	assert.True(t, store.Has("499"))
	assert.False(t, store.Has("123"))

	failed, ok := store.Get("123")
	require.True(t, ok)
	assert.Equal(t, DefaultRadiusAU, failed.MeanRadiusAU)
	assert.True(t, store.Complete([]string{"399", "123", "499"}))
}

func TestLoadStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &fakeSource{}
	err := Load(ctx, src, NewStore(), []string{"399"}, day(0), day(1), LoadOptions{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, src.calls)
}

func TestLoadRejectsEmptyRange(t *testing.T) {
	err := Load(context.Background(), &fakeSource{}, NewStore(), []string{"399"}, day(1), day(1), LoadOptions{})
	assert.Error(t, err)
}

func TestStoreBounds(t *testing.T) {
	store := NewStore()
	_, _, ok := store.Bounds()
	assert.False(t, ok)

	require.NoError(t, store.Set("a", testSeries(-2, 3)))
	require.NoError(t, store.Set("b", Series{Samples: []Sample{{Time: day(0), Position: astromath.Vector3{Y: 4, Z: -1}}}}))

	lo, hi, ok := store.Bounds()
	require.True(t, ok)
	assert.Equal(t, astromath.Vector3{X: -2, Y: 0, Z: -1}, lo)
	assert.Equal(t, astromath.Vector3{X: 3, Y: 4, Z: 0}, hi)
}
