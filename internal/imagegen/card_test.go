package imagegen

import (
	"bytes"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSummaryCard(t *testing.T) {
	out, err := GenerateSummaryCard(SummaryCardData{
		Best:        "Cuenca",
		BestIndex:   8,
		Worst:       "Lima",
		WorstIndex:  62,
		CityCount:   4,
		AlertColor:  "orange",
		GeneratedAt: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, CardWidth, img.Bounds().Dx())
	assert.Equal(t, CardHeight, img.Bounds().Dy())

	r, g, b, _ := img.At(5, 5).RGBA()
	assert.Equal(t, uint32(230), r>>8, "accent bar uses the alert colour")
	assert.Equal(t, uint32(120), g>>8)
	assert.Equal(t, uint32(30), b>>8)
}

func TestGenerateSummaryCardEmpty(t *testing.T) {
	out, err := GenerateSummaryCard(SummaryCardData{})
	require.NoError(t, err)
	_, err = png.Decode(bytes.NewReader(out))
	assert.NoError(t, err)
}

func TestGenerateSummaryCardConcurrent(t *testing.T) {
	data := SummaryCardData{Best: "Cuenca", Worst: "Lima", CityCount: 2, AlertColor: "red"}
	want, err := GenerateSummaryCard(data)
	require.NoError(t, err)

	const workers = 4
	results := make([][]byte, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = GenerateSummaryCard(data)
		}()
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, want, results[i], "render %d differs", i)
	}
}

func TestCardCacheExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cache := NewCardCache(time.Minute)
	cache.now = func() time.Time { return now }

	_, ok := cache.Get()
	assert.False(t, ok, "empty cache")

	cache.Set([]byte("png"))
	got, ok := cache.Get()
	require.True(t, ok)
	assert.Equal(t, []byte("png"), got)

	now = now.Add(2 * time.Minute)
	_, ok = cache.Get()
	assert.False(t, ok, "expired entry")

	cache.Set([]byte("png2"))
	cache.Invalidate()
	_, ok = cache.Get()
	assert.False(t, ok, "invalidated entry")
}
