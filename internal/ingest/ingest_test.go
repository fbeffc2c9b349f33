package ingest

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/lox/airguard/internal/airquality"
	"github.com/lox/airguard/internal/models"
	"github.com/lox/airguard/internal/openaq"
	"github.com/lox/airguard/internal/store"
)

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	st := store.New(db, nil)
	if err := st.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return st
}

func TestValidateReading(t *testing.T) {
	tests := []struct {
		name    string
		reading models.Reading
		want    []string
	}{
		{"clean", models.Reading{City: "Quito", PM25: 10, PM10: 20, CO: 0.5, O3: 30, NO2: 15}, nil},
		{"pm25 too high", models.Reading{City: "X", PM25: 1500, PM10: 2000}, []string{FlagPM25Implausible}},
		{"pm10 below pm25", models.Reading{City: "X", PM25: 40, PM10: 30}, []string{FlagPM10BelowPM25}},
		{"zero pm10 not flagged", models.Reading{City: "X", PM25: 40}, nil},
		{"several", models.Reading{City: "X", CO: 200, NO2: 5000}, []string{FlagCOImplausible, FlagNO2Implausible}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateReading(tt.reading))
		})
	}
}

func TestImportReadings(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()

	input := `[
		{"ciudad": "Quito", "pais": "Ecuador", "pm2_5": 10, "pm10": 20, "co": 0.5, "o3": 30, "no2": 15, "fecha": "2024-01-01"},
		{"city": "Quito", "country": "Ecuador", "pm2_5": 20, "pm10": 40, "co": 0.7, "o3": 32, "no2": 17}
	]`
	n, err := ImportReadings(ctx, st, strings.NewReader(input), "test", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	readings, err := st.ListReadings(ctx)
	require.NoError(t, err)
	require.Len(t, readings, 2)
	assert.Equal(t, "2024-01-01", readings[0].Date)
	assert.Equal(t, "Ecuador", readings[1].Country)
}

func TestImportReadingsRejectsInvalid(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()

	input := `[
		{"city": "Quito", "pm2_5": 10, "pm10": 20, "co": 0.5, "o3": 30, "no2": 15},
		{"city": "Lima", "pm2_5": -1, "pm10": 20, "co": 0.5, "o3": 30, "no2": 15}
	]`
	_, err := ImportReadings(ctx, st, strings.NewReader(input), "test", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, airquality.ErrValidation), "err = %v, want ErrValidation", err)

	count, err := st.CountReadings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count, "nothing written on invalid input")
}

func TestReplaceReadings(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()

	_, err := ImportReadings(ctx, st, strings.NewReader(`[{"city": "Lima", "pm2_5": 1, "pm10": 1, "co": 1, "o3": 1, "no2": 1}]`), "test", nil)
	require.NoError(t, err)

	n, err := ReplaceReadings(ctx, st, strings.NewReader(`[{"city": "Cuenca", "pm2_5": 7, "pm10": 9, "co": 1, "o3": 1, "no2": 1}]`), "test", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	readings, err := st.ListReadings(ctx)
	require.NoError(t, err)
	require.Len(t, readings, 1)
	assert.Equal(t, "Cuenca", readings[0].City)

	_, err = ReplaceReadings(ctx, st, strings.NewReader(`[{"city": "", "pm2_5": 1, "pm10": 1, "co": 1, "o3": 1, "no2": 1}]`), "test", nil)
	assert.ErrorIs(t, err, airquality.ErrValidation)

	count, err := st.CountReadings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "invalid replacement keeps the old dataset")
}

type fakeFetcher struct {
	bodies map[float64]string
	calls  int
}

func (f *fakeFetcher) FetchLatestWithRetry(ctx context.Context, lat, lon float64) (*openaq.Response, error) {
	f.calls++
	body, ok := f.bodies[lat]
	if !ok {
		return nil, errors.New("upstream unavailable")
	}
	return &openaq.Response{StatusCode: 200, ContentType: "application/json", Body: []byte(body)}, nil
}

func TestPollOnce(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.UpsertLocation(ctx, models.Location{LocationID: "quito", Name: "Quito", Latitude: -0.18, Longitude: -78.47, Active: true}))
	require.NoError(t, st.UpsertLocation(ctx, models.Location{LocationID: "cuenca", Name: "Cuenca", Latitude: -2.9, Longitude: -79.0, Active: true}))
	require.NoError(t, st.UpsertLocation(ctx, models.Location{LocationID: "paused", Name: "Paused", Latitude: 5, Longitude: 5, Active: false}))

	fetcher := &fakeFetcher{bodies: map[float64]string{-0.18: `{"results":[1]}`}}
	poller := NewPoller(st, fetcher, "", nil)

	result, err := poller.PollOnce(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 2, result.Locations)
	assert.Equal(t, 1, result.Archived)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 2, fetcher.calls, "inactive locations are skipped")

	latest, err := st.LatestRawPayload(ctx, "quito")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, result.RunID, latest.RunID)
	assert.Equal(t, `{"results":[1]}`, string(latest.Body))

	second, err := poller.PollOnce(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, result.RunID, second.RunID)
	assert.Equal(t, 1, second.Duplicates)
	assert.Equal(t, 0, second.Archived)
}

func TestPollerRunRejectsBadSchedule(t *testing.T) {
	st := setupTestStore(t)
	poller := NewPoller(st, &fakeFetcher{}, "not a schedule", nil)

	err := poller.Run(context.Background())
	assert.Error(t, err)
}
