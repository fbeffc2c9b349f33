// Package ingest loads readings into the store and archives upstream
// measurements on a schedule.
package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/lox/airguard/internal/airquality"
	"github.com/lox/airguard/internal/metrics"
	"github.com/lox/airguard/internal/models"
)

// ReadingStore is the subset of the store used by imports.
type ReadingStore interface {
	InsertReadings(ctx context.Context, readings []models.Reading) (int, error)
	ReplaceReadings(ctx context.Context, readings []models.Reading) error
}

// ImportReadings decodes a JSON array of readings and appends them to the
// store. Nothing is written if any element fails validation.
func ImportReadings(ctx context.Context, st ReadingStore, r io.Reader, source string, logger *slog.Logger) (int, error) {
	logger, readings, err := decodeForImport(r, logger)
	if err != nil {
		return 0, err
	}

	n, err := st.InsertReadings(ctx, readings)
	if err != nil {
		return 0, fmt.Errorf("store readings: %w", err)
	}
	metrics.ReadingsImported.WithLabelValues(source).Add(float64(n))
	logger.Info("imported readings", "count", n, "source", source)
	return n, nil
}

// ReplaceReadings decodes a JSON array of readings and swaps it in for the
// whole stored dataset. A validation failure leaves the dataset untouched.
func ReplaceReadings(ctx context.Context, st ReadingStore, r io.Reader, source string, logger *slog.Logger) (int, error) {
	logger, readings, err := decodeForImport(r, logger)
	if err != nil {
		return 0, err
	}

	if err := st.ReplaceReadings(ctx, readings); err != nil {
		return 0, fmt.Errorf("replace readings: %w", err)
	}
	metrics.ReadingsImported.WithLabelValues(source).Add(float64(len(readings)))
	logger.Info("replaced readings", "count", len(readings), "source", source)
	return len(readings), nil
}

func decodeForImport(r io.Reader, logger *slog.Logger) (*slog.Logger, []models.Reading, error) {
	if logger == nil {
		logger = slog.Default()
	}

	readings, err := airquality.DecodeReadings(r)
	if err != nil {
		return logger, nil, fmt.Errorf("decode readings: %w", err)
	}

	for i, reading := range readings {
		if flags := ValidateReading(reading); len(flags) > 0 {
			logger.Warn("suspicious reading", "index", i, "city", reading.City, "flags", flags)
		}
	}
	return logger, readings, nil
}
