package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lox/airguard/internal/models"
)

// InsertReadings appends readings in one transaction and returns how many
// were written.
func (s *Store) InsertReadings(ctx context.Context, readings []models.Reading) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	if err := insertReadings(ctx, tx, readings); err != nil {
		tx.Rollback()
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit readings: %w", err)
	}
	return len(readings), nil
}

// ReplaceReadings swaps the whole dataset atomically.
func (s *Store) ReplaceReadings(ctx context.Context, readings []models.Reading) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM readings`); err != nil {
		tx.Rollback()
		return fmt.Errorf("clear readings: %w", err)
	}
	if err := insertReadings(ctx, tx, readings); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit readings: %w", err)
	}
	return nil
}

func insertReadings(ctx context.Context, tx *sql.Tx, readings []models.Reading) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO readings (city, country, pm2_5, pm10, co, o3, no2, reading_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert reading: %w", err)
	}
	defer stmt.Close()

	for i, r := range readings {
		date := sql.NullString{String: r.Date, Valid: r.Date != ""}
		if _, err := stmt.ExecContext(ctx, r.City, r.Country, r.PM25, r.PM10, r.CO, r.O3, r.NO2, date); err != nil {
			return fmt.Errorf("insert reading %d: %w", i, err)
		}
	}
	return nil
}

// ListReadings returns the dataset in insertion order.
func (s *Store) ListReadings(ctx context.Context) ([]models.Reading, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT city, country, pm2_5, pm10, co, o3, no2, reading_date
		FROM readings
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	readings := []models.Reading{}
	for rows.Next() {
		var r models.Reading
		var date sql.NullString
		if err := rows.Scan(&r.City, &r.Country, &r.PM25, &r.PM10, &r.CO, &r.O3, &r.NO2, &date); err != nil {
			return nil, err
		}
		r.Date = date.String
		readings = append(readings, r)
	}
	return readings, rows.Err()
}

func (s *Store) CountReadings(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM readings`).Scan(&n)
	return n, err
}
