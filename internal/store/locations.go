package store

import (
	"context"

	"github.com/lox/airguard/internal/models"
)

func (s *Store) UpsertLocation(ctx context.Context, loc models.Location) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO locations (location_id, name, country, latitude, longitude, active)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(location_id) DO UPDATE SET
			name = excluded.name,
			country = excluded.country,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			active = excluded.active
	`, loc.LocationID, loc.Name, loc.Country, loc.Latitude, loc.Longitude, loc.Active)
	return err
}

func (s *Store) ActiveLocations(ctx context.Context) ([]models.Location, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT location_id, name, country, latitude, longitude, active
		FROM locations
		WHERE active = TRUE
		ORDER BY location_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	locs := []models.Location{}
	for rows.Next() {
		var l models.Location
		if err := rows.Scan(&l.LocationID, &l.Name, &l.Country, &l.Latitude, &l.Longitude, &l.Active); err != nil {
			return nil, err
		}
		locs = append(locs, l)
	}
	return locs, rows.Err()
}
