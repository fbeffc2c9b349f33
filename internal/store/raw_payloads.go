package store

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/lox/airguard/internal/models"
)

// StoreRawPayload stores a compressed upstream response. Returns false when an
// identical body for the same location is already stored.
func (s *Store) StoreRawPayload(ctx context.Context, p models.RawPayload) (bool, error) {
	compressed, err := compress(p.Body)
	if err != nil {
		return false, err
	}

	hash := sha256.Sum256(p.Body)
	hashHex := hex.EncodeToString(hash[:])

	fetchedAt := p.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now().UTC()
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO raw_payloads
		(location_id, run_id, fetched_at, http_status, content_type, payload_compressed, payload_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(location_id, payload_hash) DO NOTHING
	`, p.LocationID, p.RunID, fetchedAt, p.HTTPStatus, p.ContentType, compressed, hashHex)
	if err != nil {
		return false, fmt.Errorf("insert raw payload: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// LatestRawPayload returns the most recently fetched payload for a location,
// decompressed. Returns nil when nothing has been stored.
func (s *Store) LatestRawPayload(ctx context.Context, locationID string) (*models.RawPayload, error) {
	var p models.RawPayload
	var contentType sql.NullString
	var compressed []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT id, location_id, run_id, fetched_at, http_status, content_type, payload_compressed
		FROM raw_payloads
		WHERE location_id = ?
		ORDER BY fetched_at DESC, id DESC
		LIMIT 1
	`, locationID).Scan(&p.ID, &p.LocationID, &p.RunID, &p.FetchedAt, &p.HTTPStatus, &contentType, &compressed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.ContentType = contentType.String

	p.Body, err = decompress(compressed)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CleanupOldRawPayloads deletes payloads older than retentionDays and returns
// the number removed.
func (s *Store) CleanupOldRawPayloads(ctx context.Context, retentionDays int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)
	result, err := s.db.ExecContext(ctx, `DELETE FROM raw_payloads WHERE fetched_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func compress(payload []byte) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(payload); err != nil {
		return nil, fmt.Errorf("compress payload: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("close gzip: %w", err)
	}
	return buf.Bytes(), nil
}

func decompress(compressed []byte) ([]byte, error) {
	gz, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("create gzip reader: %w", err)
	}
	defer gz.Close()
	return io.ReadAll(gz)
}
