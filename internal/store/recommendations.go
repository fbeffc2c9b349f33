package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lox/airguard/internal/models"
)

func (s *Store) ListRecommendations(ctx context.Context) ([]models.Recommendation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, text, created_at, updated_at
		FROM recommendations
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recs := []models.Recommendation{}
	for rows.Next() {
		var r models.Recommendation
		if err := rows.Scan(&r.ID, &r.Text, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		recs = append(recs, r)
	}
	return recs, rows.Err()
}

func (s *Store) GetRecommendation(ctx context.Context, id int64) (*models.Recommendation, error) {
	var r models.Recommendation
	err := s.db.QueryRowContext(ctx, `
		SELECT id, text, created_at, updated_at
		FROM recommendations
		WHERE id = ?
	`, id).Scan(&r.ID, &r.Text, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// CreateRecommendation stores trimmed text. Blank text is rejected with
// ErrEmptyText.
func (s *Store) CreateRecommendation(ctx context.Context, text string) (*models.Recommendation, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO recommendations (text, created_at, updated_at) VALUES (?, ?, ?)
	`, text, now, now)
	if err != nil {
		return nil, fmt.Errorf("insert recommendation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &models.Recommendation{ID: id, Text: text, CreatedAt: now, UpdatedAt: now}, nil
}

func (s *Store) UpdateRecommendation(ctx context.Context, id int64, text string) (*models.Recommendation, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE recommendations SET text = ?, updated_at = ? WHERE id = ?
	`, text, time.Now().UTC(), id)
	if err != nil {
		return nil, fmt.Errorf("update recommendation %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, err
	} else if n == 0 {
		return nil, ErrNotFound
	}
	return s.GetRecommendation(ctx, id)
}

func (s *Store) DeleteRecommendation(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM recommendations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete recommendation %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
