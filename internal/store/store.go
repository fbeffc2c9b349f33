package store

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrEmptyText = errors.New("text is empty")
)

type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

func New(db *sql.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger.With("component", "store")}
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	var ok int
	return s.db.QueryRowContext(ctx, `SELECT 1`).Scan(&ok)
}
