package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/scoutpoint/scoutpoint/internal/model"
)

// BackupStore records completed backup uploads so operators can see when the
// ledger was last snapshotted.
type BackupStore struct {
	db *sql.DB
}

func NewBackupStore(db *sql.DB) *BackupStore {
	return &BackupStore{db: db}
}

func (s *BackupStore) Record(ctx context.Context, key string, sizeBytes int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO backup_runs (key, size_bytes) VALUES (?, ?)`,
		key, sizeBytes,
	)
	if err != nil {
		return fmt.Errorf("record backup run: %w", err)
	}
	return nil
}

func (s *BackupStore) Latest(ctx context.Context) (*model.BackupRun, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, key, size_bytes, completed_at FROM backup_runs ORDER BY id DESC LIMIT 1`,
	)
	var r model.BackupRun
	err := row.Scan(&r.ID, &r.Key, &r.SizeBytes, &r.CompletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest backup run: %w", err)
	}
	return &r, nil
}
