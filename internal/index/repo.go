package index

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/starford/cpidash/internal/apperr"
	"github.com/starford/cpidash/internal/models"
)

const loadColumns = `id, source, checksum, encoding, rows, skipped, null_index, null_yoy, loaded_at`

// RecordLoad appends a load to the ledger.
func (db *DB) RecordLoad(info models.LoadInfo) error {
	_, err := db.conn.Exec(`
		INSERT INTO loads (`+loadColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, info.ID, info.Source, info.Checksum, info.Encoding, info.Rows, info.Skipped,
		info.NullIndex, info.NullYoY, info.LoadedAt.UTC())
	if err != nil {
		return fmt.Errorf("index: record load: %w", err)
	}
	return nil
}

// LatestLoad returns the most recent load, or apperr.ErrNotFound when the
// ledger is empty.
func (db *DB) LatestLoad() (*models.LoadInfo, error) {
	row := db.conn.QueryRow(`SELECT ` + loadColumns + ` FROM loads ORDER BY loaded_at DESC, rowid DESC LIMIT 1`)
	info, err := scanLoad(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("index: latest load: %w", err)
	}
	return &info, nil
}

// ListLoads returns up to limit loads, newest first.
func (db *DB) ListLoads(limit int) ([]models.LoadInfo, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`SELECT `+loadColumns+` FROM loads ORDER BY loaded_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("index: list loads: %w", err)
	}
	defer rows.Close()

	out := []models.LoadInfo{}
	for rows.Next() {
		info, err := scanLoad(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLoad(s scanner) (models.LoadInfo, error) {
	var info models.LoadInfo
	err := s.Scan(&info.ID, &info.Source, &info.Checksum, &info.Encoding, &info.Rows,
		&info.Skipped, &info.NullIndex, &info.NullYoY, &info.LoadedAt)
	return info, err
}
