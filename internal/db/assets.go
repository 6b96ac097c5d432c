package db

import (
	"context"
	"database/sql"

	"github.com/hpungsan/dayreel/internal/errors"
)

// AssetRow is a row of the local library catalog.
type AssetRow struct {
	ID         string
	CreatedAt  int64 // Unix milliseconds
	Kind       string
	Duration   *float64
	ImportedAt int64
}

// InsertAsset adds an asset to the catalog.
// Returns ErrUniqueConstraint if the id already exists.
func InsertAsset(ctx context.Context, db *sql.DB, row AssetRow) error {
	query := `
		INSERT INTO assets (id, created_at, kind, duration, imported_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := db.ExecContext(ctx, query, row.ID, row.CreatedAt, row.Kind, toNullFloat(row.Duration), row.ImportedAt)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrUniqueConstraint
		}
		return errors.NewInternal(err)
	}
	return nil
}

// InsertAssets adds rows in one transaction. If any id already exists nothing
// is written and the colliding id is returned with ErrUniqueConstraint.
func InsertAssets(ctx context.Context, db *sql.DB, rows []AssetRow) (string, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", errors.NewInternal(err)
	}
	defer tx.Rollback() //nolint:errcheck

	query := `
		INSERT INTO assets (id, created_at, kind, duration, imported_at)
		VALUES (?, ?, ?, ?, ?)
	`
	for _, row := range rows {
		if _, err := tx.ExecContext(ctx, query, row.ID, row.CreatedAt, row.Kind, toNullFloat(row.Duration), row.ImportedAt); err != nil {
			if isUniqueConstraintError(err) {
				return row.ID, ErrUniqueConstraint
			}
			return "", errors.NewInternal(err)
		}
	}
	if err := tx.Commit(); err != nil {
		return "", errors.NewInternal(err)
	}
	return "", nil
}

// UpsertAsset adds an asset or overwrites the existing row with the same id.
func UpsertAsset(ctx context.Context, db *sql.DB, row AssetRow) error {
	query := `
		INSERT INTO assets (id, created_at, kind, duration, imported_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			created_at = excluded.created_at,
			kind = excluded.kind,
			duration = excluded.duration,
			imported_at = excluded.imported_at
	`
	_, err := db.ExecContext(ctx, query, row.ID, row.CreatedAt, row.Kind, toNullFloat(row.Duration), row.ImportedAt)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// GetAsset returns the catalog row for id.
// Returns ErrNotFound if the asset is not in the catalog.
func GetAsset(ctx context.Context, db *sql.DB, id string) (*AssetRow, error) {
	query := `SELECT id, created_at, kind, duration, imported_at FROM assets WHERE id = ?`
	row, err := scanAsset(db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("asset", id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return row, nil
}

// AssetExists reports whether id is in the catalog.
func AssetExists(ctx context.Context, db *sql.DB, id string) (bool, error) {
	var exists int
	err := db.QueryRowContext(ctx, `SELECT 1 FROM assets WHERE id = ? LIMIT 1`, id).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, errors.NewInternal(err)
	}
	return true, nil
}

// ListAssetsBetween returns assets created in [from, to) (Unix milliseconds),
// earliest first. Ties are broken by id so the order is stable.
func ListAssetsBetween(ctx context.Context, db *sql.DB, from, to int64) ([]AssetRow, error) {
	query := `
		SELECT id, created_at, kind, duration, imported_at
		FROM assets
		WHERE created_at >= ? AND created_at < ?
		ORDER BY created_at ASC, id ASC
	`
	rows, err := db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var out []AssetRow
	for rows.Next() {
		row, err := scanAsset(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		out = append(out, *row)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}

// CountAssetsBetween counts assets created in [from, to) (Unix milliseconds).
func CountAssetsBetween(ctx context.Context, db *sql.DB, from, to int64) (int, error) {
	return count(ctx, db, `SELECT COUNT(*) FROM assets WHERE created_at >= ? AND created_at < ?`, from, to)
}

// CountAssets returns the catalog size.
func CountAssets(ctx context.Context, db *sql.DB) (int, error) {
	return count(ctx, db, `SELECT COUNT(*) FROM assets`)
}

// DeleteAsset removes id from the catalog. Reports whether a row was deleted.
func DeleteAsset(ctx context.Context, db *sql.DB, id string) (bool, error) {
	result, err := db.ExecContext(ctx, `DELETE FROM assets WHERE id = ?`, id)
	if err != nil {
		return false, errors.NewInternal(err)
	}
	n, err := rowsAffected(result)
	return n > 0, err
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanAsset scans a single row into an AssetRow.
func scanAsset(s scanner) (*AssetRow, error) {
	var (
		row      AssetRow
		duration sql.NullFloat64
	)
	if err := s.Scan(&row.ID, &row.CreatedAt, &row.Kind, &duration, &row.ImportedAt); err != nil {
		return nil, err
	}
	row.Duration = fromNullFloat(duration)
	return &row, nil
}
