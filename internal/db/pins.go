package db

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/hpungsan/dayreel/internal/errors"
)

// PinRow is a row of pins.
type PinRow struct {
	TargetDay int64 // Unix seconds of the normalized target day
	AssetID   string
	SourceDay int64 // Unix seconds of the normalized source day
	PinnedAt  int64
}

// UpsertPin creates or overwrites the pin for row.TargetDay.
// Reports whether an existing pin was replaced.
func UpsertPin(ctx context.Context, db *sql.DB, row PinRow) (replaced bool, err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return false, errors.NewInternal(err)
	}
	defer tx.Rollback() //nolint:errcheck

	existing, err := count(ctx, tx, `SELECT COUNT(*) FROM pins WHERE target_day = ?`, row.TargetDay)
	if err != nil {
		return false, err
	}

	query := `
		INSERT INTO pins (target_day, asset_id, source_day, pinned_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(target_day) DO UPDATE SET
			asset_id = excluded.asset_id,
			source_day = excluded.source_day,
			pinned_at = excluded.pinned_at
	`
	if _, err := tx.ExecContext(ctx, query, row.TargetDay, row.AssetID, row.SourceDay, row.PinnedAt); err != nil {
		return false, errors.NewInternal(err)
	}
	if err := tx.Commit(); err != nil {
		return false, errors.NewInternal(err)
	}
	return existing > 0, nil
}

// GetPin returns the pin targeting day.
// Returns ErrNotFound if there is none.
func GetPin(ctx context.Context, db *sql.DB, targetDay int64) (*PinRow, error) {
	query := `SELECT target_day, asset_id, source_day, pinned_at FROM pins WHERE target_day = ?`

	var row PinRow
	err := db.QueryRowContext(ctx, query, targetDay).Scan(&row.TargetDay, &row.AssetID, &row.SourceDay, &row.PinnedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("pin", strconv.FormatInt(targetDay, 10))
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return &row, nil
}

// DeletePin removes the pin targeting day. Reports whether a row was deleted.
func DeletePin(ctx context.Context, db *sql.DB, targetDay int64) (bool, error) {
	result, err := db.ExecContext(ctx, `DELETE FROM pins WHERE target_day = ?`, targetDay)
	if err != nil {
		return false, errors.NewInternal(err)
	}
	n, err := rowsAffected(result)
	return n > 0, err
}

// DeletePinIfAsset removes the pin targeting day only if it still borrows assetID.
// A pin replaced after the caller read it is left alone.
func DeletePinIfAsset(ctx context.Context, db *sql.DB, targetDay int64, assetID string) (bool, error) {
	result, err := db.ExecContext(ctx,
		`DELETE FROM pins WHERE target_day = ? AND asset_id = ?`, targetDay, assetID)
	if err != nil {
		return false, errors.NewInternal(err)
	}
	n, err := rowsAffected(result)
	return n > 0, err
}

// DeletePinsBefore removes pins whose target day is before cutoff.
// A nil cutoff removes every row. Returns the number of rows deleted.
func DeletePinsBefore(ctx context.Context, db *sql.DB, cutoff *int64) (int, error) {
	var (
		result sql.Result
		err    error
	)
	if cutoff == nil {
		result, err = db.ExecContext(ctx, `DELETE FROM pins`)
	} else {
		result, err = db.ExecContext(ctx, `DELETE FROM pins WHERE target_day < ?`, *cutoff)
	}
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return rowsAffected(result)
}

// CountPins returns the number of stored pins.
func CountPins(ctx context.Context, db *sql.DB) (int, error) {
	return count(ctx, db, `SELECT COUNT(*) FROM pins`)
}

// ListPins returns pins ordered by most recent target day first.
// limit <= 0 returns every pin.
func ListPins(ctx context.Context, db *sql.DB, limit, offset int) ([]PinRow, error) {
	query := `SELECT target_day, asset_id, source_day, pinned_at FROM pins ORDER BY target_day DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, offset)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var out []PinRow
	for rows.Next() {
		var row PinRow
		if err := rows.Scan(&row.TargetDay, &row.AssetID, &row.SourceDay, &row.PinnedAt); err != nil {
			return nil, errors.NewInternal(err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}
