package db

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/hpungsan/dayreel/internal/errors"
)

// PreferenceRow is a row of preferred_selections.
type PreferenceRow struct {
	Day        int64 // Unix seconds of the normalized day
	AssetID    string
	SelectedAt int64
}

// UpsertPreference creates or overwrites the preference for row.Day.
func UpsertPreference(ctx context.Context, db *sql.DB, row PreferenceRow) error {
	query := `
		INSERT INTO preferred_selections (day, asset_id, selected_at)
		VALUES (?, ?, ?)
		ON CONFLICT(day) DO UPDATE SET
			asset_id = excluded.asset_id,
			selected_at = excluded.selected_at
	`
	if _, err := db.ExecContext(ctx, query, row.Day, row.AssetID, row.SelectedAt); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// GetPreference returns the preference stored for day.
// Returns ErrNotFound if there is none.
func GetPreference(ctx context.Context, db *sql.DB, day int64) (*PreferenceRow, error) {
	query := `SELECT day, asset_id, selected_at FROM preferred_selections WHERE day = ?`

	var row PreferenceRow
	err := db.QueryRowContext(ctx, query, day).Scan(&row.Day, &row.AssetID, &row.SelectedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("preference", strconv.FormatInt(day, 10))
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return &row, nil
}

// DeletePreference removes the preference for day. Reports whether a row was deleted.
func DeletePreference(ctx context.Context, db *sql.DB, day int64) (bool, error) {
	result, err := db.ExecContext(ctx, `DELETE FROM preferred_selections WHERE day = ?`, day)
	if err != nil {
		return false, errors.NewInternal(err)
	}
	n, err := rowsAffected(result)
	return n > 0, err
}

// DeletePreferenceIfAsset removes the preference for day only if it still names assetID.
func DeletePreferenceIfAsset(ctx context.Context, db *sql.DB, day int64, assetID string) (bool, error) {
	result, err := db.ExecContext(ctx,
		`DELETE FROM preferred_selections WHERE day = ? AND asset_id = ?`, day, assetID)
	if err != nil {
		return false, errors.NewInternal(err)
	}
	n, err := rowsAffected(result)
	return n > 0, err
}

// DeletePreferencesBefore removes preferences whose day is before cutoff.
// A nil cutoff removes every row. Returns the number of rows deleted.
func DeletePreferencesBefore(ctx context.Context, db *sql.DB, cutoff *int64) (int, error) {
	var (
		result sql.Result
		err    error
	)
	if cutoff == nil {
		result, err = db.ExecContext(ctx, `DELETE FROM preferred_selections`)
	} else {
		result, err = db.ExecContext(ctx, `DELETE FROM preferred_selections WHERE day < ?`, *cutoff)
	}
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return rowsAffected(result)
}

// CountPreferences returns the number of stored preferences.
func CountPreferences(ctx context.Context, db *sql.DB) (int, error) {
	return count(ctx, db, `SELECT COUNT(*) FROM preferred_selections`)
}

// ListPreferences returns all preferences, most recent day first.
func ListPreferences(ctx context.Context, db *sql.DB) ([]PreferenceRow, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT day, asset_id, selected_at FROM preferred_selections ORDER BY day DESC`)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var out []PreferenceRow
	for rows.Next() {
		var row PreferenceRow
		if err := rows.Scan(&row.Day, &row.AssetID, &row.SelectedAt); err != nil {
			return nil, errors.NewInternal(err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}
