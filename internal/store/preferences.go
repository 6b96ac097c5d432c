// Package store owns the persisted user choices: one preferred asset and one
// pin per calendar day. Every method is infallible from the caller's side;
// persistence failures are logged and surface as the absent value.
package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/hpungsan/dayreel/internal/db"
	"github.com/hpungsan/dayreel/internal/errors"
	"github.com/hpungsan/dayreel/internal/logging"
	"github.com/hpungsan/dayreel/internal/media"
)

// Preferences stores the user's preferred representative per day.
type Preferences struct {
	db  *sql.DB
	loc *time.Location
	log *logging.Logger

	// Now is the clock used for selected_at and age cleanup.
	Now func() time.Time
}

// NewPreferences returns a preference store over database. A nil database
// yields a store whose writes are no-ops and whose reads return nothing.
func NewPreferences(database *sql.DB, loc *time.Location, log *logging.Logger) *Preferences {
	if loc == nil {
		loc = time.Local
	}
	return &Preferences{
		db:  database,
		loc: loc,
		log: logging.OrNop(log).With("store", "preferences"),
		Now: time.Now,
	}
}

func (p *Preferences) key(day time.Time) int64 {
	return media.StartOfDay(day, p.loc).Unix()
}

func (p *Preferences) available(op string) bool {
	if p.db == nil {
		p.log.Warn("persistence unavailable", "op", op)
		return false
	}
	return true
}

// SetPreferred records assetID as the preferred media for day, replacing any
// earlier choice. Reports whether the row was written.
func (p *Preferences) SetPreferred(ctx context.Context, day time.Time, assetID string) bool {
	if !p.available("set") {
		return false
	}
	if assetID == "" {
		p.log.Warn("rejected preference with empty asset id", "day", media.FormatDay(day, p.loc))
		return false
	}
	row := db.PreferenceRow{Day: p.key(day), AssetID: assetID, SelectedAt: p.Now().Unix()}
	if err := db.UpsertPreference(ctx, p.db, row); err != nil {
		p.log.Warn("set preferred failed", "day", media.FormatDay(day, p.loc), "error", err)
		return false
	}
	return true
}

// GetPreferred returns the preferred asset id for day.
func (p *Preferences) GetPreferred(ctx context.Context, day time.Time) (string, bool) {
	sel, ok := p.Get(ctx, day)
	return sel.AssetID, ok
}

// Get returns the full preference row for day.
func (p *Preferences) Get(ctx context.Context, day time.Time) (media.PreferredSelection, bool) {
	if !p.available("get") {
		return media.PreferredSelection{}, false
	}
	row, err := db.GetPreference(ctx, p.db, p.key(day))
	if errors.Is(err, errors.ErrNotFound) {
		return media.PreferredSelection{}, false
	}
	if err != nil {
		p.log.Warn("get preferred failed", "day", media.FormatDay(day, p.loc), "error", err)
		return media.PreferredSelection{}, false
	}
	return p.toSelection(*row), true
}

// RemovePreferred deletes the preference for day. Reports whether one existed.
func (p *Preferences) RemovePreferred(ctx context.Context, day time.Time) bool {
	if !p.available("remove") {
		return false
	}
	deleted, err := db.DeletePreference(ctx, p.db, p.key(day))
	if err != nil {
		p.log.Warn("remove preferred failed", "day", media.FormatDay(day, p.loc), "error", err)
		return false
	}
	return deleted
}

// RemoveIfAsset deletes the preference for day only while it still names assetID.
// Used for self-healing so a preference set concurrently is not lost.
func (p *Preferences) RemoveIfAsset(ctx context.Context, day time.Time, assetID string) bool {
	if !p.available("remove_if_asset") {
		return false
	}
	deleted, err := db.DeletePreferenceIfAsset(ctx, p.db, p.key(day), assetID)
	if err != nil {
		p.log.Warn("remove stale preference failed", "day", media.FormatDay(day, p.loc), "error", err)
		return false
	}
	return deleted
}

// Cleanup deletes preferences for days before the age cutoff and returns the number removed.
func (p *Preferences) Cleanup(ctx context.Context, olderThan media.OlderThan) int {
	if !p.available("cleanup") {
		return 0
	}
	n, err := db.DeletePreferencesBefore(ctx, p.db, cutoffKey(olderThan, p.Now()))
	if err != nil {
		p.log.Warn("cleanup failed", "older_than", string(olderThan), "error", err)
		return 0
	}
	return n
}

// Count returns the number of stored preferences.
func (p *Preferences) Count(ctx context.Context) int {
	if !p.available("count") {
		return 0
	}
	n, err := db.CountPreferences(ctx, p.db)
	if err != nil {
		p.log.Warn("count failed", "error", err)
		return 0
	}
	return n
}

// All returns every preference, most recent day first.
func (p *Preferences) All(ctx context.Context) []media.PreferredSelection {
	if !p.available("list") {
		return nil
	}
	rows, err := db.ListPreferences(ctx, p.db)
	if err != nil {
		p.log.Warn("list failed", "error", err)
		return nil
	}
	out := make([]media.PreferredSelection, 0, len(rows))
	for _, r := range rows {
		out = append(out, p.toSelection(r))
	}
	return out
}

func (p *Preferences) toSelection(r db.PreferenceRow) media.PreferredSelection {
	return media.PreferredSelection{
		Day:        time.Unix(r.Day, 0).In(p.loc),
		AssetID:    r.AssetID,
		SelectedAt: time.Unix(r.SelectedAt, 0).In(p.loc),
	}
}

// cutoffKey converts an age to the exclusive upper bound on day keys, or nil for all rows.
func cutoffKey(olderThan media.OlderThan, now time.Time) *int64 {
	cutoff, ok := olderThan.Cutoff(now)
	if !ok {
		return nil
	}
	k := cutoff.Unix()
	return &k
}
