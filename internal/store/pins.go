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

// AssetResolver checks whether an asset is still in the library.
type AssetResolver interface {
	ResolveExists(ctx context.Context, assetID string) (bool, error)
}

// PinOutcome is the result of a Pin call.
type PinOutcome string

const (
	PinCreated              PinOutcome = "created"
	PinReplaced             PinOutcome = "replaced"
	PinRejectedSameDay      PinOutcome = "rejected_same_day"
	PinRejectedUnresolvable PinOutcome = "rejected_unresolvable"
	PinRejectedEmptyAsset   PinOutcome = "rejected_empty_asset"
	PinUnavailable          PinOutcome = "unavailable"
)

// Stored reports whether the outcome wrote a row.
func (o PinOutcome) Stored() bool {
	return o == PinCreated || o == PinReplaced
}

// Pins stores at most one cross-date pin per target day.
type Pins struct {
	db     *sql.DB
	assets AssetResolver
	loc    *time.Location
	log    *logging.Logger

	// Now is the clock used for pinned_at and age cleanup.
	Now func() time.Time
}

// NewPins returns a pin store over database, validating pinned assets against assets.
func NewPins(database *sql.DB, assets AssetResolver, loc *time.Location, log *logging.Logger) *Pins {
	if loc == nil {
		loc = time.Local
	}
	return &Pins{
		db:     database,
		assets: assets,
		loc:    loc,
		log:    logging.OrNop(log).With("store", "pins"),
		Now:    time.Now,
	}
}

func (p *Pins) key(day time.Time) int64 {
	return media.StartOfDay(day, p.loc).Unix()
}

func (p *Pins) available(op string) bool {
	if p.db == nil {
		p.log.Warn("persistence unavailable", "op", op)
		return false
	}
	return true
}

// Pin shows assetID, which natively belongs to sourceDay, on targetDay.
// An existing pin on targetDay is superseded. Rejected requests change nothing.
func (p *Pins) Pin(ctx context.Context, assetID string, sourceDay, targetDay time.Time) PinOutcome {
	source := media.StartOfDay(sourceDay, p.loc)
	target := media.StartOfDay(targetDay, p.loc)
	log := p.log.With("asset_id", assetID, "source_day", media.FormatDay(source, p.loc), "target_day", media.FormatDay(target, p.loc))

	if assetID == "" {
		log.Warn("rejected pin with empty asset id")
		return PinRejectedEmptyAsset
	}
	if source.Equal(target) {
		log.Warn("rejected same-day pin")
		return PinRejectedSameDay
	}
	if !p.available("pin") {
		return PinUnavailable
	}
	if p.assets == nil {
		log.Warn("rejected pin, no asset store to resolve against")
		return PinRejectedUnresolvable
	}
	exists, err := p.assets.ResolveExists(ctx, assetID)
	if err != nil {
		log.Warn("rejected pin, asset lookup failed", "error", err)
		return PinRejectedUnresolvable
	}
	if !exists {
		log.Warn("rejected pin of unresolvable asset")
		return PinRejectedUnresolvable
	}

	replaced, err := db.UpsertPin(ctx, p.db, db.PinRow{
		TargetDay: target.Unix(),
		AssetID:   assetID,
		SourceDay: source.Unix(),
		PinnedAt:  p.Now().Unix(),
	})
	if err != nil {
		log.Warn("pin write failed", "error", err)
		return PinUnavailable
	}
	if replaced {
		log.Info("pin replaced")
		return PinReplaced
	}
	return PinCreated
}

// GetPin returns the pin targeting day.
func (p *Pins) GetPin(ctx context.Context, targetDay time.Time) (media.Pin, bool) {
	if !p.available("get") {
		return media.Pin{}, false
	}
	row, err := db.GetPin(ctx, p.db, p.key(targetDay))
	if errors.Is(err, errors.ErrNotFound) {
		return media.Pin{}, false
	}
	if err != nil {
		p.log.Warn("get pin failed", "target_day", media.FormatDay(targetDay, p.loc), "error", err)
		return media.Pin{}, false
	}
	return p.toPin(*row), true
}

// RemovePin deletes the pin targeting day. Reports whether one existed.
func (p *Pins) RemovePin(ctx context.Context, targetDay time.Time) bool {
	if !p.available("remove") {
		return false
	}
	deleted, err := db.DeletePin(ctx, p.db, p.key(targetDay))
	if err != nil {
		p.log.Warn("remove pin failed", "target_day", media.FormatDay(targetDay, p.loc), "error", err)
		return false
	}
	return deleted
}

// RemoveIfAsset deletes the pin on targetDay only while it still names assetID.
func (p *Pins) RemoveIfAsset(ctx context.Context, targetDay time.Time, assetID string) bool {
	if !p.available("remove_if_asset") {
		return false
	}
	deleted, err := db.DeletePinIfAsset(ctx, p.db, p.key(targetDay), assetID)
	if err != nil {
		p.log.Warn("remove stale pin failed", "target_day", media.FormatDay(targetDay, p.loc), "error", err)
		return false
	}
	return deleted
}

// IsPinned reports whether targetDay is pinned to exactly assetID.
func (p *Pins) IsPinned(ctx context.Context, assetID string, targetDay time.Time) bool {
	pin, ok := p.GetPin(ctx, targetDay)
	return ok && pin.AssetID == assetID
}

// AllPins returns every pin, most recent target day first.
func (p *Pins) AllPins(ctx context.Context) []media.Pin {
	return p.List(ctx, 0, 0)
}

// List returns a page of pins, most recent target day first. limit <= 0 returns all.
func (p *Pins) List(ctx context.Context, limit, offset int) []media.Pin {
	if !p.available("list") {
		return nil
	}
	rows, err := db.ListPins(ctx, p.db, limit, offset)
	if err != nil {
		p.log.Warn("list pins failed", "error", err)
		return nil
	}
	out := make([]media.Pin, 0, len(rows))
	for _, r := range rows {
		out = append(out, p.toPin(r))
	}
	return out
}

// Cleanup deletes pins targeting days before the age cutoff and returns the number removed.
func (p *Pins) Cleanup(ctx context.Context, olderThan media.OlderThan) int {
	if !p.available("cleanup") {
		return 0
	}
	n, err := db.DeletePinsBefore(ctx, p.db, cutoffKey(olderThan, p.Now()))
	if err != nil {
		p.log.Warn("cleanup failed", "older_than", string(olderThan), "error", err)
		return 0
	}
	return n
}

// CleanupOrphaned deletes pins whose asset no longer resolves and returns the
// number removed. Each row is deleted only if it still names the asset that was
// checked, so a pin replaced mid-pass survives. Lookup errors skip the row.
func (p *Pins) CleanupOrphaned(ctx context.Context) int {
	if !p.available("cleanup_orphaned") || p.assets == nil {
		return 0
	}
	removed := 0
	for _, pin := range p.AllPins(ctx) {
		if ctx.Err() != nil {
			break
		}
		exists, err := p.assets.ResolveExists(ctx, pin.AssetID)
		if err != nil {
			p.log.Warn("orphan check failed, keeping pin", "asset_id", pin.AssetID, "error", err)
			continue
		}
		if exists {
			continue
		}
		if p.RemoveIfAsset(ctx, pin.TargetDay, pin.AssetID) {
			removed++
		}
	}
	if removed > 0 {
		p.log.Info("removed orphaned pins", "count", removed)
	}
	return removed
}

// Count returns the number of stored pins.
func (p *Pins) Count(ctx context.Context) int {
	if !p.available("count") {
		return 0
	}
	n, err := db.CountPins(ctx, p.db)
	if err != nil {
		p.log.Warn("count failed", "error", err)
		return 0
	}
	return n
}

func (p *Pins) toPin(r db.PinRow) media.Pin {
	return media.Pin{
		TargetDay: time.Unix(r.TargetDay, 0).In(p.loc),
		AssetID:   r.AssetID,
		SourceDay: time.Unix(r.SourceDay, 0).In(p.loc),
		PinnedAt:  time.Unix(r.PinnedAt, 0).In(p.loc),
	}
}
