package assets

import (
	"context"
	"database/sql"
	"time"

	"github.com/hpungsan/dayreel/internal/db"
	"github.com/hpungsan/dayreel/internal/errors"
	"github.com/hpungsan/dayreel/internal/media"
)

// Catalog is a Store backed by the local SQLite library index.
type Catalog struct {
	db  *sql.DB
	loc *time.Location
}

// NewCatalog returns a catalog over database. Day boundaries use loc.
func NewCatalog(database *sql.DB, loc *time.Location) *Catalog {
	if loc == nil {
		loc = time.Local
	}
	return &Catalog{db: database, loc: loc}
}

// FetchNativeMedia implements Store.
func (c *Catalog) FetchNativeMedia(ctx context.Context, day time.Time) ([]media.Descriptor, error) {
	if c == nil || c.db == nil {
		return nil, errors.NewStoreUnavailable()
	}
	start, end := dayBounds(day, c.loc)
	rows, err := db.ListAssetsBetween(ctx, c.db, start.UnixMilli(), end.UnixMilli())
	if err != nil {
		return nil, err
	}
	out := make([]media.Descriptor, 0, len(rows))
	for _, r := range rows {
		out = append(out, c.toDescriptor(r))
	}
	return out, nil
}

// FetchNativeMediaCount implements Store.
func (c *Catalog) FetchNativeMediaCount(ctx context.Context, day time.Time) (int, error) {
	if c == nil || c.db == nil {
		return 0, errors.NewStoreUnavailable()
	}
	start, end := dayBounds(day, c.loc)
	return db.CountAssetsBetween(ctx, c.db, start.UnixMilli(), end.UnixMilli())
}

// ResolveExists implements Store.
func (c *Catalog) ResolveExists(ctx context.Context, assetID string) (bool, error) {
	if c == nil || c.db == nil {
		return false, errors.NewStoreUnavailable()
	}
	return db.AssetExists(ctx, c.db, assetID)
}

// Lookup implements Store.
func (c *Catalog) Lookup(ctx context.Context, assetID string) (media.Descriptor, bool, error) {
	if c == nil || c.db == nil {
		return media.Descriptor{}, false, errors.NewStoreUnavailable()
	}
	row, err := db.GetAsset(ctx, c.db, assetID)
	if errors.Is(err, errors.ErrNotFound) {
		return media.Descriptor{}, false, nil
	}
	if err != nil {
		return media.Descriptor{}, false, err
	}
	return c.toDescriptor(*row), true, nil
}

// Add inserts or replaces an asset in the catalog.
func (c *Catalog) Add(ctx context.Context, d media.Descriptor) error {
	if c == nil || c.db == nil {
		return errors.NewStoreUnavailable()
	}
	return db.UpsertAsset(ctx, c.db, toRow(d, time.Now()))
}

// Remove deletes an asset, as when it disappears from the device library.
func (c *Catalog) Remove(ctx context.Context, assetID string) (bool, error) {
	if c == nil || c.db == nil {
		return false, errors.NewStoreUnavailable()
	}
	return db.DeleteAsset(ctx, c.db, assetID)
}

// Count returns the catalog size.
func (c *Catalog) Count(ctx context.Context) (int, error) {
	if c == nil || c.db == nil {
		return 0, errors.NewStoreUnavailable()
	}
	return db.CountAssets(ctx, c.db)
}

func (c *Catalog) toDescriptor(r db.AssetRow) media.Descriptor {
	return media.Descriptor{
		AssetID:  r.ID,
		Date:     time.UnixMilli(r.CreatedAt).In(c.loc),
		Kind:     media.Kind(r.Kind),
		Duration: r.Duration,
	}
}

func toRow(d media.Descriptor, importedAt time.Time) db.AssetRow {
	return db.AssetRow{
		ID:         d.AssetID,
		CreatedAt:  d.Date.UnixMilli(),
		Kind:       string(d.Kind),
		Duration:   d.Duration,
		ImportedAt: importedAt.Unix(),
	}
}
