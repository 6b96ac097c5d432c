package ops

import (
	"context"

	"github.com/dustin/go-humanize"

	"github.com/hpungsan/dayreel/internal/db"
	"github.com/hpungsan/dayreel/internal/errors"
)

// StatusOutput reports store sizes and settings.
type StatusOutput struct {
	SchemaVersion int    `json:"schema_version"`
	Timezone      string `json:"timezone"`
	FirstWeekday  string `json:"first_weekday"`
	Preferences   int    `json:"preferences"`
	Pins          int    `json:"pins"`
	Assets        int    `json:"assets"`
	Summary       string `json:"summary"`
}

// Status returns counts for every store.
func Status(ctx context.Context, d *Deps) (*StatusOutput, error) {
	if err := d.requireDB(); err != nil {
		return nil, err
	}
	version, err := db.GetUserVersion(d.DB)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	out := &StatusOutput{
		SchemaVersion: version,
		Timezone:      d.Location.String(),
		FirstWeekday:  d.FirstWeekday.String(),
		Preferences:   d.Preferences.Count(ctx),
		Pins:          d.Pins.Count(ctx),
	}
	if d.Catalog != nil {
		if out.Assets, err = d.Catalog.Count(ctx); err != nil {
			return nil, err
		}
	}
	out.Summary = humanize.Comma(int64(out.Assets)) + " assets, " +
		humanize.Comma(int64(out.Pins)) + " pins, " +
		humanize.Comma(int64(out.Preferences)) + " preferences"
	return out, nil
}
