package ops

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/hpungsan/dayreel/internal/assets"
	"github.com/hpungsan/dayreel/internal/config"
	"github.com/hpungsan/dayreel/internal/errors"
	"github.com/hpungsan/dayreel/internal/logging"
	"github.com/hpungsan/dayreel/internal/media"
	"github.com/hpungsan/dayreel/internal/resolve"
	"github.com/hpungsan/dayreel/internal/store"
)

// Pagination limits
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// Deps bundles the stores and resolvers every operation runs against.
type Deps struct {
	DB          *sql.DB
	Config      *config.Config
	Location    *time.Location
	Catalog     *assets.Catalog
	Assets      assets.Store
	Pins        *store.Pins
	Preferences *store.Preferences
	Resolver    *resolve.DayResolver
	Selector    *resolve.TimeframeSelector

	// FirstWeekday is the first column of month grids.
	FirstWeekday time.Weekday

	// ExportsDir is the default destination for plans and the first allowed import/export dir.
	ExportsDir string

	Log *logging.Logger
}

// NewDeps wires the stores over database. baseDir is the directory holding
// dayreel.db; plans default to baseDir/exports.
func NewDeps(database *sql.DB, cfg *config.Config, baseDir string, log *logging.Logger) (*Deps, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, errors.NewInvalidRequest(err.Error())
	}
	catalog := assets.NewCatalog(database, loc)
	return NewDepsWithAssets(database, cfg, loc, catalog, catalog, filepath.Join(baseDir, "exports"), log)
}

// NewDepsWithAssets wires the stores over an arbitrary asset store. catalog may
// be nil when the library is not backed by the local index.
func NewDepsWithAssets(database *sql.DB, cfg *config.Config, loc *time.Location, library assets.Store, catalog *assets.Catalog, exportsDir string, log *logging.Logger) (*Deps, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	weekday, err := cfg.Weekday()
	if err != nil {
		return nil, errors.NewInvalidRequest(err.Error())
	}
	log = logging.OrNop(log)
	pins := store.NewPins(database, library, loc, log)
	prefs := store.NewPreferences(database, loc, log)
	opts := resolve.Options{
		Location:           loc,
		FirstWeekday:       weekday,
		Parallelism:        cfg.SelectParallelism,
		DefaultClipSeconds: cfg.DefaultClipSeconds,
		Logger:             log,
	}
	return &Deps{
		DB:           database,
		Config:       cfg,
		Location:     loc,
		Catalog:      catalog,
		Assets:       library,
		Pins:         pins,
		Preferences:  prefs,
		Resolver:     resolve.NewDayResolver(library, pins, prefs, opts),
		Selector:     resolve.NewTimeframeSelector(library, pins, prefs, opts),
		FirstWeekday: weekday,
		ExportsDir:   exportsDir,
		Log:          log,
	}, nil
}

// parseDay parses a required YYYY-MM-DD field in the configured location.
func (d *Deps) parseDay(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errors.NewInvalidRequest(fmt.Sprintf("%s is required", field))
	}
	t, err := media.ParseDay(value, d.Location)
	if err != nil {
		return time.Time{}, errors.NewInvalidDate(field, value)
	}
	return t, nil
}

// parseRange parses and bounds an inclusive date range.
func (d *Deps) parseRange(start, end string) (media.DateRange, error) {
	s, err := d.parseDay("start", start)
	if err != nil {
		return media.DateRange{}, err
	}
	e, err := d.parseDay("end", end)
	if err != nil {
		return media.DateRange{}, err
	}
	if e.Before(s) {
		return media.DateRange{}, errors.NewInvalidRange("end must not be before start")
	}
	r := media.DateRange{Start: s, End: e}
	if max := d.Config.MaxRangeDays; max > 0 && r.Len(d.Location) > max {
		return media.DateRange{}, errors.NewInvalidRange(fmt.Sprintf("range exceeds %d days", max))
	}
	return r, nil
}

func (d *Deps) formatDay(t time.Time) string {
	return media.FormatDay(t, d.Location)
}

// requireDB fails fast for operations that only make sense with persistence.
func (d *Deps) requireDB() error {
	if d == nil || d.DB == nil {
		return errors.NewStoreUnavailable()
	}
	return nil
}

// cancelled converts a context error into a CANCELLED error.
func cancelled(err error, operation string, completed int) error {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return errors.NewCancelled(operation, completed)
	}
	return err
}
