package resolve

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hpungsan/dayreel/internal/assets"
	"github.com/hpungsan/dayreel/internal/logging"
	"github.com/hpungsan/dayreel/internal/media"
)

// Resolution is the calendar view of one day.
type Resolution struct {
	Day                   time.Time `json:"-"`
	RepresentativeAssetID *string   `json:"representative_asset_id"`
	HasCrossDatePin       bool      `json:"has_cross_date_pin"`
	// MediaCount counts native media only; a pin does not add to it.
	MediaCount int `json:"media_count"`
}

// DayResolver resolves single days for calendar rendering. Unlike
// TimeframeSelector it removes stale pins and preferences it runs into.
type DayResolver struct {
	assets assets.Store
	pins   PinStore
	prefs  PreferenceStore
	opts   Options
	log    *logging.Logger
}

// NewDayResolver returns a resolver over the given stores.
func NewDayResolver(store assets.Store, pins PinStore, prefs PreferenceStore, opts Options) *DayResolver {
	opts = opts.withDefaults()
	return &DayResolver{
		assets: store,
		pins:   pins,
		prefs:  prefs,
		opts:   opts,
		log:    opts.Logger.With("component", "day_resolver"),
	}
}

// Resolve returns the representative media for day.
func (r *DayResolver) Resolve(ctx context.Context, day time.Time) Resolution {
	day = media.StartOfDay(day, r.opts.Location)
	res := Resolution{Day: day}
	label := media.FormatDay(day, r.opts.Location)

	if pin, ok := r.pins.GetPin(ctx, day); ok {
		exists, err := r.assets.ResolveExists(ctx, pin.AssetID)
		switch {
		case err != nil:
			r.log.Warn("pin lookup failed, ignoring pin", "day", label, "asset_id", pin.AssetID, "error", err)
		case exists:
			res.RepresentativeAssetID = &pin.AssetID
			res.HasCrossDatePin = true
			res.MediaCount = r.nativeCount(ctx, day)
			return res
		default:
			if r.pins.RemoveIfAsset(ctx, day, pin.AssetID) {
				r.log.Info("removed stale pin", "day", label, "asset_id", pin.AssetID)
			}
		}
	}

	candidates, err := r.assets.FetchNativeMedia(ctx, day)
	if err != nil {
		r.log.Warn("fetch native media failed", "day", label, "error", err)
		return res
	}
	res.MediaCount = len(candidates)

	if id, ok := r.prefs.GetPreferred(ctx, day); ok {
		if containsAsset(candidates, id) {
			res.RepresentativeAssetID = &id
			return res
		}
		if r.prefs.RemoveIfAsset(ctx, day, id) {
			r.log.Info("removed stale preference", "day", label, "asset_id", id)
		}
	}

	if id, ok := media.SelectDefault(candidates); ok {
		res.RepresentativeAssetID = &id
	}
	return res
}

func (r *DayResolver) nativeCount(ctx context.Context, day time.Time) int {
	n, err := r.assets.FetchNativeMediaCount(ctx, day)
	if err != nil {
		r.log.Warn("native count failed", "day", media.FormatDay(day, r.opts.Location), "error", err)
		return 0
	}
	return n
}

// MonthGrid returns the days of the visible grid for a month: whole weeks
// starting on the configured first weekday, covering the entire month.
func (r *DayResolver) MonthGrid(year int, month time.Month) []time.Time {
	loc := r.opts.Location
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	last := first.AddDate(0, 1, -1)

	lead := (int(first.Weekday()) - int(r.opts.FirstWeekday) + 7) % 7
	trail := (int(r.opts.FirstWeekday) + 6 - int(last.Weekday()) + 7) % 7

	return media.DateRange{
		Start: first.AddDate(0, 0, -lead),
		End:   last.AddDate(0, 0, trail),
	}.Days(loc)
}

// ResolveMonth resolves every day of the visible grid for a month.
// Days are resolved concurrently; the result is in grid order. If ctx is
// cancelled the days not yet resolved are left empty and ctx.Err() is returned.
func (r *DayResolver) ResolveMonth(ctx context.Context, year int, month time.Month) ([]media.CalendarDay, error) {
	days := r.MonthGrid(year, month)
	out := make([]media.CalendarDay, len(days))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Parallelism)
	for i, d := range days {
		out[i] = media.CalendarDay{
			Date:               d,
			DayOfMonth:         d.Day(),
			IsInDisplayedMonth: d.Month() == month,
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res := r.Resolve(gctx, d)
			out[i].MediaCount = res.MediaCount
			out[i].RepresentativeAssetID = res.RepresentativeAssetID
			out[i].HasCrossDatePin = res.HasCrossDatePin
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return out, err
	}
	return out, nil
}
