package resolve

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hpungsan/dayreel/internal/assets"
	"github.com/hpungsan/dayreel/internal/logging"
	"github.com/hpungsan/dayreel/internal/media"
)

// TimeframeSelector picks one DaySelection per day of a range for compilation.
// It only reads: stale pins and preferences are skipped, never removed.
type TimeframeSelector struct {
	assets assets.Store
	pins   PinReader
	prefs  PreferenceReader
	opts   Options
	log    *logging.Logger
}

// NewTimeframeSelector returns a selector over the given stores.
func NewTimeframeSelector(store assets.Store, pins PinReader, prefs PreferenceReader, opts Options) *TimeframeSelector {
	opts = opts.withDefaults()
	return &TimeframeSelector{
		assets: store,
		pins:   pins,
		prefs:  prefs,
		opts:   opts,
		log:    opts.Logger.With("component", "timeframe_selector"),
	}
}

// Select returns a selection for every day in r that has representable media,
// ordered by day. Days are resolved concurrently.
//
// On cancellation it returns the selections for the leading run of days that
// finished before the cancel, along with ctx.Err().
func (s *TimeframeSelector) Select(ctx context.Context, r media.DateRange) ([]media.DaySelection, error) {
	days := r.Days(s.opts.Location)
	results := make([]*media.DaySelection, len(days))
	done := make([]bool, len(days))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Parallelism)
	for i, d := range days {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sel, ok := s.selectDay(gctx, d)
			// a store call interrupted by the cancel can look like an empty day
			if err := gctx.Err(); err != nil {
				return err
			}
			if ok {
				results[i] = &sel
			}
			done[i] = true
			return nil
		})
	}
	_ = g.Wait()

	out := make([]media.DaySelection, 0, len(days))
	for i := range days {
		if !done[i] {
			return out, ctx.Err()
		}
		if results[i] != nil {
			out = append(out, *results[i])
		}
	}
	return out, nil
}

func (s *TimeframeSelector) selectDay(ctx context.Context, day time.Time) (media.DaySelection, bool) {
	label := media.FormatDay(day, s.opts.Location)

	if pin, ok := s.pins.GetPin(ctx, day); ok {
		desc, found, err := s.assets.Lookup(ctx, pin.AssetID)
		switch {
		case err != nil:
			s.log.Warn("pin lookup failed, using native media", "day", label, "asset_id", pin.AssetID, "error", err)
		case !found:
			s.log.Debug("pinned asset missing, using native media", "day", label, "asset_id", pin.AssetID)
		default:
			sel := media.DaySelection{Day: day}
			if pin.IsCrossDate() {
				sel.Media = desc.WithProvenance(media.PinnedFromOtherDay(pin.SourceDay))
				sel.Reason = media.PinnedCrossDate{SourceDay: pin.SourceDay}
			} else {
				sel.Media = desc
				sel.Reason = media.PinnedNormal{}
			}
			return sel, true
		}
	}

	candidates, err := s.assets.FetchNativeMedia(ctx, day)
	if err != nil {
		s.log.Warn("fetch native media failed, skipping day", "day", label, "error", err)
		return media.DaySelection{}, false
	}
	if len(candidates) == 0 {
		return media.DaySelection{}, false
	}

	if id, ok := s.prefs.GetPreferred(ctx, day); ok {
		if desc, found := media.Find(candidates, id); found {
			return media.DaySelection{Day: day, Media: desc, Reason: media.ManualOverride{}}, true
		}
	}

	id, _ := media.SelectDefault(candidates)
	desc, _ := media.Find(candidates, id)
	return media.DaySelection{
		Day:    day,
		Media:  desc,
		Reason: media.Automatic{Priority: media.Rank(candidates, id)},
	}, true
}

// Summary aggregates a timeframe selection.
type Summary struct {
	TotalDays                int     `json:"total_days"`
	SelectedDays             int     `json:"selected_days"`
	PinnedCount              int     `json:"pinned_count"`
	CheatingPinCount         int     `json:"cheating_pin_count"`
	ManualCount              int     `json:"manual_count"`
	VideoCount               int     `json:"video_count"`
	LivePhotoCount           int     `json:"live_photo_count"`
	EstimatedDurationSeconds float64 `json:"estimated_duration_seconds"`
}

// Summarize selects r and aggregates the result. On cancellation the summary
// covers the partial selection and ctx.Err() is returned.
func (s *TimeframeSelector) Summarize(ctx context.Context, r media.DateRange) (Summary, error) {
	sels, err := s.Select(ctx, r)
	sum := SummarizeSelections(sels, s.opts.DefaultClipSeconds)
	sum.TotalDays = r.Len(s.opts.Location)
	return sum, err
}

// SummarizeSelections aggregates already computed selections. TotalDays is
// left for the caller, who knows the range.
func SummarizeSelections(sels []media.DaySelection, clipSeconds float64) Summary {
	if clipSeconds <= 0 {
		clipSeconds = DefaultClipSeconds
	}
	var sum Summary
	for _, sel := range sels {
		sum.SelectedDays++
		switch sel.Reason.(type) {
		case media.PinnedNormal:
			sum.PinnedCount++
		case media.PinnedCrossDate:
			sum.PinnedCount++
			sum.CheatingPinCount++
		case media.ManualOverride:
			sum.ManualCount++
		case media.Automatic:
		}
		switch sel.Media.Kind {
		case media.KindVideo:
			sum.VideoCount++
		case media.KindLivePhoto:
			sum.LivePhotoCount++
		}
		if sel.Media.Duration != nil {
			sum.EstimatedDurationSeconds += *sel.Media.Duration
		} else {
			sum.EstimatedDurationSeconds += clipSeconds
		}
	}
	return sum
}
