package ops

import (
	"context"
	"time"

	"github.com/hpungsan/dayreel/internal/media"
	"github.com/hpungsan/dayreel/internal/resolve"
)

// TimeframeInput is an inclusive YYYY-MM-DD range.
type TimeframeInput struct {
	Start string // required
	End   string // required
}

// SelectTimeframeOutput contains the ordered per-day selections.
type SelectTimeframeOutput struct {
	Start      string               `json:"start"`
	End        string               `json:"end"`
	Count      int                  `json:"count"`
	Selections []media.DaySelection `json:"selections"`
}

// SelectTimeframe picks one media item per day of the range. Days without
// representable media are omitted. Stores are not modified.
func SelectTimeframe(ctx context.Context, d *Deps, input TimeframeInput) (*SelectTimeframeOutput, error) {
	r, err := d.parseRange(input.Start, input.End)
	if err != nil {
		return nil, err
	}
	sels, err := d.Selector.Select(ctx, r)
	if err != nil {
		return nil, cancelled(err, "select", len(sels))
	}
	return &SelectTimeframeOutput{
		Start:      d.formatDay(r.Start),
		End:        d.formatDay(r.End),
		Count:      len(sels),
		Selections: sels,
	}, nil
}

// SummarizeOutput aggregates a timeframe selection.
type SummarizeOutput struct {
	Start string `json:"start"`
	End   string `json:"end"`
	resolve.Summary
	EstimatedDuration string `json:"estimated_duration"`
}

// Summarize reports what a compilation of the range would contain.
func Summarize(ctx context.Context, d *Deps, input TimeframeInput) (*SummarizeOutput, error) {
	r, err := d.parseRange(input.Start, input.End)
	if err != nil {
		return nil, err
	}
	sum, err := d.Selector.Summarize(ctx, r)
	if err != nil {
		return nil, cancelled(err, "summary", sum.SelectedDays)
	}
	return &SummarizeOutput{
		Start:             d.formatDay(r.Start),
		End:               d.formatDay(r.End),
		Summary:           sum,
		EstimatedDuration: formatSeconds(sum.EstimatedDurationSeconds),
	}, nil
}

// formatSeconds renders a clip length like "1m30.5s".
func formatSeconds(s float64) string {
	return (time.Duration(s*float64(time.Second)) / time.Millisecond * time.Millisecond).String()
}
