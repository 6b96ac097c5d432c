package ops

import (
	"context"
	"time"

	"github.com/hpungsan/dayreel/internal/errors"
)

// ResolveDayInput contains parameters for the ResolveDay operation.
type ResolveDayInput struct {
	Date string // required, YYYY-MM-DD
}

// ResolveDayOutput is the calendar view of one day.
type ResolveDayOutput struct {
	Date                  string  `json:"date"`
	RepresentativeAssetID *string `json:"representative_asset_id"`
	HasCrossDatePin       bool    `json:"has_cross_date_pin"`
	MediaCount            int     `json:"media_count"`
}

// ResolveDay returns the representative media for a day.
func ResolveDay(ctx context.Context, d *Deps, input ResolveDayInput) (*ResolveDayOutput, error) {
	day, err := d.parseDay("date", input.Date)
	if err != nil {
		return nil, err
	}
	res := d.Resolver.Resolve(ctx, day)
	return &ResolveDayOutput{
		Date:                  d.formatDay(res.Day),
		RepresentativeAssetID: res.RepresentativeAssetID,
		HasCrossDatePin:       res.HasCrossDatePin,
		MediaCount:            res.MediaCount,
	}, nil
}

// ResolveMonthInput contains parameters for the ResolveMonth operation.
type ResolveMonthInput struct {
	Year  int // required
	Month int // required, 1-12
}

// MonthDay is one cell of a month grid.
type MonthDay struct {
	Date                  string  `json:"date"`
	DayOfMonth            int     `json:"day_of_month"`
	IsInDisplayedMonth    bool    `json:"is_in_displayed_month"`
	MediaCount            int     `json:"media_count"`
	RepresentativeAssetID *string `json:"representative_asset_id"`
	HasCrossDatePin       bool    `json:"has_cross_date_pin"`
}

// ResolveMonthOutput contains the visible grid for a month.
type ResolveMonthOutput struct {
	Year         int        `json:"year"`
	Month        int        `json:"month"`
	FirstWeekday string     `json:"first_weekday"`
	Days         []MonthDay `json:"days"`
}

// ResolveMonth resolves every day of a month's visible grid.
func ResolveMonth(ctx context.Context, d *Deps, input ResolveMonthInput) (*ResolveMonthOutput, error) {
	if input.Month < 1 || input.Month > 12 {
		return nil, errors.NewInvalidRequest("month must be between 1 and 12")
	}
	if input.Year < 1 || input.Year > 9999 {
		return nil, errors.NewInvalidRequest("year must be between 1 and 9999")
	}

	cells, err := d.Resolver.ResolveMonth(ctx, input.Year, time.Month(input.Month))
	if err != nil {
		return nil, cancelled(err, "month", 0)
	}

	out := &ResolveMonthOutput{
		Year:         input.Year,
		Month:        input.Month,
		FirstWeekday: d.FirstWeekday.String(),
		Days:         make([]MonthDay, 0, len(cells)),
	}
	for _, c := range cells {
		out.Days = append(out.Days, MonthDay{
			Date:                  d.formatDay(c.Date),
			DayOfMonth:            c.DayOfMonth,
			IsInDisplayedMonth:    c.IsInDisplayedMonth,
			MediaCount:            c.MediaCount,
			RepresentativeAssetID: c.RepresentativeAssetID,
			HasCrossDatePin:       c.HasCrossDatePin,
		})
	}
	return out, nil
}
