package ops

import (
	"context"
	"fmt"
	"strings"

	"github.com/hpungsan/dayreel/internal/errors"
	"github.com/hpungsan/dayreel/internal/media"
)

// SetPreferredInput contains parameters for the SetPreferred operation.
type SetPreferredInput struct {
	Date    string // required
	AssetID string // required, must be one of the day's native media
}

// SetPreferredOutput contains the result of the SetPreferred operation.
type SetPreferredOutput struct {
	Date    string `json:"date"`
	AssetID string `json:"asset_id"`
	Stored  bool   `json:"stored"`
}

// SetPreferred makes assetID the representative of its day.
// The asset must be part of the day's native media; pins cover other days.
func SetPreferred(ctx context.Context, d *Deps, input SetPreferredInput) (*SetPreferredOutput, error) {
	if err := d.requireDB(); err != nil {
		return nil, err
	}
	day, err := d.parseDay("date", input.Date)
	if err != nil {
		return nil, err
	}
	assetID := strings.TrimSpace(input.AssetID)
	if assetID == "" {
		return nil, errors.NewInvalidRequest("asset_id is required")
	}

	candidates, err := d.Assets.FetchNativeMedia(ctx, day)
	if err != nil {
		return nil, err
	}
	if _, ok := media.Find(candidates, assetID); !ok {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("asset %q is not native media of %s", assetID, d.formatDay(day)))
	}

	return &SetPreferredOutput{
		Date:    d.formatDay(day),
		AssetID: assetID,
		Stored:  d.Preferences.SetPreferred(ctx, day, assetID),
	}, nil
}

// ClearPreferredInput contains parameters for the ClearPreferred operation.
type ClearPreferredInput struct {
	Date string // required
}

// ClearPreferredOutput contains the result of the ClearPreferred operation.
type ClearPreferredOutput struct {
	Date    string `json:"date"`
	Removed bool   `json:"removed"`
}

// ClearPreferred removes a day's preference. Clearing a day without one is not an error.
func ClearPreferred(ctx context.Context, d *Deps, input ClearPreferredInput) (*ClearPreferredOutput, error) {
	day, err := d.parseDay("date", input.Date)
	if err != nil {
		return nil, err
	}
	return &ClearPreferredOutput{
		Date:    d.formatDay(day),
		Removed: d.Preferences.RemovePreferred(ctx, day),
	}, nil
}

// GetPreferredInput contains parameters for the GetPreferred operation.
type GetPreferredInput struct {
	Date string // required
}

// GetPreferredOutput contains the stored preference, if any.
type GetPreferredOutput struct {
	Date       string  `json:"date"`
	AssetID    *string `json:"asset_id"`
	SelectedAt *int64  `json:"selected_at,omitempty"`
}

// GetPreferred returns the stored preference for a day without validating it.
func GetPreferred(ctx context.Context, d *Deps, input GetPreferredInput) (*GetPreferredOutput, error) {
	day, err := d.parseDay("date", input.Date)
	if err != nil {
		return nil, err
	}
	out := &GetPreferredOutput{Date: d.formatDay(day)}
	if sel, ok := d.Preferences.Get(ctx, day); ok {
		out.AssetID = &sel.AssetID
		at := sel.SelectedAt.Unix()
		out.SelectedAt = &at
	}
	return out, nil
}
