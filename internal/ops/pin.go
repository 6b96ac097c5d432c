package ops

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hpungsan/dayreel/internal/errors"
	"github.com/hpungsan/dayreel/internal/media"
	"github.com/hpungsan/dayreel/internal/store"
)

// PinView is the wire form of a pin.
type PinView struct {
	TargetDate string `json:"target_date"`
	AssetID    string `json:"asset_id"`
	SourceDate string `json:"source_date"`
	PinnedAt   int64  `json:"pinned_at"`
	CrossDate  bool   `json:"cross_date"`
}

func (d *Deps) pinView(p media.Pin) PinView {
	return PinView{
		TargetDate: d.formatDay(p.TargetDay),
		AssetID:    p.AssetID,
		SourceDate: d.formatDay(p.SourceDay),
		PinnedAt:   p.PinnedAt.Unix(),
		CrossDate:  p.IsCrossDate(),
	}
}

// PinInput contains parameters for the Pin operation.
type PinInput struct {
	AssetID    string // required
	SourceDate string // optional, default: the asset's creation day
	TargetDate string // required
}

// PinOutput contains the result of the Pin operation.
// Rejected pins are reported through Outcome, not as errors.
type PinOutput struct {
	Outcome store.PinOutcome `json:"outcome"`
	Stored  bool             `json:"stored"`
	Pin     *PinView         `json:"pin,omitempty"`
}

// Pin shows an asset on a day it was not taken on.
func Pin(ctx context.Context, d *Deps, input PinInput) (*PinOutput, error) {
	if err := d.requireDB(); err != nil {
		return nil, err
	}
	target, err := d.parseDay("target_date", input.TargetDate)
	if err != nil {
		return nil, err
	}
	assetID := strings.TrimSpace(input.AssetID)
	if assetID == "" {
		return nil, errors.NewInvalidRequest("asset_id is required")
	}

	desc, known, err := d.Assets.Lookup(ctx, assetID)
	if err != nil {
		return nil, err
	}

	var source time.Time
	if strings.TrimSpace(input.SourceDate) != "" {
		if source, err = d.parseDay("source_date", input.SourceDate); err != nil {
			return nil, err
		}
		// an asset belongs to the day it was taken on
		if known && !media.SameDay(source, desc.Date, d.Location) {
			return nil, errors.NewInvalidRequest(fmt.Sprintf(
				"source_date %s does not match the creation day of %s (%s)",
				d.formatDay(source), assetID, d.formatDay(desc.Date)))
		}
	} else {
		if !known {
			return nil, errors.NewNotFound("asset", assetID)
		}
		source = desc.Date
	}

	outcome := d.Pins.Pin(ctx, assetID, source, target)
	out := &PinOutput{Outcome: outcome, Stored: outcome.Stored()}
	if outcome.Stored() {
		if p, ok := d.Pins.GetPin(ctx, target); ok {
			v := d.pinView(p)
			out.Pin = &v
		}
	}
	return out, nil
}

// UnpinInput contains parameters for the Unpin operation.
type UnpinInput struct {
	TargetDate string // required
}

// UnpinOutput contains the result of the Unpin operation.
type UnpinOutput struct {
	TargetDate string `json:"target_date"`
	Removed    bool   `json:"removed"`
}

// Unpin removes the pin on a day.
func Unpin(ctx context.Context, d *Deps, input UnpinInput) (*UnpinOutput, error) {
	target, err := d.parseDay("target_date", input.TargetDate)
	if err != nil {
		return nil, err
	}
	return &UnpinOutput{
		TargetDate: d.formatDay(target),
		Removed:    d.Pins.RemovePin(ctx, target),
	}, nil
}

// GetPinInput contains parameters for the GetPin operation.
type GetPinInput struct {
	TargetDate string // required
}

// GetPin returns the pin on a day.
// Returns ErrNotFound if the day is not pinned.
func GetPin(ctx context.Context, d *Deps, input GetPinInput) (*PinView, error) {
	target, err := d.parseDay("target_date", input.TargetDate)
	if err != nil {
		return nil, err
	}
	p, ok := d.Pins.GetPin(ctx, target)
	if !ok {
		return nil, errors.NewNotFound("pin", d.formatDay(target))
	}
	v := d.pinView(p)
	return &v, nil
}

// ListPinsInput contains parameters for the ListPins operation.
type ListPinsInput struct {
	Limit  int // default: 20, max: 100
	Offset int
}

// ListPinsOutput contains a page of pins, most recent target day first.
type ListPinsOutput struct {
	Items      []PinView  `json:"items"`
	Pagination Pagination `json:"pagination"`
}

// ListPins returns pins most recent target day first.
func ListPins(ctx context.Context, d *Deps, input ListPinsInput) (*ListPinsOutput, error) {
	if input.Offset < 0 {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("offset must not be negative, got %d", input.Offset))
	}
	limit := input.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	total := d.Pins.Count(ctx)
	pins := d.Pins.List(ctx, limit, input.Offset)

	items := make([]PinView, 0, len(pins))
	for _, p := range pins {
		items = append(items, d.pinView(p))
	}
	return &ListPinsOutput{
		Items: items,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  input.Offset,
			HasMore: input.Offset+len(items) < total,
			Total:   total,
		},
	}, nil
}
