package media

import (
	"encoding/json"
	"fmt"
	"time"
)

// Reason explains why a DaySelection picked its media.
// The set of implementations is closed: PinnedNormal, PinnedCrossDate,
// Automatic and ManualOverride.
type Reason interface {
	isReason()
	// Name is the stable wire name of the reason.
	Name() string
}

// PinnedNormal is a pin whose source day equals the day it is shown on.
type PinnedNormal struct{}

// PinnedCrossDate is a pin borrowing media from SourceDay.
type PinnedCrossDate struct {
	SourceDay time.Time
}

// Automatic is a Default Selector choice. Priority is the 1-based rank of the
// chosen asset in Order(candidates).
type Automatic struct {
	Priority int
}

// ManualOverride is a user-set preferred asset among the day's native media.
type ManualOverride struct{}

func (PinnedNormal) isReason()    {}
func (PinnedCrossDate) isReason() {}
func (Automatic) isReason()       {}
func (ManualOverride) isReason()  {}

func (PinnedNormal) Name() string    { return "pinned" }
func (PinnedCrossDate) Name() string { return "pinned_cross_date" }
func (Automatic) Name() string       { return "automatic" }
func (ManualOverride) Name() string  { return "manual_override" }

// DaySelection is the media chosen to represent a single day.
type DaySelection struct {
	Day    time.Time
	Media  Descriptor
	Reason Reason
}

// IsPinned reports whether the selection came from a pin.
func (s DaySelection) IsPinned() bool {
	switch s.Reason.(type) {
	case PinnedNormal, PinnedCrossDate:
		return true
	default:
		return false
	}
}

// IsCheating reports whether the selection shows media from a different day.
func (s DaySelection) IsCheating() bool {
	_, ok := s.Reason.(PinnedCrossDate)
	return ok
}

// selectionJSON is the wire form of a DaySelection.
type selectionJSON struct {
	Day       string   `json:"day"`
	AssetID   string   `json:"asset_id"`
	Kind      Kind     `json:"kind"`
	Duration  *float64 `json:"duration,omitempty"`
	CreatedAt int64    `json:"created_at"`
	Reason    string   `json:"reason"`
	SourceDay string   `json:"source_day,omitempty"`
	Priority  int      `json:"priority,omitempty"`
	Cheating  bool     `json:"cheating"`
}

// MarshalJSON flattens the reason into a tagged object.
func (s DaySelection) MarshalJSON() ([]byte, error) {
	loc := s.Day.Location()
	out := selectionJSON{
		Day:       FormatDay(s.Day, loc),
		AssetID:   s.Media.AssetID,
		Kind:      s.Media.Kind,
		Duration:  s.Media.Duration,
		CreatedAt: s.Media.Date.UnixMilli(),
		Cheating:  s.IsCheating(),
	}
	switch r := s.Reason.(type) {
	case PinnedNormal:
		out.Reason = r.Name()
	case PinnedCrossDate:
		out.Reason = r.Name()
		out.SourceDay = FormatDay(r.SourceDay, loc)
	case Automatic:
		out.Reason = r.Name()
		out.Priority = r.Priority
	case ManualOverride:
		out.Reason = r.Name()
	default:
		return nil, fmt.Errorf("media: unknown reason %T", s.Reason)
	}
	return json.Marshal(out)
}
