package media

import "time"

// Kind is the media type of an asset.
type Kind string

const (
	KindVideo     Kind = "video"
	KindLivePhoto Kind = "live_photo"
)

// priority returns the Default Selector rank of a kind (lower wins).
// Unknown kinds are accepted and rank after videos and live photos.
func (k Kind) priority() int {
	switch k {
	case KindVideo:
		return 0
	case KindLivePhoto:
		return 1
	default:
		return 2
	}
}

// Provenance records whether a descriptor is native to its day or borrowed by a pin.
// The zero value is native.
type Provenance struct {
	// SourceDay is set only for media pinned from another day.
	SourceDay *time.Time
}

// Native returns the provenance of media that belongs to the day it is shown on.
func Native() Provenance {
	return Provenance{}
}

// PinnedFromOtherDay returns the provenance of media borrowed from sourceDay.
func PinnedFromOtherDay(sourceDay time.Time) Provenance {
	return Provenance{SourceDay: &sourceDay}
}

// IsPinned reports whether the media was borrowed from another day.
func (p Provenance) IsPinned() bool {
	return p.SourceDay != nil
}

// Equal compares two provenances by source day.
func (p Provenance) Equal(other Provenance) bool {
	if p.SourceDay == nil || other.SourceDay == nil {
		return p.SourceDay == nil && other.SourceDay == nil
	}
	return p.SourceDay.Equal(*other.SourceDay)
}

// Descriptor describes one asset as it appears on a calendar day.
type Descriptor struct {
	// AssetID is the opaque identifier from the asset store
	AssetID string

	// Date is the asset's creation timestamp
	Date time.Time

	// Kind is video, live photo, or an unrecognized kind
	Kind Kind

	// Duration in seconds; nil when the store has no measurement (live photos)
	Duration *float64

	// Provenance distinguishes native media from pinned media
	Provenance Provenance
}

// Equal reports whether two descriptors are the same logical item.
// The same asset viewed natively and as a pin are different items.
func (d Descriptor) Equal(other Descriptor) bool {
	return d.AssetID == other.AssetID && d.Provenance.Equal(other.Provenance)
}

// WithProvenance returns a copy of d with the given provenance.
func (d Descriptor) WithProvenance(p Provenance) Descriptor {
	d.Provenance = p
	return d
}

// Pin borrows an asset from SourceDay onto TargetDay.
type Pin struct {
	TargetDay time.Time
	AssetID   string
	SourceDay time.Time
	PinnedAt  time.Time
}

// IsCrossDate reports whether the pin shows media from a day other than its target.
// Calendar badges and compilation summaries both read this.
func (p Pin) IsCrossDate() bool {
	return !p.SourceDay.Equal(p.TargetDay)
}

// PreferredSelection is the user's chosen representative among a day's native media.
type PreferredSelection struct {
	Day        time.Time
	AssetID    string
	SelectedAt time.Time
}

// CalendarDay is one cell of a rendered month grid.
type CalendarDay struct {
	Date                  time.Time `json:"date"`
	DayOfMonth            int       `json:"day_of_month"`
	IsInDisplayedMonth    bool      `json:"is_in_displayed_month"`
	MediaCount            int       `json:"media_count"`
	RepresentativeAssetID *string   `json:"representative_asset_id"`
	HasCrossDatePin       bool      `json:"has_cross_date_pin"`
}
