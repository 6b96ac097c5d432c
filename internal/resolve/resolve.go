// Package resolve decides which media represents a calendar day.
//
// Precedence is fixed: a resolvable pin beats a preference, which beats the
// default selection over the day's native media.
package resolve

import (
	"context"
	"time"

	"github.com/hpungsan/dayreel/internal/logging"
	"github.com/hpungsan/dayreel/internal/media"
)

// PinReader is the read side of the pin store.
type PinReader interface {
	GetPin(ctx context.Context, targetDay time.Time) (media.Pin, bool)
}

// PinStore adds the compare-and-delete used for self-healing.
type PinStore interface {
	PinReader
	RemoveIfAsset(ctx context.Context, targetDay time.Time, assetID string) bool
}

// PreferenceReader is the read side of the preference store.
type PreferenceReader interface {
	GetPreferred(ctx context.Context, day time.Time) (string, bool)
}

// PreferenceStore adds the compare-and-delete used for self-healing.
type PreferenceStore interface {
	PreferenceReader
	RemoveIfAsset(ctx context.Context, day time.Time, assetID string) bool
}

// Options configures the resolvers.
type Options struct {
	// Location defines day boundaries. Nil means time.Local.
	Location *time.Location

	// FirstWeekday is the first column of a month grid.
	FirstWeekday time.Weekday

	// Parallelism bounds concurrent day resolutions. Values < 1 mean 1.
	Parallelism int

	// DefaultClipSeconds is the estimated length of a selection without a duration.
	DefaultClipSeconds float64

	Logger *logging.Logger
}

func (o Options) withDefaults() Options {
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.Parallelism < 1 {
		o.Parallelism = 1
	}
	if o.DefaultClipSeconds <= 0 {
		o.DefaultClipSeconds = DefaultClipSeconds
	}
	o.Logger = logging.OrNop(o.Logger)
	return o
}

// DefaultClipSeconds is the clip length assumed for media without a measured duration.
const DefaultClipSeconds = 3.0

func containsAsset(candidates []media.Descriptor, assetID string) bool {
	_, ok := media.Find(candidates, assetID)
	return ok
}
